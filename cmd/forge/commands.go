package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/kingrea/browser-forge/internal/artifact"
	"github.com/kingrea/browser-forge/internal/config"
	"github.com/kingrea/browser-forge/internal/contracts"
	"github.com/kingrea/browser-forge/internal/module"
	"github.com/kingrea/browser-forge/internal/pipeline"
	"github.com/kingrea/browser-forge/internal/pipeline/resolver"
	"github.com/kingrea/browser-forge/internal/pipeline/runner"
	"github.com/kingrea/browser-forge/internal/platform"
	"github.com/kingrea/browser-forge/internal/progress"
	"github.com/kingrea/browser-forge/internal/tui"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func modulesCommand(_ context.Context, a *app, args []string) error {
	var g globalFlags
	var phase, target string
	fs := newFlagSet("modules")
	g.bind(fs)
	fs.StringVar(&phase, "phase", "", "only list modules in this phase")
	fs.StringVar(&target, "platform", "", "only list modules that run on this platform")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.load(g); err != nil {
		return err
	}
	defer a.close()

	descs := a.registry.All()
	if target != "" {
		p, err := platform.Parse(target)
		if err != nil {
			return err
		}
		descs = a.registry.ByPlatform(p)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("MODULE", "PHASE", "PLATFORM", "REQUIRES", "PRODUCES", "DEFAULT")
	for _, name := range a.registry.Names() {
		desc, ok := descs[name]
		if !ok || (phase != "" && string(desc.Phase) != phase) {
			continue
		}
		where := "any"
		if desc.Platform != "" {
			where = desc.Platform.String()
		}
		enabled := "yes"
		if !desc.EnabledByDefault {
			enabled = "no"
		}
		t.Row(name, string(desc.Phase), where, joinOrDash(desc.Requires), joinOrDash(desc.Produces), enabled)
	}
	fmt.Fprintln(a.stdout, t.Render())
	return nil
}

func phasesCommand(_ context.Context, a *app, args []string) error {
	var g globalFlags
	fs := newFlagSet("phases")
	g.bind(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.load(g); err != nil {
		return err
	}
	defer a.close()
	for _, phase := range a.registry.Phases() {
		names := make([]string, 0)
		for name := range a.registry.ByPhase(phase) {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(a.stdout, "%-8s %s\n", phase, strings.Join(names, ", "))
	}
	return nil
}

// selectionFlags pick what to plan: explicit module names, a pipeline file,
// or the registry's default selection for the target platform.
type selectionFlags struct {
	globalFlags
	pipeline string
	target   string
	arch     string
	build    string
}

func (s *selectionFlags) bind(fs *pflag.FlagSet) {
	s.globalFlags.bind(fs)
	fs.StringVarP(&s.pipeline, "pipeline", "p", "", "pipeline definition (path or name under pipelines/)")
	fs.StringVar(&s.target, "platform", "", "target platform (defaults to the host)")
	fs.StringVar(&s.arch, "arch", "", "target architecture (defaults to the host)")
	fs.StringVar(&s.build, "build-type", "", "debug or release")
}

type plan struct {
	selection []string
	build     config.BuildConfig
	def       *pipeline.Definition
}

func (a *app) plan(s selectionFlags, names []string) (plan, error) {
	build := config.NewBuildConfig(a.cfg)
	ref := s.pipeline
	if ref == "" && len(names) == 0 {
		ref = a.cfg.DefaultPipeline()
	}
	var out plan
	if ref != "" {
		path, err := pipeline.Resolve(filepath.Join(a.project, pipeline.DefaultPipelineDir), ref)
		if err != nil {
			return plan{}, err
		}
		def, err := pipeline.LoadFile(path)
		if err != nil {
			return plan{}, err
		}
		if err := def.CheckModulesExist(a.registry); err != nil {
			return plan{}, err
		}
		build = def.BuildConfig(build)
		out.def = &def
	}
	if err := s.applyTarget(&build); err != nil {
		return plan{}, err
	}
	if err := build.Validate(); err != nil {
		return plan{}, err
	}
	switch {
	case len(names) > 0:
		out.selection = names
	case out.def != nil:
		out.def.Platform = build.Platform
		out.selection = out.def.EnabledModules()
	default:
		out.selection = pipeline.DefaultSelection(a.registry, build.Platform)
	}
	out.build = build
	return out, nil
}

func (s selectionFlags) applyTarget(build *config.BuildConfig) error {
	if s.target != "" {
		p, err := platform.Parse(s.target)
		if err != nil {
			return err
		}
		build.Platform = p
	}
	if s.arch != "" {
		arch, err := platform.ParseArchitecture(s.arch)
		if err != nil {
			return err
		}
		build.Architecture = arch
	}
	if s.build != "" {
		bt, err := config.ParseBuildType(s.build)
		if err != nil {
			return err
		}
		build.BuildType = bt
	}
	return nil
}

func validateCommand(_ context.Context, a *app, args []string) error {
	var s selectionFlags
	fs := newFlagSet("validate")
	s.bind(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.load(s.globalFlags); err != nil {
		return err
	}
	defer a.close()
	p, err := a.plan(s, fs.Args())
	if err != nil {
		return err
	}
	problems := contracts.LintCatalog(a.registry)
	for _, name := range a.registry.Names() {
		for _, problem := range problems[name] {
			fmt.Fprintf(a.stderr, "warning: %v\n", problem)
		}
	}
	if err := resolver.Validate(a.registry, p.selection); err != nil {
		if missing, listErr := resolver.MissingDependencies(a.registry, p.selection); listErr == nil {
			names := make([]string, 0, len(missing))
			for name := range missing {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(a.stderr, "  %s is missing %s\n", name, strings.Join(missing[name], ", "))
			}
		}
		return err
	}
	fmt.Fprintf(a.stdout, "ok: %d modules, all requirements satisfied\n", len(p.selection))
	return nil
}

func orderCommand(_ context.Context, a *app, args []string) error {
	var s selectionFlags
	fs := newFlagSet("order")
	s.bind(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.load(s.globalFlags); err != nil {
		return err
	}
	defer a.close()
	p, err := a.plan(s, fs.Args())
	if err != nil {
		return err
	}
	order, err := resolver.Plan(a.registry, p.selection)
	if err != nil {
		return err
	}
	for i, name := range order {
		desc, _ := a.registry.Metadata(name)
		fmt.Fprintf(a.stdout, "%2d. %-20s [%s]\n", i+1, name, desc.Phase)
	}
	return nil
}

func runCommand(ctx context.Context, a *app, args []string) error {
	var s selectionFlags
	var dryRun, useTUI bool
	var progressFile, version string
	fs := newFlagSet("run")
	s.bind(fs)
	fs.StringVar(&version, "version", "", "version stamped into archive names and the manifest")
	fs.BoolVar(&dryRun, "dry-run", false, "print the plan without executing")
	fs.StringVar(&progressFile, "progress-file", "", "append JSON progress events to this file")
	fs.BoolVar(&useTUI, "tui", false, "show a live progress view")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.load(s.globalFlags); err != nil {
		return err
	}
	defer a.close()
	p, err := a.plan(s, fs.Args())
	if err != nil {
		return err
	}
	if version != "" {
		p.build.Version = version
	}

	runID := uuid.NewString()
	reporters := []progress.Reporter{progress.NewLogReporter(a.logger, progress.WithRunID(runID))}
	var file *progress.FileReporter
	if progressFile != "" {
		file, err = progress.NewFileReporter(progressFile, progress.WithRunID(runID))
		if err != nil {
			return err
		}
		reporters = append(reporters, file)
	}
	opts := []runner.Option{runner.WithLogger(a.logger), runner.DryRun(dryRun)}
	if p.def != nil {
		opts = append(opts, runner.WithParams(p.def.Parameters))
	}
	mctx := module.NewContext(p.build, a.logger)

	execute := func(ctx context.Context, extra progress.Reporter) (runner.Result, error) {
		all := append([]progress.Reporter{}, reporters...)
		if extra != nil {
			all = append(all, extra)
		}
		r, err := runner.New(a.registry, append(opts, runner.WithReporter(progress.Multi(all...)))...)
		if err != nil {
			return runner.Result{}, err
		}
		return r.Run(ctx, mctx, p.selection)
	}

	var result runner.Result
	if useTUI && !dryRun {
		err = tui.Run(ctx, p.build.AppName(), runID, func(ctx context.Context, rep progress.Reporter) error {
			var runErr error
			result, runErr = execute(ctx, rep)
			return runErr
		})
	} else {
		result, err = execute(ctx, nil)
	}
	if file != nil {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return err
	}
	if result.DryRun {
		fmt.Fprintf(a.stdout, "dry run: %s\n", strings.Join(result.Order, " -> "))
		return nil
	}
	fmt.Fprintf(a.stdout, "built %s in %s: %d modules\n", p.build.AppName(), result.Duration.Round(time.Millisecond), len(result.Completed))
	if path, err := mctx.Artifacts.Get(artifact.BuildManifest); err == nil {
		fmt.Fprintf(a.stdout, "manifest: %s\n", path)
	}
	return nil
}
