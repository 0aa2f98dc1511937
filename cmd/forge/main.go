package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kingrea/browser-forge/internal/config"
	"github.com/kingrea/browser-forge/internal/logging"
	"github.com/kingrea/browser-forge/internal/module"
	"github.com/kingrea/browser-forge/internal/modules"
	"github.com/kingrea/browser-forge/internal/pipeline/resolver"
	"github.com/kingrea/browser-forge/internal/pipeline/runner"
	"github.com/kingrea/browser-forge/plugins"
)

const usage = `forge builds browser releases from registered modules.

Usage:
  forge <command> [flags] [modules...]

Commands:
  modules    list registered modules
  phases     list phases and the modules in each
  validate   check that a selection's dependencies are satisfied
  order      print the execution order for a selection
  run        execute a selection

Run "forge <command> --help" for command flags.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type command func(ctx context.Context, app *app, args []string) error

var commands = map[string]command{
	"modules":  modulesCommand,
	"phases":   phasesCommand,
	"validate": validateCommand,
	"order":    orderCommand,
	"run":      runCommand,
}

// app holds what every command needs once the project is loaded.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	project  string
	cfg      *config.Config
	logger   *logging.Logger
	registry *module.Registry
}

type globalFlags struct {
	project string
	verbose bool
}

func (g *globalFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&g.project, "project", "C", "", "project directory (defaults to the working directory)")
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "mirror log lines to stderr")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stdout, usage)
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "error: unknown command %q\n", args[0])
		fmt.Fprint(stderr, usage)
		return 2
	}
	a := &app{stdout: stdout, stderr: stderr}
	if err := cmd(ctx, a, args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		report(stderr, err)
		return 1
	}
	return 0
}

// report prints one actionable line plus a hint when the error carries one.
func report(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
	var modErr *runner.ModuleError
	if errors.As(err, &modErr) {
		fmt.Fprintf(w, "hint: see .forge/logs/forge.log for %s output\n", modErr.Module)
		return
	}
	if hint := resolver.Suggestion(err); hint != "" {
		fmt.Fprintf(w, "hint: %s\n", hint)
	}
}

// load resolves the project directory, reads config and builds the registry
// with built-in and plugin modules.
func (a *app) load(g globalFlags) error {
	project := g.project
	if project == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		project = wd
	}
	abs, err := filepath.Abs(project)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}
	if err := config.InitForgeDir(abs); err != nil {
		return fmt.Errorf("init .forge: %w", err)
	}
	cfg, err := config.NewConfig(abs)
	if err != nil {
		return err
	}
	opts := []logging.Option{logging.WithLevel(logging.ParseLevel(cfg.Project.LogLevel))}
	if g.verbose {
		opts = append(opts, logging.WithMirror(a.stderr))
	}
	logger, err := logging.New(abs, opts...)
	if err != nil {
		return err
	}
	reg := module.NewRegistry()
	if err := modules.RegisterBuiltins(reg); err != nil {
		logger.Close()
		return err
	}
	defs, err := plugins.Discover(reg, cfg.PluginDirs()...)
	if err != nil {
		logger.Close()
		return err
	}
	for _, def := range defs {
		logger.Debugf("plugin %s loaded from %s", def.Definition.Name, def.Path)
	}
	a.project = abs
	a.cfg = cfg
	a.logger = logger
	a.registry = reg
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
