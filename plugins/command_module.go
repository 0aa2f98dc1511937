package plugins

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/kingrea/browser-forge/internal/artifact"
	"github.com/kingrea/browser-forge/internal/contracts"
	"github.com/kingrea/browser-forge/internal/module"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-z_]+)(?::([^}\s]+))?\s*\}\}`)

// CommandModule runs an external process described by a ModuleDefinition and
// records the declared output paths as artifacts.
type CommandModule struct {
	module.Base
	def    ModuleDefinition
	source string
}

// NewCommandModule wraps a validated definition. source names the file the
// definition came from for log lines.
func NewCommandModule(def ModuleDefinition, source string) *CommandModule {
	def = def.Normalized()
	m := &CommandModule{Base: module.NewBase(def.Description), def: def, source: source}
	m.SetRequires(def.Requires...)
	m.SetProduces(def.Produces...)
	return m
}

// Definition returns the definition the module was built from.
func (m *CommandModule) Definition() ModuleDefinition { return m.def }

// Source returns the file the definition was loaded from.
func (m *CommandModule) Source() string { return m.source }

func (m *CommandModule) Validate(ctx *module.Context) error {
	if err := contracts.RequireInputs(m.def.Name, m.def.Requires, ctx.Artifacts); err != nil {
		return err
	}
	if len(m.def.Command.Run) == 0 {
		return module.Invalid(m.def.Name, "command.run is empty")
	}
	if _, err := exec.LookPath(m.def.Command.Run[0]); err != nil {
		return module.Invalid(m.def.Name, "command %q not found: %v", m.def.Command.Run[0], err)
	}
	if _, err := m.expandAll(ctx); err != nil {
		return module.Invalid(m.def.Name, "%v", err)
	}
	return nil
}

func (m *CommandModule) Execute(ctx *module.Context) error {
	expanded, err := m.expandAll(ctx)
	if err != nil {
		return err
	}
	runCtx := ctx.Context()
	if timeout := m.def.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(runCtx, expanded.args[0], expanded.args[1:]...)
	cmd.Dir = expanded.dir
	cmd.Env = m.environment(ctx, expanded.env)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	ctx.Logger.Debugf("%s: running %s", m.def.Name, strings.Join(expanded.args, " "))
	runErr := cmd.Run()
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		if line != "" {
			ctx.Logger.Infof("%s: %s", m.def.Name, line)
		}
	}
	if runErr != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s: command timed out after %s", m.def.Name, m.def.Timeout())
		}
		return fmt.Errorf("%s: command failed: %w", m.def.Name, runErr)
	}
	for _, name := range m.def.Produces {
		path := expanded.outputs[name]
		if !filepath.IsAbs(path) {
			path = filepath.Join(expanded.dir, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("%s: output %s: %w", m.def.Name, name, err)
		}
		opts := []artifact.AddOption{artifact.WithMetadata(map[string]string{"plugin": m.source})}
		if !info.IsDir() {
			opts = append(opts, artifact.WithSize(info.Size()))
		}
		if err := ctx.Artifacts.Add(name, path, opts...); err != nil {
			return fmt.Errorf("%s: record %s: %w", m.def.Name, name, err)
		}
	}
	return nil
}

type expandedCommand struct {
	args    []string
	dir     string
	env     map[string]string
	outputs map[string]string
}

func (m *CommandModule) expandAll(ctx *module.Context) (expandedCommand, error) {
	out := expandedCommand{env: map[string]string{}, outputs: map[string]string{}}
	for _, arg := range m.def.Command.Run {
		value, err := expand(arg, ctx)
		if err != nil {
			return expandedCommand{}, err
		}
		out.args = append(out.args, value)
	}
	dir := m.def.Command.Dir
	if dir == "" {
		dir = ctx.Build.OutputDir
	}
	dir, err := expand(dir, ctx)
	if err != nil {
		return expandedCommand{}, err
	}
	out.dir = dir
	for key, raw := range m.def.Command.Env {
		value, err := expand(raw, ctx)
		if err != nil {
			return expandedCommand{}, err
		}
		out.env[key] = value
	}
	for name, raw := range m.def.Outputs {
		value, err := expand(raw, ctx)
		if err != nil {
			return expandedCommand{}, err
		}
		out.outputs[name] = value
	}
	return out, nil
}

func (m *CommandModule) environment(ctx *module.Context, extra map[string]string) []string {
	env := os.Environ()
	env = append(env, sortedEnv(ctx.Build.Environment)...)
	env = append(env,
		"FORGE_PLATFORM="+ctx.Build.Platform.String(),
		"FORGE_ARCHITECTURE="+string(ctx.Build.Architecture),
		"FORGE_BUILD_TYPE="+string(ctx.Build.BuildType),
		"FORGE_OUTPUT_DIR="+ctx.Build.OutputDir,
	)
	return append(env, sortedEnv(extra)...)
}

func sortedEnv(values map[string]string) []string {
	out := make([]string, 0, len(values))
	for key, value := range values {
		out = append(out, key+"="+value)
	}
	sort.Strings(out)
	return out
}

// expand substitutes {{...}} placeholders. Unknown placeholders and missing
// artifacts are errors so a typo never reaches the shell.
func expand(input string, ctx *module.Context) (string, error) {
	var firstErr error
	result := placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		if firstErr != nil {
			return match
		}
		parts := placeholderPattern.FindStringSubmatch(match)
		value, err := resolvePlaceholder(parts[1], parts[2], ctx)
		if err != nil {
			firstErr = err
			return match
		}
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

func resolvePlaceholder(key, arg string, ctx *module.Context) (string, error) {
	build := ctx.Build
	switch key {
	case "output_dir":
		return build.OutputDir, nil
	case "platform":
		return build.Platform.String(), nil
	case "architecture":
		return string(build.Architecture), nil
	case "build_type":
		return string(build.BuildType), nil
	case "app_name":
		return build.AppName(), nil
	case "version":
		if build.Version == "" {
			return "dev", nil
		}
		return build.Version, nil
	case "artifact":
		if arg == "" {
			return "", fmt.Errorf("placeholder {{artifact}} needs a name")
		}
		if ctx.Artifacts == nil {
			return "", fmt.Errorf("artifact %q is not available", arg)
		}
		path, err := ctx.Artifacts.Get(arg)
		if err != nil {
			return "", fmt.Errorf("artifact %q is not available: %w", arg, err)
		}
		return path, nil
	case "param":
		if arg == "" {
			return "", fmt.Errorf("placeholder {{param}} needs a key")
		}
		value, ok := ctx.Params[arg]
		if !ok {
			return "", fmt.Errorf("parameter %q is not set", arg)
		}
		return fmt.Sprint(value), nil
	default:
		return "", fmt.Errorf("unknown placeholder {{%s}}", key)
	}
}
