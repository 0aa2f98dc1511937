package plugins

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kingrea/browser-forge/internal/contracts"
	"github.com/kingrea/browser-forge/internal/module"
	"github.com/kingrea/browser-forge/internal/platform"
)

// ModuleDefinition describes a command-driven module loaded from a project's
// module directories (YAML files or Go files evaluated at startup).
type ModuleDefinition struct {
	Name             string            `json:"name" yaml:"name"`
	Phase            string            `json:"phase,omitempty" yaml:"phase,omitempty"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	Platform         string            `json:"platform,omitempty" yaml:"platform,omitempty"`
	EnabledByDefault *bool             `json:"enabled_by_default,omitempty" yaml:"enabled_by_default,omitempty"`
	Requires         []string          `json:"requires,omitempty" yaml:"requires,omitempty"`
	Produces         []string          `json:"produces,omitempty" yaml:"produces,omitempty"`
	Command          CommandSpec       `json:"command" yaml:"command"`
	Outputs          map[string]string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// CommandSpec is the process a plugin module runs.
type CommandSpec struct {
	Run     []string          `json:"run" yaml:"run"`
	Dir     string            `json:"dir,omitempty" yaml:"dir,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Timeout string            `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Normalized returns a trimmed copy with defaults applied.
func (def ModuleDefinition) Normalized() ModuleDefinition {
	clone := ModuleDefinition{
		Name:        strings.TrimSpace(def.Name),
		Phase:       strings.ToLower(strings.TrimSpace(def.Phase)),
		Description: strings.TrimSpace(def.Description),
		Platform:    strings.TrimSpace(def.Platform),
		Requires:    trimAll(def.Requires),
		Produces:    trimAll(def.Produces),
		Command: CommandSpec{
			Run:     append([]string(nil), def.Command.Run...),
			Dir:     strings.TrimSpace(def.Command.Dir),
			Timeout: strings.TrimSpace(def.Command.Timeout),
		},
	}
	if clone.Phase == "" {
		clone.Phase = string(module.PhaseBuild)
	}
	if def.EnabledByDefault != nil {
		enabled := *def.EnabledByDefault
		clone.EnabledByDefault = &enabled
	}
	if len(def.Command.Env) > 0 {
		clone.Command.Env = make(map[string]string, len(def.Command.Env))
		for key, value := range def.Command.Env {
			if trimmed := strings.TrimSpace(key); trimmed != "" {
				clone.Command.Env[trimmed] = value
			}
		}
	}
	if len(def.Outputs) > 0 {
		clone.Outputs = make(map[string]string, len(def.Outputs))
		for name, path := range def.Outputs {
			clone.Outputs[strings.TrimSpace(name)] = strings.TrimSpace(path)
		}
	}
	return clone
}

// Validate reports every problem with the definition at once.
func (def ModuleDefinition) Validate() error {
	normalized := def.Normalized()
	if normalized.Name == "" {
		return fmt.Errorf("plugin: name is required")
	}
	var errs []error
	if normalized.Platform != "" {
		if _, err := platform.Parse(normalized.Platform); err != nil {
			errs = append(errs, err)
		}
	}
	if len(normalized.Command.Run) == 0 || normalized.Command.Run[0] == "" {
		errs = append(errs, fmt.Errorf("command.run is required"))
	}
	if normalized.Command.Timeout != "" {
		if d, err := time.ParseDuration(normalized.Command.Timeout); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("command.timeout %q is not a positive duration", normalized.Command.Timeout))
		}
	}
	errs = append(errs, contracts.LintDescriptor(normalized.descriptor())...)
	produced := map[string]struct{}{}
	for _, name := range normalized.Produces {
		produced[name] = struct{}{}
		if normalized.Outputs[name] == "" {
			errs = append(errs, fmt.Errorf("outputs.%s: path is required for every produced artifact", name))
		}
	}
	for _, name := range sortedOutputNames(normalized.Outputs) {
		if _, ok := produced[name]; !ok {
			errs = append(errs, fmt.Errorf("outputs.%s: not listed in produces", name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("plugin %s: %w", normalized.Name, errors.Join(errs...))
	}
	return nil
}

// Timeout returns the parsed command timeout, or zero for none.
func (def ModuleDefinition) Timeout() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(def.Command.Timeout))
	if err != nil {
		return 0
	}
	return d
}

// Options converts the definition into registration options.
func (def ModuleDefinition) Options() []module.Option {
	opts := []module.Option{
		module.WithPhase(module.Phase(def.Phase)),
		module.WithRequires(def.Requires...),
		module.WithProduces(def.Produces...),
	}
	if def.Description != "" {
		opts = append(opts, module.WithDescription(def.Description))
	}
	if def.Platform != "" {
		if p, err := platform.Parse(def.Platform); err == nil {
			opts = append(opts, module.WithPlatform(p))
		}
	}
	if def.EnabledByDefault != nil && !*def.EnabledByDefault {
		opts = append(opts, module.DisabledByDefault())
	}
	return opts
}

func (def ModuleDefinition) descriptor() module.Descriptor {
	return module.Descriptor{
		Name:     def.Name,
		Phase:    module.Phase(def.Phase),
		Requires: def.Requires,
		Produces: def.Produces,
	}
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func sortedOutputNames(outputs map[string]string) []string {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
