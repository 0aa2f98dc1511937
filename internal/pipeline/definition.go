package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/browser-forge/internal/config"
	"github.com/kingrea/browser-forge/internal/module"
	"github.com/kingrea/browser-forge/internal/platform"
)

// Definition is a named pipeline: a target, the modules to run and the
// environment to run them with. Module order in the file is only a selection;
// execution order comes from the resolver.
type Definition struct {
	Name         string                `json:"name" yaml:"name"`
	Description  string                `json:"description,omitempty" yaml:"description,omitempty"`
	Platform     platform.Platform     `json:"platform,omitempty" yaml:"platform,omitempty"`
	Architecture platform.Architecture `json:"architecture,omitempty" yaml:"architecture,omitempty"`
	BuildType    config.BuildType      `json:"build_type,omitempty" yaml:"build_type,omitempty"`
	Modules      []ModuleConfig        `json:"modules" yaml:"modules"`
	Environment  map[string]string     `json:"environment,omitempty" yaml:"environment,omitempty"`
	OutputDir    string                `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
}

// ModuleConfig configures one module entry in a pipeline.
type ModuleConfig struct {
	Name            string              `json:"name" yaml:"name"`
	Enabled         *bool               `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Parameters      module.Params       `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	SkipOnPlatforms []platform.Platform `json:"skip_on_platforms,omitempty" yaml:"skip_on_platforms,omitempty"`
}

// IsEnabled reports the enabled flag, which defaults to true.
func (m ModuleConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// RunsOn reports whether the entry is enabled and not skipped on p.
func (m ModuleConfig) RunsOn(p platform.Platform) bool {
	if !m.IsEnabled() {
		return false
	}
	for _, skip := range m.SkipOnPlatforms {
		if skip == p {
			return false
		}
	}
	return true
}

// Normalized fills defaults (host platform and architecture, debug builds),
// canonicalizes aliases and validates the result.
func (def Definition) Normalized() (Definition, error) {
	clone := def.Clone()
	clone.Name = strings.TrimSpace(clone.Name)
	if clone.Platform == "" {
		clone.Platform = platform.Current()
	} else {
		p, err := platform.Parse(string(clone.Platform))
		if err != nil {
			return Definition{}, fmt.Errorf("pipeline %s: %w", clone.Name, err)
		}
		clone.Platform = p
	}
	if clone.Architecture == "" {
		clone.Architecture = platform.CurrentArchitecture()
	} else {
		arch, err := platform.ParseArchitecture(string(clone.Architecture))
		if err != nil {
			return Definition{}, fmt.Errorf("pipeline %s: %w", clone.Name, err)
		}
		clone.Architecture = arch
	}
	buildType, err := config.ParseBuildType(string(clone.BuildType))
	if err != nil {
		return Definition{}, fmt.Errorf("pipeline %s: %w", clone.Name, err)
	}
	clone.BuildType = buildType
	for i := range clone.Modules {
		clone.Modules[i].Name = strings.TrimSpace(clone.Modules[i].Name)
		for j, skip := range clone.Modules[i].SkipOnPlatforms {
			p, err := platform.Parse(string(skip))
			if err != nil {
				return Definition{}, fmt.Errorf("pipeline %s module %s: skip_on_platforms: %w", clone.Name, clone.Modules[i].Name, err)
			}
			clone.Modules[i].SkipOnPlatforms[j] = p
		}
	}
	if err := clone.Validate(); err != nil {
		return Definition{}, err
	}
	return clone, nil
}

// Validate checks a normalized definition.
func (def Definition) Validate() error {
	if def.Name == "" {
		return fmt.Errorf("pipeline: name is required")
	}
	if len(def.Modules) == 0 {
		return fmt.Errorf("pipeline %s: at least one module is required", def.Name)
	}
	if !def.Platform.Valid() {
		return fmt.Errorf("pipeline %s: unsupported platform %q", def.Name, def.Platform)
	}
	if !def.Architecture.Valid() {
		return fmt.Errorf("pipeline %s: unsupported architecture %q", def.Name, def.Architecture)
	}
	if !def.Architecture.SupportedOn(def.Platform) {
		return fmt.Errorf("pipeline %s: universal architecture is only supported on macOS", def.Name)
	}
	seen := map[string]struct{}{}
	for idx, entry := range def.Modules {
		if entry.Name == "" {
			return fmt.Errorf("pipeline %s module[%d]: name cannot be empty", def.Name, idx)
		}
		if _, dup := seen[entry.Name]; dup {
			return fmt.Errorf("pipeline %s: module %s listed twice", def.Name, entry.Name)
		}
		seen[entry.Name] = struct{}{}
		for _, skip := range entry.SkipOnPlatforms {
			if !skip.Valid() {
				return fmt.Errorf("pipeline %s module %s: invalid skip platform %q", def.Name, entry.Name, skip)
			}
		}
	}
	return nil
}

// EnabledModules returns the module names that run on the target platform,
// in file order.
func (def Definition) EnabledModules() []string {
	names := make([]string, 0, len(def.Modules))
	for _, entry := range def.Modules {
		if entry.RunsOn(def.Platform) {
			names = append(names, entry.Name)
		}
	}
	return names
}

// Parameters returns the configured parameters for name.
func (def Definition) Parameters(name string) module.Params {
	for _, entry := range def.Modules {
		if entry.Name == name {
			return entry.Parameters
		}
	}
	return nil
}

// Catalog is the registry view needed to check module names.
type Catalog interface {
	Has(name string) bool
	Names() []string
}

// CheckModulesExist fails on the first configured module the catalog does not
// know, listing what is available.
func (def Definition) CheckModulesExist(catalog Catalog) error {
	for _, entry := range def.Modules {
		if catalog.Has(entry.Name) {
			continue
		}
		available := catalog.Names()
		sort.Strings(available)
		return fmt.Errorf("pipeline %s: module %s is not registered (available: %s)",
			def.Name, entry.Name, strings.Join(available, ", "))
	}
	return nil
}

// BuildConfig applies the definition's target over base.
func (def Definition) BuildConfig(base config.BuildConfig) config.BuildConfig {
	build := base.WithEnvironment(def.Environment)
	build.Platform = def.Platform
	build.Architecture = def.Architecture
	build.BuildType = def.BuildType
	if def.OutputDir != "" {
		build.OutputDir = def.OutputDir
	}
	return build
}

// Clone returns a deep copy. Parameter values are copied shallowly.
func (def Definition) Clone() Definition {
	clone := def
	if def.Environment != nil {
		clone.Environment = make(map[string]string, len(def.Environment))
		for k, v := range def.Environment {
			clone.Environment[k] = v
		}
	}
	if def.Modules != nil {
		clone.Modules = make([]ModuleConfig, len(def.Modules))
		for i, entry := range def.Modules {
			clone.Modules[i] = entry.clone()
		}
	}
	return clone
}

func (m ModuleConfig) clone() ModuleConfig {
	clone := m
	if m.Enabled != nil {
		enabled := *m.Enabled
		clone.Enabled = &enabled
	}
	if m.Parameters != nil {
		clone.Parameters = make(module.Params, len(m.Parameters))
		for k, v := range m.Parameters {
			clone.Parameters[k] = v
		}
	}
	clone.SkipOnPlatforms = append([]platform.Platform(nil), m.SkipOnPlatforms...)
	return clone
}
