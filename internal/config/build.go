package config

import (
	"fmt"
	"strings"

	"github.com/kingrea/browser-forge/internal/platform"
)

// BuildType selects debug or release output.
type BuildType string

const (
	BuildDebug   BuildType = "debug"
	BuildRelease BuildType = "release"
)

// ParseBuildType validates user input.
func ParseBuildType(value string) (BuildType, error) {
	switch BuildType(strings.ToLower(strings.TrimSpace(value))) {
	case "", BuildDebug:
		return BuildDebug, nil
	case BuildRelease:
		return BuildRelease, nil
	default:
		return "", fmt.Errorf("config: build type must be debug or release, got %q", value)
	}
}

// BuildConfig describes one build. It is passed by value so modules cannot
// change it underneath each other.
type BuildConfig struct {
	Platform     platform.Platform
	Architecture platform.Architecture
	BuildType    BuildType
	AppBaseName  string
	Version      string
	OutputDir    string
	Environment  map[string]string
}

// NewBuildConfig derives a host-targeted build config from project settings.
func NewBuildConfig(cfg *Config) BuildConfig {
	build := BuildConfig{
		Platform:     platform.Current(),
		Architecture: platform.CurrentArchitecture(),
		BuildType:    BuildDebug,
		AppBaseName:  defaultAppName,
	}
	if cfg != nil {
		build.AppBaseName = cfg.Project.AppName
		build.OutputDir = cfg.OutputDir()
	}
	return build
}

// Validate checks the enumerations and the universal/macOS restriction.
func (b BuildConfig) Validate() error {
	if !b.Platform.Valid() {
		return fmt.Errorf("config: unsupported platform %q", b.Platform)
	}
	if !b.Architecture.Valid() {
		return fmt.Errorf("config: unsupported architecture %q", b.Architecture)
	}
	if !b.Architecture.SupportedOn(b.Platform) {
		return fmt.Errorf("config: %s builds are only supported on macOS", b.Architecture)
	}
	if _, err := ParseBuildType(string(b.BuildType)); err != nil {
		return err
	}
	if strings.TrimSpace(b.OutputDir) == "" {
		return fmt.Errorf("config: output directory is required")
	}
	return nil
}

// AppName returns the platform-specific application bundle name.
func (b BuildConfig) AppName() string {
	base := b.AppBaseName
	if base == "" {
		base = defaultAppName
	}
	switch b.Platform {
	case platform.MacOS:
		return base + ".app"
	case platform.Windows:
		return base + ".exe"
	default:
		return strings.ToLower(base)
	}
}

// IsRelease reports whether this is a release build.
func (b BuildConfig) IsRelease() bool {
	return b.BuildType == BuildRelease
}

// IsUniversal reports whether this is a macOS universal build.
func (b BuildConfig) IsUniversal() bool {
	return b.Architecture == platform.Universal
}

// Describe flattens the config for manifests and progress events.
func (b BuildConfig) Describe() map[string]string {
	out := map[string]string{
		"platform":     b.Platform.String(),
		"architecture": string(b.Architecture),
		"build_type":   string(b.BuildType),
		"app_name":     b.AppName(),
	}
	if b.Version != "" {
		out["version"] = b.Version
	}
	return out
}

// WithEnvironment returns a copy with env merged over the existing values.
func (b BuildConfig) WithEnvironment(env map[string]string) BuildConfig {
	merged := make(map[string]string, len(b.Environment)+len(env))
	for k, v := range b.Environment {
		merged[k] = v
	}
	for k, v := range env {
		merged[k] = v
	}
	b.Environment = merged
	return b
}
