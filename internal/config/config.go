// internal/config/config.go
//
// This package handles project configuration and the .forge directory layout.
// Every source checkout that builds with forge gets a .forge/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ForgeDir is the name of the directory we create in each project
	ForgeDir = ".forge"

	// OutputDirEnv overrides output_dir from config.yaml when set.
	OutputDirEnv = "FORGE_OUTPUT_DIR"

	defaultAppName  = "BrowserOS"
	defaultOutput   = "out"
	defaultLogLevel = "info"
)

const defaultProjectConfigYAML = `# forge project configuration
version: 1

# Base name of the shipped application (BrowserOS -> BrowserOS.app on macOS).
app_name: BrowserOS

# Where build outputs are written, relative to the project directory.
output_dir: out

# Extra directories scanned for plugin module definitions (*.yaml, *.go).
# .forge/modules is always scanned.
plugin_dirs: []

# debug, info, warn or error
log_level: info

# Pipeline file used by "forge run" when --pipeline is omitted.
# default_pipeline: pipelines/release.yaml
`

// ProjectConfig models .forge/config.yaml.
type ProjectConfig struct {
	Version         int      `yaml:"version"`
	AppName         string   `yaml:"app_name"`
	OutputDir       string   `yaml:"output_dir"`
	PluginDirs      []string `yaml:"plugin_dirs,omitempty"`
	LogLevel        string   `yaml:"log_level"`
	DefaultPipeline string   `yaml:"default_pipeline,omitempty"`
}

// Config holds the runtime configuration for forge.
type Config struct {
	// ProjectDir is the directory forge was run from
	ProjectDir string

	// ForgeProjectDir is ProjectDir/.forge
	ForgeProjectDir string

	Project ProjectConfig
}

// InitForgeDir creates the .forge directory structure in the given project directory.
//
// Structure created:
// .forge/
// ├── logs/      <- forge.log and progress event streams
// ├── modules/   <- project-local plugin module definitions
// └── config.yaml
func InitForgeDir(projectDir string) error {
	forgeDir := filepath.Join(projectDir, ForgeDir)
	dirs := []string{
		filepath.Join(forgeDir, "logs"),
		filepath.Join(forgeDir, "modules"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(forgeDir, "config.yaml"))
}

// NewConfig creates a Config populated from .forge/config.yaml, falling back to
// defaults when the file does not exist.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:      projectDir,
		ForgeProjectDir: filepath.Join(projectDir, ForgeDir),
		Project:         defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if override := strings.TrimSpace(os.Getenv(OutputDirEnv)); override != "" {
		cfg.Project.OutputDir = resolvePath(projectDir, override)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.ForgeProjectDir, "logs")
}

// ModulesDir returns the project-local plugin directory
func (c *Config) ModulesDir() string {
	return filepath.Join(c.ForgeProjectDir, "modules")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ForgeProjectDir, "config.yaml")
}

// OutputDir returns the absolute build output directory.
func (c *Config) OutputDir() string {
	return c.Project.OutputDir
}

// PluginDirs returns every directory scanned for plugin modules, project-local first.
func (c *Config) PluginDirs() []string {
	dirs := []string{c.ModulesDir()}
	for _, dir := range c.Project.PluginDirs {
		if !contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// DefaultPipeline returns the configured default pipeline path, if any.
func (c *Config) DefaultPipeline() string {
	return c.Project.DefaultPipeline
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Project.normalize(c.ProjectDir)
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:   1,
		AppName:   defaultAppName,
		OutputDir: defaultOutput,
		LogLevel:  defaultLogLevel,
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.AppName) == "" {
		pc.AppName = defaultAppName
	}
	if strings.TrimSpace(pc.OutputDir) == "" {
		pc.OutputDir = defaultOutput
	}
	if strings.TrimSpace(pc.LogLevel) == "" {
		pc.LogLevel = defaultLogLevel
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.AppName = strings.TrimSpace(pc.AppName)
	pc.OutputDir = resolvePath(base, pc.OutputDir)
	pc.LogLevel = strings.ToLower(strings.TrimSpace(pc.LogLevel))
	pc.DefaultPipeline = resolvePath(base, pc.DefaultPipeline)
	dirs := make([]string, 0, len(pc.PluginDirs))
	for _, dir := range pc.PluginDirs {
		if resolved := resolvePath(base, dir); resolved != "" {
			dirs = append(dirs, resolved)
		}
	}
	pc.PluginDirs = dirs
}

func (pc *ProjectConfig) validate() error {
	if pc.Version != 1 {
		return fmt.Errorf("config version must be 1, got %d", pc.Version)
	}
	switch pc.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
