package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/browser-forge/internal/platform"
)

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	t.Setenv(OutputDirEnv, "")
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.Project.AppName != defaultAppName {
		t.Fatalf("expected app name %q, got %q", defaultAppName, c.Project.AppName)
	}
	if want := filepath.Join(projectDir, "out"); c.OutputDir() != want {
		t.Fatalf("expected output dir %q, got %q", want, c.OutputDir())
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	t.Setenv(OutputDirEnv, "")
	forgeDir := filepath.Join(projectDir, ForgeDir)
	if err := os.MkdirAll(forgeDir, 0o755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
app_name: Nimbus
output_dir: build/out
plugin_dirs:
  - tools/forge-modules
  - /opt/forge/modules
log_level: DEBUG
default_pipeline: pipelines/release.yaml
`)
	if err := os.WriteFile(filepath.Join(forgeDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.AppName != "Nimbus" {
		t.Fatalf("unexpected app name %q", c.Project.AppName)
	}
	if c.Project.LogLevel != "debug" {
		t.Fatalf("expected log level to be normalized, got %q", c.Project.LogLevel)
	}
	dirs := c.PluginDirs()
	if len(dirs) != 3 {
		t.Fatalf("expected 3 plugin dirs, got %v", dirs)
	}
	if dirs[0] != c.ModulesDir() {
		t.Fatalf("project-local modules dir must come first, got %v", dirs)
	}
	if dirs[1] != filepath.Join(projectDir, "tools", "forge-modules") {
		t.Fatalf("relative plugin dir not resolved: %v", dirs)
	}
	if c.DefaultPipeline() != filepath.Join(projectDir, "pipelines", "release.yaml") {
		t.Fatalf("unexpected default pipeline %q", c.DefaultPipeline())
	}
}

func TestLoadProjectConfigRejectsBadLogLevel(t *testing.T) {
	projectDir := t.TempDir()
	forgeDir := filepath.Join(projectDir, ForgeDir)
	if err := os.MkdirAll(forgeDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(forgeDir, "config.yaml"), []byte("version: 1\nlog_level: loud\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewConfig(projectDir); err == nil {
		t.Fatalf("expected error for invalid log level")
	}
}

func TestOutputDirEnvOverride(t *testing.T) {
	projectDir := t.TempDir()
	t.Setenv(OutputDirEnv, "custom-out")
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if want := filepath.Join(projectDir, "custom-out"); c.OutputDir() != want {
		t.Fatalf("expected %q, got %q", want, c.OutputDir())
	}
}

func TestInitForgeDirWritesDefaultConfigOnce(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitForgeDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	path := filepath.Join(projectDir, ForgeDir, "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\napp_name: Kept\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InitForgeDir(projectDir); err != nil {
		t.Fatalf("second init: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Kept") {
		t.Fatalf("existing config was overwritten")
	}
	if _, err := os.Stat(filepath.Join(projectDir, ForgeDir, "modules")); err != nil {
		t.Fatalf("modules dir missing: %v", err)
	}
}

func TestBuildConfigValidate(t *testing.T) {
	build := BuildConfig{
		Platform:     platform.Linux,
		Architecture: platform.Universal,
		BuildType:    BuildRelease,
		OutputDir:    "/tmp/out",
	}
	if err := build.Validate(); err == nil {
		t.Fatalf("universal linux build must be rejected")
	}
	build.Platform = platform.MacOS
	if err := build.Validate(); err != nil {
		t.Fatalf("universal macos build: %v", err)
	}
	if build.AppName() != "BrowserOS.app" {
		t.Fatalf("unexpected app name %q", build.AppName())
	}
	if !build.IsRelease() || !build.IsUniversal() {
		t.Fatalf("release/universal helpers disagree with config")
	}
}

func TestBuildConfigWithEnvironmentCopies(t *testing.T) {
	base := BuildConfig{Environment: map[string]string{"A": "1"}}
	next := base.WithEnvironment(map[string]string{"B": "2"})
	if _, ok := base.Environment["B"]; ok {
		t.Fatalf("WithEnvironment mutated the receiver")
	}
	if next.Environment["A"] != "1" || next.Environment["B"] != "2" {
		t.Fatalf("unexpected env %v", next.Environment)
	}
}
