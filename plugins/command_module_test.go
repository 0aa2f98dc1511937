package plugins

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/browser-forge/internal/config"
	"github.com/kingrea/browser-forge/internal/logging"
	"github.com/kingrea/browser-forge/internal/module"
	"github.com/kingrea/browser-forge/internal/platform"
)

func testContext(t *testing.T) *module.Context {
	t.Helper()
	build := config.BuildConfig{
		Platform:     platform.Linux,
		Architecture: platform.X64,
		BuildType:    config.BuildRelease,
		AppBaseName:  "browseros",
		OutputDir:    t.TempDir(),
	}
	return module.NewContext(build, logging.NewWriter(&strings.Builder{}))
}

func TestCommandModuleRecordsOutputs(t *testing.T) {
	def, err := ParseDefinitionYAML([]byte(touchYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ctx := testContext(t)
	m := NewCommandModule(def, "touch.yaml")
	if err := m.Validate(ctx); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := m.Execute(ctx); err != nil {
		t.Fatalf("execute: %v", err)
	}
	path, err := ctx.Artifacts.Get("marker")
	if err != nil {
		t.Fatalf("marker not recorded: %v", err)
	}
	if path != filepath.Join(ctx.Build.OutputDir, "marker.txt") {
		t.Fatalf("unexpected path %s", path)
	}
	meta, _ := ctx.Artifacts.Metadata("marker")
	if meta.Size == nil || *meta.Size != 3 {
		t.Fatalf("unexpected size %v", meta.Size)
	}
}

func TestCommandModuleExpandsPlaceholders(t *testing.T) {
	def := ModuleDefinition{
		Name:     "describe",
		Produces: []string{"description"},
		Command: CommandSpec{
			Run: []string{"sh", "-c", "echo {{platform}}-{{architecture}}-{{build_type}}-{{version}}-{{param:channel}}-$FORGE_BUILD_TYPE > {{output_dir}}/describe.txt"},
		},
		Outputs: map[string]string{"description": "{{output_dir}}/describe.txt"},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("validate definition: %v", err)
	}
	ctx := testContext(t).WithParams(module.Params{"channel": "beta"})
	if err := NewCommandModule(def, "inline").Execute(ctx); err != nil {
		t.Fatalf("execute: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(ctx.Build.OutputDir, "describe.txt"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "linux-x64-release-dev-beta-release" {
		t.Fatalf("unexpected expansion %q", got)
	}
}

func TestCommandModuleValidateFailures(t *testing.T) {
	ctx := testContext(t)
	needsInput := NewCommandModule(ModuleDefinition{
		Name:     "upload",
		Requires: []string{"checksums"},
		Command:  CommandSpec{Run: []string{"true"}},
	}, "inline")
	if err := needsInput.Validate(ctx); err == nil || !strings.Contains(err.Error(), "checksums") {
		t.Fatalf("expected missing input error, got %v", err)
	}
	missingBinary := NewCommandModule(ModuleDefinition{
		Name:    "ghost",
		Command: CommandSpec{Run: []string{"forge-definitely-not-installed"}},
	}, "inline")
	if err := missingBinary.Validate(ctx); err == nil {
		t.Fatalf("expected lookup failure")
	}
	typo := NewCommandModule(ModuleDefinition{
		Name:    "typo",
		Command: CommandSpec{Run: []string{"echo", "{{platfrom}}"}},
	}, "inline")
	if err := typo.Validate(ctx); err == nil || !strings.Contains(err.Error(), "unknown placeholder") {
		t.Fatalf("expected placeholder error, got %v", err)
	}
}

func TestCommandModuleFailureAndTimeout(t *testing.T) {
	ctx := testContext(t)
	failing := NewCommandModule(ModuleDefinition{
		Name:    "fail",
		Command: CommandSpec{Run: []string{"sh", "-c", "exit 3"}},
	}, "inline")
	if err := failing.Execute(ctx); err == nil || !strings.Contains(err.Error(), "command failed") {
		t.Fatalf("expected command failure, got %v", err)
	}
	slow := NewCommandModule(ModuleDefinition{
		Name:    "slow",
		Command: CommandSpec{Run: []string{"sleep", "5"}, Timeout: "50ms"},
	}, "inline")
	if err := slow.Execute(ctx); err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout, got %v", err)
	}
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := slow.Execute(ctx.WithContext(cancelled)); err == nil {
		t.Fatalf("cancelled context should stop the command")
	}
}
