// Package stage_app copies an already-built or downloaded browser into the
// output directory, standing in for compile when binaries come from elsewhere.
package stage_app

import (
	"os"
	"path/filepath"

	"github.com/kingrea/browser-forge/internal/artifact"
	"github.com/kingrea/browser-forge/internal/module"
	"github.com/kingrea/browser-forge/internal/modules/runtime"
)

const (
	moduleID = "stage_app"
	// SourceEnv names the environment variable used when no "source"
	// parameter is configured.
	SourceEnv = "FORGE_APP_SOURCE"
)

// Module stages a prebuilt application.
type Module struct {
	module.Base
}

// New constructs the stage_app module.
func New() *Module {
	m := &Module{Base: module.NewBase("Stage a prebuilt browser into the output directory")}
	m.SetRequires(artifact.CleanWorkspace)
	m.SetProduces(artifact.BuiltApp)
	return m
}

// Register installs the stage_app module.
func Register(reg *module.Registry) error {
	return reg.Register(moduleID, New(), module.WithPhase(module.PhaseBuild))
}

func source(ctx *module.Context) string {
	fallback := ctx.Build.Environment[SourceEnv]
	if fallback == "" {
		fallback = os.Getenv(SourceEnv)
	}
	return ctx.Params.String("source", fallback)
}

func (m *Module) Validate(ctx *module.Context) error {
	src := source(ctx)
	if src == "" {
		return module.Invalid(moduleID, "no source configured; set the \"source\" parameter or %s", SourceEnv)
	}
	if _, err := os.Stat(src); err != nil {
		return module.Invalid(moduleID, "source %s is not readable: %v", src, err)
	}
	return nil
}

func (m *Module) Execute(ctx *module.Context) error {
	src := source(ctx)
	dst := filepath.Join(ctx.Build.OutputDir, ctx.Build.AppName())
	ctx.Logger.Infof("stage_app: copying %s to %s", src, dst)
	size, err := runtime.CopyTree(src, dst)
	if err != nil {
		return err
	}
	return ctx.Artifacts.Add(artifact.BuiltApp, dst,
		artifact.WithSize(size),
		artifact.WithMetadata(map[string]string{"source": src}),
	)
}
