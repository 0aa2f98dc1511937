// Package clean resets the build output directory so later steps never see
// stale files from a previous run.
package clean

import (
	"github.com/kingrea/browser-forge/internal/artifact"
	"github.com/kingrea/browser-forge/internal/module"
	"github.com/kingrea/browser-forge/internal/modules/runtime"
)

const moduleID = "clean"

// Module empties the output directory.
type Module struct {
	module.Base
}

// New constructs the clean module.
func New() *Module {
	m := &Module{Base: module.NewBase("Reset the build output directory")}
	m.SetProduces(artifact.CleanWorkspace)
	return m
}

// Register installs the clean module.
func Register(reg *module.Registry) error {
	return reg.Register(moduleID, New(), module.WithPhase(module.PhaseSetup))
}

func (m *Module) Validate(ctx *module.Context) error {
	if ctx.Build.OutputDir == "" {
		return module.Invalid(moduleID, "output directory is not configured")
	}
	return nil
}

func (m *Module) Execute(ctx *module.Context) error {
	dir := ctx.Build.OutputDir
	ctx.Logger.Infof("clean: resetting %s", dir)
	if err := runtime.ResetDirectory(dir); err != nil {
		return err
	}
	return ctx.Artifacts.Add(artifact.CleanWorkspace, dir)
}
