// Package build_manifest writes a YAML manifest of every artifact the run
// produced, including itself.
package build_manifest

import (
	"path/filepath"

	"github.com/kingrea/browser-forge/internal/artifact"
	"github.com/kingrea/browser-forge/internal/module"
	"github.com/kingrea/browser-forge/internal/modules/runtime"
)

const (
	moduleID = "build_manifest"
	FileName = "manifest.yaml"
)

// Module writes the build manifest.
type Module struct {
	module.Base
}

// New constructs the build_manifest module.
func New() *Module {
	m := &Module{Base: module.NewBase("Write a YAML manifest of produced artifacts")}
	m.SetRequires(artifact.Checksums)
	m.SetProduces(artifact.BuildManifest)
	return m
}

// Register installs the build_manifest module.
func Register(reg *module.Registry) error {
	return reg.Register(moduleID, New(), module.WithPhase(module.PhaseUpload))
}

func (m *Module) Validate(ctx *module.Context) error {
	if !ctx.Artifacts.Has(artifact.Checksums) {
		return module.Invalid(moduleID, "checksums have not been written")
	}
	return nil
}

func (m *Module) Execute(ctx *module.Context) error {
	target := filepath.Join(runtime.DistDir(ctx.Build), FileName)
	if err := ctx.Artifacts.Add(artifact.BuildManifest, target); err != nil {
		return err
	}
	if err := ctx.Artifacts.WriteManifest(target, ctx.Build.Describe()); err != nil {
		_ = ctx.Artifacts.Remove(artifact.BuildManifest)
		return err
	}
	ctx.Logger.Infof("build_manifest: wrote %s", target)
	return nil
}
