package modules

import (
	"github.com/kingrea/browser-forge/internal/module"
	"github.com/kingrea/browser-forge/internal/modules/build_manifest"
	"github.com/kingrea/browser-forge/internal/modules/checksums"
	"github.com/kingrea/browser-forge/internal/modules/clean"
	"github.com/kingrea/browser-forge/internal/modules/package_archive"
	"github.com/kingrea/browser-forge/internal/modules/stage_app"
)

// RegisterBuiltins installs all of the built-in modules into the provided
// registry. Registration order is the order `forge modules` lists them in.
func RegisterBuiltins(reg *module.Registry) error {
	if reg == nil {
		return nil
	}
	for _, register := range []func(*module.Registry) error{
		clean.Register,
		stage_app.Register,
		package_archive.Register,
		checksums.Register,
		build_manifest.Register,
	} {
		if err := register(reg); err != nil {
			return err
		}
	}
	return nil
}
