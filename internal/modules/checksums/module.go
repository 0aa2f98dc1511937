// Package checksums writes a BLAKE3 digest file for the package archive and
// records each digest on the archive artifact as "checksum:<file>" metadata.
// The artifact's Checksum field holds the primary path's digest.
package checksums

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/browser-forge/internal/artifact"
	"github.com/kingrea/browser-forge/internal/module"
	"github.com/kingrea/browser-forge/internal/modules/runtime"
)

const (
	moduleID = "checksums"
	FileName = "CHECKSUMS.blake3"
)

// MetadataKey is the archive metadata key holding the digest of path.
func MetadataKey(path string) string {
	return "checksum:" + filepath.Base(path)
}

// Module computes package digests.
type Module struct {
	module.Base
}

// New constructs the checksums module.
func New() *Module {
	m := &Module{Base: module.NewBase("Write BLAKE3 checksums for package archives")}
	m.SetRequires(artifact.PackageArchive)
	m.SetProduces(artifact.Checksums)
	return m
}

// Register installs the checksums module.
func Register(reg *module.Registry) error {
	return reg.Register(moduleID, New(), module.WithPhase(module.PhasePackage))
}

func (m *Module) Validate(ctx *module.Context) error {
	if _, err := ctx.Artifacts.GetAll(artifact.PackageArchive); err != nil {
		return module.Invalid(moduleID, "%v", err)
	}
	return nil
}

func (m *Module) Execute(ctx *module.Context) error {
	paths, err := ctx.Artifacts.GetAll(artifact.PackageArchive)
	if err != nil {
		return err
	}
	var lines strings.Builder
	for i, path := range paths {
		digest, size, err := artifact.FileChecksum(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(&lines, "%s  %s\n", digest, filepath.Base(path))
		opts := []artifact.AddOption{artifact.WithMetadata(map[string]string{MetadataKey(path): digest})}
		if i == 0 {
			opts = append(opts, artifact.WithChecksum(digest), artifact.WithSize(size))
		}
		if err := ctx.Artifacts.Add(artifact.PackageArchive, path, opts...); err != nil {
			return err
		}
	}
	dist := runtime.DistDir(ctx.Build)
	if err := os.MkdirAll(dist, 0o755); err != nil {
		return fmt.Errorf("checksums: ensure dist: %w", err)
	}
	target := filepath.Join(dist, FileName)
	if err := os.WriteFile(target, []byte(lines.String()), 0o644); err != nil {
		return fmt.Errorf("checksums: write %s: %w", target, err)
	}
	ctx.Logger.Infof("checksums: %d digests written to %s", len(paths), target)
	return ctx.Artifacts.Add(artifact.Checksums, target, artifact.WithMetadata(map[string]string{"algorithm": "blake3"}))
}
