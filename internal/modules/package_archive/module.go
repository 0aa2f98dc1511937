// Package package_archive bundles the built application into a zstd
// compressed tarball under <output>/dist.
package package_archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/zstd"

	"github.com/kingrea/browser-forge/internal/artifact"
	"github.com/kingrea/browser-forge/internal/module"
	"github.com/kingrea/browser-forge/internal/modules/runtime"
)

const (
	moduleID  = "package_archive"
	Extension = ".tar.zst"
)

// Module writes the package archive.
type Module struct {
	module.Base
}

// New constructs the package_archive module.
func New() *Module {
	m := &Module{Base: module.NewBase("Create a .tar.zst archive of the built application")}
	m.SetRequires(artifact.BuiltApp)
	m.SetProduces(artifact.PackageArchive)
	return m
}

// Register installs the package_archive module.
func Register(reg *module.Registry) error {
	return reg.Register(moduleID, New(), module.WithPhase(module.PhasePackage))
}

func (m *Module) Validate(ctx *module.Context) error {
	src, err := ctx.Artifacts.Get(artifact.BuiltApp)
	if err != nil {
		return module.Invalid(moduleID, "%v", err)
	}
	if _, err := os.Stat(src); err != nil {
		return module.Invalid(moduleID, "built app %s is missing: %v", src, err)
	}
	return nil
}

func (m *Module) Execute(ctx *module.Context) error {
	src, err := ctx.Artifacts.Get(artifact.BuiltApp)
	if err != nil {
		return err
	}
	dist := runtime.DistDir(ctx.Build)
	if err := os.MkdirAll(dist, 0o755); err != nil {
		return fmt.Errorf("package_archive: ensure dist: %w", err)
	}
	level := zstd.SpeedDefault
	if ctx.Build.IsRelease() {
		level = zstd.SpeedBestCompression
	}
	target := filepath.Join(dist, runtime.ArchiveBase(ctx.Build)+Extension)
	ctx.Logger.Infof("package_archive: writing %s", target)
	entries, err := WriteArchive(target, src, level)
	if err != nil {
		return err
	}
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("package_archive: stat %s: %w", target, err)
	}
	return ctx.Artifacts.Add(artifact.PackageArchive, target,
		artifact.WithSize(info.Size()),
		artifact.WithMetadata(map[string]string{
			"compression": "zstd",
			"entries":     strconv.Itoa(entries),
		}),
	)
}

// WriteArchive tars src (file or directory, rooted at its base name) into a
// zstd stream at target and returns the number of entries written.
func WriteArchive(target, src string, level zstd.EncoderLevel) (entries int, err error) {
	out, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("package_archive: create %s: %w", target, err)
	}
	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("package_archive: close %s: %w", target, closeErr)
		}
	}()
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(level))
	if err != nil {
		return 0, fmt.Errorf("package_archive: zstd writer: %w", err)
	}
	tw := tar.NewWriter(enc)
	root := filepath.Dir(src)
	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		link := ""
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}
		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			header.Name += "/"
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		entries++
		if !info.Mode().IsRegular() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if walkErr != nil {
		_ = tw.Close()
		_ = enc.Close()
		return entries, fmt.Errorf("package_archive: archive %s: %w", src, walkErr)
	}
	if err := tw.Close(); err != nil {
		return entries, fmt.Errorf("package_archive: finish tar: %w", err)
	}
	if err := enc.Close(); err != nil {
		return entries, fmt.Errorf("package_archive: finish zstd: %w", err)
	}
	return entries, nil
}

// ListArchive returns the entry names of a .tar.zst archive.
func ListArchive(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("package_archive: open %s: %w", path, err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("package_archive: zstd reader: %w", err)
	}
	defer dec.Close()
	tr := tar.NewReader(dec)
	var names []string
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, fmt.Errorf("package_archive: read %s: %w", path, err)
		}
		names = append(names, header.Name)
	}
}
