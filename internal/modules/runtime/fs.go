// Package runtime holds filesystem helpers shared by the built-in modules.
package runtime

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/browser-forge/internal/config"
)

// DistDir is where packaging modules write their outputs.
func DistDir(build config.BuildConfig) string {
	return filepath.Join(build.OutputDir, "dist")
}

// ArchiveBase names release files: <app>-<version>-<platform>-<arch>.
func ArchiveBase(build config.BuildConfig) string {
	name := build.AppBaseName
	if name == "" {
		name = "app"
	}
	version := build.Version
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("%s-%s-%s-%s", name, version, build.Platform, build.Architecture)
}

// ResetDirectory removes path and recreates it empty.
func ResetDirectory(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("runtime: refusing to reset an empty path")
	}
	clean := filepath.Clean(path)
	if clean == string(filepath.Separator) || clean == filepath.VolumeName(clean)+string(filepath.Separator) {
		return fmt.Errorf("runtime: refusing to reset filesystem root")
	}
	if err := os.RemoveAll(clean); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("runtime: reset %s: %w", clean, err)
	}
	return os.MkdirAll(clean, 0o755)
}

// CopyTree copies a file or directory to dst and returns the bytes copied.
func CopyTree(src, dst string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("runtime: stat %s: %w", src, err)
	}
	if !info.IsDir() {
		return copyFile(src, dst, info.Mode().Perm())
	}
	var total int64
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		n, err := copyFile(path, target, info.Mode().Perm())
		total += n
		return err
	})
	return total, err
}

// TreeSize sums regular file sizes under path.
func TreeSize(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}

func copyFile(src, dst string, perm fs.FileMode) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("runtime: prepare %s: %w", dst, err)
	}
	srcFile, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("runtime: open %s: %w", src, err)
	}
	defer srcFile.Close()
	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf("runtime: create %s: %w", dst, err)
	}
	n, err := io.Copy(dstFile, srcFile)
	if closeErr := dstFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("runtime: copy %s: %w", filepath.Base(src), err)
	}
	return n, nil
}
