package artifact

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const manifestVersion = 1

// Manifest is the on-disk summary of every artifact a build produced.
type Manifest struct {
	Version   int               `yaml:"version"`
	CreatedAt time.Time         `yaml:"created_at"`
	Build     map[string]string `yaml:"build,omitempty"`
	Artifacts []ManifestEntry   `yaml:"artifacts"`
}

// ManifestEntry mirrors Artifact with YAML tags.
type ManifestEntry struct {
	Name      string            `yaml:"name"`
	Paths     []string          `yaml:"paths"`
	Size      *int64            `yaml:"size,omitempty"`
	Checksum  string            `yaml:"checksum,omitempty"`
	Signature string            `yaml:"signature,omitempty"`
	Metadata  map[string]string `yaml:"metadata,omitempty"`
}

// Manifest snapshots the store in insertion order.
func (s *Store) Manifest(build map[string]string) Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	manifest := Manifest{
		Version:   manifestVersion,
		CreatedAt: s.now().UTC(),
		Build:     cloneNotes(build),
		Artifacts: make([]ManifestEntry, 0, len(s.order)),
	}
	for _, name := range s.order {
		record := s.artifacts[name].Clone()
		manifest.Artifacts = append(manifest.Artifacts, ManifestEntry{
			Name:      record.Name,
			Paths:     record.Paths,
			Size:      record.Size,
			Checksum:  record.Checksum,
			Signature: record.Signature,
			Metadata:  record.Metadata,
		})
	}
	return manifest
}

// WriteManifest renders the store to a YAML file at path.
func (s *Store) WriteManifest(path string, build map[string]string) error {
	data, err := yaml.Marshal(s.Manifest(build))
	if err != nil {
		return fmt.Errorf("artifact: encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("artifact: ensure manifest dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadManifest decodes a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("artifact: read manifest %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Manifest{}, fmt.Errorf("artifact: manifest %s is empty", path)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("artifact: decode manifest %s: %w", path, err)
	}
	if manifest.Version != manifestVersion {
		return Manifest{}, fmt.Errorf("artifact: manifest %s has unsupported version %d", path, manifest.Version)
	}
	return manifest, nil
}
