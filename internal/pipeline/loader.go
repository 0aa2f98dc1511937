package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultPipelineDir is where named pipelines live inside a project.
const DefaultPipelineDir = "pipelines"

// ParseYAML decodes and normalizes a YAML pipeline definition.
func ParseYAML(data []byte) (Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Definition{}, fmt.Errorf("pipeline: definition payload is empty")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("pipeline: decode definition: %w", err)
	}
	return def.Normalized()
}

// ParseJSONC decodes JSON, allowing comments and trailing commas.
func ParseJSONC(data []byte) (Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Definition{}, fmt.Errorf("pipeline: definition payload is empty")
	}
	var def Definition
	if err := json.Unmarshal(jsonc.ToJSON(data), &def); err != nil {
		return Definition{}, fmt.Errorf("pipeline: decode definition: %w", err)
	}
	return def.Normalized()
}

// LoadFile picks the decoder by extension. Unknown extensions are tried as
// YAML, which also accepts plain JSON.
func LoadFile(path string) (Definition, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("pipeline: read %s: %w", path, err)
	}
	var def Definition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		def, err = ParseJSONC(content)
	default:
		def, err = ParseYAML(content)
	}
	if err != nil {
		return Definition{}, fmt.Errorf("pipeline: %s: %w", path, err)
	}
	return def, nil
}

// Resolve finds a pipeline by path or by bare name under baseDir, trying
// .yaml, .yml, .jsonc and .json in that order.
func Resolve(baseDir, ref string) (string, error) {
	if strings.ContainsRune(ref, filepath.Separator) || filepath.Ext(ref) != "" {
		return ref, nil
	}
	if baseDir == "" {
		baseDir = DefaultPipelineDir
	}
	for _, ext := range []string{".yaml", ".yml", ".jsonc", ".json"} {
		candidate := filepath.Join(baseDir, ref+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("pipeline: no definition named %s in %s", ref, baseDir)
}

// WriteFile saves def as YAML.
func WriteFile(path string, def Definition) error {
	data, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("pipeline: encode definition: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("pipeline: ensure dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("pipeline: write %s: %w", path, err)
	}
	return nil
}
