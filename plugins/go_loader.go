package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

// GoDefinitionFunc is the function a Go plugin file must declare. It returns
// definitions in the same shape as the YAML schema.
const GoDefinitionFunc = "ModuleDefinitions"

// LoadGoDefinitionDir interprets every .go file in dir with yaegi and collects
// the definitions each one returns.
func LoadGoDefinitionDir(dir string) ([]DefinitionFile, error) {
	entries, err := readPluginDir(dir)
	if err != nil {
		return nil, err
	}
	var defs []DefinitionFile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".go" || strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}
		fileDefs, err := loadGoDefinitionFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)
	}
	sort.SliceStable(defs, func(i, j int) bool { return defs[i].Path < defs[j].Path })
	return defs, nil
}

func loadGoDefinitionFile(path string) ([]DefinitionFile, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("plugin: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("plugin: load stdlib symbols: %w", err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("plugin: interpret %s: %w", path, err)
	}
	fn, err := i.Eval(GoDefinitionFunc)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s must define %s() ([]map[string]any, error): %w", path, GoDefinitionFunc, err)
	}
	raw, err := callDefinitions(fn)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	files := make([]DefinitionFile, 0, len(raw))
	for idx, entry := range raw {
		payload, err := yaml.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("plugin: %s definition[%d]: %w", path, idx, err)
		}
		parsed, err := ParseDefinitionYAML(payload)
		if err != nil {
			return nil, fmt.Errorf("plugin: %s definition[%d]: %w", path, idx, err)
		}
		files = append(files, DefinitionFile{Definition: parsed, Path: fmt.Sprintf("%s#%d", path, idx+1)})
	}
	return files, nil
}

func callDefinitions(fn reflect.Value) ([]map[string]any, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", GoDefinitionFunc)
	}
	if fn.Type().NumIn() != 0 {
		return nil, fmt.Errorf("%s must take no arguments", GoDefinitionFunc)
	}
	results := fn.Call(nil)
	switch len(results) {
	case 1:
	case 2:
		if errVal := results[1]; !errVal.IsNil() {
			if err, ok := errVal.Interface().(error); ok {
				return nil, err
			}
			return nil, fmt.Errorf("%s returned a non-error second value", GoDefinitionFunc)
		}
	default:
		return nil, fmt.Errorf("%s must return ([]map[string]any[, error])", GoDefinitionFunc)
	}
	list := results[0]
	if defs, ok := list.Interface().([]map[string]any); ok {
		return defs, nil
	}
	if list.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s must return []map[string]any", GoDefinitionFunc)
	}
	defs := make([]map[string]any, list.Len())
	for i := range defs {
		m, ok := list.Index(i).Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not map[string]any", GoDefinitionFunc, i)
		}
		defs[i] = m
	}
	return defs, nil
}
