package plugins

import (
	"fmt"

	"github.com/kingrea/browser-forge/internal/module"
)

// Discover loads YAML and Go module definitions from each directory in order
// and registers them as command modules. A name defined twice across the
// scanned files is an error, as is a name that collides with a built-in.
func Discover(reg *module.Registry, dirs ...string) ([]DefinitionFile, error) {
	if reg == nil {
		return nil, fmt.Errorf("plugin: registry is required")
	}
	var all []DefinitionFile
	for _, dir := range dirs {
		defs, err := loadAllDefinitionFiles(dir)
		if err != nil {
			return nil, err
		}
		all = append(all, defs...)
	}
	seen := make(map[string]string, len(all))
	for _, file := range all {
		if existing, ok := seen[file.Definition.Name]; ok {
			return nil, fmt.Errorf("plugin: duplicate module %s (%s and %s)", file.Definition.Name, existing, file.Path)
		}
		seen[file.Definition.Name] = file.Path
	}
	// Stage every registration first so a failure leaves reg untouched.
	staged := module.NewRegistry()
	for _, file := range all {
		def := file.Definition
		if reg.Has(def.Name) {
			unit, _ := reg.Get(def.Name)
			err := &module.DuplicateModuleError{Name: def.Name, Owner: fmt.Sprintf("%T", unit)}
			return nil, fmt.Errorf("plugin: register %s from %s: %w", def.Name, file.Path, err)
		}
		if err := staged.Register(def.Name, NewCommandModule(def, file.Path), def.Options()...); err != nil {
			return nil, fmt.Errorf("plugin: register %s from %s: %w", def.Name, file.Path, err)
		}
	}
	for _, file := range all {
		desc, _ := staged.Metadata(file.Definition.Name)
		if err := reg.Register(desc.Name, desc.Unit, descriptorOptions(desc)...); err != nil {
			return nil, fmt.Errorf("plugin: register %s from %s: %w", desc.Name, file.Path, err)
		}
	}
	return all, nil
}

func descriptorOptions(desc module.Descriptor) []module.Option {
	opts := []module.Option{
		module.WithPhase(desc.Phase),
		module.WithRequires(desc.Requires...),
		module.WithProduces(desc.Produces...),
		module.WithDescription(desc.Description),
		module.WithPlatform(desc.Platform),
	}
	if !desc.EnabledByDefault {
		opts = append(opts, module.DisabledByDefault())
	}
	return opts
}

func loadAllDefinitionFiles(dir string) ([]DefinitionFile, error) {
	yamlDefs, err := LoadDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	goDefs, err := LoadGoDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	return append(yamlDefs, goDefs...), nil
}
