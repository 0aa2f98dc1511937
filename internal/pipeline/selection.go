package pipeline

import (
	"github.com/kingrea/browser-forge/internal/module"
	"github.com/kingrea/browser-forge/internal/platform"
)

// DefaultSelection returns the modules enabled by default that can run on p,
// in registration order. It is used when no pipeline file is given.
func DefaultSelection(reg *module.Registry, p platform.Platform) []string {
	var names []string
	for _, name := range reg.Names() {
		desc, ok := reg.Metadata(name)
		if !ok || !desc.EnabledByDefault || !desc.SupportsPlatform(p) {
			continue
		}
		names = append(names, name)
	}
	return names
}
