package contracts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/browser-forge/internal/artifact"
	"github.com/kingrea/browser-forge/internal/module"
)

// LintDescriptor checks a module's declared contract. It catches mistakes the
// resolver would otherwise surface as confusing cycles or silent no-ops.
func LintDescriptor(desc module.Descriptor) []error {
	var errs []error
	if strings.TrimSpace(desc.Name) == "" {
		errs = append(errs, fmt.Errorf("name is required"))
	}
	if desc.Phase == "" {
		errs = append(errs, fmt.Errorf("%s: phase is required", desc.Name))
	}
	errs = append(errs, lintList(desc.Name, "requires", desc.Requires)...)
	errs = append(errs, lintList(desc.Name, "produces", desc.Produces)...)
	produced := map[string]struct{}{}
	for _, name := range desc.Produces {
		produced[name] = struct{}{}
	}
	for _, name := range desc.Requires {
		if _, ok := produced[name]; ok && name != "" {
			errs = append(errs, fmt.Errorf("%s: requires %q which it also produces", desc.Name, name))
		}
	}
	return errs
}

func lintList(module, field string, names []string) []error {
	var errs []error
	seen := map[string]struct{}{}
	for idx, name := range names {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("%s: %s[%d] is blank", module, field, idx))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("%s: %s lists %q twice", module, field, name))
		}
		seen[name] = struct{}{}
	}
	return errs
}

// Catalog is the registry view needed by LintCatalog.
type Catalog interface {
	Metadata(name string) (module.Descriptor, bool)
	Names() []string
}

// LintCatalog lints every registered module and additionally reports artifacts
// claimed by more than one producer. Such modules can never be selected
// together.
func LintCatalog(catalog Catalog) map[string][]error {
	out := map[string][]error{}
	producers := map[string][]string{}
	for _, name := range catalog.Names() {
		desc, ok := catalog.Metadata(name)
		if !ok {
			continue
		}
		if errs := LintDescriptor(desc); len(errs) > 0 {
			out[name] = errs
		}
		for _, produced := range desc.Produces {
			producers[produced] = append(producers[produced], name)
		}
	}
	artifacts := make([]string, 0, len(producers))
	for name := range producers {
		artifacts = append(artifacts, name)
	}
	sort.Strings(artifacts)
	for _, name := range artifacts {
		owners := producers[name]
		if len(owners) < 2 {
			continue
		}
		for _, owner := range owners[1:] {
			out[owner] = append(out[owner], fmt.Errorf("%s: %q is also produced by %s", owner, name, owners[0]))
		}
	}
	return out
}

// VerifyOutputs lists the artifacts desc declares but the store does not hold
// after execution.
func VerifyOutputs(desc module.Descriptor, store *artifact.Store) []string {
	var missing []string
	for _, name := range desc.Produces {
		if store == nil || !store.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// RequireInputs fails with a module.ValidationError naming the first required
// artifact absent from the store. Modules call it from Validate.
func RequireInputs(name string, required []string, store *artifact.Store) error {
	for _, artifactName := range required {
		if store == nil || !store.Has(artifactName) {
			return module.Invalid(name, "required artifact %q has not been produced", artifactName)
		}
	}
	return nil
}
