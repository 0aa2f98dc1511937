package resolver

// Validate checks that every artifact a selected module requires is produced
// inside the selection. When it is not, the error says whether any registered
// module could produce it, and if so which one to add.
func Validate(catalog Catalog, selected []string) error {
	g, err := Build(catalog, selected)
	if err != nil {
		return err
	}
	return g.validate(catalog)
}

func (g *Graph) validate(catalog Catalog) error {
	for _, name := range g.selection {
		for _, artifact := range g.modules[name].Requires {
			if _, ok := g.producers[artifact]; ok {
				continue
			}
			if producer, ok := findProducer(catalog, artifact); ok {
				return &ExcludedProducerError{Module: name, Artifact: artifact, Producer: producer}
			}
			return &MissingProducerError{Module: name, Artifact: artifact, Selected: g.Selection()}
		}
	}
	return nil
}

// Order returns a deterministic topological order of selected. Requirements
// produced outside the selection add no edge; Validate reports those.
func Order(catalog Catalog, selected []string) ([]string, error) {
	g, err := Build(catalog, selected)
	if err != nil {
		return nil, err
	}
	return g.Order()
}

// Plan validates and orders in one pass. Either the whole order comes back or
// an error does.
func Plan(catalog Catalog, selected []string) ([]string, error) {
	g, err := Build(catalog, selected)
	if err != nil {
		return nil, err
	}
	if err := g.validate(catalog); err != nil {
		return nil, err
	}
	return g.Order()
}

// MissingDependencies lists, per selected module, the required artifacts with
// no producer in the selection. Modules with nothing missing are omitted.
func MissingDependencies(catalog Catalog, selected []string) (map[string][]string, error) {
	g, err := Build(catalog, selected)
	if err != nil {
		return nil, err
	}
	missing := map[string][]string{}
	for _, name := range g.selection {
		for _, artifact := range g.modules[name].Requires {
			if _, ok := g.producers[artifact]; !ok {
				missing[name] = append(missing[name], artifact)
			}
		}
	}
	return missing, nil
}

func findProducer(catalog Catalog, artifact string) (string, bool) {
	for _, name := range catalog.Names() {
		desc, ok := catalog.Metadata(name)
		if !ok {
			continue
		}
		for _, produced := range desc.Produces {
			if produced == artifact {
				return name, true
			}
		}
	}
	return "", false
}

// Validator binds a catalog to one selection.
type Validator struct {
	catalog  Catalog
	selected []string
}

// NewValidator copies selected so later caller edits do not leak in.
func NewValidator(catalog Catalog, selected []string) *Validator {
	return &Validator{catalog: catalog, selected: append([]string{}, selected...)}
}

// Validate reports the first unmet requirement.
func (v *Validator) Validate() error {
	return Validate(v.catalog, v.selected)
}

// ExecutionOrder returns the deterministic run order.
func (v *Validator) ExecutionOrder() ([]string, error) {
	return Order(v.catalog, v.selected)
}

// Missing lists unmet requirements per module.
func (v *Validator) Missing() (map[string][]string, error) {
	return MissingDependencies(v.catalog, v.selected)
}
