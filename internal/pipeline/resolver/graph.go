package resolver

import (
	"sort"

	"github.com/kingrea/browser-forge/internal/module"
)

// Catalog is the read-only view of the registry the resolver needs.
// *module.Registry satisfies it.
type Catalog interface {
	Metadata(name string) (module.Descriptor, bool)
	Names() []string
}

// Graph is the producer/consumer graph for one selection.
type Graph struct {
	selection  []string
	index      map[string]int
	producers  map[string]string
	deps       map[string]map[string]struct{}
	dependents map[string]map[string]struct{}
	modules    map[string]module.Descriptor
}

// Build constructs the graph for selected. Duplicate names keep their first
// position. It fails on names the catalog does not know and as soon as a second
// selected module claims an artifact that already has a producer.
func Build(catalog Catalog, selected []string) (*Graph, error) {
	g := &Graph{
		index:      map[string]int{},
		producers:  map[string]string{},
		deps:       map[string]map[string]struct{}{},
		dependents: map[string]map[string]struct{}{},
		modules:    map[string]module.Descriptor{},
	}
	for _, name := range selected {
		if _, seen := g.index[name]; seen {
			continue
		}
		desc, ok := catalog.Metadata(name)
		if !ok {
			return nil, &UnknownModuleError{Name: name}
		}
		g.index[name] = len(g.selection)
		g.selection = append(g.selection, name)
		g.modules[name] = desc
		for _, artifact := range desc.Produces {
			if owner, taken := g.producers[artifact]; taken && owner != name {
				return nil, &DuplicateProducerError{Artifact: artifact, First: owner, Second: name}
			}
			g.producers[artifact] = name
		}
	}
	for _, name := range g.selection {
		g.deps[name] = map[string]struct{}{}
		g.dependents[name] = map[string]struct{}{}
	}
	for _, name := range g.selection {
		for _, artifact := range g.modules[name].Requires {
			producer, ok := g.producers[artifact]
			if !ok {
				continue
			}
			g.deps[name][producer] = struct{}{}
			g.dependents[producer][name] = struct{}{}
		}
	}
	return g, nil
}

// Selection returns the deduplicated selection in caller order.
func (g *Graph) Selection() []string {
	return append([]string{}, g.selection...)
}

// Producer returns the selected module producing artifact.
func (g *Graph) Producer(artifact string) (string, bool) {
	name, ok := g.producers[artifact]
	return name, ok
}

// Dependencies returns the sorted modules name waits on.
func (g *Graph) Dependencies(name string) []string {
	return sortedKeys(g.deps[name])
}

// Dependents returns the sorted modules waiting on name.
func (g *Graph) Dependents(name string) []string {
	return sortedKeys(g.dependents[name])
}

// Order runs Kahn's algorithm, always taking the lexically smallest ready
// module so equal inputs give equal outputs.
func (g *Graph) Order() ([]string, error) {
	inDegree := make(map[string]int, len(g.selection))
	var ready []string
	for _, name := range g.selection {
		inDegree[name] = len(g.deps[name])
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.selection))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		added := false
		for _, dependent := range g.Dependents(next) {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
				added = true
			}
		}
		if added {
			sort.Strings(ready)
		}
	}

	if len(order) < len(g.selection) {
		placed := make(map[string]struct{}, len(order))
		for _, name := range order {
			placed[name] = struct{}{}
		}
		var remaining []string
		for _, name := range g.selection {
			if _, ok := placed[name]; !ok {
				remaining = append(remaining, name)
			}
		}
		return nil, &CycleError{Remaining: remaining}
	}
	return order, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
