package resolver

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/browser-forge/internal/module"
)

type noopModule struct{}

func (noopModule) Validate(*module.Context) error { return nil }
func (noopModule) Execute(*module.Context) error  { return nil }

type stub struct {
	name     string
	requires []string
	produces []string
}

func newRegistry(t *testing.T, stubs ...stub) *module.Registry {
	t.Helper()
	reg := module.NewRegistry()
	for _, s := range stubs {
		err := reg.Register(s.name, noopModule{},
			module.WithRequires(s.requires...),
			module.WithProduces(s.produces...),
		)
		if err != nil {
			t.Fatalf("register %s: %v", s.name, err)
		}
	}
	return reg
}

func browserChain(t *testing.T) *module.Registry {
	return newRegistry(t,
		stub{name: "clean", produces: []string{"clean_workspace"}},
		stub{name: "configure", requires: []string{"clean_workspace"}, produces: []string{"configured"}},
		stub{name: "compile", requires: []string{"configured"}, produces: []string{"built_app"}},
	)
}

func TestLinearChainValidatesAndOrders(t *testing.T) {
	reg := browserChain(t)
	selection := []string{"clean", "configure", "compile"}
	if err := Validate(reg, selection); err != nil {
		t.Fatalf("validate: %v", err)
	}
	order, err := Order(reg, selection)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if diff := cmp.Diff(selection, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderIgnoresSelectionOrder(t *testing.T) {
	reg := browserChain(t)
	order, err := Plan(reg, []string{"compile", "clean", "configure"})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if diff := cmp.Diff([]string{"clean", "configure", "compile"}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestDiamondBreaksTiesLexically(t *testing.T) {
	reg := newRegistry(t,
		stub{name: "module_b", produces: []string{"artifact_b"}},
		stub{name: "module_c", requires: []string{"artifact_a", "artifact_b"}, produces: []string{"artifact_c"}},
		stub{name: "module_a", produces: []string{"artifact_a"}},
	)
	selection := []string{"module_c", "module_b", "module_a"}
	first, err := Order(reg, selection)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if diff := cmp.Diff([]string{"module_a", "module_b", "module_c"}, first); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	second, err := Order(reg, selection)
	if err != nil {
		t.Fatalf("second order: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("order is not deterministic (-first +second):\n%s", diff)
	}
}

func TestIndependentModulesOrderByName(t *testing.T) {
	reg := newRegistry(t, stub{name: "module_b"}, stub{name: "module_a"})
	order, err := Order(reg, []string{"module_b", "module_a"})
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if diff := cmp.Diff([]string{"module_a", "module_b"}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestReadyRootsInterleaveWithUnlockedModules(t *testing.T) {
	// "b" unlocks "aa", which sorts ahead of the still-waiting root "c".
	reg := newRegistry(t,
		stub{name: "b", produces: []string{"x"}},
		stub{name: "c"},
		stub{name: "aa", requires: []string{"x"}},
	)
	order, err := Order(reg, []string{"c", "aa", "b"})
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "aa", "c"}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestDependenciesPrecedeDependents(t *testing.T) {
	reg := newRegistry(t,
		stub{name: "fetch", produces: []string{"sources"}},
		stub{name: "patch", requires: []string{"sources"}, produces: []string{"patched"}},
		stub{name: "resources", requires: []string{"sources"}, produces: []string{"resources"}},
		stub{name: "compile", requires: []string{"patched", "resources"}, produces: []string{"built_app"}},
		stub{name: "sign", requires: []string{"built_app"}, produces: []string{"signed_app"}},
		stub{name: "package", requires: []string{"signed_app", "resources"}, produces: []string{"installer"}},
	)
	selection := []string{"package", "sign", "compile", "resources", "patch", "fetch"}
	g, err := Build(reg, selection)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	order, err := g.Order()
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	position := map[string]int{}
	for i, name := range order {
		position[name] = i
	}
	for _, name := range selection {
		for _, dep := range g.Dependencies(name) {
			if position[dep] >= position[name] {
				t.Fatalf("%s (index %d) must run before %s (index %d)", dep, position[dep], name, position[name])
			}
		}
	}
	if diff := cmp.Diff([]string{"patch", "resources"}, g.Dependents("fetch")); diff != "" {
		t.Fatalf("dependents mismatch (-want +got):\n%s", diff)
	}
}

func TestCycleIsDetected(t *testing.T) {
	reg := newRegistry(t,
		stub{name: "module_a", requires: []string{"artifact_b"}, produces: []string{"artifact_a"}},
		stub{name: "module_b", requires: []string{"artifact_a"}, produces: []string{"artifact_b"}},
	)
	order, err := Order(reg, []string{"module_a", "module_b"})
	if !errors.Is(err, ErrCircularDependency) {
		t.Fatalf("expected circular dependency, got order=%v err=%v", order, err)
	}
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected *CycleError, got %T", err)
	}
	if diff := cmp.Diff([]string{"module_a", "module_b"}, cycle.Remaining); diff != "" {
		t.Fatalf("remaining mismatch (-want +got):\n%s", diff)
	}
}

func TestCycleLeavesOrderableModulesOut(t *testing.T) {
	reg := newRegistry(t,
		stub{name: "root", produces: []string{"seed"}},
		stub{name: "x", requires: []string{"seed", "from_y"}, produces: []string{"from_x"}},
		stub{name: "y", requires: []string{"from_x"}, produces: []string{"from_y"}},
	)
	_, err := Order(reg, []string{"y", "x", "root"})
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if diff := cmp.Diff([]string{"y", "x"}, cycle.Remaining); diff != "" {
		t.Fatalf("remaining mismatch (-want +got):\n%s", diff)
	}
}

func TestSelfRequirementIsSingleNodeCycle(t *testing.T) {
	reg := newRegistry(t, stub{name: "loop", requires: []string{"state"}, produces: []string{"state"}})
	if err := Validate(reg, []string{"loop"}); err != nil {
		t.Fatalf("self-produced requirement is satisfied for validation: %v", err)
	}
	_, err := Plan(reg, []string{"loop"})
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if diff := cmp.Diff([]string{"loop"}, cycle.Remaining); diff != "" {
		t.Fatalf("remaining mismatch (-want +got):\n%s", diff)
	}
}

func TestDuplicateProducerFailsBeforeOrdering(t *testing.T) {
	reg := newRegistry(t,
		stub{name: "download", produces: []string{"built_app"}},
		stub{name: "compile", produces: []string{"built_app"}},
	)
	for _, call := range []func() error{
		func() error { return Validate(reg, []string{"download", "compile"}) },
		func() error { _, err := Order(reg, []string{"download", "compile"}); return err },
	} {
		err := call()
		var dup *DuplicateProducerError
		if !errors.As(err, &dup) {
			t.Fatalf("expected *DuplicateProducerError, got %v", err)
		}
		want := DuplicateProducerError{Artifact: "built_app", First: "download", Second: "compile"}
		if diff := cmp.Diff(want, *dup); diff != "" {
			t.Fatalf("duplicate mismatch (-want +got):\n%s", diff)
		}
	}
	if _, err := Plan(reg, []string{"compile"}); err != nil {
		t.Fatalf("a single producer in the selection is fine: %v", err)
	}
}

func TestMissingProducerNamesArtifactAndModule(t *testing.T) {
	reg := newRegistry(t, stub{name: "compile", requires: []string{"configured"}, produces: []string{"built_app"}})
	err := Validate(reg, []string{"compile"})
	if !errors.Is(err, ErrMissingProducer) {
		t.Fatalf("expected missing producer, got %v", err)
	}
	var missing *MissingProducerError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingProducerError, got %T", err)
	}
	want := MissingProducerError{Module: "compile", Artifact: "configured", Selected: []string{"compile"}}
	if diff := cmp.Diff(want, *missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
	if Suggestion(err) == "" {
		t.Fatalf("missing producer should carry a hint")
	}
}

func TestExcludedProducerNamesModuleToAdd(t *testing.T) {
	reg := newRegistry(t,
		stub{name: "configure", produces: []string{"configured"}},
		stub{name: "compile", requires: []string{"configured"}, produces: []string{"built_app"}},
	)
	err := Validate(reg, []string{"compile"})
	if !errors.Is(err, ErrProducerExcluded) {
		t.Fatalf("expected excluded producer, got %v", err)
	}
	var excluded *ExcludedProducerError
	if !errors.As(err, &excluded) {
		t.Fatalf("expected *ExcludedProducerError, got %T", err)
	}
	if excluded.Producer != "configure" || excluded.Module != "compile" || excluded.Artifact != "configured" {
		t.Fatalf("unexpected details %+v", excluded)
	}
	if got := Suggestion(err); got != "add configure to the selection" {
		t.Fatalf("unexpected hint %q", got)
	}
	order, err := Order(reg, []string{"compile"})
	if err != nil {
		t.Fatalf("order does not validate: %v", err)
	}
	if diff := cmp.Diff([]string{"compile"}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if _, err := Plan(reg, []string{"compile"}); !errors.Is(err, ErrProducerExcluded) {
		t.Fatalf("plan must validate first, got %v", err)
	}
}

func TestUnknownModule(t *testing.T) {
	reg := browserChain(t)
	_, err := Plan(reg, []string{"clean", "notarize"})
	var unknown *UnknownModuleError
	if !errors.As(err, &unknown) || unknown.Name != "notarize" {
		t.Fatalf("expected unknown module notarize, got %v", err)
	}
	if !errors.Is(err, ErrUnknownModule) {
		t.Fatalf("unknown module error should match its kind")
	}
}

func TestDuplicateSelectionEntriesCollapse(t *testing.T) {
	reg := browserChain(t)
	g, err := Build(reg, []string{"configure", "clean", "configure"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if diff := cmp.Diff([]string{"configure", "clean"}, g.Selection()); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
	if producer, ok := g.Producer("clean_workspace"); !ok || producer != "clean" {
		t.Fatalf("unexpected producer %q", producer)
	}
}

func TestMissingDependenciesAndValidator(t *testing.T) {
	reg := browserChain(t)
	v := NewValidator(reg, []string{"configure", "compile"})
	missing, err := v.Missing()
	if err != nil {
		t.Fatalf("missing: %v", err)
	}
	if diff := cmp.Diff(map[string][]string{"configure": {"clean_workspace"}}, missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
	if err := v.Validate(); !errors.Is(err, ErrProducerExcluded) {
		t.Fatalf("expected excluded producer, got %v", err)
	}
	order, err := v.ExecutionOrder()
	if err != nil {
		t.Fatalf("execution order: %v", err)
	}
	if diff := cmp.Diff([]string{"configure", "compile"}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptySelection(t *testing.T) {
	reg := browserChain(t)
	order, err := Plan(reg, nil)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(order) != 0 {
		t.Fatalf("expected empty order, got %v", order)
	}
}
