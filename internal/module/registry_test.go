package module

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/browser-forge/internal/platform"
)

type stubModule struct {
	Base
}

func newStub(requires, produces []string) *stubModule {
	s := &stubModule{Base: NewBase("stub module")}
	s.SetRequires(requires...)
	s.SetProduces(produces...)
	return s
}

func (s *stubModule) Validate(*Context) error { return nil }
func (s *stubModule) Execute(*Context) error  { return nil }

type bareModule struct{}

func (bareModule) Validate(*Context) error { return nil }
func (bareModule) Execute(*Context) error  { return nil }

func TestRegisterUsesDeclaredDefaults(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("configure", newStub([]string{"clean_workspace"}, []string{"configured"}), WithPhase(PhasePrep))

	desc, ok := reg.Metadata("configure")
	if !ok {
		t.Fatalf("configure not registered")
	}
	if desc.Phase != PhasePrep {
		t.Fatalf("unexpected phase %s", desc.Phase)
	}
	if diff := cmp.Diff([]string{"clean_workspace"}, desc.Requires); diff != "" {
		t.Fatalf("requires mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"configured"}, desc.Produces); diff != "" {
		t.Fatalf("produces mismatch (-want +got):\n%s", diff)
	}
	if desc.Description != "stub module" {
		t.Fatalf("unexpected description %q", desc.Description)
	}
	if !desc.EnabledByDefault {
		t.Fatalf("modules are enabled by default")
	}
}

func TestRegisterOptionsOverrideDeclarer(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register("compile", newStub([]string{"a"}, []string{"b"}),
		WithRequires("configured"),
		WithProduces("built_app"),
		WithDescription("Compile the browser"),
		WithPlatform(platform.Linux),
		DisabledByDefault(),
	)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	desc, _ := reg.Metadata("compile")
	if desc.Phase != PhaseBuild {
		t.Fatalf("default phase should be build, got %s", desc.Phase)
	}
	if desc.Requires[0] != "configured" || desc.Produces[0] != "built_app" {
		t.Fatalf("options ignored: %+v", desc)
	}
	if desc.Description != "Compile the browser" || desc.Platform != platform.Linux || desc.EnabledByDefault {
		t.Fatalf("unexpected descriptor %+v", desc)
	}
}

func TestRegisterWithoutDeclarerGetsPlaceholderDescription(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("noop", bareModule{})
	desc, _ := reg.Metadata("noop")
	if desc.Description != "No description provided" {
		t.Fatalf("unexpected description %q", desc.Description)
	}
	if len(desc.Requires) != 0 || len(desc.Produces) != 0 {
		t.Fatalf("bare module should declare nothing: %+v", desc)
	}
}

func TestRegisterRejectsDuplicatesNamingOwner(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("clean", newStub(nil, []string{"clean_workspace"}))
	err := reg.Register("clean", bareModule{})
	if !errors.Is(err, ErrDuplicateModule) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	var dup *DuplicateModuleError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateModuleError, got %T", err)
	}
	if dup.Name != "clean" || !strings.Contains(dup.Owner, "stubModule") {
		t.Fatalf("unexpected duplicate details %+v", dup)
	}
	if reg.Len() != 1 {
		t.Fatalf("failed registration must not change the registry")
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("", bareModule{}); err == nil {
		t.Fatalf("empty name accepted")
	}
	if err := reg.Register("x", nil); err == nil {
		t.Fatalf("nil unit accepted")
	}
	if err := reg.Register("x", bareModule{}, WithPlatform("beos")); err == nil {
		t.Fatalf("unknown platform accepted")
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("clean", newStub(nil, []string{"clean_workspace"}))
	snap := reg.All()
	reg.MustRegister("compile", bareModule{})
	if _, ok := snap["compile"]; ok {
		t.Fatalf("snapshot observed a later registration")
	}
	entry := snap["clean"]
	entry.Produces[0] = "mutated"
	desc, _ := reg.Metadata("clean")
	if desc.Produces[0] != "clean_workspace" {
		t.Fatalf("snapshot aliases registry slices")
	}
}

func TestFilteredViews(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("clean", bareModule{}, WithPhase(PhaseSetup))
	reg.MustRegister("sign_macos", bareModule{}, WithPhase(PhaseSign), WithPlatform(platform.MacOS))
	reg.MustRegister("sign_windows", bareModule{}, WithPhase(PhaseSign), WithPlatform(platform.Windows))

	if got := reg.ByPhase(PhaseSign); len(got) != 2 {
		t.Fatalf("expected 2 sign modules, got %d", len(got))
	}
	mac := reg.ByPlatform(platform.MacOS)
	if _, ok := mac["clean"]; !ok {
		t.Fatalf("unrestricted module missing from platform view")
	}
	if _, ok := mac["sign_windows"]; ok {
		t.Fatalf("windows module leaked into macos view")
	}
	if diff := cmp.Diff([]string{"clean", "sign_macos", "sign_windows"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestPhasesCanonicalThenCustom(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("upload", bareModule{}, WithPhase(PhaseUpload))
	reg.MustRegister("zeta", bareModule{}, WithPhase("zeta"))
	reg.MustRegister("audit", bareModule{}, WithPhase("audit"))
	reg.MustRegister("clean", bareModule{}, WithPhase(PhaseSetup))
	reg.MustRegister("compile", bareModule{})

	want := []Phase{PhaseSetup, PhaseBuild, PhaseUpload, "audit", "zeta"}
	if diff := cmp.Diff(want, reg.Phases()); diff != "" {
		t.Fatalf("phases mismatch (-want +got):\n%s", diff)
	}
}

func TestResetAndDefault(t *testing.T) {
	t.Cleanup(ResetDefault)
	Default().MustRegister("clean", bareModule{})
	if !Default().Has("clean") {
		t.Fatalf("default registry lost registration")
	}
	ResetDefault()
	if Default().Has("clean") {
		t.Fatalf("ResetDefault did not clear registrations")
	}

	reg := NewRegistry()
	reg.MustRegister("clean", bareModule{})
	reg.Reset()
	if reg.Len() != 0 || len(reg.Names()) != 0 {
		t.Fatalf("Reset left entries behind")
	}
	reg.MustRegister("clean", bareModule{})
}

func TestContextDerivation(t *testing.T) {
	ctx := &Context{}
	if ctx.Context() == nil {
		t.Fatalf("Context() must never be nil")
	}
	withParams := ctx.WithParams(Params{"channel": "beta"})
	if ctx.Params != nil {
		t.Fatalf("WithParams mutated the receiver")
	}
	if withParams.Params.String("channel", "stable") != "beta" || withParams.Params.String("missing", "stable") != "stable" {
		t.Fatalf("unexpected params lookup")
	}
}
