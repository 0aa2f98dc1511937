package module

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kingrea/browser-forge/internal/platform"
)

// ErrDuplicateModule is the kind behind every DuplicateModuleError.
var ErrDuplicateModule = errors.New("module already registered")

// DuplicateModuleError is returned when a name is registered twice.
type DuplicateModuleError struct {
	Name  string
	Owner string
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("module: %s already registered by %s", e.Name, e.Owner)
}

func (e *DuplicateModuleError) Unwrap() error { return ErrDuplicateModule }

// Option adjusts a registration.
type Option func(*registration)

type registration struct {
	phase       Phase
	requires    []string
	produces    []string
	description *string
	platform    platform.Platform
	disabled    bool
	hasRequires bool
	hasProduces bool
}

// WithPhase sets the phase (default build).
func WithPhase(phase Phase) Option {
	return func(r *registration) { r.phase = phase }
}

// WithRequires sets the required artifact names, overriding the unit's own.
func WithRequires(names ...string) Option {
	return func(r *registration) {
		r.requires = names
		r.hasRequires = true
	}
}

// WithProduces sets the produced artifact names, overriding the unit's own.
func WithProduces(names ...string) Option {
	return func(r *registration) {
		r.produces = names
		r.hasProduces = true
	}
}

// WithDescription sets the human-readable description.
func WithDescription(text string) Option {
	return func(r *registration) { r.description = &text }
}

// WithPlatform restricts the module to one platform.
func WithPlatform(p platform.Platform) Option {
	return func(r *registration) { r.platform = p }
}

// DisabledByDefault keeps the module out of default selections.
func DisabledByDefault() Option {
	return func(r *registration) { r.disabled = true }
}

// Registry maps module names to descriptors. It is populated once at startup
// and read for the rest of the process.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Descriptor
	order   []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: map[string]Descriptor{}}
}

// Register installs a module. Requires, produces and description default to
// the unit's Declarer values when not given as options.
func (r *Registry) Register(name string, unit Module, opts ...Option) error {
	if name == "" {
		return fmt.Errorf("module: name is required")
	}
	if unit == nil {
		return fmt.Errorf("module: unit is required for %s", name)
	}
	reg := registration{phase: PhaseBuild}
	for _, opt := range opts {
		opt(&reg)
	}
	if reg.phase == "" {
		return fmt.Errorf("module: phase is required for %s", name)
	}
	if reg.platform != "" && !reg.platform.Valid() {
		return fmt.Errorf("module: %s has unsupported platform %q", name, reg.platform)
	}
	desc := Descriptor{
		Name:             name,
		Phase:            reg.phase,
		Platform:         reg.platform,
		EnabledByDefault: !reg.disabled,
		Unit:             unit,
		Description:      defaultDescription,
	}
	declarer, declares := unit.(Declarer)
	switch {
	case reg.hasRequires:
		desc.Requires = normalizeNames(reg.requires)
	case declares:
		desc.Requires = normalizeNames(declarer.Requires())
	}
	switch {
	case reg.hasProduces:
		desc.Produces = normalizeNames(reg.produces)
	case declares:
		desc.Produces = normalizeNames(declarer.Produces())
	}
	switch {
	case reg.description != nil:
		desc.Description = *reg.description
	case declares && declarer.Description() != "":
		desc.Description = declarer.Description()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, exists := r.modules[name]; exists {
		return &DuplicateModuleError{Name: name, Owner: fmt.Sprintf("%T", existing.Unit)}
	}
	r.modules[name] = desc
	r.order = append(r.order, name)
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(name string, unit Module, opts ...Option) {
	if err := r.Register(name, unit, opts...); err != nil {
		panic(err)
	}
}

// Get returns the executable unit for name.
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.modules[name]
	if !ok {
		return nil, false
	}
	return desc.Unit, true
}

// Metadata returns a copy of the descriptor for name.
func (r *Registry) Metadata(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.modules[name]
	if !ok {
		return Descriptor{}, false
	}
	return desc.Clone(), true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[name]
	return ok
}

// All returns a snapshot of every descriptor. Later registrations are not
// visible through it.
func (r *Registry) All() map[string]Descriptor {
	return r.filter(func(Descriptor) bool { return true })
}

// ByPhase returns descriptors in phase.
func (r *Registry) ByPhase(phase Phase) map[string]Descriptor {
	return r.filter(func(d Descriptor) bool { return d.Phase == phase })
}

// ByPlatform returns descriptors that can run on p, including unrestricted ones.
func (r *Registry) ByPlatform(p platform.Platform) map[string]Descriptor {
	return r.filter(func(d Descriptor) bool { return d.SupportsPlatform(p) })
}

func (r *Registry) filter(keep func(Descriptor) bool) map[string]Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Descriptor, len(r.modules))
	for name, desc := range r.modules {
		if keep(desc) {
			out[name] = desc.Clone()
		}
	}
	return out
}

// Names lists module names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.order...)
}

// Phases lists the phases in use: canonical phases first, then custom phases
// sorted lexically.
func (r *Registry) Phases() []Phase {
	r.mu.RLock()
	seen := map[Phase]struct{}{}
	for _, desc := range r.modules {
		seen[desc.Phase] = struct{}{}
	}
	r.mu.RUnlock()
	phases := make([]Phase, 0, len(seen))
	for phase := range seen {
		phases = append(phases, phase)
	}
	sort.Slice(phases, func(i, j int) bool {
		ri, rj := phases[i].rank(), phases[j].rank()
		if ri != rj {
			return ri < rj
		}
		return phases[i] < phases[j]
	})
	return phases
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

// Reset drops every registration.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = map[string]Descriptor{}
	r.order = nil
}

var (
	defaultMu       sync.Mutex
	defaultRegistry *Registry
)

// Default returns the process-wide registry, creating it on first use. Library
// code should take a *Registry parameter instead; this exists for main
// packages.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		defaultRegistry = NewRegistry()
	}
	return defaultRegistry
}

// ResetDefault discards the process-wide registry.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRegistry = nil
}
