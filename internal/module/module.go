package module

import (
	"fmt"
	"strings"

	"github.com/kingrea/browser-forge/internal/platform"
)

// Phase is a coarse pipeline stage label. Phases group modules for listing and
// filtering; execution order comes only from artifact dependencies.
type Phase string

const (
	PhaseSetup   Phase = "setup"
	PhasePrep    Phase = "prep"
	PhaseBuild   Phase = "build"
	PhaseSign    Phase = "sign"
	PhasePackage Phase = "package"
	PhaseUpload  Phase = "upload"
)

// StandardPhases returns the built-in phases in canonical order.
func StandardPhases() []Phase {
	return []Phase{PhaseSetup, PhasePrep, PhaseBuild, PhaseSign, PhasePackage, PhaseUpload}
}

// IsStandard reports whether p is one of the canonical phases.
func (p Phase) IsStandard() bool {
	for _, std := range StandardPhases() {
		if p == std {
			return true
		}
	}
	return false
}

func (p Phase) rank() int {
	for i, std := range StandardPhases() {
		if p == std {
			return i
		}
	}
	return len(StandardPhases())
}

// Module is implemented by every build step. Validate checks preconditions
// without side effects; Execute performs the step and records produced
// artifacts in ctx.Artifacts.
type Module interface {
	Validate(ctx *Context) error
	Execute(ctx *Context) error
}

// Declarer is optionally implemented by modules that carry their own
// requires/produces/description. Registration uses these values when the
// caller does not supply them.
type Declarer interface {
	Requires() []string
	Produces() []string
	Description() string
}

const defaultDescription = "No description provided"

// Descriptor is the registry entry for one module.
type Descriptor struct {
	Name             string
	Phase            Phase
	Requires         []string
	Produces         []string
	Description      string
	Platform         platform.Platform // empty means every platform
	EnabledByDefault bool
	Unit             Module
}

// Clone returns a copy whose slices do not alias the registry's.
func (d Descriptor) Clone() Descriptor {
	clone := d
	clone.Requires = append([]string(nil), d.Requires...)
	clone.Produces = append([]string(nil), d.Produces...)
	return clone
}

// SupportsPlatform reports whether the module may run on p.
func (d Descriptor) SupportsPlatform(p platform.Platform) bool {
	return d.Platform == "" || d.Platform == p
}

// ValidationError reports unmet preconditions from Module.Validate.
type ValidationError struct {
	Module string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("module %s: %s", e.Module, e.Reason)
}

// Invalid is a shorthand for building a ValidationError.
func Invalid(module, format string, args ...any) error {
	return &ValidationError{Module: module, Reason: fmt.Sprintf(format, args...)}
}

func normalizeNames(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
