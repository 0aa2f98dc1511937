package resolver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateProducer  = errors.New("multiple producers for artifact")
	ErrMissingProducer    = errors.New("no producer for required artifact")
	ErrProducerExcluded   = errors.New("producer not included in selection")
	ErrCircularDependency = errors.New("circular dependency")
	ErrUnknownModule      = errors.New("unknown module")
)

// DuplicateProducerError is raised while building the graph when two selected
// modules produce the same artifact.
type DuplicateProducerError struct {
	Artifact string
	First    string
	Second   string
}

func (e *DuplicateProducerError) Error() string {
	return fmt.Sprintf("%s: %q is produced by both %s and %s", ErrDuplicateProducer, e.Artifact, e.First, e.Second)
}

func (e *DuplicateProducerError) Unwrap() error { return ErrDuplicateProducer }

// Suggestion names the fix.
func (e *DuplicateProducerError) Suggestion() string {
	return fmt.Sprintf("remove either %s or %s from the selection", e.First, e.Second)
}

// MissingProducerError means no registered module produces the artifact.
type MissingProducerError struct {
	Module   string
	Artifact string
	Selected []string
}

func (e *MissingProducerError) Error() string {
	return fmt.Sprintf("%s: %s requires %q but no registered module produces it (selected: %s)",
		ErrMissingProducer, e.Module, e.Artifact, strings.Join(e.Selected, ", "))
}

func (e *MissingProducerError) Unwrap() error { return ErrMissingProducer }

// Suggestion names the fix.
func (e *MissingProducerError) Suggestion() string {
	return fmt.Sprintf("register a module that produces %q or drop %s", e.Artifact, e.Module)
}

// ExcludedProducerError means the producer exists but was not selected.
type ExcludedProducerError struct {
	Module   string
	Artifact string
	Producer string
}

func (e *ExcludedProducerError) Error() string {
	return fmt.Sprintf("%s: %s requires %q which is produced by %s",
		ErrProducerExcluded, e.Module, e.Artifact, e.Producer)
}

func (e *ExcludedProducerError) Unwrap() error { return ErrProducerExcluded }

// Suggestion names the fix.
func (e *ExcludedProducerError) Suggestion() string {
	return fmt.Sprintf("add %s to the selection", e.Producer)
}

// CycleError lists the modules that could not be ordered. They contain at
// least one cycle but are not the cycle path itself.
type CycleError struct {
	Remaining []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s among: %s", ErrCircularDependency, strings.Join(e.Remaining, ", "))
}

func (e *CycleError) Unwrap() error { return ErrCircularDependency }

// Suggestion names the fix.
func (e *CycleError) Suggestion() string {
	return "break the cycle by changing requires/produces of one of: " + strings.Join(e.Remaining, ", ")
}

// UnknownModuleError means a selected name is not in the catalog.
type UnknownModuleError struct {
	Name string
}

func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownModule, e.Name)
}

func (e *UnknownModuleError) Unwrap() error { return ErrUnknownModule }

// Suggestion names the fix.
func (e *UnknownModuleError) Suggestion() string {
	return "run `forge modules` to list registered modules"
}

// Suggestion returns the fix hint carried by err, if any.
func Suggestion(err error) string {
	var hinted interface{ Suggestion() string }
	if errors.As(err, &hinted) {
		return hinted.Suggestion()
	}
	return ""
}
