// Package resolver turns a module selection into a deterministic execution
// order. Edges are implied by artifact names: a module depends on whichever
// selected module produces an artifact it requires. Every call builds its
// working state from scratch; nothing is retained between calls.
package resolver
