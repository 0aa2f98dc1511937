package artifact

import (
	"fmt"
	"sync"
	"time"
)

// Observer is notified after a path is recorded under an artifact name.
type Observer func(name, path string, size *int64)

// Store maps artifact names to their records for the duration of one build.
// Adding a path under an existing name appends to that record.
type Store struct {
	mu        sync.RWMutex
	artifacts map[string]*Artifact
	order     []string
	observers []observer
	nextID    int
	now       func() time.Time
}

type observer struct {
	id int
	fn Observer
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for manifest timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = clock
	}
}

// WithObserver registers a callback fired for every newly recorded path.
func WithObserver(fn Observer) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.nextID++
			s.observers = append(s.observers, observer{id: s.nextID, fn: fn})
		}
	}
}

// Observe registers fn on an existing store. The returned func removes it.
func (s *Store) Observe(fn Observer) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// NewStore builds an empty store.
func NewStore(opts ...StoreOption) *Store {
	store := &Store{
		artifacts: map[string]*Artifact{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Add records path under name, creating the artifact on first use. Options
// overwrite size/checksum/signature and merge metadata.
func (s *Store) Add(name, path string, opts ...AddOption) error {
	return s.AddMultiple(name, []string{path}, opts...)
}

// AddMultiple records several paths under one name, e.g. per-architecture
// outputs of a single step.
func (s *Store) AddMultiple(name string, paths []string, opts ...AddOption) error {
	if name == "" {
		return fmt.Errorf("artifact: name is required")
	}
	var options addOptions
	for _, opt := range opts {
		opt(&options)
	}
	s.mu.Lock()
	record, exists := s.artifacts[name]
	if !exists {
		record = &Artifact{Name: name}
		s.artifacts[name] = record
		s.order = append(s.order, name)
	}
	var added []string
	for _, path := range paths {
		if path == "" {
			continue
		}
		if record.addPath(path) {
			added = append(added, path)
		}
	}
	record.apply(options)
	size := record.Size
	observers := append([]observer{}, s.observers...)
	s.mu.Unlock()

	for _, path := range added {
		for _, o := range observers {
			o.fn(name, path, size)
		}
	}
	return nil
}

// Get returns the primary path of an artifact.
func (s *Store) Get(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.artifacts[name]
	if !ok {
		return "", notFound(name)
	}
	if len(record.Paths) == 0 {
		return "", fmt.Errorf("artifact: %s: %w", name, ErrNoPaths)
	}
	return record.Paths[0], nil
}

// GetAll returns a copy of every path recorded for an artifact.
func (s *Store) GetAll(name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.artifacts[name]
	if !ok {
		return nil, notFound(name)
	}
	return append([]string{}, record.Paths...), nil
}

// Metadata returns a copy of the full artifact record.
func (s *Store) Metadata(name string) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.artifacts[name]
	if !ok {
		return Artifact{}, notFound(name)
	}
	return record.Clone(), nil
}

// Has reports whether name has been recorded.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.artifacts[name]
	return ok
}

// Remove deletes an artifact record.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[name]; !ok {
		return notFound(name)
	}
	delete(s.artifacts, name)
	for i, existing := range s.order {
		if existing == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Names lists artifact names in the order they were first recorded.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.order...)
}

// All returns deep copies of every record keyed by name.
func (s *Store) All() map[string]Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Artifact, len(s.artifacts))
	for name, record := range s.artifacts {
		out[name] = record.Clone()
	}
	return out
}

// Clear drops every record.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = map[string]*Artifact{}
	s.order = nil
}

// Len returns the number of artifact names.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}
