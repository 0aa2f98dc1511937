package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reporter receives pipeline progress from the runner. Implementations must
// not block for long; the runner calls them inline.
type Reporter interface {
	PipelineStart(modules []string)
	ModuleStart(module, phase string)
	ModuleComplete(module string, duration time.Duration)
	ModuleError(module string, err error)
	ArtifactCreated(artifact, path string, size *int64)
	PipelineComplete(duration time.Duration)
}

// Emitter turns Reporter calls into Events and hands them to a sink. Every
// event from one Emitter carries the same run ID and an increasing sequence.
type Emitter struct {
	mu    sync.Mutex
	runID string
	seq   int64
	now   func() time.Time
	sink  func(Event)
}

// Option customizes an Emitter.
type Option func(*Emitter)

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option {
	return func(e *Emitter) {
		if id != "" {
			e.runID = id
		}
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Emitter) {
		if clock != nil {
			e.now = clock
		}
	}
}

// NewEmitter builds an Emitter delivering to sink.
func NewEmitter(sink func(Event), opts ...Option) *Emitter {
	e := &Emitter{runID: uuid.NewString(), now: time.Now, sink: sink}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunID returns the identifier stamped on every event.
func (e *Emitter) RunID() string { return e.runID }

func (e *Emitter) emit(event Event) {
	e.mu.Lock()
	e.seq++
	event.Version = EventVersion
	event.RunID = e.runID
	event.Sequence = e.seq
	event.Timestamp = e.now().UTC()
	sink := e.sink
	e.mu.Unlock()
	if sink != nil {
		sink(event)
	}
}

func (e *Emitter) PipelineStart(modules []string) {
	e.emit(Event{Type: TypePipelineStart, Modules: append([]string{}, modules...), Total: len(modules)})
}

func (e *Emitter) ModuleStart(module, phase string) {
	e.emit(Event{Type: TypeModuleStart, Module: module, Phase: phase})
}

func (e *Emitter) ModuleComplete(module string, duration time.Duration) {
	e.emit(Event{Type: TypeModuleComplete, Module: module, Duration: duration.Seconds()})
}

func (e *Emitter) ModuleError(module string, err error) {
	event := Event{Type: TypeModuleError, Module: module}
	if err != nil {
		event.Error = err.Error()
		event.ErrorType = fmt.Sprintf("%T", err)
	}
	e.emit(event)
}

func (e *Emitter) ArtifactCreated(artifact, path string, size *int64) {
	e.emit(Event{Type: TypeArtifactCreated, Artifact: artifact, Path: path, Size: size})
}

func (e *Emitter) PipelineComplete(duration time.Duration) {
	e.emit(Event{Type: TypePipelineComplete, Duration: duration.Seconds()})
}

// Recorder keeps events in memory.
type Recorder struct {
	*Emitter
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{}
	r.Emitter = NewEmitter(r.record, opts...)
	return r
}

func (r *Recorder) record(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event{}, r.events...)
}

// Types lists recorded event types in order, with the module name appended
// when present ("module_start:compile").
func (r *Recorder) Types() []string {
	events := r.Events()
	out := make([]string, 0, len(events))
	for _, event := range events {
		label := event.Type
		if event.Module != "" {
			label += ":" + event.Module
		} else if event.Artifact != "" {
			label += ":" + event.Artifact
		}
		out = append(out, label)
	}
	return out
}

type multi []Reporter

// Multi fans every call out to reporters in order. Nil entries are skipped.
func Multi(reporters ...Reporter) Reporter {
	var out multi
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) PipelineStart(modules []string) {
	for _, r := range m {
		r.PipelineStart(modules)
	}
}

func (m multi) ModuleStart(module, phase string) {
	for _, r := range m {
		r.ModuleStart(module, phase)
	}
}

func (m multi) ModuleComplete(module string, duration time.Duration) {
	for _, r := range m {
		r.ModuleComplete(module, duration)
	}
}

func (m multi) ModuleError(module string, err error) {
	for _, r := range m {
		r.ModuleError(module, err)
	}
}

func (m multi) ArtifactCreated(artifact, path string, size *int64) {
	for _, r := range m {
		r.ArtifactCreated(artifact, path, size)
	}
}

func (m multi) PipelineComplete(duration time.Duration) {
	for _, r := range m {
		r.PipelineComplete(duration)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) PipelineStart([]string)                 {}
func (Nop) ModuleStart(string, string)             {}
func (Nop) ModuleComplete(string, time.Duration)   {}
func (Nop) ModuleError(string, error)              {}
func (Nop) ArtifactCreated(string, string, *int64) {}
func (Nop) PipelineComplete(time.Duration)         {}
