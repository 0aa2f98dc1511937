package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileReporter appends one JSON object per event to a file so external tools
// can follow a build.
type FileReporter struct {
	*Emitter
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	err  error
}

// NewFileReporter truncates path and starts writing events to it.
func NewFileReporter(path string, opts ...Option) (*FileReporter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("progress: ensure dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("progress: create %s: %w", path, err)
	}
	r := &FileReporter{file: f, enc: json.NewEncoder(f)}
	r.Emitter = NewEmitter(r.write, opts...)
	return r, nil
}

func (r *FileReporter) write(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil || r.file == nil {
		return
	}
	r.err = r.enc.Encode(event)
}

// Err returns the first write error, if any.
func (r *FileReporter) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close flushes and closes the file, reporting any earlier write error.
func (r *FileReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return r.err
	}
	closeErr := r.file.Close()
	r.file = nil
	if r.err != nil {
		return fmt.Errorf("progress: write event: %w", r.err)
	}
	return closeErr
}

// ReadFile decodes a progress file written by FileReporter.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("progress: open %s: %w", path, err)
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	var events []Event
	for dec.More() {
		var event Event
		if err := dec.Decode(&event); err != nil {
			return nil, fmt.Errorf("progress: decode %s: %w", path, err)
		}
		events = append(events, event)
	}
	return events, nil
}
