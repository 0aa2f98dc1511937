// Package artifact tracks the named build outputs that modules exchange. Each
// artifact has a stable name, one or more filesystem paths, and optional
// provenance (size, checksum, signature, free-form metadata).
package artifact

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an artifact name is not present in the store.
	ErrNotFound = errors.New("artifact not found")
	// ErrNoPaths is returned when an artifact exists but carries no paths.
	ErrNoPaths = errors.New("artifact has no paths")
)

// Artifact is the record kept for a single artifact name.
type Artifact struct {
	Name      string
	Paths     []string
	Size      *int64
	Checksum  string
	Signature string
	Metadata  map[string]string
}

// PrimaryPath returns the first recorded path, or "" when there are none.
func (a Artifact) PrimaryPath() string {
	if len(a.Paths) == 0 {
		return ""
	}
	return a.Paths[0]
}

// PathCount returns how many paths the artifact carries.
func (a Artifact) PathCount() int {
	return len(a.Paths)
}

// Clone returns a deep copy.
func (a Artifact) Clone() Artifact {
	clone := Artifact{
		Name:      a.Name,
		Checksum:  a.Checksum,
		Signature: a.Signature,
		Metadata:  cloneNotes(a.Metadata),
	}
	if len(a.Paths) > 0 {
		clone.Paths = append([]string{}, a.Paths...)
	}
	if a.Size != nil {
		size := *a.Size
		clone.Size = &size
	}
	return clone
}

func (a *Artifact) addPath(path string) bool {
	for _, existing := range a.Paths {
		if existing == path {
			return false
		}
	}
	a.Paths = append(a.Paths, path)
	return true
}

func (a *Artifact) apply(opts addOptions) {
	if opts.size != nil {
		size := *opts.size
		a.Size = &size
	}
	if opts.checksum != "" {
		a.Checksum = opts.checksum
	}
	if opts.signature != "" {
		a.Signature = opts.signature
	}
	if len(opts.metadata) > 0 {
		if a.Metadata == nil {
			a.Metadata = make(map[string]string, len(opts.metadata))
		}
		for key, value := range opts.metadata {
			a.Metadata[key] = value
		}
	}
}

// AddOption attaches provenance while adding a path.
type AddOption func(*addOptions)

type addOptions struct {
	size      *int64
	checksum  string
	signature string
	metadata  map[string]string
}

// WithSize records the artifact size in bytes.
func WithSize(size int64) AddOption {
	return func(o *addOptions) {
		o.size = &size
	}
}

// WithChecksum records a content digest.
func WithChecksum(checksum string) AddOption {
	return func(o *addOptions) {
		o.checksum = checksum
	}
}

// WithSignature records a detached signature or signing identity.
func WithSignature(signature string) AddOption {
	return func(o *addOptions) {
		o.signature = signature
	}
}

// WithMetadata merges key/value pairs into the artifact metadata.
func WithMetadata(values map[string]string) AddOption {
	return func(o *addOptions) {
		if len(values) == 0 {
			return
		}
		if o.metadata == nil {
			o.metadata = make(map[string]string, len(values))
		}
		for key, value := range values {
			o.metadata[key] = value
		}
	}
}

func notFound(name string) error {
	return fmt.Errorf("artifact: %s: %w", name, ErrNotFound)
}

func cloneNotes(notes map[string]string) map[string]string {
	if len(notes) == 0 {
		return nil
	}
	out := make(map[string]string, len(notes))
	for k, v := range notes {
		out[k] = v
	}
	return out
}
