package progress

import "time"

// EventVersion identifies the JSON line schema written by FileReporter.
const EventVersion = 1

// Event types.
const (
	TypePipelineStart    = "pipeline_start"
	TypeModuleStart      = "module_start"
	TypeModuleComplete   = "module_complete"
	TypeModuleError      = "module_error"
	TypeArtifactCreated  = "artifact_created"
	TypePipelineComplete = "pipeline_complete"
)

// Event is one progress notification. Only the fields relevant to Type are set.
type Event struct {
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	Sequence  int64     `json:"sequence"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Modules []string `json:"modules,omitempty"`
	Total   int      `json:"total,omitempty"`

	Module    string  `json:"module,omitempty"`
	Phase     string  `json:"phase,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	Error     string  `json:"error,omitempty"`
	ErrorType string  `json:"error_type,omitempty"`

	Artifact string `json:"artifact,omitempty"`
	Path     string `json:"path,omitempty"`
	Size     *int64 `json:"size,omitempty"`
}

// Elapsed converts Duration back to a time.Duration.
func (e Event) Elapsed() time.Duration {
	return time.Duration(e.Duration * float64(time.Second))
}
