package progress

import (
	"time"

	"github.com/kingrea/browser-forge/internal/logging"
)

// LogReporter writes progress to the build log. The run ID is logged with the
// pipeline start and finish lines so log entries can be matched to a progress
// file from the same run.
type LogReporter struct {
	*Emitter
	logger *logging.Logger
}

// NewLogReporter wraps logger. A nil logger discards everything.
func NewLogReporter(logger *logging.Logger, opts ...Option) *LogReporter {
	r := &LogReporter{logger: logger}
	r.Emitter = NewEmitter(r.log, opts...)
	return r
}

func (r *LogReporter) log(event Event) {
	switch event.Type {
	case TypePipelineStart:
		r.logger.Infof("pipeline %s: %d modules: %v", event.RunID, event.Total, event.Modules)
	case TypeModuleStart:
		r.logger.Infof("%s [%s] started", event.Module, event.Phase)
	case TypeModuleComplete:
		r.logger.Infof("%s finished in %s", event.Module, event.Elapsed().Round(time.Millisecond))
	case TypeModuleError:
		r.logger.Errorf("%s failed: %s", event.Module, event.Error)
	case TypeArtifactCreated:
		if event.Size != nil {
			r.logger.Debugf("artifact %s -> %s (%d bytes)", event.Artifact, event.Path, *event.Size)
			return
		}
		r.logger.Debugf("artifact %s -> %s", event.Artifact, event.Path)
	case TypePipelineComplete:
		r.logger.Infof("pipeline %s finished in %s", event.RunID, event.Elapsed().Round(time.Millisecond))
	}
}
