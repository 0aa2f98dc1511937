// Package runner drives a module selection: plan it, then validate and execute
// each module strictly in order, stopping at the first failure.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kingrea/browser-forge/internal/artifact"
	"github.com/kingrea/browser-forge/internal/contracts"
	"github.com/kingrea/browser-forge/internal/logging"
	"github.com/kingrea/browser-forge/internal/module"
	"github.com/kingrea/browser-forge/internal/pipeline/resolver"
	"github.com/kingrea/browser-forge/internal/progress"
)

// Stage names the half of the module contract that failed.
type Stage string

const (
	StageValidate Stage = "validate"
	StageExecute  Stage = "execute"
)

// ModuleError wraps the first module failure of a run.
type ModuleError struct {
	Module string
	Phase  module.Phase
	Stage  Stage
	Err    error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("runner: %s (%s) failed during %s: %v", e.Module, e.Phase, e.Stage, e.Err)
}

func (e *ModuleError) Unwrap() error { return e.Err }

// Result summarizes a run.
type Result struct {
	Order     []string
	Completed []string
	Durations map[string]time.Duration
	Duration  time.Duration
	DryRun    bool
}

// Runner executes modules from a catalog.
type Runner struct {
	catalog  resolver.Catalog
	reporter progress.Reporter
	logger   *logging.Logger
	params   func(name string) module.Params
	clock    func() time.Time
	dryRun   bool
}

// Option customizes the runner.
type Option func(*Runner)

// WithReporter sends progress events to r.
func WithReporter(r progress.Reporter) Option {
	return func(run *Runner) {
		if r != nil {
			run.reporter = r
		}
	}
}

// WithLogger logs warnings such as undeclared outputs.
func WithLogger(logger *logging.Logger) Option {
	return func(run *Runner) { run.logger = logger }
}

// WithParams supplies per-module parameters, usually from a pipeline file.
func WithParams(lookup func(name string) module.Params) Option {
	return func(run *Runner) { run.params = lookup }
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(run *Runner) {
		if clock != nil {
			run.clock = clock
		}
	}
}

// DryRun plans without executing.
func DryRun(enabled bool) Option {
	return func(run *Runner) { run.dryRun = enabled }
}

// New wires a runner to the module catalog.
func New(catalog resolver.Catalog, opts ...Option) (*Runner, error) {
	if catalog == nil {
		return nil, fmt.Errorf("runner: module catalog is required")
	}
	run := &Runner{
		catalog:  catalog,
		reporter: progress.Nop{},
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(run)
	}
	return run, nil
}

// Run plans selected and executes it against mctx. Nothing executes unless the
// whole selection validates and orders.
func (r *Runner) Run(ctx context.Context, mctx *module.Context, selected []string) (result Result, err error) {
	if mctx == nil {
		return Result{}, fmt.Errorf("runner: module context is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	order, err := resolver.Plan(r.catalog, selected)
	if err != nil {
		return Result{}, err
	}
	result = Result{Order: order, Durations: map[string]time.Duration{}, DryRun: r.dryRun}
	if r.dryRun {
		return result, nil
	}

	if mctx.Artifacts == nil {
		mctx = mctx.WithArtifacts(artifact.NewStore())
	}
	stop := mctx.Artifacts.Observe(func(name, path string, size *int64) {
		r.reporter.ArtifactCreated(name, path, size)
	})
	defer stop()
	mctx = mctx.WithContext(ctx)

	started := r.clock()
	r.reporter.PipelineStart(order)
	defer func() {
		result.Duration = r.clock().Sub(started)
		r.reporter.PipelineComplete(result.Duration)
	}()

	for _, name := range order {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("runner: stopped before %s: %w", name, ctxErr)
		}
		desc, ok := r.catalog.Metadata(name)
		if !ok || desc.Unit == nil {
			return result, &resolver.UnknownModuleError{Name: name}
		}
		elapsed, runErr := r.runModule(mctx, desc)
		if runErr != nil {
			r.reporter.ModuleError(name, runErr)
			return result, runErr
		}
		result.Completed = append(result.Completed, name)
		result.Durations[name] = elapsed
	}
	return result, nil
}

func (r *Runner) runModule(mctx *module.Context, desc module.Descriptor) (time.Duration, error) {
	if r.params != nil {
		mctx = mctx.WithParams(r.params(desc.Name))
	} else {
		mctx = mctx.WithParams(nil)
	}
	r.reporter.ModuleStart(desc.Name, string(desc.Phase))
	begin := r.clock()
	if err := desc.Unit.Validate(mctx); err != nil {
		return 0, &ModuleError{Module: desc.Name, Phase: desc.Phase, Stage: StageValidate, Err: err}
	}
	if err := desc.Unit.Execute(mctx); err != nil {
		return 0, &ModuleError{Module: desc.Name, Phase: desc.Phase, Stage: StageExecute, Err: err}
	}
	if missing := contracts.VerifyOutputs(desc, mctx.Artifacts); len(missing) > 0 {
		r.logger.Warnf("%s did not record declared outputs: %v", desc.Name, missing)
	}
	elapsed := r.clock().Sub(begin)
	r.reporter.ModuleComplete(desc.Name, elapsed)
	return elapsed, nil
}

// FailedModule returns the module name behind err, if err came from a module.
func FailedModule(err error) (string, bool) {
	var modErr *ModuleError
	if errors.As(err, &modErr) {
		return modErr.Module, true
	}
	return "", false
}
