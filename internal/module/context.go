package module

import (
	"context"

	"github.com/kingrea/browser-forge/internal/artifact"
	"github.com/kingrea/browser-forge/internal/config"
	"github.com/kingrea/browser-forge/internal/logging"
)

// Params carries per-module parameters from the pipeline definition (opaque to
// the runtime).
type Params map[string]any

// String returns a string parameter or fallback when absent.
func (p Params) String(key, fallback string) string {
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Context carries shared build state into every module.
type Context struct {
	Build     config.BuildConfig
	Artifacts *artifact.Store
	Logger    *logging.Logger
	Params    Params

	ctx context.Context
}

// NewContext builds a Context with a fresh artifact store.
func NewContext(build config.BuildConfig, logger *logging.Logger) *Context {
	return &Context{
		Build:     build,
		Artifacts: artifact.NewStore(),
		Logger:    logger,
	}
}

// Context returns the cancellation context for blocking work (subprocesses,
// transfers). It is never nil.
func (c *Context) Context() context.Context {
	if c == nil || c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// WithContext returns a shallow copy bound to ctx.
func (c *Context) WithContext(ctx context.Context) *Context {
	clone := *c
	clone.ctx = ctx
	return &clone
}

// WithArtifacts allows dependency injection of a pre-built store.
func (c *Context) WithArtifacts(store *artifact.Store) *Context {
	clone := *c
	clone.Artifacts = store
	return &clone
}

// WithParams returns a shallow copy carrying module parameters.
func (c *Context) WithParams(params Params) *Context {
	clone := *c
	clone.Params = params
	return &clone
}
