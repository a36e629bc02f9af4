package pipeline

import "context"

// RunContext carries the per-run execution settings every step receives:
// the cancellation context, the dry-run flag, the composed environment
// descriptor, and the applied-step state store.
type RunContext struct {
	ctx    context.Context
	dryRun bool
	env    Env
	state  StateStore
}

// NewRunContext creates a run context with an empty descriptor and an
// in-memory state store.
func NewRunContext(ctx context.Context) RunContext {
	return RunContext{
		ctx:   ctx,
		env:   NewEnv(),
		state: NewMemoryStore(),
	}
}

// Context returns the cancellation context.
func (r RunContext) Context() context.Context {
	return r.ctx
}

// DryRun reports whether Apply calls should be suppressed.
func (r RunContext) DryRun() bool {
	return r.dryRun
}

// Env returns the environment descriptor.
func (r RunContext) Env() Env {
	return r.env
}

// State returns the applied-step store.
func (r RunContext) State() StateStore {
	return r.state
}

// WithDryRun returns a copy with the dry-run flag set.
func (r RunContext) WithDryRun(dryRun bool) RunContext {
	r.dryRun = dryRun
	return r
}

// WithEnv returns a copy carrying the given descriptor.
func (r RunContext) WithEnv(env Env) RunContext {
	r.env = env
	return r
}

// WithState returns a copy carrying the given state store.
func (r RunContext) WithState(state StateStore) RunContext {
	r.state = state
	return r
}
