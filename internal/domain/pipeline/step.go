// Package pipeline defines the core step model: idempotent units of work
// with explicit dependencies, the run context they execute under, and the
// environment descriptor they compose.
package pipeline

// Step is a single idempotent unit of provisioning work. Check reports the
// current state without side effects; Apply converges the host toward the
// desired state. A step whose Check returns StatusSatisfied is never
// applied again.
type Step interface {
	// ID returns the unique step identifier.
	ID() StepID

	// DependsOn returns the IDs of steps that must be declared earlier in
	// the pipeline.
	DependsOn() []StepID

	// Check determines the step's current status without modifying state.
	Check(ctx RunContext) (StepStatus, error)

	// Apply performs the step's work.
	Apply(ctx RunContext) error
}

// BestEffortStep marks a step whose failure is tolerated: the run records
// the failure and continues instead of aborting.
type BestEffortStep interface {
	Step

	// BestEffort reports whether failures of this step are non-fatal.
	BestEffort() bool
}

// IsBestEffort reports whether the step's failures are tolerated.
func IsBestEffort(step Step) bool {
	be, ok := step.(BestEffortStep)
	return ok && be.BestEffort()
}
