package execution

import (
	"time"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// Executor runs steps from a Plan sequentially under a fail-fast policy:
// the first fatal failure marks every remaining step skipped and surfaces
// as the run error. Best-effort steps may fail without aborting.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger}
}

// Execute runs all steps in the plan in order. It returns a result per
// plan entry and the first fatal error, if any.
func (e *Executor) Execute(ctx pipeline.RunContext, plan *Plan) ([]StepResult, error) {
	results := make([]StepResult, 0, plan.Len())
	var fatal error

	steps := make(map[string]pipeline.Step, plan.Len())
	for _, entry := range plan.Entries() {
		steps[entry.Step().ID().String()] = entry.Step()
	}
	applied := make(map[string]bool, plan.Len())

	for i, entry := range plan.Entries() {
		if fatal != nil {
			results = append(results, NewStepResult(entry.Step().ID(), pipeline.StatusSkipped, nil))
			continue
		}

		select {
		case <-ctx.Context().Done():
			// Interrupt: no rollback, remaining steps untouched. A re-run
			// resumes through the per-step idempotency checks.
			for _, rest := range plan.Entries()[i:] {
				results = append(results, NewStepResult(rest.Step().ID(), pipeline.StatusSkipped, nil))
			}
			return results, ctx.Context().Err()
		default:
		}

		result, didApply := e.executeEntry(ctx, entry, dependencyApplied(entry.Step(), applied, steps))
		results = append(results, result)

		if didApply {
			applied[entry.Step().ID().String()] = true
		}
		if result.Status() == pipeline.StatusFailed {
			fatal = result.Error()
		}
	}

	return results, fatal
}

// executeEntry executes a single plan entry, reporting whether the step's
// Apply ran. A plan-time satisfied status is only trusted while nothing
// ahead of the step has touched the host: once a dependency applies, the
// planner's snapshot is stale and the step is checked again before being
// skipped. Without this, a cleanup-style step that looks satisfied on a
// fresh host (nothing to clean yet) would silently never run.
func (e *Executor) executeEntry(ctx pipeline.RunContext, entry PlanEntry, stale bool) (StepResult, bool) {
	step := entry.Step()
	stepID := step.ID()

	status := entry.Status()
	if status == pipeline.StatusSatisfied && stale && !ctx.DryRun() {
		fresh, err := step.Check(ctx)
		if err != nil {
			return NewStepResult(stepID, pipeline.StatusFailed,
				pipeline.NewCheckError(stepID.String(), err)), false
		}
		if fresh != status {
			e.logger.Debug(ctx.Context(), "plan status stale after dependency apply",
				ports.F("step", stepID.String()), ports.F("status", fresh.String()))
		}
		status = fresh
	}

	if status == pipeline.StatusSatisfied {
		e.logger.Debug(ctx.Context(), "step already satisfied", ports.F("step", stepID.String()))
		return NewStepResult(stepID, pipeline.StatusSatisfied, nil), false
	}

	if ctx.DryRun() {
		return NewStepResult(stepID, status, nil), false
	}

	e.logger.Info(ctx.Context(), "applying step", ports.F("step", stepID.String()))

	start := time.Now()
	err := step.Apply(ctx)
	duration := time.Since(start)

	if err != nil {
		if pipeline.IsBestEffort(step) {
			e.logger.Warn(ctx.Context(), "best-effort step failed, continuing",
				ports.F("step", stepID.String()), ports.F("error", err))
			return NewStepResult(stepID, pipeline.StatusTolerated, err).WithDuration(duration), false
		}
		e.logger.Error(ctx.Context(), "step failed",
			ports.F("step", stepID.String()), ports.F("error", err))
		return NewStepResult(stepID, pipeline.StatusFailed, pipeline.NewApplyError(stepID.String(), err)).
			WithDuration(duration), false
	}

	return NewStepResult(stepID, pipeline.StatusSatisfied, nil).WithDuration(duration), true
}

// dependencyApplied reports whether any direct or transitive dependency of
// step applied during this run.
func dependencyApplied(step pipeline.Step, applied map[string]bool, steps map[string]pipeline.Step) bool {
	for _, dep := range step.DependsOn() {
		id := dep.String()
		if applied[id] {
			return true
		}
		if depStep, ok := steps[id]; ok && dependencyApplied(depStep, applied, steps) {
			return true
		}
	}
	return false
}
