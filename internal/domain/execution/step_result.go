// Package execution handles step orchestration and runtime execution.
package execution

import (
	"time"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
)

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	stepID   pipeline.StepID
	status   pipeline.StepStatus
	err      error
	duration time.Duration
}

// NewStepResult creates a new StepResult.
func NewStepResult(stepID pipeline.StepID, status pipeline.StepStatus, err error) StepResult {
	return StepResult{
		stepID: stepID,
		status: status,
		err:    err,
	}
}

// StepID returns the ID of the step that was executed.
func (r StepResult) StepID() pipeline.StepID {
	return r.stepID
}

// Status returns the final status of the step.
func (r StepResult) Status() pipeline.StepStatus {
	return r.status
}

// Error returns any error that occurred during execution.
func (r StepResult) Error() error {
	return r.err
}

// Duration returns how long the step took to execute.
func (r StepResult) Duration() time.Duration {
	return r.duration
}

// Success returns true if the step completed or was already satisfied.
func (r StepResult) Success() bool {
	return r.status == pipeline.StatusSatisfied
}

// Skipped returns true if the step was not executed.
func (r StepResult) Skipped() bool {
	return r.status == pipeline.StatusSkipped
}

// WithDuration returns a new StepResult with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}
