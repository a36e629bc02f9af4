package pipeline

// StepStatus describes a step's state, as reported by Check before a run
// and recorded per step after it.
type StepStatus string

const (
	// StatusSatisfied means the step's outcome is already in place.
	StatusSatisfied StepStatus = "satisfied"

	// StatusNeedsApply means the step must run to reach the desired state.
	StatusNeedsApply StepStatus = "needs_apply"

	// StatusUnknown means the status could not be determined.
	StatusUnknown StepStatus = "unknown"

	// StatusFailed means the step ran and failed fatally.
	StatusFailed StepStatus = "failed"

	// StatusSkipped means the step did not run, either because an earlier
	// step failed or the run was cancelled.
	StatusSkipped StepStatus = "skipped"

	// StatusTolerated means a best-effort step failed and the run went on.
	StatusTolerated StepStatus = "tolerated"
)

// String returns the status label.
func (s StepStatus) String() string {
	return string(s)
}

// Terminal reports whether the status is a final run outcome rather than a
// pre-run assessment.
func (s StepStatus) Terminal() bool {
	switch s {
	case StatusFailed, StatusSkipped, StatusTolerated:
		return true
	default:
		return false
	}
}
