package execution

import (
	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
)

// PlanEntry represents a single step's planned execution.
type PlanEntry struct {
	step   pipeline.Step
	status pipeline.StepStatus
}

// NewPlanEntry creates a new PlanEntry.
func NewPlanEntry(step pipeline.Step, status pipeline.StepStatus) PlanEntry {
	return PlanEntry{
		step:   step,
		status: status,
	}
}

// Step returns the step to be executed.
func (e PlanEntry) Step() pipeline.Step {
	return e.step
}

// Status returns the current status of the step.
func (e PlanEntry) Status() pipeline.StepStatus {
	return e.status
}

// PlanSummary provides aggregate statistics about the execution plan.
type PlanSummary struct {
	Total      int
	NeedsApply int
	Satisfied  int
	Unknown    int
}

// Plan represents the full plan for executing all steps, in pipeline order.
type Plan struct {
	entries []PlanEntry
}

// NewPlan creates an empty Plan.
func NewPlan() *Plan {
	return &Plan{
		entries: make([]PlanEntry, 0),
	}
}

// Add appends a plan entry.
func (p *Plan) Add(entry PlanEntry) {
	p.entries = append(p.entries, entry)
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// Entries returns all plan entries.
func (p *Plan) Entries() []PlanEntry {
	return p.entries
}

// HasChanges returns true if any steps need to be applied.
func (p *Plan) HasChanges() bool {
	for _, e := range p.entries {
		if e.status == pipeline.StatusNeedsApply {
			return true
		}
	}
	return false
}

// Summary returns aggregate statistics.
func (p *Plan) Summary() PlanSummary {
	summary := PlanSummary{Total: len(p.entries)}
	for _, e := range p.entries {
		switch e.status {
		case pipeline.StatusNeedsApply:
			summary.NeedsApply++
		case pipeline.StatusSatisfied:
			summary.Satisfied++
		default:
			summary.Unknown++
		}
	}
	return summary
}
