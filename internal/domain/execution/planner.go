package execution

import (
	"fmt"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
)

// Planner generates a Plan from an ordered step list by checking each
// step's current status. The pipeline is strictly sequential, so steps run
// in declared order; the planner only validates that every declared
// dependency appears earlier in the list.
type Planner struct{}

// NewPlanner creates a new Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan checks every step and returns the resulting plan.
func (p *Planner) Plan(ctx pipeline.RunContext, steps []pipeline.Step) (*Plan, error) {
	if err := validateOrder(steps); err != nil {
		return nil, err
	}

	plan := NewPlan()
	for _, step := range steps {
		status, err := step.Check(ctx)
		if err != nil {
			return nil, pipeline.NewCheckError(step.ID().String(), err)
		}
		plan.Add(NewPlanEntry(step, status))
	}
	return plan, nil
}

// validateOrder ensures dependencies are declared before their dependents.
func validateOrder(steps []pipeline.Step) error {
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		id := step.ID().String()
		if seen[id] {
			return fmt.Errorf("duplicate step %q", id)
		}
		for _, dep := range step.DependsOn() {
			if !seen[dep.String()] {
				return fmt.Errorf("step %q depends on %q which is not declared earlier", id, dep.String())
			}
		}
		seen[id] = true
	}
	return nil
}
