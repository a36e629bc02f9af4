package brew

import (
	"fmt"
	"strings"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
)

// RuntimeStep bootstraps Homebrew itself.
type RuntimeStep struct {
	backend *Brew
	id      pipeline.StepID
}

// NewRuntimeStep creates the Homebrew bootstrap step.
func NewRuntimeStep(backend *Brew) *RuntimeStep {
	return &RuntimeStep{
		backend: backend,
		id:      pipeline.MustNewStepID("brew:runtime"),
	}
}

// ID returns the step identifier.
func (s *RuntimeStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *RuntimeStep) DependsOn() []pipeline.StepID {
	return nil
}

// Check reports satisfied when the brew executable exists.
func (s *RuntimeStep) Check(ctx pipeline.RunContext) (pipeline.StepStatus, error) {
	ok, err := s.backend.Detect(ctx.Context())
	if err != nil {
		return pipeline.StatusUnknown, err
	}
	if ok {
		return pipeline.StatusSatisfied, nil
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply runs the upstream installer non-interactively.
func (s *RuntimeStep) Apply(ctx pipeline.RunContext) error {
	script := fmt.Sprintf("NONINTERACTIVE=1 /bin/bash -c \"$(curl -fsSL %s)\"", installerURL)
	result, err := s.backend.runner.Run(ctx.Context(), "bash", "-c", script)
	if err != nil {
		return err
	}
	if !result.Success() {
		return pipeline.NewToolError("homebrew installer", result.ExitCode, result.Stderr)
	}
	return nil
}

// FormulaStep installs one Homebrew formula.
type FormulaStep struct {
	backend *Brew
	formula string
	id      pipeline.StepID
}

// NewFormulaStep creates an install step for one formula.
func NewFormulaStep(backend *Brew, formula string) *FormulaStep {
	return &FormulaStep{
		backend: backend,
		formula: formula,
		id:      pipeline.MustNewStepID("brew:install:" + formula),
	}
}

// ID returns the step identifier.
func (s *FormulaStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the runtime step.
func (s *FormulaStep) DependsOn() []pipeline.StepID {
	return []pipeline.StepID{pipeline.MustNewStepID("brew:runtime")}
}

// Check determines if the formula is already installed.
func (s *FormulaStep) Check(ctx pipeline.RunContext) (pipeline.StepStatus, error) {
	if !s.backend.fs.Exists(s.backend.brewBin()) {
		return pipeline.StatusNeedsApply, nil
	}

	result, err := s.backend.runner.Run(ctx.Context(), s.backend.brewBin(), "list", "--formula")
	if err != nil {
		return pipeline.StatusUnknown, err
	}
	if !result.Success() {
		return pipeline.StatusUnknown, pipeline.NewToolError("brew list", result.ExitCode, result.Stderr)
	}

	for _, installed := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		if installed == s.formula {
			return pipeline.StatusSatisfied, nil
		}
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply installs the formula.
func (s *FormulaStep) Apply(ctx pipeline.RunContext) error {
	result, err := s.backend.runner.Run(ctx.Context(), s.backend.brewBin(), "install", s.formula)
	if err != nil {
		return err
	}
	if !result.Success() {
		return pipeline.NewToolError("brew install "+s.formula, result.ExitCode, result.Stderr)
	}
	return nil
}
