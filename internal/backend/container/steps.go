package container

import (
	"github.com/QuillFuzz/QuillFuzz/internal/adapters/command"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
)

// VerifyStep asserts one baked tool is on PATH. It never installs: a
// missing tool means the image was built wrong and the run must stop.
type VerifyStep struct {
	backend *Container
	tool    string
	id      pipeline.StepID
}

// NewVerifyStep creates a verification step for one baked tool.
func NewVerifyStep(backend *Container, tool string) *VerifyStep {
	return &VerifyStep{
		backend: backend,
		tool:    tool,
		id:      pipeline.MustNewStepID("container:verify:" + tool),
	}
}

// ID returns the step identifier.
func (s *VerifyStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *VerifyStep) DependsOn() []pipeline.StepID {
	return nil
}

// Check probes for the tool with `command -v`.
func (s *VerifyStep) Check(ctx pipeline.RunContext) (pipeline.StepStatus, error) {
	result, err := s.backend.runner.Run(ctx.Context(), "bash", "-c", "command -v "+s.tool)
	if err != nil {
		if command.IsCommandNotFound(err) {
			return pipeline.StatusNeedsApply, nil
		}
		return pipeline.StatusUnknown, err
	}
	if result.Success() {
		return pipeline.StatusSatisfied, nil
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply fails: the container image must already carry the tool.
func (s *VerifyStep) Apply(_ pipeline.RunContext) error {
	return pipeline.NewPreconditionError(
		"tool "+s.tool+" not baked into the container image").
		WithStepID(s.id).
		WithSuggestion("rebuild the image with the native toolchain layer")
}
