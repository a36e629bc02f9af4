package rustup

import (
	"fmt"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
)

// InstallStep performs the first-time toolchain install. Failure is fatal:
// without cargo the native component cannot be built.
type InstallStep struct {
	manager *Rustup
	id      pipeline.StepID
}

// NewInstallStep creates the toolchain install step.
func NewInstallStep(manager *Rustup) *InstallStep {
	return &InstallStep{
		manager: manager,
		id:      pipeline.MustNewStepID("rustup:install"),
	}
}

// ID returns the step identifier.
func (s *InstallStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *InstallStep) DependsOn() []pipeline.StepID {
	return nil
}

// Check reports satisfied when cargo already exists under the home.
func (s *InstallStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	if s.manager.fs.Exists(s.manager.cargoBin()) {
		return pipeline.StatusSatisfied, nil
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply runs the upstream installer non-interactively with the stable
// toolchain.
func (s *InstallStep) Apply(ctx pipeline.RunContext) error {
	script := fmt.Sprintf("curl --proto '=https' --tlsv1.2 -fsSL %s | sh -s -- -y --default-toolchain stable", installerURL)
	result, err := s.manager.runner.Run(ctx.Context(), "bash", "-c", script)
	if err != nil {
		return err
	}
	if !result.Success() {
		return pipeline.NewToolError("rustup installer", result.ExitCode, result.Stderr)
	}
	return nil
}

// UpdateStep refreshes an existing toolchain. It is best-effort: a stale
// toolchain still builds, so an update failure never blocks the pipeline.
type UpdateStep struct {
	manager *Rustup
	id      pipeline.StepID
}

// NewUpdateStep creates the toolchain update step.
func NewUpdateStep(manager *Rustup) *UpdateStep {
	return &UpdateStep{
		manager: manager,
		id:      pipeline.MustNewStepID("rustup:update"),
	}
}

// ID returns the step identifier.
func (s *UpdateStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the install step.
func (s *UpdateStep) DependsOn() []pipeline.StepID {
	return []pipeline.StepID{pipeline.MustNewStepID("rustup:install")}
}

// BestEffort marks update failures as tolerated.
func (s *UpdateStep) BestEffort() bool {
	return true
}

// Check always reports needs-apply: the update runs every invocation so
// the toolchain tracks the stable channel.
func (s *UpdateStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	return pipeline.StatusNeedsApply, nil
}

// Apply runs rustup update.
func (s *UpdateStep) Apply(ctx pipeline.RunContext) error {
	result, err := s.manager.runner.Run(ctx.Context(), s.manager.rustupBin(), "update")
	if err != nil {
		return err
	}
	if !result.Success() {
		return pipeline.NewToolError("rustup update", result.ExitCode, result.Stderr)
	}
	return nil
}

// Ensure UpdateStep opts into best-effort execution.
var _ pipeline.BestEffortStep = (*UpdateStep)(nil)
