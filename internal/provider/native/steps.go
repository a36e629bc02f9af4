package native

import (
	"fmt"
	"os"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// CloneStep checks out the pinned upstream repository. There is no
// fallback source: a clone failure is fatal.
type CloneStep struct {
	builder *Builder
	id      pipeline.StepID
}

// NewCloneStep creates the clone step.
func NewCloneStep(builder *Builder) *CloneStep {
	return &CloneStep{
		builder: builder,
		id:      pipeline.MustNewStepID("native:clone"),
	}
}

// ID returns the step identifier.
func (s *CloneStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *CloneStep) DependsOn() []pipeline.StepID {
	return nil
}

// Check is satisfied when the binary is already installed (the tree was
// cleaned after a completed earlier run) or a completed checkout is
// present. A directory without a state record is a partial clone and is
// re-cloned.
func (s *CloneStep) Check(ctx pipeline.RunContext) (pipeline.StepStatus, error) {
	if s.builder.installed() {
		return pipeline.StatusSatisfied, nil
	}
	if s.builder.fs.Exists(s.builder.CloneDir() + "/.git") {
		applied, err := ctx.State().Applied(s.id)
		if err != nil {
			return pipeline.StatusUnknown, err
		}
		if applied {
			return pipeline.StatusSatisfied, nil
		}
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply clones the repository and records the step in the state store so
// a later cleaned tree is not mistaken for a never-run clone. A leftover
// partial checkout is removed first; git refuses non-empty targets.
func (s *CloneStep) Apply(ctx pipeline.RunContext) error {
	if s.builder.fs.Exists(s.builder.CloneDir()) {
		if err := s.builder.fs.RemoveAll(s.builder.CloneDir()); err != nil {
			return fmt.Errorf("removing partial checkout: %w", err)
		}
	}
	result, err := s.builder.runner.Run(ctx.Context(),
		"git", "clone", "--depth", "1", s.builder.cfg.Repo, s.builder.CloneDir())
	if err != nil {
		return err
	}
	if !result.Success() {
		return pipeline.NewToolError("git clone "+s.builder.cfg.Repo, result.ExitCode, result.Stderr)
	}
	if err := ctx.State().MarkApplied(s.id); err != nil {
		return fmt.Errorf("recording clone: %w", err)
	}
	return nil
}

// BuildStep compiles the release binary inside the checkout. This is the
// step most sensitive to the environment descriptor: the backend's headers
// and libraries are usually not globally linked, so the descriptor's
// search paths must reach the compiler.
type BuildStep struct {
	builder *Builder
	id      pipeline.StepID
}

// NewBuildStep creates the build step.
func NewBuildStep(builder *Builder) *BuildStep {
	return &BuildStep{
		builder: builder,
		id:      pipeline.MustNewStepID("native:build"),
	}
}

// ID returns the step identifier.
func (s *BuildStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the clone step.
func (s *BuildStep) DependsOn() []pipeline.StepID {
	return []pipeline.StepID{pipeline.MustNewStepID("native:clone")}
}

// Check is satisfied only when the rescued binary is installed. A stale
// target/release artifact is not trusted; the tree rebuilds.
func (s *BuildStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	if s.builder.installed() {
		return pipeline.StatusSatisfied, nil
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply runs the release build under the composed environment.
func (s *BuildStep) Apply(ctx pipeline.RunContext) error {
	result, err := s.builder.runner.RunWith(ctx.Context(), ports.Invocation{
		Command: "cargo",
		Args:    []string{"build", "--release"},
		Dir:     s.builder.CloneDir(),
		Env:     ctx.Env().Environ(os.Environ()),
	})
	if err != nil {
		return err
	}
	if !result.Success() {
		return pipeline.NewToolError("cargo build --release", result.ExitCode, result.Stderr)
	}
	return nil
}

// RescueStep copies the built binary to the stable install location. A
// successful compiler exit does not guarantee the expected output, so the
// artifact's existence is verified explicitly and its absence reported as
// a distinct condition, not a tool failure.
type RescueStep struct {
	builder *Builder
	id      pipeline.StepID
}

// NewRescueStep creates the rescue step.
func NewRescueStep(builder *Builder) *RescueStep {
	return &RescueStep{
		builder: builder,
		id:      pipeline.MustNewStepID("native:rescue"),
	}
}

// ID returns the step identifier.
func (s *RescueStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the build step.
func (s *RescueStep) DependsOn() []pipeline.StepID {
	return []pipeline.StepID{pipeline.MustNewStepID("native:build")}
}

// Check reports satisfied when the binary is already installed.
func (s *RescueStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	if s.builder.installed() {
		return pipeline.StatusSatisfied, nil
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply verifies the artifact and copies it out of the build tree.
func (s *RescueStep) Apply(_ pipeline.RunContext) error {
	artifact := s.builder.ArtifactPath()
	if !s.builder.fs.Exists(artifact) {
		return pipeline.NewArtifactMissingError(artifact).
			WithStepID(s.id).
			WithSuggestion("inspect the build output; the compiler exited zero but produced no binary")
	}
	if err := s.builder.fs.MkdirAll(s.builder.InstallDir(), 0o755); err != nil {
		return fmt.Errorf("creating install dir: %w", err)
	}
	if err := s.builder.fs.CopyFile(artifact, s.builder.InstalledPath()); err != nil {
		return fmt.Errorf("rescuing %s: %w", s.builder.cfg.Binary, err)
	}
	return nil
}

// WrapperStep installs the Python wrapper package for the rescued binary
// into the project environment.
type WrapperStep struct {
	builder *Builder
	venvPip string
	id      pipeline.StepID
}

// NewWrapperStep creates the wrapper install step.
func NewWrapperStep(builder *Builder, venvPip string) *WrapperStep {
	return &WrapperStep{
		builder: builder,
		venvPip: venvPip,
		id:      pipeline.MustNewStepID("native:wrapper"),
	}
}

// ID returns the step identifier.
func (s *WrapperStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the rescue step.
func (s *WrapperStep) DependsOn() []pipeline.StepID {
	return []pipeline.StepID{pipeline.MustNewStepID("native:rescue")}
}

// Check probes the environment for the wrapper distribution.
func (s *WrapperStep) Check(ctx pipeline.RunContext) (pipeline.StepStatus, error) {
	if s.builder.cfg.Wrapper == "" {
		return pipeline.StatusSatisfied, nil
	}
	if !s.builder.fs.Exists(s.venvPip) {
		return pipeline.StatusNeedsApply, nil
	}
	result, err := s.builder.runner.Run(ctx.Context(), s.venvPip, "show", s.builder.cfg.Wrapper)
	if err != nil {
		return pipeline.StatusUnknown, err
	}
	if result.Success() {
		return pipeline.StatusSatisfied, nil
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply installs the wrapper.
func (s *WrapperStep) Apply(ctx pipeline.RunContext) error {
	result, err := s.builder.runner.RunWith(ctx.Context(), ports.Invocation{
		Command: s.venvPip,
		Args:    []string{"install", s.builder.cfg.Wrapper},
		Env:     ctx.Env().Environ(os.Environ()),
	})
	if err != nil {
		return err
	}
	if !result.Success() {
		return pipeline.NewToolError("pip install "+s.builder.cfg.Wrapper, result.ExitCode, result.Stderr)
	}
	return nil
}

// CleanStep deletes the cloned source tree. It sits at the end of the
// dependency chain, after rescue and wrapper install, so a failed build
// can never lose the only copy of the artifact. Deletion failures are
// tolerated: a leftover tree wastes disk, nothing more.
type CleanStep struct {
	builder *Builder
	id      pipeline.StepID
}

// NewCleanStep creates the source tree cleanup step.
func NewCleanStep(builder *Builder) *CleanStep {
	return &CleanStep{
		builder: builder,
		id:      pipeline.MustNewStepID("native:clean"),
	}
}

// ID returns the step identifier.
func (s *CleanStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the wrapper step, transitively ordering cleanup after
// rescue.
func (s *CleanStep) DependsOn() []pipeline.StepID {
	return []pipeline.StepID{pipeline.MustNewStepID("native:wrapper")}
}

// BestEffort marks deletion failures as tolerated.
func (s *CleanStep) BestEffort() bool {
	return true
}

// Check reports satisfied once the tree is gone.
func (s *CleanStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	if s.builder.fs.Exists(s.builder.CloneDir()) {
		return pipeline.StatusNeedsApply, nil
	}
	return pipeline.StatusSatisfied, nil
}

// Apply removes the tree. The rescued binary is re-verified first; an
// inconsistent install state must not trigger an irreversible delete.
func (s *CleanStep) Apply(_ pipeline.RunContext) error {
	if !s.builder.installed() {
		return pipeline.NewPreconditionError(
			"refusing to delete source tree: rescued binary missing at " + s.builder.InstalledPath()).
			WithStepID(s.id)
	}
	if err := s.builder.fs.RemoveAll(s.builder.CloneDir()); err != nil {
		return fmt.Errorf("removing %s: %w", s.builder.CloneDir(), err)
	}
	return nil
}

// Ensure CleanStep opts into best-effort execution.
var _ pipeline.BestEffortStep = (*CleanStep)(nil)
