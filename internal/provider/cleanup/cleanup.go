// Package cleanup reclaims disk from package-manager caches at the end of
// provisioning. Every step here is best-effort: a cache that cannot be
// pruned costs disk, not correctness.
package cleanup

import (
	"os"

	"github.com/QuillFuzz/QuillFuzz/internal/adapters/command"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// Reclaimer prunes the caches left behind by the tools a run invoked.
type Reclaimer struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewReclaimer creates a Reclaimer.
func NewReclaimer(runner ports.CommandRunner, fs ports.FileSystem) *Reclaimer {
	return &Reclaimer{runner: runner, fs: fs}
}

// Steps returns one prune step per cache plus the installer script left in
// /tmp. The backend's own cache command is included when one was given.
func (r *Reclaimer) Steps(backendCache []string) []pipeline.Step {
	steps := []pipeline.Step{
		NewCommandStep(r, "cleanup:pip-cache", "pip", "cache", "purge"),
		NewCommandStep(r, "cleanup:uv-cache", "uv", "cache", "clean"),
		NewPathStep(r, "cleanup:installer-script", "/tmp/miniforge.sh"),
	}
	if len(backendCache) > 0 {
		steps = append([]pipeline.Step{
			NewCommandStep(r, "cleanup:backend-cache", backendCache[0], backendCache[1:]...),
		}, steps...)
	}
	return steps
}

// CommandStep runs one cache-pruning command.
type CommandStep struct {
	reclaimer *Reclaimer
	id        pipeline.StepID
	cmd       string
	args      []string
}

// NewCommandStep creates a prune step for one command.
func NewCommandStep(reclaimer *Reclaimer, id, cmd string, args ...string) *CommandStep {
	return &CommandStep{
		reclaimer: reclaimer,
		id:        pipeline.MustNewStepID(id),
		cmd:       cmd,
		args:      args,
	}
}

// ID returns the step identifier.
func (s *CommandStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *CommandStep) DependsOn() []pipeline.StepID {
	return nil
}

// BestEffort marks prune failures as tolerated.
func (s *CommandStep) BestEffort() bool {
	return true
}

// Check always reports needs-apply: caches refill between runs.
func (s *CommandStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	return pipeline.StatusNeedsApply, nil
}

// Apply runs the prune command under the composed environment. A tool
// that is not installed at all counts as already pruned.
func (s *CommandStep) Apply(ctx pipeline.RunContext) error {
	result, err := s.reclaimer.runner.RunWith(ctx.Context(), ports.Invocation{
		Command: s.cmd,
		Args:    s.args,
		Env:     ctx.Env().Environ(os.Environ()),
	})
	if err != nil {
		if command.IsCommandNotFound(err) {
			return nil
		}
		return err
	}
	if !result.Success() {
		return pipeline.NewToolError(s.cmd, result.ExitCode, result.Stderr)
	}
	return nil
}

// PathStep deletes one leftover path.
type PathStep struct {
	reclaimer *Reclaimer
	id        pipeline.StepID
	path      string
}

// NewPathStep creates a deletion step for one path.
func NewPathStep(reclaimer *Reclaimer, id, path string) *PathStep {
	return &PathStep{
		reclaimer: reclaimer,
		id:        pipeline.MustNewStepID(id),
		path:      path,
	}
}

// ID returns the step identifier.
func (s *PathStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *PathStep) DependsOn() []pipeline.StepID {
	return nil
}

// BestEffort marks deletion failures as tolerated.
func (s *PathStep) BestEffort() bool {
	return true
}

// Check reports satisfied once the path is gone.
func (s *PathStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	if s.reclaimer.fs.Exists(s.path) {
		return pipeline.StatusNeedsApply, nil
	}
	return pipeline.StatusSatisfied, nil
}

// Apply removes the path.
func (s *PathStep) Apply(_ pipeline.RunContext) error {
	return s.reclaimer.fs.RemoveAll(s.path)
}

// Both step kinds opt into best-effort execution.
var (
	_ pipeline.BestEffortStep = (*CommandStep)(nil)
	_ pipeline.BestEffortStep = (*PathStep)(nil)
)
