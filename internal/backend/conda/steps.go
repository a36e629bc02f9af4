package conda

import (
	"fmt"
	"strings"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
)

// RuntimeStep bootstraps Miniforge under the backend prefix.
type RuntimeStep struct {
	backend *Conda
	id      pipeline.StepID
}

// NewRuntimeStep creates the Miniforge bootstrap step.
func NewRuntimeStep(backend *Conda) *RuntimeStep {
	return &RuntimeStep{
		backend: backend,
		id:      pipeline.MustNewStepID("conda:runtime"),
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

// Check reports satisfied when the conda executable exists under the prefix.
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

// Apply downloads and runs the Miniforge installer in batch mode.
func (s *RuntimeStep) Apply(ctx pipeline.RunContext) error {
	script := fmt.Sprintf("curl -fsSL %q -o /tmp/miniforge.sh && bash /tmp/miniforge.sh -b -p %q", installerURL, s.backend.prefix)
	result, err := s.backend.runner.Run(ctx.Context(), "bash", "-c", script)
	if err != nil {
		return err
	}
	if !result.Success() {
		return pipeline.NewToolError("miniforge installer", result.ExitCode, result.Stderr)
	}
	return nil
}

// PackageStep installs one package through conda-forge.
type PackageStep struct {
	backend *Conda
	pkg     string
	id      pipeline.StepID
}

// NewPackageStep creates an install step for one conda package.
func NewPackageStep(backend *Conda, pkg string) *PackageStep {
	return &PackageStep{
		backend: backend,
		pkg:     pkg,
		id:      pipeline.MustNewStepID("conda:install:" + pkg),
	}
}

// ID returns the step identifier.
func (s *PackageStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the runtime step.
func (s *PackageStep) DependsOn() []pipeline.StepID {
	return []pipeline.StepID{pipeline.MustNewStepID("conda:runtime")}
}

// Check determines if the package is already installed in the base env.
// A missing runtime means the package needs installing too.
func (s *PackageStep) Check(ctx pipeline.RunContext) (pipeline.StepStatus, error) {
	if !s.backend.fs.Exists(s.backend.condaBin()) {
		return pipeline.StatusNeedsApply, nil
	}

	result, err := s.backend.runner.Run(ctx.Context(), s.backend.condaBin(), "list", "-f", s.pkg)
	if err != nil {
		return pipeline.StatusUnknown, err
	}
	if !result.Success() {
		return pipeline.StatusUnknown, pipeline.NewToolError("conda list", result.ExitCode, result.Stderr)
	}

	for _, line := range strings.Split(result.Stdout, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), s.pkg) {
			return pipeline.StatusSatisfied, nil
		}
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply installs the package from conda-forge.
func (s *PackageStep) Apply(ctx pipeline.RunContext) error {
	result, err := s.backend.runner.Run(ctx.Context(),
		s.backend.condaBin(), "install", "-y", "-c", "conda-forge", s.pkg)
	if err != nil {
		return err
	}
	if !result.Success() {
		return pipeline.NewToolError("conda install "+s.pkg, result.ExitCode, result.Stderr)
	}
	return nil
}
