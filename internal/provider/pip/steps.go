package pip

import (
	"os"

	"github.com/QuillFuzz/QuillFuzz/internal/config"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// BuildSupportStep installs the foundational build-support packages as a
// single upgrade pass. It runs every invocation: packages later in the
// manifest that disable build isolation rely on these being both present
// and current.
type BuildSupportStep struct {
	installer *Installer
	id        pipeline.StepID
}

// NewBuildSupportStep creates the phase-one step.
func NewBuildSupportStep(installer *Installer) *BuildSupportStep {
	return &BuildSupportStep{
		installer: installer,
		id:        pipeline.MustNewStepID("pip:build-support"),
	}
}

// ID returns the step identifier.
func (s *BuildSupportStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *BuildSupportStep) DependsOn() []pipeline.StepID {
	return nil
}

// Check always reports needs-apply.
func (s *BuildSupportStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	if len(s.installer.packages.BuildSupport) == 0 {
		return pipeline.StatusSatisfied, nil
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply upgrades the build-support set in one invocation.
func (s *BuildSupportStep) Apply(ctx pipeline.RunContext) error {
	args := append([]string{"install", "--upgrade"}, s.installer.packages.BuildSupport...)
	return s.installer.runPip(ctx, args)
}

// PackageStep installs one manifest entry. Dependencies chain each entry
// to its predecessor, so declared order is execution order.
type PackageStep struct {
	installer *Installer
	pkg       config.PackageSpec
	id        pipeline.StepID
	previous  pipeline.StepID
}

// NewPackageStep creates an install step for one manifest entry.
func NewPackageStep(installer *Installer, pkg config.PackageSpec, previous pipeline.StepID) *PackageStep {
	return &PackageStep{
		installer: installer,
		pkg:       pkg,
		id:        pipeline.MustNewStepID("pip:install:" + DistName(pkg.Name)),
		previous:  previous,
	}
}

// ID returns the step identifier.
func (s *PackageStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the predecessor in the manifest.
func (s *PackageStep) DependsOn() []pipeline.StepID {
	return []pipeline.StepID{s.previous}
}

// Check probes the environment for the distribution.
func (s *PackageStep) Check(ctx pipeline.RunContext) (pipeline.StepStatus, error) {
	if !s.installer.fs.Exists(s.installer.venvPip) {
		return pipeline.StatusNeedsApply, nil
	}
	result, err := s.installer.runner.Run(ctx.Context(),
		s.installer.venvPip, "show", DistName(s.pkg.Name))
	if err != nil {
		return pipeline.StatusUnknown, err
	}
	if result.Success() {
		return pipeline.StatusSatisfied, nil
	}
	return pipeline.StatusNeedsApply, nil
}

// Apply installs the entry, disabling build isolation when the manifest
// says so, which points the source build at the backend's headers and
// libraries instead of a hermetic build environment.
func (s *PackageStep) Apply(ctx pipeline.RunContext) error {
	args := []string{"install"}
	if s.pkg.NoBuildIsolation {
		args = append(args, "--no-build-isolation")
	}
	args = append(args, s.pkg.Name)
	return s.installer.runPip(ctx, args)
}

// UpgradeStep applies the final upgrade pass to the one fast-moving
// package, after the whole manifest is in place.
type UpgradeStep struct {
	installer *Installer
	pkg       string
	id        pipeline.StepID
	previous  pipeline.StepID
}

// NewUpgradeStep creates the final upgrade step.
func NewUpgradeStep(installer *Installer, pkg string, previous pipeline.StepID) *UpgradeStep {
	return &UpgradeStep{
		installer: installer,
		pkg:       pkg,
		id:        pipeline.MustNewStepID("pip:upgrade:" + pkg),
		previous:  previous,
	}
}

// ID returns the step identifier.
func (s *UpgradeStep) ID() pipeline.StepID {
	return s.id
}

// DependsOn returns the last manifest entry.
func (s *UpgradeStep) DependsOn() []pipeline.StepID {
	return []pipeline.StepID{s.previous}
}

// Check always reports needs-apply: the point of the step is tracking the
// latest release on every run.
func (s *UpgradeStep) Check(_ pipeline.RunContext) (pipeline.StepStatus, error) {
	return pipeline.StatusNeedsApply, nil
}

// Apply upgrades the package.
func (s *UpgradeStep) Apply(ctx pipeline.RunContext) error {
	return s.installer.runPip(ctx, []string{"install", "--upgrade", s.pkg})
}

// runPip invokes the environment's pip under the composed environment.
func (i *Installer) runPip(ctx pipeline.RunContext, args []string) error {
	result, err := i.runner.RunWith(ctx.Context(), ports.Invocation{
		Command: i.venvPip,
		Args:    args,
		Env:     ctx.Env().Environ(os.Environ()),
	})
	if err != nil {
		return err
	}
	if !result.Success() {
		return pipeline.NewToolError("pip "+args[0], result.ExitCode, result.Stderr)
	}
	return nil
}
