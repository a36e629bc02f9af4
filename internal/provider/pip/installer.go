// Package pip installs the ordered dependency manifest into the project
// environment. The manifest is two phases: build-support packages first,
// unconditionally, then the main set in declared order. Ordering is
// encoded structurally, each step depending on its predecessor, so the
// planner rejects any arrangement that would violate it.
package pip

import (
	"strings"

	"github.com/QuillFuzz/QuillFuzz/internal/config"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// Installer drives the project environment's pip.
type Installer struct {
	runner   ports.CommandRunner
	fs       ports.FileSystem
	venvPip  string
	packages config.PackagesConfig
}

// NewInstaller creates an Installer bound to the environment's pip.
func NewInstaller(runner ports.CommandRunner, fs ports.FileSystem, venvPip string, packages config.PackagesConfig) *Installer {
	return &Installer{runner: runner, fs: fs, venvPip: venvPip, packages: packages}
}

// Steps returns the manifest as a dependency chain: the build-support
// phase, each main package in order, then the final upgrade pass.
func (i *Installer) Steps() []pipeline.Step {
	steps := make([]pipeline.Step, 0, len(i.packages.Main)+2)

	buildSupport := NewBuildSupportStep(i)
	steps = append(steps, buildSupport)

	previous := buildSupport.ID()
	for _, pkg := range i.packages.Main {
		step := NewPackageStep(i, pkg, previous)
		steps = append(steps, step)
		previous = step.ID()
	}

	if i.packages.UpgradeLatest != "" {
		steps = append(steps, NewUpgradeStep(i, i.packages.UpgradeLatest, previous))
	}
	return steps
}

// DistName derives the distribution name pip reports for a manifest
// entry: source-control references reduce to the repository name, and
// version constraints or extras are stripped from registry identifiers.
func DistName(entry string) string {
	if strings.HasPrefix(entry, "git+") {
		name := strings.TrimSuffix(entry, "/")
		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		return strings.TrimSuffix(name, ".git")
	}
	if i := strings.IndexAny(entry, "[<>=!~ "); i >= 0 {
		return entry[:i]
	}
	return entry
}
