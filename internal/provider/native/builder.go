// Package native builds the one component compiled from source: the QIR
// runner binary. The lifecycle is clone, build, rescue the artifact to a
// stable location, install the Python wrapper, then delete the source
// tree. Rescue and wrapper install strictly precede cleanup; cleanup is
// unreachable after any earlier failure.
package native

import (
	"path/filepath"
	"strings"

	"github.com/QuillFuzz/QuillFuzz/internal/config"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// Builder orchestrates the native component lifecycle under the project
// root.
type Builder struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	cfg    config.NativeConfig
	root   string
}

// NewBuilder creates a Builder for the configured component.
func NewBuilder(runner ports.CommandRunner, fs ports.FileSystem, cfg config.NativeConfig, root string) *Builder {
	return &Builder{runner: runner, fs: fs, cfg: cfg, root: root}
}

// CloneDir returns the fixed checkout location under the project root.
func (b *Builder) CloneDir() string {
	return filepath.Join(b.root, "build", repoName(b.cfg.Repo))
}

// ArtifactPath returns where the release build leaves the binary.
func (b *Builder) ArtifactPath() string {
	return filepath.Join(b.CloneDir(), "target", "release", b.cfg.Binary)
}

// InstallDir returns the stable, backend-independent binary location.
func (b *Builder) InstallDir() string {
	return filepath.Join(b.root, "bin")
}

// InstalledPath returns the rescued binary's final path.
func (b *Builder) InstalledPath() string {
	return filepath.Join(b.InstallDir(), b.cfg.Binary)
}

// installed reports whether a rescued binary is already in place. Every
// lifecycle step short-circuits on this, which is what makes a re-run
// after a completed build a no-op.
func (b *Builder) installed() bool {
	return b.fs.Exists(b.InstalledPath())
}

// Steps returns the lifecycle as a dependency chain. The executor's
// fail-fast policy plus this chain is what guarantees cleanup can never
// run unless rescue and the wrapper install completed first.
func (b *Builder) Steps(venvPip string) []pipeline.Step {
	return []pipeline.Step{
		NewCloneStep(b),
		NewBuildStep(b),
		NewRescueStep(b),
		NewWrapperStep(b, venvPip),
		NewCleanStep(b),
	}
}

// ComposeEnv puts the rescued binary's directory on PATH.
func (b *Builder) ComposeEnv(env pipeline.Env) pipeline.Env {
	return env.With("PATH", "native", b.InstallDir())
}

// repoName derives the checkout directory name from the repository URL.
func repoName(repo string) string {
	name := repo
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".git")
}
