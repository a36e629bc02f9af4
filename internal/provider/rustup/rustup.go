// Package rustup manages the Rust toolchain the native component builder
// compiles with. First-time install must succeed; keeping an existing
// toolchain current is best-effort.
package rustup

import (
	"os"
	"path/filepath"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// installerURL is the upstream rustup bootstrap script.
const installerURL = "https://sh.rustup.rs"

// Rustup manages the cargo toolchain under CARGO_HOME.
type Rustup struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	home   string
}

// New creates a Rustup manager. An empty home honors CARGO_HOME and falls
// back to ~/.cargo.
func New(runner ports.CommandRunner, fs ports.FileSystem, home string) *Rustup {
	if home == "" {
		if env := os.Getenv("CARGO_HOME"); env != "" {
			home = env
		} else {
			home = ports.ExpandPath("~/.cargo")
		}
	}
	return &Rustup{runner: runner, fs: fs, home: home}
}

// Home returns the cargo home directory.
func (r *Rustup) Home() string {
	return r.home
}

// cargoBin returns the cargo executable path.
func (r *Rustup) cargoBin() string {
	return filepath.Join(r.home, "bin", "cargo")
}

// rustupBin returns the rustup executable path.
func (r *Rustup) rustupBin() string {
	return filepath.Join(r.home, "bin", "rustup")
}

// Steps returns the install step followed by the best-effort update step.
func (r *Rustup) Steps() []pipeline.Step {
	return []pipeline.Step{
		NewInstallStep(r),
		NewUpdateStep(r),
	}
}

// ComposeEnv puts the cargo bin directory on PATH.
func (r *Rustup) ComposeEnv(env pipeline.Env) pipeline.Env {
	return env.
		With("PATH", "rustup", filepath.Join(r.home, "bin")).
		With("CARGO_HOME", "rustup", r.home)
}
