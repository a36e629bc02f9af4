// Package uv manages the project's Python environment: the manifest file,
// the virtual environment, and its pip configuration. All checks are
// existence checks; an existing environment is never rebuilt or rebound to
// a different interpreter.
package uv

import (
	"os"
	"path/filepath"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// installerURL is the upstream uv bootstrap script.
const installerURL = "https://astral.sh/uv/install.sh"

// Uv manages the environment under <root>/.venv.
type Uv struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	root   string
	python string
	uvBin  string
}

// New creates the environment manager for the given project root and
// interpreter version.
func New(runner ports.CommandRunner, fs ports.FileSystem, root, python string) *Uv {
	return &Uv{
		runner: runner,
		fs:     fs,
		root:   root,
		python: python,
		uvBin:  defaultUvBin(fs),
	}
}

// defaultUvBin locates an existing uv install, falling back to the
// standalone installer's target.
func defaultUvBin(fs ports.FileSystem) string {
	candidates := []string{
		ports.ExpandPath("~/.local/bin/uv"),
		ports.ExpandPath("~/.cargo/bin/uv"),
		"/usr/local/bin/uv",
	}
	for _, c := range candidates {
		if fs.Exists(c) {
			return c
		}
	}
	return candidates[0]
}

// VenvDir returns the virtual environment directory.
func (u *Uv) VenvDir() string {
	return filepath.Join(u.root, ".venv")
}

// VenvPython returns the environment's interpreter path.
func (u *Uv) VenvPython() string {
	return filepath.Join(u.VenvDir(), "bin", "python")
}

// VenvPip returns the environment's pip path.
func (u *Uv) VenvPip() string {
	return filepath.Join(u.VenvDir(), "bin", "pip")
}

// pyprojectPath returns the manifest file path.
func (u *Uv) pyprojectPath() string {
	return filepath.Join(u.root, "pyproject.toml")
}

// pipConfPath returns the environment-local pip configuration path.
func (u *Uv) pipConfPath() string {
	return filepath.Join(u.VenvDir(), "pip.conf")
}

// Steps returns the environment steps in dependency order: install uv,
// write the manifest, create the venv, write its pip configuration.
func (u *Uv) Steps() []pipeline.Step {
	return []pipeline.Step{
		NewInstallStep(u),
		NewPyprojectStep(u),
		NewVenvStep(u),
		NewPipConfStep(u),
	}
}

// ComposeEnv activates the environment for every later step: venv bin
// first on PATH plus the conventional activation variable.
func (u *Uv) ComposeEnv(env pipeline.Env) pipeline.Env {
	return env.
		With("PATH", "venv", filepath.Join(u.VenvDir(), "bin")).
		With("VIRTUAL_ENV", "venv", u.VenvDir())
}

// uvOnPath reports whether the resolved uv binary exists yet. Used by
// checks that must not shell out before the install step has run.
func (u *Uv) uvOnPath() bool {
	return u.fs.Exists(u.uvBin)
}

// homeEnviron renders the run environment for uv invocations.
func homeEnviron(ctx pipeline.RunContext) []string {
	return ctx.Env().Environ(os.Environ())
}
