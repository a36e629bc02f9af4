// Package conda implements the conda-family provisioning backend on top of
// a Miniforge install.
package conda

import (
	"context"
	"os"
	"path/filepath"

	"github.com/QuillFuzz/QuillFuzz/internal/backend"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// installerURL resolves the platform installer at run time on the host.
const installerURL = "https://github.com/conda-forge/miniforge/releases/latest/download/Miniforge3-$(uname)-$(uname -m).sh"

// nativeDeps are the packages installed through conda-forge. The
// "compilers" metapackage carries the C/C++ toolchain.
var nativeDeps = []string{
	"compilers",
	"cmake",
	"ninja",
	"pkg-config",
	"graphviz",
	"libxml2",
	"zlib",
	"ncurses",
}

// Conda is the conda-family backend.
type Conda struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	prefix string
}

// New creates a conda backend rooted at the given install prefix. An empty
// prefix defaults to ~/miniforge3, honoring an active CONDA_PREFIX.
func New(runner ports.CommandRunner, fs ports.FileSystem, prefix string) *Conda {
	if prefix == "" {
		if env := os.Getenv("CONDA_PREFIX"); env != "" {
			prefix = env
		} else {
			prefix = ports.ExpandPath("~/miniforge3")
		}
	}
	return &Conda{runner: runner, fs: fs, prefix: prefix}
}

// Name returns the backend label.
func (c *Conda) Name() string {
	return "conda"
}

// Prefix returns the install root.
func (c *Conda) Prefix() string {
	return c.prefix
}

// condaBin returns the conda executable under the prefix.
func (c *Conda) condaBin() string {
	return filepath.Join(c.prefix, "bin", "conda")
}

// Detect reports whether the runtime is present under the prefix.
func (c *Conda) Detect(_ context.Context) (bool, error) {
	return c.fs.Exists(c.condaBin()), nil
}

// RuntimeSteps returns the Miniforge bootstrap step.
func (c *Conda) RuntimeSteps() []pipeline.Step {
	return []pipeline.Step{NewRuntimeStep(c)}
}

// NativeDepSteps returns one install step per native dependency, all
// depending on the runtime step.
func (c *Conda) NativeDepSteps() []pipeline.Step {
	steps := make([]pipeline.Step, 0, len(nativeDeps))
	for _, pkg := range nativeDeps {
		steps = append(steps, NewPackageStep(c, pkg))
	}
	return steps
}

// ComposeEnv appends the prefix search paths. Everything conda installs
// lands under one prefix, so a single contributor covers includes, libs,
// and pkg-config metadata.
func (c *Conda) ComposeEnv(env pipeline.Env) pipeline.Env {
	return env.
		With("PATH", "conda", filepath.Join(c.prefix, "bin")).
		With("CPATH", "conda", filepath.Join(c.prefix, "include")).
		With("LIBRARY_PATH", "conda", filepath.Join(c.prefix, "lib")).
		With("LD_LIBRARY_PATH", "conda", filepath.Join(c.prefix, "lib")).
		With("PKG_CONFIG_PATH", "conda", filepath.Join(c.prefix, "lib", "pkgconfig")).
		With("CONDA_PREFIX", "conda", c.prefix)
}

// Ensure Conda implements backend.Backend.
var _ backend.Backend = (*Conda)(nil)
