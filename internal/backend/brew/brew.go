// Package brew implements the Homebrew provisioning backend.
package brew

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/QuillFuzz/QuillFuzz/internal/backend"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// installerURL is the upstream Homebrew bootstrap script.
const installerURL = "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh"

// formulae are the native dependencies installed through Homebrew.
var formulae = []string{
	"gcc",
	"cmake",
	"ninja",
	"pkg-config",
	"graphviz",
	"libxml2",
	"zlib",
	"ncurses",
}

// kegOnly are formulae Homebrew does not link into the prefix. Their
// include/lib/pkgconfig paths must be exported explicitly or the native
// build will not find them.
var kegOnly = []string{"libxml2", "zlib", "ncurses"}

// Brew is the Homebrew backend.
type Brew struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	prefix string
}

// New creates a Homebrew backend. An empty prefix picks the conventional
// location for the platform, preferring an existing install.
func New(runner ports.CommandRunner, fs ports.FileSystem, prefix string) *Brew {
	if prefix == "" {
		prefix = defaultPrefix(fs)
	}
	return &Brew{runner: runner, fs: fs, prefix: prefix}
}

// defaultPrefix probes the two conventional Homebrew roots.
func defaultPrefix(fs ports.FileSystem) string {
	candidates := []string{"/opt/homebrew", "/usr/local", "/home/linuxbrew/.linuxbrew"}
	for _, c := range candidates {
		if fs.Exists(filepath.Join(c, "bin", "brew")) {
			return c
		}
	}
	if runtime.GOOS == "linux" {
		return "/home/linuxbrew/.linuxbrew"
	}
	return "/opt/homebrew"
}

// Name returns the backend label.
func (b *Brew) Name() string {
	return "brew"
}

// Prefix returns the Homebrew root.
func (b *Brew) Prefix() string {
	return b.prefix
}

// brewBin returns the brew executable under the prefix.
func (b *Brew) brewBin() string {
	return filepath.Join(b.prefix, "bin", "brew")
}

// Detect reports whether the brew executable is present.
func (b *Brew) Detect(_ context.Context) (bool, error) {
	return b.fs.Exists(b.brewBin()), nil
}

// RuntimeSteps returns the Homebrew bootstrap step.
func (b *Brew) RuntimeSteps() []pipeline.Step {
	return []pipeline.Step{NewRuntimeStep(b)}
}

// NativeDepSteps returns one formula step per native dependency.
func (b *Brew) NativeDepSteps() []pipeline.Step {
	steps := make([]pipeline.Step, 0, len(formulae))
	for _, f := range formulae {
		steps = append(steps, NewFormulaStep(b, f))
	}
	return steps
}

// ComposeEnv appends the prefix paths plus explicit bindings for each
// keg-only formula, so the native build can resolve headers and libraries
// Homebrew deliberately leaves unlinked.
func (b *Brew) ComposeEnv(env pipeline.Env) pipeline.Env {
	env = env.
		With("PATH", "brew", filepath.Join(b.prefix, "bin")).
		With("CPATH", "brew", filepath.Join(b.prefix, "include")).
		With("LIBRARY_PATH", "brew", filepath.Join(b.prefix, "lib")).
		With("HOMEBREW_PREFIX", "brew", b.prefix)

	for _, keg := range kegOnly {
		opt := filepath.Join(b.prefix, "opt", keg)
		contributor := "brew:" + keg
		env = env.
			With("CPATH", contributor, filepath.Join(opt, "include")).
			With("LIBRARY_PATH", contributor, filepath.Join(opt, "lib")).
			With("PKG_CONFIG_PATH", contributor, filepath.Join(opt, "lib", "pkgconfig"))
	}
	return env
}

// Ensure Brew implements backend.Backend.
var _ backend.Backend = (*Brew)(nil)
