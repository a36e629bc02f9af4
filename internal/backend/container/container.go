// Package container implements the container-baked backend. The image is
// expected to carry the full native toolchain already, so provisioning
// reduces to verification: missing tools are a precondition failure, never
// an install.
package container

import (
	"context"
	"os"
	"path/filepath"

	"github.com/QuillFuzz/QuillFuzz/internal/backend"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// EnvMarker forces container detection regardless of the filesystem probe.
const EnvMarker = "QF_CONTAINER"

// bakedTools are the executables the image must carry.
var bakedTools = []string{
	"cc",
	"cmake",
	"ninja",
	"pkg-config",
	"dot",
}

// Container is the container-baked backend.
type Container struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	prefix string
}

// New creates a container backend. The prefix is where the image bakes its
// toolchain; empty defaults to /usr/local.
func New(runner ports.CommandRunner, fs ports.FileSystem, prefix string) *Container {
	if prefix == "" {
		prefix = "/usr/local"
	}
	return &Container{runner: runner, fs: fs, prefix: prefix}
}

// Name returns the backend label.
func (c *Container) Name() string {
	return "container"
}

// Detect reports whether the process runs inside a container, via the
// Docker sentinel file or the explicit environment marker.
func (c *Container) Detect(_ context.Context) (bool, error) {
	if os.Getenv(EnvMarker) == "1" {
		return true, nil
	}
	return c.fs.Exists("/.dockerenv"), nil
}

// RuntimeSteps returns nothing: the runtime is the image itself.
func (c *Container) RuntimeSteps() []pipeline.Step {
	return nil
}

// NativeDepSteps returns one verification step per baked tool.
func (c *Container) NativeDepSteps() []pipeline.Step {
	steps := make([]pipeline.Step, 0, len(bakedTools))
	for _, tool := range bakedTools {
		steps = append(steps, NewVerifyStep(c, tool))
	}
	return steps
}

// ComposeEnv appends the baked prefix search paths.
func (c *Container) ComposeEnv(env pipeline.Env) pipeline.Env {
	return env.
		With("PATH", "container", filepath.Join(c.prefix, "bin")).
		With("CPATH", "container", filepath.Join(c.prefix, "include")).
		With("LIBRARY_PATH", "container", filepath.Join(c.prefix, "lib")).
		With("LD_LIBRARY_PATH", "container", filepath.Join(c.prefix, "lib")).
		With("PKG_CONFIG_PATH", "container", filepath.Join(c.prefix, "lib", "pkgconfig"))
}

// Ensure Container implements backend.Backend.
var _ backend.Backend = (*Container)(nil)
