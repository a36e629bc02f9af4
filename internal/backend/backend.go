// Package backend defines the provisioning backend capability set and
// selection. The three variants (conda-family, Homebrew, container-baked)
// are interchangeable: each can detect its runtime, produce the steps that
// install the runtime and the native dependencies, and compose the
// environment descriptor the rest of the pipeline runs under.
package backend

import (
	"context"
	"fmt"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
)

// Backend is one provisioning strategy. The environment descriptor it
// composes is never mixed with another backend's within a run.
type Backend interface {
	// Name returns the backend label used in step IDs and run names.
	Name() string

	// Detect reports whether the backend's runtime is usable on this host.
	Detect(ctx context.Context) (bool, error)

	// RuntimeSteps returns the steps that bootstrap the backend runtime.
	// The steps are idempotent: present runtimes are left alone.
	RuntimeSteps() []pipeline.Step

	// NativeDepSteps returns the steps that install the compiler, build
	// tools, and native libraries through the backend.
	NativeDepSteps() []pipeline.Step

	// ComposeEnv appends this backend's environment bindings (search
	// paths, PATH extensions) to the descriptor.
	ComposeEnv(env pipeline.Env) pipeline.Env
}

// Select resolves a backend by name, or probes the candidates in order
// when name is "auto". Probe order is the caller's candidate order.
func Select(ctx context.Context, name string, candidates []Backend) (Backend, error) {
	if name != "auto" {
		for _, b := range candidates {
			if b.Name() == name {
				return b, nil
			}
		}
		return nil, fmt.Errorf("unknown backend %q", name)
	}

	for _, b := range candidates {
		ok, err := b.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("probing backend %s: %w", b.Name(), err)
		}
		if ok {
			return b, nil
		}
	}

	// Nothing detected: fall back to the last candidate. Callers order
	// candidates probe-first, self-installable last.
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no backend candidates")
	}
	return candidates[len(candidates)-1], nil
}
