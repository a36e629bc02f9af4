package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
)

// fakeBackend is a scriptable backend for selection tests.
type fakeBackend struct {
	name      string
	detected  bool
	detectErr error
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Detect(_ context.Context) (bool, error) {
	return f.detected, f.detectErr
}

func (f *fakeBackend) RuntimeSteps() []pipeline.Step   { return nil }
func (f *fakeBackend) NativeDepSteps() []pipeline.Step { return nil }

func (f *fakeBackend) ComposeEnv(env pipeline.Env) pipeline.Env { return env }

func TestSelect_ExplicitName(t *testing.T) {
	candidates := []Backend{
		&fakeBackend{name: "container"},
		&fakeBackend{name: "brew"},
		&fakeBackend{name: "conda"},
	}

	got, err := Select(context.Background(), "brew", candidates)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got.Name() != "brew" {
		t.Errorf("Name() = %q, want brew", got.Name())
	}
}

func TestSelect_ExplicitUnknownName(t *testing.T) {
	candidates := []Backend{&fakeBackend{name: "conda"}}

	if _, err := Select(context.Background(), "nix", candidates); err == nil {
		t.Error("Select() error = nil for unknown name, want error")
	}
}

func TestSelect_AutoPicksFirstDetected(t *testing.T) {
	candidates := []Backend{
		&fakeBackend{name: "container", detected: false},
		&fakeBackend{name: "brew", detected: true},
		&fakeBackend{name: "conda", detected: true},
	}

	got, err := Select(context.Background(), "auto", candidates)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got.Name() != "brew" {
		t.Errorf("Name() = %q, want first detected backend", got.Name())
	}
}

func TestSelect_AutoFallsBackToLastCandidate(t *testing.T) {
	candidates := []Backend{
		&fakeBackend{name: "container"},
		&fakeBackend{name: "brew"},
		&fakeBackend{name: "conda"},
	}

	got, err := Select(context.Background(), "auto", candidates)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got.Name() != "conda" {
		t.Errorf("Name() = %q, want last candidate as fallback", got.Name())
	}
}

func TestSelect_AutoProbeErrorStopsSelection(t *testing.T) {
	candidates := []Backend{
		&fakeBackend{name: "container", detectErr: errors.New("probe failed")},
		&fakeBackend{name: "conda", detected: true},
	}

	if _, err := Select(context.Background(), "auto", candidates); err == nil {
		t.Error("Select() error = nil on probe failure, want error")
	}
}

func TestSelect_NoCandidates(t *testing.T) {
	if _, err := Select(context.Background(), "auto", nil); err == nil {
		t.Error("Select() error = nil with no candidates, want error")
	}
}
