package rustup

import (
	"context"
	"errors"
	"testing"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
	"github.com/QuillFuzz/QuillFuzz/internal/testutil/mocks"
)

const home = "/root/.cargo"

func newTestManager() (*Rustup, *mocks.CommandRunner, *mocks.FileSystem) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	return New(runner, fs, home), runner, fs
}

func TestInstallStep_SatisfiedWhenCargoPresent(t *testing.T) {
	manager, _, fs := newTestManager()
	if err := fs.WriteFile(home+"/bin/cargo", []byte("bin"), 0o755); err != nil {
		t.Fatal(err)
	}

	status, err := NewInstallStep(manager).Check(pipeline.NewRunContext(context.Background()))
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if status != pipeline.StatusSatisfied {
		t.Errorf("Check() = %v, want satisfied", status)
	}
}

func TestInstallStep_NeedsApplyWhenMissing(t *testing.T) {
	manager, _, _ := newTestManager()

	status, _ := NewInstallStep(manager).Check(pipeline.NewRunContext(context.Background()))
	if status != pipeline.StatusNeedsApply {
		t.Errorf("Check() = %v, want needs_apply", status)
	}
}

func TestInstallStep_IsFatal(t *testing.T) {
	if pipeline.IsBestEffort(NewInstallStep(nil)) {
		t.Error("install step reported best-effort, must be fatal")
	}
}

func TestUpdateStep_IsBestEffort(t *testing.T) {
	if !pipeline.IsBestEffort(NewUpdateStep(nil)) {
		t.Error("update step not best-effort")
	}
}

func TestUpdateStep_AlwaysRuns(t *testing.T) {
	manager, _, fs := newTestManager()
	if err := fs.WriteFile(home+"/bin/cargo", []byte("bin"), 0o755); err != nil {
		t.Fatal(err)
	}

	status, _ := NewUpdateStep(manager).Check(pipeline.NewRunContext(context.Background()))
	if status != pipeline.StatusNeedsApply {
		t.Errorf("Check() = %v, want needs_apply on every run", status)
	}
}

func TestUpdateStep_ApplyFailureSurfacesToolError(t *testing.T) {
	manager, runner, _ := newTestManager()
	runner.AddResult(home+"/bin/rustup", []string{"update"},
		ports.CommandResult{ExitCode: 1, Stderr: "could not download channel manifest"})

	err := NewUpdateStep(manager).Apply(pipeline.NewRunContext(context.Background()))
	if err == nil {
		t.Fatal("Apply() error = nil, want tool error")
	}
	var stepErr *pipeline.StepError
	if !errors.As(err, &stepErr) || stepErr.Code != pipeline.ErrCodeTool {
		t.Errorf("error = %v, want TOOL_FAILED", err)
	}
}

func TestRustup_ComposeEnv(t *testing.T) {
	manager, _, _ := newTestManager()

	env := manager.ComposeEnv(pipeline.NewEnv())
	path, _ := env.Value("PATH")
	if path != home+"/bin" {
		t.Errorf("PATH = %q", path)
	}
	cargoHome, _ := env.Value("CARGO_HOME")
	if cargoHome != home {
		t.Errorf("CARGO_HOME = %q", cargoHome)
	}
}

func TestRustup_StepOrder(t *testing.T) {
	manager, _, _ := newTestManager()

	steps := manager.Steps()
	if len(steps) != 2 {
		t.Fatalf("len(steps) = %d, want 2", len(steps))
	}
	if steps[0].ID().String() != "rustup:install" || steps[1].ID().String() != "rustup:update" {
		t.Errorf("step order = %v, %v", steps[0].ID(), steps[1].ID())
	}
	deps := steps[1].DependsOn()
	if len(deps) != 1 || deps[0].String() != "rustup:install" {
		t.Errorf("update deps = %v, want rustup:install", deps)
	}
}
