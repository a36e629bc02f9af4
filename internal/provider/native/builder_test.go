package native

import (
	"context"
	"errors"
	"testing"

	"github.com/QuillFuzz/QuillFuzz/internal/adapters/logging"
	"github.com/QuillFuzz/QuillFuzz/internal/config"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/execution"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
	"github.com/QuillFuzz/QuillFuzz/internal/testutil/mocks"
)

const (
	root    = "/work"
	venvPip = "/work/.venv/bin/pip"
)

func testConfig() config.NativeConfig {
	return config.NativeConfig{
		Repo:    "https://github.com/qir-alliance/qir-runner",
		Binary:  "qir-runner",
		Wrapper: "qirrunner",
	}
}

func newTestBuilder() (*Builder, *mocks.CommandRunner, *mocks.FileSystem) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	return NewBuilder(runner, fs, testConfig(), root), runner, fs
}

func ok() ports.CommandResult { return ports.CommandResult{ExitCode: 0} }

// scriptHappyPath registers every external command the full lifecycle
// invokes, with the artifact appearing when the build runs.
func scriptHappyPath(runner *mocks.CommandRunner, fs *mocks.FileSystem, b *Builder) {
	runner.AddResult("git",
		[]string{"clone", "--depth", "1", b.cfg.Repo, b.CloneDir()}, ok())
	runner.AddResult("cargo", []string{"build", "--release"}, ok())
	runner.AddResult(venvPip, []string{"install", "qirrunner"}, ok())

	// The mock runner cannot produce files, so pre-place what the real
	// commands would create.
	_ = fs.WriteFile(b.CloneDir()+"/.git", []byte("gitdir"), 0o644)
	_ = fs.WriteFile(b.ArtifactPath(), []byte("ELF"), 0o755)
}

func runSteps(t *testing.T, steps []pipeline.Step, ctx pipeline.RunContext) ([]execution.StepResult, error) {
	t.Helper()
	plan, err := execution.NewPlanner().Plan(ctx, steps)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	return execution.NewExecutor(logging.NewNopLogger()).Execute(ctx, plan)
}

// effectRunner wraps the mock runner and mirrors the file side effects of
// the commands it runs, so a lifecycle can start from an empty filesystem.
type effectRunner struct {
	inner   *mocks.CommandRunner
	fs      *mocks.FileSystem
	effects map[string]func(*mocks.FileSystem)
}

func (r *effectRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return r.RunWith(ctx, ports.Invocation{Command: command, Args: args})
}

func (r *effectRunner) RunWith(ctx context.Context, inv ports.Invocation) (ports.CommandResult, error) {
	result, err := r.inner.RunWith(ctx, inv)
	if err == nil && result.Success() {
		if effect, ok := r.effects[inv.Command]; ok {
			effect(r.fs)
		}
	}
	return result, err
}

func TestBuilder_FreshHostRunCleansSourceTree(t *testing.T) {
	// Nothing pre-placed: the commands themselves create the checkout and
	// the artifact. On such a host the planner sees nothing to clean, yet
	// the finished run must still leave no source tree behind.
	inner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	er := &effectRunner{inner: inner, fs: fs}
	builder := NewBuilder(er, fs, testConfig(), root)

	inner.AddResult("git",
		[]string{"clone", "--depth", "1", builder.cfg.Repo, builder.CloneDir()}, ok())
	inner.AddResult("cargo", []string{"build", "--release"}, ok())
	inner.AddResult(venvPip, []string{"install", "qirrunner"}, ok())
	er.effects = map[string]func(*mocks.FileSystem){
		"git": func(fs *mocks.FileSystem) {
			_ = fs.WriteFile(builder.CloneDir()+"/.git", []byte("gitdir"), 0o644)
		},
		"cargo": func(fs *mocks.FileSystem) {
			_ = fs.WriteFile(builder.ArtifactPath(), []byte("ELF"), 0o755)
		},
	}

	ctx := pipeline.NewRunContext(context.Background())
	results, err := runSteps(t, builder.Steps(venvPip), ctx)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !fs.Exists(builder.InstalledPath()) {
		t.Error("rescued binary missing from install dir")
	}
	if fs.Exists(builder.CloneDir()) {
		t.Error("source tree survived a fresh-host run")
	}
	byID := resultMap(results)
	if byID["native:clean"] != pipeline.StatusSatisfied {
		t.Errorf("clean status = %v, want satisfied after apply", byID["native:clean"])
	}
}

func TestBuilder_FullLifecycle(t *testing.T) {
	builder, runner, fs := newTestBuilder()
	ctx := pipeline.NewRunContext(context.Background())
	_ = ctx.State().MarkApplied(pipeline.MustNewStepID("native:clone"))
	scriptHappyPath(runner, fs, builder)

	results, err := runSteps(t, builder.Steps(venvPip), ctx)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !fs.Exists(builder.InstalledPath()) {
		t.Error("rescued binary missing from install dir")
	}
	if fs.Exists(builder.CloneDir() + "/.git") {
		t.Error("source tree survived cleanup")
	}
	for _, r := range results {
		if r.Status() == pipeline.StatusFailed {
			t.Errorf("step %s failed: %v", r.StepID(), r.Error())
		}
	}
}

func TestBuilder_BuildFailureSkipsRescueAndClean(t *testing.T) {
	builder, runner, fs := newTestBuilder()
	ctx := pipeline.NewRunContext(context.Background())
	_ = ctx.State().MarkApplied(pipeline.MustNewStepID("native:clone"))
	_ = fs.WriteFile(builder.CloneDir()+"/.git", []byte("gitdir"), 0o644)
	runner.AddResult("cargo", []string{"build", "--release"},
		ports.CommandResult{ExitCode: 101, Stderr: "error[E0432]"})

	results, err := runSteps(t, builder.Steps(venvPip), ctx)
	if err == nil {
		t.Fatal("Execute() error = nil, want build failure")
	}

	// The tree must survive: cleanup is unreachable after a failed build.
	if !fs.Exists(builder.CloneDir() + "/.git") {
		t.Error("source tree deleted after failed build")
	}
	byID := resultMap(results)
	if byID["native:rescue"] != pipeline.StatusSkipped {
		t.Errorf("rescue status = %v, want skipped", byID["native:rescue"])
	}
	if byID["native:clean"] != pipeline.StatusSkipped {
		t.Errorf("clean status = %v, want skipped", byID["native:clean"])
	}
}

func TestBuilder_MissingArtifactIsDistinctError(t *testing.T) {
	builder, runner, fs := newTestBuilder()
	ctx := pipeline.NewRunContext(context.Background())
	_ = ctx.State().MarkApplied(pipeline.MustNewStepID("native:clone"))
	_ = fs.WriteFile(builder.CloneDir()+"/.git", []byte("gitdir"), 0o644)
	// Build exits zero but leaves no binary behind.
	runner.AddResult("cargo", []string{"build", "--release"}, ok())

	_, err := runSteps(t, builder.Steps(venvPip), ctx)
	if err == nil {
		t.Fatal("Execute() error = nil, want artifact-missing failure")
	}

	var stepErr *pipeline.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error type = %T", err)
	}
	if stepErr.Code != pipeline.ErrCodeArtifactMissing {
		t.Errorf("Code = %q, want %q", stepErr.Code, pipeline.ErrCodeArtifactMissing)
	}
	if fs.Exists(builder.CloneDir()+"/.git") == false {
		t.Error("source tree deleted despite missing artifact")
	}
}

func TestBuilder_SecondRunIsNoOp(t *testing.T) {
	builder, runner, fs := newTestBuilder()
	// Completed earlier run: binary installed, tree already cleaned.
	_ = fs.WriteFile(builder.InstalledPath(), []byte("ELF"), 0o755)
	_ = fs.WriteFile(venvPip, []byte("#!/bin/sh"), 0o755)
	runner.AddResult(venvPip, []string{"show", "qirrunner"}, ok())

	ctx := pipeline.NewRunContext(context.Background())
	plan, err := execution.NewPlanner().Plan(ctx, builder.Steps(venvPip))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if plan.HasChanges() {
		for _, e := range plan.Entries() {
			if e.Status() == pipeline.StatusNeedsApply {
				t.Errorf("step %s needs apply on second run", e.Step().ID())
			}
		}
	}
}

func TestCloneStep_PartialCheckoutRecloned(t *testing.T) {
	builder, _, fs := newTestBuilder()
	// Checkout directory exists but the state store has no record: the
	// previous clone was interrupted.
	_ = fs.WriteFile(builder.CloneDir()+"/.git", []byte("gitdir"), 0o644)

	status, err := NewCloneStep(builder).Check(pipeline.NewRunContext(context.Background()))
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if status != pipeline.StatusNeedsApply {
		t.Errorf("Check() = %v, want needs_apply for unrecorded checkout", status)
	}
}

func TestCleanStep_RefusesWithoutRescuedBinary(t *testing.T) {
	builder, _, fs := newTestBuilder()
	_ = fs.WriteFile(builder.CloneDir()+"/.git", []byte("gitdir"), 0o644)

	err := NewCleanStep(builder).Apply(pipeline.NewRunContext(context.Background()))
	if err == nil {
		t.Fatal("Apply() error = nil, want refusal")
	}
	var stepErr *pipeline.StepError
	if !errors.As(err, &stepErr) || stepErr.Code != pipeline.ErrCodePrecondition {
		t.Errorf("error = %v, want precondition failure", err)
	}
	if !fs.Exists(builder.CloneDir() + "/.git") {
		t.Error("tree deleted despite refusal")
	}
}

func TestBuilder_Paths(t *testing.T) {
	builder, _, _ := newTestBuilder()

	if builder.CloneDir() != root+"/build/qir-runner" {
		t.Errorf("CloneDir() = %q", builder.CloneDir())
	}
	if builder.ArtifactPath() != root+"/build/qir-runner/target/release/qir-runner" {
		t.Errorf("ArtifactPath() = %q", builder.ArtifactPath())
	}
	if builder.InstalledPath() != root+"/bin/qir-runner" {
		t.Errorf("InstalledPath() = %q", builder.InstalledPath())
	}
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		repo string
		want string
	}{
		{"https://github.com/qir-alliance/qir-runner", "qir-runner"},
		{"https://github.com/CQCL/guppylang.git", "guppylang"},
		{"qir-runner", "qir-runner"},
	}
	for _, tt := range tests {
		if got := repoName(tt.repo); got != tt.want {
			t.Errorf("repoName(%q) = %q, want %q", tt.repo, got, tt.want)
		}
	}
}

func resultMap(results []execution.StepResult) map[string]pipeline.StepStatus {
	out := make(map[string]pipeline.StepStatus, len(results))
	for _, r := range results {
		out[r.StepID().String()] = r.Status()
	}
	return out
}
