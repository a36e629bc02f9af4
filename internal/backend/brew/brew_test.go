package brew

import (
	"context"
	"strings"
	"testing"

	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
	"github.com/QuillFuzz/QuillFuzz/internal/testutil/mocks"
)

const prefix = "/opt/homebrew"

func newTestBackend() (*Brew, *mocks.CommandRunner, *mocks.FileSystem) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	return New(runner, fs, prefix), runner, fs
}

func installBrew(t *testing.T, fs *mocks.FileSystem) {
	t.Helper()
	if err := fs.WriteFile(prefix+"/bin/brew", []byte("#!/bin/bash"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestBrew_Detect(t *testing.T) {
	backend, _, fs := newTestBackend()

	if ok, _ := backend.Detect(context.Background()); ok {
		t.Error("Detect() = true without brew binary")
	}
	installBrew(t, fs)
	if ok, _ := backend.Detect(context.Background()); !ok {
		t.Error("Detect() = false with brew binary present")
	}
}

func TestDefaultPrefix_PrefersExistingInstall(t *testing.T) {
	fs := mocks.NewFileSystem()
	if err := fs.WriteFile("/usr/local/bin/brew", []byte("#!/bin/bash"), 0o755); err != nil {
		t.Fatal(err)
	}

	backend := New(mocks.NewCommandRunner(), fs, "")
	if backend.Prefix() != "/usr/local" {
		t.Errorf("Prefix() = %q, want existing install", backend.Prefix())
	}
}

func TestFormulaStep_CheckInstalled(t *testing.T) {
	backend, runner, fs := newTestBackend()
	installBrew(t, fs)
	runner.AddResult(prefix+"/bin/brew", []string{"list", "--formula"}, ports.CommandResult{
		ExitCode: 0,
		Stdout:   "cmake\ngraphviz\nninja\n",
	})

	status, err := NewFormulaStep(backend, "ninja").Check(pipeline.NewRunContext(context.Background()))
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if status != pipeline.StatusSatisfied {
		t.Errorf("Check() = %v, want satisfied", status)
	}
}

func TestFormulaStep_CheckMissing(t *testing.T) {
	backend, runner, fs := newTestBackend()
	installBrew(t, fs)
	runner.AddResult(prefix+"/bin/brew", []string{"list", "--formula"}, ports.CommandResult{
		ExitCode: 0,
		Stdout:   "cmake\n",
	})

	status, err := NewFormulaStep(backend, "zlib").Check(pipeline.NewRunContext(context.Background()))
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if status != pipeline.StatusNeedsApply {
		t.Errorf("Check() = %v, want needs_apply", status)
	}
}

func TestFormulaStep_CheckRejectsPrefixMatch(t *testing.T) {
	backend, runner, fs := newTestBackend()
	installBrew(t, fs)
	runner.AddResult(prefix+"/bin/brew", []string{"list", "--formula"}, ports.CommandResult{
		ExitCode: 0,
		Stdout:   "zlib-ng\n",
	})

	status, _ := NewFormulaStep(backend, "zlib").Check(pipeline.NewRunContext(context.Background()))
	if status != pipeline.StatusNeedsApply {
		t.Errorf("Check() = %v, want needs_apply for near-name formula", status)
	}
}

func TestFormulaStep_ApplyFailure(t *testing.T) {
	backend, runner, fs := newTestBackend()
	installBrew(t, fs)
	runner.AddResult(prefix+"/bin/brew", []string{"install", "gcc"},
		ports.CommandResult{ExitCode: 1, Stderr: "Error: no bottle available"})

	err := NewFormulaStep(backend, "gcc").Apply(pipeline.NewRunContext(context.Background()))
	if err == nil {
		t.Fatal("Apply() error = nil on failed install")
	}
	stepErr, ok := err.(*pipeline.StepError)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if stepErr.Code != pipeline.ErrCodeTool {
		t.Errorf("Code = %q, want %q", stepErr.Code, pipeline.ErrCodeTool)
	}
}

func TestBrew_ComposeEnvIncludesKegOnlyPaths(t *testing.T) {
	backend, _, _ := newTestBackend()

	env := backend.ComposeEnv(pipeline.NewEnv())

	cpath, _ := env.Value("CPATH")
	for _, keg := range kegOnly {
		if !strings.Contains(cpath, prefix+"/opt/"+keg+"/include") {
			t.Errorf("CPATH missing keg-only include for %s: %q", keg, cpath)
		}
	}
	pkgConfig, _ := env.Value("PKG_CONFIG_PATH")
	if !strings.Contains(pkgConfig, prefix+"/opt/zlib/lib/pkgconfig") {
		t.Errorf("PKG_CONFIG_PATH missing zlib: %q", pkgConfig)
	}
}

func TestBrew_NativeDepStepsDependOnRuntime(t *testing.T) {
	backend, _, _ := newTestBackend()

	steps := backend.NativeDepSteps()
	if len(steps) != len(formulae) {
		t.Fatalf("len(steps) = %d, want %d", len(steps), len(formulae))
	}
	for _, step := range steps {
		deps := step.DependsOn()
		if len(deps) != 1 || deps[0].String() != "brew:runtime" {
			t.Errorf("step %s deps = %v, want brew:runtime", step.ID(), deps)
		}
	}
}
