package mocks

import (
	"context"
	"errors"
	"testing"

	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

func TestCommandRunner_RegisteredResult(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("git", []string{"clone", "repo"}, ports.CommandResult{ExitCode: 0, Stdout: "done"})

	result, err := runner.Run(context.Background(), "git", "clone", "repo")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Stdout != "done" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
}

func TestCommandRunner_RegisteredError(t *testing.T) {
	runner := NewCommandRunner()
	wantErr := errors.New("boom")
	runner.AddError("cargo", []string{"build"}, wantErr)

	_, err := runner.Run(context.Background(), "cargo", "build")
	if !errors.Is(err, wantErr) {
		t.Errorf("Run() error = %v, want %v", err, wantErr)
	}
}

func TestCommandRunner_UnregisteredCommandErrors(t *testing.T) {
	runner := NewCommandRunner()

	if _, err := runner.Run(context.Background(), "unknown"); err == nil {
		t.Error("Run() error = nil for unregistered command")
	}
}

func TestCommandRunner_RecordsDirAndEnv(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("cargo", []string{"build"}, ports.CommandResult{})

	_, _ = runner.RunWith(context.Background(), ports.Invocation{
		Command: "cargo",
		Args:    []string{"build"},
		Dir:     "/work/build",
		Env:     []string{"PATH=/opt/bin"},
	})

	calls := runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("len(calls) = %d", len(calls))
	}
	if calls[0].Dir != "/work/build" {
		t.Errorf("Dir = %q", calls[0].Dir)
	}
	if len(calls[0].Env) != 1 || calls[0].Env[0] != "PATH=/opt/bin" {
		t.Errorf("Env = %v", calls[0].Env)
	}
}

func TestCommandRunner_Reset(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("ls", nil, ports.CommandResult{})
	_, _ = runner.Run(context.Background(), "ls")

	runner.Reset()
	if len(runner.Calls()) != 0 {
		t.Error("calls survived Reset")
	}
	if _, err := runner.Run(context.Background(), "ls"); err == nil {
		t.Error("results survived Reset")
	}
}
