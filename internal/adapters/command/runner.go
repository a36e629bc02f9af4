// Package command provides command execution adapters.
package command

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// RealRunner executes actual shell commands.
type RealRunner struct{}

// NewRealRunner creates a new RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// Run executes a command and returns the result.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return r.RunWith(ctx, ports.Invocation{Command: command, Args: args})
}

// RunWith executes a command with an explicit directory and environment.
// A bare command name is resolved against the PATH carried by the
// invocation's environment, not the orchestrator's own.
func (r *RealRunner) RunWith(ctx context.Context, inv ports.Invocation) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, resolveCommand(inv), inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = inv.Env

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ports.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// resolveCommand finds the executable for an invocation. exec looks bare
// names up in the parent process's PATH, which knows nothing about
// directories the provisioning steps just created (a freshly installed
// ~/.cargo/bin, a venv's bin). When the invocation carries its own
// environment, its PATH wins; if nothing matches there, the bare name
// falls through to the normal lookup.
func resolveCommand(inv ports.Invocation) string {
	if len(inv.Env) == 0 || strings.ContainsRune(inv.Command, os.PathSeparator) {
		return inv.Command
	}
	var searchPath string
	for _, kv := range inv.Env {
		if v, ok := strings.CutPrefix(kv, "PATH="); ok {
			searchPath = v
		}
	}
	for _, dir := range filepath.SplitList(searchPath) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, inv.Command)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return candidate
		}
	}
	return inv.Command
}

// IsCommandNotFound reports whether an error indicates a missing executable.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	return errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound)
}

// Ensure RealRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*RealRunner)(nil)
