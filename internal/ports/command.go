// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
)

// CommandResult represents the result of executing a shell command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// Invocation describes a command together with its execution environment.
// Dir and Env are optional; an empty Dir runs in the orchestrator's working
// directory and a nil Env inherits the process environment.
type Invocation struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
}

// CommandCall records a command invocation for inspection in tests.
type CommandCall struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	// Run executes a command with inherited environment and working directory.
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)

	// RunWith executes a command with an explicit directory and environment.
	RunWith(ctx context.Context, inv Invocation) (CommandResult, error)
}
