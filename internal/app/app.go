// Package app wires the backends, providers, and execution engine into
// the two entry points the CLI exposes: provisioning and campaigns.
package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/QuillFuzz/QuillFuzz/internal/backend"
	"github.com/QuillFuzz/QuillFuzz/internal/backend/brew"
	"github.com/QuillFuzz/QuillFuzz/internal/backend/conda"
	"github.com/QuillFuzz/QuillFuzz/internal/backend/container"
	"github.com/QuillFuzz/QuillFuzz/internal/campaign"
	"github.com/QuillFuzz/QuillFuzz/internal/config"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/execution"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/provider/ci"
	"github.com/QuillFuzz/QuillFuzz/internal/provider/cleanup"
	"github.com/QuillFuzz/QuillFuzz/internal/provider/native"
	"github.com/QuillFuzz/QuillFuzz/internal/provider/pip"
	"github.com/QuillFuzz/QuillFuzz/internal/provider/rustup"
	"github.com/QuillFuzz/QuillFuzz/internal/provider/uv"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// App holds the orchestrator's wiring.
type App struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	logger ports.Logger
	cfg    *config.Config
	root   string
	out    io.Writer
}

// New creates the application.
func New(runner ports.CommandRunner, fs ports.FileSystem, logger ports.Logger, cfg *config.Config, root string, out io.Writer) *App {
	return &App{runner: runner, fs: fs, logger: logger, cfg: cfg, root: root, out: out}
}

// candidates returns the backends in probe order. Container and Homebrew
// are detect-only from the selector's point of view; conda sits last
// because it is the one backend the orchestrator can always bootstrap.
func (a *App) candidates() []backend.Backend {
	return []backend.Backend{
		container.New(a.runner, a.fs, ""),
		brew.New(a.runner, a.fs, ""),
		conda.New(a.runner, a.fs, ""),
	}
}

// backendCacheCommand returns the selected backend's own cache-pruning
// command, if it has one.
func backendCacheCommand(b backend.Backend) []string {
	switch b.Name() {
	case config.BackendConda:
		return []string{"conda", "clean", "-a", "-y"}
	case config.BackendBrew:
		return []string{"brew", "cleanup", "-s"}
	default:
		return nil
	}
}

// Provision runs the full provisioning pipeline: backend runtime, native
// dependencies, Rust toolchain, project environment, native component,
// package manifest, CI export, cache reclaim. With dryRun the plan is
// printed and nothing is applied.
func (a *App) Provision(ctx context.Context, backendName string, dryRun bool) error {
	if backendName == "" {
		backendName = a.cfg.Backend
	}
	selected, err := backend.Select(ctx, backendName, a.candidates())
	if err != nil {
		return err
	}
	a.logger.Info(ctx, "selected backend", ports.F("backend", selected.Name()))

	uvManager := uv.New(a.runner, a.fs, a.root, a.cfg.Python)
	rustupManager := rustup.New(a.runner, a.fs, "")
	builder := native.NewBuilder(a.runner, a.fs, a.cfg.Native, a.root)
	installer := pip.NewInstaller(a.runner, a.fs, uvManager.VenvPip(), a.cfg.Packages)
	exporter := ci.NewExporter(a.fs)
	reclaimer := cleanup.NewReclaimer(a.runner, a.fs)

	env := pipeline.NewEnv().With("QF_ROOT", "config", a.root)
	env = selected.ComposeEnv(env)
	env = rustupManager.ComposeEnv(env)
	env = uvManager.ComposeEnv(env)
	env = builder.ComposeEnv(env)

	var steps []pipeline.Step
	steps = append(steps, selected.RuntimeSteps()...)
	steps = append(steps, selected.NativeDepSteps()...)
	steps = append(steps, rustupManager.Steps()...)
	steps = append(steps, uvManager.Steps()...)
	steps = append(steps, builder.Steps(uvManager.VenvPip())...)
	steps = append(steps, installer.Steps()...)
	steps = append(steps, exporter.Steps()...)
	steps = append(steps, reclaimer.Steps(backendCacheCommand(selected))...)

	state := pipeline.NewFileStore(a.fs, filepath.Join(a.root, ".quillfuzz", "state.yaml"))
	runCtx := pipeline.NewRunContext(ctx).
		WithEnv(env).
		WithState(state).
		WithDryRun(dryRun)

	plan, err := execution.NewPlanner().Plan(runCtx, steps)
	if err != nil {
		return err
	}
	a.printPlan(plan)
	if dryRun {
		return nil
	}

	results, err := execution.NewExecutor(a.logger).Execute(runCtx, plan)
	a.printResults(results)
	return err
}

// Campaign runs one fuzzing campaign and returns the process exit code.
func (a *App) Campaign(ctx context.Context, configPath, backendLabel string) (int, error) {
	if backendLabel == "" {
		backendLabel = a.cfg.Backend
	}
	if backendLabel == config.BackendAuto {
		selected, err := backend.Select(ctx, config.BackendAuto, a.candidates())
		if err != nil {
			return 1, err
		}
		backendLabel = selected.Name()
	}

	uvManager := uv.New(a.runner, a.fs, a.root, a.cfg.Python)
	builder := native.NewBuilder(a.runner, a.fs, a.cfg.Native, a.root)

	env := pipeline.NewEnv().With("QF_ROOT", "config", a.root)
	env = uvManager.ComposeEnv(env)
	env = builder.ComposeEnv(env)

	runner := campaign.NewRunner(a.runner, a.fs, a.logger, a.cfg, a.root, a.out)
	return runner.Run(ctx, env, configPath, backendLabel)
}

// printPlan writes a one-line-per-step summary.
func (a *App) printPlan(plan *execution.Plan) {
	summary := plan.Summary()
	fmt.Fprintf(a.out, "Plan: %d steps, %d to apply, %d satisfied\n",
		summary.Total, summary.NeedsApply, summary.Satisfied)
	for _, entry := range plan.Entries() {
		fmt.Fprintf(a.out, "  %-28s %s\n", entry.Step().ID(), entry.Status())
	}
}

// printResults writes the outcome per step and the totals.
func (a *App) printResults(results []execution.StepResult) {
	var applied, skipped, tolerated, failed int
	for _, r := range results {
		switch r.Status() {
		case pipeline.StatusFailed:
			failed++
			fmt.Fprintf(a.out, "  %-28s FAILED: %v\n", r.StepID(), r.Error())
		case pipeline.StatusSkipped:
			skipped++
		case pipeline.StatusTolerated:
			tolerated++
			fmt.Fprintf(a.out, "  %-28s tolerated: %v\n", r.StepID(), r.Error())
		default:
			applied++
		}
	}
	fmt.Fprintf(a.out, "Done: %d ok, %d tolerated, %d skipped, %d failed\n",
		applied, tolerated, skipped, failed)
}
