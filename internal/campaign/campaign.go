// Package campaign drives one fuzzing campaign over an already
// provisioned environment: it invokes the external circuit generator,
// gates on the assembled artifact directory, then hands that directory to
// the external tester. Generator and tester are opaque programs; their
// only contract is exit status and the files they leave behind.
package campaign

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/QuillFuzz/QuillFuzz/internal/config"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// EnvRunDir overrides the generated run directory location.
const EnvRunDir = "QF_RUN_DIR"

// savedCircuitsDir is the fixed parent of every run directory.
const savedCircuitsDir = "local_saved_circuits"

// Runner executes campaigns.
type Runner struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	logger ports.Logger
	cfg    *config.Config
	root   string
	out    io.Writer

	// now and lookupEnv are swappable for tests.
	now       func() time.Time
	lookupEnv func(string) (string, bool)
}

// NewRunner creates a campaign runner rooted at the project root.
func NewRunner(runner ports.CommandRunner, fs ports.FileSystem, logger ports.Logger, cfg *config.Config, root string, out io.Writer) *Runner {
	return &Runner{
		runner:    runner,
		fs:        fs,
		logger:    logger,
		cfg:       cfg,
		root:      root,
		out:       out,
		now:       time.Now,
		lookupEnv: os.LookupEnv,
	}
}

// RunName generates the unique campaign name embedding the backend label
// and a second-resolution timestamp.
func (r *Runner) RunName(backendLabel string) string {
	return fmt.Sprintf("Complete_run_%s_%s", backendLabel, r.now().Format("20060102_150405"))
}

// runDir resolves the campaign's output directory, honoring the override
// variable.
func (r *Runner) runDir(runName string) string {
	if dir, ok := r.lookupEnv(EnvRunDir); ok && dir != "" {
		return dir
	}
	return filepath.Join(r.root, savedCircuitsDir, runName)
}

// venvPython returns the project environment's interpreter.
func (r *Runner) venvPython() string {
	return filepath.Join(r.root, ".venv", "bin", "python")
}

// loadDotenv folds <root>/.env into the descriptor without overriding
// variables already present in the process environment. The generator
// reads its API key from here; a missing or unreadable file is fine, the
// generator fails on its own if the key it needs never arrives.
func (r *Runner) loadDotenv(env pipeline.Env) pipeline.Env {
	path := filepath.Join(r.root, ".env")
	data, err := r.fs.ReadFile(path)
	if err != nil {
		return env
	}
	values, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		r.logger.Warn(context.Background(), "ignoring malformed .env",
			ports.F("path", path), ports.F("error", err))
		return env
	}
	for key, value := range values {
		if _, exists := r.lookupEnv(key); !exists {
			env = env.With(key, "dotenv", value)
		}
	}
	return env
}

// Run executes one campaign: generate, gate on the assembled directory,
// test. It returns the process exit code. The assembled-directory gate is
// explicit: testing an empty run would report a misleading success or
// crash confusingly downstream, so a missing directory terminates the
// campaign before the tester is ever invoked.
func (r *Runner) Run(ctx context.Context, env pipeline.Env, configPath, backendLabel string) (int, error) {
	env = r.loadDotenv(env)
	environ := env.Environ(os.Environ())

	runName := r.RunName(backendLabel)
	dir := r.runDir(runName)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return 1, fmt.Errorf("creating run directory: %w", err)
	}

	r.logger.Info(ctx, "starting campaign",
		ports.F("run", runName), ports.F("dir", dir))

	// The generator composes its own run directory as
	// <output_dir>/<run_name>, so the resolved dir is split back into its
	// two halves. Splitting, rather than passing runName directly, keeps
	// the override variable working.
	generator := filepath.Join(r.root, r.cfg.Campaign.Generator)
	result, err := r.runner.RunWith(ctx, ports.Invocation{
		Command: r.venvPython(),
		Args: []string{
			generator,
			"--config_file", configPath,
			"--run_name", filepath.Base(dir),
			"--output_dir", filepath.Dir(dir),
		},
		Dir: r.root,
		Env: environ,
	})
	if err != nil {
		return 1, fmt.Errorf("invoking generator: %w", err)
	}
	if !result.Success() {
		return 1, pipeline.NewToolError("generator "+r.cfg.Campaign.Generator, result.ExitCode, result.Stderr)
	}

	assembled := filepath.Join(dir, "assembled")
	if !r.fs.IsDir(assembled) {
		fmt.Fprintf(r.out, "Error: Assembled directory '%s' not found.\n", assembled)
		return 1, nil
	}

	tester := filepath.Join(r.root, r.cfg.Campaign.Tester)
	result, err = r.runner.RunWith(ctx, ports.Invocation{
		Command: r.venvPython(),
		Args: []string{
			tester, assembled,
			"--workers", fmt.Sprintf("%d", r.cfg.Campaign.Workers),
			"--language", r.cfg.Campaign.Language,
		},
		Dir: r.root,
		Env: environ,
	})
	if err != nil {
		return 1, fmt.Errorf("invoking tester: %w", err)
	}
	if !result.Success() {
		return 1, pipeline.NewToolError("tester "+r.cfg.Campaign.Tester, result.ExitCode, result.Stderr)
	}

	r.logger.Info(ctx, "campaign finished", ports.F("run", runName))
	return 0, nil
}
