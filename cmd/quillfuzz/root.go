// Command quillfuzz provisions the quantum-circuit fuzzing environment
// and drives fuzzing campaigns over it.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/QuillFuzz/QuillFuzz/internal/adapters/command"
	"github.com/QuillFuzz/QuillFuzz/internal/adapters/filesystem"
	"github.com/QuillFuzz/QuillFuzz/internal/adapters/logging"
	"github.com/QuillFuzz/QuillFuzz/internal/app"
	"github.com/QuillFuzz/QuillFuzz/internal/config"
	"github.com/QuillFuzz/QuillFuzz/internal/domain/pipeline"
	"github.com/QuillFuzz/QuillFuzz/internal/ports"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
	root       string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "quillfuzz",
		Short:         "Provision and run quantum-circuit fuzzing campaigns",
		Long:          "quillfuzz provisions a reproducible compiler-fuzzing environment (backend runtime, Rust toolchain, Python environment, QIR runner) and drives LLM-generated circuit campaigns over it.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default <root>/quillfuzz.yaml)")
	cmd.PersistentFlags().StringVar(&flags.root, "root", "", "project root (default: QF_ROOT or config file location)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newProvisionCmd(flags),
		newCampaignCmd(flags),
		newVersionCmd(),
	)
	return cmd
}

// buildApp assembles the real adapters behind the application.
func buildApp(flags *rootFlags) (*app.App, error) {
	fs := filesystem.NewRealFileSystem()

	root, err := config.ResolveRoot(fs, flags.root)
	if err != nil {
		return nil, err
	}

	configPath := flags.configPath
	if configPath == "" {
		configPath = filepath.Join(root, config.DefaultFileName)
	}
	cfg, err := config.Load(fs, configPath)
	if err != nil {
		return nil, err
	}

	level := ports.LevelInfo
	if flags.verbose {
		level = ports.LevelDebug
	}
	logger := logging.NewConsoleLogger(logging.WithLevel(level))

	return app.New(command.NewRealRunner(), fs, logger, cfg, root, os.Stdout), nil
}

// printError renders a fatal error. StepErrors carry remediation hints.
func printError(err error) {
	if stepErr, ok := err.(*pipeline.StepError); ok {
		fmt.Fprintf(os.Stderr, "Error: %s\n", stepErr.Format())
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
}

func execute() int {
	if err := newRootCmd().Execute(); err != nil {
		if code, ok := err.(exitCodeError); ok {
			return int(code)
		}
		printError(err)
		return 1
	}
	return 0
}

// exitCodeError carries a bare exit code out of a command whose diagnostic
// was already printed.
type exitCodeError int

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", int(e))
}
