package main

import (
	"github.com/spf13/cobra"
)

func newProvisionCmd(flags *rootFlags) *cobra.Command {
	var backendName string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision the fuzzing environment end to end",
		Long:  "Detects or installs the backend runtime, installs native dependencies and the Rust toolchain, creates the project environment, builds and rescues the QIR runner, installs the package manifest, exports to CI, and reclaims caches. Re-running converges: satisfied steps are skipped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp(flags)
			if err != nil {
				return err
			}
			return application.Provision(cmd.Context(), backendName, dryRun)
		},
	}

	cmd.Flags().StringVarP(&backendName, "backend", "b", "", "backend: auto, conda, brew, or container (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without applying")
	return cmd
}
