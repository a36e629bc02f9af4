package main

import (
	"github.com/spf13/cobra"
)

func newCampaignCmd(flags *rootFlags) *cobra.Command {
	var backendLabel string

	cmd := &cobra.Command{
		Use:   "campaign <campaign-config>",
		Short: "Run one fuzzing campaign over the provisioned environment",
		Long:  "Invokes the circuit generator with a fresh run directory, verifies it produced an assembled circuit set, then hands that set to the tester. Exits 1 if the assembled directory is missing; the tester is never invoked in that case.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp(flags)
			if err != nil {
				return err
			}
			code, err := application.Campaign(cmd.Context(), args[0], backendLabel)
			if err != nil {
				return err
			}
			if code != 0 {
				return exitCodeError(code)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&backendLabel, "backend", "b", "", "backend label embedded in the run name")
	return cmd
}
