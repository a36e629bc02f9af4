package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags.
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the quillfuzz version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "quillfuzz "+version)
		},
	}
}
