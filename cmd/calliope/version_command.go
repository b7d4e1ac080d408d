package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sydlexius/calliope/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the calliope version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "calliope %s\n", version.Version)
			return nil
		},
	}
}
