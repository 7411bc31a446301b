package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ownerscan-go/internal/aggregate"
	"ownerscan-go/internal/export"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List aggregation modes and the file each one writes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		for _, mode := range aggregate.Modes {
			fmt.Fprintf(out, "%-7s %s\n", mode, export.FileName(mode, "<name>"))
		}
		return nil
	},
}
