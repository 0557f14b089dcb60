package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/branchflow"
	"github.com/aretw0/branchflow/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of branchflow",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if isTerminal(out) {
			tui.PrintBanner(out)
		}
		fmt.Fprintf(out, "branchflow version %s\n", strings.TrimSpace(branchflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
