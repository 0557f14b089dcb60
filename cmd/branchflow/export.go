package main

import (
	"fmt"

	"github.com/aretw0/branchflow/pkg/flowfile"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <flow>",
	Short: "Write a flow as a single export document",
	Long: `Reads a flow (document, node directory or stdin) and writes it as one
indented JSON export document, or YAML with --format yaml.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		var ff flowfile.Format
		switch format {
		case "json":
			ff = flowfile.FormatJSON
		case "yaml":
			ff = flowfile.FormatYAML
		default:
			return fmt.Errorf("unknown format %q", format)
		}

		flow, err := loadFlow(cmd.Context(), args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		w, closeFn, err := openOutput(output, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := flowfile.Write(w, flow, ff); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
	exportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
}
