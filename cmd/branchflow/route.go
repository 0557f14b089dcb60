package main

import (
	"encoding/json"

	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/routing"
	"github.com/spf13/cobra"
)

var routeCmd = &cobra.Command{
	Use:   "route <flow>",
	Short: "Print the connection curves of a flow as JSON",
	Long: `Computes one connection per option whose target exists: the anchor on the
option slot, the top center of the target card and the cubic curve between
them, including its SVG path string.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := loadFlow(cmd.Context(), args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		var extra []routing.Option
		if cmd.Flags().Changed("node-width") {
			width, _ := cmd.Flags().GetFloat64("node-width")
			extra = append(extra, routing.WithNodeWidth(width))
		}

		conns := newEngine(cfg).Route(cmd.Context(), flowName(args[0]), flow, extra...)
		if conns == nil {
			conns = []domain.Connection{}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(conns)
	},
}

func init() {
	rootCmd.AddCommand(routeCmd)
	routeCmd.Flags().Float64("node-width", routing.DefaultNodeWidth, "Node card width in pixels")
}
