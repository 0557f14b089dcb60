package main

import (
	"fmt"

	"github.com/aretw0/branchflow/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <flow>",
	Short: "Export the flow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the flow with validation issues
highlighted, or a standalone SVG drawing of the node cards and connections.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		flow, err := loadFlow(cmd.Context(), args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		analysis := newEngine(cfg).Analyze(cmd.Context(), flowName(args[0]), flow)

		var rendered string
		switch format {
		case "mermaid":
			rendered = graph.GenerateMermaid(flow, &graph.Overlay{Issues: analysis.Issues})
		case "svg":
			rendered = graph.RenderSVG(flow, analysis.Connections, graph.SVGOptions{
				NodeWidth: cfg.Analysis.NodeWidth,
				Issues:    analysis.Issues,
			})
		default:
			return fmt.Errorf("unknown format %q", format)
		}

		w, closeFn, err := openOutput(output, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprint(w, rendered); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid or svg")
	graphCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
}
