package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/branchflow/internal/presentation/tui"
	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/validation"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow>",
	Short: "Check the flow graph for consistency",
	Long: `Walks the flow from its start node and reports unreachable nodes, cycles,
options pointing at missing nodes and start node problems.

<flow> is a JSON/YAML flow document, a directory with one document per node,
or "-" for JSON on stdin. Exits with status 1 when issues are found.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		cycleMode, _ := cmd.Flags().GetString("cycle-mode")
		return runValidate(cmd, args[0], format, cycleMode)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("format", "f", "text", "Output format: text, json or markdown")
	validateCmd.Flags().String("cycle-mode", "", "Cycle detection: revisit or strict (default from config)")
}

func runValidate(cmd *cobra.Command, path, format, cycleMode string) error {
	ctx := cmd.Context()
	flow, err := loadFlow(ctx, path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	var extra []validation.Option
	if cycleMode != "" {
		mode, err := validation.ParseCycleMode(cycleMode)
		if err != nil {
			return err
		}
		extra = append(extra, validation.WithCycleMode(mode))
	}

	engine := newEngine(cfg)
	analysis := domain.Analysis{
		Issues:      engine.Validate(ctx, flowName(path), flow, extra...),
		Connections: engine.Route(ctx, flowName(path), flow),
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		issues := analysis.Issues
		if issues == nil {
			issues = []domain.ValidationIssue{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(issues); err != nil {
			return err
		}
	case "markdown":
		render := tui.NewRenderer(isTerminal(out))
		text, err := render(tui.ReportMarkdown(flowName(path), flow, analysis))
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
	case "text":
		printIssues(out, analysis.Issues)
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if !analysis.Valid() {
		return errIssuesFound
	}
	return nil
}

func printIssues(out io.Writer, issues []domain.ValidationIssue) {
	profile := termenv.Ascii
	if isTerminal(out) {
		profile = termenv.ColorProfile()
	}

	if len(issues) == 0 {
		fmt.Fprintln(out, "Flow is valid! ✅")
		return
	}
	for _, issue := range issues {
		fmt.Fprintln(out, tui.IssueLine(profile, issue))
	}
	fmt.Fprintf(out, "\n%d issue(s) found\n", len(issues))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && tui.IsTerminal(f)
}
