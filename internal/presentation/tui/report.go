package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/validation"
	"github.com/muesli/termenv"
)

var issueColors = map[domain.IssueKind]string{
	domain.IssueNoStartNode:   "#ef4444",
	domain.IssueMissingTarget: "#ef4444",
	domain.IssueCircular:      "#f59e0b",
	domain.IssueMultipleStart: "#f59e0b",
	domain.IssueOrphaned:      "#9ca3af",
}

// IssueLine formats one issue for a terminal, the kind colored by severity.
func IssueLine(p termenv.Profile, issue domain.ValidationIssue) string {
	kind := p.String(fmt.Sprintf("%-14s", issue.Kind)).Foreground(p.Color(issueColors[issue.Kind]))
	if issue.NodeID == "" {
		return fmt.Sprintf("%s %s", kind, issue.Message)
	}
	return fmt.Sprintf("%s [%s] %s", kind, issue.NodeID, issue.Message)
}

// ReportMarkdown summarizes an analysis as markdown: counts, an issue table
// and the connection list.
func ReportMarkdown(name string, flow domain.Flow, analysis domain.Analysis) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", name)
	fmt.Fprintf(&sb, "**%d** nodes, **%d** connections, **%d** issues\n\n",
		len(flow.Nodes), len(analysis.Connections), len(analysis.Issues))

	if analysis.Valid() {
		sb.WriteString("> ✓ No issues found.\n\n")
	} else {
		counts := validation.CountByKind(analysis.Issues)
		sb.WriteString("## Issues\n\n")
		for _, kind := range []domain.IssueKind{
			domain.IssueNoStartNode,
			domain.IssueMultipleStart,
			domain.IssueMissingTarget,
			domain.IssueCircular,
			domain.IssueOrphaned,
		} {
			if counts[kind] > 0 {
				fmt.Fprintf(&sb, "- `%s`: %d\n", kind, counts[kind])
			}
		}
		sb.WriteString("\n| Kind | Node | Message |\n|---|---|---|\n")
		for _, issue := range analysis.Issues {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", issue.Kind, cell(issue.NodeID), cell(issue.Message))
		}
		sb.WriteString("\n")
	}

	if len(analysis.Connections) > 0 {
		sb.WriteString("## Connections\n\n")
		for _, c := range analysis.Connections {
			fmt.Fprintf(&sb, "- `%s` %s → %s (%s) _%s_\n", c.ID, c.SourceID, c.TargetID, c.Side, c.Label)
		}
	}

	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
