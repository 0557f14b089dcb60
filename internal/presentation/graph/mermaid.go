package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/branchflow/pkg/domain"
)

// Overlay carries validation results and preview state to highlight on the graph.
type Overlay struct {
	Issues      []domain.ValidationIssue
	CurrentNode string
}

// maxLabel bounds node labels; long prompts make Mermaid layouts unreadable.
const maxLabel = 40

// GenerateMermaid produces a Mermaid flowchart of the flow.
// Shapes follow the node kind:
//   - start: ((circle))
//   - question: [/parallelogram/]
//   - end: ([stadium])
//
// Options whose target is missing point at a dashed placeholder node.
func GenerateMermaid(flow domain.Flow, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	known := make(map[string]bool, len(flow.Nodes))
	for _, node := range flow.Nodes {
		known[node.ID] = true
	}

	var missing []string
	seenMissing := make(map[string]bool)

	for _, node := range flow.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Kind {
		case domain.NodeKindStart:
			opener, closer = "((", "))"
		case domain.NodeKindQuestion:
			opener, closer = "[/", "/]"
		case domain.NodeKindEnd:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, nodeLabel(node), closer)

		for _, opt := range node.Options {
			safeTo := sanitizeMermaidID(opt.TargetID)
			label := escapeLabel(opt.Label)
			if !known[opt.TargetID] {
				safeTo = "missing_" + safeTo
				if !seenMissing[safeTo] {
					seenMissing[safeTo] = true
					missing = append(missing, safeTo)
					fmt.Fprintf(&sb, "    %s[\"? %s\"]\n", safeTo, escapeLabel(opt.TargetID))
				}
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", safeID, label, safeTo)
				continue
			}
			if label == "" {
				fmt.Fprintf(&sb, "    %s --> %s\n", safeID, safeTo)
				continue
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, label, safeTo)
		}
	}

	if len(missing) > 0 {
		sb.WriteString("    classDef placeholder stroke-dasharray:4 4,fill:#fff,color:#666;\n")
		fmt.Fprintf(&sb, "    class %s placeholder;\n", strings.Join(missing, ","))
	}

	if overlay != nil {
		writeOverlay(&sb, overlay)
	}

	return sb.String()
}

func writeOverlay(sb *strings.Builder, overlay *Overlay) {
	sb.WriteString("\n    %% Overlay Styles\n")
	// Black text keeps contrast on both themes.
	sb.WriteString("    classDef orphaned fill:#f5f5f5,stroke:#9e9e9e,stroke-dasharray:3 3,color:#000;\n")
	sb.WriteString("    classDef circular fill:#fff3e0,stroke:#f59e0b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef broken fill:#ffebee,stroke:#ef4444,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	// One class per node; the most severe issue wins.
	severity := map[domain.IssueKind]int{
		domain.IssueOrphaned:      1,
		domain.IssueCircular:      2,
		domain.IssueMultipleStart: 2,
		domain.IssueMissingTarget: 3,
	}
	classOf := map[domain.IssueKind]string{
		domain.IssueOrphaned:      "orphaned",
		domain.IssueCircular:      "circular",
		domain.IssueMultipleStart: "circular",
		domain.IssueMissingTarget: "broken",
	}

	worst := make(map[string]domain.IssueKind)
	var order []string
	for _, issue := range overlay.Issues {
		if issue.NodeID == "" || severity[issue.Kind] == 0 {
			continue
		}
		prev, seen := worst[issue.NodeID]
		if !seen {
			order = append(order, issue.NodeID)
		}
		if !seen || severity[issue.Kind] > severity[prev] {
			worst[issue.NodeID] = issue.Kind
		}
	}
	for _, id := range order {
		fmt.Fprintf(sb, "    class %s %s;\n", sanitizeMermaidID(id), classOf[worst[id]])
	}

	if overlay.CurrentNode != "" {
		fmt.Fprintf(sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
	}
}

func nodeLabel(node domain.FlowNode) string {
	text := strings.Join(strings.Fields(node.Text), " ")
	if text == "" {
		return escapeLabel(node.ID)
	}
	if r := []rune(text); len(r) > maxLabel {
		text = string(r[:maxLabel-1]) + "…"
	}
	return escapeLabel(text)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}

// sanitizeMermaidID maps a node id to a Mermaid identifier. The "n_" prefix
// keeps ids such as "end" or "1" from clashing with Mermaid syntax.
func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	sb.WriteString("n_")
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
