package validation

import "github.com/aretw0/branchflow/pkg/domain"

// ByNode returns the issues attached to nodeID, preserving order.
func ByNode(issues []domain.ValidationIssue, nodeID string) []domain.ValidationIssue {
	var out []domain.ValidationIssue
	for _, issue := range issues {
		if issue.NodeID == nodeID {
			out = append(out, issue)
		}
	}
	return out
}

// CountByKind tallies issues per kind.
func CountByKind(issues []domain.ValidationIssue) map[domain.IssueKind]int {
	counts := make(map[domain.IssueKind]int)
	for _, issue := range issues {
		counts[issue.Kind]++
	}
	return counts
}
