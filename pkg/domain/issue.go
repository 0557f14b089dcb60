package domain

// IssueKind classifies a validation finding.
type IssueKind string

const (
	// IssueOrphaned flags nodes unreachable from the start node.
	IssueOrphaned IssueKind = "orphaned"
	// IssueCircular flags nodes the traversal reaches more than once.
	IssueCircular IssueKind = "circular"
	// IssueMissingTarget flags options pointing at an unknown node.
	IssueMissingTarget IssueKind = "missing-target"
	// IssueNoStartNode is reported when the flow has no start node.
	IssueNoStartNode IssueKind = "no-start-node"
	// IssueMultipleStart flags start nodes ignored because an earlier one won.
	IssueMultipleStart IssueKind = "multiple-start"
)

// ValidationIssue is an advisory finding about the flow graph.
// NodeID is empty only for IssueNoStartNode.
type ValidationIssue struct {
	Kind    IssueKind `json:"type" yaml:"type"`
	NodeID  string    `json:"nodeId" yaml:"nodeId"`
	Message string    `json:"message" yaml:"message"`
}
