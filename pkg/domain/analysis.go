package domain

// Analysis is the combined output of validating and routing one flow snapshot.
type Analysis struct {
	FlowID      string            `json:"flowId,omitempty"`
	Issues      []ValidationIssue `json:"issues"`
	Connections []Connection      `json:"connections"`
}

// Valid reports whether the analysis found no issues.
func (a Analysis) Valid() bool {
	return len(a.Issues) == 0
}
