package domain

import (
	"reflect"
)

// FlowDiff represents the changes between two flow snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type FlowDiff struct {
	// FlowID is always present to identify the target.
	FlowID string `json:"flow_id"`

	// Added holds ids of nodes present only in the new snapshot.
	Added []string `json:"added,omitempty"`

	// Removed holds ids of nodes present only in the old snapshot.
	Removed []string `json:"removed,omitempty"`

	// Changed holds ids of nodes whose text, kind, position or options differ.
	Changed []string `json:"changed,omitempty"`

	// Meta is set when canvas metadata changed.
	Meta *FlowMeta `json:"meta,omitempty"`
}

// Diff calculates the difference between oldFlow and newFlow.
// If oldFlow is nil, every node of newFlow is reported as added (initial load).
// Returns nil when nothing changed.
func Diff(flowID string, oldFlow, newFlow *Flow) *FlowDiff {
	if newFlow == nil {
		return nil
	}

	diff := &FlowDiff{FlowID: flowID}

	oldNodes := make(map[string]FlowNode)
	if oldFlow != nil {
		for _, n := range oldFlow.Nodes {
			oldNodes[n.ID] = n
		}
	}

	seen := make(map[string]bool, len(newFlow.Nodes))
	for _, n := range newFlow.Nodes {
		seen[n.ID] = true
		prev, existed := oldNodes[n.ID]
		if !existed {
			diff.Added = append(diff.Added, n.ID)
			continue
		}
		if !reflect.DeepEqual(normalizeNode(prev), normalizeNode(n)) {
			diff.Changed = append(diff.Changed, n.ID)
		}
	}

	if oldFlow != nil {
		for _, n := range oldFlow.Nodes {
			if !seen[n.ID] {
				diff.Removed = append(diff.Removed, n.ID)
			}
		}
		if oldFlow.Meta != newFlow.Meta {
			meta := newFlow.Meta
			diff.Meta = &meta
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// normalizeNode treats nil and empty option lists as equal.
func normalizeNode(n FlowNode) FlowNode {
	if len(n.Options) == 0 {
		n.Options = nil
	}
	return n
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *FlowDiff) IsEmpty() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Changed) == 0 &&
		d.Meta == nil
}
