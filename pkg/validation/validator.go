package validation

import (
	"fmt"

	"github.com/aretw0/branchflow/pkg/domain"
)

// CycleMode selects which revisits are reported as circular references.
type CycleMode int

const (
	// CycleModeRevisit reports every edge that reaches an already discovered node,
	// including re-convergent branches (A->B, A->C, B->D, C->D flags D).
	CycleModeRevisit CycleMode = iota
	// CycleModeStrict only reports revisits through an edge that lies on a directed cycle.
	CycleModeStrict
)

// String returns the configuration name of the mode.
func (m CycleMode) String() string {
	if m == CycleModeStrict {
		return "strict"
	}
	return "revisit"
}

// ParseCycleMode converts a configuration name to a CycleMode.
func ParseCycleMode(s string) (CycleMode, error) {
	switch s {
	case "", "revisit":
		return CycleModeRevisit, nil
	case "strict":
		return CycleModeStrict, nil
	default:
		return CycleModeRevisit, fmt.Errorf("unknown cycle mode: %s", s)
	}
}

type config struct {
	cycleMode     CycleMode
	multipleStart bool
}

// Option configures Validate.
type Option func(*config)

// WithCycleMode sets how circular references are detected. Default: CycleModeRevisit.
func WithCycleMode(mode CycleMode) Option {
	return func(c *config) {
		c.cycleMode = mode
	}
}

// WithMultipleStartCheck toggles the multiple-start issue. Default: enabled.
// Traversal always starts from the first start node in document order.
func WithMultipleStartCheck(enabled bool) Option {
	return func(c *config) {
		c.multipleStart = enabled
	}
}

// visitState tracks a node id through the traversal.
type visitState uint8

const (
	unvisited visitState = iota
	queued
	visited
)

// entry is a queue item. Revisit entries are never expanded; popping one
// reports a circular reference at the position the duplicate would occupy.
type entry struct {
	id      string
	revisit bool
}

// Validate returns the issues found in flow, in emission order: start-node
// checks, then circular and missing-target issues in BFS order, then orphaned
// nodes in document order.
func Validate(flow domain.Flow, opts ...Option) []domain.ValidationIssue {
	cfg := config{cycleMode: CycleModeRevisit, multipleStart: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	start, ok := flow.StartNode()
	if !ok {
		return []domain.ValidationIssue{{
			Kind:    domain.IssueNoStartNode,
			NodeID:  "",
			Message: "No start node found",
		}}
	}

	issues := make([]domain.ValidationIssue, 0)

	if cfg.multipleStart {
		for _, n := range flow.Nodes {
			if n.Kind == domain.NodeKindStart && n.ID != start.ID {
				issues = append(issues, domain.ValidationIssue{
					Kind:    domain.IssueMultipleStart,
					NodeID:  n.ID,
					Message: fmt.Sprintf("Start node \"%s\" is ignored, \"%s\" is the entry point", n.ID, start.ID),
				})
			}
		}
	}

	// First occurrence wins for duplicated ids.
	index := make(map[string]int, len(flow.Nodes))
	for i, n := range flow.Nodes {
		if _, exists := index[n.ID]; !exists {
			index[n.ID] = i
		}
	}

	var cyclic func(from, to string) bool
	if cfg.cycleMode == CycleModeStrict {
		cyclic = newComponents(flow, index, start.ID).sameComponent
	}

	state := make(map[string]visitState, len(flow.Nodes))
	queue := []entry{{id: start.ID}}
	state[start.ID] = queued

	for head := 0; head < len(queue); head++ {
		current := queue[head]

		if current.revisit {
			issues = append(issues, domain.ValidationIssue{
				Kind:    domain.IssueCircular,
				NodeID:  current.id,
				Message: fmt.Sprintf("Circular reference detected at node %s", current.id),
			})
			continue
		}

		state[current.id] = visited
		node := flow.Nodes[index[current.id]]

		for _, opt := range node.Options {
			if _, exists := index[opt.TargetID]; !exists {
				issues = append(issues, domain.ValidationIssue{
					Kind:    domain.IssueMissingTarget,
					NodeID:  node.ID,
					Message: fmt.Sprintf("Option \"%s\" points to non-existent node \"%s\"", opt.Label, opt.TargetID),
				})
				continue
			}

			if state[opt.TargetID] == unvisited {
				state[opt.TargetID] = queued
				queue = append(queue, entry{id: opt.TargetID})
				continue
			}

			if cyclic != nil && !cyclic(node.ID, opt.TargetID) {
				continue
			}
			queue = append(queue, entry{id: opt.TargetID, revisit: true})
		}
	}

	for _, n := range flow.Nodes {
		if state[n.ID] != visited {
			issues = append(issues, domain.ValidationIssue{
				Kind:    domain.IssueOrphaned,
				NodeID:  n.ID,
				Message: fmt.Sprintf("Node \"%s\" is not reachable from start", n.ID),
			})
		}
	}

	return issues
}
