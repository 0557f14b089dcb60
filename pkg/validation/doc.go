// Package validation checks a conversation flow for structural problems.
//
// Validate walks the graph breadth-first from the start node and reports, in a
// deterministic order, a missing start node, circular references, options that
// point to non-existent nodes and nodes that cannot be reached from start.
//
//	issues := validation.Validate(flow)
//	for _, issue := range issues {
//	    fmt.Println(issue.Kind, issue.NodeID, issue.Message)
//	}
//
// Issues are advisory data, never errors: Validate is total over any flow,
// including an empty one.
//
// Missing targets are only detected on the reachable subgraph. A node that is
// not reachable from start is reported as orphaned, and its own options are
// never inspected.
package validation
