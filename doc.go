/*
Package branchflow analyzes branching conversation flows (chatbot decision trees).

A flow is a set of nodes (start, question, end) connected by labelled options.
Two pure algorithms form the core:

  - validation.Validate walks the graph from the start node and reports
    unreachable nodes, revisited nodes and options pointing at missing nodes.
  - routing.Route computes a deterministic cubic Bezier path from every
    option slot to the top of its target node, for drawing the connection
    overlay.

The Engine in this package wraps both with structured logging and
observation hooks so hosts (CLI, HTTP, MCP) can record metrics.

# Usage

	flow, err := flowfile.Load("flow_export.json")
	if err != nil {
		log.Fatal(err)
	}

	eng := branchflow.New(branchflow.WithCycleMode(validation.CycleModeStrict))
	analysis := eng.Analyze(context.Background(), "support", flow)

	for _, issue := range analysis.Issues {
		fmt.Println(issue.Kind, issue.NodeID, issue.Message)
	}
	for _, conn := range analysis.Connections {
		fmt.Println(conn.ID, conn.Path.D())
	}

Flows can also be authored as a directory with one Markdown document per
node; see LoadDir.
*/
package branchflow
