/*
Package domain contains the core data model of a branching conversation flow.

It defines the flow document as edited on the canvas (nodes, options and their
positions) and the values derived from it: validation issues, routed
connections and preview transcripts. The package is kept pure and free of
external dependencies like I/O or persistence.

# Key Entities

  - Flow: The document. An ordered list of nodes plus optional canvas metadata.
  - FlowNode: A conversational step (start, question or end) with its options.
  - Option: A labelled, directed reference to another node by id.
  - ValidationIssue: An advisory finding about the graph (orphans, cycles...).
  - Connection: A derived, routed edge between an option slot and its target.
*/
package domain
