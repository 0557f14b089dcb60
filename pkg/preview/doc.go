/*
Package preview simulates a conversation over a flow.

A Session starts at the flow's start node. Each choice records the bot's
text and the chosen option label, then moves to the option's target. The
session ends at an end node or at a node without options. The recorded
conversation can be exported as a domain.Transcript.
*/
package preview
