// Package routing computes the geometry of connections between flow nodes.
//
// Every option slot on a node card is wired to the top-center of its target
// node with a cubic curve. Options alternate sides by index (even on the left
// edge, odd on the right) so neighbouring wires do not overlap.
//
// The vertical anchor of an option assumes the rendered card layout: a 30px
// header, a 60px text block, a 12px margin and 32px option rows. Callers must
// pass the same node width they render with, or anchors will misalign.
//
// All functions are pure and safe for concurrent use.
package routing
