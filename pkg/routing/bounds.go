package routing

import "github.com/aretw0/branchflow/pkg/domain"

// Rect is an axis-aligned box in canvas coordinates.
type Rect struct {
	X, Y, W, H float64
}

// NodeBounds returns the card rectangle of node. Non-positive sizes use the defaults (200x120).
func NodeBounds(node domain.FlowNode, width, height float64) Rect {
	if height <= 0 {
		height = DefaultNodeHeight
	}
	return Rect{
		X: node.Position.X,
		Y: node.Position.Y,
		W: widthOrDefault(width),
		H: height,
	}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p domain.Position) bool {
	return p.X >= r.X && p.X <= r.X+r.W &&
		p.Y >= r.Y && p.Y <= r.Y+r.H
}

// HitTest returns the id of the topmost node under p. Later nodes are drawn on top.
func HitTest(nodes []domain.FlowNode, p domain.Position, width, height float64) (string, bool) {
	for i := len(nodes) - 1; i >= 0; i-- {
		if NodeBounds(nodes[i], width, height).Contains(p) {
			return nodes[i].ID, true
		}
	}
	return "", false
}

// CardHeight is the laid-out height of a node card: header, text, the option
// rows and a bottom margin matching the top one.
func CardHeight(node domain.FlowNode) float64 {
	return HeaderHeight + TextHeight + 2*OptionsMargin + float64(len(node.Options))*OptionHeight
}
