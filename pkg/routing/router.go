package routing

import (
	"math"

	"github.com/aretw0/branchflow/pkg/domain"
)

// Card geometry, in canvas pixels.
const (
	DefaultNodeWidth  = 200.0
	DefaultNodeHeight = 120.0

	HeaderHeight  = 30.0
	TextHeight    = 60.0
	OptionsMargin = 12.0
	OptionHeight  = 32.0
)

const (
	controlRatio     = 0.4
	minControlOffset = 50.0
	maxControlOffset = 150.0
)

// SideForOption alternates option anchors: even indices on the left edge, odd on the right.
func SideForOption(optionIndex int) domain.Side {
	if optionIndex%2 != 0 {
		return domain.SideRight
	}
	return domain.SideLeft
}

// OptionAnchor returns where the wire of option optionIndex leaves node.
// A nodeWidth <= 0 means DefaultNodeWidth.
func OptionAnchor(node domain.FlowNode, optionIndex int, nodeWidth float64) domain.Position {
	nodeWidth = widthOrDefault(nodeWidth)

	y := node.Position.Y +
		HeaderHeight +
		TextHeight +
		OptionsMargin +
		float64(optionIndex)*OptionHeight +
		OptionHeight/2

	x := node.Position.X
	if SideForOption(optionIndex) == domain.SideRight {
		x += nodeWidth
	}

	return domain.Position{X: x, Y: y}
}

// TargetAnchor returns the top-center of node, where incoming wires land.
// A nodeWidth <= 0 means DefaultNodeWidth.
func TargetAnchor(node domain.FlowNode, nodeWidth float64) domain.Position {
	nodeWidth = widthOrDefault(nodeWidth)
	return domain.Position{
		X: node.Position.X + nodeWidth/2,
		Y: node.Position.Y,
	}
}

// Curve builds the cubic path between two anchors.
// The first control point bows out horizontally on the anchor side; the second
// sits above the end point so the wire drops into the target from the top.
func Curve(start, end domain.Position, side domain.Side) domain.Path {
	dx := end.X - start.X
	dy := end.Y - start.Y
	offset := clamp(math.Sqrt(dx*dx+dy*dy)*controlRatio, minControlOffset, maxControlOffset)

	cp1 := domain.Position{X: start.X - offset, Y: start.Y}
	if side == domain.SideRight {
		cp1.X = start.X + offset
	}

	return domain.Path{
		Start:    start,
		Control1: cp1,
		Control2: domain.Position{X: end.X, Y: end.Y - offset},
		End:      end,
	}
}

type config struct {
	nodeWidth float64
}

// Option configures Route.
type Option func(*config)

// WithNodeWidth sets the rendered card width used for anchors. Default: 200.
func WithNodeWidth(width float64) Option {
	return func(c *config) {
		c.nodeWidth = width
	}
}

// Route returns one connection per (node, option) pair whose target resolves,
// in node order then option order. Options pointing to unknown ids are skipped.
func Route(nodes []domain.FlowNode, opts ...Option) []domain.Connection {
	cfg := config{nodeWidth: DefaultNodeWidth}
	for _, opt := range opts {
		opt(&cfg)
	}

	// First occurrence wins for duplicated ids.
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, exists := index[n.ID]; !exists {
			index[n.ID] = i
		}
	}

	connections := make([]domain.Connection, 0)
	for _, node := range nodes {
		for i, opt := range node.Options {
			targetIdx, ok := index[opt.TargetID]
			if !ok {
				continue
			}
			target := nodes[targetIdx]
			side := SideForOption(i)

			connections = append(connections, domain.Connection{
				ID:          domain.ConnectionID(node.ID, i, target.ID),
				SourceID:    node.ID,
				TargetID:    target.ID,
				OptionIndex: i,
				Label:       opt.Label,
				Side:        side,
				Path: Curve(
					OptionAnchor(node, i, cfg.nodeWidth),
					TargetAnchor(target, cfg.nodeWidth),
					side,
				),
			})
		}
	}
	return connections
}

func widthOrDefault(w float64) float64 {
	if w <= 0 {
		return DefaultNodeWidth
	}
	return w
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
