package graph

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/routing"
)

// canvasMargin pads the computed canvas when the flow has no canvas_size.
const canvasMargin = 100

var kindColors = map[domain.NodeKind]string{
	domain.NodeKindStart:    "#22c55e",
	domain.NodeKindQuestion: "#3b82f6",
	domain.NodeKindEnd:      "#ef4444",
}

// SVGOptions controls RenderSVG.
type SVGOptions struct {
	NodeWidth float64
	Issues    []domain.ValidationIssue
}

// RenderSVG draws node cards and the routed connections as a standalone SVG
// document. Left-side connections use the green marker, right-side the blue one.
func RenderSVG(flow domain.Flow, conns []domain.Connection, opts SVGOptions) string {
	width := opts.NodeWidth
	if width <= 0 {
		width = routing.DefaultNodeWidth
	}
	w, h := canvasSize(flow, width)

	flagged := make(map[string]bool)
	for _, issue := range opts.Issues {
		if issue.NodeID != "" {
			flagged[issue.NodeID] = true
		}
	}

	dark := flow.Meta.Theme != "light"
	bg, fg, card := "#0f0f0f", "#e5e5e5", "#1a1a1a"
	if !dark {
		bg, fg, card = "#fafafa", "#111111", "#ffffff"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`+"\n", w, h, w, h)
	sb.WriteString("  <defs>\n")
	sb.WriteString(`    <marker id="arrowhead" markerWidth="10" markerHeight="10" refX="9" refY="3" orient="auto" markerUnits="strokeWidth"><polygon points="0 0, 10 3, 0 6" fill="#3b82f6"/></marker>` + "\n")
	sb.WriteString(`    <marker id="arrowhead-left" markerWidth="10" markerHeight="10" refX="9" refY="3" orient="auto" markerUnits="strokeWidth"><polygon points="0 0, 10 3, 0 6" fill="#22c55e"/></marker>` + "\n")
	sb.WriteString("  </defs>\n")
	fmt.Fprintf(&sb, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", bg)

	for _, node := range flow.Nodes {
		x, y := node.Position.X, node.Position.Y
		stroke := kindColors[node.Kind]
		if stroke == "" {
			stroke = "#666"
		}
		fmt.Fprintf(&sb, `  <g class="node" data-id="%s">`+"\n", html.EscapeString(node.ID))
		fmt.Fprintf(&sb, `    <rect x="%g" y="%g" width="%g" height="%g" rx="8" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
			x, y, width, routing.CardHeight(node), card, stroke)
		title := string(node.Kind)
		if flagged[node.ID] {
			title += " ⚠"
		}
		fmt.Fprintf(&sb, `    <text x="%g" y="%g" fill="%s" font-size="12" font-family="sans-serif">%s</text>`+"\n",
			x+12, y+20, fg, html.EscapeString(title))
		fmt.Fprintf(&sb, `    <text x="%g" y="%g" fill="%s" font-size="13" font-family="sans-serif">%s</text>`+"\n",
			x+12, y+routing.HeaderHeight+24, fg, html.EscapeString(node.Text))
		for i, opt := range node.Options {
			oy := y + routing.HeaderHeight + routing.TextHeight + routing.OptionsMargin + float64(i)*routing.OptionHeight
			fmt.Fprintf(&sb, `    <text x="%g" y="%g" fill="%s" font-size="12" font-family="sans-serif">%s</text>`+"\n",
				x+12, oy+routing.OptionHeight/2+4, fg, html.EscapeString(opt.Label))
		}
		sb.WriteString("  </g>\n")
	}

	for _, conn := range conns {
		marker := "url(#arrowhead)"
		if conn.Side == domain.SideLeft {
			marker = "url(#arrowhead-left)"
		}
		fmt.Fprintf(&sb, `  <g class="connection" data-id="%s" data-side="%s">`+"\n", html.EscapeString(conn.ID), conn.Side)
		fmt.Fprintf(&sb, `    <path d="%s" stroke="#000" stroke-width="4" fill="none" opacity="0.4"/>`+"\n", conn.Path.D())
		fmt.Fprintf(&sb, `    <path d="%s" stroke="#666" stroke-width="2" fill="none" marker-end="%s"/>`+"\n", conn.Path.D(), marker)
		sb.WriteString("  </g>\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

func canvasSize(flow domain.Flow, nodeWidth float64) (float64, float64) {
	if flow.Meta.CanvasSize.W > 0 && flow.Meta.CanvasSize.H > 0 {
		return flow.Meta.CanvasSize.W, flow.Meta.CanvasSize.H
	}
	var maxX, maxY float64
	for _, node := range flow.Nodes {
		maxX = math.Max(maxX, node.Position.X+nodeWidth)
		maxY = math.Max(maxY, node.Position.Y+routing.CardHeight(node))
	}
	return maxX + canvasMargin, maxY + canvasMargin
}
