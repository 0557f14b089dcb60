package domain

import (
	"encoding/json"
	"fmt"
)

// Side is the edge of a node card an option connects from.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Path is a cubic Bézier curve from Start to End.
type Path struct {
	Start    Position `json:"start"`
	Control1 Position `json:"control1"`
	Control2 Position `json:"control2"`
	End      Position `json:"end"`
}

// D renders the path as SVG path data.
func (p Path) D() string {
	return fmt.Sprintf("M %s,%s C %s,%s %s,%s %s,%s",
		num(p.Start.X), num(p.Start.Y),
		num(p.Control1.X), num(p.Control1.Y),
		num(p.Control2.X), num(p.Control2.Y),
		num(p.End.X), num(p.End.Y),
	)
}

// MarshalJSON adds the SVG path data as "d" so clients can draw without
// rebuilding it.
func (p Path) MarshalJSON() ([]byte, error) {
	type plain Path
	return json.Marshal(struct {
		plain
		D string `json:"d"`
	}{plain(p), p.D()})
}

func num(f float64) string {
	return fmt.Sprintf("%g", f)
}

// Connection is a routed edge from an option slot to its target node.
// It is derived from the flow on every call and never stored.
type Connection struct {
	ID          string `json:"id"`
	SourceID    string `json:"sourceId"`
	TargetID    string `json:"targetId"`
	OptionIndex int    `json:"optionIndex"`
	Label       string `json:"label"`
	Side        Side   `json:"side"`
	Path        Path   `json:"path"`
}

// ConnectionID builds the stable identifier "<source>-<index>-<target>".
func ConnectionID(sourceID string, optionIndex int, targetID string) string {
	return fmt.Sprintf("%s-%d-%s", sourceID, optionIndex, targetID)
}
