package domain

// NodeKind defines the role of a node in the conversation.
type NodeKind string

const (
	// NodeKindStart is the entry point of the conversation.
	NodeKindStart NodeKind = "start"
	// NodeKindQuestion presents text and waits for the user to pick an option.
	NodeKindQuestion NodeKind = "question"
	// NodeKindEnd closes the conversation.
	NodeKindEnd NodeKind = "end"
)

// Valid reports whether k is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeKindStart, NodeKindQuestion, NodeKindEnd:
		return true
	}
	return false
}

// Position is a point in canvas pixel coordinates.
type Position struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// CanvasSize is the width and height of the editing canvas.
type CanvasSize struct {
	W float64 `json:"w" yaml:"w" mapstructure:"w"`
	H float64 `json:"h" yaml:"h" mapstructure:"h"`
}

// FlowMeta holds editor settings stored alongside the nodes.
type FlowMeta struct {
	Theme      string     `json:"theme,omitempty" yaml:"theme,omitempty" mapstructure:"theme"`
	CanvasSize CanvasSize `json:"canvas_size" yaml:"canvas_size" mapstructure:"canvas_size"`
}

// Option is a labelled transition to another node.
// TargetID may reference a node that does not exist; consumers must resolve it themselves.
type Option struct {
	Label    string `json:"label" yaml:"label" mapstructure:"label"`
	TargetID string `json:"nextId" yaml:"nextId" mapstructure:"nextId"`
}

// FlowNode is a single conversational step.
type FlowNode struct {
	ID       string   `json:"id" yaml:"id" mapstructure:"id"`
	Kind     NodeKind `json:"type" yaml:"type" mapstructure:"type"`
	Text     string   `json:"text" yaml:"text" mapstructure:"text"`
	Position Position `json:"position" yaml:"position" mapstructure:"position"`
	Options  []Option `json:"options" yaml:"options" mapstructure:"options"`
}

// Flow is the document edited on the canvas.
// Node order is insertion order and only matters for deterministic iteration.
type Flow struct {
	Meta  FlowMeta   `json:"meta" yaml:"meta" mapstructure:"meta"`
	Nodes []FlowNode `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
}

// FindNode returns the first node with the given id.
func (f *Flow) FindNode(id string) (*FlowNode, bool) {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i], true
		}
	}
	return nil, false
}

// StartNode returns the first node of kind start, in document order.
func (f *Flow) StartNode() (*FlowNode, bool) {
	for i := range f.Nodes {
		if f.Nodes[i].Kind == NodeKindStart {
			return &f.Nodes[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the flow. Snapshots handed to the core are never shared.
func (f Flow) Clone() Flow {
	out := Flow{Meta: f.Meta}
	if f.Nodes == nil {
		return out
	}
	out.Nodes = make([]FlowNode, len(f.Nodes))
	for i, n := range f.Nodes {
		out.Nodes[i] = n.Clone()
	}
	return out
}

// Clone returns a deep copy of the node.
func (n FlowNode) Clone() FlowNode {
	if n.Options != nil {
		opts := make([]Option, len(n.Options))
		copy(opts, n.Options)
		n.Options = opts
	}
	return n
}

// IsTerminal reports whether the conversation stops at this node.
func (n FlowNode) IsTerminal() bool {
	return n.Kind == NodeKindEnd || len(n.Options) == 0
}
