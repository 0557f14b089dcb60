package loam

// NodeMetadata is the frontmatter of a node document.
// Options accept the export key (nextId) and the shorter "to".
type NodeMetadata struct {
	ID       string           `json:"id" mapstructure:"id"`
	Type     string           `json:"type" mapstructure:"type"`
	Text     string           `json:"text,omitempty" mapstructure:"text"`
	Order    int              `json:"order,omitempty" mapstructure:"order"`
	Position PositionMetadata `json:"position" mapstructure:"position"`
	Options  []OptionMetadata `json:"options" mapstructure:"options"`
}

type PositionMetadata struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
}

type OptionMetadata struct {
	Label  string `json:"label" mapstructure:"label"`
	NextID string `json:"nextId" mapstructure:"nextId"`
	To     string `json:"to" mapstructure:"to"`
}

func (o OptionMetadata) target() string {
	if o.NextID != "" {
		return o.NextID
	}
	return o.To
}
