package history

import (
	"fmt"

	"github.com/aretw0/branchflow/pkg/domain"
)

// Document is an editable flow backed by a History. Every edit produces a
// fresh snapshot; snapshots handed out are never mutated afterwards.
type Document struct {
	history *History[domain.Flow]
}

// NewDocument starts a document from flow. The flow is copied.
func NewDocument(flow domain.Flow, opts ...HistoryOption) *Document {
	return &Document{history: New(flow.Clone(), opts...)}
}

// Current returns a copy of the current snapshot.
func (d *Document) Current() domain.Flow {
	return d.history.Current().Clone()
}

func (d *Document) CanUndo() bool { return d.history.CanUndo() }

func (d *Document) CanRedo() bool { return d.history.CanRedo() }

// Undo restores the previous snapshot.
func (d *Document) Undo() (domain.Flow, error) {
	flow, ok := d.history.Undo()
	if !ok {
		return domain.Flow{}, domain.ErrNothingToUndo
	}
	return flow.Clone(), nil
}

// Redo re-applies the next snapshot.
func (d *Document) Redo() (domain.Flow, error) {
	flow, ok := d.history.Redo()
	if !ok {
		return domain.Flow{}, domain.ErrNothingToRedo
	}
	return flow.Clone(), nil
}

// UpdateNodeText replaces the text of a node.
func (d *Document) UpdateNodeText(nodeID, text string) error {
	return d.editNode(nodeID, func(n *domain.FlowNode) { n.Text = text })
}

// MoveNode sets the canvas position of a node.
func (d *Document) MoveNode(nodeID string, pos domain.Position) error {
	return d.editNode(nodeID, func(n *domain.FlowNode) { n.Position = pos })
}

// SetOptions replaces the options of a node.
func (d *Document) SetOptions(nodeID string, options []domain.Option) error {
	return d.editNode(nodeID, func(n *domain.FlowNode) {
		n.Options = append([]domain.Option{}, options...)
	})
}

// AddNode appends a node. Ids must be unique.
func (d *Document) AddNode(node domain.FlowNode) error {
	if node.ID == "" {
		return fmt.Errorf("node id cannot be empty")
	}
	next := d.history.Current().Clone()
	if _, exists := next.FindNode(node.ID); exists {
		return fmt.Errorf("add node %s: %w", node.ID, domain.ErrDuplicateNode)
	}
	next.Nodes = append(next.Nodes, node.Clone())
	d.history.Push(next)
	return nil
}

// DeleteNode removes a node. Options pointing at it are left dangling and
// surface as missing-target issues.
func (d *Document) DeleteNode(nodeID string) error {
	next := d.history.Current().Clone()
	for i := range next.Nodes {
		if next.Nodes[i].ID == nodeID {
			next.Nodes = append(next.Nodes[:i], next.Nodes[i+1:]...)
			d.history.Push(next)
			return nil
		}
	}
	return fmt.Errorf("delete node %s: %w", nodeID, domain.ErrNodeNotFound)
}

// Replace records flow as a new snapshot, e.g. after an external load.
func (d *Document) Replace(flow domain.Flow) {
	d.history.Push(flow.Clone())
}

func (d *Document) editNode(nodeID string, fn func(*domain.FlowNode)) error {
	next := d.history.Current().Clone()
	node, ok := next.FindNode(nodeID)
	if !ok {
		return fmt.Errorf("edit node %s: %w", nodeID, domain.ErrNodeNotFound)
	}
	fn(node)
	d.history.Push(next)
	return nil
}
