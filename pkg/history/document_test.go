package history_test

import (
	"testing"

	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseFlow() domain.Flow {
	return domain.Flow{
		Nodes: []domain.FlowNode{
			{ID: "1", Kind: domain.NodeKindStart, Text: "Hi", Options: []domain.Option{{Label: "Next", TargetID: "2"}}},
			{ID: "2", Kind: domain.NodeKindEnd, Text: "Bye", Options: []domain.Option{}},
		},
	}
}

func TestDocument_EditsAreUndoable(t *testing.T) {
	doc := history.NewDocument(baseFlow())

	require.NoError(t, doc.UpdateNodeText("1", "Hello"))
	require.NoError(t, doc.MoveNode("2", domain.Position{X: 300, Y: 40}))

	cur := doc.Current()
	assert.Equal(t, "Hello", cur.Nodes[0].Text)
	assert.Equal(t, domain.Position{X: 300, Y: 40}, cur.Nodes[1].Position)

	prev, err := doc.Undo()
	require.NoError(t, err)
	assert.Equal(t, domain.Position{}, prev.Nodes[1].Position)
	assert.Equal(t, "Hello", prev.Nodes[0].Text)

	prev, err = doc.Undo()
	require.NoError(t, err)
	assert.Equal(t, baseFlow(), prev)

	_, err = doc.Undo()
	assert.ErrorIs(t, err, domain.ErrNothingToUndo)

	next, err := doc.Redo()
	require.NoError(t, err)
	assert.Equal(t, "Hello", next.Nodes[0].Text)
}

func TestDocument_RedoAfterEditFails(t *testing.T) {
	doc := history.NewDocument(baseFlow())
	require.NoError(t, doc.UpdateNodeText("1", "A"))
	_, err := doc.Undo()
	require.NoError(t, err)

	require.NoError(t, doc.UpdateNodeText("1", "B"))

	assert.False(t, doc.CanRedo())
	_, err = doc.Redo()
	assert.ErrorIs(t, err, domain.ErrNothingToRedo)
}

func TestDocument_AddAndDeleteNode(t *testing.T) {
	doc := history.NewDocument(baseFlow())

	require.NoError(t, doc.AddNode(domain.FlowNode{ID: "3", Kind: domain.NodeKindQuestion, Text: "More?"}))
	assert.Len(t, doc.Current().Nodes, 3)

	err := doc.AddNode(domain.FlowNode{ID: "3"})
	assert.ErrorIs(t, err, domain.ErrDuplicateNode)
	assert.Len(t, doc.Current().Nodes, 3, "failed edits do not create snapshots")

	require.NoError(t, doc.DeleteNode("2"))
	cur := doc.Current()
	require.Len(t, cur.Nodes, 2)
	assert.Equal(t, "3", cur.Nodes[1].ID)
	assert.Equal(t, "2", cur.Nodes[0].Options[0].TargetID, "dangling options are kept")

	assert.ErrorIs(t, doc.DeleteNode("nope"), domain.ErrNodeNotFound)
	assert.ErrorIs(t, doc.UpdateNodeText("nope", "x"), domain.ErrNodeNotFound)
}

func TestDocument_SetOptions(t *testing.T) {
	doc := history.NewDocument(baseFlow())
	opts := []domain.Option{{Label: "Loop", TargetID: "1"}}

	require.NoError(t, doc.SetOptions("2", opts))
	opts[0].Label = "mutated"

	assert.Equal(t, "Loop", doc.Current().Nodes[1].Options[0].Label)
}

func TestDocument_SnapshotsAreIndependent(t *testing.T) {
	flow := baseFlow()
	doc := history.NewDocument(flow)

	flow.Nodes[0].Text = "mutated input"
	cur := doc.Current()
	cur.Nodes[0].Options[0].Label = "mutated output"

	assert.Equal(t, baseFlow(), doc.Current())
}
