package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractFlow() domain.Flow {
	return domain.Flow{
		Meta: domain.FlowMeta{Theme: "light", CanvasSize: domain.CanvasSize{W: 800, H: 600}},
		Nodes: []domain.FlowNode{
			{
				ID: "1", Kind: domain.NodeKindStart, Text: "Hi",
				Position: domain.Position{X: 12.5, Y: 40},
				Options:  []domain.Option{{Label: "go", TargetID: "2"}},
			},
			{ID: "2", Kind: domain.NodeKindEnd, Text: "Bye", Options: []domain.Option{}},
		},
	}
}

// RunFlowStoreContract runs a suite of tests to verify that a FlowStore implementation
// adheres to the defined interface contract.
func RunFlowStoreContract(t *testing.T, store FlowStore) {
	ctx := context.Background()
	flowID := "contract-test-flow-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		flow := contractFlow()

		err := store.Save(ctx, flowID, flow)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, flowID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, flow, loaded)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		flow := contractFlow()
		flow.Nodes[1].Text = "See you"
		require.NoError(t, store.Save(ctx, flowID, flow))

		loaded, err := store.Load(ctx, flowID)
		require.NoError(t, err)
		assert.Equal(t, "See you", loaded.Nodes[1].Text)
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, flowID)
		require.NoError(t, err)
		loaded.Nodes[0].Options[0].Label = "mutated"

		again, err := store.Load(ctx, flowID)
		require.NoError(t, err)
		assert.Equal(t, "go", again.Nodes[0].Options[0].Label)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+flowID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, flowID, contractFlow()))

		err := store.Delete(ctx, flowID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, flowID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound, "Load after Delete should return ErrFlowNotFound")

		assert.NoError(t, store.Delete(ctx, flowID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := flowID + "-1"
		id2 := flowID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractFlow()))
		require.NoError(t, store.Save(ctx, id2, contractFlow()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
