package workspace_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/branchflow/pkg/adapters/memory"
	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/ports"
	"github.com/aretw0/branchflow/pkg/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore widens the read-modify-write window so lost updates show up without locking.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, flowID string) (domain.Flow, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, flowID)
}

func sampleFlow() domain.Flow {
	return domain.Flow{
		Nodes: []domain.FlowNode{
			{ID: "1", Kind: domain.NodeKindStart, Text: "Hi", Options: []domain.Option{{Label: "Next", TargetID: "2"}}},
			{ID: "2", Kind: domain.NodeKindEnd, Text: "Bye", Options: []domain.Option{}},
		},
	}
}

func TestManager_UpdateSerializesWriters(t *testing.T) {
	manager := workspace.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, "race", func(flow *domain.Flow) error {
				flow.Nodes = append(flow.Nodes, domain.FlowNode{ID: fmt.Sprintf("n%d", len(flow.Nodes))})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	flow, err := manager.Load(ctx, "race")
	require.NoError(t, err)
	assert.Len(t, flow.Nodes, 20, "no update may be lost")
}

func TestManager_UpdateFailureSavesNothing(t *testing.T) {
	store := memory.NewStore()
	manager := workspace.NewManager(store)
	ctx := context.Background()
	require.NoError(t, manager.Save(ctx, "f", sampleFlow()))

	boom := errors.New("boom")
	_, err := manager.Update(ctx, "f", func(flow *domain.Flow) error {
		flow.Nodes = nil
		return boom
	})
	assert.ErrorIs(t, err, boom)

	flow, err := manager.Load(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, sampleFlow(), flow)
}

func TestManager_ChangeListener(t *testing.T) {
	var diffs []*domain.FlowDiff
	manager := workspace.NewManager(memory.NewStore(), workspace.WithChangeListener(func(_ context.Context, d *domain.FlowDiff) {
		diffs = append(diffs, d)
	}))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "f", sampleFlow()))
	require.NoError(t, manager.Save(ctx, "f", sampleFlow()), "identical save produces no diff")

	_, err := manager.Update(ctx, "f", func(flow *domain.Flow) error {
		flow.Nodes[1].Text = "See you"
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, manager.Delete(ctx, "f"))

	require.Len(t, diffs, 3)
	assert.Equal(t, []string{"1", "2"}, diffs[0].Added)
	assert.Equal(t, []string{"2"}, diffs[1].Changed)
	assert.Equal(t, []string{"1", "2"}, diffs[2].Removed)
	for _, d := range diffs {
		assert.Equal(t, "f", d.FlowID)
	}
}

func TestManager_Analyze(t *testing.T) {
	manager := workspace.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := manager.Analyze(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)

	flow := sampleFlow()
	flow.Nodes = append(flow.Nodes, domain.FlowNode{ID: "3", Kind: domain.NodeKindQuestion, Options: []domain.Option{}})
	require.NoError(t, manager.Save(ctx, "f", flow))

	analysis, err := manager.Analyze(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, "f", analysis.FlowID)
	require.Len(t, analysis.Issues, 1)
	assert.Equal(t, domain.IssueOrphaned, analysis.Issues[0].Kind)
	require.Len(t, analysis.Connections, 1)
	assert.Equal(t, "1-0-2", analysis.Connections[0].ID)
}

type recordingAnalyzer struct{ calls int }

func (r *recordingAnalyzer) Analyze(_ context.Context, flowID string, _ domain.Flow) domain.Analysis {
	r.calls++
	return domain.Analysis{FlowID: flowID}
}

func TestManager_CustomAnalyzer(t *testing.T) {
	rec := &recordingAnalyzer{}
	manager := workspace.NewManager(memory.NewStore(), workspace.WithAnalyzer(rec))
	ctx := context.Background()
	require.NoError(t, manager.Save(ctx, "f", sampleFlow()))

	_, err := manager.Analyze(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
}

type fakeLocker struct {
	mu      sync.Mutex
	locked  []string
	failFor string
}

func (f *fakeLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	if key == f.failFor {
		return nil, errors.New("unavailable")
	}
	f.mu.Lock()
	f.locked = append(f.locked, key)
	f.mu.Unlock()
	return func(context.Context) error { return nil }, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &fakeLocker{failFor: "blocked"}
	manager := workspace.NewManager(memory.NewStore(), workspace.WithLocker(locker))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "f", sampleFlow()))
	assert.Equal(t, []string{"f"}, locker.locked)

	err := manager.Save(ctx, "blocked", sampleFlow())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to acquire distributed lock")
}
