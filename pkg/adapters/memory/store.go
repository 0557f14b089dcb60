package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/branchflow/pkg/domain"
)

// Store implements ports.FlowStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Flow
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Flow),
	}
}

// Save persists the flow in memory.
func (s *Store) Save(ctx context.Context, flowID string, flow domain.Flow) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := flow.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[flowID] = copied
	return nil
}

// Load retrieves the flow from memory.
func (s *Store) Load(ctx context.Context, flowID string) (domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flow, ok := s.data[flowID]
	if !ok {
		return domain.Flow{}, domain.ErrFlowNotFound
	}

	// Copy on read so callers can't mutate the stored snapshot.
	return flow.Clone(), nil
}

// Delete removes the flow.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, flowID)
	return nil
}

// List returns stored flow ids in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
