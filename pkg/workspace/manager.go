package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/branchflow/internal/logging"
	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/ports"
	"github.com/aretw0/branchflow/pkg/routing"
	"github.com/aretw0/branchflow/pkg/validation"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// ChangeListener is notified after a flow was saved or deleted with a non-empty diff.
type ChangeListener func(ctx context.Context, diff *domain.FlowDiff)

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to stored flows.
type Manager struct {
	store ports.FlowStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker    ports.DistributedLocker
	lockTTL   time.Duration
	analyzer  ports.Analyzer
	listeners []ChangeListener
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock expiration.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithAnalyzer replaces the analyzer used by Analyze.
func WithAnalyzer(a ports.Analyzer) Option {
	return func(m *Manager) {
		m.analyzer = a
	}
}

// WithChangeListener registers a listener for flow diffs.
func WithChangeListener(l ChangeListener) Option {
	return func(m *Manager) {
		m.listeners = append(m.listeners, l)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over store.
func NewManager(store ports.FlowStore, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		locks:    make(map[string]*lockEntry),
		lockTTL:  DefaultLockTTL,
		analyzer: plainAnalyzer{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the underlying flow store.
func (m *Manager) Store() ports.FlowStore {
	return m.store
}

// Load returns the stored flow.
func (m *Manager) Load(ctx context.Context, flowID string) (domain.Flow, error) {
	var flow domain.Flow
	err := m.WithLock(ctx, flowID, func(ctx context.Context) error {
		var err error
		flow, err = m.store.Load(ctx, flowID)
		return err
	})
	return flow, err
}

// Save replaces the stored flow and notifies listeners of the difference.
func (m *Manager) Save(ctx context.Context, flowID string, flow domain.Flow) error {
	return m.WithLock(ctx, flowID, func(ctx context.Context) error {
		old, err := m.loadOrEmpty(ctx, flowID)
		if err != nil {
			return err
		}
		return m.commit(ctx, flowID, old, flow)
	})
}

// Update loads the flow, applies fn to a private copy and saves the result.
// A missing flow starts empty. If fn fails nothing is saved.
func (m *Manager) Update(ctx context.Context, flowID string, fn func(flow *domain.Flow) error) (domain.Flow, error) {
	var updated domain.Flow
	err := m.WithLock(ctx, flowID, func(ctx context.Context) error {
		old, err := m.loadOrEmpty(ctx, flowID)
		if err != nil {
			return err
		}
		next := old.Clone()
		if err := fn(&next); err != nil {
			return err
		}
		if err := m.commit(ctx, flowID, old, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	return updated, err
}

// Delete removes the flow. Listeners see every node as removed.
func (m *Manager) Delete(ctx context.Context, flowID string) error {
	return m.WithLock(ctx, flowID, func(ctx context.Context) error {
		old, err := m.loadOrEmpty(ctx, flowID)
		if err != nil {
			return err
		}
		if err := m.store.Delete(ctx, flowID); err != nil {
			return err
		}
		m.notify(ctx, domain.Diff(flowID, &old, &domain.Flow{}))
		return nil
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Analyze validates and routes the stored flow.
func (m *Manager) Analyze(ctx context.Context, flowID string) (domain.Analysis, error) {
	flow, err := m.Load(ctx, flowID)
	if err != nil {
		return domain.Analysis{}, err
	}
	return m.analyzer.Analyze(ctx, flowID, flow), nil
}

// WithLock executes fn while holding the lock for flowID.
func (m *Manager) WithLock(ctx context.Context, flowID string, fn func(context.Context) error) error {
	entry := m.acquire(flowID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(flowID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, flowID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"flow_id", flowID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) commit(ctx context.Context, flowID string, old, next domain.Flow) error {
	if err := m.store.Save(ctx, flowID, next); err != nil {
		return fmt.Errorf("failed to save flow %s: %w", flowID, err)
	}
	m.notify(ctx, domain.Diff(flowID, &old, &next))
	return nil
}

func (m *Manager) loadOrEmpty(ctx context.Context, flowID string) (domain.Flow, error) {
	flow, err := m.store.Load(ctx, flowID)
	if errors.Is(err, domain.ErrFlowNotFound) {
		return domain.Flow{}, nil
	}
	if err != nil {
		return domain.Flow{}, fmt.Errorf("failed to load flow %s: %w", flowID, err)
	}
	return flow, nil
}

func (m *Manager) notify(ctx context.Context, diff *domain.FlowDiff) {
	if diff == nil {
		return
	}
	m.logger.Debug("flow changed",
		"flow_id", diff.FlowID,
		"added", len(diff.Added),
		"removed", len(diff.Removed),
		"changed", len(diff.Changed),
	)
	for _, l := range m.listeners {
		l(ctx, diff)
	}
}

// acquire gets or creates a lock entry and increments its reference count.
func (m *Manager) acquire(flowID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[flowID]
	if !exists {
		entry = &lockEntry{}
		m.locks[flowID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and drops idle entries.
func (m *Manager) release(flowID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[flowID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, flowID)
	}
}

type plainAnalyzer struct{}

func (plainAnalyzer) Analyze(_ context.Context, flowID string, flow domain.Flow) domain.Analysis {
	return domain.Analysis{
		FlowID:      flowID,
		Issues:      validation.Validate(flow),
		Connections: routing.Route(flow.Nodes),
	}
}
