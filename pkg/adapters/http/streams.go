package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/branchflow/pkg/domain"
)

// StreamManager fans flow diffs out to SSE subscribers, keyed by flow id.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for flowID. Call the returned
// function to unsubscribe; it closes the channel.
func (sm *StreamManager) Subscribe(flowID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[flowID]; !ok {
		sm.subscribers[flowID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[flowID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[flowID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, flowID)
			}
		}
	}
}

// Subscribers returns the number of active subscribers of flowID.
func (sm *StreamManager) Subscribers(flowID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[flowID])
}

// Broadcast sends msg to every subscriber of flowID. Slow clients whose
// buffer is full miss the message.
func (sm *StreamManager) Broadcast(flowID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[flowID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "flow_id", flowID)
		}
	}
}

// OnChange broadcasts a diff as JSON. Its signature matches workspace.ChangeListener.
func (sm *StreamManager) OnChange(_ context.Context, diff *domain.FlowDiff) {
	data, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("SSE: failed to encode diff", "flow_id", diff.FlowID, "err", err)
		return
	}
	sm.Broadcast(diff.FlowID, string(data))
}
