// Package history keeps whole-snapshot undo/redo history for flow documents.
package history

// History is a list of snapshots with a cursor. Push after an Undo discards
// the redo tail. The zero value is not usable; call New.
type History[T any] struct {
	entries []T
	index   int
	limit   int
}

// HistoryOption configures a History.
type HistoryOption func(*historyConfig)

type historyConfig struct {
	limit int
}

// WithLimit bounds the number of retained snapshots. The oldest are dropped first.
// Values below 1 mean unbounded.
func WithLimit(n int) HistoryOption {
	return func(c *historyConfig) {
		c.limit = n
	}
}

// New returns a history whose only snapshot is initial.
func New[T any](initial T, opts ...HistoryOption) *History[T] {
	cfg := historyConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &History[T]{
		entries: []T{initial},
		limit:   cfg.limit,
	}
}

// Current returns the snapshot under the cursor.
func (h *History[T]) Current() T {
	return h.entries[h.index]
}

// Push records v as the new current snapshot.
func (h *History[T]) Push(v T) {
	h.entries = append(h.entries[:h.index+1], v)
	if h.limit > 0 && len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = append([]T(nil), h.entries[drop:]...)
	}
	h.index = len(h.entries) - 1
}

// Undo moves the cursor back. It reports false at the oldest snapshot.
func (h *History[T]) Undo() (T, bool) {
	if !h.CanUndo() {
		return h.Current(), false
	}
	h.index--
	return h.Current(), true
}

// Redo moves the cursor forward. It reports false at the newest snapshot.
func (h *History[T]) Redo() (T, bool) {
	if !h.CanRedo() {
		return h.Current(), false
	}
	h.index++
	return h.Current(), true
}

func (h *History[T]) CanUndo() bool { return h.index > 0 }

func (h *History[T]) CanRedo() bool { return h.index < len(h.entries)-1 }

// Len returns the number of retained snapshots.
func (h *History[T]) Len() int { return len(h.entries) }
