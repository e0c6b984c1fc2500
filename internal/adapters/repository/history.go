package repository

import (
	"context"
	"sync"

	"github.com/okian/duelrank/internal/domain/model"
)

// HistoryEntry captures everything needed to undo one resolution: the
// expanded comparison events, the item ids that were on display, the
// full store snapshot taken before the resolution was applied, and the
// outcomes from earlier resolutions that were still buffered and
// therefore not reflected in that snapshot.
type HistoryEntry struct {
	Events    []model.ComparisonEvent
	Displayed []string
	Snapshot  Snapshot
	Pending   []model.ComparisonEvent
}

// History is the append-only log of resolved comparisons, kept as a LIFO
// stack for exact one-step undo. Depth is unbounded: one entry per
// resolution made during the session.
type History struct {
	mu      sync.RWMutex
	entries []HistoryEntry
}

// NewHistory constructs an empty history.
func NewHistory() *History {
	return &History{}
}

// Push appends an entry.
func (h *History) Push(ctx context.Context, entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
}

// Pop removes and returns the most recent entry.
// Returns ErrHistoryEmpty when nothing has been resolved.
func (h *History) Pop(ctx context.Context) (HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return HistoryEntry{}, ErrHistoryEmpty
	}
	last := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return last, nil
}

// Len returns the number of recorded resolutions.
func (h *History) Len(ctx context.Context) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Events returns every comparison event in resolution order. The
// consistency auditor derives the preference graph from this.
func (h *History) Events(ctx context.Context) []model.ComparisonEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]model.ComparisonEvent, 0, len(h.entries))
	for _, e := range h.entries {
		out = append(out, e.Events...)
	}
	return out
}

// Reset discards all entries.
func (h *History) Reset(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}
