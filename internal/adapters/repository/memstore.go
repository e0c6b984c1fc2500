package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/duelrank/internal/domain/model"
)

// MemStore is the in-memory Store implementation.
//
// Ordering: rating DESC, then item id ASC (deterministic). The engine is
// the single writer; the lock protects concurrent readers such as HTTP
// handlers.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]*model.Record
	ids     []string // sorted, fixed between Resets
}

// NewMemStore constructs an empty store. Reset must be called before use.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]*model.Record)}
}

// Reset replaces all records with fresh ones for the given items.
func (s *MemStore) Reset(ctx context.Context, items []model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*model.Record, len(items))
	s.ids = make([]string, 0, len(items))
	for _, it := range items {
		s.records[it.ID] = model.NewRecord(it.ID)
		s.ids = append(s.ids, it.ID)
	}
	sort.Strings(s.ids)
}

// Get returns the live record for an item.
func (s *MemStore) Get(ctx context.Context, itemID string) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[itemID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// IDs returns all item ids in ascending order.
func (s *MemStore) IDs(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Count returns the number of tracked items.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Ranked returns all entries ordered by rating desc with tie handling.
func (s *MemStore) Ranked(ctx context.Context) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.records))
	for id, rec := range s.records {
		out = append(out, Entry{ItemID: id, Rating: rec.Rating})
	}
	sortEntries(out)
	assignRanksWithTies(out)
	return out
}

// Snapshot captures a deep copy of every record.
func (s *MemStore) Snapshot(ctx context.Context) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(Snapshot, len(s.records))
	for id, rec := range s.records {
		snap[id] = rec.Clone()
	}
	return snap
}

// Restore replaces the live records with a snapshot's contents.
func (s *MemStore) Restore(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(snap) != len(s.records) {
		return ErrSnapshotMismatch
	}
	restored := make(map[string]*model.Record, len(snap))
	for id, rec := range snap {
		if _, ok := s.records[id]; !ok {
			return ErrSnapshotMismatch
		}
		// Clone again so History keeps its own copy after the restore.
		restored[id] = rec.Clone()
	}
	s.records = restored
	return nil
}

// sortEntries orders by rating (descending) with item id (ascending) as
// the tie-breaker.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].ItemID < entries[j].ItemID
	})
}

// assignRanksWithTies assigns ranks with proper tie handling. Items with
// the same rating share a rank; the next distinct rating gets the next
// consecutive rank number.
func assignRanksWithTies(entries []Entry) {
	if len(entries) == 0 {
		return
	}

	currentRank := 1
	for i := 0; i < len(entries); i++ {
		entries[i].Rank = currentRank

		sameCount := 1
		for j := i + 1; j < len(entries) && entries[j].Rating == entries[i].Rating; j++ {
			entries[j].Rank = currentRank
			sameCount++
		}

		currentRank++
		i += sameCount - 1
	}
}
