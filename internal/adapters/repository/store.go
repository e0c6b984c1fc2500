// Package repository holds the authoritative rating store and the
// comparison history used for undo.
package repository

import (
	"context"

	"github.com/okian/duelrank/internal/domain/model"
)

// Entry represents one row of the ranked standings.
type Entry struct {
	Rank   int
	ItemID string
	Rating float64
}

// Snapshot is a deep value copy of every record, detached from the live
// store. History entries own snapshots; the live store never shares
// record pointers with them.
type Snapshot map[string]*model.Record

// Store provides read/write access to the per-item rating records.
// The item set is fixed between Reset calls.
type Store interface {
	// Reset replaces all records with fresh ones for the given items.
	Reset(ctx context.Context, items []model.Item)

	// Get returns the live record for an item.
	// Returns ErrNotFound if the item is unknown.
	Get(ctx context.Context, itemID string) (*model.Record, error)

	// IDs returns all item ids in deterministic (ascending) order.
	IDs(ctx context.Context) []string

	// Count returns the number of tracked items.
	Count(ctx context.Context) int

	// Ranked returns all entries ordered by rating desc with tie-aware
	// rank numbers.
	Ranked(ctx context.Context) []Entry

	// Snapshot captures a deep copy of every record.
	Snapshot(ctx context.Context) Snapshot

	// Restore replaces the live records with a previously captured
	// snapshot. The snapshot's item set must match the store's.
	Restore(ctx context.Context, snap Snapshot) error
}
