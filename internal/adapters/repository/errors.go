package repository

import "errors"

// Sentinel kinds for rating store errors.
var (
	ErrNotFound         = errors.New("item not found")
	ErrHistoryEmpty     = errors.New("history is empty")
	ErrSnapshotMismatch = errors.New("snapshot item set does not match store")
)
