package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to callers.
var (
	ErrNotStarted         = errors.New("engine not started")
	ErrNoSession          = errors.New("no active session")
	ErrSessionFinished    = errors.New("session already finished")
	ErrTooFewItems        = errors.New("a session needs at least two items")
	ErrInvalidItem        = errors.New("item is missing an id")
	ErrDuplicateItem      = errors.New("duplicate item id")
	ErrNoSelectionPending = errors.New("no selection awaiting an outcome")
	ErrWinnerNotOffered   = errors.New("winner is not part of the current selection")
	ErrUnknownItem        = errors.New("unknown item id")
	ErrNothingToUndo      = errors.New("nothing to undo")
)

func wrapResolve(err error) error {
	return fmt.Errorf("resolve: %w", err)
}

func wrapUndo(err error) error {
	return fmt.Errorf("undo: %w", err)
}
