package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// NewKind annotates a sentinel with the failing operation.
func NewKind(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
