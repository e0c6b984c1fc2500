package selection

import "errors"

// Sentinel kinds for selection errors.
var (
	ErrInsufficientItems = errors.New("fewer than two items to compare")
)
