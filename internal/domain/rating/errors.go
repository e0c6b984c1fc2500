package rating

import "errors"

// Sentinel kinds for rating update errors.
var (
	ErrMissingRecord = errors.New("missing rating record")
)
