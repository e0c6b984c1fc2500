package batch

import "errors"

// ErrQueueFull is returned when the outcome buffer is at capacity.
var ErrQueueFull = errors.New("outcome queue is full")
