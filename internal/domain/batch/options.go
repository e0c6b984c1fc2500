package batch

import "github.com/okian/duelrank/pkg/logger"

// Option configures a Queue.
type Option func(*Queue)

// WithCapacity sets the maximum number of buffered outcomes.
func WithCapacity(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.log = l
		}
	}
}
