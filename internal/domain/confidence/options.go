package confidence

import (
	"github.com/okian/duelrank/pkg/logger"
)

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithWeights replaces the factor blend.
func WithWeights(w Weights) Option {
	return func(e *Estimator) {
		e.weights = w
	}
}

// WithMinComparisons sets the comparison count below which confidence is
// pinned to the floor.
func WithMinComparisons(n int) Option {
	return func(e *Estimator) {
		if n >= 0 {
			e.minComparisons = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.logger = l
		}
	}
}
