package selection

import (
	"math/rand"

	"github.com/okian/duelrank/pkg/logger"
)

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithSeed seeds the selector's pseudo-random generator.
func WithSeed(seed int64) Option {
	return func(s *Selector) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // reproducibility, not security
	}
}

// WithRecencyWindow sets how many trailing resolutions a pair stays
// recently compared for.
func WithRecencyWindow(window int) Option {
	return func(s *Selector) {
		if window >= 0 {
			s.recencyWindow = window
		}
	}
}

// WithConfidenceFn sets the confidence resolver used by the value function.
func WithConfidenceFn(fn ConfidenceFn) Option {
	return func(s *Selector) {
		if fn != nil {
			s.confidence = fn
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}
