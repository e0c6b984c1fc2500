package engine

import (
	"time"

	"github.com/okian/duelrank/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSeed sets the default pseudo-random seed for sessions.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithComparisonMultiplier scales the derived comparison budget:
// ceil(multiplier * n * log2(n)).
func WithComparisonMultiplier(m float64) Option {
	return func(e *Engine) {
		if m > 0 {
			e.comparisonMultiplier = m
		}
	}
}

// WithRecencyWindow sets how many trailing resolutions a pair stays
// penalized for during selection.
func WithRecencyWindow(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.recencyWindow = n
		}
	}
}

// WithAuditSchedule sets the comparison cadence and minimum interval for
// consistency audits.
func WithAuditSchedule(every int, minInterval time.Duration) Option {
	return func(e *Engine) {
		if every > 0 {
			e.auditEvery = every
		}
		if minInterval > 0 {
			e.auditMinInterval = minInterval
		}
	}
}

// WithMinComparisons sets the per-item count below which confidence is
// pinned to its floor.
func WithMinComparisons(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.minComparisons = n
		}
	}
}

// WithConfidenceWeights replaces the confidence factor blend.
func WithConfidenceWeights(weights map[string]float64) Option {
	return func(e *Engine) {
		if len(weights) > 0 {
			e.weights = weights
		}
	}
}

// WithQueueCapacity sets the outcome buffer capacity.
func WithQueueCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.queueCapacity = n
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
