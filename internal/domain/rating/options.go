package rating

import (
	"github.com/okian/duelrank/pkg/logger"
)

// Option applies a configuration option to the Updater.
type Option func(*Updater)

// WithBaseRate sets the base learning rate.
func WithBaseRate(rate float64) Option {
	return func(u *Updater) {
		if rate > 0 {
			u.baseRate = rate
		}
	}
}

// WithRateBounds sets the learning-rate clamp.
func WithRateBounds(minRate, maxRate float64) Option {
	return func(u *Updater) {
		if minRate > 0 && maxRate > minRate {
			u.minRate = minRate
			u.maxRate = maxRate
		}
	}
}

// WithMomentumScale sets how strongly a batch delta feeds momentum.
func WithMomentumScale(scale float64) Option {
	return func(u *Updater) {
		if scale > 0 {
			u.momScale = scale
		}
	}
}

// WithConfidenceFn sets the confidence resolver used for damping.
func WithConfidenceFn(fn ConfidenceFn) Option {
	return func(u *Updater) {
		if fn != nil {
			u.confidence = fn
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(u *Updater) {
		if l != nil {
			u.logger = l
		}
	}
}
