package consistency

import (
	"time"

	"github.com/okian/duelrank/pkg/logger"
)

// Option configures an Auditor.
type Option func(*Auditor)

// WithInvalidator registers the cache to drop entries for changed items.
func WithInvalidator(inv Invalidator) Option {
	return func(a *Auditor) {
		a.invalidator = inv
	}
}

// WithLogger sets a custom logger on the auditor.
func WithLogger(l logger.Logger) Option {
	return func(a *Auditor) {
		if l != nil {
			a.log = l
		}
	}
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithAuditEvery sets how many comparisons elapse between passes.
func WithAuditEvery(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.every = n
		}
	}
}

// WithMinInterval sets the minimum wall-clock time between passes.
func WithMinInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.minInterval = d
		}
	}
}

// WithRunnerLogger sets a custom logger on the runner.
func WithRunnerLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}
