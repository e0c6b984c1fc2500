package consistency

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/duelrank/pkg/logger"
	"github.com/okian/duelrank/pkg/metrics"
)

// Runner schedule defaults.
const (
	defaultAuditEvery  = 10
	defaultMinInterval = 500 * time.Millisecond
)

// Runner triggers audit passes on a comparison cadence with a minimum
// wall-clock interval. Overlapping invocations are skipped via a
// non-blocking flag; there is only one logical writer, so a skipped pass
// simply waits for the next trigger.
type Runner struct {
	auditor     *Auditor
	every       int
	minInterval time.Duration
	log         logger.Logger

	running atomic.Bool

	mu      sync.Mutex
	lastRun time.Time
	lastAt  int // comparison count at the previous run
}

// NewRunner wraps an auditor with trigger scheduling.
func NewRunner(auditor *Auditor, opts ...RunnerOption) *Runner {
	r := &Runner{
		auditor:     auditor,
		every:       defaultAuditEvery,
		minInterval: defaultMinInterval,
		log:         logger.Named("audit"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaybeRun executes an audit pass when the comparison cadence and the
// minimum interval both allow it. Returns the result and whether a pass
// actually ran.
func (r *Runner) MaybeRun(ctx context.Context, comparisons int) (Result, bool) {
	r.mu.Lock()
	due := comparisons-r.lastAt >= r.every
	tooSoon := !r.lastRun.IsZero() && time.Since(r.lastRun) < r.minInterval
	r.mu.Unlock()

	if !due {
		return Result{}, false
	}
	if tooSoon {
		metrics.RecordAuditSkipped()
		return Result{}, false
	}

	res, err := r.Run(ctx, comparisons)
	if err != nil {
		if err != ErrAuditInProgress {
			r.log.Error(ctx, "audit pass failed", logger.Error(err))
		}
		return Result{}, false
	}
	return res, true
}

// Run forces an audit pass regardless of cadence. Returns
// ErrAuditInProgress when another pass is still running.
func (r *Runner) Run(ctx context.Context, comparisons int) (Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		metrics.RecordAuditSkipped()
		return Result{}, ErrAuditInProgress
	}
	defer r.running.Store(false)

	res, err := r.auditor.Run(ctx)
	if err != nil {
		return Result{}, err
	}

	r.mu.Lock()
	r.lastRun = time.Now()
	r.lastAt = comparisons
	r.mu.Unlock()
	return res, nil
}

// Reset clears the schedule state for a new session.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRun = time.Time{}
	r.lastAt = 0
}
