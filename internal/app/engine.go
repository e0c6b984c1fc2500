// Package engine drives a ranking session: it owns the rating store, the
// comparison history, and every domain component, and advances the
// session state machine as outcomes arrive.
package engine

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/duelrank/internal/adapters/repository"
	"github.com/okian/duelrank/internal/domain/batch"
	"github.com/okian/duelrank/internal/domain/confidence"
	"github.com/okian/duelrank/internal/domain/consistency"
	"github.com/okian/duelrank/internal/domain/convergence"
	"github.com/okian/duelrank/internal/domain/model"
	"github.com/okian/duelrank/internal/domain/rating"
	"github.com/okian/duelrank/internal/domain/selection"
	"github.com/okian/duelrank/internal/domain/types"
	"github.com/okian/duelrank/pkg/logger"
	"github.com/okian/duelrank/pkg/metrics"
)

// State names the engine's position in its session loop.
type State string

// Session states.
const (
	StateIdle            State = "idle"
	StateSelecting       State = "selecting"
	StateAwaitingOutcome State = "awaiting_outcome"
	StateBatching        State = "batching"
	StateAuditing        State = "auditing"
	StateConverged       State = "converged"
)

// Progress is capped so the selector and updater always see a value in
// [0, 1] even when callers resolve past the budget.
const maxProgress = 1.0

// Engine implements the ranking session lifecycle. One engine serves one
// session at a time; starting a new session destroys the previous one.
// All mutations go through a single mutex, so batches apply atomically
// and audits never interleave with updates.
type Engine struct {
	mu sync.Mutex

	// Configuration
	seed                 int64
	comparisonMultiplier float64
	recencyWindow        int
	auditEvery           int
	auditMinInterval     time.Duration
	minComparisons       int
	weights              map[string]float64
	queueCapacity        int

	// Long-lived components
	store   *repository.MemStore
	history *repository.History

	// Per-session components, rebuilt by StartSession
	queue       *batch.Queue
	updater     *rating.Updater
	selector    *selection.Selector
	estimator   *confidence.Estimator
	auditRunner *consistency.Runner
	monitor     *convergence.Monitor

	// Session state
	sessionID      string
	items          map[string]types.Item
	state          State
	comparisons    int // resolutions so far
	maxComparisons int
	seq            int
	current        []string
	currentPhase   selection.Phase
	converged      bool
	batchFlushes   int
	auditRuns      int
	corrections    int

	started bool
	logger  logger.Logger
}

// New constructs an engine with default configuration.
func New(opts ...Option) *Engine {
	e := &Engine{
		seed:                 42,
		comparisonMultiplier: 0.8,
		recencyWindow:        5,
		auditEvery:           10,
		auditMinInterval:     500 * time.Millisecond,
		minComparisons:       3,
		weights:              nil,
		queueCapacity:        1024,
		state:                StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start initializes the long-lived components. Safe to call once before
// serving; sessions are created separately via StartSession.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("engine")
	}

	e.store = repository.NewMemStore()
	e.history = repository.NewHistory()
	e.started = true
	e.logger.Info(ctx, "ranking engine started",
		logger.Int64("seed", e.seed),
		logger.Float64("comparison_multiplier", e.comparisonMultiplier))
	return nil
}

// Stop shuts the engine down. The session, if any, is discarded.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return
	}
	e.state = StateIdle
	e.sessionID = ""
	e.started = false
	e.logger.Info(context.Background(), "ranking engine stopped")
}

// State reports the current session state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// StartSession begins ranking the given items, destroying any previous
// session. A maxComparisons of 0 derives the budget from the item count;
// a seed of 0 keeps the engine default.
func (e *Engine) StartSession(ctx context.Context, items []types.Item, maxComparisons int, seed int64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return "", ErrNotStarted
	}
	if len(items) < 2 {
		return "", ErrTooFewItems
	}

	byID := make(map[string]types.Item, len(items))
	records := make([]model.Item, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			return "", ErrInvalidItem
		}
		if _, dup := byID[it.ID]; dup {
			return "", ErrDuplicateItem
		}
		byID[it.ID] = it
		records = append(records, model.Item{
			ID:       it.ID,
			Title:    it.Title,
			Year:     it.Year,
			ImageRef: it.ImageRef,
		})
	}

	if seed == 0 {
		seed = e.seed
	}
	n := len(items)
	if maxComparisons <= 0 {
		maxComparisons = int(math.Ceil(e.comparisonMultiplier * float64(n) * math.Log2(float64(n))))
	}

	e.store.Reset(ctx, records)
	e.history.Reset(ctx)
	e.buildSessionComponents(seed)

	e.sessionID = uuid.NewString()
	e.items = byID
	e.comparisons = 0
	e.maxComparisons = maxComparisons
	e.seq = 0
	e.current = nil
	e.currentPhase = ""
	e.converged = false
	e.batchFlushes = 0
	e.auditRuns = 0
	e.corrections = 0
	e.state = StateSelecting

	metrics.RecordSessionStarted()
	metrics.UpdateItemsTracked(n)
	e.logger.Info(ctx, "session started",
		logger.String("session_id", e.sessionID),
		logger.Int("items", n),
		logger.Int("max_comparisons", maxComparisons),
		logger.Int64("seed", seed))
	return e.sessionID, nil
}

// buildSessionComponents wires fresh domain components around the reset
// store and history. Caller holds the lock.
func (e *Engine) buildSessionComponents(seed int64) {
	estOpts := []confidence.Option{
		confidence.WithMinComparisons(e.minComparisons),
	}
	if e.weights != nil {
		estOpts = append(estOpts, confidence.WithWeights(confidence.WeightsFromConfig(e.weights)))
	}
	e.estimator = confidence.NewEstimator(e.store, e.history, estOpts...)

	e.selector = selection.NewSelector(e.store,
		selection.WithSeed(seed),
		selection.WithRecencyWindow(e.recencyWindow),
		selection.WithConfidenceFn(e.estimator.Confidence),
	)
	e.updater = rating.NewUpdater(e.store,
		rating.WithConfidenceFn(e.estimator.Confidence),
	)
	e.queue = batch.NewQueue(batch.WithCapacity(e.queueCapacity))
	e.auditRunner = consistency.NewRunner(
		consistency.NewAuditor(e.store, e.history,
			consistency.WithInvalidator(e.estimator)),
		consistency.WithAuditEvery(e.auditEvery),
		consistency.WithMinInterval(e.auditMinInterval),
	)
	e.monitor = convergence.NewMonitor(e.store, e.history, e.estimator)
}

// progressLocked is the share of the comparison budget already spent.
func (e *Engine) progressLocked() float64 {
	if e.maxComparisons == 0 {
		return 0
	}
	p := float64(e.comparisons) / float64(e.maxComparisons)
	if p > maxProgress {
		return maxProgress
	}
	return p
}

// CurrentSelection returns the pair or group awaiting an outcome,
// computing a fresh one when the previous resolution completed. It never
// returns an empty selection while the session is unfinished.
func (e *Engine) CurrentSelection(ctx context.Context) (types.Selection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sessionID == "" {
		return types.Selection{}, ErrNoSession
	}
	if e.finishedLocked() {
		return types.Selection{}, ErrSessionFinished
	}

	if e.current == nil {
		ids, phase, err := e.selector.Next(ctx, e.progressLocked())
		if err != nil {
			return types.Selection{}, err
		}
		e.current = ids
		e.currentPhase = phase
		e.state = StateAwaitingOutcome
	}
	return e.selectionLocked(), nil
}

func (e *Engine) selectionLocked() types.Selection {
	sel := types.Selection{Phase: string(e.currentPhase)}
	for _, id := range e.current {
		sel.Items = append(sel.Items, e.items[id])
	}
	return sel
}

// Resolve records the winner among the compared members. With nil
// members the current selection is resolved; explicit members record an
// ad-hoc outcome and discard any pending selection. A group choice of k
// members expands into k-1 pairwise outcomes sharing one history entry.
func (e *Engine) Resolve(ctx context.Context, winnerID string, members []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sessionID == "" {
		return ErrNoSession
	}
	if e.finishedLocked() {
		return ErrSessionFinished
	}

	displayed := members
	if displayed == nil {
		if e.current == nil {
			return ErrNoSelectionPending
		}
		displayed = e.current
	} else {
		if len(displayed) < 2 {
			return ErrTooFewItems
		}
		seen := make(map[string]struct{}, len(displayed))
		for _, id := range displayed {
			if _, ok := e.items[id]; !ok {
				return ErrUnknownItem
			}
			if _, dup := seen[id]; dup {
				return ErrDuplicateItem
			}
			seen[id] = struct{}{}
		}
	}
	if !containsID(displayed, winnerID) {
		return ErrWinnerNotOffered
	}

	progress := e.progressLocked()
	snapshot := e.store.Snapshot(ctx)
	pending := e.queue.Pending(ctx)

	e.seq++
	e.comparisons++

	var groupMembers []string
	if len(displayed) > 2 {
		groupMembers = displayed
		metrics.RecordGroupComparison()
	}
	metrics.RecordComparisonResolved()

	events := make([]model.ComparisonEvent, 0, len(displayed)-1)
	for _, loserID := range displayed {
		if loserID == winnerID {
			continue
		}
		ev := model.ComparisonEvent{
			EventID:      uuid.NewString(),
			WinnerID:     winnerID,
			LoserID:      loserID,
			GroupMembers: groupMembers,
			Seq:          e.seq,
			HighImpact:   e.highImpact(ctx, winnerID, loserID, progress),
		}
		events = append(events, ev)
		e.selector.NotePair(winnerID, loserID)
	}

	e.history.Push(ctx, repository.HistoryEntry{
		Events:    events,
		Displayed: displayed,
		Snapshot:  snapshot,
		Pending:   pending,
	})

	for _, ev := range events {
		if err := e.queue.Enqueue(ctx, ev, e.pairUncertainty(ctx, ev)); err != nil {
			e.logger.Error(ctx, "enqueue failed; applying outcome directly", logger.Error(err))
			if _, applyErr := e.updater.Apply(ctx, []model.ComparisonEvent{ev}, progress); applyErr != nil {
				return wrapResolve(applyErr)
			}
		}
	}

	e.current = nil
	e.currentPhase = ""
	e.state = StateBatching

	if e.queue.Len(ctx) >= e.batchSizeLocked(ctx, progress) {
		if err := e.flushLocked(ctx, progress); err != nil {
			return wrapResolve(err)
		}
	}

	e.state = StateAuditing
	if res, ran := e.auditRunner.MaybeRun(ctx, e.comparisons); ran {
		e.auditRuns++
		e.corrections += res.Corrections
	}

	if e.converged || e.comparisons >= e.maxComparisons {
		e.state = StateConverged
	} else {
		e.state = StateSelecting
	}
	return nil
}

func (e *Engine) highImpact(ctx context.Context, winnerID, loserID string, progress float64) bool {
	winner, errW := e.store.Get(ctx, winnerID)
	loser, errL := e.store.Get(ctx, loserID)
	if errW != nil || errL != nil {
		return false
	}
	return rating.HighImpact(winner, loser, progress)
}

func (e *Engine) pairUncertainty(ctx context.Context, ev model.ComparisonEvent) float64 {
	u := 0.0
	for _, id := range []string{ev.WinnerID, ev.LoserID} {
		if rec, err := e.store.Get(ctx, id); err == nil && rec.RatingUncertainty > u {
			u = rec.RatingUncertainty
		}
	}
	return u
}

// batchSizeLocked derives the flush threshold from item count, phase,
// and average recent volatility.
func (e *Engine) batchSizeLocked(ctx context.Context, progress float64) int {
	ids := e.store.IDs(ctx)
	var vol float64
	for _, id := range ids {
		if rec, err := e.store.Get(ctx, id); err == nil {
			vol += rating.Volatility(rec)
		}
	}
	if len(ids) > 0 {
		vol /= float64(len(ids))
	}
	return batch.SizeFor(len(ids), selection.PhaseFor(progress), vol)
}

// flushLocked drains the queue and applies the batch atomically, then
// invalidates caches, observes the new standings, and evaluates
// convergence.
func (e *Engine) flushLocked(ctx context.Context, progress float64) error {
	outcomes := e.queue.Drain(ctx)
	if len(outcomes) == 0 {
		return nil
	}

	changed, err := e.updater.Apply(ctx, outcomes, progress)
	if err != nil {
		return err
	}
	e.batchFlushes++
	e.estimator.Invalidate(changed)
	e.monitor.Observe(ctx)

	if report := e.monitor.Evaluate(ctx, progress); report.Converged {
		e.converged = true
	}
	return nil
}

// Undo reverts the most recent resolution: the store snapshot is
// restored, unflushed outcomes from that resolution are dropped, earlier
// outcomes the restored snapshot reverted are queued again, and the
// previously displayed selection is offered again.
func (e *Engine) Undo(ctx context.Context) (types.Selection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sessionID == "" {
		return types.Selection{}, ErrNoSession
	}

	entry, err := e.history.Pop(ctx)
	if err != nil {
		return types.Selection{}, ErrNothingToUndo
	}
	if err := e.store.Restore(ctx, entry.Snapshot); err != nil {
		return types.Selection{}, wrapUndo(err)
	}

	removed := 0
	if len(entry.Events) > 0 {
		removed = e.queue.RemoveSeq(ctx, entry.Events[0].Seq)
	}
	e.comparisons--

	// A flush drains the whole queue, so finding none of this
	// resolution's outcomes queued with the queue now empty means the
	// batch was already applied. The restored snapshot then also reverted
	// the outcomes that were pending when it was taken; queue them again
	// so the next flush re-applies them.
	if removed == 0 && e.queue.Len(ctx) == 0 {
		progress := e.progressLocked()
		for _, ev := range entry.Pending {
			if err := e.queue.Enqueue(ctx, ev, e.pairUncertainty(ctx, ev)); err != nil {
				if _, applyErr := e.updater.Apply(ctx, []model.ComparisonEvent{ev}, progress); applyErr != nil {
					return types.Selection{}, wrapUndo(applyErr)
				}
			}
		}
	}
	e.converged = false
	e.estimator.InvalidateAll()

	e.current = entry.Displayed
	e.currentPhase = phaseForSize(len(entry.Displayed))
	e.state = StateAwaitingOutcome

	metrics.RecordUndo()
	e.logger.Debug(ctx, "resolution undone",
		logger.Int("comparisons", e.comparisons),
		logger.Int("restored_selection", len(entry.Displayed)))
	return e.selectionLocked(), nil
}

func phaseForSize(size int) selection.Phase {
	switch {
	case size >= 5:
		return selection.PhaseBroad
	case size >= 3:
		return selection.PhaseNarrow
	default:
		return selection.PhasePair
	}
}

// Confidence returns the blended confidence score for one item.
func (e *Engine) Confidence(ctx context.Context, itemID string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sessionID == "" {
		return 0, ErrNoSession
	}
	if _, ok := e.items[itemID]; !ok {
		return 0, ErrUnknownItem
	}
	return e.estimator.Confidence(ctx, itemID), nil
}

// RankedResults returns the standings with full per-item detail. Any
// buffered outcomes are applied first so callers never observe a
// half-applied batch. A limit of 0 returns everything.
func (e *Engine) RankedResults(ctx context.Context, limit int) ([]types.RankedEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sessionID == "" {
		return nil, ErrNoSession
	}
	if err := e.flushLocked(ctx, e.progressLocked()); err != nil {
		return nil, wrapResolve(err)
	}

	ranked := e.store.Ranked(ctx)
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}

	out := make([]types.RankedEntry, 0, len(ranked))
	for _, entry := range ranked {
		rec, err := e.store.Get(ctx, entry.ItemID)
		if err != nil {
			continue
		}
		out = append(out, types.RankedEntry{
			Rank:              entry.Rank,
			Item:              e.items[entry.ItemID],
			Rating:            rec.Rating,
			Wins:              rec.Wins,
			Losses:            rec.Losses,
			Comparisons:       rec.Comparisons,
			Confidence:        e.estimator.Confidence(ctx, entry.ItemID),
			RatingUncertainty: rec.RatingUncertainty,
			Recent:            recentResults(rec),
			Group: types.GroupTally{
				Chosen:      rec.Group.Chosen,
				Appearances: rec.Group.Appearances,
			},
		})
	}
	return out, nil
}

func recentResults(rec *model.Record) []types.RecentResult {
	out := make([]types.RecentResult, 0, len(rec.Recent))
	for _, r := range rec.Recent {
		out = append(out, types.RecentResult{
			OpponentID:   r.OpponentID,
			Won:          r.Won,
			RatingDiff:   r.RatingDiff,
			LearningRate: r.LearningRate,
		})
	}
	return out
}

// ProgressStats reports session progress and internal activity counters.
func (e *Engine) ProgressStats(ctx context.Context) (types.ProgressStats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sessionID == "" {
		return types.ProgressStats{}, ErrNoSession
	}
	return types.ProgressStats{
		Comparisons:    e.comparisons,
		MaxComparisons: e.maxComparisons,
		AvgConfidence:  e.estimator.Average(ctx),
		StabilityScore: e.monitor.StabilityScore(),
		Optimization: types.OptimizationStats{
			BatchFlushes:       e.batchFlushes,
			CollapsedPairs:     e.updater.CollapsedPairs(),
			AuditRuns:          e.auditRuns,
			CorrectionsApplied: e.corrections,
			PoolResets:         e.selector.PoolResets(),
		},
	}, nil
}

// Finished reports whether the session ended, either by exhausting the
// comparison budget or by satisfying the convergence criteria.
func (e *Engine) Finished(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finishedLocked()
}

func (e *Engine) finishedLocked() bool {
	if e.sessionID == "" {
		return false
	}
	return e.converged || e.comparisons >= e.maxComparisons
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
