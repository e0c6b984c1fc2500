// Package rating applies resolved comparison outcomes to rating records.
//
// The update is ELO-style with a logistic expected-outcome model, an
// adaptive learning rate, per-item momentum, and a Bayesian uncertainty
// shadow that only ever decays.
package rating

import (
	"context"
	"math"

	"github.com/okian/duelrank/internal/adapters/repository"
	"github.com/okian/duelrank/internal/domain/model"
	"github.com/okian/duelrank/pkg/logger"
	"github.com/okian/duelrank/pkg/metrics"
)

// Default update configuration constants.
const (
	baseLearningRate = 0.1
	minLearningRate  = 0.01
	maxLearningRate  = 0.2

	momentumDecay = 0.9
	momentumScale = 0.3

	uncertaintyFloor = 0.1
	// The winner decays slightly faster than the loser: an explicit pick
	// is direct evidence about the picked item.
	winnerUncertaintyDecay = 0.90
	loserUncertaintyDecay  = 0.93

	violationBoost = 1.5

	// highImpactGap and highImpactComparisons bound what counts as an
	// especially informative comparison.
	highImpactGap         = 0.5
	highImpactComparisons = 5
)

// ConfidenceFn resolves the current confidence for an item. The updater
// dampens the learning rate for already-confident participants.
type ConfidenceFn func(ctx context.Context, itemID string) float64

// Updater applies outcomes to the rating store.
type Updater struct {
	store      repository.Store
	confidence ConfidenceFn
	logger     logger.Logger

	baseRate float64
	minRate  float64
	maxRate  float64
	momScale float64

	collapsed int
}

// NewUpdater creates an updater bound to a store.
func NewUpdater(store repository.Store, opts ...Option) *Updater {
	u := &Updater{
		store:    store,
		baseRate: baseLearningRate,
		minRate:  minLearningRate,
		maxRate:  maxLearningRate,
		momScale: momentumScale,
		logger:   logger.Get().Named("rating"),
	}

	for _, opt := range opts {
		opt(u)
	}

	if u.confidence == nil {
		u.confidence = func(context.Context, string) float64 { return 0 }
	}

	return u
}

// CollapsedPairs reports how many duplicate pairs were collapsed across
// all batches applied so far.
func (u *Updater) CollapsedPairs() int {
	return u.collapsed
}

// Volatility exposes the recent-outcome flip rate for an item, in [0, 1].
// The batcher shrinks its flush threshold when the session average runs
// high.
func Volatility(rec *model.Record) float64 {
	return recentVolatility(rec)
}

// ExpectedWinProbability returns the probability the higher-variable side
// wins under the softmax model: exp(a) / (exp(a) + exp(b)).
func ExpectedWinProbability(ratingA, ratingB float64) float64 {
	// Subtract the max before exponentiating to stay numerically stable.
	m := math.Max(ratingA, ratingB)
	ea := math.Exp(ratingA - m)
	eb := math.Exp(ratingB - m)
	return ea / (ea + eb)
}

// HighImpact reports whether a comparison between the two records would be
// especially informative: close ratings, low comparison counts, and a
// mid-session phase.
func HighImpact(winner, loser *model.Record, progress float64) bool {
	gap := math.Abs(winner.Rating - loser.Rating)
	lowCounts := winner.Comparisons < highImpactComparisons || loser.Comparisons < highImpactComparisons
	midPhase := progress > 0.3 && progress < 0.8
	return gap < highImpactGap && lowCounts && midPhase
}

// pending accumulates an item's batch-wide delta before momentum applies.
type pending struct {
	rec   *model.Record
	delta float64
}

// Apply processes a batch of outcomes atomically with respect to the
// store: counts, recent rings, and the Bayesian shadow update per
// outcome; rating deltas accumulate per item and momentum is applied
// once per item at the end. Duplicate winner/loser pairs within the
// batch collapse to a single update.
//
// Returns the ids of items whose rating changed, for cache invalidation.
func (u *Updater) Apply(ctx context.Context, outcomes []model.ComparisonEvent, progress float64) ([]string, error) {
	if len(outcomes) == 0 {
		return nil, nil
	}

	seen := make(map[[2]string]bool, len(outcomes))
	byItem := make(map[string]*pending)

	for _, out := range outcomes {
		key := [2]string{out.WinnerID, out.LoserID}
		if seen[key] {
			u.collapsed++
			metrics.RecordCollapsedPair()
			continue
		}
		seen[key] = true

		winner, err := u.store.Get(ctx, out.WinnerID)
		if err != nil {
			// Hard guard: skip rather than corrupt state.
			u.logger.Error(ctx, "missing winner record; skipping outcome",
				logger.String("winner_id", out.WinnerID), logger.Error(err))
			metrics.RecordErrorByComponent("rating", "missing_record")
			continue
		}
		loser, err := u.store.Get(ctx, out.LoserID)
		if err != nil {
			u.logger.Error(ctx, "missing loser record; skipping outcome",
				logger.String("loser_id", out.LoserID), logger.Error(err))
			metrics.RecordErrorByComponent("rating", "missing_record")
			continue
		}

		p := ExpectedWinProbability(winner.Rating, loser.Rating)
		lr := u.learningRate(ctx, winner, loser, p, progress)
		delta := lr * (1 - p)

		accumulate(byItem, out.WinnerID, winner, delta)
		accumulate(byItem, out.LoserID, loser, -delta)

		winner.Wins++
		winner.Comparisons++
		loser.Losses++
		loser.Comparisons++

		diff := winner.Rating - loser.Rating
		winner.PushRecent(model.RecentResult{
			OpponentID:   out.LoserID,
			Won:          true,
			RatingDiff:   diff,
			LearningRate: lr,
		})
		loser.PushRecent(model.RecentResult{
			OpponentID:   out.WinnerID,
			Won:          false,
			RatingDiff:   -diff,
			LearningRate: lr,
		})

		u.bayesianShadow(winner, loser, delta, progress)

		if out.IsGroup() {
			creditGroupTally(byItem, out)
		}

		metrics.RecordRatingUpdate()
	}

	changed := make([]string, 0, len(byItem))
	for id, pend := range byItem {
		if pend.delta == 0 {
			continue
		}
		// Momentum both drives and is driven by the batch delta.
		pend.rec.Momentum = pend.rec.Momentum*momentumDecay + u.momScale*pend.delta
		pend.rec.Rating += pend.delta + pend.rec.Momentum
		changed = append(changed, id)
	}

	return changed, nil
}

func accumulate(byItem map[string]*pending, id string, rec *model.Record, delta float64) {
	p, ok := byItem[id]
	if !ok {
		p = &pending{rec: rec}
		byItem[id] = p
	}
	p.delta += delta
}

// creditGroupTally updates chosen/appearance counters. Each loser of a
// group choice appears in exactly one expanded event; the winner appears
// in all of them, so it is credited only on the event against the
// first-listed loser.
func creditGroupTally(byItem map[string]*pending, out model.ComparisonEvent) {
	if p, ok := byItem[out.WinnerID]; ok && out.LoserID == firstLoser(out) {
		p.rec.Group.Chosen++
		p.rec.Group.Appearances++
	}
	if p, ok := byItem[out.LoserID]; ok {
		p.rec.Group.Appearances++
	}
}

func firstLoser(out model.ComparisonEvent) string {
	for _, id := range out.GroupMembers {
		if id != out.WinnerID {
			return id
		}
	}
	return ""
}

// bayesianShadow nudges the mean toward the observed direction and decays
// both uncertainties toward the floor. Uncertainty never increases.
func (u *Updater) bayesianShadow(winner, loser *model.Record, delta, progress float64) {
	winner.RatingMean += winner.RatingUncertainty * delta
	loser.RatingMean -= loser.RatingUncertainty * delta

	winner.RatingUncertainty = decayUncertainty(winner, winnerUncertaintyDecay, progress)
	loser.RatingUncertainty = decayUncertainty(loser, loserUncertaintyDecay, progress)
}

func decayUncertainty(rec *model.Record, base, progress float64) float64 {
	// Decay slows late in the session and speeds up for items whose
	// recent outcomes are consistent.
	factor := base + 0.05*progress - 0.03*recentConsistency(rec)
	if factor >= 1 {
		factor = 0.999
	}
	next := rec.RatingUncertainty * factor
	if next < uncertaintyFloor {
		return uncertaintyFloor
	}
	return next
}
