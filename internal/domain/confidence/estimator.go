// Package confidence scores how settled an item's rank is.
//
// The score is a weighted blend of seven factors covering comparison
// volume, Bayesian uncertainty, win-rate expectations, local and
// temporal consistency, group-selection behavior, and local
// transitivity. Results are cached per item and invalidated selectively
// when ratings change.
package confidence

import (
	"context"
	"math"

	"github.com/okian/duelrank/internal/adapters/repository"
	"github.com/okian/duelrank/internal/domain/model"
	"github.com/okian/duelrank/pkg/logger"
)

// Default estimator configuration constants.
const (
	floorConfidence = 0.2
	countTarget     = 10 // comparisons for full count sufficiency
	neighborWindow  = 5  // rank positions considered "local"

	recentWeight     = 0.6
	historicalWeight = 0.4

	defaultMinComparisons = 3
)

// Weights blends the seven factors. They must sum to 1.0.
type Weights struct {
	Count        float64
	Bayesian     float64
	Position     float64
	Local        float64
	Group        float64
	Temporal     float64
	Transitivity float64
}

// DefaultWeights returns the standard factor blend.
func DefaultWeights() Weights {
	return Weights{
		Count:        0.15,
		Bayesian:     0.20,
		Position:     0.15,
		Local:        0.15,
		Group:        0.10,
		Temporal:     0.15,
		Transitivity: 0.10,
	}
}

// WeightsFromConfig builds Weights from a name/value map, falling back to
// defaults for missing keys.
func WeightsFromConfig(m map[string]float64) Weights {
	w := DefaultWeights()
	if len(m) == 0 {
		return w
	}
	if v, ok := m["count"]; ok {
		w.Count = v
	}
	if v, ok := m["bayesian"]; ok {
		w.Bayesian = v
	}
	if v, ok := m["position"]; ok {
		w.Position = v
	}
	if v, ok := m["local"]; ok {
		w.Local = v
	}
	if v, ok := m["group"]; ok {
		w.Group = v
	}
	if v, ok := m["temporal"]; ok {
		w.Temporal = v
	}
	if v, ok := m["transitivity"]; ok {
		w.Transitivity = v
	}
	return w
}

// HistorySource exposes the resolved comparison events the transitivity
// factor reads.
type HistorySource interface {
	Events(ctx context.Context) []model.ComparisonEvent
}

// Estimator computes blended confidence scores with a per-item cache.
type Estimator struct {
	store   repository.Store
	history HistorySource
	weights Weights
	logger  logger.Logger

	minComparisons int

	cache *itemCache
}

// NewEstimator creates an estimator bound to a store and history.
func NewEstimator(store repository.Store, history HistorySource, opts ...Option) *Estimator {
	e := &Estimator{
		store:          store,
		history:        history,
		weights:        DefaultWeights(),
		minComparisons: defaultMinComparisons,
		cache:          newItemCache(),
		logger:         logger.Get().Named("confidence"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Confidence returns the [0.2, 1.0] confidence for an item. Reads are
// pure with respect to engine state; repeated calls without intervening
// mutation return the identical cached value.
func (e *Estimator) Confidence(ctx context.Context, itemID string) float64 {
	if v, ok := e.cache.get(itemID); ok {
		return v
	}
	v, deps := e.compute(ctx, itemID)
	e.cache.put(itemID, v, deps)
	return v
}

// Invalidate drops cached scores affected by the given items, via the
// dependency map built at cache time.
func (e *Estimator) Invalidate(itemIDs []string) {
	e.cache.invalidate(itemIDs)
}

// InvalidateAll clears the whole cache. Reserved for item-set changes.
func (e *Estimator) InvalidateAll() {
	e.cache.reset()
}

// Average returns the mean confidence across all items.
func (e *Estimator) Average(ctx context.Context) float64 {
	ids := e.store.IDs(ctx)
	if len(ids) == 0 {
		return 0
	}
	var sum float64
	for _, id := range ids {
		sum += e.Confidence(ctx, id)
	}
	return sum / float64(len(ids))
}

// compute derives the blended score and the set of item ids it depends
// on, for selective invalidation.
func (e *Estimator) compute(ctx context.Context, itemID string) (float64, []string) {
	rec, err := e.store.Get(ctx, itemID)
	if err != nil {
		e.logger.Warn(ctx, "confidence requested for unknown item", logger.String("item_id", itemID))
		return 0, nil
	}

	deps := map[string]bool{itemID: true}

	if rec.Comparisons < e.minComparisons {
		return floorConfidence, depList(deps)
	}

	ranked := e.store.Ranked(ctx)
	pos, n := rankPosition(ranked, itemID)
	neighbors := neighborSet(ranked, pos)
	for id := range neighbors {
		deps[id] = true
	}
	for _, r := range rec.Recent {
		deps[r.OpponentID] = true
	}

	w := e.weights
	score := w.Count*countFactor(rec) +
		w.Bayesian*bayesianFactor(rec) +
		w.Position*positionFactor(rec, pos, n) +
		w.Local*e.localFactor(ctx, rec, neighbors) +
		w.Group*groupFactor(rec) +
		w.Temporal*temporalFactor(rec) +
		w.Transitivity*e.transitivityFactor(ctx, itemID, neighbors)

	return math.Min(1.0, math.Max(floorConfidence, score)), depList(deps)
}

func depList(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

func rankPosition(ranked []repository.Entry, itemID string) (pos, n int) {
	n = len(ranked)
	for i, entry := range ranked {
		if entry.ItemID == itemID {
			return i, n
		}
	}
	return 0, n
}

func neighborSet(ranked []repository.Entry, pos int) map[string]float64 {
	out := make(map[string]float64)
	lo := pos - neighborWindow
	hi := pos + neighborWindow
	for i, entry := range ranked {
		if i == pos || i < lo || i > hi {
			continue
		}
		out[entry.ItemID] = entry.Rating
	}
	return out
}
