// Package selection chooses the next pair or group of items to present.
//
// Selection runs in three phases driven by session progress: broad
// five-item groups early, three-item groups mid-session, and pairs for
// late fine-grained resolution. Candidates are scored by an
// information-gain value built on confidence, uncertainty, and
// comparison counts.
package selection

import (
	"context"
	"math/rand"
	"time"

	"github.com/okian/duelrank/internal/adapters/repository"
	"github.com/okian/duelrank/internal/domain/model"
	"github.com/okian/duelrank/pkg/logger"
	"github.com/okian/duelrank/pkg/metrics"
)

// Phase identifies the current selection strategy.
type Phase string

// Selection phases.
const (
	PhaseBroad  Phase = "broad"  // groups of 5
	PhaseNarrow Phase = "narrow" // groups of 3
	PhasePair   Phase = "pair"   // pairs
)

// Default selection configuration constants.
const (
	broadCutoff  = 0.35
	narrowCutoff = 0.75

	broadGroupSize  = 5
	narrowGroupSize = 3

	lastUsedDiscount   = 0.7
	recentPairDiscount = 0.2

	ratingBucketSplit = 0.5
	diffEpsilon       = 0.1

	defaultRecencyWindow = 5
	defaultSeed          = 42
)

// PhaseFor maps progress to the active phase.
func PhaseFor(progress float64) Phase {
	switch {
	case progress < broadCutoff:
		return PhaseBroad
	case progress < narrowCutoff:
		return PhaseNarrow
	default:
		return PhasePair
	}
}

// GroupSize returns the target selection size for a phase.
func GroupSize(phase Phase) int {
	switch phase {
	case PhaseBroad:
		return broadGroupSize
	case PhaseNarrow:
		return narrowGroupSize
	default:
		return 2
	}
}

// ConfidenceFn resolves the current confidence for an item.
type ConfidenceFn func(ctx context.Context, itemID string) float64

type pairKey [2]string

func makePairKey(a, b string) pairKey {
	if a < b {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

// Selector picks the next comparison. It owns the used-item pool for the
// current cycle, the previous selection, and a trailing window of
// recently resolved pairs. It is driven by the engine's single writer
// and holds no lock of its own.
type Selector struct {
	store      repository.Store
	confidence ConfidenceFn
	rng        *rand.Rand
	logger     logger.Logger

	recencyWindow int

	used         map[string]bool
	lastSelected map[string]bool
	recentPairs  []pairKey
	poolResets   int
}

// NewSelector creates a selector bound to a store.
func NewSelector(store repository.Store, opts ...Option) *Selector {
	s := &Selector{
		store:         store,
		recencyWindow: defaultRecencyWindow,
		rng:           rand.New(rand.NewSource(defaultSeed)), //nolint:gosec // deterministic seed for reproducible selection
		used:          make(map[string]bool),
		lastSelected:  make(map[string]bool),
		logger:        logger.Get().Named("selection"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.confidence == nil {
		s.confidence = func(context.Context, string) float64 { return 0 }
	}

	return s
}

// PoolResets reports how many times the used pool was exhausted and
// reset during the current session.
func (s *Selector) PoolResets() int {
	return s.poolResets
}

// NotePair records a resolved pair into the trailing recency window.
func (s *Selector) NotePair(winnerID, loserID string) {
	s.recentPairs = append(s.recentPairs, makePairKey(winnerID, loserID))
	if over := len(s.recentPairs) - s.recencyWindow; over > 0 {
		s.recentPairs = s.recentPairs[over:]
	}
}

func (s *Selector) recentlyCompared(a, b string) bool {
	key := makePairKey(a, b)
	for _, p := range s.recentPairs {
		if p == key {
			return true
		}
	}
	return false
}

// Next returns the item ids to present, sized by the phase for the given
// progress. It never returns an empty selection while at least two items
// exist.
func (s *Selector) Next(ctx context.Context, progress float64) ([]string, Phase, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSelectionLatency(float64(time.Since(start).Milliseconds()))
	}()

	ids := s.store.IDs(ctx)
	if len(ids) < 2 {
		metrics.RecordErrorByComponent("selection", "insufficient_items")
		return nil, "", ErrInsufficientItems
	}

	phase := PhaseFor(progress)

	var selected []string
	if phase == PhasePair {
		selected = s.selectPair(ctx, ids)
	} else {
		selected = s.selectGroup(ctx, ids, GroupSize(phase))
	}

	s.lastSelected = make(map[string]bool, len(selected))
	for _, id := range selected {
		s.lastSelected[id] = true
		s.used[id] = true
	}

	return selected, phase, nil
}

// value is the information-gain score of offering an item now:
// uncertain, unconfident, rarely compared items are worth the most, and
// items shown in the immediately preceding selection are discounted.
func (s *Selector) value(ctx context.Context, rec *model.Record) float64 {
	v := (1 - s.confidence(ctx, rec.ItemID)) * (1 + rec.RatingUncertainty) / float64(rec.Comparisons+1)
	if s.lastSelected[rec.ItemID] {
		v *= lastUsedDiscount
	}
	return v
}

// selectPair anchors on the least-compared item and pairs it with the
// highest-value candidate, penalizing recently resolved pairs.
func (s *Selector) selectPair(ctx context.Context, ids []string) []string {
	anchor := ids[0]
	anchorRec, err := s.store.Get(ctx, anchor)
	if err != nil {
		return nil
	}
	for _, id := range ids[1:] {
		rec, err := s.store.Get(ctx, id)
		if err != nil {
			continue
		}
		if rec.Comparisons < anchorRec.Comparisons {
			anchor, anchorRec = id, rec
		}
	}

	best := ""
	bestValue := -1.0
	for _, id := range ids {
		if id == anchor {
			continue
		}
		rec, err := s.store.Get(ctx, id)
		if err != nil {
			continue
		}
		v := s.value(ctx, rec)
		if s.recentlyCompared(anchor, id) {
			v *= recentPairDiscount
		}
		// First maximal wins; iteration order is deterministic.
		if v > bestValue {
			best, bestValue = id, v
		}
	}

	return []string{anchor, best}
}
