package confidence

import (
	"context"
	"math"

	"github.com/okian/duelrank/internal/domain/model"
)

// countFactor measures raw comparison-count sufficiency.
func countFactor(rec *model.Record) float64 {
	return math.Min(1.0, float64(rec.Comparisons)/countTarget)
}

// bayesianFactor is the complement of the remaining uncertainty.
func bayesianFactor(rec *model.Record) float64 {
	return 1 - rec.RatingUncertainty
}

// positionFactor compares the item's win rate against what its rank
// position predicts: top items are expected to win around 75% of the
// time, bottom items around 25%, the middle around 50%. Falling short of
// the expectation lowers confidence; winning more than expected is not
// penalized, since an explicit over-performing record never argues the
// item is misplaced downward.
func positionFactor(rec *model.Record, pos, n int) float64 {
	if n < 2 {
		return 1.0
	}
	posFrac := float64(pos) / float64(n-1)
	expected := 0.75 - 0.5*posFrac
	deficit := expected - rec.WinRate()
	if deficit <= 0 {
		return 1.0
	}
	return math.Max(0, 1-2*deficit)
}

// localFactor checks recent outcomes against items within the neighbor
// window: a result is consistent when the current ratings agree with it.
func (e *Estimator) localFactor(ctx context.Context, rec *model.Record, neighbors map[string]float64) float64 {
	checked, consistent := 0, 0
	for _, r := range rec.Recent {
		oppRating, ok := neighbors[r.OpponentID]
		if !ok {
			continue
		}
		checked++
		if r.Won == (rec.Rating > oppRating) {
			consistent++
		}
	}
	if checked == 0 {
		return 0.5
	}
	return float64(consistent) / float64(checked)
}

// groupFactor is the chosen/appearances ratio for group offers, neutral
// with no group history.
func groupFactor(rec *model.Record) float64 {
	if rec.Group.Appearances == 0 {
		return 0.5
	}
	return float64(rec.Group.Chosen) / float64(rec.Group.Appearances)
}

// temporalFactor blends the outcome steadiness of the recent half of the
// ring (weighted 0.6) with the older half (0.4). Steadiness is the
// complement of the flip rate.
func temporalFactor(rec *model.Record) float64 {
	if len(rec.Recent) < 2 {
		return 0.5
	}
	half := len(rec.Recent) / 2
	older := steadiness(rec.Recent[:half])
	recent := steadiness(rec.Recent[half:])
	return recentWeight*recent + historicalWeight*older
}

func steadiness(results []model.RecentResult) float64 {
	if len(results) < 2 {
		return 1.0
	}
	flips := 0
	for i := 1; i < len(results); i++ {
		if results[i].Won != results[i-1].Won {
			flips++
		}
	}
	return 1 - float64(flips)/float64(len(results)-1)
}

// transitivityFactor scores triads among the item and its rank
// neighbors: for recorded edges a>b and b>c, a recorded c>a edge is a
// violation. No checkable triads count as fully consistent.
func (e *Estimator) transitivityFactor(ctx context.Context, itemID string, neighbors map[string]float64) float64 {
	local := make(map[string]bool, len(neighbors)+1)
	local[itemID] = true
	for id := range neighbors {
		local[id] = true
	}

	beats := make(map[string]map[string]bool)
	for _, ev := range e.history.Events(ctx) {
		if !local[ev.WinnerID] || !local[ev.LoserID] {
			continue
		}
		if beats[ev.WinnerID] == nil {
			beats[ev.WinnerID] = make(map[string]bool)
		}
		beats[ev.WinnerID][ev.LoserID] = true
	}

	checked, violations := 0, 0
	for a, aWins := range beats {
		for b := range aWins {
			for c := range beats[b] {
				if c == a {
					continue
				}
				// Only triads touching the item itself matter here.
				if a != itemID && b != itemID && c != itemID {
					continue
				}
				checked++
				if beats[c][a] {
					violations++
				}
			}
		}
	}
	if checked == 0 {
		return 1.0
	}
	return 1 - float64(violations)/float64(checked)
}
