package rating

import (
	"context"
	"math"

	"github.com/okian/duelrank/internal/domain/model"
)

// learningRate derives the effective rate for one outcome. It starts from
// the base rate and is:
//   - decayed as session progress grows,
//   - boosted when the rating gap is small (a close comparison carries
//     more information),
//   - dampened when either participant is already confident,
//   - boosted on a transitivity violation (the model predicted the
//     opposite ordering),
//   - modulated by the participants' recent volatility and consistency.
//
// The result is clamped to [minRate, maxRate].
func (u *Updater) learningRate(ctx context.Context, winner, loser *model.Record, p, progress float64) float64 {
	lr := u.baseRate

	// Progress decay: finer adjustments late in the session.
	lr *= 1 - 0.5*progress

	// Closeness boost via a logistic surprise factor: gap near zero
	// doubles the informative weight, large gaps leave it unchanged.
	gap := math.Abs(winner.Rating - loser.Rating)
	lr *= 1 + 1/(1+math.Exp(3*gap))

	// High-confidence damping.
	conf := math.Max(u.confidence(ctx, winner.ItemID), u.confidence(ctx, loser.ItemID))
	lr *= 1 - 0.4*conf

	// Transitivity violation: the recorded ratings predicted the loser
	// would win, so the model was wrong and should move faster.
	if winner.Rating < loser.Rating {
		lr *= violationBoost
	}

	// Recent-pattern modulation: consistent histories reinforce, erratic
	// ones damp.
	consistency := (recentConsistency(winner) + recentConsistency(loser)) / 2
	lr *= 0.85 + 0.3*consistency

	volatility := (recentVolatility(winner) + recentVolatility(loser)) / 2
	lr *= 1 - 0.25*volatility

	return math.Min(u.maxRate, math.Max(u.minRate, lr))
}

// recentConsistency measures how one-sided an item's recent outcomes are:
// 0 for an even split, 1 for all wins or all losses.
func recentConsistency(rec *model.Record) float64 {
	if len(rec.Recent) == 0 {
		return 0
	}
	wins := 0
	for _, r := range rec.Recent {
		if r.Won {
			wins++
		}
	}
	rate := float64(wins) / float64(len(rec.Recent))
	return math.Abs(rate-0.5) * 2
}

// recentVolatility measures outcome flip-rate in the recent ring: 0 when
// outcomes never alternate, 1 when every outcome flips the previous one.
func recentVolatility(rec *model.Record) float64 {
	if len(rec.Recent) < 2 {
		return 0
	}
	flips := 0
	for i := 1; i < len(rec.Recent); i++ {
		if rec.Recent[i].Won != rec.Recent[i-1].Won {
			flips++
		}
	}
	return float64(flips) / float64(len(rec.Recent)-1)
}
