// Package consistency audits the rating store against recorded outcomes
// and applies bounded corrections when ratings contradict the evidence.
package consistency

import (
	"context"
	"math"
	"time"

	"github.com/okian/duelrank/internal/adapters/repository"
	"github.com/okian/duelrank/internal/domain/model"
	"github.com/okian/duelrank/pkg/logger"
	"github.com/okian/duelrank/pkg/metrics"
)

// Correction tuning.
const (
	// Direct violations contradict recorded evidence outright, so they
	// get the strongest correction: 80% of the gap, split 60/40 between
	// boosting the winner and reducing the loser.
	directShare = 0.8
	winnerShare = 0.6
	loserShare  = 0.4

	// Transitive violations are corrected incrementally to avoid
	// oscillation between audit passes.
	incrementalShare = 0.6
	maxCorrection    = 0.5

	// Margin left between winner and loser when the final re-check
	// restores the recorded order after normalization.
	nudgeEpsilon = 0.01

	// Near-zero standard deviation skips normalization.
	minStddev = 1e-6

	maxTriadsPerRun = 64
)

// HistorySource exposes the resolved outcomes the graph is built from.
type HistorySource interface {
	Events(ctx context.Context) []model.ComparisonEvent
}

// Invalidator drops cached per-item values after ratings move.
type Invalidator interface {
	Invalidate(itemIDs []string)
}

// Result summarizes one audit pass.
type Result struct {
	DirectViolations int
	TriadViolations  int
	CycleViolations  int
	Corrections      int
	Changed          []string
}

// Auditor detects and repairs transitivity violations. It mutates ratings
// only, never uncertainties or counts.
type Auditor struct {
	store       repository.Store
	history     HistorySource
	invalidator Invalidator
	log         logger.Logger
}

// NewAuditor creates an auditor over the given store and history.
func NewAuditor(store repository.Store, history HistorySource, opts ...Option) *Auditor {
	a := &Auditor{
		store:   store,
		history: history,
		log:     logger.Named("audit"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes one full audit pass: direct violations first, then triads
// and cycles, then normalization with a single regression re-check.
func (a *Auditor) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	metrics.RecordAuditRun()

	graph := BuildGraph(a.history.Events(ctx))
	changed := make(map[string]bool)
	var res Result

	before := a.ratingsByID(ctx, graph.Nodes())

	a.correctDirect(ctx, graph, &res, changed)
	a.correctTriads(ctx, graph, &res, changed)
	a.correctCycles(ctx, graph, &res, changed)

	if res.Corrections > 0 {
		a.normalize(ctx, changed)
		a.recheckDirect(ctx, graph, &res, changed)
	}

	res.Changed = a.actuallyChanged(ctx, before, changed)
	if a.invalidator != nil && len(res.Changed) > 0 {
		a.invalidator.Invalidate(res.Changed)
	}

	metrics.RecordDirectViolations(res.DirectViolations)
	metrics.RecordTriadViolations(res.TriadViolations)
	metrics.RecordCycleViolations(res.CycleViolations)
	metrics.RecordCorrectionsApplied(res.Corrections)
	metrics.RecordAuditDuration(float64(time.Since(start).Milliseconds()))

	if res.Corrections > 0 {
		a.log.Debug(ctx, "audit pass corrected violations",
			logger.Int("direct", res.DirectViolations),
			logger.Int("triads", res.TriadViolations),
			logger.Int("cycles", res.CycleViolations),
			logger.Int("corrections", res.Corrections))
	}
	return res, nil
}

func (a *Auditor) ratingsByID(ctx context.Context, ids []string) map[string]float64 {
	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		if rec, err := a.store.Get(ctx, id); err == nil {
			out[id] = rec.Rating
		}
	}
	return out
}

// correctDirect repairs edges where the recorded winner is rated at or
// below the recorded loser.
func (a *Auditor) correctDirect(ctx context.Context, graph *Graph, res *Result, changed map[string]bool) {
	graph.Edges(func(winnerID, loserID string, _ int) {
		winner, err := a.store.Get(ctx, winnerID)
		if err != nil {
			return
		}
		loser, err := a.store.Get(ctx, loserID)
		if err != nil {
			return
		}
		if winner.Rating > loser.Rating {
			return
		}
		res.DirectViolations++
		gap := loser.Rating - winner.Rating
		adjust := directShare * gap
		winner.Rating += adjust * winnerShare
		loser.Rating -= adjust * loserShare
		changed[winnerID] = true
		changed[loserID] = true
		res.Corrections++
	})
}

// correctTriads finds recorded a>b and b>c with a contradicting recorded
// c>a, where ratings imply the transitive order, and shifts the most
// uncertain member toward consistency.
func (a *Auditor) correctTriads(ctx context.Context, graph *Graph, res *Result, changed map[string]bool) {
	for _, aID := range graph.Nodes() {
		for _, bID := range graph.successors(aID, nil) {
			for _, cID := range graph.successors(bID, nil) {
				if res.TriadViolations >= maxTriadsPerRun {
					return
				}
				if cID == aID || !graph.HasEdge(cID, aID) {
					continue
				}
				recA, errA := a.store.Get(ctx, aID)
				recB, errB := a.store.Get(ctx, bID)
				recC, errC := a.store.Get(ctx, cID)
				if errA != nil || errB != nil || errC != nil {
					continue
				}
				if !(recA.Rating > recB.Rating && recB.Rating > recC.Rating) {
					continue
				}
				res.TriadViolations++
				corr := math.Min(incrementalShare*(recA.Rating-recC.Rating), maxCorrection)

				target := mostUncertain(recA, recB, recC)
				switch target {
				case recA:
					recA.Rating -= corr
					changed[aID] = true
				case recC:
					recC.Rating += corr
					changed[cID] = true
				default:
					mid := (recA.Rating + recC.Rating) / 2
					recB.Rating += clampMagnitude(incrementalShare*(mid-recB.Rating), maxCorrection)
					changed[bID] = true
				}
				res.Corrections++
			}
		}
	}
}

// correctCycles walks every preference cycle and relaxes the edges whose
// ratings run against the recorded direction.
func (a *Auditor) correctCycles(ctx context.Context, graph *Graph, res *Result, changed map[string]bool) {
	for _, comp := range graph.StronglyConnected() {
		for _, cycle := range graph.ElementaryCycles(comp) {
			res.CycleViolations++
			for i := range cycle {
				winnerID := cycle[i]
				loserID := cycle[(i+1)%len(cycle)]
				winner, err := a.store.Get(ctx, winnerID)
				if err != nil {
					continue
				}
				loser, err := a.store.Get(ctx, loserID)
				if err != nil {
					continue
				}
				if winner.Rating > loser.Rating {
					continue
				}
				gap := loser.Rating - winner.Rating
				corr := math.Min(incrementalShare*gap, maxCorrection)
				winner.Rating += corr / 2
				loser.Rating -= corr / 2
				changed[winnerID] = true
				changed[loserID] = true
				res.Corrections++
			}
		}
	}
}

// normalize rescales all ratings to zero mean and unit standard
// deviation. Relative order is preserved; the scale stays stable across
// long sessions.
func (a *Auditor) normalize(ctx context.Context, changed map[string]bool) {
	ids := a.store.IDs(ctx)
	if len(ids) < 2 {
		return
	}

	var sum float64
	recs := make([]*model.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := a.store.Get(ctx, id)
		if err != nil {
			continue
		}
		recs = append(recs, rec)
		sum += rec.Rating
	}
	mean := sum / float64(len(recs))

	var variance float64
	for _, rec := range recs {
		d := rec.Rating - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(recs)))
	if stddev < minStddev {
		return
	}

	for _, rec := range recs {
		next := (rec.Rating - mean) / stddev
		if next != rec.Rating {
			rec.Rating = next
			changed[rec.ItemID] = true
		}
	}
}

// recheckDirect runs one final pass over the evidence edges and restores
// the recorded order for any direct violation normalization reintroduced.
// The correction spans the full gap plus epsilon so the winner always
// ends above the loser.
func (a *Auditor) recheckDirect(ctx context.Context, graph *Graph, res *Result, changed map[string]bool) {
	graph.Edges(func(winnerID, loserID string, _ int) {
		winner, err := a.store.Get(ctx, winnerID)
		if err != nil {
			return
		}
		loser, err := a.store.Get(ctx, loserID)
		if err != nil {
			return
		}
		if winner.Rating > loser.Rating {
			return
		}
		corr := loser.Rating - winner.Rating + nudgeEpsilon
		winner.Rating += corr * winnerShare
		loser.Rating -= corr * loserShare
		changed[winnerID] = true
		changed[loserID] = true
		res.Corrections++
	})
}

func (a *Auditor) actuallyChanged(ctx context.Context, before map[string]float64, changed map[string]bool) []string {
	out := make([]string, 0, len(changed))
	for id := range changed {
		rec, err := a.store.Get(ctx, id)
		if err != nil {
			continue
		}
		prev, known := before[id]
		if !known || math.Abs(rec.Rating-prev) > 1e-12 {
			out = append(out, id)
		}
	}
	return out
}

func mostUncertain(recs ...*model.Record) *model.Record {
	best := recs[0]
	for _, rec := range recs[1:] {
		if rec.RatingUncertainty > best.RatingUncertainty {
			best = rec
		}
	}
	return best
}

func clampMagnitude(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
