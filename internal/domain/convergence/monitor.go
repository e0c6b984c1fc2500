// Package convergence decides when a ranking session may stop before its
// comparison budget is spent.
package convergence

import (
	"context"
	"math"

	"github.com/okian/duelrank/internal/adapters/repository"
	"github.com/okian/duelrank/internal/domain/consistency"
	"github.com/okian/duelrank/internal/domain/model"
	"github.com/okian/duelrank/pkg/logger"
	"github.com/okian/duelrank/pkg/metrics"
)

// Eligibility gates and threshold shaping.
const (
	minProgress           = 0.4
	minComparisonsPerItem = 5

	// Trailing ranked orders kept for rank-stability checks.
	defaultRankWindow = 5

	// Threshold bases. Each tightens with progress and, for confidence,
	// with shrinking dataset size: small sets converge on few outcomes,
	// so the evidence bar has to be higher.
	baseConfidenceThreshold   = 0.70
	sizeConfidenceBoost       = 0.10
	progressConfidenceBoost   = 0.05
	sizeReference             = 50.0
	baseMaxRecentChange       = 0.10
	progressRecentChangeDecay = 0.05
	baseTransitivity          = 0.85
	progressTransitivityBoost = 0.05
	baseRankStability         = 0.80
	progressRankBoost         = 0.10
	maxRankStabilityThreshold = 0.95
)

// HistorySource exposes resolved outcomes for transitivity scoring.
type HistorySource interface {
	Events(ctx context.Context) []model.ComparisonEvent
}

// ConfidenceSource exposes the blended confidence average.
type ConfidenceSource interface {
	Average(ctx context.Context) float64
}

// Report carries the outcome of one convergence evaluation.
type Report struct {
	Converged bool

	Eligible          bool
	AvgConfidence     float64
	AvgRecentChange   float64
	TransitivityScore float64
	RankStability     float64
}

// Monitor tracks rating movement and rank churn across batch flushes and
// evaluates the adaptive termination criteria.
type Monitor struct {
	store      repository.Store
	history    HistorySource
	confidence ConfidenceSource
	log        logger.Logger

	windowSize  int
	rankWindow  [][]string
	prevRatings map[string]float64
	lastChange  float64
	stability   float64
}

// NewMonitor creates a monitor over the given sources.
func NewMonitor(store repository.Store, history HistorySource, conf ConfidenceSource, opts ...Option) *Monitor {
	m := &Monitor{
		store:      store,
		history:    history,
		confidence: conf,
		log:        logger.Named("convergence"),
		windowSize: defaultRankWindow,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reset clears observed state for a new session.
func (m *Monitor) Reset() {
	m.rankWindow = nil
	m.prevRatings = nil
	m.lastChange = 0
	m.stability = 0
}

// Observe records the current standings after a batch flush: the ranked
// order joins the trailing window and the average absolute rating change
// since the previous observation is captured.
func (m *Monitor) Observe(ctx context.Context) {
	ranked := m.store.Ranked(ctx)

	order := make([]string, len(ranked))
	current := make(map[string]float64, len(ranked))
	var totalChange float64
	for i, entry := range ranked {
		order[i] = entry.ItemID
		current[entry.ItemID] = entry.Rating
		if prev, ok := m.prevRatings[entry.ItemID]; ok {
			totalChange += math.Abs(entry.Rating - prev)
		}
	}

	if m.prevRatings != nil && len(ranked) > 0 {
		m.lastChange = totalChange / float64(len(ranked))
	}
	m.prevRatings = current

	m.rankWindow = append(m.rankWindow, order)
	if len(m.rankWindow) > m.windowSize {
		m.rankWindow = m.rankWindow[1:]
	}

	m.stability = m.rankStability()
	metrics.UpdateStabilityScore(m.stability)
}

// StabilityScore reports the current rank-stability measure in [0, 1].
func (m *Monitor) StabilityScore() float64 {
	return m.stability
}

// LastChange reports the average absolute rating movement observed at the
// most recent flush.
func (m *Monitor) LastChange() float64 {
	return m.lastChange
}

// Evaluate checks all termination criteria at the given progress. The
// hard gates (progress, per-item comparison minimum) are checked first;
// the four adaptive thresholds must then hold simultaneously.
func (m *Monitor) Evaluate(ctx context.Context, progress float64) Report {
	metrics.RecordConvergenceCheck()

	report := Report{
		AvgConfidence:     m.confidence.Average(ctx),
		AvgRecentChange:   m.lastChange,
		TransitivityScore: m.transitivityScore(ctx),
		RankStability:     m.stability,
	}
	metrics.UpdateAverageConfidence(report.AvgConfidence)

	if progress < minProgress || !m.allItemsSampled(ctx) {
		return report
	}
	report.Eligible = true

	n := float64(m.store.Count(ctx))
	sizeFactor := math.Min(1, n/sizeReference)

	confThreshold := baseConfidenceThreshold +
		sizeConfidenceBoost*(1-sizeFactor) +
		progressConfidenceBoost*progress
	changeThreshold := baseMaxRecentChange - progressRecentChangeDecay*progress
	transitivityThreshold := baseTransitivity + progressTransitivityBoost*progress
	rankThreshold := math.Min(maxRankStabilityThreshold,
		baseRankStability+progressRankBoost*progress)

	report.Converged = report.AvgConfidence >= confThreshold &&
		report.AvgRecentChange <= changeThreshold &&
		report.TransitivityScore >= transitivityThreshold &&
		len(m.rankWindow) >= m.windowSize &&
		report.RankStability >= rankThreshold

	if report.Converged {
		m.log.Info(ctx, "convergence criteria satisfied",
			logger.Float64("avg_confidence", report.AvgConfidence),
			logger.Float64("recent_change", report.AvgRecentChange),
			logger.Float64("transitivity", report.TransitivityScore),
			logger.Float64("rank_stability", report.RankStability))
	}
	return report
}

func (m *Monitor) allItemsSampled(ctx context.Context) bool {
	for _, id := range m.store.IDs(ctx) {
		rec, err := m.store.Get(ctx, id)
		if err != nil || rec.Comparisons < minComparisonsPerItem {
			return false
		}
	}
	return true
}

// transitivityScore is the fraction of evidence edges the current ratings
// agree with. An empty history scores zero.
func (m *Monitor) transitivityScore(ctx context.Context) float64 {
	graph := consistency.BuildGraph(m.history.Events(ctx))

	total := 0
	consistent := 0
	graph.Edges(func(winnerID, loserID string, _ int) {
		winner, err := m.store.Get(ctx, winnerID)
		if err != nil {
			return
		}
		loser, err := m.store.Get(ctx, loserID)
		if err != nil {
			return
		}
		total++
		if winner.Rating > loser.Rating {
			consistent++
		}
	})
	if total == 0 {
		return 0
	}
	return float64(consistent) / float64(total)
}

// rankStability is the fraction of items whose rank position held steady
// across every order in the trailing window.
func (m *Monitor) rankStability() float64 {
	if len(m.rankWindow) < 2 {
		return 0
	}

	first := m.rankWindow[0]
	if len(first) == 0 {
		return 0
	}

	steady := 0
	for i, id := range first {
		moved := false
		for _, order := range m.rankWindow[1:] {
			if i >= len(order) || order[i] != id {
				moved = true
				break
			}
		}
		if !moved {
			steady++
		}
	}
	return float64(steady) / float64(len(first))
}
