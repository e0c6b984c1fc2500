// Package types contains common read shapes used across the application.
package types

// Item mirrors the externally supplied item shape.
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Year     int    `json:"year,omitempty"`
	ImageRef string `json:"image_ref,omitempty"`
}

// RecentResult is the JSON-facing form of a recent comparison outcome.
type RecentResult struct {
	OpponentID   string  `json:"opponent_id"`
	Won          bool    `json:"won"`
	RatingDiff   float64 `json:"rating_diff"`
	LearningRate float64 `json:"learning_rate"`
}

// GroupTally mirrors the group-selection counters.
type GroupTally struct {
	Chosen      int `json:"chosen"`
	Appearances int `json:"appearances"`
}

// RankedEntry is one row of the ranked results.
type RankedEntry struct {
	Rank              int            `json:"rank"`
	Item              Item           `json:"item"`
	Rating            float64        `json:"rating"`
	Wins              int            `json:"wins"`
	Losses            int            `json:"losses"`
	Comparisons       int            `json:"comparisons"`
	Confidence        float64        `json:"confidence"`
	RatingUncertainty float64        `json:"rating_uncertainty"`
	Recent            []RecentResult `json:"recent_results"`
	Group             GroupTally     `json:"group_selections"`
}

// Selection is the pair or group currently offered for comparison.
type Selection struct {
	Items []Item `json:"items"` // size 2 for pairs, 3 or more for groups
	Phase string `json:"phase"` // "broad", "narrow" or "pair"
}

// OptimizationStats summarizes internal engine activity for monitoring.
type OptimizationStats struct {
	BatchFlushes       int `json:"batch_flushes"`
	CollapsedPairs     int `json:"collapsed_pairs"`
	AuditRuns          int `json:"audit_runs"`
	CorrectionsApplied int `json:"corrections_applied"`
	PoolResets         int `json:"pool_resets"`
}

// ProgressStats reports session progress to callers.
type ProgressStats struct {
	Comparisons    int               `json:"comparisons"`
	MaxComparisons int               `json:"max_comparisons"`
	AvgConfidence  float64           `json:"avg_confidence"`
	StabilityScore float64           `json:"stability_score"`
	Optimization   OptimizationStats `json:"optimization_stats"`
}
