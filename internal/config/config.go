// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration for the ranking engine service.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Seed seeds the selector's pseudo-random generator. Sessions may
	// override it per request for reproducible runs.
	Seed int64 `koanf:"seed"`

	// ComparisonMultiplier scales the default comparison budget when a
	// session does not supply one: budget = ceil(multiplier * n * log2(n)).
	ComparisonMultiplier float64 `koanf:"comparison_multiplier"`

	// RecencyWindow is how many trailing resolutions a pair is considered
	// recently compared for, during selection.
	RecencyWindow int `koanf:"recency_window"`

	// AuditEvery triggers a consistency audit each time this many
	// comparisons have been resolved since the previous audit.
	AuditEvery int `koanf:"audit_every"`

	// AuditMinIntervalMS is the minimum wall-clock gap between audits.
	AuditMinIntervalMS int `koanf:"audit_min_interval_ms"`

	// MinComparisons is the per-item comparison count below which
	// confidence is pinned to its floor.
	MinComparisons int `koanf:"min_comparisons"`

	// ConfidenceWeights maps confidence factor names to their blend
	// weights. Keys: count, bayesian, position, local, group, temporal,
	// transitivity. Weights must sum to 1.0.
	ConfidenceWeights map[string]float64 `koanf:"confidence_weights"`

	// MaxRankingsLimit caps GET /rankings?limit.
	MaxRankingsLimit int `koanf:"max_rankings_limit"`
}

// DefaultConfidenceWeights returns the factor weights used when none are
// configured. The values sum to 1.0.
func DefaultConfidenceWeights() map[string]float64 {
	return map[string]float64{
		"count":        0.15,
		"bayesian":     0.20,
		"position":     0.15,
		"local":        0.15,
		"group":        0.10,
		"temporal":     0.15,
		"transitivity": 0.10,
	}
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		Seed:                 42,
		ComparisonMultiplier: 0.8,
		RecencyWindow:        5,
		AuditEvery:           10,
		AuditMinIntervalMS:   500,
		MinComparisons:       3,
		ConfidenceWeights:    DefaultConfidenceWeights(),
		MaxRankingsLimit:     500,
	}
}
