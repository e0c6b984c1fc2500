package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if DUELRANK_CONFIG is set
//  3. env (prefix DUELRANK_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("DUELRANK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: DUELRANK_ADDR, DUELRANK_AUDIT_EVERY, ...
	// Map env keys like DUELRANK_AUDIT_EVERY -> audit_every (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("DUELRANK_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "duelrank_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.ComparisonMultiplier <= 0 {
		return fmt.Errorf("%w: comparison_multiplier must be positive", ErrInvalidConfig)
	}
	if c.AuditEvery < 1 {
		return fmt.Errorf("%w: audit_every must be at least 1", ErrInvalidConfig)
	}
	if c.RecencyWindow < 0 {
		return fmt.Errorf("%w: recency_window must not be negative", ErrInvalidConfig)
	}
	if len(c.ConfidenceWeights) > 0 {
		var sum float64
		for name, w := range c.ConfidenceWeights {
			if w < 0 {
				return fmt.Errorf("%w: confidence weight %q is negative", ErrInvalidConfig, name)
			}
			sum += w
		}
		if math.Abs(sum-1.0) > 1e-6 {
			return fmt.Errorf("%w: confidence weights sum to %v, want 1.0", ErrInvalidConfig, sum)
		}
	}
	return nil
}
