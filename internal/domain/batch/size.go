package batch

import (
	"math"

	"github.com/okian/duelrank/internal/domain/selection"
)

// Batch size bounds and modulators.
const (
	minBatchSize = 2
	maxBatchSize = 16

	// Phase multipliers keep batches small while feedback matters most
	// per outcome, and let them grow once rankings have stabilized.
	broadMultiplier  = 0.75
	narrowMultiplier = 1.25
	pairMultiplier   = 1.0

	// High average volatility shrinks batches so corrections land sooner.
	volatilityShrink = 0.5
)

// SizeFor computes the flush threshold for the current session state.
// The base scale is log2 of the item count, modulated by selection phase
// and by the average recent-outcome volatility across tracked items.
func SizeFor(itemCount int, phase selection.Phase, avgVolatility float64) int {
	if itemCount < 2 {
		return minBatchSize
	}

	size := math.Log2(float64(itemCount))

	switch phase {
	case selection.PhaseBroad:
		size *= broadMultiplier
	case selection.PhaseNarrow:
		size *= narrowMultiplier
	default:
		size *= pairMultiplier
	}

	if avgVolatility > volatilityShrink {
		size *= 1 - (avgVolatility - volatilityShrink)
	}

	n := int(math.Round(size))
	if n < minBatchSize {
		return minBatchSize
	}
	if n > maxBatchSize {
		return maxBatchSize
	}
	return n
}
