package analytics

import (
	"math"
	"sort"
)

// MaxDrawdown tracks the largest gap between the running peak of the
// cumulative (summed) return series and the current cumulative value.
// Returns 0 for an empty input.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cum := 0.0
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, r := range returns {
		cum += r
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// HistoricalVaR estimates Value-at-Risk at confidence 1-p from the empirical
// return distribution: sort ascending and negate the value at floor(n·p).
// Returns 0 for fewer than two values; one observation is no distribution.
func HistoricalVaR(returns []float64, p float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}

	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	idx := int(math.Floor(float64(n) * p))
	if idx >= n {
		idx = n - 1
	}
	return -sorted[idx]
}
