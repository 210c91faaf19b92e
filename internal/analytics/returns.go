// Package analytics computes portfolio and risk statistics from normalized
// series. All functions are pure and deterministic; degenerate inputs (empty
// or single-element series, zero variance) resolve to well-defined zero or
// neutral values rather than errors.
//
// Annualization uses the fixed 252-trading-day convention and Sharpe is not
// risk-free-rate adjusted. Both conventions are deliberate and must not be
// "fixed".
package analytics

import (
	"math"

	"github.com/calderalabs/quantfeed/internal/models"
)

// TradingDays is the annualization factor for daily data.
const TradingDays = 252

// DailyReturns derives simple returns from consecutive present values.
// Absent points are skipped, not zero-filled: a return pairs each present
// value with the previous present value.
func DailyReturns(ts *models.TimeSeries) []float64 {
	if ts == nil {
		return nil
	}

	var returns []float64
	prev := math.NaN()
	for _, v := range ts.Values {
		if v == nil {
			continue
		}
		if !math.IsNaN(prev) && prev != 0 {
			returns = append(returns, (*v-prev)/prev)
		}
		prev = *v
	}
	return returns
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation, 0 for fewer than two
// values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// AnnualizedReturn is the mean daily return scaled by the trading-day count.
func AnnualizedReturn(returns []float64) float64 {
	return Mean(returns) * TradingDays
}

// AnnualizedVolatility is the daily volatility scaled by √252.
func AnnualizedVolatility(returns []float64) float64 {
	return StdDev(returns) * math.Sqrt(TradingDays)
}

// SharpeRatio is annualized return over annualized volatility, defined as 0
// when volatility is 0.
func SharpeRatio(returns []float64) float64 {
	vol := AnnualizedVolatility(returns)
	if vol == 0 {
		return 0
	}
	return AnnualizedReturn(returns) / vol
}
