package analytics

import (
	"testing"
)

func TestMaxDrawdown_PeakToTroughGap(t *testing.T) {
	// Cumulative path: 0.01, 0.04, 0.02, 0.03. Peak is 0.04; the deepest
	// point after it is 0.02, so the max drawdown is 0.02.
	returns := []float64{0.01, 0.03, -0.02, 0.01}
	if got := MaxDrawdown(returns); !approxEqual(got, 0.02, 1e-9) {
		t.Errorf("MaxDrawdown = %v, want 0.02", got)
	}
}

func TestMaxDrawdown_MonotonicRiseIsZero(t *testing.T) {
	returns := []float64{0.01, 0.02, 0.03}
	if got := MaxDrawdown(returns); got != 0 {
		t.Errorf("MaxDrawdown of rising series = %v, want 0", got)
	}
}

func TestMaxDrawdown_FirstReturnNegative(t *testing.T) {
	// The peak tracks the cumulative path itself, so a below-zero start
	// still forms a peak. Path: -0.05 (peak -0.05), -0.02 (new peak),
	// -0.06 (gap to peak is 0.04).
	returns := []float64{-0.05, 0.03, -0.04}
	if got := MaxDrawdown(returns); !approxEqual(got, 0.04, 1e-9) {
		t.Errorf("MaxDrawdown = %v, want 0.04", got)
	}
}

func TestMaxDrawdown_Empty(t *testing.T) {
	if got := MaxDrawdown(nil); got != 0 {
		t.Errorf("MaxDrawdown(nil) = %v, want 0", got)
	}
}

func TestHistoricalVaR_IndexSelection(t *testing.T) {
	// Sorted: [-0.03, -0.01, 0.00, 0.02, 0.05]. n=5, p=0.05 gives index
	// floor(0.25)=0, so VaR is -(-0.03) = 0.03.
	returns := []float64{0.02, -0.01, 0.05, -0.03, 0.00}
	if got := HistoricalVaR(returns, 0.05); !approxEqual(got, 0.03, 1e-9) {
		t.Errorf("HistoricalVaR(0.05) = %v, want 0.03", got)
	}
}

func TestHistoricalVaR_TighterTailIsAtLeastAsLarge(t *testing.T) {
	returns := []float64{
		-0.08, -0.05, -0.03, -0.02, -0.01,
		0.00, 0.01, 0.01, 0.02, 0.02,
		0.03, 0.03, 0.04, 0.05, 0.06,
		-0.04, 0.00, 0.01, -0.02, 0.02,
	}
	var99 := HistoricalVaR(returns, 0.01)
	var95 := HistoricalVaR(returns, 0.05)
	if var99 < var95 {
		t.Errorf("VaR99 (%v) < VaR95 (%v); tighter tail must not report a smaller loss", var99, var95)
	}
}

func TestHistoricalVaR_AllPositiveReturnsGiveNegativeVaR(t *testing.T) {
	// With no losses in the sample the quantile is a gain, so VaR comes out
	// negative. That is the empirical answer, not an error.
	returns := []float64{0.01, 0.02, 0.03}
	if got := HistoricalVaR(returns, 0.05); got >= 0 {
		t.Errorf("HistoricalVaR of all-positive returns = %v, want negative", got)
	}
}

func TestHistoricalVaR_Empty(t *testing.T) {
	if got := HistoricalVaR(nil, 0.05); got != 0 {
		t.Errorf("HistoricalVaR(nil) = %v, want 0", got)
	}
}

func TestHistoricalVaR_SingleValueIsDegenerate(t *testing.T) {
	// One observation is no distribution to take a quantile from; the
	// degenerate answer is 0, same as StdDev's.
	if got := HistoricalVaR([]float64{0.04}, 0.05); got != 0 {
		t.Errorf("HistoricalVaR of single value = %v, want 0", got)
	}
	if got := HistoricalVaR([]float64{-0.04}, 0.01); got != 0 {
		t.Errorf("HistoricalVaR of single loss = %v, want 0", got)
	}
}

func TestHistoricalVaR_IndexClamped(t *testing.T) {
	// p=1 would index past the end; it clamps to the last element.
	returns := []float64{-0.01, 0.02}
	if got := HistoricalVaR(returns, 1.0); !approxEqual(got, -0.02, 1e-9) {
		t.Errorf("HistoricalVaR(p=1) = %v, want -0.02", got)
	}
}
