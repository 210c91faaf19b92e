package models

import (
	"math"
	"testing"
)

func TestNormalizeWeights_ScalesToOne(t *testing.T) {
	holdings := []PortfolioHolding{
		{Symbol: "equity:AAPL", Weight: 2},
		{Symbol: "equity:MSFT", Weight: 6},
	}

	out := NormalizeWeights(holdings)
	if math.Abs(out[0].Weight-0.25) > 1e-9 {
		t.Errorf("weight[0] = %v, want 0.25", out[0].Weight)
	}
	if math.Abs(out[1].Weight-0.75) > 1e-9 {
		t.Errorf("weight[1] = %v, want 0.75", out[1].Weight)
	}

	// Input holdings are left untouched.
	if holdings[0].Weight != 2 {
		t.Errorf("input weight mutated: %v", holdings[0].Weight)
	}
}

func TestNormalizeWeights_AllZeroBecomesEqual(t *testing.T) {
	holdings := []PortfolioHolding{
		{Symbol: "a"},
		{Symbol: "b"},
		{Symbol: "c"},
		{Symbol: "d"},
	}

	out := NormalizeWeights(holdings)
	for i, h := range out {
		if math.Abs(h.Weight-0.25) > 1e-9 {
			t.Errorf("weight[%d] = %v, want 0.25", i, h.Weight)
		}
	}
}

func TestNormalizeWeights_Empty(t *testing.T) {
	if out := NormalizeWeights(nil); len(out) != 0 {
		t.Errorf("NormalizeWeights(nil) = %v, want empty", out)
	}
}
