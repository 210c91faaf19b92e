package analytics

import (
	"testing"

	"github.com/calderalabs/quantfeed/internal/models"
)

func TestLoadingsFor_KnownAssetClasses(t *testing.T) {
	crypto := LoadingsFor("crypto:BTC")
	if crypto["momentum"] != 1.2 {
		t.Errorf("crypto momentum loading = %v, want 1.2", crypto["momentum"])
	}

	macro := LoadingsFor("macro:DGS10")
	if macro["low_volatility"] != 0.8 {
		t.Errorf("macro low_volatility loading = %v, want 0.8", macro["low_volatility"])
	}
}

func TestLoadingsFor_UnknownClassFallsBackToEquity(t *testing.T) {
	unknown := LoadingsFor("weather:RAIN")
	equity := LoadingsFor("equity:AAPL")
	for _, factor := range Factors {
		if unknown[factor] != equity[factor] {
			t.Errorf("unknown class %s loading = %v, want equity's %v", factor, unknown[factor], equity[factor])
		}
	}
}

func TestLoadingsFor_UnprefixedSymbol(t *testing.T) {
	// A bare symbol has no class prefix and gets the equity loadings.
	got := LoadingsFor("AAPL")
	if got["momentum"] != 0.6 {
		t.Errorf("bare symbol momentum loading = %v, want 0.6", got["momentum"])
	}
}

func TestFactorExposure_WeightedLinearSum(t *testing.T) {
	// 60% equity + 40% crypto. Momentum: 0.6*0.6 + 0.4*1.2 = 0.84.
	holdings := []models.PortfolioHolding{
		{Symbol: "equity:AAPL", Weight: 0.6},
		{Symbol: "crypto:BTC", Weight: 0.4},
	}

	exposure := FactorExposure(holdings, nil)
	if !approxEqual(exposure["momentum"], 0.84, 1e-9) {
		t.Errorf("momentum exposure = %v, want 0.84", exposure["momentum"])
	}
	// Low volatility: 0.6*0.3 + 0.4*(-0.6) = -0.06.
	if !approxEqual(exposure["low_volatility"], -0.06, 1e-9) {
		t.Errorf("low_volatility exposure = %v, want -0.06", exposure["low_volatility"])
	}
}

func TestFactorExposure_AllFactorsAlwaysPresent(t *testing.T) {
	exposure := FactorExposure(nil, nil)
	if len(exposure) != len(Factors) {
		t.Fatalf("exposure has %d entries, want %d", len(exposure), len(Factors))
	}
	for _, factor := range Factors {
		if v, ok := exposure[factor]; !ok || v != 0 {
			t.Errorf("empty portfolio exposure[%s] = %v (present=%v), want 0", factor, v, ok)
		}
	}
}

func TestFactorExposure_ExplicitLoadingsOverrideDefaults(t *testing.T) {
	holdings := []models.PortfolioHolding{{Symbol: "equity:AAPL", Weight: 1}}
	loadings := map[string]map[string]float64{
		"equity:AAPL": {"size": 2, "value": 0, "momentum": 0, "quality": 0, "low_volatility": 0},
	}

	exposure := FactorExposure(holdings, loadings)
	if exposure["size"] != 2 {
		t.Errorf("size exposure with explicit loadings = %v, want 2", exposure["size"])
	}
}
