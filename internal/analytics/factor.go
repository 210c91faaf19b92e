package analytics

import (
	"strings"

	"github.com/calderalabs/quantfeed/internal/models"
)

// Factors is the fixed factor set used for exposure reporting.
var Factors = []string{"size", "value", "momentum", "quality", "low_volatility"}

// defaultLoadings maps an asset-class prefix to its factor loadings. These
// are static reference loadings, not regression fits.
var defaultLoadings = map[string]map[string]float64{
	"equity": {"size": 0.4, "value": 0.5, "momentum": 0.6, "quality": 0.7, "low_volatility": 0.3},
	"crypto": {"size": 0.9, "value": 0.1, "momentum": 1.2, "quality": 0.2, "low_volatility": -0.6},
	"energy": {"size": 0.5, "value": 0.8, "momentum": 0.4, "quality": 0.4, "low_volatility": 0.1},
	"fund":   {"size": 0.2, "value": 0.4, "momentum": 0.3, "quality": 0.6, "low_volatility": 0.5},
	"option": {"size": 0.6, "value": 0.2, "momentum": 0.9, "quality": 0.3, "low_volatility": -0.4},
	"macro":  {"size": 0.0, "value": 0.3, "momentum": 0.1, "quality": 0.5, "low_volatility": 0.8},
}

// LoadingsFor returns the per-asset factor loadings for a symbol, keyed off
// its asset-class prefix (e.g. "equity:AAPL"). Unknown classes get the
// equity loadings.
func LoadingsFor(symbol string) map[string]float64 {
	prefix := symbol
	if idx := strings.Index(symbol, ":"); idx > 0 {
		prefix = symbol[:idx]
	}
	if loadings, ok := defaultLoadings[prefix]; ok {
		return loadings
	}
	return defaultLoadings["equity"]
}

// FactorExposure computes the portfolio's exposure to each factor as the
// weight-weighted sum of per-asset loadings — a purely linear combination,
// no regression fitting. Holdings should already have normalized weights.
func FactorExposure(holdings []models.PortfolioHolding, loadings map[string]map[string]float64) map[string]float64 {
	exposure := make(map[string]float64, len(Factors))
	for _, factor := range Factors {
		exposure[factor] = 0
	}

	for _, h := range holdings {
		assetLoadings, ok := loadings[h.Symbol]
		if !ok {
			assetLoadings = LoadingsFor(h.Symbol)
		}
		for _, factor := range Factors {
			exposure[factor] += h.Weight * assetLoadings[factor]
		}
	}
	return exposure
}
