package models

// PortfolioHolding is one position in a portfolio. Weight is a fraction in
// [0,1]; when every holding has zero weight the portfolio is treated as
// equally weighted.
type PortfolioHolding struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight"`
	Price  float64 `json:"price"`
}

// NormalizeWeights returns a copy of holdings with weights scaled to sum to 1.
// All-zero weights become equal weights.
func NormalizeWeights(holdings []PortfolioHolding) []PortfolioHolding {
	out := append([]PortfolioHolding(nil), holdings...)
	if len(out) == 0 {
		return out
	}

	total := 0.0
	for _, h := range out {
		total += h.Weight
	}

	if total == 0 {
		w := 1.0 / float64(len(out))
		for i := range out {
			out[i].Weight = w
		}
		return out
	}

	for i := range out {
		out[i].Weight /= total
	}
	return out
}

// AnalyticsResult holds the computed portfolio statistics. Metrics maps
// metric name to value; Correlation is ordered by Symbols.
type AnalyticsResult struct {
	Metrics        map[string]float64 `json:"metrics"`
	Symbols        []string           `json:"symbols,omitempty"`
	Correlation    [][]float64        `json:"correlation,omitempty"`
	FactorExposure map[string]float64 `json:"factor_exposure,omitempty"`
}

// Metric names used in AnalyticsResult.Metrics.
const (
	MetricAnnualizedReturn     = "annualized_return"
	MetricAnnualizedVolatility = "annualized_volatility"
	MetricSharpeRatio          = "sharpe_ratio"
	MetricMaxDrawdown          = "max_drawdown"
	MetricVaR95                = "var_95"
	MetricVaR99                = "var_99"
	MetricBeta                 = "beta"
)
