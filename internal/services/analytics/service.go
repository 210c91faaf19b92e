// Package analytics exposes computed portfolio statistics to the rendering
// layer.
package analytics

import (
	"context"

	"github.com/calderalabs/quantfeed/internal/analytics"
	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/interfaces"
	"github.com/calderalabs/quantfeed/internal/models"
	"github.com/calderalabs/quantfeed/internal/normalize"
)

// Service implements interfaces.AnalyticsService.
type Service struct {
	logger *common.Logger
}

// NewService creates an analytics service.
func NewService(logger *common.Logger) *Service {
	return &Service{logger: logger}
}

// GetAnalytics derives the portfolio statistics for holdings from their
// price series. Weights are normalized to sum to 1 (equal weighting when all
// are unset). When benchmarkSymbol names a series in seriesBySymbol, beta is
// computed against it; otherwise beta defaults to 1.
func (s *Service) GetAnalytics(ctx context.Context, holdings []models.PortfolioHolding, seriesBySymbol map[string]*models.TimeSeries, benchmarkSymbol string) *models.AnalyticsResult {
	holdings = models.NormalizeWeights(holdings)
	aligned := normalize.Align(seriesBySymbol)

	// Per-holding return series, in holding order.
	symbols := make([]string, 0, len(holdings))
	returnsBySymbol := make(map[string][]float64, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
		returnsBySymbol[h.Symbol] = analytics.DailyReturns(aligned[h.Symbol])
	}

	portfolioReturns := weightedReturns(holdings, returnsBySymbol)

	metrics := map[string]float64{
		models.MetricAnnualizedReturn:     analytics.AnnualizedReturn(portfolioReturns),
		models.MetricAnnualizedVolatility: analytics.AnnualizedVolatility(portfolioReturns),
		models.MetricSharpeRatio:          analytics.SharpeRatio(portfolioReturns),
		models.MetricMaxDrawdown:          analytics.MaxDrawdown(portfolioReturns),
		models.MetricVaR95:                analytics.HistoricalVaR(portfolioReturns, 0.05),
		models.MetricVaR99:                analytics.HistoricalVaR(portfolioReturns, 0.01),
	}

	beta := 1.0
	if benchmarkSymbol != "" {
		if bench, ok := seriesBySymbol[benchmarkSymbol]; ok {
			beta = analytics.Beta(portfolioReturns, analytics.DailyReturns(bench))
		}
	}
	metrics[models.MetricBeta] = beta

	returnSeries := make([][]float64, len(symbols))
	for i, sym := range symbols {
		returnSeries[i] = returnsBySymbol[sym]
	}

	s.logger.Debug().
		Int("holdings", len(holdings)).
		Int("return_points", len(portfolioReturns)).
		Msg("Portfolio analytics computed")

	return &models.AnalyticsResult{
		Metrics:        metrics,
		Symbols:        symbols,
		Correlation:    analytics.CorrelationMatrix(returnSeries),
		FactorExposure: analytics.FactorExposure(holdings, nil),
	}
}

// weightedReturns combines per-holding return series into a single portfolio
// return series, truncated to the shortest holding series.
func weightedReturns(holdings []models.PortfolioHolding, returnsBySymbol map[string][]float64) []float64 {
	minLen := -1
	for _, h := range holdings {
		n := len(returnsBySymbol[h.Symbol])
		if minLen == -1 || n < minLen {
			minLen = n
		}
	}
	if minLen <= 0 {
		return nil
	}

	out := make([]float64, minLen)
	for _, h := range holdings {
		rs := returnsBySymbol[h.Symbol]
		for i := 0; i < minLen; i++ {
			out[i] += h.Weight * rs[i]
		}
	}
	return out
}

// Ensure Service implements AnalyticsService
var _ interfaces.AnalyticsService = (*Service)(nil)
