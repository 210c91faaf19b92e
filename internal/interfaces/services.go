package interfaces

import (
	"context"

	"github.com/calderalabs/quantfeed/internal/models"
)

// Resolver turns an ordered provider chain into an always-succeeding fetch:
// first provider to succeed wins, then cache, then synthetic. The returned
// series carries a provenance tag; Resolve never returns an error.
type Resolver interface {
	Resolve(ctx context.Context, key string, chain []ProviderClient, params SeriesParams) *models.ResolvedSeries
}

// SeriesService exposes named series to the rendering layer.
type SeriesService interface {
	// GetSeries resolves the series for a logical key. Always succeeds;
	// unknown keys resolve through the default chain.
	GetSeries(ctx context.Context, key string) *models.ResolvedSeries

	// GetRebasedSeries resolves a set of keys, aligns them onto a common
	// label axis and rebases each to index 100 for cross-asset comparison.
	GetRebasedSeries(ctx context.Context, keys []string) map[string]*models.TimeSeries

	// Refresh re-resolves the given keys, writing fresh data through to cache.
	Refresh(ctx context.Context, keys []string)

	// Keys lists the registered logical keys.
	Keys() []string
}

// AnalyticsService derives portfolio statistics from holdings and their
// price series.
type AnalyticsService interface {
	GetAnalytics(ctx context.Context, holdings []models.PortfolioHolding, seriesBySymbol map[string]*models.TimeSeries, benchmarkSymbol string) *models.AnalyticsResult
}
