// Package interfaces defines service contracts for Quantfeed
package interfaces

import (
	"context"
	"time"

	"github.com/calderalabs/quantfeed/internal/models"
)

// ProviderClient fetches one time series from one external source. Each
// implementation owns exactly one response-shape parser and validates that
// every extracted value is finite; a response with any unparseable value
// fails as a whole (no partial series).
type ProviderClient interface {
	// Name identifies the provider in logs and provenance tags.
	Name() string

	// FetchSeries retrieves a series for the given parameters. Failures are
	// returned as *models.ProviderError.
	FetchSeries(ctx context.Context, params SeriesParams) (*models.TimeSeries, error)
}

// SeriesParams holds query parameters for a series fetch.
type SeriesParams struct {
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

// SeriesOption configures series fetch parameters.
type SeriesOption func(*SeriesParams)

// WithDateRange sets the date range for the fetch.
func WithDateRange(from, to time.Time) SeriesOption {
	return func(p *SeriesParams) {
		p.From = from
		p.To = to
	}
}

// WithLimit sets the maximum number of points to fetch.
func WithLimit(limit int) SeriesOption {
	return func(p *SeriesParams) {
		p.Limit = limit
	}
}

// NewSeriesParams builds params for a symbol with options applied.
func NewSeriesParams(symbol string, opts ...SeriesOption) SeriesParams {
	p := SeriesParams{Symbol: symbol}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
