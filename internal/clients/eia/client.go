// Package eia provides a client for the U.S. Energy Information
// Administration v2 data API
package eia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/interfaces"
	"github.com/calderalabs/quantfeed/internal/models"
)

const (
	DefaultBaseURL   = "https://api.eia.gov"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	// spot price route used for energy series (WTI, Brent, etc.)
	defaultRoute = "/v2/petroleum/pri/spt/data/"
)

// Client implements interfaces.ProviderClient for the EIA API.
// Response shape: {"response": {"data": [{"period": "...", "value": n}]}}.
type Client struct {
	baseURL    string
	apiKey     string
	route      string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithRoute sets the dataset route (defaults to petroleum spot prices).
func WithRoute(route string) ClientOption {
	return func(c *Client) {
		c.route = route
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EIA client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		route:   defaultRoute,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the provider.
func (c *Client) Name() string { return "eia" }

type dataResponse struct {
	Response struct {
		Data []dataRow `json:"data"`
	} `json:"response"`
	Error string `json:"error"`
}

type dataRow struct {
	Period string   `json:"period"`
	Value  *float64 `json:"value"`
}

// FetchSeries retrieves a daily spot price series; params.Symbol is the EIA
// series facet (e.g. "RWTC" for WTI Cushing).
func (c *Client) FetchSeries(ctx context.Context, params interfaces.SeriesParams) (*models.TimeSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("frequency", "daily")
	q.Set("data[0]", "value")
	q.Set("facets[series][]", params.Symbol)
	q.Set("sort[0][column]", "period")
	q.Set("sort[0][direction]", "desc")
	if params.Limit > 0 {
		q.Set("length", fmt.Sprintf("%d", params.Limit))
	}
	if !params.From.IsZero() {
		q.Set("start", params.From.Format("2006-01-02"))
	}
	if !params.To.IsZero() {
		q.Set("end", params.To.Format("2006-01-02"))
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, c.route, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}

	c.logger.Debug().Str("series", params.Symbol).Msg("EIA API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		kind := models.ProviderErrTransient
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			kind = models.ProviderErrRateLimited
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = models.ProviderErrAuth
		}
		return nil, models.NewProviderError(c.Name(), kind,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var data dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse, err)
	}
	if data.Error != "" {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
			fmt.Errorf("api error: %s", data.Error))
	}
	if len(data.Response.Data) == 0 {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
			fmt.Errorf("no rows for series %s", params.Symbol))
	}

	rows := data.Response.Data
	sort.Slice(rows, func(i, j int) bool { return rows[i].Period < rows[j].Period })

	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, row := range rows {
		if row.Value == nil || math.IsNaN(*row.Value) || math.IsInf(*row.Value, 0) {
			return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
				fmt.Errorf("missing value at period %s", row.Period))
		}
		labels[i] = row.Period
		values[i] = *row.Value
	}

	return models.NewTimeSeries(params.Symbol, labels, values), nil
}

// Ensure Client implements ProviderClient
var _ interfaces.ProviderClient = (*Client)(nil)
