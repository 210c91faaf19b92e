package alphavantage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calderalabs/quantfeed/internal/interfaces"
	"github.com/calderalabs/quantfeed/internal/models"
)

func TestFetchSeries_ParsesAndSortsDailyCloses(t *testing.T) {
	// Alpha Vantage keys the series object by date in no guaranteed order.
	body := `{
		"Time Series (Daily)": {
			"2025-01-03": {"1. open": "101", "2. high": "103", "3. low": "100", "4. close": "102.5", "5. volume": "1000"},
			"2025-01-01": {"1. open": "99", "2. high": "101", "3. low": "98", "4. close": "100.0", "5. volume": "1200"},
			"2025-01-02": {"1. open": "100", "2. high": "102", "3. low": "99", "4. close": "101.25", "5. volume": "900"}
		}
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("function") != "TIME_SERIES_DAILY" {
			t.Errorf("function = %q, want TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		}
		if r.URL.Query().Get("symbol") != "AAPL" {
			t.Errorf("symbol = %q, want AAPL", r.URL.Query().Get("symbol"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	series, err := client.FetchSeries(context.Background(), interfaces.SeriesParams{Symbol: "AAPL"})
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}

	if series.Len() != 3 {
		t.Fatalf("series has %d points, want 3", series.Len())
	}
	if series.Labels[0] != "2025-01-01" || series.Labels[2] != "2025-01-03" {
		t.Errorf("labels not ascending: %v", series.Labels)
	}
	if v, _ := series.At(1); v != 101.25 {
		t.Errorf("series[1] = %v, want 101.25", v)
	}
}

func TestFetchSeries_LimitKeepsMostRecent(t *testing.T) {
	body := `{
		"Time Series (Daily)": {
			"2025-01-01": {"4. close": "100"},
			"2025-01-02": {"4. close": "101"},
			"2025-01-03": {"4. close": "102"}
		}
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	series, err := client.FetchSeries(context.Background(), interfaces.SeriesParams{Symbol: "AAPL", Limit: 2})
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}

	if series.Len() != 2 {
		t.Fatalf("series has %d points, want 2", series.Len())
	}
	if series.Labels[0] != "2025-01-02" {
		t.Errorf("trim dropped the wrong end: labels = %v", series.Labels)
	}
}

func TestFetchSeries_NoteMapsToRateLimited(t *testing.T) {
	// Alpha Vantage reports throttling as a 200 with a Note field.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.FetchSeries(context.Background(), interfaces.SeriesParams{Symbol: "AAPL"})

	var pe *models.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error is %T, want *models.ProviderError", err)
	}
	if pe.Kind != models.ProviderErrRateLimited {
		t.Errorf("kind = %s, want rate-limited", pe.Kind)
	}
}

func TestFetchSeries_ErrorMessageMapsToInvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error Message": "Invalid API call."}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.FetchSeries(context.Background(), interfaces.SeriesParams{Symbol: "NOPE"})

	var pe *models.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error is %T, want *models.ProviderError", err)
	}
	if pe.Kind != models.ProviderErrInvalidResponse {
		t.Errorf("kind = %s, want invalid-response", pe.Kind)
	}
}

func TestFetchSeries_UnparseableCloseFailsWholeResponse(t *testing.T) {
	// One bad value must not yield a partial series.
	body := `{
		"Time Series (Daily)": {
			"2025-01-01": {"4. close": "100"},
			"2025-01-02": {"4. close": "not-a-number"}
		}
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.FetchSeries(context.Background(), interfaces.SeriesParams{Symbol: "AAPL"})

	var pe *models.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error is %T, want *models.ProviderError", err)
	}
	if pe.Kind != models.ProviderErrInvalidResponse {
		t.Errorf("kind = %s, want invalid-response", pe.Kind)
	}
}

func TestFetchSeries_StatusCodeClassification(t *testing.T) {
	cases := []struct {
		status int
		want   models.ProviderErrorKind
	}{
		{http.StatusTooManyRequests, models.ProviderErrRateLimited},
		{http.StatusUnauthorized, models.ProviderErrAuth},
		{http.StatusForbidden, models.ProviderErrAuth},
		{http.StatusInternalServerError, models.ProviderErrTransient},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		client := NewClient("test-key", WithBaseURL(srv.URL))
		_, err := client.FetchSeries(context.Background(), interfaces.SeriesParams{Symbol: "AAPL"})
		srv.Close()

		var pe *models.ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("status %d: error is %T, want *models.ProviderError", tc.status, err)
		}
		if pe.Kind != tc.want {
			t.Errorf("status %d: kind = %s, want %s", tc.status, pe.Kind, tc.want)
		}
	}
}

func TestFetchSeries_EmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Time Series (Daily)": {}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	if _, err := client.FetchSeries(context.Background(), interfaces.SeriesParams{Symbol: "AAPL"}); err == nil {
		t.Error("expected error for empty time series")
	}
}
