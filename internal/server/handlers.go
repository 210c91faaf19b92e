package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/models"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Core operations
	mux.HandleFunc("/api/series", s.handleSeriesList)
	mux.HandleFunc("/api/series/", s.handleSeries)
	mux.HandleFunc("/api/series-rebased", s.handleSeriesRebased)
	mux.HandleFunc("/api/analytics", s.handleAnalytics)
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"uptime":  time.Since(s.app.StartupTime).String(),
		"version": common.GetVersion(),
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetFullVersion(),
	})
}

// handleSeriesList handles GET /api/series — the registered logical keys.
func (s *Server) handleSeriesList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"keys": s.app.SeriesService.Keys(),
	})
}

// handleSeries handles GET /api/series/{key}. The resolver guarantees a
// series is always returned; its provenance tag tells the caller whether it
// is live, stale, or synthetic.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/api/series/")
	if key == "" {
		WriteError(w, http.StatusBadRequest, "Series key is required")
		return
	}

	resolved := s.app.SeriesService.GetSeries(r.Context(), key)
	WriteJSON(w, http.StatusOK, resolved)
}

// rebasedRequest is the body for POST /api/series-rebased.
type rebasedRequest struct {
	Keys []string `json:"keys"`
}

// handleSeriesRebased handles POST /api/series-rebased: resolve a set of
// keys, align them and rebase each to index 100.
func (s *Server) handleSeriesRebased(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req rebasedRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Keys) == 0 {
		WriteError(w, http.StatusBadRequest, "At least one series key is required")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"series": s.app.SeriesService.GetRebasedSeries(r.Context(), req.Keys),
	})
}

// analyticsRequest is the body for POST /api/analytics.
type analyticsRequest struct {
	Holdings  []models.PortfolioHolding `json:"holdings"`
	Benchmark string                    `json:"benchmark,omitempty"`
}

// handleAnalytics handles POST /api/analytics: resolve each holding's series
// and compute the portfolio statistics.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req analyticsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Holdings) == 0 {
		WriteError(w, http.StatusBadRequest, "At least one holding is required")
		return
	}

	seriesBySymbol := make(map[string]*models.TimeSeries, len(req.Holdings)+1)
	for _, h := range req.Holdings {
		seriesBySymbol[h.Symbol] = s.app.SeriesService.GetSeries(r.Context(), h.Symbol).Series
	}
	if req.Benchmark != "" {
		seriesBySymbol[req.Benchmark] = s.app.SeriesService.GetSeries(r.Context(), req.Benchmark).Series
	}

	result := s.app.AnalyticsService.GetAnalytics(r.Context(), req.Holdings, seriesBySymbol, req.Benchmark)
	WriteJSON(w, http.StatusOK, result)
}
