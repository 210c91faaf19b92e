package app

import (
	"context"
	"os"
	"time"

	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/interfaces"
)

// warmCache pre-fetches the configured symbols on startup so the first page
// render is fast. Keys whose cache entry is still fresh are skipped.
func warmCache(ctx context.Context, seriesService interfaces.SeriesService, cache interfaces.CacheStore, config *common.Config, logger *common.Logger) {
	if os.Getenv("QUANTFEED_WARM_CACHE") == "off" {
		logger.Info().Msg("Warm cache: disabled via QUANTFEED_WARM_CACHE=off")
		return
	}

	type candidate struct {
		key string
		ttl time.Duration
	}
	var candidates []candidate
	for _, key := range config.Refresh.Symbols {
		candidates = append(candidates, candidate{key, warmTTL(key, false)})
	}
	for _, key := range config.Refresh.Watchlist {
		candidates = append(candidates, candidate{key, warmTTL(key, true)})
	}
	if len(candidates) == 0 {
		logger.Info().Msg("Warm cache: no symbols configured, skipping")
		return
	}

	start := time.Now()
	var toFetch []string
	for _, c := range candidates {
		if entry, ok := cache.Load(ctx, c.key); ok && common.IsFresh(entry.Timestamp, c.ttl) {
			continue
		}
		toFetch = append(toFetch, c.key)
	}

	if len(toFetch) == 0 {
		logger.Info().Msg("Warm cache: all series fresh, skipping")
		return
	}

	logger.Info().Int("keys", len(toFetch)).Msg("Warm cache: starting")

	for _, key := range toFetch {
		if ctx.Err() != nil {
			logger.Info().Msg("Warm cache: cancelled")
			return
		}
		seriesService.Refresh(ctx, []string{key})
	}

	logger.Info().
		Int("keys", len(toFetch)).
		Dur("elapsed", time.Since(start)).
		Msg("Warm cache: complete")
}

// warmTTL picks the freshness window for a key: macro statistics move
// slowest, watch-list entries refresh on a slower cycle than live quotes.
func warmTTL(key string, watchlist bool) time.Duration {
	if class, _ := splitKey(key); class == "macro" {
		return common.FreshnessMacro
	}
	if watchlist {
		return common.FreshnessWatchlist
	}
	return common.FreshnessQuote
}
