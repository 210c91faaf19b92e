// Package resolver implements the ordered fallback chain that turns a set of
// unreliable providers into an always-succeeding series fetch.
//
// Resolution policy: freshness beats staleness beats plausibility. Providers
// are tried strictly in order (the order encodes data-quality ranking); the
// first success is written through to cache and returned as live. If every
// provider fails, the last cached payload is returned as stale. If there is
// no cache entry either, a synthetic series is generated. Provider and cache
// failures never propagate to the caller — they are logged and absorbed.
package resolver

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/interfaces"
	"github.com/calderalabs/quantfeed/internal/models"
	"github.com/calderalabs/quantfeed/internal/synthetic"
)

// Resolver implements interfaces.Resolver.
type Resolver struct {
	cache  interfaces.CacheStore
	synth  *synthetic.Generator
	logger *common.Logger

	group singleflight.Group

	// generations guards the cache against a superseded fetch finishing
	// after a newer one: each Resolve for a key takes a generation, and the
	// write-through is skipped if the key has moved on.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewResolver creates a resolver over the given cache store.
func NewResolver(cache interfaces.CacheStore, logger *common.Logger) *Resolver {
	return &Resolver{
		cache:       cache,
		synth:       synthetic.NewGenerator(),
		logger:      logger,
		generations: make(map[string]uint64),
	}
}

// Resolve fetches the series for key through the ordered chain. It always
// returns a usable series; the provenance tag says which tier produced it.
// Concurrent calls for the same key are collapsed into one fetch.
func (r *Resolver) Resolve(ctx context.Context, key string, chain []interfaces.ProviderClient, params interfaces.SeriesParams) *models.ResolvedSeries {
	v, _, _ := r.group.Do(key, func() (interface{}, error) {
		return r.resolve(ctx, key, chain, params), nil
	})
	return v.(*models.ResolvedSeries)
}

func (r *Resolver) resolve(ctx context.Context, key string, chain []interfaces.ProviderClient, params interfaces.SeriesParams) *models.ResolvedSeries {
	gen := r.beginGeneration(key)

	// Tier 1: providers, strictly sequential, first success wins.
	for _, provider := range chain {
		series, err := provider.FetchSeries(ctx, params)
		if err != nil {
			r.logger.Warn().
				Str("key", key).
				Str("provider", provider.Name()).
				Err(err).
				Msg("Provider fetch failed, trying next tier")
			continue
		}
		if !series.Valid() || series.Len() == 0 || !series.Finite() {
			r.logger.Warn().
				Str("key", key).
				Str("provider", provider.Name()).
				Msg("Provider returned malformed series, trying next tier")
			continue
		}

		series.Key = key

		if r.currentGeneration(key) == gen {
			r.cache.Save(ctx, &models.CacheEntry{
				Key:       key,
				Timestamp: time.Now(),
				Series:    series.Clone(),
			})
		} else {
			// A newer resolve for this key committed while we were fetching.
			r.logger.Debug().Str("key", key).Msg("Superseded fetch result, skipping cache write")
		}

		return &models.ResolvedSeries{
			Series:     series,
			Provenance: models.Provenance{Source: models.SourceLive, Provider: provider.Name()},
		}
	}

	// Tier 2: last-good cache entry, stale but valid.
	if entry, ok := r.cache.Load(ctx, key); ok {
		r.logger.Info().
			Str("key", key).
			Time("cached_at", entry.Timestamp).
			Msg("All providers failed, serving cached series")
		return &models.ResolvedSeries{
			Series:     entry.Series,
			Provenance: models.Provenance{Source: models.SourceStale, CachedAt: entry.Timestamp},
		}
	}

	// Tier 3: synthetic placeholder.
	r.logger.Warn().Str("key", key).Msg("Fallback chain exhausted, generating synthetic series")
	labels, values := r.synth.Generate(key)
	return &models.ResolvedSeries{
		Series:     models.NewTimeSeries(key, labels, values),
		Provenance: models.Provenance{Source: models.SourceSynthetic},
	}
}

func (r *Resolver) beginGeneration(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations[key]++
	return r.generations[key]
}

func (r *Resolver) currentGeneration(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[key]
}

// Ensure Resolver implements the contract
var _ interfaces.Resolver = (*Resolver)(nil)
