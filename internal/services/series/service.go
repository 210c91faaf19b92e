// Package series exposes named time series to the rendering layer, mapping
// logical keys onto provider fallback chains.
package series

import (
	"context"
	"sort"
	"sync"

	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/interfaces"
	"github.com/calderalabs/quantfeed/internal/models"
	"github.com/calderalabs/quantfeed/internal/normalize"
)

// registration binds a logical key to its provider chain and fetch params.
type registration struct {
	chain  []interfaces.ProviderClient
	params interfaces.SeriesParams
}

// Service implements interfaces.SeriesService.
type Service struct {
	resolver interfaces.Resolver
	logger   *common.Logger

	mu           sync.RWMutex
	registry     map[string]registration
	defaultChain []interfaces.ProviderClient
}

// NewService creates a series service over the given resolver.
func NewService(resolver interfaces.Resolver, logger *common.Logger) *Service {
	return &Service{
		resolver: resolver,
		logger:   logger,
		registry: make(map[string]registration),
	}
}

// Register binds a logical key to an ordered provider chain. The chain order
// encodes data-quality preference: primary feed first.
func (s *Service) Register(key string, chain []interfaces.ProviderClient, params interfaces.SeriesParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry[key] = registration{chain: chain, params: params}
}

// SetDefaultChain sets the chain used for keys that were never registered.
func (s *Service) SetDefaultChain(chain []interfaces.ProviderClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultChain = chain
}

func (s *Service) lookup(key string) registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if reg, ok := s.registry[key]; ok {
		return reg
	}
	return registration{
		chain:  s.defaultChain,
		params: interfaces.SeriesParams{Symbol: symbolOf(key)},
	}
}

// symbolOf strips the asset-class namespace from a key ("equity:AAPL" → "AAPL").
func symbolOf(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[i+1:]
		}
	}
	return key
}

// GetSeries resolves the series for a logical key. Always succeeds.
func (s *Service) GetSeries(ctx context.Context, key string) *models.ResolvedSeries {
	reg := s.lookup(key)
	return s.resolver.Resolve(ctx, key, reg.chain, reg.params)
}

// GetRebasedSeries resolves keys, aligns them onto a common label axis and
// rebases each to index 100.
func (s *Service) GetRebasedSeries(ctx context.Context, keys []string) map[string]*models.TimeSeries {
	raw := make(map[string]*models.TimeSeries, len(keys))
	for _, key := range keys {
		raw[key] = s.GetSeries(ctx, key).Series
	}

	aligned := normalize.Align(raw)
	out := make(map[string]*models.TimeSeries, len(aligned))
	for key, ts := range aligned {
		out[key] = normalize.Rebase(ts)
	}
	return out
}

// Refresh re-resolves the given keys, writing fresh data through to cache.
// Failures are invisible here by design — the resolver absorbs them.
func (s *Service) Refresh(ctx context.Context, keys []string) {
	for _, key := range keys {
		resolved := s.GetSeries(ctx, key)
		s.logger.Debug().
			Str("key", key).
			Str("source", string(resolved.Provenance.Source)).
			Int("points", resolved.Series.Len()).
			Msg("Series refreshed")
	}
}

// Keys lists the registered logical keys in sorted order.
func (s *Service) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.registry))
	for key := range s.registry {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Ensure Service implements SeriesService
var _ interfaces.SeriesService = (*Service)(nil)
