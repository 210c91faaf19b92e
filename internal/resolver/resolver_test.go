package resolver

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/interfaces"
	"github.com/calderalabs/quantfeed/internal/models"
)

// memStore is an in-memory CacheStore for resolver tests.
type memStore struct {
	mu      sync.Mutex
	entries map[string]*models.CacheEntry
	saves   int
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*models.CacheEntry)}
}

func (m *memStore) Save(ctx context.Context, entry *models.CacheEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Key] = entry
	m.saves++
}

func (m *memStore) Load(ctx context.Context, key string) (*models.CacheEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	return entry, ok
}

func (m *memStore) Keys(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// stubProvider returns a canned series or error and counts calls.
type stubProvider struct {
	name   string
	series *models.TimeSeries
	err    error
	calls  atomic.Int64
	block  chan struct{} // when set, FetchSeries waits on it
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) FetchSeries(ctx context.Context, params interfaces.SeriesParams) (*models.TimeSeries, error) {
	p.calls.Add(1)
	if p.block != nil {
		<-p.block
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.series.Clone(), nil
}

func goodSeries(value float64) *models.TimeSeries {
	return models.NewTimeSeries("", []string{"2025-01-01", "2025-01-02"}, []float64{value, value + 1})
}

func TestResolve_FirstProviderWins(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store, common.NewSilentLogger())

	primary := &stubProvider{name: "primary", series: goodSeries(100)}
	secondary := &stubProvider{name: "secondary", series: goodSeries(200)}

	resolved := r.Resolve(context.Background(), "equity:AAPL",
		[]interfaces.ProviderClient{primary, secondary}, interfaces.SeriesParams{Symbol: "AAPL"})

	if resolved.Provenance.Source != models.SourceLive {
		t.Errorf("source = %s, want live", resolved.Provenance.Source)
	}
	if resolved.Provenance.Provider != "primary" {
		t.Errorf("provider = %s, want primary", resolved.Provenance.Provider)
	}
	if v, _ := resolved.Series.At(0); v != 100 {
		t.Errorf("series[0] = %v, want primary's 100", v)
	}
	if secondary.calls.Load() != 0 {
		t.Errorf("secondary was called %d times, want 0", secondary.calls.Load())
	}
}

func TestResolve_FallsThroughToNextProvider(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store, common.NewSilentLogger())

	failing := &stubProvider{name: "failing", err: models.NewProviderError("failing", models.ProviderErrTransient, errors.New("boom"))}
	working := &stubProvider{name: "working", series: goodSeries(200)}

	resolved := r.Resolve(context.Background(), "equity:AAPL",
		[]interfaces.ProviderClient{failing, working}, interfaces.SeriesParams{Symbol: "AAPL"})

	if resolved.Provenance.Source != models.SourceLive {
		t.Errorf("source = %s, want live", resolved.Provenance.Source)
	}
	if resolved.Provenance.Provider != "working" {
		t.Errorf("provider = %s, want working", resolved.Provenance.Provider)
	}
	if failing.calls.Load() != 1 {
		t.Errorf("failing provider called %d times, want 1", failing.calls.Load())
	}
}

func TestResolve_MalformedSeriesTreatedAsFailure(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store, common.NewSilentLogger())

	nan := math.NaN()
	malformed := &stubProvider{name: "malformed", series: &models.TimeSeries{
		Labels: []string{"2025-01-01"},
		Values: []*float64{&nan},
	}}
	empty := &stubProvider{name: "empty", series: &models.TimeSeries{}}
	working := &stubProvider{name: "working", series: goodSeries(300)}

	resolved := r.Resolve(context.Background(), "equity:AAPL",
		[]interfaces.ProviderClient{malformed, empty, working}, interfaces.SeriesParams{Symbol: "AAPL"})

	if resolved.Provenance.Provider != "working" {
		t.Errorf("provider = %s, want working", resolved.Provenance.Provider)
	}
}

func TestResolve_SuccessWritesThroughToCache(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store, common.NewSilentLogger())

	provider := &stubProvider{name: "primary", series: goodSeries(100)}

	r.Resolve(context.Background(), "equity:AAPL",
		[]interfaces.ProviderClient{provider}, interfaces.SeriesParams{Symbol: "AAPL"})

	entry, ok := store.Load(context.Background(), "equity:AAPL")
	if !ok {
		t.Fatal("cache entry missing after successful fetch")
	}
	if entry.Series.Key != "equity:AAPL" {
		t.Errorf("cached series key = %s, want equity:AAPL", entry.Series.Key)
	}
	if entry.Timestamp.IsZero() {
		t.Error("cache entry timestamp is zero")
	}
}

func TestResolve_AllProvidersFailServesCached(t *testing.T) {
	store := newMemStore()
	cachedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Save(context.Background(), &models.CacheEntry{
		Key:       "equity:AAPL",
		Timestamp: cachedAt,
		Series:    goodSeries(42),
	})

	r := NewResolver(store, common.NewSilentLogger())
	failing := &stubProvider{name: "failing", err: errors.New("down")}

	resolved := r.Resolve(context.Background(), "equity:AAPL",
		[]interfaces.ProviderClient{failing}, interfaces.SeriesParams{Symbol: "AAPL"})

	if resolved.Provenance.Source != models.SourceStale {
		t.Errorf("source = %s, want stale", resolved.Provenance.Source)
	}
	if !resolved.Provenance.CachedAt.Equal(cachedAt) {
		t.Errorf("cached_at = %v, want %v", resolved.Provenance.CachedAt, cachedAt)
	}
	if v, _ := resolved.Series.At(0); v != 42 {
		t.Errorf("series[0] = %v, want cached 42", v)
	}
}

func TestResolve_ChainExhaustedGeneratesSynthetic(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store, common.NewSilentLogger())

	failing := &stubProvider{name: "failing", err: errors.New("down")}

	resolved := r.Resolve(context.Background(), "equity:NEVERSEEN",
		[]interfaces.ProviderClient{failing}, interfaces.SeriesParams{Symbol: "NEVERSEEN"})

	if resolved.Provenance.Source != models.SourceSynthetic {
		t.Fatalf("source = %s, want synthetic", resolved.Provenance.Source)
	}
	if resolved.Series.Len() != 30 {
		t.Errorf("synthetic series has %d points, want 30", resolved.Series.Len())
	}
	for i := 0; i < resolved.Series.Len(); i++ {
		v, ok := resolved.Series.At(i)
		if !ok {
			t.Fatalf("synthetic point %d is absent", i)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			t.Errorf("synthetic point %d = %v, want finite and positive", i, v)
		}
	}

	// Synthetic results are never written to cache.
	if _, ok := store.Load(context.Background(), "equity:NEVERSEEN"); ok {
		t.Error("synthetic series was cached")
	}
}

func TestResolve_EmptyChainStillSucceeds(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store, common.NewSilentLogger())

	resolved := r.Resolve(context.Background(), "equity:AAPL", nil, interfaces.SeriesParams{})

	if resolved == nil || resolved.Series == nil {
		t.Fatal("Resolve returned nil with an empty chain")
	}
	if resolved.Provenance.Source != models.SourceSynthetic {
		t.Errorf("source = %s, want synthetic", resolved.Provenance.Source)
	}
}

func TestResolve_ConcurrentCallsCollapse(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store, common.NewSilentLogger())

	block := make(chan struct{})
	provider := &stubProvider{name: "slow", series: goodSeries(100), block: block}

	var wg sync.WaitGroup
	results := make([]*models.ResolvedSeries, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve(context.Background(), "equity:AAPL",
				[]interfaces.ProviderClient{provider}, interfaces.SeriesParams{Symbol: "AAPL"})
		}(i)
	}

	// Give the goroutines time to pile onto the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(block)
	wg.Wait()

	if calls := provider.calls.Load(); calls != 1 {
		t.Errorf("provider called %d times for 8 concurrent resolves, want 1", calls)
	}
	for i, resolved := range results {
		if resolved == nil || resolved.Provenance.Source != models.SourceLive {
			t.Errorf("result %d missing or not live", i)
		}
	}
}

func TestResolve_SupersededFetchSkipsCacheWrite(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store, common.NewSilentLogger())

	block := make(chan struct{})
	slow := &stubProvider{name: "slow", series: goodSeries(100), block: block}
	fast := &stubProvider{name: "fast", series: goodSeries(900)}

	// First resolve stalls inside its provider; a second resolve for the
	// same key starts and commits while the first is still in flight.
	done := make(chan *models.ResolvedSeries)
	go func() {
		done <- r.resolve(context.Background(), "equity:AAPL",
			[]interfaces.ProviderClient{slow}, interfaces.SeriesParams{Symbol: "AAPL"})
	}()

	for slow.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	r.resolve(context.Background(), "equity:AAPL",
		[]interfaces.ProviderClient{fast}, interfaces.SeriesParams{Symbol: "AAPL"})

	close(block)
	first := <-done

	// The stale fetch still returns its series to its caller.
	if v, _ := first.Series.At(0); v != 100 {
		t.Errorf("superseded resolve returned %v, want its own 100", v)
	}

	// But the cache keeps the newer result.
	entry, ok := store.Load(context.Background(), "equity:AAPL")
	if !ok {
		t.Fatal("cache entry missing")
	}
	if v, _ := entry.Series.At(0); v != 900 {
		t.Errorf("cached series[0] = %v, want newer fetch's 900", v)
	}
	if store.saveCount() != 1 {
		t.Errorf("cache saved %d times, want 1 (superseded write skipped)", store.saveCount())
	}
}
