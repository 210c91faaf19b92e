// Package models defines the core data types for Quantfeed
package models

import (
	"math"
	"time"
)

// TimeSeries is a named, label-aligned sequence of values. A nil value marks
// an absent observation (a gap to be spanned by the renderer, never
// interpolated). Invariant: len(Labels) == len(Values).
type TimeSeries struct {
	Key    string     `json:"key"`
	Labels []string   `json:"labels"`
	Values []*float64 `json:"values"`
}

// Float returns a pointer to v, for building series literals.
func Float(v float64) *float64 {
	return &v
}

// NewTimeSeries creates a series from dense values with no gaps.
func NewTimeSeries(key string, labels []string, values []float64) *TimeSeries {
	ts := &TimeSeries{
		Key:    key,
		Labels: append([]string(nil), labels...),
		Values: make([]*float64, len(values)),
	}
	for i := range values {
		v := values[i]
		ts.Values[i] = &v
	}
	return ts
}

// Valid reports whether the labels/values invariant holds.
func (ts *TimeSeries) Valid() bool {
	return ts != nil && len(ts.Labels) == len(ts.Values)
}

// Len returns the number of points in the series.
func (ts *TimeSeries) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.Labels)
}

// At returns the value at index i and whether it is present.
func (ts *TimeSeries) At(i int) (float64, bool) {
	if ts == nil || i < 0 || i >= len(ts.Values) || ts.Values[i] == nil {
		return 0, false
	}
	return *ts.Values[i], true
}

// Clone returns a deep copy. Series are immutable once returned by a
// component; transforms operate on copies.
func (ts *TimeSeries) Clone() *TimeSeries {
	if ts == nil {
		return nil
	}
	out := &TimeSeries{
		Key:    ts.Key,
		Labels: append([]string(nil), ts.Labels...),
		Values: make([]*float64, len(ts.Values)),
	}
	for i, v := range ts.Values {
		if v != nil {
			val := *v
			out.Values[i] = &val
		}
	}
	return out
}

// Finite reports whether every present value is a finite number.
func (ts *TimeSeries) Finite() bool {
	for _, v := range ts.Values {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return false
		}
	}
	return true
}

// Dense returns the present values in order, dropping gaps.
func (ts *TimeSeries) Dense() []float64 {
	if ts == nil {
		return nil
	}
	out := make([]float64, 0, len(ts.Values))
	for _, v := range ts.Values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// SourceKind tags where a resolved series came from.
type SourceKind string

const (
	SourceLive      SourceKind = "live"
	SourceStale     SourceKind = "stale"
	SourceSynthetic SourceKind = "synthetic"
)

// Provenance records the data-quality tier of a resolved series so consumers
// can distinguish live, stale and synthetic data without re-deriving it.
type Provenance struct {
	Source   SourceKind `json:"source"`
	Provider string     `json:"provider,omitempty"` // provider name when Source is live
	CachedAt time.Time  `json:"cached_at,omitzero"` // set only when Source is stale
}

// ResolvedSeries is the always-present result of a fallback resolution.
type ResolvedSeries struct {
	Series     *TimeSeries `json:"series"`
	Provenance Provenance  `json:"provenance"`
}

// CacheEntry is the persisted form of a last-good series. Timestamp is
// recorded on every save but never used for eviction — last write wins,
// entries are retained for the life of the store.
type CacheEntry struct {
	Key       string      `json:"key" badgerhold:"key"`
	Timestamp time.Time   `json:"timestamp"`
	Series    *TimeSeries `json:"series"`
}
