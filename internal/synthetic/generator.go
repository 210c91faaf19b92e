// Package synthetic generates plausible placeholder series for keys that
// have neither live nor cached data, so the rendering layer never gets an
// empty chart.
package synthetic

import (
	"hash/fnv"
	"math/rand"
	"strings"
	"time"
)

// DefaultPoints is the length of a generated series.
const DefaultPoints = 30

// Base values by asset-class prefix of the logical key. Anything unknown
// gets an index-like base of 100.
var baseValues = map[string]float64{
	"equity": 150,
	"crypto": 40000,
	"energy": 80,
	"macro":  4,
	"option": 12,
	"fund":   100,
}

// Generator produces deterministic-shape, pseudo-random series. The seed is
// derived from the key, so repeated generations for the same key on the same
// day produce the same shape.
type Generator struct {
	points int
	now    func() time.Time
}

// Option configures the generator.
type Option func(*Generator)

// WithPoints sets the number of points per series.
func WithPoints(n int) Option {
	return func(g *Generator) {
		g.points = n
	}
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		points: DefaultPoints,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a random-walk series anchored to a plausible base value
// for the key's asset class. Labels are the last N calendar days; all values
// are finite and strictly positive.
func (g *Generator) Generate(key string) ([]string, []float64) {
	base := baseFor(key)
	rng := rand.New(rand.NewSource(int64(seedFor(key))))

	end := g.now().UTC()
	labels := make([]string, g.points)
	values := make([]float64, g.points)

	v := base
	for i := 0; i < g.points; i++ {
		labels[i] = end.AddDate(0, 0, -(g.points - 1 - i)).Format("2006-01-02")
		// random walk, ±2% per step
		v *= 1 + (rng.Float64()-0.5)*0.04
		if v <= 0 {
			v = base * 0.01
		}
		values[i] = v
	}

	return labels, values
}

func baseFor(key string) float64 {
	prefix := key
	if idx := strings.Index(key, ":"); idx > 0 {
		prefix = key[:idx]
	}
	if base, ok := baseValues[prefix]; ok {
		return base
	}
	return 100
}

func seedFor(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}
