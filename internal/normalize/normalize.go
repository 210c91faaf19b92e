// Package normalize aligns named series onto a common label axis and rebases
// them to a comparable index.
package normalize

import (
	"sort"

	"github.com/calderalabs/quantfeed/internal/models"
)

// Align maps every series onto the union of all label axes, sorted
// ascending. Points a series has no observation for become absent (nil) and
// are carried through, never interpolated — downstream renderers span gaps.
// Inputs are not mutated.
func Align(series map[string]*models.TimeSeries) map[string]*models.TimeSeries {
	axis := unionAxis(series)

	out := make(map[string]*models.TimeSeries, len(series))
	for name, ts := range series {
		if ts == nil {
			continue
		}
		aligned := &models.TimeSeries{
			Key:    ts.Key,
			Labels: append([]string(nil), axis...),
			Values: make([]*float64, len(axis)),
		}

		byLabel := make(map[string]*float64, ts.Len())
		for i, label := range ts.Labels {
			byLabel[label] = ts.Values[i]
		}

		for i, label := range axis {
			if v, ok := byLabel[label]; ok && v != nil {
				val := *v
				aligned.Values[i] = &val
			}
		}

		out[name] = aligned
	}
	return out
}

func unionAxis(series map[string]*models.TimeSeries) []string {
	seen := make(map[string]struct{})
	var axis []string
	for _, ts := range series {
		if ts == nil {
			continue
		}
		for _, label := range ts.Labels {
			if _, ok := seen[label]; !ok {
				seen[label] = struct{}{}
				axis = append(axis, label)
			}
		}
	}
	// Labels are ISO dates, so lexical order is chronological order.
	sort.Strings(axis)
	return axis
}

// Rebase divides every value by the first present value and multiplies by
// 100, producing a comparable index. When the first present value is zero
// (or the series has no present values) the base falls back to 1 so the
// transform never divides by zero. Returns a copy.
func Rebase(ts *models.TimeSeries) *models.TimeSeries {
	out := ts.Clone()
	if out == nil {
		return nil
	}

	base := 1.0
	for _, v := range out.Values {
		if v != nil {
			if *v != 0 {
				base = *v
			}
			break
		}
	}

	for i, v := range out.Values {
		if v != nil {
			rebased := *v / base * 100
			out.Values[i] = &rebased
		}
	}
	return out
}
