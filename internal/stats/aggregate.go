// Package stats holds the pure numeric building blocks of the ranking engine:
// descriptive summaries, competition ranks and population spreads.
package stats

import (
	"math"
	"slices"
)

// Summary is the {max,min,avg,count} rollup of a numeric projection.
// Max, Min and Avg are nil when Count is zero.
type Summary struct {
	Max   *float64 `json:"max"`
	Min   *float64 `json:"min"`
	Avg   *float64 `json:"avg"`
	Count int      `json:"count"`
}

func (s Summary) IsEmpty() bool {
	return s.Count == 0
}

// Aggregate summarises values. Avg is rounded to three decimals.
func Aggregate(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	lo, hi, sum := values[0], values[0], 0.0
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
		sum += v
	}
	avg := Round3(sum / float64(len(values)))
	return Summary{Max: &hi, Min: &lo, Avg: &avg, Count: len(values)}
}

// FromPushdown builds a Summary from an aggregate computed by the store.
// The store's average is rounded here so both paths agree.
func FromPushdown(count int, hi, lo, avg float64) Summary {
	if count == 0 {
		return Summary{}
	}
	avg = Round3(avg)
	return Summary{Max: &hi, Min: &lo, Avg: &avg, Count: count}
}

// Round3 rounds half away from zero to three decimals.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Project maps items to their numeric projection.
func Project[T any](items []T, fn func(T) int) []float64 {
	out := make([]float64, 0, len(items))
	for _, it := range items {
		out = append(out, float64(fn(it)))
	}
	return out
}

// SortDesc returns a descending copy of values.
func SortDesc(values []float64) []float64 {
	out := slices.Clone(values)
	slices.SortFunc(out, func(a, b float64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	return out
}

// Max returns the largest value, or false for an empty slice.
func Max(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return slices.Max(values), true
}
