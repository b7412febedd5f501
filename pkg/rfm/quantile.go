package rfm

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// quintiles are the cut probabilities separating the five score bins.
var quintiles = []float64{0.2, 0.4, 0.6, 0.8}

// cutPoints returns the empirical quintile boundaries of values.
// Duplicate boundaries are kept: they simply make some bins empty.
func cutPoints(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	cuts := make([]float64, len(quintiles))
	for i, p := range quintiles {
		cuts[i] = stat.Quantile(p, stat.Empirical, sorted, nil)
	}
	return cuts
}

// bin places v into 1..5: one plus the number of boundaries strictly below v.
// A value sitting on a boundary stays in the lower bin, so a tie group never
// straddles two bins.
func bin(v float64, cuts []float64) int {
	b := 1
	for _, c := range cuts {
		if v > c {
			b++
		}
	}
	return b
}

// Bins scores every value against the quintiles of the whole slice.
// With fewer than five distinct values the bins collapse into fewer, wider
// ones instead of failing; a single distinct value yields 1 everywhere.
func Bins(values []float64) []int {
	cuts := cutPoints(values)
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = bin(v, cuts)
	}
	return out
}

// ReverseBins is Bins for metrics where smaller is better (recency):
// the score is 6 - bin, so the smallest values score 5.
func ReverseBins(values []float64) []int {
	out := Bins(values)
	for i, b := range out {
		out[i] = 6 - b
	}
	return out
}
