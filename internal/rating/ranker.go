// Package rating recomputes borough-local ratings by percentile rank against
// a subset of zones in the same frame.
package rating

import (
	"slices"
	"sort"
)

// Ranker returns rank percentiles against a fixed reference set. The set is
// sorted once at construction.
type Ranker struct {
	sorted []float64
}

// NewRanker copies and sorts samples.
func NewRanker(samples []float64) *Ranker {
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return &Ranker{sorted: sorted}
}

// Len returns the number of reference samples.
func (r *Ranker) Len() int {
	return len(r.sorted)
}

// Percentile returns i/(N-1) for the rightmost i with sorted[i] <= v, clamped
// to [0, 1]. Ties share the highest tied rank. With N <= 1 it returns 0.
func (r *Ranker) Percentile(v float64) float64 {
	n := len(r.sorted)
	if n <= 1 {
		return 0
	}
	i := sort.Search(n, func(i int) bool { return r.sorted[i] > v }) - 1
	return clamp01(float64(i) / float64(n-1))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
