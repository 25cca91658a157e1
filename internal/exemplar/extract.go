// Package exemplar derives exemplars and cluster labels from the criterion matrix C = A + R.
package exemplar

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Assignment is the resolved exemplar structure of a run.
type Assignment struct {
	// ExemplarOf maps every point to its exemplar. ExemplarOf[e] == e for every exemplar e.
	ExemplarOf []int
	// Exemplars lists the exemplar indices in ascending order.
	Exemplars []int
}

// Extract computes argmax_k C(i,k) for every row, lowest index winning ties,
// and resolves the result into a consistent Assignment:
//
//   - The exemplars are the points whose argmax is themselves.
//   - If there are none, the point with the largest C(i,i) becomes the only exemplar.
//   - A point whose argmax is not an exemplar is moved to the exemplar e
//     maximizing C(i,e).
func Extract(c *mat.Dense) Assignment {
	n, _ := c.Dims()

	exemplarOf := make([]int, n)
	for i := 0; i < n; i++ {
		exemplarOf[i] = floats.MaxIdx(c.RawRowView(i))
	}

	var exemplars []int
	for i, k := range exemplarOf {
		if i == k {
			exemplars = append(exemplars, i)
		}
	}

	if len(exemplars) == 0 {
		best := 0
		for i := 1; i < n; i++ {
			if c.At(i, i) > c.At(best, best) {
				best = i
			}
		}
		exemplarOf[best] = best
		exemplars = []int{best}
	}

	isExemplar := make([]bool, n)
	for _, e := range exemplars {
		isExemplar[e] = true
	}

	for i, k := range exemplarOf {
		if isExemplar[k] {
			continue
		}
		row := c.RawRowView(i)
		best := exemplars[0]
		for _, e := range exemplars[1:] {
			if row[e] > row[best] {
				best = e
			}
		}
		exemplarOf[i] = best
	}

	return Assignment{ExemplarOf: exemplarOf, Exemplars: exemplars}
}

// NumClusters returns the number of exemplars.
func (a Assignment) NumClusters() int { return len(a.Exemplars) }

// Labels writes one label per point into dst, which must have len(a.ExemplarOf) entries.
//
// With compact set, exemplars are numbered 0..K-1 in ascending index order.
// Otherwise the exemplar index itself is the label.
func (a Assignment) Labels(dst []int, compact bool) {
	if !compact {
		copy(dst, a.ExemplarOf)
		return
	}

	ids := make(map[int]int, len(a.Exemplars))
	for id, e := range a.Exemplars {
		ids[e] = id
	}
	for i, e := range a.ExemplarOf {
		dst[i] = ids[e]
	}
}
