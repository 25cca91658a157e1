package apcluster

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Result describes a finished clustering run.
type Result struct {
	// Labels is the caller's labels slice, filled with one label per point.
	Labels []int

	// ExemplarOf maps every point to the index of its exemplar.
	ExemplarOf []int

	// Exemplars lists the exemplar indices in ascending order.
	Exemplars []int

	// Iterations is the number of completed message-passing iterations.
	Iterations int

	Status Status

	// Preferences holds the diagonal of S that was used, one per point.
	Preferences []float64

	params  Params
	metric  string
	compact bool
}

// Converged reports whether the run stopped on a stable assignment.
func (r *Result) Converged() bool { return r.Status == StatusConverged }

// NumClusters returns the number of exemplars.
func (r *Result) NumClusters() int { return len(r.Exemplars) }

// ExemplarSet returns the exemplar indices as a bitmap.
func (r *Result) ExemplarSet() *roaring.Bitmap {
	bm := roaring.New()
	for _, e := range r.Exemplars {
		bm.Add(uint32(e))
	}
	return bm
}

// Members returns the points carrying the given label.
func (r *Result) Members(label int) *roaring.Bitmap {
	bm := roaring.New()
	for i, l := range r.Labels {
		if l == label {
			bm.Add(uint32(i))
		}
	}
	return bm
}

// Clusters returns one member bitmap per exemplar, in exemplar order.
func (r *Result) Clusters() []*roaring.Bitmap {
	index := make(map[int]int, len(r.Exemplars))
	out := make([]*roaring.Bitmap, len(r.Exemplars))
	for c, e := range r.Exemplars {
		index[e] = c
		out[c] = roaring.New()
	}
	for i, e := range r.ExemplarOf {
		out[index[e]].Add(uint32(i))
	}
	return out
}

// Model returns a serialisable summary of the run.
func (r *Result) Model() *Model {
	return &Model{
		Params:        r.params,
		Metric:        r.metric,
		CompactLabels: r.compact,
		Labels:        append([]int(nil), r.Labels...),
		Exemplars:     append([]int(nil), r.Exemplars...),
		Iterations:    r.Iterations,
		Converged:     r.Converged(),
	}
}
