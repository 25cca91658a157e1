package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/apcluster/distance"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmptyDataset is returned when there are no points to compare.
	ErrEmptyDataset = errors.New("similarity: empty dataset")

	// ErrNonFinite is returned when the metric produces NaN or ±Inf.
	ErrNonFinite = errors.New("similarity: non-finite distance")
)

// Compute builds S with S(i,j) = -fn(points[i], points[j]) for i != j.
// The diagonal is left at zero. Rows are filled concurrently by at most
// workers goroutines; the result does not depend on the worker count.
func Compute(ctx context.Context, points [][]float64, fn distance.Func, workers int) (*mat.Dense, error) {
	n := len(points)
	if n == 0 {
		return nil, ErrEmptyDataset
	}
	if workers < 1 {
		workers = 1
	}

	s := mat.NewDense(n, n, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := s.RawRowView(i)
			for j := range row {
				if i == j {
					continue
				}
				d := fn(points[i], points[j])
				if math.IsNaN(d) || math.IsInf(d, 0) {
					return fmt.Errorf("%w: d(%d,%d) = %v", ErrNonFinite, i, j, d)
				}
				row[j] = -d
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// Median returns the median of all off-diagonal entries of s.
// Both triangles are included, so asymmetric metrics contribute every ordered pair.
// With an even count the two middle values are averaged. A 1×1 matrix yields 0.
func Median(s *mat.Dense) float64 {
	n, _ := s.Dims()
	if n < 2 {
		return 0
	}

	vals := make([]float64, 0, n*(n-1))
	for i := 0; i < n; i++ {
		for j, v := range s.RawRowView(i) {
			if i != j {
				vals = append(vals, v)
			}
		}
	}
	slices.Sort(vals)

	m := len(vals)
	if m%2 == 1 {
		return vals[m/2]
	}
	return (vals[m/2-1] + vals[m/2]) / 2
}

// SetPreferences writes prefs onto the diagonal of s.
// len(prefs) must equal the matrix order.
func SetPreferences(s *mat.Dense, prefs []float64) {
	for i, p := range prefs {
		s.Set(i, i, p)
	}
}

// Uniform returns a slice of n copies of v.
func Uniform(n int, v float64) []float64 {
	prefs := make([]float64, n)
	for i := range prefs {
		prefs[i] = v
	}
	return prefs
}
