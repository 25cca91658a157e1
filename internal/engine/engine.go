package engine

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrNumericInstability is returned when an update produces NaN or ±Inf.
var ErrNumericInstability = errors.New("engine: numeric instability")

// minParallelRows is the matrix order below which sweeps run inline.
const minParallelRows = 64

// Engine holds the message state of one clustering run.
type Engine struct {
	n       int
	damping float64
	workers int

	s *mat.Dense

	r, rNext *mat.Dense
	a, aNext *mat.Dense

	iteration int
}

// New creates an engine over the similarity matrix s, whose diagonal must
// already hold the preferences. s is read but never modified.
func New(s *mat.Dense, damping float64, workers int) *Engine {
	n, _ := s.Dims()
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		n:       n,
		damping: damping,
		workers: workers,
		s:       s,
		r:       mat.NewDense(n, n, nil),
		rNext:   mat.NewDense(n, n, nil),
		a:       mat.NewDense(n, n, nil),
		aNext:   mat.NewDense(n, n, nil),
	}
}

// Iteration returns the number of completed updates.
func (e *Engine) Iteration() int { return e.iteration }

// Responsibility returns the current R matrix. It must not be modified.
func (e *Engine) Responsibility() *mat.Dense { return e.r }

// Availability returns the current A matrix. It must not be modified.
func (e *Engine) Availability() *mat.Dense { return e.a }

// Update runs one damped responsibility sweep followed by one damped
// availability sweep.
func (e *Engine) Update() error {
	if err := e.sweep(e.responsibility); err != nil {
		return err
	}
	e.r, e.rNext = e.rNext, e.r

	if err := e.sweep(e.availability); err != nil {
		// Restore the previous R so the pair stays consistent.
		e.r, e.rNext = e.rNext, e.r
		return err
	}
	e.a, e.aNext = e.aNext, e.a

	e.iteration++
	return nil
}

// Criterion returns C = A + R as a new matrix.
func (e *Engine) Criterion() *mat.Dense {
	c := mat.NewDense(e.n, e.n, nil)
	c.Add(e.a, e.r)
	return c
}

// Assign writes argmax_k C(i,k) for every row into dst and returns it.
// Ties resolve to the lowest index. dst is grown if it is too short.
func (e *Engine) Assign(dst []int) []int {
	if cap(dst) < e.n {
		dst = make([]int, e.n)
	}
	dst = dst[:e.n]

	row := make([]float64, e.n)
	for i := 0; i < e.n; i++ {
		floats.AddTo(row, e.a.RawRowView(i), e.r.RawRowView(i))
		dst[i] = floats.MaxIdx(row)
	}
	return dst
}

func (e *Engine) sweep(fn func(lo, hi int) error) error {
	if e.workers == 1 || e.n < minParallelRows {
		return fn(0, e.n)
	}

	chunk := (e.n + e.workers - 1) / e.workers

	var g errgroup.Group
	g.SetLimit(e.workers)
	for lo := 0; lo < e.n; lo += chunk {
		hi := min(lo+chunk, e.n)
		g.Go(func() error {
			return fn(lo, hi)
		})
	}
	return g.Wait()
}

// responsibility fills rows [lo, hi) of rNext from S and the current A.
func (e *Engine) responsibility(lo, hi int) error {
	for i := lo; i < hi; i++ {
		s := e.s.RawRowView(i)
		a := e.a.RawRowView(i)
		old := e.r.RawRowView(i)
		out := e.rNext.RawRowView(i)

		first, second := math.Inf(-1), math.Inf(-1)
		arg := -1
		for k := range s {
			v := a[k] + s[k]
			if v > first {
				second = first
				first = v
				arg = k
			} else if v > second {
				second = v
			}
		}

		for k := range s {
			var raw float64
			switch {
			case e.n == 1:
				// No competing candidate.
				raw = s[k]
			case k == arg:
				raw = s[k] - second
			default:
				raw = s[k] - first
			}

			v := damp(e.damping, old[k], raw)
			if !isFinite(v) {
				return fmt.Errorf("%w: R(%d,%d) = %v", ErrNumericInstability, i, k, v)
			}
			out[k] = v
		}
	}
	return nil
}

// availability fills columns [lo, hi) of aNext from the freshly swapped R.
func (e *Engine) availability(lo, hi int) error {
	r := e.r.RawMatrix()
	a := e.a.RawMatrix()
	out := e.aNext.RawMatrix()
	n := e.n

	for k := lo; k < hi; k++ {
		var sum float64
		for i := 0; i < n; i++ {
			if i != k {
				sum += math.Max(0, r.Data[i*r.Stride+k])
			}
		}

		rkk := r.Data[k*r.Stride+k]
		for i := 0; i < n; i++ {
			var raw float64
			if i == k {
				raw = sum
			} else {
				raw = math.Min(0, rkk+sum-math.Max(0, r.Data[i*r.Stride+k]))
			}

			v := damp(e.damping, a.Data[i*a.Stride+k], raw)
			if !isFinite(v) {
				return fmt.Errorf("%w: A(%d,%d) = %v", ErrNumericInstability, i, k, v)
			}
			out.Data[i*out.Stride+k] = v
		}
	}
	return nil
}

// damp blends old and raw. The explicit conversions force rounding of each
// product so the compiler cannot fuse them into an FMA, which keeps results
// identical across architectures.
func damp(lambda, old, raw float64) float64 {
	return float64(lambda*old) + float64((1-lambda)*raw)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
