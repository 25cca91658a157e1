package apcluster

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hupe1980/apcluster/distance"
	"github.com/hupe1980/apcluster/internal/convergence"
	"github.com/hupe1980/apcluster/internal/engine"
	"github.com/hupe1980/apcluster/internal/exemplar"
	"github.com/hupe1980/apcluster/internal/similarity"
	"github.com/hupe1980/apcluster/resource"
)

// matricesPerRun counts S, R, A and their update buffers.
const matricesPerRun = 5

// Clusterer runs Affinity Propagation with a fixed metric and mutable
// iteration parameters.
//
// A Clusterer is safe for concurrent use. Every Cluster call owns its own
// matrices; the configuration is read once at the start of the call.
type Clusterer struct {
	mu     sync.RWMutex
	params Params

	opts   options
	distFn distance.Func
	metric string
}

// New creates a Clusterer. The parameters are validated eagerly.
func New(optFns ...Option) (*Clusterer, error) {
	o := applyOptions(optFns)

	if err := o.params.Validate(); err != nil {
		return nil, err
	}

	fn, name := o.distanceFunc, CustomMetric
	if fn == nil {
		var err error
		if fn, err = distance.Provider(o.metric); err != nil {
			return nil, invalid(err)
		}
		name = o.metric.String()
	}

	return &Clusterer{
		params: o.params,
		opts:   o,
		distFn: fn,
		metric: name,
	}, nil
}

// NewFromParams creates a Clusterer from a parameter set, for example one
// decoded from a stored Model. p overrides any iteration parameter given in
// optFns.
func NewFromParams(p Params, optFns ...Option) (*Clusterer, error) {
	opts := append(append([]Option(nil), optFns...),
		WithDampingFactor(p.DampingFactor),
		WithMaxIterations(p.MaxIterations),
		WithConvergenceIterations(p.ConvergenceIterations),
	)
	return New(opts...)
}

// Params returns the current iteration parameters.
func (c *Clusterer) Params() Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// Metric returns the name of the distance metric.
func (c *Clusterer) Metric() string { return c.metric }

// DampingFactor returns λ.
func (c *Clusterer) DampingFactor() float64 { return c.Params().DampingFactor }

// MaxIterations returns the iteration budget.
func (c *Clusterer) MaxIterations() int { return c.Params().MaxIterations }

// ConvergenceIterations returns the stability window.
func (c *Clusterer) ConvergenceIterations() int { return c.Params().ConvergenceIterations }

// SetDampingFactor changes λ for subsequent runs.
func (c *Clusterer) SetDampingFactor(v float64) error {
	return c.update(func(p *Params) { p.DampingFactor = v })
}

// SetMaxIterations changes the iteration budget for subsequent runs.
// It must stay above ConvergenceIterations.
func (c *Clusterer) SetMaxIterations(n int) error {
	return c.update(func(p *Params) { p.MaxIterations = n })
}

// SetConvergenceIterations changes the stability window for subsequent runs.
// It must stay below MaxIterations.
func (c *Clusterer) SetConvergenceIterations(n int) error {
	return c.update(func(p *Params) { p.ConvergenceIterations = n })
}

func (c *Clusterer) update(fn func(*Params)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.params
	fn(&p)
	if err := p.Validate(); err != nil {
		return err
	}
	c.params = p
	return nil
}

// Fit clusters dataset into a freshly allocated labels slice.
func (c *Clusterer) Fit(ctx context.Context, dataset [][]float64, preferences []float64) (*Result, error) {
	return c.Cluster(ctx, dataset, make([]int, len(dataset)), preferences)
}

// Cluster groups the points of dataset and writes one label per point into
// labels, which must have len(dataset) entries.
//
// preferences is either empty, in which case every point gets the median
// off-diagonal similarity, or holds one preference per point. Larger
// preferences yield more clusters.
//
// Invalid input is reported before any matrix work and wraps
// ErrInvalidInput. Exhausting MaxIterations is not an error: the result
// carries StatusNonConverged and valid labels. On any error labels are left
// untouched.
func (c *Clusterer) Cluster(ctx context.Context, dataset [][]float64, labels []int, preferences []float64) (res *Result, err error) {
	start := time.Now()
	p := c.Params()
	o := &c.opts

	defer func() {
		elapsed := time.Since(start)
		iterations, converged := 0, false
		if res != nil {
			iterations, converged = res.Iterations, res.Converged()
		}
		o.metricsCollector.RecordCluster(len(dataset), iterations, converged, elapsed, err)
		o.logger.LogClusterDone(ctx, res, elapsed, err)
	}()

	dim, err := validateInput(dataset, labels, preferences)
	if err != nil {
		return nil, err
	}

	n := len(dataset)
	logger := o.logger.WithPoints(n).WithDimension(dim).WithParams(p)
	if !p.recommendedDamping() {
		logger.LogDampingWarning(ctx, p.DampingFactor)
	}

	if err := o.resources.AcquireRun(ctx); err != nil {
		return nil, translateError(err)
	}
	defer o.resources.ReleaseRun()

	mem := resource.MatrixBytes(n, matricesPerRun)
	if err := o.resources.AcquireMemory(mem); err != nil {
		return nil, fmt.Errorf("%d points need %d bytes: %w", n, mem, err)
	}
	defer o.resources.ReleaseMemory(mem)

	r := run{
		ctx:      ctx,
		params:   p,
		opts:     o,
		metric:   c.metric,
		logger:   logger,
		progress: newProgressLogger(logger),
	}

	r.enter(StateInitialized)
	res, err = r.cluster(dataset, c.distFn, preferences)
	if err != nil {
		return nil, translateError(err)
	}

	copy(labels, res.Labels)
	res.Labels = labels
	r.enter(StateLabelsReady)

	return res, nil
}

// run carries the per-call state of Cluster.
type run struct {
	ctx      context.Context
	params   Params
	opts     *options
	metric   string
	logger   *Logger
	progress *progressLogger
}

func (r *run) enter(s State) {
	if r.opts.observer != nil {
		r.opts.observer(s)
	}
}

// cluster computes the result into a private labels slice so the caller's
// slice is only written once everything succeeded.
func (r *run) cluster(dataset [][]float64, fn distance.Func, preferences []float64) (*Result, error) {
	n := len(dataset)

	r.enter(StateComputingSimilarity)
	s, err := similarity.Compute(r.ctx, dataset, fn, r.opts.workers)
	if err != nil {
		return nil, err
	}

	defaulted := len(preferences) == 0
	if defaulted {
		preferences = similarity.Uniform(n, similarity.Median(s))
	} else {
		preferences = append([]float64(nil), preferences...)
	}
	similarity.SetPreferences(s, preferences)
	r.logger.LogClusterStart(r.ctx, r.metric, preferences[0], defaulted)

	eng := engine.New(s, r.params.DampingFactor, r.opts.workers)
	det := convergence.New(r.params.ConvergenceIterations)

	var assignment []int
	status := StatusNonConverged
	for it := 1; it <= r.params.MaxIterations; it++ {
		if err := r.ctx.Err(); err != nil {
			return nil, err
		}

		r.enter(StateIterating)
		iterStart := time.Now()
		if err := eng.Update(); err != nil {
			return nil, fmt.Errorf("iteration %d: %w", it, err)
		}

		assignment = eng.Assign(assignment)
		exemplars := countExemplars(assignment)
		r.opts.metricsCollector.RecordIteration(it, exemplars, time.Since(iterStart))

		stable := det.Observe(assignment)
		r.progress.log(r.ctx, it, exemplars, det.Stable())

		// A single point is its own exemplar after the first update.
		if stable || n == 1 {
			status = StatusConverged
			break
		}
	}

	if status == StatusConverged {
		r.enter(StateConverged)
	} else {
		r.enter(StateExhausted)
	}

	a := exemplar.Extract(eng.Criterion())
	labels := make([]int, n)
	a.Labels(labels, r.opts.compactLabels)

	return &Result{
		Labels:      labels,
		ExemplarOf:  a.ExemplarOf,
		Exemplars:   a.Exemplars,
		Iterations:  eng.Iteration(),
		Status:      status,
		Preferences: preferences,
		params:      r.params,
		metric:      r.metric,
		compact:     r.opts.compactLabels,
	}, nil
}

func countExemplars(assignment []int) int {
	k := 0
	for i, e := range assignment {
		if i == e {
			k++
		}
	}
	return k
}

// validateInput returns the common dimension of dataset.
func validateInput(dataset [][]float64, labels []int, preferences []float64) (int, error) {
	n := len(dataset)
	if n == 0 {
		return 0, invalid(ErrEmptyDataset)
	}

	dim := len(dataset[0])
	if dim == 0 {
		return 0, &ErrDimensionMismatch{Expected: 1, Actual: 0, Index: 0}
	}

	for i, row := range dataset {
		if len(row) != dim {
			return 0, &ErrDimensionMismatch{Expected: dim, Actual: len(row), Index: i}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, invalid(fmt.Errorf("%w: dataset[%d][%d] = %v", ErrNonFiniteInput, i, j, v))
			}
		}
	}

	if len(labels) != n {
		return 0, &ErrLabelsLength{Expected: n, Actual: len(labels)}
	}

	if len(preferences) != 0 {
		if len(preferences) != n {
			return 0, &ErrPreferencesLength{Expected: n, Actual: len(preferences)}
		}
		for i, v := range preferences {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, invalid(fmt.Errorf("%w: preferences[%d] = %v", ErrNonFiniteInput, i, v))
			}
		}
	}

	return dim, nil
}
