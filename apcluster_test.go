package apcluster_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/apcluster"
	"github.com/hupe1980/apcluster/distance"
	"github.com/hupe1980/apcluster/resource"
	"github.com/hupe1980/apcluster/testutil"
)

var (
	twoPairs = [][]float64{{0, 0}, {0, 1}, {10, 0}, {10, 1}}

	twoTriples = [][]float64{{0, 0}, {0, 1}, {0, 2}, {10, 0}, {10, 1}, {10, 2}}

	threeBlobs = [][]float64{
		{0, 0}, {0.5, 0.2}, {0.1, 0.6},
		{5, 5}, {5.4, 5.1}, {4.8, 5.6},
		{10, 0}, {10.3, 0.4}, {9.7, 0.2},
	}
)

func newClusterer(t *testing.T, opts ...apcluster.Option) *apcluster.Clusterer {
	t.Helper()
	c, err := apcluster.New(opts...)
	require.NoError(t, err)
	return c
}

// assertExemplarInvariant checks that every exemplar chooses itself and that
// the distinct labels are exactly the exemplars.
func assertExemplarInvariant(t *testing.T, res *apcluster.Result) {
	t.Helper()

	for _, e := range res.Exemplars {
		assert.Equal(t, e, res.ExemplarOf[e], "exemplar %d must choose itself", e)
	}
	for i, e := range res.ExemplarOf {
		assert.Equal(t, e, res.ExemplarOf[e], "point %d points at non-exemplar %d", i, e)
	}

	distinct := map[int]struct{}{}
	for _, l := range res.Labels {
		distinct[l] = struct{}{}
	}
	assert.Len(t, distinct, res.NumClusters())
	assert.Equal(t, uint64(res.NumClusters()), res.ExemplarSet().GetCardinality())
}

func TestCluster_TwoPairs(t *testing.T) {
	c := newClusterer(t,
		apcluster.WithDampingFactor(0.5),
		apcluster.WithMaxIterations(200),
		apcluster.WithConvergenceIterations(10),
	)

	labels := make([]int, len(twoPairs))
	res, err := c.Cluster(context.Background(), twoPairs, labels, nil)
	require.NoError(t, err)

	assert.True(t, res.Converged())
	assert.Less(t, res.Iterations, 200)
	assert.Equal(t, 2, res.NumClusters())
	assert.Equal(t, []int{0, 0, 1, 1}, labels)
	assert.Equal(t, []int{0, 0, 2, 2}, res.ExemplarOf)
	assert.Equal(t, []float64{-10, -10, -10, -10}, res.Preferences)
	assertExemplarInvariant(t, res)
}

// Two perfectly symmetric pairs oscillate at high damping. With a window of
// 10 the run settles on a self-consistent plateau where every point is its
// own exemplar.
func TestCluster_TwoPairsHighDamping(t *testing.T) {
	c := newClusterer(t,
		apcluster.WithDampingFactor(0.9),
		apcluster.WithMaxIterations(200),
		apcluster.WithConvergenceIterations(10),
	)

	labels := make([]int, len(twoPairs))
	res, err := c.Cluster(context.Background(), twoPairs, labels, nil)
	require.NoError(t, err)

	assert.True(t, res.Converged())
	assert.Equal(t, 39, res.Iterations)
	assert.Equal(t, []int{0, 1, 2, 3}, res.Exemplars)
	assert.Equal(t, []int{0, 1, 2, 3}, labels)
	assertExemplarInvariant(t, res)
}

func TestCluster_TwoTriplesAcrossDamping(t *testing.T) {
	for _, damping := range []float64{0.5, 0.7, 0.9, 0.95} {
		c := newClusterer(t, apcluster.WithDampingFactor(damping))

		res, err := c.Fit(context.Background(), twoTriples, nil)
		require.NoError(t, err)

		assert.True(t, res.Converged(), "damping %v", damping)
		assert.Less(t, res.Iterations, c.MaxIterations())
		assert.Equal(t, []int{1, 4}, res.Exemplars, "damping %v", damping)
		assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, res.Labels, "damping %v", damping)
	}
}

func TestCluster_IdenticalPoints(t *testing.T) {
	points := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}, {1, 1}}

	for _, damping := range []float64{0.5, 0.9} {
		c := newClusterer(t, apcluster.WithDampingFactor(damping))

		res, err := c.Fit(context.Background(), points, nil)
		require.NoError(t, err)

		assert.True(t, res.Converged())
		assert.Equal(t, 1, res.NumClusters())
		assert.Equal(t, []int{0, 0, 0, 0, 0}, res.Labels)
		assert.Equal(t, []int{0}, res.Exemplars)
	}
}

func TestCluster_InvalidDamping(t *testing.T) {
	for _, damping := range []float64{0, 1, -0.1, 1.5, math.NaN()} {
		_, err := apcluster.New(apcluster.WithDampingFactor(damping))
		require.Error(t, err)
		assert.ErrorIs(t, err, apcluster.ErrInvalidInput)

		var de *apcluster.ErrInvalidDampingFactor
		assert.ErrorAs(t, err, &de)
	}
}

func TestCluster_PreferencesLength(t *testing.T) {
	c := newClusterer(t)
	labels := []int{7, 7, 7, 7}

	_, err := c.Cluster(context.Background(), twoPairs, labels, make([]float64, len(twoPairs)+1))
	require.Error(t, err)
	assert.ErrorIs(t, err, apcluster.ErrInvalidInput)

	var pe *apcluster.ErrPreferencesLength
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 4, pe.Expected)
	assert.Equal(t, 5, pe.Actual)

	assert.Equal(t, []int{7, 7, 7, 7}, labels, "labels must stay untouched")
}

func TestCluster_NonConvergence(t *testing.T) {
	c := newClusterer(t,
		apcluster.WithDampingFactor(0.5),
		apcluster.WithMaxIterations(50),
		apcluster.WithConvergenceIterations(12),
	)

	res, err := c.Fit(context.Background(), twoPairs, nil)
	require.NoError(t, err)

	assert.Equal(t, apcluster.StatusNonConverged, res.Status)
	assert.False(t, res.Converged())
	assert.Equal(t, 50, res.Iterations)
	assert.Len(t, res.Labels, len(twoPairs))
	assertExemplarInvariant(t, res)
}

func TestCluster_SinglePoint(t *testing.T) {
	c := newClusterer(t)

	res, err := c.Fit(context.Background(), [][]float64{{3, 4}}, nil)
	require.NoError(t, err)

	assert.True(t, res.Converged())
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, []int{0}, res.Labels)
	assert.Equal(t, []int{0}, res.Exemplars)
	assert.Equal(t, []float64{0}, res.Preferences)
}

func TestCluster_Determinism(t *testing.T) {
	c := newClusterer(t, apcluster.WithDampingFactor(0.9))

	first, err := c.Fit(context.Background(), threeBlobs, nil)
	require.NoError(t, err)

	for range 5 {
		res, err := c.Fit(context.Background(), threeBlobs, nil)
		require.NoError(t, err)
		assert.Equal(t, first.Labels, res.Labels)
		assert.Equal(t, first.Iterations, res.Iterations)
	}
}

func TestCluster_WorkerIndependence(t *testing.T) {
	rng := testutil.NewRNG(7)
	points := rng.GaussianPoints(96, 3)

	var want *apcluster.Result
	for _, workers := range []int{1, 2, 5, 16} {
		c := newClusterer(t, apcluster.WithWorkers(workers), apcluster.WithDampingFactor(0.9))

		res, err := c.Fit(context.Background(), points, nil)
		require.NoError(t, err)
		assertExemplarInvariant(t, res)

		if want == nil {
			want = res
			continue
		}
		assert.Equal(t, want.Labels, res.Labels, "workers %d", workers)
		assert.Equal(t, want.Iterations, res.Iterations, "workers %d", workers)
	}
}

func TestCluster_DampingSlowsConvergence(t *testing.T) {
	want := []int{0, 0, 0, 1, 1, 1, 2, 2, 2}
	prev := 0

	for _, damping := range []float64{0.5, 0.6, 0.7, 0.8, 0.9, 0.95} {
		c := newClusterer(t, apcluster.WithDampingFactor(damping))

		res, err := c.Fit(context.Background(), threeBlobs, nil)
		require.NoError(t, err)

		assert.True(t, res.Converged(), "damping %v", damping)
		assert.Equal(t, want, res.Labels, "damping %v", damping)
		assert.Greater(t, res.Iterations, prev, "damping %v", damping)
		prev = res.Iterations
	}
}

func TestCluster_GaussianBlobs(t *testing.T) {
	rng := testutil.NewRNG(42)
	points, truth := rng.Blobs([][]float64{{0, 0}, {20, 0}, {0, 20}}, 10, 0.5)

	c := newClusterer(t,
		apcluster.WithDampingFactor(0.9),
		apcluster.WithMaxIterations(300),
		apcluster.WithConvergenceIterations(15),
	)

	res, err := c.Fit(context.Background(), points, nil)
	require.NoError(t, err)

	assert.True(t, res.Converged())
	assert.Equal(t, 3, res.NumClusters())
	assert.True(t, testutil.SamePartition(truth, res.Labels))
	assertExemplarInvariant(t, res)
}

func TestCluster_ExplicitPreferences(t *testing.T) {
	c := newClusterer(t)

	t.Run("zero preference keeps every point", func(t *testing.T) {
		res, err := c.Fit(context.Background(), twoTriples, make([]float64, 6))
		require.NoError(t, err)
		assert.Equal(t, 6, res.NumClusters())
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, res.Labels)
	})

	t.Run("low preference merges everything", func(t *testing.T) {
		prefs := []float64{-100, -100, -100, -100, -100, -100}
		res, err := c.Fit(context.Background(), twoTriples, prefs)
		require.NoError(t, err)
		assert.Equal(t, 1, res.NumClusters())
		assert.Equal(t, prefs, res.Preferences)

		prefs[0] = 0
		assert.Equal(t, -100.0, res.Preferences[0], "result must not alias caller preferences")
	})
}

func TestCluster_IndexLabels(t *testing.T) {
	c := newClusterer(t, apcluster.WithCompactLabels(false))

	res, err := c.Fit(context.Background(), twoTriples, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 1, 4, 4, 4}, res.Labels)
	assert.Equal(t, []uint32{0, 1, 2}, res.Members(1).ToArray())
	assert.Equal(t, []uint32{3, 4, 5}, res.Members(4).ToArray())
	assert.True(t, res.Members(0).IsEmpty())
}

func TestCluster_SquaredL2(t *testing.T) {
	c := newClusterer(t, apcluster.WithMetric(distance.MetricSquaredL2))

	res, err := c.Fit(context.Background(), twoPairs, nil)
	require.NoError(t, err)

	assert.Equal(t, "SquaredL2", c.Metric())
	assert.Equal(t, []int{0, 0, 1, 1}, res.Labels)
}

func TestCluster_CustomDistance(t *testing.T) {
	var calls int
	manhattan := func(a, b []float64) float64 {
		calls++
		return distance.Manhattan(a, b)
	}

	c := newClusterer(t, apcluster.WithDistanceFunc(manhattan), apcluster.WithWorkers(1))
	assert.Equal(t, apcluster.CustomMetric, c.Metric())

	res, err := c.Fit(context.Background(), twoTriples, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, calls)
	assert.Equal(t, apcluster.CustomMetric, res.Model().Metric)
}

func TestCluster_NonFiniteDistance(t *testing.T) {
	c := newClusterer(t, apcluster.WithDistanceFunc(func(a, b []float64) float64 {
		return math.Inf(1)
	}))

	labels := []int{9, 9}
	_, err := c.Cluster(context.Background(), [][]float64{{0}, {1}}, labels, nil)
	assert.ErrorIs(t, err, apcluster.ErrNumericInstability)
	assert.Equal(t, []int{9, 9}, labels)
}

func TestCluster_NumericInstability(t *testing.T) {
	huge := func(a, b []float64) float64 { return math.MaxFloat64 }
	c := newClusterer(t, apcluster.WithDistanceFunc(huge))

	// R(0,0) = S(0,0) - S(0,1) = +Inf in the first sweep.
	labels := []int{9, 9}
	prefs := []float64{math.MaxFloat64, math.MaxFloat64}
	_, err := c.Cluster(context.Background(), [][]float64{{0}, {1}}, labels, prefs)
	require.Error(t, err)
	assert.ErrorIs(t, err, apcluster.ErrNumericInstability)
	assert.NotErrorIs(t, err, apcluster.ErrInvalidInput)
	assert.Equal(t, []int{9, 9}, labels)
}

func TestCluster_ValidationErrors(t *testing.T) {
	c := newClusterer(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		dataset [][]float64
		labels  []int
		prefs   []float64
		target  error
	}{
		{"empty", nil, nil, nil, apcluster.ErrEmptyDataset},
		{"zero dimension", [][]float64{{}, {}}, make([]int, 2), nil, apcluster.ErrInvalidInput},
		{"ragged", [][]float64{{0, 0}, {1}}, make([]int, 2), nil, apcluster.ErrInvalidInput},
		{"nan", [][]float64{{0}, {math.NaN()}}, make([]int, 2), nil, apcluster.ErrNonFiniteInput},
		{"inf preference", [][]float64{{0}, {1}}, make([]int, 2), []float64{0, math.Inf(-1)}, apcluster.ErrNonFiniteInput},
		{"labels", [][]float64{{0}, {1}}, make([]int, 1), nil, apcluster.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Cluster(ctx, tt.dataset, tt.labels, tt.prefs)
			require.Error(t, err)
			assert.ErrorIs(t, err, apcluster.ErrInvalidInput)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	var dm *apcluster.ErrDimensionMismatch
	_, err := c.Cluster(ctx, [][]float64{{0, 0}, {1, 1}, {2}}, make([]int, 3), nil)
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.Index)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 1, dm.Actual)

	var le *apcluster.ErrLabelsLength
	_, err = c.Cluster(ctx, twoPairs, make([]int, 3), nil)
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 4, le.Expected)
}

func TestCluster_Cancelled(t *testing.T) {
	c := newClusterer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	labels := []int{5, 5, 5, 5}
	_, err := c.Cluster(ctx, twoPairs, labels, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{5, 5, 5, 5}, labels)
}

func TestCluster_CancelledBetweenIterations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	iterations := 0
	c := newClusterer(t, apcluster.WithStateObserver(func(s apcluster.State) {
		if s == apcluster.StateIterating {
			iterations++
			if iterations == 3 {
				cancel()
			}
		}
	}))

	labels := make([]int, len(twoPairs))
	_, err := c.Cluster(ctx, twoPairs, labels, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, iterations)
	assert.Equal(t, []int{0, 0, 0, 0}, labels)
}

func TestCluster_StateSequence(t *testing.T) {
	var states []apcluster.State
	c := newClusterer(t, apcluster.WithStateObserver(func(s apcluster.State) {
		states = append(states, s)
	}))

	res, err := c.Fit(context.Background(), [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}, {1, 1}}, nil)
	require.NoError(t, err)

	want := []apcluster.State{apcluster.StateInitialized, apcluster.StateComputingSimilarity}
	for range res.Iterations {
		want = append(want, apcluster.StateIterating)
	}
	want = append(want, apcluster.StateConverged, apcluster.StateLabelsReady)
	assert.Equal(t, want, states)

	states = nil
	c2 := newClusterer(t,
		apcluster.WithStateObserver(func(s apcluster.State) { states = append(states, s) }),
		apcluster.WithMaxIterations(20),
		apcluster.WithConvergenceIterations(12),
	)
	_, err = c2.Fit(context.Background(), twoPairs, nil)
	require.NoError(t, err)
	assert.Equal(t, apcluster.StateExhausted, states[len(states)-2])
	assert.Equal(t, apcluster.StateLabelsReady, states[len(states)-1])
}

func TestCluster_MemoryLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1024})
	c := newClusterer(t, apcluster.WithResourceController(rc))

	// 4 points need 5*16*8 = 640 bytes.
	_, err := c.Fit(context.Background(), twoPairs, nil)
	require.NoError(t, err)
	assert.Zero(t, rc.MemoryUsage())

	// 6 points need 5*36*8 = 1440 bytes.
	_, err = c.Fit(context.Background(), twoTriples, nil)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Zero(t, rc.MemoryUsage())
}

func TestCluster_RunLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MaxConcurrentRuns: 1})
	require.True(t, rc.TryAcquireRun())

	c := newClusterer(t, apcluster.WithResourceController(rc))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fit(ctx, twoPairs, nil)
	assert.ErrorIs(t, err, context.Canceled)

	rc.ReleaseRun()
	_, err = c.Fit(context.Background(), twoPairs, nil)
	assert.NoError(t, err)
	assert.Zero(t, rc.ActiveRuns())
}

func TestCluster_Concurrent(t *testing.T) {
	c := newClusterer(t)

	errs := make(chan error, 8)
	for range 8 {
		go func() {
			res, err := c.Fit(context.Background(), twoTriples, nil)
			if err == nil && res.NumClusters() != 2 {
				err = errors.New("unexpected cluster count")
			}
			errs <- err
		}()
	}
	for range 8 {
		assert.NoError(t, <-errs)
	}
}

func TestClusterer_Setters(t *testing.T) {
	c := newClusterer(t)

	assert.Equal(t, apcluster.DefaultDampingFactor, c.DampingFactor())
	assert.Equal(t, apcluster.DefaultMaxIterations, c.MaxIterations())
	assert.Equal(t, apcluster.DefaultConvergenceIterations, c.ConvergenceIterations())

	require.NoError(t, c.SetDampingFactor(0.75))
	assert.Equal(t, 0.75, c.DampingFactor())

	assert.ErrorIs(t, c.SetDampingFactor(1), apcluster.ErrInvalidInput)
	assert.Equal(t, 0.75, c.DampingFactor(), "failed setter must not change state")

	assert.ErrorIs(t, c.SetMaxIterations(10), apcluster.ErrInvalidInput)
	require.NoError(t, c.SetMaxIterations(11))
	assert.Equal(t, 11, c.MaxIterations())

	var ie *apcluster.ErrInvalidIterations
	require.ErrorAs(t, c.SetConvergenceIterations(0), &ie)
	assert.Equal(t, 0, ie.ConvergenceIterations)

	require.NoError(t, c.SetConvergenceIterations(3))
	assert.Equal(t, apcluster.Params{DampingFactor: 0.75, MaxIterations: 11, ConvergenceIterations: 3}, c.Params())
}

func TestNew_InvalidIterations(t *testing.T) {
	for _, tc := range []struct{ max, conv int }{{0, 1}, {10, 10}, {10, 11}, {10, 0}, {1, 1}} {
		_, err := apcluster.New(
			apcluster.WithMaxIterations(tc.max),
			apcluster.WithConvergenceIterations(tc.conv),
		)
		assert.ErrorIs(t, err, apcluster.ErrInvalidInput, "max=%d conv=%d", tc.max, tc.conv)
	}
}

func TestNew_UnknownMetric(t *testing.T) {
	_, err := apcluster.New(apcluster.WithMetric(distance.Metric(99)))
	assert.ErrorIs(t, err, apcluster.ErrInvalidInput)
}

func TestNewFromParams(t *testing.T) {
	p := apcluster.Params{DampingFactor: 0.8, MaxIterations: 100, ConvergenceIterations: 5}

	c, err := apcluster.NewFromParams(p, apcluster.WithDampingFactor(0.6))
	require.NoError(t, err)
	assert.Equal(t, p, c.Params())

	_, err = apcluster.NewFromParams(apcluster.Params{})
	assert.ErrorIs(t, err, apcluster.ErrInvalidInput)
}

func TestResult_Clusters(t *testing.T) {
	c := newClusterer(t)

	res, err := c.Fit(context.Background(), twoTriples, nil)
	require.NoError(t, err)

	clusters := res.Clusters()
	require.Len(t, clusters, 2)
	assert.Equal(t, []uint32{0, 1, 2}, clusters[0].ToArray())
	assert.Equal(t, []uint32{3, 4, 5}, clusters[1].ToArray())
	assert.Equal(t, []uint32{1, 4}, res.ExemplarSet().ToArray())
	assert.Equal(t, clusters[1].ToArray(), res.Members(1).ToArray())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "Converged", apcluster.StatusConverged.String())
	assert.Equal(t, "NonConverged", apcluster.StatusNonConverged.String())
	assert.Equal(t, "Status(7)", apcluster.Status(7).String())
	assert.Equal(t, "ComputingSimilarity", apcluster.StateComputingSimilarity.String())
	assert.Equal(t, "LabelsReady", apcluster.StateLabelsReady.String())
	assert.Equal(t, "State(42)", apcluster.State(42).String())
}
