package apcluster

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/apcluster/distance"
	"github.com/hupe1980/apcluster/resource"
)

// Defaults for the three iteration parameters.
const (
	DefaultDampingFactor         = 0.5
	DefaultMaxIterations         = 200
	DefaultConvergenceIterations = 10
)

type options struct {
	params           Params
	metric           distance.Metric
	distanceFunc     distance.Func
	workers          int
	compactLabels    bool
	metricsCollector MetricsCollector
	logger           *Logger
	resources        *resource.Controller
	observer         func(State)
}

// Option configures a Clusterer.
type Option func(*options)

// WithDampingFactor sets the damping factor λ in (0, 1). Values below 0.5
// are accepted but logged as a warning since they tend to oscillate.
func WithDampingFactor(v float64) Option {
	return func(o *options) {
		o.params.DampingFactor = v
	}
}

// WithMaxIterations sets the upper bound on message-passing iterations.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.params.MaxIterations = n
	}
}

// WithConvergenceIterations sets how many consecutive iterations the
// exemplar assignment must stay unchanged before the run stops.
func WithConvergenceIterations(n int) Option {
	return func(o *options) {
		o.params.ConvergenceIterations = n
	}
}

// WithMetric selects one of the built-in distance metrics.
// The default is distance.MetricEuclidean.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
		o.distanceFunc = nil
	}
}

// WithDistanceFunc installs a custom distance. It must be non-negative and
// finite for finite inputs; similarity is its negation.
// Passing nil restores the configured metric.
func WithDistanceFunc(fn distance.Func) Option {
	return func(o *options) {
		o.distanceFunc = fn
	}
}

// WithWorkers bounds the goroutines used by the similarity and update
// sweeps. Values < 1 mean runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithCompactLabels selects the labelling scheme. With true (the default)
// labels are 0..K-1 in ascending exemplar order; with false each label is
// the index of the point's exemplar.
func WithCompactLabels(compact bool) Option {
	return func(o *options) {
		o.compactLabels = compact
	}
}

// WithMetricsCollector configures a metrics collector for monitoring runs.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &apcluster.BasicMetricsCollector{}
//	c, _ := apcluster.New(apcluster.WithMetricsCollector(metrics))
//	// ... run clusterings ...
//	stats := metrics.GetStats()
//	fmt.Printf("Runs: %d, Avg latency: %dns\n", stats.ClusterCount, stats.ClusterAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for runs.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := apcluster.NewJSONLogger(slog.LevelInfo)
//	c, _ := apcluster.New(apcluster.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController shares a resource controller between clusterers.
// The N×N matrices of every run are accounted against its memory limit and
// its run limit bounds concurrent Cluster calls.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithStateObserver registers a callback invoked on every state transition
// of a run. It is called synchronously from the goroutine running Cluster.
func WithStateObserver(fn func(State)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		params:           DefaultParams(),
		metric:           distance.MetricEuclidean,
		compactLabels:    true,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	return o
}
