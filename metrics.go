package apcluster

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    runs       prometheus.Counter
//	    iterations prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordCluster(points, iterations int, converged bool, d time.Duration, err error) {
//	    p.runs.Inc()
//	    p.iterations.Observe(float64(iterations))
//	}
type MetricsCollector interface {
	// RecordCluster is called once at the end of every Cluster call.
	// points is the dataset size (0 if validation failed before it was
	// known), err is nil if successful.
	RecordCluster(points, iterations int, converged bool, duration time.Duration, err error)

	// RecordIteration is called after each message-passing iteration with
	// the number of points that currently choose themselves as exemplar.
	RecordIteration(iteration, exemplars int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCluster(int, int, bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordIteration(int, int, time.Duration)            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ClusterCount        atomic.Int64
	ClusterErrors       atomic.Int64
	ClusterTotalNanos   atomic.Int64
	ConvergedCount      atomic.Int64
	NonConvergedCount   atomic.Int64
	PointsTotal         atomic.Int64
	IterationCount      atomic.Int64
	IterationTotalNanos atomic.Int64
	LastExemplars       atomic.Int64
}

// RecordCluster implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCluster(points, iterations int, converged bool, duration time.Duration, err error) {
	b.ClusterCount.Add(1)
	b.ClusterTotalNanos.Add(duration.Nanoseconds())
	b.PointsTotal.Add(int64(points))
	switch {
	case err != nil:
		b.ClusterErrors.Add(1)
	case converged:
		b.ConvergedCount.Add(1)
	default:
		b.NonConvergedCount.Add(1)
	}
}

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(iteration, exemplars int, duration time.Duration) {
	b.IterationCount.Add(1)
	b.IterationTotalNanos.Add(duration.Nanoseconds())
	b.LastExemplars.Store(int64(exemplars))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ClusterCount:      b.ClusterCount.Load(),
		ClusterErrors:     b.ClusterErrors.Load(),
		ClusterAvgNanos:   avg(b.ClusterTotalNanos.Load(), b.ClusterCount.Load()),
		ConvergedCount:    b.ConvergedCount.Load(),
		NonConvergedCount: b.NonConvergedCount.Load(),
		PointsTotal:       b.PointsTotal.Load(),
		IterationCount:    b.IterationCount.Load(),
		IterationAvgNanos: avg(b.IterationTotalNanos.Load(), b.IterationCount.Load()),
		LastExemplars:     b.LastExemplars.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ClusterCount      int64
	ClusterErrors     int64
	ClusterAvgNanos   int64
	ConvergedCount    int64
	NonConvergedCount int64
	PointsTotal       int64
	IterationCount    int64
	IterationAvgNanos int64
	LastExemplars     int64
}
