package apcluster

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// Logger wraps slog.Logger with clustering-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPoints adds a points (dataset size) field to the logger.
func (l *Logger) WithPoints(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("points", n),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithParams adds the three iteration parameters to the logger.
func (l *Logger) WithParams(p Params) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			"damping", p.DampingFactor,
			"max_iterations", p.MaxIterations,
			"convergence_iterations", p.ConvergenceIterations,
		),
	}
}

// LogClusterStart logs the start of a clustering run.
func (l *Logger) LogClusterStart(ctx context.Context, metric string, preference float64, defaulted bool) {
	l.DebugContext(ctx, "cluster started",
		"metric", metric,
		"preference", preference,
		"default_preference", defaulted,
	)
}

// LogDampingWarning logs a damping factor outside the recommended [0.5, 1).
func (l *Logger) LogDampingWarning(ctx context.Context, damping float64) {
	l.WarnContext(ctx, "damping factor outside recommended range [0.5, 1)",
		"damping", damping,
	)
}

// LogIteration logs the progress of one iteration.
func (l *Logger) LogIteration(ctx context.Context, iteration, exemplars, stable int) {
	l.DebugContext(ctx, "iteration completed",
		"iteration", iteration,
		"exemplars", exemplars,
		"stable", stable,
	)
}

// LogClusterDone logs the outcome of a clustering run.
func (l *Logger) LogClusterDone(ctx context.Context, res *Result, elapsed time.Duration, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "cluster failed",
			"elapsed", elapsed,
			"error", err,
		)
	case res.Converged():
		l.InfoContext(ctx, "cluster converged",
			"iterations", res.Iterations,
			"clusters", res.NumClusters(),
			"elapsed", elapsed,
		)
	default:
		l.WarnContext(ctx, "cluster did not converge",
			"iterations", res.Iterations,
			"clusters", res.NumClusters(),
			"elapsed", elapsed,
		)
	}
}

// progressLogger throttles per-iteration logs: the first iteration, every
// 50th, and at most one per second otherwise.
type progressLogger struct {
	logger    *Logger
	sometimes rate.Sometimes
}

func newProgressLogger(l *Logger) *progressLogger {
	return &progressLogger{
		logger:    l,
		sometimes: rate.Sometimes{First: 1, Every: 50, Interval: time.Second},
	}
}

func (p *progressLogger) log(ctx context.Context, iteration, exemplars, stable int) {
	if !p.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	p.sometimes.Do(func() {
		p.logger.LogIteration(ctx, iteration, exemplars, stable)
	})
}
