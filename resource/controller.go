package resource

import (
	"context"
	"errors"
	"math"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the
// configured memory limit.
var ErrMemoryLimitExceeded = errors.New("resource: memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for matrix memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxConcurrentRuns is the maximum number of clustering runs executing
	// at once. If 0, runs are unbounded.
	MaxConcurrentRuns int64
}

// Controller manages memory and run concurrency.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	runSem *semaphore.Weighted // nil if unbounded
	active atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.MaxConcurrentRuns > 0 {
		c.runSem = semaphore.NewWeighted(cfg.MaxConcurrentRuns)
	}

	return c
}

// MatrixBytes returns the size of count dense n×n float64 matrices.
// It saturates at math.MaxInt64.
func MatrixBytes(n, count int) int64 {
	if n <= 0 || count <= 0 {
		return 0
	}

	cells := float64(n) * float64(n) * float64(count) * 8
	if cells >= math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(cells)
}

// AcquireMemory reserves bytes without blocking.
// Returns ErrMemoryLimitExceeded if the limit would be exceeded.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if bytes > c.cfg.MemoryLimitBytes || !c.memSem.TryAcquire(bytes) {
			return ErrMemoryLimitExceeded
		}
	}

	c.memUsed.Add(bytes)

	return nil
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}

	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}

	return c.memUsed.Load()
}

// MemoryLimit returns the configured hard limit (0 means unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}

	return c.cfg.MemoryLimitBytes
}

// AcquireRun reserves a run slot. Blocks until a slot is free or ctx is done.
func (c *Controller) AcquireRun(ctx context.Context) error {
	if c == nil {
		return nil
	}

	if c.runSem != nil {
		if err := c.runSem.Acquire(ctx, 1); err != nil {
			return err
		}
	}

	c.active.Add(1)

	return nil
}

// TryAcquireRun reserves a run slot without blocking.
func (c *Controller) TryAcquireRun() bool {
	if c == nil {
		return true
	}

	if c.runSem != nil && !c.runSem.TryAcquire(1) {
		return false
	}

	c.active.Add(1)

	return true
}

// ReleaseRun releases a run slot.
func (c *Controller) ReleaseRun() {
	if c == nil {
		return
	}

	if c.runSem != nil {
		c.runSem.Release(1)
	}

	c.active.Add(-1)
}

// ActiveRuns returns the number of runs currently holding a slot.
func (c *Controller) ActiveRuns() int64 {
	if c == nil {
		return 0
	}

	return c.active.Load()
}
