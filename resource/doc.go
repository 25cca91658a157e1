// Package resource governs the memory and concurrency budget shared by
// clustering runs.
//
// A single Controller can be passed to any number of Clusterers. It tracks
// two resources:
//
//   - Memory: the dense N×N matrices a run allocates (fail-fast when a hard
//     limit is configured)
//   - Runs: the number of Cluster calls allowed to execute at the same time
//
// # Memory
//
// Memory is accounted with a weighted semaphore for the hard limit and an
// atomic counter for usage. AcquireMemory never blocks; it returns
// ErrMemoryLimitExceeded when the reservation does not fit:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30,
//	})
//
//	if err := rc.AcquireMemory(resource.MatrixBytes(n, 5)); err != nil {
//	    // caller decides retry/backoff
//	}
//	defer rc.ReleaseMemory(resource.MatrixBytes(n, 5))
//
// # Runs
//
//	if err := rc.AcquireRun(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseRun()
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
