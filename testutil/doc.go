// Package testutil provides testing utilities for apcluster.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random points, well separated blobs
// with a known ground truth, and for comparing partitions.
//
// # Random Point Generation
//
//	rng := testutil.NewRNG(seed)
//	pts := rng.UniformPoints(100, 2)   // uniform [0, 1)
//	pts = rng.GaussianPoints(100, 2)   // standard normal
//
// # Blobs
//
//	pts, truth := rng.Blobs([][]float64{{0, 0}, {10, 10}}, 20, 0.3)
//
// # Partition Comparison
//
//	ok := testutil.SamePartition(labels, truth)
package testutil
