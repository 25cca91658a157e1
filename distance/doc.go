// Package distance provides the pairwise metrics used to build similarity matrices.
//
// A metric is any function with the Func signature. Similarities are derived by
// negating the distance, so a metric must return smaller values for more similar
// points. Metrics need not be symmetric.
//
// # Supported Metrics
//
//   - MetricEuclidean: Euclidean (L2) distance (default)
//   - MetricSquaredL2: Squared Euclidean distance
//   - MetricManhattan: L1 distance
//   - MetricChebyshev: L∞ distance
//   - MetricCosine: Cosine distance (1 - cosine similarity)
//
// # Usage
//
//	fn, _ := distance.Provider(distance.MetricEuclidean)
//	d := fn(a, b)
package distance
