// Package apcluster clusters points with Affinity Propagation.
//
// Affinity Propagation picks exemplars, actual data points that represent
// their cluster, by exchanging two kinds of messages between all pairs of
// points until the choice of exemplars stops changing. The number of
// clusters is not given up front; it follows from the preferences (the
// diagonal of the similarity matrix). Higher preferences yield more
// clusters.
//
// # Quick Start
//
//	c, _ := apcluster.New(
//	    apcluster.WithDampingFactor(0.9),
//	    apcluster.WithMaxIterations(200),
//	    apcluster.WithConvergenceIterations(15),
//	)
//
//	labels := make([]int, len(points))
//	res, err := c.Cluster(ctx, points, labels, nil)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.NumClusters(), res.Converged())
//
// # Algorithm
//
// Every iteration runs two damped sweeps over N×N matrices:
//
//	R(i,k) = S(i,k) − max_{k'≠k} (A(i,k') + S(i,k'))
//	A(k,k) = Σ_{i'≠k} max(0, R(i',k))
//	A(i,k) = min(0, R(k,k) + Σ_{i'∉{i,k}} max(0, R(i',k)))
//
// where S(i,k) is the negated distance and S(k,k) the preference of k. Each
// point's exemplar is argmax_k A(i,k)+R(i,k), lowest index first on ties.
// The run converges once that assignment has been identical for
// ConvergenceIterations consecutive iterations and every chosen exemplar
// chooses itself.
//
// # Preferences
//
// Without explicit preferences every point gets the median of the
// off-diagonal similarities. Both triangles of S take part and the two
// middle values are averaged for an even count.
//
// # Determinism
//
// There is no randomness. Identical input and parameters produce identical
// labels regardless of the worker count.
//
// # Persistence
//
// Result.Model captures parameters and outcome. The snapshot package
// encodes it (JSON, optionally LZ4 or zstd compressed) to any
// blobstore.Store: local disk, memory, S3 or MinIO.
package apcluster
