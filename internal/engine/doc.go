// Package engine implements the Affinity Propagation message-passing loop.
//
// An Engine owns the responsibility (R) and availability (A) matrices for a
// single clustering run. Each call to Update performs one damped iteration:
//
//	R(i,k) = S(i,k) - max_{k'≠k} (A(i,k') + S(i,k'))
//	A(k,k) = Σ_{i≠k} max(0, R(i,k))
//	A(i,k) = min(0, R(k,k) + Σ_{i'∉{i,k}} max(0, R(i',k)))     i ≠ k
//
// Every raw value is blended with the previous entry:
//
//	new = λ·old + (1-λ)·raw
//
// # Buffering
//
// Both matrices are double-buffered. The responsibility sweep reads S and the
// previous A and writes a fresh R buffer; the availability sweep reads that R
// and writes a fresh A buffer. A buffer only becomes current after its whole
// sweep succeeded, so a failed iteration leaves R and A exactly as they were.
//
// # Concurrency
//
// Rows (responsibility) and columns (availability) are split into contiguous
// blocks processed by up to Workers goroutines. There is no cross-block
// dependency inside a sweep, and g.Wait acts as the barrier between sweeps.
// Results are bit-identical for any worker count.
//
// An Engine is not safe for concurrent use.
package engine
