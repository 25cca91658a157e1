// Package convergence decides when the exemplar assignment has stabilized.
package convergence

import "slices"

// Detector tracks the trailing run of identical exemplar assignments.
//
// Convergence is signaled once the last Window assignments are identical and
// the assignment is self-consistent: every point's chosen exemplar chooses
// itself. Self-consistency implies at least one exemplar exists.
type Detector struct {
	window int
	last   []int
	run    int
	seen   int
}

// New creates a detector with the given window length. Values below 1 are
// treated as 1.
func New(window int) *Detector {
	if window < 1 {
		window = 1
	}
	return &Detector{window: window}
}

// Observe records the assignment produced by one iteration and reports
// whether the run has converged. The slice is copied.
func (d *Detector) Observe(assignment []int) bool {
	d.seen++

	if d.last != nil && slices.Equal(d.last, assignment) {
		d.run++
	} else {
		d.last = append(d.last[:0], assignment...)
		d.run = 1
	}

	if d.seen < d.window || d.run < d.window {
		return false
	}
	return SelfConsistent(d.last)
}

// Stable returns how many consecutive observations matched the latest one.
func (d *Detector) Stable() int { return d.run }

// SelfConsistent reports whether every exemplar referenced by assignment is
// its own exemplar. An empty assignment is not self-consistent.
func SelfConsistent(assignment []int) bool {
	if len(assignment) == 0 {
		return false
	}
	for _, k := range assignment {
		if k < 0 || k >= len(assignment) || assignment[k] != k {
			return false
		}
	}
	return true
}
