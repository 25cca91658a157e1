package testutil

import (
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float64 in a loop).
func (r *RNG) FillUniform(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float64()
	}
}

// FillGaussian fills dst with standard normal values.
func (r *RNG) FillGaussian(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.NormFloat64()
	}
}

// UniformPoints generates random points with coordinates in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformPoints(num, dimensions int) [][]float64 {
	points := alloc(num, dimensions)
	for _, p := range points {
		r.FillUniform(p)
	}
	return points
}

// GaussianPoints generates points from a standard normal distribution.
func (r *RNG) GaussianPoints(num, dimensions int) [][]float64 {
	points := alloc(num, dimensions)
	for _, p := range points {
		r.FillGaussian(p)
	}
	return points
}

// Blobs generates perCenter points around every center with Gaussian noise
// of standard deviation spread. It returns the points, grouped by center,
// and the index of the center each point was drawn from.
func (r *RNG) Blobs(centers [][]float64, perCenter int, spread float64) ([][]float64, []int) {
	if len(centers) == 0 || perCenter <= 0 {
		return nil, nil
	}

	dim := len(centers[0])
	points := alloc(len(centers)*perCenter, dim)
	truth := make([]int, len(points))

	r.mu.Lock()
	defer r.mu.Unlock()

	for c, center := range centers {
		for j := range perCenter {
			i := c*perCenter + j
			for d := range dim {
				points[i][d] = center[d] + r.rand.NormFloat64()*spread
			}
			truth[i] = c
		}
	}

	return points, truth
}

// SamePartition reports whether two labelings group the points identically,
// regardless of the label values used.
func SamePartition(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	ab := make(map[int]int)
	ba := make(map[int]int)
	for i := range a {
		if l, ok := ab[a[i]]; ok && l != b[i] {
			return false
		}
		if l, ok := ba[b[i]]; ok && l != a[i] {
			return false
		}
		ab[a[i]] = b[i]
		ba[b[i]] = a[i]
	}

	return true
}

func alloc(num, dimensions int) [][]float64 {
	data := make([]float64, num*dimensions)
	points := make([][]float64, num)
	for i := range num {
		points[i] = data[i*dimensions : (i+1)*dimensions]
	}
	return points
}
