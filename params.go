package apcluster

// Params holds the three scalars that control the iteration.
type Params struct {
	DampingFactor         float64 `json:"dampingFactor"`
	MaxIterations         int     `json:"maxIterations"`
	ConvergenceIterations int     `json:"convergenceIterations"`
}

// DefaultParams returns damping 0.5, 200 iterations and a window of 10.
func DefaultParams() Params {
	return Params{
		DampingFactor:         DefaultDampingFactor,
		MaxIterations:         DefaultMaxIterations,
		ConvergenceIterations: DefaultConvergenceIterations,
	}
}

// Validate checks 0 < DampingFactor < 1 and
// 1 <= ConvergenceIterations < MaxIterations.
func (p Params) Validate() error {
	// Written as a negation so NaN is rejected.
	if !(p.DampingFactor > 0 && p.DampingFactor < 1) {
		return &ErrInvalidDampingFactor{DampingFactor: p.DampingFactor}
	}
	if p.MaxIterations < 1 || p.ConvergenceIterations < 1 || p.ConvergenceIterations >= p.MaxIterations {
		return &ErrInvalidIterations{
			MaxIterations:         p.MaxIterations,
			ConvergenceIterations: p.ConvergenceIterations,
		}
	}
	return nil
}

// recommendedDamping reports whether λ lies in [0.5, 1).
func (p Params) recommendedDamping() bool {
	return p.DampingFactor >= 0.5 && p.DampingFactor < 1
}
