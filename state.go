package apcluster

import "fmt"

// State is the lifecycle stage of a single Cluster call.
//
// A run moves Initialized → ComputingSimilarity → Iterating (entered once
// per iteration) → Converged or Exhausted → LabelsReady. A run that fails
// stops in the state it was in.
type State int

const (
	StateInitialized State = iota
	StateComputingSimilarity
	StateIterating
	StateConverged
	StateExhausted
	StateLabelsReady
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "Initialized"
	case StateComputingSimilarity:
		return "ComputingSimilarity"
	case StateIterating:
		return "Iterating"
	case StateConverged:
		return "Converged"
	case StateExhausted:
		return "Exhausted"
	case StateLabelsReady:
		return "LabelsReady"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status reports whether a finished run converged.
type Status int

const (
	// StatusConverged means the exemplar assignment was stable for the
	// configured number of iterations.
	StatusConverged Status = iota
	// StatusNonConverged means MaxIterations ran out first. The labels are
	// the best available ones and still valid.
	StatusNonConverged
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "Converged"
	case StatusNonConverged:
		return "NonConverged"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}
