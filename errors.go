package apcluster

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/apcluster/internal/engine"
	"github.com/hupe1980/apcluster/internal/similarity"
)

var (
	// ErrInvalidInput is matched by every validation error via errors.Is.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDataset is returned when the dataset has no points.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrNonFiniteInput is returned when the dataset or the preferences
	// contain NaN or ±Inf.
	ErrNonFiniteInput = errors.New("non-finite input")

	// ErrNumericInstability is returned when an iteration produces NaN or
	// ±Inf. The run is aborted and labels are left untouched.
	ErrNumericInstability = errors.New("numeric instability")
)

// ErrInvalidDampingFactor indicates a damping factor outside (0, 1).
type ErrInvalidDampingFactor struct {
	DampingFactor float64
}

func (e *ErrInvalidDampingFactor) Error() string {
	return fmt.Sprintf("invalid damping factor: %v (must be in (0, 1))", e.DampingFactor)
}

func (e *ErrInvalidDampingFactor) Unwrap() error { return ErrInvalidInput }

// ErrInvalidIterations indicates an iteration budget that violates
// 1 <= ConvergenceIterations < MaxIterations.
type ErrInvalidIterations struct {
	MaxIterations         int
	ConvergenceIterations int
}

func (e *ErrInvalidIterations) Error() string {
	return fmt.Sprintf("invalid iterations: maxIterations=%d, convergenceIterations=%d (need 1 <= convergenceIterations < maxIterations)",
		e.MaxIterations, e.ConvergenceIterations)
}

func (e *ErrInvalidIterations) Unwrap() error { return ErrInvalidInput }

// ErrPreferencesLength indicates a preferences vector that is neither empty
// nor one entry per point.
type ErrPreferencesLength struct {
	Expected int
	Actual   int
}

func (e *ErrPreferencesLength) Error() string {
	return fmt.Sprintf("preferences length mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrPreferencesLength) Unwrap() error { return ErrInvalidInput }

// ErrLabelsLength indicates an output slice of the wrong length.
type ErrLabelsLength struct {
	Expected int
	Actual   int
}

func (e *ErrLabelsLength) Error() string {
	return fmt.Sprintf("labels length mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrLabelsLength) Unwrap() error { return ErrInvalidInput }

// ErrDimensionMismatch indicates a point whose dimensionality differs from
// the first point's.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	Index    int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch at point %d: expected %d, got %d", e.Index, e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return ErrInvalidInput }

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("cluster aborted: %w", err)
	}

	if errors.Is(err, similarity.ErrEmptyDataset) {
		return fmt.Errorf("%w: %w", invalid(ErrEmptyDataset), err)
	}

	// A finite dataset can still overflow the metric, or a custom metric
	// can return NaN.
	if errors.Is(err, similarity.ErrNonFinite) {
		return fmt.Errorf("%w: %w", ErrNumericInstability, err)
	}

	if errors.Is(err, engine.ErrNumericInstability) {
		return fmt.Errorf("%w: %w", ErrNumericInstability, err)
	}

	return err
}
