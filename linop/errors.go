// SPDX-License-Identifier: MIT
// Package linop: sentinel error set.
// Operators return these sentinels wrapped with a call-site tag; callers match
// them with errors.Is.

package linop

import (
	"errors"
	"fmt"
)

var (
	// ErrNilOperator indicates that a nil operator or tensor was supplied.
	ErrNilOperator = errors.New("linop: nil operator")

	// ErrNonSquare signals that the trailing two dimensions differ.
	ErrNonSquare = errors.New("linop: operator is not square")

	// ErrDimensionMismatch indicates incompatible operand shapes or vector lengths.
	ErrDimensionMismatch = errors.New("linop: dimension mismatch")

	// ErrAsymmetry signals that a matrix expected to be symmetric is not,
	// within the supplied tolerance.
	ErrAsymmetry = errors.New("linop: operator is not symmetric within eps")

	// ErrNotPositiveDefinite is returned when a Cholesky factorisation fails
	// even after the largest jitter was added to the diagonal.
	ErrNotPositiveDefinite = errors.New("linop: operator is not positive definite")

	// ErrOutOfRange indicates a batch index outside [0, BatchLen).
	ErrOutOfRange = errors.New("linop: batch index out of range")
)

// linopErrorf wraps err with an operator/method tag.
func linopErrorf(tag string, err error) error {
	return fmt.Errorf("linop.%s: %w", tag, err)
}
