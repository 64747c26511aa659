// SPDX-License-Identifier: MIT
// Package distributions: sentinel error set.
// Validation is eager and happens before any state is built, so a returned
// error never leaves a partially constructed value behind. Call sites wrap
// with context (expected vs actual shapes); callers match with errors.Is.

package distributions

import (
	"errors"

	"github.com/katalvlaran/gpdist/tensor"
)

var (
	// ErrType is returned when an argument is not a recognised tensor or
	// operator type (for example a [][]float64 passed as a mean).
	ErrType = errors.New("distributions: unsupported argument type")

	// ErrShape indicates a rank mismatch or incompatible dimensions, including
	// base samples whose trailing shape differs from the mean's shape.
	ErrShape = errors.New("distributions: shape mismatch")

	// ErrValue signals a violated precondition on otherwise well-typed input:
	// too few independent distributions, differing batch/event shapes,
	// unsupported batch rank, or a failed argument validation.
	ErrValue = errors.New("distributions: invalid value")

	// ErrNotImplemented marks a capability gap (e.g. interpolation in more
	// than one dimension).
	ErrNotImplemented = errors.New("distributions: not implemented")
)

// ErrPlacement aliases tensor.ErrPlacement so callers may match either name
// when mean and covariance disagree on element type or device.
var ErrPlacement = tensor.ErrPlacement
