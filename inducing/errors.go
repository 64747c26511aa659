// SPDX-License-Identifier: MIT
// Package inducing: sentinel errors.
// Callers match with errors.Is; call sites wrap with the offending shape or value.

package inducing

import (
	"errors"

	"github.com/katalvlaran/gpdist/distributions"
)

var (
	// ErrShape indicates inputs of an unsupported rank or a dimensionality
	// that differs from the number of grid bounds.
	ErrShape = errors.New("inducing: shape mismatch")

	// ErrBadGrid reports an unusable grid: too few points, empty or inverted
	// bounds, or a nil kernel.
	ErrBadGrid = errors.New("inducing: invalid grid")

	// ErrOutOfBounds reports an input too far outside the grid bounds to be
	// interpolated with four neighbours.
	ErrOutOfBounds = errors.New("inducing: input outside grid")

	// ErrBadVariational reports variational parameters of the wrong size.
	ErrBadVariational = errors.New("inducing: invalid variational parameters")
)

// ErrNotImplemented is shared with distributions: interpolation is only
// available for one-dimensional components.
var ErrNotImplemented = distributions.ErrNotImplemented
