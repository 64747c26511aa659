// SPDX-License-Identifier: MIT
// Package tensor: sentinel error set.
// All public functions return these sentinels, possibly wrapped with a call-site
// tag via fmt.Errorf("Tag: %w", ErrX). Callers match with errors.Is.

package tensor

import (
	"errors"
	"fmt"
)

var (
	// ErrBadShape is returned for negative dimensions, an out-of-range axis or an
	// operation that needs a higher rank than the tensor has.
	ErrBadShape = errors.New("tensor: invalid shape")

	// ErrSizeMismatch indicates that a buffer length or a reshape target does not
	// match the number of elements implied by the shape.
	ErrSizeMismatch = errors.New("tensor: size mismatch")

	// ErrOutOfRange indicates that an index is outside valid bounds.
	ErrOutOfRange = errors.New("tensor: index out of range")

	// ErrNotContiguous is returned by Reshape on a strided view. Call Contiguous first.
	ErrNotContiguous = errors.New("tensor: tensor is not contiguous")

	// ErrNilTensor indicates that a nil *Dense was passed where a value is required.
	ErrNilTensor = errors.New("tensor: nil tensor")

	// ErrNaNInf signals a NaN or ±Inf value where finite values are required.
	ErrNaNInf = errors.New("tensor: NaN or Inf encountered")

	// ErrPlacement indicates that operands disagree on element type or device.
	ErrPlacement = errors.New("tensor: placement mismatch")
)

// tensorErrorf wraps err with an operation tag, keeping the sentinel matchable.
func tensorErrorf(tag string, err error) error {
	return fmt.Errorf("tensor.%s: %w", tag, err)
}
