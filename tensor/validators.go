// SPDX-License-Identifier: MIT
// Package: tensor
//
// Purpose:
//  - Single source of truth for shape, placement and numeric checks shared by
//    linop and distributions.
//  - Return plain sentinels (tagged) so call sites can wrap uniformly.

package tensor

import (
	"fmt"
	"math"
)

// validatorErrorf wraps an underlying error with the given validator tag.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// EqualShapes reports whether a and b have identical dimensions.
// Complexity: O(len(a)).
func EqualShapes(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if a[k] != b[k] {
			return false
		}
	}

	return true
}

// ValidateNotNil returns ErrNilTensor when t is nil.
func ValidateNotNil(t *Dense) error {
	if t == nil {
		return validatorErrorf("ValidateNotNil", ErrNilTensor)
	}

	return nil
}

// ValidateSamePlacement ensures two placements agree on dtype and device.
func ValidateSamePlacement(a, b Placement) error {
	if a != b {
		return validatorErrorf("ValidateSamePlacement", fmt.Errorf("%s vs %s: %w", a, b, ErrPlacement))
	}

	return nil
}

// ValidateFinite scans t once and rejects NaN or ±Inf.
// Complexity: O(size).
func ValidateFinite(t *Dense) error {
	if err := ValidateNotNil(t); err != nil {
		return validatorErrorf("ValidateFinite", err)
	}
	for i, v := range t.Data() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return validatorErrorf("ValidateFinite", fmt.Errorf("flat index %d: %w", i, ErrNaNInf))
		}
	}

	return nil
}
