// SPDX-License-Identifier: MIT
// Package: linop
//
// Purpose:
//  - Structural checks on operators used by argument validation in
//    distributions (symmetry, positive diagonal).
//
// Note:
//  - Each validator evaluates the operator densely; they are meant for
//    opt-in argument validation, not hot paths.

package linop

import (
	"fmt"
	"math"
	"reflect"
)

// IsNil reports whether v is nil or an interface holding a nil pointer,
// map, slice, func or channel.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// ValidateSymmetric checks |A[i,j] - A[j,i]| ≤ tol for every batch element.
// Complexity: O(B·n²) plus the cost of Evaluate.
func ValidateSymmetric(op Operator, tol float64) error {
	if IsNil(op) {
		return fmt.Errorf("ValidateSymmetric: %w", ErrNilOperator)
	}
	if math.IsNaN(tol) || math.IsInf(tol, 0) {
		return fmt.Errorf("ValidateSymmetric: tolerance %v: %w", tol, ErrDimensionMismatch)
	}
	tol = math.Abs(tol)
	t, err := op.Evaluate()
	if err != nil {
		return fmt.Errorf("ValidateSymmetric: %w", err)
	}
	n := Size(op)
	vals := t.Data()
	batch := len(vals) / (n * n)
	for b := 0; b < batch; b++ {
		blk := vals[b*n*n : (b+1)*n*n]
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ { // strict upper triangle only
				if math.Abs(blk[i*n+j]-blk[j*n+i]) > tol {
					return fmt.Errorf("ValidateSymmetric: batch %d (%d,%d): %w", b, i, j, ErrAsymmetry)
				}
			}
		}
	}

	return nil
}

// ValidatePositiveDiag requires every diagonal entry to be finite and > 0.
// Complexity: O(B·n) plus the cost of Diag.
func ValidatePositiveDiag(op Operator) error {
	if IsNil(op) {
		return fmt.Errorf("ValidatePositiveDiag: %w", ErrNilOperator)
	}
	d, err := op.Diag()
	if err != nil {
		return fmt.Errorf("ValidatePositiveDiag: %w", err)
	}
	for i, v := range d.Data() {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("ValidatePositiveDiag: flat index %d = %v: %w", i, v, ErrNotPositiveDefinite)
		}
	}

	return nil
}
