// SPDX-License-Identifier: MIT

// Package linop - sum of interpolated operators.
//
// Purpose:
//   - Represent Σ_c W_c·K·W_cᵀ where K is an m×m operator on inducing points
//     and each W_c is an n×m interpolation matrix with a handful of non-zeros
//     per row (the additive-component structure of grid inducing methods).
//
// Determinism & Performance:
//   - Diag is O(c·n·p²) with p non-zeros per row; Evaluate is O(c·n²·p²).
//   - Factorize evaluates and factors densely; the result is usually low-rank
//     plus jitter, which choleskyWithJitter absorbs.

package linop

import (
	"fmt"

	"github.com/katalvlaran/gpdist/tensor"
)

const ctxSumInterp = "SumInterpolated"

// Interp holds one component's sparse interpolation weights.
// Row i of W has non-zeros Value[i][p] at columns Index[i][p].
type Interp struct {
	Index [][]int
	Value [][]float64
}

// SumInterpolated is Σ_c W_c·K·W_cᵀ.
type SumInterpolated struct {
	base    Operator
	kernel  []float64 // dense m×m values of base, cached at construction
	m       int
	n       int
	weights []Interp
}

var _ Operator = (*SumInterpolated)(nil)

// NewSumInterpolated validates the weights against an unbatched m×m base.
// Errors:
//   - ErrNilOperator for nil base or no components.
//   - ErrDimensionMismatch for a batched base, ragged weights or an index
//     outside [0, m).
func NewSumInterpolated(base Operator, weights []Interp) (*SumInterpolated, error) {
	if IsNil(base) || len(weights) == 0 {
		return nil, linopErrorf(ctxSumInterp, ErrNilOperator)
	}
	s := base.Shape()
	if len(s) != 2 {
		return nil, fmt.Errorf("linop.%s: base shape %v must be unbatched: %w", ctxSumInterp, s, ErrDimensionMismatch)
	}
	m := s[0]
	n := len(weights[0].Index)
	for c, w := range weights {
		if len(w.Index) != n || len(w.Value) != n {
			return nil, fmt.Errorf("linop.%s: component %d has %d/%d rows, want %d: %w",
				ctxSumInterp, c, len(w.Index), len(w.Value), n, ErrDimensionMismatch)
		}
		for i := range w.Index {
			if len(w.Index[i]) != len(w.Value[i]) {
				return nil, fmt.Errorf("linop.%s: component %d row %d: %w", ctxSumInterp, c, i, ErrDimensionMismatch)
			}
			for _, col := range w.Index[i] {
				if col < 0 || col >= m {
					return nil, fmt.Errorf("linop.%s: component %d row %d index %d outside [0,%d): %w",
						ctxSumInterp, c, i, col, m, ErrDimensionMismatch)
				}
			}
		}
	}
	k, err := base.Evaluate()
	if err != nil {
		return nil, linopErrorf(ctxSumInterp, err)
	}

	return &SumInterpolated{base: base, kernel: k.Data(), m: m, n: n, weights: weights}, nil
}

// Base returns the inducing-point operator K.
func (si *SumInterpolated) Base() Operator { return si.base }

// Shape returns (n, n).
func (si *SumInterpolated) Shape() []int { return []int{si.n, si.n} }

// Placement forwards the base placement.
func (si *SumInterpolated) Placement() tensor.Placement { return si.base.Placement() }

// entry computes Σ_c (W_c K W_cᵀ)[i, j].
func (si *SumInterpolated) entry(i, j int) float64 {
	total := 0.0
	for _, w := range si.weights {
		ri, vi := w.Index[i], w.Value[i]
		rj, vj := w.Index[j], w.Value[j]
		for p := range ri {
			row := si.kernel[ri[p]*si.m:]
			acc := 0.0
			for q := range rj {
				acc += row[rj[q]] * vj[q]
			}
			total += vi[p] * acc
		}
	}

	return total
}

// Diag returns the n diagonal entries.
func (si *SumInterpolated) Diag() (*tensor.Dense, error) {
	out := make([]float64, si.n)
	for i := range out {
		out[i] = si.entry(i, i)
	}
	t, err := tensor.FromSlice(out, si.n)
	if err != nil {
		return nil, linopErrorf(ctxSumInterp, err)
	}

	return t.WithPlacement(si.Placement()), nil
}

// Evaluate materialises the n×n matrix, filling the upper triangle and mirroring.
func (si *SumInterpolated) Evaluate() (*tensor.Dense, error) {
	n := si.n
	buf := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := si.entry(i, j)
			buf[i*n+j] = v
			buf[j*n+i] = v
		}
	}
	t, err := tensor.FromSlice(buf, n, n)
	if err != nil {
		return nil, linopErrorf(ctxSumInterp, err)
	}

	return t.WithPlacement(si.Placement()), nil
}

// Factorize evaluates densely and delegates to the Dense operator.
func (si *SumInterpolated) Factorize() (Factor, error) {
	t, err := si.Evaluate()
	if err != nil {
		return nil, err
	}
	d, err := Wrap(t)
	if err != nil {
		return nil, linopErrorf(ctxSumInterp, err)
	}

	return d.Factorize()
}
