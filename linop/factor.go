// SPDX-License-Identifier: MIT

package linop

import (
	"errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// cholFactor holds one gonum Cholesky decomposition per batch element plus the
// explicit lower factor used by RootMul.
type cholFactor struct {
	n     int
	chols []*mat.Cholesky
	roots []*mat.TriDense
}

var _ Factor = (*cholFactor)(nil)

func (f *cholFactor) BatchLen() int { return len(f.chols) }

func (f *cholFactor) Size() int { return f.n }

// RootMul writes L·z into dst.
// Complexity: O(n²).
func (f *cholFactor) RootMul(b int, z, dst []float64) error {
	if err := checkBatchVec(ctxRootMul, b, len(f.chols), f.n, z, dst); err != nil {
		return err
	}
	out := mat.NewVecDense(f.n, dst)
	out.MulVec(f.roots[b], mat.NewVecDense(f.n, z))

	return nil
}

// Solve writes Σ⁻¹·x into dst using the two triangular solves of the factor.
// A gonum Condition error is a warning about accuracy, not a failure.
// Complexity: O(n²).
func (f *cholFactor) Solve(b int, x, dst []float64) error {
	if err := checkBatchVec(ctxSolve, b, len(f.chols), f.n, x, dst); err != nil {
		return err
	}
	out := mat.NewVecDense(f.n, dst)
	if err := f.chols[b].SolveVecTo(out, mat.NewVecDense(f.n, x)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return linopErrorf(ctxSolve, err)
		}
	}

	return nil
}

// InvQuad returns xᵀ·Σ⁻¹·x.
func (f *cholFactor) InvQuad(b int, x []float64) (float64, error) {
	sol := make([]float64, f.n)
	if err := f.Solve(b, x, sol); err != nil {
		return 0, err
	}

	return floats.Dot(x, sol), nil
}

// LogDet returns log|Σ| of batch element b.
func (f *cholFactor) LogDet(b int) float64 { return f.chols[b].LogDet() }
