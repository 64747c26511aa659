// SPDX-License-Identifier: MIT

// Package linop - Dense operator.
//
// Purpose:
//   - Wrap an explicit (batch..., n, n) tensor as an Operator.
//   - Factorize each batch element with gonum's Cholesky, retrying with a
//     growing diagonal jitter when the matrix is only numerically PSD.

package linop

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gpdist/tensor"
)

const (
	ctxWrap    = "Wrap"
	ctxDiag    = "Diag"
	ctxFactor  = "Factorize"
	ctxRootMul = "RootMul"
	ctxSolve   = "Solve"
	ctxInvQuad = "InvQuad"
)

// Jitter schedule for Cholesky retries, relative to the mean diagonal magnitude.
var jitterSchedule = []float64{1e-8, 1e-7, 1e-6, 1e-5, 1e-4}

// Dense is an Operator backed by an explicit tensor.
type Dense struct {
	t     *tensor.Dense
	n     int
	batch int // product of batch dims
}

var _ Operator = (*Dense)(nil)

// Wrap turns a (batch..., n, n) tensor into an Operator.
// MAIN DESCRIPTION:
//   - No copy is taken; tensors are immutable.
//
// Errors:
//   - ErrNilOperator for nil input.
//   - ErrNonSquare when rank < 2 or the trailing dims differ.
//   - ErrDimensionMismatch for an empty (0×0) matrix.
//
// Complexity:
//   - Time O(rank), Space O(1).
func Wrap(t *tensor.Dense) (*Dense, error) {
	if t == nil {
		return nil, linopErrorf(ctxWrap, ErrNilOperator)
	}
	s := t.Shape()
	if len(s) < 2 || s[len(s)-1] != s[len(s)-2] {
		return nil, fmt.Errorf("linop.%s: shape %v: %w", ctxWrap, s, ErrNonSquare)
	}
	if s[len(s)-1] == 0 {
		return nil, fmt.Errorf("linop.%s: shape %v: %w", ctxWrap, s, ErrDimensionMismatch)
	}

	return &Dense{t: t, n: s[len(s)-1], batch: tensor.Numel(s[:len(s)-2])}, nil
}

// FromSymmetric wraps a gonum symmetric matrix (copying its entries).
func FromSymmetric(s mat.Symmetric) (*Dense, error) {
	if IsNil(s) {
		return nil, linopErrorf(ctxWrap, ErrNilOperator)
	}
	n := s.SymmetricDim()
	buf := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			buf[i*n+j] = s.At(i, j)
		}
	}
	t, err := tensor.FromSlice(buf, n, n)
	if err != nil {
		return nil, linopErrorf(ctxWrap, err)
	}

	return Wrap(t)
}

// Shape returns (batch..., n, n).
func (d *Dense) Shape() []int { return d.t.Shape() }

// Placement forwards the tensor's placement.
func (d *Dense) Placement() tensor.Placement { return d.t.Placement() }

// Evaluate returns the wrapped tensor.
func (d *Dense) Evaluate() (*tensor.Dense, error) { return d.t, nil }

// Diag extracts the diagonal of every batch element.
// Complexity: O(B·n).
func (d *Dense) Diag() (*tensor.Dense, error) {
	data := d.t.Data()
	n := d.n
	out := make([]float64, d.batch*n)
	for b := 0; b < d.batch; b++ {
		base := b * n * n
		for i := 0; i < n; i++ {
			out[b*n+i] = data[base+i*n+i]
		}
	}
	s := d.t.Shape()
	t, err := tensor.FromSlice(out, s[:len(s)-1]...)
	if err != nil {
		return nil, linopErrorf(ctxDiag, err)
	}

	return t.WithPlacement(d.t.Placement()), nil
}

// Factorize computes one Cholesky factor per batch element.
// Implementation:
//   - Stage 1: symmetrise each block as (A + Aᵀ)/2 into a SymDense.
//   - Stage 2: mat.Cholesky.Factorize; on failure retry with jitter·mean|diag|
//     added to the diagonal, following jitterSchedule.
//
// Errors:
//   - ErrNotPositiveDefinite when every retry fails.
//
// Complexity:
//   - Time O(B·n³), Space O(B·n²).
func (d *Dense) Factorize() (Factor, error) {
	data := d.t.Data()
	f := &cholFactor{n: d.n, chols: make([]*mat.Cholesky, d.batch), roots: make([]*mat.TriDense, d.batch)}
	for b := 0; b < d.batch; b++ {
		block := data[b*d.n*d.n : (b+1)*d.n*d.n]
		chol, err := choleskyWithJitter(block, d.n)
		if err != nil {
			return nil, fmt.Errorf("linop.%s: batch %d: %w", ctxFactor, b, err)
		}
		root := mat.NewTriDense(d.n, mat.Lower, nil)
		chol.LTo(root)
		f.chols[b] = chol
		f.roots[b] = root
	}

	return f, nil
}

// choleskyWithJitter factorizes a row-major n×n block.
func choleskyWithJitter(block []float64, n int) (*mat.Cholesky, error) {
	sym := mat.NewSymDense(n, nil)
	meanDiag := 0.0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, 0.5*(block[i*n+j]+block[j*n+i]))
		}
		meanDiag += math.Abs(block[i*n+i])
	}
	meanDiag /= float64(n)
	if meanDiag == 0 {
		meanDiag = 1
	}

	var chol mat.Cholesky
	if chol.Factorize(sym) {
		return &chol, nil
	}
	for _, rel := range jitterSchedule {
		jittered := mat.NewSymDense(n, nil)
		jittered.CopySym(sym)
		for i := 0; i < n; i++ {
			jittered.SetSym(i, i, jittered.At(i, i)+rel*meanDiag)
		}
		if chol.Factorize(jittered) {
			slog.Debug("linop: cholesky needed jitter", "n", n, "jitter", rel*meanDiag)
			return &chol, nil
		}
	}

	return nil, ErrNotPositiveDefinite
}
