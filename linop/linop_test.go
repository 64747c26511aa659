// Package linop_test contains unit tests for the structured operators.
package linop_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gpdist/linop"
	"github.com/katalvlaran/gpdist/tensor"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

// mustWrap builds a Dense operator from row-major values or fails the test.
func mustWrap(t *testing.T, data []float64, shape ...int) *linop.Dense {
	t.Helper()
	x, err := tensor.FromSlice(data, shape...)
	require.NoError(t, err)
	op, err := linop.Wrap(x)
	require.NoError(t, err)

	return op
}

// spd2 and spd3 are small symmetric positive definite fixtures.
var (
	spd2 = []float64{
		4, 2,
		2, 3,
	}
	spd3 = []float64{
		2, 0.5, 0.1,
		0.5, 1.5, 0.2,
		0.1, 0.2, 1.0,
	}
)

// TestWrapRejectsNonSquare covers the shape guards of Wrap.
func TestWrapRejectsNonSquare(t *testing.T) {
	x, err := tensor.Zeros(2, 3)
	require.NoError(t, err)
	_, err = linop.Wrap(x)
	require.ErrorIs(t, err, linop.ErrNonSquare)

	_, err = linop.Wrap(nil)
	require.ErrorIs(t, err, linop.ErrNilOperator)

	v, err := tensor.Zeros(4)
	require.NoError(t, err)
	_, err = linop.Wrap(v)
	require.ErrorIs(t, err, linop.ErrNonSquare)
}

// TestDenseDiagBatched extracts per-batch diagonals.
func TestDenseDiagBatched(t *testing.T) {
	op := mustWrap(t, append(append([]float64{}, spd2...), 9, 1, 1, 7), 2, 2, 2)

	d, err := op.Diag()
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, d.Shape())
	require.Equal(t, []float64{4, 3, 9, 7}, d.Data())
	require.Equal(t, []int{2}, linop.BatchShape(op))
	require.Equal(t, 2, linop.Size(op))
}

// TestCholFactorReconstructs verifies L·Lᵀ = Σ via RootMul on unit vectors.
func TestCholFactorReconstructs(t *testing.T) {
	op := mustWrap(t, spd3, 3, 3)
	f, err := op.Factorize()
	require.NoError(t, err)
	require.Equal(t, 1, f.BatchLen())
	require.Equal(t, 3, f.Size())

	// Columns of L.
	L := make([][]float64, 3)
	for j := 0; j < 3; j++ {
		e := make([]float64, 3)
		e[j] = 1
		L[j] = make([]float64, 3)
		require.NoError(t, f.RootMul(0, e, L[j]))
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			sum := 0.0
			for j := 0; j < 3; j++ {
				sum += L[j][r] * L[j][c]
			}
			require.InDelta(t, spd3[r*3+c], sum, 1e-12)
		}
	}
}

// TestCholFactorSolveAndLogDet checks Σ·Σ⁻¹x = x and the 2×2 determinant.
func TestCholFactorSolveAndLogDet(t *testing.T) {
	op := mustWrap(t, spd2, 2, 2)
	f, err := op.Factorize()
	require.NoError(t, err)

	x := []float64{1, -2}
	sol := make([]float64, 2)
	require.NoError(t, f.Solve(0, x, sol))
	back := []float64{4*sol[0] + 2*sol[1], 2*sol[0] + 3*sol[1]}
	if diff := cmp.Diff(x, back, approx); diff != "" {
		t.Fatalf("Σ·Σ⁻¹x mismatch (-want +got):\n%s", diff)
	}

	q, err := f.InvQuad(0, x)
	require.NoError(t, err)
	require.InDelta(t, x[0]*sol[0]+x[1]*sol[1], q, 1e-12)

	require.InDelta(t, math.Log(8), f.LogDet(0), 1e-12) // det = 4·3 − 2·2

	_, err = f.InvQuad(1, x)
	require.ErrorIs(t, err, linop.ErrOutOfRange)
	require.ErrorIs(t, f.Solve(0, []float64{1}, sol), linop.ErrDimensionMismatch)
}

// TestCholeskyJitter recovers a PSD-but-singular matrix and rejects an indefinite one.
func TestCholeskyJitter(t *testing.T) {
	singular := mustWrap(t, []float64{1, 1, 1, 1}, 2, 2)
	_, err := singular.Factorize()
	require.NoError(t, err)

	indefinite := mustWrap(t, []float64{1, 0, 0, -1}, 2, 2)
	_, err = indefinite.Factorize()
	require.ErrorIs(t, err, linop.ErrNotPositiveDefinite)
}

// TestFromSymmetric wraps a gonum matrix.
func TestFromSymmetric(t *testing.T) {
	op, err := linop.FromSymmetric(symDense(2, spd2))
	require.NoError(t, err)
	ev, err := op.Evaluate()
	require.NoError(t, err)
	require.Equal(t, spd2, ev.Data())

	_, err = linop.FromSymmetric((*mat.SymDense)(nil))
	require.ErrorIs(t, err, linop.ErrNilOperator)
	_, err = linop.NewBlockDiag((*linop.Dense)(nil), 2)
	require.ErrorIs(t, err, linop.ErrNilOperator)
	require.True(t, linop.IsNil((*linop.Dense)(nil)))
	require.False(t, linop.IsNil(mustWrap(t, spd2, 2, 2)))
}

// TestValidators covers symmetry and positive diagonal checks.
func TestValidators(t *testing.T) {
	asym := mustWrap(t, []float64{1, 2, 3, 1}, 2, 2)
	require.ErrorIs(t, linop.ValidateSymmetric(asym, 1e-9), linop.ErrAsymmetry)
	require.NoError(t, linop.ValidateSymmetric(mustWrap(t, spd2, 2, 2), 1e-9))

	negDiag := mustWrap(t, []float64{-1, 0, 0, 1}, 2, 2)
	require.ErrorIs(t, linop.ValidatePositiveDiag(negDiag), linop.ErrNotPositiveDefinite)
	require.NoError(t, linop.ValidatePositiveDiag(mustWrap(t, spd2, 2, 2)))
}
