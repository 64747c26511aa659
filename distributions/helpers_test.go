package distributions_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gpdist/linop"
	"github.com/katalvlaran/gpdist/tensor"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

// mustTensor builds a tensor from row-major values or fails the test.
func mustTensor(t *testing.T, data []float64, shape ...int) *tensor.Dense {
	t.Helper()
	x, err := tensor.FromSlice(data, shape...)
	require.NoError(t, err)

	return x
}

// mustOp wraps row-major values as a dense operator.
func mustOp(t *testing.T, data []float64, shape ...int) *linop.Dense {
	t.Helper()
	op, err := linop.Wrap(mustTensor(t, data, shape...))
	require.NoError(t, err)

	return op
}

// spdMatrix returns a deterministic m×m SPD matrix B·Bᵀ + I in row-major form.
func spdMatrix(m int) []float64 {
	b := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			b.Set(i, j, math.Sin(float64(i+2*j+1)))
		}
	}
	var s mat.Dense
	s.Mul(b, b.T())
	for i := 0; i < m; i++ {
		s.Set(i, i, s.At(i, i)+1)
	}

	return append([]float64(nil), s.RawMatrix().Data...)
}

// identity returns the m×m identity in row-major form.
func identity(m int) []float64 {
	out := make([]float64, m*m)
	for i := 0; i < m; i++ {
		out[i*m+i] = 1
	}

	return out
}

// seq returns start, start+1, ... of length k.
func seq(start float64, k int) []float64 {
	out := make([]float64, k)
	for i := range out {
		out[i] = start + float64(i)
	}

	return out
}

// toTaskMajor permutes an interleaved (obs·t + task) covariance into the
// task-major (task·n + obs) ordering of the same joint.
func toTaskMajor(cov []float64, n, t int) []float64 {
	m := n * t
	out := make([]float64, m*m)
	for a := 0; a < t; a++ {
		for i := 0; i < n; i++ {
			for b := 0; b < t; b++ {
				for j := 0; j < n; j++ {
					out[(a*n+i)*m+b*n+j] = cov[(i*t+a)*m+j*t+b]
				}
			}
		}
	}

	return out
}
