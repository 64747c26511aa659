// SPDX-License-Identifier: MIT

package linop

import "github.com/katalvlaran/gpdist/tensor"

// Operator is a square matrix, or a batch of square matrices, of shape
// (batch..., n, n). Implementations are immutable.
type Operator interface {
	// Shape returns (batch..., n, n). The returned slice is a copy.
	Shape() []int

	// Placement returns the element type and device tag.
	Placement() tensor.Placement

	// Evaluate materialises the dense (batch..., n, n) tensor.
	// Complexity: implementation-defined, at least O(B·n²).
	Evaluate() (*tensor.Dense, error)

	// Diag returns the diagonal as a (batch..., n) tensor.
	Diag() (*tensor.Dense, error)

	// Factorize returns a square-root factor for every batch element.
	Factorize() (Factor, error)
}

// Factor exposes Σ = L·Lᵀ for each flattened batch element b in [0, BatchLen()).
// Vectors passed in are never retained or modified; dst must not alias x or z.
type Factor interface {
	// BatchLen is the product of the operator's batch dimensions (1 when unbatched).
	BatchLen() int

	// Size is the matrix dimension n.
	Size() int

	// RootMul writes L·z into dst.
	RootMul(b int, z, dst []float64) error

	// Solve writes Σ⁻¹·x into dst.
	Solve(b int, x, dst []float64) error

	// InvQuad returns xᵀ·Σ⁻¹·x.
	InvQuad(b int, x []float64) (float64, error)

	// LogDet returns log|Σ|.
	LogDet(b int) float64
}

// BatchShape returns the leading (batch) dimensions of op.
func BatchShape(op Operator) []int {
	s := op.Shape()

	return s[:len(s)-2]
}

// Size returns the matrix dimension n of op.
func Size(op Operator) int {
	s := op.Shape()

	return s[len(s)-1]
}

// checkBatchVec validates a batch index and vector lengths shared by all factors.
func checkBatchVec(tag string, b, batchLen, n int, vs ...[]float64) error {
	if b < 0 || b >= batchLen {
		return linopErrorf(tag, ErrOutOfRange)
	}
	for _, v := range vs {
		if len(v) != n {
			return linopErrorf(tag, ErrDimensionMismatch)
		}
	}

	return nil
}
