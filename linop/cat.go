// SPDX-License-Identifier: MIT

package linop

import (
	"fmt"

	"github.com/katalvlaran/gpdist/tensor"
)

const ctxCat = "Cat"

// Cat stacks t operators of identical shape (B..., n, n) along a new block
// axis, giving (B..., t, n, n). It is the lazy counterpart of tensor.Stack
// used to feed BlockDiag without evaluating the members.
type Cat struct {
	ops     []Operator
	batched bool
}

var _ Operator = (*Cat)(nil)

// NewCat validates and stacks ops.
// MAIN DESCRIPTION:
//   - batched=true requires every member to carry at least one batch dim;
//     the block axis is inserted after the batch dims.
//   - batched=false requires plain n×n members.
//
// Errors:
//   - ErrNilOperator for an empty list or a nil member.
//   - ErrDimensionMismatch for differing shapes or a rank that contradicts batched.
//   - tensor.ErrPlacement for differing placements.
func NewCat(ops []Operator, batched bool) (*Cat, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("linop.%s: no operators: %w", ctxCat, ErrNilOperator)
	}
	for i, op := range ops {
		if IsNil(op) {
			return nil, fmt.Errorf("linop.%s: operator %d: %w", ctxCat, i, ErrNilOperator)
		}
	}
	first := ops[0].Shape()
	switch {
	case batched && len(first) < 3:
		return nil, fmt.Errorf("linop.%s: batched concat of shape %v: %w", ctxCat, first, ErrDimensionMismatch)
	case !batched && len(first) != 2:
		return nil, fmt.Errorf("linop.%s: unbatched concat of shape %v: %w", ctxCat, first, ErrDimensionMismatch)
	}
	p := ops[0].Placement()
	for i, op := range ops[1:] {
		if s := op.Shape(); !tensor.EqualShapes(first, s) {
			return nil, fmt.Errorf("linop.%s: operator %d has shape %v, want %v: %w",
				ctxCat, i+1, s, first, ErrDimensionMismatch)
		}
		if err := tensor.ValidateSamePlacement(p, op.Placement()); err != nil {
			return nil, fmt.Errorf("linop.%s: operator %d: %w", ctxCat, i+1, err)
		}
	}

	return &Cat{ops: append([]Operator(nil), ops...), batched: batched}, nil
}

// Len returns the number of stacked operators.
func (c *Cat) Len() int { return len(c.ops) }

// Shape returns (B..., t, n, n).
func (c *Cat) Shape() []int {
	s := c.ops[0].Shape()
	out := append([]int(nil), s[:len(s)-2]...)

	return append(out, len(c.ops), s[len(s)-2], s[len(s)-1])
}

// Placement returns the shared placement of the members.
func (c *Cat) Placement() tensor.Placement { return c.ops[0].Placement() }

// Diag stacks the member diagonals into (B..., t, n).
func (c *Cat) Diag() (*tensor.Dense, error) {
	ds := make([]*tensor.Dense, len(c.ops))
	for i, op := range c.ops {
		d, err := op.Diag()
		if err != nil {
			return nil, linopErrorf(ctxCat, err)
		}
		ds[i] = d
	}
	out, err := tensor.Stack(-2, ds...)
	if err != nil {
		return nil, linopErrorf(ctxCat, err)
	}

	return out, nil
}

// Evaluate stacks the dense members into (B..., t, n, n).
// Complexity: O(t·B·n²) plus the members' own cost.
func (c *Cat) Evaluate() (*tensor.Dense, error) {
	ms := make([]*tensor.Dense, len(c.ops))
	for i, op := range c.ops {
		m, err := op.Evaluate()
		if err != nil {
			return nil, linopErrorf(ctxCat, err)
		}
		ms[i] = m
	}
	out, err := tensor.Stack(-3, ms...)
	if err != nil {
		return nil, linopErrorf(ctxCat, err)
	}

	return out, nil
}

// Factorize factors every member independently.
func (c *Cat) Factorize() (Factor, error) {
	fs := make([]Factor, len(c.ops))
	for i, op := range c.ops {
		f, err := op.Factorize()
		if err != nil {
			return nil, fmt.Errorf("linop.%s: operator %d: %w", ctxCat, i, err)
		}
		fs[i] = f
	}

	return &catFactor{fs: fs}, nil
}

// catFactor maps flattened index b = outer·t + j onto member j, batch outer.
type catFactor struct {
	fs []Factor
}

var _ Factor = (*catFactor)(nil)

func (f *catFactor) BatchLen() int { return f.fs[0].BatchLen() * len(f.fs) }

func (f *catFactor) Size() int { return f.fs[0].Size() }

func (f *catFactor) locate(tag string, b int) (Factor, int, error) {
	if b < 0 || b >= f.BatchLen() {
		return nil, 0, linopErrorf(tag, ErrOutOfRange)
	}
	t := len(f.fs)

	return f.fs[b%t], b / t, nil
}

func (f *catFactor) RootMul(b int, z, dst []float64) error {
	m, ib, err := f.locate(ctxRootMul, b)
	if err != nil {
		return err
	}

	return m.RootMul(ib, z, dst)
}

func (f *catFactor) Solve(b int, x, dst []float64) error {
	m, ib, err := f.locate(ctxSolve, b)
	if err != nil {
		return err
	}

	return m.Solve(ib, x, dst)
}

func (f *catFactor) InvQuad(b int, x []float64) (float64, error) {
	m, ib, err := f.locate(ctxInvQuad, b)
	if err != nil {
		return 0, err
	}

	return m.InvQuad(ib, x)
}

func (f *catFactor) LogDet(b int) float64 {
	t := len(f.fs)

	return f.fs[b%t].LogDet(b / t)
}
