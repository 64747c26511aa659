// SPDX-License-Identifier: MIT

// Package tensor - shape kernels.
//
// Purpose:
//   - Reshape, TransposeLast, Contiguous and Stack: the only layout moves the
//     distributions need.
//
// Determinism & Policy:
//   - Reshape and Stack always allocate; results never alias their inputs.
//   - TransposeLast is a no-copy view; Contiguous materialises it.

package tensor

import "fmt"

// Reshape returns a tensor with the same row-major values and a new shape.
// MAIN DESCRIPTION:
//   - One dimension may be -1 and is inferred from the remaining ones.
//
// Implementation:
//   - Stage 1: refuse strided views (ErrNotContiguous).
//   - Stage 2: resolve the -1 dimension and check the element count.
//   - Stage 3: copy values into a fresh buffer.
//
// Errors:
//   - ErrNotContiguous, ErrBadShape (more than one -1, negative dims), ErrSizeMismatch.
//
// Complexity:
//   - Time O(size), Space O(size).
func (t *Dense) Reshape(shape ...int) (*Dense, error) {
	if !t.IsContiguous() {
		return nil, tensorErrorf(ctxReshape, ErrNotContiguous)
	}
	target, err := resolveShape(shape, t.Size())
	if err != nil {
		return nil, fmt.Errorf("tensor.%s %v -> %v: %w", ctxReshape, t.shape, shape, err)
	}

	return newContiguous(t.Data(), target, t.placement), nil
}

// resolveShape fills a single -1 dimension and validates the element count.
func resolveShape(shape []int, size int) ([]int, error) {
	out := make([]int, len(shape))
	copy(out, shape)
	infer := -1
	known := 1
	for k, d := range out {
		switch {
		case d == -1:
			if infer >= 0 {
				return nil, ErrBadShape
			}
			infer = k
		case d < 0:
			return nil, ErrBadShape
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || size%known != 0 {
			return nil, ErrSizeMismatch
		}
		out[infer] = size / known
		known *= out[infer]
	}
	if known != size {
		return nil, ErrSizeMismatch
	}

	return out, nil
}

// TransposeLast swaps the two trailing axes without copying.
// The result is usually not contiguous; pass it through Contiguous before Reshape.
// Errors: ErrBadShape when rank < 2.
// Complexity: O(rank).
func (t *Dense) TransposeLast() (*Dense, error) {
	r := len(t.shape)
	if r < 2 {
		return nil, fmt.Errorf("tensor.%s: rank %d: %w", ctxTranspose, r, ErrBadShape)
	}
	out := &Dense{
		shape:     t.Shape(),
		strides:   append([]int(nil), t.strides...),
		offset:    t.offset,
		data:      t.data,
		placement: t.placement,
	}
	out.shape[r-1], out.shape[r-2] = out.shape[r-2], out.shape[r-1]
	out.strides[r-1], out.strides[r-2] = out.strides[r-2], out.strides[r-1]

	return out, nil
}

// Contiguous returns a fresh row-major copy of t.
// Complexity: O(size).
func (t *Dense) Contiguous() *Dense {
	return newContiguous(t.Data(), t.shape, t.placement)
}

// Stack joins equally shaped tensors along a new axis.
// MAIN DESCRIPTION:
//   - axis is in [-(rank+1), rank]; -1 appends a trailing axis.
//
// Implementation:
//   - Stage 1: validate count, shapes and placements.
//   - Stage 2: interleave row-major blocks: the result is split into
//     outer = Π shape[:axis] chunks, each holding one inner block per input.
//
// Errors:
//   - ErrNilTensor, ErrSizeMismatch (no inputs or differing shapes), ErrBadShape, ErrPlacement.
//
// Complexity:
//   - Time O(k*size), Space O(k*size).
func Stack(axis int, ts ...*Dense) (*Dense, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("tensor.%s: no inputs: %w", ctxStack, ErrSizeMismatch)
	}
	for i, x := range ts {
		if x == nil {
			return nil, fmt.Errorf("tensor.%s: input %d: %w", ctxStack, i, ErrNilTensor)
		}
	}
	first := ts[0]
	for i, x := range ts[1:] {
		if !EqualShapes(first.shape, x.shape) {
			return nil, fmt.Errorf("tensor.%s: input %d has shape %v, want %v: %w",
				ctxStack, i+1, x.shape, first.shape, ErrSizeMismatch)
		}
		if x.placement != first.placement {
			return nil, fmt.Errorf("tensor.%s: input %d on %s, want %s: %w",
				ctxStack, i+1, x.placement, first.placement, ErrPlacement)
		}
	}
	ax, err := normAxis(axis, len(first.shape)+1)
	if err != nil {
		return nil, tensorErrorf(ctxStack, err)
	}

	outer := Numel(first.shape[:ax])
	inner := Numel(first.shape[ax:])
	k := len(ts)
	buf := make([]float64, outer*k*inner)
	for j, x := range ts {
		src := x.Data()
		for o := 0; o < outer; o++ {
			copy(buf[(o*k+j)*inner:(o*k+j+1)*inner], src[o*inner:(o+1)*inner])
		}
	}

	shape := make([]int, 0, len(first.shape)+1)
	shape = append(shape, first.shape[:ax]...)
	shape = append(shape, k)
	shape = append(shape, first.shape[ax:]...)

	return newContiguous(buf, shape, first.placement), nil
}
