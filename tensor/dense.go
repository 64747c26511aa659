// SPDX-License-Identifier: MIT

// Package tensor - Dense storage (row-major + strides) & safe accessors.
//
// Purpose:
//   - Provide an N-d buffer with the explicit offset formula Σ idx[k]*strides[k].
//   - Guarantee safety at the public surface: At returns errors instead of panicking.
//   - Keep algorithmic determinism (fixed loop orders, no map iteration).
//
// Complexity quicksheet:
//   - FromSlice/Zeros: O(size); At: O(rank); Data: O(size) (always a copy).

package tensor

import (
	"fmt"
	"strings"
)

// ---------- error context tags ----------

const (
	ctxNew       = "New"
	ctxFromSlice = "FromSlice"
	ctxAt        = "At"
	ctxReshape   = "Reshape"
	ctxTranspose = "TransposeLast"
	ctxStack     = "Stack"
	ctxDim       = "Dim"
)

// Dense is an immutable N-d float64 tensor.
//   - shape/strides describe the logical layout; strides are in elements.
//   - offset is the position of element (0,...,0) in data.
//   - a rank-0 tensor (empty shape) holds one scalar.
type Dense struct {
	shape     []int
	strides   []int
	offset    int
	data      []float64
	placement Placement
}

var _ fmt.Stringer = (*Dense)(nil)

// Numel returns the number of elements implied by shape (1 for an empty shape).
// Complexity: O(len(shape)).
func Numel(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}

	return n
}

// rowMajorStrides computes contiguous strides for shape.
func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for k := len(shape) - 1; k >= 0; k-- { // innermost axis has stride 1
		strides[k] = acc
		acc *= shape[k]
	}

	return strides
}

// validateShape rejects negative dimensions.
func validateShape(shape []int) error {
	for _, d := range shape {
		if d < 0 {
			return ErrBadShape
		}
	}

	return nil
}

// Zeros returns a zero-filled tensor of the given shape.
// Errors: ErrBadShape for negative dimensions.
// Complexity: O(size).
func Zeros(shape ...int) (*Dense, error) {
	if err := validateShape(shape); err != nil {
		return nil, tensorErrorf(ctxNew, err)
	}

	return newContiguous(make([]float64, Numel(shape)), shape, DefaultPlacement()), nil
}

// FromSlice builds a tensor of the given shape from a row-major copy of data.
// MAIN DESCRIPTION:
//   - Public constructor; the caller keeps ownership of data.
//
// Implementation:
//   - Stage 1: validate dimensions are non-negative.
//   - Stage 2: require len(data) == Numel(shape).
//   - Stage 3: copy into a fresh buffer.
//
// Errors:
//   - ErrBadShape, ErrSizeMismatch.
//
// Complexity:
//   - Time O(size), Space O(size).
func FromSlice(data []float64, shape ...int) (*Dense, error) {
	if err := validateShape(shape); err != nil {
		return nil, tensorErrorf(ctxFromSlice, err)
	}
	if len(data) != Numel(shape) {
		return nil, fmt.Errorf("tensor.%s: %d values for shape %v: %w",
			ctxFromSlice, len(data), shape, ErrSizeMismatch)
	}
	buf := make([]float64, len(data))
	copy(buf, data)

	return newContiguous(buf, shape, DefaultPlacement()), nil
}

// FromRows builds an r×c tensor from a rectangular [][]float64.
// Errors: ErrSizeMismatch on ragged rows.
func FromRows(rows [][]float64) (*Dense, error) {
	r := len(rows)
	c := 0
	if r > 0 {
		c = len(rows[0])
	}
	buf := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("tensor.FromRows: row %d has %d values, want %d: %w", i, len(row), c, ErrSizeMismatch)
		}
		buf = append(buf, row...)
	}

	return newContiguous(buf, []int{r, c}, DefaultPlacement()), nil
}

// newContiguous takes ownership of buf (no copy).
func newContiguous(buf []float64, shape []int, p Placement) *Dense {
	sh := make([]int, len(shape))
	copy(sh, shape)

	return &Dense{
		shape:     sh,
		strides:   rowMajorStrides(sh),
		data:      buf,
		placement: p,
	}
}

// WithPlacement returns a tensor sharing t's values but tagged with p.
// Sharing is safe because tensors are immutable.
func (t *Dense) WithPlacement(p Placement) *Dense {
	out := *t
	out.shape = t.Shape()
	out.strides = append([]int(nil), t.strides...)
	out.placement = p

	return &out
}

// Placement returns the element type and device tag.
func (t *Dense) Placement() Placement { return t.placement }

// Shape returns a copy of the logical shape.
// Complexity: O(rank).
func (t *Dense) Shape() []int {
	out := make([]int, len(t.shape))
	copy(out, t.shape)

	return out
}

// Rank returns the number of dimensions.
func (t *Dense) Rank() int { return len(t.shape) }

// Size returns the number of elements.
func (t *Dense) Size() int { return Numel(t.shape) }

// Dim returns the size of axis k; negative k counts from the end.
// Errors: ErrBadShape when k is out of range.
func (t *Dense) Dim(k int) (int, error) {
	ax, err := normAxis(k, len(t.shape))
	if err != nil {
		return 0, tensorErrorf(ctxDim, err)
	}

	return t.shape[ax], nil
}

// normAxis maps a possibly negative axis into [0, rank).
func normAxis(k, rank int) (int, error) {
	if k < 0 {
		k += rank
	}
	if k < 0 || k >= rank {
		return 0, ErrBadShape
	}

	return k, nil
}

// IsContiguous reports whether the strides are row-major with no gaps.
func (t *Dense) IsContiguous() bool {
	want := rowMajorStrides(t.shape)
	for k := range want {
		if t.shape[k] > 1 && t.strides[k] != want[k] { // size-1 axes carry any stride
			return false
		}
	}

	return true
}

// At returns the element at idx (one index per axis).
// Errors: ErrOutOfRange for a wrong index count or an index outside bounds.
// Complexity: O(rank).
func (t *Dense) At(idx ...int) (float64, error) {
	if len(idx) != len(t.shape) {
		return 0, fmt.Errorf("tensor.%s%v: rank %d: %w", ctxAt, idx, len(t.shape), ErrOutOfRange)
	}
	off := t.offset
	for k, i := range idx {
		if i < 0 || i >= t.shape[k] {
			return 0, fmt.Errorf("tensor.%s%v: shape %v: %w", ctxAt, idx, t.shape, ErrOutOfRange)
		}
		off += i * t.strides[k]
	}

	return t.data[off], nil
}

// Data returns the values in row-major order as a fresh slice.
// Strided views are gathered; contiguous tensors are copied.
// Complexity: O(size).
func (t *Dense) Data() []float64 {
	n := t.Size()
	out := make([]float64, n)
	if t.IsContiguous() {
		copy(out, t.data[t.offset:t.offset+n])
		return out
	}
	t.gather(out)

	return out
}

// gather walks the logical index space in row-major order and copies into dst.
func (t *Dense) gather(dst []float64) {
	rank := len(t.shape)
	if rank == 0 {
		dst[0] = t.data[t.offset]
		return
	}
	idx := make([]int, rank)
	off := t.offset
	for p := range dst {
		dst[p] = t.data[off]
		// odometer increment from the innermost axis
		for k := rank - 1; k >= 0; k-- {
			idx[k]++
			off += t.strides[k]
			if idx[k] < t.shape[k] {
				break
			}
			off -= idx[k] * t.strides[k]
			idx[k] = 0
		}
	}
}

// String renders the shape followed by the row-major values.
// Intended for diagnostics; not for hot paths.
func (t *Dense) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Dense%v[", t.shape))
	for i, v := range t.Data() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fmt.Sprintf("%g", v))
	}
	b.WriteString("]")

	return b.String()
}
