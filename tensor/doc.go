// SPDX-License-Identifier: MIT

// Package tensor provides the small N-dimensional float64 tensor used across
// gpdist: row-major storage with explicit strides, a placement tag (element
// type + device), and the shape helpers the distributions need (Reshape,
// TransposeLast, Contiguous, Stack).
//
// Tensors are immutable once built. TransposeLast returns a strided view over
// the receiver's buffer; every other operation allocates. Reshape refuses
// non-contiguous receivers, so a transposed view must go through Contiguous
// first, exactly like the view/contiguous discipline of array libraries.
//
// Complexity quicksheet:
//   - FromSlice, Zeros, Contiguous, Reshape, Stack: O(size).
//   - TransposeLast, Shape, Rank, Placement: O(rank).
//   - At: O(rank).
package tensor
