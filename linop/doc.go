// SPDX-License-Identifier: MIT

// Package linop provides structured covariance operators: square matrices, or
// batches of them, that expose the few matrix-free operations a Gaussian
// needs without forcing a dense materialisation.
//
// Every Operator has a shape (batch..., n, n), a placement tag, a diagonal,
// a dense Evaluate for callers that really need the entries, and a Factor
// giving access to a square root L (Σ = L·Lᵀ), solves, quadratic forms and
// log-determinants per flattened batch element.
//
// Implementations:
//
//	Dense           wraps a (batched) dense tensor; factor = gonum Cholesky.
//	BlockDiag       (B..., k, n, n) -> (B..., k·n, k·n); all work is blockwise.
//	Cat             stacks t operators of shape (B..., n, n) into (B..., t, n, n).
//	SumInterpolated Σ_c W_c K W_cᵀ with sparse interpolation weights W_c.
//
// Composition is the intended use: BlockDiag(Cat(...)) keeps per-task factors
// separate so the joint factorisation of t independent tasks costs t small
// Cholesky decompositions rather than one of size t·n.
package linop
