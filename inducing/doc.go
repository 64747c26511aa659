// SPDX-License-Identifier: MIT

// Package inducing implements additive grid inducing points for scalable
// Gaussian process inference.
//
// Inputs of shape (n, c, d) are treated as c additive components. Each
// component is interpolated onto a shared 1-D grid of m inducing points with
// cubic convolution, giving a sparse n×m matrix W_c with four non-zeros per
// row. With a prior N(μ_u, K_uu) on the grid values, the output is
//
//	mean = Σ_c W_c·α        cov = Σ_c W_c·K·W_cᵀ
//
// where α and K depend on the mode:
//
//	exact                 α = μ_u,          K = K_uu
//	variational, train    α = μ_u,          K = K_uu, plus a GridStrategy
//	variational, eval     α = m_q − μ_u,    K = L·Lᵀ  (q(u) = N(m_q, L·Lᵀ))
//
// Only d = 1 is supported; other dimensionalities report ErrNotImplemented.
//
// An AdditiveGrid is stateful (mode flags, cached interpolation, variational
// parameters) and guards that state with a mutex.
package inducing
