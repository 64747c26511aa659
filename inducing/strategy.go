// SPDX-License-Identifier: MIT

package inducing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gpdist/distributions"
	"github.com/katalvlaran/gpdist/tensor"
)

// GridStrategy carries the variational state of a training-mode forward
// pass: q(u) = N(m_q, L·Lᵀ) and the prior p(u) it is regularised towards.
// It holds copies, so later updates to the module do not change it.
type GridStrategy struct {
	mean  []float64
	chol  *mat.TriDense
	prior *distributions.Normal
}

func newGridStrategy(mean []float64, chol *mat.TriDense, prior *distributions.Normal) *GridStrategy {
	m := len(mean)
	c := mat.NewTriDense(m, mat.Lower, nil)
	c.Copy(chol)

	return &GridStrategy{mean: append([]float64(nil), mean...), chol: c, prior: prior}
}

// VariationalMean returns a copy of m_q.
func (s *GridStrategy) VariationalMean() []float64 { return append([]float64(nil), s.mean...) }

// Prior returns p(u).
func (s *GridStrategy) Prior() *distributions.Normal { return s.prior }

// Posterior returns q(u) as a Normal.
func (s *GridStrategy) Posterior() (*distributions.Normal, error) {
	loc, err := tensor.FromSlice(s.mean, len(s.mean))
	if err != nil {
		return nil, fmt.Errorf("GridStrategy.Posterior: %w", err)
	}
	cov, err := outerCovariance(s.chol)
	if err != nil {
		return nil, fmt.Errorf("GridStrategy.Posterior: %w", err)
	}

	return distributions.NewNormal(loc, cov)
}

// KLDivergence returns KL(q(u) ‖ p(u)).
// Complexity: O(m³).
func (s *GridStrategy) KLDivergence() (float64, error) {
	q, err := s.Posterior()
	if err != nil {
		return 0, err
	}
	kl, err := distributions.KLDivergence(q, s.prior)
	if err != nil {
		return 0, fmt.Errorf("GridStrategy.KLDivergence: %w", err)
	}

	return kl.Data()[0], nil
}
