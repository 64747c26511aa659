// SPDX-License-Identifier: MIT

package distributions

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gpdist/tensor"
)

// KLDivergence returns KL(q ‖ p) for every batch element, shape B.
//
//	KL = ½·( tr(Σp⁻¹Σq) + (μp−μq)ᵀΣp⁻¹(μp−μq) − n + log|Σp| − log|Σq| )
//
// Errors:
//   - ErrType for nil inputs; ErrShape when batch or event shapes differ.
//   - factorisation errors from either covariance.
//
// Complexity: O(B·n³); Σq is evaluated densely.
func KLDivergence(q, p *Normal) (*tensor.Dense, error) {
	if q == nil || p == nil {
		return nil, fmt.Errorf("KLDivergence: nil distribution: %w", ErrType)
	}
	if !tensor.EqualShapes(q.loc.Shape(), p.loc.Shape()) {
		return nil, fmt.Errorf("KLDivergence: shapes %v and %v differ: %w", q.loc.Shape(), p.loc.Shape(), ErrShape)
	}
	fq, err := q.getFactor()
	if err != nil {
		return nil, fmt.Errorf("KLDivergence: q: %w", err)
	}
	fp, err := p.getFactor()
	if err != nil {
		return nil, fmt.Errorf("KLDivergence: p: %w", err)
	}
	covQ, err := q.cov.Evaluate()
	if err != nil {
		return nil, fmt.Errorf("KLDivergence: q: %w", err)
	}

	n := q.eventSize()
	batchShape := q.BatchShape()
	muQ, muP := q.loc.Data(), p.loc.Data()
	sq := covQ.Data()
	out := make([]float64, tensor.Numel(batchShape))
	diff := make([]float64, n)
	col := make([]float64, n)
	sol := make([]float64, n)
	for b := range out {
		block := mat.NewDense(n, n, sq[b*n*n:(b+1)*n*n])
		trace := 0.0
		for j := 0; j < n; j++ {
			mat.Col(col, j, block)
			if err := fp.Solve(b, col, sol); err != nil {
				return nil, fmt.Errorf("KLDivergence: %w", err)
			}
			trace += sol[j]
		}
		floats.SubTo(diff, muP[b*n:(b+1)*n], muQ[b*n:(b+1)*n])
		quad, err := fp.InvQuad(b, diff)
		if err != nil {
			return nil, fmt.Errorf("KLDivergence: %w", err)
		}
		out[b] = 0.5 * (trace + quad - float64(n) + fp.LogDet(b) - fq.LogDet(b))
	}
	res, err := tensor.FromSlice(out, batchShape...)
	if err != nil {
		return nil, fmt.Errorf("KLDivergence: %w", err)
	}

	return res, nil
}
