// SPDX-License-Identifier: MIT

// Package distributions - MultitaskNormal from independent per-task Normals.
//
// The joint covariance is block-diagonal: task j's n×n covariance sits in
// block j and every cross-task block is zero. Stacking means along a new last
// axis and placing blocks in task order yields the task-major layout.

package distributions

import (
	"fmt"
	"log/slog"

	"github.com/katalvlaran/gpdist/linop"
	"github.com/katalvlaran/gpdist/tensor"
)

// FromIndependent joins t ≥ 2 independent Normals into one task-major
// MultitaskNormal with output shape (B..., n, t).
// MAIN DESCRIPTION:
//   - All inputs share batch shape B (rank 0 or 1) and event shape (n).
//   - Batched inputs keep B as a leading axis of the block-diagonal operator;
//     unbatched inputs are stacked densely and split into t blocks.
//
// Errors:
//   - ErrValue: fewer than two inputs, a nil input, differing batch or event
//     shapes, batch rank > 1.
//   - ErrPlacement: inputs on different placements.
//
// Complexity:
//   - O(t·B·n) for the means; the batched path never evaluates covariances,
//     the unbatched path evaluates each once (O(t·n²)).
func FromIndependent(dists []*Normal, opts ...Option) (*MultitaskNormal, error) {
	if len(dists) < 2 {
		return nil, fmt.Errorf("FromIndependent: need at least 2 distributions, got %d: %w", len(dists), ErrValue)
	}
	for i, d := range dists {
		if d == nil {
			return nil, fmt.Errorf("FromIndependent: distribution %d is nil: %w", i, ErrValue)
		}
	}
	batch, event := dists[0].BatchShape(), dists[0].EventShape()
	for i, d := range dists[1:] {
		if !tensor.EqualShapes(d.BatchShape(), batch) {
			return nil, fmt.Errorf("FromIndependent: distribution %d batch shape %v, expected %v: %w",
				i+1, d.BatchShape(), batch, ErrValue)
		}
		if !tensor.EqualShapes(d.EventShape(), event) {
			return nil, fmt.Errorf("FromIndependent: distribution %d event shape %v, expected %v: %w",
				i+1, d.EventShape(), event, ErrValue)
		}
	}
	if len(batch) > 1 {
		return nil, fmt.Errorf("FromIndependent: batch shape %v has more than one dimension: %w", batch, ErrValue)
	}

	t := len(dists)
	means := make([]*tensor.Dense, t)
	covs := make([]linop.Operator, t)
	for i, d := range dists {
		means[i] = d.Mean()
		covs[i] = d.Covariance()
	}
	mean, err := tensor.Stack(-1, means...)
	if err != nil {
		return nil, fmt.Errorf("FromIndependent: %w", err)
	}
	cov, err := blockDiagonal(covs)
	if err != nil {
		return nil, fmt.Errorf("FromIndependent: %w", err)
	}

	flat, err := flatten(mean, false)
	if err != nil {
		return nil, fmt.Errorf("FromIndependent: %w", err)
	}
	base, err := NewNormal(flat, cov, opts...)
	if err != nil {
		return nil, fmt.Errorf("FromIndependent: %w", err)
	}

	return newMultitask(base, mean.Shape(), false)
}

// blockDiagonal composes per-task covariances; rank 3 selects the batched path.
func blockDiagonal(covs []linop.Operator) (linop.Operator, error) {
	t := len(covs)
	if len(covs[0].Shape()) == 3 {
		slog.Debug("FromIndependent: batched block-diagonal", "tasks", t, "shape", covs[0].Shape())
		cat, err := linop.NewCat(covs, true)
		if err != nil {
			return nil, err
		}

		return linop.NewBlockDiag(cat, t)
	}

	slog.Debug("FromIndependent: stacked block-diagonal", "tasks", t, "shape", covs[0].Shape())
	dense := make([]*tensor.Dense, t)
	for i, c := range covs {
		ev, err := c.Evaluate()
		if err != nil {
			return nil, err
		}
		dense[i] = ev
	}
	stacked, err := tensor.Stack(0, dense...)
	if err != nil {
		return nil, err
	}
	w, err := linop.Wrap(stacked)
	if err != nil {
		return nil, err
	}

	return linop.NewBlockDiag(w, 0)
}
