// SPDX-License-Identifier: MIT

// Package distributions - MultitaskNormal.
//
// Purpose:
//   - A joint Gaussian over an (n, t) or (b, n, t) grid of (observation, task)
//     outputs, stored as a flat Normal over n·t values.
//
// Contract:
//   - The flat Normal is held, not embedded; every accessor calls it and then
//     applies the layout protocol of layout.go.
//   - Immutable after construction.

package distributions

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gpdist/linop"
	"github.com/katalvlaran/gpdist/tensor"
)

// MultitaskNormal is a multivariate normal over an (..., n, t) output grid.
type MultitaskNormal struct {
	outputShape []int
	interleaved bool
	base        *Normal
	mean        *tensor.Dense // unflattened, computed once
}

// NewMultitaskNormal builds a MultitaskNormal from a mean of shape (n, t) or
// (b, n, t) and a covariance of shape (n·t, n·t) or (b, n·t, n·t).
// MAIN DESCRIPTION:
//   - mean may be a *tensor.Dense, a linop.Operator (evaluated) or a gonum mat.Matrix.
//   - covariance may be a linop.Operator, a *tensor.Dense (wrapped) or a gonum mat.Symmetric.
//   - WithInterleaved(false) selects the task-major layout.
//
// Implementation:
//   - Stage 1: resolve argument types (ErrType) and the mean rank (ErrShape).
//   - Stage 2: flatten the mean per layout.
//   - Stage 3: delegate to NewNormal, which checks shapes, placement and,
//     under WithValidateArgs, values.
//
// Complexity:
//   - O(n·t) for the flatten; validation adds O(b·(n·t)²).
func NewMultitaskNormal(mean, covariance any, opts ...Option) (*MultitaskNormal, error) {
	m, err := asTensor(mean)
	if err != nil {
		return nil, fmt.Errorf("NewMultitaskNormal: mean: %w", err)
	}
	c, err := asOperator(covariance)
	if err != nil {
		return nil, fmt.Errorf("NewMultitaskNormal: covariance: %w", err)
	}
	if r := m.Rank(); r != 2 && r != 3 {
		return nil, fmt.Errorf("NewMultitaskNormal: mean shape %v, expected (n, t) or (b, n, t): %w", m.Shape(), ErrShape)
	}

	o := gatherOptions(opts...)
	flat, err := flatten(m, o.interleaved)
	if err != nil {
		return nil, fmt.Errorf("NewMultitaskNormal: %w", err)
	}
	base, err := NewNormal(flat, c, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewMultitaskNormal: %w", err)
	}

	return newMultitask(base, m.Shape(), o.interleaved)
}

// newMultitask wraps an already-built flat Normal.
func newMultitask(base *Normal, outputShape []int, interleaved bool) (*MultitaskNormal, error) {
	k := len(outputShape)
	mean, err := unflatten(base.Mean(), outputShape[k-2], outputShape[k-1], interleaved)
	if err != nil {
		return nil, err
	}

	return &MultitaskNormal{
		outputShape: append([]int(nil), outputShape...),
		interleaved: interleaved,
		base:        base,
		mean:        mean,
	}, nil
}

// asTensor resolves the accepted mean types.
func asTensor(v any) (*tensor.Dense, error) {
	if linop.IsNil(v) {
		return nil, fmt.Errorf("%T: %w", v, ErrType)
	}
	switch x := v.(type) {
	case *tensor.Dense:
		return x, nil
	case linop.Operator:
		t, err := x.Evaluate()
		if err != nil {
			return nil, err
		}

		return t, nil
	case mat.Matrix:
		r, c := x.Dims()
		buf := make([]float64, 0, r*c)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				buf = append(buf, x.At(i, j))
			}
		}

		return tensor.FromSlice(buf, r, c)
	default:
		return nil, fmt.Errorf("%T: %w", v, ErrType)
	}
}

// asOperator resolves the accepted covariance types.
func asOperator(v any) (linop.Operator, error) {
	if linop.IsNil(v) {
		return nil, fmt.Errorf("%T: %w", v, ErrType)
	}
	switch x := v.(type) {
	case linop.Operator:
		return x, nil
	case *tensor.Dense:
		op, err := linop.Wrap(x)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrShape)
		}

		return op, nil
	case mat.Symmetric:
		return linop.FromSymmetric(x)
	default:
		return nil, fmt.Errorf("%T: %w", v, ErrType)
	}
}

// Mean returns the (..., n, t) mean.
func (d *MultitaskNormal) Mean() *tensor.Dense { return d.mean }

// Variance returns the (..., n, t) marginal variances.
func (d *MultitaskNormal) Variance() (*tensor.Dense, error) {
	v, err := d.base.Variance()
	if err != nil {
		return nil, fmt.Errorf("MultitaskNormal.Variance: %w", err)
	}

	return d.unflatten("Variance", v)
}

// Covariance returns the (..., n·t, n·t) covariance operator in the flat layout.
func (d *MultitaskNormal) Covariance() linop.Operator { return d.base.Covariance() }

// Base returns the flat Normal.
func (d *MultitaskNormal) Base() *Normal { return d.base }

// NumTasks returns t.
func (d *MultitaskNormal) NumTasks() int { return d.outputShape[len(d.outputShape)-1] }

// NumObservations returns n.
func (d *MultitaskNormal) NumObservations() int { return d.outputShape[len(d.outputShape)-2] }

// EventShape returns (n, t).
func (d *MultitaskNormal) EventShape() []int {
	return append([]int(nil), d.outputShape[len(d.outputShape)-2:]...)
}

// BatchShape returns the leading batch dims of the output shape.
func (d *MultitaskNormal) BatchShape() []int {
	return append([]int(nil), d.outputShape[:len(d.outputShape)-2]...)
}

// OutputShape returns (..., n, t).
func (d *MultitaskNormal) OutputShape() []int { return append([]int(nil), d.outputShape...) }

// Interleaved reports the flattening layout.
func (d *MultitaskNormal) Interleaved() bool { return d.interleaved }

func (d *MultitaskNormal) unflatten(tag string, x *tensor.Dense) (*tensor.Dense, error) {
	out, err := unflatten(x, d.NumObservations(), d.NumTasks(), d.interleaved)
	if err != nil {
		return nil, fmt.Errorf("MultitaskNormal.%s: %w", tag, err)
	}

	return out, nil
}

// BaseSamples draws standard normal noise of shape (S..., B'..., n, t), where
// B' is the batch shape with every axis in collapseDims set to 1.
// collapseDims index the output shape and may only name batch axes.
//
// Errors:
//   - ErrShape when a collapse axis names n, t or lies outside the shape.
func (d *MultitaskNormal) BaseSamples(sampleShape []int, collapseDims []int) (*tensor.Dense, error) {
	z, err := d.base.BaseSamples(sampleShape, collapseDims)
	if err != nil {
		return nil, fmt.Errorf("MultitaskNormal.BaseSamples: %w", err)
	}

	return d.unflatten("BaseSamples", z)
}

// RSample draws reparameterised samples of shape (S..., B..., n, t).
// MAIN DESCRIPTION:
//   - base == nil: the flat Normal draws its own noise of shape (S..., B..., n·t).
//   - base != nil: its trailing dims must equal OutputShape exactly; the
//     leading dims are taken as the sample shape. sampleShape must then be
//     nil or equal to those leading dims.
//
// Errors:
//   - ErrShape with expected and actual shapes on any mismatch.
func (d *MultitaskNormal) RSample(sampleShape []int, base *tensor.Dense) (*tensor.Dense, error) {
	if base == nil {
		x, err := d.base.RSample(sampleShape, nil)
		if err != nil {
			return nil, fmt.Errorf("MultitaskNormal.RSample: %w", err)
		}

		return d.unflatten("RSample", x)
	}

	bs := base.Shape()
	k := len(d.outputShape)
	if len(bs) < k || !tensor.EqualShapes(bs[len(bs)-k:], d.outputShape) {
		return nil, fmt.Errorf("MultitaskNormal.RSample: base samples shape %v, expected (..., %v): %w",
			bs, d.outputShape, ErrShape)
	}
	inferred := bs[:len(bs)-k]
	if sampleShape != nil && !tensor.EqualShapes(sampleShape, inferred) {
		return nil, fmt.Errorf("MultitaskNormal.RSample: sample shape %v, base samples imply %v: %w",
			sampleShape, inferred, ErrShape)
	}
	z, err := flatten(base, d.interleaved)
	if err != nil {
		return nil, fmt.Errorf("MultitaskNormal.RSample: %w", err)
	}
	x, err := d.base.RSample(inferred, z)
	if err != nil {
		return nil, fmt.Errorf("MultitaskNormal.RSample: %w", err)
	}

	return d.unflatten("RSample", x)
}

// Sample draws samples of shape (S..., B..., n, t).
func (d *MultitaskNormal) Sample(sampleShape []int) (*tensor.Dense, error) {
	return d.RSample(sampleShape, nil)
}

// LogProb evaluates the joint log-density of value, shape (S..., B..., n, t);
// the result has shape (S..., B...).
func (d *MultitaskNormal) LogProb(value *tensor.Dense) (*tensor.Dense, error) {
	if value == nil {
		return nil, fmt.Errorf("MultitaskNormal.LogProb: nil value: %w", ErrType)
	}
	vs := value.Shape()
	k := len(d.outputShape)
	if len(vs) < k || !tensor.EqualShapes(vs[len(vs)-k:], d.outputShape) {
		return nil, fmt.Errorf("MultitaskNormal.LogProb: value shape %v, expected (..., %v): %w",
			vs, d.outputShape, ErrShape)
	}
	flat, err := flatten(value, d.interleaved)
	if err != nil {
		return nil, fmt.Errorf("MultitaskNormal.LogProb: %w", err)
	}
	lp, err := d.base.LogProb(flat)
	if err != nil {
		return nil, fmt.Errorf("MultitaskNormal.LogProb: %w", err)
	}

	return lp, nil
}
