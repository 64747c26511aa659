// SPDX-License-Identifier: MIT

// Package distributions - Normal (batched multivariate normal).
//
// Purpose:
//   - The flat, single-task Gaussian every MultitaskNormal delegates to.
//   - loc has shape (B..., n); the covariance operator has shape (B..., n, n).
//
// Sampling is reparameterised: x = μ + L·z with z ~ N(0, I) and Σ = L·Lᵀ,
// where L comes from the operator's Factor (computed once, on first use).

package distributions

import (
	"fmt"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/katalvlaran/gpdist/linop"
	"github.com/katalvlaran/gpdist/tensor"
)

const log2Pi = 1.8378770664093453 // log(2π)

// Normal is a batched multivariate normal distribution.
type Normal struct {
	loc *tensor.Dense
	cov linop.Operator
	src rand.Source

	once      sync.Once
	factor    linop.Factor
	factorErr error
}

// NewNormal builds a Normal from a (B..., n) mean and a (B..., n, n) covariance.
// MAIN DESCRIPTION:
//   - Batch shapes must agree exactly; no broadcasting between loc and cov.
//
// Implementation:
//   - Stage 1: nil checks (ErrType), rank and shape checks (ErrShape).
//   - Stage 2: placement agreement (ErrPlacement).
//   - Stage 3: optional argument validation (ErrValue).
//
// Complexity:
//   - O(rank) without validation; O(B·n²) with WithValidateArgs.
func NewNormal(loc *tensor.Dense, cov linop.Operator, opts ...Option) (*Normal, error) {
	if loc == nil {
		return nil, fmt.Errorf("NewNormal: nil mean: %w", ErrType)
	}
	if linop.IsNil(cov) {
		return nil, fmt.Errorf("NewNormal: nil covariance: %w", ErrType)
	}
	if loc.Rank() < 1 {
		return nil, fmt.Errorf("NewNormal: mean must have rank >= 1, got shape %v: %w", loc.Shape(), ErrShape)
	}
	want := append(loc.Shape(), loc.Shape()[loc.Rank()-1])
	if got := cov.Shape(); !tensor.EqualShapes(want, got) {
		return nil, fmt.Errorf("NewNormal: covariance shape %v, expected %v: %w", got, want, ErrShape)
	}
	if err := tensor.ValidateSamePlacement(loc.Placement(), cov.Placement()); err != nil {
		return nil, fmt.Errorf("NewNormal: %w", err)
	}

	o := gatherOptions(opts...)
	if o.validateArgs {
		if err := validateNormalArgs(loc, cov, o.symTol); err != nil {
			return nil, err
		}
	}

	return &Normal{loc: loc, cov: cov, src: o.src}, nil
}

// validateNormalArgs runs the opt-in numeric checks.
func validateNormalArgs(loc *tensor.Dense, cov linop.Operator, tol float64) error {
	if err := tensor.ValidateFinite(loc); err != nil {
		return fmt.Errorf("NewNormal: mean: %v: %w", err, ErrValue)
	}
	if err := linop.ValidateSymmetric(cov, tol); err != nil {
		return fmt.Errorf("NewNormal: covariance: %v: %w", err, ErrValue)
	}
	if err := linop.ValidatePositiveDiag(cov); err != nil {
		return fmt.Errorf("NewNormal: covariance: %v: %w", err, ErrValue)
	}

	return nil
}

// Mean returns the (B..., n) mean tensor.
func (d *Normal) Mean() *tensor.Dense { return d.loc }

// Covariance returns the covariance operator.
func (d *Normal) Covariance() linop.Operator { return d.cov }

// Variance returns the (B..., n) marginal variances.
func (d *Normal) Variance() (*tensor.Dense, error) {
	v, err := d.cov.Diag()
	if err != nil {
		return nil, fmt.Errorf("Normal.Variance: %w", err)
	}

	return v, nil
}

// BatchShape returns B.
func (d *Normal) BatchShape() []int {
	s := d.loc.Shape()

	return s[:len(s)-1]
}

// EventShape returns (n).
func (d *Normal) EventShape() []int {
	s := d.loc.Shape()

	return s[len(s)-1:]
}

// Placement returns the mean's placement (equal to the covariance's).
func (d *Normal) Placement() tensor.Placement { return d.loc.Placement() }

func (d *Normal) eventSize() int { return d.loc.Shape()[d.loc.Rank()-1] }

// getFactor factorizes the covariance once.
func (d *Normal) getFactor() (linop.Factor, error) {
	d.once.Do(func() {
		d.factor, d.factorErr = d.cov.Factorize()
	})

	return d.factor, d.factorErr
}

// LogProb evaluates log N(value; μ, Σ).
// MAIN DESCRIPTION:
//   - value has shape (S..., B..., n); the result has shape (S..., B...).
//
// Errors:
//   - ErrType for nil value; ErrShape when the trailing dims differ from (B..., n).
//   - factorisation errors from the covariance operator.
//
// Complexity:
//   - O(Π S · B · n²) after a one-off factorisation.
func (d *Normal) LogProb(value *tensor.Dense) (*tensor.Dense, error) {
	if value == nil {
		return nil, fmt.Errorf("Normal.LogProb: nil value: %w", ErrType)
	}
	locShape := d.loc.Shape()
	vs := value.Shape()
	if len(vs) < len(locShape) || !tensor.EqualShapes(vs[len(vs)-len(locShape):], locShape) {
		return nil, fmt.Errorf("Normal.LogProb: value shape %v, expected ...%v: %w", vs, locShape, ErrShape)
	}
	f, err := d.getFactor()
	if err != nil {
		return nil, fmt.Errorf("Normal.LogProb: %w", err)
	}

	n := d.eventSize()
	batch := tensor.Numel(locShape[:len(locShape)-1])
	mu := d.loc.Data()
	x := value.Data()
	outShape := vs[:len(vs)-1]
	out := make([]float64, tensor.Numel(outShape))
	diff := make([]float64, n)
	for i := range out {
		b := i % batch
		floats.SubTo(diff, x[i*n:(i+1)*n], mu[b*n:(b+1)*n])
		q, err := f.InvQuad(b, diff)
		if err != nil {
			return nil, fmt.Errorf("Normal.LogProb: %w", err)
		}
		out[i] = -0.5 * (float64(n)*log2Pi + f.LogDet(b) + q)
	}
	res, err := tensor.FromSlice(out, outShape...)
	if err != nil {
		return nil, fmt.Errorf("Normal.LogProb: %w", err)
	}

	return res.WithPlacement(d.Placement()), nil
}

// BaseSamples draws i.i.d. standard normal noise of shape (S..., B'..., n),
// where B' is the batch shape with every axis listed in collapseDims set to 1.
// Collapsed axes share one noise draw across the batch.
//
// Errors:
//   - ErrShape for a negative sample dimension or a collapse axis outside the batch dims.
func (d *Normal) BaseSamples(sampleShape []int, collapseDims []int) (*tensor.Dense, error) {
	batch, err := collapse(d.BatchShape(), collapseDims)
	if err != nil {
		return nil, fmt.Errorf("Normal.BaseSamples: %w", err)
	}
	shape := concatShapes(sampleShape, batch, d.EventShape())
	for _, s := range sampleShape {
		if s < 0 {
			return nil, fmt.Errorf("Normal.BaseSamples: sample shape %v: %w", sampleShape, ErrShape)
		}
	}
	noise := d.standardNormal(tensor.Numel(shape))
	out, err := tensor.FromSlice(noise, shape...)
	if err != nil {
		return nil, fmt.Errorf("Normal.BaseSamples: %w", err)
	}

	return out.WithPlacement(d.Placement()), nil
}

// collapse returns batch with the listed axes set to 1.
func collapse(batch []int, dims []int) ([]int, error) {
	out := append([]int(nil), batch...)
	for _, k := range dims {
		if k < 0 || k >= len(batch) {
			return nil, fmt.Errorf("collapse dim %d outside batch shape %v: %w", k, batch, ErrShape)
		}
		out[k] = 1
	}

	return out, nil
}

// standardNormal draws n values from N(0, 1) using the configured source.
func (d *Normal) standardNormal(n int) []float64 {
	g := distuv.Normal{Mu: 0, Sigma: 1, Src: d.src}
	out := make([]float64, n)
	for i := range out {
		out[i] = g.Rand()
	}

	return out
}

// RSample draws reparameterised samples of shape (S..., B..., n).
// MAIN DESCRIPTION:
//   - base == nil: fresh standard normal noise is drawn.
//   - base != nil: it must have shape (S..., B'..., n) where every axis of B'
//     equals the batch axis or 1 (collapsed noise is broadcast).
//
// Implementation:
//   - Stage 1: resolve and validate the noise tensor.
//   - Stage 2: x = μ_b + L_b·z for every (sample, batch) pair.
//
// Errors:
//   - ErrShape on a base-sample shape that does not match; factorisation errors.
//
// Complexity:
//   - O(Π S · B · n²) after a one-off factorisation.
func (d *Normal) RSample(sampleShape []int, base *tensor.Dense) (*tensor.Dense, error) {
	batchShape := d.BatchShape()
	n := d.eventSize()
	if base == nil {
		var err error
		if base, err = d.BaseSamples(sampleShape, nil); err != nil {
			return nil, fmt.Errorf("Normal.RSample: %w", err)
		}
	}
	bs := base.Shape()
	wantRank := len(sampleShape) + len(batchShape) + 1
	if len(bs) != wantRank || !tensor.EqualShapes(bs[:len(sampleShape)], sampleShape) || bs[wantRank-1] != n {
		return nil, fmt.Errorf("Normal.RSample: base samples shape %v, expected %v: %w",
			bs, concatShapes(sampleShape, batchShape, []int{n}), ErrShape)
	}
	noiseBatch := bs[len(sampleShape) : wantRank-1]
	for k := range batchShape {
		if noiseBatch[k] != batchShape[k] && noiseBatch[k] != 1 {
			return nil, fmt.Errorf("Normal.RSample: base samples batch %v not broadcastable to %v: %w",
				noiseBatch, batchShape, ErrShape)
		}
	}
	f, err := d.getFactor()
	if err != nil {
		return nil, fmt.Errorf("Normal.RSample: %w", err)
	}

	batch := tensor.Numel(batchShape)
	noiseLen := tensor.Numel(noiseBatch)
	samples := tensor.Numel(sampleShape)
	z := base.Data()
	mu := d.loc.Data()
	out := make([]float64, samples*batch*n)
	for s := 0; s < samples; s++ {
		for b := 0; b < batch; b++ {
			zb := broadcastIndex(b, batchShape, noiseBatch)
			src := z[(s*noiseLen+zb)*n : (s*noiseLen+zb+1)*n]
			dst := out[(s*batch+b)*n : (s*batch+b+1)*n]
			if err := f.RootMul(b, src, dst); err != nil {
				return nil, fmt.Errorf("Normal.RSample: %w", err)
			}
			floats.Add(dst, mu[b*n:(b+1)*n])
		}
	}
	res, err := tensor.FromSlice(out, concatShapes(sampleShape, batchShape, []int{n})...)
	if err != nil {
		return nil, fmt.Errorf("Normal.RSample: %w", err)
	}

	return res.WithPlacement(d.Placement()), nil
}

// Sample draws samples without a caller-supplied noise tensor.
func (d *Normal) Sample(sampleShape []int) (*tensor.Dense, error) {
	return d.RSample(sampleShape, nil)
}

// broadcastIndex maps a flat index over full onto the flat index over
// reduced, where every axis of reduced equals the full axis or 1.
func broadcastIndex(flat int, full, reduced []int) int {
	idx, stride := 0, 1
	for k := len(full) - 1; k >= 0; k-- {
		i := flat % full[k]
		flat /= full[k]
		if reduced[k] != 1 {
			idx += i * stride
		}
		stride *= reduced[k]
	}

	return idx
}

// concatShapes joins shape fragments into a fresh slice.
func concatShapes(parts ...[]int) []int {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]int, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}

// entropy is ½·(n·(1 + log 2π) + log|Σ|) for batch element b.
func (d *Normal) entropy(b int) (float64, error) {
	f, err := d.getFactor()
	if err != nil {
		return 0, err
	}

	return 0.5 * (float64(d.eventSize())*(1+log2Pi) + f.LogDet(b)), nil
}

// Entropy returns the differential entropy of every batch element, shape B.
func (d *Normal) Entropy() (*tensor.Dense, error) {
	batchShape := d.BatchShape()
	out := make([]float64, tensor.Numel(batchShape))
	for b := range out {
		h, err := d.entropy(b)
		if err != nil {
			return nil, fmt.Errorf("Normal.Entropy: %w", err)
		}
		out[b] = h
	}
	res, err := tensor.FromSlice(out, batchShape...)
	if err != nil {
		return nil, fmt.Errorf("Normal.Entropy: %w", err)
	}

	return res, nil
}
