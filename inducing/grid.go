// SPDX-License-Identifier: MIT

// Package inducing - grid construction and cubic interpolation.
//
// Grid:
//   - m points, evenly spaced, covering [lo − 2h, hi + 2h] with
//     h = (hi − lo)/(m − 5). The two padding points on each side give every
//     input in [lo − h, hi + h] a full four-point stencil.
//
// Interpolation:
//   - Keys cubic convolution with a = −0.75: for an input at fractional grid
//     position p the stencil is ⌊p⌋−1 … ⌊p⌋+2 with weights u(p − k).
//     The weights sum to one.

package inducing

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/gpdist/linop"
)

const (
	cubicA      = -0.75
	stencilSize = 4
)

// grid1D is an evenly spaced 1-D grid.
type grid1D struct {
	start  float64
	step   float64
	points []float64
}

// newGrid1D builds the padded grid for one bounds pair.
func newGrid1D(size int, lo, hi float64) (grid1D, error) {
	if size < MinGridSize {
		return grid1D{}, fmt.Errorf("grid size %d < %d: %w", size, MinGridSize, ErrBadGrid)
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) || !(hi > lo) {
		return grid1D{}, fmt.Errorf("bounds [%v, %v]: %w", lo, hi, ErrBadGrid)
	}
	step := (hi - lo) / float64(size-5)
	g := grid1D{start: lo - 2*step, step: step, points: make([]float64, size)}
	for i := range g.points {
		g.points[i] = g.start + float64(i)*step
	}

	return g, nil
}

// cubicWeight is the Keys cubic convolution kernel.
func cubicWeight(s float64) float64 {
	s = math.Abs(s)
	switch {
	case s <= 1:
		return ((cubicA+2)*s-(cubicA+3))*s*s + 1
	case s < 2:
		return ((cubicA*s-5*cubicA)*s+8*cubicA)*s - 4*cubicA
	default:
		return 0
	}
}

// stencil returns the four grid indices and weights for x.
func (g grid1D) stencil(x float64) ([]int, []float64, error) {
	p := (x - g.start) / g.step
	k := int(math.Floor(p))
	if math.IsNaN(p) || math.IsInf(p, 0) || k-1 < 0 || k+2 >= len(g.points) {
		return nil, nil, fmt.Errorf("input %v outside [%v, %v): %w",
			x, g.points[1], g.points[len(g.points)-2], ErrOutOfBounds)
	}
	idx := make([]int, stencilSize)
	w := make([]float64, stencilSize)
	for q := 0; q < stencilSize; q++ {
		idx[q] = k - 1 + q
		w[q] = cubicWeight(p - float64(idx[q]))
	}

	return idx, w, nil
}

// interpolate computes one Interp per component for inputs laid out as
// values[i*c + comp] (n rows, c components, d = 1). Components run
// concurrently, at most workers at a time.
func (g grid1D) interpolate(values []float64, n, c, workers int) ([]linop.Interp, error) {
	out := make([]linop.Interp, c)
	var eg errgroup.Group
	eg.SetLimit(workers)
	for comp := 0; comp < c; comp++ {
		comp := comp
		eg.Go(func() error {
			w := linop.Interp{Index: make([][]int, n), Value: make([][]float64, n)}
			for i := 0; i < n; i++ {
				idx, val, err := g.stencil(values[i*c+comp])
				if err != nil {
					return fmt.Errorf("component %d row %d: %w", comp, i, err)
				}
				w.Index[i], w.Value[i] = idx, val
			}
			out[comp] = w

			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// leftInterp returns Σ_c W_c·v.
func leftInterp(weights []linop.Interp, v []float64) []float64 {
	if len(weights) == 0 {
		return nil
	}
	out := make([]float64, len(weights[0].Index))
	for _, w := range weights {
		for i := range out {
			for p, col := range w.Index[i] {
				out[i] += w.Value[i][p] * v[col]
			}
		}
	}

	return out
}
