// SPDX-License-Identifier: MIT

package inducing

import (
	"fmt"
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gpdist/distributions"
	"github.com/katalvlaran/gpdist/linop"
	"github.com/katalvlaran/gpdist/tensor"
)

// Output is the result of a forward pass. Strategy is set only by the
// variational path in training mode.
type Output struct {
	Dist     *distributions.Normal
	Strategy *GridStrategy
}

// AdditiveGrid interpolates additive 1-D components onto a shared inducing grid.
type AdditiveGrid struct {
	mu     sync.Mutex
	bounds [][2]float64
	grid   grid1D
	kernel Kernel
	opts   gridOptions

	kuu   *linop.Dense
	prior *distributions.Normal

	training     bool
	conditioning bool
	trainInputs  *tensor.Dense
	trainInterp  []linop.Interp

	varReady bool
	varMean  []float64
	varChol  *mat.TriDense
	alpha    []float64 // eval-mode m_q − μ_u, computed once
}

// NewAdditiveGrid builds a module with gridSize inducing points per dimension.
// MAIN DESCRIPTION:
//   - bounds holds one [lo, hi] pair per input dimension; the grid is built
//     from the first pair and padded by two spacings on each side.
//   - The prior on the grid is N(0, K_uu) with K_uu = kernel(grid, grid).
//   - The module starts in training mode with conditioning off.
//
// Errors:
//   - ErrBadGrid: no bounds, invalid bounds, gridSize < MinGridSize, a nil
//     kernel, a kernel whose Validate method fails, or a non-finite K_uu.
func NewAdditiveGrid(gridSize int, bounds [][2]float64, kernel Kernel, opts ...GridOption) (*AdditiveGrid, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("NewAdditiveGrid: no bounds: %w", ErrBadGrid)
	}
	if linop.IsNil(kernel) {
		return nil, fmt.Errorf("NewAdditiveGrid: nil kernel: %w", ErrBadGrid)
	}
	if v, ok := kernel.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("NewAdditiveGrid: %w", err)
		}
	}
	var grid grid1D
	for i, b := range bounds {
		g, err := newGrid1D(gridSize, b[0], b[1])
		if err != nil {
			return nil, fmt.Errorf("NewAdditiveGrid: dimension %d: %w", i, err)
		}
		if i == 0 {
			grid = g
		}
	}

	kuu, err := gram(kernel, grid.points)
	if err != nil {
		return nil, fmt.Errorf("NewAdditiveGrid: %w", err)
	}
	zero, err := tensor.Zeros(gridSize)
	if err != nil {
		return nil, fmt.Errorf("NewAdditiveGrid: %w", err)
	}
	prior, err := distributions.NewNormal(zero, kuu)
	if err != nil {
		return nil, fmt.Errorf("NewAdditiveGrid: %w", err)
	}

	return &AdditiveGrid{
		bounds:   append([][2]float64(nil), bounds...),
		grid:     grid,
		kernel:   kernel,
		opts:     gatherGridOptions(opts...),
		kuu:      kuu,
		prior:    prior,
		training: true,
	}, nil
}

// InducingPoints returns a copy of the grid locations.
func (g *AdditiveGrid) InducingPoints() []float64 {
	return append([]float64(nil), g.grid.points...)
}

// Kernel returns the covariance function used for K_uu.
func (g *AdditiveGrid) Kernel() Kernel { return g.kernel }

// Prior returns N(μ_u, K_uu) over the grid values.
func (g *AdditiveGrid) Prior() *distributions.Normal { return g.prior }

// Train switches to training mode and drops the cached eval-mode alpha.
func (g *AdditiveGrid) Train() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.training = true
	g.alpha = nil
}

// Eval switches to evaluation mode.
func (g *AdditiveGrid) Eval() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.training = false
}

// Training reports the current mode.
func (g *AdditiveGrid) Training() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.training
}

// SetConditioning toggles conditioning mode. While on, exact forward passes
// record their inputs and interpolation as the training set.
func (g *AdditiveGrid) SetConditioning(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conditioning = on
}

// SetTrainInputs records the training inputs and drops any cached interpolation.
func (g *AdditiveGrid) SetTrainInputs(x *tensor.Dense) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trainInputs = x
	g.trainInterp = nil
}

// Variational returns copies of the variational mean and lower Cholesky
// factor, or nils before the first variational forward pass.
func (g *AdditiveGrid) Variational() ([]float64, *mat.TriDense) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.varReady {
		return nil, nil
	}
	chol := mat.NewTriDense(len(g.varMean), mat.Lower, nil)
	chol.Copy(g.varChol)

	return append([]float64(nil), g.varMean...), chol
}

// SetVariational replaces q(u) = N(mean, L·Lᵀ). Only the lower triangle of
// chol is read. The eval-mode alpha is recomputed on the next pass.
//
// Errors:
//   - ErrBadVariational when mean or chol do not match the grid size.
func (g *AdditiveGrid) SetVariational(mean []float64, chol mat.Matrix) error {
	m := len(g.grid.points)
	if len(mean) != m {
		return fmt.Errorf("SetVariational: mean has %d values, want %d: %w", len(mean), m, ErrBadVariational)
	}
	if chol == nil {
		return fmt.Errorf("SetVariational: nil factor: %w", ErrBadVariational)
	}
	if r, c := chol.Dims(); r != m || c != m {
		return fmt.Errorf("SetVariational: factor is %d×%d, want %d×%d: %w", r, c, m, m, ErrBadVariational)
	}
	l := mat.NewTriDense(m, mat.Lower, nil)
	for i := 0; i < m; i++ {
		for j := 0; j <= i; j++ {
			l.SetTri(i, j, chol.At(i, j))
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.varMean = append([]float64(nil), mean...)
	g.varChol = l
	g.varReady = true
	g.alpha = nil

	return nil
}

// Forward maps inputs to a Gaussian over the n outputs.
// MAIN DESCRIPTION:
//   - inputs has shape (n), (n, c) or (n, c, d); lower ranks are read as
//     c = 1 and d = 1.
//
// Implementation:
//   - Stage 1: normalise the rank and check d (ErrShape, ErrNotImplemented).
//   - Stage 2: interpolate every component onto the grid (cached in exact
//     mode for the recorded training inputs).
//   - Stage 3: build mean and covariance for the current mode.
//
// Errors:
//   - ErrShape, ErrNotImplemented, ErrOutOfBounds, factorisation errors.
//
// Complexity:
//   - O(c·n) interpolation; the covariance stays lazy until used.
func (g *AdditiveGrid) Forward(inputs *tensor.Dense) (*Output, error) {
	if inputs == nil {
		return nil, fmt.Errorf("AdditiveGrid.Forward: nil inputs: %w", ErrShape)
	}
	s := inputs.Shape()
	var n, c, d int
	switch len(s) {
	case 1:
		n, c, d = s[0], 1, 1
	case 2:
		n, c, d = s[0], s[1], 1
	case 3:
		n, c, d = s[0], s[1], s[2]
	default:
		return nil, fmt.Errorf("AdditiveGrid.Forward: inputs shape %v, expected rank 1-3: %w", s, ErrShape)
	}
	if d != len(g.bounds) {
		return nil, fmt.Errorf("AdditiveGrid.Forward: %d input dimensions, grid has %d: %w", d, len(g.bounds), ErrShape)
	}
	if d != 1 {
		return nil, fmt.Errorf("AdditiveGrid.Forward: %d-d interpolation: %w", d, ErrNotImplemented)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.opts.exact {
		return g.forwardExact(inputs, n, c)
	}

	return g.forwardVariational(inputs, n, c)
}

// interpolation computes or reuses the component weights.
func (g *AdditiveGrid) interpolation(inputs *tensor.Dense, n, c int) ([]linop.Interp, error) {
	if g.opts.exact && !g.conditioning && g.trainInterp != nil && sameInputs(inputs, g.trainInputs) {
		slog.Debug("inducing: reusing training interpolation", "n", n, "components", c)
		return g.trainInterp, nil
	}
	w, err := g.grid.interpolate(inputs.Data(), n, c, g.opts.workers)
	if err != nil {
		return nil, err
	}
	if g.opts.exact && g.conditioning {
		g.trainInputs = inputs
		g.trainInterp = w
	}

	return w, nil
}

func (g *AdditiveGrid) forwardExact(inputs *tensor.Dense, n, c int) (*Output, error) {
	w, err := g.interpolation(inputs, n, c)
	if err != nil {
		return nil, fmt.Errorf("AdditiveGrid.Forward: %w", err)
	}
	dist, err := g.output(w, g.prior.Mean().Data(), g.kuu)
	if err != nil {
		return nil, fmt.Errorf("AdditiveGrid.Forward: %w", err)
	}

	return &Output{Dist: dist}, nil
}

func (g *AdditiveGrid) forwardVariational(inputs *tensor.Dense, n, c int) (*Output, error) {
	w, err := g.interpolation(inputs, n, c)
	if err != nil {
		return nil, fmt.Errorf("AdditiveGrid.Forward: %w", err)
	}
	priorMean := g.prior.Mean().Data()
	if !g.varReady {
		m := len(priorMean)
		g.varMean = append([]float64(nil), priorMean...)
		g.varChol = mat.NewTriDense(m, mat.Lower, nil)
		for i := 0; i < m; i++ {
			g.varChol.SetTri(i, i, 1)
		}
		g.varReady = true
		slog.Debug("inducing: initialised variational parameters", "m", m)
	}

	if g.training {
		dist, err := g.output(w, priorMean, g.kuu)
		if err != nil {
			return nil, fmt.Errorf("AdditiveGrid.Forward: %w", err)
		}

		return &Output{Dist: dist, Strategy: newGridStrategy(g.varMean, g.varChol, g.prior)}, nil
	}

	if g.alpha == nil {
		g.alpha = make([]float64, len(priorMean))
		floats.SubTo(g.alpha, g.varMean, priorMean)
	}
	qcov, err := outerCovariance(g.varChol)
	if err != nil {
		return nil, fmt.Errorf("AdditiveGrid.Forward: %w", err)
	}
	dist, err := g.output(w, g.alpha, qcov)
	if err != nil {
		return nil, fmt.Errorf("AdditiveGrid.Forward: %w", err)
	}

	return &Output{Dist: dist}, nil
}

// output assembles N(Σ_c W_c·alpha, Σ_c W_c·K·W_cᵀ).
func (g *AdditiveGrid) output(w []linop.Interp, alpha []float64, k linop.Operator) (*distributions.Normal, error) {
	mean := leftInterp(w, alpha)
	loc, err := tensor.FromSlice(mean, len(mean))
	if err != nil {
		return nil, err
	}
	cov, err := linop.NewSumInterpolated(k, w)
	if err != nil {
		return nil, err
	}

	return distributions.NewNormal(loc, cov)
}

// outerCovariance returns L·Lᵀ as an operator.
func outerCovariance(l *mat.TriDense) (*linop.Dense, error) {
	var s mat.SymDense
	s.SymOuterK(1, l)

	return linop.FromSymmetric(&s)
}

// sameInputs reports whether a and b hold identical shapes and values.
func sameInputs(a, b *tensor.Dense) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}

	return tensor.EqualShapes(a.Shape(), b.Shape()) && floats.Equal(a.Data(), b.Data())
}
