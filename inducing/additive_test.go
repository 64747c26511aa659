// Package inducing_test contains unit tests for the additive grid module.
package inducing_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gpdist/distributions"
	"github.com/katalvlaran/gpdist/inducing"
	"github.com/katalvlaran/gpdist/tensor"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

var unit = [][2]float64{{0, 1}}

func mustTensor(t *testing.T, data []float64, shape ...int) *tensor.Dense {
	t.Helper()
	x, err := tensor.FromSlice(data, shape...)
	require.NoError(t, err)

	return x
}

func newGrid(t *testing.T, size int, opts ...inducing.GridOption) *inducing.AdditiveGrid {
	t.Helper()
	g, err := inducing.NewAdditiveGrid(size, unit, inducing.RBF{LengthScale: 0.3, Variance: 1}, opts...)
	require.NoError(t, err)

	return g
}

// TestCubicWeightPartitionOfUnity checks the stencil weights sum to one.
func TestCubicWeightPartitionOfUnity(t *testing.T) {
	require.Equal(t, 1.0, inducing.CubicWeight(0))
	require.Equal(t, 0.0, inducing.CubicWeight(1))
	require.Equal(t, 0.0, inducing.CubicWeight(2))
	for _, frac := range []float64{0, 0.1, 0.25, 0.5, 0.9} {
		sum := 0.0
		for k := -1; k <= 2; k++ {
			sum += inducing.CubicWeight(frac - float64(k))
		}
		require.InDelta(t, 1, sum, 1e-12)
	}
}

// TestGridLayout pins the padded grid.
func TestGridLayout(t *testing.T) {
	g := newGrid(t, 8)
	pts := g.InducingPoints()
	require.Len(t, pts, 8)
	h := 1.0 / 3
	require.InDelta(t, -2*h, pts[0], 1e-12)
	require.InDelta(t, 1+2*h, pts[7], 1e-12)
	require.InDelta(t, 0, pts[2], 1e-12)
	require.InDelta(t, 1, pts[5], 1e-12)
}

// TestNewAdditiveGridErrors covers construction guards.
func TestNewAdditiveGridErrors(t *testing.T) {
	k := inducing.RBF{LengthScale: 1, Variance: 1}

	_, err := inducing.NewAdditiveGrid(5, unit, k)
	require.ErrorIs(t, err, inducing.ErrBadGrid)
	_, err = inducing.NewAdditiveGrid(10, nil, k)
	require.ErrorIs(t, err, inducing.ErrBadGrid)
	_, err = inducing.NewAdditiveGrid(10, [][2]float64{{1, 0}}, k)
	require.ErrorIs(t, err, inducing.ErrBadGrid)
	_, err = inducing.NewAdditiveGrid(10, unit, nil)
	require.ErrorIs(t, err, inducing.ErrBadGrid)

	for _, bad := range []inducing.RBF{
		{LengthScale: 0, Variance: 1},
		{LengthScale: -1, Variance: 1},
		{LengthScale: math.NaN(), Variance: 1},
		{LengthScale: math.Inf(1), Variance: 1},
		{LengthScale: 1, Variance: 0},
		{LengthScale: 1, Variance: math.Inf(1)},
	} {
		_, err = inducing.NewAdditiveGrid(10, unit, bad)
		require.ErrorIs(t, err, inducing.ErrBadGrid, "%+v", bad)
	}
	_, err = inducing.NewAdditiveGrid(10, unit, nanKernel{})
	require.ErrorIs(t, err, inducing.ErrBadGrid)

	require.Panics(t, func() { inducing.WithWorkers(0) })
}

// nanKernel has no Validate method; its Gram matrix is caught instead.
type nanKernel struct{}

func (nanKernel) Covariance(x, y float64) float64 { return math.NaN() }

// TestForwardShapeErrors covers the rank and dimensionality checks.
func TestForwardShapeErrors(t *testing.T) {
	g := newGrid(t, 10)

	_, err := g.Forward(mustTensor(t, make([]float64, 16), 2, 2, 2, 2))
	require.ErrorIs(t, err, inducing.ErrShape)

	_, err = g.Forward(mustTensor(t, make([]float64, 8), 2, 2, 2))
	require.ErrorIs(t, err, inducing.ErrShape)

	_, err = g.Forward(nil)
	require.ErrorIs(t, err, inducing.ErrShape)

	_, err = g.Forward(mustTensor(t, []float64{0.5, 3}, 2))
	require.ErrorIs(t, err, inducing.ErrOutOfBounds)

	twoD, err := inducing.NewAdditiveGrid(10, [][2]float64{{0, 1}, {0, 1}}, inducing.RBF{LengthScale: 1, Variance: 1})
	require.NoError(t, err)
	_, err = twoD.Forward(mustTensor(t, make([]float64, 8), 2, 2, 2))
	require.ErrorIs(t, err, inducing.ErrNotImplemented)
	require.ErrorIs(t, err, distributions.ErrNotImplemented)
}

// TestForwardInterpolableRange pins the accepted input range
// [points[1], points[m-2]) of a grid with two padding points per side.
func TestForwardInterpolableRange(t *testing.T) {
	g := newGrid(t, 8, inducing.WithExactInference())
	pts := g.InducingPoints() // h = 1/3, pts[1] = -1/3, pts[6] = 4/3

	for _, x := range []float64{-0.33, 0, 1, 1.1667, 1.33} {
		_, err := g.Forward(mustTensor(t, []float64{x}, 1))
		require.NoError(t, err, "x=%v", x)
	}
	for _, x := range []float64{-0.34, 1.34, math.NaN(), math.Inf(1)} {
		_, err := g.Forward(mustTensor(t, []float64{x}, 1))
		require.ErrorIs(t, err, inducing.ErrOutOfBounds, "x=%v", x)
	}

	_, err := g.Forward(mustTensor(t, []float64{1.4}, 1))
	require.ErrorContains(t, err, fmt.Sprint(pts[6]))
}

// TestExactForwardAtNodes: inputs on grid nodes pick K_uu entries exactly.
func TestExactForwardAtNodes(t *testing.T) {
	g := newGrid(t, 8, inducing.WithExactInference(), inducing.WithWorkers(1))
	pts := g.InducingPoints()
	x := []float64{pts[2], pts[4]}

	out, err := g.Forward(mustTensor(t, x, 2))
	require.NoError(t, err)
	require.Nil(t, out.Strategy)
	require.Equal(t, []float64{0, 0}, out.Dist.Mean().Data())

	cov, err := out.Dist.Covariance().Evaluate()
	require.NoError(t, err)
	k := g.Kernel()
	want := []float64{
		k.Covariance(x[0], x[0]), k.Covariance(x[0], x[1]),
		k.Covariance(x[1], x[0]), k.Covariance(x[1], x[1]),
	}
	if diff := cmp.Diff(want, cov.Data(), approx); diff != "" {
		t.Fatalf("covariance at nodes (-want +got):\n%s", diff)
	}
}

// TestExactForwardOffNodes approximates k(x, x) between nodes.
func TestExactForwardOffNodes(t *testing.T) {
	g := newGrid(t, 40, inducing.WithExactInference())
	out, err := g.Forward(mustTensor(t, []float64{0.013, 0.5071, 0.98}, 3))
	require.NoError(t, err)
	v, err := out.Dist.Variance()
	require.NoError(t, err)
	for _, x := range v.Data() {
		require.InDelta(t, 1, x, 1e-2)
	}
}

// TestAdditiveComponents sums the components' variances for independent
// inputs on nodes, and shapes the output by n.
func TestAdditiveComponents(t *testing.T) {
	g := newGrid(t, 8, inducing.WithExactInference())
	pts := g.InducingPoints()
	// n = 2 rows, c = 2 components
	out, err := g.Forward(mustTensor(t, []float64{pts[2], pts[3], pts[4], pts[5]}, 2, 2))
	require.NoError(t, err)
	require.Equal(t, []int{2}, out.Dist.EventShape())
	v, err := out.Dist.Variance()
	require.NoError(t, err)
	require.InDelta(t, 2, v.Data()[0], 1e-9)
	require.InDelta(t, 2, v.Data()[1], 1e-9)
}

// TestConditioningCache records training interpolation and reuses it.
func TestConditioningCache(t *testing.T) {
	g := newGrid(t, 12, inducing.WithExactInference())
	x := mustTensor(t, []float64{0.1, 0.4, 0.8}, 3)

	g.SetConditioning(true)
	first, err := g.Forward(x)
	require.NoError(t, err)
	require.True(t, inducing.HasTrainInterp(g))

	g.SetConditioning(false)
	second, err := g.Forward(mustTensor(t, []float64{0.1, 0.4, 0.8}, 3))
	require.NoError(t, err)
	a, err := first.Dist.Covariance().Evaluate()
	require.NoError(t, err)
	b, err := second.Dist.Covariance().Evaluate()
	require.NoError(t, err)
	require.Equal(t, a.Data(), b.Data())

	g.SetTrainInputs(mustTensor(t, []float64{0.2}, 1))
	require.False(t, inducing.HasTrainInterp(g))
}

// TestVariationalTrainingKL: at initialisation q(u) = N(0, I); with L equal
// to the prior's Cholesky factor the KL vanishes.
func TestVariationalTrainingKL(t *testing.T) {
	g := newGrid(t, 8)
	require.True(t, g.Training())
	mean, chol := g.Variational()
	require.Nil(t, mean)
	require.Nil(t, chol)

	out, err := g.Forward(mustTensor(t, []float64{0.2, 0.7}, 2))
	require.NoError(t, err)
	require.NotNil(t, out.Strategy)
	require.Equal(t, make([]float64, 8), out.Strategy.VariationalMean())
	kl, err := out.Strategy.KLDivergence()
	require.NoError(t, err)
	require.Greater(t, kl, 0.0)
	require.False(t, math.IsInf(kl, 0))

	kuu, err := g.Prior().Covariance().Evaluate()
	require.NoError(t, err)
	var c mat.Cholesky
	require.True(t, c.Factorize(mat.NewSymDense(8, kuu.Data())))
	l := mat.NewTriDense(8, mat.Lower, nil)
	c.LTo(l)
	require.NoError(t, g.SetVariational(make([]float64, 8), l))

	out, err = g.Forward(mustTensor(t, []float64{0.2, 0.7}, 2))
	require.NoError(t, err)
	kl, err = out.Strategy.KLDivergence()
	require.NoError(t, err)
	require.InDelta(t, 0, kl, 1e-8)

	require.ErrorIs(t, g.SetVariational(make([]float64, 3), l), inducing.ErrBadVariational)
	require.ErrorIs(t, g.SetVariational(make([]float64, 8), mat.NewDense(2, 2, nil)), inducing.ErrBadVariational)
}

// TestVariationalEval: with m_q equal to the grid locations the eval-mode
// mean is exact at nodes, and shifting m_q by a constant shifts every
// component by that constant.
func TestVariationalEval(t *testing.T) {
	g := newGrid(t, 10)
	pts := g.InducingPoints()
	eye := mat.NewDiagDense(10, nil)
	for i := 0; i < 10; i++ {
		eye.SetDiag(i, 1)
	}
	require.NoError(t, g.SetVariational(pts, eye))
	g.Eval()
	require.False(t, g.Training())

	nodes := mustTensor(t, []float64{pts[3], pts[4], pts[5], pts[7]}, 2, 2)
	out, err := g.Forward(nodes)
	require.NoError(t, err)
	require.Nil(t, out.Strategy)
	want := []float64{pts[3] + pts[4], pts[5] + pts[7]}
	if diff := cmp.Diff(want, out.Dist.Mean().Data(), approx); diff != "" {
		t.Fatalf("eval mean at nodes (-want +got):\n%s", diff)
	}

	// q(u) covariance is I, so each row's variance is Σ_c Σ_p w_p².
	between := mustTensor(t, []float64{0.15, 0.6, 0.33, 0.9}, 2, 2)
	before, err := g.Forward(between)
	require.NoError(t, err)
	v, err := before.Dist.Variance()
	require.NoError(t, err)
	for _, x := range v.Data() {
		require.Greater(t, x, 0.0)
		require.LessOrEqual(t, x, 2.0+1e-9)
	}

	// SetVariational drops the cached alpha.
	shifted := make([]float64, 10)
	for i := range shifted {
		shifted[i] = pts[i] + 1
	}
	require.NoError(t, g.SetVariational(shifted, eye))
	after, err := g.Forward(between)
	require.NoError(t, err)
	b, a := before.Dist.Mean().Data(), after.Dist.Mean().Data()
	for i := range a {
		require.InDelta(t, b[i]+2, a[i], 1e-9)
	}

	g.Train()
	require.True(t, g.Training())
}
