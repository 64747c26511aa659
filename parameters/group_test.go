// Package parameters_test contains unit tests for MCGroup.
package parameters_test

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/katalvlaran/gpdist/parameters"
)

func newGroup(t *testing.T, seed uint64, noise, scale *float64, opts ...parameters.MCOption) *parameters.MCGroup {
	t.Helper()
	opts = append([]parameters.MCOption{parameters.WithSource(rand.NewSource(seed))}, opts...)
	g, err := parameters.NewMCGroup(map[string]parameters.Param{
		"noise": {Value: noise, Prior: distuv.Normal{Mu: 1, Sigma: 0.1}},
		"scale": {Value: scale, Prior: distuv.Uniform{Min: 2, Max: 4}},
	}, opts...)
	require.NoError(t, err)

	return g
}

// TestNewMCGroupValidation rejects parameters without a prior or value.
func TestNewMCGroupValidation(t *testing.T) {
	v := 0.0
	_, err := parameters.NewMCGroup(map[string]parameters.Param{"a": {Value: &v}})
	require.ErrorIs(t, err, parameters.ErrInvalidParam)

	_, err = parameters.NewMCGroup(map[string]parameters.Param{"a": {Prior: distuv.UnitNormal}})
	require.ErrorIs(t, err, parameters.ErrInvalidParam)

	require.Panics(t, func() { parameters.WithNumSamples(0) })
	require.Panics(t, func() { parameters.WithSource(nil) })
}

// TestSampleSetsMean checks draws are stored and the value becomes their mean.
func TestSampleSetsMean(t *testing.T) {
	var noise, scale float64
	g := newGroup(t, 42, &noise, &scale)
	require.Equal(t, []string{"noise", "scale"}, g.Names())
	require.Equal(t, parameters.DefaultNumSamples, g.NumSamples())

	before, err := g.Samples("noise")
	require.NoError(t, err)
	require.Empty(t, before)

	g.Sample()
	draws, err := g.Samples("scale")
	require.NoError(t, err)
	require.Len(t, draws, parameters.DefaultNumSamples)
	for _, d := range draws {
		require.GreaterOrEqual(t, d, 2.0)
		require.LessOrEqual(t, d, 4.0)
	}
	require.InDelta(t, stat.Mean(draws, nil), scale, 1e-12)

	v, err := g.Value("noise")
	require.NoError(t, err)
	require.Equal(t, noise, v)
	require.InDelta(t, 1, noise, 0.1)

	_, err = g.Samples("missing")
	require.ErrorIs(t, err, parameters.ErrUnknownParam)
	_, err = g.Value("missing")
	require.ErrorIs(t, err, parameters.ErrUnknownParam)
}

// TestSampleSeeded reproduces draws from the same seed.
func TestSampleSeeded(t *testing.T) {
	var n1, s1, n2, s2 float64
	a := newGroup(t, 7, &n1, &s1, parameters.WithNumSamples(5))
	b := newGroup(t, 7, &n2, &s2, parameters.WithNumSamples(5))
	a.Sample()
	b.Sample()
	require.Equal(t, n1, n2)
	require.Equal(t, s1, s2)

	da, err := a.Samples("noise")
	require.NoError(t, err)
	require.Len(t, da, 5)
}

// TestLogPriorAndConvergence sums prior densities at the current values.
func TestLogPriorAndConvergence(t *testing.T) {
	noise, scale := 1.0, 3.0
	g := newGroup(t, 1, &noise, &scale)

	want := distuv.Normal{Mu: 1, Sigma: 0.1}.LogProb(1) + math.Log(0.5)
	require.InDelta(t, want, g.LogPrior(), 1e-12)

	calls := 0
	require.True(t, g.HasConverged(func() float64 { calls++; return 0 }))
	require.Zero(t, calls)
}

// TestConcurrentSampleAndRead runs Sample alongside the readers; run with
// -race to check every access to the values goes through the group's lock.
func TestConcurrentSampleAndRead(t *testing.T) {
	var noise, scale float64
	g := newGroup(t, 11, &noise, &scale, parameters.WithNumSamples(4))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.Sample()
		}()
		go func() {
			defer wg.Done()
			_, _ = g.Value("noise")
			_ = g.LogPrior()
			_, _ = g.Samples("scale")
		}()
	}
	wg.Wait()

	v, err := g.Value("scale")
	require.NoError(t, err)
	require.GreaterOrEqual(t, v, 2.0)
	require.LessOrEqual(t, v, 4.0)
}
