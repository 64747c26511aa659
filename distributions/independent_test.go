package distributions_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gpdist/distributions"
	"github.com/katalvlaran/gpdist/linop"
)

// column extracts column j of a row-major r×c slice.
func column(data []float64, r, c, j int) []float64 {
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = data[i*c+j]
	}

	return out
}

// TestFromIndependentMarginals: t = 2, n = 3, no batch.
func TestFromIndependentMarginals(t *testing.T) {
	a, err := distributions.NewNormal(mustTensor(t, []float64{1, 2, 3}, 3), mustOp(t, spdMatrix(3), 3, 3))
	require.NoError(t, err)
	b, err := distributions.NewNormal(mustTensor(t, []float64{-1, 0, 4}, 3),
		mustOp(t, []float64{2, 0.5, 0, 0.5, 1, 0, 0, 0, 3}, 3, 3))
	require.NoError(t, err)

	mt, err := distributions.FromIndependent([]*distributions.Normal{a, b})
	require.NoError(t, err)
	require.False(t, mt.Interleaved())
	require.Equal(t, []int{3, 2}, mt.OutputShape())
	require.Equal(t, 2, mt.NumTasks())
	require.Equal(t, []int{6, 6}, mt.Covariance().Shape())

	mean := mt.Mean().Data()
	v, err := mt.Variance()
	require.NoError(t, err)
	variance := v.Data()
	for j, d := range []*distributions.Normal{a, b} {
		require.Equal(t, d.Mean().Data(), column(mean, 3, 2, j))
		dv, err := d.Variance()
		require.NoError(t, err)
		if diff := cmp.Diff(dv.Data(), column(variance, 3, 2, j), approx); diff != "" {
			t.Fatalf("task %d variance (-want +got):\n%s", j, diff)
		}
	}

	// Independence: the joint density is the sum of the per-task densities.
	value := mustTensor(t, []float64{0.5, -1, 2, 0, 3.5, 4}, 3, 2)
	joint, err := mt.LogProb(value)
	require.NoError(t, err)
	la, err := a.LogProb(mustTensor(t, column(value.Data(), 3, 2, 0), 3))
	require.NoError(t, err)
	lb, err := b.LogProb(mustTensor(t, column(value.Data(), 3, 2, 1), 3))
	require.NoError(t, err)
	require.InDelta(t, la.Data()[0]+lb.Data()[0], joint.Data()[0], 1e-9)
}

// TestFromIndependentBatched keeps the batch axis in front of the blocks.
func TestFromIndependentBatched(t *testing.T) {
	covA := append(spdMatrix(2), 2, 0, 0, 2)
	covB := append([]float64{9, 1, 1, 7}, 3, 0, 0, 3)
	a, err := distributions.NewNormal(mustTensor(t, []float64{1, 2, 3, 4}, 2, 2), mustOp(t, covA, 2, 2, 2))
	require.NoError(t, err)
	b, err := distributions.NewNormal(mustTensor(t, []float64{5, 6, 7, 8}, 2, 2), mustOp(t, covB, 2, 2, 2))
	require.NoError(t, err)

	mt, err := distributions.FromIndependent([]*distributions.Normal{a, b})
	require.NoError(t, err)
	require.Equal(t, []int{2, 2, 2}, mt.OutputShape())
	require.Equal(t, []int{2, 4, 4}, mt.Covariance().Shape())
	_, isBlock := mt.Covariance().(*linop.BlockDiag)
	require.True(t, isBlock)

	// mean[b, i, j] = task j, batch b, observation i
	require.Equal(t, []float64{1, 5, 2, 6, 3, 7, 4, 8}, mt.Mean().Data())

	v, err := mt.Variance()
	require.NoError(t, err)
	sa := spdMatrix(2)
	want := []float64{sa[0], 9, sa[3], 7, 2, 3, 2, 3}
	if diff := cmp.Diff(want, v.Data(), approx); diff != "" {
		t.Fatalf("batched variance (-want +got):\n%s", diff)
	}

	x, err := mt.Sample([]int{4})
	require.NoError(t, err)
	require.Equal(t, []int{4, 2, 2, 2}, x.Shape())
}

// TestFromIndependentPreconditions covers every ErrValue path.
func TestFromIndependentPreconditions(t *testing.T) {
	n3, err := distributions.NewNormal(mustTensor(t, seq(0, 3), 3), mustOp(t, identity(3), 3, 3))
	require.NoError(t, err)
	n4, err := distributions.NewNormal(mustTensor(t, seq(0, 4), 4), mustOp(t, identity(4), 4, 4))
	require.NoError(t, err)
	b2, err := distributions.NewNormal(mustTensor(t, seq(0, 6), 2, 3),
		mustOp(t, append(identity(3), identity(3)...), 2, 3, 3))
	require.NoError(t, err)
	b3, err := distributions.NewNormal(mustTensor(t, seq(0, 9), 3, 3),
		mustOp(t, append(append(identity(3), identity(3)...), identity(3)...), 3, 3, 3))
	require.NoError(t, err)
	deep, err := distributions.NewNormal(mustTensor(t, seq(0, 4), 2, 1, 2),
		mustOp(t, append(identity(2), identity(2)...), 2, 1, 2, 2))
	require.NoError(t, err)

	cases := []struct {
		name  string
		dists []*distributions.Normal
	}{
		{"single", []*distributions.Normal{n3}},
		{"empty", nil},
		{"event mismatch", []*distributions.Normal{n3, n4}},
		{"batch mismatch", []*distributions.Normal{b2, b3}},
		{"batch rank 2", []*distributions.Normal{deep, deep}},
		{"nil entry", []*distributions.Normal{n3, nil}},
	}
	for _, tc := range cases {
		_, err := distributions.FromIndependent(tc.dists)
		require.ErrorIs(t, err, distributions.ErrValue, tc.name)
	}
}
