package linalg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMatrixInDelta(t *testing.T, want, got [][]float64, delta float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Len(t, got[i], len(want[i]))
		for j := range want[i] {
			assert.InDelta(t, want[i][j], got[i][j], delta, "entry (%d,%d)", i, j)
		}
	}
}

func TestZerosAndIdentity(t *testing.T) {
	z := Zeros(2, 3)
	require.Len(t, z, 2)
	require.Len(t, z[0], 3)
	assert.Zero(t, z[1][2])

	id := Identity(3)
	assert.Equal(t, 1.0, id[1][1])
	assert.Zero(t, id[0][2])
}

func TestCloneIsIndependent(t *testing.T) {
	a := [][]float64{{1, 2}, {3, 4}}
	b := Clone(a)
	b[0][0] = 99
	assert.Equal(t, 1.0, a[0][0])
}

func TestMatVec(t *testing.T) {
	a := [][]float64{{1, 2}, {3, 4}}
	got := MatVec(a, []float64{1, -1})
	assert.Equal(t, []float64{-1, -1}, got)
}

func TestVecMat(t *testing.T) {
	a := [][]float64{{1, 2}, {3, 4}}
	got := VecMat([]float64{1, -1}, a)
	assert.Equal(t, []float64{-2, -2}, got)
}

func TestMatMulAndTranspose(t *testing.T) {
	a := [][]float64{{1, 2}, {3, 4}}
	b := [][]float64{{0, 1}, {1, 0}}
	assertMatrixInDelta(t, [][]float64{{2, 1}, {4, 3}}, MatMul(a, b), 1e-15)
	assert.Equal(t, [][]float64{{1, 3}, {2, 4}}, Transpose(a))
}

func TestInverse(t *testing.T) {
	a := [][]float64{
		{0.95, 0.02, 0.01, 0},
		{0.03, 0.96, 0, 0.01},
		{0.02, 0, 0.97, 0.02},
		{0, 0.02, 0.02, 0.97},
	}
	inv, err := Inverse(a)
	require.NoError(t, err)
	assertMatrixInDelta(t, Identity(4), MatMul(a, inv), 1e-12)
	assertMatrixInDelta(t, Identity(4), MatMul(inv, a), 1e-12)
}

func TestInversePivots(t *testing.T) {
	// Requires a row swap: leading zero pivot.
	a := [][]float64{{0, 1}, {1, 0}}
	inv, err := Inverse(a)
	require.NoError(t, err)
	assertMatrixInDelta(t, [][]float64{{0, 1}, {1, 0}}, inv, 1e-15)
}

func TestInverseSingular(t *testing.T) {
	a := [][]float64{{1, 2}, {2, 4}}
	_, err := Inverse(a)
	assert.ErrorIs(t, err, ErrSingular)
}

func TestInverseNonSquare(t *testing.T) {
	_, err := Inverse([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSingular)
}

func TestPseudoInverseMatchesInverseWhenRegular(t *testing.T) {
	a := [][]float64{{0.9, 0.2}, {0.1, 0.8}}
	inv, err := Inverse(a)
	require.NoError(t, err)
	pinv, err := PseudoInverse(a, 0)
	require.NoError(t, err)
	assertMatrixInDelta(t, inv, pinv, 1e-6)
}

func TestPseudoInverseHandlesSingular(t *testing.T) {
	// Rank-deficient: both columns identical (fully depolarized readout).
	a := [][]float64{{0.5, 0.5}, {0.5, 0.5}}
	_, err := Inverse(a)
	require.ErrorIs(t, err, ErrSingular)

	pinv, err := PseudoInverse(a, 1e-6)
	require.NoError(t, err)
	// The pseudo-inverse of a symmetric idempotent-like matrix projects
	// rather than blowing up.
	for i := range pinv {
		for j := range pinv[i] {
			assert.False(t, math.IsNaN(pinv[i][j]))
			assert.Less(t, math.Abs(pinv[i][j]), 1e6)
		}
	}
}

func TestExpmZeroIsIdentity(t *testing.T) {
	assertMatrixInDelta(t, Identity(3), Expm(Zeros(3, 3)), 1e-15)
}

func TestExpmDiagonal(t *testing.T) {
	a := [][]float64{{1, 0}, {0, -2}}
	want := [][]float64{{math.E, 0}, {0, math.Exp(-2)}}
	assertMatrixInDelta(t, want, Expm(a), 1e-12)
}

func TestExpmGenerator(t *testing.T) {
	// Single-unit flip generator: exp gives the closed-form confusion matrix.
	r01, r10 := 0.08, 0.05
	g := [][]float64{{-r01, r10}, {r01, -r10}}

	s := r01 + r10
	decay := math.Exp(-s)
	want := [][]float64{
		{(r10 + r01*decay) / s, r10 * (1 - decay) / s},
		{r01 * (1 - decay) / s, (r01 + r10*decay) / s},
	}
	assertMatrixInDelta(t, want, Expm(g), 1e-12)
}

func TestExpmLargeNormUsesSquaring(t *testing.T) {
	a := [][]float64{{-3, 2}, {3, -2}}
	got := Expm(a)
	// Columns of exp(generator) remain stochastic.
	for j := 0; j < 2; j++ {
		assert.InDelta(t, 1.0, got[0][j]+got[1][j], 1e-12)
		assert.GreaterOrEqual(t, got[0][j], 0.0)
	}
	// Stationary distribution of this chain is (2/5, 3/5); exp(a) at large
	// times approaches it, at t=1 it is already close.
	assert.InDelta(t, 0.4, got[0][0], 0.05)
}

func TestVecMatEmpty(t *testing.T) {
	assert.Nil(t, VecMat(nil, nil))
	assert.Nil(t, Transpose(nil))
}
