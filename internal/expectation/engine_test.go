package expectation

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadial/qiskit-ignis/internal/model"
)

// kron2 tensors per-unit confusion matrices into a full assignment matrix.
func kron2(mats []model.Matrix2, shots int) *model.AssignmentMatrix {
	n := len(mats)
	dim := 1 << n
	a := &model.AssignmentMatrix{
		P:           make([][]float64, dim),
		ColumnShots: make([]int, dim),
	}
	for i := 0; i < dim; i++ {
		a.P[i] = make([]float64, dim)
	}
	for j := 0; j < dim; j++ {
		a.ColumnShots[j] = shots
		for i := 0; i < dim; i++ {
			p := 1.0
			for q := 0; q < n; q++ {
				obs := (i >> (n - 1 - q)) & 1
				prep := (j >> (n - 1 - q)) & 1
				p *= mats[q][obs][prep]
			}
			a.P[i][j] = p
		}
	}
	return a
}

func tensoredMitigator(mats []model.Matrix2, shots int) *model.Mitigator {
	return &model.Mitigator{
		Method:     model.MethodTensored,
		NumUnits:   len(mats),
		UnitLabels: model.DefaultLabels(len(mats)),
		Tensored:   &model.TensoredMatrices{M: mats, ZerosShots: shots, OnesShots: shots},
	}
}

func completeMitigator(a *model.AssignmentMatrix, n int) *model.Mitigator {
	return &model.Mitigator{
		Method:     model.MethodComplete,
		NumUnits:   n,
		UnitLabels: model.DefaultLabels(n),
		Complete:   a,
	}
}

func TestPlainValue(t *testing.T) {
	res, err := Value(model.Counts{"111": 8192}, model.AllUnits(3))
	require.NoError(t, err)
	assert.Equal(t, -1.0, res.Value)
	assert.Equal(t, 0.0, res.Stderr)
	assert.Equal(t, 1.0, res.Overhead)
	assert.False(t, res.Degraded)

	res, err = Value(model.Counts{"0": 2, "1": 2}, model.Mask{0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Value)
	assert.Equal(t, 0.5, res.Stderr)
}

func TestPlainValueEmptyMask(t *testing.T) {
	// Identity operator: always +1 with no uncertainty.
	res, err := Value(model.Counts{"01": 3, "10": 5}, model.Mask{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Value)
	assert.Equal(t, 0.0, res.Stderr)
}

func TestValueInputValidation(t *testing.T) {
	_, err := Value(model.Counts{}, model.Mask{})
	assert.Error(t, err, "empty counts")

	_, err = Value(model.Counts{"0": 1, "00": 1}, model.Mask{})
	assert.Error(t, err, "inconsistent key lengths")

	_, err = Value(model.Counts{"00": 1}, model.Mask{2})
	assert.Error(t, err, "mask out of range")
}

func TestValueDimensionMismatch(t *testing.T) {
	m := tensoredMitigator([]model.Matrix2{{{1, 0}, {0, 1}}}, 100)

	_, err := Value(model.Counts{"00": 10}, model.Mask{0}, WithMitigator(m))
	require.Error(t, err)
	assert.True(t, model.IsDimensionMismatchError(err))
}

func TestValueUnitSubsetValidation(t *testing.T) {
	mats := []model.Matrix2{{{1, 0}, {0, 1}}, {{1, 0}, {0, 1}}}
	m := tensoredMitigator(mats, 100)
	counts := model.Counts{"00": 10}

	_, err := Value(counts, model.Mask{0}, WithMitigator(m), WithUnits([]int{0, 0}))
	assert.True(t, model.IsDimensionMismatchError(err), "duplicate unit")

	_, err = Value(counts, model.Mask{0}, WithMitigator(m), WithUnits([]int{0, 5}))
	assert.True(t, model.IsDimensionMismatchError(err), "unit out of range")

	_, err = Value(counts, model.Mask{1}, WithMitigator(m), WithUnits([]int{0}))
	assert.True(t, model.IsDimensionMismatchError(err), "mask outside subset")
}

func TestCompleteIdentityMatchesPlain(t *testing.T) {
	mats := []model.Matrix2{{{1, 0}, {0, 1}}, {{1, 0}, {0, 1}}}
	m := completeMitigator(kron2(mats, 1024), 2)
	counts := model.Counts{"00": 600, "01": 200, "10": 150, "11": 74}

	plain, err := Value(counts, model.AllUnits(2))
	require.NoError(t, err)
	corrected, err := Value(counts, model.AllUnits(2), WithMitigator(m))
	require.NoError(t, err)

	assert.InDelta(t, plain.Value, corrected.Value, 1e-12)
	assert.InDelta(t, plain.Stderr, corrected.Stderr, 1e-12)
	assert.False(t, corrected.Degraded)
}

func TestCompleteCorrectsExactNoiseImage(t *testing.T) {
	a := &model.AssignmentMatrix{
		P:           [][]float64{{0.9, 0.2}, {0.1, 0.8}},
		ColumnShots: []int{1000, 1000},
	}
	m := completeMitigator(a, 1)

	// Counts are the exact image of the pure |0> state under A.
	res, err := Value(model.Counts{"0": 900, "1": 100}, model.Mask{0}, WithMitigator(m))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Value, 1e-9)
	assert.Greater(t, res.Stderr, 0.0, "calibration uncertainty remains")
	assert.Equal(t, 1.0, res.Overhead)
}

func TestCompleteSubsetReduction(t *testing.T) {
	mats := []model.Matrix2{
		{{0.9, 0.2}, {0.1, 0.8}},
		{{0.75, 0.25}, {0.25, 0.75}},
	}
	m := completeMitigator(kron2(mats, 1600), 2)

	// Exact image of ideal "00" under the product noise.
	counts := model.Counts{"00": 1080, "01": 360, "10": 120, "11": 40}

	// Reduced to unit 0 alone, the correction sees exactly unit 0's
	// confusion matrix.
	sub, err := Value(counts, model.Mask{0}, WithMitigator(m), WithUnits([]int{0}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sub.Value, 1e-9)

	full, err := Value(counts, model.Mask{0}, WithMitigator(m))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, full.Value, 1e-9)
}

func TestCompleteSubsetCeiling(t *testing.T) {
	mats := []model.Matrix2{
		{{0.9, 0.2}, {0.1, 0.8}},
		{{0.75, 0.25}, {0.25, 0.75}},
	}
	m := completeMitigator(kron2(mats, 100), 2)

	_, err := Value(model.Counts{"00": 10}, model.Mask{0}, WithMitigator(m), WithMaxSubset(1))
	require.Error(t, err)
	assert.True(t, model.IsResourceLimitError(err))
}

func TestCompleteSingularFallsBackToPseudoInverse(t *testing.T) {
	// Fully depolarized readout: both columns identical.
	a := &model.AssignmentMatrix{
		P:           [][]float64{{0.5, 0.5}, {0.5, 0.5}},
		ColumnShots: []int{100, 100},
	}
	m := completeMitigator(a, 1)

	res, err := Value(model.Counts{"0": 50, "1": 50}, model.Mask{0}, WithMitigator(m))
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.False(t, math.IsNaN(res.Value))
	assert.False(t, math.IsNaN(res.Stderr))
}

func TestTensoredMatchesComplete(t *testing.T) {
	// Independent per-unit errors: the tensored correction and the complete
	// correction through the tensor-product assignment matrix agree on any
	// counts, operator, and unit subset.
	mats := []model.Matrix2{
		{{0.9, 0.2}, {0.1, 0.8}},
		{{0.75, 0.25}, {0.25, 0.75}},
		{{0.95, 0.03}, {0.05, 0.97}},
	}
	shots := 4096
	counts := model.Counts{
		"000": 1500, "001": 200, "010": 180, "011": 90,
		"100": 160, "101": 70, "110": 60, "111": 1836,
	}
	tm := tensoredMitigator(mats, shots)
	cm := completeMitigator(kron2(mats, shots), 3)

	for _, mask := range []model.Mask{model.AllUnits(3), {0}, {1, 2}} {
		tens, err := Value(counts, mask, WithMitigator(tm))
		require.NoError(t, err)
		comp, err := Value(counts, mask, WithMitigator(cm))
		require.NoError(t, err)
		assert.InDelta(t, comp.Value, tens.Value, 1e-9, "mask %v", mask)
		assert.Equal(t, 1.0, tens.Overhead)
	}
}

func TestTensoredUnmaskedUnitsDropOut(t *testing.T) {
	mats := []model.Matrix2{
		{{0.9, 0.2}, {0.1, 0.8}},
		{{0.75, 0.25}, {0.25, 0.75}},
	}
	m := tensoredMitigator(mats, 1600)
	counts := model.Counts{"00": 1080, "01": 360, "10": 120, "11": 40}

	all, err := Value(counts, model.Mask{0}, WithMitigator(m))
	require.NoError(t, err)
	only, err := Value(counts, model.Mask{0}, WithMitigator(m), WithUnits([]int{0}))
	require.NoError(t, err)

	assert.InDelta(t, all.Value, only.Value, 1e-12)
	assert.InDelta(t, 1.0, all.Value, 1e-9)
}

func TestTensoredSingularMatrixDegrades(t *testing.T) {
	mats := []model.Matrix2{{{0.5, 0.5}, {0.5, 0.5}}}
	m := tensoredMitigator(mats, 100)

	res, err := Value(model.Counts{"0": 50, "1": 50}, model.Mask{0}, WithMitigator(m))
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.False(t, math.IsNaN(res.Value))
}

func TestCTMPZeroGeneratorMatchesPlain(t *testing.T) {
	m := &model.Mitigator{
		Method:     model.MethodCTMP,
		NumUnits:   2,
		UnitLabels: model.DefaultLabels(2),
		CTMP:       &model.CTMPGenerator{R01: []float64{0, 0}, R10: []float64{0, 0}},
	}
	counts := model.Counts{"00": 700, "11": 300}

	plain, err := Value(counts, model.AllUnits(2))
	require.NoError(t, err)
	corrected, err := Value(counts, model.AllUnits(2), WithMitigator(m))
	require.NoError(t, err)

	assert.Equal(t, plain.Value, corrected.Value)
	assert.Equal(t, plain.Stderr, corrected.Stderr)
	assert.Equal(t, 1.0, corrected.Overhead)
}

func TestCTMPCorrectsSingleUnitNoise(t *testing.T) {
	a, b := 0.05, 0.03
	s := a + b
	total := -math.Log(1 - s)
	m := &model.Mitigator{
		Method:     model.MethodCTMP,
		NumUnits:   1,
		UnitLabels: model.DefaultLabels(1),
		CTMP: &model.CTMPGenerator{
			R01:        []float64{a / s * total},
			R10:        []float64{b / s * total},
			ZerosShots: 10000,
			OnesShots:  10000,
		},
	}

	// Exact noisy image of the pure |0> state.
	counts := model.Counts{"0": 9500, "1": 500}
	res, err := Value(counts, model.Mask{0}, WithMitigator(m))
	require.NoError(t, err)

	lambda := m.CTMP.TotalRate([]int{0})
	assert.InDelta(t, math.Exp(2*lambda), res.Overhead, 1e-12)
	assert.InDelta(t, 1.0, res.Value, 0.05)
	assert.Greater(t, res.Stderr, 0.0)
}

func TestCTMPDeterministicForFixedSeed(t *testing.T) {
	m := &model.Mitigator{
		Method:     model.MethodCTMP,
		NumUnits:   1,
		UnitLabels: model.DefaultLabels(1),
		CTMP:       &model.CTMPGenerator{R01: []float64{0.05}, R10: []float64{0.02}},
	}
	counts := model.Counts{"0": 950, "1": 50}

	first, err := Value(counts, model.Mask{0}, WithMitigator(m), WithSeed(42), WithSamples(2048))
	require.NoError(t, err)
	second, err := Value(counts, model.Mask{0}, WithMitigator(m), WithSeed(42), WithSamples(2048))
	require.NoError(t, err)

	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Stderr, second.Stderr)
}

func TestCTMPHighRateSamplingStaysFinite(t *testing.T) {
	// With ten noisy units lambda reaches 12 and gamma^2 ~ 7e20, past the
	// int range; the automatic sample count must clamp to the cap instead
	// of wrapping to zero and dividing by it.
	n := 10
	r01 := make([]float64, n)
	r10 := make([]float64, n)
	for q := range r01 {
		r01[q] = 0.6
		r10[q] = 0.6
	}
	m := &model.Mitigator{
		Method:     model.MethodCTMP,
		NumUnits:   n,
		UnitLabels: model.DefaultLabels(n),
		CTMP:       &model.CTMPGenerator{R01: r01, R10: r10},
	}
	counts := model.Counts{strings.Repeat("0", n): 4096}

	res, err := Value(counts, model.AllUnits(n), WithMitigator(m))
	require.NoError(t, err)
	assert.False(t, math.IsNaN(res.Value))
	assert.False(t, math.IsNaN(res.Stderr))
	assert.InDelta(t, math.Exp(24), res.Overhead, 1e-6*math.Exp(24))
}

func TestCTMPStderrIncludesCalibrationUncertainty(t *testing.T) {
	// Identical sampling, different calibration widths: the point estimate
	// must not move, but the narrower calibration must report the smaller
	// stderr.
	build := func(shots int) *model.Mitigator {
		return &model.Mitigator{
			Method:     model.MethodCTMP,
			NumUnits:   1,
			UnitLabels: model.DefaultLabels(1),
			CTMP: &model.CTMPGenerator{
				R01:        []float64{0.05},
				R10:        []float64{0.02},
				ZerosShots: shots,
				OnesShots:  shots,
			},
		}
	}
	counts := model.Counts{"0": 950, "1": 50}

	tight, err := Value(counts, model.Mask{0},
		WithMitigator(build(1<<20)), WithSeed(7), WithSamples(4096))
	require.NoError(t, err)
	loose, err := Value(counts, model.Mask{0},
		WithMitigator(build(256)), WithSeed(7), WithSamples(4096))
	require.NoError(t, err)

	assert.Equal(t, tight.Value, loose.Value)
	assert.Greater(t, loose.Stderr, tight.Stderr)
}

func TestRoundTrippedMitigatorCorrectsIdentically(t *testing.T) {
	// Serialization is lossless for float64, so a reloaded mitigator must
	// reproduce the original correction. Map iteration order can reorder the
	// float accumulation, hence the epsilon instead of exact equality.
	counts := model.Counts{"00": 1080, "01": 360, "10": 120, "11": 40}
	mats := []model.Matrix2{
		{{0.9, 0.2}, {0.1, 0.8}},
		{{0.75, 0.25}, {0.25, 0.75}},
	}
	for name, m := range map[string]*model.Mitigator{
		"tensored": tensoredMitigator(mats, 1600),
		"complete": completeMitigator(kron2(mats, 1600), 2),
	} {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(m)
			require.NoError(t, err)
			var back model.Mitigator
			require.NoError(t, json.Unmarshal(data, &back))

			orig, err := Value(counts, model.AllUnits(2), WithMitigator(m))
			require.NoError(t, err)
			again, err := Value(counts, model.AllUnits(2), WithMitigator(&back))
			require.NoError(t, err)

			assert.InDelta(t, orig.Value, again.Value, 1e-12)
			assert.InDelta(t, orig.Stderr, again.Stderr, 1e-12)
			assert.Equal(t, orig.Overhead, again.Overhead)
		})
	}
}

func TestDegradedPropagatesFitWarnings(t *testing.T) {
	mats := []model.Matrix2{{{0.95, 0.05}, {0.05, 0.95}}}
	m := tensoredMitigator(mats, 100)
	m.Warnings = []string{"negative rate clipped to zero: pair (0,1) 00->11 fitted -0.001"}

	res, err := Value(model.Counts{"0": 90, "1": 10}, model.Mask{0}, WithMitigator(m))
	require.NoError(t, err)
	assert.True(t, res.Degraded)
}
