package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitstringOfIndexOfRoundTrip(t *testing.T) {
	for n := 1; n <= 4; n++ {
		for idx := 0; idx < 1<<n; idx++ {
			bits := BitstringOf(idx, n)
			require.Len(t, bits, n)
			back, err := IndexOf(bits)
			require.NoError(t, err)
			assert.Equal(t, idx, back)
		}
	}
}

func TestBitstringOfUnitZeroIsMostSignificant(t *testing.T) {
	assert.Equal(t, "100", BitstringOf(4, 3))
	assert.Equal(t, "001", BitstringOf(1, 3))
	assert.Equal(t, "110", BitstringOf(6, 3))
}

func TestIndexOfRejectsNonBinary(t *testing.T) {
	_, err := IndexOf("01x")
	assert.Error(t, err)
}

func TestMaskSign(t *testing.T) {
	mask := Mask{0, 2}
	assert.Equal(t, 1.0, mask.Sign("000"))
	assert.Equal(t, -1.0, mask.Sign("100"))
	assert.Equal(t, -1.0, mask.Sign("001"))
	assert.Equal(t, 1.0, mask.Sign("101"))
	// Unmasked unit never contributes.
	assert.Equal(t, 1.0, mask.Sign("010"))
}

func TestMaskValidate(t *testing.T) {
	assert.NoError(t, Mask{0, 1, 2}.Validate(3))
	assert.NoError(t, Mask{}.Validate(3))
	assert.Error(t, Mask{3}.Validate(3))
	assert.Error(t, Mask{-1}.Validate(3))
	assert.Error(t, Mask{1, 1}.Validate(3))
}

func TestAllUnits(t *testing.T) {
	assert.Equal(t, Mask{0, 1, 2}, AllUnits(3))
}

func TestMethodValid(t *testing.T) {
	assert.True(t, MethodComplete.Valid())
	assert.True(t, MethodTensored.Valid())
	assert.True(t, MethodCTMP.Valid())
	assert.False(t, Method("bayesian").Valid())
}

func TestCalibrationSpecValidate(t *testing.T) {
	assert.NoError(t, CalibrationSpec{NumUnits: 2, Method: MethodTensored}.Validate())
	assert.Error(t, CalibrationSpec{NumUnits: 0, Method: MethodTensored}.Validate())
	assert.Error(t, CalibrationSpec{NumUnits: 2, Method: "unknown"}.Validate())
}

func TestDefaultLabels(t *testing.T) {
	assert.Equal(t, []string{"q0", "q1", "q2"}, DefaultLabels(3))
}

func TestMitigatorValidate(t *testing.T) {
	identity := Matrix2{{1, 0}, {0, 1}}

	valid := &Mitigator{
		Method:     MethodTensored,
		NumUnits:   2,
		UnitLabels: []string{"q0", "q1"},
		Tensored:   &TensoredMatrices{M: []Matrix2{identity, identity}, ZerosShots: 100, OnesShots: 100},
	}
	require.NoError(t, valid.Validate())

	t.Run("variant must match method", func(t *testing.T) {
		m := *valid
		m.Method = MethodComplete
		assert.Error(t, m.Validate())
	})

	t.Run("exactly one variant", func(t *testing.T) {
		m := *valid
		m.CTMP = &CTMPGenerator{R01: []float64{0, 0}, R10: []float64{0, 0}}
		assert.Error(t, m.Validate())
	})

	t.Run("label count must match", func(t *testing.T) {
		m := *valid
		m.UnitLabels = []string{"q0"}
		assert.Error(t, m.Validate())
	})

	t.Run("tensored matrix count must match", func(t *testing.T) {
		m := *valid
		m.Tensored = &TensoredMatrices{M: []Matrix2{identity}, ZerosShots: 100, OnesShots: 100}
		assert.Error(t, m.Validate())
	})

	t.Run("assignment dimension must be a power of the unit count", func(t *testing.T) {
		m := &Mitigator{
			Method:     MethodComplete,
			NumUnits:   2,
			UnitLabels: []string{"q0", "q1"},
			Complete: &AssignmentMatrix{
				P:           [][]float64{{1, 0}, {0, 1}},
				ColumnShots: []int{10, 10},
			},
		}
		assert.Error(t, m.Validate())
	})
}

func TestMatrix2Validate(t *testing.T) {
	assert.NoError(t, Matrix2{{0.9, 0.2}, {0.1, 0.8}}.Validate())
	assert.Error(t, Matrix2{{0.9, 0.2}, {0.2, 0.8}}.Validate())
	assert.Error(t, Matrix2{{1.1, 0}, {-0.1, 1}}.Validate())
}

func TestAssignmentMatrixValidate(t *testing.T) {
	a := &AssignmentMatrix{
		P:           [][]float64{{0.9, 0.1}, {0.1, 0.9}},
		ColumnShots: []int{100, 100},
	}
	assert.NoError(t, a.Validate())

	bad := &AssignmentMatrix{
		P:           [][]float64{{0.9, 0.1}, {0.2, 0.9}},
		ColumnShots: []int{100, 100},
	}
	assert.Error(t, bad.Validate())

	shots := &AssignmentMatrix{
		P:           [][]float64{{0.9, 0.1}, {0.1, 0.9}},
		ColumnShots: []int{100},
	}
	assert.Error(t, shots.Validate())
}

func TestCTMPGeneratorValidate(t *testing.T) {
	g := &CTMPGenerator{
		R01:   []float64{0.01, 0.02},
		R10:   []float64{0.005, 0.01},
		Pairs: []PairRates{{I: 0, J: 1, R0011: 0.003, R1100: 0.001}},
	}
	assert.NoError(t, g.Validate())

	assert.Error(t, (&CTMPGenerator{R01: []float64{-0.1}, R10: []float64{0}}).Validate())
	assert.Error(t, (&CTMPGenerator{R01: []float64{0, 0}, R10: []float64{0}}).Validate())

	badPair := &CTMPGenerator{
		R01:   []float64{0, 0},
		R10:   []float64{0, 0},
		Pairs: []PairRates{{I: 1, J: 1}},
	}
	assert.Error(t, badPair.Validate())
}

func TestCTMPGeneratorTotalRate(t *testing.T) {
	g := &CTMPGenerator{
		R01:   []float64{0.01, 0.02, 0.03},
		R10:   []float64{0.001, 0.002, 0.003},
		Pairs: []PairRates{{I: 0, J: 1, R0011: 0.005, R1100: 0.004}},
	}
	assert.InDelta(t, 0.042, g.TotalRate([]int{0, 1}), 1e-12)
	// Pair rate drops out when only one of its units is in the subset.
	assert.InDelta(t, 0.011, g.TotalRate([]int{0}), 1e-12)
	assert.InDelta(t, 0.033, g.TotalRate([]int{2}), 1e-12)
}
