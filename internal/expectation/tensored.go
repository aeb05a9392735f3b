package expectation

import (
	"math"

	"github.com/gadial/qiskit-ignis/internal/linalg"
	"github.com/gadial/qiskit-ignis/internal/model"
)

// det2Tolerance is the determinant magnitude below which a per-unit
// confusion matrix is treated as singular.
const det2Tolerance = 1e-12

// correctTensored corrects through the per-unit inverses without ever
// materializing the joint matrix. For a masked unit with inverse V the
// per-bit weight is w(b) = V[0][b] - V[1][b]; unmasked units drop out
// exactly because their weight is identically 1 for a column-stochastic
// matrix. The corrected value is the weighted product folded over each
// distinct observed bitstring, linear in the mask size.
func correctTensored(m *model.Mitigator, counts model.Counts, mask model.Mask, units []int) (model.ExpectationResult, error) {
	degraded := len(m.Warnings) > 0

	// Per-masked-unit inverse weights w and inverse matrices V.
	maskUnits := append([]int(nil), mask...)
	w := make([][2]float64, len(maskUnits))
	vInv := make([][][]float64, len(maskUnits))
	for i, u := range maskUnits {
		inv, deg, err := invert2(m.Tensored.M[u])
		if err != nil {
			return model.ExpectationResult{}, err
		}
		degraded = degraded || deg
		vInv[i] = inv
		w[i] = [2]float64{inv[0][0] - inv[1][0], inv[0][1] - inv[1][1]}
	}

	total := float64(counts.Total())
	probs := make([]float64, 0, len(counts))
	bitsPer := make([][]int, 0, len(counts)) // masked-unit bit per outcome

	v := 0.0
	shotSq := 0.0
	for bits, cnt := range counts {
		p := float64(cnt) / total
		x := 1.0
		unitBits := make([]int, len(maskUnits))
		for i, u := range maskUnits {
			b := 0
			if bits[u] == '1' {
				b = 1
			}
			unitBits[i] = b
			x *= w[i][b]
		}
		v += p * x
		shotSq += p * x * x
		probs = append(probs, p)
		bitsPer = append(bitsPer, unitBits)
	}
	shotVar := math.Max(0, shotSq-v*v) / total

	// Calibration propagation per masked unit: with T(b) the
	// partial-product mass at observed bit b, dv/dM[i][j] = -w(i) * u_j
	// where u_j = sum_b T(b) V[j][b], and the entries of M carry binomial
	// variance from their calibration column's shots.
	calVar := 0.0
	colShots := [2]float64{float64(m.Tensored.ZerosShots), float64(m.Tensored.OnesShots)}
	for i, u := range maskUnits {
		var t [2]float64
		for s := range probs {
			partial := probs[s]
			for r := range maskUnits {
				if r == i {
					continue
				}
				partial *= w[r][bitsPer[s][r]]
			}
			t[bitsPer[s][i]] += partial
		}
		mat := m.Tensored.M[u]
		for mi := 0; mi < 2; mi++ {
			for mj := 0; mj < 2; mj++ {
				if colShots[mj] == 0 {
					continue
				}
				uj := t[0]*vInv[i][mj][0] + t[1]*vInv[i][mj][1]
				d := -w[i][mi] * uj
				calVar += d * d * mat[mi][mj] * (1 - mat[mi][mj]) / colShots[mj]
			}
		}
	}

	return model.ExpectationResult{
		Value:    v,
		Stderr:   math.Sqrt(shotVar + calVar),
		Overhead: 1,
		Degraded: degraded,
	}, nil
}

// invert2 inverts a 2x2 confusion matrix in closed form, falling back to
// the ridge pseudo-inverse (and reporting degradation) when singular.
func invert2(m model.Matrix2) ([][]float64, bool, error) {
	det := m[0][0]*m[1][1] - m[0][1]*m[1][0]
	if math.Abs(det) >= det2Tolerance {
		return [][]float64{
			{m[1][1] / det, -m[0][1] / det},
			{-m[1][0] / det, m[0][0] / det},
		}, false, nil
	}
	dense := [][]float64{{m[0][0], m[0][1]}, {m[1][0], m[1][1]}}
	inv, err := linalg.PseudoInverse(dense, 0)
	if err != nil {
		return nil, true, err
	}
	return inv, true, nil
}
