package fitter

import (
	"github.com/gadial/qiskit-ignis/internal/model"
)

// fitComplete normalizes each prepared state's counts into one column of
// the assignment matrix. Counts validation (positive totals) has already
// happened in indexResults, so every column sums to exactly 1 after
// normalization.
func fitComplete(numUnits int, byPrepared map[string]model.Counts) *model.AssignmentMatrix {
	dim := 1 << numUnits
	a := &model.AssignmentMatrix{
		P:           make([][]float64, dim),
		ColumnShots: make([]int, dim),
	}
	for i := range a.P {
		a.P[i] = make([]float64, dim)
	}

	for j := 0; j < dim; j++ {
		counts := byPrepared[model.BitstringOf(j, numUnits)]
		total := counts.Total()
		a.ColumnShots[j] = total
		for bits, cnt := range counts {
			if cnt == 0 {
				continue
			}
			i, _ := model.IndexOf(bits) // validated in indexResults
			a.P[i][j] = float64(cnt) / float64(total)
		}
	}
	return a
}
