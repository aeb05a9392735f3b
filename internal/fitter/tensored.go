package fitter

import (
	"sync"

	"github.com/gadial/qiskit-ignis/internal/model"
)

// fitTensored computes one 2x2 confusion matrix per unit from the
// all-zeros and all-ones calibration pair. Units are independent, so each
// is fitted in its own goroutine writing to a pre-sized slot.
func fitTensored(numUnits int, byPrepared map[string]model.Counts) *model.TensoredMatrices {
	zeros, ones := zerosAndOnes(numUnits, byPrepared)
	t := &model.TensoredMatrices{
		M:          make([]model.Matrix2, numUnits),
		ZerosShots: zeros.Total(),
		OnesShots:  ones.Total(),
	}

	var wg sync.WaitGroup
	for q := 0; q < numUnits; q++ {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			t.M[q] = unitConfusion(q, zeros, ones)
		}(q)
	}
	wg.Wait()
	return t
}

// unitConfusion builds M[observed][prepared] for one unit from its
// marginals under the two preparations.
func unitConfusion(q int, zeros, ones model.Counts) model.Matrix2 {
	p10 := zeros.MarginalProb(q) // P(read 1 | prepared 0)
	p01 := 1 - ones.MarginalProb(q) // P(read 0 | prepared 1)
	return model.Matrix2{
		{1 - p10, p01},
		{p10, 1 - p01},
	}
}
