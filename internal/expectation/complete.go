package expectation

import (
	"errors"
	"math"

	"github.com/gadial/qiskit-ignis/internal/linalg"
	"github.com/gadial/qiskit-ignis/internal/model"
)

// correctComplete corrects via the inverted assignment matrix, reduced to
// the requested unit subset. Stderr combines the multinomial shot term
// with first-order propagation of the calibration-column uncertainty.
func correctComplete(m *model.Mitigator, counts model.Counts, mask model.Mask, units []int, cfg config) (model.ExpectationResult, error) {
	k := len(units)
	if k > cfg.maxSubset {
		return model.ExpectationResult{}, &model.ResourceLimitError{
			Op:    "complete correction",
			Units: k,
			Limit: cfg.maxSubset,
		}
	}

	sub, subShots := reduceAssignment(m.Complete, m.NumUnits, units)

	degraded := len(m.Warnings) > 0
	inv, err := linalg.Inverse(sub)
	if errors.Is(err, linalg.ErrSingular) {
		// Singular confusion matrix: recover via the ridge pseudo-inverse
		// and flag the estimate as degraded.
		inv, err = linalg.PseudoInverse(sub, 0)
		degraded = true
	}
	if err != nil {
		return model.ExpectationResult{}, err
	}

	dim := 1 << k
	marginal := counts.Marginal(units)
	total := float64(marginal.Total())
	p := make([]float64, dim)
	for bits, cnt := range marginal {
		idx, _ := model.IndexOf(bits) // validated upstream
		p[idx] = float64(cnt) / total
	}

	// z holds the operator eigenvalues on the subset register; g = A^-T z
	// is the corrected weight per observed outcome, q = A^-1 p the
	// corrected probability vector.
	z := signVector(k, positionsIn(units, mask))
	g := linalg.VecMat(z, inv)
	q := linalg.MatVec(inv, p)

	v := 0.0
	for x := 0; x < dim; x++ {
		v += z[x] * q[x]
	}

	// Multinomial shot noise of the observed distribution, pushed through
	// the fixed corrected weights g.
	shotVar := -v * v
	for x := 0; x < dim; x++ {
		shotVar += g[x] * g[x] * p[x]
	}
	shotVar = math.Max(0, shotVar) / total

	// First-order calibration uncertainty: dv/dA[i][j] = -g_i q_j with
	// binomial column variance A(1-A)/shots.
	calVar := 0.0
	for i := 0; i < dim; i++ {
		gi2 := g[i] * g[i]
		for j := 0; j < dim; j++ {
			if subShots[j] == 0 {
				continue
			}
			a := sub[i][j]
			calVar += gi2 * q[j] * q[j] * a * (1 - a) / float64(subShots[j])
		}
	}

	return model.ExpectationResult{
		Value:    v,
		Stderr:   math.Sqrt(shotVar + calVar),
		Overhead: 1,
		Degraded: degraded,
	}, nil
}

// reduceAssignment marginalizes the full 2^n assignment matrix onto a unit
// subset: observed bits outside the subset are summed out and prepared
// bits outside it are averaged uniformly, which keeps the reduced matrix
// column-stochastic. Also returns the calibration shot total behind each
// reduced column.
func reduceAssignment(a *model.AssignmentMatrix, numUnits int, units []int) ([][]float64, []int) {
	k := len(units)
	dim := 1 << k
	fullDim := a.Dim()

	sub := linalg.Zeros(dim, dim)
	subShots := make([]int, dim)

	// Projection of each full basis index onto the subset register.
	proj := make([]int, fullDim)
	for i := 0; i < fullDim; i++ {
		x := 0
		for _, u := range units {
			x <<= 1
			if i&(1<<(numUnits-1-u)) != 0 {
				x |= 1
			}
		}
		proj[i] = x
	}

	colWeight := 1 / float64(fullDim/dim)
	for j := 0; j < fullDim; j++ {
		y := proj[j]
		subShots[y] += a.ColumnShots[j]
		for i := 0; i < fullDim; i++ {
			if a.P[i][j] != 0 {
				sub[proj[i]][y] += a.P[i][j] * colWeight
			}
		}
	}
	return sub, subShots
}

// signVector returns the diagonal operator's eigenvalues over a k-unit
// register, given the masked positions within that register.
func signVector(k int, maskPositions []int) []float64 {
	dim := 1 << k
	z := make([]float64, dim)
	for x := 0; x < dim; x++ {
		ones := 0
		for _, p := range maskPositions {
			if x&(1<<(k-1-p)) != 0 {
				ones++
			}
		}
		if ones%2 == 1 {
			z[x] = -1
		} else {
			z[x] = 1
		}
	}
	return z
}
