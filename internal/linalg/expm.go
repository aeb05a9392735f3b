package linalg

import "math"

// Expm computes the matrix exponential exp(a) by scaling and squaring with
// a Taylor series. Accurate for the small, bounded-norm generator matrices
// this library deals with; not intended as a general-purpose expm.
func Expm(a [][]float64) [][]float64 {
	n := len(a)

	// Scale so the 1-norm is below 0.5, then square back.
	norm := oneNorm(a)
	squarings := 0
	if norm > 0.5 {
		squarings = int(math.Ceil(math.Log2(norm / 0.5)))
	}
	scaled := Clone(a)
	scale := math.Ldexp(1, -squarings)
	for i := range scaled {
		for j := range scaled[i] {
			scaled[i][j] *= scale
		}
	}

	// Taylor series on the scaled matrix. With norm <= 0.5, 20 terms put
	// the truncation error far below double precision.
	result := Identity(n)
	term := Identity(n)
	for k := 1; k <= 20; k++ {
		term = MatMul(term, scaled)
		inv := 1 / float64(k)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				term[i][j] *= inv
				result[i][j] += term[i][j]
			}
		}
	}

	for s := 0; s < squarings; s++ {
		result = MatMul(result, result)
	}
	return result
}

// oneNorm returns the maximum absolute column sum.
func oneNorm(a [][]float64) float64 {
	if len(a) == 0 {
		return 0
	}
	sums := make([]float64, len(a[0]))
	for _, row := range a {
		for j, v := range row {
			sums[j] += math.Abs(v)
		}
	}
	max := 0.0
	for _, s := range sums {
		if s > max {
			max = s
		}
	}
	return max
}
