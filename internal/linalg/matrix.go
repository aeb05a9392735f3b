// Package linalg provides the small dense-matrix kernel used by fitting and
// correction: Gaussian elimination with partial pivoting, a ridge
// pseudo-inverse for near-singular systems, and a matrix exponential for
// generator models. Matrix sizes are bounded by the configured unit
// ceilings, so all routines are plain dense O(n^3) implementations.
package linalg

import (
	"errors"
	"fmt"
	"math"
)

// ErrSingular is returned when elimination hits a zero (or sub-tolerance)
// pivot. Callers typically recover via PseudoInverse.
var ErrSingular = errors.New("linalg: matrix is singular")

// PivotTolerance is the smallest pivot magnitude accepted by Inverse.
const PivotTolerance = 1e-12

// Zeros allocates an n x m zero matrix.
func Zeros(n, m int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, m)
	}
	return out
}

// Identity allocates the n x n identity matrix.
func Identity(n int) [][]float64 {
	out := Zeros(n, n)
	for i := 0; i < n; i++ {
		out[i][i] = 1
	}
	return out
}

// Clone deep-copies a matrix.
func Clone(a [][]float64) [][]float64 {
	out := make([][]float64, len(a))
	for i, row := range a {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// MatVec computes a * x.
func MatVec(a [][]float64, x []float64) []float64 {
	out := make([]float64, len(a))
	for i, row := range a {
		sum := 0.0
		for j, v := range row {
			sum += v * x[j]
		}
		out[i] = sum
	}
	return out
}

// VecMat computes xᵀ * a (x applied from the left).
func VecMat(x []float64, a [][]float64) []float64 {
	if len(a) == 0 {
		return nil
	}
	out := make([]float64, len(a[0]))
	for i, row := range a {
		for j, v := range row {
			out[j] += x[i] * v
		}
	}
	return out
}

// MatMul computes a * b.
func MatMul(a, b [][]float64) [][]float64 {
	n := len(a)
	inner := len(b)
	m := len(b[0])
	out := Zeros(n, m)
	for i := 0; i < n; i++ {
		for k := 0; k < inner; k++ {
			aik := a[i][k]
			if aik == 0 {
				continue
			}
			for j := 0; j < m; j++ {
				out[i][j] += aik * b[k][j]
			}
		}
	}
	return out
}

// Transpose returns aᵀ.
func Transpose(a [][]float64) [][]float64 {
	if len(a) == 0 {
		return nil
	}
	out := Zeros(len(a[0]), len(a))
	for i, row := range a {
		for j, v := range row {
			out[j][i] = v
		}
	}
	return out
}

// Inverse computes a⁻¹ by Gauss-Jordan elimination with partial pivoting.
// Returns ErrSingular when a pivot falls below PivotTolerance; callers may
// then fall back to PseudoInverse.
func Inverse(a [][]float64) ([][]float64, error) {
	n := len(a)
	for i, row := range a {
		if len(row) != n {
			return nil, fmt.Errorf("linalg: inverse of non-square matrix (row %d has %d columns, want %d)", i, len(row), n)
		}
	}
	// Augment [a | I] and reduce in place.
	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		aug[i] = make([]float64, 2*n)
		copy(aug[i], a[i])
		aug[i][n+i] = 1
	}

	for col := 0; col < n; col++ {
		pivot := col
		maxAbs := math.Abs(aug[col][col])
		for r := col + 1; r < n; r++ {
			if abs := math.Abs(aug[r][col]); abs > maxAbs {
				maxAbs = abs
				pivot = r
			}
		}
		if maxAbs < PivotTolerance {
			return nil, ErrSingular
		}
		if pivot != col {
			aug[col], aug[pivot] = aug[pivot], aug[col]
		}
		inv := 1 / aug[col][col]
		for c := 0; c < 2*n; c++ {
			aug[col][c] *= inv
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			if factor == 0 {
				continue
			}
			for c := 0; c < 2*n; c++ {
				aug[r][c] -= factor * aug[col][c]
			}
		}
	}

	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = aug[i][n : 2*n : 2*n]
	}
	return out, nil
}

// DefaultRidge is the regularization weight used by PseudoInverse.
const DefaultRidge = 1e-9

// PseudoInverse computes a regularized pseudo-inverse
// (aᵀa + ridge·I)⁻¹ aᵀ via the normal equations. It is the recovery path
// for singular confusion matrices; the ridge term keeps the normal matrix
// invertible at the cost of a small bias.
func PseudoInverse(a [][]float64, ridge float64) ([][]float64, error) {
	if ridge <= 0 {
		ridge = DefaultRidge
	}
	at := Transpose(a)
	normal := MatMul(at, a)
	for i := range normal {
		normal[i][i] += ridge
	}
	inv, err := Inverse(normal)
	if err != nil {
		return nil, fmt.Errorf("linalg: pseudo-inverse normal equations: %w", err)
	}
	return MatMul(inv, at), nil
}
