package model

import (
	"fmt"
	"math"
)

// StochasticTolerance is the numeric tolerance for column-stochasticity
// checks on fitted matrices.
const StochasticTolerance = 1e-6

// AssignmentMatrix is the complete-method error model: a dense
// 2^n x 2^n column-stochastic matrix where P[i][j] estimates
// P(observe basis state i | prepared basis state j).
type AssignmentMatrix struct {
	// P holds the conditional probabilities, row-major, P[observed][prepared].
	P [][]float64 `json:"p"`

	// ColumnShots records the calibration shot total behind each prepared
	// column, used for calibration-uncertainty propagation.
	ColumnShots []int `json:"column_shots"`
}

// Dim returns the matrix dimension (2^n).
func (a *AssignmentMatrix) Dim() int {
	return len(a.P)
}

// Validate checks squareness and column-stochasticity within tolerance.
func (a *AssignmentMatrix) Validate() error {
	dim := a.Dim()
	if dim == 0 {
		return fmt.Errorf("assignment matrix: empty")
	}
	if len(a.ColumnShots) != dim {
		return fmt.Errorf("assignment matrix: %d column shot totals for dimension %d", len(a.ColumnShots), dim)
	}
	for i, row := range a.P {
		if len(row) != dim {
			return fmt.Errorf("assignment matrix: row %d has length %d, want %d", i, len(row), dim)
		}
	}
	for j := 0; j < dim; j++ {
		sum := 0.0
		for i := 0; i < dim; i++ {
			if a.P[i][j] < 0 {
				return fmt.Errorf("assignment matrix: negative entry P[%d][%d] = %g", i, j, a.P[i][j])
			}
			sum += a.P[i][j]
		}
		if math.Abs(sum-1) > StochasticTolerance {
			return fmt.Errorf("assignment matrix: column %d sums to %g, want 1", j, sum)
		}
	}
	return nil
}

// Matrix2 is a single-unit confusion matrix, M[observed][prepared].
type Matrix2 [2][2]float64

// Validate checks column-stochasticity within tolerance.
func (m Matrix2) Validate() error {
	for j := 0; j < 2; j++ {
		sum := m[0][j] + m[1][j]
		if m[0][j] < 0 || m[1][j] < 0 {
			return fmt.Errorf("confusion matrix: negative entry in column %d", j)
		}
		if math.Abs(sum-1) > StochasticTolerance {
			return fmt.Errorf("confusion matrix: column %d sums to %g, want 1", j, sum)
		}
	}
	return nil
}

// TensoredMatrices is the tensored-method error model: one independent 2x2
// confusion matrix per measured unit.
type TensoredMatrices struct {
	M []Matrix2 `json:"m"`

	// ZerosShots and OnesShots are the calibration shot totals of the
	// all-zeros and all-ones circuits.
	ZerosShots int `json:"zeros_shots"`
	OnesShots  int `json:"ones_shots"`
}

// Validate checks each per-unit matrix.
func (t *TensoredMatrices) Validate() error {
	if len(t.M) == 0 {
		return fmt.Errorf("tensored matrices: empty")
	}
	for q, m := range t.M {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("unit %d: %w", q, err)
		}
	}
	return nil
}

// PairRates holds the correlated-flip rates of one unit pair (I < J).
// R0011 is the 00 -> 11 rate, R1100 the 11 -> 00 rate. The anti-correlated
// 01 <-> 10 generators are part of the CTMP model but are not identifiable
// from the two-circuit calibration set, so they are always zero here.
type PairRates struct {
	I     int     `json:"i"`
	J     int     `json:"j"`
	R0011 float64 `json:"r0011"`
	R1100 float64 `json:"r1100"`
}

// CTMPGenerator is the continuous-time Markov error model: sparse
// non-negative rates on single-unit bit-flip generators and
// pairwise-correlated generators. The noise map is exp(G) applied to the
// ideal distribution.
type CTMPGenerator struct {
	// R01[q] is unit q's 0 -> 1 flip rate; R10[q] its 1 -> 0 rate.
	R01 []float64 `json:"r01"`
	R10 []float64 `json:"r10"`

	// Pairs holds the fitted pairwise rates, ordered by (I, J).
	Pairs []PairRates `json:"pairs,omitempty"`

	ZerosShots int `json:"zeros_shots"`
	OnesShots  int `json:"ones_shots"`
}

// Validate checks rate non-negativity and shape consistency.
func (g *CTMPGenerator) Validate() error {
	n := len(g.R01)
	if n == 0 || len(g.R10) != n {
		return fmt.Errorf("ctmp generator: rate vectors have lengths %d and %d", len(g.R01), len(g.R10))
	}
	for q := 0; q < n; q++ {
		if g.R01[q] < 0 || g.R10[q] < 0 {
			return fmt.Errorf("ctmp generator: negative single rate on unit %d", q)
		}
	}
	for _, p := range g.Pairs {
		if p.I < 0 || p.J >= n || p.I >= p.J {
			return fmt.Errorf("ctmp generator: invalid pair (%d,%d)", p.I, p.J)
		}
		if p.R0011 < 0 || p.R1100 < 0 {
			return fmt.Errorf("ctmp generator: negative pair rate on (%d,%d)", p.I, p.J)
		}
	}
	return nil
}

// TotalRate returns the sum of all rates supported on the given unit subset.
// This upper-bounds every diagonal exit rate of the subset-restricted
// generator and is used as the uniformization constant lambda.
func (g *CTMPGenerator) TotalRate(units []int) float64 {
	in := make(map[int]bool, len(units))
	for _, u := range units {
		in[u] = true
	}
	total := 0.0
	for q := range g.R01 {
		if in[q] {
			total += g.R01[q] + g.R10[q]
		}
	}
	for _, p := range g.Pairs {
		if in[p.I] && in[p.J] {
			total += p.R0011 + p.R1100
		}
	}
	return total
}

// Mitigator is the tagged union over the three fitted error models. Exactly
// one of Complete, Tensored, CTMP is non-nil, matching Method. A Mitigator
// is immutable after fitting and safe for concurrent read-only use.
type Mitigator struct {
	Method     Method
	NumUnits   int
	UnitLabels []string

	Complete *AssignmentMatrix
	Tensored *TensoredMatrices
	CTMP     *CTMPGenerator

	// Warnings records non-fatal fit degradations (clipped rates,
	// out-of-domain marginals). A non-empty list marks corrections as
	// degraded.
	Warnings []string
}

// Validate checks the tag/variant pairing and the underlying model.
func (m *Mitigator) Validate() error {
	if m.NumUnits <= 0 {
		return fmt.Errorf("mitigator: num units must be positive, got %d", m.NumUnits)
	}
	if len(m.UnitLabels) != m.NumUnits {
		return fmt.Errorf("mitigator: %d unit labels for %d units", len(m.UnitLabels), m.NumUnits)
	}
	set := 0
	if m.Complete != nil {
		set++
	}
	if m.Tensored != nil {
		set++
	}
	if m.CTMP != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("mitigator: exactly one model variant must be set, got %d", set)
	}
	switch m.Method {
	case MethodComplete:
		if m.Complete == nil {
			return fmt.Errorf("mitigator: method %q without assignment matrix", m.Method)
		}
		if m.Complete.Dim() != 1<<m.NumUnits {
			return fmt.Errorf("mitigator: assignment matrix dimension %d, want %d", m.Complete.Dim(), 1<<m.NumUnits)
		}
		return m.Complete.Validate()
	case MethodTensored:
		if m.Tensored == nil {
			return fmt.Errorf("mitigator: method %q without tensored matrices", m.Method)
		}
		if len(m.Tensored.M) != m.NumUnits {
			return fmt.Errorf("mitigator: %d tensored matrices for %d units", len(m.Tensored.M), m.NumUnits)
		}
		return m.Tensored.Validate()
	case MethodCTMP:
		if m.CTMP == nil {
			return fmt.Errorf("mitigator: method %q without generator", m.Method)
		}
		if len(m.CTMP.R01) != m.NumUnits {
			return fmt.Errorf("mitigator: generator over %d units, want %d", len(m.CTMP.R01), m.NumUnits)
		}
		return m.CTMP.Validate()
	}
	return fmt.Errorf("mitigator: unknown method %q", m.Method)
}

// DefaultLabels returns labels "q0".."q<n-1>" for fitters that are not given
// explicit unit labels.
func DefaultLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("q%d", i)
	}
	return labels
}
