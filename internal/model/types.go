package model

import (
	"fmt"
	"strings"
)

// Method selects the calibration and correction strategy.
type Method string

const (
	// MethodComplete fits a full 2^n x 2^n assignment matrix.
	MethodComplete Method = "complete"

	// MethodTensored fits n independent 2x2 confusion matrices.
	MethodTensored Method = "tensored"

	// MethodCTMP fits a sparse continuous-time Markov generator.
	MethodCTMP Method = "ctmp"
)

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodComplete, MethodTensored, MethodCTMP:
		return true
	}
	return false
}

// CalibrationSpec describes one fitting session: how many measured units
// and which error model to fit for them.
type CalibrationSpec struct {
	NumUnits int    `json:"num_units"`
	Method   Method `json:"method"`
}

// Validate checks the spec for structural errors.
func (s CalibrationSpec) Validate() error {
	if s.NumUnits <= 0 {
		return fmt.Errorf("calibration spec: num_units must be positive, got %d", s.NumUnits)
	}
	if !s.Method.Valid() {
		return fmt.Errorf("calibration spec: unknown method %q", s.Method)
	}
	return nil
}

// CalibrationCircuit is one basis-state preparation to execute externally.
// Label identifies the circuit to the execution backend; Prepared is the
// basis bitstring the circuit prepares, which is also the expected noiseless
// outcome.
type CalibrationCircuit struct {
	Label    string `json:"bitstring_label"`
	Prepared string `json:"prepared_outcome"`
}

// ExpectationResult is a corrected (or plain) expectation-value estimate.
type ExpectationResult struct {
	// Value is the expectation-value estimate in [-1, 1] up to statistical
	// fluctuation.
	Value float64 `json:"value"`

	// Stderr is the propagated standard error: experiment shot noise plus,
	// for mitigated estimates, calibration-fit uncertainty.
	Stderr float64 `json:"stderr"`

	// Overhead is the sampling-overhead (variance amplification) factor.
	// 1 for the plain, complete, and tensored estimators; gamma >= 1 for CTMP.
	Overhead float64 `json:"overhead"`

	// Degraded is set when a non-fatal recovery occurred (pseudo-inverse
	// fallback, clipped rates carried over from fitting).
	Degraded bool `json:"degraded,omitempty"`
}

// Mask identifies the units whose outcome bit contributes a +/-1 eigenvalue
// sign to the diagonal operator. Units outside the mask contribute +1
// regardless of outcome. Entries are unit indices.
type Mask []int

// Validate checks all mask indices are within [0, numUnits).
func (m Mask) Validate(numUnits int) error {
	seen := make(map[int]bool, len(m))
	for _, u := range m {
		if u < 0 || u >= numUnits {
			return fmt.Errorf("mask: unit index %d out of range [0,%d)", u, numUnits)
		}
		if seen[u] {
			return fmt.Errorf("mask: duplicate unit index %d", u)
		}
		seen[u] = true
	}
	return nil
}

// Sign returns the diagonal-operator eigenvalue (+1 or -1) of a bitstring:
// the parity of the masked bits.
func (m Mask) Sign(bits string) float64 {
	ones := 0
	for _, u := range m {
		if bits[u] == '1' {
			ones++
		}
	}
	if ones%2 == 1 {
		return -1
	}
	return 1
}

// AllUnits returns the mask covering every unit of an n-unit register.
func AllUnits(n int) Mask {
	m := make(Mask, n)
	for i := range m {
		m[i] = i
	}
	return m
}

// BitstringOf returns the length-n bitstring for basis-state index idx.
// Unit 0 is the most significant bit.
func BitstringOf(idx, n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := n - 1; i >= 0; i-- {
		if idx&(1<<i) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// IndexOf returns the basis-state index of a bitstring, inverse of
// BitstringOf. Returns an error on characters other than '0'/'1'.
func IndexOf(bits string) (int, error) {
	idx := 0
	for i := 0; i < len(bits); i++ {
		idx <<= 1
		switch bits[i] {
		case '1':
			idx |= 1
		case '0':
		default:
			return 0, fmt.Errorf("bitstring %q: invalid character %q at position %d", bits, bits[i], i)
		}
	}
	return idx, nil
}
