package expectation

import (
	"fmt"
	"math"

	"github.com/gadial/qiskit-ignis/internal/model"
)

// Value estimates the expectation value of the diagonal operator identified
// by mask over the given counts.
//
// Without WithMitigator, the plain empirical estimator is returned:
// the signed mean of outcomes with binomial standard error. With a
// mitigator, the fitted unit count is verified against the counts and the
// requested unit subset (DimensionMismatchError on conflict) and the
// correction is dispatched on the mitigator's method.
func Value(counts model.Counts, mask model.Mask, opts ...Option) (model.ExpectationResult, error) {
	cfg := config{
		maxSubset: DefaultMaxSubset,
		seed:      DefaultCTMPSeed,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	numUnits, err := counts.NumUnits()
	if err != nil {
		return model.ExpectationResult{}, err
	}
	if err := counts.Validate(numUnits); err != nil {
		return model.ExpectationResult{}, err
	}
	if err := mask.Validate(numUnits); err != nil {
		return model.ExpectationResult{}, err
	}

	if cfg.mitigator == nil {
		return plainValue(counts, mask), nil
	}

	m := cfg.mitigator
	if err := m.Validate(); err != nil {
		return model.ExpectationResult{}, fmt.Errorf("expectation: %w", err)
	}
	if m.NumUnits != numUnits {
		return model.ExpectationResult{}, &model.DimensionMismatchError{
			Message:   "mitigator fitted for a different register size",
			Fitted:    m.NumUnits,
			Requested: numUnits,
		}
	}

	units := cfg.units
	if units == nil {
		units = allIndices(m.NumUnits)
	}
	if err := validateUnits(m, units, mask); err != nil {
		return model.ExpectationResult{}, err
	}

	switch m.Method {
	case model.MethodComplete:
		return correctComplete(m, counts, mask, units, cfg)
	case model.MethodTensored:
		return correctTensored(m, counts, mask, units)
	case model.MethodCTMP:
		return correctCTMP(m, counts, mask, units, cfg)
	}
	return model.ExpectationResult{}, fmt.Errorf("expectation: unknown method %q", m.Method)
}

// plainValue computes the uncorrected empirical estimator.
func plainValue(counts model.Counts, mask model.Mask) model.ExpectationResult {
	total := float64(counts.Total())
	sum := 0.0
	for bits, cnt := range counts {
		sum += mask.Sign(bits) * float64(cnt)
	}
	v := sum / total
	return model.ExpectationResult{
		Value:    v,
		Stderr:   math.Sqrt(math.Max(0, 1-v*v) / total),
		Overhead: 1,
	}
}

// validateUnits checks the requested subset against the mitigator and that
// the operator mask stays inside the subset.
func validateUnits(m *model.Mitigator, units []int, mask model.Mask) error {
	seen := make(map[int]bool, len(units))
	for _, u := range units {
		if u < 0 || u >= m.NumUnits {
			return &model.DimensionMismatchError{
				Message:   fmt.Sprintf("unit index %d outside mitigator's %d units", u, m.NumUnits),
				Fitted:    m.NumUnits,
				Requested: u,
			}
		}
		if seen[u] {
			return &model.DimensionMismatchError{Message: fmt.Sprintf("duplicate unit index %d", u)}
		}
		seen[u] = true
	}
	for _, u := range mask {
		if !seen[u] {
			return &model.DimensionMismatchError{
				Message: fmt.Sprintf("masked unit %d not in the corrected subset", u),
			}
		}
	}
	return nil
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// positionsIn maps each mask unit to its position within the subset order.
// validateUnits has already guaranteed membership.
func positionsIn(units []int, mask model.Mask) []int {
	pos := make(map[int]int, len(units))
	for p, u := range units {
		pos[u] = p
	}
	out := make([]int, len(mask))
	for i, u := range mask {
		out[i] = pos[u]
	}
	return out
}
