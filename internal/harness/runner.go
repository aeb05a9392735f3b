package harness

import (
	"fmt"
	"math"

	"github.com/gadial/qiskit-ignis/internal/calib"
	"github.com/gadial/qiskit-ignis/internal/expectation"
	"github.com/gadial/qiskit-ignis/internal/fitter"
	"github.com/gadial/qiskit-ignis/internal/model"
	"github.com/gadial/qiskit-ignis/internal/sim"
)

// Result captures one scenario run: the fitted model and the three
// expectation values being compared.
type Result struct {
	Scenario  string
	Mitigator *model.Mitigator

	// Ideal is the noiseless expectation value, Uncorrected the plain
	// estimate on the corrupted counts, Corrected the mitigated estimate.
	Ideal       float64
	Uncorrected model.ExpectationResult
	Corrected   model.ExpectationResult

	// Failures lists every violated scenario expectation. Empty means pass.
	Failures []string
}

// Passed reports whether the run met every scenario expectation.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Run executes a scenario end to end: corrupt the calibration circuits with
// the declared noise, fit a mitigator, corrupt the ideal experiment counts
// with the same noise, and compare the corrected estimate against the
// noiseless value.
func Run(sc *Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	n := len(sc.Units)
	spec := model.CalibrationSpec{NumUnits: n, Method: model.Method(sc.Method)}
	noise := noiseChannel(sc, n)

	circuits, err := calib.Circuits(spec)
	if err != nil {
		return nil, err
	}
	results := make([]fitter.CalibrationResult, 0, len(circuits))
	for _, c := range circuits {
		ideal := model.Counts{c.Prepared: sc.Shots}
		results = append(results, fitter.CalibrationResult{Circuit: c, Counts: noise(ideal)})
	}
	m, err := fitter.Fit(spec, results)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	mask := model.Mask(sc.Mask)
	if len(mask) == 0 {
		mask = model.AllUnits(n)
	}
	idealCounts := model.Counts(sc.Ideal)
	noisyCounts := noise(idealCounts)

	idealRes, err := expectation.Value(idealCounts, mask)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	uncorrected, err := expectation.Value(noisyCounts, mask)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	corrected, err := expectation.Value(noisyCounts, mask, expectation.WithMitigator(m))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	res := &Result{
		Scenario:    sc.Name,
		Mitigator:   m,
		Ideal:       idealRes.Value,
		Uncorrected: uncorrected,
		Corrected:   corrected,
	}
	correctedErr := math.Abs(corrected.Value - res.Ideal)
	uncorrectedErr := math.Abs(uncorrected.Value - res.Ideal)
	if correctedErr > sc.Tolerance {
		res.Failures = append(res.Failures, fmt.Sprintf(
			"corrected value %.6f misses ideal %.6f by %.6f (tolerance %.6f)",
			corrected.Value, res.Ideal, correctedErr, sc.Tolerance))
	}
	if uncorrectedErr > sc.Tolerance && correctedErr > uncorrectedErr {
		res.Failures = append(res.Failures, fmt.Sprintf(
			"correction degraded the estimate: %.6f error vs %.6f uncorrected",
			correctedErr, uncorrectedErr))
	}
	return res, nil
}

// noiseChannel builds the exact count-corruption map the scenario declares:
// exp(G) for ctmp scenarios, a tensor of confusion matrices otherwise.
func noiseChannel(sc *Scenario, n int) func(model.Counts) model.Counts {
	if model.Method(sc.Method) == model.MethodCTMP {
		gen := &model.CTMPGenerator{
			R01: make([]float64, n),
			R10: make([]float64, n),
		}
		for q, u := range sc.Units {
			gen.R01[q], gen.R10[q] = ratesFromProbs(u.P10, u.P01)
		}
		for _, p := range sc.Pairs {
			gen.Pairs = append(gen.Pairs, model.PairRates{I: p.I, J: p.J, R0011: p.R0011, R1100: p.R1100})
		}
		return func(c model.Counts) model.Counts {
			return sim.ApplyCTMP(c, gen, n)
		}
	}
	mats := make([]model.Matrix2, n)
	for q, u := range sc.Units {
		mats[q] = model.Matrix2{
			{1 - u.P10, u.P01},
			{u.P10, 1 - u.P01},
		}
	}
	return func(c model.Counts) model.Counts {
		return sim.ApplyTensored(c, mats)
	}
}

// ratesFromProbs inverts the single-unit flip probabilities (a, b) to the
// generator rates whose exponential reproduces them exactly. With s = a+b,
// exp of the 2x2 generator has total flip probability 1-exp(-(r01+r10)).
func ratesFromProbs(a, b float64) (r01, r10 float64) {
	s := a + b
	if s == 0 {
		return 0, 0
	}
	total := -math.Log(1 - s)
	return a * total / s, b * total / s
}
