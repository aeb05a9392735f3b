package fitter

import (
	"fmt"
	"strings"

	"github.com/gadial/qiskit-ignis/internal/calib"
	"github.com/gadial/qiskit-ignis/internal/model"
)

// CalibrationResult pairs one calibration circuit with the counts an
// external execution backend observed for it.
type CalibrationResult struct {
	Circuit model.CalibrationCircuit
	Counts  model.Counts
}

// Option configures fitting.
type Option func(*config)

type config struct {
	unitLabels       []string
	maxCompleteUnits int
}

// WithUnitLabels sets the ordered unit labels recorded on the fitted
// mitigator. Defaults to "q0".."q<n-1>".
func WithUnitLabels(labels []string) Option {
	return func(c *config) {
		c.unitLabels = labels
	}
}

// WithMaxCompleteUnits overrides the complete-method unit ceiling, matching
// calib.WithMaxCompleteUnits.
func WithMaxCompleteUnits(n int) Option {
	return func(c *config) {
		c.maxCompleteUnits = n
	}
}

// Fit builds a mitigator from calibration results. The result set must
// cover exactly the circuits calib.Circuits produces for the spec; every
// distribution must have positive total counts and bitstrings of the
// spec's length.
//
// Fails with InvalidCalibrationDataError on unusable counts and
// ResourceLimitError when the complete method exceeds its ceiling.
// Negative CTMP rates are clipped, recorded as warnings, and do not abort.
func Fit(spec model.CalibrationSpec, results []CalibrationResult, opts ...Option) (*model.Mitigator, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	cfg := config{maxCompleteUnits: calib.DefaultMaxCompleteUnits}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.unitLabels == nil {
		cfg.unitLabels = model.DefaultLabels(spec.NumUnits)
	}
	if len(cfg.unitLabels) != spec.NumUnits {
		return nil, fmt.Errorf("fitter: %d unit labels for %d units", len(cfg.unitLabels), spec.NumUnits)
	}

	required, err := calib.Circuits(spec, calib.WithMaxCompleteUnits(cfg.maxCompleteUnits))
	if err != nil {
		return nil, err
	}
	byPrepared, err := indexResults(spec, required, results)
	if err != nil {
		return nil, err
	}

	m := &model.Mitigator{
		Method:     spec.Method,
		NumUnits:   spec.NumUnits,
		UnitLabels: cfg.unitLabels,
	}
	switch spec.Method {
	case model.MethodComplete:
		m.Complete = fitComplete(spec.NumUnits, byPrepared)
	case model.MethodTensored:
		m.Tensored = fitTensored(spec.NumUnits, byPrepared)
	case model.MethodCTMP:
		gen, warnings := fitCTMP(spec.NumUnits, byPrepared)
		m.CTMP = gen
		m.Warnings = warnings
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("fitter: fitted model invalid: %w", err)
	}
	return m, nil
}

// indexResults validates the result set against the required circuits and
// keys it by prepared bitstring.
func indexResults(spec model.CalibrationSpec, required []model.CalibrationCircuit, results []CalibrationResult) (map[string]model.Counts, error) {
	byPrepared := make(map[string]model.Counts, len(results))
	for _, res := range results {
		if _, dup := byPrepared[res.Circuit.Prepared]; dup {
			return nil, &InvalidCalibrationDataError{
				Label:  res.Circuit.Label,
				Reason: fmt.Sprintf("duplicate result for prepared state %q", res.Circuit.Prepared),
			}
		}
		if err := res.Counts.Validate(spec.NumUnits); err != nil {
			return nil, &InvalidCalibrationDataError{Label: res.Circuit.Label, Reason: err.Error()}
		}
		byPrepared[res.Circuit.Prepared] = res.Counts
	}
	var missing []string
	for _, c := range required {
		if _, ok := byPrepared[c.Prepared]; !ok {
			missing = append(missing, c.Label)
		}
	}
	if len(missing) > 0 {
		return nil, &InvalidCalibrationDataError{
			Reason: fmt.Sprintf("missing calibration results: %s", strings.Join(missing, ", ")),
		}
	}
	return byPrepared, nil
}

// zerosAndOnes returns the two-circuit calibration pair for n units.
func zerosAndOnes(n int, byPrepared map[string]model.Counts) (zeros, ones model.Counts) {
	return byPrepared[strings.Repeat("0", n)], byPrepared[strings.Repeat("1", n)]
}
