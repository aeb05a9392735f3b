package calib

import (
	"fmt"
	"strings"

	"github.com/gadial/qiskit-ignis/internal/model"
)

// DefaultMaxCompleteUnits is the default ceiling for the complete method.
// 2^10 calibration circuits (and a 1024 x 1024 assignment matrix) is the
// largest session the builder accepts unless raised explicitly.
const DefaultMaxCompleteUnits = 10

// Option configures circuit production.
type Option func(*config)

type config struct {
	maxCompleteUnits int
}

// WithMaxCompleteUnits overrides the complete-method unit ceiling.
//
// Use a smaller value to fail fast in constrained environments; raising it
// grows cost exponentially (2^n circuits, 4^n matrix entries downstream).
func WithMaxCompleteUnits(n int) Option {
	return func(c *config) {
		c.maxCompleteUnits = n
	}
}

// Label returns the calibration circuit label for a prepared bitstring.
// The label links an executed circuit's counts back to its basis state.
func Label(prepared string) string {
	return "cal_" + prepared
}

// Circuits returns the ordered calibration circuit set required by the
// spec's method.
//
// complete: all 2^n basis states in index order.
// tensored, ctmp: the all-zeros then the all-ones preparation.
//
// Returns a ResourceLimitError when the complete method is requested above
// the configured ceiling.
func Circuits(spec model.CalibrationSpec, opts ...Option) ([]model.CalibrationCircuit, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	cfg := config{maxCompleteUnits: DefaultMaxCompleteUnits}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch spec.Method {
	case model.MethodComplete:
		if spec.NumUnits > cfg.maxCompleteUnits {
			return nil, &model.ResourceLimitError{
				Op:    "complete calibration",
				Units: spec.NumUnits,
				Limit: cfg.maxCompleteUnits,
			}
		}
		dim := 1 << spec.NumUnits
		circuits := make([]model.CalibrationCircuit, dim)
		for idx := 0; idx < dim; idx++ {
			bits := model.BitstringOf(idx, spec.NumUnits)
			circuits[idx] = model.CalibrationCircuit{Label: Label(bits), Prepared: bits}
		}
		return circuits, nil

	case model.MethodTensored, model.MethodCTMP:
		zeros := strings.Repeat("0", spec.NumUnits)
		ones := strings.Repeat("1", spec.NumUnits)
		return []model.CalibrationCircuit{
			{Label: Label(zeros), Prepared: zeros},
			{Label: Label(ones), Prepared: ones},
		}, nil
	}
	return nil, fmt.Errorf("calib: unsupported method %q", spec.Method)
}
