package fitter

import (
	"errors"
	"fmt"
)

// InvalidCalibrationDataError is returned when the calibration counts are
// unusable: a required basis-state circuit is missing, a distribution is
// empty or zero-total, or bitstring lengths disagree with the spec. Fatal;
// no partial model is produced.
type InvalidCalibrationDataError struct {
	// Label identifies the offending calibration circuit ("" when the
	// problem spans the whole set).
	Label string

	// Reason describes what was wrong.
	Reason string
}

// Error implements the error interface.
func (e *InvalidCalibrationDataError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("invalid calibration data for %s: %s", e.Label, e.Reason)
	}
	return fmt.Sprintf("invalid calibration data: %s", e.Reason)
}

// IsInvalidCalibrationDataError reports whether err is an
// InvalidCalibrationDataError. Uses errors.As to handle wrapped errors.
func IsInvalidCalibrationDataError(err error) bool {
	var ie *InvalidCalibrationDataError
	return errors.As(err, &ie)
}

// NegativeRateWarning records a CTMP rate clipped to zero. It is a
// non-fatal condition: fitting continues and the warning is appended to
// the mitigator, flagging downstream corrections as degraded.
type NegativeRateWarning struct {
	// Generator names the clipped generator, e.g. "unit 3 (0->1)" or
	// "pair (1,4) 00->11".
	Generator string

	// Fitted is the rate the data implied before clipping.
	Fitted float64
}

// Error implements the error interface.
func (w *NegativeRateWarning) Error() string {
	return fmt.Sprintf("negative rate clipped to zero: %s fitted %g", w.Generator, w.Fitted)
}
