package model

import (
	"errors"
	"fmt"
)

// ResourceLimitError is returned when an exponential-cost operation is
// requested above its configured ceiling. It is a refusal, never a silent
// slow path: no partial result is produced.
type ResourceLimitError struct {
	// Op names the refused operation ("complete calibration",
	// "complete correction").
	Op string

	// Units is the requested unit (or subset) count.
	Units int

	// Limit is the configured ceiling.
	Limit int
}

// Error implements the error interface.
func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("%s: %d units exceeds configured ceiling %d", e.Op, e.Units, e.Limit)
}

// IsResourceLimitError reports whether err is a ResourceLimitError.
// Uses errors.As to handle wrapped errors.
func IsResourceLimitError(err error) bool {
	var re *ResourceLimitError
	return errors.As(err, &re)
}

// DimensionMismatchError is returned when a mitigator's fitted unit count or
// labels are incompatible with the requested correction.
type DimensionMismatchError struct {
	// Message describes the mismatch.
	Message string

	// Fitted and Requested are the conflicting unit counts when the
	// mismatch is a count; both are 0 for label/index mismatches.
	Fitted    int
	Requested int
}

// Error implements the error interface.
func (e *DimensionMismatchError) Error() string {
	if e.Fitted != 0 || e.Requested != 0 {
		return fmt.Sprintf("dimension mismatch: %s (fitted=%d, requested=%d)", e.Message, e.Fitted, e.Requested)
	}
	return fmt.Sprintf("dimension mismatch: %s", e.Message)
}

// IsDimensionMismatchError reports whether err is a DimensionMismatchError.
// Uses errors.As to handle wrapped errors.
func IsDimensionMismatchError(err error) bool {
	var de *DimensionMismatchError
	return errors.As(err, &de)
}
