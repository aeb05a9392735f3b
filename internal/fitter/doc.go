// Package fitter builds immutable error models from calibration counts.
//
// Fit consumes the calibration circuits produced by internal/calib, paired
// with the counts an external backend observed for each, and returns a
// model.Mitigator. Fitting is a pure function of its inputs: the same
// counts always yield the same model, up to floating-point rounding.
//
// The three variants differ in what they extract from the counts:
//
//   - complete: each prepared basis state normalizes into one column of
//     the 2^n x 2^n assignment matrix.
//   - tensored: each unit's 2x2 confusion matrix comes from its marginals
//     under the all-zeros and all-ones preparations. Units are independent
//     and fitted concurrently.
//   - ctmp: single-unit flip rates come from the same marginals via the
//     exact closed form r = -ln(1 - a - b) split proportionally; pairwise
//     correlated rates are the excess joint flip probability over the
//     independent prediction. Pairs are independent and fitted
//     concurrently. Rates that would come out negative, or marginals
//     outside the generator model's validity, are clipped to zero and the
//     clip is recorded as a warning on the mitigator (non-fatal).
package fitter
