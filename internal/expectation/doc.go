// Package expectation estimates diagonal-operator expectation values from
// bitstring counts, optionally correcting readout error through a fitted
// mitigator.
//
// Value is the single entry point. Without a mitigator it computes the
// plain empirical estimator with binomial standard error. With one, it
// verifies dimensional compatibility and dispatches on the mitigator's
// method tag:
//
//   - complete: reduce the assignment matrix to the requested unit subset,
//     invert it (pseudo-inverse on singularity), and take the signed sum
//     over the corrected probability vector. Cost grows as 4^|subset| and
//     is refused above a configured ceiling.
//   - tensored: invert each per-unit 2x2 matrix in closed form and fold the
//     inverse in as multiplicative per-bit weights, linear in the subset
//     size per distinct observed bitstring.
//   - ctmp: a quasi-probability sampling estimator built on the
//     uniformization exp(-G) = sum_k e^l (-l)^k S^k / k! with S = I + G/l;
//     the sampling overhead gamma = e^{2l} is reported on the result.
//
// Reported standard errors propagate both experiment shot noise and
// calibration-fit uncertainty. All estimators are unbiased in the
// infinite-shot limit. Every computation here is a bounded pure function:
// no I/O, no hidden state, deterministic for fixed options.
package expectation
