// Package calib produces calibration circuit specifications.
//
// For the complete method every basis state of the register must be
// prepared, so the builder emits 2^n circuits and refuses above a
// configured unit ceiling. The tensored and CTMP methods only need
// per-unit marginal and pairwise statistics, which the all-zeros and
// all-ones preparations already provide, so they emit exactly two circuits
// regardless of register size.
//
// Circuit production is pure data production: the returned slice is
// eagerly materialized and ordered, and execution is entirely the
// caller's concern.
package calib
