// Package model defines the core data types for readout error mitigation.
//
// The model layer is behavior-light: it holds calibration specifications,
// bitstring count distributions, the three fitted error-model variants
// (assignment matrix, tensored per-unit matrices, CTMP generator), and the
// tagged Mitigator union that wraps exactly one of them. Fitting lives in
// internal/fitter and correction in internal/expectation.
//
// BIT ORDERING:
// A counts key is a bitstring of length NumUnits where character i is the
// outcome of unit i. The leftmost character is unit 0. Basis-state indices
// follow the same order: unit 0 is the most significant bit.
//
// SERIALIZATION:
// Mitigator has a versioned JSON wire form (schema_version "1") produced by
// MarshalJSON, and a canonical byte form (sorted keys, NFC-normalized
// strings, shortest round-trip floats) used for content fingerprints and
// golden files. Round-tripping the wire form preserves correction outputs
// bit for bit.
package model
