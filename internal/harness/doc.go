// Package harness runs end-to-end accuracy scenarios for the mitigation
// pipeline: synthesize readout-corrupted calibration and experiment counts
// from a declared noise model, fit a mitigator, correct the experiment
// counts, and check the corrected value against the known noiseless one.
//
// Scenarios are YAML files (testdata/scenarios). Noise synthesis is exact
// and deterministic (internal/sim), so scenario outcomes are reproducible
// and fitted models can additionally be pinned with golden files.
package harness
