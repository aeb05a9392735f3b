package expectation

import (
	"github.com/gadial/qiskit-ignis/internal/model"
)

// DefaultMaxSubset is the default subset-size ceiling for the complete
// method's reduced-matrix inversion (4^n cost).
const DefaultMaxSubset = 10

// DefaultCTMPSamples is the base sample count for the CTMP estimator; the
// effective default scales with the squared sampling overhead, capped at
// MaxCTMPSamples.
const (
	DefaultCTMPSamples = 8192
	MaxCTMPSamples     = 1 << 17
)

// DefaultCTMPSeed seeds the CTMP sampler when no seed is supplied, keeping
// Value deterministic for fixed inputs.
const DefaultCTMPSeed = 0x69676e6973 // "ignis"

// Option configures an expectation-value computation.
type Option func(*config)

type config struct {
	mitigator *model.Mitigator
	units     []int
	maxSubset int
	samples   int
	seed      int64
}

// WithMitigator corrects the estimate through a fitted mitigator.
func WithMitigator(m *model.Mitigator) Option {
	return func(c *config) {
		c.mitigator = m
	}
}

// WithUnits restricts the correction to a subset of the mitigator's units,
// given as indices into its unit ordering. Defaults to all fitted units.
func WithUnits(units []int) Option {
	return func(c *config) {
		c.units = units
	}
}

// WithMaxSubset overrides the complete-method subset ceiling.
func WithMaxSubset(n int) Option {
	return func(c *config) {
		c.maxSubset = n
	}
}

// WithSamples fixes the CTMP estimator's sample count.
func WithSamples(n int) Option {
	return func(c *config) {
		c.samples = n
	}
}

// WithSeed seeds the CTMP sampler. Distinct seeds give independent
// estimates; the default is a fixed constant so results are reproducible.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.seed = seed
	}
}
