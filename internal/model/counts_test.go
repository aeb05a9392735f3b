package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountsTotal(t *testing.T) {
	c := Counts{"00": 10, "01": 5, "11": 1}
	assert.Equal(t, 16, c.Total())
}

func TestCountsNumUnits(t *testing.T) {
	n, err := Counts{"010": 1, "111": 2}.NumUnits()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = Counts{}.NumUnits()
	assert.Error(t, err)

	_, err = Counts{"0": 1, "01": 1}.NumUnits()
	assert.Error(t, err)
}

func TestCountsValidate(t *testing.T) {
	assert.NoError(t, Counts{"00": 1, "11": 0}.Validate(2))
	assert.Error(t, Counts{"00": 1}.Validate(3), "wrong key length")
	assert.Error(t, Counts{"0x": 1}.Validate(2), "non-binary key")
	assert.Error(t, Counts{"00": -1, "11": 5}.Validate(2), "negative count")
	assert.Error(t, Counts{"00": 0}.Validate(2), "zero total")
}

func TestCountsProbabilities(t *testing.T) {
	p := Counts{"0": 3, "1": 1}.Probabilities()
	assert.InDelta(t, 0.75, p["0"], 1e-12)
	assert.InDelta(t, 0.25, p["1"], 1e-12)
}

func TestCountsMarginal(t *testing.T) {
	c := Counts{"000": 4, "011": 2, "110": 1, "111": 1}

	m := c.Marginal([]int{0})
	assert.Equal(t, Counts{"0": 6, "1": 2}, m)

	// Subset order defines the key order.
	m = c.Marginal([]int{2, 0})
	assert.Equal(t, Counts{"00": 4, "10": 2, "01": 1, "11": 1}, m)
}

func TestCountsMarginalProb(t *testing.T) {
	c := Counts{"00": 6, "01": 2, "10": 1, "11": 1}
	assert.InDelta(t, 0.2, c.MarginalProb(0), 1e-12)
	assert.InDelta(t, 0.3, c.MarginalProb(1), 1e-12)
}

func TestCountsSortedKeys(t *testing.T) {
	c := Counts{"11": 1, "00": 1, "10": 1, "01": 1}
	assert.Equal(t, []string{"00", "01", "10", "11"}, c.SortedKeys())
}
