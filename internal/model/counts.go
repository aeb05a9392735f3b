package model

import (
	"fmt"
	"sort"
)

// Counts is a bitstring count distribution: outcome bitstring -> number of
// shots that produced it. All keys of one distribution have the same length
// (the number of measured units) and counts are non-negative with a positive
// total.
type Counts map[string]int

// Total returns the total number of shots.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// NumUnits returns the common key length. Returns an error if the
// distribution is empty or keys disagree on length.
func (c Counts) NumUnits() (int, error) {
	n := -1
	for bits := range c {
		if n == -1 {
			n = len(bits)
			continue
		}
		if len(bits) != n {
			return 0, fmt.Errorf("counts: inconsistent bitstring lengths %d and %d", n, len(bits))
		}
	}
	if n == -1 {
		return 0, fmt.Errorf("counts: empty distribution")
	}
	return n, nil
}

// Validate checks the distribution invariants for an n-unit register:
// every key is a length-n bitstring, counts are non-negative, total > 0.
func (c Counts) Validate(n int) error {
	total := 0
	for bits, cnt := range c {
		if len(bits) != n {
			return fmt.Errorf("counts: key %q has length %d, want %d", bits, len(bits), n)
		}
		if _, err := IndexOf(bits); err != nil {
			return fmt.Errorf("counts: %w", err)
		}
		if cnt < 0 {
			return fmt.Errorf("counts: negative count %d for %q", cnt, bits)
		}
		total += cnt
	}
	if total <= 0 {
		return fmt.Errorf("counts: total shots must be positive, got %d", total)
	}
	return nil
}

// Probabilities normalizes the distribution to relative frequencies.
func (c Counts) Probabilities() map[string]float64 {
	total := float64(c.Total())
	p := make(map[string]float64, len(c))
	for bits, cnt := range c {
		p[bits] = float64(cnt) / total
	}
	return p
}

// Marginal projects the distribution onto a subset of units. The resulting
// keys are the subset bits in the given order; counts for outcomes agreeing
// on the subset are merged.
func (c Counts) Marginal(units []int) Counts {
	out := make(Counts)
	buf := make([]byte, len(units))
	for bits, cnt := range c {
		for i, u := range units {
			buf[i] = bits[u]
		}
		out[string(buf)] += cnt
	}
	return out
}

// MarginalProb returns P(unit reads 1) under the distribution.
func (c Counts) MarginalProb(unit int) float64 {
	total := 0
	ones := 0
	for bits, cnt := range c {
		total += cnt
		if bits[unit] == '1' {
			ones += cnt
		}
	}
	if total == 0 {
		return 0
	}
	return float64(ones) / float64(total)
}

// SortedKeys returns the outcome bitstrings in lexicographic order.
// Used for deterministic iteration (serialization, sampling).
func (c Counts) SortedKeys() []string {
	keys := make([]string, 0, len(c))
	for bits := range c {
		keys = append(keys, bits)
	}
	sort.Strings(keys)
	return keys
}
