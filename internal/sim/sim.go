// Package sim synthesizes readout-corrupted count distributions for tests
// and accuracy scenarios. It is a test collaborator only: the core fitting
// and correction paths never import it.
//
// The Apply functions convolve an ideal distribution with an error model
// exactly and re-quantize to integer counts with largest-remainder
// rounding, so synthetic data is deterministic and total-preserving.
// Sample draws a finite-shot realization with a seeded generator for
// trials that need genuine statistical noise.
package sim

import (
	"math/rand"
	"sort"

	"github.com/gadial/qiskit-ignis/internal/linalg"
	"github.com/gadial/qiskit-ignis/internal/model"
)

// ApplyTensored convolves ideal counts with independent per-unit confusion
// matrices, M[observed][prepared] per unit.
func ApplyTensored(ideal model.Counts, mats []model.Matrix2) model.Counts {
	weights := make(map[string]float64)
	n := len(mats)
	out := make([]byte, n)

	var spread func(bits string, pos int, weight float64, base float64)
	spread = func(bits string, pos int, weight float64, base float64) {
		if pos == n {
			weights[string(out)] += base * weight
			return
		}
		prep := 0
		if bits[pos] == '1' {
			prep = 1
		}
		for obs := 0; obs < 2; obs++ {
			p := mats[pos][obs][prep]
			if p == 0 {
				continue
			}
			out[pos] = byte('0' + obs)
			spread(bits, pos+1, weight*p, base)
		}
	}
	for bits, cnt := range ideal {
		spread(bits, 0, 1, float64(cnt))
	}
	return roundWeights(weights, ideal.Total())
}

// ApplyAssignment convolves ideal counts with a full assignment matrix
// over n units.
func ApplyAssignment(ideal model.Counts, a [][]float64, n int) model.Counts {
	weights := make(map[string]float64)
	for bits, cnt := range ideal {
		j, _ := model.IndexOf(bits)
		for i := range a {
			if a[i][j] == 0 {
				continue
			}
			weights[model.BitstringOf(i, n)] += float64(cnt) * a[i][j]
		}
	}
	return roundWeights(weights, ideal.Total())
}

// ApplyCTMP convolves ideal counts with exp(G) for a CTMP generator over
// n units. Intended for small n; the generator matrix is materialized
// densely.
func ApplyCTMP(ideal model.Counts, gen *model.CTMPGenerator, n int) model.Counts {
	return ApplyAssignment(ideal, linalg.Expm(GeneratorMatrix(gen, n)), n)
}

// GeneratorMatrix materializes the dense 2^n x 2^n generator: off-diagonal
// entries collect the applicable transition rates per column, diagonals
// balance columns to zero.
func GeneratorMatrix(gen *model.CTMPGenerator, n int) [][]float64 {
	dim := 1 << n
	g := linalg.Zeros(dim, dim)

	add := func(to, col int, rate float64) {
		g[to][col] += rate
		g[col][col] -= rate
	}
	for j := 0; j < dim; j++ {
		for q := 0; q < n; q++ {
			bit := j & (1 << (n - 1 - q))
			if bit == 0 && gen.R01[q] > 0 {
				add(j|1<<(n-1-q), j, gen.R01[q])
			}
			if bit != 0 && gen.R10[q] > 0 {
				add(j&^(1<<(n-1-q)), j, gen.R10[q])
			}
		}
		for _, p := range gen.Pairs {
			maskI := 1 << (n - 1 - p.I)
			maskJ := 1 << (n - 1 - p.J)
			both := maskI | maskJ
			switch j & both {
			case 0:
				if p.R0011 > 0 {
					add(j|both, j, p.R0011)
				}
			case both:
				if p.R1100 > 0 {
					add(j&^both, j, p.R1100)
				}
			}
		}
	}
	return g
}

// Sample draws a finite-shot realization of a count distribution with a
// seeded generator.
func Sample(dist model.Counts, shots int, seed int64) model.Counts {
	rng := rand.New(rand.NewSource(seed))
	keys := dist.SortedKeys()
	cum := make([]int, len(keys))
	total := 0
	for i, bits := range keys {
		total += dist[bits]
		cum[i] = total
	}

	out := make(model.Counts)
	for s := 0; s < shots; s++ {
		x := rng.Intn(total)
		lo, hi := 0, len(cum)-1
		for lo < hi {
			mid := (lo + hi) / 2
			if cum[mid] > x {
				hi = mid
			} else {
				lo = mid + 1
			}
		}
		out[keys[lo]]++
	}
	return out
}

// roundWeights quantizes fractional weights to integer counts preserving
// the exact total: floor everything, then hand the remaining shots to the
// largest fractional parts (ties broken by bitstring order).
func roundWeights(weights map[string]float64, total int) model.Counts {
	type entry struct {
		bits string
		frac float64
	}
	out := make(model.Counts, len(weights))
	floorTotal := 0
	entries := make([]entry, 0, len(weights))
	for bits, w := range weights {
		fl := int(w)
		if fl > 0 {
			out[bits] = fl
		}
		floorTotal += fl
		entries = append(entries, entry{bits, w - float64(fl)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].frac != entries[j].frac {
			return entries[i].frac > entries[j].frac
		}
		return entries[i].bits < entries[j].bits
	})
	for i := 0; i < total-floorTotal && i < len(entries); i++ {
		out[entries[i].bits]++
	}
	return out
}
