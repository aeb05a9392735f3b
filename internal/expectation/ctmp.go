package expectation

import (
	"math"
	"math/rand"

	"github.com/gadial/qiskit-ignis/internal/model"
)

// ctmpTransition is one generator term of the subset-restricted chain:
// when the guard bits match the current state, the transition fires with
// the given rate and flips the guarded bits.
type ctmpTransition struct {
	positions []int // positions within the subset register
	from      byte  // required bit value at every position ('0' or '1')
	rate      float64
}

// correctCTMP applies the quasi-probability correction derived from the
// generator restricted to the requested subset.
//
// Uniformization with lambda = total restricted rate gives
// exp(-G) = sum_k e^lambda (-lambda)^k S^k / k!  with S = I + G/lambda
// column-stochastic. Sampling k ~ Poisson(lambda) and walking k steps of S
// from an outcome drawn from the counts yields the signed estimate
// gamma * (-1)^k * sign(final state), unbiased for the noiseless value
// with gamma = e^{2 lambda} the sampling overhead.
//
// Stderr combines the sample standard error of the signed estimates
// (which carries the gamma amplification), the shot-noise floor of the
// underlying counts, and the calibration-fit uncertainty of the rates
// propagated through the gamma scale.
func correctCTMP(m *model.Mitigator, counts model.Counts, mask model.Mask, units []int, cfg config) (model.ExpectationResult, error) {
	gen := m.CTMP
	lambda := gen.TotalRate(units)
	degraded := len(m.Warnings) > 0

	if lambda == 0 {
		// Identity generator: nothing to correct.
		res := plainValue(counts, mask)
		res.Degraded = degraded
		return res, nil
	}

	transitions := restrictGenerator(gen, units)
	gamma := math.Exp(2 * lambda)

	samples := cfg.samples
	if samples <= 0 {
		// Scale in float64: gamma grows as e^{2 lambda} and gamma^2 can
		// exceed the int range long before the cap would apply.
		scaled := float64(DefaultCTMPSamples) * math.Ceil(gamma*gamma)
		if !(scaled < float64(MaxCTMPSamples)) {
			scaled = float64(MaxCTMPSamples)
		}
		samples = int(scaled)
	}

	// Deterministic outcome table: sorted keys with cumulative counts.
	keys := counts.SortedKeys()
	cum := make([]int, len(keys))
	total := 0
	for i, bits := range keys {
		total += counts[bits]
		cum[i] = total
	}

	maskPos := positionsIn(units, mask)
	rng := rand.New(rand.NewSource(cfg.seed))

	mean := 0.0
	sumSq := 0.0
	state := make([]byte, len(units))
	for t := 0; t < samples; t++ {
		bits := keys[searchCumulative(cum, rng.Intn(total))]
		for i, u := range units {
			state[i] = bits[u]
		}

		k := poisson(rng, lambda)
		for step := 0; step < k; step++ {
			markovStep(rng, state, transitions, lambda)
		}

		sign := 1.0
		ones := 0
		for _, p := range maskPos {
			if state[p] == '1' {
				ones++
			}
		}
		if ones%2 == 1 {
			sign = -1
		}
		if k%2 == 1 {
			sign = -sign
		}
		est := gamma * sign
		mean += est
		sumSq += est * est
	}
	mean /= float64(samples)

	sampleVar := 0.0
	if samples > 1 {
		sampleVar = (sumSq - float64(samples)*mean*mean) / float64(samples-1)
		sampleVar = math.Max(0, sampleVar)
	}
	mcVar := sampleVar / float64(samples)
	shotVar := math.Max(0, 1-mean*mean) / float64(total)
	calVar := ctmpCalibrationVariance(gen, units, mean)

	return model.ExpectationResult{
		Value:    mean,
		Stderr:   math.Sqrt(mcVar + shotVar + calVar),
		Overhead: gamma,
		Degraded: degraded,
	}, nil
}

// ctmpCalibrationVariance propagates the finite calibration shot totals
// into the corrected value to first order. The correction scales with
// gamma = e^{2 lambda}, so d(value)/d(lambda) ~= 2*value, and the
// per-rate variances add into Var(lambda).
func ctmpCalibrationVariance(gen *model.CTMPGenerator, units []int, value float64) float64 {
	if gen.ZerosShots <= 0 || gen.OnesShots <= 0 {
		return 0
	}
	varLambda := 0.0
	for _, u := range units {
		varLambda += rateVariance(gen.R01[u], gen.ZerosShots)
		varLambda += rateVariance(gen.R10[u], gen.OnesShots)
	}
	in := make(map[int]bool, len(units))
	for _, u := range units {
		in[u] = true
	}
	for _, p := range gen.Pairs {
		if !in[p.I] || !in[p.J] {
			continue
		}
		varLambda += rateVariance(p.R0011, gen.ZerosShots)
		varLambda += rateVariance(p.R1100, gen.OnesShots)
	}
	return 4 * value * value * varLambda
}

// rateVariance is the delta-method variance of a fitted rate: the
// underlying flip fraction p = 1 - e^{-r} is binomial over the
// calibration shots, and dr/dp = e^{r} through the closed-form fit.
func rateVariance(rate float64, shots int) float64 {
	if rate <= 0 {
		return 0
	}
	p := 1 - math.Exp(-rate)
	return math.Exp(2*rate) * p * (1 - p) / float64(shots)
}

// restrictGenerator lists the generator terms fully supported on the
// subset, with positions remapped into the subset register.
func restrictGenerator(gen *model.CTMPGenerator, units []int) []ctmpTransition {
	pos := make(map[int]int, len(units))
	for p, u := range units {
		pos[u] = p
	}

	var out []ctmpTransition
	for _, u := range units {
		if gen.R01[u] > 0 {
			out = append(out, ctmpTransition{positions: []int{pos[u]}, from: '0', rate: gen.R01[u]})
		}
		if gen.R10[u] > 0 {
			out = append(out, ctmpTransition{positions: []int{pos[u]}, from: '1', rate: gen.R10[u]})
		}
	}
	for _, p := range gen.Pairs {
		pi, okI := pos[p.I]
		pj, okJ := pos[p.J]
		if !okI || !okJ {
			continue
		}
		if p.R0011 > 0 {
			out = append(out, ctmpTransition{positions: []int{pi, pj}, from: '0', rate: p.R0011})
		}
		if p.R1100 > 0 {
			out = append(out, ctmpTransition{positions: []int{pi, pj}, from: '1', rate: p.R1100})
		}
	}
	return out
}

// markovStep applies one step of S = I + G/lambda in place: an applicable
// transition fires with probability rate/lambda, otherwise the state is
// unchanged (the diagonal remainder of S).
func markovStep(rng *rand.Rand, state []byte, transitions []ctmpTransition, lambda float64) {
	x := rng.Float64() * lambda
	acc := 0.0
	for _, tr := range transitions {
		applicable := true
		for _, p := range tr.positions {
			if state[p] != tr.from {
				applicable = false
				break
			}
		}
		if !applicable {
			continue
		}
		acc += tr.rate
		if x < acc {
			flip := byte('1')
			if tr.from == '1' {
				flip = '0'
			}
			for _, p := range tr.positions {
				state[p] = flip
			}
			return
		}
	}
}

// poisson draws from Poisson(lambda) by Knuth's product method; the fitted
// lambdas here are well below the range where that becomes slow.
func poisson(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

// searchCumulative returns the first index whose cumulative count exceeds x.
func searchCumulative(cum []int, x int) int {
	lo, hi := 0, len(cum)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cum[mid] > x {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
