package fitter

import (
	"fmt"
	"math"
	"sync"

	"github.com/gadial/qiskit-ignis/internal/model"
)

// fitCTMP estimates the sparse generator from the two-circuit calibration
// pair: single-unit flip rates from per-unit marginals, pairwise correlated
// rates from the excess joint flip probability over the independent
// prediction. Units and pairs are independent and fitted concurrently;
// warnings are collected per slot so their order is deterministic.
func fitCTMP(numUnits int, byPrepared map[string]model.Counts) (*model.CTMPGenerator, []string) {
	zeros, ones := zerosAndOnes(numUnits, byPrepared)
	gen := &model.CTMPGenerator{
		R01:        make([]float64, numUnits),
		R10:        make([]float64, numUnits),
		ZerosShots: zeros.Total(),
		OnesShots:  ones.Total(),
	}

	// Per-unit marginal flip probabilities drive both the single rates and
	// the pairwise independent prediction.
	p10 := make([]float64, numUnits) // P(read 1 | prepared 0)
	p01 := make([]float64, numUnits) // P(read 0 | prepared 1)
	unitWarnings := make([][]string, numUnits)

	var wg sync.WaitGroup
	for q := 0; q < numUnits; q++ {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			p10[q] = zeros.MarginalProb(q)
			p01[q] = 1 - ones.MarginalProb(q)
			gen.R01[q], gen.R10[q], unitWarnings[q] = singleRates(q, p10[q], p01[q])
		}(q)
	}
	wg.Wait()

	type pair struct{ i, j int }
	pairs := make([]pair, 0, numUnits*(numUnits-1)/2)
	for i := 0; i < numUnits; i++ {
		for j := i + 1; j < numUnits; j++ {
			pairs = append(pairs, pair{i, j})
		}
	}
	rates := make([]model.PairRates, len(pairs))
	pairWarnings := make([][]string, len(pairs))
	for k, pr := range pairs {
		wg.Add(1)
		go func(k int, i, j int) {
			defer wg.Done()
			rates[k], pairWarnings[k] = pairRates(i, j, zeros, ones, p10, p01)
		}(k, pr.i, pr.j)
	}
	wg.Wait()

	var warnings []string
	for _, w := range unitWarnings {
		warnings = append(warnings, w...)
	}
	for k, r := range rates {
		if r.R0011 > 0 || r.R1100 > 0 {
			gen.Pairs = append(gen.Pairs, r)
		}
		warnings = append(warnings, pairWarnings[k]...)
	}

	// A unit's marginal flip probability also counts the correlated pair
	// flips it participates in, so the fitted pair rates must come back out
	// of the single rates to avoid double counting.
	deduct := func(rates []float64, q int, amount float64, generator string) {
		rates[q] -= amount
		if rates[q] < 0 {
			w := &NegativeRateWarning{Generator: generator, Fitted: rates[q]}
			warnings = append(warnings, w.Error())
			rates[q] = 0
		}
	}
	for _, r := range gen.Pairs {
		if r.R0011 > 0 {
			deduct(gen.R01, r.I, r.R0011, fmt.Sprintf("unit %d 0->1 after pair (%d,%d) deduction", r.I, r.I, r.J))
			deduct(gen.R01, r.J, r.R0011, fmt.Sprintf("unit %d 0->1 after pair (%d,%d) deduction", r.J, r.I, r.J))
		}
		if r.R1100 > 0 {
			deduct(gen.R10, r.I, r.R1100, fmt.Sprintf("unit %d 1->0 after pair (%d,%d) deduction", r.I, r.I, r.J))
			deduct(gen.R10, r.J, r.R1100, fmt.Sprintf("unit %d 1->0 after pair (%d,%d) deduction", r.J, r.I, r.J))
		}
	}
	return gen, warnings
}

// singleRates solves the one-unit generator exactly from the observed flip
// probabilities a = P(1|0), b = P(0|1):
//
//	a + b = 1 - exp(-(r01+r10)),  a/(a+b) = r01/(r01+r10)
//
// so R = -ln(1 - a - b), r01 = a*R/(a+b), r10 = b*R/(a+b). When a+b >= 1
// the single-generator model has no solution; both rates are clipped to
// zero and recorded.
func singleRates(q int, a, b float64) (r01, r10 float64, warnings []string) {
	s := a + b
	if s == 0 {
		return 0, 0, nil
	}
	if s >= 1 {
		w := &NegativeRateWarning{
			Generator: fmt.Sprintf("unit %d (flip probabilities %g+%g outside model validity)", q, a, b),
			Fitted:    math.Inf(1),
		}
		return 0, 0, []string{w.Error()}
	}
	total := -math.Log(1 - s)
	return a / s * total, b / s * total, nil
}

// pairRates estimates the correlated rates of one pair as the excess joint
// flip probability over the independent single-unit prediction. Only the
// 00->11 and 11->00 generators are identifiable from the two-circuit set.
func pairRates(i, j int, zeros, ones model.Counts, p10, p01 []float64) (model.PairRates, []string) {
	out := model.PairRates{I: i, J: j}
	var warnings []string

	excess := jointProb(zeros, i, j, '1', '1') - p10[i]*p10[j]
	if excess < 0 {
		w := &NegativeRateWarning{Generator: fmt.Sprintf("pair (%d,%d) 00->11", i, j), Fitted: excess}
		warnings = append(warnings, w.Error())
	} else {
		out.R0011 = excess
	}

	excess = jointProb(ones, i, j, '0', '0') - p01[i]*p01[j]
	if excess < 0 {
		w := &NegativeRateWarning{Generator: fmt.Sprintf("pair (%d,%d) 11->00", i, j), Fitted: excess}
		warnings = append(warnings, w.Error())
	} else {
		out.R1100 = excess
	}
	return out, warnings
}

// jointProb returns P(unit i reads bi and unit j reads bj) under counts.
func jointProb(counts model.Counts, i, j int, bi, bj byte) float64 {
	total := 0
	hits := 0
	for bits, cnt := range counts {
		total += cnt
		if bits[i] == bi && bits[j] == bj {
			hits += cnt
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
