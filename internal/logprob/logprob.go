// Package logprob provides the numerically stable log-space arithmetic that
// the calling model and bias model build on: log-sum-exp reduction and
// Simpson's-rule integration over a log-probability-valued integrand.
//
// All log-probabilities in this repository are <= 0 (natural log of a
// probability in [0, 1]); math.Inf(-1) represents probability zero.
package logprob

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Zero is log(0).
const Zero = math.Inf(-1)

// One is log(1).
const One = 0.0

// Add returns log(exp(a) + exp(b)), computed without overflow.
func Add(a, b float64) float64 {
	if a == Zero {
		return b
	}
	if b == Zero {
		return a
	}
	if a > b {
		return a + math.Log1p(math.Exp(b-a))
	}
	return b + math.Log1p(math.Exp(a-b))
}

// Sum returns log(sum(exp(xs))) via the standard max-shifted reduction. It
// returns Zero for an empty slice.
func Sum(xs []float64) float64 {
	if len(xs) == 0 {
		return Zero
	}
	m := floats.Max(xs)
	if math.IsInf(m, -1) {
		return Zero
	}
	acc := 0.0
	for _, x := range xs {
		acc += math.Exp(x - m)
	}
	return m + math.Log(acc)
}

// Mul returns log(exp(a) * exp(b)) = a + b, defined so that Zero propagates
// even through float addition with +Inf/-Inf edge cases.
func Mul(a, b float64) float64 {
	if a == Zero || b == Zero {
		return Zero
	}
	return a + b
}

// GridPoints returns the number of Simpson's-rule grid points to use for a
// pileup of the given size, per §4.5: clamp(|pileup|+1, 5, resolution),
// forced odd (Simpson's rule requires an odd number of points, i.e. an even
// number of subintervals).
func GridPoints(pileupSize, resolution int) int {
	n := pileupSize + 1
	if n < 5 {
		n = 5
	}
	if n > resolution {
		n = resolution
	}
	if n%2 == 0 {
		n++
	}
	return n
}

// SimpsonIntegrate integrates f (a function returning a log-probability
// density) over [lo, hi] using Simpson's rule on n points (n must be odd),
// returning the log of the integral. The composite rule in probability
// space is (h/3) * (f0 + 4f1 + 2f2 + 4f3 + ... + 4f_{n-2} + f_{n-1}); here it
// is computed with weighted log-sum-exp so it never leaves log space.
func SimpsonIntegrate(lo, hi float64, n int, f func(x float64) float64) float64 {
	if n < 3 {
		n = 3
	}
	if n%2 == 0 {
		n++
	}
	h := (hi - lo) / float64(n-1)
	if h == 0 {
		return f(lo)
	}
	logH3 := math.Log(h / 3)
	terms := make([]float64, n)
	for i := 0; i < n; i++ {
		x := lo + float64(i)*h
		fx := f(x)
		var logWeight float64
		switch {
		case i == 0 || i == n-1:
			logWeight = 0
		case i%2 == 1:
			logWeight = math.Log(4)
		default:
			logWeight = math.Log(2)
		}
		terms[i] = fx + logWeight
	}
	return logH3 + Sum(terms)
}

// ValidLogProb reports whether x is a valid log-probability: <= 0 (in log
// space) or -Inf, and never NaN. A NaN or positive log-prob indicates a bug
// in the caller, per the numeric-error taxonomy (§7).
func ValidLogProb(x float64) bool {
	if math.IsNaN(x) {
		return false
	}
	return x <= 1e-9 // small positive slack for floating point roundoff
}
