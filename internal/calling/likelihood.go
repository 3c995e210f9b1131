// Package calling implements the generic joint likelihood and grammar-driven
// posterior of §4.5: per-sample likelihood as a latent-variable mixture over
// true-allele state, composed across samples, and integrated/summed over a
// VAFTree's continuous/discrete spectra.
package calling

import (
	"math"

	"github.com/PROSIC/libprosic/internal/errs"
	"github.com/PROSIC/libprosic/internal/logprob"
	"github.com/PROSIC/libprosic/internal/observation"
)

// BiasState indexes one combination of artifact biases from §4.5 (strand,
// read-orientation, read-position, softclip, or "none"). The bias package
// owns the actual enumeration and per-observation weighting; the likelihood
// cache here only needs it as an opaque memoization key.
type BiasState int

// NoBias is the artifact-free bias combination, used when no bias's
// is_likely threshold is met.
const NoBias BiasState = 0

// Contamination extends a sample's likelihood with a secondary sample's
// allele frequency, per §3/§4.5: a contaminated sample's reads are a mixture
// of `fraction` reads drawn from the secondary sample's population and
// `1-fraction` from the primary.
type Contamination struct {
	By       string
	Fraction float64
}

// Sample couples one sample's pileup with its (optional) contamination
// declaration and a likelihood memoization cache keyed by (vaf, bias state)
// or (vaf_primary, vaf_secondary, bias state) when contaminated, per §4.5.
type Sample struct {
	Pileup        observation.Pileup
	Contamination *Contamination

	cache map[cacheKey]float64
}

type cacheKey struct {
	vaf1, vaf2 float64
	bias       BiasState
}

// NewSample wraps a pileup (and optional contamination) for repeated
// likelihood evaluation during posterior traversal.
func NewSample(pileup observation.Pileup, contamination *Contamination) *Sample {
	return &Sample{Pileup: pileup, Contamination: contamination, cache: make(map[cacheKey]float64)}
}

// LogLikelihood returns log L_sample(vaf) for an uncontaminated sample, or
// the two-allele-frequency extension of §4.5 when Contamination is set
// (vafSecondary is then the secondary sample's VAF at this locus; pass 0 for
// an uncontaminated sample, it is ignored).
func (s *Sample) LogLikelihood(vafPrimary, vafSecondary float64, bias BiasState, weight BiasWeight) float64 {
	key := cacheKey{vaf1: vafPrimary, vaf2: vafSecondary, bias: bias}
	if v, ok := s.cache[key]; ok {
		return v
	}
	vaf := vafPrimary
	if s.Contamination != nil {
		vaf = (1-s.Contamination.Fraction)*vafPrimary + s.Contamination.Fraction*vafSecondary
	}
	total := 0.0
	for i := range s.Pileup {
		total += obsLogLikelihood(&s.Pileup[i], vaf, weight)
	}
	s.cache[key] = total
	return total
}

// BiasWeight supplies the per-observation multiplicative (log-additive)
// factor a bias combination applies, per §4.5; the "none" combination is
// the identity (weight 0 in log space for every observation).
type BiasWeight func(obs *observation.Observation) float64

// IdentityWeight is the "none" bias combination.
func IdentityWeight(*observation.Observation) float64 { return 0 }

// obsLogLikelihood evaluates one observation's contribution to the
// standard latent-variable mixture of §4.5:
//
//	prob_mapping · [ (1-vaf)·P(ref) + vaf·(P_sample_alt·P(alt) + (1-P_sample_alt)·P(ref)) + P(missed) ]
//	  + prob_mismapping
//
// The vaf-weighted term splits an alt-allele read into "truly sampled as
// alt evidence" (weight P_sample_alt) versus "looks like ref because the
// read could not have carried informative alt evidence" (weight
// 1-P_sample_alt); P(missed) folds in loci where neither allele is
// observable (e.g. a deletion breakpoint the read does not reach),
// independent of vaf.
func obsLogLikelihood(obs *observation.Observation, vaf float64, weight BiasWeight) float64 {
	biasAdj := weight(obs)
	logRefBranch := logprob.Mul(math.Log1p(-vaf), obs.ProbRef+biasAdj)
	var logAltBranch float64
	if vaf > 0 {
		altAsAlt := logprob.Mul(obs.ProbSampleAlt, obs.ProbAlt+biasAdj)
		altAsRef := logprob.Mul(log1mExp(obs.ProbSampleAlt), obs.ProbRef+biasAdj)
		logAltBranch = logprob.Mul(math.Log(vaf), logprob.Add(altAsAlt, altAsRef))
	} else {
		logAltBranch = logprob.Zero
	}
	evidenceTerm := logprob.Sum([]float64{logRefBranch, logAltBranch, obs.ProbMissedAllele})
	mapped := logprob.Mul(obs.ProbMapping, evidenceTerm)
	result := logprob.Add(mapped, obs.ProbMismapping())
	if !logprob.ValidLogProb(result) {
		errs.PanicNumeric("invalid per-observation log-likelihood %v (vaf=%v)", result, vaf)
	}
	return result
}

// log1mExp returns log(1 - exp(x)) for x <= 0, stably.
func log1mExp(x float64) float64 {
	if x == logprob.Zero {
		return logprob.One
	}
	if x > -math.Ln2 {
		return math.Log(-math.Expm1(x))
	}
	return math.Log1p(-math.Exp(x))
}

// JointLogLikelihood sums per-sample log-likelihoods, per §4.5's
// `Σ_samples log L_sample`. vafs maps sample name to the VAF the current
// VAFTree leaf assigns it; a contaminated sample's secondary VAF is read
// from the same map under its Contamination.By name. If the contamination
// source is a sample the current event's formula never constrains, its VAF
// is not present in vafs and is treated as 0 (no contaminating alt signal);
// well-formed scenarios name every contamination source in the events that
// use the contaminated sample.
func JointLogLikelihood(samples map[string]*Sample, vafs map[string]float64, bias BiasState, weight BiasWeight) float64 {
	total := 0.0
	for name, sample := range samples {
		vaf, ok := vafs[name]
		if !ok {
			errs.PanicNumeric("no VAF assignment for sample %q", name)
		}
		secondary := 0.0
		if sample.Contamination != nil {
			secondary = vafs[sample.Contamination.By]
		}
		total += sample.LogLikelihood(vaf, secondary, bias, weight)
	}
	return total
}
