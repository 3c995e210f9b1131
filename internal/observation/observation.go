// Package observation defines the per-read/per-fragment evidence record
// produced by the sample engine during preprocessing and consumed by the
// calling model, per §3/§4.4 of the data model.
package observation

import (
	"math"

	"github.com/PROSIC/libprosic/internal/logprob"
)

// ReadPosition classifies where in a read (or fragment) an observation's
// supporting bases fell: the "major" half carries most of the informative
// bases, "other" is everything else. This mirrors the read-position bias
// dimension in §4.5.
type ReadPosition int

const (
	// ReadPositionMajor is the primary/central half of the read.
	ReadPositionMajor ReadPosition = iota
	// ReadPositionOther is the secondary half (e.g. trailing softclip side).
	ReadPositionOther
)

// Observation is the per-read/per-fragment summary of evidence for or
// against a candidate's alt allele, per §3. All probabilities are natural-log
// probabilities in [-Inf, 0].
type Observation struct {
	// ProbMapping is log P(this read/fragment is correctly mapped here).
	ProbMapping float64
	// ProbAlt is log P(observed bases | truly alt).
	ProbAlt float64
	// ProbRef is log P(observed bases | truly ref).
	ProbRef float64
	// ProbMissedAllele is log P(neither allele actually observable here),
	// e.g. a deletion whose breakpoint region the read does not reach.
	ProbMissedAllele float64
	// ProbSampleAlt is log P(a true alt read/fragment would even be sampled
	// at this locus), accounting for read length, softclip policy, and
	// variant length (§4.3).
	ProbSampleAlt float64
	// ProbOverlap is log P(fragment double-overlaps the variant), relevant
	// only to fragment-level observations of small variants.
	ProbOverlap float64
	// ProbAnyStrand is log P(observed on either strand | unbiased model);
	// normally log(1) since both strands are equally likely absent a bias.
	ProbAnyStrand float64

	ForwardStrand bool
	ReverseStrand bool

	ReadPosition ReadPosition

	// Softclipped records whether this observation's read/fragment carried a
	// softclip adjacent to the candidate, feeding the softclip bias
	// dimension (§4.5).
	Softclipped bool
}

// ProbMismapping returns log(1 - exp(ProbMapping)), so that in probability
// space ProbMapping + ProbMismapping == 1, per the §3 invariant.
func (o *Observation) ProbMismapping() float64 {
	p := math.Exp(o.ProbMapping)
	if p >= 1 {
		return logprob.Zero
	}
	return math.Log1p(-p)
}

// Valid reports whether the observation satisfies the §8 invariants: valid
// log-probs, and at least one strand flag set.
func (o *Observation) Valid() bool {
	if !logprob.ValidLogProb(o.ProbMapping) || !logprob.ValidLogProb(o.ProbAlt) ||
		!logprob.ValidLogProb(o.ProbRef) || !logprob.ValidLogProb(o.ProbMissedAllele) ||
		!logprob.ValidLogProb(o.ProbSampleAlt) || !logprob.ValidLogProb(o.ProbOverlap) ||
		!logprob.ValidLogProb(o.ProbAnyStrand) {
		return false
	}
	return o.ForwardStrand || o.ReverseStrand
}

// Pileup is an ordered sequence of Observations belonging to one sample at
// one candidate locus (§3).
type Pileup []Observation

// ScaleByMax rescales every ref/alt log-prob in the pileup by subtracting the
// pileup's maximum ref/alt log-prob, per §4.4 step 7. This has no effect on
// final posteriors (a constant log-space shift cancels in every ratio the
// calling model computes) but keeps the numbers in a safe range ahead of
// Simpson's-rule integration.
func (p Pileup) ScaleByMax() {
	if len(p) == 0 {
		return
	}
	max := logprob.Zero
	for i := range p {
		if p[i].ProbRef > max {
			max = p[i].ProbRef
		}
		if p[i].ProbAlt > max {
			max = p[i].ProbAlt
		}
	}
	if max == logprob.Zero || max == 0 {
		return
	}
	for i := range p {
		p[i].ProbRef -= max
		p[i].ProbAlt -= max
	}
}
