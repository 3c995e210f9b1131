// Package bias implements the artifact-bias model of §4.5: for a pileup, it
// enumerates the single-artifact bias combinations (strand,
// read-orientation, read-position, softclip) plus the artifact-free "none"
// combination, decides which (if any) is likely given the pileup's strongly
// alt-supporting observations, and supplies the corresponding per-observation
// likelihood weighting for calling.Posterior.
package bias

import (
	"math"

	"github.com/PROSIC/libprosic/internal/calling"
	"github.com/PROSIC/libprosic/internal/observation"
)

// Kind enumerates the bias dimensions of §4.5.
type Kind int

const (
	None Kind = iota
	Strand
	ReadOrientation
	ReadPosition
	Softclip
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Strand:
		return "strand"
	case ReadOrientation:
		return "read-orientation"
	case ReadPosition:
		return "read-position"
	case Softclip:
		return "softclip"
	default:
		return "unknown"
	}
}

// All enumerates every bias combination considered. None is not in it:
// Select (not this slice) returns None as the fallback.
var All = []Kind{Strand, ReadOrientation, ReadPosition, Softclip}

// KassRaftery is the 2·ln(Bayes factor) scale of Kass & Raftery (1995) used
// by §4.5 to decide whether an observation "strongly" supports alt over ref.
type KassRaftery float64

const (
	NotWorthMentioning KassRaftery = 0
	Positive           KassRaftery = 2
	Strong             KassRaftery = 6
	VeryStrong         KassRaftery = 10
)

// kassRafteryAltVsRef returns 2·ln(P(obs|alt)/P(obs|ref)), the evidence
// statistic §4.5 thresholds against the Kass-Raftery scale.
func kassRafteryAltVsRef(obs *observation.Observation) KassRaftery {
	return KassRaftery(2 * (obs.ProbAlt - obs.ProbRef))
}

// isStrong reports whether obs meets the "strong" threshold of §4.5:
// mapping probability >= 0.95 and Kass-Raftery(alt vs ref) >= Strong.
func isStrong(obs *observation.Observation) bool {
	return math.Exp(obs.ProbMapping) >= 0.95 && kassRafteryAltVsRef(obs) >= Strong
}

// isLikely reports whether kind's artifact pattern is present in at least
// 2/3 of pileup's strong observations, per §4.5.
func isLikely(kind Kind, pileup observation.Pileup) bool {
	var strongCount, matchCount int
	var forward, reverse, major, other, clipped, unclipped int
	for i := range pileup {
		obs := &pileup[i]
		if !isStrong(obs) {
			continue
		}
		strongCount++
		if obs.ForwardStrand {
			forward++
		}
		if obs.ReverseStrand {
			reverse++
		}
		if obs.ReadPosition == observation.ReadPositionMajor {
			major++
		} else {
			other++
		}
		if obs.Softclipped {
			clipped++
		} else {
			unclipped++
		}
	}
	if strongCount == 0 {
		return false
	}
	switch kind {
	case Strand, ReadOrientation:
		matchCount = maxInt(forward, reverse)
	case ReadPosition:
		matchCount = maxInt(major, other)
	case Softclip:
		matchCount = maxInt(clipped, unclipped)
	default:
		return false
	}
	return float64(matchCount)/float64(strongCount) >= 2.0/3.0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// artifactDiscount is the log-space penalty applied to an observation's alt
// evidence when it matches a likely bias's pattern: it halves the
// observation's effective confidence in the alt branch, reflecting that the
// apparent alt signal may be explained by the artifact rather than a true
// variant.
const artifactDiscount = -math.Ln2

// weightFor returns the calling.BiasWeight for one bias kind: a log-additive
// per-observation penalty applied to observations whose dimension matches
// the kind's majority pattern among the pileup's strong observations.
func weightFor(kind Kind, pileup observation.Pileup) calling.BiasWeight {
	if kind == None {
		return calling.IdentityWeight
	}
	forwardMajority, majorMajority, clippedMajority := majorityPatterns(pileup)
	return func(obs *observation.Observation) float64 {
		switch kind {
		case Strand, ReadOrientation:
			if obs.ForwardStrand == forwardMajority {
				return artifactDiscount
			}
		case ReadPosition:
			if (obs.ReadPosition == observation.ReadPositionMajor) == majorMajority {
				return artifactDiscount
			}
		case Softclip:
			if obs.Softclipped == clippedMajority {
				return artifactDiscount
			}
		}
		return 0
	}
}

func majorityPatterns(pileup observation.Pileup) (forwardMajority, majorMajority, clippedMajority bool) {
	var forward, reverse, major, other, clipped, unclipped int
	for i := range pileup {
		obs := &pileup[i]
		if !isStrong(obs) {
			continue
		}
		if obs.ForwardStrand {
			forward++
		}
		if obs.ReverseStrand {
			reverse++
		}
		if obs.ReadPosition == observation.ReadPositionMajor {
			major++
		} else {
			other++
		}
		if obs.Softclipped {
			clipped++
		} else {
			unclipped++
		}
	}
	return forward >= reverse, major >= other, clipped >= unclipped
}

// Selection is the outcome of selecting a bias combination for one sample's
// pileup: the chosen Kind and the weight function calling.Posterior should
// use.
type Selection struct {
	Kind   Kind
	Weight calling.BiasWeight
}

// Select picks the first likely bias combination (in the order of All), or
// None if none meets the is_likely threshold, per §4.5's
// maximum-posterior/fallback rule realized here as first-match since biases
// are modeled as mutually exclusive single-artifact explanations.
func Select(pileup observation.Pileup) Selection {
	for _, kind := range All {
		if isLikely(kind, pileup) {
			return Selection{Kind: kind, Weight: weightFor(kind, pileup)}
		}
	}
	return Selection{Kind: None, Weight: calling.IdentityWeight}
}
