// Package phred implements the decode-phred utility named in §6: converting
// a PHRED-scaled integer (as written into PROB_<EVENT> INFO tags, §6's
// header contract) back into the probability it represents, for
// interactively sanity-checking a result BCF by hand.
package phred

import (
	"math"

	"github.com/PROSIC/libprosic/internal/errs"
	"github.com/PROSIC/libprosic/internal/logprob"
)

// ToProbability converts a PHRED-scaled score (-10*log10(p)) into the
// probability p it encodes. A negative score is a malformed input: PHRED
// scores are never negative, since p <= 1 implies -10*log10(p) >= 0.
func ToProbability(phred int) (float64, error) {
	if phred < 0 {
		return 0, errs.NewInput("phred score must be >= 0, got %d", phred)
	}
	return math.Pow(10, -float64(phred)/10), nil
}

// ImpossiblePHRED is the conventional "impossible" sentinel used throughout
// §4.7/§6: FromProbability returns it for p == 0, and ToLogProb maps it back
// to log 0.
const ImpossiblePHRED = math.MaxInt32

// FromProbability is the inverse of ToProbability, matching the
// quantization the calling stage uses when writing PROB_<EVENT> tags.
func FromProbability(p float64) (int, error) {
	if p < 0 || p > 1 {
		return 0, errs.NewInput("probability must be in [0, 1], got %g", p)
	}
	if p == 0 {
		return ImpossiblePHRED, nil
	}
	return int(math.Round(-10 * math.Log10(p))), nil
}

// FromLogProb converts a natural-log probability (internal/logprob's
// convention) into its PHRED-scaled integer score.
func FromLogProb(logP float64) (int, error) {
	if logP > 1e-9 {
		return 0, errs.NewInput("log-probability must be <= 0, got %g", logP)
	}
	if logP == logprob.Zero {
		return ImpossiblePHRED, nil
	}
	// -10*log10(p) = -10*logP/ln(10)
	return int(math.Round(-10 * logP / math.Ln10)), nil
}

// ToLogProb is the inverse of FromLogProb.
func ToLogProb(phredScore int) (float64, error) {
	if phredScore < 0 {
		return 0, errs.NewInput("phred score must be >= 0, got %d", phredScore)
	}
	if phredScore == ImpossiblePHRED {
		return logprob.Zero, nil
	}
	return -float64(phredScore) * math.Ln10 / 10, nil
}
