// Package filter implements the downstream call-filtering utilities named
// in §1 as external collaborators but exposed on the CLI surface per §6:
// control-FDR thresholding and posterior-odds (Kass-Raftery) thresholding,
// both operating on the PHRED-scaled PROB_<EVENT> posterior a calling pass
// already computed, per the same Kass-Raftery scale §4.5 uses for bias
// detection (internal/bias).
package filter

import (
	"math"
	"sort"

	"github.com/PROSIC/libprosic/internal/bias"
	"github.com/PROSIC/libprosic/internal/errs"
)

// Call is the minimal view filter needs of one result-stream record: its
// position in the stream (for stable re-ordering after a confidence sort)
// and the event's posterior probability (not PHRED-scaled).
type Call struct {
	Index int
	Prob  float64 // P(event | data), in [0, 1]
}

// ControlFDR selects the largest prefix of calls, sorted by descending
// event probability, whose estimated false discovery rate
// mean(1 - prob) over the prefix does not exceed alpha. It returns the
// kept calls in their original stream order.
func ControlFDR(calls []Call, alpha float64) ([]Call, error) {
	if alpha <= 0 || alpha > 1 {
		return nil, errs.NewPolicy("control-fdr alpha must be in (0, 1], got %g", alpha)
	}
	sorted := append([]Call(nil), calls...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Prob > sorted[j].Prob })

	kept := 0
	sumError := 0.0
	for i, c := range sorted {
		sumError += 1 - c.Prob
		fdr := sumError / float64(i+1)
		if fdr > alpha {
			break
		}
		kept = i + 1
	}
	out := append([]Call(nil), sorted[:kept]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// PosteriorOdds selects calls whose Kass-Raftery evidence for the event
// (2*ln(P(event)/P(not event))) meets or exceeds threshold, per §4.5's
// scale reused here for a downstream confidence cut instead of bias
// detection.
func PosteriorOdds(calls []Call, threshold bias.KassRaftery) []Call {
	var out []Call
	for _, c := range calls {
		odds := kassRaftery(c.Prob)
		if odds >= threshold {
			out = append(out, c)
		}
	}
	return out
}

func kassRaftery(prob float64) bias.KassRaftery {
	const eps = 1e-300
	p := prob
	if p < eps {
		p = eps
	}
	if p > 1-eps {
		p = 1 - eps
	}
	return bias.KassRaftery(2 * logRatio(p))
}

func logRatio(p float64) float64 {
	return math.Log(p) - math.Log(1-p)
}

// ParseThreshold maps a Kass-Raftery threshold name (as accepted by the
// `filter-calls posterior-odds --threshold` flag) onto its bias.KassRaftery
// value.
func ParseThreshold(name string) (bias.KassRaftery, error) {
	switch name {
	case "barely-worth-mentioning":
		return bias.NotWorthMentioning, nil
	case "positive":
		return bias.Positive, nil
	case "strong":
		return bias.Strong, nil
	case "very-strong":
		return bias.VeryStrong, nil
	default:
		return 0, errs.NewPolicy("unknown posterior-odds threshold %q", name)
	}
}
