// Package grammar implements the VAF grammar of §4.5/§9: allele-frequency
// spectra, the formula algebra (And/Or/Not/Atom) describing events, and the
// derived non-cyclic VAF tree each event's posterior is evaluated over.
package grammar

import (
	"strconv"
	"strings"

	"github.com/PROSIC/libprosic/internal/errs"
)

// Spectrum is a VAF spectrum: either a finite set of discrete allele
// frequencies, or a union of half-open/closed intervals with independent
// exclusivity flags on each end, per §3/§6.
type Spectrum struct {
	Discrete  []float64
	Intervals []Interval
}

// Interval is one piece of a Spectrum: [Lo, Hi] with ExclLo/ExclHi marking
// whether that end is open (excluded).
type Interval struct {
	Lo, Hi         float64
	ExclLo, ExclHi bool
}

// Contains reports whether vaf falls within the spectrum.
func (s Spectrum) Contains(vaf float64) bool {
	for _, d := range s.Discrete {
		if d == vaf {
			return true
		}
	}
	for _, iv := range s.Intervals {
		if iv.contains(vaf) {
			return true
		}
	}
	return false
}

func (iv Interval) contains(x float64) bool {
	loOK := x > iv.Lo || (!iv.ExclLo && x == iv.Lo)
	hiOK := x < iv.Hi || (!iv.ExclHi && x == iv.Hi)
	return loOK && hiOK
}

// IsDiscrete reports whether the spectrum contains only discrete points (no
// intervals), so the posterior can log-sum-exp over it directly rather than
// needing Simpson's-rule integration (§4.5).
func (s Spectrum) IsDiscrete() bool {
	return len(s.Intervals) == 0
}

// Bounds returns the observable min/max of the spectrum, used to scope
// Simpson's-rule integration (§4.5). For a spectrum with both discrete
// points and intervals, it covers both.
func (s Spectrum) Bounds() (min, max float64) {
	first := true
	consider := func(x float64) {
		if first || x < min {
			min = x
		}
		if first || x > max {
			max = x
		}
		first = false
	}
	for _, d := range s.Discrete {
		consider(d)
	}
	for _, iv := range s.Intervals {
		consider(iv.Lo)
		consider(iv.Hi)
	}
	return
}

// ParseSpectrum parses a comma-separated VAF spectrum string per §6:
// discrete values ("0.0", "0.5", "1.0"), closed/open intervals
// ("[a,b]", "]a,b[", "[a,b[", "]a,b]"), pipe-separated to express unions.
func ParseSpectrum(s string) (Spectrum, error) {
	var spec Spectrum
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part[0] == '[' || part[0] == ']' {
			iv, err := parseInterval(part)
			if err != nil {
				return Spectrum{}, err
			}
			spec.Intervals = append(spec.Intervals, iv)
			continue
		}
		for _, tok := range strings.Split(part, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return Spectrum{}, errs.NewScenario("invalid VAF value %q: %v", tok, err)
			}
			spec.Discrete = append(spec.Discrete, v)
		}
	}
	if len(spec.Discrete) == 0 && len(spec.Intervals) == 0 {
		return Spectrum{}, errs.NewScenario("empty VAF spectrum: %q", s)
	}
	return spec, nil
}

func parseInterval(s string) (Interval, error) {
	if len(s) < 2 {
		return Interval{}, errs.NewScenario("malformed VAF interval: %q", s)
	}
	exclLo := s[0] == ']'
	lastIdx := len(s) - 1
	exclHi := s[lastIdx] == '['
	if !exclHi && s[lastIdx] != ']' {
		return Interval{}, errs.NewScenario("malformed VAF interval: %q", s)
	}
	inner := s[1:lastIdx]
	bounds := strings.SplitN(inner, ",", 2)
	if len(bounds) != 2 {
		return Interval{}, errs.NewScenario("malformed VAF interval: %q", s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(bounds[0]), 64)
	if err != nil {
		return Interval{}, errs.NewScenario("invalid interval lower bound in %q: %v", s, err)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(bounds[1]), 64)
	if err != nil {
		return Interval{}, errs.NewScenario("invalid interval upper bound in %q: %v", s, err)
	}
	if lo > hi {
		return Interval{}, errs.NewScenario("interval lower bound exceeds upper bound in %q", s)
	}
	return Interval{Lo: lo, Hi: hi, ExclLo: exclLo, ExclHi: exclHi}, nil
}
