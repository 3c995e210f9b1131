package grammar

// intersect computes an approximation of a ∩ b suitable for merging
// per-sample constraints from independent conjuncts of a formula (§9). Exact
// general-purpose interval-set intersection is not needed here: spectra in
// practice are either a handful of discrete points or a small union of
// intervals, so pairwise interval overlap plus discrete membership testing
// covers every grammar this parser accepts.
func intersect(a, b Spectrum) Spectrum {
	var out Spectrum
	for _, d := range a.Discrete {
		if b.Contains(d) {
			out.Discrete = append(out.Discrete, d)
		}
	}
	for _, d := range b.Discrete {
		if a.Contains(d) && !out.containsDiscrete(d) {
			out.Discrete = append(out.Discrete, d)
		}
	}
	for _, x := range a.Intervals {
		for _, y := range b.Intervals {
			if iv, ok := intersectIntervals(x, y); ok {
				out.Intervals = append(out.Intervals, iv)
			}
		}
	}
	return out
}

func (s Spectrum) containsDiscrete(v float64) bool {
	for _, d := range s.Discrete {
		if d == v {
			return true
		}
	}
	return false
}

func intersectIntervals(x, y Interval) (Interval, bool) {
	lo, exclLo := x.Lo, x.ExclLo
	if y.Lo > lo || (y.Lo == lo && y.ExclLo) {
		lo, exclLo = y.Lo, y.ExclLo
	}
	hi, exclHi := x.Hi, x.ExclHi
	if y.Hi < hi || (y.Hi == hi && y.ExclHi) {
		hi, exclHi = y.Hi, y.ExclHi
	}
	if lo > hi || (lo == hi && (exclLo || exclHi)) {
		return Interval{}, false
	}
	return Interval{Lo: lo, Hi: hi, ExclLo: exclLo, ExclHi: exclHi}, true
}

// complement returns universe \ exclude: the parts of universe's spectrum
// not covered by exclude. A discrete point excluded at an interval's end
// opens that end. One strictly inside an interval is measure-zero and has no
// effect on the Simpson's-rule integration (§4.5) performed over the result,
// so it is left in rather than punched out as a degenerate zero-width gap.
func complement(universe, exclude Spectrum) Spectrum {
	var out Spectrum
	for _, d := range universe.Discrete {
		if !exclude.Contains(d) {
			out.Discrete = append(out.Discrete, d)
		}
	}
	remaining := universe.Intervals
	for _, ex := range exclude.Intervals {
		var next []Interval
		for _, iv := range remaining {
			next = append(next, subtractInterval(iv, ex)...)
		}
		remaining = next
	}
	for _, iv := range remaining {
		for _, d := range exclude.Discrete {
			iv.ExclLo = iv.ExclLo || d == iv.Lo
			iv.ExclHi = iv.ExclHi || d == iv.Hi
		}
		if iv.Lo < iv.Hi || !(iv.ExclLo || iv.ExclHi) {
			out.Intervals = append(out.Intervals, iv)
		}
	}
	return out
}

// subtractInterval computes iv \ cut, which is zero, one, or two intervals.
func subtractInterval(iv, cut Interval) []Interval {
	if cut.Hi < iv.Lo || cut.Lo > iv.Hi ||
		(cut.Hi == iv.Lo && (cut.ExclHi || iv.ExclLo)) ||
		(cut.Lo == iv.Hi && (cut.ExclLo || iv.ExclHi)) {
		return []Interval{iv}
	}
	var out []Interval
	if cut.Lo > iv.Lo || (cut.Lo == iv.Lo && !cut.ExclLo && iv.ExclLo) {
		out = append(out, Interval{Lo: iv.Lo, Hi: cut.Lo, ExclLo: iv.ExclLo, ExclHi: !cut.ExclLo})
	} else if cut.Lo == iv.Lo && cut.ExclLo && !iv.ExclLo {
		out = append(out, Interval{Lo: iv.Lo, Hi: iv.Lo, ExclLo: false, ExclHi: false})
	}
	if cut.Hi < iv.Hi || (cut.Hi == iv.Hi && !cut.ExclHi && iv.ExclHi) {
		out = append(out, Interval{Lo: cut.Hi, Hi: iv.Hi, ExclLo: !cut.ExclHi, ExclHi: iv.ExclHi})
	} else if cut.Hi == iv.Hi && cut.ExclHi && !iv.ExclHi {
		out = append(out, Interval{Lo: iv.Hi, Hi: iv.Hi, ExclLo: false, ExclHi: false})
	}
	return out
}
