package sampleengine

import (
	"math"

	"github.com/grailbio/hts/sam"

	"github.com/PROSIC/libprosic/internal/logprob"
	"github.com/PROSIC/libprosic/internal/observation"
	"github.com/PROSIC/libprosic/internal/variant"
)

// indelWindow is half of §6's indel_window default (64): the reference/alt
// haplotype window extends this far past the candidate's own span on each
// side before being handed to the pair-HMM.
const indelWindow = 32

// readSpan walks a record's CIGAR to build the variant.ReadSpan used for
// overlap classification (§4.2/§4.3).
func readSpan(rec *sam.Record) variant.ReadSpan {
	span := variant.ReadSpan{Start: int64(rec.Pos)}
	refOff := 0
	queryOff := 0
	seenMatch := false
	for i, co := range rec.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarSoftClipped:
			if !seenMatch {
				span.SoftclipLeading = n
			} else {
				span.SoftclipTrailing = n
			}
			queryOff += n
		case sam.CigarHardClipped, sam.CigarPadded:
			// Consumes neither axis.
		case sam.CigarInsertion:
			queryOff += n
			seenMatch = true
		case sam.CigarDeletion, sam.CigarSkipped:
			refOff += n
			seenMatch = true
		default: // Match, Equal, Mismatch: consume both axes.
			if !seenMatch {
				span.QueryStart = queryOff
			}
			refOff += n
			queryOff += n
			seenMatch = true
		}
		_ = i
	}
	span.Start = int64(rec.Pos)
	span.End = span.Start + int64(refOff)
	span.QueryEnd = queryOff - span.SoftclipTrailing
	span.IsLeftMate = rec.Flags&sam.Paired == 0 || rec.Pos <= rec.MatePos
	return span
}

// buildWindow builds a variant.Window for v against rec, slicing the read's
// expanded sequence/qualities and the reference around the candidate per
// §4.2's window-selection rule. fetchStart is the reference coordinate the
// refWindow slice begins at.
func buildWindow(v *variant.Variant, rec *sam.Record, refWindow []byte, fetchStart int64) (variant.Window, bool) {
	seq := rec.Seq.Expand()
	qual := rec.Qual

	switch v.Kind {
	case variant.SNV, variant.MNV:
		return buildBaseCompareWindow(v, rec, seq, qual)
	default:
		return buildIndelWindow(v, rec, seq, qual, refWindow, fetchStart)
	}
}

// buildBaseCompareWindow extracts the read bases/quals covering
// [v.Start, v.Start+len(v.Ref)) directly, for the SNV/MNV comparison path.
func buildBaseCompareWindow(v *variant.Variant, rec *sam.Record, seq, qual []byte) (variant.Window, bool) {
	n := len(v.Ref)
	readBases := make([]byte, 0, n)
	readQuals := make([]byte, 0, n)
	refBases := v.Ref

	refPos := int64(rec.Pos)
	queryPos := 0
	need := v.Start
	for _, co := range rec.Cigar {
		l := int64(co.Len())
		switch co.Type() {
		case sam.CigarSoftClipped, sam.CigarInsertion:
			queryPos += co.Len()
		case sam.CigarHardClipped, sam.CigarPadded:
		case sam.CigarDeletion, sam.CigarSkipped:
			refPos += l
		default:
			for i := int64(0); i < l; i++ {
				if refPos >= need && refPos < need+int64(n) {
					if queryPos >= len(seq) {
						return variant.Window{}, false
					}
					readBases = append(readBases, seq[queryPos])
					if queryPos < len(qual) {
						readQuals = append(readQuals, qual[queryPos])
					} else {
						readQuals = append(readQuals, 30)
					}
				}
				refPos++
				queryPos++
			}
		}
		if refPos >= need+int64(n) {
			break
		}
	}
	if len(readBases) != n {
		return variant.Window{}, false
	}
	return variant.Window{SNVReadBases: readBases, SNVReadQuals: readQuals, SNVRefBases: refBases}, true
}

// buildIndelWindow extracts the read's full aligned+softclipped sequence and
// an indelWindow-padded reference slice, then interpolates the alt
// haplotype per the variant kind (§4.2).
func buildIndelWindow(v *variant.Variant, rec *sam.Record, seq, qual []byte, refWindow []byte, fetchStart int64) (variant.Window, bool) {
	refStart := v.Start - indelWindow
	refEnd := v.End() + indelWindow
	loOff := refStart - fetchStart
	hiOff := refEnd - fetchStart
	if loOff < 0 {
		loOff = 0
	}
	if hiOff > int64(len(refWindow)) {
		hiOff = int64(len(refWindow))
	}
	if loOff >= hiOff {
		return variant.Window{}, false
	}
	refSlice := refWindow[loOff:hiOff]
	sliceStart := fetchStart + loOff

	var alt []byte
	switch v.Kind {
	case variant.Insertion:
		anchor := int(v.Start - sliceStart)
		alt = variant.BuildInsertionAltWindow(refSlice, anchor, v.Alt)
	case variant.Deletion:
		delStart := int(v.Start - sliceStart)
		alt = variant.BuildDeletionAltWindow(refSlice, delStart, int(v.Length))
	default: // Inversion, Duplication, Replacement, Breakend
		spliceStart := int(v.Start - sliceStart)
		alt = variant.BuildSplicedAltWindow(refSlice, spliceStart, v.Ref, v.Alt)
	}

	return variant.Window{ReadSeq: seq, ReadQual: qual, Ref: refSlice, Alt: alt}, true
}

// observeRead implements §4.4 steps 4-6 for one read-level observation.
func (e *Engine) observeRead(v *variant.Variant, rec *sam.Record, span variant.ReadSpan, refWindow []byte, fetchStart int64) (observation.Observation, bool) {
	w, ok := buildWindow(v, rec, refWindow, fetchStart)
	if !ok {
		return observation.Observation{}, false
	}
	result := v.ProbAlleles(w, e.Opts.RealignParams)
	if result.Missed {
		return observation.Observation{}, false
	}

	readLen := len(rec.Seq.Expand())
	maxSoftclip := e.Props.MaxSoftclipLeading
	if e.Props.MaxSoftclipTrailing > maxSoftclip {
		maxSoftclip = e.Props.MaxSoftclipTrailing
	}

	obs := observation.Observation{
		ProbMapping: e.probMapping(rec),
		ProbAlt:     result.LogPAlt,
		ProbRef:     result.LogPRef,
		// This observation successfully compared both alleles (the Missed
		// case returned above), so P(neither allele observable) = 0.
		ProbMissedAllele: logprob.Zero,
		ProbSampleAlt:    v.ProbSampleAlt(readLen, maxSoftclip),
		ProbAnyStrand:    logprob.One,
		ForwardStrand:    rec.Flags&sam.Reverse == 0,
		ReverseStrand:    rec.Flags&sam.Reverse != 0,
		ReadPosition:     positionInRead(span, readLen),
		Softclipped:      span.SoftclipLeading > 0 || span.SoftclipTrailing > 0,
	}
	return obs, true
}

// observeFragment implements §4.4 step 5: a paired-end fragment observation
// combining each mate's own ref/alt evidence (when a mate overlaps the
// candidate directly) with an insert-size ref/alt term — a discretized
// normal PMF centered at the sample's mean insert size for ref, and at
// mean-shift for alt, where shift is the variant's reference-span change.
func (e *Engine) observeFragment(v *variant.Variant, r1, r2 *sam.Record, refWindow []byte, fetchStart int64) (observation.Observation, bool) {
	left, right := r1, r2
	if right.Pos < left.Pos {
		left, right = right, left
	}
	leftSpan := readSpan(left)
	rightSpan := readSpan(right)
	combined := variant.ReadSpan{Start: leftSpan.Start, End: rightSpan.End}
	if !v.IsValidEvidence(combined) {
		return observation.Observation{}, false
	}
	shift, ok := v.FragmentShift()
	if !ok {
		return observation.Observation{}, false
	}

	var logRef, logAlt float64
	var softclipped bool
	for _, rec := range [2]*sam.Record{left, right} {
		span := readSpan(rec)
		if span.SoftclipLeading > 0 || span.SoftclipTrailing > 0 {
			softclipped = true
		}
		if !v.IsValidEvidence(span) {
			continue
		}
		w, ok := buildWindow(v, rec, refWindow, fetchStart)
		if !ok {
			continue
		}
		res := v.ProbAlleles(w, e.Opts.RealignParams)
		if res.Missed {
			continue
		}
		logRef += res.LogPRef
		logAlt += res.LogPAlt
	}

	tlen := math.Abs(float64(left.TempLen))
	if tlen == 0 {
		tlen = float64(rightSpan.End - leftSpan.Start)
	}
	mu := e.Props.InsertSizeMean
	logRef += e.Props.InsertSizeLogPMF(mu, tlen)
	logAlt += e.Props.InsertSizeLogPMF(mu-shift, tlen)

	maxSoftclip := e.Props.MaxSoftclipLeading
	if e.Props.MaxSoftclipTrailing > maxSoftclip {
		maxSoftclip = e.Props.MaxSoftclipTrailing
	}

	obs := observation.Observation{
		ProbMapping:      e.probMapping(left) + e.probMapping(right),
		ProbAlt:          logAlt,
		ProbRef:          logRef,
		ProbMissedAllele: logprob.Zero,
		ProbSampleAlt:    v.ProbSampleAlt(int(tlen), maxSoftclip),
		ProbAnyStrand:    logprob.One,
		ForwardStrand:    left.Flags&sam.Reverse == 0 || right.Flags&sam.Reverse == 0,
		ReverseStrand:    left.Flags&sam.Reverse != 0 || right.Flags&sam.Reverse != 0,
		ReadPosition:     observation.ReadPositionMajor,
		Softclipped:      softclipped,
	}
	return obs, true
}

// positionInRead classifies whether the variant-overlapping portion of the
// read falls in the "major" (central) or "other" half, per §4.5's
// read-position bias dimension.
func positionInRead(span variant.ReadSpan, readLen int) observation.ReadPosition {
	if readLen <= 0 {
		return observation.ReadPositionMajor
	}
	mid := readLen / 2
	center := (span.QueryStart + span.QueryEnd) / 2
	if center < mid/2 || center > readLen-mid/2 {
		return observation.ReadPositionOther
	}
	return observation.ReadPositionMajor
}
