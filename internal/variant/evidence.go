package variant

import (
	"github.com/PROSIC/libprosic/internal/realign"
)

// Window bundles the read and reference windows the sample engine has
// already extracted around a candidate locus (§4.2 window selection), ready
// for allele-likelihood computation. For SNV/MNV,
// SNVReadBases/SNVReadQuals/SNVRefBases are compared directly against the
// variant's Alt; for indel-class kinds, ReadSeq/ReadQual/Ref/Alt feed the
// pair-HMM.
type Window struct {
	// ReadSeq, ReadQual are the read's bases and PHRED qualities within the
	// selected window (§4.2).
	ReadSeq, ReadQual []byte
	// Ref is the reference window's bases, aligned to ReadSeq's start.
	Ref []byte
	// Alt is the variant-specific alt haplotype window, constructed per the
	// interpolation rules of §4.2 (ref-prefix + inserted bases + ref-suffix
	// for insertions; ref with the deleted span removed for deletions; the
	// known alt allele spliced in for inversions/duplications/replacements).
	Alt []byte

	// SNVReadBases/SNVReadQuals/SNVRefBases are populated instead of the above
	// for SNV/MNV kinds, which compare bases directly rather than via the
	// realigner.
	SNVReadBases, SNVReadQuals, SNVRefBases []byte
}

// ProbAlleles implements §4.3's prob_alleles for every variant kind. For
// Breakend, package breakend resolves group membership and concatenates the
// group's alt-haplotype extension sequence (Build/Walks/Concat) before a
// candidate ever reaches here; once that's done, scoring a read against it
// is the same semiglobal realignment as any other indel-class kind, against
// the Window the caller (internal/sampleengine, fed by internal/preprocess's
// breakend dispatch) already built.
func (v *Variant) ProbAlleles(w Window, params realign.Params) ProbAllelesResult {
	switch v.Kind {
	case None:
		return noneProbAlleles()
	case SNV, MNV:
		return baseCompareProbAlleles(w, v.Alt)
	case Deletion, Insertion, Inversion, Duplication, Replacement, Breakend:
		if len(w.ReadSeq) == 0 {
			return ProbAllelesResult{Missed: true}
		}
		logRef, logAlt := realign.AlignRefAndAlt(w.ReadSeq, w.ReadQual, realign.Bytes(w.Ref), realign.Bytes(w.Alt), params)
		return ProbAllelesResult{LogPRef: logRef, LogPAlt: logAlt}
	default:
		return ProbAllelesResult{Missed: true}
	}
}

// baseCompareProbAlleles implements the SNV/MNV branch of §4.3: compare the
// read's bases against ref and alt position-by-position, summing per-base
// emission log-probs (an MNV is just an SNV with len(ref)>1).
func baseCompareProbAlleles(w Window, alt []byte) ProbAllelesResult {
	n := len(w.SNVReadBases)
	if n == 0 || n != len(w.SNVRefBases) || n != len(alt) {
		return ProbAllelesResult{Missed: true}
	}
	var logRef, logAlt float64
	for i := 0; i < n; i++ {
		miscall := realign.PhredToLogProb(w.SNVReadQuals[i])
		logRef += realign.BaseEmission(w.SNVReadBases[i], w.SNVRefBases[i], miscall)
		logAlt += realign.BaseEmission(w.SNVReadBases[i], alt[i], miscall)
	}
	return ProbAllelesResult{LogPRef: logRef, LogPAlt: logAlt}
}

// BuildInsertionAltWindow interpolates the alt haplotype window for an
// insertion: ref-prefix up to and including the insertion anchor, the
// inserted bases, then the ref-suffix, per §4.2's tie-break for
// varstart==varend.
func BuildInsertionAltWindow(refWindow []byte, anchorOffset int, insertedBases []byte) []byte {
	if anchorOffset > len(refWindow) {
		anchorOffset = len(refWindow)
	}
	out := make([]byte, 0, len(refWindow)+len(insertedBases))
	out = append(out, refWindow[:anchorOffset]...)
	out = append(out, insertedBases...)
	out = append(out, refWindow[anchorOffset:]...)
	return out
}

// BuildDeletionAltWindow removes the deleted reference span
// [deleteStart, deleteStart+deleteLen) from refWindow, per §4.2.
func BuildDeletionAltWindow(refWindow []byte, deleteStart, deleteLen int) []byte {
	end := deleteStart + deleteLen
	if end > len(refWindow) {
		end = len(refWindow)
	}
	if deleteStart > end {
		deleteStart = end
	}
	out := make([]byte, 0, len(refWindow)-(end-deleteStart))
	out = append(out, refWindow[:deleteStart]...)
	out = append(out, refWindow[end:]...)
	return out
}

// BuildSplicedAltWindow splices a known alt allele into refWindow at
// [spliceStart, spliceStart+len(refAllele)), for inversions, duplications,
// and replacements whose alt sequence is already known in full.
func BuildSplicedAltWindow(refWindow []byte, spliceStart int, refAllele, altAllele []byte) []byte {
	end := spliceStart + len(refAllele)
	if end > len(refWindow) {
		end = len(refWindow)
	}
	out := make([]byte, 0, len(refWindow)-len(refAllele)+len(altAllele))
	out = append(out, refWindow[:spliceStart]...)
	out = append(out, altAllele...)
	out = append(out, refWindow[end:]...)
	return out
}
