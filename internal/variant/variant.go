// Package variant implements the variant-type library of §4.3: one value
// type per candidate kind (SNV, MNV, deletion, insertion, inversion,
// duplication, replacement, breakend group, and the reference-confirming
// "None" kind), dispatched through a single table of
// {IsValidEvidence, ProbAlleles, ProbSampleAlt} instead of the
// interior-mutable, reference-counted dynamic dispatch the original uses
// (§9 "Dynamic dispatch across variant types").
package variant

import (
	"math"

	"github.com/PROSIC/libprosic/internal/errs"
	"github.com/PROSIC/libprosic/internal/logprob"
)

// Kind discriminates the closed set of candidate variant kinds.
type Kind int

const (
	SNV Kind = iota
	MNV
	Deletion
	Insertion
	Inversion
	Duplication
	Replacement
	Breakend
	None
)

func (k Kind) String() string {
	switch k {
	case SNV:
		return "SNV"
	case MNV:
		return "MNV"
	case Deletion:
		return "Deletion"
	case Insertion:
		return "Insertion"
	case Inversion:
		return "Inversion"
	case Duplication:
		return "Duplication"
	case Replacement:
		return "Replacement"
	case Breakend:
		return "Breakend"
	case None:
		return "None"
	default:
		return "Unknown"
	}
}

// Variant is a tagged-union value describing one candidate record, per §3.
type Variant struct {
	Kind Kind

	Contig string
	// Start is the 0-based start position of the variant on Contig.
	Start int64
	ID     string
	MateID string // only meaningful for Breakend

	Ref []byte // reference allele bases, when known
	Alt []byte // alt allele bases, for SNV/MNV/Insertion/Replacement

	// Length is the variant's reference-span length, for
	// Deletion/Inversion/Duplication (SVLEN in VCF terms).
	Length int64

	// BreakendSpec is the raw VCF ALT breakend spec string, for Breakend.
	BreakendSpec string
}

// Validate enforces the §3 invariants on a candidate's shape.
func (v *Variant) Validate() error {
	switch v.Kind {
	case SNV:
		if len(v.Ref) != 1 || len(v.Alt) != 1 {
			return errs.NewInput("SNV must have single-base ref and alt at %s:%d", v.Contig, v.Start)
		}
		if v.Ref[0] == v.Alt[0] {
			return errs.NewInput("SNV alt must differ from ref at %s:%d", v.Contig, v.Start)
		}
	case MNV:
		if len(v.Ref) != len(v.Alt) || len(v.Ref) < 2 {
			return errs.NewInput("MNV ref/alt must be equal length >= 2 at %s:%d", v.Contig, v.Start)
		}
	case Deletion:
		if v.Length < 1 {
			return errs.NewInput("deletion length must be >= 1 at %s:%d", v.Contig, v.Start)
		}
	case Insertion:
		if len(v.Alt) < 1 {
			return errs.NewInput("insertion alt must have length >= 1 at %s:%d", v.Contig, v.Start)
		}
	case Breakend:
		if v.BreakendSpec == "" {
			return errs.NewInput("breakend at %s:%d missing ALT spec", v.Contig, v.Start)
		}
		if v.MateID == "" {
			return errs.NewInput("breakend at %s:%d missing MATEID", v.Contig, v.Start)
		}
	}
	return nil
}

// End returns the variant's reference-coordinate end (exclusive), using
// Length for span-carrying kinds and len(Ref) otherwise.
func (v *Variant) End() int64 {
	switch v.Kind {
	case Deletion, Inversion, Duplication:
		return v.Start + v.Length
	case Replacement, MNV:
		return v.Start + int64(len(v.Ref))
	case SNV:
		return v.Start + 1
	default:
		return v.Start
	}
}

// OverlapClass classifies how a read/fragment spans a candidate's locus,
// per §4.3.
type OverlapClass int

const (
	// OverlapNone means the read/fragment does not usably overlap the
	// candidate; it must be rejected.
	OverlapNone OverlapClass = iota
	// OverlapEnclosing means the read/fragment spans both boundaries of the
	// variant.
	OverlapEnclosing
	// OverlapLeft means only the left boundary is covered.
	OverlapLeft
	// OverlapRight means only the right boundary is covered.
	OverlapRight
)

// ReadSpan describes the reference-coordinate span and softclip shape of one
// read relevant to overlap classification and window selection (§4.2/§4.3).
// It is a value type so the sample engine can construct it directly from a
// *sam.Record without sharing mutable state with the variant.
type ReadSpan struct {
	// Start, End are the read's reference-coordinate span [Start, End).
	Start, End int64
	// QueryStart, QueryEnd are the read-coordinate span of the aligned
	// portion (i.e. excluding softclips).
	QueryStart, QueryEnd int
	// SoftclipLeading, SoftclipTrailing are the lengths of softclips at the
	// 5' and 3' ends of the read as stored (not strand-adjusted).
	SoftclipLeading, SoftclipTrailing int
	// IsLeftMate is true when this read is the leftmost (lower-coordinate)
	// mate of a pair; used by the indel overlap-disqualification rule in
	// §4.3 ("leading softclips of a left-read and trailing softclips of a
	// right-read disqualify fragment use").
	IsLeftMate bool
}

// MaxIndelOverlap bounds how far into an indel's flanks a read may extend
// and still count as valid evidence (§4.3).
const MaxIndelOverlap = 50

// Classify returns the overlap class of a read against the variant's
// [Start, End) span.
func (v *Variant) Classify(r ReadSpan) OverlapClass {
	vs, ve := v.Start, v.End()
	if ve == vs {
		ve = vs + 1 // point variant (e.g. insertion anchor)
	}
	if r.End <= vs || r.Start >= ve {
		return OverlapNone
	}
	enclosesLeft := r.Start <= vs
	enclosesRight := r.End >= ve
	switch {
	case enclosesLeft && enclosesRight:
		return OverlapEnclosing
	case enclosesLeft:
		return OverlapLeft
	case enclosesRight:
		return OverlapRight
	default:
		return OverlapNone
	}
}

// IsValidEvidence implements the per-kind overlap-acceptance rule of §4.3.
// It returns false when the read must be rejected as evidence.
func (v *Variant) IsValidEvidence(r ReadSpan) bool {
	class := v.Classify(r)
	if class == OverlapNone {
		return false
	}
	switch v.Kind {
	case SNV, MNV, None:
		// Base-comparison kinds need only to cover the single locus.
		return class == OverlapEnclosing
	case Deletion, Insertion, Inversion, Duplication, Replacement:
		overlapLen := r.End - v.Start
		if v.Start-r.Start > overlapLen {
			overlapLen = v.Start - r.Start
		}
		if overlapLen > MaxIndelOverlap {
			return false
		}
		if r.IsLeftMate && r.SoftclipLeading > 0 && class != OverlapEnclosing {
			return false
		}
		if !r.IsLeftMate && r.SoftclipTrailing > 0 && class != OverlapEnclosing {
			return false
		}
		return true
	case Breakend:
		return true
	default:
		return false
	}
}

// AllowsFragmentEvidence reports whether this variant kind supports
// fragment-level (insert-size-informed) evidence at all, per §4.4 step 5.
// Deletions always do; insertions/inversions/duplications only at the
// sample's option (the caller threads that option through); SNV/MNV/None do
// not since there is no reference-span shift to detect.
func (v *Variant) AllowsFragmentEvidence(sampleOptIn bool) bool {
	switch v.Kind {
	case Deletion:
		return true
	case Insertion, Inversion, Duplication, Replacement:
		return sampleOptIn
	default:
		return false
	}
}

// FragmentShift returns the insert-size shift (alt PMF centered at mu-shift
// instead of mu) used by fragment-level evidence, per §4.4 step 5.
// Insertions disable the insert-size term entirely (enclosure detection is
// unreliable for them), signaled by returning ok=false.
func (v *Variant) FragmentShift() (shift float64, ok bool) {
	switch v.Kind {
	case Deletion:
		return float64(v.Length), true
	case Insertion:
		return 0, false
	case Inversion, Duplication, Replacement:
		return float64(v.Length), true
	default:
		return 0, false
	}
}

// ProbAllelesResult is the outcome of evaluating a variant against one piece
// of evidence: a (log P(ref), log P(alt)) pair, or Missed=true when neither
// allele could be evaluated (e.g. the breakpoint region wasn't reached).
type ProbAllelesResult struct {
	LogPRef, LogPAlt float64
	Missed           bool
}

// None's likelihood is fixed by definition (§9 Open Question): a
// reference-confirming site always yields P(ref)=1 and P(alt)=0, i.e.
// log P(ref)=0 and log P(alt)=-Inf.
func noneProbAlleles() ProbAllelesResult {
	return ProbAllelesResult{LogPRef: 0, LogPAlt: logprob.Zero}
}

// ProbSampleAlt returns log P(a true alt read/fragment would be sampled at
// this locus), per §4.3. SNV/MNV/None are certain (1); deletions account for
// the reduced valid-placement space as read length shrinks relative to the
// deletion; insertions use the read's overlap fraction with the insertion
// point; other kinds approximate deletion behavior via their span length.
func (v *Variant) ProbSampleAlt(readLen int, maxSoftclip int) float64 {
	switch v.Kind {
	case SNV, MNV, None, Breakend:
		return 0 // log(1)
	case Deletion, Inversion, Duplication, Replacement:
		span := v.Length
		if span <= 0 {
			span = int64(len(v.Ref))
		}
		feasible := float64(readLen+maxSoftclip) - float64(span)
		total := float64(readLen + maxSoftclip)
		if feasible <= 0 || total <= 0 {
			return logprob.Zero
		}
		return math.Log(feasible / total)
	case Insertion:
		insLen := len(v.Alt)
		total := readLen + maxSoftclip
		if total <= 0 {
			return logprob.Zero
		}
		frac := float64(total-insLen) / float64(total)
		if frac <= 0 {
			return logprob.Zero
		}
		return math.Log(frac)
	default:
		return logprob.Zero
	}
}
