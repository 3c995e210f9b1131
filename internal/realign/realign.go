// Package realign implements the pair-HMM realigner of §4.2: a three-state
// (Match / InsertInRead / DeleteFromRead) hidden Markov model under an
// affine-gap model, run semiglobally (free start/end gaps on the reference
// axis) to score a read against a reference window and against a variant's
// alt haplotype window.
package realign

import (
	"math"

	"github.com/PROSIC/libprosic/internal/logprob"
)

// Params holds the affine-gap model parameters, all as natural-log
// probabilities, per §4.2.
type Params struct {
	// ProbGapX is the probability of opening an insertion (extra base in the
	// read relative to the reference/alt), e.g. a spurious insertion
	// artifact rate.
	ProbGapX float64
	// ProbGapY is the probability of opening a deletion (a reference/alt
	// base with no corresponding read base).
	ProbGapY float64
	// ProbGapXExtend, ProbGapYExtend are the corresponding gap-extension
	// probabilities.
	ProbGapXExtend float64
	ProbGapYExtend float64
}

// DefaultParams returns parameters derived from the preprocessing knobs'
// defaults (§6): spurious_ins_rate=2.8e-6, spurious_del_rate=5.1e-6, and
// zero extension rates (with an extension rate of 0 a gap cannot be
// extended, so every gap is a single base long).
func DefaultParams() Params {
	return Params{
		ProbGapX:       math.Log(2.8e-6),
		ProbGapY:       math.Log(5.1e-6),
		ProbGapXExtend: logprob.Zero,
		ProbGapYExtend: logprob.Zero,
	}
}

// Haplotype supplies the bases of a reference or alt haplotype window by
// index, abstracting over a contiguous reference slice and the
// ref-prefix/inserted-bases/ref-suffix interpolation used for indel alt
// windows (§4.2).
type Haplotype interface {
	Base(i int) byte
	Len() int
}

// Bytes adapts a plain byte slice to the Haplotype interface.
type Bytes []byte

func (b Bytes) Base(i int) byte { return b[i] }
func (b Bytes) Len() int        { return len(b) }

// log1mExp returns log(1 - exp(x)) for x <= 0, used to turn a gap-open/
// extend log-probability into its complement.
func log1mExp(x float64) float64 {
	if x == logprob.Zero {
		return 0
	}
	if x >= 0 {
		return logprob.Zero
	}
	return math.Log1p(-math.Exp(x))
}

// BaseEmission returns log P(readBase | hapBase, miscallProb), per §4.2:
// P(miscall)/3 on mismatch, 1-P(miscall) on match. N bases in either
// sequence are treated as an automatic mismatch-quality emission of 1/4 (no
// information).
func BaseEmission(readBase, hapBase byte, miscallLogProb float64) float64 {
	return baseEmission(readBase, hapBase, miscallLogProb)
}

func baseEmission(readBase, hapBase byte, miscallLogProb float64) float64 {
	if readBase == 'N' || hapBase == 'N' {
		return math.Log(0.25)
	}
	if readBase == hapBase {
		return log1mExp(miscallLogProb)
	}
	return miscallLogProb - math.Log(3)
}

// PhredToLogProb converts a PHRED-scaled base quality to a natural-log
// miscall probability.
func PhredToLogProb(qual byte) float64 {
	return phredToLogProb(qual)
}

func phredToLogProb(qual byte) float64 {
	// log(10) * (-qual/10)
	return -float64(qual) * (math.Ln10 / 10)
}

// Align runs the semiglobal pair-HMM of §4.2: readSeq/readQual (PHRED bytes,
// not ASCII-offset) against hap, returning the log-probability of the best
// (summed-over-paths) alignment. Free start/end gaps on hap mean the DP's
// first row is initialized to log(1) at every column (start anywhere in hap)
// and the final score is the log-sum-exp of the M and Y states across the
// whole last row (end anywhere in hap).
func Align(readSeq []byte, readQual []byte, hap Haplotype, p Params) float64 {
	n := len(readSeq)
	m := hap.Len()
	if n == 0 {
		return 0
	}
	if m == 0 {
		return logprob.Zero
	}

	notGapX := log1mExp(logprob.Add(p.ProbGapX, p.ProbGapY))
	notGapXExtend := log1mExp(p.ProbGapXExtend)
	notGapYExtend := log1mExp(p.ProbGapYExtend)

	// M, X, Y are (n+1) x (m+1) matrices. X = insertion-in-read (consumes a
	// read base, no hap base); Y = deletion-from-read (consumes a hap base,
	// no read base).
	size := (n + 1) * (m + 1)
	M := make([]float64, size)
	X := make([]float64, size)
	Y := make([]float64, size)
	idx := func(i, j int) int { return i*(m+1) + j }

	for k := range M {
		M[k] = logprob.Zero
		X[k] = logprob.Zero
		Y[k] = logprob.Zero
	}
	// Semiglobal: free start gaps on hap -> any (0, j) is a valid alignment
	// start with probability 1.
	for j := 0; j <= m; j++ {
		M[idx(0, j)] = 0
	}
	// Row 0's Y must be settled before row 1 is computed, since row 1's M
	// diagonal term reads Y[idx(0, j-1)].
	for j := 1; j <= m; j++ {
		Y[idx(0, j)] = logprob.Sum([]float64{
			M[idx(0, j-1)] + p.ProbGapY,
			Y[idx(0, j-1)] + p.ProbGapYExtend,
		})
	}

	for i := 1; i <= n; i++ {
		miscall := phredToLogProb(readQual[i-1])
		for j := 0; j <= m; j++ {
			var mFromDiag, xFromUp float64
			if j > 0 {
				mFromDiag = logprob.Sum([]float64{
					M[idx(i-1, j-1)] + notGapX,
					X[idx(i-1, j-1)] + notGapXExtend,
					Y[idx(i-1, j-1)] + notGapYExtend,
				})
			} else {
				mFromDiag = logprob.Zero
			}
			var hapBase byte
			if j > 0 {
				hapBase = hap.Base(j - 1)
			}
			if j > 0 {
				M[idx(i, j)] = mFromDiag + baseEmission(readSeq[i-1], hapBase, miscall)
			} else {
				M[idx(i, j)] = logprob.Zero
			}

			xFromUp = logprob.Sum([]float64{
				M[idx(i-1, j)] + p.ProbGapX,
				X[idx(i-1, j)] + p.ProbGapXExtend,
			})
			// Insertion emission: the extra read base carries no positional
			// information relative to hap, so it is emitted uniformly.
			X[idx(i, j)] = xFromUp + math.Log(0.25)

			// Y depends only on column j-1 of the same row i, so it can be
			// filled in the same pass as M/X; row i+1's M diagonal term
			// needs Y[idx(i,j-1)] already settled, not left at its
			// logprob.Zero initializer.
			if j > 0 {
				Y[idx(i, j)] = logprob.Sum([]float64{
					M[idx(i, j-1)] + p.ProbGapY,
					Y[idx(i, j-1)] + p.ProbGapYExtend,
				})
			}
		}
	}

	// Free end gaps on hap: sum over every ending column of the last read
	// row, across both M and Y (alignment may end with a deletion).
	terms := make([]float64, 0, 2*(m+1))
	for j := 0; j <= m; j++ {
		terms = append(terms, M[idx(n, j)], Y[idx(n, j)])
	}
	return logprob.Sum(terms)
}

// AlignRefAndAlt scores readSeq/readQual against both a reference window and
// an alt haplotype window, returning (log P(read|ref), log P(read|alt)),
// per the §4.2 contract.
func AlignRefAndAlt(readSeq, readQual []byte, refWindow Haplotype, altWindow Haplotype, p Params) (logPRef, logPAlt float64) {
	return Align(readSeq, readQual, refWindow, p), Align(readSeq, readQual, altWindow, p)
}
