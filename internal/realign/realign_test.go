package realign

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func qualSlice(n int, q byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = q
	}
	return out
}

// TestAlignSymmetry is §8 scenario 5: a read identical to the reference
// window scores log P(ref) ~= 0, the only cost being each base's Q30
// miscall probability, and the same read against a one-base mismatch alt
// scores about 35 PHRED worse: 30 for the miscall plus 10*log10(3) for the
// mismatch emission being split over the three wrong bases.
func TestAlignSymmetry(t *testing.T) {
	hap := Bytes("ACGTACGTACGT")
	read := []byte("ACGTACGTACGT")
	qual := qualSlice(len(read), 30)
	p := DefaultParams()

	logPRef := Align(read, qual, hap, p)
	assert.InDelta(t, float64(len(read))*math.Log1p(-0.001), logPRef, 1e-3)

	alt := Bytes("ACGTAAGTACGT") // one mismatch at index 5
	logPAlt := Align(read, qual, alt, p)

	gapPHRED := -10 * (logPRef - logPAlt) / math.Ln10
	assert.InDelta(t, 30+10*math.Log10(3), gapPHRED, 1)
}

// TestAlignDeletionThenMatch covers a read that matches, then spans a
// one-base deletion in hap, then matches again (the common case of a
// window straddling a breakpoint with matching flanks on both sides,
// §4.2). The matching flank after the gap must contribute to the score via
// a normal gap-close transition, not be lost because the deletion state
// wasn't available yet when the following match row was computed.
func TestAlignDeletionThenMatch(t *testing.T) {
	read := []byte("AAAACCCC")
	qual := qualSlice(len(read), 30)
	p := DefaultParams()

	// hap has one extra base ("G") inserted between the matching flanks,
	// i.e. the read has a single-base deletion relative to hap.
	hap := Bytes("AAAAGCCCC")

	logP := Align(read, qual, hap, p)
	assert.False(t, math.IsInf(logP, -1))

	// A read that matches hap everywhere (no gap needed) is the ceiling:
	// any gap can only cost probability relative to a gap-free alignment.
	perfectHap := Bytes("AAAACCCC")
	logPPerfect := Align(read, qual, perfectHap, p)
	assert.Less(t, logP, logPPerfect)

	// The cost of one clean gap-open/close should be on the order of a
	// single ProbGapY term, not the cost of re-aligning the whole matching
	// suffix as mismatches (which would be an order of magnitude worse).
	assert.Greater(t, logP, logPPerfect+10*p.ProbGapY)
}

func TestAlignEmptyRead(t *testing.T) {
	assert.Equal(t, 0.0, Align(nil, nil, Bytes("ACGT"), DefaultParams()))
}

func TestAlignEmptyHaplotype(t *testing.T) {
	logP := Align([]byte("A"), []byte{30}, Bytes(""), DefaultParams())
	assert.True(t, math.IsInf(logP, -1))
}

func TestBaseEmissionMatchVsMismatch(t *testing.T) {
	miscall := phredToLogProb(30)
	match := BaseEmission('A', 'A', miscall)
	mismatch := BaseEmission('A', 'C', miscall)
	assert.Greater(t, match, mismatch)
}

func TestBaseEmissionNIsUninformative(t *testing.T) {
	miscall := phredToLogProb(30)
	assert.InDelta(t, math.Log(0.25), BaseEmission('N', 'A', miscall), 1e-9)
	assert.InDelta(t, math.Log(0.25), BaseEmission('A', 'N', miscall), 1e-9)
}

func TestPhredToLogProbMonotonic(t *testing.T) {
	low := PhredToLogProb(10)
	high := PhredToLogProb(40)
	assert.Greater(t, low, high) // higher quality -> lower miscall probability
}

func TestAlignRefAndAlt(t *testing.T) {
	read := []byte("ACGT")
	qual := qualSlice(len(read), 30)
	ref := Bytes("ACGT")
	alt := Bytes("ACCT")
	logPRef, logPAlt := AlignRefAndAlt(read, qual, ref, alt, DefaultParams())
	assert.Greater(t, logPRef, logPAlt)
}
