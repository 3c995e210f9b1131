// Package obsio implements the §4.7 encoding of Observation records into
// compact BCF INFO fields: a nonlinear 16-bit "mini log-prob" quantization
// for each scalar, packed into 32-bit arrays for BCF transport (the BCF spec
// reserves math.MaxInt32 as a missing-value sentinel), a BitVec encoding for
// per-observation strand flags, and a highwayhash-keyed checksum trailer
// guarding the round-trip invariant of §8 against silent truncation.
package obsio

import (
	"encoding/binary"
	"math"

	"github.com/minio/highwayhash"
	"github.com/pkg/errors"

	"github.com/PROSIC/libprosic/internal/errs"
	"github.com/PROSIC/libprosic/internal/observation"
)

// OBSERVATION_FORMAT_VERSION is written into the BCF header
// (##varlociraptor_observation_format_version=...) and checked on read, per
// §4.7/§6. It is a plain version string; a reader rejects any header whose
// value differs from its own.
const OBSERVATION_FORMAT_VERSION = "2"

// checksumKey is a fixed 32-byte key for the highwayhash trailer. It is not
// a secret (the data it protects is not adversarial); its only job is to
// catch accidental truncation/corruption between preprocess and call.
var checksumKey = [32]byte{
	'v', 'a', 'r', 'l', 'o', 'c', 'i', 'r', 'a', 'p', 't', 'o', 'r',
	'-', 'o', 'b', 's', 'e', 'r', 'v', 'a', 't', 'i', 'o', 'n',
	'-', 'c', 'h', 'e', 'c', 'k', 's',
}

// minLogProb and miniLogProbLevels control the resolution of the mini log-prob
// quantization: log-probabilities are linearly rescaled from
// [minLogProb, 0] into [0, 65534], reserving 65535 (0xFFFF) as an
// explicit "missing" sentinel distinguishable from a valid quantized zero.
const (
	minLogProb        = -700.0 // log(~1e-304), comfortably below float64 underflow
	miniLogProbLevels = 65534
	miniLogProbMissing = 0xFFFF
)

// EncodeMiniLogProb quantizes a natural-log probability (<=0, or -Inf) into
// a 16-bit nonlinear code.
func EncodeMiniLogProb(logProb float64) uint16 {
	if math.IsInf(logProb, -1) {
		return miniLogProbMissing
	}
	if logProb < minLogProb {
		logProb = minLogProb
	}
	if logProb > 0 {
		logProb = 0
	}
	frac := logProb / minLogProb // in [0, 1], 0 at logProb=0
	code := uint16(frac * float64(miniLogProbLevels))
	return code
}

// DecodeMiniLogProb inverts EncodeMiniLogProb, returning the original
// log-probability to within the quantization's resolution (§8 round-trip
// invariant).
func DecodeMiniLogProb(code uint16) float64 {
	if code == miniLogProbMissing {
		return math.Inf(-1)
	}
	frac := float64(code) / float64(miniLogProbLevels)
	return frac * minLogProb
}

// EncodeMiniLogProbArray packs a slice of log-probs as mini log-probs
// reinterpreted two-per-int32 for BCF INFO transport, per §4.7. A trailing
// zero pad byte is appended if the input has an odd count, so the byte
// length is always a multiple of 4 (one int32 per pair of uint16s).
func EncodeMiniLogProbArray(logProbs []float64) []int32 {
	n := len(logProbs)
	out := make([]int32, 0, (n+1)/2)
	for i := 0; i < n; i += 2 {
		lo := EncodeMiniLogProb(logProbs[i])
		var hi uint16
		if i+1 < n {
			hi = EncodeMiniLogProb(logProbs[i+1])
		}
		out = append(out, int32(uint32(lo)|uint32(hi)<<16))
	}
	return out
}

// DecodeMiniLogProbArray is the inverse of EncodeMiniLogProbArray, given the
// original element count n (since the last int32 may carry one real value
// plus one pad).
func DecodeMiniLogProbArray(packed []int32, n int) []float64 {
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		word := packed[i/2]
		var code uint16
		if i%2 == 0 {
			code = uint16(uint32(word) & 0xFFFF)
		} else {
			code = uint16(uint32(word) >> 16)
		}
		out = append(out, DecodeMiniLogProb(code))
	}
	return out
}

// BitVec is a compact bitset for per-observation boolean flags (forward/
// reverse strand), per §4.7.
type BitVec []byte

// NewBitVec allocates a BitVec for n booleans.
func NewBitVec(n int) BitVec {
	return make(BitVec, (n+7)/8)
}

// Set stores bit i.
func (b BitVec) Set(i int, v bool) {
	if v {
		b[i/8] |= 1 << uint(i%8)
	} else {
		b[i/8] &^= 1 << uint(i%8)
	}
}

// Get reads bit i.
func (b BitVec) Get(i int) bool {
	return b[i/8]&(1<<uint(i%8)) != 0
}

// Block is the serialized form of one sample's observations at one
// candidate: the §6 PROB_* and strand-flag INFO fields, plus a checksum
// trailer.
type Block struct {
	ProbMapping      []int32
	ProbAlt          []int32
	ProbRef          []int32
	ProbMissedAllele []int32
	ProbSampleAlt    []int32
	ProbOverlap      []int32
	ProbAnyStrand    []int32
	ForwardStrand    BitVec
	ReverseStrand    BitVec
	N                int
}

// Encode serializes a pileup into a Block ready for BCF INFO field
// assignment.
func Encode(pileup observation.Pileup) Block {
	n := len(pileup)
	mapping := make([]float64, n)
	alt := make([]float64, n)
	ref := make([]float64, n)
	missed := make([]float64, n)
	sampleAlt := make([]float64, n)
	overlap := make([]float64, n)
	anyStrand := make([]float64, n)
	fwd := NewBitVec(n)
	rev := NewBitVec(n)
	for i, o := range pileup {
		mapping[i] = o.ProbMapping
		alt[i] = o.ProbAlt
		ref[i] = o.ProbRef
		missed[i] = o.ProbMissedAllele
		sampleAlt[i] = o.ProbSampleAlt
		overlap[i] = o.ProbOverlap
		anyStrand[i] = o.ProbAnyStrand
		fwd.Set(i, o.ForwardStrand)
		rev.Set(i, o.ReverseStrand)
	}
	return Block{
		ProbMapping:      EncodeMiniLogProbArray(mapping),
		ProbAlt:          EncodeMiniLogProbArray(alt),
		ProbRef:          EncodeMiniLogProbArray(ref),
		ProbMissedAllele: EncodeMiniLogProbArray(missed),
		ProbSampleAlt:    EncodeMiniLogProbArray(sampleAlt),
		ProbOverlap:      EncodeMiniLogProbArray(overlap),
		ProbAnyStrand:    EncodeMiniLogProbArray(anyStrand),
		ForwardStrand:    fwd,
		ReverseStrand:    rev,
		N:                n,
	}
}

// Decode reconstructs a pileup from a Block.
func Decode(b Block) observation.Pileup {
	mapping := DecodeMiniLogProbArray(b.ProbMapping, b.N)
	alt := DecodeMiniLogProbArray(b.ProbAlt, b.N)
	ref := DecodeMiniLogProbArray(b.ProbRef, b.N)
	missed := DecodeMiniLogProbArray(b.ProbMissedAllele, b.N)
	sampleAlt := DecodeMiniLogProbArray(b.ProbSampleAlt, b.N)
	overlap := DecodeMiniLogProbArray(b.ProbOverlap, b.N)
	anyStrand := DecodeMiniLogProbArray(b.ProbAnyStrand, b.N)
	out := make(observation.Pileup, b.N)
	for i := range out {
		out[i] = observation.Observation{
			ProbMapping:      mapping[i],
			ProbAlt:          alt[i],
			ProbRef:          ref[i],
			ProbMissedAllele: missed[i],
			ProbSampleAlt:    sampleAlt[i],
			ProbOverlap:      overlap[i],
			ProbAnyStrand:    anyStrand[i],
			ForwardStrand:    b.ForwardStrand.Get(i),
			ReverseStrand:    b.ReverseStrand.Get(i),
		}
	}
	return out
}

// Checksum computes the highwayhash trailer for a Block's wire
// representation, to be stored alongside it (e.g. as a further INFO field)
// and verified by VerifyChecksum on read.
func Checksum(raw []byte) (uint64, error) {
	h, err := highwayhash.New64(checksumKey[:])
	if err != nil {
		return 0, errors.Wrap(err, "obsio: initializing highwayhash")
	}
	if _, err := h.Write(raw); err != nil {
		return 0, errors.Wrap(err, "obsio: hashing observation block")
	}
	return h.Sum64(), nil
}

// VerifyChecksum recomputes the checksum of raw and compares it against
// want, returning an *errs.ObservationFormatError on mismatch.
func VerifyChecksum(raw []byte, want uint64) error {
	got, err := Checksum(raw)
	if err != nil {
		return err
	}
	if got != want {
		return errs.NewObservationFormat("checksum mismatch: observation block is truncated or corrupt")
	}
	return nil
}

// marshalInt32s is a small helper used by Checksum callers to get a stable
// byte representation of an int32 array prior to hashing.
func marshalInt32s(xs []int32) []byte {
	out := make([]byte, 4*len(xs))
	for i, x := range xs {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(x))
	}
	return out
}

// RawBytes returns a stable byte serialization of a Block suitable for
// Checksum/VerifyChecksum.
func (b Block) RawBytes() []byte {
	var out []byte
	for _, arr := range [][]int32{b.ProbMapping, b.ProbAlt, b.ProbRef, b.ProbMissedAllele, b.ProbSampleAlt, b.ProbOverlap, b.ProbAnyStrand} {
		out = append(out, marshalInt32s(arr)...)
	}
	out = append(out, b.ForwardStrand...)
	out = append(out, b.ReverseStrand...)
	return out
}
