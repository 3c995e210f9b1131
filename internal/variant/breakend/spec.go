// Package breakend implements the breakend-group sub-algorithm of §4.3:
// parsing VCF breakend ALT specs, assembling breakend groups into
// alt-haplotype graphs, and the arena that holds in-flight group builders
// until their last record arrives (§9 "Arena for breakend groups").
package breakend

import (
	"regexp"

	"github.com/PROSIC/libprosic/internal/errs"
)

// ExtensionModification describes whether a breakend's extension sequence
// is taken as-is or reverse-complemented when walking the alt haplotype.
type ExtensionModification int

const (
	// None: the extension sequence is used as written.
	None ExtensionModification = iota
	// ReverseComplement: the extension sequence must be reverse-complemented.
	ReverseComplement
)

// Side distinguishes the two written forms of a breakend ALT.
type Side int

const (
	// LeftOfPos: the ALT's bases follow the bracketed join locus, spec
	// form `]chr:pos]..ref..` or `[chr:pos[..ref..`.
	LeftOfPos Side = iota
	// RightOfPos: the ALT's bases precede the bracketed join locus, spec
	// form `..ref..[chr:pos[` or `..ref..]chr:pos]`.
	RightOfPos
)

// Alt is one parsed breakend ALT record, per the VCF breakend
// specification referenced in §4.3.
type Alt struct {
	Mod        ExtensionModification
	Side       Side
	Extension  []byte // the non-join-locus bases carried in the ALT string
	JoinContig string
	JoinPos    int64 // 0-based
}

// `t[p[` / `t]p]` / `[p[t` / `]p]t` where t is the extension (ref-anchored
// bases) and p is chr:pos. Exactly one of the two regexes below matches a
// well-formed breakend ALT.
var (
	extBeforeBracket = regexp.MustCompile(`^([ACGTNacgtn]+)([\[\]])([^:]+):(\d+)([\[\]])$`)
	extAfterBracket  = regexp.MustCompile(`^([\[\]])([^:]+):(\d+)([\[\]])([ACGTNacgtn]+)$`)
)

// ParseAlt parses a single breakend ALT spec string into an Alt.
func ParseAlt(spec string) (Alt, error) {
	if m := extBeforeBracket.FindStringSubmatch(spec); m != nil {
		bracket := m[2]
		pos, err := parsePos(m[4])
		if err != nil {
			return Alt{}, err
		}
		mod := None
		if bracket == "]" {
			mod = ReverseComplement
		}
		return Alt{
			Mod:        mod,
			Side:       RightOfPos,
			Extension:  []byte(m[1]),
			JoinContig: m[3],
			JoinPos:    pos,
		}, nil
	}
	if m := extAfterBracket.FindStringSubmatch(spec); m != nil {
		bracket := m[1]
		pos, err := parsePos(m[3])
		if err != nil {
			return Alt{}, err
		}
		mod := None
		if bracket == "]" {
			mod = ReverseComplement
		}
		return Alt{
			Mod:        mod,
			Side:       LeftOfPos,
			Extension:  []byte(m[5]),
			JoinContig: m[2],
			JoinPos:    pos,
		}, nil
	}
	return Alt{}, errs.NewInput("malformed breakend ALT spec: %q", spec)
}

func parsePos(s string) (int64, error) {
	var v int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errs.NewInput("malformed breakend position: %q", s)
		}
		v = v*10 + int64(c-'0')
	}
	if v <= 0 {
		return 0, errs.NewInput("breakend position must be positive (1-based VCF): %q", s)
	}
	return v - 1, nil // convert to 0-based
}

// ReverseComplementBytes returns the reverse complement of seq.
func ReverseComplementBytes(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, b := range seq {
		out[len(seq)-1-i] = complement(b)
	}
	return out
}

func complement(b byte) byte {
	switch b {
	case 'A', 'a':
		return 'T'
	case 'C', 'c':
		return 'G'
	case 'G', 'g':
		return 'C'
	case 'T', 't':
		return 'A'
	default:
		return 'N'
	}
}
