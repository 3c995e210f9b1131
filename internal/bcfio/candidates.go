// Package bcfio implements the §6 file-format boundary: reading candidate
// variants from a VCF/BCF-style text stream, and writing/reading the
// per-sample observation records the preprocessor produces (§4.6) using the
// §4.7 encoding in internal/obsio. Container-format decoding proper (the
// htslib BCF2 binary layout) is an explicit Non-goal of §1 ("serialization
// to/from BCF/VCF ... container formats" is an external collaborator); this
// package instead implements the VCF text rendering of that boundary, in
// the style of the pack's own mendelics-vcf reader, adapted to stream
// directly into internal/variant.Variant rather than a generic field map.
package bcfio

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/PROSIC/libprosic/internal/errs"
	"github.com/PROSIC/libprosic/internal/variant"
	"github.com/PROSIC/libprosic/internal/variant/breakend"
)

// CandidateRecord is one parsed candidate line: the variant itself, plus
// the event id §4.6 needs to dispatch breakend groups and the raw INFO map
// for fields bcfio itself doesn't interpret.
type CandidateRecord struct {
	Variant *variant.Variant
	Info    map[string]string

	// BreakendEventID and BreakendMember are populated only for Breakend
	// records, from the INFO EVENT tag and the parsed ALT spec. The event's
	// expected member count is not stored here: the caller supplies it via a
	// pre-pass over the stream (§4.6's "pre-computed breakend index",
	// preprocess.Job.BreakendExpectedCount); bcfio itself does not compute
	// the count, since that requires a full first pass untangled from
	// streaming.
	BreakendEventID string
	BreakendMember  *breakend.Member
}

// ToChannel reads a VCF candidate stream from r and emits one
// CandidateRecord per data line, in file order, onto out. Malformed lines
// are sent to invalid instead of out. Both channels are closed when r is
// exhausted. Mirrors the pack's vcf.ToChannel streaming shape, generalized
// to build internal/variant.Variant values instead of a generic vcf.Variant.
func ToChannel(r io.Reader, out chan<- CandidateRecord, invalid chan<- InvalidLine) error {
	defer close(out)
	defer close(invalid)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	var sampleNames []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "##") {
			continue
		}
		if strings.HasPrefix(line, "#") {
			fields := strings.Split(strings.TrimPrefix(line, "#"), "\t")
			if len(fields) > 9 {
				sampleNames = fields[9:]
			}
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			invalid <- InvalidLine{Line: line, Err: err}
			continue
		}
		out <- rec
	}
	_ = sampleNames // sample columns on the candidate stream carry no genotype data §4.6 needs
	return scanner.Err()
}

// InvalidLine pairs a line that failed to parse with its error, mirroring
// the pack's vcf.InvalidLine.
type InvalidLine struct {
	Line string
	Err  error
}

func parseLine(line string) (CandidateRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return CandidateRecord{}, errs.NewInput("candidate line has %d columns, need >= 8", len(fields))
	}
	contig, posField, id, ref, alt, _, _, infoField := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6], fields[7]

	pos, err := strconv.ParseInt(posField, 10, 64)
	if err != nil {
		return CandidateRecord{}, errs.NewInput("malformed POS %q", posField)
	}
	info := parseInfo(infoField)

	v := &variant.Variant{
		Contig: contig,
		Start:  pos - 1, // VCF is 1-based
		ID:     id,
		Ref:    []byte(ref),
	}

	rec := CandidateRecord{Variant: v, Info: info}

	switch {
	case isBreakendAlt(alt):
		v.Kind = variant.Breakend
		v.BreakendSpec = alt
		v.MateID = info["MATEID"]
		rec.BreakendEventID = info["EVENT"]
		altSpec, err := breakend.ParseAlt(alt)
		if err != nil {
			return CandidateRecord{}, err
		}
		rec.BreakendMember = &breakend.Member{ID: id, RecordID: id, Alt: altSpec}
	case info["SVTYPE"] != "":
		if err := classifyStructural(v, info, alt); err != nil {
			return CandidateRecord{}, err
		}
	case len(ref) == 1 && len(alt) == 1:
		v.Kind = variant.SNV
		v.Alt = []byte(alt)
	case len(ref) == len(alt):
		v.Kind = variant.MNV
		v.Alt = []byte(alt)
	case len(alt) > len(ref) && strings.HasPrefix(alt, ref):
		v.Kind = variant.Insertion
		v.Alt = []byte(alt[len(ref):])
	case len(ref) > len(alt) && strings.HasPrefix(ref, alt):
		v.Kind = variant.Deletion
		v.Length = int64(len(ref) - len(alt))
	default:
		v.Kind = variant.Replacement
		v.Alt = []byte(alt)
	}

	if err := v.Validate(); err != nil {
		return CandidateRecord{}, err
	}
	return rec, nil
}

func isBreakendAlt(alt string) bool {
	return strings.ContainsAny(alt, "[]")
}

func classifyStructural(v *variant.Variant, info map[string]string, alt string) error {
	svlen, hasLen := parseSVLen(info["SVLEN"])
	switch info["SVTYPE"] {
	case "DEL":
		v.Kind = variant.Deletion
		if hasLen {
			v.Length = svlen
		} else if end, ok := parseInt(info["END"]); ok {
			v.Length = end - v.Start
		}
	case "DUP", "DUP:TANDEM":
		v.Kind = variant.Duplication
		if hasLen {
			v.Length = svlen
		} else if end, ok := parseInt(info["END"]); ok {
			v.Length = end - v.Start
		}
	case "INV":
		v.Kind = variant.Inversion
		if hasLen {
			v.Length = svlen
		} else if end, ok := parseInt(info["END"]); ok {
			v.Length = end - v.Start
		}
	case "INS":
		v.Kind = variant.Insertion
		v.Alt = []byte(alt)
	default:
		return errs.NewInput("unsupported SVTYPE %q", info["SVTYPE"])
	}
	return nil
}

func parseSVLen(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	if n < 0 {
		n = -n
	}
	return n, true
}

func parseInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func parseInfo(field string) map[string]string {
	info := make(map[string]string)
	if field == "" || field == "." {
		return info
	}
	for _, entry := range strings.Split(field, ";") {
		if entry == "" {
			continue
		}
		if k, v, found := strings.Cut(entry, "="); found {
			info[k] = v
		} else {
			info[entry] = "true"
		}
	}
	return info
}
