package bcfio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PROSIC/libprosic/internal/errs"
	"github.com/PROSIC/libprosic/internal/obsio"
	"github.com/PROSIC/libprosic/internal/observation"
	"github.com/PROSIC/libprosic/internal/variant"
)

// ObservationHeader carries the two header records §6 requires on a
// preprocessed observation stream: the format version (checked on read) and
// the preprocessing args that produced it (opaque to bcfio, round-tripped
// verbatim).
type ObservationHeader struct {
	FormatVersion  string
	PreprocessArgs string
	Samples        []string
}

// WriteObservationHeader writes the ##varlociraptor_* header lines and the
// #CHROM column header naming the sample columns, per §6's BCF header
// contract.
func WriteObservationHeader(w io.Writer, h ObservationHeader) error {
	if _, err := fmt.Fprintf(w, "##varlociraptor_observation_format_version=%s\n", obsio.OBSERVATION_FORMAT_VERSION); err != nil {
		return errs.NewObservationFormat("writing format version header: " + err.Error())
	}
	if h.PreprocessArgs != "" {
		if _, err := fmt.Fprintf(w, "##varlociraptor_preprocess_args=%s\n", h.PreprocessArgs); err != nil {
			return err
		}
	}
	cols := append([]string{"CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}, h.Samples...)
	_, err := fmt.Fprintf(w, "#%s\n", strings.Join(cols, "\t"))
	return err
}

// WriteObservationRecord serializes one candidate's per-sample pileups as a
// single VCF-shaped line, encoding each sample's obsio.Block into the §6
// INFO tags (PROB_MAPPING, PROB_ALT, ...) joined by sample name, e.g.
// "tumor_PROB_ALT". sampleOrder fixes the column order to match the header.
func WriteObservationRecord(w io.Writer, v *variant.Variant, sampleOrder []string, pileups map[string]observation.Pileup) error {
	info := make([]string, 0, 9*len(sampleOrder))
	for _, sample := range sampleOrder {
		pileup, ok := pileups[sample]
		if !ok {
			continue
		}
		block := obsio.Encode(pileup)
		checksum, err := obsio.Checksum(block.RawBytes())
		if err != nil {
			return err
		}
		prefix := sample + "_"
		info = append(info,
			prefix+"PROB_MAPPING="+joinInt32s(block.ProbMapping),
			prefix+"PROB_ALT="+joinInt32s(block.ProbAlt),
			prefix+"PROB_REF="+joinInt32s(block.ProbRef),
			prefix+"PROB_MISSED_ALLELE="+joinInt32s(block.ProbMissedAllele),
			prefix+"PROB_SAMPLE_ALT="+joinInt32s(block.ProbSampleAlt),
			prefix+"PROB_DOUBLE_OVERLAP="+joinInt32s(block.ProbOverlap),
			prefix+"PROB_ANY_STRAND="+joinInt32s(block.ProbAnyStrand),
			prefix+"FORWARD_STRAND="+hexBytes(block.ForwardStrand),
			prefix+"REVERSE_STRAND="+hexBytes(block.ReverseStrand),
			prefix+"N="+strconv.Itoa(block.N),
			prefix+"CHECKSUM="+strconv.FormatUint(checksum, 10),
		)
	}
	alt := string(v.Alt)
	if v.Kind == variant.Breakend {
		alt = v.BreakendSpec
	}
	if alt == "" {
		alt = "."
	}
	ref := string(v.Ref)
	if ref == "" {
		ref = "N"
	}
	_, err := fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t.\t.\t%s\n",
		v.Contig, v.Start+1, v.ID, ref, alt, strings.Join(info, ";"))
	return err
}

// ReadObservationRecords streams observation records from r, reconstructing
// each sample's pileup via obsio.Decode and verifying its checksum, per
// §4.7/§8's round-trip invariant. It returns an error wrapping
// *errs.ObservationFormatError if the format version doesn't match
// obsio.OBSERVATION_FORMAT_VERSION.
func ReadObservationRecords(r io.Reader, emit func(v *variant.Variant, pileups map[string]observation.Pileup) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	var samples []string
	sawVersion := false
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "##varlociraptor_observation_format_version=") {
			got := strings.TrimPrefix(line, "##varlociraptor_observation_format_version=")
			if got != obsio.OBSERVATION_FORMAT_VERSION {
				return errs.NewObservationFormat("unsupported observation format version %q (expected %q)", got, obsio.OBSERVATION_FORMAT_VERSION)
			}
			sawVersion = true
			continue
		}
		if strings.HasPrefix(line, "##") {
			continue
		}
		if strings.HasPrefix(line, "#") {
			cols := strings.Split(strings.TrimPrefix(line, "#"), "\t")
			if len(cols) > 8 {
				samples = cols[8:]
			}
			continue
		}
		if !sawVersion {
			return errs.NewObservationFormat("observation stream missing format version header")
		}
		v, pileups, err := parseObservationLine(line, samples)
		if err != nil {
			return err
		}
		if err := emit(v, pileups); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseObservationLine(line string, samples []string) (*variant.Variant, map[string]observation.Pileup, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, nil, errs.NewObservationFormat("observation line has %d columns, need >= 8", len(fields))
	}
	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, nil, errs.NewObservationFormat("malformed POS %q", fields[1])
	}
	v := &variant.Variant{Contig: fields[0], Start: pos - 1, ID: fields[2], Ref: []byte(fields[3]), Alt: []byte(fields[4])}

	info := parseInfo(fields[7])
	pileups := make(map[string]observation.Pileup, len(samples))
	for _, sample := range samples {
		prefix := sample + "_"
		n, ok := parseInt(info[prefix+"N"])
		if !ok {
			continue
		}
		block := obsio.Block{N: int(n)}
		block.ProbMapping, err = parseInt32s(info[prefix+"PROB_MAPPING"])
		if err != nil {
			return nil, nil, err
		}
		block.ProbAlt, err = parseInt32s(info[prefix+"PROB_ALT"])
		if err != nil {
			return nil, nil, err
		}
		block.ProbRef, err = parseInt32s(info[prefix+"PROB_REF"])
		if err != nil {
			return nil, nil, err
		}
		block.ProbMissedAllele, err = parseInt32s(info[prefix+"PROB_MISSED_ALLELE"])
		if err != nil {
			return nil, nil, err
		}
		block.ProbSampleAlt, err = parseInt32s(info[prefix+"PROB_SAMPLE_ALT"])
		if err != nil {
			return nil, nil, err
		}
		block.ProbOverlap, err = parseInt32s(info[prefix+"PROB_DOUBLE_OVERLAP"])
		if err != nil {
			return nil, nil, err
		}
		block.ProbAnyStrand, err = parseInt32s(info[prefix+"PROB_ANY_STRAND"])
		if err != nil {
			return nil, nil, err
		}
		block.ForwardStrand, err = parseHexBytes(info[prefix+"FORWARD_STRAND"])
		if err != nil {
			return nil, nil, err
		}
		block.ReverseStrand, err = parseHexBytes(info[prefix+"REVERSE_STRAND"])
		if err != nil {
			return nil, nil, err
		}

		checksum, ok := parseInt(info[prefix+"CHECKSUM"])
		if !ok {
			return nil, nil, errs.NewObservationFormat("sample %s: missing checksum", sample)
		}
		if err := obsio.VerifyChecksum(block.RawBytes(), uint64(checksum)); err != nil {
			return nil, nil, err
		}
		pileups[sample] = obsio.Decode(block)
	}
	return v, pileups, nil
}

func joinInt32s(xs []int32) string {
	if len(xs) == 0 {
		return "."
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.FormatInt(int64(x), 10)
	}
	return strings.Join(parts, ",")
}

func parseInt32s(s string) ([]int32, error) {
	if s == "" || s == "." {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int32, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 32)
		if err != nil {
			return nil, errs.NewObservationFormat("malformed int32 array element %q", p)
		}
		out[i] = int32(n)
	}
	return out, nil
}

func hexBytes(b []byte) string {
	if len(b) == 0 {
		return "."
	}
	return fmt.Sprintf("%x", b)
}

func parseHexBytes(s string) ([]byte, error) {
	if s == "" || s == "." {
		return nil, nil
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		var v int
		if _, err := fmt.Sscanf(s[2*i:2*i+2], "%02x", &v); err != nil {
			return nil, errs.NewObservationFormat("malformed strand bitvec %q", s)
		}
		out[i] = byte(v)
	}
	return out, nil
}
