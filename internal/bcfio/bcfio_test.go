package bcfio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PROSIC/libprosic/internal/observation"
	"github.com/PROSIC/libprosic/internal/variant"
)

func TestToChannelParsesSNVAndIndel(t *testing.T) {
	input := strings.Join([]string{
		"##fileformat=VCFv4.2",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
		"chr1\t100\trs1\tA\tT\t.\t.\t.",
		"chr1\t200\tdel1\tATGC\tA\t.\t.\t.",
		"chr1\t300\tins1\tA\tATGC\t.\t.\t.",
	}, "\n") + "\n"

	out := make(chan CandidateRecord, 8)
	invalid := make(chan InvalidLine, 8)
	err := ToChannel(strings.NewReader(input), out, invalid)
	require.NoError(t, err)

	var records []CandidateRecord
	for r := range out {
		records = append(records, r)
	}
	for range invalid {
		t.Fatal("expected no invalid lines")
	}
	require.Len(t, records, 3)

	assert.Equal(t, variant.SNV, records[0].Variant.Kind)
	assert.Equal(t, int64(99), records[0].Variant.Start)
	assert.Equal(t, "T", string(records[0].Variant.Alt))

	assert.Equal(t, variant.Deletion, records[1].Variant.Kind)
	assert.Equal(t, int64(3), records[1].Variant.Length)

	assert.Equal(t, variant.Insertion, records[2].Variant.Kind)
	assert.Equal(t, "TGC", string(records[2].Variant.Alt))
}

func TestToChannelParsesBreakend(t *testing.T) {
	input := strings.Join([]string{
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
		"chr1\t500\tbnd1\tG\tG[chr2:100[\t.\t.\tMATEID=bnd2;EVENT=ev1",
	}, "\n") + "\n"

	out := make(chan CandidateRecord, 4)
	invalid := make(chan InvalidLine, 4)
	require.NoError(t, ToChannel(strings.NewReader(input), out, invalid))

	rec := <-out
	assert.Equal(t, variant.Breakend, rec.Variant.Kind)
	assert.Equal(t, "bnd2", rec.Variant.MateID)
	assert.Equal(t, "ev1", rec.BreakendEventID)
	require.NotNil(t, rec.BreakendMember)
	assert.Equal(t, "bnd1", rec.BreakendMember.ID)
}

func TestToChannelReportsInvalidLine(t *testing.T) {
	input := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\nchr1\tnotanumber\tx\tA\tT\t.\t.\t.\n"

	out := make(chan CandidateRecord, 4)
	invalid := make(chan InvalidLine, 4)
	require.NoError(t, ToChannel(strings.NewReader(input), out, invalid))

	for range out {
		t.Fatal("expected no valid records")
	}
	bad := <-invalid
	assert.Contains(t, bad.Line, "notanumber")
	assert.Error(t, bad.Err)
}

func TestObservationRecordRoundTrips(t *testing.T) {
	v := &variant.Variant{Kind: variant.SNV, Contig: "chr1", Start: 999, ID: "rs1", Ref: []byte("A"), Alt: []byte("T")}
	pileups := map[string]observation.Pileup{
		"tumor": {
			{ProbMapping: -0.1, ProbAlt: -1.2, ProbRef: -3.4, ForwardStrand: true, ReverseStrand: false},
			{ProbMapping: -0.2, ProbAlt: -2.2, ProbRef: -0.4, ForwardStrand: false, ReverseStrand: true},
		},
		"normal": {
			{ProbMapping: -0.05, ProbAlt: -5.0, ProbRef: -0.01, ForwardStrand: true, ReverseStrand: true},
		},
	}
	samples := []string{"tumor", "normal"}

	var buf strings.Builder
	require.NoError(t, WriteObservationHeader(&buf, ObservationHeader{Samples: samples, PreprocessArgs: `{"max_depth":200}`}))
	require.NoError(t, WriteObservationRecord(&buf, v, samples, pileups))

	var gotVariant *variant.Variant
	var gotPileups map[string]observation.Pileup
	err := ReadObservationRecords(strings.NewReader(buf.String()), func(rv *variant.Variant, rp map[string]observation.Pileup) error {
		gotVariant = rv
		gotPileups = rp
		return nil
	})
	require.NoError(t, err)

	require.NotNil(t, gotVariant)
	assert.Equal(t, "chr1", gotVariant.Contig)
	assert.Equal(t, int64(999), gotVariant.Start)

	require.Len(t, gotPileups["tumor"], 2)
	assert.InDelta(t, -1.2, gotPileups["tumor"][0].ProbAlt, 0.05)
	assert.InDelta(t, -3.4, gotPileups["tumor"][0].ProbRef, 0.05)
	assert.True(t, gotPileups["tumor"][0].ForwardStrand)
	assert.False(t, gotPileups["tumor"][0].ReverseStrand)

	require.Len(t, gotPileups["normal"], 1)
	assert.InDelta(t, -5.0, gotPileups["normal"][0].ProbAlt, 0.05)
}

func TestReadObservationRecordsRejectsWrongVersion(t *testing.T) {
	input := "##varlociraptor_observation_format_version=999\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"
	err := ReadObservationRecords(strings.NewReader(input), func(*variant.Variant, map[string]observation.Pileup) error {
		t.Fatal("should not be reached")
		return nil
	})
	assert.Error(t, err)
}

func TestWriteResultFormatsEventProbabilities(t *testing.T) {
	v := &variant.Variant{Kind: variant.SNV, Contig: "chr1", Start: 9, ID: "rs1", Ref: []byte("A"), Alt: []byte("T")}
	af := 0.5
	var buf strings.Builder
	require.NoError(t, WriteResult(&buf, Call{Variant: v, EventPHRED: map[string]int{"present": 30, "absent": 0}, CaseAF: &af}))

	line := buf.String()
	assert.Contains(t, line, "chr1\t10\trs1\tA\tT")
	assert.Contains(t, line, "PROB_absent=0")
	assert.Contains(t, line, "PROB_present=30")
	assert.Contains(t, line, "CASE_AF=0.5")
}
