package sampleengine

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"

	"github.com/PROSIC/libprosic/internal/observation"
	"github.com/PROSIC/libprosic/internal/variant"
)

func recWithCigar(pos int, cigar []sam.CigarOp) *sam.Record {
	return &sam.Record{Pos: pos, Cigar: cigar, Seq: sam.NewSeq([]byte("ACGTACGTAC"))}
}

func TestReadSpanPlainMatch(t *testing.T) {
	rec := recWithCigar(100, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 10)})
	span := readSpan(rec)
	assert.Equal(t, int64(100), span.Start)
	assert.Equal(t, int64(110), span.End)
	assert.Equal(t, 0, span.QueryStart)
	assert.Equal(t, 10, span.QueryEnd)
	assert.Equal(t, 0, span.SoftclipLeading)
	assert.Equal(t, 0, span.SoftclipTrailing)
}

func TestReadSpanSoftclippedBothEnds(t *testing.T) {
	rec := recWithCigar(100, []sam.CigarOp{
		sam.NewCigarOp(sam.CigarSoftClipped, 2),
		sam.NewCigarOp(sam.CigarMatch, 6),
		sam.NewCigarOp(sam.CigarSoftClipped, 2),
	})
	span := readSpan(rec)
	assert.Equal(t, int64(100), span.Start)
	assert.Equal(t, int64(106), span.End)
	assert.Equal(t, 2, span.SoftclipLeading)
	assert.Equal(t, 2, span.SoftclipTrailing)
	assert.Equal(t, 2, span.QueryStart)
	assert.Equal(t, 8, span.QueryEnd)
}

func TestReadSpanWithDeletion(t *testing.T) {
	rec := recWithCigar(100, []sam.CigarOp{
		sam.NewCigarOp(sam.CigarMatch, 5),
		sam.NewCigarOp(sam.CigarDeletion, 3),
		sam.NewCigarOp(sam.CigarMatch, 5),
	})
	span := readSpan(rec)
	assert.Equal(t, int64(113), span.End) // 5+3+5 consumed on the reference axis
	assert.Equal(t, 10, span.QueryEnd)    // deletion consumes no query bases
}

func TestProbMappingFromMAPQ(t *testing.T) {
	high := probMappingFromMAPQ(60)
	low := probMappingFromMAPQ(0)
	assert.Greater(t, high, low)
	assert.LessOrEqual(t, high, 0.0)

	// MAPQ 255 (unavailable) should be treated as confidently mapped, not
	// the worst case.
	unavailable := probMappingFromMAPQ(255)
	assert.Greater(t, unavailable, low)
}

func TestCountXAHits(t *testing.T) {
	rec := &sam.Record{}
	assert.Equal(t, 0, countXAHits(rec))

	aux, err := sam.NewAux(xaTag, "chr2,100,10M,1;chr3,200,10M,2;")
	assert.NoError(t, err)
	rec.AuxFields = append(rec.AuxFields, aux)
	assert.Equal(t, 2, countXAHits(rec))
}

func TestDownsampleKeepsOrderAndBound(t *testing.T) {
	records := make([]*sam.Record, 10)
	for i := range records {
		records[i] = &sam.Record{Pos: i}
	}
	out := downsample(records, 4)
	assert.Len(t, out, 4)
	for i := 1; i < len(out); i++ {
		assert.Less(t, out[i-1].Pos, out[i].Pos)
	}
}

func TestDownsampleNoOpUnderLimit(t *testing.T) {
	records := []*sam.Record{{Pos: 1}, {Pos: 2}}
	out := downsample(records, 10)
	assert.Equal(t, records, out)
}

func TestFragmentKeyDistinctForDifferentNames(t *testing.T) {
	a := &sam.Record{Name: "read-1"}
	b := &sam.Record{Name: "read-2"}
	assert.NotEqual(t, fragmentKey(a), fragmentKey(b))

	c := &sam.Record{Name: "read-1"}
	assert.Equal(t, fragmentKey(a), fragmentKey(c))
}

func TestPositionInReadClassifiesEnds(t *testing.T) {
	major := positionInRead(variant.ReadSpan{QueryStart: 45, QueryEnd: 55}, 100)
	other := positionInRead(variant.ReadSpan{QueryStart: 0, QueryEnd: 5}, 100)
	assert.Equal(t, observation.ReadPositionMajor, major)
	assert.Equal(t, observation.ReadPositionOther, other)
}
