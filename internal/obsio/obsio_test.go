package obsio_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PROSIC/libprosic/internal/observation"
	"github.com/PROSIC/libprosic/internal/obsio"
)

func TestMiniLogProbRoundTrip(t *testing.T) {
	cases := []float64{0, -0.001, -1, -10, -100, math.Inf(-1)}
	for _, lp := range cases {
		code := obsio.EncodeMiniLogProb(lp)
		got := obsio.DecodeMiniLogProb(code)
		if math.IsInf(lp, -1) {
			assert.True(t, math.IsInf(got, -1))
			continue
		}
		assert.InDelta(t, lp, got, 0.5, "log-prob %v round-tripped to %v", lp, got)
	}
}

func TestMiniLogProbArrayRoundTrip(t *testing.T) {
	vals := []float64{0, -1, -2, -3, -4}
	packed := obsio.EncodeMiniLogProbArray(vals)
	got := obsio.DecodeMiniLogProbArray(packed, len(vals))
	require.Len(t, got, len(vals))
	for i := range vals {
		assert.InDelta(t, vals[i], got[i], 0.5)
	}
}

func TestBitVec(t *testing.T) {
	bv := obsio.NewBitVec(10)
	bv.Set(3, true)
	bv.Set(9, true)
	for i := 0; i < 10; i++ {
		want := i == 3 || i == 9
		assert.Equal(t, want, bv.Get(i), "bit %d", i)
	}
}

func TestEncodeDecodePileup(t *testing.T) {
	pileup := observation.Pileup{
		{ProbMapping: -0.01, ProbAlt: -1, ProbRef: -5, ForwardStrand: true},
		{ProbMapping: -0.02, ProbAlt: -5, ProbRef: -1, ReverseStrand: true},
	}
	block := obsio.Encode(pileup)
	decoded := obsio.Decode(block)
	require.Len(t, decoded, 2)
	assert.InDelta(t, pileup[0].ProbAlt, decoded[0].ProbAlt, 0.5)
	assert.True(t, decoded[0].ForwardStrand)
	assert.True(t, decoded[1].ReverseStrand)
}

func TestChecksum(t *testing.T) {
	block := obsio.Encode(observation.Pileup{{ProbMapping: -0.01}})
	raw := block.RawBytes()
	sum, err := obsio.Checksum(raw)
	require.NoError(t, err)
	assert.NoError(t, obsio.VerifyChecksum(raw, sum))

	raw[0] ^= 0xFF
	assert.Error(t, obsio.VerifyChecksum(raw, sum))
}
