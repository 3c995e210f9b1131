package phred

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PROSIC/libprosic/internal/logprob"
)

func TestToProbabilityKnownValues(t *testing.T) {
	p, err := ToProbability(0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p, 1e-9)

	p, err = ToProbability(10)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, p, 1e-9)

	p, err = ToProbability(30)
	require.NoError(t, err)
	assert.InDelta(t, 0.001, p, 1e-9)
}

func TestToProbabilityRejectsNegative(t *testing.T) {
	_, err := ToProbability(-1)
	assert.Error(t, err)
}

func TestFromProbabilityRoundTrips(t *testing.T) {
	for _, p := range []float64{1.0, 0.5, 0.1, 0.001, 0.0001} {
		score, err := FromProbability(p)
		require.NoError(t, err)
		back, err := ToProbability(score)
		require.NoError(t, err)
		assert.InDelta(t, p, back, p*0.01+1e-6)
	}
}

func TestFromProbabilityZeroIsImpossibleSentinel(t *testing.T) {
	score, err := FromProbability(0)
	require.NoError(t, err)
	assert.Equal(t, ImpossiblePHRED, score)
}

func TestFromProbabilityRejectsOutOfRange(t *testing.T) {
	_, err := FromProbability(1.5)
	assert.Error(t, err)
	_, err = FromProbability(-0.1)
	assert.Error(t, err)
}

func TestLogProbRoundTrip(t *testing.T) {
	for _, logP := range []float64{0, -0.1, -1, -5, -20} {
		score, err := FromLogProb(logP)
		require.NoError(t, err)
		back, err := ToLogProb(score)
		require.NoError(t, err)
		// Scores are whole PHRED units, so the round trip holds only to
		// half a unit: ln(10)/20 nats.
		assert.InDelta(t, logP, back, math.Ln10/20)
	}
}

func TestFromLogProbZeroMapsToImpossible(t *testing.T) {
	score, err := FromLogProb(logprob.Zero)
	require.NoError(t, err)
	assert.Equal(t, ImpossiblePHRED, score)

	back, err := ToLogProb(ImpossiblePHRED)
	require.NoError(t, err)
	assert.Equal(t, logprob.Zero, back)
}
