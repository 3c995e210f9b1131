package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PROSIC/libprosic/internal/bias"
)

func TestControlFDRKeepsConfidentPrefix(t *testing.T) {
	calls := []Call{
		{Index: 0, Prob: 0.99},
		{Index: 1, Prob: 0.97},
		{Index: 2, Prob: 0.5},
		{Index: 3, Prob: 0.01},
	}
	kept, err := ControlFDR(calls, 0.05)
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, 0, kept[0].Index)
	assert.Equal(t, 1, kept[1].Index)
}

func TestControlFDRRejectsBadAlpha(t *testing.T) {
	_, err := ControlFDR([]Call{{Index: 0, Prob: 0.9}}, 0)
	assert.Error(t, err)
	_, err = ControlFDR([]Call{{Index: 0, Prob: 0.9}}, 1.5)
	assert.Error(t, err)
}

func TestControlFDRPreservesOriginalOrder(t *testing.T) {
	calls := []Call{
		{Index: 0, Prob: 0.5},
		{Index: 1, Prob: 0.99},
	}
	kept, err := ControlFDR(calls, 0.5)
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, 0, kept[0].Index)
	assert.Equal(t, 1, kept[1].Index)
}

func TestPosteriorOddsFiltersByThreshold(t *testing.T) {
	calls := []Call{
		{Index: 0, Prob: 0.999999}, // very strong evidence
		{Index: 1, Prob: 0.6},      // barely worth mentioning
	}
	kept := PosteriorOdds(calls, bias.Strong)
	require.Len(t, kept, 1)
	assert.Equal(t, 0, kept[0].Index)
}

func TestParseThresholdKnownNames(t *testing.T) {
	for _, name := range []string{"barely-worth-mentioning", "positive", "strong", "very-strong"} {
		_, err := ParseThreshold(name)
		assert.NoError(t, err)
	}
	_, err := ParseThreshold("unknown")
	assert.Error(t, err)
}
