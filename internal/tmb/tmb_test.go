package tmb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateSumsSoftCounts(t *testing.T) {
	calls := []Call{
		{Contig: "chr1", Pos: 100, EventProb: map[string]float64{"somatic": 1.0}},
		{Contig: "chr1", Pos: 200, EventProb: map[string]float64{"somatic": 0.5}},
		{Contig: "chr1", Pos: 300, EventProb: map[string]float64{"somatic": 0.0}},
	}
	perMb, total, err := Estimate(calls, []string{"somatic"}, 1_000_000)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, total, 1e-9)
	assert.InDelta(t, 1.5, perMb, 1e-9)
}

func TestEstimateTreatsMultipleEventsAsUnion(t *testing.T) {
	calls := []Call{
		{EventProb: map[string]float64{"a": 0.5, "b": 0.5}},
	}
	_, total, err := Estimate(calls, []string{"a", "b"}, 1_000_000)
	require.NoError(t, err)
	// P(a or b) = 1 - (1-0.5)(1-0.5) = 0.75
	assert.InDelta(t, 0.75, total, 1e-9)
}

func TestEstimateScalesByGenomeSize(t *testing.T) {
	calls := []Call{{EventProb: map[string]float64{"somatic": 1.0}}}
	perMb, _, err := Estimate(calls, []string{"somatic"}, 2_000_000)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, perMb, 1e-9)
}

func TestEstimateRejectsNoEvents(t *testing.T) {
	_, _, err := Estimate(nil, nil, 1_000_000)
	assert.Error(t, err)
}

func TestEstimateRejectsZeroGenomeSize(t *testing.T) {
	_, _, err := Estimate(nil, []string{"somatic"}, 0)
	assert.Error(t, err)
}

func TestWriteReportEmitsVegaLiteJSON(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, WriteReport(&buf, "tumor", 12.5, 25, 2_000_000))
	out := buf.String()
	assert.Contains(t, out, `"$schema"`)
	assert.Contains(t, out, `"tumor"`)
	assert.Contains(t, out, `"tmb": 12.5`)
}
