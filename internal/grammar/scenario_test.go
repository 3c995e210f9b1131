package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScenarioYAML = `
samples:
  tumor:
    universe: "[0.0,1.0]"
    resolution: 100
    contamination:
      by: normal
      fraction: 0.02
  normal:
    universe: "0.0,0.5,1.0"
    resolution: 3
events:
  somatic: "tumor:]0.0,1.0] & normal:0.0"
  absent: "tumor:0.0 & normal:0.0"
  germline_het: "normal:0.5"
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(testScenarioYAML))
	require.NoError(t, err)
	require.Contains(t, s.Samples, "tumor")
	require.Contains(t, s.Samples, "normal")
	assert.Equal(t, 100, s.Samples["tumor"].Resolution)
	require.NotNil(t, s.Samples["tumor"].Contamination)
	assert.Equal(t, "normal", s.Samples["tumor"].Contamination.By)
	assert.InDelta(t, 0.02, s.Samples["tumor"].Contamination.Fraction, 1e-9)
	require.Contains(t, s.Events, "somatic")
}

func TestParseScenarioUnknownSampleInEvent(t *testing.T) {
	bad := `
samples:
  tumor:
    universe: "[0.0,1.0]"
    resolution: 10
events:
  bogus: "ghost:0.0"
`
	_, err := ParseScenario([]byte(bad))
	assert.Error(t, err)
}

func TestParseScenarioUnknownContaminationSample(t *testing.T) {
	bad := `
samples:
  tumor:
    universe: "[0.0,1.0]"
    resolution: 10
    contamination:
      by: ghost
      fraction: 0.1
events:
  e: "tumor:0.0"
`
	_, err := ParseScenario([]byte(bad))
	assert.Error(t, err)
}

func TestScenarioVAFTree(t *testing.T) {
	s, err := ParseScenario([]byte(testScenarioYAML))
	require.NoError(t, err)
	tree, err := s.VAFTree("germline_het")
	require.NoError(t, err)
	require.Len(t, tree.Roots, 1)
	assert.Equal(t, "normal", tree.Roots[0].Sample)
}

func TestScenarioVAFTreeUnknownEvent(t *testing.T) {
	s, err := ParseScenario([]byte(testScenarioYAML))
	require.NoError(t, err)
	_, err = s.VAFTree("nonexistent")
	assert.Error(t, err)
}
