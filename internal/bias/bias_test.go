package bias

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PROSIC/libprosic/internal/observation"
)

func strongAltObs(forward bool, pos observation.ReadPosition, clipped bool) observation.Observation {
	return observation.Observation{
		ProbMapping:   math.Log(0.99),
		ProbAlt:       math.Log(0.99),
		ProbRef:       math.Log(0.001),
		ForwardStrand: forward,
		ReverseStrand: !forward,
		ReadPosition:  pos,
		Softclipped:   clipped,
	}
}

func TestIsLikelyStrandBiasDetected(t *testing.T) {
	var pileup observation.Pileup
	for i := 0; i < 9; i++ {
		pileup = append(pileup, strongAltObs(true, observation.ReadPositionMajor, false))
	}
	pileup = append(pileup, strongAltObs(false, observation.ReadPositionMajor, false))
	sel := Select(pileup)
	assert.Equal(t, Strand, sel.Kind)
}

func TestIsLikelyNoneWhenBalanced(t *testing.T) {
	var pileup observation.Pileup
	for i := 0; i < 5; i++ {
		pileup = append(pileup, strongAltObs(true, observation.ReadPositionMajor, false))
		pileup = append(pileup, strongAltObs(false, observation.ReadPositionOther, true))
	}
	sel := Select(pileup)
	assert.Equal(t, None, sel.Kind)
}

func TestWeightDiscountsMatchingObservations(t *testing.T) {
	var pileup observation.Pileup
	for i := 0; i < 9; i++ {
		pileup = append(pileup, strongAltObs(true, observation.ReadPositionMajor, false))
	}
	pileup = append(pileup, strongAltObs(false, observation.ReadPositionMajor, false))
	sel := Select(pileup)
	assert.Equal(t, Strand, sel.Kind)
	matching := pileup[0]
	nonMatching := pileup[9]
	assert.Less(t, sel.Weight(&matching), sel.Weight(&nonMatching))
}

func TestKassRafteryThreshold(t *testing.T) {
	weak := observation.Observation{ProbAlt: math.Log(0.6), ProbRef: math.Log(0.5), ProbMapping: math.Log(0.99)}
	assert.False(t, isStrong(&weak))
	strong := observation.Observation{ProbAlt: math.Log(0.99), ProbRef: math.Log(0.001), ProbMapping: math.Log(0.99)}
	assert.True(t, isStrong(&strong))
}
