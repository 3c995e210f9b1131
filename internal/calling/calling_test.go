package calling

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PROSIC/libprosic/internal/grammar"
	"github.com/PROSIC/libprosic/internal/logprob"
	"github.com/PROSIC/libprosic/internal/observation"
)

func refObs(n int) observation.Pileup {
	p := make(observation.Pileup, n)
	for i := range p {
		p[i] = observation.Observation{
			ProbMapping:      math.Log(0.999),
			ProbAlt:          math.Log(0.01),
			ProbRef:          math.Log(0.99),
			ProbMissedAllele: logprob.Zero,
			ProbSampleAlt:    math.Log(0.95),
			ProbAnyStrand:    logprob.One,
			ForwardStrand:    true,
		}
	}
	return p
}

func altObs(n int) observation.Pileup {
	p := make(observation.Pileup, n)
	for i := range p {
		p[i] = observation.Observation{
			ProbMapping:      math.Log(0.999),
			ProbAlt:          math.Log(0.99),
			ProbRef:          math.Log(0.01),
			ProbMissedAllele: logprob.Zero,
			ProbSampleAlt:    math.Log(0.95),
			ProbAnyStrand:    logprob.One,
			ForwardStrand:    true,
		}
	}
	return p
}

func TestObsLogLikelihoodFavorsMatchingAllele(t *testing.T) {
	ref := refObs(1)
	altBranch := obsLogLikelihood(&ref[0], 0.99, IdentityWeight)
	refBranch := obsLogLikelihood(&ref[0], 0.01, IdentityWeight)
	assert.Greater(t, refBranch, altBranch)
}

func TestSampleLikelihoodCache(t *testing.T) {
	s := NewSample(refObs(10), nil)
	a := s.LogLikelihood(0.1, 0, NoBias, IdentityWeight)
	assert.Len(t, s.cache, 1)
	b := s.LogLikelihood(0.1, 0, NoBias, IdentityWeight)
	assert.Equal(t, a, b)
	assert.Len(t, s.cache, 1)
}

func TestJointLogLikelihoodContamination(t *testing.T) {
	samples := map[string]*Sample{
		"tumor":  NewSample(altObs(20), nil),
		"normal": NewSample(refObs(20), &Contamination{By: "tumor", Fraction: 0.1}),
	}
	vafs := map[string]float64{"tumor": 0.5, "normal": 0.0}
	got := JointLogLikelihood(samples, vafs, NoBias, IdentityWeight)
	assert.Less(t, got, 0.0)
}

func TestPosteriorHighVAFEventDominatesForAltPileup(t *testing.T) {
	f, err := grammar.ParseFormula("tumor:]0.5,1.0]")
	require.NoError(t, err)
	universes := grammar.Universes{"tumor": mustSpec(t, "[0.0,1.0]")}
	high, err := grammar.BuildVAFTree(f, universes)
	require.NoError(t, err)

	f2, err := grammar.ParseFormula("tumor:[0.0,0.5[")
	require.NoError(t, err)
	low, err := grammar.BuildVAFTree(f2, universes)
	require.NoError(t, err)

	ctx := &PosteriorContext{
		Samples:    map[string]*Sample{"tumor": NewSample(altObs(40), nil)},
		Resolution: map[string]int{"tumor": 20},
		Prior:      FlatPrior{},
		Bias:       NoBias,
		Weight:     IdentityWeight,
	}
	highPost := Posterior(high, ctx)
	lowPost := Posterior(low, ctx)
	assert.Greater(t, highPost, lowPost)
}

func TestPosteriorDiscreteSumsToOneAcrossPartition(t *testing.T) {
	f0, err := grammar.ParseFormula("tumor:0.0")
	require.NoError(t, err)
	f1, err := grammar.ParseFormula("tumor:0.5")
	require.NoError(t, err)
	f2, err := grammar.ParseFormula("tumor:1.0")
	require.NoError(t, err)
	universes := grammar.Universes{"tumor": mustSpec(t, "0.0,0.5,1.0")}

	ctx := &PosteriorContext{
		Samples:    map[string]*Sample{"tumor": NewSample(altObs(10), nil)},
		Resolution: map[string]int{"tumor": 10},
		Prior:      FlatPrior{},
		Bias:       NoBias,
		Weight:     IdentityWeight,
	}
	var total float64 = logprob.Zero
	for _, f := range []*grammar.Formula{f0, f1, f2} {
		tree, err := grammar.BuildVAFTree(f, universes)
		require.NoError(t, err)
		total = logprob.Add(total, Posterior(tree, ctx))
	}
	assert.InDelta(t, 1.0, math.Exp(total), 1e-6)
}

func TestMAPFindsHighVAFForAltPileup(t *testing.T) {
	f, err := grammar.ParseFormula("tumor:[0.0,1.0]")
	require.NoError(t, err)
	universes := grammar.Universes{"tumor": mustSpec(t, "[0.0,1.0]")}
	tree, err := grammar.BuildVAFTree(f, universes)
	require.NoError(t, err)

	ctx := &PosteriorContext{
		Samples:    map[string]*Sample{"tumor": NewSample(altObs(40), nil)},
		Resolution: map[string]int{"tumor": 40},
		Prior:      FlatPrior{},
		Bias:       NoBias,
		Weight:     IdentityWeight,
	}
	vaf, _ := MAP(tree, ctx, "tumor", 11)
	assert.Greater(t, vaf, 0.5)
}

func mustSpec(t *testing.T, s string) grammar.Spectrum {
	t.Helper()
	spec, err := grammar.ParseSpectrum(s)
	require.NoError(t, err)
	return spec
}
