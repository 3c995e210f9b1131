package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSpectrum(t *testing.T, s string) Spectrum {
	t.Helper()
	spec, err := ParseSpectrum(s)
	require.NoError(t, err)
	return spec
}

func TestBuildVAFTreeAtom(t *testing.T) {
	f, err := ParseFormula("tumor:]0.0,1.0]")
	require.NoError(t, err)
	universes := Universes{"tumor": mustSpectrum(t, "[0.0,1.0]")}
	tree, err := BuildVAFTree(f, universes)
	require.NoError(t, err)
	require.Len(t, tree.Roots, 1)
	assert.Equal(t, "tumor", tree.Roots[0].Sample)
	assert.Nil(t, tree.Roots[0].Children)
}

func TestBuildVAFTreeAnd(t *testing.T) {
	f, err := ParseFormula("tumor:0.5 & normal:0.0")
	require.NoError(t, err)
	universes := Universes{
		"tumor":  mustSpectrum(t, "[0.0,1.0]"),
		"normal": mustSpectrum(t, "[0.0,1.0]"),
	}
	tree, err := BuildVAFTree(f, universes)
	require.NoError(t, err)
	require.Len(t, tree.Roots, 1)
	root := tree.Roots[0]
	assert.Equal(t, "normal", root.Sample)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "tumor", root.Children[0].Sample)
}

func TestBuildVAFTreeOr(t *testing.T) {
	f, err := ParseFormula("tumor:0.0 | tumor:1.0")
	require.NoError(t, err)
	universes := Universes{"tumor": mustSpectrum(t, "[0.0,1.0]")}
	tree, err := BuildVAFTree(f, universes)
	require.NoError(t, err)
	assert.Len(t, tree.Roots, 2)
}

func TestBuildVAFTreeNotComplement(t *testing.T) {
	f, err := ParseFormula("!tumor:0.0")
	require.NoError(t, err)
	universes := Universes{"tumor": mustSpectrum(t, "[0.0,1.0]")}
	tree, err := BuildVAFTree(f, universes)
	require.NoError(t, err)
	require.Len(t, tree.Roots, 1)
	spec := tree.Roots[0].Spectrum
	assert.False(t, spec.Contains(0.0))
	assert.True(t, spec.Contains(0.5))
	assert.True(t, spec.Contains(1.0))
}

func TestBuildVAFTreeDeMorganAndNegated(t *testing.T) {
	f, err := ParseFormula("!(tumor:0.0 & normal:0.0)")
	require.NoError(t, err)
	universes := Universes{
		"tumor":  mustSpectrum(t, "0.0,1.0"),
		"normal": mustSpectrum(t, "0.0,1.0"),
	}
	tree, err := BuildVAFTree(f, universes)
	require.NoError(t, err)
	// not(A & B) = not(A) | not(B): two roots, each a single-sample atom.
	assert.Len(t, tree.Roots, 2)
}

func TestSubtractIntervalWholeRange(t *testing.T) {
	universe := mustSpectrum(t, "[0.0,1.0]")
	exclude := mustSpectrum(t, "[0.3,0.6]")
	remaining := complement(universe, exclude)
	assert.True(t, remaining.Contains(0.1))
	assert.False(t, remaining.Contains(0.45))
	assert.True(t, remaining.Contains(0.8))
}

func TestIntersectIntervals(t *testing.T) {
	a := mustSpectrum(t, "[0.0,0.6]")
	b := mustSpectrum(t, "[0.3,1.0]")
	got := intersect(a, b)
	require.Len(t, got.Intervals, 1)
	assert.InDelta(t, 0.3, got.Intervals[0].Lo, 1e-9)
	assert.InDelta(t, 0.6, got.Intervals[0].Hi, 1e-9)
}
