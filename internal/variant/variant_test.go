package variant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PROSIC/libprosic/internal/realign"
	"github.com/PROSIC/libprosic/internal/variant"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		v       variant.Variant
		wantErr bool
	}{
		{"snv ok", variant.Variant{Kind: variant.SNV, Ref: []byte("A"), Alt: []byte("T")}, false},
		{"snv same base", variant.Variant{Kind: variant.SNV, Ref: []byte("A"), Alt: []byte("A")}, true},
		{"deletion ok", variant.Variant{Kind: variant.Deletion, Length: 3}, false},
		{"deletion zero length", variant.Variant{Kind: variant.Deletion, Length: 0}, true},
		{"insertion ok", variant.Variant{Kind: variant.Insertion, Alt: []byte("AC")}, false},
		{"insertion empty", variant.Variant{Kind: variant.Insertion, Alt: nil}, true},
		{"breakend missing mate", variant.Variant{Kind: variant.Breakend, BreakendSpec: "N[chr2:100["}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.v.Validate()
			if c.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClassifyAndIsValidEvidence(t *testing.T) {
	v := variant.Variant{Kind: variant.Deletion, Start: 100, Length: 5}
	enclosing := variant.ReadSpan{Start: 80, End: 120}
	require.Equal(t, variant.OverlapEnclosing, v.Classify(enclosing))
	assert.True(t, v.IsValidEvidence(enclosing))

	leftOnly := variant.ReadSpan{Start: 80, End: 102}
	assert.Equal(t, variant.OverlapLeft, v.Classify(leftOnly))

	noOverlap := variant.ReadSpan{Start: 0, End: 10}
	assert.Equal(t, variant.OverlapNone, v.Classify(noOverlap))
	assert.False(t, v.IsValidEvidence(noOverlap))
}

func TestNoneProbAlleles(t *testing.T) {
	v := variant.Variant{Kind: variant.None}
	res := v.ProbAlleles(variant.Window{}, realign.DefaultParams())
	assert.Equal(t, 0.0, res.LogPRef)
	assert.True(t, res.LogPAlt < -30)
}

func TestSNVProbAlleles(t *testing.T) {
	v := variant.Variant{Kind: variant.SNV, Ref: []byte("A"), Alt: []byte("T")}
	w := variant.Window{
		SNVReadBases: []byte("A"),
		SNVReadQuals: []byte{30},
		SNVRefBases:  []byte("A"),
	}
	res := v.ProbAlleles(w, realign.DefaultParams())
	assert.Greater(t, res.LogPRef, res.LogPAlt, "a read matching ref should favor ref")

	w.SNVReadBases = []byte("T")
	res = v.ProbAlleles(w, realign.DefaultParams())
	assert.Greater(t, res.LogPAlt, res.LogPRef, "a read matching alt should favor alt")
}

func TestProbSampleAlt(t *testing.T) {
	snv := variant.Variant{Kind: variant.SNV}
	assert.Equal(t, 0.0, snv.ProbSampleAlt(150, 10))

	del := variant.Variant{Kind: variant.Deletion, Length: 300}
	assert.True(t, del.ProbSampleAlt(150, 10) < 0, "large deletion relative to read should reduce sampling probability")

	smallDel := variant.Variant{Kind: variant.Deletion, Length: 2}
	assert.Greater(t, smallDel.ProbSampleAlt(150, 10), del.ProbSampleAlt(150, 10))
}

func TestBuildAltWindows(t *testing.T) {
	ref := []byte("ACGTACGT")
	ins := variant.BuildInsertionAltWindow(ref, 4, []byte("NN"))
	assert.Equal(t, "ACGTNNACGT", string(ins))

	del := variant.BuildDeletionAltWindow(ref, 2, 3)
	assert.Equal(t, "ACCGT", string(del))

	spliced := variant.BuildSplicedAltWindow(ref, 2, []byte("GTA"), []byte("CCC"))
	assert.Equal(t, "ACCCCCGT", string(spliced))
}
