package preprocess

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PROSIC/libprosic/internal/observation"
	"github.com/PROSIC/libprosic/internal/variant"
	"github.com/PROSIC/libprosic/internal/variant/breakend"
)

func callsFor(idx uint64) Calls {
	return Calls{
		Index:   idx,
		Variant: &variant.Variant{Kind: variant.SNV, Contig: "chr1", Start: int64(idx), Ref: []byte("A"), Alt: []byte("T")},
		Observations: map[string]observation.Pileup{
			"tumor": {{ProbMapping: 0, ProbAlt: -1, ProbRef: -2}},
		},
	}
}

func TestReorderBufferDrainsInOrder(t *testing.T) {
	buf := newReorderBuffer("", 0)

	ready, err := buf.push(callsFor(2))
	require.NoError(t, err)
	assert.Empty(t, ready)

	ready, err = buf.push(callsFor(1))
	require.NoError(t, err)
	assert.Empty(t, ready)

	ready, err = buf.push(callsFor(0))
	require.NoError(t, err)
	require.Len(t, ready, 3)
	assert.Equal(t, uint64(0), ready[0].Index)
	assert.Equal(t, uint64(1), ready[1].Index)
	assert.Equal(t, uint64(2), ready[2].Index)
	assert.Equal(t, 0, buf.pending())
}

func TestReorderBufferSpillsAndRecoversBeyondThreshold(t *testing.T) {
	dir := t.TempDir()
	buf := newReorderBuffer(dir, 1)

	// Index 0 is missing, so 1 and 2 pile up and the second push exceeds
	// the threshold of 1 pending bundle, forcing a spill.
	ready, err := buf.push(callsFor(2))
	require.NoError(t, err)
	assert.Empty(t, ready)

	ready, err = buf.push(callsFor(1))
	require.NoError(t, err)
	assert.Empty(t, ready)
	assert.Equal(t, 2, buf.pending())

	ready, err = buf.push(callsFor(0))
	require.NoError(t, err)
	require.Len(t, ready, 3)
	assert.Equal(t, uint64(0), ready[0].Index)
	assert.Equal(t, uint64(1), ready[1].Index)
	assert.Equal(t, uint64(2), ready[2].Index)
	// The spilled bundle's pileup must round-trip through gob+zstd intact.
	assert.Equal(t, -1.0, ready[2].Observations["tumor"][0].ProbAlt)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "spill files should be removed once read back")
}

func TestResolveBreakendDispatchesOnLastMember(t *testing.T) {
	arena := breakend.NewArena()
	alt1, err := breakend.ParseAlt("G[chr2:100[")
	require.NoError(t, err)
	alt2, err := breakend.ParseAlt("]chr1:50]T")
	require.NoError(t, err)

	v := &variant.Variant{Kind: variant.Breakend, Contig: "chr1", Start: 49, ID: "bnd1", MateID: "bnd2", BreakendSpec: "]chr1:50]T"}

	job1 := Job{Index: 0, Variant: v, BreakendEventID: "event1", BreakendExpectedCount: 2,
		BreakendMember: &breakend.Member{ID: "bnd1", Alt: alt1}}
	dispatched, err := resolveBreakend(arena, job1)
	require.NoError(t, err)
	assert.Nil(t, dispatched)

	job2 := Job{Index: 1, Variant: v, BreakendEventID: "event1", BreakendExpectedCount: 2,
		BreakendMember: &breakend.Member{ID: "bnd2", Alt: alt2}}
	dispatched, err = resolveBreakend(arena, job2)
	require.NoError(t, err)
	require.NotNil(t, dispatched)
	assert.Equal(t, variant.Breakend, dispatched.Variant.Kind)
	assert.NotEmpty(t, dispatched.Variant.Alt)
	assert.Equal(t, 0, arena.Pending())
}
