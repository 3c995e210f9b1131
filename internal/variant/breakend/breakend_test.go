package breakend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PROSIC/libprosic/internal/variant/breakend"
)

func TestParseAlt(t *testing.T) {
	a, err := breakend.ParseAlt("G[chr2:321681[")
	require.NoError(t, err)
	assert.Equal(t, breakend.RightOfPos, a.Side)
	assert.Equal(t, breakend.None, a.Mod)
	assert.Equal(t, "chr2", a.JoinContig)
	assert.Equal(t, int64(321680), a.JoinPos)
	assert.Equal(t, "G", string(a.Extension))

	b, err := breakend.ParseAlt("]chr1:500]T")
	require.NoError(t, err)
	assert.Equal(t, breakend.LeftOfPos, b.Side)
	assert.Equal(t, breakend.ReverseComplement, b.Mod)
	assert.Equal(t, int64(499), b.JoinPos)

	_, err = breakend.ParseAlt("not-a-breakend")
	assert.Error(t, err)
}

func TestReverseComplement(t *testing.T) {
	assert.Equal(t, "ACGT", string(breakend.ReverseComplementBytes([]byte("ACGT"))))
	assert.Equal(t, "NNN", string(breakend.ReverseComplementBytes([]byte("xyz"))))
}

func TestArenaAddAndMaterialize(t *testing.T) {
	arena := breakend.NewArena()
	alt1, err := breakend.ParseAlt("G[chr2:100[")
	require.NoError(t, err)
	alt2, err := breakend.ParseAlt("]chr1:50]T")
	require.NoError(t, err)

	members, ready, err := arena.Add("event1", 2, breakend.Member{ID: "bnd1", Alt: alt1})
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Nil(t, members)
	assert.Equal(t, 1, arena.Pending())

	members, ready, err = arena.Add("event1", 2, breakend.Member{ID: "bnd2", Alt: alt2})
	require.NoError(t, err)
	assert.True(t, ready)
	require.Len(t, members, 2)
	assert.Equal(t, 0, arena.Pending())
}

func TestGraphWalks(t *testing.T) {
	alt1, _ := breakend.ParseAlt("G[chr2:100[")
	alt2, _ := breakend.ParseAlt("]chr1:50]T")
	members := []breakend.Member{{ID: "a", Alt: alt1}, {ID: "b", Alt: alt2}}
	g, err := breakend.Build(members)
	require.NoError(t, err)
	walks, truncated := g.Walks()
	assert.False(t, truncated)
	assert.Len(t, walks, 2) // 2! orderings of 2 members

	seq := breakend.Concat(walks[0])
	assert.NotEmpty(t, seq)
}
