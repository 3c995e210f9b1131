package refbuffer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PROSIC/libprosic/encoding/fasta"
)

func testFasta(t *testing.T) fasta.Fasta {
	t.Helper()
	fa, err := fasta.New(strings.NewReader(">chr1\nACGTACGTAC\n>chr2\nTTTTGGGGCC\n"))
	require.NoError(t, err)
	return fa
}

func TestExactContigMatch(t *testing.T) {
	b := NewForTesting(testFasta(t), DefaultWindowSize)
	seq, err := b.Seq("chr1")
	require.NoError(t, err)
	assert.Equal(t, "ACGTACGTAC", string(seq))
}

func TestChrPrefixReconciliation(t *testing.T) {
	b := NewForTesting(testFasta(t), DefaultWindowSize)
	seq, err := b.Range("1", 0, 4)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", string(seq))
}

func TestUnknownContig(t *testing.T) {
	b := NewForTesting(testFasta(t), DefaultWindowSize)
	_, err := b.Seq("chrZZZ_totally_unrelated")
	assert.Error(t, err)
}

func TestMRUWindow(t *testing.T) {
	b := NewForTesting(testFasta(t), 1)
	_, err := b.Seq("chr1")
	require.NoError(t, err)
	assert.Equal(t, []string{"chr1"}, b.sortedWindow())
	_, err = b.Seq("chr2")
	require.NoError(t, err)
	assert.Equal(t, []string{"chr2"}, b.sortedWindow())
}
