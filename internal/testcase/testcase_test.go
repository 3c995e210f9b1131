package testcase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tc := Testcase{
		Candidate: []byte("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\nchr1\t100\trs1\tA\tT\t.\t.\t.\n"),
		BAM:       []byte("fake-bam-bytes"),
		FASTA:     []byte(">chr1\nACGT\n"),
		Scenario:  []byte("samples:\n  tumor:\n    universe: \"[0.0,1.0]\"\n"),
	}
	require.NoError(t, Write(ctx, dir, tc))

	got, err := Load(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, tc.Candidate, got.Candidate)
	assert.Equal(t, tc.BAM, got.BAM)
	assert.Equal(t, tc.FASTA, got.FASTA)
	assert.Equal(t, tc.Scenario, got.Scenario)
}

func TestWriteLoadWithoutBAMOrFASTA(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tc := Testcase{
		Candidate: []byte("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\nchr1\t100\trs1\tA\tT\t.\t.\t.\n"),
		Scenario:  []byte("samples: {}\n"),
	}
	require.NoError(t, Write(ctx, dir, tc))

	got, err := Load(ctx, dir)
	require.NoError(t, err)
	assert.Empty(t, got.BAM)
	assert.Empty(t, got.FASTA)
}

func TestLoadRejectsMissingCandidate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, Write(ctx, dir, Testcase{Scenario: []byte("samples: {}\n")}))

	_, err := Load(ctx, dir)
	assert.Error(t, err)
}

func TestLoadRejectsMissingScenario(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, Write(ctx, dir, Testcase{Candidate: []byte("x\n")}))

	_, err := Load(ctx, dir)
	assert.Error(t, err)
}
