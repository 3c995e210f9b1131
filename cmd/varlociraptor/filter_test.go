package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PROSIC/libprosic/internal/bcfio"
	"github.com/PROSIC/libprosic/internal/phred"
	"github.com/PROSIC/libprosic/internal/variant"
)

func writeResultFixture(t *testing.T, path string, phredByLocus []int) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bcfio.WriteResultHeader(&buf, bcfio.ResultHeader{Contigs: []string{"chr1"}, Events: []string{"somatic"}}))
	for i, ph := range phredByLocus {
		v := &variant.Variant{Contig: "chr1", Start: int64(100 + i), Ref: []byte("A"), Alt: []byte("T")}
		require.NoError(t, bcfio.WriteResult(&buf, bcfio.Call{Variant: v, EventPHRED: map[string]int{"somatic": ph}}))
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestFilterControlFDRCmdKeepsConfidentCalls(t *testing.T) {
	dir := t.TempDir()
	calls := filepath.Join(dir, "calls.vcf")
	output := filepath.Join(dir, "out.vcf")

	// PHRED 0 -> prob 1.0 (confident); PHRED 30 -> prob 0.001 (not confident).
	writeResultFixture(t, calls, []int{0, 0, 30})

	root := newRootCmd()
	root.SetArgs([]string{"filter-calls", "control-fdr", "--calls", calls, "--output", output, "--event", "somatic", "--fdr", "0.05"})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := countDataLines(string(data))
	assert.Equal(t, 2, lines)
}

func TestFilterPosteriorOddsCmdHonorsThreshold(t *testing.T) {
	dir := t.TempDir()
	calls := filepath.Join(dir, "calls.vcf")
	output := filepath.Join(dir, "out.vcf")

	strongPHRED, err := phred.FromProbability(1 - 1e-7)
	require.NoError(t, err)
	weakPHRED, err := phred.FromProbability(0.6)
	require.NoError(t, err)
	writeResultFixture(t, calls, []int{strongPHRED, weakPHRED})

	root := newRootCmd()
	root.SetArgs([]string{"filter-calls", "posterior-odds", "--calls", calls, "--output", output, "--event", "somatic", "--threshold", "strong"})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, 1, countDataLines(string(data)))
}

func countDataLines(content string) int {
	n := 0
	for _, line := range splitLines(content) {
		if line == "" || line[0] == '#' {
			continue
		}
		n++
	}
	return n
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
