package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePHREDCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"decode-phred", "0"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "1", strings.TrimSpace(out.String()))
}

func TestDecodePHREDCmdRejectsNonInteger(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"decode-phred", "not-a-number"})
	assert.Error(t, root.Execute())
}
