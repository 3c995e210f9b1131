// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PROSIC/libprosic/biosimd"
)

func TestCleanASCIISeqInplace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"ACGT", "ACGT"},
		{"acgt", "ACGT"},
		{"ACGTN", "ACGTN"},
		{"ACGTRYSWKMBDHVNacgt.-", "ACGTNNNNNNNNNNNACGTNN"},
	}
	for _, tc := range tests {
		got := []byte(tc.in)
		biosimd.CleanASCIISeqInplace(got)
		assert.Equal(t, []byte(tc.want), got)
	}
}

func TestASCIIToSeq8Inplace(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"", nil},
		{"ACGT", []byte{1, 2, 4, 8}},
		{"acgt", []byte{1, 2, 4, 8}},
		{"ACGTN", []byte{1, 2, 4, 8, 15}},
	}
	for _, tc := range tests {
		got := []byte(tc.in)
		biosimd.ASCIIToSeq8Inplace(got)
		if len(tc.want) == 0 {
			assert.Len(t, got, 0)
			continue
		}
		assert.Equal(t, tc.want, got)
	}
}
