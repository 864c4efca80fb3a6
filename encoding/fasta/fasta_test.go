// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fasta_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hic/encoding/fasta"
	"github.com/grailbio/hic/interval"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastaData = ">seq1\n" + "ACGTA\nCGTAC\nGT\n" + ">seq2 A viral sequence\n" + "acgt\n\n" + "ACGT\n"

func TestScanner(t *testing.T) {
	s := fasta.NewScanner(strings.NewReader(fastaData))
	var names, seqs []string
	for s.Scan() {
		names = append(names, s.Name())
		seqs = append(seqs, string(s.Seq()))
	}
	assert.NoError(t, s.Err())
	expect.EQ(t, names, []string{"seq1", "seq2"})
	expect.EQ(t, seqs, []string{"ACGTACGTACGT", "ACGTACGT"})
	assert.False(t, s.Scan())

	s = fasta.NewScanner(strings.NewReader(""))
	assert.False(t, s.Scan())
	assert.NoError(t, s.Err())

	s = fasta.NewScanner(strings.NewReader("ACGT\n>seq1\nACGT\n"))
	assert.False(t, s.Scan())
	assert.Contains(t, s.Err().Error(), "malformed")
}

func TestFindSites(t *testing.T) {
	tests := []struct {
		seq     string
		pattern string
		want    []interval.Entry
	}{
		{"AAGATCTTGATCAA", "GATC", []interval.Entry{{ChrName: "c", Start0: 2, End: 6}, {ChrName: "c", Start0: 8, End: 12}}},
		// Non-palindromic patterns are also searched on the reverse strand.
		{"TGAACGTTCA", "GAAC", []interval.Entry{{ChrName: "c", Start0: 1, End: 5}, {ChrName: "c", Start0: 5, End: 9}}},
		{"GAATCGACTC", "GANTC", []interval.Entry{{ChrName: "c", Start0: 0, End: 5}, {ChrName: "c", Start0: 5, End: 10}}},
		{"AAAA", "AA", []interval.Entry{{ChrName: "c", Start0: 0, End: 2}, {ChrName: "c", Start0: 1, End: 3}, {ChrName: "c", Start0: 2, End: 4}}},
		{"ACG", "GATC", nil},
	}
	for _, tt := range tests {
		expect.EQ(t, fasta.FindSites("c", []byte(tt.seq), tt.pattern), tt.want, "%s/%s", tt.seq, tt.pattern)
	}
	expect.EQ(t, fasta.ReverseComplement("GAAC"), "GTTC")
	assert.NoError(t, fasta.ValidatePattern("GANTC"))
	assert.NotNil(t, fasta.ValidatePattern(""))
	assert.NotNil(t, fasta.ValidatePattern("GAXC"))
}

func TestHasPrefixSuffix(t *testing.T) {
	seq := []byte("ATTCGGGACTC")
	expect.True(t, fasta.HasPrefix(seq, "ANTC"))
	expect.True(t, fasta.HasPrefix(seq, "ATTC"))
	expect.False(t, fasta.HasPrefix(seq, "AGNC"))
	expect.True(t, fasta.HasSuffix(seq, "GANTC"))
	expect.False(t, fasta.HasSuffix(seq, "GATC"))
	expect.False(t, fasta.HasPrefix([]byte("AT"), "ANTC"))
	expect.False(t, fasta.HasSuffix([]byte("TC"), "GANTC"))
}

const refData = ">chr1\nttgatcaa\nGATCTT\n>chr2\nGGGG\n"

func TestReadSitesFromPath(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tempDir, "ref.fa.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := gzip.NewWriter(f)
	_, err = w.Write([]byte(refData))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	sites, chroms, err := fasta.ReadSitesFromPath(vcontext.Background(), path, "GATC")
	require.NoError(t, err)
	expect.EQ(t, sites, []interval.Entry{{ChrName: "chr1", Start0: 2, End: 6}, {ChrName: "chr1", Start0: 8, End: 12}})
	expect.EQ(t, chroms, []interval.ChromSize{{Name: "chr1", Len: 14}, {Name: "chr2", Len: 4}})

	_, _, err = fasta.ReadSites(strings.NewReader(refData), "GAZC")
	assert.NotNil(t, err)
	_, _, err = fasta.ReadSitesFromPath(vcontext.Background(), filepath.Join(tempDir, "missing.fa"), "GATC")
	assert.NotNil(t, err)
}
