// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"context"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hic/interval"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

var complement = [256]byte{
	'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N',
}

// ReverseComplement returns the reverse complement of an upper-case DNA
// pattern.  'N' is its own complement.
func ReverseComplement(pattern string) string {
	rc := make([]byte, len(pattern))
	for i := 0; i < len(pattern); i++ {
		rc[len(pattern)-1-i] = complement[pattern[i]]
	}
	return string(rc)
}

// ValidatePattern checks that pattern is a non-empty sequence of A, C, G, T
// and N (any base).
func ValidatePattern(pattern string) error {
	if len(pattern) == 0 {
		return errors.New("empty restriction sequence")
	}
	for i := 0; i < len(pattern); i++ {
		if complement[pattern[i]] == 0 {
			return errors.Errorf("restriction sequence %q: invalid base %q", pattern, pattern[i])
		}
	}
	return nil
}

func matchAt(seq []byte, pos int, pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		if c := pattern[i]; c != 'N' && seq[pos+i] != c {
			return false
		}
	}
	return true
}

// HasPrefix reports whether seq starts with pattern.  'N' in pattern matches
// any base.
func HasPrefix(seq []byte, pattern string) bool {
	return len(seq) >= len(pattern) && matchAt(seq, 0, pattern)
}

// HasSuffix reports whether seq ends with pattern.  'N' in pattern matches
// any base.
func HasSuffix(seq []byte, pattern string) bool {
	return len(seq) >= len(pattern) && matchAt(seq, len(seq)-len(pattern), pattern)
}

// FindSites returns every occurrence of pattern in seq, on either strand, as
// [start, start+len(pattern)) intervals on seqName sorted by start.
// Overlapping occurrences are all reported.  seq must be upper case.
func FindSites(seqName string, seq []byte, pattern string) []interval.Entry {
	rc := ReverseComplement(pattern)
	palindrome := rc == pattern
	var sites []interval.Entry
	for pos := 0; pos+len(pattern) <= len(seq); pos++ {
		if matchAt(seq, pos, pattern) || (!palindrome && matchAt(seq, pos, rc)) {
			sites = append(sites, interval.Entry{
				ChrName: seqName,
				Start0:  interval.PosType(pos),
				End:     interval.PosType(pos + len(pattern)),
			})
		}
	}
	return sites
}

// ReadSites scans a FASTA stream and returns the restriction sites of
// pattern, in file order, together with the length of every sequence.
func ReadSites(r io.Reader, pattern string) (sites []interval.Entry, chroms []interval.ChromSize, err error) {
	if err = ValidatePattern(pattern); err != nil {
		return
	}
	s := NewScanner(r)
	for s.Scan() {
		seq := s.Seq()
		found := FindSites(s.Name(), seq, pattern)
		log.Debug.Printf("%s: %d bases, %d %s site(s)", s.Name(), len(seq), len(found), pattern)
		sites = append(sites, found...)
		chroms = append(chroms, interval.ChromSize{Name: s.Name(), Len: len(seq)})
	}
	err = s.Err()
	return
}

// ReadSitesFromPath is a wrapper for ReadSites that takes a path instead of
// an io.Reader.  Paths ending in .gz are decompressed.
func ReadSitesFromPath(ctx context.Context, path, pattern string) (sites []interval.Entry, chroms []interval.ChromSize, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(in.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			err = errors.Wrapf(err, "%s", path)
			return
		}
		defer gz.Close() // nolint: errcheck
		reader = gz
	}
	return ReadSites(reader, pattern)
}
