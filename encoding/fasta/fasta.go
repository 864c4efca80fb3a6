// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package fasta contains code for streaming FASTA files and locating
// restriction-enzyme recognition sites in them.  Briefly, FASTA files consist
// of a number of named sequences that may be interrupted by newlines.  For
// example:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// Note: Sequence names are defined to be the stretch of characters excluding
// spaces immediately after '>'.  Any text appear after a space are ignored.
// For example, '>chr1 A viral sequence' becomes 'chr1'.
package fasta

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

const (
	maxLineSize = 1024 * 1024 * 300 // 300 MB, longest single-line sequence
)

// Scanner reads a FASTA file one sequence at a time, so that only one
// chromosome is held in memory.  Bases are upper-cased.
//
// Example:
//   s := fasta.NewScanner(r)
//   for s.Scan() {
//     fmt.Println(s.Name(), len(s.Seq()))
//   }
//   if err := s.Err(); err != nil { ... }
type Scanner struct {
	lines   *bufio.Scanner
	started bool
	done    bool
	pending string // name of the sequence being accumulated
	name    string
	seq     []byte
	err     error
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	lines := bufio.NewScanner(r)
	lines.Buffer(nil, maxLineSize)
	return &Scanner{lines: lines}
}

func seqName(header []byte) string {
	name := header[1:]
	if i := bytes.IndexAny(name, " \t"); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

// Scan advances to the next sequence.  It returns false at the end of input
// or on error.  The slice returned by the previous Seq call is not reused.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.done {
		return false
	}
	s.seq = nil
	for s.lines.Scan() {
		line := s.lines.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' { // Start a new sequence.
			name := seqName(line)
			if !s.started {
				s.started = true
				s.pending = name
				continue
			}
			s.name, s.pending = s.pending, name
			return true
		}
		if !s.started {
			s.err = errors.Errorf("malformed FASTA file: sequence data before the first header")
			return false
		}
		n := len(s.seq)
		s.seq = append(s.seq, line...)
		for i := n; i < len(s.seq); i++ {
			if c := s.seq[i]; c >= 'a' && c <= 'z' {
				s.seq[i] = c - ('a' - 'A')
			}
		}
	}
	if err := s.lines.Err(); err != nil {
		s.err = errors.Wrap(err, "couldn't read FASTA data")
		return false
	}
	s.done = true
	if !s.started {
		return false
	}
	s.name = s.pending
	return true
}

// Name returns the name of the current sequence.
func (s *Scanner) Name() string { return s.name }

// Seq returns the bases of the current sequence.
func (s *Scanner) Seq() []byte { return s.seq }

// Err returns the first error encountered, if any.
func (s *Scanner) Err() error { return s.err }
