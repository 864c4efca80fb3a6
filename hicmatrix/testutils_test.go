// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package hicmatrix

import (
	"fmt"
	"strings"

	"github.com/grailbio/hic/interval"
	"github.com/grailbio/hts/sam"
)

const (
	// testSeq is 50 bases that neither start with "ATC" nor end with "GAT".
	testSeq  = "ACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTAC"
	goodMapQ = 60
)

func newHeader(sizes ...int) *sam.Header {
	var refs []*sam.Reference
	for i, size := range sizes {
		ref, err := sam.NewReference(fmt.Sprintf("chr%d", i+1), "", "", size, nil, nil)
		if err != nil {
			panic(err)
		}
		refs = append(refs, ref)
	}
	header, err := sam.NewHeader(nil, refs)
	if err != nil {
		panic(err)
	}
	return header
}

var (
	header = newHeader(100000, 50000)
	chr1   = header.Refs()[0]
	chr2   = header.Refs()[1]
)

// NewRecord creates a mapped record whose CIGAR covers all of seq.
func NewRecord(name string, ref *sam.Reference, pos int, flags sam.Flags, seq string) *sam.Record {
	return &sam.Record{
		Name:    name,
		Ref:     ref,
		Pos:     pos,
		MapQ:    goodMapQ,
		Flags:   flags,
		Cigar:   sam.Cigar{sam.NewCigarOp(sam.CigarMatch, len(seq))},
		MateRef: nil,
		MatePos: -1,
		Seq:     sam.NewSeq([]byte(seq)),
		Qual:    []byte(strings.Repeat("\x1e", len(seq))),
	}
}

// NewPair creates two mates of read name, with testSeq as sequence.
func NewPair(name string, ref1 *sam.Reference, pos1 int, flags1 sam.Flags, ref2 *sam.Reference, pos2 int, flags2 sam.Flags) (*sam.Record, *sam.Record) {
	return NewRecord(name, ref1, pos1, flags1, testSeq), NewRecord(name, ref2, pos2, flags2, testSeq)
}

func NewAux(name string, val interface{}) sam.Aux {
	aux, err := sam.NewAux(sam.NewTag(name), val)
	if err != nil {
		panic(fmt.Sprintf("error creating %s %v tag: %v", name, val, err))
	}
	return aux
}

// newFixedIndex returns an index of fixed-width bins over h.
func newFixedIndex(h *sam.Header, width int) *interval.BinIndex {
	chroms := interval.ChromSizesFromHeader(h)
	bins, err := interval.NewFixedBins(chroms, width, nil)
	if err != nil {
		panic(err)
	}
	idx, err := interval.NewBinIndex(interval.EnlargeBins(bins, chroms))
	if err != nil {
		panic(err)
	}
	return idx
}

// testOpts returns a copy of DefaultOpts with fixed bins.
func testOpts(binSize int) Opts {
	opts := DefaultOpts
	opts.BinSize = binSize
	return opts
}
