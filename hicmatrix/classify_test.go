// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package hicmatrix

import (
	"testing"

	"github.com/grailbio/hic/interval"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fwd = sam.Flags(0)
	rev = sam.Reverse
)

func newTestClassifier(t *testing.T, opts Opts, sites []interval.Entry) *Classifier {
	var siteIndex *interval.SiteIndex
	if sites != nil {
		var err error
		siteIndex, err = interval.NewSiteIndex(sites)
		require.NoError(t, err)
	}
	return NewClassifier(newFixedIndex(header, 1000), NewDuplicateDetector(interval.ChromSizesFromHeader(header)), siteIndex, &opts)
}

func TestClassify(t *testing.T) {
	withRestriction := testOpts(1000)
	withRestriction.RestrictionSequence = "GATC"
	ambiguous := testOpts(1000)
	ambiguous.RestrictionSequence = "GANTC"
	sites := []interval.Entry{{ChrName: "chr1", Start0: 10200, End: 10204}, {ChrName: "chr1", Start0: 20600, End: 20604}}

	lowQ := func(r *sam.Record) *sam.Record { r.MapQ = 10; return r }
	withXS := func(r *sam.Record) *sam.Record { r.AuxFields = append(r.AuxFields, NewAux("XS", 30)); return r }
	unmapped := func(r *sam.Record) *sam.Record { r.Flags |= sam.Unmapped; return r }
	seq := func(s string) func(*sam.Record) *sam.Record {
		return func(r *sam.Record) *sam.Record { r.Seq = sam.NewSeq([]byte(s)); return r }
	}
	id := func(r *sam.Record) *sam.Record { return r }

	tests := []struct {
		name        string
		opts        Opts
		sites       []interval.Entry
		pos1, pos2  int
		ref2        *sam.Reference
		flags1      sam.Flags
		flags2      sam.Flags
		mod1, mod2  func(*sam.Record) *sam.Record
		want        Outcome
		orientation Orientation
	}{
		{"unmapped", testOpts(1000), nil, 10000, 60000, chr1, fwd, rev, unmapped, id, Unmapped, InterChrom},
		{"unmapped before low quality", testOpts(1000), nil, 10000, 60000, chr1, fwd, rev, lowQ, unmapped, Unmapped, InterChrom},
		{"low quality", testOpts(1000), nil, 10000, 60000, chr1, fwd, rev, id, lowQ, LowQuality, InterChrom},
		{"not unique", testOpts(1000), nil, 10000, 60000, chr1, fwd, rev, lowQ, withXS, NotUnique, InterChrom},
		{"xs with good quality", testOpts(1000), nil, 10000, 60000, chr1, fwd, rev, withXS, id, Accepted, Inward},
		{"inter-chromosomal", testOpts(1000), nil, 10000, 20000, chr2, fwd, fwd, id, id, Accepted, InterChrom},
		{"self circle", testOpts(1000), nil, 10000, 15000, chr1, rev, fwd, id, id, SelfCircle, Outward},
		{"distant outward", testOpts(1000), nil, 10000, 40000, chr1, rev, fwd, id, id, Accepted, Outward},
		{"same fragment", testOpts(1000), nil, 10000, 10500, chr1, fwd, rev, id, id, SameFragment, Inward},
		{"same fragment, mates swapped", testOpts(1000), nil, 10500, 10000, chr1, rev, fwd, id, id, SameFragment, Inward},
		{"same fragment without site index", withRestriction, nil, 10000, 10500, chr1, fwd, rev, id, id, SameFragment, Inward},
		{"self ligation", withRestriction, sites, 10000, 10500, chr1, fwd, rev, id, id, SelfLigation, Inward},
		{"site outside the fragment", withRestriction, sites, 20000, 20550, chr1, fwd, rev, id, id, SameFragment, Inward},
		{"close same strand", testOpts(1000), nil, 10000, 10500, chr1, fwd, fwd, id, id, Accepted, SameStrand},
		{"dangling end forward", withRestriction, nil, 10000, 60000, chr1, fwd, rev, seq("ATCGGGGG"), id, DanglingEnd, Inward},
		{"dangling end reverse", withRestriction, nil, 10000, 60000, chr1, fwd, rev, id, seq("CCCCCGAT"), DanglingEnd, Inward},
		{"dangling end check needs a sequence", testOpts(1000), nil, 10000, 60000, chr1, fwd, rev, seq("ATCGGGGG"), id, Accepted, Inward},
		{"self circle before dangling end", withRestriction, nil, 10000, 15000, chr1, rev, fwd, id, seq("ATCGGGGG"), SelfCircle, Outward},
		{"dangling end forward, any base", ambiguous, nil, 10000, 60000, chr1, fwd, rev, seq("AGTCGGGG"), id, DanglingEnd, Inward},
		{"dangling end reverse, any base", ambiguous, nil, 10000, 60000, chr1, fwd, rev, id, seq("CCCCGACT"), DanglingEnd, Inward},
		{"no dangling end, any base", ambiguous, nil, 10000, 60000, chr1, fwd, rev, seq("AGTAGGGG"), id, Accepted, Inward},
	}
	for _, tt := range tests {
		c := newTestClassifier(t, tt.opts, tt.sites)
		m1, m2 := NewPair("r1", chr1, tt.pos1, tt.flags1, tt.ref2, tt.pos2, tt.flags2)
		res := c.Classify(tt.mod1(m1), tt.mod2(m2))
		assert.Equal(t, tt.want, res.Outcome, tt.name)
		if res.Outcome == Accepted || res.Outcome >= DanglingEnd {
			assert.Equal(t, tt.orientation, res.Orientation, tt.name)
		}
	}
}

func TestClassifyBins(t *testing.T) {
	c := newTestClassifier(t, testOpts(1000), nil)
	m1, m2 := NewPair("r1", chr1, 10000, fwd, chr2, 2990, rev)
	res := c.Classify(m1, m2)
	require.Equal(t, Accepted, res.Outcome)
	// Midpoints are 10025 and 3015.
	expect.EQ(t, res.Bin1, 10)
	expect.EQ(t, res.Bin2, 103)
}

func TestClassifyNotCloseToSite(t *testing.T) {
	opts := testOpts(1000)
	bins := []interval.Entry{{ChrName: "chr1", Start0: 0, End: 5000}, {ChrName: "chr1", Start0: 5000, End: 12000}}
	idx, err := interval.NewBinIndex(bins)
	require.NoError(t, err)
	c := NewClassifier(idx, NewDuplicateDetector(interval.ChromSizesFromHeader(header)), nil, &opts)

	m1, m2 := NewPair("r1", chr1, 1000, fwd, chr1, 11000, fwd)
	expect.EQ(t, c.Classify(m1, m2).Outcome, Accepted)
	// 11980 + 25 is outside every bin.
	m1, m2 = NewPair("r2", chr1, 1000, fwd, chr1, 11980, fwd)
	expect.EQ(t, c.Classify(m1, m2).Outcome, NotCloseToSite)
	m1, m2 = NewPair("r3", chr1, 1000, fwd, chr2, 100, fwd)
	expect.EQ(t, c.Classify(m1, m2).Outcome, NotCloseToSite)

	// A reference missing from the detector and the bins is not a crash.
	other := newHeader(100, 100, 100).Refs()[2]
	m1, m2 = NewPair("r4", chr1, 1000, fwd, other, 10, fwd)
	expect.EQ(t, c.Classify(m1, m2).Outcome, NotCloseToSite)
}

func TestClassifyDuplicate(t *testing.T) {
	c := newTestClassifier(t, testOpts(1000), nil)

	m1, m2 := NewPair("r1", chr1, 10000, fwd, chr2, 20000, rev)
	expect.EQ(t, c.Classify(m1, m2).Outcome, Accepted)
	m1, m2 = NewPair("r2", chr1, 10000, fwd, chr2, 20000, rev)
	expect.EQ(t, c.Classify(m1, m2).Outcome, Duplicate)
	// Mates in the other order.
	m1, m2 = NewPair("r3", chr2, 20000, rev, chr1, 10000, fwd)
	expect.EQ(t, c.Classify(m1, m2).Outcome, Duplicate)

	// A low-quality pair does not reach the detector.
	m1, m2 = NewPair("r4", chr1, 30000, fwd, chr2, 40000, rev)
	m1.MapQ = 0
	expect.EQ(t, c.Classify(m1, m2).Outcome, LowQuality)
	m1, m2 = NewPair("r5", chr1, 30000, fwd, chr2, 40000, rev)
	expect.EQ(t, c.Classify(m1, m2).Outcome, Accepted)

	// Disabled detection.
	c = NewClassifier(newFixedIndex(header, 1000), nil, nil, &DefaultOpts)
	for i := 0; i < 2; i++ {
		m1, m2 = NewPair("r6", chr1, 10000, fwd, chr2, 20000, rev)
		expect.EQ(t, c.Classify(m1, m2).Outcome, Accepted)
	}
}

func TestPairOrientation(t *testing.T) {
	tests := []struct {
		pos1   int
		flags1 sam.Flags
		pos2   int
		flags2 sam.Flags
		want   Orientation
	}{
		{100, fwd, 200, rev, Inward},
		{200, rev, 100, fwd, Inward},
		{100, rev, 200, fwd, Outward},
		{200, fwd, 100, rev, Outward},
		{100, fwd, 200, fwd, SameStrand},
		{100, rev, 200, rev, SameStrand},
	}
	for _, tt := range tests {
		m1, m2 := NewPair("r", chr1, tt.pos1, tt.flags1, chr1, tt.pos2, tt.flags2)
		expect.EQ(t, PairOrientation(m1, m2), tt.want, "%+v", tt)
	}
	m1, m2 := NewPair("r", chr1, 100, fwd, chr2, 200, rev)
	expect.EQ(t, PairOrientation(m1, m2), InterChrom)
}

func TestAugmentPair(t *testing.T) {
	m1, m2 := NewPair("r1", chr1, 10000, fwd, chr1, 12000, rev)
	m1.Flags |= sam.Read2 | sam.MateReverse
	AugmentPair(m1, m2)

	expect.EQ(t, m1.Flags, sam.Paired|sam.Read1|sam.MateReverse)
	expect.EQ(t, m2.Flags, sam.Paired|sam.Read2|sam.Reverse)
	expect.EQ(t, m1.MateRef, chr1)
	expect.EQ(t, m1.MatePos, 12000)
	expect.EQ(t, m2.MatePos, 10000)
	expect.EQ(t, m1.TempLen, 2000)
	expect.EQ(t, m2.TempLen, -2000)

	m1, m2 = NewPair("r2", chr1, 10000, rev, chr2, 500, fwd)
	AugmentPair(m1, m2)
	expect.EQ(t, m2.Flags, sam.Paired|sam.Read2|sam.MateReverse)
	expect.EQ(t, m1.MateRef, chr2)
	expect.EQ(t, m2.MateRef, chr1)
	expect.EQ(t, m1.TempLen, 0)
	expect.EQ(t, m2.TempLen, 0)
}
