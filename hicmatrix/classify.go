// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package hicmatrix

import (
	"github.com/grailbio/hic/encoding/fasta"
	"github.com/grailbio/hic/interval"
	"github.com/grailbio/hts/sam"
)

// Result is the classification of one pair.  Bin1, Bin2 and Orientation are
// valid only if the pair got past bin assignment, which every Accepted pair
// does.
type Result struct {
	Outcome     Outcome
	Bin1, Bin2  int
	Orientation Orientation
}

// Classifier assigns an Outcome to each mate pair.  It owns no state besides
// the DuplicateDetector it is given, which it updates.
type Classifier struct {
	bins  *interval.BinIndex
	dups  *DuplicateDetector
	sites *interval.SiteIndex

	qualityThreshold        int
	minSelfCircleDistance   int
	minSameFragmentDistance int
	notUniqueTag            sam.Tag
	checkNotUnique          bool

	// restriction is the recognition sequence.  danglingFwd is restriction
	// minus its first base, danglingRev restriction minus its last base.
	// 'N' matches any base.
	restriction              []byte
	danglingFwd, danglingRev string
}

// NewClassifier creates a Classifier.  dups may be nil to disable duplicate
// detection, and sites may be nil when no restriction sites are known.
func NewClassifier(bins *interval.BinIndex, dups *DuplicateDetector, sites *interval.SiteIndex, opts *Opts) *Classifier {
	c := &Classifier{
		bins:                    bins,
		dups:                    dups,
		sites:                   sites,
		qualityThreshold:        opts.QualityThreshold,
		minSelfCircleDistance:   opts.MinSelfCircleDistance,
		minSameFragmentDistance: opts.MinSameFragmentDistance,
	}
	if opts.NotUniqueTag != "" {
		c.notUniqueTag = sam.NewTag(opts.NotUniqueTag)
		c.checkNotUnique = true
	}
	if rs := opts.RestrictionSequence; rs != "" {
		c.restriction = []byte(rs)
		c.danglingFwd = rs[1:]
		c.danglingRev = rs[:len(rs)-1]
	}
	return c
}

func reversed(r *sam.Record) bool {
	return r.Flags&sam.Reverse != 0
}

// midpoint returns the center of the reference span of r.
func midpoint(r *sam.Record) int {
	return r.Pos + r.Len()/2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (c *Classifier) hasNotUniqueTag(r *sam.Record) bool {
	return c.checkNotUnique && r.AuxFields.Get(c.notUniqueTag) != nil
}

// danglingEnd reports whether r starts, on its strand, with an unligated
// restriction site.
func (c *Classifier) danglingEnd(r *sam.Record) bool {
	seq := r.Seq.Expand()
	if reversed(r) {
		return fasta.HasSuffix(seq, c.danglingRev)
	}
	return fasta.HasPrefix(seq, c.danglingFwd)
}

// PairOrientation returns the orientation of two mates, or InterChrom if they
// are on different chromosomes.
func PairOrientation(m1, m2 *sam.Record) Orientation {
	if m1.Ref.Name() != m2.Ref.Name() {
		return InterChrom
	}
	first, second := m1, m2
	if m2.Pos < m1.Pos {
		first, second = m2, m1
	}
	switch {
	case !reversed(first) && reversed(second):
		return Inward
	case reversed(first) && !reversed(second):
		return Outward
	}
	return SameStrand
}

// Classify returns the outcome for the pair (m1, m2).  The records must be
// primary alignments of the same read.
func (c *Classifier) Classify(m1, m2 *sam.Record) Result {
	if m1.Flags&sam.Unmapped != 0 || m2.Flags&sam.Unmapped != 0 || m1.Ref == nil || m2.Ref == nil {
		return Result{Outcome: Unmapped}
	}
	if int(m1.MapQ) < c.qualityThreshold || int(m2.MapQ) < c.qualityThreshold {
		if c.hasNotUniqueTag(m1) || c.hasNotUniqueTag(m2) {
			return Result{Outcome: NotUnique}
		}
		return Result{Outcome: LowQuality}
	}
	chr1, chr2 := m1.Ref.Name(), m2.Ref.Name()
	if c.dups != nil && c.dups.IsDuplicate(chr1, m1.Pos, chr2, m2.Pos) {
		return Result{Outcome: Duplicate}
	}
	bin1, ok1 := c.bins.Find(chr1, midpoint(m1))
	bin2, ok2 := c.bins.Find(chr2, midpoint(m2))
	if !ok1 || !ok2 {
		return Result{Outcome: NotCloseToSite}
	}
	res := Result{Outcome: Accepted, Bin1: bin1, Bin2: bin2, Orientation: PairOrientation(m1, m2)}
	if res.Orientation == InterChrom {
		return res
	}

	dist := abs(m2.Pos - m1.Pos)
	if dist < c.minSelfCircleDistance && res.Orientation == Outward {
		res.Outcome = SelfCircle
		return res
	}
	if c.restriction != nil && (c.danglingEnd(m1) || c.danglingEnd(m2)) {
		res.Outcome = DanglingEnd
		return res
	}
	if dist < c.minSameFragmentDistance && res.Orientation == Inward {
		res.Outcome = SameFragment
		if c.restriction != nil && c.sites != nil {
			start := m1.Pos
			if m2.Pos < start {
				start = m2.Pos
			}
			end := m1.End()
			if m2.End() > end {
				end = m2.End()
			}
			start += len(c.restriction)
			end -= len(c.restriction)
			if c.sites.Contains(chr1, start, end) {
				res.Outcome = SelfLigation
			}
		}
	}
	return res
}

// AugmentPair fills in the mate fields of an accepted pair so that the two
// records can be written as a proper paired-end alignment.  m1 becomes read 1
// and m2 read 2.  Both records must refer to the same header.
func AugmentPair(m1, m2 *sam.Record) {
	link := func(r, mate *sam.Record, read sam.Flags) {
		r.Flags &^= sam.Read1 | sam.Read2 | sam.MateUnmapped | sam.MateReverse
		r.Flags |= sam.Paired | read
		if reversed(mate) {
			r.Flags |= sam.MateReverse
		}
		r.MateRef = mate.Ref
		r.MatePos = mate.Pos
		r.TempLen = 0
		if r.Ref.Name() == mate.Ref.Name() {
			r.TempLen = mate.Pos - r.Pos
		}
	}
	link(m1, m2, sam.Read1)
	link(m2, m1, sam.Read2)
}
