// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"

	"github.com/biogo/store/interval"
	"github.com/grailbio/base/errors"
)

// irange is a half-open integer interval stored in an interval.IntTree.  It
// doubles as a query object.
type irange struct {
	start, end int
	uid        uintptr
}

func (r irange) Overlap(b interval.IntRange) bool {
	return r.end > b.Start && r.start < b.End
}
func (r irange) ID() uintptr              { return r.uid }
func (r irange) Range() interval.IntRange { return interval.IntRange{Start: r.start, End: r.end} }

// BinIndex maps genomic positions to bin ids.  The bin id is the position of
// the bin in the slice passed to NewBinIndex.  A BinIndex is read-only after
// construction and is safe for concurrent use.
type BinIndex struct {
	bins  []Entry
	trees map[string]*interval.IntTree
}

// NewBinIndex builds an index over bins.  Bins of one chromosome must not
// overlap each other; NewBinIndex returns an error if they do, so that Find
// never has to choose between several candidates.
func NewBinIndex(bins []Entry) (*BinIndex, error) {
	if len(bins) == 0 {
		return nil, errors.E(errors.Invalid, "interval.NewBinIndex: no bins")
	}
	idx := &BinIndex{
		bins:  bins,
		trees: make(map[string]*interval.IntTree),
	}
	last := make(map[string]Entry)
	for id, bin := range bins {
		if bin.End <= bin.Start0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.NewBinIndex: empty bin %d (%v)", id, bin))
		}
		if prev, ok := last[bin.ChrName]; ok && prev.End > bin.Start0 && prev.Start0 < bin.End {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.NewBinIndex: bin %d (%v) overlaps %v", id, bin, prev))
		}
		last[bin.ChrName] = bin
		tree, ok := idx.trees[bin.ChrName]
		if !ok {
			tree = &interval.IntTree{}
			idx.trees[bin.ChrName] = tree
		}
		if err := tree.Insert(irange{int(bin.Start0), int(bin.End), uintptr(id)}, true); err != nil {
			return nil, errors.E(err, "interval.NewBinIndex: insert", bin.String())
		}
	}
	for _, tree := range idx.trees {
		tree.AdjustRanges()
	}
	return idx, nil
}

// Find returns the id of the bin containing chrName:pos.  It returns false if
// the chromosome is unknown or no bin covers pos.
func (idx *BinIndex) Find(chrName string, pos int) (int, bool) {
	tree, ok := idx.trees[chrName]
	if !ok {
		return 0, false
	}
	id, found := 0, false
	tree.DoMatching(func(iv interval.IntInterface) bool {
		id, found = int(iv.ID()), true
		return true
	}, irange{start: pos, end: pos + 1})
	return id, found
}

// Bin returns the bin with the given id.
func (idx *BinIndex) Bin(id int) Entry { return idx.bins[id] }

// Bins returns all bins, ordered by id.  The caller must not modify the
// result.
func (idx *BinIndex) Bins() []Entry { return idx.bins }

// Len returns the number of bins.
func (idx *BinIndex) Len() int { return len(idx.bins) }

// SiteIndex records restriction-site locations for range queries.
type SiteIndex struct {
	trees map[string]*interval.IntTree
}

// NewSiteIndex builds a SiteIndex from cut-site intervals.
func NewSiteIndex(sites []Entry) (*SiteIndex, error) {
	idx := &SiteIndex{trees: make(map[string]*interval.IntTree)}
	for i, site := range sites {
		tree, ok := idx.trees[site.ChrName]
		if !ok {
			tree = &interval.IntTree{}
			idx.trees[site.ChrName] = tree
		}
		if err := tree.Insert(irange{int(site.Start0), int(site.End), uintptr(i)}, true); err != nil {
			return nil, errors.E(err, "interval.NewSiteIndex: insert", site.String())
		}
	}
	for _, tree := range idx.trees {
		tree.AdjustRanges()
	}
	return idx, nil
}

// Contains reports whether any site on chrName overlaps [start, end).
func (idx *SiteIndex) Contains(chrName string, start, end int) bool {
	if end <= start {
		return false
	}
	tree, ok := idx.trees[chrName]
	if !ok {
		return false
	}
	found := false
	tree.DoMatching(func(interval.IntInterface) bool {
		found = true
		return true
	}, irange{start: start, end: end})
	return found
}
