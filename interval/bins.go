// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"
	"math"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// PosType is the coordinate type of Entry.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// Entry represents a single interval, with 0-based half-open coordinates.
type Entry struct {
	ChrName string
	Start0  PosType
	End     PosType
}

// Len returns the number of bases covered by e.
func (e Entry) Len() int {
	return int(e.End - e.Start0)
}

func (e Entry) String() string {
	return fmt.Sprintf("%s:%d-%d", e.ChrName, e.Start0, e.End)
}

// ChromSize names a reference sequence and its length.  Slices of ChromSize
// preserve the reference order of the alignment header.
type ChromSize struct {
	Name string
	Len  int
}

// ChromSizesFromHeader returns the references of header, in header order.
func ChromSizesFromHeader(header *sam.Header) []ChromSize {
	refs := header.Refs()
	chroms := make([]ChromSize, len(refs))
	for i, ref := range refs {
		chroms[i] = ChromSize{Name: ref.Name(), Len: ref.Len()}
	}
	return chroms
}

func chromSizeMap(chroms []ChromSize) map[string]int {
	m := make(map[string]int, len(chroms))
	for _, c := range chroms {
		m[c.Name] = c.Len
	}
	return m
}

// NewFixedBins tiles every chromosome with bins of the given width.  The
// last bin of a chromosome is clipped at the chromosome size.  If region is
// non-nil, only region.ChrName is tiled, starting at region.Start0 and
// clipped at min(region.End, chromosome size).
func NewFixedBins(chroms []ChromSize, width int, region *Entry) ([]Entry, error) {
	if width <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.NewFixedBins: bin width must be positive, got %d", width))
	}
	if len(chroms) == 0 {
		return nil, errors.E(errors.Invalid, "interval.NewFixedBins: empty chromosome list")
	}
	var bins []Entry
	tile := func(name string, start, end int) {
		for pos := start; pos < end; pos += width {
			binEnd := pos + width
			if binEnd > end {
				binEnd = end
			}
			bins = append(bins, Entry{ChrName: name, Start0: PosType(pos), End: PosType(binEnd)})
		}
	}
	if region != nil {
		size, ok := chromSizeMap(chroms)[region.ChrName]
		if !ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.NewFixedBins: region chromosome %s not in header", region.ChrName))
		}
		end := int(region.End)
		if end > size {
			end = size
		}
		if int(region.Start0) >= end {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.NewFixedBins: region %v is empty", *region))
		}
		tile(region.ChrName, int(region.Start0), end)
		return bins, nil
	}
	for _, c := range chroms {
		tile(c.Name, 0, c.Len)
	}
	return bins, nil
}

// EnlargeBins removes the gaps between bins so that they cover each
// chromosome completely: the first bin of every chromosome starts at 0, the
// last one ends at the chromosome size, and the boundary between two
// consecutive bins is placed at the (floor) midpoint between the end of the
// first and the start of the second.  bins must be grouped by chromosome and
// sorted by start within a chromosome.  The slice is modified in place and
// returned.
//
// Bins on chromosomes missing from chroms keep their last end.
func EnlargeBins(bins []Entry, chroms []ChromSize) []Entry {
	sizes := chromSizeMap(chroms)
	for i := range bins {
		cur := &bins[i]
		if i == 0 || bins[i-1].ChrName != cur.ChrName {
			cur.Start0 = 0
		}
		if i+1 < len(bins) && bins[i+1].ChrName == cur.ChrName {
			next := &bins[i+1]
			if cur.End != next.Start0 {
				middle := cur.End + (next.Start0-cur.End)/2
				cur.End = middle
				next.Start0 = middle
			}
			continue
		}
		if size, ok := sizes[cur.ChrName]; ok {
			cur.End = PosType(size)
		}
	}
	return bins
}
