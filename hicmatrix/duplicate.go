// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package hicmatrix

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/hic/interval"
)

// DuplicateDetector remembers the start positions of every pair it has been
// asked about.  A pair is keyed by the absolute (genome-wide) positions of its
// two mates, so (a, b) and (b, a) are the same pair.
//
// Only observed pairs are stored, one map entry each.  On a large run this is
// the biggest consumer of memory.
type DuplicateDetector struct {
	offsets map[string]int64
	lens    map[string]int
	// narrow is used when every absolute position fits in 32 bits, wide
	// otherwise.  Keys are ordered (min, max).
	narrow  map[uint64]struct{}
	wide    map[[2]int64]struct{}
	unknown map[string]bool
}

// NewDuplicateDetector creates a detector for the given chromosomes.  The
// absolute position of chrom:pos is pos plus the total length of the
// chromosomes listed before chrom.
func NewDuplicateDetector(chroms []interval.ChromSize) *DuplicateDetector {
	d := &DuplicateDetector{
		offsets: make(map[string]int64, len(chroms)),
		lens:    make(map[string]int, len(chroms)),
		unknown: make(map[string]bool),
	}
	var total int64
	for _, c := range chroms {
		d.offsets[c.Name] = total
		d.lens[c.Name] = c.Len
		total += int64(c.Len)
	}
	if total <= 1<<32 {
		d.narrow = make(map[uint64]struct{})
	} else {
		d.wide = make(map[[2]int64]struct{})
	}
	return d
}

func (d *DuplicateDetector) absPos(chrName string, pos int) (int64, bool) {
	off, ok := d.offsets[chrName]
	if !ok {
		if !d.unknown[chrName] {
			d.unknown[chrName] = true
			log.Error.Printf("duplicate detection: chromosome %s is not in the header, its pairs are never duplicates", chrName)
		}
		return 0, false
	}
	// Positions off the chromosome would alias a position on the next one.
	if pos < 0 || pos >= d.lens[chrName] {
		return 0, false
	}
	return off + int64(pos), true
}

// IsDuplicate reports whether the pair (chr1:pos1, chr2:pos2) has been seen
// before, and records it if not.  A pair with a mate on an unknown chromosome
// or outside its chromosome is never a duplicate.  The check is symmetric:
// IsDuplicate(a, b) followed by IsDuplicate(b, a) returns false, true.
func (d *DuplicateDetector) IsDuplicate(chr1 string, pos1 int, chr2 string, pos2 int) bool {
	p1, ok1 := d.absPos(chr1, pos1)
	p2, ok2 := d.absPos(chr2, pos2)
	if !ok1 || !ok2 {
		return false
	}
	if p1 > p2 {
		p1, p2 = p2, p1
	}
	if d.narrow != nil {
		key := uint64(p1)<<32 | uint64(p2)
		if _, ok := d.narrow[key]; ok {
			return true
		}
		d.narrow[key] = struct{}{}
		return false
	}
	key := [2]int64{p1, p2}
	if _, ok := d.wide[key]; ok {
		return true
	}
	d.wide[key] = struct{}{}
	return false
}

// Len returns the number of distinct pairs recorded.  A nil detector has
// none.
func (d *DuplicateDetector) Len() int {
	if d == nil {
		return 0
	}
	if d.narrow != nil {
		return len(d.narrow)
	}
	return len(d.wide)
}
