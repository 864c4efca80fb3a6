// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package hicmatrix

import (
	"testing"

	"github.com/grailbio/hic/interval"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
)

func TestDuplicateSymmetry(t *testing.T) {
	chroms := []interval.ChromSize{{Name: "chr1", Len: 1000}, {Name: "chr2", Len: 2000}}
	d := NewDuplicateDetector(chroms)
	for i := 0; i < 1000; i++ {
		c1, c2 := chroms[i%2], chroms[(i/2)%2]
		p1, p2 := i%c1.Len, (7*i)%c2.Len
		assert.False(t, d.IsDuplicate(c1.Name, p1, c2.Name, p2), "%s:%d %s:%d", c1.Name, p1, c2.Name, p2)
		assert.True(t, d.IsDuplicate(c2.Name, p2, c1.Name, p1), "%s:%d %s:%d", c2.Name, p2, c1.Name, p1)
	}
	expect.EQ(t, d.Len(), 1000)
}

func TestDuplicate(t *testing.T) {
	d := NewDuplicateDetector([]interval.ChromSize{{Name: "chr1", Len: 1000}, {Name: "chr2", Len: 2000}})
	expect.False(t, d.IsDuplicate("chr1", 10, "chr2", 20))
	expect.True(t, d.IsDuplicate("chr2", 20, "chr1", 10))
	expect.True(t, d.IsDuplicate("chr1", 10, "chr2", 20))
	// Swapping the local positions gives a different pair.
	expect.False(t, d.IsDuplicate("chr1", 20, "chr2", 10))
	expect.False(t, d.IsDuplicate("chr2", 10, "chr2", 20))
	expect.EQ(t, d.Len(), 3)

	// Unknown chromosomes are never duplicates and are not stored.
	expect.False(t, d.IsDuplicate("chrUn", 10, "chr1", 20))
	expect.False(t, d.IsDuplicate("chrUn", 10, "chr1", 20))
	expect.EQ(t, d.Len(), 3)

	var nilDetector *DuplicateDetector
	expect.EQ(t, nilDetector.Len(), 0)
}

func TestDuplicateOffChromosome(t *testing.T) {
	d := NewDuplicateDetector([]interval.ChromSize{{Name: "chr1", Len: 1000}, {Name: "chr2", Len: 2000}})
	expect.False(t, d.IsDuplicate("chr1", 5, "chr2", 10))
	// chr1:1010 would share its absolute position with chr2:10.
	expect.False(t, d.IsDuplicate("chr1", 5, "chr1", 1010))
	expect.False(t, d.IsDuplicate("chr1", 5, "chr1", 1010))
	// Past the end of the last chromosome.
	expect.False(t, d.IsDuplicate("chr2", 2000, "chr1", 5))
	expect.False(t, d.IsDuplicate("chr2", 2000, "chr1", 5))
	expect.False(t, d.IsDuplicate("chr1", -1, "chr1", 5))
	expect.True(t, d.IsDuplicate("chr2", 10, "chr1", 5))
	expect.EQ(t, d.Len(), 1)
}

func TestDuplicateLargeGenome(t *testing.T) {
	chroms := []interval.ChromSize{{Name: "chr1", Len: 3000000000}, {Name: "chr2", Len: 3000000000}}
	d := NewDuplicateDetector(chroms)
	assert.Nil(t, d.narrow)
	expect.False(t, d.IsDuplicate("chr2", 2999999999, "chr1", 5))
	expect.True(t, d.IsDuplicate("chr1", 5, "chr2", 2999999999))
	expect.False(t, d.IsDuplicate("chr1", 2999999999, "chr1", 5))
	expect.EQ(t, d.Len(), 2)
}
