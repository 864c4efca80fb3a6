// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package hicmatrix

import (
	"github.com/grailbio/hic/interval"
	"github.com/grailbio/hts/sam"
)

const (
	// DefaultPoorBinThreshold is the bin_max threshold used when the coverage
	// histogram has no local minimum.
	DefaultPoorBinThreshold = 5

	poorBinBuckets     = 100
	poorBinMaxCoverage = 200
)

// Coverage keeps, for every bin, a vector of read counts at a fixed
// resolution.  Vectors are allocated on first use.
type Coverage struct {
	bins       []interval.Entry
	resolution int
	vecs       [][]int32
}

// NewCoverage creates an empty Coverage over bins.
func NewCoverage(bins []interval.Entry, resolution int) *Coverage {
	return &Coverage{
		bins:       bins,
		resolution: resolution,
		vecs:       make([][]int32, len(bins)),
	}
}

// Add counts mate r, which was assigned to bin binID.
func (c *Coverage) Add(binID int, r *sam.Record) {
	vec := c.vecs[binID]
	if vec == nil {
		bin := c.bins[binID]
		vec = make([]int32, (bin.Len()+c.resolution-1)/c.resolution)
		c.vecs[binID] = vec
	}
	start := r.Pos - int(c.bins[binID].Start0)
	if start < 0 {
		start = 0
	}
	seqLen := r.Seq.Length
	if seqLen == 0 {
		seqLen = r.Len()
	}
	vecStart := start / c.resolution
	vecEnd := vecStart + seqLen/c.resolution
	if vecEnd > len(vec) {
		vecEnd = len(vec)
	}
	for i := vecStart; i < vecEnd; i++ {
		vec[i]++
	}
}

// BinMax returns the peak of each bin's coverage vector.
func (c *Coverage) BinMax() []int32 {
	binMax := make([]int32, len(c.vecs))
	for i, vec := range c.vecs {
		for _, v := range vec {
			if v > binMax[i] {
				binMax[i] = v
			}
		}
	}
	return binMax
}

// PoorBins finds the bins with too little coverage.  It builds a histogram of
// binMax over [0, 200] in 100 buckets and takes the lower edge of the first
// interior bucket that is smaller than both neighbors as the threshold.  If
// there is no such bucket, fallback is used.  Bins whose binMax is at most the
// threshold are returned, in ascending order.
//
// The heuristic assumes a bimodal distribution of peak coverage, with empty
// or unmappable bins in the lower mode.
func PoorBins(binMax []int32, fallback int) (threshold int, poor []int) {
	const bucketWidth = poorBinMaxCoverage / poorBinBuckets
	var hist [poorBinBuckets]int
	for _, v := range binMax {
		if v < 0 || v > poorBinMaxCoverage {
			continue
		}
		b := int(v) / bucketWidth
		if b == poorBinBuckets {
			b--
		}
		hist[b]++
	}
	threshold = fallback
	for i := 1; i < poorBinBuckets-1; i++ {
		if hist[i] < hist[i-1] && hist[i] < hist[i+1] {
			threshold = i * bucketWidth
			break
		}
	}
	for i, v := range binMax {
		if int(v) <= threshold {
			poor = append(poor, i)
		}
	}
	return threshold, poor
}
