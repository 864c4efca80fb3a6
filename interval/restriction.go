// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// NewRestrictionBins derives one bin per restriction site from cutSites,
// which must be grouped by chromosome and sorted by start.
//
// A site whose distance to the previous site on the same chromosome
// (next.Start0 - prev.End) is at most minDistance is merged into the previous
// one and does not produce a bin boundary.  Each surviving site is then
// widened by maxDistance on both sides (clamped at 0).  When two widened
// sites overlap, the boundary is moved to the middle of the overlap.  If
// chroms is non-empty, the last bin of each chromosome is clipped at the
// chromosome size.
//
// For example, the cut sites
//   chr1:10-20, chr1:60-70, chr2:20-30, chr2:40-50, chr2:70-80
// with minDistance=10 and maxDistance=20 produce the bins
//   chr1:0-40, chr1:40-90, chr2:0-60, chr2:60-100.
//
// The result usually has gaps at chromosome ends; EnlargeBins closes them.
func NewRestrictionBins(cutSites []Entry, chroms []ChromSize, minDistance, maxDistance int) ([]Entry, error) {
	if len(cutSites) == 0 {
		return nil, errors.E(errors.Invalid, "interval.NewRestrictionBins: no restriction cut sites")
	}
	if minDistance < 0 || maxDistance < 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.NewRestrictionBins: invalid distances min=%d max=%d", minDistance, maxDistance))
	}
	log.Debug.Printf("restriction bins: min distance %d, max distance %d, %d cut sites",
		minDistance, maxDistance, len(cutSites))

	// Merge sites that are too close to each other.  prevEnd tracks the end of
	// the last site seen (merged or not) so that runs of close sites collapse
	// into one.
	sites := make([]Entry, 0, len(cutSites))
	nMerged := 0
	var prevEnd PosType
	for i, site := range cutSites {
		if site.End < site.Start0 || site.Start0 < 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.NewRestrictionBins: invalid cut site %v", site))
		}
		n := len(sites)
		if n > 0 && sites[n-1].ChrName == site.ChrName {
			if site.Start0 < cutSites[i-1].Start0 {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.NewRestrictionBins: unsorted cut sites at %v", site))
			}
			if int(site.Start0-prevEnd) <= minDistance {
				sites[n-1].End = site.End
				prevEnd = site.End
				nMerged++
				continue
			}
		}
		sites = append(sites, site)
		prevEnd = site.End
	}
	log.Debug.Printf("restriction bins: merged %d close cut sites", nMerged)

	maxDist := PosType(maxDistance)
	for i := range sites {
		sites[i].Start0 -= maxDist
		if sites[i].Start0 < 0 {
			sites[i].Start0 = 0
		}
		sites[i].End += maxDist
	}

	sizes := chromSizeMap(chroms)
	bins := make([]Entry, 0, len(sites))
	for i := range sites {
		// sites[i].Start0 may already have been moved by the previous iteration.
		cur := sites[i]
		if i+1 < len(sites) && sites[i+1].ChrName == cur.ChrName {
			next := &sites[i+1]
			if cur.End > next.Start0 {
				middle := next.Start0 + (cur.End-next.Start0)/2
				cur.End = middle
				next.Start0 = middle
			}
		} else if size, ok := sizes[cur.ChrName]; ok && int(cur.End) > size {
			cur.End = PosType(size)
		}
		bins = append(bins, cur)
	}
	return bins, nil
}
