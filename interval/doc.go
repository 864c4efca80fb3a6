// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*Package interval builds and queries the genomic bins that form the rows and
  columns of a Hi-C contact matrix.

  Bins are produced either by tiling each chromosome at a fixed width
  (NewFixedBins) or from a list of restriction-enzyme cut sites
  (NewRestrictionBins).  EnlargeBins then removes the gaps between
  consecutive bins so that every base of a chromosome belongs to exactly one
  bin.  BinIndex answers "which bin contains this position" using one
  interval tree per chromosome, and SiteIndex answers "is there a cut site
  inside this range".

  All coordinates are 0-based, half-open, and are assumed to fit in a
  PosType, which is int32 since that's what BAM files are limited to.
*/
package interval
