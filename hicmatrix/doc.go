// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
Package hicmatrix builds a Hi-C contact matrix from two mate alignment files.

The two inputs hold the first and second mates of each read pair, aligned
independently and stored in the same (name) order.  Build reads both files in
lockstep, skipping secondary and supplementary alignments, and hands each pair
to a Classifier.  The classifier applies a fixed chain of filters; the first
matching filter decides the outcome:

  unmapped       either mate is unmapped
  not-unique     a mate has MAPQ below the threshold and carries the XS tag
  low-quality    a mate has MAPQ below the threshold
  duplicate      the (chrom1, pos1, chrom2, pos2) tuple was already seen
  not-close-to-restriction-site
                 a mate's midpoint falls outside every bin
  self-circle    outward-facing mates closer than MinSelfCircleDistance
  dangling-end   a mate starts (or ends) with the restriction sequence
  self-ligation  inward mates closer than MinSameFragmentDistance, with a
                 restriction site between them
  same-fragment  as above, without a site between them
  accepted       everything else

The last four filters apply only to mates on the same chromosome.  Accepted
pairs increment one matrix cell and the per-bin coverage vectors.  After the
pass, bins whose peak coverage is at most a threshold derived from the
coverage histogram are masked, and the matrix is symmetrized and reduced to its
upper triangle.

Memory use is dominated by the DuplicateDetector, which keeps one entry per
distinct position pair that reaches the duplicate filter, and by the raw
matrix triples, one per accepted pair.  Both grow linearly with the number
of pairs.
*/
package hicmatrix
