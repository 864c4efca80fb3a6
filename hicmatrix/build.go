// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package hicmatrix

import (
	"context"
	"fmt"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hic/encoding/bamprovider"
	"github.com/grailbio/hic/encoding/fasta"
	"github.com/grailbio/hic/interval"
	"github.com/grailbio/hts/sam"
)

// BuildResult is the output of Build.
type BuildResult struct {
	Matrix           *Matrix
	Metrics          Metrics
	PoorBinThreshold int
}

// cutSites returns the restriction sites from opts, or nil if none are
// configured.  When the sites come from a FASTA file, the returned chromosome
// list is the one of the reference.
func cutSites(ctx context.Context, opts *Opts) ([]interval.Entry, []interval.ChromSize, error) {
	switch {
	case opts.CutSites != nil:
		return opts.CutSites, nil, nil
	case opts.CutSitesPath != "":
		sites, err := interval.ReadBEDFromPath(opts.CutSitesPath)
		if err != nil {
			return nil, nil, errors.E(errors.Invalid, "read cut sites", opts.CutSitesPath, err)
		}
		return sites, nil, nil
	case opts.ReferencePath != "":
		sites, chroms, err := fasta.ReadSitesFromPath(ctx, opts.ReferencePath, opts.RestrictionSequence)
		if err != nil {
			return nil, nil, errors.E(errors.Invalid, "scan reference", opts.ReferencePath, err)
		}
		return sites, chroms, nil
	}
	return nil, nil, nil
}

// makeBins builds the bins and returns them with the restriction sites, if
// any.
func makeBins(ctx context.Context, chroms []interval.ChromSize, opts *Opts) (bins, sites []interval.Entry, err error) {
	var region *interval.Entry
	if opts.Region != "" {
		r, err := interval.ParseRegionString(opts.Region)
		if err != nil {
			return nil, nil, errors.E(errors.Invalid, "bad region", opts.Region, err)
		}
		region = &r
	}
	var refChroms []interval.ChromSize
	if sites, refChroms, err = cutSites(ctx, opts); err != nil {
		return
	}
	if sites != nil && len(sites) == 0 {
		return nil, nil, errors.E(errors.Invalid, "no restriction cut sites found")
	}
	if len(refChroms) > 0 && len(refChroms) != len(chroms) {
		log.Error.Printf("reference has %d sequences, alignment header has %d", len(refChroms), len(chroms))
	}

	if !opts.restrictionMode() {
		if bins, err = interval.NewFixedBins(chroms, opts.BinSize, region); err != nil {
			return nil, nil, errors.E(errors.Invalid, err)
		}
		if region == nil {
			bins = interval.EnlargeBins(bins, chroms)
		}
		log.Printf("%d fixed bins of %d bp", len(bins), opts.BinSize)
		return
	}
	if bins, err = interval.NewRestrictionBins(sites, chroms, opts.MinDistance, opts.MaxDistance); err != nil {
		return nil, nil, errors.E(errors.Invalid, err)
	}
	bins = interval.EnlargeBins(bins, chroms)
	if region != nil {
		var inRegion []interval.Entry
		for _, bin := range bins {
			if bin.ChrName == region.ChrName && bin.End > region.Start0 && bin.Start0 < region.End {
				inRegion = append(inRegion, bin)
			}
		}
		if len(inRegion) == 0 {
			return nil, nil, errors.E(errors.Invalid, "no restriction bins in region", opts.Region)
		}
		bins = inRegion
	}
	log.Printf("%d restriction fragment bins from %d cut sites", len(bins), len(sites))
	return
}

// mateStream reads the primary records of one mate file.
type mateStream struct {
	iter    bamprovider.Iterator
	skipped int64
}

func (s *mateStream) next() (*sam.Record, bool) {
	for s.iter.Scan() {
		r := s.iter.Record()
		if r.Flags&(sam.Secondary|sam.Supplementary) != 0 {
			s.skipped++
			sam.PutInFreePool(r)
			continue
		}
		return r, true
	}
	return nil, false
}

// Build reads mate1 and mate2 in lockstep and returns the contact matrix.  The
// two files must list the mates of each pair in the same order.  A read name
// mismatch, or one file running out of records before the other, fails the
// run.  If opts.OutputPrefix is set, the matrix and the QC report are written
// only after the pass succeeded.
func Build(ctx context.Context, mate1, mate2 bamprovider.Provider, opts *Opts) (result *BuildResult, err error) {
	if err = validate(opts); err != nil {
		return nil, err
	}
	header, err := mate1.GetHeader()
	if err != nil {
		return nil, errors.E(err, "read mate 1 header")
	}
	if _, err = mate2.GetHeader(); err != nil {
		return nil, errors.E(err, "read mate 2 header")
	}
	chroms := interval.ChromSizesFromHeader(header)
	bins, sites, err := makeBins(ctx, chroms, opts)
	if err != nil {
		return nil, err
	}
	index, err := interval.NewBinIndex(bins)
	if err != nil {
		return nil, err
	}
	var siteIndex *interval.SiteIndex
	if opts.RestrictionSequence != "" && len(sites) > 0 {
		if siteIndex, err = interval.NewSiteIndex(sites); err != nil {
			return nil, err
		}
	}
	var dups *DuplicateDetector
	if !opts.SkipDuplicateCheck {
		dups = NewDuplicateDetector(chroms)
	}
	classifier := NewClassifier(index, dups, siteIndex, opts)
	coverage := NewCoverage(bins, opts.CoverageResolution)
	builder := NewMatrixBuilder(len(bins))

	var out *bamOutput
	if opts.OutputBAM != "" {
		if out, err = newBAMOutput(ctx, opts.OutputBAM, header); err != nil {
			return nil, err
		}
		defer func() {
			if err != nil {
				out.discard(ctx)
			} else if err = out.close(ctx); err != nil {
				err = errors.E(err, "close", opts.OutputBAM)
			}
		}()
	}

	s1 := mateStream{iter: mate1.NewIterator()}
	s2 := mateStream{iter: mate2.NewIterator()}
	defer func() {
		for i, s := range []*mateStream{&s1, &s2} {
			if e := s.iter.Close(); e != nil && err == nil {
				err = errors.E(e, fmt.Sprintf("read mate %d", i+1))
			}
		}
	}()

	var metrics Metrics
	start := time.Now()
	for {
		m1, ok1 := s1.next()
		m2, ok2 := s2.next()
		if !ok1 || !ok2 {
			if e := s1.iter.Err(); e != nil {
				return nil, errors.E(e, "read mate 1")
			}
			if e := s2.iter.Err(); e != nil {
				return nil, errors.E(e, "read mate 2")
			}
			if ok1 || ok2 {
				name, file := "", 1
				if ok1 {
					name = m1.Name
				} else {
					name, file = m2.Name, 2
				}
				return nil, errors.E(errors.Invalid, fmt.Sprintf(
					"mate files are out of sync at pair %d: read %s has no mate, only mate %d file has records left",
					metrics.Pairs, name, file))
			}
			break
		}
		if m1.Name != m2.Name {
			return nil, errors.E(errors.Invalid, fmt.Sprintf(
				"mate files are out of sync at pair %d: %s (mate 1) vs %s (mate 2); both files must be in the same read order",
				metrics.Pairs, m1.Name, m2.Name))
		}
		res := classifier.Classify(m1, m2)
		metrics.observe(res, m1, m2)
		if res.Outcome == Accepted {
			coverage.Add(res.Bin1, m1)
			coverage.Add(res.Bin2, m2)
			builder.Add(res.Bin1, res.Bin2)
			if out != nil {
				if err = out.write(m1, m2); err != nil {
					return nil, err
				}
			}
		}
		sam.PutInFreePool(m1)
		sam.PutInFreePool(m2)

		if opts.ProgressInterval > 0 && metrics.Pairs%int64(opts.ProgressInterval) == 0 {
			if err = ctx.Err(); err != nil {
				return nil, err
			}
			metrics.SecondarySkipped = s1.skipped + s2.skipped
			log.Printf("%d pairs, %d accepted, %.0f pairs/s", metrics.Pairs, metrics.Count(Accepted),
				float64(metrics.Pairs)/time.Since(start).Seconds())
			if opts.Progress != nil {
				opts.Progress(metrics)
			}
		}
	}
	metrics.SecondarySkipped = s1.skipped + s2.skipped
	log.Printf("read %d pairs, accepted %d; %d distinct position pairs seen",
		metrics.Pairs, metrics.Count(Accepted), dups.Len())

	binMax := coverage.BinMax()
	threshold, poor := PoorBins(binMax, opts.PoorBinFallback)
	log.Printf("poor bin threshold %d: %d of %d bins masked", threshold, len(poor), len(bins))
	result = &BuildResult{
		Matrix:           builder.Finalize(bins, binMax, poor),
		Metrics:          metrics,
		PoorBinThreshold: threshold,
	}
	if opts.OutputPrefix != "" {
		if err = writeArtifacts(ctx, opts.OutputPrefix, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}
