// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package hicmatrix

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hic/encoding/fasta"
	"github.com/grailbio/hic/interval"
)

// Opts controls Build.
type Opts struct {
	// BinSize selects fixed-width bins.  If zero, bins are derived from
	// restriction sites, which must then be given by CutSites, CutSitesPath or
	// ReferencePath.
	BinSize int
	// CutSitesPath is a BED file of restriction cut sites.
	CutSitesPath string
	// ReferencePath is a FASTA file that is scanned for RestrictionSequence
	// when CutSitesPath is not set.
	ReferencePath string
	// CutSites, if non-nil, is used instead of CutSitesPath and ReferencePath.
	CutSites []interval.Entry
	// RestrictionSequence enables the dangling-end and self-ligation checks.
	RestrictionSequence string
	// MinDistance and MaxDistance control restriction-site bins.  Sites closer
	// than MinDistance are merged; each site covers MaxDistance bases on both
	// sides.
	MinDistance int
	MaxDistance int
	// Region, in "chr:start-end" form, restricts the bins to one window.
	Region string

	QualityThreshold        int
	MinSelfCircleDistance   int
	MinSameFragmentDistance int
	// NotUniqueTag is the aux tag that marks a read with a secondary
	// alignment score.  Empty disables the not-unique outcome.
	NotUniqueTag string
	// SkipDuplicateCheck disables duplicate detection.
	SkipDuplicateCheck bool

	// CoverageResolution is the width, in bases, of one coverage cell.
	CoverageResolution int
	// PoorBinFallback is the coverage threshold used when the bin_max
	// histogram has no local minimum.
	PoorBinFallback int

	// ProgressInterval is the number of pairs between calls to Progress and
	// checks for context cancellation.  Zero disables both.
	ProgressInterval int
	Progress         func(Metrics)

	// OutputPrefix, if set, receives <prefix>.bins.tsv.gz,
	// <prefix>.matrix.tsv.gz and <prefix>.qc.tsv.
	OutputPrefix string
	// OutputBAM, if set, receives the accepted pairs with their mate fields
	// filled in.
	OutputBAM string
}

// DefaultOpts are the commandline defaults.
var DefaultOpts = Opts{
	MinDistance:             300,
	MaxDistance:             1000,
	QualityThreshold:        20,
	MinSelfCircleDistance:   25000,
	MinSameFragmentDistance: 1000,
	NotUniqueTag:            "XS",
	CoverageResolution:      10,
	PoorBinFallback:         DefaultPoorBinThreshold,
	ProgressInterval:        1000000,
}

func (o *Opts) restrictionMode() bool {
	return o.BinSize == 0
}

func (o *Opts) hasCutSites() bool {
	return o.CutSites != nil || o.CutSitesPath != "" || o.ReferencePath != ""
}

func validate(opts *Opts) error {
	invalid := func(format string, args ...interface{}) error {
		return errors.E(errors.Invalid, fmt.Sprintf(format, args...))
	}
	if opts.BinSize < 0 {
		return invalid("bin size must be positive, got %d", opts.BinSize)
	}
	if opts.restrictionMode() {
		if !opts.hasCutSites() {
			return invalid("either a bin size or restriction cut sites (BED or reference FASTA) must be given")
		}
		if opts.MinDistance < 0 {
			return invalid("min-distance must be non-negative, got %d", opts.MinDistance)
		}
		if opts.MaxDistance <= 0 {
			return invalid("max-distance must be positive, got %d", opts.MaxDistance)
		}
	}
	if opts.CutSites != nil && len(opts.CutSites) == 0 {
		return invalid("empty restriction cut site list")
	}
	if opts.RestrictionSequence != "" {
		if err := fasta.ValidatePattern(opts.RestrictionSequence); err != nil {
			return errors.E(errors.Invalid, err)
		}
	}
	if opts.ReferencePath != "" && opts.CutSitesPath == "" && opts.CutSites == nil && opts.RestrictionSequence == "" {
		return invalid("a restriction sequence is needed to find cut sites in %s", opts.ReferencePath)
	}
	if opts.Region != "" {
		if _, err := interval.ParseRegionString(opts.Region); err != nil {
			return errors.E(errors.Invalid, "bad region", opts.Region, err)
		}
	}
	if opts.QualityThreshold < 0 {
		return invalid("quality threshold must be non-negative, got %d", opts.QualityThreshold)
	}
	if opts.NotUniqueTag != "" && len(opts.NotUniqueTag) != 2 {
		return invalid("tag %q must have two characters", opts.NotUniqueTag)
	}
	if opts.CoverageResolution <= 0 {
		return invalid("coverage resolution must be positive, got %d", opts.CoverageResolution)
	}
	if opts.PoorBinFallback < 0 {
		return invalid("poor bin fallback threshold must be non-negative, got %d", opts.PoorBinFallback)
	}
	if opts.ProgressInterval < 0 {
		return invalid("progress interval must be non-negative, got %d", opts.ProgressInterval)
	}
	return nil
}
