// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

/*
  bio-hic-matrix builds a Hi-C contact matrix from the two mate files of a
  paired-end run. For more information, see
  github.com/grailbio/hic/hicmatrix/doc.go
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hic/encoding/bamprovider"
	"github.com/grailbio/hic/hicmatrix"
)

var (
	mate1Path               = flag.String("mate1", "", "BAM or SAM file of the first mates, in read name order shared with -mate2")
	mate2Path               = flag.String("mate2", "", "BAM or SAM file of the second mates")
	format                  = flag.String("format", "", "Input format, 'bam' or 'sam'. By default it is derived from the file suffix")
	outputPrefix            = flag.String("output", "", "Output prefix; the tool writes <prefix>.bins.tsv.gz, <prefix>.matrix.tsv.gz and <prefix>.qc.tsv")
	outputBAM               = flag.String("output-bam", "", "If set, write the accepted pairs, with mate fields filled in, to this BAM file")
	binSize                 = flag.Int("bin-size", 0, "Fixed bin width in bases. If 0, bins are built from restriction cut sites")
	cutSitesPath            = flag.String("cut-sites", "", "BED file of restriction cut sites")
	referencePath           = flag.String("reference", "", "FASTA reference, scanned for -restriction-sequence when -cut-sites is not set")
	restrictionSequence     = flag.String("restriction-sequence", "", "Restriction enzyme recognition sequence, e.g. GATC. Enables the dangling-end and self-ligation checks")
	minDistance             = flag.Int("min-distance", hicmatrix.DefaultOpts.MinDistance, "Cut sites closer than this are merged")
	maxDistance             = flag.Int("max-distance", hicmatrix.DefaultOpts.MaxDistance, "Number of bases covered on each side of a cut site")
	region                  = flag.String("region", "", "Restrict the matrix to one region, in chr:start-end form")
	minMapQ                 = flag.Int("min-mapq", hicmatrix.DefaultOpts.QualityThreshold, "Pairs with a mate below this mapping quality are rejected")
	minSelfCircleDistance   = flag.Int("min-self-circle-distance", hicmatrix.DefaultOpts.MinSelfCircleDistance, "Outward pairs closer than this are self-circles")
	minSameFragmentDistance = flag.Int("min-same-fragment-distance", hicmatrix.DefaultOpts.MinSameFragmentDistance, "Inward pairs closer than this come from the same fragment")
	notUniqueTag            = flag.String("not-unique-tag", hicmatrix.DefaultOpts.NotUniqueTag, "Aux tag that marks a multi-mapped read. Empty disables the check")
	skipDuplicateCheck      = flag.Bool("skip-duplicate-check", false, "Keep PCR duplicates")
	coverageResolution      = flag.Int("coverage-resolution", hicmatrix.DefaultOpts.CoverageResolution, "Width in bases of a coverage cell, used to find poorly covered bins")
	poorBinFallback         = flag.Int("poor-bin-fallback", hicmatrix.DefaultOpts.PoorBinFallback, "Poor bin threshold used when the coverage histogram has no local minimum")
	progressInterval        = flag.Int("progress-interval", hicmatrix.DefaultOpts.ProgressInterval, "Number of pairs between progress reports")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -mate1 R1.bam -mate2 R2.bam -output PREFIX (-bin-size N | -cut-sites BED | -reference FASTA -restriction-sequence SEQ)\n", os.Args[0])
		flag.PrintDefaults()
	}
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() > 0 {
		a := flag.Args()
		log.Fatalf("unparsed flags, please check flag syntax: '%s'", strings.Join(a[len(a)-flag.NArg():], " "))
	}
	if *mate1Path == "" || *mate2Path == "" {
		log.Fatalf("-mate1 and -mate2 are required")
	}
	if *outputPrefix == "" {
		log.Fatalf("-output is required")
	}

	opts := hicmatrix.DefaultOpts
	opts.BinSize = *binSize
	opts.CutSitesPath = *cutSitesPath
	opts.ReferencePath = *referencePath
	opts.RestrictionSequence = strings.ToUpper(*restrictionSequence)
	opts.MinDistance = *minDistance
	opts.MaxDistance = *maxDistance
	opts.Region = *region
	opts.QualityThreshold = *minMapQ
	opts.MinSelfCircleDistance = *minSelfCircleDistance
	opts.MinSameFragmentDistance = *minSameFragmentDistance
	opts.NotUniqueTag = *notUniqueTag
	opts.SkipDuplicateCheck = *skipDuplicateCheck
	opts.CoverageResolution = *coverageResolution
	opts.PoorBinFallback = *poorBinFallback
	opts.ProgressInterval = *progressInterval
	opts.OutputPrefix = *outputPrefix
	opts.OutputBAM = *outputBAM

	var providerOpts bamprovider.ProviderOpts
	if *format != "" {
		if providerOpts.Type = bamprovider.ParseFileType(*format); providerOpts.Type == bamprovider.Unknown {
			log.Fatalf("unknown -format %q, must be 'bam' or 'sam'", *format)
		}
	}
	mate1 := bamprovider.NewProvider(*mate1Path, providerOpts)
	mate2 := bamprovider.NewProvider(*mate2Path, providerOpts)

	ctx := vcontext.Background()
	result, err := hicmatrix.Build(ctx, mate1, mate2, &opts)
	for _, p := range []bamprovider.Provider{mate1, mate2} {
		if e := p.Close(); e != nil && err == nil {
			err = e
		}
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("%d pairs, %d accepted into %d bins (%d masked)", result.Metrics.Pairs,
		result.Metrics.Count(hicmatrix.Accepted), result.Matrix.N(), len(result.Matrix.MaskedBins()))
	log.Debug.Printf("exiting")
}
