// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package hicmatrix

import (
	"bytes"
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/sam"
)

// shortRangeDistance separates short- and long-range intra-chromosomal
// contacts in the report.
const shortRangeDistance = 20000

// Metrics counts pairs by outcome.
type Metrics struct {
	// Pairs is the number of mate pairs read.  It equals the sum of
	// Outcomes.
	Pairs int64
	// Outcomes is the number of pairs with each outcome, indexed by Outcome.
	Outcomes [numOutcomes]int64

	// The following count accepted pairs only.
	InterChromosomal int64
	ShortRange       int64
	LongRange        int64
	Inward           int64
	Outward          int64
	SameStrand       int64

	// SecondarySkipped is the number of secondary or supplementary records
	// skipped, over both mate files.
	SecondarySkipped int64
}

// Count returns the number of pairs with outcome o.
func (m *Metrics) Count(o Outcome) int64 { return m.Outcomes[o] }

func (m *Metrics) observe(res Result, m1, m2 *sam.Record) {
	m.Pairs++
	m.Outcomes[res.Outcome]++
	if res.Outcome != Accepted {
		return
	}
	switch res.Orientation {
	case InterChrom:
		m.InterChromosomal++
		return
	case Inward:
		m.Inward++
	case Outward:
		m.Outward++
	case SameStrand:
		m.SameStrand++
	}
	if abs(m2.Pos-m1.Pos) < shortRangeDistance {
		m.ShortRange++
	} else {
		m.LongRange++
	}
}

func percent(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

// String returns the metrics as tab-separated NAME, COUNT and PERCENT lines.
// Percentages of the accepted-pair breakdown are relative to the accepted
// count; the others are relative to Pairs.
func (m *Metrics) String() string {
	var buf bytes.Buffer
	line := func(name string, n, total int64) {
		fmt.Fprintf(&buf, "%s\t%d\t%0.2f\n", name, n, percent(n, total))
	}
	line("pairs", m.Pairs, m.Pairs)
	for _, o := range Outcomes() {
		line(o.String(), m.Outcomes[o], m.Pairs)
	}
	accepted := m.Outcomes[Accepted]
	line("inter-chromosomal", m.InterChromosomal, accepted)
	line("short-range", m.ShortRange, accepted)
	line("long-range", m.LongRange, accepted)
	line("inward", m.Inward, accepted)
	line("outward", m.Outward, accepted)
	line("same-strand", m.SameStrand, accepted)
	fmt.Fprintf(&buf, "secondary-skipped\t%d\t.\n", m.SecondarySkipped)
	return buf.String()
}

func writeMetrics(ctx context.Context, path string, result *BuildResult) (err error) {
	var f file.File
	if f, err = file.Create(ctx, path); err != nil {
		return errors.E(err, "couldn't create QC report:", path)
	}
	defer func() {
		if err2 := f.Close(ctx); err == nil && err2 != nil {
			err = errors.E(err2, "close", path)
		}
	}()

	s := "# bio-hic-matrix\n" +
		fmt.Sprintf("# bins: %d, masked: %d, poor bin threshold: %d\n",
			result.Matrix.N(), len(result.Matrix.MaskedBins()), result.PoorBinThreshold) +
		fmt.Sprintf("# matrix checksum: %016x\n", result.Matrix.Checksum()) +
		"NAME\tCOUNT\tPERCENT\n" +
		result.Metrics.String()
	if _, err = f.Writer(ctx).Write([]byte(s)); err != nil {
		return errors.E(err, "error writing QC report:", path)
	}
	return nil
}
