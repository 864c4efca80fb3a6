// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package hicmatrix

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hic/interval"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/hts/sam"
)

// Artifact suffixes, appended to Opts.OutputPrefix.
const (
	BinsSuffix   = ".bins.tsv.gz"
	MatrixSuffix = ".matrix.tsv.gz"
	QCSuffix     = ".qc.tsv"
)

// binRow is one line of the bins file.  START is 0-based, END exclusive.
type binRow struct {
	Chrom  string `tsv:"CHROM"`
	Start  int64  `tsv:"START"`
	End    int64  `tsv:"END"`
	BinMax int64  `tsv:"BIN_MAX"`
	Masked int64  `tsv:"MASKED"`
}

// cellRow is one line of the matrix file.  Only cells with ROW <= COL are
// stored.
type cellRow struct {
	Row   int64 `tsv:"ROW"`
	Col   int64 `tsv:"COL"`
	Count int64 `tsv:"COUNT"`
}

func writeBGZFTSV(ctx context.Context, path string, fn func(w *tsv.Writer) error) (err error) {
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return errors.E(err, "couldn't create", path)
	}
	defer func() {
		if e := out.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	gz := bgzf.NewWriter(out.Writer(ctx), 1)
	w := tsv.NewWriter(gz)
	if err = fn(w); err != nil {
		return errors.E(err, "write", path)
	}
	if err = w.Flush(); err != nil {
		return errors.E(err, "write", path)
	}
	return gz.Close()
}

// WriteMatrix writes m as <prefix>.bins.tsv.gz and <prefix>.matrix.tsv.gz.
// Both files are bgzf-compressed TSV with a header line.
func WriteMatrix(ctx context.Context, prefix string, m *Matrix) error {
	err := writeBGZFTSV(ctx, prefix+BinsSuffix, func(w *tsv.Writer) error {
		w.WriteString("CHROM\tSTART\tEND\tBIN_MAX\tMASKED")
		if err := w.EndLine(); err != nil {
			return err
		}
		for i, bin := range m.Bins {
			w.WriteString(bin.ChrName)
			w.WriteInt64(int64(bin.Start0))
			w.WriteInt64(int64(bin.End))
			w.WriteInt64(int64(m.BinMax[i]))
			if m.Masked[i] {
				w.WriteInt64(1)
			} else {
				w.WriteInt64(0)
			}
			if err := w.EndLine(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	err = writeBGZFTSV(ctx, prefix+MatrixSuffix, func(w *tsv.Writer) error {
		w.WriteString("ROW\tCOL\tCOUNT")
		if err := w.EndLine(); err != nil {
			return err
		}
		for k := range m.Counts {
			w.WriteInt64(int64(m.Rows[k]))
			w.WriteInt64(int64(m.Cols[k]))
			w.WriteInt64(m.Counts[k])
			if err := w.EndLine(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("wrote %d bins and %d cells to %s{%s,%s}", m.N(), len(m.Counts), prefix, BinsSuffix, MatrixSuffix)
	return nil
}

// writeArtifacts writes the matrix files and the QC report under prefix.  If
// any write fails, the files of the set are removed.
func writeArtifacts(ctx context.Context, prefix string, result *BuildResult) (err error) {
	defer func() {
		if err != nil {
			removeArtifacts(ctx, prefix)
		}
	}()
	if err = WriteMatrix(ctx, prefix, result.Matrix); err != nil {
		return err
	}
	return writeMetrics(ctx, prefix+QCSuffix, result)
}

func removeArtifacts(ctx context.Context, prefix string) {
	for _, suffix := range []string{BinsSuffix, MatrixSuffix, QCSuffix} {
		if err := file.Remove(ctx, prefix+suffix); err != nil {
			log.Debug.Printf("remove %s%s: %v", prefix, suffix, err)
		}
	}
}

func readBGZFTSV(ctx context.Context, path string, fn func(r *tsv.Reader) error) (err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return err
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	var gz *bgzf.Reader
	if gz, err = bgzf.NewReader(in.Reader(ctx), 1); err != nil {
		return errors.E(err, "read", path)
	}
	defer func() {
		if e := gz.Close(); e != nil && err == nil {
			err = e
		}
	}()
	r := tsv.NewReader(gz)
	r.HasHeaderRow = true
	r.UseHeaderNames = true
	if err = fn(r); err != nil {
		return errors.E(err, "read", path)
	}
	return nil
}

// ReadMatrix loads a matrix written by WriteMatrix.
func ReadMatrix(ctx context.Context, prefix string) (*Matrix, error) {
	m := &Matrix{}
	err := readBGZFTSV(ctx, prefix+BinsSuffix, func(r *tsv.Reader) error {
		for {
			var row binRow
			if err := r.Read(&row); err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
			m.Bins = append(m.Bins, interval.Entry{
				ChrName: row.Chrom,
				Start0:  interval.PosType(row.Start),
				End:     interval.PosType(row.End),
			})
			m.BinMax = append(m.BinMax, int32(row.BinMax))
			m.Masked = append(m.Masked, row.Masked != 0)
		}
	})
	if err != nil {
		return nil, err
	}
	err = readBGZFTSV(ctx, prefix+MatrixSuffix, func(r *tsv.Reader) error {
		for {
			var row cellRow
			if err := r.Read(&row); err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
			if row.Row < 0 || row.Row > row.Col || row.Col >= int64(m.N()) {
				return fmt.Errorf("cell (%d, %d) is not in the upper triangle of a %d-bin matrix", row.Row, row.Col, m.N())
			}
			if k := len(m.Rows) - 1; k >= 0 && packCell(int(m.Rows[k]), int(m.Cols[k])) >= packCell(int(row.Row), int(row.Col)) {
				return fmt.Errorf("cell (%d, %d) is out of order", row.Row, row.Col)
			}
			m.Rows = append(m.Rows, int32(row.Row))
			m.Cols = append(m.Cols, int32(row.Col))
			m.Counts = append(m.Counts, row.Count)
		}
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// bamOutput writes accepted pairs.  The file is removed if the run fails.
type bamOutput struct {
	path string
	out  file.File
	w    *bam.Writer
	refs map[string]*sam.Reference
}

func newBAMOutput(ctx context.Context, path string, header *sam.Header) (*bamOutput, error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "couldn't create output file", path)
	}
	w, err := bam.NewWriter(out.Writer(ctx), header, 1)
	if err != nil {
		out.Close(ctx) // nolint: errcheck
		return nil, errors.E(err, "couldn't create bam writer for", path)
	}
	o := &bamOutput{path: path, out: out, w: w, refs: make(map[string]*sam.Reference)}
	for _, ref := range header.Refs() {
		o.refs[ref.Name()] = ref
	}
	return o, nil
}

// write augments and writes an accepted pair.  Mate 2 may come from a file
// with its own header; its references are mapped by name to the output
// header.
func (o *bamOutput) write(m1, m2 *sam.Record) error {
	for _, r := range []*sam.Record{m1, m2} {
		ref, ok := o.refs[r.Ref.Name()]
		if !ok {
			return errors.E(errors.Invalid, fmt.Sprintf("read %s: reference %s is not in the output header", r.Name, r.Ref.Name()))
		}
		r.Ref = ref
	}
	AugmentPair(m1, m2)
	if err := o.w.Write(m1); err != nil {
		return errors.E(err, "write", o.path)
	}
	if err := o.w.Write(m2); err != nil {
		return errors.E(err, "write", o.path)
	}
	return nil
}

func (o *bamOutput) close(ctx context.Context) error {
	err := o.w.Close()
	if e := o.out.Close(ctx); e != nil && err == nil {
		err = e
	}
	return err
}

func (o *bamOutput) discard(ctx context.Context) {
	if err := o.close(ctx); err != nil {
		log.Error.Printf("close %s: %v", o.path, err)
	}
	if err := file.Remove(ctx, o.path); err != nil {
		log.Error.Printf("remove %s: %v", o.path, err)
	}
}
