// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"context"
	"io"
	"sync"

	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// BAMProvider implements Provider for BAM and SAM files.  The path is
// allowed to be any URL understood by grailbio/base/file.
type BAMProvider struct {
	// Path of the alignment file. Must be nonempty.
	Path string
	// Type is either BAM or SAM.
	Type FileType
	err  errorreporter.T

	mu      sync.Mutex
	nActive int
	header  *sam.Header
}

// recordReader is the subset of bam.Reader and sam.Reader used by
// bamIterator.
type recordReader interface {
	Header() *sam.Header
	Read() (*sam.Record, error)
}

type bamIterator struct {
	provider *BAMProvider
	ctx      context.Context
	in       file.File
	reader   recordReader
	bam      *bam.Reader

	active bool
	err    error
	next   *sam.Record
}

// open opens the file and creates a reader, positioned at the first record.
func (b *BAMProvider) open(ctx context.Context) (in file.File, reader recordReader, bamReader *bam.Reader, err error) {
	if in, err = file.Open(ctx, b.Path); err != nil {
		return
	}
	switch b.Type {
	case SAM:
		reader, err = sam.NewReader(in.Reader(ctx))
	case BAM:
		bamReader, err = bam.NewReader(in.Reader(ctx), 1)
		reader = bamReader
	default:
		err = errors.E(errors.Invalid, "bamprovider: unsupported file type for", b.Path)
	}
	if err != nil {
		in.Close(ctx) // nolint: errcheck
		in = nil
	}
	return
}

// GetHeader implements the Provider interface.
func (b *BAMProvider) GetHeader() (*sam.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.header != nil {
		return b.header, nil
	}

	ctx := vcontext.Background()
	in, reader, bamReader, err := b.open(ctx)
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	defer in.Close(ctx) // nolint: errcheck
	if bamReader != nil {
		defer bamReader.Close() // nolint: errcheck
	}
	b.header = reader.Header()
	return b.header, nil
}

// Close implements the Provider interface.
func (b *BAMProvider) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nActive > 0 {
		vlog.Fatalf("%d iterators still active for %+v", b.nActive, b)
	}
	return b.err.Err()
}

// NewIterator implements the Provider interface.
func (b *BAMProvider) NewIterator() Iterator {
	iter := &bamIterator{
		provider: b,
		ctx:      vcontext.Background(),
		active:   true,
	}
	var err error
	if iter.in, iter.reader, iter.bam, err = b.open(iter.ctx); err != nil {
		err = errors.E(err, "open", b.Path)
		b.err.Set(err)
		return NewErrorIterator(err)
	}
	vlog.VI(1).Infof("%v: opened for sequential reading", b.Path)
	b.mu.Lock()
	b.nActive++
	b.mu.Unlock()
	return iter
}

func (i *bamIterator) Scan() bool {
	if !i.active {
		vlog.Fatal("Reusing iterator")
	}
	if i.err != nil {
		return false
	}
	i.next, i.err = i.reader.Read()
	return i.err == nil
}

func (i *bamIterator) Record() *sam.Record {
	return i.next
}

// Err implements the Iterator interface.
func (i *bamIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Close implements the Iterator interface.
func (i *bamIterator) Close() error {
	if !i.active {
		vlog.Fatal("Closing iterator twice")
	}
	i.active = false
	if i.bam != nil {
		if err := i.bam.Close(); err != nil && i.Err() == nil {
			i.err = err
		}
		i.bam = nil
	}
	if i.in != nil {
		if err := i.in.Close(i.ctx); err != nil && i.Err() == nil {
			i.err = err
		}
		i.in = nil
	}
	err := i.Err()
	b := i.provider
	b.err.Set(err)
	b.mu.Lock()
	b.nActive--
	if b.nActive < 0 {
		vlog.Fatalf("Negative active count for %+v", b)
	}
	b.mu.Unlock()
	return err
}
