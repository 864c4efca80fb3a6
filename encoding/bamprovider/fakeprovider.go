// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// fakeProvider serves records from memory.  Tests use it in place of a mate
// file.
type fakeProvider struct {
	header *sam.Header
	recs   []*sam.Record
	err    error
}

// NewFakeProvider returns a Provider whose header is header and whose
// iterators each yield recs in order.
func NewFakeProvider(header *sam.Header, recs []*sam.Record) Provider {
	return &fakeProvider{header: header, recs: recs}
}

// NewFakeProviderWithError is like NewFakeProvider, but every iterator
// reports err once recs are exhausted, as a truncated file would.
func NewFakeProviderWithError(header *sam.Header, recs []*sam.Record, err error) Provider {
	return &fakeProvider{header: header, recs: recs, err: err}
}

func (p *fakeProvider) GetHeader() (*sam.Header, error) { return p.header, nil }

func (p *fakeProvider) Close() error { return nil }

func (p *fakeProvider) NewIterator() Iterator {
	return &fakeIterator{provider: p, next: -1}
}

type fakeIterator struct {
	provider *fakeProvider
	next     int
	closed   bool
}

func (i *fakeIterator) done() bool { return i.next >= len(i.provider.recs) }

func (i *fakeIterator) Scan() bool {
	if i.done() {
		return false
	}
	i.next++
	return !i.done()
}

// Record returns a copy from the free pool, so callers may modify or recycle
// it without touching the test input.
func (i *fakeIterator) Record() *sam.Record {
	r := sam.GetFromFreePool()
	*r = *i.provider.recs[i.next]
	return r
}

func (i *fakeIterator) Err() error {
	if i.done() {
		return i.provider.err
	}
	return nil
}

func (i *fakeIterator) Close() error {
	if i.closed {
		vlog.Fatal("Closing iterator twice")
	}
	i.closed = true
	return i.Err()
}
