// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// errorIterator stands in for an iterator whose input could not be opened.
type errorIterator struct {
	err    error
	closed bool
}

// NewErrorIterator returns an Iterator with no records whose Err and Close
// report err.  BAMProvider returns one when the input file cannot be opened.
func NewErrorIterator(err error) Iterator {
	return &errorIterator{err: err}
}

func (i *errorIterator) Scan() bool { return false }

func (i *errorIterator) Record() *sam.Record {
	vlog.Fatalf("Record called on a failed iterator: %v", i.err)
	return nil
}

func (i *errorIterator) Err() error { return i.err }

func (i *errorIterator) Close() error {
	if i.closed {
		vlog.Fatal("Closing iterator twice")
	}
	i.closed = true
	return i.err
}
