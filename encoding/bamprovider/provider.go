// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"strings"

	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// ProviderOpts defines options for NewProvider.
type ProviderOpts struct {
	// Type forces the file type.  If Unknown, it is guessed from the path.
	Type FileType
}

// Provider reads one BAM or SAM mate file. Thread safe.
type Provider interface {
	// GetHeader returns the file header.  The caller must not modify it.
	//
	// REQUIRES: Close has not been called.
	GetHeader() (*sam.Header, error)

	// NewIterator returns an iterator over every record of the file, in
	// file order.  Each call reads the file from the start.
	//
	// REQUIRES: Close has not been called.
	NewIterator() Iterator

	// Close releases the provider and returns the first error seen by it or
	// by its iterators.  It must be called once.
	//
	// REQUIRES: every iterator has been closed.
	Close() error
}

// Iterator yields sam.Records in file order. Thread compatible.
type Iterator interface {
	// Scan advances to the next record and reports whether there is one.
	// It returns false at end of file and on error; Err tells them apart.
	Scan() bool

	// Record returns the record found by the last successful Scan.  The
	// caller owns it and may return it to the sam free pool.
	Record() *sam.Record

	// Err returns the error that stopped Scan, or nil at a clean end of
	// file.
	Err() error

	// Close must be called exactly once. It returns the value of Err().
	Close() error
}

// FileType represents the type of an alignment file.
type FileType int

const (
	// Unknown is a sentinel.
	Unknown FileType = iota
	// BAM file
	BAM
	// SAM file
	SAM
)

// ParseFileType parses the file type string. "bam" returns bamprovider.BAM, for
// example. On error, it returns Unknown.
func ParseFileType(name string) FileType {
	switch name {
	case "bam":
		return BAM
	case "sam":
		return SAM
	default:
		return Unknown
	}
}

// GuessFileType returns the file type from the pathname. Returns Unknown if
// the suffix is not recognized.
func GuessFileType(path string) FileType {
	switch {
	case strings.HasSuffix(path, ".bam"):
		return BAM
	case strings.HasSuffix(path, ".sam"):
		return SAM
	}
	vlog.VI(1).Infof("%v: could not detect file type.", path)
	return Unknown
}

func mergeOpts(optList []ProviderOpts) ProviderOpts {
	opts := ProviderOpts{}
	for _, o := range optList {
		if o.Type != Unknown {
			opts.Type = o.Type
		}
	}
	return opts
}

// NewProvider creates a Provider object that can handle a BAM or SAM file
// at "path". Unless overridden by opts, the file type is autodetected from
// the path, and files with an unrecognized suffix are read as BAM.
func NewProvider(path string, optList ...ProviderOpts) Provider {
	opts := mergeOpts(optList)
	fileType := opts.Type
	if fileType == Unknown {
		fileType = GuessFileType(path)
	}
	if fileType == Unknown {
		fileType = BAM
	}
	return &BAMProvider{Path: path, Type: fileType}
}
