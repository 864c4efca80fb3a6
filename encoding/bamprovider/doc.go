// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package bamprovider provides utilities for scanning a BAM or SAM file in
// file order.
//
// The Provider is an interface for opening an alignment file, and Iterator
// yields its records one by one, in the order they are stored.  Hi-C mate
// files are name-sorted by the aligner, so file order is what the pair
// classifier needs.
package bamprovider
