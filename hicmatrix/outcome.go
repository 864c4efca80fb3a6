// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package hicmatrix

import "fmt"

// Outcome is the disposition of one mate pair.
type Outcome uint8

const (
	Accepted Outcome = iota
	Unmapped
	LowQuality
	NotUnique
	Duplicate
	DanglingEnd
	SelfLigation
	SameFragment
	SelfCircle
	NotCloseToSite

	numOutcomes = iota
)

var outcomeNames = [numOutcomes]string{
	Accepted:       "accepted",
	Unmapped:       "unmapped",
	LowQuality:     "low-quality",
	NotUnique:      "not-unique",
	Duplicate:      "duplicate",
	DanglingEnd:    "dangling-end",
	SelfLigation:   "self-ligation",
	SameFragment:   "same-fragment",
	SelfCircle:     "self-circle",
	NotCloseToSite: "not-close-to-restriction-site",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", o)
}

// Outcomes lists every outcome, in report order.
func Outcomes() []Outcome {
	o := make([]Outcome, numOutcomes)
	for i := range o {
		o[i] = Outcome(i)
	}
	return o
}

// Orientation describes how two mates on the same chromosome face each other.
// "first" is the mate with the smaller position.
type Orientation uint8

const (
	// InterChrom is used when the mates are on different chromosomes.
	InterChrom Orientation = iota
	// Inward: first forward, second reverse.
	Inward
	// Outward: first reverse, second forward.
	Outward
	// SameStrand: both mates on the same strand.
	SameStrand
)

func (o Orientation) String() string {
	switch o {
	case InterChrom:
		return "inter-chromosomal"
	case Inward:
		return "inward"
	case Outward:
		return "outward"
	case SameStrand:
		return "same-strand"
	}
	return fmt.Sprintf("orientation(%d)", o)
}
