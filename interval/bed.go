// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package interval

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// ReadBED reads the first three columns of a BED file.  Unlike a union, every
// line produces one Entry, in file order; overlapping entries are kept.  The
// input must be grouped by chromosome and sorted by start within each
// chromosome, which is how restriction-site files are produced.  Header lines
// ("track", "browser", "#") and blank lines are skipped.
func ReadBED(reader io.Reader) (entries []Entry, err error) {
	scanner := bufio.NewScanner(reader)
	var tokens [3][]byte
	seen := make(map[string]bool)
	prevChr := ""
	var prevStart PosType
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 {
			continue
		}
		if curLine[0] == '#' || strings.HasPrefix(string(tokens[0]), "track") || strings.HasPrefix(string(tokens[0]), "browser") {
			continue
		}
		if nToken != 3 {
			err = fmt.Errorf("interval.ReadBED: line %d has fewer tokens than expected", lineIdx)
			return
		}
		var start, end int
		if start, err = strconv.Atoi(gunsafe.BytesToString(tokens[1])); err != nil {
			return
		}
		if end, err = strconv.Atoi(gunsafe.BytesToString(tokens[2])); err != nil {
			return
		}
		if start < 0 || end < start || end >= PosTypeMax {
			err = fmt.Errorf("interval.ReadBED: invalid coordinate pair on line %d", lineIdx)
			return
		}
		if prevChr != gunsafe.BytesToString(tokens[0]) {
			// Must copy, tokens[0] refers to the scanner's buffer.
			prevChr = string(tokens[0])
			if seen[prevChr] {
				err = fmt.Errorf("interval.ReadBED: unsorted input (split chromosome %v) on line %d", prevChr, lineIdx)
				return
			}
			seen[prevChr] = true
		} else if PosType(start) < prevStart {
			err = fmt.Errorf("interval.ReadBED: unsorted input on line %d", lineIdx)
			return
		}
		prevStart = PosType(start)
		entries = append(entries, Entry{ChrName: prevChr, Start0: PosType(start), End: PosType(end)})
	}
	if err = scanner.Err(); err != nil {
		return
	}
	log.Debug.Printf("BED loaded, %d interval(s) on %d chromosome(s)", len(entries), len(seen))
	return
}

// ReadBEDFromPath is a wrapper for ReadBED that takes a path instead of an
// io.Reader.  Paths ending in .gz are decompressed.
func ReadBEDFromPath(path string) (entries []Entry, err error) {
	ctx := vcontext.Background()
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	return ReadBED(reader)
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning a contig ID and 0-based interval boundaries.  The interval
// [0, PosTypeMax - 1] is returned if there is no positional restriction.
func ParseRegionString(region string) (result Entry, err error) {
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.IndexByte(region, ':')
	if colonPos == -1 {
		result.ChrName = region
		result.Start0 = 0
		result.End = PosTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty contig ID")
		return
	}
	result.ChrName = region[0:colonPos]
	// Accept thousands separators, "chr1:1,000,000-2,000,000" is common.
	rangeStr := strings.Replace(region[colonPos+1:], ",", "", -1)
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 32); err != nil {
			return
		}
		if pos1 <= 0 {
			err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start0 = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	var start1, end0 int
	if start1, err = strconv.Atoi(rangeStr[:dashPos]); err != nil {
		return
	}
	if start1 <= 0 {
		err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr[:dashPos])
		return
	}
	if end0, err = strconv.Atoi(rangeStr[dashPos+1:]); err != nil {
		return
	}
	if end0 < start1 || end0 >= PosTypeMax {
		err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start0 = PosType(start1 - 1)
	result.End = PosType(end0)
	return
}
