// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package hicmatrix

import (
	"encoding/binary"
	"sort"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hic/interval"
)

func packCell(row, col int) uint64 {
	return uint64(uint32(row))<<32 | uint64(uint32(col))
}

func unpackCell(key uint64) (row, col int) {
	return int(key >> 32), int(uint32(key))
}

// MatrixBuilder collects contacts as (row, col) coordinates.  Repeated
// coordinates are summed by Finalize.
type MatrixBuilder struct {
	n     int
	cells []uint64
}

// NewMatrixBuilder creates a builder for an n x n matrix.
func NewMatrixBuilder(n int) *MatrixBuilder {
	return &MatrixBuilder{n: n}
}

// Add records one contact between bins i and j.
func (b *MatrixBuilder) Add(i, j int) {
	if i < 0 || j < 0 || i >= b.n || j >= b.n {
		log.Panicf("matrix cell (%d, %d) out of range [0, %d)", i, j, b.n)
	}
	b.cells = append(b.cells, packCell(i, j))
}

// Len returns the number of contacts added so far.
func (b *MatrixBuilder) Len() int { return len(b.cells) }

// Finalize symmetrizes the collected contacts and returns the upper triangle.
// Writing M for the raw counts, the result is M + transpose(M) - diag(M), so a
// contact counts once whether it was added as (i, j) or (j, i), and diagonal
// contacts are not doubled.  Bins in poor are marked as masked.  The builder
// must not be used afterwards.
func (b *MatrixBuilder) Finalize(bins []interval.Entry, binMax []int32, poor []int) *Matrix {
	if len(bins) != b.n || len(binMax) != b.n {
		log.Panicf("finalize: %d bins and %d coverage values for a %d-bin matrix", len(bins), len(binMax), b.n)
	}
	cells := b.cells
	b.cells = nil
	for i, key := range cells {
		if row, col := unpackCell(key); row > col {
			cells[i] = packCell(col, row)
		}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })

	m := &Matrix{
		Bins:   bins,
		BinMax: binMax,
		Masked: make([]bool, b.n),
	}
	for i := 0; i < len(cells); {
		j := i + 1
		for j < len(cells) && cells[j] == cells[i] {
			j++
		}
		row, col := unpackCell(cells[i])
		m.Rows = append(m.Rows, int32(row))
		m.Cols = append(m.Cols, int32(col))
		m.Counts = append(m.Counts, int64(j-i))
		i = j
	}
	for _, id := range poor {
		m.Masked[id] = true
	}
	log.Debug.Printf("finalized %d contacts into %d cells, %d masked bins", len(cells), len(m.Rows), len(poor))
	return m
}

// Matrix is a symmetric contact matrix stored as its upper triangle, including
// the diagonal.  Rows, Cols and Counts are parallel and sorted by (row, col),
// with row <= col.  Bins, BinMax and Masked have one entry per bin.
type Matrix struct {
	Bins   []interval.Entry
	BinMax []int32
	Masked []bool

	Rows   []int32
	Cols   []int32
	Counts []int64
}

// N returns the number of bins.
func (m *Matrix) N() int { return len(m.Bins) }

// Get returns the count at (i, j).  Get(i, j) == Get(j, i).
func (m *Matrix) Get(i, j int) int64 {
	if i > j {
		i, j = j, i
	}
	k := sort.Search(len(m.Rows), func(k int) bool {
		return m.Rows[k] > int32(i) || (m.Rows[k] == int32(i) && m.Cols[k] >= int32(j))
	})
	if k < len(m.Rows) && m.Rows[k] == int32(i) && m.Cols[k] == int32(j) {
		return m.Counts[k]
	}
	return 0
}

// Sum returns the sum of every cell of the full symmetric matrix.
func (m *Matrix) Sum() int64 {
	var sum int64
	for k, c := range m.Counts {
		if m.Rows[k] == m.Cols[k] {
			sum += c
		} else {
			sum += 2 * c
		}
	}
	return sum
}

// Dense expands the matrix, both triangles included.  Only for small
// matrices.
func (m *Matrix) Dense() [][]int64 {
	n := m.N()
	d := make([][]int64, n)
	for i := range d {
		d[i] = make([]int64, n)
	}
	for k, c := range m.Counts {
		i, j := m.Rows[k], m.Cols[k]
		d[i][j] = c
		d[j][i] = c
	}
	return d
}

// MaskedBins returns the ids of the masked bins.
func (m *Matrix) MaskedBins() []int {
	var ids []int
	for i, masked := range m.Masked {
		if masked {
			ids = append(ids, i)
		}
	}
	return ids
}

// Checksum returns a seahash digest of the bins, their coverage and mask,
// and the matrix cells.  Two matrices with equal content have equal
// checksums.
func (m *Matrix) Checksum() uint64 {
	h := seahash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:]) // nolint: errcheck
	}
	for i, bin := range m.Bins {
		h.Write([]byte(bin.ChrName)) // nolint: errcheck
		put(uint64(bin.Start0))
		put(uint64(bin.End))
		put(uint64(m.BinMax[i]))
		if m.Masked[i] {
			put(1)
		} else {
			put(0)
		}
	}
	for k := range m.Counts {
		put(packCell(int(m.Rows[k]), int(m.Cols[k])))
		put(uint64(m.Counts[k]))
	}
	return h.Sum64()
}
