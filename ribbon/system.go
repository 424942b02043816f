// Package ribbon implements the banded GF(2) linear system PTHash's
// sibling BuRR structure solves: a "staircase" row-elimination system
// (RibbonBandingSystem) and its back-substituted lookup form
// (RibbonTable).
package ribbon

import (
	"github.com/bitpacked/succinct/bitops"
	"github.com/bitpacked/succinct/packedarray"
)

// InsertKind tags the outcome of inserting a row into a System.
type InsertKind int

const (
	// InsertSuccess means the row was placed at a fresh, previously
	// empty slot.
	InsertSuccess InsertKind = iota
	// InsertRedundant means the row was already implied by prior rows
	// (not an error — a legitimate no-op outcome).
	InsertRedundant
	// InsertFailure means the row contradicts the existing system.
	InsertFailure
)

// InsertResult is the tagged outcome of System.Insert.
type InsertResult struct {
	Kind InsertKind
	At   uint // valid only when Kind == InsertSuccess
}

// System is the banded row-elimination state: n columns, band width w
// (c's bit width), value width r (b's bit width). Rows with a zero
// band are empty; rows with a nonzero band have their lowest set bit
// at column i — the staircase invariant insertion maintains.
type System struct {
	n, w, r uint
	c       *packedarray.Builder
	b       *packedarray.Builder
}

// NewSystem allocates an empty System over n columns with band width w
// and value width r.
func NewSystem(n, r, w uint) *System {
	return &System{
		n: n, w: w, r: r,
		c: packedarray.NewBuilder(w, n),
		b: packedarray.NewBuilder(r, n),
	}
}

// N, W, R report the system's dimensions.
func (s *System) N() uint { return s.n }
func (s *System) W() uint { return s.w }
func (s *System) R() uint { return s.r }

// RowFor derives the (row index, band) pair for a key's hash pair,
// per the shared convention: i = h1 mod (n-w), c = (h2 & mask(w)) | 1
// (the band's leading bit is always forced to 1).
func RowFor(h1, h2 uint64, n, w uint) (i uint, c uint64) {
	i = uint(h1 % uint64(n-w))
	c = (h2 & bitops.Mask(w)) | 1
	return i, c
}

// Insert places row (i, c, b) into the system, eliminating against
// existing rows until it lands on an empty slot, becomes redundant
// (implied by prior rows), or fails (contradicts prior rows). c's low
// bit must be 1 on entry; violating that is a programmer error.
func (s *System) Insert(i uint, c, b uint64) InsertResult {
	if c&1 == 0 {
		panic("ribbon: band's leading bit must be 1")
	}
	for {
		if i >= s.n {
			return InsertResult{Kind: InsertFailure}
		}
		existing := s.c.Get(i)
		if existing == 0 {
			s.c.SetFromZero(i, c)
			s.b.SetFromZero(i, b)
			return InsertResult{Kind: InsertSuccess, At: i}
		}
		c ^= existing
		b ^= s.b.Get(i)
		if c == 0 {
			if b == 0 {
				return InsertResult{Kind: InsertRedundant}
			}
			return InsertResult{Kind: InsertFailure}
		}
		j := bitops.TrailingZeros64(c)
		c >>= j
		i += j
	}
}

// ClearRow zeros row i, undoing a speculative insertion (used by BuRR
// to retract rows that end up bumped to the next layer).
func (s *System) ClearRow(i uint) {
	s.c.SetToZero(i)
	s.b.SetToZero(i)
}

// Row returns the current (c, b) stored at row i.
func (s *System) Row(i uint) (c, b uint64) {
	return s.c.Get(i), s.b.Get(i)
}

// BackSubstitute solves the staircase system in reverse (from column
// n-1 down to 0), producing the RibbonTable that answers lookups for
// any row whose starting column and band mask were ever inserted.
func (s *System) BackSubstitute() *RibbonTable {
	data := packedarray.NewBuilder(s.r, s.n)
	state := make([]uint64, s.r)

	for idx := int(s.n) - 1; idx >= 0; idx-- {
		i := uint(idx)
		ci := s.c.Get(i)
		bi := s.b.Get(i)
		var result uint64
		for j := uint(0); j < s.r; j++ {
			tmp := state[j] << 1
			bit := bitops.Parity64(tmp&ci) ^ ((bi >> j) & 1)
			tmp |= bit
			state[j] = tmp
			result |= bit << j
		}
		data.SetFromZero(i, result)
	}

	return &RibbonTable{n: s.n, data: data.Finish()}
}
