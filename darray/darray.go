// Package darray implements a constant-time select index over a dense
// bitset: given the i-th set (or, symmetrically, unset) bit, return its
// absolute position. It underlies EliasFano's high-bit reconstruction.
package darray

import (
	"github.com/bitpacked/succinct/bitops"
	"github.com/bitpacked/succinct/bitset"
	"github.com/bitpacked/succinct/serialize"
)

const (
	blockSize          = 1024
	subblockSize       = 32
	maxInBlockDistance = uint64(1) << 16
	overflowFlag       = uint64(1) << 63
	blockPosMask       = overflowFlag - 1
)

// DArray is the select₁ (or, with inverted=true at query time, select₀)
// index over some external bitset. It does not own a copy of the
// bitset; callers pass the same bitset back in at Select time, matching
// the format's layout where the bitset's words are serialized once and
// shared by both the raw bitset reader and the DArray built over it.
type DArray struct {
	blockInventory    []uint64 // packed {overflow:1, pos:63}
	subblockInventory []uint16
	overflowPositions []uint64
}

func packBlock(overflow bool, pos uint64) uint64 {
	v := pos & blockPosMask
	if overflow {
		v |= overflowFlag
	}
	return v
}

func unpackBlock(v uint64) (overflow bool, pos uint64) {
	return v&overflowFlag != 0, v & blockPosMask
}

// Build scans bs for matching bits (set bits if inverted is false, unset
// bits if inverted is true) and produces the block/subblock/overflow
// inventories described in §4.C.
func Build(bs *bitset.Bitset, inverted bool) *DArray {
	d := &DArray{}
	scratch := make([]uint64, 0, blockSize)

	flush := func() {
		if len(scratch) == 0 {
			return
		}
		first, last := scratch[0], scratch[len(scratch)-1]
		if last-first < maxInBlockDistance {
			d.blockInventory = append(d.blockInventory, packBlock(false, first))
			for j := 0; j < len(scratch); j += subblockSize {
				d.subblockInventory = append(d.subblockInventory, uint16(scratch[j]-first))
			}
		} else {
			d.blockInventory = append(d.blockInventory, packBlock(true, uint64(len(d.overflowPositions))))
			// Pad subblock_inventory to keep global i/32 indexing aligned,
			// even though overflow blocks never consult these entries.
			for j := 0; j < len(scratch); j += subblockSize {
				d.subblockInventory = append(d.subblockInventory, 0)
			}
			d.overflowPositions = append(d.overflowPositions, scratch...)
		}
		scratch = scratch[:0]
	}

	n := bs.Len()
	for i := uint(0); i < n; i++ {
		bit := bs.Get(i)
		if inverted {
			bit = !bit
		}
		if bit {
			scratch = append(scratch, uint64(i))
			if len(scratch) == blockSize {
				flush()
			}
		}
	}
	flush()
	return d
}

func effectiveWord(bs *bitset.Bitset, idx uint, inverted bool) uint64 {
	w := bs.WordAt(idx)
	if inverted {
		w = ^w
	}
	return w
}

// Select returns the absolute position of the i-th matching bit (0-
// indexed, ascending order) in bs, using the same inverted polarity the
// index was built with.
func (d *DArray) Select(bs *bitset.Bitset, inverted bool, i uint64) uint64 {
	blk := i / blockSize
	overflow, pos := unpackBlock(d.blockInventory[blk])
	if overflow {
		return d.overflowPositions[pos+i%blockSize]
	}

	start := pos + uint64(d.subblockInventory[i/subblockSize])
	rem := i % subblockSize
	if rem == 0 {
		return start
	}

	wordIdx := start >> 6
	bitOff := start & 63
	w := effectiveWord(bs, uint(wordIdx), inverted) &^ bitops.Mask(uint(bitOff)+1)
	for {
		pc := uint64(bitops.PopCount64(w))
		if pc >= rem {
			for {
				tz := bitops.TrailingZeros64(w)
				rem--
				if rem == 0 {
					return wordIdx*64 + uint64(tz)
				}
				w &= w - 1
			}
		}
		rem -= pc
		wordIdx++
		w = effectiveWord(bs, uint(wordIdx), inverted)
	}
}

// WriteTo appends the serialized form: the packed block inventory, the
// u16 subblock inventory, and the overflow position list.
func (d *DArray) WriteTo(w *serialize.Writer) {
	w.WriteUint64Slice(d.blockInventory)
	w.WriteUint16Slice(d.subblockInventory)
	w.WriteUint64Slice(d.overflowPositions)
}

// ReadFrom reconstructs a DArray by copying into freshly allocated
// backing storage.
func ReadFrom(r *serialize.Reader) (*DArray, error) {
	blockInv, err := r.ReadUint64Slice()
	if err != nil {
		return nil, err
	}
	subInv, err := r.ReadUint16Slice()
	if err != nil {
		return nil, err
	}
	overflow, err := r.ReadUint64Slice()
	if err != nil {
		return nil, err
	}
	return &DArray{blockInventory: blockInv, subblockInventory: subInv, overflowPositions: overflow}, nil
}

// ReadFromBorrowed is the zero-copy counterpart of ReadFrom for the
// word-backed slices (block inventory, overflow positions); the u16
// subblock inventory is always copied since its elements are narrower
// than a word and not safely aliasable without a matching type punning
// guarantee.
func ReadFromBorrowed(r *serialize.Reader) (*DArray, error) {
	blockInv, err := r.ReadUint64SliceBorrowed()
	if err != nil {
		return nil, err
	}
	subInv, err := r.ReadUint16Slice()
	if err != nil {
		return nil, err
	}
	overflow, err := r.ReadUint64SliceBorrowed()
	if err != nil {
		return nil, err
	}
	return &DArray{blockInventory: blockInv, subblockInventory: subInv, overflowPositions: overflow}, nil
}
