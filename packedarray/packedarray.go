// Package packedarray implements a width-parameterized array that packs
// fixed-width unsigned integers into a dense slice of 64-bit words,
// tight enough to straddle word boundaries on both reads and writes.
package packedarray

import (
	"github.com/bitpacked/succinct/bitops"
	"github.com/bitpacked/succinct/serialize"
)

// PackedArray is a read-only view over n values of width w bits each,
// packed into ⌈w·n/64⌉ words. A zero-length, width=1 instance is the
// valid sentinel for an empty domain.
type PackedArray struct {
	data  []uint64
	width uint
	n     uint
}

// Width reports the per-element bit width.
func (p *PackedArray) Width() uint { return p.width }

// Len reports the element count.
func (p *PackedArray) Len() uint { return p.n }

// Words exposes the backing store.
func (p *PackedArray) Words() []uint64 { return p.data }

// numWords returns the word count needed for n elements of width w bits.
func numWords(width, n uint) uint {
	return (width*n + 63) / 64
}

// Get returns the w-bit value stored at index i.
func (p *PackedArray) Get(i uint) uint64 {
	if p.width == 0 {
		return 0
	}
	pos := i * p.width
	block := pos >> 6
	shift := pos & 63
	if shift+p.width <= 64 {
		return (p.data[block] >> shift) & bitops.Mask(p.width)
	}
	lo := p.data[block] >> shift
	hi := p.data[block+1] << (64 - shift)
	return (lo | hi) & bitops.Mask(p.width)
}

// Builder constructs a PackedArray by writing each slot at most once
// (SetFromZero) or by explicit clear-then-rewrite (SetToZero, SetFromZero).
type Builder struct {
	data  []uint64
	width uint
	n     uint
}

// NewBuilder allocates a zeroed backing store for n elements of the
// given width. width must be in [0, 64]; violating that is a
// programmer error and panics, matching the "0 ≤ w ≤ 64" invariant.
func NewBuilder(width, n uint) *Builder {
	if width > 64 {
		panic("packedarray: width must be <= 64")
	}
	return &Builder{
		data:  make([]uint64, numWords(width, n)),
		width: width,
		n:     n,
	}
}

// SetFromZero writes v into slot i. The caller must guarantee the
// target bits are currently zero; violating this silently corrupts
// neighbouring slots, since the write is a pure OR.
func (b *Builder) SetFromZero(i uint, v uint64) {
	if b.width == 0 {
		return
	}
	v &= bitops.Mask(b.width)
	pos := i * b.width
	block := pos >> 6
	shift := pos & 63
	b.data[block] |= v << shift
	if shift+b.width > 64 {
		b.data[block+1] |= v >> (64 - shift)
	}
}

// SetToZero clears the w bits at slot i, leaving all other bits (in
// the same or adjacent words) untouched.
func (b *Builder) SetToZero(i uint) {
	if b.width == 0 {
		return
	}
	pos := i * b.width
	block := pos >> 6
	shift := pos & 63
	mask := bitops.Mask(b.width)
	b.data[block] &^= mask << shift
	if shift+b.width > 64 {
		b.data[block+1] &^= mask >> (64 - shift)
	}
}

// Get returns the current value at slot i, useful while the builder is
// still mutable (e.g. ribbon row elimination re-reads rows it wrote).
func (b *Builder) Get(i uint) uint64 {
	p := PackedArray{data: b.data, width: b.width, n: b.n}
	return p.Get(i)
}

// Finish freezes the builder into a read-only PackedArray.
func (b *Builder) Finish() *PackedArray {
	return &PackedArray{data: b.data, width: b.width, n: b.n}
}

// Encode packs values into the narrowest PackedArray that can hold them,
// with width = floor(log2(max))+1 (1 for max=0). Encode(nil) yields the
// width=1, n=0 sentinel.
func Encode(values []uint64) *PackedArray {
	var max uint64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	width := bitops.Width(max)
	if len(values) == 0 {
		width = 1
	}
	b := NewBuilder(width, uint(len(values)))
	for i, v := range values {
		b.SetFromZero(uint(i), v)
	}
	return b.Finish()
}

// WriteTo appends the serialized form: u64 width, then the length-
// prefixed, 8-byte-aligned word slice. The element count n is not part
// of the wire format (per §6): every embedding structure already knows
// n from its own fields (RibbonTable.n, Bucketer.m, ...) and passes it
// back in on ReadFrom/ReadFromBorrowed.
func (p *PackedArray) WriteTo(w *serialize.Writer) {
	w.WriteUint64(uint64(p.width))
	w.WriteUint64Slice(p.data)
}

// ReadFrom reconstructs a PackedArray by copying into freshly allocated
// backing storage. n is supplied by the caller's own bookkeeping.
func ReadFrom(r *serialize.Reader, n uint) (*PackedArray, error) {
	width, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadUint64Slice()
	if err != nil {
		return nil, err
	}
	return &PackedArray{data: data, width: uint(width), n: n}, nil
}

// ReadFromBorrowed reconstructs a PackedArray that aliases the reader's
// backing buffer instead of copying it (the fast, zero-copy path).
// The aliasing PackedArray must not outlive that buffer.
func ReadFromBorrowed(r *serialize.Reader, n uint) (*PackedArray, error) {
	width, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadUint64SliceBorrowed()
	if err != nil {
		return nil, err
	}
	return &PackedArray{data: data, width: uint(width), n: n}, nil
}
