// Package eliasfano implements the Elias-Fano encoding of a monotone
// non-decreasing sequence: a unary-coded bitset of high bits plus a
// packed array of low bits, with constant-time random access via a
// select₁ index over the high bits.
package eliasfano

import (
	"fmt"

	"github.com/bitpacked/succinct/bitops"
	"github.com/bitpacked/succinct/bitset"
	"github.com/bitpacked/succinct/darray"
	"github.com/bitpacked/succinct/packedarray"
	"github.com/bitpacked/succinct/serialize"
)

// EliasFano is a read-only, constant-time-indexable encoding of a
// monotone non-decreasing uint64 sequence.
type EliasFano struct {
	n          uint
	lowWidth   uint
	lowBits    *packedarray.PackedArray
	highBits   *bitset.Bitset
	highSelect *darray.DArray
}

// Encode builds an EliasFano structure over values, which must be
// non-decreasing; violating that is a programmer error and panics.
func Encode(values []uint64) *EliasFano {
	n := uint(len(values))
	if n == 0 {
		return &EliasFano{
			lowBits:    packedarray.Encode(nil),
			highBits:   bitset.New(0),
			highSelect: darray.Build(bitset.New(0), false),
		}
	}

	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			panic(fmt.Sprintf("eliasfano: input not monotone at index %d", i))
		}
	}

	u := values[n-1]
	q := u / uint64(n)
	l := bitops.FloorLog2Plus1(q)

	highLen := uint((u >> l) + uint64(n))
	highBits := bitset.New(highLen)
	lowBuilder := packedarray.NewBuilder(l, n)

	for i, x := range values {
		if l > 0 {
			lowBuilder.SetFromZero(uint(i), x&bitops.Mask(l))
		}
		hi := uint(x>>l) + uint(i)
		highBits.Set(hi)
	}

	return &EliasFano{
		n:          n,
		lowWidth:   l,
		lowBits:    lowBuilder.Finish(),
		highBits:   highBits,
		highSelect: darray.Build(highBits, false),
	}
}

// Len reports the number of encoded values.
func (ef *EliasFano) Len() uint { return ef.n }

// Get returns the i-th encoded value.
func (ef *EliasFano) Get(i uint) uint64 {
	hi := ef.highSelect.Select(ef.highBits, false, uint64(i)) - uint64(i)
	if ef.lowWidth == 0 {
		return hi
	}
	return (hi << ef.lowWidth) | ef.lowBits.Get(i)
}

// WriteTo appends the serialized form: the high-bits word slice, the
// select₁ index over it, and the low-bits packed array. Neither n nor
// the low-bit width are stored on the wire: n is supplied by the
// caller on read (as with every other container), and the low-bit
// width is recovered from the packed array's own width field.
func (ef *EliasFano) WriteTo(w *serialize.Writer) {
	ef.highBits.WriteTo(w)
	ef.highSelect.WriteTo(w)
	ef.lowBits.WriteTo(w)
}

// ReadFrom reconstructs an EliasFano of n values by copying into
// freshly allocated backing storage.
func ReadFrom(r *serialize.Reader, n uint) (*EliasFano, error) {
	words, err := r.ReadUint64Slice()
	if err != nil {
		return nil, err
	}
	highBits := bitset.FromWords(words, uint(len(words))*64)

	highSelect, err := darray.ReadFrom(r)
	if err != nil {
		return nil, err
	}

	lowBits, err := packedarray.ReadFrom(r, n)
	if err != nil {
		return nil, err
	}

	return &EliasFano{n: n, lowWidth: lowBits.Width(), lowBits: lowBits, highBits: highBits, highSelect: highSelect}, nil
}

// ReadFromBorrowed is the zero-copy counterpart of ReadFrom.
func ReadFromBorrowed(r *serialize.Reader, n uint) (*EliasFano, error) {
	words, err := r.ReadUint64SliceBorrowed()
	if err != nil {
		return nil, err
	}
	highBits := bitset.FromWords(words, uint(len(words))*64)

	highSelect, err := darray.ReadFromBorrowed(r)
	if err != nil {
		return nil, err
	}

	lowBits, err := packedarray.ReadFromBorrowed(r, n)
	if err != nil {
		return nil, err
	}

	return &EliasFano{n: n, lowWidth: lowBits.Width(), lowBits: lowBits, highBits: highBits, highSelect: highSelect}, nil
}
