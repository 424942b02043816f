// Package bitset implements the dense bitset shared by DArray and
// EliasFano: a logical array of bits over little-endian 64-bit words.
package bitset

import (
	"github.com/bitpacked/succinct/bitops"
	"github.com/bitpacked/succinct/serialize"
)

// Bitset is a mutable-at-build-time, word-backed bit array.
type Bitset struct {
	words []uint64
	nbits uint
}

// New allocates a zeroed bitset of nbits bits.
func New(nbits uint) *Bitset {
	return &Bitset{words: make([]uint64, (nbits+63)/64), nbits: nbits}
}

// FromWords wraps an existing word slice as a bitset of nbits bits,
// without copying. Used on the read path where words were already
// decoded (owned or borrowed) by the caller.
func FromWords(words []uint64, nbits uint) *Bitset {
	return &Bitset{words: words, nbits: nbits}
}

// Len reports the bit length.
func (b *Bitset) Len() uint { return b.nbits }

// Words exposes the backing store for serialization.
func (b *Bitset) Words() []uint64 { return b.words }

// Set marks bit i as 1.
func (b *Bitset) Set(i uint) {
	b.words[i>>6] |= 1 << (i & 63)
}

// Get reports whether bit i is 1.
func (b *Bitset) Get(i uint) bool {
	return (b.words[i>>6]>>(i&63))&1 == 1
}

// WordAt returns the i-th 64-bit word, or 0 if i is past the end (a
// convenience for select's word-skipping scan near the bitset's tail).
func (b *Bitset) WordAt(i uint) uint64 {
	if i >= uint(len(b.words)) {
		return 0
	}
	return b.words[i]
}

// NumWords returns the word count.
func (b *Bitset) NumWords() uint { return uint(len(b.words)) }

// WriteTo appends the serialized form: a length-prefixed, 8-byte-
// aligned word slice. The bit length itself is not part of the wire
// format; the owning structure already knows it (e.g. EliasFano
// derives it from u and n).
func (b *Bitset) WriteTo(w *serialize.Writer) {
	w.WriteUint64Slice(b.words)
}

// ReadFrom reconstructs a Bitset by copying into freshly allocated words.
func ReadFrom(r *serialize.Reader, nbits uint) (*Bitset, error) {
	words, err := r.ReadUint64Slice()
	if err != nil {
		return nil, err
	}
	return &Bitset{words: words, nbits: nbits}, nil
}

// ReadFromBorrowed aliases the reader's backing buffer (zero-copy).
func ReadFromBorrowed(r *serialize.Reader, nbits uint) (*Bitset, error) {
	words, err := r.ReadUint64SliceBorrowed()
	if err != nil {
		return nil, err
	}
	return &Bitset{words: words, nbits: nbits}, nil
}

// popcountRange returns the number of set bits of w at or above bit
// position `from` (0-63), i.e. after masking off the low `from` bits.
func popcountRange(w uint64, from uint) uint {
	return bitops.PopCount64(w &^ bitops.Mask(from))
}

// PopCountFrom returns popcount of word i with bits below `from` masked
// off. Exported for DArray's in-word scan.
func (b *Bitset) PopCountFrom(wordIdx uint, from uint) uint {
	return popcountRange(b.WordAt(wordIdx), from)
}
