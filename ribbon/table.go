package ribbon

import (
	"github.com/bitpacked/succinct/bitops"
	"github.com/bitpacked/succinct/packedarray"
	"github.com/bitpacked/succinct/serialize"
)

// RibbonTable is the back-substituted solution vector of a row
// system: one r-bit value per column, answering any row that was
// validly inserted into the System it was built from.
type RibbonTable struct {
	n    uint
	data *packedarray.PackedArray
}

// N reports the table's column count.
func (t *RibbonTable) N() uint { return t.n }

// Lookup answers the row starting at column i with band c, XOR-folding
// table entries across every column the band touches. c's low bit
// must be 1, matching the System.Insert precondition.
func (t *RibbonTable) Lookup(i uint, c uint64) uint64 {
	var res uint64
	ip := i
	cp := c
	for {
		res ^= t.data.Get(ip)
		cp >>= 1
		ip++
		if cp == 0 {
			return res
		}
		j := bitops.TrailingZeros64(cp)
		ip += j
		cp >>= j
	}
}

// WriteTo appends the serialized form: u64 n, then the data PackedArray.
func (t *RibbonTable) WriteTo(w *serialize.Writer) {
	w.WriteUint64(uint64(t.n))
	t.data.WriteTo(w)
}

// ReadFrom reconstructs a RibbonTable by copying into freshly
// allocated backing storage.
func ReadFrom(r *serialize.Reader) (*RibbonTable, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	data, err := packedarray.ReadFrom(r, uint(n))
	if err != nil {
		return nil, err
	}
	return &RibbonTable{n: uint(n), data: data}, nil
}

// ReadFromBorrowed is the zero-copy counterpart of ReadFrom.
func ReadFromBorrowed(r *serialize.Reader) (*RibbonTable, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	data, err := packedarray.ReadFromBorrowed(r, uint(n))
	if err != nil {
		return nil, err
	}
	return &RibbonTable{n: uint(n), data: data}, nil
}
