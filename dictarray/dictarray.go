// Package dictarray implements a dictionary-encoded integer container:
// a sequence of u64 values is deduplicated into a small PackedArray of
// distinct values (the dictionary) plus a PackedArray of indices into
// it. This pays off when a sequence repeats a small set of values often
// (e.g. MPHF pivots at high load factor).
package dictarray

import (
	"github.com/bitpacked/succinct/packedarray"
	"github.com/bitpacked/succinct/serialize"
)

// DictArray is the dict/arr pair described in the format: every arr[i]
// indexes into dict, and dict holds each distinct value once.
type DictArray struct {
	dict *packedarray.PackedArray
	arr  *packedarray.PackedArray
}

// Get returns the i-th original value, i.e. dict.Get(arr.Get(i)).
func (d *DictArray) Get(i uint) uint64 {
	return d.dict.Get(uint(d.arr.Get(i)))
}

// Len reports the number of encoded values (arr's element count).
func (d *DictArray) Len() uint { return d.arr.Len() }

// DictLen reports the number of distinct values in the dictionary.
func (d *DictArray) DictLen() uint { return d.dict.Len() }

// Encode builds a DictArray for values via a single linear pass with a
// transient hash map from value to dictionary index.
func Encode(values []uint64) *DictArray {
	seen := make(map[uint64]uint64, len(values))
	dict := make([]uint64, 0, len(values))
	indices := make([]uint64, len(values))
	for i, v := range values {
		idx, ok := seen[v]
		if !ok {
			idx = uint64(len(dict))
			dict = append(dict, v)
			seen[v] = idx
		}
		indices[i] = idx
	}
	return &DictArray{
		dict: packedarray.Encode(dict),
		arr:  packedarray.Encode(indices),
	}
}

// WriteTo appends the serialized form: PackedArray dict, PackedArray arr.
func (d *DictArray) WriteTo(w *serialize.Writer) {
	d.dict.WriteTo(w)
	d.arr.WriteTo(w)
}

// ReadFrom reconstructs a DictArray. dictLen and arrLen must be supplied
// by the caller's own bookkeeping, matching PackedArray's convention.
func ReadFrom(r *serialize.Reader, dictLen, arrLen uint) (*DictArray, error) {
	dict, err := packedarray.ReadFrom(r, dictLen)
	if err != nil {
		return nil, err
	}
	arr, err := packedarray.ReadFrom(r, arrLen)
	if err != nil {
		return nil, err
	}
	return &DictArray{dict: dict, arr: arr}, nil
}

// ReadFromBorrowed is the zero-copy counterpart of ReadFrom.
func ReadFromBorrowed(r *serialize.Reader, dictLen, arrLen uint) (*DictArray, error) {
	dict, err := packedarray.ReadFromBorrowed(r, dictLen)
	if err != nil {
		return nil, err
	}
	arr, err := packedarray.ReadFromBorrowed(r, arrLen)
	if err != nil {
		return nil, err
	}
	return &DictArray{dict: dict, arr: arr}, nil
}
