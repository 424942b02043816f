package pthash

import (
	"github.com/bitpacked/succinct/dictarray"
	"github.com/bitpacked/succinct/packedarray"
	"github.com/bitpacked/succinct/serialize"
)

// Enc is the pivot-encoding contract: any container that can be built
// from a []uint64, read back, and indexed may serve as the MPHF's
// pivot array. PackedArray (the default, simplest) and DictArray
// (better when pivots repeat, common at large alpha) both satisfy it
// without modification.
type Enc interface {
	Get(i uint) uint64
	WriteTo(w *serialize.Writer)
}

// encKind tags which concrete Enc implementation was used, so
// ReadFrom can dispatch to the matching constructor; spec.md's format
// table leaves this implicit since it treats Enc as a single type
// parameter, but a self-describing wire format needs the tag.
type encKind byte

const (
	encKindPacked encKind = iota
	encKindDict
)

// EncodeFunc builds a pivot encoding from the raw pivot values.
type EncodeFunc func(values []uint64) Enc

// PackedArrayEncoding is the default EncodeFunc.
func PackedArrayEncoding(values []uint64) Enc {
	return packedarray.Encode(values)
}

// DictArrayEncoding dedups repeated pivot values, which pays off once
// alpha is large enough that many buckets share small pivots.
func DictArrayEncoding(values []uint64) Enc {
	return dictarray.Encode(values)
}

func kindOf(e Enc) (encKind, uint64) {
	switch v := e.(type) {
	case *packedarray.PackedArray:
		return encKindPacked, 0
	case *dictarray.DictArray:
		return encKindDict, uint64(v.DictLen())
	default:
		panic("pthash: unsupported Enc implementation")
	}
}

func readEnc(r *serialize.Reader, kind encKind, dictLen, arrLen uint64) (Enc, error) {
	switch kind {
	case encKindPacked:
		return packedarray.ReadFrom(r, uint(arrLen))
	case encKindDict:
		return dictarray.ReadFrom(r, uint(dictLen), uint(arrLen))
	default:
		return nil, errInvalidEncKind
	}
}

func readEncBorrowed(r *serialize.Reader, kind encKind, dictLen, arrLen uint64) (Enc, error) {
	switch kind {
	case encKindPacked:
		return packedarray.ReadFromBorrowed(r, uint(arrLen))
	case encKindDict:
		return dictarray.ReadFromBorrowed(r, uint(dictLen), uint(arrLen))
	default:
		return nil, errInvalidEncKind
	}
}
