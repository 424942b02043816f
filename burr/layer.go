package burr

import (
	"github.com/bitpacked/succinct/packedarray"
	"github.com/bitpacked/succinct/ribbon"
	"github.com/bitpacked/succinct/serialize"
)

// BumpedLayer is one layer of a BumpedRibbon: a row-solved RibbonTable
// plus, per bucket of `bucket_size` consecutive row-space columns, a
// 2-bit threshold code selecting how much of that bucket's suffix was
// bumped to the next layer.
type BumpedLayer struct {
	bucketSize               uint
	lowerThreshold, upperThreshold uint
	thresholds                *packedarray.PackedArray
	table                      *ribbon.RibbonTable
}

// thresholdFor maps a 2-bit threshold code to one of the four threshold
// values it may select.
func (l *BumpedLayer) thresholdFor(code uint64) uint {
	switch code {
	case 0:
		return 0
	case 1:
		return l.lowerThreshold
	case 2:
		return l.upperThreshold
	default:
		return l.bucketSize
	}
}

// isBumped reports whether row i's value must be looked up in a
// later layer (or the fallback) rather than this layer's table.
func (l *BumpedLayer) isBumped(i uint) bool {
	bucketIdx := uint(i / l.bucketSize)
	code := l.thresholds.Get(bucketIdx)
	offset := i % l.bucketSize
	return offset < l.thresholdFor(code)
}

// N reports the layer's row-solver column count (the table universe m
// this layer's rows were hashed against).
func (l *BumpedLayer) N() uint { return l.table.N() }

// encodeThresholds packs the per-bucket 2-bit threshold codes. Width
// is fixed at 2 regardless of the actual codes used (packedarray.Encode
// would narrow it when every code happens to be small), matching the
// format's `PackedArray(width=2)` invariant.
func encodeThresholds(codes []uint64) *packedarray.PackedArray {
	b := packedarray.NewBuilder(2, uint(len(codes)))
	for i, v := range codes {
		b.SetFromZero(uint(i), v)
	}
	return b.Finish()
}

// WriteTo appends the serialized form: the three scalar header
// fields, an explicit bucket count (needed to size the thresholds
// PackedArray on read, since the format's abstract table elides it),
// the thresholds PackedArray, then the RibbonTable.
func (l *BumpedLayer) WriteTo(w *serialize.Writer) {
	w.WriteUint64(uint64(l.bucketSize))
	w.WriteUint64(uint64(l.upperThreshold))
	w.WriteUint64(uint64(l.lowerThreshold))
	w.WriteUint64(uint64(l.thresholds.Len()))
	l.thresholds.WriteTo(w)
	l.table.WriteTo(w)
}

func readLayer(r *serialize.Reader) (*BumpedLayer, error) {
	bucketSize, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	upper, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	lower, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	numBuckets, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	thresholds, err := packedarray.ReadFrom(r, uint(numBuckets))
	if err != nil {
		return nil, err
	}
	table, err := ribbon.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	return &BumpedLayer{
		bucketSize: uint(bucketSize), upperThreshold: uint(upper), lowerThreshold: uint(lower),
		thresholds: thresholds, table: table,
	}, nil
}

func readLayerBorrowed(r *serialize.Reader) (*BumpedLayer, error) {
	bucketSize, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	upper, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	lower, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	numBuckets, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	thresholds, err := packedarray.ReadFromBorrowed(r, uint(numBuckets))
	if err != nil {
		return nil, err
	}
	table, err := ribbon.ReadFromBorrowed(r)
	if err != nil {
		return nil, err
	}
	return &BumpedLayer{
		bucketSize: uint(bucketSize), upperThreshold: uint(upper), lowerThreshold: uint(lower),
		thresholds: thresholds, table: table,
	}, nil
}
