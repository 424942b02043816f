package pthash

import (
	"math/bits"

	"github.com/bitpacked/succinct/serialize"
)

// Bucketer maps a 64-bit hash to a bucket id in [0, m), using the
// non-uniform skew PTHash relies on: roughly 60% of keys land in the
// "dense" 30% of buckets, making the remaining 70% of buckets easier
// to place during pivot search.
type Bucketer struct {
	n, m, p1, p2 uint64
}

// NewBucketer builds a Bucketer for a universe of size n (the
// alpha-relaxed n', not the raw key count) with the tuning constant c.
func NewBucketer(n uint64, c float64) *Bucketer {
	if n == 0 {
		return &Bucketer{}
	}
	logN := uint64(bits.Len64(n))
	m := uint64(c * float64(n) / float64(logN))
	if m < 1 {
		m = 1
	}
	p1 := uint64(0.6 * float64(n))
	var p2 uint64
	if m > 1 {
		p2 = uint64(0.3 * float64(m))
		if p2 == 0 {
			p2 = 1
		}
		if p2 >= m {
			p2 = m - 1
		}
	}
	return &Bucketer{n: n, m: m, p1: p1, p2: p2}
}

// NumBuckets reports m, the bucket count (and so the pivot array length).
func (b *Bucketer) NumBuckets() uint64 { return b.m }

// Bucket maps hash h to a bucket id in [0, m).
func (b *Bucketer) Bucket(h uint64) uint64 {
	if b.m <= 1 {
		return 0
	}
	if h%b.n < b.p1 {
		return h % b.p2
	}
	return b.p2 + h%(b.m-b.p2)
}

func (b *Bucketer) WriteTo(w *serialize.Writer) {
	w.WriteUint64(b.n)
	w.WriteUint64(b.m)
	w.WriteUint64(b.p1)
	w.WriteUint64(b.p2)
}

func readBucketer(r *serialize.Reader) (*Bucketer, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	m, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	p1, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	p2, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	return &Bucketer{n: n, m: m, p1: p1, p2: p2}, nil
}
