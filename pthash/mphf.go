// Package pthash implements the PTHash minimal perfect hash function:
// a non-uniform bucketer, descending-bucket-size pivot search against
// a global occupancy bitset, and optional alpha-relaxation compressed
// with Elias-Fano free slots.
package pthash

import (
	"encoding/binary"
	"math"
	"math/rand"
	"sort"

	"github.com/bitpacked/succinct/bitset"
	"github.com/bitpacked/succinct/buildscratch"
	"github.com/bitpacked/succinct/eliasfano"
	"github.com/bitpacked/succinct/serialize"
)

// Params tunes the build: c controls the bucket-count multiplier
// (larger ⇒ faster build, larger output), alpha is the load factor in
// (0, 1] (smaller ⇒ easier build, more bits spent on free_slots), and
// PivotCap safeguards the per-bucket pivot search against runaway
// retries on a pathological input.
type Params struct {
	C        float64
	Alpha    float64
	PivotCap int
}

// DefaultParams returns the spec's typical defaults: c=7, alpha=0.95.
func DefaultParams() Params {
	return Params{C: 7, Alpha: 0.95, PivotCap: 1_000_000}
}

func (p Params) normalize() Params {
	if p.C <= 0 {
		p.C = 7
	}
	if p.Alpha <= 0 || p.Alpha > 1 {
		p.Alpha = 0.95
	}
	if p.PivotCap <= 0 {
		p.PivotCap = 1_000_000
	}
	return p
}

// MPHF is a built minimal perfect hash function: a bijection from the
// key set it was built over onto [0, n).
type MPHF struct {
	n         uint64
	seed      uint64
	hasher    Hasher
	bucketer  *Bucketer
	pivots    Enc
	freeSlots *eliasfano.EliasFano
}

// Len reports n, the number of keys the MPHF was built over.
func (mp *MPHF) Len() uint64 { return mp.n }

// Get evaluates the MPHF at key, returning a value in [0, n) for keys
// in the original build set. Behavior is unspecified for keys outside
// that set (no membership test is performed).
func (mp *MPHF) Get(key []byte) uint64 {
	h1, h2 := mp.hasher.Hash(mp.seed, key)
	b := mp.bucketer.Bucket(h1)
	p := mp.pivots.Get(uint(b))
	x := position(mp.seed, p, h2, mp.bucketer.n)
	if x < mp.n {
		return x
	}
	return mp.freeSlots.Get(uint(x - mp.n))
}

type fingerprint struct{ h1, h2 uint64 }

// groupByBucket assigns each key index to its bucket, spilling to disk
// scratch files once the key count crosses buildscratch's in-memory
// threshold instead of holding every per-bucket slice live at once.
func groupByBucket(fps []fingerprint, bucketer *Bucketer, numBuckets uint) ([][]uint64, error) {
	scratch, err := buildscratch.New("", numBuckets, 8, uint(len(fps)))
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	for i, fp := range fps {
		b := bucketer.Bucket(fp.h1)
		var payload [8]byte
		binary.LittleEndian.PutUint64(payload[:], uint64(i))
		if err := scratch.Insert(uint(b), nil, payload[:]); err != nil {
			return nil, err
		}
	}

	buckets := make([][]uint64, numBuckets)
	for b := uint(0); b < numBuckets; b++ {
		recs, err := scratch.ReadBucket(b)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			continue
		}
		members := make([]uint64, len(recs))
		for j, rec := range recs {
			members[j] = binary.LittleEndian.Uint64(rec.Payload)
		}
		buckets[b] = members
	}
	return buckets, nil
}

// BuildUsingSeed constructs an MPHF over keys deterministically from
// (keys, params, seed). It returns ErrHashCollision if two distinct
// keys hash identically, or if any bucket's pivot search exhausts
// params.PivotCap attempts.
func BuildUsingSeed(keys [][]byte, params Params, seed uint64, hasher Hasher, encFn EncodeFunc) (*MPHF, error) {
	params = params.normalize()
	n := uint64(len(keys))
	if n == 0 {
		return &MPHF{hasher: hasher, bucketer: &Bucketer{}, pivots: encFn(nil), freeSlots: eliasfano.Encode(nil)}, nil
	}

	fps := make([]fingerprint, n)
	for i, k := range keys {
		h1, h2 := hasher.Hash(seed, k)
		fps[i] = fingerprint{h1, h2}
	}

	sorted := append([]fingerprint(nil), fps...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].h1 != sorted[j].h1 {
			return sorted[i].h1 < sorted[j].h1
		}
		return sorted[i].h2 < sorted[j].h2
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, ErrHashCollision
		}
	}

	nPrime := uint64(math.Floor(float64(n) / params.Alpha))
	if nPrime < n {
		nPrime = n
	}

	bucketer := NewBucketer(nPrime, params.C)
	m := bucketer.NumBuckets()

	buckets, err := groupByBucket(fps, bucketer, uint(m))
	if err != nil {
		return nil, err
	}

	order := make([]uint64, m)
	for i := range order {
		order[i] = uint64(i)
	}
	sort.Slice(order, func(i, j int) bool {
		bi, bj := order[i], order[j]
		si, sj := len(buckets[bi]), len(buckets[bj])
		if si != sj {
			return si > sj
		}
		return bi < bj
	})

	taken := bitset.New(uint(nPrime))
	pivots := make([]uint64, m)

	for _, bid := range order {
		members := buckets[bid]
		if len(members) == 0 {
			continue
		}
		positions := make([]uint64, len(members))
		seenPos := make(map[uint64]bool, len(members))
		found := false
		for pivot := uint64(0); pivot < uint64(params.PivotCap); pivot++ {
			ok := true
			for k := range seenPos {
				delete(seenPos, k)
			}
			for idx, keyIdx := range members {
				pos := position(seed, pivot, fps[keyIdx].h2, nPrime)
				if taken.Get(uint(pos)) || seenPos[pos] {
					ok = false
					break
				}
				seenPos[pos] = true
				positions[idx] = pos
			}
			if ok {
				for _, pos := range positions {
					taken.Set(uint(pos))
				}
				pivots[bid] = pivot
				found = true
				break
			}
		}
		if !found {
			return nil, ErrHashCollision
		}
	}

	var freeSlots *eliasfano.EliasFano
	if nPrime > n {
		unsetPositions := make([]uint64, 0, nPrime-n)
		for i := uint64(0); i < nPrime; i++ {
			if !taken.Get(uint(i)) {
				unsetPositions = append(unsetPositions, i)
			}
		}
		freeVals := make([]uint64, nPrime-n)
		idx := 0
		for j := uint64(0); j < nPrime-n; j++ {
			if taken.Get(uint(n + j)) {
				freeVals[j] = unsetPositions[idx]
				idx++
			} else if j > 0 {
				freeVals[j] = freeVals[j-1]
			}
		}
		freeSlots = eliasfano.Encode(freeVals)
	} else {
		freeSlots = eliasfano.Encode(nil)
	}

	return &MPHF{
		n:         n,
		seed:      seed,
		hasher:    hasher,
		bucketer:  bucketer,
		pivots:    encFn(pivots),
		freeSlots: freeSlots,
	}, nil
}

// BuildUsingRandomSeed retries BuildUsingSeed with fresh seeds drawn
// from rng, up to maxAttempts times (1000 if maxAttempts <= 0),
// returning ErrHashCollision on exhaustion.
func BuildUsingRandomSeed(keys [][]byte, params Params, maxAttempts int, rng *rand.Rand, hasher Hasher, encFn EncodeFunc) (*MPHF, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1000
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		mp, err := BuildUsingSeed(keys, params, rng.Uint64(), hasher, encFn)
		if err == nil {
			return mp, nil
		}
	}
	return nil, ErrHashCollision
}

// WriteTo appends the serialized form: n, seed, the Bucketer, the
// free_slots EliasFano, a one-byte pivot-encoding tag padded to an
// 8-byte boundary, a u64 dictionary length (0 when the tag is
// PackedArray), then the pivots.
func (mp *MPHF) WriteTo(w *serialize.Writer) {
	w.WriteUint64(mp.n)
	w.WriteUint64(mp.seed)
	mp.bucketer.WriteTo(w)
	mp.freeSlots.WriteTo(w)
	kind, dictLen := kindOf(mp.pivots)
	w.WriteByte(byte(kind))
	w.PadToAlign()
	w.WriteUint64(dictLen)
	mp.pivots.WriteTo(w)
}

// ReadFrom reconstructs an MPHF by copying into freshly allocated
// backing storage. hasher must match the one the MPHF was built with.
func ReadFrom(r *serialize.Reader, hasher Hasher) (*MPHF, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	seed, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	bucketer, err := readBucketer(r)
	if err != nil {
		return nil, err
	}
	freeSlots, err := eliasfano.ReadFrom(r, uint(bucketer.n-n))
	if err != nil {
		return nil, err
	}
	kindByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if err := r.PadToAlign(); err != nil {
		return nil, err
	}
	dictLen, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	pivots, err := readEnc(r, encKind(kindByte), dictLen, bucketer.m)
	if err != nil {
		return nil, err
	}
	return &MPHF{n: n, seed: seed, hasher: hasher, bucketer: bucketer, pivots: pivots, freeSlots: freeSlots}, nil
}

// ReadFromBorrowed is the zero-copy counterpart of ReadFrom.
func ReadFromBorrowed(r *serialize.Reader, hasher Hasher) (*MPHF, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	seed, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	bucketer, err := readBucketer(r)
	if err != nil {
		return nil, err
	}
	freeSlots, err := eliasfano.ReadFromBorrowed(r, uint(bucketer.n-n))
	if err != nil {
		return nil, err
	}
	kindByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if err := r.PadToAlign(); err != nil {
		return nil, err
	}
	dictLen, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	pivots, err := readEncBorrowed(r, encKind(kindByte), dictLen, bucketer.m)
	if err != nil {
		return nil, err
	}
	return &MPHF{n: n, seed: seed, hasher: hasher, bucketer: bucketer, pivots: pivots, freeSlots: freeSlots}, nil
}
