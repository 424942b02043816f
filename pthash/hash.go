package pthash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// goldenSalt folds a second, independent digest out of the same key
// bytes; xxhash.Sum64 has no built-in two-output mode, so a fixed salt
// XORed into the seed before hashing stands in for it (two 64-bit
// xxHash digests, not one wyhash call — see SPEC_FULL.md §3).
const goldenSalt = 0x9E3779B97F4A7C15

// Hasher reduces a key to a 128-bit fingerprint (h1, h2) under a given
// build seed. h1 feeds the bucketer; h2 feeds the pivot/band mixing
// function. Implementations must be deterministic in (seed, key).
type Hasher interface {
	Hash(seed uint64, key []byte) (h1, h2 uint64)
}

// XXHasher is the default Hasher, built from two independent
// xxHash64 digests of the key bytes prefixed by the seed (or
// seed^goldenSalt for the second digest).
type XXHasher struct{}

func (XXHasher) Hash(seed uint64, key []byte) (h1, h2 uint64) {
	var prefix [8]byte

	binary.LittleEndian.PutUint64(prefix[:], seed)
	d1 := xxhash.New()
	d1.Write(prefix[:])
	d1.Write(key)
	h1 = d1.Sum64()

	binary.LittleEndian.PutUint64(prefix[:], seed^goldenSalt)
	d2 := xxhash.New()
	d2.Write(prefix[:])
	d2.Write(key)
	h2 = d2.Sum64()

	return h1, h2
}

// foldMix combines two 64-bit values into one via a single xxHash64
// digest over their little-endian concatenation (the "chained mix"
// the position function composes twice: once over (seed, pivot), once
// over (that result, the key's h2)).
func foldMix(a, b uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], a)
	binary.LittleEndian.PutUint64(buf[8:16], b)
	return xxhash.Sum64(buf[:])
}

// position computes pos(e, pivot) = mix(mix(seed, pivot), e.h2) mod n.
func position(seed, pivot, h2, n uint64) uint64 {
	inner := foldMix(seed, pivot)
	return foldMix(inner, h2) % n
}
