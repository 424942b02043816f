package burr

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// goldenSalt mirrors pthash's fixed salt: BuRR is parameterized over
// its own (Key, hasher) pair per spec.md's compile-time-genericity
// note, so it carries an independent copy of the same two-digest
// scheme rather than importing the pthash package.
const goldenSalt = 0x9E3779B97F4A7C15

// Hasher reduces a key to a 128-bit fingerprint (h1, h2) under a given
// build seed.
type Hasher interface {
	Hash(seed uint64, key []byte) (h1, h2 uint64)
}

// XXHasher is the default Hasher: two independent xxHash64 digests of
// the key bytes, prefixed by the seed (and seed^goldenSalt).
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
