package pthash

import (
	"encoding/binary"
	"testing"

	"github.com/bitpacked/succinct/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u64key(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

func TestMPHFOnSquares(t *testing.T) {
	const n = 256
	keys := make([][]byte, n)
	for i := 0; i < n; i++ {
		keys[i] = u64key(uint64(i * i))
	}

	params := Params{C: 7, Alpha: 0.80}
	mp, err := BuildUsingSeed(keys, params, 1, XXHasher{}, PackedArrayEncoding)
	require.NoError(t, err)

	seen := make([]bool, n)
	for _, k := range keys {
		v := mp.Get(k)
		require.Less(t, v, uint64(n))
		require.False(t, seen[v], "collision at value %d", v)
		seen[v] = true
	}
	for i, ok := range seen {
		assert.True(t, ok, "value %d never produced", i)
	}
}

func TestMPHFCollisionDetection(t *testing.T) {
	keys := [][]byte{u64key(5), u64key(5)}
	_, err := BuildUsingSeed(keys, DefaultParams(), 1, XXHasher{}, PackedArrayEncoding)
	require.ErrorIs(t, err, ErrHashCollision)
}

func TestMPHFSingleKey(t *testing.T) {
	keys := [][]byte{u64key(42)}
	mp, err := BuildUsingSeed(keys, DefaultParams(), 1, XXHasher{}, PackedArrayEncoding)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), mp.Get(keys[0]))
}

func TestMPHFRoundTrip(t *testing.T) {
	const n = 500
	keys := make([][]byte, n)
	for i := 0; i < n; i++ {
		keys[i] = u64key(uint64(i)*7919 + 3)
	}
	mp, err := BuildUsingSeed(keys, DefaultParams(), 99, XXHasher{}, DictArrayEncoding)
	require.NoError(t, err)

	w := serialize.NewWriter()
	mp.WriteTo(w)
	buf := w.Bytes()

	owned, err := ReadFrom(serialize.NewReader(buf), XXHasher{})
	require.NoError(t, err)
	for _, k := range keys {
		assert.Equal(t, mp.Get(k), owned.Get(k))
	}

	borrowed, err := ReadFromBorrowed(serialize.NewReader(buf), XXHasher{})
	require.NoError(t, err)
	for _, k := range keys {
		assert.Equal(t, mp.Get(k), borrowed.Get(k))
	}
}

func TestMPHFDeterministic(t *testing.T) {
	const n = 200
	keys := make([][]byte, n)
	for i := 0; i < n; i++ {
		keys[i] = u64key(uint64(i*31 + 11))
	}
	a, err := BuildUsingSeed(keys, DefaultParams(), 7, XXHasher{}, PackedArrayEncoding)
	require.NoError(t, err)
	b, err := BuildUsingSeed(keys, DefaultParams(), 7, XXHasher{}, PackedArrayEncoding)
	require.NoError(t, err)
	for _, k := range keys {
		assert.Equal(t, a.Get(k), b.Get(k))
	}
}
