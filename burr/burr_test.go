package burr

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/bitpacked/succinct/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idxKey(i int) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(i))
	return b[:]
}

func TestBumpedRibbonRoundTrip(t *testing.T) {
	const n, r, w = 100, 8, 32
	const seed = 100

	rng := rand.New(rand.NewSource(7))
	keys := make([][]byte, n)
	values := make([]uint64, n)
	for i := 0; i < n; i++ {
		keys[i] = idxKey(i)
		values[i] = uint64(rng.Intn(1 << r))
	}

	br, err := BuildUsingSeed(keys, values, w, r, seed, DefaultEpsilon, XXHasher{})
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		assert.Equal(t, values[i], br.Get(keys[i]), "key %d", i)
	}
}

func TestBumpedRibbonSerializationRoundTrip(t *testing.T) {
	const n, r, w = 2500, 8, 32
	const seed = 42

	rng := rand.New(rand.NewSource(99))
	keys := make([][]byte, n)
	values := make([]uint64, n)
	for i := 0; i < n; i++ {
		keys[i] = idxKey(i)
		values[i] = uint64(rng.Intn(1 << r))
	}

	br, err := BuildUsingSeed(keys, values, w, r, seed, DefaultEpsilon, XXHasher{})
	require.NoError(t, err)

	w2 := serialize.NewWriter()
	br.WriteTo(w2)
	buf := w2.Bytes()

	owned, err := ReadFrom(serialize.NewReader(buf), XXHasher{})
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		assert.Equal(t, values[i], owned.Get(keys[i]), "key %d", i)
	}

	borrowed, err := ReadFromBorrowed(serialize.NewReader(buf), XXHasher{})
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		assert.Equal(t, values[i], borrowed.Get(keys[i]), "key %d", i)
	}
}

func TestBumpedRibbonExercisesMultipleLayers(t *testing.T) {
	// n large enough that the first layer bumps rows, which must then be
	// answered by a later layer or the fallback ribbon. A second
	// BumpedLayer is built only when the residual reaches the 2048-row
	// continuation floor, so only one layer is required here.
	const n, r, w = 6000, 8, 24
	const seed = 5

	rng := rand.New(rand.NewSource(1234))
	keys := make([][]byte, n)
	values := make([]uint64, n)
	for i := 0; i < n; i++ {
		keys[i] = idxKey(i)
		values[i] = uint64(rng.Intn(1 << r))
	}

	br, err := BuildUsingSeed(keys, values, w, r, seed, DefaultEpsilon, XXHasher{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(br.layers), 1)

	for i := 0; i < n; i++ {
		assert.Equal(t, values[i], br.Get(keys[i]), "key %d", i)
	}
}
