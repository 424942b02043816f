package eliasfano

import (
	"math/rand"
	"testing"

	"github.com/bitpacked/succinct/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotoneSequenceRoundTrip(t *testing.T) {
	const n = 100000
	rng := rand.New(rand.NewSource(0x0194f614c15227ba))
	x := make([]uint64, n)
	for i := 1; i < n; i++ {
		x[i] = x[i-1] + uint64(rng.Intn(50))
	}

	ef := Encode(x)
	require.Equal(t, uint(n), ef.Len())
	for i := 0; i < n; i++ {
		require.Equal(t, x[i], ef.Get(uint(i)), "index %d", i)
	}
}

func TestEncodeEmpty(t *testing.T) {
	ef := Encode(nil)
	assert.Equal(t, uint(0), ef.Len())
}

func TestEncodeConstantSequence(t *testing.T) {
	x := make([]uint64, 50)
	ef := Encode(x)
	for i := range x {
		assert.Equal(t, uint64(0), ef.Get(uint(i)))
	}
}

func TestEncodePanicsOnNonMonotone(t *testing.T) {
	assert.Panics(t, func() {
		Encode([]uint64{1, 2, 1})
	})
}

func TestRoundTripOwnedAndBorrowed(t *testing.T) {
	x := []uint64{3, 3, 10, 10, 10, 55, 1000, 1000, 1001}
	ef := Encode(x)

	w := serialize.NewWriter()
	ef.WriteTo(w)
	buf := w.Bytes()

	owned, err := ReadFrom(serialize.NewReader(buf), ef.Len())
	require.NoError(t, err)
	for i, want := range x {
		assert.Equal(t, want, owned.Get(uint(i)), "owned index %d", i)
	}

	borrowed, err := ReadFromBorrowed(serialize.NewReader(buf), ef.Len())
	require.NoError(t, err)
	for i, want := range x {
		assert.Equal(t, want, borrowed.Get(uint(i)), "borrowed index %d", i)
	}
}
