package packedarray

import (
	"testing"

	"github.com/bitpacked/succinct/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMixedWidths(t *testing.T) {
	values := []uint64{5, 2, 9, 100, 0, 5, 10, 90, 9, 1, 65, 10}
	pa := Encode(values)
	assert.EqualValues(t, 7, pa.Width())
	assert.Len(t, pa.Words(), 2)
	for i, v := range values {
		assert.Equal(t, v, pa.Get(uint(i)), "index %d", i)
	}
}

func TestEncodeEmpty(t *testing.T) {
	pa := Encode(nil)
	assert.EqualValues(t, 1, pa.Width())
	assert.EqualValues(t, 0, pa.Len())
	assert.Empty(t, pa.Words())
}

func TestWidth64WordBoundary(t *testing.T) {
	b := NewBuilder(64, 3)
	b.SetFromZero(0, 0x1111111111111111)
	b.SetFromZero(1, 0x2222222222222222)
	b.SetFromZero(2, 0x3333333333333333)
	pa := b.Finish()
	assert.Equal(t, uint64(0x1111111111111111), pa.Get(0))
	assert.Equal(t, uint64(0x2222222222222222), pa.Get(1))
	assert.Equal(t, uint64(0x3333333333333333), pa.Get(2))
}

func TestSetToZeroLeavesNeighborsIntact(t *testing.T) {
	b := NewBuilder(5, 20)
	for i := uint(0); i < 20; i++ {
		b.SetFromZero(i, uint64(i+1))
	}
	b.SetToZero(10)
	b.SetFromZero(10, 31)
	for i := uint(0); i < 20; i++ {
		want := uint64(i + 1)
		if i == 10 {
			want = 31
		}
		assert.Equal(t, want, b.Get(i), "index %d", i)
	}
}

func TestPackedArrayRoundTrip(t *testing.T) {
	pa := Encode([]uint64{3, 1, 4, 1, 5, 9, 2, 6})
	w := serialize.NewWriter()
	pa.WriteTo(w)
	r := serialize.NewReader(w.Bytes())
	got, err := ReadFrom(r, pa.Len())
	require.NoError(t, err)
	assert.Equal(t, pa.Width(), got.Width())
	for i := uint(0); i < pa.Len(); i++ {
		assert.Equal(t, pa.Get(i), got.Get(i))
	}
	assert.True(t, r.Aligned())
}

func TestPackedArrayBorrowedRoundTrip(t *testing.T) {
	pa := Encode([]uint64{10, 20, 30, 40, 50})
	w := serialize.NewWriter()
	pa.WriteTo(w)
	r := serialize.NewReader(w.Bytes())
	got, err := ReadFromBorrowed(r, pa.Len())
	require.NoError(t, err)
	for i := uint(0); i < pa.Len(); i++ {
		assert.Equal(t, pa.Get(i), got.Get(i))
	}
}

func TestZeroWidthSentinel(t *testing.T) {
	b := NewBuilder(0, 5)
	pa := b.Finish()
	for i := uint(0); i < 5; i++ {
		assert.Equal(t, uint64(0), pa.Get(i))
	}
}
