package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint64SliceRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteUint64Slice([]uint64{1, 2, 3, 0xdeadbeef})
	r := NewReader(w.Bytes())
	got, err := r.ReadUint64Slice()
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3, 0xdeadbeef}, got)
	assert.True(t, r.Aligned())
	assert.Equal(t, w.Len(), r.Pos())
}

func TestUint64SliceBorrowed(t *testing.T) {
	w := NewWriter()
	w.WriteUint64Slice([]uint64{7, 8, 9})
	r := NewReader(w.Bytes())
	got, err := r.ReadUint64SliceBorrowed()
	require.NoError(t, err)
	assert.Equal(t, []uint64{7, 8, 9}, got)
}

func TestUint16SlicePadding(t *testing.T) {
	w := NewWriter()
	w.WriteUint16Slice([]uint16{1, 2, 3})
	// 3 * 2 = 6 content bytes + 2 padding = 8, plus 8-byte length prefix = 16.
	assert.Equal(t, 16, w.Len())

	r := NewReader(w.Bytes())
	got, err := r.ReadUint16Slice()
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2, 3}, got)
	assert.True(t, r.Aligned())
}

func TestEmptySlices(t *testing.T) {
	w := NewWriter()
	w.WriteUint64Slice(nil)
	w.WriteUint16Slice(nil)
	r := NewReader(w.Bytes())
	u64s, err := r.ReadUint64Slice()
	require.NoError(t, err)
	assert.Empty(t, u64s)
	u16s, err := r.ReadUint16Slice()
	require.NoError(t, err)
	assert.Empty(t, u16s)
	assert.True(t, r.Aligned())
}

func TestShortBufferError(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	_, err := r.ReadUint64()
	require.ErrorIs(t, err, ErrShortBuffer)
}
