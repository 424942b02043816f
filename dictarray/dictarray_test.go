package dictarray

import (
	"testing"

	"github.com/bitpacked/succinct/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDedups(t *testing.T) {
	values := []uint64{7, 7, 3, 7, 9, 3, 1}
	da := Encode(values)
	for i, v := range values {
		assert.Equal(t, v, da.Get(uint(i)), "index %d", i)
	}
	assert.LessOrEqual(t, da.DictLen(), uint(4))
}

func TestDictArrayRoundTrip(t *testing.T) {
	values := []uint64{1, 1, 1, 2, 3, 2, 1}
	da := Encode(values)
	w := serialize.NewWriter()
	da.WriteTo(w)
	r := serialize.NewReader(w.Bytes())
	got, err := ReadFrom(r, da.DictLen(), da.Len())
	require.NoError(t, err)
	for i, v := range values {
		assert.Equal(t, v, got.Get(uint(i)), "index %d", i)
	}
}

func TestEveryArrEntryInBounds(t *testing.T) {
	values := []uint64{42, 1, 42, 2, 1, 1}
	da := Encode(values)
	for i := uint(0); i < da.Len(); i++ {
		assert.Less(t, da.arr.Get(i), uint64(da.DictLen()), "arr[%d] outside dict", i)
		assert.Less(t, da.Get(i), uint64(1)<<40) // sanity: values resolve, not indices
	}
}
