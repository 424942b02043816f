package ribbon

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/bitpacked/succinct/serialize"
	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rowRec struct {
	i uint
	c uint64
	b uint64
}

func TestSystemInsertAndBackSubstituteRoundTrip(t *testing.T) {
	const n, w, r = 300, 32, 8
	sys := NewSystem(n, r, w)
	rng := rand.New(rand.NewSource(42))

	var rows []rowRec
	for k := 0; k < 100; k++ {
		key := fmt.Sprintf("key-%d", k)
		h1 := xxhash.Sum64String(key)
		h2 := xxhash.Sum64String(key + "#2")
		i, c := RowFor(h1, h2, n, w)
		b := uint64(rng.Intn(1 << r))

		res := sys.Insert(i, c, b)
		require.NotEqual(t, InsertFailure, res.Kind, "key %d failed to insert", k)
		rows = append(rows, rowRec{i, c, b})
	}

	table := sys.BackSubstitute()
	for idx, rr := range rows {
		got := table.Lookup(rr.i, rr.c)
		assert.Equal(t, rr.b, got, "row %d (i=%d, c=%x)", idx, rr.i, rr.c)
	}
}

func TestInsertRedundant(t *testing.T) {
	sys := NewSystem(10, 8, 8)
	res1 := sys.Insert(0, 1, 5)
	require.Equal(t, InsertSuccess, res1.Kind)

	res2 := sys.Insert(0, 1, 5)
	assert.Equal(t, InsertRedundant, res2.Kind)
}

func TestInsertFailureAndClearRow(t *testing.T) {
	sys := NewSystem(20, 8, 8)
	res1 := sys.Insert(0, 1, 5)
	require.Equal(t, InsertSuccess, res1.Kind)

	res2 := sys.Insert(0, 1, 9)
	require.Equal(t, InsertFailure, res2.Kind)

	sys.ClearRow(0)
	res3 := sys.Insert(0, 1, 9)
	require.Equal(t, InsertSuccess, res3.Kind)

	table := sys.BackSubstitute()
	assert.Equal(t, uint64(9), table.Lookup(0, 1))
}

func TestRibbonTableRoundTrip(t *testing.T) {
	const n, w, r = 64, 8, 6
	sys := NewSystem(n, r, w)
	var rows []rowRec
	for k := 0; k < 30; k++ {
		key := fmt.Sprintf("k%d", k)
		h1 := xxhash.Sum64String(key)
		h2 := xxhash.Sum64String(key + "x")
		i, c := RowFor(h1, h2, n, w)
		b := uint64(k) % (1 << r)
		res := sys.Insert(i, c, b)
		require.NotEqual(t, InsertFailure, res.Kind)
		rows = append(rows, rowRec{i, c, b})
	}

	table := sys.BackSubstitute()
	w2 := serialize.NewWriter()
	table.WriteTo(w2)
	buf := w2.Bytes()

	owned, err := ReadFrom(serialize.NewReader(buf))
	require.NoError(t, err)
	for _, rr := range rows {
		assert.Equal(t, rr.b, owned.Lookup(rr.i, rr.c))
	}

	borrowed, err := ReadFromBorrowed(serialize.NewReader(buf))
	require.NoError(t, err)
	for _, rr := range rows {
		assert.Equal(t, rr.b, borrowed.Lookup(rr.i, rr.c))
	}
}
