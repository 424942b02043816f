package buildscratch

import (
	"encoding/binary"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payloadOf(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

func TestInMemoryRoundTrip(t *testing.T) {
	s, err := New("", 4, 8, 100)
	require.NoError(t, err)
	defer s.Close()

	for i := uint64(0); i < 40; i++ {
		key := payloadOf(i)
		err := s.Insert(uint(i%4), key, payloadOf(i*2))
		require.NoError(t, err)
	}

	seen := map[uint64]bool{}
	for b := uint(0); b < s.NumBuckets(); b++ {
		recs, err := s.ReadBucket(b)
		require.NoError(t, err)
		for _, r := range recs {
			k := binary.LittleEndian.Uint64(r.Key)
			v := binary.LittleEndian.Uint64(r.Payload)
			assert.Equal(t, k*2, v)
			seen[k] = true
		}
	}
	assert.Len(t, seen, 40)
}

func TestDiskBackedRoundTrip(t *testing.T) {
	// expectedTotal above inMemoryThreshold forces the disk-backed path.
	s, err := New(t.TempDir(), 8, 8, inMemoryThreshold+1)
	require.NoError(t, err)
	defer s.Close()

	const n = 5000
	for i := uint64(0); i < n; i++ {
		key := payloadOf(i)
		err := s.Insert(uint(i%8), key, payloadOf(i*3))
		require.NoError(t, err)
	}

	var keys []uint64
	for b := uint(0); b < s.NumBuckets(); b++ {
		recs, err := s.ReadBucket(b)
		require.NoError(t, err)
		for _, r := range recs {
			k := binary.LittleEndian.Uint64(r.Key)
			v := binary.LittleEndian.Uint64(r.Payload)
			assert.Equal(t, k*3, v)
			assert.Equal(t, uint64(b), k%8)
			keys = append(keys, k)
		}
	}
	require.Len(t, keys, n)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for i, k := range keys {
		assert.Equal(t, uint64(i), k)
	}
}

func TestInsertRejectsWrongPayloadSize(t *testing.T) {
	s, err := New("", 2, 8, 10)
	require.NoError(t, err)
	defer s.Close()

	err = s.Insert(0, []byte("k"), []byte{1, 2, 3})
	assert.Error(t, err)
}

func TestNewRejectsUnreasonableBucketCount(t *testing.T) {
	_, err := New("", maxBuckets+1, 8, inMemoryThreshold+1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

// TestFailingAllocatorSequence exercises the bounded pre-allocation
// refusal repeatedly, at several bucket counts that straddle the cap,
// verifying each attempt either succeeds cleanly or fails with
// ErrOutOfMemory and leaves nothing open to leak.
func TestFailingAllocatorSequence(t *testing.T) {
	attempts := []uint{maxBuckets - 1, maxBuckets, maxBuckets + 1, maxBuckets * 2}
	for _, n := range attempts {
		s, err := New("", n, 8, 1)
		if err != nil {
			assert.ErrorIs(t, err, ErrOutOfMemory)
			assert.Nil(t, s)
			continue
		}
		require.NoError(t, s.Close())
	}
}

func TestCloseRemovesOwnedTempDir(t *testing.T) {
	s, err := New("", 2, 8, inMemoryThreshold+1)
	require.NoError(t, err)
	dir := s.tmpDir
	require.NotEmpty(t, dir)
	require.NoError(t, s.Close())

	_, statErr := os.Stat(dir)
	assert.Error(t, statErr)
}
