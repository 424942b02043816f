// Package buildscratch provides a disk-spillable scratch area for
// grouping build-time records (key fingerprints paired with a fixed-width
// payload) into buckets ahead of an MPHF pivot search or a BuRR row-bucketing
// pass, without holding every key in memory at once for large n.
//
// It adapts the bucket-file scratch machinery of a CDB-style static
// perfect-hash index builder: each bucket is either an in-memory slice
// (small n) or a buffered scratch file (large n), and records are replayed
// back in insertion order once all inserts are done.
package buildscratch

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bitpacked/succinct/continuity"
)

// Record is one (key, payload) tuple read back out of a bucket.
type Record struct {
	Key     []byte
	Payload []byte
}

// bucket is the storage strategy for one bucket's records: either an
// in-memory slice or a buffered scratch file.
type bucket interface {
	writeTuple(key, payload []byte) error
	readAll() ([]Record, error)
}

// Scratch partitions inserted records across numBuckets buckets, storing
// each bucket in memory when the total record count is small and on disk
// (via a buffered scratch file) otherwise.
type Scratch struct {
	payloadSize uint
	tmpDir      string
	ownsTmpDir  bool
	buckets     []bucket
	files       []*os.File
}

// inMemoryThreshold is the total expected record count below which every
// bucket is kept in memory rather than spilled to disk.
const inMemoryThreshold = 1 << 20

// New creates a Scratch with numBuckets buckets, each holding fixed-width
// payloadSize-byte records. expectedTotal is the caller's estimate of the
// total record count across all buckets, used only to decide between the
// in-memory and disk-backed storage strategy (and, in the disk case, to
// preallocate scratch file space). tmpDir, if empty, is a fresh temporary
// directory the Scratch owns and removes on Close.
func New(tmpDir string, numBuckets uint, payloadSize uint, expectedTotal uint) (*Scratch, error) {
	if payloadSize == 0 {
		return nil, fmt.Errorf("buildscratch: payloadSize must be > 0")
	}
	if numBuckets == 0 {
		return nil, fmt.Errorf("buildscratch: numBuckets must be > 0")
	}
	if numBuckets > maxBuckets {
		return nil, fmt.Errorf("buildscratch: numBuckets %d exceeds cap: %w", numBuckets, ErrOutOfMemory)
	}

	s := &Scratch{payloadSize: payloadSize}

	if expectedTotal < inMemoryThreshold {
		s.buckets = make([]bucket, numBuckets)
		for i := range s.buckets {
			s.buckets[i] = newInMemoryBucket()
		}
		return s, nil
	}

	if tmpDir == "" {
		dir, err := os.MkdirTemp("", "buildscratch-")
		if err != nil {
			return nil, fmt.Errorf("buildscratch: create temp dir: %w", err)
		}
		tmpDir = dir
		s.ownsTmpDir = true
	}
	s.tmpDir = tmpDir

	perBucket := expectedTotal / numBuckets
	estBytes := int64(perBucket) * int64(2+payloadSize+8) // rough: len-prefix + payload + avg key

	s.buckets = make([]bucket, numBuckets)
	s.files = make([]*os.File, numBuckets)
	for i := range s.buckets {
		name := filepath.Join(tmpDir, fmt.Sprintf("bucket-%d", i))
		f, err := os.OpenFile(name, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o666)
		if err != nil {
			s.closeFiles()
			return nil, fmt.Errorf("buildscratch: open bucket file %d: %w", i, err)
		}
		if estBytes > 0 {
			if err := fallocate(f, 0, estBytes); err != nil {
				// Preallocation is an optimization; a filesystem that
				// rejects it (or a fake_fallocate write failure) is a
				// real write error, so surface it.
				s.closeFiles()
				return nil, fmt.Errorf("buildscratch: fallocate bucket file %d: %w", i, err)
			}
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				s.closeFiles()
				return nil, err
			}
			if err := f.Truncate(0); err != nil {
				s.closeFiles()
				return nil, err
			}
		}
		adviseSequential(f)
		s.files[i] = f
		s.buckets[i] = newFileBucket(f, payloadSize)
	}
	return s, nil
}

func (s *Scratch) closeFiles() {
	for _, f := range s.files {
		if f != nil {
			f.Close()
		}
	}
}

// NumBuckets reports the bucket count.
func (s *Scratch) NumBuckets() uint { return uint(len(s.buckets)) }

// Insert appends (key, payload) to the given bucket. payload must be
// exactly payloadSize bytes.
func (s *Scratch) Insert(bucketID uint, key, payload []byte) error {
	if uint(len(payload)) != s.payloadSize {
		return fmt.Errorf("buildscratch: payload length %d != %d", len(payload), s.payloadSize)
	}
	return s.buckets[bucketID].writeTuple(key, payload)
}

// ReadBucket flushes and reads back every record inserted into bucketID, in
// insertion order.
func (s *Scratch) ReadBucket(bucketID uint) ([]Record, error) {
	return s.buckets[bucketID].readAll()
}

// Close releases scratch files and, if Scratch created its own temp
// directory, removes it.
func (s *Scratch) Close() error {
	chain := continuity.New()
	for i, f := range s.files {
		idx, file := i, f
		if file == nil {
			continue
		}
		chain = chain.Thenf(fmt.Sprintf("close-bucket-%d", idx), file.Close)
	}
	if s.ownsTmpDir {
		dir := s.tmpDir
		chain = chain.Thenf("remove-tmpdir", func() error {
			return os.RemoveAll(dir)
		})
	}
	return chain.Err()
}

// inMemoryBucket keeps records as plain Go slices.
type inMemoryBucket struct {
	records []Record
}

func newInMemoryBucket() *inMemoryBucket {
	return &inMemoryBucket{records: make([]Record, 0)}
}

func (b *inMemoryBucket) writeTuple(key, payload []byte) error {
	b.records = append(b.records, Record{Key: cloneBytes(key), Payload: cloneBytes(payload)})
	return nil
}

func (b *inMemoryBucket) readAll() ([]Record, error) {
	return b.records, nil
}

// fileBucket buffers writes to a scratch file as [u16 keyLen][payload][key]
// tuples, then replays them back linearly on readAll.
type fileBucket struct {
	payloadSize uint
	file        *os.File
	writer      *bufio.Writer
	flushed     bool
}

func newFileBucket(file *os.File, payloadSize uint) *fileBucket {
	return &fileBucket{
		payloadSize: payloadSize,
		file:        file,
		writer:      bufio.NewWriterSize(file, 8*1024),
	}
}

func (b *fileBucket) writeTuple(key, payload []byte) error {
	head := make([]byte, 2+b.payloadSize)
	binary.LittleEndian.PutUint16(head[0:2], uint16(len(key)))
	copy(head[2:], payload)
	if _, err := b.writer.Write(head); err != nil {
		return err
	}
	_, err := b.writer.Write(key)
	return err
}

func (b *fileBucket) readAll() ([]Record, error) {
	if !b.flushed {
		if err := b.writer.Flush(); err != nil {
			return nil, err
		}
		b.flushed = true
	}
	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var out []Record
	reader := bufio.NewReader(b.file)
	head := make([]byte, 2+b.payloadSize)
	for {
		if _, err := io.ReadFull(reader, head); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		keyLen := binary.LittleEndian.Uint16(head[0:2])
		payload := make([]byte, b.payloadSize)
		copy(payload, head[2:])
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(reader, key); err != nil {
			return nil, err
		}
		out = append(out, Record{Key: key, Payload: payload})
	}
	adviseDontNeed(b.file)
	return out, nil
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
