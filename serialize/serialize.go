// Package serialize implements the versionless, 8-byte-aligned binary
// format shared by every container in this module (PackedArray,
// DictArray, DArray, EliasFano, MPHF, RibbonTable, BumpedLayer,
// BumpedRibbon). There is no container header, no magic, no version:
// a structure is just the concatenation of its fields in declaration
// order, and a reader consumes a stream positioned at the structure's
// first byte and leaves it positioned just past the last.
//
// Writers always copy into an owned buffer. Readers support two modes:
// ReadUint64Slice, which copies into freshly allocated backing storage,
// and ReadUint64SliceBorrowed, which aliases the caller's byte slice directly (the
// fast path) and requires the source to be 8-byte aligned at the point
// of the slice.
package serialize

import (
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"
)

// Writer accumulates a structure's serialized bytes. It is a thin
// wrapper so call sites read like the field list in the format table
// instead of a pile of binary.Write calls.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }

// Len reports the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// WriteUint64 appends a single little-endian, native 8-byte word.
func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteUint64Slice appends a u64 length prefix followed by the words.
// Word slices are always 8-byte aligned, so no padding is emitted.
func (w *Writer) WriteUint64Slice(s []uint64) {
	w.WriteUint64(uint64(len(s)))
	for _, v := range s {
		w.WriteUint64(v)
	}
}

// WriteUint16Slice appends a u64 length prefix, the u16 elements, and
// zero-padding bytes so the cursor lands back on an 8-byte boundary.
func (w *Writer) WriteUint16Slice(s []uint16) {
	w.WriteUint64(uint64(len(s)))
	for _, v := range s {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], v)
		w.buf = append(w.buf, b[:]...)
	}
	w.pad(len(s) * 2)
}

// WriteByte appends a single raw byte (not length-prefixed or padded;
// callers that need alignment call PadToAlign themselves).
func (w *Writer) WriteByte(b byte) { w.buf = append(w.buf, b) }

// pad appends zero bytes until the cursor is 8-byte aligned, given the
// number of content bytes just written.
func (w *Writer) pad(contentLen int) {
	n := padLen(contentLen)
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

// PadToAlign pads the writer itself (not a just-written slice) to an
// 8-byte boundary. Used after raw byte fields such as the MPHF's
// pivot-encoding tag.
func (w *Writer) PadToAlign() {
	n := padLen(len(w.buf))
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

// WriteTo flushes the accumulated buffer to w, satisfying io.WriterTo.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(w.buf)
	return int64(n), err
}

func padLen(byteLen int) int {
	return (8 - byteLen%8) % 8
}

// Reader walks a byte buffer left to right, tracking an 8-byte-aligned
// cursor. Unlike Writer it can avoid copying (ReadUint64SliceBorrowed
// aliases the source buffer).
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Pos returns the current byte offset.
func (r *Reader) Pos() int { return r.pos }

// Aligned reports whether the cursor currently sits on an 8-byte
// boundary, per the format's alignment invariant.
func (r *Reader) Aligned() bool { return r.pos%8 == 0 }

var ErrShortBuffer = fmt.Errorf("serialize: buffer too short")

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, r.pos, len(r.buf))
	}
	return nil
}

// ReadUint64 reads one little-endian 8-byte word.
func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadByte reads a single raw byte.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// PadToAlign advances the cursor past the zero padding a Writer would
// have emitted to reach the next 8-byte boundary.
func (r *Reader) PadToAlign() error {
	n := padLen(r.pos)
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// ReadUint64Slice reads a u64 length prefix and the corresponding words,
// copying them into a freshly allocated slice (the "owned" read mode).
func (r *Reader) ReadUint64Slice() ([]uint64, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n) * 8); err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(r.buf[r.pos:])
		r.pos += 8
	}
	return out, nil
}

// ReadUint64SliceBorrowed reads a u64 length prefix, then returns a
// zero-copy []uint64 view directly into the reader's backing buffer.
// Precondition (ProgrammerError if violated): the current cursor must
// be 8-byte aligned, which it always is immediately after a length
// prefix since the prefix itself is 8 bytes.
func (r *Reader) ReadUint64SliceBorrowed() ([]uint64, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	byteLen := int(n) * 8
	if err := r.need(byteLen); err != nil {
		return nil, err
	}
	if !r.Aligned() {
		panic("serialize: ReadUint64SliceBorrowed requires an 8-byte-aligned cursor")
	}
	if byteLen == 0 {
		r_ := r.buf[r.pos:r.pos]
		_ = r_
		return []uint64{}, nil
	}
	ptr := (*uint64)(unsafe.Pointer(&r.buf[r.pos]))
	view := unsafe.Slice(ptr, n)
	r.pos += byteLen
	return view, nil
}

// ReadUint16Slice reads a u64 length prefix, the u16 elements, and the
// zero-padding that follows them.
func (r *Reader) ReadUint16Slice() ([]uint16, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	byteLen := int(n) * 2
	if err := r.need(byteLen); err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(r.buf[r.pos:])
		r.pos += 2
	}
	if err := r.PadToAlign(); err != nil {
		return nil, err
	}
	return out, nil
}
