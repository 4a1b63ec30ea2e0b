// Package serialize implements the binary IR format (nzslb) and the
// multi-module archive container (nzsla). The writer/reader pair hand-rolls
// a fixed-layout header plus a node-tag-driven visitor over the tree; tags
// stay stable across minor versions, which a generic encoder could not
// guarantee.
package serialize

import (
	"encoding/binary"
	"math"
)

// Writer accumulates a little-endian byte stream.
type Writer struct {
	buf []byte
}

// NewWriter constructs an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated byte stream.
func (w *Writer) Bytes() []byte { return w.buf }

// Len reports how many bytes have been written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) WriteU8(v uint8)   { w.buf = append(w.buf, v) }
func (w *Writer) WriteI8(v int8)    { w.WriteU8(uint8(v)) }
func (w *Writer) WriteU16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *Writer) WriteU32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *Writer) WriteU64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *Writer) WriteI32(v int32)  { w.WriteU32(uint32(v)) }
func (w *Writer) WriteI64(v int64)  { w.WriteU64(uint64(v)) }
func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }
func (w *Writer) WriteF64(v float64) { w.WriteU64(math.Float64bits(v)) }

// WriteString writes a u32 byte-length prefix followed by the raw bytes.
func (w *Writer) WriteString(s string) {
	w.WriteU32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteRaw appends b verbatim, with no length prefix.
func (w *Writer) WriteRaw(b []byte) { w.buf = append(w.buf, b...) }

// Serialize reserves size bytes and lets cb fill them in place, returning
// the exact slot it wrote into, so a caller can write a payload directly
// into the output buffer without an intermediate copy.
func (w *Writer) Serialize(size int, cb func([]byte)) []byte {
	start := len(w.buf)
	w.buf = append(w.buf, make([]byte, size)...)
	slot := w.buf[start : start+size]
	cb(slot)
	return slot
}

// PatchU32 overwrites the 4 bytes at byte offset off with v, used for
// back-patching archive header offsets once every module's size is known.
func (w *Writer) PatchU32(off int, v uint32) {
	binary.LittleEndian.PutUint32(w.buf[off:off+4], v)
}
