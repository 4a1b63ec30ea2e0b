package serialize

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Reader walks a byte stream produced by Writer, symmetric method for method,
// plus SeekTo for the archive's random-access module lookup.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps b for reading from offset 0.
func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Pos reports the current read offset.
func (r *Reader) Pos() int { return r.pos }

// SeekTo moves the read cursor to an absolute offset.
func (r *Reader) SeekTo(offset int) { r.pos = offset }

// Remaining reports how many unread bytes are left.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("serialize: unexpected end of stream reading %d byte(s) at offset %d", n, r.pos)
	}
	//
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	//
	return b[0] != 0, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	//
	return b[0], nil
}

func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	//
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	//
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	//
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	return math.Float64frombits(v), err
}

// ReadString reads a u32 byte-length prefix followed by that many raw
// bytes.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	//
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	//
	return string(b), nil
}

// ReadRaw reads n raw bytes verbatim.
func (r *Reader) ReadRaw(n int) ([]byte, error) { return r.take(n) }

// Deserialize reads size bytes and hands them to cb, symmetric to
// Writer.Serialize.
func (r *Reader) Deserialize(size int, cb func([]byte) error) error {
	b, err := r.take(size)
	if err != nil {
		return err
	}
	//
	return cb(b)
}
