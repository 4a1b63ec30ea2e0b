package serialize

import (
	"fmt"

	"github.com/nzsl-lang/nzslc/pkg/ir"
)

type valueTag uint8

const (
	tagNoValue valueTag = iota
	tagSingle
	tagVector2
	tagVector3
	tagVector4
	tagArrayValue
)

func writeBits(w *Writer, b ir.Bits) {
	w.WriteU8(uint8(b.Base))
	w.WriteU64(b.Bits)
}

func readBits(r *Reader) (ir.Bits, error) {
	base, err := r.ReadU8()
	if err != nil {
		return ir.Bits{}, err
	}
	//
	bits, err := r.ReadU64()
	return ir.Bits{Base: ir.Base(base), Bits: bits}, err
}

// WriteValue serializes a constant ir.Value.
func WriteValue(w *Writer, v ir.Value) {
	switch vv := v.(type) {
	case ir.NoValue:
		w.WriteU8(uint8(tagNoValue))
	case nil:
		w.WriteU8(uint8(tagNoValue))
	case ir.Single:
		w.WriteU8(uint8(tagSingle))
		writeBits(w, vv.V)
	case ir.Vector2:
		w.WriteU8(uint8(tagVector2))
		writeBits(w, vv.X)
		writeBits(w, vv.Y)
	case ir.Vector3:
		w.WriteU8(uint8(tagVector3))
		writeBits(w, vv.X)
		writeBits(w, vv.Y)
		writeBits(w, vv.Z)
	case ir.Vector4:
		w.WriteU8(uint8(tagVector4))
		writeBits(w, vv.X)
		writeBits(w, vv.Y)
		writeBits(w, vv.Z)
		writeBits(w, vv.W)
	case ir.ArrayValue:
		w.WriteU8(uint8(tagArrayValue))
		w.WriteU32(uint32(len(vv.Elems)))
		//
		for _, e := range vv.Elems {
			WriteValue(w, e)
		}
	default:
		panic(fmt.Sprintf("serialize: unhandled ir.Value %T", v))
	}
}

// ReadValue deserializes a value written by WriteValue.
func ReadValue(r *Reader) (ir.Value, error) {
	tagByte, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	//
	switch valueTag(tagByte) {
	case tagNoValue:
		return ir.NoValue{}, nil
	case tagSingle:
		b, err := readBits(r)
		return ir.Single{V: b}, err
	case tagVector2:
		x, err := readBits(r)
		if err != nil {
			return nil, err
		}
		//
		y, err := readBits(r)
		return ir.Vector2{X: x, Y: y}, err
	case tagVector3:
		x, err := readBits(r)
		if err != nil {
			return nil, err
		}
		//
		y, err := readBits(r)
		if err != nil {
			return nil, err
		}
		//
		z, err := readBits(r)
		return ir.Vector3{X: x, Y: y, Z: z}, err
	case tagVector4:
		x, err := readBits(r)
		if err != nil {
			return nil, err
		}
		//
		y, err := readBits(r)
		if err != nil {
			return nil, err
		}
		//
		z, err := readBits(r)
		if err != nil {
			return nil, err
		}
		//
		w, err := readBits(r)
		return ir.Vector4{X: x, Y: y, Z: z, W: w}, err
	case tagArrayValue:
		n, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		elems := make([]ir.Value, n)
		for i := range elems {
			elems[i], err = ReadValue(r)
			if err != nil {
				return nil, err
			}
		}
		//
		return ir.ArrayValue{Elems: elems}, nil
	default:
		return nil, fmt.Errorf("serialize: unknown value tag %d", tagByte)
	}
}
