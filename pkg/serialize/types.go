package serialize

import (
	"fmt"

	"github.com/nzsl-lang/nzslc/pkg/ir"
)

// typeTag is the stable per-variant tag for every ir.Type, written before
// each type's fields so a reader can dispatch without guessing.
type typeTag uint8

const (
	tagNoType typeTag = iota
	tagScalar
	tagVector
	tagMatrix
	tagArray
	tagDynArray
	tagStruct
	tagSampler
	tagTexture
	tagStorage
	tagUniform
	tagPushConstant
	tagAlias
	tagFunction
	tagIntrinsicType
	tagMethod
	tagModuleType
	tagNamedExternalBlock
	tagTypeOfType
	tagImplicitVector
	tagFloatLiteral
	tagIntLiteral
)

// WriteType serializes t's tag followed by its fields, in the fixed order
// declared above. A nil type is written as NoType.
func WriteType(w *Writer, t ir.Type) {
	switch tt := t.(type) {
	case ir.NoType, nil:
		w.WriteU8(uint8(tagNoType))
	case ir.Scalar:
		w.WriteU8(uint8(tagScalar))
		w.WriteU8(uint8(tt.Base))
	case ir.Vector:
		w.WriteU8(uint8(tagVector))
		w.WriteU8(uint8(tt.Base))
		w.WriteU8(uint8(tt.N))
	case ir.Matrix:
		w.WriteU8(uint8(tagMatrix))
		w.WriteU8(uint8(tt.Base))
		w.WriteU8(uint8(tt.Cols))
		w.WriteU8(uint8(tt.Rows))
	case ir.Array:
		w.WriteU8(uint8(tagArray))
		WriteType(w, tt.Elem)
		w.WriteU32(tt.Length)
	case ir.DynArray:
		w.WriteU8(uint8(tagDynArray))
		WriteType(w, tt.Elem)
	case ir.Struct:
		w.WriteU8(uint8(tagStruct))
		w.WriteU32(tt.Index)
	case ir.Sampler:
		w.WriteU8(uint8(tagSampler))
		w.WriteU8(uint8(tt.Dim))
		w.WriteU8(uint8(tt.Base))
	case ir.Texture:
		w.WriteU8(uint8(tagTexture))
		w.WriteU8(uint8(tt.Dim))
		w.WriteU8(uint8(tt.Base))
		w.WriteU8(uint8(tt.Access))
	case ir.Storage:
		w.WriteU8(uint8(tagStorage))
		w.WriteU32(tt.StructIndex)
		w.WriteU8(uint8(tt.Access))
	case ir.Uniform:
		w.WriteU8(uint8(tagUniform))
		w.WriteU32(tt.StructIndex)
	case ir.PushConstant:
		w.WriteU8(uint8(tagPushConstant))
		w.WriteU32(tt.StructIndex)
	case ir.Alias:
		w.WriteU8(uint8(tagAlias))
		w.WriteU32(tt.Index)
		WriteType(w, tt.Target)
	case ir.Function:
		w.WriteU8(uint8(tagFunction))
		w.WriteU32(tt.Index)
	case ir.Intrinsic:
		w.WriteU8(uint8(tagIntrinsicType))
		w.WriteU16(uint16(tt.Kind))
	case ir.Method:
		w.WriteU8(uint8(tagMethod))
		WriteType(w, tt.Receiver)
		w.WriteString(tt.Name)
	case ir.ModuleRef:
		w.WriteU8(uint8(tagModuleType))
		w.WriteU32(tt.Index)
	case ir.NamedExternalBlock:
		w.WriteU8(uint8(tagNamedExternalBlock))
		w.WriteU32(tt.Index)
	case ir.TypeOfType:
		w.WriteU8(uint8(tagTypeOfType))
		WriteType(w, tt.Wrapped)
	case ir.ImplicitVector:
		w.WriteU8(uint8(tagImplicitVector))
		w.WriteU8(uint8(tt.N))
	case ir.FloatLiteral:
		w.WriteU8(uint8(tagFloatLiteral))
	case ir.IntLiteral:
		w.WriteU8(uint8(tagIntLiteral))
	default:
		panic(fmt.Sprintf("serialize: unhandled ir.Type %T", t))
	}
}

// ReadType deserializes a type written by WriteType.
func ReadType(r *Reader) (ir.Type, error) {
	tagByte, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	//
	switch typeTag(tagByte) {
	case tagNoType:
		return ir.NoType{}, nil
	case tagScalar:
		b, err := r.ReadU8()
		return ir.Scalar{Base: ir.Base(b)}, err
	case tagVector:
		b, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		n, err := r.ReadU8()
		return ir.Vector{Base: ir.Base(b), N: int(n)}, err
	case tagMatrix:
		b, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		cols, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		rows, err := r.ReadU8()
		return ir.Matrix{Base: ir.Base(b), Cols: int(cols), Rows: int(rows)}, err
	case tagArray:
		elem, err := ReadType(r)
		if err != nil {
			return nil, err
		}
		//
		length, err := r.ReadU32()
		return ir.Array{Elem: elem, Length: length}, err
	case tagDynArray:
		elem, err := ReadType(r)
		return ir.DynArray{Elem: elem}, err
	case tagStruct:
		idx, err := r.ReadU32()
		return ir.Struct{Index: idx}, err
	case tagSampler:
		dim, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		base, err := r.ReadU8()
		return ir.Sampler{Dim: ir.ImageDim(dim), Base: ir.Base(base)}, err
	case tagTexture:
		dim, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		base, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		access, err := r.ReadU8()
		return ir.Texture{Dim: ir.ImageDim(dim), Base: ir.Base(base), Access: ir.Access(access)}, err
	case tagStorage:
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		access, err := r.ReadU8()
		return ir.Storage{StructIndex: idx, Access: ir.Access(access)}, err
	case tagUniform:
		idx, err := r.ReadU32()
		return ir.Uniform{StructIndex: idx}, err
	case tagPushConstant:
		idx, err := r.ReadU32()
		return ir.PushConstant{StructIndex: idx}, err
	case tagAlias:
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		target, err := ReadType(r)
		return ir.Alias{Index: idx, Target: target}, err
	case tagFunction:
		idx, err := r.ReadU32()
		return ir.Function{Index: idx}, err
	case tagIntrinsicType:
		kind, err := r.ReadU16()
		return ir.Intrinsic{Kind: ir.IntrinsicKind(kind)}, err
	case tagMethod:
		recv, err := ReadType(r)
		if err != nil {
			return nil, err
		}
		//
		name, err := r.ReadString()
		return ir.Method{Receiver: recv, Name: name}, err
	case tagModuleType:
		idx, err := r.ReadU32()
		return ir.ModuleRef{Index: idx}, err
	case tagNamedExternalBlock:
		idx, err := r.ReadU32()
		return ir.NamedExternalBlock{Index: idx}, err
	case tagTypeOfType:
		wrapped, err := ReadType(r)
		return ir.TypeOfType{Wrapped: wrapped}, err
	case tagImplicitVector:
		n, err := r.ReadU8()
		return ir.ImplicitVector{N: int(n)}, err
	case tagFloatLiteral:
		return ir.FloatLiteral{}, nil
	case tagIntLiteral:
		return ir.IntLiteral{}, nil
	default:
		return nil, fmt.Errorf("serialize: unknown type tag %d", tagByte)
	}
}
