// Package ir defines the typed intermediate representation a Module is
// lowered into by the Resolve pass. Unlike pkg/ast, every
// node here carries a fully resolved Type and every identifier is an index
// into a pkg/context.TransformerContext table rather than a bare name.
package ir

import "fmt"

// Base is the set of scalar/primitive base types a Vector or Matrix can be
// built from.
type Base uint8

const (
	BaseBool Base = iota
	BaseF32
	BaseF64
	BaseI32
	BaseU32
)

func (b Base) String() string {
	switch b {
	case BaseBool:
		return "bool"
	case BaseF32:
		return "f32"
	case BaseF64:
		return "f64"
	case BaseI32:
		return "i32"
	case BaseU32:
		return "u32"
	}
	//
	return "?"
}

// ImageDim is a texture/sampler's coordinate dimensionality.
type ImageDim uint8

const (
	Dim1D ImageDim = iota
	Dim2D
	Dim3D
	DimCube
)

// Access controls read/write permissions on a storage resource.
type Access uint8

const (
	AccessReadOnly Access = iota
	AccessWriteOnly
	AccessReadWrite
)

// Type is implemented by every resolved IR type. It is a closed sum type
// realized as an
// interface with an unexported marker method so no package outside ir can
// add a new variant.
type Type interface {
	fmt.Stringer
	typeNode()
}

type typeBase struct{}

func (typeBase) typeNode() {}

// NoType stands in for an expression whose type has not yet been resolved
// (only valid before the end of the Resolve pass; anything later than that
// finding NoType is an Ast-family invariant violation).
type NoType struct{ typeBase }

func (NoType) String() string { return "<no type>" }

// Bool, F32, F64, I32, U32 are the scalar primitives.
type Scalar struct {
	typeBase
	Base Base
}

func (s Scalar) String() string { return s.Base.String() }

// Vector is a fixed-size vector of N (2, 3 or 4) components of Base.
type Vector struct {
	typeBase
	Base Base
	N    int
}

func (v Vector) String() string { return fmt.Sprintf("vec%d[%s]", v.N, v.Base) }

// Matrix is a Cols x Rows matrix of Base, including non-square matrices.
// Stored column-major; Rows is carried explicitly since it is not implied by
// Cols for non-square matrices.
type Matrix struct {
	typeBase
	Base       Base
	Cols, Rows int
}

func (m Matrix) String() string { return fmt.Sprintf("mat%dx%d[%s]", m.Cols, m.Rows, m.Base) }

// Array is a fixed-length array of Elem. Length is resolved to a concrete
// integer by the time this node exists (array lengths may be named
// constants in source, but ConstantPropagation folds them before Resolve
// finishes building this node).
type Array struct {
	typeBase
	Elem   Type
	Length uint32
}

func (a Array) String() string { return fmt.Sprintf("array[%s, %d]", a.Elem, a.Length) }

// DynArray is an unbounded array, only legal as the last member of a
// storage-buffer struct.
type DynArray struct {
	typeBase
	Elem Type
}

func (a DynArray) String() string { return fmt.Sprintf("array[%s]", a.Elem) }

// StructField is one resolved member of a Struct type, carrying both its
// type and (once the Std140Emulation/UniformStructToStd140 passes have run)
// its byte offset within the enclosing struct's layout.
type StructField struct {
	Name   string
	Type   Type
	Offset uint32
}

// Struct references a struct declaration by its index into the
// TransformerContext struct table; the field list itself
// lives alongside the declaration, not duplicated into every reference.
type Struct struct {
	typeBase
	Index uint32
}

func (s Struct) String() string { return fmt.Sprintf("struct#%d", s.Index) }

// Sampler is a combined texture+sampler resource.
type Sampler struct {
	typeBase
	Dim  ImageDim
	Base Base
}

func (s Sampler) String() string { return fmt.Sprintf("sampler%s[%s]", dimSuffix(s.Dim), s.Base) }

// Texture is a texture-only resource (no implicit sampler).
type Texture struct {
	typeBase
	Dim    ImageDim
	Base   Base
	Access Access
}

func (t Texture) String() string { return fmt.Sprintf("texture%s[%s]", dimSuffix(t.Dim), t.Base) }

func dimSuffix(d ImageDim) string {
	switch d {
	case Dim1D:
		return "1D"
	case Dim2D:
		return "2D"
	case Dim3D:
		return "3D"
	case DimCube:
		return "Cube"
	}
	//
	return "?D"
}

// Storage is a read/write storage-buffer resource bound to a struct type.
type Storage struct {
	typeBase
	StructIndex uint32
	Access      Access
}

func (s Storage) String() string { return fmt.Sprintf("storage[struct#%d]", s.StructIndex) }

// Uniform is a read-only uniform-buffer resource bound to a struct type,
// subject to std140 layout rules.
type Uniform struct {
	typeBase
	StructIndex uint32
}

func (u Uniform) String() string { return fmt.Sprintf("uniform[struct#%d]", u.StructIndex) }

// PushConstant is a small inline-uploaded uniform block.
type PushConstant struct {
	typeBase
	StructIndex uint32
}

func (p PushConstant) String() string { return fmt.Sprintf("push_constant[struct#%d]", p.StructIndex) }

// Alias is a resolved reference to an `alias` declaration, carrying the
// aliased type so most passes can ignore the indirection while
// Serialize/Validation can still see the original name for diagnostics.
type Alias struct {
	typeBase
	Index  uint32
	Target Type
}

func (a Alias) String() string { return a.Target.String() }

// Function is a reference to a function's signature by index.
type Function struct {
	typeBase
	Index uint32
}

func (f Function) String() string { return fmt.Sprintf("fn#%d", f.Index) }

// IntrinsicKind enumerates the built-in operations available regardless of
// target.
type IntrinsicKind uint16

const (
	IntrinsicAbs IntrinsicKind = iota
	IntrinsicMin
	IntrinsicMax
	IntrinsicClamp
	IntrinsicMix
	IntrinsicPow
	IntrinsicExp
	IntrinsicExp2
	IntrinsicLog
	IntrinsicLog2
	IntrinsicSqrt
	IntrinsicInverseSqrt
	IntrinsicFloor
	IntrinsicCeil
	IntrinsicFract
	IntrinsicSin
	IntrinsicCos
	IntrinsicTan
	IntrinsicDot
	IntrinsicCross
	IntrinsicLength
	IntrinsicNormalize
	IntrinsicReflect
	IntrinsicSampleTexture
)

// Intrinsic is the type of an intrinsic function reference.
type Intrinsic struct {
	typeBase
	Kind IntrinsicKind
}

func (i Intrinsic) String() string { return fmt.Sprintf("intrinsic#%d", i.Kind) }

// Method is a bound method reference (e.g. `texture.Sample`), carrying the
// receiver type so CallMethod expressions don't need a separate lookup.
type Method struct {
	typeBase
	Receiver Type
	Name     string
}

func (m Method) String() string { return fmt.Sprintf("%s.%s", m.Receiver, m.Name) }

// ModuleRef is a reference to an imported module by index, used as the
// type of a module-alias identifier before member access resolves it
// further.
type ModuleRef struct {
	typeBase
	Index uint32
}

func (m ModuleRef) String() string { return fmt.Sprintf("module#%d", m.Index) }

// NamedExternalBlock is the type of an `external { ... }` block's
// identifier when the block itself is named, distinct from
// the type of any one binding inside it.
type NamedExternalBlock struct {
	typeBase
	Index uint32
}

func (n NamedExternalBlock) String() string { return fmt.Sprintf("external_block#%d", n.Index) }

// TypeOfType wraps another Type to represent a first-class reference to a
// type itself, as used by the callee position of a cast/constructor call
// (`vec3` in `vec3(a, b, c)`) before CallFunction/Cast disambiguation.
type TypeOfType struct {
	typeBase
	Wrapped Type
}

func (t TypeOfType) String() string { return fmt.Sprintf("type(%s)", t.Wrapped) }

// ImplicitVector is a partially-resolved vector type awaiting its base
// scalar type, used only transiently while the Literal pass propagates a
// concrete Base down through an untyped vector literal.
type ImplicitVector struct {
	typeBase
	N int
}

func (v ImplicitVector) String() string { return fmt.Sprintf("vec%d[?]", v.N) }

// FloatLiteral and IntLiteral are the untyped literal placeholder types that
// exist only between parsing and the Literal pass, after which every literal
// carries a concrete Scalar type.
type FloatLiteral struct{ typeBase }

func (FloatLiteral) String() string { return "<untyped float>" }

type IntLiteral struct{ typeBase }

func (IntLiteral) String() string { return "<untyped int>" }

// Convenience constructors for the common scalar types.
var (
	Bool = Scalar{Base: BaseBool}
	F32  = Scalar{Base: BaseF32}
	F64  = Scalar{Base: BaseF64}
	I32  = Scalar{Base: BaseI32}
	U32  = Scalar{Base: BaseU32}
)

// Equal reports structural equality between two types, ignoring Alias
// indirection on either side.
func Equal(a, b Type) bool {
	if al, ok := a.(Alias); ok {
		a = al.Target
	}
	//
	if bl, ok := b.(Alias); ok {
		b = bl.Target
	}
	//
	switch av := a.(type) {
	case Scalar:
		bv, ok := b.(Scalar)
		return ok && av.Base == bv.Base
	case Vector:
		bv, ok := b.(Vector)
		return ok && av.Base == bv.Base && av.N == bv.N
	case Matrix:
		bv, ok := b.(Matrix)
		return ok && av.Base == bv.Base && av.Cols == bv.Cols && av.Rows == bv.Rows
	case Array:
		bv, ok := b.(Array)
		return ok && av.Length == bv.Length && Equal(av.Elem, bv.Elem)
	case DynArray:
		bv, ok := b.(DynArray)
		return ok && Equal(av.Elem, bv.Elem)
	case Struct:
		bv, ok := b.(Struct)
		return ok && av.Index == bv.Index
	default:
		return a == b
	}
}
