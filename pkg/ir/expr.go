package ir

import "github.com/nzsl-lang/nzslc/pkg/source"

// Expression is implemented by every resolved IR expression node. Each
// carries a Span for diagnostics and a cached Type, settable post-hoc by
// passes like Literal/Matrix/Swizzle that refine an expression's type
// after it was first built.
type Expression interface {
	Span() source.Span
	Type() Type
	SetType(Type)
	Children() []Expression
}

type ExprBase struct {
	NodeSpan source.Span
	Typ      Type
}

func (e *ExprBase) Span() source.Span { return e.NodeSpan }
func (e *ExprBase) Type() Type        { return e.Typ }
func (e *ExprBase) SetType(t Type)    { e.Typ = t }

// Identifier is a resolved reference to a variable, by index into the
// TransformerContext variable table.
type Identifier struct {
	ExprBase
	VarIndex uint32
}

func (e *Identifier) Children() []Expression { return nil }

// IdentifierValue wraps a resolved Identifier together with a constant
// Value. No pass builds one; LoopUnroll's cloning and the serializer carry
// an existing one through unchanged.
type IdentifierValue struct {
	ExprBase
	Identifier *Identifier
	Value      Value
}

func (e *IdentifierValue) Children() []Expression { return []Expression{e.Identifier} }

// AccessField is a resolved struct-field access.
type AccessField struct {
	ExprBase
	Base       Expression
	FieldIndex uint32
}

func (e *AccessField) Children() []Expression { return []Expression{e.Base} }

// AccessConst is a resolved reference to a module-level `const`/`option`
// declaration, by index into the TransformerContext Consts table. Kept
// distinct from Identifier (which only ever means "Variables table
// reference") since const and option declarations share one interned
// table (Consts) separate from the Variables table, and collapsing both reference kinds
// into one node type would make their index spaces ambiguous to any pass
// that remaps or substitutes by index (ConstantRemoval, IndexRemapper).
type AccessConst struct {
	ExprBase
	ConstIndex uint32
}

func (e *AccessConst) Children() []Expression { return nil }

// AccessExternal is a resolved reference to an `external { }` binding, by
// index into the owning Module's Externals slice (not a TransformerContext
// table index, since external names live in their own per-module
// namespace distinct from variables/consts).
type AccessExternal struct {
	ExprBase
	ExternalIndex uint32
}

func (e *AccessExternal) Children() []Expression { return nil }

// AccessIdentifier is a resolved module-member access (`module::ident`).
type AccessIdentifier struct {
	ExprBase
	ModuleIndex uint32
	VarIndex    uint32
}

func (e *AccessIdentifier) Children() []Expression { return nil }

// AccessIndex is an array/dynamic-array element access.
type AccessIndex struct {
	ExprBase
	Base  Expression
	Index Expression
}

func (e *AccessIndex) Children() []Expression { return []Expression{e.Base, e.Index} }

// Swizzle is a vector component access (`.xyz`, `.rgba`), built by Resolve
// when a member access's base is a vector or scalar rather than a struct;
// the Swizzle pass later lowers scalar broadcasts and swizzle writes.
type Swizzle struct {
	ExprBase
	Base       Expression
	Components []uint8 // indices 0..3 into the base vector
}

func (e *Swizzle) Children() []Expression { return []Expression{e.Base} }

// AssignOp mirrors ast.AssignOp at the IR level. A compound Op survives
// until the CompoundAssignment pass rewrites it into a plain Assign
// wrapping a Binary; back-ends that emit `+=`
// natively never request that pass and see the compound Op directly.
type AssignOp = uint8

const (
	AssignPlain AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
)

// Assign is `target op= value`, or plain `target = value` when Op is
// AssignPlain.
type Assign struct {
	ExprBase
	Op     AssignOp
	Target Expression
	Value  Expression
}

func (e *Assign) Children() []Expression { return []Expression{e.Target, e.Value} }

// BinOp mirrors ast.BinaryOp at the IR level (kept as a distinct type so IR
// passes never need to import pkg/ast). Values and ordering match
// ast.BinaryOp exactly since Resolve builds these via a bare numeric cast.
type BinOp = uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNeq
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
)

// Binary is a resolved binary operation between two fully-typed operands.
type Binary struct {
	ExprBase
	Op       BinOp
	Lhs, Rhs Expression
}

func (e *Binary) Children() []Expression { return []Expression{e.Lhs, e.Rhs} }

// UnOp mirrors ast.UnaryOp at the IR level.
type UnOp = uint8

const (
	UnaryNeg UnOp = iota
	UnaryNot
	UnaryBitNot
)

// Unary is a resolved unary operation.
type Unary struct {
	ExprBase
	Op      UnOp
	Operand Expression
}

func (e *Unary) Children() []Expression { return []Expression{e.Operand} }

// CallFunction is a resolved call to a user-defined function.
type CallFunction struct {
	ExprBase
	FunctionIndex uint32
	Args          []Expression
}

func (e *CallFunction) Children() []Expression { return e.Args }

// CallMethod is a resolved call to a built-in method on a resource type
// (e.g. `tex.Sample(sampler, uv)`).
type CallMethod struct {
	ExprBase
	Receiver Expression
	Name     string
	Args     []Expression
}

func (e *CallMethod) Children() []Expression { return append([]Expression{e.Receiver}, e.Args...) }

// Intrinsic is a resolved call to a built-in intrinsic.
type IntrinsicCall struct {
	ExprBase
	Kind IntrinsicKind
	Args []Expression
}

func (e *IntrinsicCall) Children() []Expression { return e.Args }

// Cast is an explicit or inferred scalar/vector/matrix conversion, or a
// vector/matrix constructor call (`vec3(a, b, c)`). Values holds one
// element for a plain scalar/vector cast (`f32(x)`) and N elements for a
// component-wise constructor -- a single node kind serves both surface forms since
// Resolve cannot always tell them apart before the target type is known.
type Cast struct {
	ExprBase
	Values []Expression
}

func (e *Cast) Children() []Expression { return e.Values }

// Conditional is the resolved form of `select(cond, a, b)`.
type Conditional struct {
	ExprBase
	Cond, A, B Expression
}

func (e *Conditional) Children() []Expression { return []Expression{e.Cond, e.A, e.B} }

// ConstantValue is a fully-folded compile-time constant, produced by
// ConstantPropagation in place of the expression it replaced.
type ConstantValue struct {
	ExprBase
	Value Value
}

func (e *ConstantValue) Children() []Expression { return nil }

// ConstantArrayValue is the array-typed specialization of ConstantValue,
// kept distinct since array constants serialize differently (element-wise)
// from scalar/vector constants.
type ConstantArrayValue struct {
	ExprBase
	Elems []Expression
}

func (e *ConstantArrayValue) Children() []Expression { return e.Elems }

// TypeConstant is a first-class reference to a type. Resolve builds one for
// an identifier naming an intrinsic, and one referencing NoType for an
// identifier it cannot bind to any declaration.
type TypeConstant struct {
	ExprBase
	Referenced Type
}

func (e *TypeConstant) Children() []Expression { return nil }
