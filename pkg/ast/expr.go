package ast

import "github.com/nzsl-lang/nzslc/pkg/source"

// Expr is implemented by every surface-level expression node.
type Expr interface {
	Node
	exprNode()
}

type exprBase struct {
	NodeSpan source.Span
}

func (e exprBase) Span() source.Span { return e.NodeSpan }
func (exprBase) exprNode()           {}

// IdentifierExpr is a bare name reference, left unresolved until the
// Resolve pass binds it to a TransformerContext index.
type IdentifierExpr struct {
	exprBase
	Name string
}

// AccessExpr is `base.member`: a field access, module member access,
// method reference, or (once resolved) a swizzle. Left as a bare member
// path until Resolve determines what `base`'s type actually is.
type AccessExpr struct {
	exprBase
	Base   Expr
	Member string
}

// IndexExpr is `base[index]`: array/dynamic-array element access.
type IndexExpr struct {
	exprBase
	Base  Expr
	Index Expr
}

// IntLitExpr is an integer literal, untyped until the Literal pass assigns
// it a concrete type from context.
type IntLitExpr struct {
	exprBase
	Value int64
}

// FloatLitExpr is a floating point literal, untyped until the Literal pass.
type FloatLitExpr struct {
	exprBase
	Value float64
}

// StringLitExpr is a string literal.
type StringLitExpr struct {
	exprBase
	Value string
}

// BoolLitExpr is a boolean literal.
type BoolLitExpr struct {
	exprBase
	Value bool
}

// UnaryOp enumerates surface unary operators.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
	UnaryBitNot
)

// UnaryExpr is `op operand`.
type UnaryExpr struct {
	exprBase
	Op      UnaryOp
	Operand Expr
}

// BinaryOp enumerates surface binary operators.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
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
	BinAnd // &&
	BinOr  // ||
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
)

// BinaryExpr is `lhs op rhs`.
type BinaryExpr struct {
	exprBase
	Op       BinaryOp
	Lhs, Rhs Expr
}

// AssignExpr is `target op= value`, or plain `target = value` when Op is
// AssignPlain. Compound forms are lowered into `target = target op value`
// by the CompoundAssignment pass when a back-end requests it; the surface
// tree keeps them distinct so a back-end that can emit `+=` natively need
// not request that lowering.
type AssignExpr struct {
	exprBase
	Op     AssignOp
	Target Expr
	Value  Expr
}

// AssignOp enumerates the surface assignment operators.
type AssignOp uint8

const (
	AssignPlain AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
)

// CallExpr is `callee(args...)`. This single node covers function calls,
// method calls (when callee is an AccessExpr), intrinsic calls, and type
// casts/constructors (`vec3(a, b, c)`, `f32(x)`) -- surface syntax does not
// distinguish these; Resolve does.
type CallExpr struct {
	exprBase
	Callee Expr
	Args   []Expr
}

// SelectExpr is the ternary-like `select(cond, a, b)` keyword form; it is
// parsed as a keyword, not as an operator.
type SelectExpr struct {
	exprBase
	Cond, A, B Expr
}

// CastExpr is an explicit cast node carrying a full TypeExpr target. The
// parser never builds one: every cast or constructor, parameterized
// (`vec3[f32](...)`) or not, is parsed as a CallExpr, and Resolve has no
// CastExpr case.
type CastExpr struct {
	exprBase
	Type TypeExpr
	Arg  Expr
}
