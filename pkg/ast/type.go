package ast

import "github.com/nzsl-lang/nzslc/pkg/source"

// TypeExpr is the surface syntax for a type reference: a bare name
// (`f32`, `MyStruct`), a parameterized name (`vec3[f32]`, `array[f32, 4]`),
// or a resource type (`uniform[Params]`, `sampler2D[f32]`). Resolution into
// a concrete ir.Type happens in the Resolve pass.
type TypeExpr struct {
	NodeSpan source.Span
	Name     string
	Args     []TypeExpr
	// ArrayLength is non-nil for `array[T, N]`; N is kept as an expression
	// since it may be a named constant, resolved/folded by ConstantPropagation.
	ArrayLength Expr
}

// Span implements Node.
func (t *TypeExpr) Span() source.Span { return t.NodeSpan }
