package passes_test

import (
	"math"
	"testing"

	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform/passes"
)

func untypedInt(v int64) *ir.ConstantValue {
	return &ir.ConstantValue{
		ExprBase: ir.ExprBase{Typ: ir.IntLiteral{}},
		Value:    ir.Single{V: ir.Bits{Base: ir.BaseI32, Bits: uint64(uint32(v))}},
	}
}

func untypedFloat(v float64) *ir.ConstantValue {
	return &ir.ConstantValue{
		ExprBase: ir.ExprBase{Typ: ir.FloatLiteral{}},
		Value:    ir.Single{V: ir.Bits{Base: ir.BaseF32, Bits: math.Float64bits(v)}},
	}
}

func TestLiteralDefaultsToI32AndF32(t *testing.T) {
	ctx := context.New()
	intVar := ctx.Variables.RegisterNamed("a", context.VariableEntry{Name: "a", Type: ir.IntLiteral{}})
	floatVar := ctx.Variables.RegisterNamed("b", context.VariableEntry{Name: "b", Type: ir.FloatLiteral{}})
	//
	intDecl := &ir.DeclareVariable{VarIndex: intVar, Init: untypedInt(7)}
	floatDecl := &ir.DeclareVariable{VarIndex: floatVar, Init: untypedFloat(1.5)}
	mod := fnModule(intDecl, floatDecl)
	//
	(&passes.Literal{}).Run(mod, ctx)
	//
	if got, ok := intDecl.Init.Type().(ir.Scalar); !ok || got.Base != ir.BaseI32 {
		t.Fatalf("int literal: got %v, want i32", intDecl.Init.Type())
	}
	//
	if got, ok := floatDecl.Init.Type().(ir.Scalar); !ok || got.Base != ir.BaseF32 {
		t.Fatalf("float literal: got %v, want f32", floatDecl.Init.Type())
	}
}

func TestLiteralUsesAnnotatedVariableTypeAsHint(t *testing.T) {
	ctx := context.New()
	v := ctx.Variables.RegisterNamed("x", context.VariableEntry{Name: "x", Type: ir.U32})
	//
	decl := &ir.DeclareVariable{VarIndex: v, Init: untypedInt(7)}
	mod := fnModule(decl)
	//
	(&passes.Literal{}).Run(mod, ctx)
	//
	if got, ok := decl.Init.Type().(ir.Scalar); !ok || got.Base != ir.BaseU32 {
		t.Fatalf("got %v, want u32 from the annotation", decl.Init.Type())
	}
}

func TestLiteralWritesReifiedTypeBackToVariableTable(t *testing.T) {
	ctx := context.New()
	v := ctx.Variables.RegisterNamed("x", context.VariableEntry{Name: "x", Type: ir.FloatLiteral{}})
	//
	decl := &ir.DeclareVariable{VarIndex: v, Init: untypedFloat(42)}
	use := &ir.ExprStmt{Expr: &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.FloatLiteral{}}, VarIndex: v}}
	mod := fnModule(decl, use)
	//
	(&passes.Literal{}).Run(mod, ctx)
	//
	if got, ok := ctx.Variables.Get(v).Type.(ir.Scalar); !ok || got.Base != ir.BaseF32 {
		t.Fatalf("variable table: got %v, want f32", ctx.Variables.Get(v).Type)
	}
	//
	if got, ok := use.Expr.Type().(ir.Scalar); !ok || got.Base != ir.BaseF32 {
		t.Fatalf("later reference: got %v, want f32", use.Expr.Type())
	}
}

func TestLiteralAssignmentPropagatesTargetType(t *testing.T) {
	ctx := context.New()
	v := ctx.Variables.RegisterNamed("x", context.VariableEntry{Name: "x", Type: ir.F64, Mut: true})
	//
	asn := &ir.Assign{
		ExprBase: ir.ExprBase{Typ: ir.F64},
		Op:       ir.AssignPlain,
		Target:   &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.F64}, VarIndex: v},
		Value:    untypedFloat(2.5),
	}
	mod := fnModule(&ir.ExprStmt{Expr: asn})
	//
	(&passes.Literal{}).Run(mod, ctx)
	//
	if got, ok := asn.Value.Type().(ir.Scalar); !ok || got.Base != ir.BaseF64 {
		t.Fatalf("got %v, want f64 from the target", asn.Value.Type())
	}
}

func TestLiteralBinaryReconcilesMixedOperands(t *testing.T) {
	ctx := context.New()
	v := ctx.Variables.RegisterNamed("x", context.VariableEntry{Name: "x", Type: ir.U32})
	//
	bin := &ir.Binary{
		ExprBase: ir.ExprBase{Typ: ir.IntLiteral{}},
		Op:       ir.BinAdd,
		Lhs:      &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.U32}, VarIndex: v},
		Rhs:      untypedInt(1),
	}
	mod := fnModule(&ir.ExprStmt{Expr: bin})
	//
	(&passes.Literal{}).Run(mod, ctx)
	//
	if got, ok := bin.Rhs.Type().(ir.Scalar); !ok || got.Base != ir.BaseU32 {
		t.Fatalf("rhs: got %v, want u32 from the lhs", bin.Rhs.Type())
	}
	//
	if got, ok := bin.Type().(ir.Scalar); !ok || got.Base != ir.BaseU32 {
		t.Fatalf("result: got %v, want u32", bin.Type())
	}
}

func TestLiteralIntToFloatConversionRewritesBits(t *testing.T) {
	ctx := context.New()
	v := ctx.Variables.RegisterNamed("x", context.VariableEntry{Name: "x", Type: ir.F32})
	//
	// An int-spelled literal (`let x: f32 = 3;`) converts value, not just tag.
	decl := &ir.DeclareVariable{VarIndex: v, Init: untypedInt(3)}
	mod := fnModule(decl)
	//
	(&passes.Literal{}).Run(mod, ctx)
	//
	cv := decl.Init.(*ir.ConstantValue)
	single := cv.Value.(ir.Single)
	//
	if single.V.Base != ir.BaseF32 || math.Float64frombits(single.V.Bits) != 3.0 {
		t.Fatalf("got %+v, want f32 bits for 3.0", single)
	}
}

func TestLiteralCastPropagatesElementHint(t *testing.T) {
	cast := &ir.Cast{
		ExprBase: ir.ExprBase{Typ: ir.Vector{Base: ir.BaseF32, N: 2}},
		Values:   []ir.Expression{untypedInt(1), untypedFloat(2)},
	}
	mod := fnModule(&ir.ExprStmt{Expr: cast})
	//
	(&passes.Literal{}).Run(mod, context.New())
	//
	for i, v := range cast.Values {
		if got, ok := v.Type().(ir.Scalar); !ok || got.Base != ir.BaseF32 {
			t.Fatalf("component %d: got %v, want f32", i, v.Type())
		}
	}
}
