package passes_test

import (
	"testing"

	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform/passes"
)

func TestValidationFlagsMissingType(t *testing.T) {
	ctx := context.New()
	v := ctx.Variables.RegisterNamed("x", context.VariableEntry{Name: "x", Type: ir.F32})
	//
	mod := fnModule(&ir.ExprStmt{Expr: &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.NoType{}}, VarIndex: v}})
	//
	diags := (&passes.Validation{}).Run(mod, ctx)
	//
	if len(diags) != 1 || diags[0].Kind != errors.AstMissingType {
		t.Fatalf("expected AstMissingType, got %v", diags)
	}
}

func TestValidationFlagsSurvivingUntypedLiteral(t *testing.T) {
	mod := fnModule(&ir.ExprStmt{Expr: &ir.ConstantValue{
		ExprBase: ir.ExprBase{Typ: ir.IntLiteral{}},
		Value:    ir.Single{V: ir.Bits{Base: ir.BaseI32, Bits: 1}},
	}})
	//
	diags := (&passes.Validation{}).Run(mod, context.New())
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %v", diags)
	}
	//
	tolerant := (&passes.Validation{AllowUntypedLiterals: true}).Run(mod, context.New())
	if len(tolerant) != 0 {
		t.Fatalf("AllowUntypedLiterals must tolerate it, got %v", tolerant)
	}
}

func TestValidationFlagsIntrinsicArityMismatch(t *testing.T) {
	mod := fnModule(&ir.ExprStmt{Expr: &ir.IntrinsicCall{
		ExprBase: ir.ExprBase{Typ: ir.F32},
		Kind:     ir.IntrinsicClamp,
		Args:     []ir.Expression{f32Const(1), f32Const(2)},
	}})
	//
	diags := (&passes.Validation{}).Run(mod, context.New())
	if len(diags) != 1 || diags[0].Kind != errors.CIntrinsicSignatureMismatch {
		t.Fatalf("clamp takes 3 arguments; got %v", diags)
	}
}

func TestValidationFlagsCallArgumentCount(t *testing.T) {
	mod := &ir.Module{
		Metadata: ir.Metadata{Name: "validate"},
		Functions: []ir.FunctionDef{
			{
				Name:   "helper",
				Params: []ir.Param{{Name: "a", Type: ir.F32}, {Name: "b", Type: ir.F32}},
				Body:   &ir.Scoped{},
			},
			{
				Name: "main",
				Body: &ir.Scoped{Stmts: []ir.Statement{
					&ir.ExprStmt{Expr: &ir.CallFunction{
						ExprBase:      ir.ExprBase{Typ: ir.F32},
						FunctionIndex: 0,
						Args:          []ir.Expression{f32Const(1)},
					}},
				}},
			},
		},
	}
	//
	diags := (&passes.Validation{}).Run(mod, context.New())
	if len(diags) != 1 || diags[0].Kind != errors.CIntrinsicSignatureMismatch {
		t.Fatalf("expected an argument-count diagnostic, got %v", diags)
	}
}

func TestValidationFlagsDanglingIndices(t *testing.T) {
	mod := fnModule(
		&ir.ExprStmt{Expr: &ir.CallFunction{ExprBase: ir.ExprBase{Typ: ir.F32}, FunctionIndex: 42}},
		&ir.ExprStmt{Expr: &ir.AccessExternal{ExprBase: ir.ExprBase{Typ: ir.F32}, ExternalIndex: 42}},
	)
	//
	diags := (&passes.Validation{}).Run(mod, context.New())
	if len(diags) != 2 {
		t.Fatalf("expected two invalid-index diagnostics, got %v", diags)
	}
	//
	for _, d := range diags {
		if d.Kind != errors.AstInvalidIndex {
			t.Fatalf("expected AstInvalidIndex, got %v", d.Kind)
		}
	}
}

func TestValidationAcceptsWellFormedModule(t *testing.T) {
	mod := fnModule(&ir.Return{Value: f32Const(1)})
	//
	if diags := (&passes.Validation{}).Run(mod, context.New()); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestValidationFlagsDanglingVariableAndConstIndices(t *testing.T) {
	mod := fnModule(
		&ir.ExprStmt{Expr: &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.F32}, VarIndex: 9}},
		&ir.ExprStmt{Expr: &ir.AccessConst{ExprBase: ir.ExprBase{Typ: ir.F32}, ConstIndex: 9}},
	)
	//
	diags := (&passes.Validation{}).Run(mod, context.New())
	if len(diags) != 2 {
		t.Fatalf("expected two invalid-index diagnostics, got %v", diags)
	}
	//
	for _, d := range diags {
		if d.Kind != errors.AstInvalidIndex {
			t.Fatalf("expected AstInvalidIndex, got %v", d.Kind)
		}
	}
}

func TestValidationFlagsFieldIndexOutOfRange(t *testing.T) {
	ctx := context.New()
	v := ctx.Variables.RegisterNamed("s", context.VariableEntry{Name: "s", Type: ir.Struct{Index: 0}})
	//
	mod := fnModule(&ir.ExprStmt{Expr: &ir.AccessField{
		ExprBase:   ir.ExprBase{Typ: ir.F32},
		Base:       &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.Struct{Index: 0}}, VarIndex: v},
		FieldIndex: 3,
	}})
	mod.Structs = []ir.StructDef{{Name: "S", Fields: []ir.StructField{{Name: "only", Type: ir.F32}}}}
	//
	diags := (&passes.Validation{}).Run(mod, ctx)
	if len(diags) != 1 || diags[0].Kind != errors.AstInvalidIndex {
		t.Fatalf("expected a field-index diagnostic, got %v", diags)
	}
}

func TestValidationFlagsFieldAccessThroughUnknownStruct(t *testing.T) {
	ctx := context.New()
	v := ctx.Variables.RegisterNamed("u", context.VariableEntry{Name: "u", Type: ir.Uniform{StructIndex: 5}})
	//
	mod := fnModule(&ir.ExprStmt{Expr: &ir.AccessField{
		ExprBase: ir.ExprBase{Typ: ir.F32},
		Base:     &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.Uniform{StructIndex: 5}}, VarIndex: v},
	}})
	//
	diags := (&passes.Validation{}).Run(mod, ctx)
	if len(diags) != 1 || diags[0].Kind != errors.AstInvalidIndex {
		t.Fatalf("expected an unknown-struct diagnostic, got %v", diags)
	}
}
