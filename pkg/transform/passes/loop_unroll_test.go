package passes_test

import (
	"testing"

	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform/passes"
)

func TestLoopUnrollGivesBodyDeclarationsFreshIndices(t *testing.T) {
	ctx := context.New()
	loopVar := ctx.Variables.RegisterNamed("i", context.VariableEntry{Name: "i", Type: ir.I32})
	tmpVar := ctx.Variables.RegisterNamed("tmp", context.VariableEntry{Name: "tmp", Type: ir.I32})
	//
	loop := &ir.For{
		VarIndex: loopVar,
		From:     i32Const(0),
		To:       i32Const(2),
		Unroll:   true,
		Body: &ir.Scoped{Stmts: []ir.Statement{
			&ir.DeclareVariable{VarIndex: tmpVar, Init: &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.I32}, VarIndex: loopVar}},
		}},
	}
	mod := fnModule(loop)
	//
	diags := (&passes.LoopUnroll{}).Run(mod, ctx)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	//
	multi := mod.Functions[0].Body.Stmts[0].(*ir.Multi)
	if len(multi.Stmts) != 2 {
		t.Fatalf("expected 2 copies, got %d", len(multi.Stmts))
	}
	//
	seen := map[uint32]bool{}
	for i, c := range multi.Stmts {
		scoped := c.(*ir.Scoped)
		//
		// Statement 0 rebinds the loop variable; statement 1 is the body's
		// own declaration, which must carry a fresh index per copy.
		bodyDecl := scoped.Stmts[1].(*ir.DeclareVariable)
		if bodyDecl.VarIndex == tmpVar {
			t.Fatalf("copy %d reuses the original tmp index", i)
		}
		//
		if seen[bodyDecl.VarIndex] {
			t.Fatalf("copy %d shares a tmp index with a sibling copy", i)
		}
		//
		seen[bodyDecl.VarIndex] = true
		//
		// The loop variable keeps its shared index (it is rebound per copy).
		loopDecl := scoped.Stmts[0].(*ir.DeclareVariable)
		if loopDecl.VarIndex != loopVar {
			t.Fatalf("copy %d: loop variable index changed to %d", i, loopDecl.VarIndex)
		}
		//
		// And its reference inside the body still points at it.
		if ref := bodyDecl.Init.(*ir.Identifier); ref.VarIndex != loopVar {
			t.Fatalf("copy %d: body reference remapped away from the loop variable", i)
		}
	}
}

func TestLoopUnrollEmptyRangeProducesNoCopies(t *testing.T) {
	loop := &ir.For{
		VarIndex: 0,
		From:     i32Const(3),
		To:       i32Const(3),
		Unroll:   true,
		Body:     &ir.Scoped{},
	}
	mod := fnModule(loop)
	//
	(&passes.LoopUnroll{}).Run(mod, context.New())
	//
	multi := mod.Functions[0].Body.Stmts[0].(*ir.Multi)
	if len(multi.Stmts) != 0 {
		t.Fatalf("expected an empty expansion, got %d copies", len(multi.Stmts))
	}
}

func TestLoopUnrollNonConstantBoundIsDiagnostic(t *testing.T) {
	loop := &ir.For{
		VarIndex: 0,
		From:     i32Const(0),
		To:       &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.I32}, VarIndex: 1},
		Unroll:   true,
		Body:     &ir.Scoped{},
	}
	mod := fnModule(loop)
	//
	diags := (&passes.LoopUnroll{}).Run(mod, context.New())
	//
	if len(diags) != 1 || diags[0].Kind != errors.CConstantExpressionRequired {
		t.Fatalf("expected CConstantExpressionRequired, got %v", diags)
	}
}

func TestLoopUnrollIgnoresNonUnrollLoops(t *testing.T) {
	loop := &ir.For{
		VarIndex: 0,
		From:     i32Const(0),
		To:       &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.I32}, VarIndex: 1},
		Body:     &ir.Scoped{},
	}
	mod := fnModule(loop)
	//
	diags := (&passes.LoopUnroll{}).Run(mod, context.New())
	if len(diags) != 0 {
		t.Fatalf("a plain for loop is ForToWhile's job, got %v", diags)
	}
	//
	if mod.Functions[0].Body.Stmts[0] != ir.Statement(loop) {
		t.Fatalf("loop must pass through untouched, got %T", mod.Functions[0].Body.Stmts[0])
	}
}
