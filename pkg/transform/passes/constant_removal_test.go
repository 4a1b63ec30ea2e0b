package passes_test

import (
	"math"
	"testing"

	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform/passes"
)

func TestConstantRemovalSubstitutesFoldedConsts(t *testing.T) {
	ctx := context.New()
	idx := ctx.Consts.RegisterNamed("Pi", context.ConstEntry{
		Name:  "Pi",
		Type:  ir.F32,
		Value: ir.Single{V: ir.Bits{Base: ir.BaseF32, Bits: math.Float64bits(3.14)}},
	})
	//
	mod := fnModule(&ir.DeclareVariable{VarIndex: 0, Init: &ir.AccessConst{
		ExprBase:   ir.ExprBase{Typ: ir.F32},
		ConstIndex: idx,
	}})
	mod.Consts = []ir.ConstDef{{Name: "Pi", Type: ir.F32}}
	//
	(&passes.ConstantRemoval{}).Run(mod, ctx)
	//
	cv, ok := mod.Functions[0].Body.Stmts[0].(*ir.DeclareVariable).Init.(*ir.ConstantValue)
	if !ok {
		t.Fatalf("expected the const reference substituted, got %T", mod.Functions[0].Body.Stmts[0].(*ir.DeclareVariable).Init)
	}
	//
	if got := math.Float64frombits(cv.Value.(ir.Single).V.Bits); got != 3.14 {
		t.Fatalf("got %v, want 3.14", got)
	}
	//
	if mod.Consts == nil {
		t.Fatal("declarations must survive unless RemoveDeclarations is set")
	}
}

func TestConstantRemovalLeavesUnfoldedConstsAlone(t *testing.T) {
	ctx := context.New()
	idx := ctx.Consts.RegisterNamed("Unknown", context.ConstEntry{Name: "Unknown", Type: ir.F32})
	//
	ref := &ir.AccessConst{ExprBase: ir.ExprBase{Typ: ir.F32}, ConstIndex: idx}
	mod := fnModule(&ir.DeclareVariable{VarIndex: 0, Init: ref})
	//
	(&passes.ConstantRemoval{}).Run(mod, ctx)
	//
	if got := mod.Functions[0].Body.Stmts[0].(*ir.DeclareVariable).Init; got != ir.Expression(ref) {
		t.Fatalf("a const with no folded value must pass through, got %T", got)
	}
}

func TestConstantRemovalFoldsBranchAfterSubstitution(t *testing.T) {
	ctx := context.New()
	idx := ctx.Consts.RegisterNamed("UseInt", context.ConstEntry{
		Name:  "UseInt",
		Type:  ir.Bool,
		Value: ir.Single{V: ir.Bits{Base: ir.BaseBool, Bits: 1}},
	})
	//
	thenArm := &ir.Scoped{Stmts: []ir.Statement{&ir.Discard{}}}
	mod := fnModule(&ir.Branch{
		Cond: &ir.AccessConst{ExprBase: ir.ExprBase{Typ: ir.Bool}, ConstIndex: idx},
		Then: thenArm,
		Else: &ir.Scoped{},
	})
	//
	(&passes.ConstantRemoval{}).Run(mod, ctx)
	//
	if got := mod.Functions[0].Body.Stmts[0]; got != ir.Statement(thenArm) {
		t.Fatalf("expected the branch folded to its taken arm, got %T", got)
	}
}

func TestConstantRemovalDropsDeclarationsOnRequest(t *testing.T) {
	mod := fnModule()
	mod.Consts = []ir.ConstDef{{Name: "A", Type: ir.F32}}
	mod.Options = []ir.OptionDef{{Name: "B", Type: ir.Bool}}
	//
	(&passes.ConstantRemoval{RemoveDeclarations: true}).Run(mod, context.New())
	//
	if mod.Consts != nil || mod.Options != nil {
		t.Fatal("expected const/option declarations dropped")
	}
}
