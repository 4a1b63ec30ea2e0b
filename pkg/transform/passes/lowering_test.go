package passes_test

import (
	"testing"

	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform/passes"
)

func fnModule(stmts ...ir.Statement) *ir.Module {
	return &ir.Module{
		Metadata: ir.Metadata{Name: "lowering"},
		Functions: []ir.FunctionDef{{
			Name: "main",
			Body: &ir.Scoped{Stmts: stmts},
		}},
	}
}

func TestCompoundAssignmentExpandsToBinary(t *testing.T) {
	target := &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.I32}, VarIndex: 0}
	mod := fnModule(&ir.ExprStmt{Expr: &ir.Assign{
		ExprBase: ir.ExprBase{Typ: ir.I32},
		Op:       ir.AssignAdd,
		Target:   target,
		Value:    i32Const(1),
	}})
	//
	(&passes.CompoundAssignment{}).Run(mod, context.New())
	//
	asn := mod.Functions[0].Body.Stmts[0].(*ir.ExprStmt).Expr.(*ir.Assign)
	if asn.Op != ir.AssignPlain {
		t.Fatalf("expected plain assignment, got op %d", asn.Op)
	}
	//
	bin, ok := asn.Value.(*ir.Binary)
	if !ok || bin.Op != ir.BinAdd {
		t.Fatalf("expected `a = a + 1`, got %T", asn.Value)
	}
	//
	if lhs, ok := bin.Lhs.(*ir.Identifier); !ok || lhs.VarIndex != 0 {
		t.Fatalf("expected the target re-read on the rhs, got %T", bin.Lhs)
	}
}

func TestCompoundAssignmentLeavesPlainAssignAlone(t *testing.T) {
	orig := &ir.Assign{
		ExprBase: ir.ExprBase{Typ: ir.I32},
		Op:       ir.AssignPlain,
		Target:   &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.I32}, VarIndex: 0},
		Value:    i32Const(1),
	}
	mod := fnModule(&ir.ExprStmt{Expr: orig})
	//
	(&passes.CompoundAssignment{}).Run(mod, context.New())
	//
	if got := mod.Functions[0].Body.Stmts[0].(*ir.ExprStmt).Expr; got != ir.Expression(orig) {
		t.Fatalf("plain assignment must pass through unchanged, got %T", got)
	}
}

func TestAliasPassRemovesDeclarationsAndUnwrapsTypes(t *testing.T) {
	aliased := ir.Alias{Index: 0, Target: ir.Vector{Base: ir.BaseF32, N: 3}}
	//
	mod := &ir.Module{
		Metadata: ir.Metadata{Name: "alias"},
		Aliases:  []ir.AliasDef{{Name: "Vec3", Target: aliased.Target}},
		Structs: []ir.StructDef{{
			Name:   "S",
			Fields: []ir.StructField{{Name: "v", Type: aliased}},
		}},
		Functions: []ir.FunctionDef{{
			Name:       "main",
			Params:     []ir.Param{{Name: "p", Type: aliased}},
			ReturnType: aliased,
			Body: &ir.Scoped{Stmts: []ir.Statement{
				&ir.DeclareAlias{AliasIndex: 0},
				&ir.Return{Value: &ir.Identifier{ExprBase: ir.ExprBase{Typ: aliased}, VarIndex: 0}},
			}},
		}},
	}
	//
	(&passes.Alias{}).Run(mod, context.New())
	//
	stmts := mod.Functions[0].Body.Stmts
	if len(stmts) != 1 {
		t.Fatalf("expected DeclareAlias removed, got %d statements", len(stmts))
	}
	//
	ret := stmts[0].(*ir.Return)
	if _, ok := ret.Value.Type().(ir.Vector); !ok {
		t.Fatalf("expected expression type unwrapped to Vector, got %T", ret.Value.Type())
	}
	//
	if _, ok := mod.Functions[0].ReturnType.(ir.Vector); !ok {
		t.Fatalf("expected return type unwrapped, got %T", mod.Functions[0].ReturnType)
	}
	//
	if _, ok := mod.Structs[0].Fields[0].Type.(ir.Vector); !ok {
		t.Fatalf("expected struct field unwrapped, got %T", mod.Structs[0].Fields[0].Type)
	}
	//
	if mod.Aliases != nil {
		t.Fatal("expected the alias declaration list dropped")
	}
}

func TestBranchSplitterCollapsesElseBlockWithSingleIf(t *testing.T) {
	nested := &ir.Branch{Cond: boolIRConst(true), Then: &ir.Scoped{}}
	outer := &ir.Branch{
		Cond: boolIRConst(false),
		Then: &ir.Scoped{},
		Else: &ir.Scoped{Stmts: []ir.Statement{nested}},
	}
	mod := fnModule(outer)
	//
	(&passes.BranchSplitter{}).Run(mod, context.New())
	//
	if outer.Else != ir.Statement(nested) {
		t.Fatalf("expected else collapsed to the nested branch, got %T", outer.Else)
	}
}

func TestBranchSplitterKeepsMultiStatementElse(t *testing.T) {
	elseBlock := &ir.Scoped{Stmts: []ir.Statement{
		&ir.Branch{Cond: boolIRConst(true), Then: &ir.Scoped{}},
		&ir.Discard{},
	}}
	outer := &ir.Branch{Cond: boolIRConst(false), Then: &ir.Scoped{}, Else: elseBlock}
	mod := fnModule(outer)
	//
	(&passes.BranchSplitter{}).Run(mod, context.New())
	//
	if outer.Else != ir.Statement(elseBlock) {
		t.Fatalf("an else block with trailing statements must not collapse, got %T", outer.Else)
	}
}

func TestForToWhileLowersNumericRange(t *testing.T) {
	loop := &ir.For{
		VarIndex: 0,
		From:     i32Const(0),
		To:       i32Const(4),
		Body:     &ir.Scoped{Stmts: []ir.Statement{&ir.Discard{}}},
	}
	mod := fnModule(loop)
	//
	(&passes.ForToWhile{}).Run(mod, context.New())
	//
	multi, ok := mod.Functions[0].Body.Stmts[0].(*ir.Multi)
	if !ok || len(multi.Stmts) != 2 {
		t.Fatalf("expected [decl, while], got %T", mod.Functions[0].Body.Stmts[0])
	}
	//
	decl, ok := multi.Stmts[0].(*ir.DeclareVariable)
	if !ok || decl.VarIndex != 0 || !decl.Mut {
		t.Fatalf("expected the loop variable declared mutable, got %+v", multi.Stmts[0])
	}
	//
	while, ok := multi.Stmts[1].(*ir.While)
	if !ok {
		t.Fatalf("expected a while loop, got %T", multi.Stmts[1])
	}
	//
	cond, ok := while.Cond.(*ir.Binary)
	if !ok || cond.Op != ir.BinLt {
		t.Fatalf("expected `i < to` condition, got %T", while.Cond)
	}
	//
	// Original body statement plus the injected increment.
	if len(while.Body.Stmts) != 2 {
		t.Fatalf("expected body + increment, got %d statements", len(while.Body.Stmts))
	}
	//
	incr, ok := while.Body.Stmts[1].(*ir.ExprStmt)
	if !ok {
		t.Fatalf("expected trailing increment, got %T", while.Body.Stmts[1])
	}
	//
	if asn, ok := incr.Expr.(*ir.Assign); !ok || asn.Op != ir.AssignPlain {
		t.Fatalf("expected `i = i + 1`, got %T", incr.Expr)
	}
}

func TestForToWhileSkipsUnrollLoops(t *testing.T) {
	loop := &ir.For{
		VarIndex: 0,
		From:     i32Const(0),
		To:       i32Const(4),
		Body:     &ir.Scoped{},
		Unroll:   true,
	}
	mod := fnModule(loop)
	//
	(&passes.ForToWhile{}).Run(mod, context.New())
	//
	if mod.Functions[0].Body.Stmts[0] != ir.Statement(loop) {
		t.Fatalf("[unroll] loops belong to LoopUnroll, got %T", mod.Functions[0].Body.Stmts[0])
	}
}

func TestForToWhileLowersForEachWithFreshIndexVariable(t *testing.T) {
	ctx := context.New()
	elemVar := ctx.Variables.RegisterNamed("v", context.VariableEntry{Name: "v", Type: ir.F32})
	//
	arrType := ir.Array{Elem: ir.F32, Length: 3}
	loop := &ir.ForEach{
		VarIndex: elemVar,
		Range:    &ir.Identifier{ExprBase: ir.ExprBase{Typ: arrType}, VarIndex: 99},
		Body:     &ir.Scoped{Stmts: []ir.Statement{&ir.Discard{}}},
	}
	mod := fnModule(loop)
	//
	(&passes.ForToWhile{}).Run(mod, ctx)
	//
	multi := mod.Functions[0].Body.Stmts[0].(*ir.Multi)
	decl := multi.Stmts[0].(*ir.DeclareVariable)
	//
	if decl.VarIndex == elemVar {
		t.Fatal("the synthetic index variable must not reuse the element variable's index")
	}
	//
	while := multi.Stmts[1].(*ir.While)
	elemDecl, ok := while.Body.Stmts[0].(*ir.DeclareVariable)
	if !ok || elemDecl.VarIndex != elemVar {
		t.Fatalf("expected the element re-declared from the indexed access, got %+v", while.Body.Stmts[0])
	}
	//
	if _, ok := elemDecl.Init.(*ir.AccessIndex); !ok {
		t.Fatalf("expected an indexed element read, got %T", elemDecl.Init)
	}
}

func TestSwizzleScalarBroadcastBecomesConstructor(t *testing.T) {
	swz := &ir.Swizzle{
		ExprBase:   ir.ExprBase{Typ: ir.Vector{Base: ir.BaseF32, N: 3}},
		Base:       &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.F32}, VarIndex: 0},
		Components: []uint8{0, 0, 0},
	}
	mod := fnModule(&ir.DeclareVariable{VarIndex: 1, Init: swz})
	//
	(&passes.Swizzle{}).Run(mod, context.New())
	//
	cast, ok := mod.Functions[0].Body.Stmts[0].(*ir.DeclareVariable).Init.(*ir.Cast)
	if !ok || len(cast.Values) != 3 {
		t.Fatalf("expected vec3(a, a, a), got %T", mod.Functions[0].Body.Stmts[0].(*ir.DeclareVariable).Init)
	}
	//
	for i, v := range cast.Values {
		if id, ok := v.(*ir.Identifier); !ok || id.VarIndex != 0 {
			t.Fatalf("component %d: expected the scalar re-read, got %T", i, v)
		}
	}
}

func TestSwizzleWriteLowersToShuffleStore(t *testing.T) {
	vecType := ir.Vector{Base: ir.BaseF32, N: 4}
	base := &ir.Identifier{ExprBase: ir.ExprBase{Typ: vecType}, VarIndex: 0}
	//
	// v.zx = rhs  (rhs: vec2)
	asn := &ir.Assign{
		ExprBase: ir.ExprBase{Typ: vecType},
		Op:       ir.AssignPlain,
		Target: &ir.Swizzle{
			ExprBase:   ir.ExprBase{Typ: ir.Vector{Base: ir.BaseF32, N: 2}},
			Base:       base,
			Components: []uint8{2, 0},
		},
		Value: &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.Vector{Base: ir.BaseF32, N: 2}}, VarIndex: 1},
	}
	mod := fnModule(&ir.ExprStmt{Expr: asn})
	//
	(&passes.Swizzle{}).Run(mod, context.New())
	//
	lowered := mod.Functions[0].Body.Stmts[0].(*ir.ExprStmt).Expr.(*ir.Assign)
	if lowered.Target != ir.Expression(base) {
		t.Fatalf("expected the store retargeted at the whole vector, got %T", lowered.Target)
	}
	//
	shuffle, ok := lowered.Value.(*ir.Cast)
	if !ok || len(shuffle.Values) != 4 {
		t.Fatalf("expected a full-width shuffle constructor, got %T", lowered.Value)
	}
	//
	// Lanes 0 and 2 come from the rhs; lanes 1 and 3 re-read the base.
	for _, lane := range []int{0, 2} {
		access, ok := shuffle.Values[lane].(*ir.AccessIndex)
		if !ok {
			t.Fatalf("lane %d: expected a component of the assigned value, got %T", lane, shuffle.Values[lane])
		}
		//
		if id, ok := access.Base.(*ir.Identifier); !ok || id.VarIndex != 1 {
			t.Fatalf("lane %d: expected a read of the rhs, got %T", lane, access.Base)
		}
	}
	//
	for _, lane := range []int{1, 3} {
		access, ok := shuffle.Values[lane].(*ir.AccessIndex)
		if !ok {
			t.Fatalf("lane %d: expected the untouched lane re-read, got %T", lane, shuffle.Values[lane])
		}
		//
		if id, ok := access.Base.(*ir.Identifier); !ok || id.VarIndex != 0 {
			t.Fatalf("lane %d: expected a read of the base vector, got %T", lane, access.Base)
		}
	}
}

func TestMatrixAddLowersPerColumn(t *testing.T) {
	matType := ir.Matrix{Base: ir.BaseF32, Cols: 3, Rows: 3}
	sum := &ir.Binary{
		ExprBase: ir.ExprBase{Typ: matType},
		Op:       ir.BinAdd,
		Lhs:      &ir.Identifier{ExprBase: ir.ExprBase{Typ: matType}, VarIndex: 0},
		Rhs:      &ir.Identifier{ExprBase: ir.ExprBase{Typ: matType}, VarIndex: 1},
	}
	mod := fnModule(&ir.DeclareVariable{VarIndex: 2, Init: sum})
	//
	(&passes.Matrix{}).Run(mod, context.New())
	//
	cast, ok := mod.Functions[0].Body.Stmts[0].(*ir.DeclareVariable).Init.(*ir.Cast)
	if !ok || len(cast.Values) != 3 {
		t.Fatalf("expected 3 column expressions, got %T", mod.Functions[0].Body.Stmts[0].(*ir.DeclareVariable).Init)
	}
	//
	for c, col := range cast.Values {
		bin, ok := col.(*ir.Binary)
		if !ok || bin.Op != ir.BinAdd {
			t.Fatalf("column %d: expected a vector add, got %T", c, col)
		}
		//
		if _, ok := bin.Lhs.(*ir.AccessIndex); !ok {
			t.Fatalf("column %d: expected a column extraction, got %T", c, bin.Lhs)
		}
		//
		if vt, ok := bin.Type().(ir.Vector); !ok || vt.N != 3 {
			t.Fatalf("column %d: expected vec3 type, got %v", c, bin.Type())
		}
	}
}

func TestMatrixCastWidensWithIdentityColumns(t *testing.T) {
	src := ir.Matrix{Base: ir.BaseF32, Cols: 3, Rows: 3}
	dst := ir.Matrix{Base: ir.BaseF32, Cols: 4, Rows: 3}
	//
	cast := &ir.Cast{
		ExprBase: ir.ExprBase{Typ: dst},
		Values:   []ir.Expression{&ir.Identifier{ExprBase: ir.ExprBase{Typ: src}, VarIndex: 0}},
	}
	mod := fnModule(&ir.DeclareVariable{VarIndex: 1, Init: cast})
	//
	(&passes.Matrix{}).Run(mod, context.New())
	//
	lowered := mod.Functions[0].Body.Stmts[0].(*ir.DeclareVariable).Init.(*ir.Cast)
	if len(lowered.Values) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(lowered.Values))
	}
	//
	for c := 0; c < 3; c++ {
		if _, ok := lowered.Values[c].(*ir.AccessIndex); !ok {
			t.Fatalf("column %d: expected the source column carried over, got %T", c, lowered.Values[c])
		}
	}
	//
	pad, ok := lowered.Values[3].(*ir.Cast)
	if !ok || len(pad.Values) != 3 {
		t.Fatalf("expected a synthesized padding column, got %T", lowered.Values[3])
	}
}

func TestIndexRemapperRewritesVariableReferences(t *testing.T) {
	stmts := []ir.Statement{
		&ir.DeclareVariable{VarIndex: 0, Init: i32Const(1)},
		&ir.ExprStmt{Expr: &ir.Assign{
			ExprBase: ir.ExprBase{Typ: ir.I32},
			Op:       ir.AssignPlain,
			Target:   &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.I32}, VarIndex: 0},
			Value:    &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.I32}, VarIndex: 5},
		}},
	}
	//
	passes.RemapStmts(stmts, func(kind passes.TableKind, old uint32) uint32 {
		if kind == passes.KindVariable {
			return old + 100
		}
		//
		return old
	})
	//
	if got := stmts[0].(*ir.DeclareVariable).VarIndex; got != 100 {
		t.Fatalf("declaration: got %d, want 100", got)
	}
	//
	asn := stmts[1].(*ir.ExprStmt).Expr.(*ir.Assign)
	if got := asn.Target.(*ir.Identifier).VarIndex; got != 100 {
		t.Fatalf("target: got %d, want 100", got)
	}
	//
	if got := asn.Value.(*ir.Identifier).VarIndex; got != 105 {
		t.Fatalf("value: got %d, want 105", got)
	}
}

func TestIndexRemapperAsPipelineStageIsIdentityWhenUnconfigured(t *testing.T) {
	decl := &ir.DeclareVariable{VarIndex: 7, Init: i32Const(0)}
	mod := fnModule(decl)
	//
	(&passes.IndexRemapper{}).Run(mod, context.New())
	//
	if decl.VarIndex != 7 {
		t.Fatalf("unconfigured remapper must be identity, got %d", decl.VarIndex)
	}
}
