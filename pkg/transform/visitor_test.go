package transform_test

import (
	"testing"

	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

func intConst(v int64) *ir.ConstantValue {
	return &ir.ConstantValue{
		ExprBase: ir.ExprBase{Typ: ir.I32},
		Value:    ir.Single{V: ir.Bits{Base: ir.BaseI32, Bits: uint64(uint32(v))}},
	}
}

func TestWalkReplacesExpression(t *testing.T) {
	stmts := []ir.Statement{
		&ir.ExprStmt{Expr: &ir.Binary{
			ExprBase: ir.ExprBase{Typ: ir.I32},
			Op:       ir.BinAdd,
			Lhs:      &ir.Identifier{ExprBase: ir.ExprBase{Typ: ir.I32}, VarIndex: 0},
			Rhs:      intConst(1),
		}},
	}
	//
	v := &transform.Visitor{
		VisitExpr: func(e ir.Expression, _ []ir.Statement) transform.ExprResult {
			if id, ok := e.(*ir.Identifier); ok && id.VarIndex == 0 {
				return transform.ExprResult{Action: transform.DontVisitChildren, Replace: intConst(41)}
			}
			//
			return transform.ExprResult{Action: transform.VisitChildren}
		},
	}
	//
	out := transform.Walk(v, stmts)
	//
	bin := out[0].(*ir.ExprStmt).Expr.(*ir.Binary)
	if _, ok := bin.Lhs.(*ir.ConstantValue); !ok {
		t.Fatalf("expected Lhs replaced by a constant, got %T", bin.Lhs)
	}
}

func TestWalkRemovesStatement(t *testing.T) {
	stmts := []ir.Statement{
		&ir.NoOp{},
		&ir.Return{},
		&ir.NoOp{},
	}
	//
	v := &transform.Visitor{
		VisitStmt: func(s ir.Statement, _ []ir.Statement) transform.StmtResult {
			if _, ok := s.(*ir.NoOp); ok {
				return transform.StmtResult{Remove: true}
			}
			//
			return transform.StmtResult{Action: transform.VisitChildren}
		},
	}
	//
	out := transform.Walk(v, stmts)
	//
	if len(out) != 1 {
		t.Fatalf("expected 1 surviving statement, got %d", len(out))
	}
	//
	if _, ok := out[0].(*ir.Return); !ok {
		t.Fatalf("expected the Return to survive, got %T", out[0])
	}
}

func TestWalkReplacesStatementBeforeDescending(t *testing.T) {
	stmts := []ir.Statement{
		&ir.ExprStmt{Expr: intConst(1)},
	}
	//
	var sawReplacementExpr bool
	//
	v := &transform.Visitor{
		VisitStmt: func(s ir.Statement, _ []ir.Statement) transform.StmtResult {
			if _, ok := s.(*ir.ExprStmt); ok {
				return transform.StmtResult{
					Action:  transform.VisitChildren,
					Replace: &ir.ExprStmt{Expr: intConst(2)},
				}
			}
			//
			return transform.StmtResult{Action: transform.VisitChildren}
		},
		VisitExpr: func(e ir.Expression, _ []ir.Statement) transform.ExprResult {
			if cv, ok := e.(*ir.ConstantValue); ok {
				if cv.Value.(ir.Single).V.Bits == 2 {
					sawReplacementExpr = true
				}
			}
			//
			return transform.ExprResult{Action: transform.VisitChildren}
		},
	}
	//
	transform.Walk(v, stmts)
	//
	if !sawReplacementExpr {
		t.Fatal("descent should walk the replacement's children, not the original's")
	}
}

func TestWalkTracksAncestorsThroughScopes(t *testing.T) {
	inner := &ir.Scoped{Stmts: []ir.Statement{&ir.Return{Value: intConst(1)}}}
	outer := &ir.Scoped{Stmts: []ir.Statement{inner}}
	//
	var depthAtReturn int
	//
	v := &transform.Visitor{
		VisitStmt: func(s ir.Statement, ancestors []ir.Statement) transform.StmtResult {
			if _, ok := s.(*ir.Return); ok {
				depthAtReturn = len(ancestors)
			}
			//
			return transform.StmtResult{Action: transform.VisitChildren}
		},
	}
	//
	transform.Walk(v, []ir.Statement{outer})
	//
	if depthAtReturn != 2 {
		t.Fatalf("expected 2 enclosing scopes on the ancestor stack, got %d", depthAtReturn)
	}
}

func TestWalkScopeHooksBalance(t *testing.T) {
	tree := []ir.Statement{
		&ir.Scoped{Stmts: []ir.Statement{
			&ir.Scoped{Stmts: []ir.Statement{&ir.NoOp{}}},
			&ir.Scoped{Stmts: nil},
		}},
	}
	//
	var enters, leaves int
	//
	v := &transform.Visitor{
		EnterScope: func([]ir.Statement) { enters++ },
		LeaveScope: func([]ir.Statement) { leaves++ },
	}
	//
	transform.Walk(v, tree)
	//
	if enters != 3 || leaves != 3 {
		t.Fatalf("got %d enters / %d leaves, want 3/3", enters, leaves)
	}
}

func TestWalkIgnoreExpressionsSkipsExprCallbacks(t *testing.T) {
	stmts := []ir.Statement{
		&ir.ExprStmt{Expr: intConst(1)},
	}
	//
	var visited int
	//
	v := &transform.Visitor{
		Ignore: transform.IgnoreExpressions,
		VisitExpr: func(ir.Expression, []ir.Statement) transform.ExprResult {
			visited++
			return transform.ExprResult{Action: transform.VisitChildren}
		},
	}
	//
	transform.Walk(v, stmts)
	//
	if visited != 0 {
		t.Fatalf("expected no expression visits, got %d", visited)
	}
}

func TestWalkIgnoreLoopContentSkipsBodies(t *testing.T) {
	loop := &ir.While{
		Cond: intConst(1),
		Body: &ir.Scoped{Stmts: []ir.Statement{&ir.Discard{}}},
	}
	//
	var sawDiscard bool
	//
	v := &transform.Visitor{
		Ignore: transform.IgnoreLoopContent,
		VisitStmt: func(s ir.Statement, _ []ir.Statement) transform.StmtResult {
			if _, ok := s.(*ir.Discard); ok {
				sawDiscard = true
			}
			//
			return transform.StmtResult{Action: transform.VisitChildren}
		},
	}
	//
	transform.Walk(v, []ir.Statement{loop})
	//
	if sawDiscard {
		t.Fatal("loop body should not be visited under IgnoreLoopContent")
	}
}

func TestWalkDontVisitChildrenStopsDescent(t *testing.T) {
	stmts := []ir.Statement{
		&ir.Scoped{Stmts: []ir.Statement{&ir.Discard{}}},
	}
	//
	var sawDiscard bool
	//
	v := &transform.Visitor{
		VisitStmt: func(s ir.Statement, _ []ir.Statement) transform.StmtResult {
			switch s.(type) {
			case *ir.Scoped:
				return transform.StmtResult{Action: transform.DontVisitChildren}
			case *ir.Discard:
				sawDiscard = true
			}
			//
			return transform.StmtResult{Action: transform.VisitChildren}
		},
	}
	//
	transform.Walk(v, stmts)
	//
	if sawDiscard {
		t.Fatal("children should be skipped after DontVisitChildren")
	}
}
