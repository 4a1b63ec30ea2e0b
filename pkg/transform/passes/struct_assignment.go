package passes

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// StructAssignment is step 15 of the pipeline: for back-ends with no native
// wrapped-aggregate assignment instruction (e.g. `ubo.s = localS` where `s` is
// a struct or fixed-size array field), it splits a single Assign into one
// Assign per member. The split recurses: a field that is itself a struct or
// array gets split again the next time the walker visits the Multi this pass
// spliced in, since each new ExprStmt it emits is itself re-examined through
// the same VisitStmt hook.
type StructAssignment struct{}

func (p *StructAssignment) Name() string { return "StructAssignment" }

func (p *StructAssignment) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	v := &transform.Visitor{
		VisitStmt: func(s ir.Statement, _ []ir.Statement) transform.StmtResult {
			es, ok := s.(*ir.ExprStmt)
			if !ok {
				return transform.StmtResult{Action: transform.VisitChildren}
			}
			//
			asn, ok := es.Expr.(*ir.Assign)
			if !ok || asn.Op != ir.AssignPlain {
				return transform.StmtResult{Action: transform.VisitChildren}
			}
			//
			if split := splitAggregateAssign(mod, asn); split != nil {
				return transform.StmtResult{Action: transform.VisitChildren, Replace: split}
			}
			//
			return transform.StmtResult{Action: transform.VisitChildren}
		},
	}
	//
	for i := range mod.Functions {
		fn := &mod.Functions[i]
		if fn.Body != nil {
			fn.Body.Stmts = transform.Walk(v, fn.Body.Stmts)
		}
	}
	//
	return nil
}

// splitAggregateAssign returns a Multi of per-member assignments when
// asn's target is a struct or fixed-size array, or nil when asn needs no
// splitting (scalar/vector/matrix targets, or a DynArray -- which cannot
// appear on the left of an assignment at all).
func splitAggregateAssign(mod *ir.Module, asn *ir.Assign) ir.Statement {
	switch t := asn.Target.Type().(type) {
	case ir.Struct:
		sd := mod.Structs[t.Index]
		stmts := make([]ir.Statement, len(sd.Fields))
		//
		for i, f := range sd.Fields {
			lhs := &ir.AccessField{ExprBase: ir.ExprBase{NodeSpan: asn.Span(), Typ: f.Type}, Base: asn.Target, FieldIndex: uint32(i)}
			rhs := &ir.AccessField{ExprBase: ir.ExprBase{NodeSpan: asn.Span(), Typ: f.Type}, Base: asn.Value, FieldIndex: uint32(i)}
			stmts[i] = &ir.ExprStmt{Expr: &ir.Assign{ExprBase: asn.ExprBase, Op: ir.AssignPlain, Target: lhs, Value: rhs}}
		}
		//
		return &ir.Multi{Stmts: stmts}
	case ir.Array:
		n := int(t.Length)
		stmts := make([]ir.Statement, n)
		//
		for i := 0; i < n; i++ {
			idx := indexConst(i)
			lhs := &ir.AccessIndex{ExprBase: ir.ExprBase{NodeSpan: asn.Span(), Typ: t.Elem}, Base: asn.Target, Index: idx}
			rhs := &ir.AccessIndex{ExprBase: ir.ExprBase{NodeSpan: asn.Span(), Typ: t.Elem}, Base: asn.Value, Index: idx}
			stmts[i] = &ir.ExprStmt{Expr: &ir.Assign{ExprBase: asn.ExprBase, Op: ir.AssignPlain, Target: lhs, Value: rhs}}
		}
		//
		return &ir.Multi{Stmts: stmts}
	default:
		return nil
	}
}
