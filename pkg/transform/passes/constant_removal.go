package passes

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// ConstantRemoval is step 4 of the pipeline: it substitutes every
// reference to a `const` declaration by the constant's already-folded
// value, and (when a back-end requests it) drops the `const`/`option`
// declarations themselves from the module now that nothing reaches them by
// name any more.
type ConstantRemoval struct {
	// RemoveDeclarations, when true, clears mod.Consts/mod.Options after
	// substitution (a back-end request, not the default -- some back-ends
	// still want named constants in their output for debug metadata).
	RemoveDeclarations bool
}

func (p *ConstantRemoval) Name() string { return "ConstantRemoval" }

func (p *ConstantRemoval) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	// Keyed by ctx.Consts index (the const/option table AccessConst.ConstIndex
	// points into), not the mod.Consts slice index -- const and option
	// declarations share one interned table, so the two index spaces
	// diverge the moment a module declares both.
	values := make(map[uint32]ir.Value, ctx.Consts.Len())
	//
	for i := 0; i < ctx.Consts.Len(); i++ {
		entry := ctx.Consts.Get(uint32(i))
		if entry.Value != nil && entry.Value.IsConstant() {
			values[uint32(i)] = entry.Value
		}
	}
	//
	v := &transform.Visitor{
		VisitExpr: func(e ir.Expression, _ []ir.Statement) transform.ExprResult {
			id, ok := e.(*ir.AccessConst)
			if !ok {
				return transform.ExprResult{Action: transform.VisitChildren}
			}
			//
			val, ok := values[id.ConstIndex]
			if !ok {
				return transform.ExprResult{Action: transform.VisitChildren}
			}
			//
			return transform.ExprResult{
				Action:  transform.DontVisitChildren,
				Replace: &ir.ConstantValue{ExprBase: ir.ExprBase{NodeSpan: id.Span(), Typ: id.Type()}, Value: val},
			}
		},
	}
	//
	branchFold := &transform.Visitor{
		VisitStmt: func(s ir.Statement, _ []ir.Statement) transform.StmtResult {
			if b, ok := s.(*ir.Branch); ok {
				if cv, ok := b.Cond.(*ir.ConstantValue); ok {
					return transform.StmtResult{Action: transform.VisitChildren, Replace: foldBranch(b, cv)}
				}
			}
			//
			return transform.StmtResult{Action: transform.VisitChildren}
		},
	}
	//
	for i := range mod.Functions {
		fn := &mod.Functions[i]
		if fn.Body != nil {
			// Substitution and branch folding are two separate walks over
			// the same body: a `const if (SomeOption)` only has a
			// ConstantValue condition once its AccessConst reference has
			// been substituted, which the branch-folding walk in
			// ConstantPropagation (step 3) runs too early to see -- a
			// named const/option reference isn't resolved to a value until
			// this pass (step 4).
			fn.Body.Stmts = transform.Walk(v, fn.Body.Stmts)
			fn.Body.Stmts = transform.Walk(branchFold, fn.Body.Stmts)
		}
	}
	//
	if p.RemoveDeclarations {
		mod.Consts = nil
		mod.Options = nil
	}
	//
	return nil
}
