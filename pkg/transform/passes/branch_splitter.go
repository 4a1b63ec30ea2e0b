package passes

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// BranchSplitter is step 7 of the pipeline, a target-request pass: it
// normalizes multi-arm `if/else if/else` chains into nested two-way
// `ir.Branch` nodes. `else if` already resolves to a nested Branch directly
// (Resolve recurses through ast.IfStmt.Else), so the only shape this pass
// still needs to flatten is `else { if cond {... } }` written as an explicit
// block containing a single if -- written that way in source, it resolves to
// `Else: *ir.Scoped{Stmts: [*ir.Branch]}` instead of a bare `*ir.Branch`,
// which some back-ends (those that request this pass) want collapsed to a
// single nested Branch with no intervening scope.
type BranchSplitter struct{}

func (p *BranchSplitter) Name() string { return "BranchSplitter" }

func (p *BranchSplitter) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	v := &transform.Visitor{
		VisitStmt: func(s ir.Statement, _ []ir.Statement) transform.StmtResult {
			b, ok := s.(*ir.Branch)
			if !ok || b.Else == nil {
				return transform.StmtResult{Action: transform.VisitChildren}
			}
			//
			if scoped, ok := b.Else.(*ir.Scoped); ok && len(scoped.Stmts) == 1 {
				if nested, ok := scoped.Stmts[0].(*ir.Branch); ok {
					b.Else = nested
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
			fn.Body.Stmts = transform.Walk(v, fn.Body.Stmts)
		}
	}
	//
	return nil
}
