package passes

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// Alias is step 6 of the pipeline: it removes every `DeclareAlias` statement
// and unwraps any `ir.Alias`-typed expression to the type it points at, so
// every later pass sees the aliased type directly rather than an extra
// indirection. Resolution is always a single hop: Resolve already rejects
// alias cycles at registration time, so no fixpoint loop is needed here.
type Alias struct{}

func (p *Alias) Name() string { return "Alias" }

func (p *Alias) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	v := &transform.Visitor{
		VisitStmt: func(s ir.Statement, _ []ir.Statement) transform.StmtResult {
			if _, ok := s.(*ir.DeclareAlias); ok {
				return transform.StmtResult{Remove: true}
			}
			//
			return transform.StmtResult{Action: transform.VisitChildren}
		},
		VisitExpr: func(e ir.Expression, _ []ir.Statement) transform.ExprResult {
			if t := unwrapAlias(e.Type()); t != e.Type() {
				e.SetType(t)
			}
			//
			return transform.ExprResult{Action: transform.VisitChildren}
		},
	}
	//
	for i := range mod.Functions {
		fn := &mod.Functions[i]
		fn.ReturnType = unwrapAlias(fn.ReturnType)
		//
		for j := range fn.Params {
			fn.Params[j].Type = unwrapAlias(fn.Params[j].Type)
		}
		//
		if fn.Body != nil {
			fn.Body.Stmts = transform.Walk(v, fn.Body.Stmts)
		}
	}
	//
	for i := range mod.Structs {
		for j := range mod.Structs[i].Fields {
			mod.Structs[i].Fields[j].Type = unwrapAlias(mod.Structs[i].Fields[j].Type)
		}
	}
	//
	for i := range mod.Externals {
		mod.Externals[i].Type = unwrapAlias(mod.Externals[i].Type)
	}
	//
	// Aliases are fully expanded away now; nothing references mod.Aliases
	// by index any more (every ir.Alias occurrence has been unwrapped
	// above), so the declaration list itself is dropped.
	mod.Aliases = nil
	//
	return nil
}

// unwrapAlias follows a single ir.Alias indirection to its target,
// returning t unchanged if it is not an alias.
func unwrapAlias(t ir.Type) ir.Type {
	if a, ok := t.(ir.Alias); ok {
		return a.Target
	}
	//
	return t
}
