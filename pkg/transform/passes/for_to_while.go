package passes

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// ForToWhile is step 8 of the pipeline, a target-request pass: it lowers `for i in a -> b`
// and `for v in arr` into an explicit `while` with a
// loop variable declared ahead of it and incremented at the end of the body.
// Loops carrying an `[unroll]` attribute are left untouched here. LoopUnroll
// (step 9) replaces an `[unroll]` numeric `for` with inlined copies; an
// `[unroll]` for-each loop is lowered by neither pass and stays a ForEach.
type ForToWhile struct{}

func (p *ForToWhile) Name() string { return "ForToWhile" }

func (p *ForToWhile) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	v := &transform.Visitor{
		VisitStmt: func(s ir.Statement, _ []ir.Statement) transform.StmtResult {
			switch n := s.(type) {
			case *ir.For:
				if n.Unroll {
					return transform.StmtResult{Action: transform.VisitChildren}
				}
				//
				return transform.StmtResult{Action: transform.DontVisitChildren, Replace: lowerFor(n)}
			case *ir.ForEach:
				if n.Unroll {
					return transform.StmtResult{Action: transform.VisitChildren}
				}
				//
				return transform.StmtResult{Action: transform.DontVisitChildren, Replace: lowerForEach(n, ctx)}
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

// lowerFor rewrites `for i in a -> b { body }` into:
//
//	{ let mut i = a; while i < b { body; i = i + 1; } }
//
// spliced as a Multi so the loop variable's declaration and the while loop
// share one statement-list slot without needing an extra enclosing Scoped
// (the caller's statement list already provides the scope).
func lowerFor(n *ir.For) ir.Statement {
	decl := &ir.DeclareVariable{VarIndex: n.VarIndex, Mut: true, Init: n.From}
	//
	ident := &ir.Identifier{ExprBase: ir.ExprBase{Typ: n.From.Type()}, VarIndex: n.VarIndex}
	cond := &ir.Binary{ExprBase: ir.ExprBase{Typ: ir.Bool}, Op: ir.BinLt, Lhs: ident, Rhs: n.To}
	//
	one := &ir.ConstantValue{ExprBase: ir.ExprBase{Typ: n.From.Type()}, Value: ir.Single{V: ir.Bits{Base: ir.BaseI32, Bits: 1}}}
	incr := &ir.Assign{
		ExprBase: ir.ExprBase{Typ: n.From.Type()}, Op: ir.AssignPlain, Target: ident,
		Value: &ir.Binary{ExprBase: ir.ExprBase{Typ: n.From.Type()}, Op: ir.BinAdd, Lhs: ident, Rhs: one},
	}
	//
	body := &ir.Scoped{Stmts: append(append([]ir.Statement{}, n.Body.Stmts...), &ir.ExprStmt{Expr: incr})}
	whileStmt := &ir.While{Cond: cond, Body: body}
	//
	return &ir.Multi{Stmts: []ir.Statement{decl, whileStmt}}
}

// lowerForEach rewrites `for v in arr { body }` into an index-driven while
// loop over arr's length, with v re-declared inside the body from the
// indexed element (a fixed array's length is always statically known by
// this point in the pipeline).
func lowerForEach(n *ir.ForEach, ctx *context.TransformerContext) ir.Statement {
	arr, _ := n.Range.Type().(ir.Array)
	//
	idxVarType := ir.I32
	idxVarIndex := ctx.Variables.RegisterNamed("$foreach_idx", context.VariableEntry{Name: "$foreach_idx", Type: idxVarType, Mut: true})
	idxIdent := &ir.Identifier{ExprBase: ir.ExprBase{Typ: idxVarType}, VarIndex: idxVarIndex}
	//
	zero := &ir.ConstantValue{ExprBase: ir.ExprBase{Typ: idxVarType}, Value: ir.Single{V: ir.Bits{Base: ir.BaseI32, Bits: 0}}}
	length := &ir.ConstantValue{
		ExprBase: ir.ExprBase{Typ: idxVarType},
		Value:    ir.Single{V: ir.Bits{Base: ir.BaseI32, Bits: uint64(arr.Length)}},
	}
	//
	decl := &ir.DeclareVariable{VarIndex: idxVarIndex, Mut: true, Init: zero}
	//
	cond := &ir.Binary{ExprBase: ir.ExprBase{Typ: ir.Bool}, Op: ir.BinLt, Lhs: idxIdent, Rhs: length}
	//
	elem := &ir.AccessIndex{ExprBase: ir.ExprBase{Typ: arr.Elem}, Base: n.Range, Index: idxIdent}
	elemDecl := &ir.DeclareVariable{VarIndex: n.VarIndex, Mut: false, Init: elem}
	//
	one := &ir.ConstantValue{ExprBase: ir.ExprBase{Typ: idxVarType}, Value: ir.Single{V: ir.Bits{Base: ir.BaseI32, Bits: 1}}}
	incr := &ir.Assign{
		ExprBase: ir.ExprBase{Typ: idxVarType}, Op: ir.AssignPlain, Target: idxIdent,
		Value: &ir.Binary{ExprBase: ir.ExprBase{Typ: idxVarType}, Op: ir.BinAdd, Lhs: idxIdent, Rhs: one},
	}
	//
	body := &ir.Scoped{Stmts: append(append([]ir.Statement{elemDecl}, n.Body.Stmts...), &ir.ExprStmt{Expr: incr})}
	whileStmt := &ir.While{Cond: cond, Body: body}
	//
	return &ir.Multi{Stmts: []ir.Statement{decl, whileStmt}}
}
