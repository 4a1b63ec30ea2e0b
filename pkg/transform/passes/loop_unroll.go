package passes

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// LoopUnroll is step 9 of the pipeline: for every `[unroll]`-attributed
// `for` loop whose trip count is a compile-time constant, it clones the
// loop body once per iteration, rebinds the loop variable as a `const` on
// each copy, and reassigns fresh TransformerContext indices to every
// declaration inside each copy via IndexRemapper so the N copies don't
// alias each other's locals. A non-constant trip
// count is a diagnostic (CConstantExpressionRequired) rather than a
// silent no-op, since an `[unroll]` loop that cannot be unrolled has no
// other lowering to fall back to.
type LoopUnroll struct{}

func (p *LoopUnroll) Name() string { return "LoopUnroll" }

func (p *LoopUnroll) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	var diags []errors.Diagnostic
	//
	v := &transform.Visitor{
		VisitStmt: func(s ir.Statement, _ []ir.Statement) transform.StmtResult {
			n, ok := s.(*ir.For)
			if !ok || !n.Unroll {
				return transform.StmtResult{Action: transform.VisitChildren}
			}
			//
			from, fromOk := constInt(n.From)
			to, toOk := constInt(n.To)
			//
			if !fromOk || !toOk {
				diags = append(diags, *errors.New(errors.Compilation, errors.CConstantExpressionRequired, n.Span(),
					"[unroll] loop bounds must be compile-time constants"))
				return transform.StmtResult{Action: transform.DontVisitChildren}
			}
			//
			return transform.StmtResult{Action: transform.DontVisitChildren, Replace: unrollFor(n, from, to, ctx)}
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
	return diags
}

func constInt(e ir.Expression) (int64, bool) {
	cv, ok := e.(*ir.ConstantValue)
	if !ok {
		return 0, false
	}
	//
	single, ok := cv.Value.(ir.Single)
	if !ok {
		return 0, false
	}
	//
	return int64(int32(single.V.Bits)), true
}

// unrollFor builds one Scoped copy of n.Body per iteration in [from, to),
// each prefixed with a fresh `const i: i32 = <iteration value>` declaration
// in place of the shared loop variable, and remaps every local declaration
// in the copy to fresh indices so sibling copies never collide.
func unrollFor(n *ir.For, from, to int64, ctx *context.TransformerContext) ir.Statement {
	var copies []ir.Statement
	//
	for i := from; i < to; i++ {
		body := cloneScoped(n.Body)
		//
		// Declarations made fresh inside this copy (other than the loop
		// variable itself, replaced wholesale below) get new indices so
		// that e.g. `let tmp = ...;` inside the unrolled body doesn't
		// alias across iterations.
		fresh := map[uint32]uint32{}
		RemapStmts(body.Stmts, func(kind TableKind, old uint32) uint32 {
			if kind != KindVariable || old == n.VarIndex {
				return old
			}
			//
			if newIdx, ok := fresh[old]; ok {
				return newIdx
			}
			//
			entry := ctx.Variables.Get(old)
			newIdx := ctx.Variables.RegisterNamed(entry.Name, entry)
			fresh[old] = newIdx
			return newIdx
		})
		//
		loopConst := &ir.DeclareVariable{
			VarIndex: n.VarIndex, Mut: false,
			Init: &ir.ConstantValue{
				ExprBase: ir.ExprBase{Typ: n.From.Type()},
				Value:    ir.Single{V: ir.Bits{Base: ir.BaseI32, Bits: uint64(uint32(i))}},
			},
		}
		//
		copies = append(copies, &ir.Scoped{Stmts: append([]ir.Statement{loopConst}, body.Stmts...)})
	}
	//
	return &ir.Multi{Stmts: copies}
}

func cloneScoped(s *ir.Scoped) *ir.Scoped {
	out := &ir.Scoped{}
	//
	for _, st := range s.Stmts {
		out.Stmts = append(out.Stmts, cloneStmt(st))
	}
	//
	return out
}

// cloneStmt deep-copies a statement subtree so each unrolled iteration
// gets independent node instances (sharing nodes across copies would let a
// later pass's in-place rewrite on one copy leak into the others).
func cloneStmt(s ir.Statement) ir.Statement {
	switch n := s.(type) {
	case *ir.Scoped:
		return cloneScoped(n)
	case *ir.ExprStmt:
		return &ir.ExprStmt{Expr: cloneExpr(n.Expr)}
	case *ir.DeclareVariable:
		return &ir.DeclareVariable{VarIndex: n.VarIndex, Mut: n.Mut, Init: cloneExpr(n.Init)}
	case *ir.DeclareConst:
		return &ir.DeclareConst{ConstIndex: n.ConstIndex, Value: cloneExpr(n.Value)}
	case *ir.DeclareAlias:
		return &ir.DeclareAlias{AliasIndex: n.AliasIndex}
	case *ir.Branch:
		br := &ir.Branch{Cond: cloneExpr(n.Cond), Then: cloneStmt(n.Then)}
		if n.Else != nil {
			br.Else = cloneStmt(n.Else)
		}
		//
		return br
	case *ir.While:
		return &ir.While{Cond: cloneExpr(n.Cond), Body: cloneScoped(n.Body)}
	case *ir.For:
		return &ir.For{VarIndex: n.VarIndex, From: cloneExpr(n.From), To: cloneExpr(n.To), Body: cloneScoped(n.Body), Unroll: n.Unroll}
	case *ir.ForEach:
		return &ir.ForEach{VarIndex: n.VarIndex, Range: cloneExpr(n.Range), Body: cloneScoped(n.Body), Unroll: n.Unroll}
	case *ir.Break:
		return &ir.Break{}
	case *ir.Continue:
		return &ir.Continue{}
	case *ir.Discard:
		return &ir.Discard{}
	case *ir.Return:
		ret := &ir.Return{}
		if n.Value != nil {
			ret.Value = cloneExpr(n.Value)
		}
		//
		return ret
	case *ir.Multi:
		m := &ir.Multi{}
		for _, st := range n.Stmts {
			m.Stmts = append(m.Stmts, cloneStmt(st))
		}
		//
		return m
	case *ir.NoOp:
		return &ir.NoOp{}
	}
	//
	return s
}

func cloneExpr(e ir.Expression) ir.Expression {
	if e == nil {
		return nil
	}
	//
	base := ir.ExprBase{NodeSpan: e.Span(), Typ: e.Type()}
	//
	switch n := e.(type) {
	case *ir.Identifier:
		return &ir.Identifier{ExprBase: base, VarIndex: n.VarIndex}
	case *ir.AccessField:
		return &ir.AccessField{ExprBase: base, Base: cloneExpr(n.Base), FieldIndex: n.FieldIndex}
	case *ir.AccessConst:
		return &ir.AccessConst{ExprBase: base, ConstIndex: n.ConstIndex}
	case *ir.AccessIdentifier:
		return &ir.AccessIdentifier{ExprBase: base, ModuleIndex: n.ModuleIndex, VarIndex: n.VarIndex}
	case *ir.AccessExternal:
		return &ir.AccessExternal{ExprBase: base, ExternalIndex: n.ExternalIndex}
	case *ir.AccessIndex:
		return &ir.AccessIndex{ExprBase: base, Base: cloneExpr(n.Base), Index: cloneExpr(n.Index)}
	case *ir.Swizzle:
		return &ir.Swizzle{ExprBase: base, Base: cloneExpr(n.Base), Components: append([]uint8{}, n.Components...)}
	case *ir.Assign:
		return &ir.Assign{ExprBase: base, Op: n.Op, Target: cloneExpr(n.Target), Value: cloneExpr(n.Value)}
	case *ir.Binary:
		return &ir.Binary{ExprBase: base, Op: n.Op, Lhs: cloneExpr(n.Lhs), Rhs: cloneExpr(n.Rhs)}
	case *ir.Unary:
		return &ir.Unary{ExprBase: base, Op: n.Op, Operand: cloneExpr(n.Operand)}
	case *ir.CallFunction:
		args := make([]ir.Expression, len(n.Args))
		for i, a := range n.Args {
			args[i] = cloneExpr(a)
		}
		//
		return &ir.CallFunction{ExprBase: base, FunctionIndex: n.FunctionIndex, Args: args}
	case *ir.CallMethod:
		args := make([]ir.Expression, len(n.Args))
		for i, a := range n.Args {
			args[i] = cloneExpr(a)
		}
		//
		return &ir.CallMethod{ExprBase: base, Receiver: cloneExpr(n.Receiver), Name: n.Name, Args: args}
	case *ir.IntrinsicCall:
		args := make([]ir.Expression, len(n.Args))
		for i, a := range n.Args {
			args[i] = cloneExpr(a)
		}
		//
		return &ir.IntrinsicCall{ExprBase: base, Kind: n.Kind, Args: args}
	case *ir.Cast:
		values := make([]ir.Expression, len(n.Values))
		for i, v := range n.Values {
			values[i] = cloneExpr(v)
		}
		//
		return &ir.Cast{ExprBase: base, Values: values}
	case *ir.Conditional:
		return &ir.Conditional{ExprBase: base, Cond: cloneExpr(n.Cond), A: cloneExpr(n.A), B: cloneExpr(n.B)}
	case *ir.ConstantValue:
		return &ir.ConstantValue{ExprBase: base, Value: n.Value}
	case *ir.ConstantArrayValue:
		elems := make([]ir.Expression, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = cloneExpr(el)
		}
		//
		return &ir.ConstantArrayValue{ExprBase: base, Elems: elems}
	case *ir.TypeConstant:
		return &ir.TypeConstant{ExprBase: base, Referenced: n.Referenced}
	case *ir.IdentifierValue:
		return &ir.IdentifierValue{ExprBase: base, Identifier: cloneExpr(n.Identifier).(*ir.Identifier), Value: n.Value}
	}
	//
	return e
}
