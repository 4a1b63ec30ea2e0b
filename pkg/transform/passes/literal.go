package passes

import (
	"math"

	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
)

// Literal is step 5 of the pipeline: it resolves every `ir.IntLiteral`/
// `ir.FloatLiteral`-typed expression to a concrete scalar type, propagating
// the expected type down from the nearest reference context -- an
// assignment target, a declared variable's annotated type, a function
// parameter, a cast target, or an array element slot. Where no reference
// type is available at all, a literal defaults to i32/f32. This pass walks
// the statement tree directly
// (rather than via transform.Walk) since retyping is a top-down
// (type-hint-propagating) traversal, the opposite direction from
// transform.Walk's pre-order visitor callbacks.
type Literal struct {
	ctx *context.TransformerContext
	mod *ir.Module
}

func (p *Literal) Name() string { return "Literal" }

func (p *Literal) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	p.ctx, p.mod = ctx, mod
	//
	for i := range mod.Functions {
		fn := &mod.Functions[i]
		if fn.Body != nil {
			p.retypeStmts(fn.Body.Stmts)
		}
	}
	//
	for i := range mod.Consts {
		// Module-level consts are not retyped: an annotated const keeps the
		// type Resolve gave it, and an unannotated one keeps its
		// IntLiteral/FloatLiteral type.
		_ = mod.Consts[i]
	}
	//
	return nil
}

// defaultBase is the fallback base type for a literal with no reference
// context: i32 for IntLiteral, f32 for FloatLiteral.
func defaultBase(t ir.Type) ir.Base {
	if _, ok := t.(ir.IntLiteral); ok {
		return ir.BaseI32
	}
	//
	return ir.BaseF32
}

func isUntypedLiteral(t ir.Type) bool {
	switch t.(type) {
	case ir.IntLiteral, ir.FloatLiteral:
		return true
	}
	//
	return false
}

// retypeStmts walks every statement, retyping literal expressions using
// whatever reference type each statement kind supplies.
func (p *Literal) retypeStmts(stmts []ir.Statement) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ir.Scoped:
			p.retypeStmts(n.Stmts)
		case *ir.Branch:
			p.retype(&n.Cond, ir.Bool)
			p.retypeStmts([]ir.Statement{n.Then})
			if n.Else != nil {
				p.retypeStmts([]ir.Statement{n.Else})
			}
		case *ir.While:
			p.retype(&n.Cond, ir.Bool)
			p.retypeStmts(n.Body.Stmts)
		case *ir.For:
			p.retype(&n.From, ir.I32)
			p.retype(&n.To, ir.I32)
			p.retypeStmts(n.Body.Stmts)
		case *ir.ForEach:
			p.retypeStmts(n.Body.Stmts)
		case *ir.ExprStmt:
			p.retype(&n.Expr, nil)
		case *ir.DeclareVariable:
			hint := n.Init.Type()
			annotated := false
			if v, _, ok := p.lookupVar(n.VarIndex); ok && !isUntypedLiteral(v.Type) {
				hint = v.Type
				annotated = true
			}
			//
			p.retype(&n.Init, hint)
			//
			// An unannotated `let x = <literal>;` only learns its concrete
			// type from n.Init just now; write it back into ctx.Variables so
			// a later statement referencing x (via Identifier) retypes
			// consistently instead of seeing the stale IntLiteral/FloatLiteral
			// this variable was registered with during Resolve.
			if !annotated && int(n.VarIndex) < p.ctx.Variables.Len() {
				entry := p.ctx.Variables.Get(n.VarIndex)
				entry.Type = n.Init.Type()
				p.ctx.Variables.Update(n.VarIndex, entry)
			}
		case *ir.DeclareConst:
			p.retype(&n.Value, nil)
		case *ir.Return:
			if n.Value != nil {
				p.retype(&n.Value, nil)
			}
		case *ir.Multi:
			p.retypeStmts(n.Stmts)
		}
	}
}

func (p *Literal) lookupVar(idx uint32) (context.VariableEntry, uint32, bool) {
	if idx >= uint32(p.ctx.Variables.Len()) {
		return context.VariableEntry{}, 0, false
	}
	//
	return p.ctx.Variables.Get(idx), idx, true
}

// retype resolves *slot in place, using hint as the expected type when the
// expression itself carries no stronger signal. hint may be nil, meaning
// "no reference context" (top-level statement position).
func (p *Literal) retype(slot *ir.Expression, hint ir.Type) {
	if slot == nil || *slot == nil {
		return
	}
	//
	e := *slot
	//
	switch n := e.(type) {
	case *ir.ConstantValue:
		if isUntypedLiteral(n.Type()) {
			base := defaultBase(n.Type())
			if s, ok := hint.(ir.Scalar); ok {
				base = s.Base
			}
			//
			n.SetType(ir.Scalar{Base: base})
			n.Value = retypeValue(n.Value, base)
		}
	case *ir.Binary:
		// Reconcile before defaulting: when exactly one side is an untyped
		// literal (e.g. `x + 1` with no outer hint), the concrete side must
		// resolve first so its type can serve as the literal's hint --
		// retyping the literal side with a nil hint would eagerly default it
		// to i32/f32 and lose `x`'s actual type.
		lhsUntyped, rhsUntyped := isUntypedLiteral(n.Lhs.Type()), isUntypedLiteral(n.Rhs.Type())
		//
		switch {
		case lhsUntyped && !rhsUntyped:
			p.retype(&n.Rhs, hint)
			h := hint
			if !isUntypedLiteral(n.Rhs.Type()) {
				h = n.Rhs.Type()
			}
			//
			p.retype(&n.Lhs, h)
		case rhsUntyped && !lhsUntyped:
			p.retype(&n.Lhs, hint)
			h := hint
			if !isUntypedLiteral(n.Lhs.Type()) {
				h = n.Lhs.Type()
			}
			//
			p.retype(&n.Rhs, h)
		default:
			p.retype(&n.Lhs, hint)
			p.retype(&n.Rhs, hint)
		}
		//
		// A comparison's own type is already bool; only an arithmetic node
		// still tagged untyped takes its operands' reified type.
		if isUntypedLiteral(n.Type()) {
			n.SetType(n.Lhs.Type())
		}
	case *ir.Unary:
		p.retype(&n.Operand, hint)
		n.SetType(n.Operand.Type())
	case *ir.Assign:
		p.retype(&n.Target, nil)
		p.retype(&n.Value, n.Target.Type())
		n.SetType(n.Target.Type())
	case *ir.Conditional:
		p.retype(&n.Cond, ir.Bool)
		p.retype(&n.A, hint)
		p.retype(&n.B, hint)
		n.SetType(n.A.Type())
	case *ir.Cast:
		elemHint := n.Type()
		if v, ok := n.Type().(ir.Vector); ok {
			elemHint = ir.Scalar{Base: v.Base}
		} else if m, ok := n.Type().(ir.Matrix); ok {
			elemHint = ir.Scalar{Base: m.Base}
		}
		//
		for i := range n.Values {
			p.retype(&n.Values[i], elemHint)
		}
	case *ir.CallFunction:
		fn := p.functionParams(n.FunctionIndex)
		for i := range n.Args {
			var h ir.Type
			if i < len(fn) {
				h = fn[i].Type
			}
			//
			p.retype(&n.Args[i], h)
		}
	case *ir.IntrinsicCall:
		for i := range n.Args {
			p.retype(&n.Args[i], hint)
		}
	case *ir.CallMethod:
		p.retype(&n.Receiver, nil)
		for i := range n.Args {
			p.retype(&n.Args[i], nil)
		}
	case *ir.ConstantArrayValue:
		elemHint := hint
		if arr, ok := hint.(ir.Array); ok {
			elemHint = arr.Elem
		}
		//
		for i := range n.Elems {
			p.retype(&n.Elems[i], elemHint)
		}
	case *ir.AccessIndex:
		p.retype(&n.Base, nil)
		p.retype(&n.Index, ir.I32)
	case *ir.AccessField:
		p.retype(&n.Base, nil)
	case *ir.Swizzle:
		p.retype(&n.Base, nil)
	case *ir.Identifier:
		if int(n.VarIndex) < p.ctx.Variables.Len() {
			if v := p.ctx.Variables.Get(n.VarIndex); !isUntypedLiteral(v.Type) {
				n.SetType(v.Type)
			}
		}
	}
	//
	*slot = e
}

func (p *Literal) functionParams(idx uint32) []ir.Param {
	if int(idx) >= len(p.mod.Functions) {
		return nil
	}
	//
	return p.mod.Functions[idx].Params
}

// retypeValue reinterprets an untyped literal's bit pattern as base: an int
// literal's bits are a plain int64 stored in the lower bits; a float
// literal's bits are produced by the lexer/resolver already as a float64
// bit pattern tagged FloatLiteral. Converting between the two families
// only happens here, once, which is the point of keeping literals
// polymorphic until this pass.
func retypeValue(v ir.Value, base ir.Base) ir.Value {
	s, ok := v.(ir.Single)
	if !ok {
		return v
	}
	//
	switch base {
	case ir.BaseF32, ir.BaseF64:
		if s.V.Base == ir.BaseI32 || s.V.Base == ir.BaseU32 {
			f := float64(int32(s.V.Bits))
			return ir.Single{V: ir.Bits{Base: base, Bits: math.Float64bits(f)}}
		}
		//
		return ir.Single{V: ir.Bits{Base: base, Bits: s.V.Bits}}
	case ir.BaseI32, ir.BaseU32:
		return ir.Single{V: ir.Bits{Base: base, Bits: s.V.Bits}}
	}
	//
	return v
}
