package passes

import (
	"math"

	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// ConstantPropagation folds constant subexpressions into ir.ConstantValue
// nodes, and replaces a `const if` Branch with whichever arm its condition
// selects. Expressions fold through foldExpr, applied to const and option
// initializers and, via foldExprsInStmts, to every function body; a
// transform.Walk over each body then replaces every Branch whose
// condition folded to a ConstantValue with its taken arm.
type ConstantPropagation struct {
	// RequireConstant, when true, turns a non-constant array-length or
	// option-default expression into a diagnostic instead of leaving it
	// for a later pass.
	RequireConstant bool
}

func (p *ConstantPropagation) Name() string { return "ConstantPropagation" }

func (p *ConstantPropagation) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	var diags []errors.Diagnostic
	//
	// Module-level consts fold first: a function body may reference one,
	// and ConstantRemoval (the next pass) needs every foldable const's
	// Value already cached in ctx.Consts by the time it runs.
	for i := range mod.Consts {
		c := &mod.Consts[i]
		if c.Init == nil {
			continue
		}
		//
		c.Init = foldExpr(c.Init)
		//
		cv, ok := c.Init.(*ir.ConstantValue)
		if !ok {
			if p.RequireConstant {
				diags = append(diags, *errors.New(errors.Compilation, errors.CConstantExpressionRequired, c.Init.Span(),
					"const %q initializer is not a compile-time constant", c.Name))
			}
			//
			continue
		}
		//
		c.Value = cv.Value
		//
		if entry, idx, ok := ctx.Consts.Retrieve(c.Name); ok {
			entry.Value = cv.Value
			ctx.Consts.Update(idx, entry)
		}
	}
	//
	// Options fold the same way: absent a back-end-supplied override (out
	// of this module's scope), an option resolves to
	// its declared default, so ConstantRemoval can substitute a reference
	// to it exactly like a const reference.
	for i := range mod.Options {
		o := &mod.Options[i]
		if o.Init == nil {
			continue
		}
		//
		o.Init = foldExpr(o.Init)
		//
		cv, ok := o.Init.(*ir.ConstantValue)
		if !ok {
			if p.RequireConstant {
				diags = append(diags, *errors.New(errors.Compilation, errors.CConstantExpressionRequired, o.Init.Span(),
					"option %q default is not a compile-time constant", o.Name))
			}
			//
			continue
		}
		//
		o.Default = cv.Value
		//
		if entry, idx, ok := ctx.Consts.Retrieve(o.Name); ok {
			entry.Value = cv.Value
			ctx.Consts.Update(idx, entry)
		}
	}
	//
	for i := range mod.Functions {
		fn := &mod.Functions[i]
		if fn.Body == nil {
			continue
		}
		//
		// Expressions fold first so a condition built from arithmetic on
		// constants (`if (1+1 == 2)`) is already a ConstantValue by the time
		// the branch-folding walk below inspects it.
		foldExprsInStmts(fn.Body.Stmts)
		//
		v := &transform.Visitor{
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
		fn.Body.Stmts = transform.Walk(v, fn.Body.Stmts)
	}
	//
	return diags
}

// foldBranch folds a constant-condition branch: the taken arm
// replaces the Branch outright; since the taken arm is itself a *ir.Scoped,
// it is returned as-is rather than unwrapped, which keeps its declarations
// in their own scope (indices stay valid without a remap) at the cost of
// one extra nested scope the back-end can trivially flatten.
func foldBranch(b *ir.Branch, cond *ir.ConstantValue) ir.Statement {
	if isTruthy(cond.Value) {
		return b.Then
	}
	//
	if b.Else != nil {
		return b.Else
	}
	//
	return &ir.NoOp{}
}

func isTruthy(v ir.Value) bool {
	single, ok := v.(ir.Single)
	return ok && single.V.Bits != 0
}

// foldExprsInStmts walks every statement's expressions bottom-up (post
// order, so a Binary's operands are folded before the Binary itself) and
// replaces foldable nodes with their ConstantValue result. This is a
// separate pass over the statement list because transform.Walk's
// VisitExpr fires pre-order and only the node's own children can be
// inspected by the time it runs, which is not enough to fold a tree of
// depth >1 in one walk.
func foldExprsInStmts(stmts []ir.Statement) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ir.Scoped:
			foldExprsInStmts(n.Stmts)
		case *ir.Branch:
			n.Cond = foldExpr(n.Cond)
			foldExprsInStmts([]ir.Statement{n.Then})
			if n.Else != nil {
				foldExprsInStmts([]ir.Statement{n.Else})
			}
		case *ir.While:
			n.Cond = foldExpr(n.Cond)
			foldExprsInStmts(n.Body.Stmts)
		case *ir.For:
			n.From, n.To = foldExpr(n.From), foldExpr(n.To)
			foldExprsInStmts(n.Body.Stmts)
		case *ir.ForEach:
			n.Range = foldExpr(n.Range)
			foldExprsInStmts(n.Body.Stmts)
		case *ir.ExprStmt:
			n.Expr = foldExpr(n.Expr)
		case *ir.DeclareVariable:
			if n.Init != nil {
				n.Init = foldExpr(n.Init)
			}
		case *ir.DeclareConst:
			n.Value = foldExpr(n.Value)
		case *ir.Return:
			if n.Value != nil {
				n.Value = foldExpr(n.Value)
			}
		case *ir.Multi:
			foldExprsInStmts(n.Stmts)
		}
	}
}

func foldExpr(e ir.Expression) ir.Expression {
	switch n := e.(type) {
	case *ir.Binary:
		n.Lhs, n.Rhs = foldExpr(n.Lhs), foldExpr(n.Rhs)
		//
		lhs, lok := n.Lhs.(*ir.ConstantValue)
		rhs, rok := n.Rhs.(*ir.ConstantValue)
		//
		if lok && rok {
			if v, ok := foldBinary(n.Op, lhs.Value, rhs.Value); ok {
				return &ir.ConstantValue{ExprBase: ir.ExprBase{NodeSpan: n.Span(), Typ: n.Type()}, Value: v}
			}
		}
		//
		return n
	case *ir.Unary:
		n.Operand = foldExpr(n.Operand)
		//
		if cv, ok := n.Operand.(*ir.ConstantValue); ok {
			if v, ok := foldUnary(n.Op, cv.Value); ok {
				return &ir.ConstantValue{ExprBase: ir.ExprBase{NodeSpan: n.Span(), Typ: n.Type()}, Value: v}
			}
		}
		//
		return n
	case *ir.Conditional:
		n.Cond, n.A, n.B = foldExpr(n.Cond), foldExpr(n.A), foldExpr(n.B)
		//
		if cv, ok := n.Cond.(*ir.ConstantValue); ok {
			if isTruthy(cv.Value) {
				return n.A
			}
			//
			return n.B
		}
		//
		return n
	case *ir.AccessIndex:
		n.Base, n.Index = foldExpr(n.Base), foldExpr(n.Index)
		return n
	case *ir.AccessField:
		n.Base = foldExpr(n.Base)
		return n
	case *ir.Assign:
		n.Target, n.Value = foldExpr(n.Target), foldExpr(n.Value)
		return n
	case *ir.CallFunction:
		for i := range n.Args {
			n.Args[i] = foldExpr(n.Args[i])
		}
		return n
	case *ir.IntrinsicCall:
		for i := range n.Args {
			n.Args[i] = foldExpr(n.Args[i])
		}
		return n
	case *ir.Swizzle:
		n.Base = foldExpr(n.Base)
		//
		if cv, ok := n.Base.(*ir.ConstantValue); ok {
			if v, ok := foldSwizzle(cv.Value, n.Components); ok {
				return &ir.ConstantValue{ExprBase: ir.ExprBase{NodeSpan: n.Span(), Typ: n.Type()}, Value: v}
			}
		}
		//
		return n
	case *ir.Cast:
		for i := range n.Values {
			n.Values[i] = foldExpr(n.Values[i])
		}
		//
		if v, ok := foldCast(n); ok {
			return &ir.ConstantValue{ExprBase: ir.ExprBase{NodeSpan: n.Span(), Typ: n.Type()}, Value: v}
		}
		//
		return n
	}
	//
	return e
}

// foldSwizzle folds a swizzle whose base is already constant:
// `vec4(a,b,c,d).yzwx` becomes `vec4(b,c,d,a)`, and a scalar base broadcasts
// (`k.xxx` -> `vec3(K,K,K)`).
func foldSwizzle(v ir.Value, components []uint8) (ir.Value, bool) {
	var lanes []ir.Bits
	//
	switch vv := v.(type) {
	case ir.Single:
		lanes = []ir.Bits{vv.V}
	case ir.Vector2:
		lanes = []ir.Bits{vv.X, vv.Y}
	case ir.Vector3:
		lanes = []ir.Bits{vv.X, vv.Y, vv.Z}
	case ir.Vector4:
		lanes = []ir.Bits{vv.X, vv.Y, vv.Z, vv.W}
	default:
		return nil, false
	}
	//
	picked := make([]ir.Bits, len(components))
	for i, c := range components {
		if int(c) >= len(lanes) {
			return nil, false
		}
		//
		picked[i] = lanes[c]
	}
	//
	return vectorValue(picked)
}

// foldCast folds a Cast whose operands are all constants: a one-operand
// scalar cast applies the scalar conversion rules (i32<->u32 bit-casts,
// int<->float value conversions), and a vector constructor whose scalar
// components are all constant becomes a constant vector.
func foldCast(n *ir.Cast) (ir.Value, bool) {
	switch target := n.Type().(type) {
	case ir.Scalar:
		if len(n.Values) != 1 {
			return nil, false
		}
		//
		cv, ok := n.Values[0].(*ir.ConstantValue)
		if !ok {
			return nil, false
		}
		//
		single, ok := cv.Value.(ir.Single)
		if !ok {
			return nil, false
		}
		//
		return ir.Single{V: convertScalar(single.V, target.Base)}, true
	case ir.Vector:
		if len(n.Values) != target.N {
			return nil, false
		}
		//
		lanes := make([]ir.Bits, len(n.Values))
		for i, val := range n.Values {
			cv, ok := val.(*ir.ConstantValue)
			if !ok {
				return nil, false
			}
			//
			single, ok := cv.Value.(ir.Single)
			if !ok {
				return nil, false
			}
			//
			lanes[i] = convertScalar(single.V, target.Base)
		}
		//
		return vectorValue(lanes)
	}
	//
	return nil, false
}

func vectorValue(lanes []ir.Bits) (ir.Value, bool) {
	switch len(lanes) {
	case 1:
		return ir.Single{V: lanes[0]}, true
	case 2:
		return ir.Vector2{X: lanes[0], Y: lanes[1]}, true
	case 3:
		return ir.Vector3{X: lanes[0], Y: lanes[1], Z: lanes[2]}, true
	case 4:
		return ir.Vector4{X: lanes[0], Y: lanes[1], Z: lanes[2], W: lanes[3]}, true
	}
	//
	return nil, false
}

func isFloatBase(b ir.Base) bool {
	return b == ir.BaseF32 || b == ir.BaseF64
}

// convertScalar applies the scalar cast rules to a constant:
// i32<->u32 is a bit-cast, int<->float a value conversion, float<->float a
// no-op under the shared float64-bit storage convention.
func convertScalar(v ir.Bits, to ir.Base) ir.Bits {
	if v.Base == to {
		return v
	}
	//
	switch {
	case isFloatBase(v.Base) && isFloatBase(to):
		return ir.Bits{Base: to, Bits: v.Bits}
	case isFloatBase(v.Base):
		f := math.Float64frombits(v.Bits)
		if to == ir.BaseI32 {
			return ir.Bits{Base: to, Bits: uint64(uint32(int32(f)))}
		}
		//
		return ir.Bits{Base: to, Bits: uint64(uint32(f))}
	case isFloatBase(to):
		var f float64
		if v.Base == ir.BaseI32 {
			f = float64(int32(v.Bits))
		} else {
			f = float64(uint32(v.Bits))
		}
		//
		return ir.Bits{Base: to, Bits: math.Float64bits(f)}
	}
	//
	return ir.Bits{Base: to, Bits: v.Bits & 0xFFFFFFFF}
}

// foldBinary folds a binary operation over two scalar constants:
// i32/u32 arithmetic wraps modulo 2^32 (i32 ops are signed where the results
// differ -- division, modulo, ordering), f32/f64 arithmetic follows IEEE-754
// via Go's native float ops, comparisons yield a bool constant, and the
// bitwise/shift family applies to integers only.
func foldBinary(op ir.BinOp, l, r ir.Value) (ir.Value, bool) {
	ls, lok := l.(ir.Single)
	rs, rok := r.(ir.Single)
	//
	if !lok || !rok || ls.V.Base != rs.V.Base {
		return nil, false
	}
	//
	base := ls.V.Base
	//
	switch base {
	case ir.BaseBool:
		lb, rb := ls.V.Bits != 0, rs.V.Bits != 0
		//
		switch op {
		case ir.BinAnd:
			return boolConst(lb && rb), true
		case ir.BinOr:
			return boolConst(lb || rb), true
		case ir.BinEq:
			return boolConst(lb == rb), true
		case ir.BinNeq:
			return boolConst(lb != rb), true
		}
		//
		return nil, false
	case ir.BaseF32, ir.BaseF64:
		lf, rf := math.Float64frombits(ls.V.Bits), math.Float64frombits(rs.V.Bits)
		//
		var out float64
		//
		switch op {
		case ir.BinAdd:
			out = lf + rf
		case ir.BinSub:
			out = lf - rf
		case ir.BinMul:
			out = lf * rf
		case ir.BinDiv:
			out = lf / rf
		case ir.BinMod:
			out = math.Mod(lf, rf)
		case ir.BinEq:
			return boolConst(lf == rf), true
		case ir.BinNeq:
			return boolConst(lf != rf), true
		case ir.BinLt:
			return boolConst(lf < rf), true
		case ir.BinLe:
			return boolConst(lf <= rf), true
		case ir.BinGt:
			return boolConst(lf > rf), true
		case ir.BinGe:
			return boolConst(lf >= rf), true
		default:
			return nil, false
		}
		//
		return ir.Single{V: ir.Bits{Base: base, Bits: math.Float64bits(out)}}, true
	case ir.BaseI32:
		li, ri := int32(ls.V.Bits), int32(rs.V.Bits)
		//
		var out int32
		//
		switch op {
		case ir.BinAdd:
			out = li + ri
		case ir.BinSub:
			out = li - ri
		case ir.BinMul:
			out = li * ri
		case ir.BinDiv:
			if ri == 0 {
				return nil, false
			}
			//
			out = li / ri
		case ir.BinMod:
			if ri == 0 {
				return nil, false
			}
			//
			out = li % ri
		case ir.BinBitAnd:
			out = li & ri
		case ir.BinBitOr:
			out = li | ri
		case ir.BinBitXor:
			out = li ^ ri
		case ir.BinShl:
			out = li << (uint32(ri) & 31)
		case ir.BinShr:
			out = li >> (uint32(ri) & 31)
		case ir.BinEq:
			return boolConst(li == ri), true
		case ir.BinNeq:
			return boolConst(li != ri), true
		case ir.BinLt:
			return boolConst(li < ri), true
		case ir.BinLe:
			return boolConst(li <= ri), true
		case ir.BinGt:
			return boolConst(li > ri), true
		case ir.BinGe:
			return boolConst(li >= ri), true
		default:
			return nil, false
		}
		//
		return ir.Single{V: ir.Bits{Base: base, Bits: uint64(uint32(out))}}, true
	case ir.BaseU32:
		li, ri := uint32(ls.V.Bits), uint32(rs.V.Bits)
		//
		var out uint32
		//
		switch op {
		case ir.BinAdd:
			out = li + ri
		case ir.BinSub:
			out = li - ri
		case ir.BinMul:
			out = li * ri
		case ir.BinDiv:
			if ri == 0 {
				return nil, false
			}
			//
			out = li / ri
		case ir.BinMod:
			if ri == 0 {
				return nil, false
			}
			//
			out = li % ri
		case ir.BinBitAnd:
			out = li & ri
		case ir.BinBitOr:
			out = li | ri
		case ir.BinBitXor:
			out = li ^ ri
		case ir.BinShl:
			out = li << (ri & 31)
		case ir.BinShr:
			out = li >> (ri & 31)
		case ir.BinEq:
			return boolConst(li == ri), true
		case ir.BinNeq:
			return boolConst(li != ri), true
		case ir.BinLt:
			return boolConst(li < ri), true
		case ir.BinLe:
			return boolConst(li <= ri), true
		case ir.BinGt:
			return boolConst(li > ri), true
		case ir.BinGe:
			return boolConst(li >= ri), true
		default:
			return nil, false
		}
		//
		return ir.Single{V: ir.Bits{Base: base, Bits: uint64(out)}}, true
	}
	//
	return nil, false
}

func boolConst(b bool) ir.Value {
	bits := uint64(0)
	if b {
		bits = 1
	}
	//
	return ir.Single{V: ir.Bits{Base: ir.BaseBool, Bits: bits}}
}

func foldUnary(op ir.UnOp, v ir.Value) (ir.Value, bool) {
	s, ok := v.(ir.Single)
	if !ok {
		return nil, false
	}
	//
	switch op {
	case ir.UnaryNeg:
		switch s.V.Base {
		case ir.BaseF32, ir.BaseF64:
			f := -math.Float64frombits(s.V.Bits)
			return ir.Single{V: ir.Bits{Base: s.V.Base, Bits: math.Float64bits(f)}}, true
		case ir.BaseI32:
			i := -int32(s.V.Bits)
			return ir.Single{V: ir.Bits{Base: s.V.Base, Bits: uint64(uint32(i))}}, true
		}
	case ir.UnaryNot:
		if s.V.Base == ir.BaseBool {
			return boolConst(s.V.Bits == 0), true
		}
	case ir.UnaryBitNot:
		if s.V.Base == ir.BaseI32 || s.V.Base == ir.BaseU32 {
			return ir.Single{V: ir.Bits{Base: s.V.Base, Bits: uint64(^uint32(s.V.Bits))}}, true
		}
	}
	//
	return nil, false
}
