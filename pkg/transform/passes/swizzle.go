package passes

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// Swizzle is step 12 of the pipeline: it lowers
// every ir.Swizzle node Resolve left behind into back-end-neutral form.
// Reading a scalar broadcast (`a.xxx`) becomes a Cast constructor
// (`vec3(a, a, a)`); reading a vector swizzle becomes itself, unchanged,
// since ir.Swizzle already is the target shape for a read. Writing through
// a non-trivial (reordering or partial) swizzle -- the left side of an
// Assign -- has no single-instruction target form on most back-ends, so it
// is rewritten into a load-shuffle-store: `v = shuffle(v, new_components)`
// assembled from the unaffected original components plus the assigned
// ones.
type Swizzle struct{}

func (p *Swizzle) Name() string { return "Swizzle" }

func (p *Swizzle) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	v := &transform.Visitor{
		VisitExpr: func(e ir.Expression, _ []ir.Statement) transform.ExprResult {
			switch n := e.(type) {
			case *ir.Assign:
				if target, ok := n.Target.(*ir.Swizzle); ok {
					return transform.ExprResult{Action: transform.VisitChildren, Replace: lowerSwizzleWrite(n, target)}
				}
			case *ir.Swizzle:
				if _, ok := n.Base.Type().(ir.Scalar); ok {
					return transform.ExprResult{Action: transform.VisitChildren, Replace: lowerScalarBroadcast(n)}
				}
			}
			//
			return transform.ExprResult{Action: transform.VisitChildren}
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

// lowerScalarBroadcast turns `a.xxx` (N copies of the only valid scalar
// component) into `vecN(a, a, ..., a)`.
func lowerScalarBroadcast(n *ir.Swizzle) ir.Expression {
	values := make([]ir.Expression, len(n.Components))
	for i := range values {
		values[i] = n.Base
	}
	//
	return &ir.Cast{ExprBase: n.ExprBase, Values: values}
}

// lowerSwizzleWrite rewrites `v.zx = value` (value is either a vector
// matching len(target.Components), or a scalar when len == 1) into
// `v = shuffle(v, value)`: a full-width Cast reconstructing every lane of
// the base vector, substituting the assigned lanes with value's
// components and leaving every other lane as a read of its current
// value.
func lowerSwizzleWrite(n *ir.Assign, target *ir.Swizzle) ir.Expression {
	vecType, ok := target.Base.Type().(ir.Vector)
	if !ok {
		return n
	}
	//
	assigned := make(map[uint8]ir.Expression, len(target.Components))
	for i, c := range target.Components {
		assigned[c] = componentOf(n.Value, vecType, i, len(target.Components))
	}
	//
	lanes := make([]ir.Expression, vecType.N)
	for i := range lanes {
		if v, ok := assigned[uint8(i)]; ok {
			lanes[i] = v
			continue
		}
		//
		lanes[i] = &ir.AccessIndex{
			ExprBase: ir.ExprBase{NodeSpan: n.Span(), Typ: ir.Scalar{Base: vecType.Base}},
			Base:     target.Base,
			Index:    indexConst(i),
		}
	}
	//
	shuffled := &ir.Cast{ExprBase: ir.ExprBase{NodeSpan: n.Span(), Typ: vecType}, Values: lanes}
	return &ir.Assign{ExprBase: n.ExprBase, Op: ir.AssignPlain, Target: target.Base, Value: shuffled}
}

// componentOf extracts the i-th lane out of value when the write assigns
// more than one component at once (value is itself a vector, e.g. `v.xy =
// other.zw`); when only a single component is being written, value is
// already scalar and is used as-is.
func componentOf(value ir.Expression, vecType ir.Vector, i, total int) ir.Expression {
	if total == 1 {
		return value
	}
	//
	return &ir.AccessIndex{
		ExprBase: ir.ExprBase{NodeSpan: value.Span(), Typ: ir.Scalar{Base: vecType.Base}},
		Base:     value,
		Index:    indexConst(i),
	}
}

func indexConst(i int) ir.Expression {
	return &ir.ConstantValue{ExprBase: ir.ExprBase{Typ: ir.I32}, Value: ir.Single{V: ir.Bits{Base: ir.BaseI32, Bits: uint64(i)}}}
}
