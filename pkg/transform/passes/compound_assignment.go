package passes

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// compoundToBinary maps a compound AssignOp to the BinOp it expands to.
var compoundToBinary = map[ir.AssignOp]ir.BinOp{
	ir.AssignAdd: ir.BinAdd,
	ir.AssignSub: ir.BinSub,
	ir.AssignMul: ir.BinMul,
	ir.AssignDiv: ir.BinDiv,
	ir.AssignMod: ir.BinMod,
}

// CompoundAssignment is step 10 of the pipeline, a target-request pass: it
// rewrites `a op= b` into `a = a op b` for back-ends that cannot emit a
// compound assignment operator natively. The target expression node is
// reused as the Binary's left operand rather than copied into a temporary
// (it is always a plain Identifier/AccessField/AccessIndex chain by the
// time this pass runs, since NZSL has no assignment-expression-as-argument
// syntax).
type CompoundAssignment struct{}

func (p *CompoundAssignment) Name() string { return "CompoundAssignment" }

func (p *CompoundAssignment) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	v := &transform.Visitor{
		VisitExpr: func(e ir.Expression, _ []ir.Statement) transform.ExprResult {
			a, ok := e.(*ir.Assign)
			if !ok || a.Op == ir.AssignPlain {
				return transform.ExprResult{Action: transform.VisitChildren}
			}
			//
			binOp, ok := compoundToBinary[a.Op]
			if !ok {
				return transform.ExprResult{Action: transform.VisitChildren}
			}
			//
			expanded := &ir.Assign{
				ExprBase: a.ExprBase,
				Op:       ir.AssignPlain,
				Target:   a.Target,
				Value: &ir.Binary{
					ExprBase: ir.ExprBase{NodeSpan: a.Span(), Typ: a.Target.Type()},
					Op:       binOp, Lhs: a.Target, Rhs: a.Value,
				},
			}
			//
			return transform.ExprResult{Action: transform.VisitChildren, Replace: expanded}
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
