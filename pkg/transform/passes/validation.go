package passes

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// Validation is step 18, the last pass of the pipeline: a last-resort
// structural sweep checking invariants every earlier pass is supposed to have
// already established -- every expression has a concrete cached type, no
// untyped literal survives (unless AllowUntypedLiterals), intrinsic calls get
// the right argument count, and every CallFunction's argument count matches
// its target's parameter count. Anything this pass reports means an earlier
// pass left the module in a state no back-end can safely consume.
type Validation struct {
	// AllowUntypedLiterals mirrors CompilationConfig.AllowUntypedLiterals:
	// when true, a surviving IntLiteral/FloatLiteral type is tolerated
	// (the back-end is expected to pick a default itself).
	AllowUntypedLiterals bool
}

func (p *Validation) Name() string { return "Validation" }

func (p *Validation) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	var diags []errors.Diagnostic
	//
	v := &transform.Visitor{
		VisitExpr: func(e ir.Expression, _ []ir.Statement) transform.ExprResult {
			diags = append(diags, p.checkExpr(mod, ctx, e)...)
			return transform.ExprResult{Action: transform.VisitChildren}
		},
	}
	//
	for i := range mod.Functions {
		fn := &mod.Functions[i]
		if fn.Body != nil {
			transform.Walk(v, fn.Body.Stmts)
		}
	}
	//
	if !p.AllowUntypedLiterals {
		for _, c := range mod.Consts {
			if c.Init != nil && isUntypedLiteral(c.Type) {
				diags = append(diags, *errors.New(errors.Compilation, errors.CTypeMismatch, c.Init.Span(),
					"const %q has an untyped literal type", c.Name))
			}
		}
	}
	//
	return diags
}

func (p *Validation) checkExpr(mod *ir.Module, ctx *context.TransformerContext, e ir.Expression) []errors.Diagnostic {
	var diags []errors.Diagnostic
	//
	switch e.Type().(type) {
	case ir.NoType:
		diags = append(diags, *errors.New(errors.Ast, errors.AstMissingType, e.Span(),
			"expression has no resolved type"))
	case ir.IntLiteral, ir.FloatLiteral:
		if !p.AllowUntypedLiterals {
			diags = append(diags, *errors.New(errors.Compilation, errors.CTypeMismatch, e.Span(),
				"untyped literal survived to validation"))
		}
	}
	//
	switch n := e.(type) {
	case *ir.Identifier:
		if int(n.VarIndex) >= ctx.Variables.Len() {
			diags = append(diags, *errors.New(errors.Ast, errors.AstInvalidIndex, e.Span(),
				"reference to unknown variable index %d", n.VarIndex))
		}
	case *ir.AccessConst:
		if int(n.ConstIndex) >= ctx.Consts.Len() {
			diags = append(diags, *errors.New(errors.Ast, errors.AstInvalidIndex, e.Span(),
				"reference to unknown const index %d", n.ConstIndex))
		}
	case *ir.AccessIdentifier:
		if int(n.ModuleIndex) >= ctx.Modules.Len() {
			diags = append(diags, *errors.New(errors.Ast, errors.AstInvalidIndex, e.Span(),
				"reference to unknown module index %d", n.ModuleIndex))
		}
		//
		if int(n.VarIndex) >= ctx.Variables.Len() {
			diags = append(diags, *errors.New(errors.Ast, errors.AstInvalidIndex, e.Span(),
				"module member reference to unknown variable index %d", n.VarIndex))
		}
	case *ir.AccessField:
		if structIdx, ok := fieldStructIndex(n.Base.Type()); ok {
			if int(structIdx) >= len(mod.Structs) {
				diags = append(diags, *errors.New(errors.Ast, errors.AstInvalidIndex, e.Span(),
					"field access through unknown struct index %d", structIdx))
			} else if int(n.FieldIndex) >= len(mod.Structs[structIdx].Fields) {
				diags = append(diags, *errors.New(errors.Ast, errors.AstInvalidIndex, e.Span(),
					"field index %d out of range for struct %q", n.FieldIndex, mod.Structs[structIdx].Name))
			}
		}
	case *ir.CallFunction:
		if int(n.FunctionIndex) >= len(mod.Functions) {
			diags = append(diags, *errors.New(errors.Ast, errors.AstInvalidIndex, e.Span(),
				"call references unknown function index %d", n.FunctionIndex))
			break
		}
		//
		fn := mod.Functions[n.FunctionIndex]
		if len(n.Args) != len(fn.Params) {
			diags = append(diags, *errors.New(errors.Compilation, errors.CIntrinsicSignatureMismatch, e.Span(),
				"call to %q passes %d argument(s), expected %d", fn.Name, len(n.Args), len(fn.Params)))
		}
	case *ir.IntrinsicCall:
		if want, ok := intrinsicArity[n.Kind]; ok && len(n.Args) != want {
			diags = append(diags, *errors.New(errors.Compilation, errors.CIntrinsicSignatureMismatch, e.Span(),
				"intrinsic call passes %d argument(s), expected %d", len(n.Args), want))
		}
	case *ir.AccessExternal:
		if int(n.ExternalIndex) >= len(mod.Externals) {
			diags = append(diags, *errors.New(errors.Ast, errors.AstInvalidIndex, e.Span(),
				"reference to unknown external index %d", n.ExternalIndex))
		}
	}
	//
	return diags
}

// fieldStructIndex reports the struct a field access reads through: a bare
// struct type directly, a buffer resource via its wrapped struct.
func fieldStructIndex(t ir.Type) (uint32, bool) {
	switch tt := t.(type) {
	case ir.Struct:
		return tt.Index, true
	case ir.Uniform:
		return tt.StructIndex, true
	case ir.Storage:
		return tt.StructIndex, true
	case ir.PushConstant:
		return tt.StructIndex, true
	}
	//
	return 0, false
}

// intrinsicArity names the fixed argument count for every intrinsic whose
// arity does not depend on its argument types; `mix`/`clamp` take 3,
// `min`/`max`/`pow`/`reflect` take 2, and everything else here is unary.
var intrinsicArity = map[ir.IntrinsicKind]int{
	ir.IntrinsicAbs: 1, ir.IntrinsicMin: 2, ir.IntrinsicMax: 2,
	ir.IntrinsicClamp: 3, ir.IntrinsicMix: 3, ir.IntrinsicPow: 2,
	ir.IntrinsicExp: 1, ir.IntrinsicExp2: 1, ir.IntrinsicLog: 1, ir.IntrinsicLog2: 1,
	ir.IntrinsicSqrt: 1, ir.IntrinsicInverseSqrt: 1,
	ir.IntrinsicFloor: 1, ir.IntrinsicCeil: 1, ir.IntrinsicFract: 1,
	ir.IntrinsicSin: 1, ir.IntrinsicCos: 1, ir.IntrinsicTan: 1,
	ir.IntrinsicDot: 2, ir.IntrinsicCross: 2, ir.IntrinsicLength: 1,
	ir.IntrinsicNormalize: 1, ir.IntrinsicReflect: 2,
}
