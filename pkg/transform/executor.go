package transform

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
)

// Pass is implemented by each of the 18 transform stages.
// Run is expected to mutate mod in place and return any diagnostics it
// raised, accumulated rather than panicked on.
type Pass interface {
	Name() string
	Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic
}

// TransformerExecutor runs an ordered list of passes to completion, one at
// a time, over the whole module, stopping at the first stage producing
// errors.
type TransformerExecutor struct {
	passes []Pass
}

// NewExecutor builds an executor running passes in the given order.
func NewExecutor(passes ...Pass) *TransformerExecutor {
	return &TransformerExecutor{passes: passes}
}

// Run executes every pass in order, stopping early (without running later
// passes) the first time a pass reports any diagnostic, since every later pass in the
// pipeline assumes the module produced by the one before it is internally
// consistent.
func (e *TransformerExecutor) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	for _, p := range e.passes {
		diags := p.Run(mod, ctx)
		if len(diags) > 0 {
			return diags
		}
	}
	return nil
}

// StandardPipeline returns the fixed 18-pass sequence that runs after
// Resolve has already lowered the surface ast.Module into an ir.Module --
// Resolve itself is not a Pass (its input is an *ast.Module, not an
// *ir.Module, so it can't share the Run signature) and must be called by
// the caller beforehand; see Resolve's doc comment. Back-ends that only
// need a subset (e.g. a back-end emitting native compound-assignment
// operators skipping CompoundAssignment) build their own executor from a
// filtered slice of this list instead.
func StandardPipeline(passes PassSet) *TransformerExecutor {
	return NewExecutor(
		passes.ImportResolver,
		passes.ConstantPropagation,
		passes.ConstantRemoval,
		passes.Literal,
		passes.Alias,
		passes.BranchSplitter,
		passes.ForToWhile,
		passes.LoopUnroll,
		passes.CompoundAssignment,
		passes.Matrix,
		passes.Swizzle,
		passes.IndexRemapper,
		passes.Std140Emulation,
		passes.UniformStructToStd140,
		passes.StructAssignment,
		passes.BindingResolver,
		passes.EliminateUnused,
		passes.Validation,
	)
}

// PassSet names the 18 standard post-Resolve passes by role so callers
// building a custom pipeline can still refer to them without caring which
// concrete type implements each one.
type PassSet struct {
	ImportResolver         Pass
	ConstantPropagation    Pass
	ConstantRemoval        Pass
	Literal                Pass
	Alias                  Pass
	BranchSplitter         Pass
	ForToWhile             Pass
	LoopUnroll             Pass
	CompoundAssignment     Pass
	Matrix                 Pass
	Swizzle                Pass
	IndexRemapper          Pass
	Std140Emulation        Pass
	UniformStructToStd140  Pass
	StructAssignment       Pass
	BindingResolver        Pass
	EliminateUnused        Pass
	Validation             Pass
}
