// Package compile wires the front-end (lexer, parser, Resolve) and the
// standard pass pipeline into the single top-level entry point a host
// calls to go from raw source text to a fully transformed ir.Module, one
// module per source file, linked through its imports.
package compile

import (
	"github.com/nzsl-lang/nzslc/pkg/ast"
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/lexer"
	"github.com/nzsl-lang/nzslc/pkg/module"
	"github.com/nzsl-lang/nzslc/pkg/parser"
	"github.com/nzsl-lang/nzslc/pkg/source"
	"github.com/nzsl-lang/nzslc/pkg/transform"
	"github.com/nzsl-lang/nzslc/pkg/transform/passes"
)

// CompilationConfig carries the knobs that change how a module is
// compiled without changing its source text.
type CompilationConfig struct {
	// PartialCompilation relaxes ConstantPropagation's RequireConstant
	// check, allowing an array length or option default to remain
	// non-constant past that pass instead of being reported immediately.
	// The relaxed boundary is still enforced exactly once, by Validation,
	// regardless of this flag.
	PartialCompilation bool
	// AllowUntypedLiterals is threaded straight into Validation's
	// same-named field.
	AllowUntypedLiterals bool
	// EntryOnly restricts which shader-stage entry functions are treated
	// as compilation roots; a nil/empty slice means "every entry function
	// in the module". Functions not named here have their EntryStage
	// cleared before EliminateUnused runs, so EliminateUnused's normal
	// entry-rooted reachability sweep also prunes the unrequested entries
	// (and anything only they referenced).
	EntryOnly []string
}

// Result is everything CompileSource and CompileAST produce: the transformed module, the
// TransformerContext it was built against (callers needing a back-end
// must reuse this context, never a fresh one, since the module's indices
// are only meaningful relative to it), and any diagnostics.
type Result struct {
	Module *ir.Module
	Ctx    *context.TransformerContext
	Diags  []errors.Diagnostic
}

// CompileSource lexes, parses, resolves, and runs the standard pass
// pipeline over a single source file, returning the fully transformed
// module. resolver may be nil for a self-contained module with no
// imports; Resolve consults it to bind each dependency's exported
// declarations, and the ImportResolver pass consults it again to check
// that every import still resolves.
func CompileSource(config CompilationConfig, fs *source.FileSet, handle source.FileHandle, resolver module.Resolver) Result {
	file := fs.Get(handle)
	//
	toks, lexDiags := lexer.Tokenize(handle, file)
	if len(lexDiags) > 0 {
		return Result{Diags: lexDiags}
	}
	//
	astMod, parseDiags := parser.Parse(handle, toks)
	if len(parseDiags) > 0 {
		return Result{Diags: parseDiags}
	}
	//
	ctx := context.New()
	context.RegisterIntrinsics(ctx)
	//
	lookup := lookupFor(resolver)
	mod, resolveDiags := transform.Resolve(astMod, ctx, lookup)
	if len(resolveDiags) > 0 {
		return Result{Diags: resolveDiags}
	}
	//
	diags := applyEntryOnly(mod, config.EntryOnly)
	if len(diags) > 0 {
		return Result{Diags: diags}
	}
	//
	diags = checkEntryStageConflicts(mod)
	if len(diags) > 0 {
		return Result{Diags: diags}
	}
	//
	executor := transform.StandardPipeline(standardPassSet(config, resolver))
	//
	runDiags := executor.Run(mod, ctx)
	return Result{Module: mod, Ctx: ctx, Diags: runDiags}
}

// CompileAST runs Resolve and the standard pipeline over an already parsed
// module, skipping lexing/parsing -- useful for module.CompileFunc
// implementations and for tests that build an *ast.Module directly.
func CompileAST(config CompilationConfig, astMod *ast.Module, resolver module.Resolver) Result {
	ctx := context.New()
	context.RegisterIntrinsics(ctx)
	//
	lookup := lookupFor(resolver)
	mod, diags := transform.Resolve(astMod, ctx, lookup)
	if len(diags) > 0 {
		return Result{Diags: diags}
	}
	//
	if diags = applyEntryOnly(mod, config.EntryOnly); len(diags) > 0 {
		return Result{Diags: diags}
	}
	//
	if diags = checkEntryStageConflicts(mod); len(diags) > 0 {
		return Result{Diags: diags}
	}
	//
	executor := transform.StandardPipeline(standardPassSet(config, resolver))
	runDiags := executor.Run(mod, ctx)
	return Result{Module: mod, Ctx: ctx, Diags: runDiags}
}

// lookupFor adapts a module.Resolver to the lookup signature Resolve and
// ImportResolver consume; a nil resolver yields a nil lookup.
func lookupFor(resolver module.Resolver) func(name string) (*ir.Module, bool) {
	if resolver == nil {
		return nil
	}
	//
	return func(name string) (*ir.Module, bool) { return resolver.Resolve(name) }
}

func standardPassSet(config CompilationConfig, resolver module.Resolver) transform.PassSet {
	lookup := lookupFor(resolver)
	//
	return transform.PassSet{
		ImportResolver:        &passes.ImportResolver{Lookup: lookup},
		ConstantPropagation:   &passes.ConstantPropagation{RequireConstant: !config.PartialCompilation},
		ConstantRemoval:       &passes.ConstantRemoval{},
		Literal:               &passes.Literal{},
		Alias:                 &passes.Alias{},
		BranchSplitter:        &passes.BranchSplitter{},
		ForToWhile:            &passes.ForToWhile{},
		LoopUnroll:            &passes.LoopUnroll{},
		CompoundAssignment:    &passes.CompoundAssignment{},
		Matrix:                &passes.Matrix{},
		Swizzle:               &passes.Swizzle{},
		IndexRemapper:         &passes.IndexRemapper{},
		Std140Emulation:       &passes.Std140Emulation{},
		UniformStructToStd140: &passes.UniformStructToStd140{},
		StructAssignment:      &passes.StructAssignment{},
		BindingResolver:       &passes.BindingResolver{},
		EliminateUnused:       &passes.EliminateUnused{},
		Validation:            &passes.Validation{AllowUntypedLiterals: config.AllowUntypedLiterals},
	}
}

// applyEntryOnly clears EntryStage on every function not named in
// entryOnly, letting EliminateUnused's existing entry-rooted reachability
// sweep do the rest. An empty entryOnly keeps every entry function.
func applyEntryOnly(mod *ir.Module, entryOnly []string) []errors.Diagnostic {
	if len(entryOnly) == 0 {
		return nil
	}
	//
	keep := make(map[string]bool, len(entryOnly))
	for _, name := range entryOnly {
		keep[name] = true
	}
	//
	var diags []errors.Diagnostic
	found := make(map[string]bool, len(entryOnly))
	//
	for i := range mod.Functions {
		fn := &mod.Functions[i]
		if fn.Entry == ir.EntryNone {
			continue
		}
		//
		if keep[fn.Name] {
			found[fn.Name] = true
		} else {
			fn.Entry = ir.EntryNone
		}
	}
	//
	for _, name := range entryOnly {
		if !found[name] {
			diags = append(diags, *errors.New(errors.Compilation, errors.CUnknownIdentifier, source.NoSpan,
				"entry_only names %q, but no entry function with that name exists", name))
		}
	}
	//
	return diags
}

// checkEntryStageConflicts reports CEntryStageConflict when a module
// declares more than one entry function for the same shader stage (a
// module has at most one vertex, one fragment, and one compute entry
// point).
func checkEntryStageConflicts(mod *ir.Module) []errors.Diagnostic {
	seen := make(map[ir.EntryStage]string)
	var diags []errors.Diagnostic
	//
	for _, fn := range mod.Functions {
		if fn.Entry == ir.EntryNone {
			continue
		}
		//
		if prev, ok := seen[fn.Entry]; ok {
			diags = append(diags, *errors.New(errors.Compilation, errors.CEntryStageConflict, source.NoSpan,
				"%q conflicts with %q: both declare the same entry stage", fn.Name, prev))
			continue
		}
		//
		seen[fn.Entry] = fn.Name
	}
	//
	return diags
}
