package passes

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/source"
)

// ModuleLookup resolves an already-compiled import by name, returning the
// dependency's Module. A nil ModuleLookup is valid for a single-module
// compile with no module resolver wired in.
type ModuleLookup func(name string) (*ir.Module, bool)

// ImportResolver is step 2 of the pipeline. The actual binding of imported
// names happens during Resolve, which needs the dependency's exports in
// scope while it resolves the importer's own function bodies; this pass
// verifies the result -- every mod.Imports index names a registered module
// entry, and each imported module still resolves through Lookup. A module
// that vanished between Resolve and this pass (e.g. deleted on disk under a
// watching resolver) is reported as CModuleNotFound rather than silently
// carried forward.
type ImportResolver struct {
	Lookup ModuleLookup
}

func (p *ImportResolver) Name() string { return "ImportResolver" }

func (p *ImportResolver) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	var diags []errors.Diagnostic
	//
	for _, idx := range mod.Imports {
		if int(idx) >= ctx.Modules.Len() {
			diags = append(diags, *errors.New(errors.Ast, errors.AstInvalidIndex, source.NoSpan,
				"import references unknown module index %d", idx))
			continue
		}
		//
		entry := ctx.Modules.Get(idx)
		//
		if p.Lookup == nil {
			continue
		}
		//
		if _, ok := p.Lookup(entry.Name); !ok {
			diags = append(diags, *errors.New(errors.Compilation, errors.CModuleNotFound, source.NoSpan,
				"imported module %q not found", entry.Name))
		}
	}
	//
	return diags
}
