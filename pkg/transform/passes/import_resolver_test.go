package passes_test

import (
	"testing"

	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform/passes"
)

func TestImportResolverAcceptsResolvableImports(t *testing.T) {
	ctx := context.New()
	modIdx := ctx.Modules.RegisterNamed("Math", context.ModuleEntry{Name: "Math"})
	//
	dep := &ir.Module{Metadata: ir.Metadata{Name: "Math"}}
	mod := &ir.Module{
		Metadata: ir.Metadata{Name: "importer"},
		Imports:  []uint32{modIdx},
	}
	//
	lookup := func(name string) (*ir.Module, bool) {
		if name == "Math" {
			return dep, true
		}
		//
		return nil, false
	}
	//
	if diags := (&passes.ImportResolver{Lookup: lookup}).Run(mod, ctx); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestImportResolverMissingModuleIsDiagnostic(t *testing.T) {
	ctx := context.New()
	modIdx := ctx.Modules.RegisterNamed("Nowhere", context.ModuleEntry{Name: "Nowhere"})
	//
	mod := &ir.Module{
		Metadata: ir.Metadata{Name: "importer"},
		Imports:  []uint32{modIdx},
	}
	//
	diags := (&passes.ImportResolver{Lookup: func(string) (*ir.Module, bool) { return nil, false }}).Run(mod, ctx)
	//
	if len(diags) != 1 || diags[0].Kind != errors.CModuleNotFound {
		t.Fatalf("expected CModuleNotFound, got %v", diags)
	}
}

func TestImportResolverDanglingModuleIndexIsDiagnostic(t *testing.T) {
	mod := &ir.Module{
		Metadata: ir.Metadata{Name: "importer"},
		Imports:  []uint32{7},
	}
	//
	diags := (&passes.ImportResolver{}).Run(mod, context.New())
	//
	if len(diags) != 1 || diags[0].Kind != errors.AstInvalidIndex {
		t.Fatalf("expected AstInvalidIndex, got %v", diags)
	}
}

func TestImportResolverNilLookupOnlyChecksWellFormedness(t *testing.T) {
	ctx := context.New()
	modIdx := ctx.Modules.RegisterNamed("Dep", context.ModuleEntry{Name: "Dep"})
	//
	mod := &ir.Module{
		Metadata: ir.Metadata{Name: "importer"},
		Imports:  []uint32{modIdx},
	}
	//
	if diags := (&passes.ImportResolver{}).Run(mod, ctx); len(diags) != 0 {
		t.Fatalf("a nil lookup must tolerate imports, got %v", diags)
	}
}
