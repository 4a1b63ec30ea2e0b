package passes_test

import (
	"testing"

	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform/passes"
)

func TestBindingResolverArrayConsumesContiguousRange(t *testing.T) {
	mod := &ir.Module{
		Metadata: ir.Metadata{Name: "bindings"},
		Externals: []ir.ExternalBinding{
			{Name: "samplers", Type: ir.Array{Elem: ir.Sampler{Dim: ir.Dim2D, Base: ir.BaseF32}, Length: 3}, AutoAssigned: true},
			{Name: "single", Type: ir.Uniform{StructIndex: 0}, AutoAssigned: true},
		},
	}
	//
	diags := (&passes.BindingResolver{}).Run(mod, context.New())
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	//
	if got := mod.Externals[0].Binding; got != 0 {
		t.Fatalf("samplers: got binding %d, want 0", got)
	}
	//
	// The 3-element array occupies bindings 0-2, so the next free slot is 3.
	if got := mod.Externals[1].Binding; got != 3 {
		t.Fatalf("single: got binding %d, want 3", got)
	}
}

func TestBindingResolverFillsGapBetweenExplicitBindings(t *testing.T) {
	mod := &ir.Module{
		Metadata: ir.Metadata{Name: "bindings"},
		Externals: []ir.ExternalBinding{
			{Name: "a", Type: ir.Uniform{StructIndex: 0}, Binding: 0},
			{Name: "b", Type: ir.Uniform{StructIndex: 0}, Binding: 2},
			{Name: "auto", Type: ir.Uniform{StructIndex: 0}, AutoAssigned: true},
		},
	}
	//
	(&passes.BindingResolver{}).Run(mod, context.New())
	//
	if got := mod.Externals[2].Binding; got != 1 {
		t.Fatalf("expected the gap at binding 1 filled, got %d", got)
	}
}

func TestBindingResolverSetsPartitionIndependently(t *testing.T) {
	mod := &ir.Module{
		Metadata: ir.Metadata{Name: "bindings"},
		Externals: []ir.ExternalBinding{
			{Name: "s0", Type: ir.Uniform{StructIndex: 0}, Set: 0, Binding: 0},
			{Name: "s1auto", Type: ir.Uniform{StructIndex: 0}, Set: 1, AutoAssigned: true},
		},
	}
	//
	(&passes.BindingResolver{}).Run(mod, context.New())
	//
	if got := mod.Externals[1].Binding; got != 0 {
		t.Fatalf("set 1 numbers independently of set 0, got binding %d", got)
	}
}

func TestBindingResolverConditionalScopeIsSeparate(t *testing.T) {
	mod := &ir.Module{
		Metadata: ir.Metadata{Name: "bindings"},
		Externals: []ir.ExternalBinding{
			{Name: "base", Type: ir.Uniform{StructIndex: 0}, Binding: 0},
			{Name: "gated", Type: ir.Uniform{StructIndex: 0}, Cond: "UseShadow", AutoAssigned: true},
		},
	}
	//
	diags := (&passes.BindingResolver{}).Run(mod, context.New())
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	//
	// The conditional partition starts its own numbering at 0 even though
	// the unconditional partition already occupies binding 0.
	if got := mod.Externals[1].Binding; got != 0 {
		t.Fatalf("conditional external: got binding %d, want 0", got)
	}
}

func TestBindingResolverDuplicateExplicitBindingIsDiagnostic(t *testing.T) {
	mod := &ir.Module{
		Metadata: ir.Metadata{Name: "bindings"},
		Externals: []ir.ExternalBinding{
			{Name: "a", Type: ir.Uniform{StructIndex: 0}, Binding: 1},
			{Name: "b", Type: ir.Uniform{StructIndex: 0}, Binding: 1},
		},
	}
	//
	diags := (&passes.BindingResolver{}).Run(mod, context.New())
	if len(diags) != 1 {
		t.Fatalf("expected one duplicate-binding diagnostic, got %v", diags)
	}
}

func TestBindingResolverExplicitArrayOverlapIsDiagnostic(t *testing.T) {
	mod := &ir.Module{
		Metadata: ir.Metadata{Name: "bindings"},
		Externals: []ir.ExternalBinding{
			{Name: "arr", Type: ir.Array{Elem: ir.Sampler{Dim: ir.Dim2D, Base: ir.BaseF32}, Length: 4}, Binding: 0},
			{Name: "mid", Type: ir.Uniform{StructIndex: 0}, Binding: 2},
		},
	}
	//
	diags := (&passes.BindingResolver{}).Run(mod, context.New())
	if len(diags) != 1 {
		t.Fatalf("binding 2 lies inside the array's [0,4) range; got %v", diags)
	}
}
