package passes

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/source"
)

// BindingResolver is step 16 of the pipeline: it
// assigns a concrete (set, binding) to every `[auto_binding]` external,
// scanning the indices already in use within its scope and picking the
// first free slot, honoring array-sized bindings (an array of N resources
// consumes N contiguous indices). A `[cond(...)]` external lives in its
// own numbering scope, separate from the unconditional partition for the
// same set.
type BindingResolver struct{}

func (p *BindingResolver) Name() string { return "BindingResolver" }

// scopeKey partitions externals into independent binding-index spaces:
// one per (set, cond) pair, so a conditional external's numbering never
// collides with (or is constrained by) the default partition for the same
// set.
type scopeKey struct {
	set  uint32
	cond string
}

func (p *BindingResolver) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	var diags []errors.Diagnostic
	used := map[scopeKey]*bitset.BitSet{}
	//
	scope := func(k scopeKey) *bitset.BitSet {
		if bs, ok := used[k]; ok {
			return bs
		}
		//
		bs := bitset.New(0)
		used[k] = bs
		return bs
	}
	//
	// Pass 1: mark every explicitly-assigned binding's range as used,
	// flagging any overlap within the same scope.
	for i := range mod.Externals {
		e := &mod.Externals[i]
		if e.AutoAssigned {
			continue
		}
		//
		bs := scope(scopeKey{e.Set, e.Cond})
		width := bindingWidth(e.Type)
		//
		for off := uint32(0); off < width; off++ {
			idx := uint(e.Binding + off)
			if bs.Test(idx) {
				diags = append(diags, *errors.New(errors.Compilation, errors.CExtBindingAlreadyUsed, source.NoSpan,
					"external %q: binding (%d,%d) already used in this scope", e.Name, e.Set, e.Binding+off))
			}
			//
			bs.Set(idx)
		}
	}
	//
	// Pass 2: auto-assign the rest, in declaration order, against the same
	// per-scope occupancy bitsets pass 1 seeded.
	for i := range mod.Externals {
		e := &mod.Externals[i]
		if !e.AutoAssigned {
			continue
		}
		//
		bs := scope(scopeKey{e.Set, e.Cond})
		width := bindingWidth(e.Type)
		start := firstFreeRange(bs, width)
		e.Binding = start
		//
		for off := uint32(0); off < width; off++ {
			bs.Set(uint(start + off))
		}
	}
	//
	return diags
}

// bindingWidth reports how many contiguous binding indices e's type
// consumes: N for an array of N resources, 1 otherwise.
func bindingWidth(t ir.Type) uint32 {
	if arr, ok := t.(ir.Array); ok {
		return arr.Length
	}
	//
	return 1
}

// firstFreeRange scans from index 0 for the first position where width
// consecutive indices are all unset in bs.
func firstFreeRange(bs *bitset.BitSet, width uint32) uint32 {
	for start := uint32(0); ; start++ {
		free := true
		//
		for off := uint32(0); off < width; off++ {
			if bs.Test(uint(start + off)) {
				free = false
				break
			}
		}
		//
		if free {
			return start
		}
	}
}
