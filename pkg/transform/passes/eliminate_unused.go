package passes

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// EliminateUnused is step 17 of the pipeline: using
// a dependency graph rooted at every used shader stage's entry function, it
// removes functions, structs, and externals with no path to any entry
// point. Aliases are already gone by this point (the Alias pass, step 6,
// inlines and drops them). Module-level consts and options, and unused
// local variables, are not pruned here: they stay in the module whether
// referenced or not.
type EliminateUnused struct{}

func (p *EliminateUnused) Name() string { return "EliminateUnused" }

func (p *EliminateUnused) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	reachableFn := make(map[int]bool, len(mod.Functions))
	reachableExt := make(map[int]bool, len(mod.Externals))
	//
	var queue []int
	//
	for i, fn := range mod.Functions {
		if fn.Entry != ir.EntryNone {
			reachableFn[i] = true
			queue = append(queue, i)
		}
	}
	//
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		//
		fn := mod.Functions[i]
		if fn.Body == nil {
			continue
		}
		//
		collectRefs(fn.Body.Stmts, func(fnIdx uint32) {
			if !reachableFn[int(fnIdx)] {
				reachableFn[int(fnIdx)] = true
				queue = append(queue, int(fnIdx))
			}
		}, func(extIdx uint32) {
			reachableExt[int(extIdx)] = true
		})
	}
	//
	reachableStruct := make(map[int]bool, len(mod.Structs))
	//
	for i, fn := range mod.Functions {
		if !reachableFn[i] {
			continue
		}
		//
		for _, prm := range fn.Params {
			markStructs(mod, reachableStruct, prm.Type)
		}
		//
		markStructs(mod, reachableStruct, fn.ReturnType)
	}
	//
	for i, ext := range mod.Externals {
		if reachableExt[i] {
			markStructs(mod, reachableStruct, ext.Type)
		}
	}
	//
	newFnIdx, newFunctions := compactFunctions(mod.Functions, reachableFn)
	newExtIdx, newExternals := compactExternals(mod.Externals, reachableExt)
	newStructIdx, newStructs := compactStructs(mod.Structs, reachableStruct)
	//
	for i := range newStructs {
		for j := range newStructs[i].Fields {
			newStructs[i].Fields[j].Type = remapStructType(newStructs[i].Fields[j].Type, newStructIdx)
		}
	}
	//
	for i := range newFunctions {
		fn := &newFunctions[i]
		for j := range fn.Params {
			fn.Params[j].Type = remapStructType(fn.Params[j].Type, newStructIdx)
		}
		//
		fn.ReturnType = remapStructType(fn.ReturnType, newStructIdx)
		//
		if fn.Body != nil {
			RemapStmts(fn.Body.Stmts, func(kind TableKind, old uint32) uint32 {
				switch kind {
				case KindFunction:
					return newFnIdx[old]
				case KindExternal:
					return newExtIdx[old]
				}
				//
				return old
			})
		}
	}
	//
	for i := range newExternals {
		newExternals[i].Type = remapStructType(newExternals[i].Type, newStructIdx)
	}
	//
	mod.Functions = newFunctions
	mod.Externals = newExternals
	mod.Structs = newStructs
	//
	return nil
}

// collectRefs walks stmts read-only, reporting every CallFunction and
// AccessExternal index it finds to the given callbacks.
func collectRefs(stmts []ir.Statement, onFn, onExt func(uint32)) {
	v := &transform.Visitor{
		VisitExpr: func(e ir.Expression, _ []ir.Statement) transform.ExprResult {
			switch n := e.(type) {
			case *ir.CallFunction:
				onFn(n.FunctionIndex)
			case *ir.AccessExternal:
				onExt(n.ExternalIndex)
			}
			//
			return transform.ExprResult{Action: transform.VisitChildren}
		},
	}
	//
	transform.Walk(v, stmts)
}

// markStructs marks t's ir.Struct index (and every struct reachable from
// its fields, transitively) as used.
func markStructs(mod *ir.Module, seen map[int]bool, t ir.Type) {
	switch tt := t.(type) {
	case ir.Struct:
		if seen[int(tt.Index)] {
			return
		}
		//
		seen[int(tt.Index)] = true
		//
		if int(tt.Index) < len(mod.Structs) {
			for _, f := range mod.Structs[tt.Index].Fields {
				markStructs(mod, seen, f.Type)
			}
		}
	case ir.Array:
		markStructs(mod, seen, tt.Elem)
	case ir.DynArray:
		markStructs(mod, seen, tt.Elem)
	case ir.Uniform:
		markStructs(mod, seen, ir.Struct{Index: tt.StructIndex})
	case ir.Storage:
		markStructs(mod, seen, ir.Struct{Index: tt.StructIndex})
	case ir.PushConstant:
		markStructs(mod, seen, ir.Struct{Index: tt.StructIndex})
	}
}

// remapStructType rewrites every ir.Struct.Index reachable from t using
// newIdx, leaving every other type unchanged.
func remapStructType(t ir.Type, newIdx map[uint32]uint32) ir.Type {
	switch tt := t.(type) {
	case ir.Struct:
		return ir.Struct{Index: newIdx[tt.Index]}
	case ir.Array:
		return ir.Array{Elem: remapStructType(tt.Elem, newIdx), Length: tt.Length}
	case ir.DynArray:
		return ir.DynArray{Elem: remapStructType(tt.Elem, newIdx)}
	case ir.Uniform:
		return ir.Uniform{StructIndex: newIdx[tt.StructIndex]}
	case ir.Storage:
		return ir.Storage{StructIndex: newIdx[tt.StructIndex], Access: tt.Access}
	case ir.PushConstant:
		return ir.PushConstant{StructIndex: newIdx[tt.StructIndex]}
	}
	//
	return t
}

func compactFunctions(fns []ir.FunctionDef, keep map[int]bool) (map[uint32]uint32, []ir.FunctionDef) {
	newIdx := make(map[uint32]uint32, len(fns))
	out := make([]ir.FunctionDef, 0, len(fns))
	//
	for i, fn := range fns {
		if !keep[i] {
			continue
		}
		//
		newIdx[uint32(i)] = uint32(len(out))
		out = append(out, fn)
	}
	//
	return newIdx, out
}

func compactExternals(exts []ir.ExternalBinding, keep map[int]bool) (map[uint32]uint32, []ir.ExternalBinding) {
	newIdx := make(map[uint32]uint32, len(exts))
	out := make([]ir.ExternalBinding, 0, len(exts))
	//
	for i, e := range exts {
		if !keep[i] {
			continue
		}
		//
		newIdx[uint32(i)] = uint32(len(out))
		out = append(out, e)
	}
	//
	return newIdx, out
}

func compactStructs(structs []ir.StructDef, keep map[int]bool) (map[uint32]uint32, []ir.StructDef) {
	newIdx := make(map[uint32]uint32, len(structs))
	out := make([]ir.StructDef, 0, len(structs))
	//
	for i, s := range structs {
		if !keep[i] {
			continue
		}
		//
		newIdx[uint32(i)] = uint32(len(out))
		out = append(out, s)
	}
	//
	return newIdx, out
}
