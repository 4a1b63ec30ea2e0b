package passes

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// TableKind names which TransformerContext table an index refers to, so a
// single RemapFunc can dispatch on where an index lives.
type TableKind uint8

const (
	KindVariable TableKind = iota
	KindConst
	KindFunction
	KindStruct
	KindAlias
	KindExternal
	KindModule
)

// RemapFunc maps an old index of the given kind to its replacement. A
// RemapFunc that returns old unchanged for a kind it doesn't care about is
// always safe to compose.
type RemapFunc func(kind TableKind, old uint32) uint32

// IndexRemapper is step 13 of the pipeline: given a caller-supplied
// RemapFunc, it rewrites every index reference reachable from a
// subtree. As a standalone pipeline stage with no
// Remap configured it is a no-op identity pass; its main use is as the
// RemapStmts helper below, called directly by LoopUnroll on
// each cloned loop body rather than through the executor.
type IndexRemapper struct {
	Remap RemapFunc
}

func (p *IndexRemapper) Name() string { return "IndexRemapper" }

func (p *IndexRemapper) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	if p.Remap == nil {
		return nil
	}
	//
	for i := range mod.Functions {
		fn := &mod.Functions[i]
		if fn.Body != nil {
			RemapStmts(fn.Body.Stmts, p.Remap)
		}
	}
	//
	return nil
}

// RemapStmts rewrites every index-carrying node reachable from stmts in
// place, using remap to translate each one.
func RemapStmts(stmts []ir.Statement, remap RemapFunc) {
	v := &transform.Visitor{
		VisitStmt: func(s ir.Statement, _ []ir.Statement) transform.StmtResult {
			switch n := s.(type) {
			case *ir.DeclareVariable:
				n.VarIndex = remap(KindVariable, n.VarIndex)
			case *ir.DeclareConst:
				n.ConstIndex = remap(KindConst, n.ConstIndex)
			case *ir.DeclareAlias:
				n.AliasIndex = remap(KindAlias, n.AliasIndex)
			case *ir.For:
				n.VarIndex = remap(KindVariable, n.VarIndex)
			case *ir.ForEach:
				n.VarIndex = remap(KindVariable, n.VarIndex)
			case *ir.Import:
				n.ModuleIndex = remap(KindModule, n.ModuleIndex)
			}
			//
			return transform.StmtResult{Action: transform.VisitChildren}
		},
		VisitExpr: func(e ir.Expression, _ []ir.Statement) transform.ExprResult {
			switch n := e.(type) {
			case *ir.Identifier:
				n.VarIndex = remap(KindVariable, n.VarIndex)
			case *ir.AccessConst:
				n.ConstIndex = remap(KindConst, n.ConstIndex)
			case *ir.AccessExternal:
				n.ExternalIndex = remap(KindExternal, n.ExternalIndex)
			case *ir.AccessIdentifier:
				n.ModuleIndex = remap(KindModule, n.ModuleIndex)
				n.VarIndex = remap(KindVariable, n.VarIndex)
			case *ir.CallFunction:
				n.FunctionIndex = remap(KindFunction, n.FunctionIndex)
			}
			//
			return transform.ExprResult{Action: transform.VisitChildren}
		},
	}
	//
	transform.Walk(v, stmts)
}
