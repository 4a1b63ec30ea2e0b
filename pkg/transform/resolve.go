package transform

import (
	"math"

	"github.com/nzsl-lang/nzslc/pkg/ast"
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
)

// ModuleLookup resolves an imported module by name to its already-compiled
// form. Imported modules compile before their importer (topologically), so
// by the time Resolve runs the lookup can hand back a finished ir.Module.
type ModuleLookup func(name string) (*ir.Module, bool)

// Resolve lowers a parsed ast.Module into an ir.Module, registering every
// declaration into ctx's tables as it goes. Unlike the 18 pipeline
// passes, Resolve's input is the surface ast tree rather than an existing
// ir.Module, since it is the one stage that performs the AST -> IR
// lowering itself; pkg/compile invokes it directly before constructing a
// TransformerExecutor for the remaining passes.
//
// lookup resolves `import ... from "m";` dependencies so their exported
// names are bound into ctx before any function body is resolved -- a
// reference to an imported const/function/struct by its bare (or renamed)
// name resolves exactly like a local one. A nil lookup is valid for a
// self-contained module; imports then bind nothing and any reference to an
// imported name surfaces through Validation.
func Resolve(astMod *ast.Module, ctx *context.TransformerContext, lookup ModuleLookup) (*ir.Module, []errors.Diagnostic) {
	r := &resolver{ctx: ctx, lookup: lookup}
	mod := &ir.Module{
		Metadata: ir.Metadata{
			LangVersion:     astMod.Header.LangVersion,
			Name:            astMod.Header.Name,
			Author:          astMod.Header.Author,
			Description:     astMod.Header.Description,
			License:         astMod.Header.License,
			EnabledFeatures: map[string]bool{},
		},
	}
	//
	for _, f := range astMod.Header.EnabledFeatures {
		mod.Metadata.EnabledFeatures[f] = true
	}
	//
	// Imports bind ahead of everything else so declarations and function
	// bodies can reference an imported name exactly like a local one.
	for _, imp := range astMod.Imports {
		mod.Imports = append(mod.Imports, r.registerImport(mod, imp))
	}
	//
	// Pass 1: register every top-level name before resolving any bodies,
	// so forward references (a function calling one declared later in the
	// file) resolve correctly.
	for _, d := range astMod.Decls {
		r.preregister(d)
	}
	//
	// Pass 2: resolve bodies now that every name has a stable index.
	for _, d := range astMod.Decls {
		r.resolveDecl(mod, d)
	}
	//
	return mod, r.diags
}

// registerImport interns the imported module's name into ctx.Modules and
// binds its exported declarations into the importer's tables: every export
// for `import * from "m";`, or only the named (possibly renamed) items of
// `import {x, y as z} from "m";`. Struct references inside imported
// signatures and field types are reindexed into the importer's own struct
// table as they cross the module boundary.
func (r *resolver) registerImport(mod *ir.Module, n *ast.ImportDecl) uint32 {
	idx := r.ctx.Modules.RegisterNamed(n.ModuleName, context.ModuleEntry{Name: n.ModuleName})
	//
	if r.lookup == nil {
		return idx
	}
	//
	dep, ok := r.lookup(n.ModuleName)
	if !ok || dep == nil {
		r.err(errors.CModuleNotFound, n, "imported module %q not found", n.ModuleName)
		return idx
	}
	//
	imp := &importer{r: r, mod: mod, dep: dep, structIdx: map[uint32]uint32{}}
	//
	if n.WholeModule {
		imp.importAll()
		return idx
	}
	//
	for _, item := range n.Items {
		local := item.Alias
		if local == "" {
			local = item.Name
		}
		//
		if !imp.importNamed(item.Name, local) {
			r.err(errors.CUnknownIdentifier, n, "module %q has no exported declaration %q", n.ModuleName, item.Name)
		}
	}
	//
	return idx
}

// importer copies one dependency's exports into the importing module's
// context, tracking which of the dependency's structs have already crossed
// the boundary so each is reindexed exactly once.
type importer struct {
	r         *resolver
	mod       *ir.Module
	dep       *ir.Module
	structIdx map[uint32]uint32 // dep struct index -> importer struct index
}

func (im *importer) importAll() {
	for i := range im.dep.Structs {
		im.importStruct(uint32(i), im.dep.Structs[i].Name)
	}
	//
	for _, c := range im.dep.Consts {
		im.importConst(c, c.Name)
	}
	//
	for _, a := range im.dep.Aliases {
		im.importAlias(a, a.Name)
	}
	//
	for i := range im.dep.Functions {
		im.importFunction(im.dep.Functions[i], im.dep.Functions[i].Name)
	}
}

func (im *importer) importNamed(name, local string) bool {
	for i := range im.dep.Structs {
		if im.dep.Structs[i].Name == name {
			im.importStruct(uint32(i), local)
			return true
		}
	}
	//
	for _, c := range im.dep.Consts {
		if c.Name == name {
			im.importConst(c, local)
			return true
		}
	}
	//
	for _, a := range im.dep.Aliases {
		if a.Name == name {
			im.importAlias(a, local)
			return true
		}
	}
	//
	for _, f := range im.dep.Functions {
		if f.Name == name {
			im.importFunction(f, local)
			return true
		}
	}
	//
	return false
}

// importStruct reindexes the dependency's struct at depIdx into the
// importer's struct table (post-order over its field types, so any struct
// it references crosses first), registering it under local and appending
// the reindexed StructDef to the importing module so ctx.Structs and
// mod.Structs stay aligned index for index.
func (im *importer) importStruct(depIdx uint32, local string) uint32 {
	if idx, ok := im.structIdx[depIdx]; ok {
		return idx
	}
	//
	sd := im.dep.Structs[depIdx]
	fields := make([]ir.StructField, len(sd.Fields))
	//
	for i, f := range sd.Fields {
		fields[i] = ir.StructField{Name: f.Name, Type: im.reindexType(f.Type), Offset: f.Offset}
	}
	//
	idx := im.r.ctx.Structs.RegisterNamed(local, context.StructEntry{Name: local, Fields: fields})
	im.mod.Structs = append(im.mod.Structs, ir.StructDef{
		Name: local, Fields: fields, Layout: sd.Layout, Align: sd.Align, Size: sd.Size,
	})
	//
	im.structIdx[depIdx] = idx
	return idx
}

func (im *importer) importConst(c ir.ConstDef, local string) {
	im.r.ctx.Consts.RegisterNamed(local, context.ConstEntry{Name: local, Type: im.reindexType(c.Type), Value: c.Value})
}

func (im *importer) importAlias(a ir.AliasDef, local string) {
	im.r.ctx.Aliases.RegisterNamed(local, context.AliasEntry{Name: local, Target: im.reindexType(a.Target)})
}

// importFunction registers the dependency function's signature under local
// and appends a body-less FunctionDef to the importing module, so the
// importer's ctx.Functions and mod.Functions stay aligned and a call site
// type-checks against the real parameter list. The body stays with the
// dependency module (its statement tree indexes the dependency's own
// context); entry attributes do not cross the boundary.
func (im *importer) importFunction(f ir.FunctionDef, local string) {
	params := make([]ir.Param, len(f.Params))
	for i, p := range f.Params {
		params[i] = ir.Param{Name: p.Name, Type: im.reindexType(p.Type)}
	}
	//
	ret := im.reindexType(f.ReturnType)
	//
	im.r.ctx.Functions.RegisterNamed(local, context.FunctionEntry{Name: local, Params: params, Return: ret})
	im.mod.Functions = append(im.mod.Functions, ir.FunctionDef{Name: local, Params: params, ReturnType: ret})
}

// reindexType rewrites every dependency-relative struct index inside t to
// its index in the importer's table, importing referenced structs on
// demand (under their own names).
func (im *importer) reindexType(t ir.Type) ir.Type {
	switch tt := t.(type) {
	case ir.Struct:
		return ir.Struct{Index: im.importStruct(tt.Index, im.dep.Structs[tt.Index].Name)}
	case ir.Array:
		return ir.Array{Elem: im.reindexType(tt.Elem), Length: tt.Length}
	case ir.DynArray:
		return ir.DynArray{Elem: im.reindexType(tt.Elem)}
	case ir.Uniform:
		return ir.Uniform{StructIndex: im.importStruct(tt.StructIndex, im.dep.Structs[tt.StructIndex].Name)}
	case ir.Storage:
		return ir.Storage{StructIndex: im.importStruct(tt.StructIndex, im.dep.Structs[tt.StructIndex].Name), Access: tt.Access}
	case ir.PushConstant:
		return ir.PushConstant{StructIndex: im.importStruct(tt.StructIndex, im.dep.Structs[tt.StructIndex].Name)}
	case ir.Alias:
		return im.reindexType(tt.Target)
	}
	//
	return t
}

type resolver struct {
	ctx    *context.TransformerContext
	lookup ModuleLookup
	diags  []errors.Diagnostic
}

func (r *resolver) err(kind errors.Kind, d ast.Node, format string, args ...any) {
	r.diags = append(r.diags, *errors.New(errors.Compilation, kind, d.Span(), format, args...))
}

func (r *resolver) preregister(d ast.Decl) {
	switch n := d.(type) {
	case *ast.StructDecl:
		if _, _, ok := r.ctx.Structs.Retrieve(n.Name); ok {
			r.err(errors.CAlreadyDeclared, n, "struct %q already declared", n.Name)
			return
		}
		//
		r.ctx.Structs.RegisterNewIndex(n.Name)
	case *ast.FnDecl:
		if _, _, ok := r.ctx.Functions.Retrieve(n.Name); ok {
			r.err(errors.CAlreadyDeclared, n, "function %q already declared", n.Name)
			return
		}
		//
		r.ctx.Functions.RegisterNewIndex(n.Name)
	case *ast.ConstDecl:
		if _, _, ok := r.ctx.Consts.Retrieve(n.Name); ok {
			r.err(errors.CAlreadyDeclared, n, "const %q already declared", n.Name)
		}
	case *ast.OptionDecl:
		if _, _, ok := r.ctx.Consts.Retrieve(n.Name); ok {
			r.err(errors.CAlreadyDeclared, n, "option %q already declared", n.Name)
		}
	case *ast.AliasDecl:
		if _, _, ok := r.ctx.Aliases.Retrieve(n.Name); ok {
			r.err(errors.CAlreadyDeclared, n, "alias %q already declared", n.Name)
		}
	}
}

func (r *resolver) resolveDecl(mod *ir.Module, d ast.Decl) {
	switch n := d.(type) {
	case *ast.StructDecl:
		r.resolveStruct(mod, n)
	case *ast.FnDecl:
		r.resolveFn(mod, n)
	case *ast.ConstDecl:
		r.resolveConst(mod, n)
	case *ast.OptionDecl:
		r.resolveOption(mod, n)
	case *ast.AliasDecl:
		r.resolveAlias(mod, n)
	case *ast.ExternalDecl:
		r.resolveExternal(mod, n)
	}
}

func (r *resolver) resolveStruct(mod *ir.Module, n *ast.StructDecl) {
	def := ir.StructDef{Name: n.Name}
	//
	for _, f := range n.Fields {
		def.Fields = append(def.Fields, ir.StructField{Name: f.Name, Type: r.resolveType(f.Type)})
	}
	//
	mod.Structs = append(mod.Structs, def)
	//
	// A duplicate declaration was already reported during preregistration;
	// its table slot belongs to the first declaration and stays as-is.
	if _, tblIdx, ok := r.ctx.Structs.Retrieve(n.Name); ok && !r.ctx.Structs.IsUsed(tblIdx) {
		r.ctx.Structs.Register(tblIdx, context.StructEntry{Name: n.Name, Fields: def.Fields})
	}
}

func (r *resolver) resolveExternal(mod *ir.Module, n *ast.ExternalDecl) {
	for _, v := range n.Vars {
		binding := ir.ExternalBinding{Name: v.Name, Type: r.resolveType(v.Type)}
		//
		if a, ok := v.Attrs.Find("set"); ok {
			binding.Set = uint32(intLitArg(a, 0))
		}
		//
		if a, ok := v.Attrs.Find("binding"); ok {
			binding.Binding = uint32(intLitArg(a, 0))
			binding.AutoAssigned = false
		} else {
			binding.AutoAssigned = true
		}
		//
		if a, ok := v.Attrs.Find("cond"); ok {
			binding.Cond = stringLitArg(a, 0)
		}
		//
		mod.Externals = append(mod.Externals, binding)
		r.ctx.Externals.RegisterNamed(v.Name, context.ExternalEntry{Name: v.Name, Type: binding.Type})
	}
}

func intLitArg(a *ast.Attribute, i int) int64 {
	if i >= len(a.Args) {
		return 0
	}
	//
	if lit, ok := a.Args[i].(*ast.IntLitExpr); ok {
		return lit.Value
	}
	//
	return 0
}

func stringLitArg(a *ast.Attribute, i int) string {
	if i >= len(a.Args) {
		return ""
	}
	//
	if lit, ok := a.Args[i].(*ast.StringLitExpr); ok {
		return lit.Value
	}
	//
	if id, ok := a.Args[i].(*ast.IdentifierExpr); ok {
		return id.Name
	}
	//
	return ""
}

func (r *resolver) resolveFn(mod *ir.Module, n *ast.FnDecl) {
	def := ir.FunctionDef{Name: n.Name}
	//
	for _, p := range n.Params {
		ty := r.resolveType(p.Type)
		def.Params = append(def.Params, ir.Param{Name: p.Name, Type: ty})
		r.ctx.Variables.RegisterNamed(p.Name, context.VariableEntry{Name: p.Name, Type: ty})
	}
	//
	if n.ReturnType != nil {
		def.ReturnType = r.resolveType(*n.ReturnType)
	} else {
		def.ReturnType = ir.NoType{}
	}
	//
	if a, ok := n.Attrs.Find("entry"); ok {
		if len(a.Args) > 0 {
			if id, ok := a.Args[0].(*ast.IdentifierExpr); ok {
				switch id.Name {
				case "vert":
					def.Entry = ir.EntryVertex
				case "frag":
					def.Entry = ir.EntryFragment
				case "comp":
					def.Entry = ir.EntryCompute
				}
			}
		}
	}
	//
	def.Body = r.resolveBlock(n.Body)
	mod.Functions = append(mod.Functions, def)
	//
	if _, tblIdx, ok := r.ctx.Functions.Retrieve(n.Name); ok && !r.ctx.Functions.IsUsed(tblIdx) {
		r.ctx.Functions.Register(tblIdx, context.FunctionEntry{
			Name: n.Name, Params: def.Params, Return: def.ReturnType, Entry: def.Entry,
		})
	}
}

func (r *resolver) resolveBlock(b *ast.Block) *ir.Scoped {
	scoped := &ir.Scoped{}
	//
	for _, s := range b.Stmts {
		if st := r.resolveStmt(s); st != nil {
			scoped.Stmts = append(scoped.Stmts, st)
		}
	}
	//
	return scoped
}

func (r *resolver) resolveStmt(s ast.Stmt) ir.Statement {
	switch n := s.(type) {
	case *ast.LetStmt:
		val := r.resolveExpr(n.Value)
		var ty ir.Type
		//
		if n.Type != nil {
			ty = r.resolveType(*n.Type)
		} else {
			ty = val.Type()
		}
		//
		idx := r.ctx.Variables.RegisterNamed(n.Name, context.VariableEntry{Name: n.Name, Type: ty, Mut: n.Mut})
		return &ir.DeclareVariable{VarIndex: idx, Mut: n.Mut, Init: val}
	case *ast.IfStmt:
		br := &ir.Branch{Cond: r.resolveExpr(n.Cond), Then: r.resolveBlock(n.Then)}
		//
		if n.Else != nil {
			br.Else = r.resolveStmt(n.Else)
		}
		//
		return br
	case *ast.WhileStmt:
		return &ir.While{Cond: r.resolveExpr(n.Cond), Body: r.resolveBlock(n.Body)}
	case *ast.ForRangeStmt:
		idx := r.ctx.Variables.RegisterNamed(n.Var, context.VariableEntry{Name: n.Var, Type: ir.I32})
		return &ir.For{
			VarIndex: idx, From: r.resolveExpr(n.From), To: r.resolveExpr(n.To), Body: r.resolveBlock(n.Body),
			Unroll: n.Attrs.Has("unroll"),
		}
	case *ast.ForInStmt:
		rangeExpr := r.resolveExpr(n.Range)
		elemType := ir.Type(ir.NoType{})
		//
		if arr, ok := rangeExpr.Type().(ir.Array); ok {
			elemType = arr.Elem
		}
		//
		idx := r.ctx.Variables.RegisterNamed(n.Var, context.VariableEntry{Name: n.Var, Type: elemType})
		return &ir.ForEach{VarIndex: idx, Range: rangeExpr, Body: r.resolveBlock(n.Body), Unroll: n.Attrs.Has("unroll")}
	case *ast.BreakStmt:
		return &ir.Break{}
	case *ast.ContinueStmt:
		return &ir.Continue{}
	case *ast.DiscardStmt:
		return &ir.Discard{}
	case *ast.ReturnStmt:
		ret := &ir.Return{}
		//
		if n.Value != nil {
			ret.Value = r.resolveExpr(n.Value)
		}
		//
		return ret
	case *ast.Block:
		return r.resolveBlock(n)
	case *ast.ExprStmt:
		return &ir.ExprStmt{Expr: r.resolveExpr(n.Expr)}
	}
	//
	return &ir.NoOp{}
}

func (r *resolver) resolveConst(mod *ir.Module, n *ast.ConstDecl) {
	val := r.resolveExpr(n.Value)
	ty := val.Type()
	//
	if n.Type != nil {
		ty = r.resolveType(*n.Type)
	}
	//
	mod.Consts = append(mod.Consts, ir.ConstDef{Name: n.Name, Type: ty, Init: val})
	r.ctx.Consts.RegisterNamed(n.Name, context.ConstEntry{Name: n.Name, Type: ty})
}

func (r *resolver) resolveOption(mod *ir.Module, n *ast.OptionDecl) {
	ty := r.resolveType(n.Type)
	opt := ir.OptionDef{Name: n.Name, Type: ty}
	//
	if n.Default != nil {
		opt.Init = r.resolveExpr(n.Default)
	}
	//
	mod.Options = append(mod.Options, opt)
	r.ctx.Consts.RegisterNamed(n.Name, context.ConstEntry{Name: n.Name, Type: ty})
}

func (r *resolver) resolveAlias(mod *ir.Module, n *ast.AliasDecl) {
	// A target naming a local or imported type resolves immediately (imports
	// are bound before any declaration is resolved); any other name stays
	// NoType, without a diagnostic, and no later pass revisits it.
	target, _ := r.lookupType(ast.TypeExpr{NodeSpan: n.Span(), Name: n.Target})
	//
	mod.Aliases = append(mod.Aliases, ir.AliasDef{Name: n.Name, Target: target})
	r.ctx.Aliases.RegisterNamed(n.Name, context.AliasEntry{Name: n.Name, Target: target})
}

// resolveType maps surface TypeExpr syntax to a concrete ir.Type. Built-in
// names (f32, vec3, mat4x4, array, ...) are recognized directly; anything
// else is looked up as a user struct. An unknown name is a diagnostic.
func (r *resolver) resolveType(t ast.TypeExpr) ir.Type {
	resolved, ok := r.lookupType(t)
	if !ok {
		r.err(errors.CUnknownIdentifier, &t, "unknown type %q", t.Name)
	}
	//
	return resolved
}

// lookupType is resolveType without the unknown-name diagnostic, for callers
// (alias targets) where an unresolved name is legitimately deferred.
func (r *resolver) lookupType(t ast.TypeExpr) (ir.Type, bool) {
	switch t.Name {
	case "bool":
		return ir.Bool, true
	case "f32":
		return ir.F32, true
	case "f64":
		return ir.F64, true
	case "i32":
		return ir.I32, true
	case "u32":
		return ir.U32, true
	case "array":
		if len(t.Args) != 1 {
			return ir.NoType{}, false
		}
		//
		if t.ArrayLength == nil {
			return ir.DynArray{Elem: r.resolveType(t.Args[0])}, true
		}
		//
		length := uint32(0)
		//
		if lit, ok := t.ArrayLength.(*ast.IntLitExpr); ok {
			length = uint32(lit.Value)
		}
		//
		return ir.Array{Elem: r.resolveType(t.Args[0]), Length: length}, true
	case "uniform", "storage", "push_constant":
		if len(t.Args) != 1 {
			return ir.NoType{}, false
		}
		//
		inner, ok := r.lookupType(t.Args[0])
		st, isStruct := inner.(ir.Struct)
		if !ok || !isStruct {
			return ir.NoType{}, false
		}
		//
		switch t.Name {
		case "uniform":
			return ir.Uniform{StructIndex: st.Index}, true
		case "storage":
			return ir.Storage{StructIndex: st.Index, Access: ir.AccessReadWrite}, true
		default:
			return ir.PushConstant{StructIndex: st.Index}, true
		}
	}
	//
	if dim, ok := imageDimSuffix(t.Name, "sampler"); ok && len(t.Args) == 1 {
		return ir.Sampler{Dim: dim, Base: baseOf(r.resolveType(t.Args[0]))}, true
	}
	//
	if dim, ok := imageDimSuffix(t.Name, "texture"); ok && len(t.Args) == 1 {
		return ir.Texture{Dim: dim, Base: baseOf(r.resolveType(t.Args[0])), Access: ir.AccessReadOnly}, true
	}
	//
	if len(t.Name) == 4 && t.Name[:3] == "vec" && len(t.Args) == 1 {
		n := int(t.Name[3] - '0')
		return ir.Vector{Base: baseOf(r.resolveType(t.Args[0])), N: n}, true
	}
	//
	if len(t.Name) == 7 && t.Name[:3] == "mat" && len(t.Args) == 1 {
		cols := int(t.Name[3] - '0')
		rows := int(t.Name[5] - '0')
		return ir.Matrix{Base: baseOf(r.resolveType(t.Args[0])), Cols: cols, Rows: rows}, true
	}
	//
	if _, idx, ok := r.ctx.Structs.Retrieve(t.Name); ok {
		return ir.Struct{Index: idx}, true
	}
	//
	if entry, _, ok := r.ctx.Aliases.Retrieve(t.Name); ok {
		return entry.Target, true
	}
	//
	return ir.NoType{}, false
}

// imageDimSuffix matches names like `sampler2D`/`textureCube`, returning the
// dimensionality their suffix encodes.
func imageDimSuffix(name, prefix string) (ir.ImageDim, bool) {
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return 0, false
	}
	//
	switch name[len(prefix):] {
	case "1D":
		return ir.Dim1D, true
	case "2D":
		return ir.Dim2D, true
	case "3D":
		return ir.Dim3D, true
	case "Cube":
		return ir.DimCube, true
	}
	//
	return 0, false
}

func baseOf(t ir.Type) ir.Base {
	if s, ok := t.(ir.Scalar); ok {
		return s.Base
	}
	//
	return ir.BaseF32
}

func (r *resolver) resolveExpr(e ast.Expr) ir.Expression {
	switch n := e.(type) {
	case *ast.IntLitExpr:
		return &ir.ConstantValue{
			ExprBase: exprBaseOf(ir.IntLiteral{}),
			Value:    ir.Single{V: ir.Bits{Base: ir.BaseI32, Bits: uint64(n.Value)}},
		}
	case *ast.FloatLitExpr:
		return &ir.ConstantValue{
			ExprBase: exprBaseOf(ir.FloatLiteral{}),
			Value:    ir.Single{V: ir.Bits{Base: ir.BaseF32, Bits: math.Float64bits(n.Value)}},
		}
	case *ast.BoolLitExpr:
		bits := uint64(0)
		if n.Value {
			bits = 1
		}
		//
		return &ir.ConstantValue{
			ExprBase: exprBaseOf(ir.Bool),
			Value:    ir.Single{V: ir.Bits{Base: ir.BaseBool, Bits: bits}},
		}
	case *ast.IdentifierExpr:
		if entry, idx, ok := r.ctx.Variables.Retrieve(n.Name); ok {
			return &ir.Identifier{ExprBase: exprBaseOf(entry.Type), VarIndex: idx}
		}
		//
		if entry, idx, ok := r.ctx.Consts.Retrieve(n.Name); ok {
			return &ir.AccessConst{ExprBase: exprBaseOf(entry.Type), ConstIndex: idx}
		}
		//
		if entry, _, ok := r.ctx.Intrinsics.Retrieve(n.Name); ok {
			return &ir.TypeConstant{ExprBase: exprBaseOf(ir.Intrinsic{}), Referenced: ir.Intrinsic{Kind: entry.Kind}}
		}
		//
		if entry, idx, ok := r.ctx.Externals.Retrieve(n.Name); ok {
			return &ir.AccessExternal{ExprBase: exprBaseOf(entry.Type), ExternalIndex: idx}
		}
		//
		// Bare type names used as a cast/constructor callee (`vec3`, `f32`)
		// resolve to a TypeConstant; Resolve does not error here since a
		// plain identifier naming a built-in scalar/vector is valid callee
		// syntax, disambiguated only once CallFunction sees its Args.
		return &ir.TypeConstant{ExprBase: exprBaseOf(ir.NoType{}), Referenced: ir.NoType{}}
	case *ast.BinaryExpr:
		lhs, rhs := r.resolveExpr(n.Lhs), r.resolveExpr(n.Rhs)
		return &ir.Binary{ExprBase: exprBaseOf(lhs.Type()), Op: ir.BinOp(n.Op), Lhs: lhs, Rhs: rhs}
	case *ast.UnaryExpr:
		operand := r.resolveExpr(n.Operand)
		return &ir.Unary{ExprBase: exprBaseOf(operand.Type()), Op: ir.UnOp(n.Op), Operand: operand}
	case *ast.CallExpr:
		return r.resolveCall(n)
	case *ast.SelectExpr:
		a := r.resolveExpr(n.A)
		return &ir.Conditional{ExprBase: exprBaseOf(a.Type()), Cond: r.resolveExpr(n.Cond), A: a, B: r.resolveExpr(n.B)}
	case *ast.AccessExpr:
		return r.resolveAccess(n)
	case *ast.IndexExpr:
		base := r.resolveExpr(n.Base)
		idx := r.resolveExpr(n.Index)
		elemType := ir.Type(ir.NoType{})
		//
		if arr, ok := base.Type().(ir.Array); ok {
			elemType = arr.Elem
		}
		//
		return &ir.AccessIndex{ExprBase: exprBaseOf(elemType), Base: base, Index: idx}
	case *ast.AssignExpr:
		target := r.resolveExpr(n.Target)
		value := r.resolveExpr(n.Value)
		return &ir.Assign{ExprBase: exprBaseOf(target.Type()), Op: ir.AssignOp(n.Op), Target: target, Value: value}
	}
	//
	return &ir.ConstantValue{ExprBase: exprBaseOf(ir.NoType{})}
}

// resolveAccess resolves `base.member`. A struct base resolves to a plain
// AccessField against the struct's field table; a vector (or scalar, for the
// broadcast form `a.xxx`) base resolves to an ir.Swizzle, left for the Swizzle
// pass to lower into its final shuffle/constructor form since that lowering
// needs to run after Literal has settled every operand's concrete type.
func (r *resolver) resolveAccess(n *ast.AccessExpr) ir.Expression {
	base := r.resolveExpr(n.Base)
	//
	switch t := base.Type().(type) {
	case ir.Struct:
		return r.structFieldAccess(n, base, t.Index)
	case ir.Uniform:
		// A member access on a buffer resource reads through to the wrapped
		// struct's field.
		return r.structFieldAccess(n, base, t.StructIndex)
	case ir.Storage:
		return r.structFieldAccess(n, base, t.StructIndex)
	case ir.PushConstant:
		return r.structFieldAccess(n, base, t.StructIndex)
	case ir.Vector:
		comps, ok := swizzleComponents(n.Member)
		if !ok || !swizzleInRange(comps, t.N) {
			r.err(errors.CInvalidScalarSwizzle, n, "invalid swizzle %q on %s", n.Member, t)
			return &ir.Swizzle{ExprBase: exprBaseOf(ir.NoType{}), Base: base}
		}
		//
		resultType := ir.Type(ir.Scalar{Base: t.Base})
		if len(comps) > 1 {
			resultType = ir.Vector{Base: t.Base, N: len(comps)}
		}
		//
		return &ir.Swizzle{ExprBase: exprBaseOf(resultType), Base: base, Components: comps}
	case ir.Scalar:
		// A scalar only accepts the all-`x`/all-`r` broadcast form; the
		// Swizzle pass turns this into a `vecN(a, a, ..., a)` cast.
		comps, ok := swizzleComponents(n.Member)
		if !ok || !allZero(comps) {
			r.err(errors.CInvalidScalarSwizzle, n, "invalid swizzle %q on scalar", n.Member)
			return &ir.Swizzle{ExprBase: exprBaseOf(ir.NoType{}), Base: base}
		}
		//
		resultType := ir.Type(t)
		if len(comps) > 1 {
			resultType = ir.Vector{Base: t.Base, N: len(comps)}
		}
		//
		return &ir.Swizzle{ExprBase: exprBaseOf(resultType), Base: base, Components: comps}
	case ir.IntLiteral, ir.FloatLiteral:
		// A `let`-bound variable with no type annotation still carries its
		// untyped literal type when Resolve reaches a later reference to
		// it (the Literal pass reifies literals after Resolve, not during
		// it); an untyped scalar can never become a struct, so `.xxx` here
		// unambiguously means a broadcast swizzle. Resolve it eagerly
		// against the same default base the Literal pass would fall back
		// to absent any other context, so the two stay consistent.
		comps, ok := swizzleComponents(n.Member)
		if !ok || !allZero(comps) {
			r.err(errors.CInvalidScalarSwizzle, n, "invalid swizzle %q on scalar", n.Member)
			return &ir.Swizzle{ExprBase: exprBaseOf(ir.NoType{}), Base: base}
		}
		//
		litBase := ir.BaseI32
		if _, ok := t.(ir.FloatLiteral); ok {
			litBase = ir.BaseF32
		}
		//
		resultType := ir.Type(ir.Scalar{Base: litBase})
		if len(comps) > 1 {
			resultType = ir.Vector{Base: litBase, N: len(comps)}
		}
		//
		return &ir.Swizzle{ExprBase: exprBaseOf(resultType), Base: base, Components: comps}
	}
	//
	return &ir.AccessField{ExprBase: exprBaseOf(ir.NoType{}), Base: base}
}

// structFieldAccess binds `base.member` against a struct's field list,
// producing an AccessField carrying the field's index and type.
func (r *resolver) structFieldAccess(n *ast.AccessExpr, base ir.Expression, structIndex uint32) ir.Expression {
	entry := r.ctx.Structs.Get(structIndex)
	//
	for i, f := range entry.Fields {
		if f.Name == n.Member {
			return &ir.AccessField{ExprBase: exprBaseOf(f.Type), Base: base, FieldIndex: uint32(i)}
		}
	}
	//
	r.err(errors.CUnknownIdentifier, n, "struct %q has no field %q", entry.Name, n.Member)
	return &ir.AccessField{ExprBase: exprBaseOf(ir.NoType{}), Base: base}
}

// swizzleComponents maps each rune of member (x/y/z/w or r/g/b/a, not
// mixed) to its 0..3 component index.
func swizzleComponents(member string) ([]uint8, bool) {
	if member == "" || len(member) > 4 {
		return nil, false
	}
	//
	comps := make([]uint8, 0, len(member))
	//
	for _, c := range member {
		var idx uint8
		switch c {
		case 'x', 'r':
			idx = 0
		case 'y', 'g':
			idx = 1
		case 'z', 'b':
			idx = 2
		case 'w', 'a':
			idx = 3
		default:
			return nil, false
		}
		//
		comps = append(comps, idx)
	}
	//
	return comps, true
}

func swizzleInRange(comps []uint8, n int) bool {
	for _, c := range comps {
		if int(c) >= n {
			return false
		}
	}
	//
	return true
}

func allZero(comps []uint8) bool {
	for _, c := range comps {
		if c != 0 {
			return false
		}
	}
	//
	return true
}

func (r *resolver) resolveCall(n *ast.CallExpr) ir.Expression {
	var args []ir.Expression
	for _, a := range n.Args {
		args = append(args, r.resolveExpr(a))
	}
	//
	if id, ok := n.Callee.(*ast.IdentifierExpr); ok {
		if entry, idx, ok := r.ctx.Functions.Retrieve(id.Name); ok {
			return &ir.CallFunction{ExprBase: exprBaseOf(entry.Return), FunctionIndex: idx, Args: args}
		}
		//
		if entry, _, ok := r.ctx.Intrinsics.Retrieve(id.Name); ok {
			return &ir.IntrinsicCall{ExprBase: exprBaseOf(intrinsicReturnType(entry.Kind, args)), Kind: entry.Kind, Args: args}
		}
	}
	//
	// A call through a member access on a resource receiver is a built-in
	// method call (`tex.Sample(sampler, uv)`), kept as CallMethod rather
	// than forced through the cast path.
	if acc, ok := n.Callee.(*ast.AccessExpr); ok {
		base := r.resolveExpr(acc.Base)
		//
		switch t := base.Type().(type) {
		case ir.Sampler:
			return &ir.CallMethod{ExprBase: exprBaseOf(ir.Vector{Base: t.Base, N: 4}), Receiver: base, Name: acc.Member, Args: args}
		case ir.Texture:
			return &ir.CallMethod{ExprBase: exprBaseOf(ir.Vector{Base: t.Base, N: 4}), Receiver: base, Name: acc.Member, Args: args}
		}
	}
	//
	// Anything else is a cast/constructor call; surface syntax makes no
	// distinction between `f32(x)` (a plain cast) and
	// `vec3(a, b, c)` (a component-wise constructor) -- both surface as a
	// CallExpr whose callee names a type. Resolve builds one ir.Cast node
	// with every argument as a Values entry; a later pass never needs to
	// special-case "cast" vs. "constructor" since the node shape is
	// identical either way.
	target := r.resolveCastTarget(n.Callee, args)
	return &ir.Cast{ExprBase: exprBaseOf(target), Values: args}
}

// resolveCastTarget extracts the target ir.Type a cast/constructor callee
// names. A bare scalar name (`f32`) resolves directly, and a parameterized
// callee (`vec3[f32]`, `mat4x4[f32]`) resolves like the same type
// annotation. A bare `vecN`/`matNxM` carries no base-type argument, so its
// element Base is inferred from the first already-resolved argument
// instead -- the only signal available until the Literal pass has run.
func (r *resolver) resolveCastTarget(callee ast.Expr, args []ir.Expression) ir.Type {
	if ix, ok := callee.(*ast.IndexExpr); ok {
		base, baseOk := ix.Base.(*ast.IdentifierExpr)
		arg, argOk := ix.Index.(*ast.IdentifierExpr)
		if baseOk && argOk {
			return r.resolveType(ast.TypeExpr{NodeSpan: callee.Span(), Name: base.Name, Args: []ast.TypeExpr{{NodeSpan: arg.Span(), Name: arg.Name}}})
		}
	}
	//
	id, ok := callee.(*ast.IdentifierExpr)
	if !ok {
		return r.resolveExpr(callee).Type()
	}
	//
	switch {
	case len(id.Name) == 4 && id.Name[:3] == "vec":
		n := int(id.Name[3] - '0')
		return ir.Vector{Base: firstArgBase(args), N: n}
	case len(id.Name) == 7 && id.Name[:3] == "mat":
		cols := int(id.Name[3] - '0')
		rows := int(id.Name[5] - '0')
		return ir.Matrix{Base: firstArgBase(args), Cols: cols, Rows: rows}
	}
	//
	return r.resolveType(ast.TypeExpr{Name: id.Name})
}

// firstArgBase infers a constructor's element Base from its first
// argument's resolved type, defaulting to f32 when no argument is typed
// concretely yet (an all-literal constructor, left for Literal to finish).
func firstArgBase(args []ir.Expression) ir.Base {
	if len(args) == 0 {
		return ir.BaseF32
	}
	//
	switch t := args[0].Type().(type) {
	case ir.Scalar:
		return t.Base
	case ir.Vector:
		return t.Base
	}
	//
	return ir.BaseF32
}

// intrinsicReturnType infers an intrinsic call's result type from its
// argument types. Componentwise
// intrinsics return their first argument's type; the geometric family
// reduces or fixes the shape instead.
func intrinsicReturnType(kind ir.IntrinsicKind, args []ir.Expression) ir.Type {
	if len(args) == 0 {
		return ir.NoType{}
	}
	//
	first := args[0].Type()
	//
	switch kind {
	case ir.IntrinsicDot, ir.IntrinsicLength:
		if v, ok := first.(ir.Vector); ok {
			return ir.Scalar{Base: v.Base}
		}
		//
		return first
	case ir.IntrinsicSampleTexture:
		switch t := first.(type) {
		case ir.Sampler:
			return ir.Vector{Base: t.Base, N: 4}
		case ir.Texture:
			return ir.Vector{Base: t.Base, N: 4}
		}
		//
		return ir.NoType{}
	}
	//
	return first
}

// exprBaseOf is a tiny helper constructing an ir expression base struct
// pre-seeded with a type, since ir's exprBase type is unexported outside
// package ir and every *New*Expression node embeds it by value.
func exprBaseOf(t ir.Type) ir.ExprBase {
	return ir.ExprBase{Typ: t}
}
