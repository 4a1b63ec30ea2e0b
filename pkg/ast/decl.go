package ast

import "github.com/nzsl-lang/nzslc/pkg/source"

// Decl is implemented by every top-level module member.
type Decl interface {
	Node
	declNode()
}

type declBase struct {
	NodeSpan source.Span
	Attrs    AttributeSet
}

func (d declBase) Span() source.Span { return d.NodeSpan }
func (declBase) declNode()           {}

// ModuleHeader carries the mandatory `[nzsl_version("x.y[.z]")]` attribute
// and the optional module metadata attributes that must precede the
// `module;` statement: lang_version is required (its absence is
// PMissingAttribute, checked by the parser before anything else); the rest
// default to empty/absent.
type ModuleHeader struct {
	NodeSpan        source.Span
	LangVersion     string
	Name            string
	Author          string
	Description     string
	License         string
	EnabledFeatures []string
}

// Span implements Node.
func (h *ModuleHeader) Span() source.Span { return h.NodeSpan }

// Module is the root of a parsed NZSL source file.
type Module struct {
	Header  ModuleHeader
	Imports []*ImportDecl
	Decls   []Decl
}

// ImportItem is a single `name [as alias]` inside an import list.
type ImportItem struct {
	Name  string
	Alias string
}

// ImportDecl is `import {item, item as alias, ...} from "module";`, or the
// whole-module form `import * from "module";` (Items is nil, WholeModule
// true).
type ImportDecl struct {
	declBase
	ModuleName  string
	Items       []ImportItem
	WholeModule bool
}

// AliasDecl is `alias Name = module::target;`.
type AliasDecl struct {
	declBase
	Name   string
	Target string
}

// ConstDecl is `const Name[: Type] = value;` at module scope.
type ConstDecl struct {
	declBase
	Name  string
	Type  *TypeExpr
	Value Expr
}

// OptionDecl is `option Name: Type [= default];`: a compile-time constant
// resolved from BackendParameters.option_values, falling back to Default
// when absent. A missing value with no default is CMissingOptionValue,
// checked during the Resolve/Validation passes, not here.
type OptionDecl struct {
	declBase
	Name    string
	Type    TypeExpr
	Default Expr
}

// StructField is one member of a StructDecl.
type StructField struct {
	Attrs AttributeSet
	Name  string
	Type  TypeExpr
}

// StructDecl is `struct Name { field: Type, ... }`.
type StructDecl struct {
	declBase
	Name   string
	Fields []StructField
}

// ExternalVar is one binding inside an `external { ... }` block, e.g.
// `[set(0), binding(1)] tex: sampler2D[f32]`.
type ExternalVar struct {
	Attrs AttributeSet
	Name  string
	Type  TypeExpr
}

// ExternalDecl is a `external { ... }` block declaring resource bindings
// (uniforms, storage buffers, textures, samplers, push constants). Binding
// indices are taken from each ExternalVar's `binding`/`set` attributes when
// present, or auto-assigned by the BindingResolver pass otherwise.
type ExternalDecl struct {
	declBase
	Vars []ExternalVar
}

// Param is a single function parameter.
type Param struct {
	Name string
	Type TypeExpr
}

// FnDecl is `fn name(params) [-> RetType] { body }`. An `entry(vert|frag|
// comp)` attribute marks it as a shader entry point; a function may carry
// at most one entry attribute, enforced by the parser as a single-valued
// attribute.
type FnDecl struct {
	declBase
	Name       string
	Params     []Param
	ReturnType *TypeExpr
	Body       *Block
}
