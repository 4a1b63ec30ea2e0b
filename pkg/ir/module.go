package ir

// Metadata carries the resolved form of ast.ModuleHeader, plus the set of
// imported modules this module depends on.
type Metadata struct {
	LangVersion     string
	Name            string
	Author          string
	Description     string
	License         string
	EnabledFeatures map[string]bool
}

// Layout names the memory layout convention a StructDef has been laid out
// for. LayoutStd140 is set by the Std140Emulation pass once it has
// annotated every field's Offset; structs never touched
// by that pass (anything not bound as a uniform) stay LayoutNone.
type Layout uint8

const (
	LayoutNone Layout = iota
	LayoutStd140
)

// StructDef is a fully resolved struct declaration: its fields, in
// declaration order, each with a std140-compatible Offset once the layout
// passes have run (zero until then). Align/Size are the struct's own
// std140 alignment and padded byte size, populated by the same pass and
// consulted when this struct appears nested inside another one or as an
// array element.
type StructDef struct {
	Name   string
	Fields []StructField
	Layout Layout
	Align  uint32
	Size   uint32
}

// FunctionDef is a fully resolved function: its parameter and return
// types, an optional entry stage, and its body.
type EntryStage uint8

const (
	EntryNone EntryStage = iota
	EntryVertex
	EntryFragment
	EntryCompute
)

type Param struct {
	Name string
	Type Type
}

type FunctionDef struct {
	Name       string
	Params     []Param
	ReturnType Type
	Entry      EntryStage
	Body       *Scoped
}

// ExternalBinding is one resolved member of an `external { }` block, with its
// final binding/set indices assigned by the BindingResolver pass; AutoAssigned
// records whether the index came from an explicit attribute or was
// synthesized, purely for diagnostics.
type ExternalBinding struct {
	Name         string
	Type         Type
	Set, Binding uint32
	AutoAssigned bool
	Cond         string // name of the option gating this binding, if any
}

// ConstDef is a fully resolved module-level constant. Init is its
// initializer expression as Resolve built it (still possibly unfolded);
// Value is populated once ConstantPropagation folds Init, and is nil
// until then.
type ConstDef struct {
	Name  string
	Type  Type
	Init  Expression
	Value Value
}

// OptionDef is a fully resolved `option` declaration. Init is the
// declared default expression as Resolve built it (nil if the option has
// no default); Default is populated once ConstantPropagation folds Init,
// mirroring ConstDef's Init/Value split.
type OptionDef struct {
	Name    string
	Type    Type
	Init    Expression
	Default Value
}

// AliasDef is a fully resolved `alias` declaration.
type AliasDef struct {
	Name   string
	Target Type
}

// Module is the root of the resolved IR, the unit TransformerExecutor
// passes operate over as a whole.
type Module struct {
	Metadata  Metadata
	Imports   []uint32 // indices into the owning Resolver's module table
	Structs   []StructDef
	Functions []FunctionDef
	Externals []ExternalBinding
	Consts    []ConstDef
	Options   []OptionDef
	Aliases   []AliasDef
}
