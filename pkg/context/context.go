package context

import "github.com/nzsl-lang/nzslc/pkg/ir"

// AliasEntry, ConstEntry, ... are the payload types stored in each of the
// nine tables. Most are thin wrappers around an ir type since the context
// is the single source of truth a pass consults instead of re-deriving
// type information from the AST.
type AliasEntry struct {
	Name   string
	Target ir.Type
}

type ConstEntry struct {
	Name  string
	Type  ir.Type
	Value ir.Value
}

type ExternalEntry struct {
	Name string
	Type ir.Type
}

type FunctionEntry struct {
	Name   string
	Params []ir.Param
	Return ir.Type
	Entry  ir.EntryStage
}

type IntrinsicEntry struct {
	Name string
	Kind ir.IntrinsicKind
}

type ModuleEntry struct {
	Name string
}

type StructEntry struct {
	Name   string
	Fields []ir.StructField
}

type TypeEntry struct {
	Name string
	Type ir.Type
}

type VariableEntry struct {
	Name string
	Type ir.Type
	Mut  bool
}

// TransformerContext composes the nine interned tables every pass
// consults. A single instance is shared across every pass in one
// TransformerExecutor run over one Module, and reset between independent
// compilations via Clear.
type TransformerContext struct {
	Aliases    *Table[AliasEntry]
	Consts     *Table[ConstEntry]
	Externals  *Table[ExternalEntry]
	Functions  *Table[FunctionEntry]
	Intrinsics *Table[IntrinsicEntry]
	Modules    *Table[ModuleEntry]
	Structs    *Table[StructEntry]
	Types      *Table[TypeEntry]
	Variables  *Table[VariableEntry]
}

// New builds an empty TransformerContext with every table initialized.
func New() *TransformerContext {
	return &TransformerContext{
		Aliases:    NewTable[AliasEntry](),
		Consts:     NewTable[ConstEntry](),
		Externals:  NewTable[ExternalEntry](),
		Functions:  NewTable[FunctionEntry](),
		Intrinsics: NewTable[IntrinsicEntry](),
		Modules:    NewTable[ModuleEntry](),
		Structs:    NewTable[StructEntry](),
		Types:      NewTable[TypeEntry](),
		Variables:  NewTable[VariableEntry](),
	}
}

// Clear resets every table, for reuse across independent compilations.
func (c *TransformerContext) Clear() {
	c.Aliases.Clear()
	c.Consts.Clear()
	c.Externals.Clear()
	c.Functions.Clear()
	c.Intrinsics.Clear()
	c.Modules.Clear()
	c.Structs.Clear()
	c.Types.Clear()
	c.Variables.Clear()
}

// RegisterIntrinsics populates the Intrinsics table with the fixed set of
// built-ins every module has available regardless of its own declarations.
// Called once when a TransformerContext is built for a fresh compilation.
func RegisterIntrinsics(c *TransformerContext) {
	builtins := []struct {
		name string
		kind ir.IntrinsicKind
	}{
		{"abs", ir.IntrinsicAbs}, {"min", ir.IntrinsicMin}, {"max", ir.IntrinsicMax},
		{"clamp", ir.IntrinsicClamp}, {"mix", ir.IntrinsicMix}, {"pow", ir.IntrinsicPow},
		{"exp", ir.IntrinsicExp}, {"exp2", ir.IntrinsicExp2}, {"log", ir.IntrinsicLog},
		{"log2", ir.IntrinsicLog2}, {"sqrt", ir.IntrinsicSqrt}, {"inverse_sqrt", ir.IntrinsicInverseSqrt},
		{"floor", ir.IntrinsicFloor}, {"ceil", ir.IntrinsicCeil}, {"fract", ir.IntrinsicFract},
		{"sin", ir.IntrinsicSin}, {"cos", ir.IntrinsicCos}, {"tan", ir.IntrinsicTan},
		{"dot", ir.IntrinsicDot}, {"cross", ir.IntrinsicCross}, {"length", ir.IntrinsicLength},
		{"normalize", ir.IntrinsicNormalize}, {"reflect", ir.IntrinsicReflect},
		{"sample", ir.IntrinsicSampleTexture},
	}
	//
	for _, b := range builtins {
		c.Intrinsics.RegisterNamed(b.name, IntrinsicEntry{Name: b.name, Kind: b.kind})
	}
}
