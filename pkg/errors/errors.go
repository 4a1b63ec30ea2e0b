// Package errors defines the typed error taxonomy used across the compiler:
// four families (Lexing, Parsing, Ast, Compilation), each with a closed set
// of Kind values and a formatted message.
package errors

import (
	"fmt"

	"github.com/nzsl-lang/nzslc/pkg/source"
)

// Category identifies which family of the compiler an error originates
// from.
type Category uint8

const (
	// Lexing errors arise while tokenizing raw source text.
	Lexing Category = iota
	// Parsing errors arise while building the surface AST from tokens.
	Parsing
	// Ast errors indicate a broken invariant between transformation passes
	// (a compiler bug, not a user-facing mistake).
	Ast
	// Compilation errors are semantic: typing, binding, intrinsics,
	// options, circular imports, etc.
	Compilation
)

func (c Category) String() string {
	switch c {
	case Lexing:
		return "lexing"
	case Parsing:
		return "parsing"
	case Ast:
		return "ast"
	case Compilation:
		return "compilation"
	}
	//
	return "unknown"
}

// Kind is a stable, per-category enumeration of specific error conditions.
// Each constant keeps its single-letter category prefix in its Go name
// (LBadNumber, PUnexpectedToken, ...) but stores only the bare condition
// name as its string value, since Category already disambiguates.
type Kind string

// Lexing kinds.
const (
	LBadNumber          Kind = "BadNumber"
	LNumberOutOfRange   Kind = "NumberOutOfRange"
	LUnfinishedString   Kind = "UnfinishedString"
	LUnrecognizedChar   Kind = "UnrecognizedChar"
	LUnrecognizedToken  Kind = "UnrecognizedToken"
)

// Parsing kinds.
const (
	PUnexpectedToken          Kind = "UnexpectedToken"
	PMissingAttribute         Kind = "MissingAttribute"
	PAttributeMissingParameter Kind = "AttributeMissingParameter"
	PAttributeMultipleUnique  Kind = "AttributeMultipleUnique"
	PUnknownAttribute         Kind = "UnknownAttribute"
)

// Ast kinds.
const (
	AstInvalidIndex              Kind = "InvalidIndex"
	AstExpectedIndex              Kind = "ExpectedIndex"
	AstAlreadyUsedIndexPreregister Kind = "AlreadyUsedIndexPreregister"
	AstMissingType                Kind = "MissingType"
)

// Compilation kinds.
const (
	CUnknownIdentifier                 Kind = "UnknownIdentifier"
	CAlreadyDeclared                   Kind = "AlreadyDeclared"
	CTypeMismatch                      Kind = "TypeMismatch"
	CIntrinsicSignatureMismatch        Kind = "IntrinsicSignatureMismatch"
	CConstantExpressionRequired        Kind = "ConstantExpressionRequired"
	CExtBindingAlreadyUsed             Kind = "ExtBindingAlreadyUsed"
	CExtMissingBindingIndex            Kind = "ExtMissingBindingIndex"
	CMissingOptionValue                Kind = "MissingOptionValue"
	CConflictingOptionDefaultValues    Kind = "ConflictingOptionDefaultValues"
	CInvalidScalarSwizzle              Kind = "InvalidScalarSwizzle"
	CCircularImport                    Kind = "CircularImport"
	CModuleNotFound                    Kind = "ModuleNotFound"
	CUnsupportedBinaryVersion          Kind = "UnsupportedBinaryVersion"
	CLZ4ModuleTooLarge                 Kind = "LZ4ModuleTooLarge"
	CEntryStageConflict                Kind = "EntryStageConflict"
	CInvalidCast                       Kind = "InvalidCast"
)

// Diagnostic is a single reported error, always associated with a span in
// some originating file (synthetic nodes use source.NoSpan).
type Diagnostic struct {
	Category Category
	Kind     Kind
	Span     source.Span
	Message  string
}

// New constructs a diagnostic.
func New(cat Category, kind Kind, span source.Span, format string, args ...any) *Diagnostic {
	return &Diagnostic{cat, kind, span, fmt.Sprintf(format, args...)}
}

// Error implements the error interface. Since a bare Diagnostic has no
// access to the FileSet that named its file, the file is rendered by its
// interned handle; callers that have the FileSet available (e.g. a driver
// printing diagnostics to a user) should prefer Format.
func (d *Diagnostic) Error() string {
	if d.Span.IsSynthetic() {
		return fmt.Sprintf("<generated>: %s error: %s", d.Category, d.Message)
	}
	//
	return fmt.Sprintf("file#%d(%d,%d): %s error: %s", d.Span.File, d.Span.StartLine, d.Span.StartCol, d.Category, d.Message)
}

// Format renders this diagnostic using the given FileSet to resolve the
// file handle to its filename, as
// "<file>(<line>,<col>): <Category> error: <message>".
func (d *Diagnostic) Format(fs *source.FileSet) string {
	if d.Span.IsSynthetic() {
		return fmt.Sprintf("<generated>: %s error: %s", d.Category, d.Message)
	}
	//
	name := fs.Get(d.Span.File).Name()
	return fmt.Sprintf("%s(%d,%d): %s error: %s", name, d.Span.StartLine, d.Span.StartCol, d.Category, d.Message)
}
