// Package ast defines the untyped surface syntax tree produced by the
// parser. No identifier resolution has happened yet: IdentifierExpr is left
// unresolved and AccessExpr is left as a bare member path. Resolution
// against a TransformerContext happens in pkg/transform's Resolve pass,
// which lowers this tree into pkg/ir.
package ast

import "github.com/nzsl-lang/nzslc/pkg/source"

// Node is implemented by every AST node (declaration, statement, or
// expression).
type Node interface {
	Span() source.Span
}

// Attribute is a `[name(args...)]` decoration on a declaration. Arguments
// are kept as raw, unresolved expressions since at parse time we cannot yet
// evaluate e.g. a const-expression argument.
type Attribute struct {
	NodeSpan source.Span
	Name     string
	Args     []Expr
}

// Span implements Node.
func (a *Attribute) Span() source.Span { return a.NodeSpan }

// AttributeSet is the (possibly empty) set of attributes preceding a
// declaration, with convenience lookups. A shader declaration may carry at
// most one instance of most single-valued attributes; a duplicate raises
// PAttributeMultipleUnique. The parser enforces this at parse time for
// attributes it recognizes as single-valued.
type AttributeSet []*Attribute

// Find returns the first attribute with the given name.
func (s AttributeSet) Find(name string) (*Attribute, bool) {
	for _, a := range s {
		if a.Name == name {
			return a, true
		}
	}
	//
	return nil, false
}

// Has reports whether an attribute with the given name is present.
func (s AttributeSet) Has(name string) bool {
	_, ok := s.Find(name)
	return ok
}
