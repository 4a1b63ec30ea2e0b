// Package token defines the lexical token kinds recognized by the NZSL
// lexer.
package token

import "github.com/nzsl-lang/nzslc/pkg/source"

// Kind enumerates every lexical token category.
type Kind uint

const (
	Invalid Kind = iota
	EndOfStream

	// Literals
	Identifier
	IntLiteral
	FloatLiteral
	StringLiteral

	// Keywords
	KwAlias
	KwAnd
	KwAs
	KwBreak
	KwConst
	KwContinue
	KwDiscard
	KwElse
	KwEntry
	KwExternal
	KwFalse
	KwFn
	KwFor
	KwFrom
	KwIf
	KwImport
	KwIn
	KwLet
	KwModule
	KwMut
	KwOption
	KwOr
	KwReturn
	KwSelect
	KwStruct
	KwTrue
	KwWhile

	// Entry stage keywords
	KwVert
	KwFrag
	KwComp

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	LAttr // never emitted: the lexer produces LBracket for every "[", and the
	// parser accepts either kind as the start of an attribute list
	Comma
	Semicolon
	Colon
	ColonColon
	Dot
	Arrow // "->"
	FatArrow

	// Operators
	Plus
	Minus
	Star
	Slash
	Percent
	Assign
	PlusEq
	MinusEq
	StarEq
	SlashEq
	PercentEq
	Eq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	Not
	AndAnd
	OrOr
	Amp
	Pipe
	Caret
	Shl
	Shr
	Question
)

var keywords = map[string]Kind{
	"alias":    KwAlias,
	"and":      KwAnd,
	"as":       KwAs,
	"break":    KwBreak,
	"const":    KwConst,
	"continue": KwContinue,
	"discard":  KwDiscard,
	"else":     KwElse,
	"entry":    KwEntry,
	"external": KwExternal,
	"false":    KwFalse,
	"fn":       KwFn,
	"for":      KwFor,
	"from":     KwFrom,
	"if":       KwIf,
	"import":   KwImport,
	"in":       KwIn,
	"let":      KwLet,
	"module":   KwModule,
	"mut":      KwMut,
	"option":   KwOption,
	"or":       KwOr,
	"return":   KwReturn,
	"select":   KwSelect,
	"struct":   KwStruct,
	"true":     KwTrue,
	"while":    KwWhile,
	"vert":     KwVert,
	"frag":     KwFrag,
	"comp":     KwComp,
}

// LookupKeyword returns the keyword Kind for an identifier-shaped word, or
// (Identifier, false) if it is not a reserved word.
func LookupKeyword(word string) (Kind, bool) {
	k, ok := keywords[word]
	return k, ok
}

// Payload carries the literal value associated with a token, if any.
type Payload struct {
	HasString bool
	String    string
	HasInt    bool
	Int       int64
	HasFloat  bool
	Float     float64
}

// Token is a single lexical unit together with its source span.
type Token struct {
	Kind    Kind
	Span    source.Span
	Payload Payload
	// Text is the raw lexeme backing this token (used for identifiers and
	// for rendering diagnostics).
	Text string
}
