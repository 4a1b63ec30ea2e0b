// Package source provides file-aware source spans used throughout the
// compiler for error reporting and debug metadata.
package source

import "fmt"

// FileHandle is a weakly-shared reference to an interned source file path.
// Many AST nodes across many modules may carry the same handle; ownership
// is not tracked beyond the lifetime of the enclosing FileSet.
type FileHandle uint32

// NoFile is the handle used by synthetic nodes with no originating file
// (e.g. nodes injected by a pass such as LoopUnroll or the standard
// library prelude).
const NoFile FileHandle = ^FileHandle(0)

// Span identifies a half-open range of source text within a single file.
type Span struct {
	File      FileHandle
	StartLine uint32
	StartCol  uint32
	EndLine   uint32
	EndCol    uint32
}

// NoSpan is the span used by synthetic nodes.
var NoSpan = Span{File: NoFile}

// IsSynthetic indicates this span does not correspond to any real source
// text (e.g. it was injected by a transformation pass).
func (s Span) IsSynthetic() bool {
	return s.File == NoFile
}

// BuildFromTo constructs a span covering both l and r. Both must refer to
// the same file; if either is synthetic the other is returned unchanged.
func BuildFromTo(l, r Span) Span {
	if l.IsSynthetic() {
		return r
	} else if r.IsSynthetic() {
		return l
	}
	//
	return Span{
		File:      l.File,
		StartLine: l.StartLine,
		StartCol:  l.StartCol,
		EndLine:   r.EndLine,
		EndCol:    r.EndCol,
	}
}

// ExtendToLeft widens this span so that it also covers l.
func (s Span) ExtendToLeft(l Span) Span {
	return BuildFromTo(l, s)
}

// ExtendToRight widens this span so that it also covers r.
func (s Span) ExtendToRight(r Span) Span {
	return BuildFromTo(s, r)
}

func (s Span) String() string {
	if s.IsSynthetic() {
		return "<synthetic>"
	}
	//
	return fmt.Sprintf("%d:%d-%d:%d", s.StartLine, s.StartCol, s.EndLine, s.EndCol)
}
