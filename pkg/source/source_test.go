package source_test

import (
	"testing"

	"github.com/nzsl-lang/nzslc/pkg/source"
)

func TestBuildFromToCoversBothSpans(t *testing.T) {
	l := source.Span{File: 0, StartLine: 1, StartCol: 3, EndLine: 1, EndCol: 7}
	r := source.Span{File: 0, StartLine: 2, StartCol: 1, EndLine: 2, EndCol: 9}
	//
	got := source.BuildFromTo(l, r)
	want := source.Span{File: 0, StartLine: 1, StartCol: 3, EndLine: 2, EndCol: 9}
	//
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestBuildFromToSyntheticFallsBackToOther(t *testing.T) {
	r := source.Span{File: 0, StartLine: 2, StartCol: 1, EndLine: 2, EndCol: 9}
	//
	if got := source.BuildFromTo(source.NoSpan, r); got != r {
		t.Fatalf("got %+v, want %+v", got, r)
	}
	//
	if got := source.BuildFromTo(r, source.NoSpan); got != r {
		t.Fatalf("got %+v, want %+v", got, r)
	}
}

func TestExtendLeftAndRight(t *testing.T) {
	mid := source.Span{File: 0, StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 8}
	left := source.Span{File: 0, StartLine: 3, StartCol: 1, EndLine: 3, EndCol: 4}
	right := source.Span{File: 0, StartLine: 4, StartCol: 1, EndLine: 4, EndCol: 2}
	//
	widened := mid.ExtendToLeft(left).ExtendToRight(right)
	//
	if widened.StartCol != 1 || widened.EndLine != 4 || widened.EndCol != 2 {
		t.Fatalf("got %+v", widened)
	}
}

func TestLineColAcrossLines(t *testing.T) {
	f := source.NewFile("test.nzsl", []byte("abc\ndef\n\nghi"))
	//
	cases := []struct {
		offset    uint32
		line, col uint32
	}{
		{0, 1, 1},
		{2, 1, 3},
		{4, 2, 1},
		{6, 2, 3},
		{8, 3, 1},
		{9, 4, 1},
		{11, 4, 3},
	}
	//
	for _, c := range cases {
		line, col := f.LineCol(c.offset)
		if line != c.line || col != c.col {
			t.Fatalf("offset %d: got (%d,%d), want (%d,%d)", c.offset, line, col, c.line, c.col)
		}
	}
}

func TestLineTextStripsNewline(t *testing.T) {
	f := source.NewFile("test.nzsl", []byte("first\nsecond\nthird"))
	//
	if got := f.Line(1); got != "first" {
		t.Fatalf("line 1: got %q", got)
	}
	//
	if got := f.Line(2); got != "second" {
		t.Fatalf("line 2: got %q", got)
	}
	//
	if got := f.Line(3); got != "third" {
		t.Fatalf("line 3: got %q", got)
	}
}

func TestFileSetInternIsIdempotent(t *testing.T) {
	fs := source.NewFileSet()
	//
	a := fs.Intern(source.NewFile("a.nzsl", []byte("x")))
	b := fs.Intern(source.NewFile("b.nzsl", []byte("y")))
	again := fs.Intern(source.NewFile("a.nzsl", []byte("different contents, same name")))
	//
	if a == b {
		t.Fatalf("distinct files share handle %d", a)
	}
	//
	if again != a {
		t.Fatalf("re-interning a.nzsl: got %d, want %d", again, a)
	}
	//
	if fs.Get(a).Name() != "a.nzsl" {
		t.Fatalf("got %q", fs.Get(a).Name())
	}
	//
	if fs.Get(source.NoFile) != nil {
		t.Fatal("NoFile should resolve to nil")
	}
}

func TestFileSetSpanResolvesLineCol(t *testing.T) {
	fs := source.NewFileSet()
	h := fs.Intern(source.NewFile("s.nzsl", []byte("let x = 1;\nlet y = 2;")))
	//
	span := fs.Span(h, 11, 15)
	//
	if span.StartLine != 2 || span.StartCol != 1 {
		t.Fatalf("start: got (%d,%d), want (2,1)", span.StartLine, span.StartCol)
	}
	//
	if span.EndLine != 2 || span.EndCol != 5 {
		t.Fatalf("end: got (%d,%d), want (2,5)", span.EndLine, span.EndCol)
	}
}
