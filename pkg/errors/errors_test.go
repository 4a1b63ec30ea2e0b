package errors_test

import (
	"testing"

	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/source"
)

func TestFormatRendersFileLineCol(t *testing.T) {
	fs := source.NewFileSet()
	h := fs.Intern(source.NewFile("shader.nzsl", []byte("module;")))
	//
	d := errors.New(errors.Compilation, errors.CTypeMismatch,
		source.Span{File: h, StartLine: 3, StartCol: 12, EndLine: 3, EndCol: 15},
		"expected %s, got %s", "f32", "bool")
	//
	want := "shader.nzsl(3,12): compilation error: expected f32, got bool"
	if got := d.Format(fs); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestErrorOnSyntheticSpan(t *testing.T) {
	d := errors.New(errors.Ast, errors.AstInvalidIndex, source.NoSpan, "bad index %d", 7)
	//
	want := "<generated>: ast error: bad index 7"
	if got := d.Error(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCategoryStrings(t *testing.T) {
	cases := map[errors.Category]string{
		errors.Lexing:      "lexing",
		errors.Parsing:     "parsing",
		errors.Ast:         "ast",
		errors.Compilation: "compilation",
	}
	//
	for cat, want := range cases {
		if got := cat.String(); got != want {
			t.Fatalf("%d: got %q, want %q", cat, got, want)
		}
	}
}
