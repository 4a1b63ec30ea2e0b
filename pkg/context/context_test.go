package context_test

import (
	"testing"

	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
)

func TestTableRegisterAndRetrieve(t *testing.T) {
	tbl := context.NewTable[context.VariableEntry]()
	idx := tbl.RegisterNamed("x", context.VariableEntry{Name: "x", Type: ir.F32})
	//
	entry, gotIdx, ok := tbl.Retrieve("x")
	if !ok || gotIdx != idx || entry.Name != "x" {
		t.Fatalf("got %+v, %d, %v", entry, gotIdx, ok)
	}
}

func TestTableRetrieveMissingIsFalse(t *testing.T) {
	tbl := context.NewTable[context.VariableEntry]()
	//
	if _, _, ok := tbl.Retrieve("nope"); ok {
		t.Fatalf("expected miss")
	}
}

func TestRegisterNewIndexThenRegisterPreservesIndex(t *testing.T) {
	tbl := context.NewTable[context.FunctionEntry]()
	idx := tbl.RegisterNewIndex("recurse")
	//
	if tbl.IsUsed(idx) {
		t.Fatalf("expected not yet used before Register")
	}
	//
	tbl.Register(idx, context.FunctionEntry{Name: "recurse"})
	//
	if !tbl.IsUsed(idx) {
		t.Fatalf("expected used after Register")
	}
	//
	entry, gotIdx, ok := tbl.Retrieve("recurse")
	if !ok || gotIdx != idx || entry.Name != "recurse" {
		t.Fatalf("got %+v, %d, %v", entry, gotIdx, ok)
	}
}

func TestContextClearResetsAllTables(t *testing.T) {
	c := context.New()
	c.Variables.RegisterNamed("x", context.VariableEntry{Name: "x"})
	c.Structs.RegisterNamed("Params", context.StructEntry{Name: "Params"})
	//
	c.Clear()
	//
	if c.Variables.Len() != 0 || c.Structs.Len() != 0 {
		t.Fatalf("expected tables empty after Clear")
	}
}

func TestRegisterIntrinsicsPopulatesTable(t *testing.T) {
	c := context.New()
	context.RegisterIntrinsics(c)
	//
	entry, _, ok := c.Intrinsics.Retrieve("normalize")
	if !ok || entry.Kind != ir.IntrinsicNormalize {
		t.Fatalf("got %+v, %v", entry, ok)
	}
}

func expectAstPanic(t *testing.T, wantKind errors.Kind, f func()) {
	t.Helper()
	//
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic")
		}
		//
		d, ok := r.(*errors.Diagnostic)
		if !ok || d.Category != errors.Ast || d.Kind != wantKind {
			t.Fatalf("expected Ast/%s panic, got %v", wantKind, r)
		}
	}()
	//
	f()
}

func TestRegisterTwicePanicsAlreadyUsed(t *testing.T) {
	tbl := context.NewTable[context.VariableEntry]()
	idx := tbl.RegisterNamed("x", context.VariableEntry{Name: "x"})
	//
	expectAstPanic(t, errors.AstAlreadyUsedIndexPreregister, func() {
		tbl.Register(idx, context.VariableEntry{Name: "clobber"})
	})
}

func TestRegisterUnallocatedIndexPanicsInvalid(t *testing.T) {
	tbl := context.NewTable[context.VariableEntry]()
	//
	expectAstPanic(t, errors.AstInvalidIndex, func() {
		tbl.Register(7, context.VariableEntry{Name: "x"})
	})
}

func TestGetUnallocatedIndexPanicsInvalid(t *testing.T) {
	tbl := context.NewTable[context.VariableEntry]()
	//
	expectAstPanic(t, errors.AstInvalidIndex, func() {
		tbl.Get(0)
	})
}

func TestUpdateOverwritesRegisteredEntry(t *testing.T) {
	tbl := context.NewTable[context.VariableEntry]()
	idx := tbl.RegisterNamed("x", context.VariableEntry{Name: "x", Type: ir.IntLiteral{}})
	//
	tbl.Update(idx, context.VariableEntry{Name: "x", Type: ir.I32})
	//
	if got := tbl.Get(idx); !ir.Equal(got.Type, ir.I32) {
		t.Fatalf("got %v, want i32", got.Type)
	}
}

func TestUpdatePreregisteredIndexPanicsExpected(t *testing.T) {
	tbl := context.NewTable[context.VariableEntry]()
	idx := tbl.RegisterNewIndex("x")
	//
	expectAstPanic(t, errors.AstExpectedIndex, func() {
		tbl.Update(idx, context.VariableEntry{Name: "x"})
	})
}
