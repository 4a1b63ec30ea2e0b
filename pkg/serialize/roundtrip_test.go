package serialize_test

import (
	"testing"

	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/serialize"
	"github.com/nzsl-lang/nzslc/pkg/source"
)

func span(file source.FileHandle, line uint32) source.Span {
	return source.Span{File: file, StartLine: line, StartCol: 1, EndLine: line, EndCol: 10}
}

func TestTypeRoundTrip(t *testing.T) {
	cases := []ir.Type{
		ir.NoType{},
		ir.F32,
		ir.Vector{Base: ir.BaseF32, N: 3},
		ir.Matrix{Base: ir.BaseF32, Cols: 4, Rows: 3},
		ir.Array{Elem: ir.U32, Length: 8},
		ir.DynArray{Elem: ir.F32},
		ir.Struct{Index: 2},
		ir.Sampler{Dim: ir.Dim2D, Base: ir.BaseF32},
		ir.Texture{Dim: ir.Dim3D, Base: ir.BaseU32, Access: ir.AccessReadWrite},
		ir.Storage{StructIndex: 1, Access: ir.AccessReadOnly},
		ir.Uniform{StructIndex: 0},
		ir.PushConstant{StructIndex: 0},
		ir.Alias{Index: 3, Target: ir.F32},
		ir.Function{Index: 5},
		ir.Method{Receiver: ir.Texture{Dim: ir.Dim2D, Base: ir.BaseF32}, Name: "Sample"},
		ir.ModuleRef{Index: 1},
		ir.NamedExternalBlock{Index: 0},
		ir.TypeOfType{Wrapped: ir.F32},
		ir.ImplicitVector{N: 4},
		ir.FloatLiteral{},
		ir.IntLiteral{},
	}
	//
	for _, tc := range cases {
		w := serialize.NewWriter()
		serialize.WriteType(w, tc)
		//
		r := serialize.NewReader(w.Bytes())
		got, err := serialize.ReadType(r)
		if err != nil {
			t.Fatalf("ReadType(%v): %v", tc, err)
		}
		//
		if !ir.Equal(tc, got) {
			t.Fatalf("round trip mismatch: wrote %#v, read %#v", tc, got)
		}
		//
		if r.Remaining() != 0 {
			t.Fatalf("%d unread bytes after decoding %v", r.Remaining(), tc)
		}
	}
}

func TestValueRoundTrip(t *testing.T) {
	f32bits := func(v uint64) ir.Bits { return ir.Bits{Base: ir.BaseF32, Bits: v} }
	//
	cases := []ir.Value{
		ir.NoValue{},
		ir.Single{V: f32bits(0x3f800000)},
		ir.Vector2{X: f32bits(1), Y: f32bits(2)},
		ir.Vector3{X: f32bits(1), Y: f32bits(2), Z: f32bits(3)},
		ir.Vector4{X: f32bits(1), Y: f32bits(2), Z: f32bits(3), W: f32bits(4)},
		ir.ArrayValue{Elems: []ir.Value{ir.Single{V: f32bits(1)}, ir.Single{V: f32bits(2)}}},
	}
	//
	for _, tc := range cases {
		w := serialize.NewWriter()
		serialize.WriteValue(w, tc)
		//
		r := serialize.NewReader(w.Bytes())
		got, err := serialize.ReadValue(r)
		if err != nil {
			t.Fatalf("ReadValue(%v): %v", tc, err)
		}
		//
		if got.String() != tc.String() {
			t.Fatalf("round trip mismatch: wrote %v, read %v", tc, got)
		}
	}
}

func exprSpanEq(t *testing.T, want, got source.Span) {
	t.Helper()
	//
	if want != got {
		t.Fatalf("span mismatch: want %+v, got %+v", want, got)
	}
}

func TestExprRoundTrip(t *testing.T) {
	sp := span(0, 4)
	ident := &ir.Identifier{ExprBase: ir.ExprBase{NodeSpan: sp, Typ: ir.F32}, VarIndex: 7}
	bin := &ir.Binary{
		ExprBase: ir.ExprBase{NodeSpan: sp, Typ: ir.F32},
		Op:       ir.BinAdd,
		Lhs:      ident,
		Rhs:      &ir.ConstantValue{ExprBase: ir.ExprBase{Typ: ir.F32}, Value: ir.Single{V: ir.Bits{Base: ir.BaseF32, Bits: 1}}},
	}
	//
	w := serialize.NewWriter()
	serialize.WriteExpr(w, bin)
	//
	r := serialize.NewReader(w.Bytes())
	got, err := serialize.ReadExpr(r)
	if err != nil {
		t.Fatalf("ReadExpr: %v", err)
	}
	//
	gotBin, ok := got.(*ir.Binary)
	if !ok {
		t.Fatalf("expected *ir.Binary, got %T", got)
	}
	//
	exprSpanEq(t, sp, gotBin.Span())
	//
	if gotBin.Op != ir.BinAdd {
		t.Fatalf("op mismatch: got %d", gotBin.Op)
	}
	//
	gotIdent, ok := gotBin.Lhs.(*ir.Identifier)
	if !ok || gotIdent.VarIndex != 7 {
		t.Fatalf("lhs mismatch: got %#v", gotBin.Lhs)
	}
	//
	gotConst, ok := gotBin.Rhs.(*ir.ConstantValue)
	if !ok || gotConst.Value.String() != bin.Rhs.(*ir.ConstantValue).Value.String() {
		t.Fatalf("rhs mismatch: got %#v", gotBin.Rhs)
	}
}

func TestStmtRoundTripPreservesMultiAndScoped(t *testing.T) {
	decl := &ir.DeclareVariable{VarIndex: 0, Mut: true, Init: &ir.ConstantValue{Value: ir.Single{V: ir.Bits{Base: ir.BaseU32, Bits: 3}}}}
	ret := &ir.Return{Value: &ir.Identifier{VarIndex: 0}}
	scoped := &ir.Scoped{Stmts: []ir.Statement{decl, ret}}
	multi := &ir.Multi{Stmts: []ir.Statement{scoped, &ir.Break{}}}
	//
	w := serialize.NewWriter()
	serialize.WriteStmt(w, multi)
	//
	r := serialize.NewReader(w.Bytes())
	got, err := serialize.ReadStmt(r)
	if err != nil {
		t.Fatalf("ReadStmt: %v", err)
	}
	//
	gotMulti, ok := got.(*ir.Multi)
	if !ok || len(gotMulti.Stmts) != 2 {
		t.Fatalf("expected 2-stmt Multi, got %#v", got)
	}
	//
	gotScoped, ok := gotMulti.Stmts[0].(*ir.Scoped)
	if !ok || len(gotScoped.Stmts) != 2 {
		t.Fatalf("expected 2-stmt Scoped, got %#v", gotMulti.Stmts[0])
	}
	//
	gotDecl, ok := gotScoped.Stmts[0].(*ir.DeclareVariable)
	if !ok || !gotDecl.Mut || gotDecl.Init == nil {
		t.Fatalf("declare mismatch: got %#v", gotScoped.Stmts[0])
	}
	//
	if _, ok := gotMulti.Stmts[1].(*ir.Break); !ok {
		t.Fatalf("expected trailing *ir.Break, got %#v", gotMulti.Stmts[1])
	}
}

func buildSampleModule() *ir.Module {
	body := &ir.Scoped{Stmts: []ir.Statement{
		&ir.Return{Value: &ir.ConstantValue{ExprBase: ir.ExprBase{Typ: ir.F32}, Value: ir.Single{V: ir.Bits{Base: ir.BaseF32, Bits: 0x3f800000}}}},
	}}
	//
	return &ir.Module{
		Metadata: ir.Metadata{
			LangVersion:     "1.0",
			Name:            "sample",
			Author:          "",
			Description:     "a sample module",
			License:         "MIT",
			EnabledFeatures: map[string]bool{"primitive_externals": true},
		},
		Structs: []ir.StructDef{
			{
				Name: "Block",
				Fields: []ir.StructField{
					{Name: "f", Type: ir.F32, Offset: 0},
					{Name: "v", Type: ir.Vector{Base: ir.BaseF32, N: 3}, Offset: 16},
				},
				Layout: ir.LayoutStd140,
				Align:  16,
				Size:   32,
			},
		},
		Functions: []ir.FunctionDef{
			{Name: "main", Params: nil, ReturnType: ir.F32, Entry: ir.EntryFragment, Body: body},
		},
		Externals: []ir.ExternalBinding{
			{Name: "ubo", Type: ir.Uniform{StructIndex: 0}, Set: 0, Binding: 0, AutoAssigned: true},
		},
		Consts: []ir.ConstDef{
			{Name: "PI", Type: ir.F32, Init: &ir.ConstantValue{Value: ir.Single{V: ir.Bits{Base: ir.BaseF32, Bits: 0x40490fdb}}}},
		},
		Options: []ir.OptionDef{
			{Name: "DEBUG", Type: ir.Scalar{Base: ir.BaseBool}, Default: ir.Single{V: ir.Bits{Base: ir.BaseBool, Bits: 0}}},
		},
		Aliases: []ir.AliasDef{
			{Name: "Vec3", Target: ir.Vector{Base: ir.BaseF32, N: 3}},
		},
	}
}

func TestModuleRoundTrip(t *testing.T) {
	mod := buildSampleModule()
	//
	w := serialize.NewWriter()
	serialize.WriteModule(w, mod)
	//
	r := serialize.NewReader(w.Bytes())
	got, err := serialize.ReadModule(r)
	if err != nil {
		t.Fatalf("ReadModule: %v", err)
	}
	//
	if got.Metadata.Name != mod.Metadata.Name || got.Metadata.License != mod.Metadata.License {
		t.Fatalf("metadata mismatch: got %#v", got.Metadata)
	}
	//
	if len(got.Structs) != 1 || got.Structs[0].Name != "Block" || got.Structs[0].Layout != ir.LayoutStd140 {
		t.Fatalf("struct mismatch: got %#v", got.Structs)
	}
	//
	if len(got.Functions) != 1 || got.Functions[0].Name != "main" || got.Functions[0].Entry != ir.EntryFragment {
		t.Fatalf("function mismatch: got %#v", got.Functions)
	}
	//
	if len(got.Externals) != 1 || got.Externals[0].Name != "ubo" {
		t.Fatalf("external mismatch: got %#v", got.Externals)
	}
	//
	if len(got.Consts) != 1 || got.Consts[0].Name != "PI" {
		t.Fatalf("const mismatch: got %#v", got.Consts)
	}
	//
	if len(got.Options) != 1 || got.Options[0].Name != "DEBUG" {
		t.Fatalf("option mismatch: got %#v", got.Options)
	}
	//
	if len(got.Aliases) != 1 || got.Aliases[0].Name != "Vec3" {
		t.Fatalf("alias mismatch: got %#v", got.Aliases)
	}
}

func TestModuleRoundTripRejectsBadMagic(t *testing.T) {
	buf := []byte{0, 0, 0, 0}
	r := serialize.NewReader(buf)
	//
	if _, err := serialize.ReadModule(r); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	a := serialize.NewArchive()
	mod1 := buildSampleModule()
	mod2 := buildSampleModule()
	mod2.Metadata.Name = "second"
	//
	if err := a.AddModule("sample", mod1, false); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	//
	if err := a.AddModule("second", mod2, true); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	//
	w := serialize.NewWriter()
	if err := serialize.WriteArchive(w, a); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	//
	r := serialize.NewReader(w.Bytes())
	modules, err := serialize.ReadArchive(r)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	//
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	//
	if modules["sample"].Metadata.Name != "sample" {
		t.Fatalf("sample module mismatch: %#v", modules["sample"].Metadata)
	}
	//
	if modules["second"].Metadata.Name != "second" {
		t.Fatalf("second module mismatch: %#v", modules["second"].Metadata)
	}
}

func TestArchiveRejectsDuplicateNames(t *testing.T) {
	a := serialize.NewArchive()
	mod := buildSampleModule()
	//
	if err := a.AddModule("dup", mod, false); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	//
	if err := a.AddModule("dup", mod, false); err == nil {
		t.Fatalf("expected duplicate-name error")
	}
}
