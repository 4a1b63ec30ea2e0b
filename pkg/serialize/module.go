package serialize

import (
	"fmt"

	"github.com/nzsl-lang/nzslc/pkg/ir"
)

// magicModule is the four-byte file signature for a single serialized
// module, "NSLB" little-endian.
const magicModule = uint32('N') | uint32('S')<<8 | uint32('L')<<16 | uint32('B')<<24

// Version is the {major, minor, patch} tuple stamped into every nzslb
// file. Node tags are stable within a major version; a reader refuses to
// load a file whose major differs from the one it was built against.
type Version struct {
	Major uint8
	Minor uint8
	Patch uint16
}

// CurrentVersion is the format version this package reads and writes.
var CurrentVersion = Version{Major: 1, Minor: 0, Patch: 0}

// WriteModule serializes mod as a complete nzslb file: magic, version,
// metadata, the imported-module index list, then every top-level
// declaration table in a fixed order.
func WriteModule(w *Writer, mod *ir.Module) {
	w.WriteU32(magicModule)
	w.WriteU8(CurrentVersion.Major)
	w.WriteU8(CurrentVersion.Minor)
	w.WriteU16(CurrentVersion.Patch)
	//
	writeMetadata(w, mod.Metadata)
	//
	w.WriteU32(uint32(len(mod.Imports)))
	for _, imp := range mod.Imports {
		w.WriteU32(imp)
	}
	//
	writeStructs(w, mod.Structs)
	writeFunctions(w, mod.Functions)
	writeExternals(w, mod.Externals)
	writeConsts(w, mod.Consts)
	writeOptions(w, mod.Options)
	writeAliases(w, mod.Aliases)
}

// ReadModule deserializes a module written by WriteModule, rejecting a
// major-version mismatch outright.
func ReadModule(r *Reader) (*ir.Module, error) {
	magic, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	//
	if magic != magicModule {
		return nil, fmt.Errorf("serialize: bad module magic %#x", magic)
	}
	//
	major, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	//
	minor, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	//
	patch, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	//
	if major != CurrentVersion.Major {
		return nil, fmt.Errorf("serialize: module major version %d unsupported (reader is %d)", major, CurrentVersion.Major)
	}
	//
	_ = minor
	_ = patch
	//
	metadata, err := readMetadata(r)
	if err != nil {
		return nil, err
	}
	//
	importCount, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	//
	imports := make([]uint32, importCount)
	for i := range imports {
		imports[i], err = r.ReadU32()
		if err != nil {
			return nil, err
		}
	}
	//
	structs, err := readStructs(r)
	if err != nil {
		return nil, err
	}
	//
	functions, err := readFunctions(r)
	if err != nil {
		return nil, err
	}
	//
	externals, err := readExternals(r)
	if err != nil {
		return nil, err
	}
	//
	consts, err := readConsts(r)
	if err != nil {
		return nil, err
	}
	//
	options, err := readOptions(r)
	if err != nil {
		return nil, err
	}
	//
	aliases, err := readAliases(r)
	if err != nil {
		return nil, err
	}
	//
	return &ir.Module{
		Metadata:  metadata,
		Imports:   imports,
		Structs:   structs,
		Functions: functions,
		Externals: externals,
		Consts:    consts,
		Options:   options,
		Aliases:   aliases,
	}, nil
}

func writeMetadata(w *Writer, m ir.Metadata) {
	w.WriteString(m.LangVersion)
	w.WriteString(m.Name)
	w.WriteString(m.Author)
	w.WriteString(m.Description)
	w.WriteString(m.License)
	w.WriteU32(uint32(len(m.EnabledFeatures)))
	//
	for name, enabled := range m.EnabledFeatures {
		w.WriteString(name)
		w.WriteBool(enabled)
	}
}

func readMetadata(r *Reader) (ir.Metadata, error) {
	var m ir.Metadata
	var err error
	//
	if m.LangVersion, err = r.ReadString(); err != nil {
		return m, err
	}
	//
	if m.Name, err = r.ReadString(); err != nil {
		return m, err
	}
	//
	if m.Author, err = r.ReadString(); err != nil {
		return m, err
	}
	//
	if m.Description, err = r.ReadString(); err != nil {
		return m, err
	}
	//
	if m.License, err = r.ReadString(); err != nil {
		return m, err
	}
	//
	n, err := r.ReadU32()
	if err != nil {
		return m, err
	}
	//
	m.EnabledFeatures = make(map[string]bool, n)
	//
	for i := uint32(0); i < n; i++ {
		name, err := r.ReadString()
		if err != nil {
			return m, err
		}
		//
		enabled, err := r.ReadBool()
		if err != nil {
			return m, err
		}
		//
		m.EnabledFeatures[name] = enabled
	}
	//
	return m, nil
}

func writeStructField(w *Writer, f ir.StructField) {
	w.WriteString(f.Name)
	WriteType(w, f.Type)
	w.WriteU32(f.Offset)
}

func readStructField(r *Reader) (ir.StructField, error) {
	name, err := r.ReadString()
	if err != nil {
		return ir.StructField{}, err
	}
	//
	typ, err := ReadType(r)
	if err != nil {
		return ir.StructField{}, err
	}
	//
	offset, err := r.ReadU32()
	return ir.StructField{Name: name, Type: typ, Offset: offset}, err
}

func writeStructs(w *Writer, structs []ir.StructDef) {
	w.WriteU32(uint32(len(structs)))
	//
	for _, s := range structs {
		w.WriteString(s.Name)
		w.WriteU32(uint32(len(s.Fields)))
		//
		for _, f := range s.Fields {
			writeStructField(w, f)
		}
		//
		w.WriteU8(uint8(s.Layout))
		w.WriteU32(s.Align)
		w.WriteU32(s.Size)
	}
}

func readStructs(r *Reader) ([]ir.StructDef, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	//
	out := make([]ir.StructDef, n)
	//
	for i := range out {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		//
		fieldCount, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		fields := make([]ir.StructField, fieldCount)
		//
		for j := range fields {
			fields[j], err = readStructField(r)
			if err != nil {
				return nil, err
			}
		}
		//
		layout, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		align, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		size, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		out[i] = ir.StructDef{Name: name, Fields: fields, Layout: ir.Layout(layout), Align: align, Size: size}
	}
	//
	return out, nil
}

func writeFunctions(w *Writer, fns []ir.FunctionDef) {
	w.WriteU32(uint32(len(fns)))
	//
	for _, fn := range fns {
		w.WriteString(fn.Name)
		w.WriteU32(uint32(len(fn.Params)))
		//
		for _, p := range fn.Params {
			w.WriteString(p.Name)
			WriteType(w, p.Type)
		}
		//
		WriteType(w, fn.ReturnType)
		w.WriteU8(uint8(fn.Entry))
		WriteStmt(w, fn.Body)
	}
}

func readFunctions(r *Reader) ([]ir.FunctionDef, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	//
	out := make([]ir.FunctionDef, n)
	//
	for i := range out {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		//
		paramCount, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		params := make([]ir.Param, paramCount)
		//
		for j := range params {
			pname, err := r.ReadString()
			if err != nil {
				return nil, err
			}
			//
			ptyp, err := ReadType(r)
			if err != nil {
				return nil, err
			}
			//
			params[j] = ir.Param{Name: pname, Type: ptyp}
		}
		//
		retType, err := ReadType(r)
		if err != nil {
			return nil, err
		}
		//
		entry, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		body, err := ReadStmt(r)
		if err != nil {
			return nil, err
		}
		//
		scoped, ok := body.(*ir.Scoped)
		if !ok {
			return nil, fmt.Errorf("serialize: function %q body was %T, not *ir.Scoped", name, body)
		}
		//
		out[i] = ir.FunctionDef{Name: name, Params: params, ReturnType: retType, Entry: ir.EntryStage(entry), Body: scoped}
	}
	//
	return out, nil
}

func writeExternals(w *Writer, exts []ir.ExternalBinding) {
	w.WriteU32(uint32(len(exts)))
	//
	for _, e := range exts {
		w.WriteString(e.Name)
		WriteType(w, e.Type)
		w.WriteU32(e.Set)
		w.WriteU32(e.Binding)
		w.WriteBool(e.AutoAssigned)
		w.WriteString(e.Cond)
	}
}

func readExternals(r *Reader) ([]ir.ExternalBinding, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	//
	out := make([]ir.ExternalBinding, n)
	//
	for i := range out {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		//
		typ, err := ReadType(r)
		if err != nil {
			return nil, err
		}
		//
		set, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		binding, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		auto, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		//
		cond, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		//
		out[i] = ir.ExternalBinding{Name: name, Type: typ, Set: set, Binding: binding, AutoAssigned: auto, Cond: cond}
	}
	//
	return out, nil
}

func writeConsts(w *Writer, consts []ir.ConstDef) {
	w.WriteU32(uint32(len(consts)))
	//
	for _, c := range consts {
		w.WriteString(c.Name)
		WriteType(w, c.Type)
		w.WriteBool(c.Init != nil)
		//
		if c.Init != nil {
			WriteExpr(w, c.Init)
		}
		//
		w.WriteBool(c.Value != nil)
		//
		if c.Value != nil {
			WriteValue(w, c.Value)
		}
	}
}

func readConsts(r *Reader) ([]ir.ConstDef, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	//
	out := make([]ir.ConstDef, n)
	//
	for i := range out {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		//
		typ, err := ReadType(r)
		if err != nil {
			return nil, err
		}
		//
		hasInit, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		//
		var init ir.Expression
		//
		if hasInit {
			init, err = ReadExpr(r)
			if err != nil {
				return nil, err
			}
		}
		//
		hasValue, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		//
		var value ir.Value
		//
		if hasValue {
			value, err = ReadValue(r)
			if err != nil {
				return nil, err
			}
		}
		//
		out[i] = ir.ConstDef{Name: name, Type: typ, Init: init, Value: value}
	}
	//
	return out, nil
}

func writeOptions(w *Writer, opts []ir.OptionDef) {
	w.WriteU32(uint32(len(opts)))
	//
	for _, o := range opts {
		w.WriteString(o.Name)
		WriteType(w, o.Type)
		WriteValue(w, o.Default)
	}
}

func readOptions(r *Reader) ([]ir.OptionDef, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	//
	out := make([]ir.OptionDef, n)
	//
	for i := range out {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		//
		typ, err := ReadType(r)
		if err != nil {
			return nil, err
		}
		//
		def, err := ReadValue(r)
		if err != nil {
			return nil, err
		}
		//
		out[i] = ir.OptionDef{Name: name, Type: typ, Default: def}
	}
	//
	return out, nil
}

func writeAliases(w *Writer, aliases []ir.AliasDef) {
	w.WriteU32(uint32(len(aliases)))
	//
	for _, a := range aliases {
		w.WriteString(a.Name)
		WriteType(w, a.Target)
	}
}

func readAliases(r *Reader) ([]ir.AliasDef, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	//
	out := make([]ir.AliasDef, n)
	//
	for i := range out {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		//
		target, err := ReadType(r)
		if err != nil {
			return nil, err
		}
		//
		out[i] = ir.AliasDef{Name: name, Target: target}
	}
	//
	return out, nil
}
