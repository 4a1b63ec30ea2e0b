package passes

import (
	"fmt"

	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// FieldOffsets is the std140 layout accumulator: a
// small state machine threading {largest alignment, current size} through
// one AddField call per
// struct member, in declaration order. Encapsulating the rules here means
// Std140Emulation and UniformStructToStd140 -- the two passes that need
// them -- always agree.
type FieldOffsets struct {
	largestAlignment uint32
	currentSize      uint32
}

// AddField reports the byte offset this field takes within the struct
// being laid out, given its std140 alignment and size, and advances the
// accumulator past it.
func (f *FieldOffsets) AddField(align, size uint32) uint32 {
	if align > f.largestAlignment {
		f.largestAlignment = align
	}
	//
	offset := roundUp(f.currentSize, align)
	f.currentSize = offset + size
	return offset
}

// Finish returns the struct's own std140 alignment and total padded size.
// aggregate records whether any member was itself a struct/array/matrix,
// which forces the struct's alignment up to at least
// vec4 (16 bytes) even if every scalar member individually needs less.
func (f *FieldOffsets) Finish(aggregate bool) (align, size uint32) {
	align = f.largestAlignment
	if aggregate && align < 16 {
		align = 16
	}
	//
	if align == 0 {
		align = 4
	}
	//
	size = roundUp(f.currentSize, align)
	return align, size
}

func roundUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	//
	rem := v % align
	if rem == 0 {
		return v
	}
	//
	return v + (align - rem)
}

// std140AlignSize reports t's std140 alignment, size, and whether it is an
// aggregate (struct/array/matrix, which drives the vec4-alignment rule in
// FieldOffsets.Finish):
//   - scalars: align 4, size 4.
//   - vec2: align 8, size 8. vec3: align 16, size 12. vec4: align 16, size 16.
//   - matrices: Cols columns, each a vec4-aligned/sized column vector.
//   - arrays: element size rounded up to 16 for the stride; element
//     alignment rounded up to 16 for the array's own alignment.
//   - structs: recursively laid out first (memoized via done), then
//     aligned/sized per the nested-struct rule above.
func std140AlignSize(mod *ir.Module, t ir.Type, done map[uint32]bool) (align, size uint32, aggregate bool) {
	switch tt := t.(type) {
	case ir.Scalar:
		return 4, 4, false
	case ir.Vector:
		switch tt.N {
		case 2:
			return 8, 8, false
		case 3:
			return 16, 12, false
		default:
			return 16, 16, false
		}
	case ir.Matrix:
		return 16, 16 * uint32(tt.Cols), true
	case ir.Array:
		elemAlign, elemSize, _ := std140AlignSize(mod, tt.Elem, done)
		stride := roundUp(elemSize, 16)
		align := roundUp(elemAlign, 16)
		return align, stride * tt.Length, true
	case ir.Struct:
		align, size := layoutStd140Struct(mod, tt.Index, done)
		return align, size, true
	case ir.Alias:
		return std140AlignSize(mod, tt.Target, done)
	default:
		return 4, 4, false
	}
}

// layoutStd140Struct computes (and caches, via done) the std140 offset of
// every field of mod.Structs[idx], writing each field's Offset in place
// and returning the struct's own alignment/size.
func layoutStd140Struct(mod *ir.Module, idx uint32, done map[uint32]bool) (align, size uint32) {
	if done[idx] {
		sd := mod.Structs[idx]
		return sd.Align, sd.Size
	}
	//
	done[idx] = true
	//
	sd := &mod.Structs[idx]
	acc := FieldOffsets{}
	aggregate := false
	//
	for i := range sd.Fields {
		f := &sd.Fields[i]
		//
		a, s, agg := std140AlignSize(mod, f.Type, done)
		if agg {
			aggregate = true
		}
		//
		f.Offset = acc.AddField(a, s)
	}
	//
	sd.Align, sd.Size = acc.Finish(aggregate)
	sd.Layout = ir.LayoutStd140
	return sd.Align, sd.Size
}

// uniformStructIndices reports every struct index reachable from an
// `ir.Uniform`-typed external binding -- the population the std140 passes
// 14 targets ("for struct types used in uniform blocks").
func uniformStructIndices(mod *ir.Module) []uint32 {
	var out []uint32
	seen := map[uint32]bool{}
	//
	for _, ext := range mod.Externals {
		if u, ok := ext.Type.(ir.Uniform); ok && !seen[u.StructIndex] {
			seen[u.StructIndex] = true
			out = append(out, u.StructIndex)
		}
	}
	//
	return out
}

// Std140Emulation is step 14a of the pipeline: for
// every struct used in uniform position, it annotates the struct in place
// with std140-compliant field offsets, for back-ends that can honor an
// explicit `layout(std140)`-style annotation natively. A back-end without
// that capability requests UniformStructToStd140 instead.
type Std140Emulation struct{}

func (p *Std140Emulation) Name() string { return "Std140Emulation" }

func (p *Std140Emulation) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	done := map[uint32]bool{}
	for _, idx := range uniformStructIndices(mod) {
		layoutStd140Struct(mod, idx, done)
	}
	//
	return nil
}

// UniformStructToStd140 is step 14b of the pipeline: for every
// struct used in uniform position, it computes the std140 offsets (exactly
// as Std140Emulation does) but, instead of annotating the original struct,
// emits a shadow StructDef with explicit padding fields inserted so that a
// back-end emitting a plain sequential struct (no layout annotation
// support) still matches std140 byte offsets. Every uniform external
// referencing the original struct is repointed at the shadow, and every
// AccessField reachable from that external is remapped to the shadow's
// (padding-shifted) field indices.
type UniformStructToStd140 struct{}

func (p *UniformStructToStd140) Name() string { return "UniformStructToStd140" }

func (p *UniformStructToStd140) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	done := map[uint32]bool{}
	shadowOf := map[uint32]uint32{}
	fieldRemap := map[uint32]map[uint32]uint32{} // origStructIdx -> origFieldIdx -> shadowFieldIdx
	//
	for i := range mod.Externals {
		u, ok := mod.Externals[i].Type.(ir.Uniform)
		if !ok {
			continue
		}
		//
		shadowIdx, ok := shadowOf[u.StructIndex]
		if !ok {
			shadowIdx = buildShadowStruct(mod, u.StructIndex, done, fieldRemap)
			shadowOf[u.StructIndex] = shadowIdx
		}
		//
		remap := fieldRemap[u.StructIndex]
		extIdx := uint32(i)
		mod.Externals[i].Type = ir.Uniform{StructIndex: shadowIdx}
		remapExternalFieldAccess(mod, extIdx, remap)
	}
	//
	return nil
}

// buildShadowStruct lays out mod.Structs[origIdx] (without mutating it),
// appends a new StructDef to mod.Structs with explicit `_pad<n>` fields
// filling every gap std140 alignment introduces, and records the
// orig-field-index -> shadow-field-index mapping into fieldRemap.
func buildShadowStruct(mod *ir.Module, origIdx uint32, done map[uint32]bool, fieldRemap map[uint32]map[uint32]uint32) uint32 {
	orig := mod.Structs[origIdx]
	acc := FieldOffsets{}
	aggregate := false
	offsets := make([]uint32, len(orig.Fields))
	sizes := make([]uint32, len(orig.Fields))
	//
	for i, f := range orig.Fields {
		a, s, agg := std140AlignSize(mod, f.Type, done)
		if agg {
			aggregate = true
		}
		//
		offsets[i] = acc.AddField(a, s)
		sizes[i] = s
	}
	//
	align, size := acc.Finish(aggregate)
	//
	var shadowFields []ir.StructField
	remap := make(map[uint32]uint32, len(orig.Fields))
	running := uint32(0)
	padCount := 0
	//
	for i, f := range orig.Fields {
		if offsets[i] > running {
			gap := offsets[i] - running
			shadowFields = append(shadowFields, ir.StructField{
				Name:   fmt.Sprintf("_pad%d", padCount),
				Type:   ir.Array{Elem: ir.U32, Length: gap / 4},
				Offset: running,
			})
			padCount++
		}
		//
		remap[uint32(i)] = uint32(len(shadowFields))
		shadowFields = append(shadowFields, ir.StructField{Name: f.Name, Type: f.Type, Offset: offsets[i]})
		running = offsets[i] + sizes[i]
	}
	//
	fieldRemap[origIdx] = remap
	//
	shadow := ir.StructDef{
		Name:   orig.Name + "_Std140",
		Fields: shadowFields,
		Layout: ir.LayoutStd140,
		Align:  align,
		Size:   size,
	}
	//
	mod.Structs = append(mod.Structs, shadow)
	return uint32(len(mod.Structs) - 1)
}

// remapExternalFieldAccess rewrites every AccessField.FieldIndex reachable
// from a read of external extIdx using remap (orig field index -> shadow
// field index).
func remapExternalFieldAccess(mod *ir.Module, extIdx uint32, remap map[uint32]uint32) {
	v := &transform.Visitor{
		VisitExpr: func(e ir.Expression, _ []ir.Statement) transform.ExprResult {
			if af, ok := e.(*ir.AccessField); ok {
				if ext, ok := af.Base.(*ir.AccessExternal); ok && ext.ExternalIndex == extIdx {
					if newIdx, ok := remap[af.FieldIndex]; ok {
						af.FieldIndex = newIdx
					}
				}
			}
			//
			return transform.ExprResult{Action: transform.VisitChildren}
		},
	}
	//
	for i := range mod.Functions {
		fn := &mod.Functions[i]
		if fn.Body != nil {
			transform.Walk(v, fn.Body.Stmts)
		}
	}
}
