package passes

import (
	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// Matrix is step 11 of the pipeline, a target-request pass: it lowers `mat ±
// mat` into per-column vector arithmetic, and a matrix-from-matrix cast into a
// constructor of its source's columns (padded/truncated to the target's column
// count), for back-ends with no native matrix add/sub or matrix-to-matrix cast
// instruction.
type Matrix struct{}

func (p *Matrix) Name() string { return "Matrix" }

func (p *Matrix) Run(mod *ir.Module, ctx *context.TransformerContext) []errors.Diagnostic {
	debugf(p.Name(), mod.Metadata.Name)
	//
	v := &transform.Visitor{
		VisitExpr: func(e ir.Expression, _ []ir.Statement) transform.ExprResult {
			switch n := e.(type) {
			case *ir.Binary:
				if n.Op == ir.BinAdd || n.Op == ir.BinSub {
					if m, ok := n.Lhs.Type().(ir.Matrix); ok {
						return transform.ExprResult{Action: transform.VisitChildren, Replace: lowerMatrixBinary(n, m)}
					}
				}
			case *ir.Cast:
				if m, ok := n.Type().(ir.Matrix); ok && len(n.Values) == 1 {
					if src, ok := n.Values[0].Type().(ir.Matrix); ok {
						return transform.ExprResult{Action: transform.VisitChildren, Replace: lowerMatrixCast(n, m, src)}
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
			fn.Body.Stmts = transform.Walk(v, fn.Body.Stmts)
		}
	}
	//
	return nil
}

// lowerMatrixBinary rewrites `A + B`/`A - B` (both Matrix(base, cols,
// rows)) into `mat(A[0] + B[0], A[1] + B[1], ..., A[cols-1] + B[cols-1])`,
// each column combined as a vector op.
func lowerMatrixBinary(n *ir.Binary, m ir.Matrix) ir.Expression {
	colType := ir.Vector{Base: m.Base, N: m.Rows}
	cols := make([]ir.Expression, m.Cols)
	//
	for c := 0; c < m.Cols; c++ {
		idx := colIndex(c)
		lc := &ir.AccessIndex{ExprBase: ir.ExprBase{NodeSpan: n.Span(), Typ: colType}, Base: n.Lhs, Index: idx}
		rc := &ir.AccessIndex{ExprBase: ir.ExprBase{NodeSpan: n.Span(), Typ: colType}, Base: n.Rhs, Index: idx}
		cols[c] = &ir.Binary{ExprBase: ir.ExprBase{NodeSpan: n.Span(), Typ: colType}, Op: n.Op, Lhs: lc, Rhs: rc}
	}
	//
	return &ir.Cast{ExprBase: n.ExprBase, Values: cols}
}

// lowerMatrixCast rewrites a matrix-to-matrix cast into an explicit
// per-column constructor, padding missing columns with identity columns
// (0 everywhere, 1 on the diagonal) when widening and dropping extra source
// columns when narrowing; a column whose row count differs is wrapped in a
// vector cast to the target column type.
func lowerMatrixCast(n *ir.Cast, dst, src ir.Matrix) ir.Expression {
	srcColType := ir.Vector{Base: src.Base, N: src.Rows}
	dstColType := ir.Vector{Base: dst.Base, N: dst.Rows}
	cols := make([]ir.Expression, dst.Cols)
	//
	for c := 0; c < dst.Cols; c++ {
		if c < src.Cols {
			col := &ir.AccessIndex{ExprBase: ir.ExprBase{NodeSpan: n.Span(), Typ: srcColType}, Base: n.Values[0], Index: colIndex(c)}
			//
			if src.Rows == dst.Rows {
				cols[c] = col
			} else {
				cols[c] = &ir.Cast{ExprBase: ir.ExprBase{NodeSpan: n.Span(), Typ: dstColType}, Values: []ir.Expression{col}}
			}
		} else {
			cols[c] = identityColumn(dst, c)
		}
	}
	//
	return &ir.Cast{ExprBase: n.ExprBase, Values: cols}
}

func colIndex(c int) ir.Expression {
	return &ir.ConstantValue{ExprBase: ir.ExprBase{Typ: ir.I32}, Value: ir.Single{V: ir.Bits{Base: ir.BaseI32, Bits: uint64(c)}}}
}

// identityColumn builds the padding column used when widening a matrix
// cast beyond its source's column count: all zero except a 1 on the
// diagonal entry, matching the identity matrix's column c.
func identityColumn(m ir.Matrix, c int) ir.Expression {
	elems := make([]ir.Expression, m.Rows)
	//
	for r := 0; r < m.Rows; r++ {
		bits := uint64(0)
		//
		if r == c {
			bits = floatOneBits(m.Base)
		}
		//
		elems[r] = &ir.ConstantValue{ExprBase: ir.ExprBase{Typ: ir.Scalar{Base: m.Base}}, Value: ir.Single{V: ir.Bits{Base: m.Base, Bits: bits}}}
	}
	//
	return &ir.Cast{ExprBase: ir.ExprBase{Typ: ir.Vector{Base: m.Base, N: m.Rows}}, Values: elems}
}

func floatOneBits(base ir.Base) uint64 {
	switch base {
	case ir.BaseF32, ir.BaseF64:
		return floatBitsOne
	}
	//
	return 1
}

// floatBitsOne is the IEEE-754 double-precision bit pattern for 1.0,
// matching the Bits-as-float64-bits convention used throughout pkg/ir
// (see ir.Bits's doc comment).
const floatBitsOne = 0x3FF0000000000000
