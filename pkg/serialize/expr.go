package serialize

import (
	"fmt"

	"github.com/nzsl-lang/nzslc/pkg/ir"
)

// exprTag is the stable per-variant tag for every ir.Expression.
type exprTag uint8

const (
	tagIdentifier exprTag = iota
	tagIdentifierValue
	tagAccessField
	tagAccessConst
	tagAccessExternal
	tagAccessIdentifier
	tagAccessIndex
	tagSwizzle
	tagAssign
	tagBinary
	tagUnary
	tagCallFunction
	tagCallMethod
	tagIntrinsicCall
	tagCast
	tagConditionalExpr
	tagConstantValue
	tagConstantArrayValue
	tagTypeConstant
)

func writeExprBase(w *Writer, e ir.Expression) {
	writeSpan(w, e.Span())
	WriteType(w, e.Type())
}

func readExprBase(r *Reader) (ir.ExprBase, error) {
	span, err := readSpan(r)
	if err != nil {
		return ir.ExprBase{}, err
	}
	//
	typ, err := ReadType(r)
	if err != nil {
		return ir.ExprBase{}, err
	}
	//
	return ir.ExprBase{NodeSpan: span, Typ: typ}, nil
}

// WriteExpr serializes e's tag, its ExprBase (span + cached type), then
// its kind-specific fields in declaration order.
func WriteExpr(w *Writer, e ir.Expression) {
	switch n := e.(type) {
	case *ir.Identifier:
		w.WriteU8(uint8(tagIdentifier))
		writeExprBase(w, e)
		w.WriteU32(n.VarIndex)
	case *ir.IdentifierValue:
		w.WriteU8(uint8(tagIdentifierValue))
		writeExprBase(w, e)
		WriteExpr(w, n.Identifier)
		WriteValue(w, n.Value)
	case *ir.AccessField:
		w.WriteU8(uint8(tagAccessField))
		writeExprBase(w, e)
		WriteExpr(w, n.Base)
		w.WriteU32(n.FieldIndex)
	case *ir.AccessConst:
		w.WriteU8(uint8(tagAccessConst))
		writeExprBase(w, e)
		w.WriteU32(n.ConstIndex)
	case *ir.AccessExternal:
		w.WriteU8(uint8(tagAccessExternal))
		writeExprBase(w, e)
		w.WriteU32(n.ExternalIndex)
	case *ir.AccessIdentifier:
		w.WriteU8(uint8(tagAccessIdentifier))
		writeExprBase(w, e)
		w.WriteU32(n.ModuleIndex)
		w.WriteU32(n.VarIndex)
	case *ir.AccessIndex:
		w.WriteU8(uint8(tagAccessIndex))
		writeExprBase(w, e)
		WriteExpr(w, n.Base)
		WriteExpr(w, n.Index)
	case *ir.Swizzle:
		w.WriteU8(uint8(tagSwizzle))
		writeExprBase(w, e)
		WriteExpr(w, n.Base)
		w.WriteU8(uint8(len(n.Components)))
		//
		for _, c := range n.Components {
			w.WriteU8(c)
		}
	case *ir.Assign:
		w.WriteU8(uint8(tagAssign))
		writeExprBase(w, e)
		w.WriteU8(n.Op)
		WriteExpr(w, n.Target)
		WriteExpr(w, n.Value)
	case *ir.Binary:
		w.WriteU8(uint8(tagBinary))
		writeExprBase(w, e)
		w.WriteU8(n.Op)
		WriteExpr(w, n.Lhs)
		WriteExpr(w, n.Rhs)
	case *ir.Unary:
		w.WriteU8(uint8(tagUnary))
		writeExprBase(w, e)
		w.WriteU8(n.Op)
		WriteExpr(w, n.Operand)
	case *ir.CallFunction:
		w.WriteU8(uint8(tagCallFunction))
		writeExprBase(w, e)
		w.WriteU32(n.FunctionIndex)
		w.WriteU32(uint32(len(n.Args)))
		//
		for _, a := range n.Args {
			WriteExpr(w, a)
		}
	case *ir.CallMethod:
		w.WriteU8(uint8(tagCallMethod))
		writeExprBase(w, e)
		WriteExpr(w, n.Receiver)
		w.WriteString(n.Name)
		w.WriteU32(uint32(len(n.Args)))
		//
		for _, a := range n.Args {
			WriteExpr(w, a)
		}
	case *ir.IntrinsicCall:
		w.WriteU8(uint8(tagIntrinsicCall))
		writeExprBase(w, e)
		w.WriteU16(uint16(n.Kind))
		w.WriteU32(uint32(len(n.Args)))
		//
		for _, a := range n.Args {
			WriteExpr(w, a)
		}
	case *ir.Cast:
		w.WriteU8(uint8(tagCast))
		writeExprBase(w, e)
		w.WriteU32(uint32(len(n.Values)))
		//
		for _, v := range n.Values {
			WriteExpr(w, v)
		}
	case *ir.Conditional:
		w.WriteU8(uint8(tagConditionalExpr))
		writeExprBase(w, e)
		WriteExpr(w, n.Cond)
		WriteExpr(w, n.A)
		WriteExpr(w, n.B)
	case *ir.ConstantValue:
		w.WriteU8(uint8(tagConstantValue))
		writeExprBase(w, e)
		WriteValue(w, n.Value)
	case *ir.ConstantArrayValue:
		w.WriteU8(uint8(tagConstantArrayValue))
		writeExprBase(w, e)
		w.WriteU32(uint32(len(n.Elems)))
		//
		for _, el := range n.Elems {
			WriteExpr(w, el)
		}
	case *ir.TypeConstant:
		w.WriteU8(uint8(tagTypeConstant))
		writeExprBase(w, e)
		WriteType(w, n.Referenced)
	default:
		panic(fmt.Sprintf("serialize: unhandled ir.Expression %T", e))
	}
}

// ReadExpr deserializes an expression written by WriteExpr.
func ReadExpr(r *Reader) (ir.Expression, error) {
	tagByte, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	//
	base, err := readExprBase(r)
	if err != nil {
		return nil, err
	}
	//
	switch exprTag(tagByte) {
	case tagIdentifier:
		idx, err := r.ReadU32()
		return &ir.Identifier{ExprBase: base, VarIndex: idx}, err
	case tagIdentifierValue:
		ident, err := ReadExpr(r)
		if err != nil {
			return nil, err
		}
		//
		id, ok := ident.(*ir.Identifier)
		if !ok {
			return nil, fmt.Errorf("serialize: IdentifierValue's Identifier child was %T", ident)
		}
		//
		val, err := ReadValue(r)
		return &ir.IdentifierValue{ExprBase: base, Identifier: id, Value: val}, err
	case tagAccessField:
		b, err := ReadExpr(r)
		if err != nil {
			return nil, err
		}
		//
		idx, err := r.ReadU32()
		return &ir.AccessField{ExprBase: base, Base: b, FieldIndex: idx}, err
	case tagAccessConst:
		idx, err := r.ReadU32()
		return &ir.AccessConst{ExprBase: base, ConstIndex: idx}, err
	case tagAccessExternal:
		idx, err := r.ReadU32()
		return &ir.AccessExternal{ExprBase: base, ExternalIndex: idx}, err
	case tagAccessIdentifier:
		modIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		varIdx, err := r.ReadU32()
		return &ir.AccessIdentifier{ExprBase: base, ModuleIndex: modIdx, VarIndex: varIdx}, err
	case tagAccessIndex:
		b, err := ReadExpr(r)
		if err != nil {
			return nil, err
		}
		//
		idx, err := ReadExpr(r)
		return &ir.AccessIndex{ExprBase: base, Base: b, Index: idx}, err
	case tagSwizzle:
		b, err := ReadExpr(r)
		if err != nil {
			return nil, err
		}
		//
		n, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		comps := make([]uint8, n)
		for i := range comps {
			comps[i], err = r.ReadU8()
			if err != nil {
				return nil, err
			}
		}
		//
		return &ir.Swizzle{ExprBase: base, Base: b, Components: comps}, nil
	case tagAssign:
		op, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		target, err := ReadExpr(r)
		if err != nil {
			return nil, err
		}
		//
		value, err := ReadExpr(r)
		return &ir.Assign{ExprBase: base, Op: op, Target: target, Value: value}, err
	case tagBinary:
		op, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		lhs, err := ReadExpr(r)
		if err != nil {
			return nil, err
		}
		//
		rhs, err := ReadExpr(r)
		return &ir.Binary{ExprBase: base, Op: op, Lhs: lhs, Rhs: rhs}, err
	case tagUnary:
		op, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		operand, err := ReadExpr(r)
		return &ir.Unary{ExprBase: base, Op: op, Operand: operand}, err
	case tagCallFunction:
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		args, err := readExprList(r)
		return &ir.CallFunction{ExprBase: base, FunctionIndex: idx, Args: args}, err
	case tagCallMethod:
		recv, err := ReadExpr(r)
		if err != nil {
			return nil, err
		}
		//
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		//
		args, err := readExprList(r)
		return &ir.CallMethod{ExprBase: base, Receiver: recv, Name: name, Args: args}, err
	case tagIntrinsicCall:
		kind, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		//
		args, err := readExprList(r)
		return &ir.IntrinsicCall{ExprBase: base, Kind: ir.IntrinsicKind(kind), Args: args}, err
	case tagCast:
		values, err := readExprList(r)
		return &ir.Cast{ExprBase: base, Values: values}, err
	case tagConditionalExpr:
		cond, err := ReadExpr(r)
		if err != nil {
			return nil, err
		}
		//
		a, err := ReadExpr(r)
		if err != nil {
			return nil, err
		}
		//
		b, err := ReadExpr(r)
		return &ir.Conditional{ExprBase: base, Cond: cond, A: a, B: b}, err
	case tagConstantValue:
		v, err := ReadValue(r)
		return &ir.ConstantValue{ExprBase: base, Value: v}, err
	case tagConstantArrayValue:
		elems, err := readExprList(r)
		return &ir.ConstantArrayValue{ExprBase: base, Elems: elems}, err
	case tagTypeConstant:
		t, err := ReadType(r)
		return &ir.TypeConstant{ExprBase: base, Referenced: t}, err
	default:
		return nil, fmt.Errorf("serialize: unknown expression tag %d", tagByte)
	}
}

func readExprList(r *Reader) ([]ir.Expression, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	//
	out := make([]ir.Expression, n)
	for i := range out {
		out[i], err = ReadExpr(r)
		if err != nil {
			return nil, err
		}
	}
	//
	return out, nil
}
