package serialize

import (
	"fmt"

	"github.com/nzsl-lang/nzslc/pkg/ir"
)

// stmtTag is the stable per-variant tag for every ir.Statement.
type stmtTag uint8

const (
	tagScoped stmtTag = iota
	tagExprStmt
	tagDeclareVariable
	tagDeclareAlias
	tagDeclareConst
	tagBranch
	tagConditionalStmt
	tagWhile
	tagFor
	tagForEach
	tagBreak
	tagContinue
	tagDiscard
	tagReturn
	tagNoOp
	tagMulti
	tagImport
)

// WriteStmt serializes s's span, its tag, then its kind-specific fields.
// stmtBase is unexported in pkg/ir, so only the Span() accessor is used
// here rather than reaching into the struct directly.
func WriteStmt(w *Writer, s ir.Statement) {
	writeSpan(w, s.Span())
	//
	switch n := s.(type) {
	case *ir.Scoped:
		w.WriteU8(uint8(tagScoped))
		writeStmtList(w, n.Stmts)
	case *ir.ExprStmt:
		w.WriteU8(uint8(tagExprStmt))
		WriteExpr(w, n.Expr)
	case *ir.DeclareVariable:
		w.WriteU8(uint8(tagDeclareVariable))
		w.WriteU32(n.VarIndex)
		w.WriteBool(n.Mut)
		w.WriteBool(n.Init != nil)
		//
		if n.Init != nil {
			WriteExpr(w, n.Init)
		}
	case *ir.DeclareAlias:
		w.WriteU8(uint8(tagDeclareAlias))
		w.WriteU32(n.AliasIndex)
	case *ir.DeclareConst:
		w.WriteU8(uint8(tagDeclareConst))
		w.WriteU32(n.ConstIndex)
		WriteExpr(w, n.Value)
	case *ir.Branch:
		w.WriteU8(uint8(tagBranch))
		WriteExpr(w, n.Cond)
		WriteStmt(w, n.Then)
		w.WriteBool(n.Else != nil)
		//
		if n.Else != nil {
			WriteStmt(w, n.Else)
		}
	case *ir.ConditionalStmt:
		w.WriteU8(uint8(tagConditionalStmt))
	case *ir.While:
		w.WriteU8(uint8(tagWhile))
		WriteExpr(w, n.Cond)
		WriteStmt(w, n.Body)
	case *ir.For:
		w.WriteU8(uint8(tagFor))
		w.WriteU32(n.VarIndex)
		WriteExpr(w, n.From)
		WriteExpr(w, n.To)
		WriteStmt(w, n.Body)
		w.WriteBool(n.Unroll)
	case *ir.ForEach:
		w.WriteU8(uint8(tagForEach))
		w.WriteU32(n.VarIndex)
		WriteExpr(w, n.Range)
		WriteStmt(w, n.Body)
		w.WriteBool(n.Unroll)
	case *ir.Break:
		w.WriteU8(uint8(tagBreak))
	case *ir.Continue:
		w.WriteU8(uint8(tagContinue))
	case *ir.Discard:
		w.WriteU8(uint8(tagDiscard))
	case *ir.Return:
		w.WriteU8(uint8(tagReturn))
		w.WriteBool(n.Value != nil)
		//
		if n.Value != nil {
			WriteExpr(w, n.Value)
		}
	case *ir.NoOp:
		w.WriteU8(uint8(tagNoOp))
	case *ir.Multi:
		w.WriteU8(uint8(tagMulti))
		writeStmtList(w, n.Stmts)
	case *ir.Import:
		w.WriteU8(uint8(tagImport))
		w.WriteU32(n.ModuleIndex)
	default:
		panic(fmt.Sprintf("serialize: unhandled ir.Statement %T", s))
	}
}

func writeStmtList(w *Writer, stmts []ir.Statement) {
	w.WriteU32(uint32(len(stmts)))
	for _, s := range stmts {
		WriteStmt(w, s)
	}
}

// ReadStmt deserializes a statement written by WriteStmt.
func ReadStmt(r *Reader) (ir.Statement, error) {
	span, err := readSpan(r)
	if err != nil {
		return nil, err
	}
	//
	tagByte, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	//
	switch stmtTag(tagByte) {
	case tagScoped:
		stmts, err := readStmtList(r)
		if err != nil {
			return nil, err
		}
		//
		n := &ir.Scoped{Stmts: stmts}
		n.NodeSpan = span
		return n, nil
	case tagExprStmt:
		e, err := ReadExpr(r)
		if err != nil {
			return nil, err
		}
		//
		n := &ir.ExprStmt{Expr: e}
		n.NodeSpan = span
		return n, nil
	case tagDeclareVariable:
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		mut, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		//
		hasInit, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		//
		var initExpr ir.Expression
		//
		if hasInit {
			initExpr, err = ReadExpr(r)
			if err != nil {
				return nil, err
			}
		}
		//
		n := &ir.DeclareVariable{VarIndex: idx, Mut: mut, Init: initExpr}
		n.NodeSpan = span
		return n, nil
	case tagDeclareAlias:
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		n := &ir.DeclareAlias{AliasIndex: idx}
		n.NodeSpan = span
		return n, nil
	case tagDeclareConst:
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		value, err := ReadExpr(r)
		if err != nil {
			return nil, err
		}
		//
		n := &ir.DeclareConst{ConstIndex: idx, Value: value}
		n.NodeSpan = span
		return n, nil
	case tagBranch:
		cond, err := ReadExpr(r)
		if err != nil {
			return nil, err
		}
		//
		then, err := ReadStmt(r)
		if err != nil {
			return nil, err
		}
		//
		hasElse, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		//
		var elseStmt ir.Statement
		//
		if hasElse {
			elseStmt, err = ReadStmt(r)
			if err != nil {
				return nil, err
			}
		}
		//
		n := &ir.Branch{Cond: cond, Then: then, Else: elseStmt}
		n.NodeSpan = span
		return n, nil
	case tagConditionalStmt:
		n := &ir.ConditionalStmt{}
		n.NodeSpan = span
		return n, nil
	case tagWhile:
		cond, err := ReadExpr(r)
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
			return nil, fmt.Errorf("serialize: While body was %T, not *ir.Scoped", body)
		}
		//
		n := &ir.While{Cond: cond, Body: scoped}
		n.NodeSpan = span
		return n, nil
	case tagFor:
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		from, err := ReadExpr(r)
		if err != nil {
			return nil, err
		}
		//
		to, err := ReadExpr(r)
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
			return nil, fmt.Errorf("serialize: For body was %T, not *ir.Scoped", body)
		}
		//
		unroll, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		//
		n := &ir.For{VarIndex: idx, From: from, To: to, Body: scoped, Unroll: unroll}
		n.NodeSpan = span
		return n, nil
	case tagForEach:
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		rng, err := ReadExpr(r)
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
			return nil, fmt.Errorf("serialize: ForEach body was %T, not *ir.Scoped", body)
		}
		//
		unroll, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		//
		n := &ir.ForEach{VarIndex: idx, Range: rng, Body: scoped, Unroll: unroll}
		n.NodeSpan = span
		return n, nil
	case tagBreak:
		n := &ir.Break{}
		n.NodeSpan = span
		return n, nil
	case tagContinue:
		n := &ir.Continue{}
		n.NodeSpan = span
		return n, nil
	case tagDiscard:
		n := &ir.Discard{}
		n.NodeSpan = span
		return n, nil
	case tagReturn:
		hasValue, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		//
		var value ir.Expression
		//
		if hasValue {
			value, err = ReadExpr(r)
			if err != nil {
				return nil, err
			}
		}
		//
		n := &ir.Return{Value: value}
		n.NodeSpan = span
		return n, nil
	case tagNoOp:
		n := &ir.NoOp{}
		n.NodeSpan = span
		return n, nil
	case tagMulti:
		stmts, err := readStmtList(r)
		if err != nil {
			return nil, err
		}
		//
		n := &ir.Multi{Stmts: stmts}
		n.NodeSpan = span
		return n, nil
	case tagImport:
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		n := &ir.Import{ModuleIndex: idx}
		n.NodeSpan = span
		return n, nil
	default:
		return nil, fmt.Errorf("serialize: unknown statement tag %d", tagByte)
	}
}

func readStmtList(r *Reader) ([]ir.Statement, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	//
	out := make([]ir.Statement, n)
	for i := range out {
		out[i], err = ReadStmt(r)
		if err != nil {
			return nil, err
		}
	}
	//
	return out, nil
}
