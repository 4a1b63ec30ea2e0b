// Package transform implements the pass infrastructure that rewrites an
// ir.Module in place: a generic visitor and TransformerExecutor, the fixed ordered pipeline
// of passes that lowers a freshly-resolved Module into one ready for a
// back-end. Rather than each pass hand-rolling its own switch-based
// traversal, this module generalizes that recurring shape into one
// reusable walker.
package transform

import "github.com/nzsl-lang/nzslc/pkg/ir"

// VisitAction tells the walker what to do after a Visitor callback
// returns.
type VisitAction uint8

const (
	// VisitChildren descends into the node's children normally.
	VisitChildren VisitAction = iota
	// DontVisitChildren skips the node's children (the node itself is kept
	// as-is).
	DontVisitChildren
)

// ExprResult is returned by a Visitor's expression callback: Action
// controls further descent, and a non-nil Replace swaps the visited
// expression for a new one before any descent happens.
type ExprResult struct {
	Action  VisitAction
	Replace ir.Expression
}

// StmtResult is returned by a Visitor's statement callback. Remove drops
// the statement entirely from its parent's statement list (spliced out by
// the walker, never leaving a dangling ir.NoOp) -- unless Replace is also
// set, in which case Replace wins.
type StmtResult struct {
	Action  VisitAction
	Replace ir.Statement
	Remove  bool
}

// IgnoreFlags lets a pass skip traversal into certain syntactic regions
// without special-casing every node kind that might contain them.
type IgnoreFlags uint8

const (
	IgnoreExpressions IgnoreFlags = 1 << iota
	IgnoreFunctionContent
	IgnoreLoopContent
)

// Visitor is implemented by a transform pass's traversal hooks. Any hook
// left nil is treated as "visit children, make no change".
type Visitor struct {
	Ignore IgnoreFlags

	EnterScope func(ancestors []ir.Statement)
	LeaveScope func(ancestors []ir.Statement)

	VisitExpr func(e ir.Expression, ancestors []ir.Statement) ExprResult
	VisitStmt func(s ir.Statement, ancestors []ir.Statement) StmtResult
}

// Walker carries the ancestor stack across a single Walk invocation. A
// fresh Walker should be used per pass-over-module; it is not safe to
// share across goroutines.
type Walker struct {
	v         *Visitor
	ancestors []ir.Statement
}

// Walk traverses every statement reachable from stmts (in order),
// rewriting the slice in place to reflect any Replace/Remove results, and
// returns the (possibly shorter/rewritten) slice.
func Walk(v *Visitor, stmts []ir.Statement) []ir.Statement {
	w := &Walker{v: v}
	return w.walkStmts(stmts)
}

func (w *Walker) walkStmts(stmts []ir.Statement) []ir.Statement {
	out := stmts[:0:0]
	//
	for _, s := range stmts {
		next := w.walkStmt(s)
		if next != nil {
			out = append(out, next)
		}
	}
	//
	return out
}

func (w *Walker) walkStmt(s ir.Statement) ir.Statement {
	if s == nil {
		return nil
	}
	//
	action := VisitChildren
	//
	if w.v.VisitStmt != nil {
		res := w.v.VisitStmt(s, w.ancestors)
		//
		if res.Remove {
			return nil
		}
		//
		if res.Replace != nil {
			s = res.Replace
		}
		//
		action = res.Action
	}
	//
	if action == DontVisitChildren {
		return s
	}
	//
	switch n := s.(type) {
	case *ir.Scoped:
		w.pushScope(n)
		n.Stmts = w.walkStmts(n.Stmts)
		w.popScope(n)
	case *ir.Branch:
		w.ancestors = append(w.ancestors, n)
		n.Then = w.walkStmt(n.Then)
		if n.Else != nil {
			n.Else = w.walkStmt(n.Else)
		}
		w.ancestors = w.ancestors[:len(w.ancestors)-1]
		w.walkExprIn(&n.Cond)
	case *ir.While:
		if w.v.Ignore&IgnoreLoopContent == 0 {
			w.ancestors = append(w.ancestors, n)
			n.Body = w.walkStmt(n.Body).(*ir.Scoped)
			w.ancestors = w.ancestors[:len(w.ancestors)-1]
		}
		//
		w.walkExprIn(&n.Cond)
	case *ir.For:
		if w.v.Ignore&IgnoreLoopContent == 0 {
			w.ancestors = append(w.ancestors, n)
			n.Body = w.walkStmt(n.Body).(*ir.Scoped)
			w.ancestors = w.ancestors[:len(w.ancestors)-1]
		}
		//
		w.walkExprIn(&n.From)
		w.walkExprIn(&n.To)
	case *ir.ForEach:
		if w.v.Ignore&IgnoreLoopContent == 0 {
			w.ancestors = append(w.ancestors, n)
			n.Body = w.walkStmt(n.Body).(*ir.Scoped)
			w.ancestors = w.ancestors[:len(w.ancestors)-1]
		}
		//
		w.walkExprIn(&n.Range)
	case *ir.ExprStmt:
		w.walkExprIn(&n.Expr)
	case *ir.DeclareVariable:
		w.walkExprIn(&n.Init)
	case *ir.DeclareConst:
		w.walkExprIn(&n.Value)
	case *ir.Return:
		if n.Value != nil {
			w.walkExprIn(&n.Value)
		}
	case *ir.Multi:
		n.Stmts = w.walkStmts(n.Stmts)
	}
	//
	return s
}

func (w *Walker) pushScope(s ir.Statement) {
	w.ancestors = append(w.ancestors, s)
	if w.v.EnterScope != nil {
		w.v.EnterScope(w.ancestors)
	}
}

func (w *Walker) popScope(s ir.Statement) {
	if w.v.LeaveScope != nil {
		w.v.LeaveScope(w.ancestors)
	}
	//
	w.ancestors = w.ancestors[:len(w.ancestors)-1]
}

func (w *Walker) walkExprIn(slot *ir.Expression) {
	if w.v.Ignore&IgnoreExpressions != 0 || *slot == nil {
		return
	}
	//
	*slot = w.walkExpr(*slot)
}

func (w *Walker) walkExpr(e ir.Expression) ir.Expression {
	action := VisitChildren
	//
	if w.v.VisitExpr != nil {
		res := w.v.VisitExpr(e, w.ancestors)
		//
		if res.Replace != nil {
			e = res.Replace
		}
		//
		action = res.Action
	}
	//
	if action == DontVisitChildren {
		return e
	}
	//
	switch n := e.(type) {
	case *ir.AccessField:
		n.Base = w.walkExpr(n.Base)
	case *ir.AccessIndex:
		n.Base = w.walkExpr(n.Base)
		n.Index = w.walkExpr(n.Index)
	case *ir.Swizzle:
		n.Base = w.walkExpr(n.Base)
	case *ir.Assign:
		n.Target = w.walkExpr(n.Target)
		n.Value = w.walkExpr(n.Value)
	case *ir.Binary:
		n.Lhs = w.walkExpr(n.Lhs)
		n.Rhs = w.walkExpr(n.Rhs)
	case *ir.Unary:
		n.Operand = w.walkExpr(n.Operand)
	case *ir.CallFunction:
		for i := range n.Args {
			n.Args[i] = w.walkExpr(n.Args[i])
		}
	case *ir.CallMethod:
		n.Receiver = w.walkExpr(n.Receiver)
		for i := range n.Args {
			n.Args[i] = w.walkExpr(n.Args[i])
		}
	case *ir.IntrinsicCall:
		for i := range n.Args {
			n.Args[i] = w.walkExpr(n.Args[i])
		}
	case *ir.Cast:
		for i := range n.Values {
			n.Values[i] = w.walkExpr(n.Values[i])
		}
	case *ir.Conditional:
		n.Cond = w.walkExpr(n.Cond)
		n.A = w.walkExpr(n.A)
		n.B = w.walkExpr(n.B)
	case *ir.ConstantArrayValue:
		for i := range n.Elems {
			n.Elems[i] = w.walkExpr(n.Elems[i])
		}
	}
	//
	return e
}
