package ast

import "github.com/nzsl-lang/nzslc/pkg/source"

// Stmt is implemented by every surface-level statement node.
type Stmt interface {
	Node
	stmtNode()
}

type stmtBase struct {
	NodeSpan source.Span
}

func (s stmtBase) Span() source.Span { return s.NodeSpan }
func (stmtBase) stmtNode()           {}

// Block is a `{ ... }` statement sequence.
type Block struct {
	stmtBase
	Stmts []Stmt
}

// LetStmt is `let [mut] name[: Type] = value;`. Type is nil when omitted,
// left for the Resolve pass to infer from Value.
type LetStmt struct {
	stmtBase
	Mut   bool
	Name  string
	Type  *TypeExpr
	Value Expr
}

// IfStmt is `if cond { ... } [else (if .. | { .. })]`. Else is nil, a
// *Block, or another *IfStmt.
type IfStmt struct {
	stmtBase
	Cond Expr
	Then *Block
	Else Stmt
}

// WhileStmt is `while cond { ... }`.
type WhileStmt struct {
	stmtBase
	Cond Expr
	Body *Block
}

// ForRangeStmt is the numeric range form `for i in a..b { ... }`. An
// `[unroll]` attribute preceding the loop marks it for the LoopUnroll pass;
// Attrs is otherwise empty.
type ForRangeStmt struct {
	stmtBase
	Attrs    AttributeSet
	Var      string
	From, To Expr
	Body     *Block
}

// ForInStmt is the array/collection form `for x in arr { ... }`.
type ForInStmt struct {
	stmtBase
	Attrs AttributeSet
	Var   string
	Range Expr
	Body  *Block
}

// BreakStmt is `break;`.
type BreakStmt struct{ stmtBase }

// ContinueStmt is `continue;`.
type ContinueStmt struct{ stmtBase }

// DiscardStmt is `discard;` (fragment-stage only, checked during
// Validation since stage membership isn't known at parse time).
type DiscardStmt struct{ stmtBase }

// ReturnStmt is `return [value];`. Value is nil for a bare return from a
// unit-returning function.
type ReturnStmt struct {
	stmtBase
	Value Expr
}

// ExprStmt is a bare expression used for its side effect -- in practice
// always an AssignExpr or a CallExpr, since NZSL has no other expressions
// with observable side effects.
type ExprStmt struct {
	stmtBase
	Expr Expr
}
