package parser

import (
	"github.com/nzsl-lang/nzslc/pkg/ast"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/token"
)

// binOpInfo maps a token kind to its surface BinaryOp and binding power.
// Higher precedence binds tighter. `and`/`or` are keyword spellings of
// `&&`/`||` and share their precedence.
type binOpInfo struct {
	op   ast.BinaryOp
	prec int
}

var binOps = map[token.Kind]binOpInfo{
	token.OrOr:     {ast.BinOr, 1},
	token.KwOr:     {ast.BinOr, 1},
	token.AndAnd:   {ast.BinAnd, 2},
	token.KwAnd:    {ast.BinAnd, 2},
	token.Eq:       {ast.BinEq, 3},
	token.NotEq:    {ast.BinNeq, 3},
	token.Lt:       {ast.BinLt, 4},
	token.LtEq:     {ast.BinLe, 4},
	token.Gt:       {ast.BinGt, 4},
	token.GtEq:     {ast.BinGe, 4},
	token.Pipe:     {ast.BinBitOr, 5},
	token.Caret:    {ast.BinBitXor, 6},
	token.Amp:      {ast.BinBitAnd, 7},
	token.Shl:      {ast.BinShl, 8},
	token.Shr:      {ast.BinShr, 8},
	token.Plus:     {ast.BinAdd, 9},
	token.Minus:    {ast.BinSub, 9},
	token.Star:     {ast.BinMul, 10},
	token.Slash:    {ast.BinDiv, 10},
	token.Percent:  {ast.BinMod, 10},
}

func (p *parser) parseExpr() ast.Expr {
	return p.parseBinary(0)
}

func (p *parser) parseBinary(minPrec int) ast.Expr {
	lhs := p.parseUnary()
	//
	for {
		info, ok := binOps[p.cur().Kind]
		if !ok || info.prec < minPrec {
			return lhs
		}
		//
		start := lhs.Span()
		p.advance()
		rhs := p.parseBinary(info.prec + 1)
		bin := &ast.BinaryExpr{Op: info.op, Lhs: lhs, Rhs: rhs}
		bin.NodeSpan = start
		lhs = bin
	}
}

func (p *parser) parseUnary() ast.Expr {
	start := p.cur().Span
	//
	switch p.cur().Kind {
	case token.Minus:
		p.advance()
		u := &ast.UnaryExpr{Op: ast.UnaryNeg, Operand: p.parseUnary()}
		u.NodeSpan = start
		return u
	case token.Not:
		p.advance()
		u := &ast.UnaryExpr{Op: ast.UnaryNot, Operand: p.parseUnary()}
		u.NodeSpan = start
		return u
	case token.Caret:
		p.advance()
		u := &ast.UnaryExpr{Op: ast.UnaryBitNot, Operand: p.parseUnary()}
		u.NodeSpan = start
		return u
	default:
		return p.parsePostfix()
	}
}

func (p *parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	//
	for {
		switch p.cur().Kind {
		case token.Dot:
			// `..` (range) is two consecutive Dot tokens; a bare member
			// access is a single Dot not immediately followed by another.
			if p.peekKind(1) == token.Dot {
				return expr
			}
			//
			p.advance()
			member := p.expect(token.Identifier, "member name").Text
			acc := &ast.AccessExpr{Base: expr, Member: member}
			acc.NodeSpan = expr.Span()
			expr = acc
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBracket, "']'")
			ix := &ast.IndexExpr{Base: expr, Index: idx}
			ix.NodeSpan = expr.Span()
			expr = ix
		case token.LParen:
			p.advance()
			var args []ast.Expr
			//
			if !p.at(token.RParen) {
				for {
					args = append(args, p.parseExpr())
					if p.at(token.Comma) {
						p.advance()
						continue
					}
					//
					break
				}
			}
			//
			p.expect(token.RParen, "')'")
			call := &ast.CallExpr{Callee: expr, Args: args}
			call.NodeSpan = expr.Span()
			expr = call
		default:
			return expr
		}
	}
}

func (p *parser) parsePrimary() ast.Expr {
	start := p.cur().Span
	//
	switch p.cur().Kind {
	case token.IntLiteral:
		t := p.advance()
		e := &ast.IntLitExpr{Value: t.Payload.Int}
		e.NodeSpan = start
		return e
	case token.FloatLiteral:
		t := p.advance()
		e := &ast.FloatLitExpr{Value: t.Payload.Float}
		e.NodeSpan = start
		return e
	case token.StringLiteral:
		t := p.advance()
		e := &ast.StringLitExpr{Value: t.Payload.String}
		e.NodeSpan = start
		return e
	case token.KwTrue:
		p.advance()
		e := &ast.BoolLitExpr{Value: true}
		e.NodeSpan = start
		return e
	case token.KwFalse:
		p.advance()
		e := &ast.BoolLitExpr{Value: false}
		e.NodeSpan = start
		return e
	case token.KwSelect:
		return p.parseSelect()
	case token.Identifier:
		t := p.advance()
		e := &ast.IdentifierExpr{Name: t.Text}
		e.NodeSpan = start
		return e
	case token.LParen:
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RParen, "')'")
		return inner
	default:
		p.errorf(errors.PUnexpectedToken, start, "expected an expression, found %q", p.cur().Text)
		e := &ast.IdentifierExpr{Name: "<error>"}
		e.NodeSpan = start
		//
		if !p.at(token.EndOfStream) {
			p.advance()
		}
		//
		return e
	}
}

// parseSelect parses the `select(cond, a, b)` keyword form.
func (p *parser) parseSelect() ast.Expr {
	start := p.advance().Span // 'select'
	p.expect(token.LParen, "'('")
	cond := p.parseExpr()
	p.expect(token.Comma, "','")
	a := p.parseExpr()
	p.expect(token.Comma, "','")
	b := p.parseExpr()
	p.expect(token.RParen, "')'")
	e := &ast.SelectExpr{Cond: cond, A: a, B: b}
	e.NodeSpan = start
	return e
}
