package parser

import (
	"github.com/nzsl-lang/nzslc/pkg/ast"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/token"
)

func (p *parser) parseBlock() *ast.Block {
	start := p.expect(token.LBrace, "'{'").Span
	b := &ast.Block{}
	b.NodeSpan = start
	//
	for !p.at(token.RBrace) && !p.at(token.EndOfStream) {
		b.Stmts = append(b.Stmts, p.parseStmt())
	}
	//
	p.expect(token.RBrace, "'}'")
	return b
}

func (p *parser) parseStmt() ast.Stmt {
	switch p.cur().Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwFor:
		return p.parseFor()
	case token.KwBreak:
		s := &ast.BreakStmt{}
		s.NodeSpan = p.advance().Span
		p.expect(token.Semicolon, "';'")
		return s
	case token.KwContinue:
		s := &ast.ContinueStmt{}
		s.NodeSpan = p.advance().Span
		p.expect(token.Semicolon, "';'")
		return s
	case token.KwDiscard:
		s := &ast.DiscardStmt{}
		s.NodeSpan = p.advance().Span
		p.expect(token.Semicolon, "';'")
		return s
	case token.KwReturn:
		start := p.advance().Span
		s := &ast.ReturnStmt{}
		s.NodeSpan = start
		//
		if !p.at(token.Semicolon) {
			s.Value = p.parseExpr()
		}
		//
		p.expect(token.Semicolon, "';'")
		return s
	case token.LBrace:
		return p.parseBlock()
	case token.LAttr, token.LBracket:
		return p.parseAttributedStmt()
	default:
		return p.parseExprStmt()
	}
}

// parseAttributedStmt handles a `[attr...]`-prefixed statement -- in
// practice only `[unroll]` preceding a for-loop; the
// attributes are attached to the resulting for-statement node so the
// LoopUnroll pass can see them post-Resolve.
func (p *parser) parseAttributedStmt() ast.Stmt {
	attrs := p.parseAttributes()
	s := p.parseStmt()
	//
	switch n := s.(type) {
	case *ast.ForRangeStmt:
		n.Attrs = attrs
	case *ast.ForInStmt:
		n.Attrs = attrs
	default:
		p.errorf(errors.PUnknownAttribute, s.Span(), "attributes are not supported on this statement")
	}
	//
	return s
}

func (p *parser) parseLet() ast.Stmt {
	start := p.advance().Span // 'let'
	s := &ast.LetStmt{}
	s.NodeSpan = start
	//
	if p.at(token.KwMut) {
		p.advance()
		s.Mut = true
	}
	//
	s.Name = p.expect(token.Identifier, "variable name").Text
	//
	if p.at(token.Colon) {
		p.advance()
		ty := p.parseType()
		s.Type = &ty
	}
	//
	p.expect(token.Assign, "'='")
	s.Value = p.parseExpr()
	p.expect(token.Semicolon, "';'")
	return s
}

func (p *parser) parseIf() ast.Stmt {
	start := p.advance().Span // 'if'
	s := &ast.IfStmt{}
	s.NodeSpan = start
	s.Cond = p.parseExpr()
	s.Then = p.parseBlock()
	//
	if p.at(token.KwElse) {
		p.advance()
		//
		if p.at(token.KwIf) {
			s.Else = p.parseIf()
		} else {
			s.Else = p.parseBlock()
		}
	}
	//
	return s
}

func (p *parser) parseWhile() ast.Stmt {
	start := p.advance().Span // 'while'
	s := &ast.WhileStmt{}
	s.NodeSpan = start
	s.Cond = p.parseExpr()
	s.Body = p.parseBlock()
	return s
}

// parseFor parses both the numeric range form `for i in a..b { }` and the
// collection form `for x in arr { }`, disambiguated by whether a `..`
// (lexed as two Dot tokens, since NZSL has no dedicated range operator)
// follows the first operand.
func (p *parser) parseFor() ast.Stmt {
	start := p.advance().Span // 'for'
	name := p.expect(token.Identifier, "loop variable").Text
	p.expect(token.KwIn, "'in'")
	first := p.parseExpr()
	//
	// `a -> b` and `a..b` both spell a numeric range.
	if p.at(token.Arrow) || (p.at(token.Dot) && p.peekKind(1) == token.Dot) {
		if p.at(token.Arrow) {
			p.advance()
		} else {
			p.advance()
			p.advance()
		}
		//
		to := p.parseExpr()
		body := p.parseBlock()
		s := &ast.ForRangeStmt{Var: name, From: first, To: to, Body: body}
		s.NodeSpan = start
		return s
	}
	//
	body := p.parseBlock()
	s := &ast.ForInStmt{Var: name, Range: first, Body: body}
	s.NodeSpan = start
	return s
}

var assignOps = map[token.Kind]ast.AssignOp{
	token.Assign:    ast.AssignPlain,
	token.PlusEq:    ast.AssignAdd,
	token.MinusEq:   ast.AssignSub,
	token.StarEq:    ast.AssignMul,
	token.SlashEq:   ast.AssignDiv,
	token.PercentEq: ast.AssignMod,
}

func (p *parser) parseExprStmt() ast.Stmt {
	start := p.cur().Span
	expr := p.parseExpr()
	//
	if op, ok := assignOps[p.cur().Kind]; ok {
		p.advance()
		value := p.parseExpr()
		assign := &ast.AssignExpr{Op: op, Target: expr, Value: value}
		assign.NodeSpan = start
		p.expect(token.Semicolon, "';'")
		es := &ast.ExprStmt{Expr: assign}
		es.NodeSpan = start
		return es
	}
	//
	p.expect(token.Semicolon, "';'")
	es := &ast.ExprStmt{Expr: expr}
	es.NodeSpan = start
	return es
}
