package parser

import (
	"github.com/nzsl-lang/nzslc/pkg/ast"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/source"
	"github.com/nzsl-lang/nzslc/pkg/token"
)

// parseDecl parses one top-level declaration, preceded by its attribute
// list. Returns nil (with a diagnostic already recorded) if the current
// token starts neither a known declaration nor an attribute list.
func (p *parser) parseDecl() ast.Decl {
	attrs := p.parseAttributes()
	start := p.cur().Span
	//
	switch p.cur().Kind {
	case token.KwStruct:
		return p.parseStruct(attrs, start)
	case token.KwExternal:
		return p.parseExternal(attrs, start)
	case token.KwFn:
		return p.parseFn(attrs, start)
	case token.KwConst:
		return p.parseConst(attrs, start)
	case token.KwOption:
		return p.parseOption(attrs, start)
	case token.KwAlias:
		return p.parseAliasDecl(attrs, start)
	default:
		p.errorf(errors.PUnexpectedToken, start, "expected a declaration, found %q", p.cur().Text)
		p.advance()
		p.syncToDeclBoundary()
		return nil
	}
}

func (p *parser) parseStruct(attrs ast.AttributeSet, start source.Span) ast.Decl {
	p.advance() // 'struct'
	d := &ast.StructDecl{}
	d.NodeSpan, d.Attrs = start, attrs
	d.Name = p.expect(token.Identifier, "struct name").Text
	p.expect(token.LBrace, "'{'")
	//
	for !p.at(token.RBrace) && !p.at(token.EndOfStream) {
		fieldAttrs := p.parseAttributes()
		name := p.expect(token.Identifier, "field name").Text
		p.expect(token.Colon, "':'")
		ty := p.parseType()
		d.Fields = append(d.Fields, ast.StructField{Attrs: fieldAttrs, Name: name, Type: ty})
		//
		if p.at(token.Comma) {
			p.advance()
		}
	}
	//
	p.expect(token.RBrace, "'}'")
	return d
}

func (p *parser) parseExternal(attrs ast.AttributeSet, start source.Span) ast.Decl {
	p.advance() // 'external'
	d := &ast.ExternalDecl{}
	d.NodeSpan, d.Attrs = start, attrs
	p.expect(token.LBrace, "'{'")
	//
	for !p.at(token.RBrace) && !p.at(token.EndOfStream) {
		varAttrs := p.parseAttributes()
		name := p.expect(token.Identifier, "external variable name").Text
		p.expect(token.Colon, "':'")
		ty := p.parseType()
		d.Vars = append(d.Vars, ast.ExternalVar{Attrs: varAttrs, Name: name, Type: ty})
		//
		if p.at(token.Comma) {
			p.advance()
		}
	}
	//
	p.expect(token.RBrace, "'}'")
	return d
}

func (p *parser) parseFn(attrs ast.AttributeSet, start source.Span) ast.Decl {
	p.advance() // 'fn'
	d := &ast.FnDecl{}
	d.NodeSpan, d.Attrs = start, attrs
	d.Name = p.expect(token.Identifier, "function name").Text
	p.expect(token.LParen, "'('")
	//
	if !p.at(token.RParen) {
		for {
			pname := p.expect(token.Identifier, "parameter name").Text
			p.expect(token.Colon, "':'")
			ty := p.parseType()
			d.Params = append(d.Params, ast.Param{Name: pname, Type: ty})
			//
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
	//
	if p.at(token.Arrow) {
		p.advance()
		ty := p.parseType()
		d.ReturnType = &ty
	}
	//
	d.Body = p.parseBlock()
	return d
}

func (p *parser) parseConst(attrs ast.AttributeSet, start source.Span) ast.Decl {
	p.advance() // 'const'
	d := &ast.ConstDecl{}
	d.NodeSpan, d.Attrs = start, attrs
	d.Name = p.expect(token.Identifier, "const name").Text
	//
	if p.at(token.Colon) {
		p.advance()
		ty := p.parseType()
		d.Type = &ty
	}
	//
	p.expect(token.Assign, "'='")
	d.Value = p.parseExpr()
	p.expect(token.Semicolon, "';'")
	return d
}

func (p *parser) parseOption(attrs ast.AttributeSet, start source.Span) ast.Decl {
	p.advance() // 'option'
	d := &ast.OptionDecl{}
	d.NodeSpan, d.Attrs = start, attrs
	d.Name = p.expect(token.Identifier, "option name").Text
	p.expect(token.Colon, "':'")
	d.Type = p.parseType()
	//
	if p.at(token.Assign) {
		p.advance()
		d.Default = p.parseExpr()
	}
	//
	p.expect(token.Semicolon, "';'")
	return d
}

func (p *parser) parseAliasDecl(attrs ast.AttributeSet, start source.Span) ast.Decl {
	p.advance() // 'alias'
	d := &ast.AliasDecl{}
	d.NodeSpan, d.Attrs = start, attrs
	d.Name = p.expect(token.Identifier, "alias name").Text
	p.expect(token.Assign, "'='")
	//
	// Target is written as a possibly-qualified path (module::ident or a
	// bare ident); both lex as Identifier tokens joined by ColonColon.
	target := p.expect(token.Identifier, "alias target").Text
	for p.at(token.ColonColon) {
		p.advance()
		target += "::" + p.expect(token.Identifier, "alias target segment").Text
	}
	//
	d.Target = target
	p.expect(token.Semicolon, "';'")
	return d
}

// parseType parses a type reference: a bare name, a parameterized name
// (`vec3[f32]`), or the special `array[T, N]` form where N is kept as an
// expression.
func (p *parser) parseType() ast.TypeExpr {
	start := p.cur().Span
	name := p.expect(token.Identifier, "type name").Text
	t := ast.TypeExpr{NodeSpan: start, Name: name}
	//
	if p.at(token.LBracket) {
		p.advance()
		//
		if name == "array" {
			elem := p.parseType()
			t.Args = append(t.Args, elem)
			// `array[T, N]` is a sized array; `array[T]` a dynamic one.
			if p.at(token.Comma) {
				p.advance()
				t.ArrayLength = p.parseExpr()
			}
		} else if !p.at(token.RBracket) {
			for {
				t.Args = append(t.Args, p.parseType())
				if p.at(token.Comma) {
					p.advance()
					continue
				}
				//
				break
			}
		}
		//
		p.expect(token.RBracket, "']'")
	}
	//
	return t
}
