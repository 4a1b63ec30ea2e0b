// Package parser implements a recursive-descent parser with
// precedence-climbing expression parsing, turning a token stream into the
// surface ast.Module: a parser struct wrapping a token cursor,
// one method per grammar production, and diagnostics accumulated rather
// than panicked on -- adapted here to a C-like brace/semicolon grammar
// with `[attr(...)]` decorations instead of s-expressions.
package parser

import (
	"github.com/nzsl-lang/nzslc/pkg/ast"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/source"
	"github.com/nzsl-lang/nzslc/pkg/token"
)

type parser struct {
	handle source.FileHandle
	toks   []token.Token
	pos    int
	diags  []errors.Diagnostic
}

// Parse builds a Module from a token stream produced by pkg/lexer.Tokenize.
// Like Tokenize, Parse is total: on malformed input it accumulates
// PUnexpectedToken (or more specific) diagnostics and recovers by skipping
// to the next likely declaration boundary, so that a single source file
// can report more than one syntax error per pass.
func Parse(handle source.FileHandle, toks []token.Token) (*ast.Module, []errors.Diagnostic) {
	p := &parser{handle: handle, toks: toks}
	mod := p.parseModule()
	return mod, p.diags
}

func (p *parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EndOfStream
	}
	//
	return p.toks[p.pos]
}

func (p *parser) peekKind(n int) token.Kind {
	i := p.pos + n
	if i >= len(p.toks) {
		return token.EndOfStream
	}
	//
	return p.toks[i].Kind
}

func (p *parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	//
	return t
}

func (p *parser) at(k token.Kind) bool {
	return p.cur().Kind == k
}

// expect consumes the current token if it has kind k, otherwise records a
// PUnexpectedToken diagnostic and returns the unconsumed current token
// (callers proceed using a zero-value reading, relying on later stages to
// tolerate the gap since Validation is the only pass that hard-fails on
// unresolved structure; partial compilation resolves them later).
func (p *parser) expect(k token.Kind, what string) token.Token {
	if p.at(k) {
		return p.advance()
	}
	//
	p.errorf(errors.PUnexpectedToken, p.cur().Span, "expected %s, found %q", what, p.cur().Text)
	return p.cur()
}

func (p *parser) errorf(kind errors.Kind, span source.Span, format string, args ...any) {
	p.diags = append(p.diags, *errors.New(errors.Parsing, kind, span, format, args...))
}

// syncToDeclBoundary skips tokens until a keyword that starts a new
// top-level declaration, or EOF, so a malformed declaration doesn't
// cascade into spurious follow-on errors. An attribute list's opening `[`
// is not a stop point: the lexer emits it as LBracket, never LAttr.
func (p *parser) syncToDeclBoundary() {
	for !p.at(token.EndOfStream) {
		switch p.cur().Kind {
		case token.LAttr, token.KwFn, token.KwStruct, token.KwConst, token.KwOption,
			token.KwExternal, token.KwAlias, token.KwImport:
			return
		}
		//
		p.advance()
	}
}

func (p *parser) parseModule() *ast.Module {
	mod := &ast.Module{}
	//
	headerAttrs := p.parseAttributes()
	mod.Header = p.buildModuleHeader(headerAttrs)
	p.expect(token.KwModule, "'module'")
	p.expect(token.Semicolon, "';'")
	//
	for !p.at(token.EndOfStream) {
		if p.at(token.KwImport) {
			mod.Imports = append(mod.Imports, p.parseImport())
			continue
		}
		//
		d := p.parseDecl()
		if d != nil {
			mod.Decls = append(mod.Decls, d)
		}
	}
	//
	return mod
}

func (p *parser) buildModuleHeader(attrs ast.AttributeSet) ast.ModuleHeader {
	h := ast.ModuleHeader{NodeSpan: source.NoSpan}
	//
	if a, ok := attrs.Find("nzsl_version"); ok {
		h.LangVersion = stringArg(a, 0)
	} else {
		p.errorf(errors.PMissingAttribute, p.cur().Span, "missing required [nzsl_version(\"x.y\")] attribute before 'module;'")
	}
	//
	if a, ok := attrs.Find("author"); ok {
		h.Author = stringArg(a, 0)
	}
	if a, ok := attrs.Find("desc"); ok {
		h.Description = stringArg(a, 0)
	}
	if a, ok := attrs.Find("license"); ok {
		h.License = stringArg(a, 0)
	}
	if a, ok := attrs.Find("module"); ok {
		h.Name = stringArg(a, 0)
	}
	//
	for _, a := range attrs {
		if a.Name == "feature" {
			h.EnabledFeatures = append(h.EnabledFeatures, stringArg(a, 0))
		}
	}
	//
	return h
}

func stringArg(a *ast.Attribute, i int) string {
	if i >= len(a.Args) {
		return ""
	}
	//
	if lit, ok := a.Args[i].(*ast.StringLitExpr); ok {
		return lit.Value
	}
	//
	return ""
}

// parseAttributes parses zero or more `[name(args...)]` or `[name]`
// attribute lists preceding a declaration. Duplicate
// occurrences of attributes the grammar treats as single-valued are
// rejected here with PAttributeMultipleUnique, since by the time the
// Resolve pass runs the information about which were duplicates is gone.
var singleValuedAttrs = map[string]bool{
	"nzsl_version": true, "author": true, "desc": true, "license": true,
	"module": true, "entry": true, "set": true, "binding": true, "cond": true,
	"auto_binding": true,
}

func (p *parser) parseAttributes() ast.AttributeSet {
	var set ast.AttributeSet
	seen := map[string]bool{}
	//
	for p.at(token.LAttr) || p.at(token.LBracket) {
		start := p.cur().Span
		p.advance() // consume '['
		//
		for {
			attr := p.parseAttribute(start)
			if singleValuedAttrs[attr.Name] && seen[attr.Name] {
				p.errorf(errors.PAttributeMultipleUnique, attr.NodeSpan, "attribute %q may only appear once", attr.Name)
			}
			//
			seen[attr.Name] = true
			set = append(set, attr)
			//
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			//
			break
		}
		//
		p.expect(token.RBracket, "']'")
	}
	//
	return set
}

func (p *parser) parseAttribute(start source.Span) *ast.Attribute {
	// Attribute names such as `entry` and `module` lex as keywords.
	var name string
	if k := p.cur().Kind; k >= token.KwAlias && k <= token.KwComp {
		name = p.advance().Text
	} else {
		name = p.expect(token.Identifier, "attribute name").Text
	}
	attr := &ast.Attribute{NodeSpan: start, Name: name}
	//
	if p.at(token.LParen) {
		p.advance()
		//
		if !p.at(token.RParen) {
			for {
				// Stage keywords (`[entry(frag)]`) become identifier arguments.
				if k := p.cur().Kind; k == token.KwVert || k == token.KwFrag || k == token.KwComp {
					t := p.advance()
					id := &ast.IdentifierExpr{Name: t.Text}
					id.NodeSpan = t.Span
					attr.Args = append(attr.Args, id)
				} else {
					attr.Args = append(attr.Args, p.parseExpr())
				}
				if p.at(token.Comma) {
					p.advance()
					continue
				}
				//
				break
			}
		}
		//
		if len(attr.Args) == 0 {
			p.errorf(errors.PAttributeMissingParameter, attr.NodeSpan, "attribute %q requires at least one argument", name)
		}
		//
		p.expect(token.RParen, "')'")
	}
	//
	return attr
}

func (p *parser) parseImport() *ast.ImportDecl {
	start := p.advance().Span // 'import'
	decl := &ast.ImportDecl{}
	decl.NodeSpan = start
	//
	if p.at(token.Star) {
		p.advance()
		decl.WholeModule = true
	} else {
		p.expect(token.LBrace, "'{'")
		//
		if !p.at(token.RBrace) {
			for {
				item := ast.ImportItem{Name: p.expect(token.Identifier, "import item").Text}
				//
				if p.at(token.KwAs) {
					p.advance()
					item.Alias = p.expect(token.Identifier, "alias name").Text
				}
				//
				decl.Items = append(decl.Items, item)
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
		p.expect(token.RBrace, "'}'")
	}
	//
	p.expect(token.KwFrom, "'from'")
	decl.ModuleName = p.expect(token.StringLiteral, "module path string").Payload.String
	p.expect(token.Semicolon, "';'")
	return decl
}
