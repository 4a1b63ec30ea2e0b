// Package lexer implements tokenize(), turning raw source bytes into an
// ordered token sequence. The scanner is a direct character-index walk
// over the file's runes (an index into a []rune, advanced by hand per
// construct); direct indexing beats a combinator framework for anything
// beyond single-character dispatch.
package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/source"
	"github.com/nzsl-lang/nzslc/pkg/token"
)

type lexer struct {
	handle source.FileHandle
	file   *source.File
	text   []rune
	pos    int
}

// Tokenize converts a source file into an ordered token sequence. Tokenize
// is total on valid inputs: it always terminates, and the returned sequence
// always ends with exactly one EndOfStream token. Malformed input is
// reported via the returned diagnostics; tokenization continues on a
// best-effort basis after an error so that multiple lexical errors can be
// reported in one pass. handle is the FileHandle under which file was
// interned into the compilation's FileSet, used to stamp every token span.
func Tokenize(handle source.FileHandle, file *source.File) ([]token.Token, []errors.Diagnostic) {
	l := &lexer{handle: handle, file: file, text: file.Contents()}
	var (
		tokens []token.Token
		diags  []errors.Diagnostic
	)
	//
	for {
		l.skipWhitespaceAndComments()
		//
		if l.atEnd() {
			tokens = append(tokens, token.Token{Kind: token.EndOfStream, Span: l.span(l.pos, l.pos)})
			return tokens, diags
		}
		//
		start := l.pos
		tok, err := l.next()
		//
		if err != nil {
			diags = append(diags, *err)
			// Best-effort recovery: if no progress was made, consume one
			// rune so we don't loop forever.
			if l.pos == start {
				l.pos++
			}
			continue
		}
		//
		tokens = append(tokens, tok)
	}
}

func (l *lexer) atEnd() bool {
	return l.pos >= len(l.text)
}

func (l *lexer) peek() rune {
	if l.atEnd() {
		return 0
	}
	//
	return l.text[l.pos]
}

func (l *lexer) peekAt(off int) rune {
	if l.pos+off >= len(l.text) {
		return 0
	}
	//
	return l.text[l.pos+off]
}

func (l *lexer) span(start, end int) source.Span {
	sl, sc := l.file.LineCol(uint32(start))
	el, ec := l.file.LineCol(uint32(end))
	return source.Span{File: l.handle, StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec}
}

func (l *lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		switch {
		case unicode.IsSpace(l.peek()):
			l.pos++
		case l.peek() == '/' && l.peekAt(1) == '/':
			for !l.atEnd() && l.peek() != '\n' {
				l.pos++
			}
		case l.peek() == '/' && l.peekAt(1) == '*':
			l.pos += 2
			// Block comments do not nest: the first "*/" terminates the
			// comment regardless of intervening "/*".
			for !l.atEnd() && !(l.peek() == '*' && l.peekAt(1) == '/') {
				l.pos++
			}
			if !l.atEnd() {
				l.pos += 2
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token.Token, *errors.Diagnostic) {
	start := l.pos
	c := l.peek()
	//
	switch {
	case isIdentStart(c):
		return l.lexIdentifier(start), nil
	case unicode.IsDigit(c):
		return l.lexNumber(start)
	case c == '"':
		return l.lexString(start)
	default:
		return l.lexOperator(start)
	}
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isIdentCont(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

func (l *lexer) lexIdentifier(start int) token.Token {
	for !l.atEnd() && isIdentCont(l.peek()) {
		l.pos++
	}
	//
	text := string(l.text[start:l.pos])
	span := l.span(start, l.pos)
	//
	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Span: span, Text: text}
	}
	//
	return token.Token{Kind: token.Identifier, Span: span, Text: text, Payload: token.Payload{HasString: true, String: text}}
}

// lexNumber accepts decimal, hex (0x), and binary (0b) integer literals
// (with '_' digit separators), and decimal float literals with an optional
// fractional part and/or exponent. A literal with no fractional part/
// exponent and no explicit type suffix is untyped (IntLiteral); one with a
// fractional part or exponent is untyped FloatLiteral. Concrete typing
// happens later, in the Literal pass.
func (l *lexer) lexNumber(start int) (token.Token, *errors.Diagnostic) {
	isFloat := false
	//
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.pos += 2
		digitsStart := l.pos
		l.consumeDigits(isHexDigit)
		//
		if l.pos == digitsStart {
			return token.Token{}, l.err(errors.LBadNumber, start, "hexadecimal literal has no digits")
		}
		//
		return l.finishInt(start, 16)
	}
	//
	if l.peek() == '0' && (l.peekAt(1) == 'b' || l.peekAt(1) == 'B') {
		l.pos += 2
		digitsStart := l.pos
		l.consumeDigits(isBinDigit)
		//
		if l.pos == digitsStart {
			return token.Token{}, l.err(errors.LBadNumber, start, "binary literal has no digits")
		}
		//
		return l.finishInt(start, 2)
	}
	//
	l.consumeDigits(unicode.IsDigit)
	//
	if l.peek() == '.' && unicode.IsDigit(l.peekAt(1)) {
		isFloat = true
		l.pos++
		l.consumeDigits(unicode.IsDigit)
	}
	//
	if l.peek() == 'e' || l.peek() == 'E' {
		save := l.pos
		l.pos++
		//
		if l.peek() == '+' || l.peek() == '-' {
			l.pos++
		}
		//
		if !unicode.IsDigit(l.peek()) {
			l.pos = save
		} else {
			isFloat = true
			l.consumeDigits(unicode.IsDigit)
		}
	}
	//
	if isFloat {
		return l.finishFloat(start)
	}
	//
	return l.finishInt(start, 10)
}

func isHexDigit(c rune) bool {
	return unicode.IsDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isBinDigit(c rune) bool {
	return c == '0' || c == '1'
}

func (l *lexer) consumeDigits(pred func(rune) bool) {
	for !l.atEnd() && (pred(l.peek()) || l.peek() == '_') {
		l.pos++
	}
}

func (l *lexer) finishInt(start int, base int) (token.Token, *errors.Diagnostic) {
	text := string(l.text[start:l.pos])
	digits := strings.ReplaceAll(text, "_", "")
	//
	if base == 16 || base == 2 {
		digits = digits[2:]
	}
	//
	val, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return token.Token{}, l.err(errors.LNumberOutOfRange, start, "integer literal %q out of range", text)
	}
	//
	return token.Token{
		Kind:    token.IntLiteral,
		Span:    l.span(start, l.pos),
		Text:    text,
		Payload: token.Payload{HasInt: true, Int: int64(val)},
	}, nil
}

func (l *lexer) finishFloat(start int) (token.Token, *errors.Diagnostic) {
	text := string(l.text[start:l.pos])
	digits := strings.ReplaceAll(text, "_", "")
	//
	val, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return token.Token{}, l.err(errors.LBadNumber, start, "malformed floating point literal %q", text)
	}
	//
	return token.Token{
		Kind:    token.FloatLiteral,
		Span:    l.span(start, l.pos),
		Text:    text,
		Payload: token.Payload{HasFloat: true, Float: val},
	}, nil
}

func (l *lexer) lexString(start int) (token.Token, *errors.Diagnostic) {
	l.pos++ // opening quote
	var sb strings.Builder
	//
	for {
		if l.atEnd() {
			return token.Token{}, l.err(errors.LUnfinishedString, start, "unterminated string literal")
		}
		//
		c := l.peek()
		//
		if c == '"' {
			l.pos++
			break
		} else if c == '\n' {
			return token.Token{}, l.err(errors.LUnfinishedString, start, "unterminated string literal")
		} else if c == '\\' {
			l.pos++
			//
			switch l.peek() {
			case '\\':
				sb.WriteRune('\\')
			case '"':
				sb.WriteRune('"')
			case 'n':
				sb.WriteRune('\n')
			case 'r':
				sb.WriteRune('\r')
			case 't':
				sb.WriteRune('\t')
			default:
				return token.Token{}, l.err(errors.LUnrecognizedChar, l.pos, "unrecognized escape sequence '\\%c'", l.peek())
			}
			//
			l.pos++
		} else {
			sb.WriteRune(c)
			l.pos++
		}
	}
	//
	text := sb.String()
	return token.Token{
		Kind:    token.StringLiteral,
		Span:    l.span(start, l.pos),
		Text:    text,
		Payload: token.Payload{HasString: true, String: text},
	}, nil
}

type opRule struct {
	text string
	kind token.Kind
}

// Ordered longest-match-first so that e.g. "->" is not lexed as "-" then
// ">" and "<<" is not lexed as "<" then "<".
var operators = []opRule{
	{"->", token.Arrow},
	{"=>", token.FatArrow},
	{"::", token.ColonColon},
	{"==", token.Eq},
	{"!=", token.NotEq},
	{"<=", token.LtEq},
	{">=", token.GtEq},
	{"&&", token.AndAnd},
	{"||", token.OrOr},
	{"<<", token.Shl},
	{">>", token.Shr},
	{"+=", token.PlusEq},
	{"-=", token.MinusEq},
	{"*=", token.StarEq},
	{"/=", token.SlashEq},
	{"%=", token.PercentEq},
	{"(", token.LParen},
	{")", token.RParen},
	{"{", token.LBrace},
	{"}", token.RBrace},
	{"[", token.LBracket},
	{"]", token.RBracket},
	{",", token.Comma},
	{";", token.Semicolon},
	{":", token.Colon},
	{".", token.Dot},
	{"+", token.Plus},
	{"-", token.Minus},
	{"*", token.Star},
	{"/", token.Slash},
	{"%", token.Percent},
	{"=", token.Assign},
	{"<", token.Lt},
	{">", token.Gt},
	{"!", token.Not},
	{"&", token.Amp},
	{"|", token.Pipe},
	{"^", token.Caret},
	{"?", token.Question},
}

func (l *lexer) lexOperator(start int) (token.Token, *errors.Diagnostic) {
	remaining := l.text[l.pos:]
	//
	for _, rule := range operators {
		n := len(rule.text)
		if n <= len(remaining) && string(remaining[:n]) == rule.text {
			l.pos += n
			return token.Token{Kind: rule.kind, Span: l.span(start, l.pos), Text: rule.text}, nil
		}
	}
	//
	// A bad escape inside a string is an unrecognized character; a
	// character that starts no token at all is an unrecognized token.
	return token.Token{}, l.err(errors.LUnrecognizedToken, start, "unrecognized token '%c'", l.peek())
}

func (l *lexer) err(kind errors.Kind, pos int, format string, args ...any) *errors.Diagnostic {
	return errors.New(errors.Lexing, kind, l.span(pos, pos+1), format, args...)
}
