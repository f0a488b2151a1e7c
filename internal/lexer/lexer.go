// Package lexer tokenizes Mantis model source text into a (Token, Span)
// stream. It never stops at the first problem: illegal bytes are reported
// and skipped so that the rest of the source keeps producing tokens.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/druarnfield/mantis-core-sub000/internal/diag"
)

const symbolChars = "{}()[];,.=+"

// Lexer scans a single source buffer into tokens, recovering from illegal
// characters by skipping them and continuing.
type Lexer struct {
	src  string
	pos  int
	diag *diag.Bag
}

// New skips a leading UTF-8 byte-order mark, if present, and returns a
// Lexer ready to scan src. Token spans stay byte offsets into src as
// given, BOM included. diagBag receives lexical errors (illegal
// characters, unterminated strings); it may be nil to discard them.
func New(src string, diagBag *diag.Bag) *Lexer {
	l := &Lexer{src: src, diag: diagBag}
	if strings.HasPrefix(src, "\xef\xbb\xbf") {
		l.pos = len("\xef\xbb\xbf")
	}
	return l
}

// All scans the entire source and returns every token, including a
// trailing EOF token.
func All(src string, diagBag *diag.Bag) []Token {
	l := New(src, diagBag)
	var toks []Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == EOF {
			return toks
		}
	}
}

func (l *Lexer) report(span diag.Span, kind, msg string) {
	if l.diag != nil {
		l.diag.Errorf(span, kind, "%s", msg)
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			l.pos += 2
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			start := l.pos
			l.pos += 2
			closed := false
			for l.pos+1 < len(l.src) {
				if l.src[l.pos] == '*' && l.src[l.pos+1] == '/' {
					l.pos += 2
					closed = true
					break
				}
				l.pos++
			}
			if !closed {
				l.pos = len(l.src)
				l.report(diag.Span{Start: start, End: l.pos}, "UnterminatedComment", "block comment is never closed")
			}
		default:
			return
		}
	}
}

// Next returns the next token, advancing the scan position. At end of
// input it returns a zero-width EOF token and keeps returning it on
// subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Span: diag.Span{Start: len(l.src), End: len(l.src)}}
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case c == '"':
		return l.scanString(start)
	case isDigit(c):
		return l.scanNumber(start)
	case isIdentStart(c):
		return l.scanIdent(start)
	case strings.HasPrefix(l.src[l.pos:], "->"):
		l.pos += 2
		return Token{Kind: Symbol, Value: "->", Span: diag.Span{Start: start, End: l.pos}}
	case strings.IndexByte(symbolChars, c) >= 0:
		l.pos++
		return Token{Kind: Symbol, Value: string(c), Span: diag.Span{Start: start, End: l.pos}}
	default:
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		l.pos += size
		span := diag.Span{Start: start, End: l.pos}
		l.report(span, "IllegalCharacter", "unexpected character "+string(r))
		return Token{Kind: Illegal, Value: string(r), Span: span}
	}
}

func (l *Lexer) scanString(start int) Token {
	l.pos++ // opening quote
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		l.pos++
	}
	if l.pos >= len(l.src) {
		span := diag.Span{Start: start, End: l.pos}
		l.report(span, "UnterminatedString", "string literal is never closed")
		return Token{Kind: String, Value: l.src[start+1:], Span: span}
	}
	value := l.src[start+1 : l.pos]
	l.pos++ // closing quote
	return Token{Kind: String, Value: value, Span: diag.Span{Start: start, End: l.pos}}
}

func (l *Lexer) scanNumber(start int) Token {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	kind := Int
	if l.pos < len(l.src) && l.src[l.pos] == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		kind = Float
		l.pos++ // '.'
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	return Token{Kind: kind, Value: l.src[start:l.pos], Span: diag.Span{Start: start, End: l.pos}}
}

func (l *Lexer) scanIdent(start int) Token {
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	value := l.src[start:l.pos]
	span := diag.Span{Start: start, End: l.pos}
	if IsKeyword(strings.ToLower(value)) {
		return Token{Kind: Keyword, Value: strings.ToLower(value), Span: span}
	}
	return Token{Kind: Ident, Value: value, Span: span}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
