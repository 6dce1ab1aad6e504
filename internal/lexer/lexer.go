// Package lexer turns Craeft source text into a stream of tokens, one
// at a time, under a simple pull contract: Current/CurrentPos/AtEOF/
// Shift. The lexer is strictly single-threaded; no call suspends or
// blocks its caller.
package lexer

import (
	"strconv"
	"strings"

	"craeft/internal/diag"
	"craeft/internal/source"
	"craeft/internal/token"
)

const eof = 0

const operatorChars = "!:.*=+-><&%^@~/"

// Lexer scans a single source file into tokens on demand.
type Lexer struct {
	file source.FileID
	src  string
	pos  int
	line uint16
	col  uint16

	cur    token.Token
	curPos source.Pos
	atEOF  bool
}

// New creates a Lexer over src (registered under file) and primes it with
// the first token.
func New(file source.FileID, src string) (*Lexer, error) {
	l := &Lexer{file: file, src: src, line: 1, col: 1}
	if err := l.Shift(); err != nil {
		return nil, err
	}
	return l, nil
}

// Current returns the token under the lookahead cursor.
func (l *Lexer) Current() token.Token { return l.cur }

// CurrentPos returns the source position of the current token.
func (l *Lexer) CurrentPos() source.Pos { return l.curPos }

// AtEOF reports whether the current token is the end-of-file marker.
func (l *Lexer) AtEOF() bool { return l.atEOF }

// ---- byte cursor ----

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return eof
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return eof
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.peekByte()
	if c == eof {
		return eof
	}
	l.pos++
	if c == '\n' || c == '\r' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) pos16() source.Pos {
	return source.Pos{File: l.file, Line: l.line, Col: l.col}
}

// High-bit bytes count as identifier characters, a deliberately coarse
// UTF-8 classification that keeps the ASCII subset exact.
func isHighBit(c byte) bool { return c >= 0x80 }

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isAlpha(c byte) bool { return isUpper(c) || isLower(c) || isHighBit(c) }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isIdentCont(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_'
}
func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// Shift advances to the next token, skipping whitespace first.
func (l *Lexer) Shift() error {
	for isSpace(l.peekByte()) {
		l.advance()
	}

	startPos := l.pos16()
	l.curPos = startPos

	c := l.peekByte()
	switch {
	case c == eof:
		l.cur = token.Token{Kind: token.EOF}
		l.atEOF = true
		return nil
	case isUpper(c):
		return l.lexWord(true)
	case isLower(c) || isHighBit(c):
		return l.lexWord(false)
	case isDigit(c):
		return l.lexNumber()
	case strings.IndexByte(operatorChars, c) >= 0:
		return l.lexOperator()
	case c == '(':
		l.advance()
		l.cur = token.Token{Kind: token.OpenParen}
		return nil
	case c == ')':
		l.advance()
		l.cur = token.Token{Kind: token.CloseParen}
		return nil
	case c == '{':
		l.advance()
		l.cur = token.Token{Kind: token.OpenBrace}
		return nil
	case c == '}':
		l.advance()
		l.cur = token.Token{Kind: token.CloseBrace}
		return nil
	case c == ',':
		l.advance()
		l.cur = token.Token{Kind: token.Comma}
		return nil
	case c == ';':
		l.advance()
		l.cur = token.Token{Kind: token.Semicolon}
		return nil
	case c == '"':
		return l.lexString()
	default:
		l.advance()
		return diag.New(diag.LexerError, startPos, "character %q not recognized", c)
	}
}

// lexWord scans an identifier or type name (determined by the case of its
// initial letter) and resolves it against the keyword table.
func (l *Lexer) lexWord(isType bool) error {
	start := l.pos
	for isIdentCont(l.peekByte()) {
		l.advance()
	}
	text := l.src[start:l.pos]

	if !isType {
		if kw, ok := token.Lookup(text); ok {
			l.cur = token.Token{Kind: kw}
			return nil
		}
	}

	if isType {
		l.cur = token.Token{Kind: token.TypeName, Str: text}
	} else {
		l.cur = token.Token{Kind: token.Identifier, Str: text}
	}
	return nil
}

// lexNumber scans an integer or floating-point literal. Magnitude is
// not range-checked at lex time.
func (l *Lexer) lexNumber() error {
	start := l.pos
	for isDigit(l.peekByte()) {
		l.advance()
	}

	isFloat := false
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isFloat = true
		l.advance()
		for isDigit(l.peekByte()) {
			l.advance()
		}
	}
	if c := l.peekByte(); c == 'e' || c == 'E' {
		save, saveCol := l.pos, l.col
		l.advance()
		if l.peekByte() == '-' {
			l.advance()
		}
		if isDigit(l.peekByte()) {
			isFloat = true
			for isDigit(l.peekByte()) {
				l.advance()
			}
		} else {
			// Not actually an exponent; back off the lookahead consumption.
			l.pos, l.col = save, saveCol
		}
	}

	text := l.src[start:l.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return diag.New(diag.LexerError, l.curPos, "malformed float literal %q", text)
		}
		l.cur = token.Token{Kind: token.FloatLiteral, Float: f}
		return nil
	}
	u, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return diag.New(diag.LexerError, l.curPos, "malformed integer literal %q", text)
	}
	l.cur = token.Token{Kind: token.UIntLiteral, UInt: u}
	return nil
}

// lexOperator greedily consumes the longest run of operator characters,
// so that e.g. "==", "<=", "->", "<:", ":>", "&&", "||", ">>", "<<" all
// lex as single operators.
func (l *Lexer) lexOperator() error {
	start := l.pos
	for strings.IndexByte(operatorChars, l.peekByte()) >= 0 {
		l.advance()
	}
	l.cur = token.Token{Kind: token.Operator, Str: l.src[start:l.pos]}
	return nil
}

// lexString scans a string literal, recognizing the C-style escapes
// \a \b \f \n \r \t \v; any other escaped character stands for itself.
func (l *Lexer) lexString() error {
	startPos := l.curPos
	l.advance() // opening quote
	var sb strings.Builder
	for {
		c := l.peekByte()
		if c == eof {
			return diag.New(diag.LexerError, startPos, "unterminated string")
		}
		if c == '"' {
			l.advance()
			break
		}
		if c == '\\' {
			l.advance()
			e := l.peekByte()
			if e == eof {
				return diag.New(diag.LexerError, startPos, "unterminated string")
			}
			l.advance()
			sb.WriteByte(unescape(e))
			continue
		}
		l.advance()
		sb.WriteByte(c)
	}
	l.cur = token.Token{Kind: token.StringLiteral, Str: sb.String()}
	return nil
}

func unescape(c byte) byte {
	switch c {
	case 'a':
		return '\a'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'v':
		return '\v'
	default:
		return c
	}
}
