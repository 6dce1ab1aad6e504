// Package token defines Craeft's token model: a discriminated union of
// lexemes with a textual representation and deep equality.
package token

import "fmt"

// Kind discriminates the variants of a Token.
type Kind int

const (
	EOF Kind = iota
	TypeName
	Identifier
	IntLiteral
	UIntLiteral
	FloatLiteral
	StringLiteral
	Operator
	OpenParen
	CloseParen
	OpenBrace
	CloseBrace
	Comma
	Semicolon
	Fn
	Struct
	TypeKw
	Return
	If
	Else
	While
)

var keywords = map[string]Kind{
	"fn":     Fn,
	"struct": Struct,
	"type":   TypeKw,
	"return": Return,
	"if":     If,
	"else":   Else,
	"while":  While,
}

// Lookup returns the keyword Kind for word, and whether word is a keyword.
func Lookup(word string) (Kind, bool) {
	k, ok := keywords[word]
	return k, ok
}

// Token is a single lexeme. Only the fields relevant to Kind are
// meaningful; e.g. Str is unused for IntLiteral, which uses Int instead.
type Token struct {
	Kind  Kind
	Str   string // TypeName, Identifier, Operator, StringLiteral text.
	Int   int64
	UInt  uint64
	Float float64
}

// Repr returns a textual representation of t suitable for error messages.
func (t Token) Repr() string {
	switch t.Kind {
	case EOF:
		return "<eof>"
	case TypeName, Identifier, Operator:
		return t.Str
	case IntLiteral:
		return fmt.Sprintf("%d", t.Int)
	case UIntLiteral:
		return fmt.Sprintf("%d", t.UInt)
	case FloatLiteral:
		return fmt.Sprintf("%g", t.Float)
	case StringLiteral:
		return fmt.Sprintf("%q", t.Str)
	case OpenParen:
		return "("
	case CloseParen:
		return ")"
	case OpenBrace:
		return "{"
	case CloseBrace:
		return "}"
	case Comma:
		return ","
	case Semicolon:
		return ";"
	case Fn:
		return "fn"
	case Struct:
		return "struct"
	case TypeKw:
		return "type"
	case Return:
		return "return"
	case If:
		return "if"
	case Else:
		return "else"
	case While:
		return "while"
	default:
		return "<unknown token>"
	}
}

// Equal reports whether t and o are the same token, including payload.
func (t Token) Equal(o Token) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TypeName, Identifier, Operator, StringLiteral:
		return t.Str == o.Str
	case IntLiteral:
		return t.Int == o.Int
	case UIntLiteral:
		return t.UInt == o.UInt
	case FloatLiteral:
		return t.Float == o.Float
	default:
		return true
	}
}
