package lexer

import (
	"testing"

	"craeft/internal/token"
)

func collect(t *testing.T, src string) []token.Token {
	t.Helper()
	l, err := New(0, src)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	var toks []token.Token
	for !l.AtEOF() {
		toks = append(toks, l.Current())
		if err := l.Shift(); err != nil {
			t.Fatalf("Shift: %s", err)
		}
	}
	return toks
}

func TestLexerWords(t *testing.T) {
	toks := collect(t, "fn main(I64 x) -> I64 { return x; }")

	want := []token.Kind{
		token.Fn, token.Identifier, token.OpenParen, token.TypeName, token.Identifier, token.CloseParen,
		token.Operator, token.TypeName, token.OpenBrace, token.Return, token.Identifier, token.Semicolon,
		token.CloseBrace,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got kind %v, want %v (%q)", i, toks[i].Kind, k, toks[i].Repr())
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	// Plain digit runs always lex as UIntLiteral; a literal becomes
	// FloatLiteral only when '.' or an exponent appears.
	toks := collect(t, "1 42 1.5 2e3 1.25e-2")
	if len(toks) != 5 {
		t.Fatalf("got %d tokens, want 5: %+v", len(toks), toks)
	}
	if toks[0].Kind != token.UIntLiteral || toks[0].UInt != 1 {
		t.Errorf("token 0: got %+v, want UIntLiteral(1)", toks[0])
	}
	if toks[1].Kind != token.UIntLiteral || toks[1].UInt != 42 {
		t.Errorf("token 1: got %+v, want UIntLiteral(42)", toks[1])
	}
	if toks[2].Kind != token.FloatLiteral || toks[2].Float != 1.5 {
		t.Errorf("token 2: got %+v, want FloatLiteral(1.5)", toks[2])
	}
	if toks[3].Kind != token.FloatLiteral || toks[3].Float != 2000 {
		t.Errorf("token 3: got %+v, want FloatLiteral(2000)", toks[3])
	}
	if toks[4].Kind != token.FloatLiteral || toks[4].Float != 0.0125 {
		t.Errorf("token 4: got %+v, want FloatLiteral(0.0125)", toks[4])
	}
}

func TestLexerString(t *testing.T) {
	toks := collect(t, `"hi\n"`)
	if len(toks) != 1 || toks[0].Kind != token.StringLiteral {
		t.Fatalf("got %+v, want a single StringLiteral", toks)
	}
	if toks[0].Str != "hi\n" {
		t.Errorf("got %q, want %q", toks[0].Str, "hi\n")
	}
}

func TestLexerOperatorGreedyMatch(t *testing.T) {
	toks := collect(t, "<: :> <= == !=")
	want := []string{"<:", ":>", "<=", "==", "!="}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Str != w {
			t.Errorf("token %d: got %q, want %q", i, toks[i].Str, w)
		}
	}
}

// TestLexerPositionMonotonic exercises the property that token positions
// never go backwards within a single line.
func TestLexerPositionMonotonic(t *testing.T) {
	l, err := New(0, "foo bar baz")
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	prevCol := uint16(0)
	for !l.AtEOF() {
		pos := l.CurrentPos()
		if pos.Col < prevCol {
			t.Fatalf("position went backwards: col %d after %d", pos.Col, prevCol)
		}
		prevCol = pos.Col
		if err := l.Shift(); err != nil {
			t.Fatalf("Shift: %s", err)
		}
	}
}
