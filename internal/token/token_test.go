package token

import "testing"

func TestLookupKeywords(t *testing.T) {
	for word, want := range keywords {
		got, ok := Lookup(word)
		if !ok {
			t.Errorf("Lookup(%q): not found", word)
			continue
		}
		if got != want {
			t.Errorf("Lookup(%q) = %v, want %v", word, got, want)
		}
	}
	if _, ok := Lookup("notakeyword"); ok {
		t.Error("Lookup(\"notakeyword\") should not be a keyword")
	}
}

func TestTokenEqual(t *testing.T) {
	cases := []struct {
		a, b Token
		want bool
	}{
		{Token{Kind: Identifier, Str: "x"}, Token{Kind: Identifier, Str: "x"}, true},
		{Token{Kind: Identifier, Str: "x"}, Token{Kind: Identifier, Str: "y"}, false},
		{Token{Kind: IntLiteral, Int: 3}, Token{Kind: IntLiteral, Int: 3}, true},
		{Token{Kind: IntLiteral, Int: 3}, Token{Kind: IntLiteral, Int: 4}, false},
		{Token{Kind: UIntLiteral, UInt: 3}, Token{Kind: UIntLiteral, UInt: 3}, true},
		{Token{Kind: FloatLiteral, Float: 1.5}, Token{Kind: FloatLiteral, Float: 1.5}, true},
		{Token{Kind: OpenParen}, Token{Kind: OpenParen}, true},
		{Token{Kind: OpenParen}, Token{Kind: CloseParen}, false},
		{Token{Kind: Identifier, Str: "x"}, Token{Kind: TypeName, Str: "x"}, false},
	}
	for _, c := range cases {
		if got := c.a.Equal(c.b); got != c.want {
			t.Errorf("%+v.Equal(%+v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestTokenRepr(t *testing.T) {
	cases := []struct {
		tok  Token
		want string
	}{
		{Token{Kind: EOF}, "<eof>"},
		{Token{Kind: Identifier, Str: "foo"}, "foo"},
		{Token{Kind: TypeName, Str: "Foo"}, "Foo"},
		{Token{Kind: Operator, Str: "<="}, "<="},
		{Token{Kind: IntLiteral, Int: -3}, "-3"},
		{Token{Kind: UIntLiteral, UInt: 3}, "3"},
		{Token{Kind: StringLiteral, Str: "hi"}, `"hi"`},
		{Token{Kind: OpenParen}, "("},
		{Token{Kind: Semicolon}, ";"},
		{Token{Kind: Fn}, "fn"},
		{Token{Kind: While}, "while"},
	}
	for _, c := range cases {
		if got := c.tok.Repr(); got != c.want {
			t.Errorf("Repr() = %q, want %q", got, c.want)
		}
	}
}
