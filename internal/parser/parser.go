// Package parser implements Craeft's recursive-descent parser: tokens to
// AST, with operator-precedence climbing over binary expressions and
// l-value recovery for assignment statements. Every failure is a
// *diag.Error. Most are anchored at the current lexer position; a bad
// field-access operand is anchored at its '.' or '->', a non-assignable
// operand at that operand, and a nested assignment at the start of its
// statement.
package parser

import (
	"craeft/internal/ast"
	"craeft/internal/diag"
	"craeft/internal/lexer"
	"craeft/internal/source"
	"craeft/internal/token"
)

// Parser builds an AST from a single lexer's token stream.
type Parser struct {
	lex *lexer.Lexer
}

// New returns a Parser over lex.
func New(lex *lexer.Lexer) *Parser {
	return &Parser{lex: lex}
}

// AtEOF reports whether the underlying lexer has reached end of file.
func (p *Parser) AtEOF() bool { return p.lex.AtEOF() }

func (p *Parser) pos() source.Pos { return p.lex.CurrentPos() }
func (p *Parser) cur() token.Token { return p.lex.Current() }

func (p *Parser) shift() error { return p.lex.Shift() }

func (p *Parser) errorf(format string, args ...interface{}) error {
	return diag.New(diag.ParserError, p.pos(), format, args...)
}

// expect consumes the current token if it has kind k, else raises a
// parser error naming what was expected.
func (p *Parser) expect(k token.Kind, what string) error {
	if p.cur().Kind != k {
		return p.errorf("expected %q, got %q", what, p.cur().Repr())
	}
	return p.shift()
}

// isOperator reports whether the current token is the Operator variant
// with text s.
func (p *Parser) isOperator(s string) bool {
	return p.cur().Kind == token.Operator && p.cur().Str == s
}

func (p *Parser) consumeOperator(s string) error {
	if !p.isOperator(s) {
		return p.errorf("expected operator %q, got %q", s, p.cur().Repr())
	}
	return p.shift()
}

// Binary operator precedence; higher binds tighter.
var precedence = map[string]int{
	"=": 200,

	"||": 300,
	"&&": 400,

	"|": 500,
	"^": 600,
	"&": 700,

	"==": 800,
	"!=": 800,

	"<":  900,
	"<=": 900,
	">":  900,
	">=": 900,

	"<<": 1000,
	">>": 1000,

	"+": 1100,
	"-": 1100,

	"*": 1200,
	"/": 1200,
	"%": 1200,

	".":  1400,
	"->": 1400,
}

// ParseToplevel parses exactly one top-level form and advances past it.
// Callers (the module driver) are responsible for catching errors here;
// no resynchronization inside a form is attempted.
func (p *Parser) ParseToplevel() (ast.Toplevel, error) {
	switch p.cur().Kind {
	case token.TypeKw:
		return p.parseTypeDeclaration()
	case token.Struct:
		return p.parseStructDeclaration()
	case token.Fn:
		return p.parseFunction()
	default:
		return nil, p.errorf("expected top-level declaration, got %q", p.cur().Repr())
	}
}

func (p *Parser) parseTypeDeclaration() (ast.Toplevel, error) {
	pos := p.pos()
	if err := p.shift(); err != nil { // consume 'type'
		return nil, err
	}
	name := p.cur().Str
	if p.cur().Kind != token.TypeName {
		return nil, p.errorf("expected type name after 'type', got %q", p.cur().Repr())
	}
	if err := p.shift(); err != nil {
		return nil, err
	}
	if err := p.expect(token.Semicolon, ";"); err != nil {
		return nil, err
	}
	return &ast.TypeDeclaration{Pos: pos, Name: name}, nil
}

func (p *Parser) parseStructDeclaration() (ast.Toplevel, error) {
	pos := p.pos()
	if err := p.shift(); err != nil { // consume 'struct'
		return nil, err
	}

	var params []string
	if p.isOperator("<:") {
		var err error
		params, err = p.parseTemplateParamList()
		if err != nil {
			return nil, err
		}
	}

	if p.cur().Kind != token.TypeName {
		return nil, p.errorf("expected struct name, got %q", p.cur().Repr())
	}
	name := p.cur().Str
	if err := p.shift(); err != nil {
		return nil, err
	}

	fields, err := p.parseFieldList()
	if err != nil {
		return nil, err
	}

	if params == nil {
		return &ast.StructDeclaration{Pos: pos, Name: name, Fields: fields}, nil
	}
	return &ast.TemplateStructDeclaration{Pos: pos, Name: name, Params: params, Fields: fields}, nil
}

// parseTemplateParamList parses `<: T1, T2, ... :>` where each Ti is a
// bare type-parameter name (a TypeName token).
func (p *Parser) parseTemplateParamList() ([]string, error) {
	if err := p.consumeOperator("<:"); err != nil {
		return nil, err
	}
	var names []string
	for {
		if p.cur().Kind != token.TypeName {
			return nil, p.errorf("expected template parameter name, got %q", p.cur().Repr())
		}
		names = append(names, p.cur().Str)
		if err := p.shift(); err != nil {
			return nil, err
		}
		if p.cur().Kind == token.Comma {
			if err := p.shift(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.consumeOperator(":>"); err != nil {
		return nil, err
	}
	return names, nil
}

func (p *Parser) parseFieldList() ([]ast.Field, error) {
	if err := p.expect(token.OpenBrace, "{"); err != nil {
		return nil, err
	}
	var fields []ast.Field
	for p.cur().Kind != token.CloseBrace {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if p.cur().Kind != token.Identifier {
			return nil, p.errorf("expected field name, got %q", p.cur().Repr())
		}
		name := p.cur().Str
		if err := p.shift(); err != nil {
			return nil, err
		}
		if err := p.expect(token.Semicolon, ";"); err != nil {
			return nil, err
		}
		fields = append(fields, ast.Field{Name: name, Type: t})
	}
	if err := p.shift(); err != nil { // consume '}'
		return nil, err
	}
	return fields, nil
}

// parseFunction parses `fn [<: T, ... :>] name(args) [-> Type] ( ; | { body } )`.
func (p *Parser) parseFunction() (ast.Toplevel, error) {
	pos := p.pos()
	if err := p.shift(); err != nil { // consume 'fn'
		return nil, err
	}

	var templateParams []string
	if p.isOperator("<:") {
		var err error
		templateParams, err = p.parseTemplateParamList()
		if err != nil {
			return nil, err
		}
	}

	if p.cur().Kind != token.Identifier {
		return nil, p.errorf("expected function name, got %q", p.cur().Repr())
	}
	name := p.cur().Str
	if err := p.shift(); err != nil {
		return nil, err
	}

	args, err := p.parseArgList()
	if err != nil {
		return nil, err
	}

	var ret ast.Type = &ast.VoidType{Pos: p.pos()}
	if p.isOperator("->") {
		if err := p.shift(); err != nil {
			return nil, err
		}
		ret, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	if p.cur().Kind == token.Semicolon {
		if err := p.shift(); err != nil {
			return nil, err
		}
		return &ast.FunctionDeclaration{Pos: pos, Name: name, Args: args, Ret: ret}, nil
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	if templateParams == nil {
		return &ast.FunctionDefinition{Pos: pos, Name: name, Args: args, Ret: ret, Body: body}, nil
	}
	return &ast.TemplateFunctionDefinition{
		Pos: pos, Name: name, Params: templateParams, Args: args, Ret: ret, Body: body,
	}, nil
}

func (p *Parser) parseArgList() ([]ast.Field, error) {
	if err := p.expect(token.OpenParen, "("); err != nil {
		return nil, err
	}
	var args []ast.Field
	for p.cur().Kind != token.CloseParen {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if p.cur().Kind != token.Identifier {
			return nil, p.errorf("expected parameter name, got %q", p.cur().Repr())
		}
		name := p.cur().Str
		if err := p.shift(); err != nil {
			return nil, err
		}
		args = append(args, ast.Field{Name: name, Type: t})
		if p.cur().Kind == token.Comma {
			if err := p.shift(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expect(token.CloseParen, ")"); err != nil {
		return nil, err
	}
	return args, nil
}

// ---- types ----

// parseType parses a TypeName, optionally followed by `<: args :>` and
// any number of trailing `*`.
func (p *Parser) parseType() (ast.Type, error) {
	pos := p.pos()
	if p.cur().Kind != token.TypeName {
		return nil, p.errorf("expected type name, got %q", p.cur().Repr())
	}
	name := p.cur().Str
	if err := p.shift(); err != nil {
		return nil, err
	}

	var t ast.Type = &ast.NamedType{Pos: pos, Name: name}
	if p.isOperator("<:") {
		args, err := p.parseTypeArgList()
		if err != nil {
			return nil, err
		}
		t = &ast.TemplatedType{Pos: pos, Name: name, Args: args}
	}

	for p.isOperator("*") {
		if err := p.shift(); err != nil {
			return nil, err
		}
		t = &ast.PointerType{Pos: pos, Inner: t}
	}
	return t, nil
}

func (p *Parser) parseTypeArgList() ([]ast.Type, error) {
	if err := p.consumeOperator("<:"); err != nil {
		return nil, err
	}
	var args []ast.Type
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
		if p.cur().Kind == token.Comma {
			if err := p.shift(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.consumeOperator(":>"); err != nil {
		return nil, err
	}
	return args, nil
}
