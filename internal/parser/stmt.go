package parser

import (
	"craeft/internal/ast"
	"craeft/internal/diag"
	"craeft/internal/token"
)

// parseBlock parses a brace-delimited statement list.
func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if err := p.expect(token.OpenBrace, "{"); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for p.cur().Kind != token.CloseBrace {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if err := p.shift(); err != nil { // consume '}'
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.cur().Kind {
	case token.TypeName:
		return p.parseDeclaration()
	case token.Return:
		return p.parseReturn()
	case token.If:
		return p.parseIf()
	case token.While:
		return nil, p.errorf("'while' is reserved and not yet implemented")
	default:
		return p.parseExpressionOrAssignment()
	}
}

// parseDeclaration parses `Type name;` and `Type name = expr;`.
func (p *Parser) parseDeclaration() (ast.Stmt, error) {
	pos := p.pos()
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.Identifier {
		return nil, p.errorf("expected variable name, got %q", p.cur().Repr())
	}
	name := p.cur().Str
	if err := p.shift(); err != nil {
		return nil, err
	}

	if p.isOperator("=") {
		if err := p.shift(); err != nil {
			return nil, err
		}
		rhs, err := p.parseExpr(precedence["="] + 1)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.Semicolon, ";"); err != nil {
			return nil, err
		}
		return &ast.CompoundDeclarationStatement{Pos: pos, Type: t, Name: name, RHS: rhs}, nil
	}

	if err := p.expect(token.Semicolon, ";"); err != nil {
		return nil, err
	}
	return &ast.DeclarationStatement{Pos: pos, Type: t, Name: name}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	pos := p.pos()
	if err := p.shift(); err != nil { // consume 'return'
		return nil, err
	}
	if p.cur().Kind == token.Semicolon {
		if err := p.shift(); err != nil {
			return nil, err
		}
		return &ast.VoidReturnStatement{Pos: pos}, nil
	}
	e, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.Semicolon, ";"); err != nil {
		return nil, err
	}
	return &ast.ReturnStatement{Pos: pos, Expr: e}, nil
}

// parseIf parses `if expr { ... } [else { ... }]`. The condition is a
// bare expression (no parentheses required) and the else clause, when
// present, is always a brace-delimited block.
func (p *Parser) parseIf() (ast.Stmt, error) {
	pos := p.pos()
	if err := p.shift(); err != nil { // consume 'if'
		return nil, err
	}
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var els []ast.Stmt
	if p.cur().Kind == token.Else {
		if err := p.shift(); err != nil {
			return nil, err
		}
		els, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}

	return &ast.IfStatement{Pos: pos, Cond: cond, Then: then, Else: els}, nil
}

// parseExpressionOrAssignment parses a bare expression statement, then
// performs l-value recovery: a top-level '=' is reduced to an
// AssignmentStatement rather than a Binop, and any nested '=' below
// that point is rejected as malformed.
func (p *Parser) parseExpressionOrAssignment() (ast.Stmt, error) {
	pos := p.pos()
	e, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.Semicolon, ";"); err != nil {
		return nil, err
	}

	if b, ok := e.(*ast.Binop); ok && b.Op == "=" {
		if containsAssignment(b.LHS) || containsAssignment(b.RHS) {
			return nil, diag.New(diag.ParserError, pos, "assignment cannot be nested inside an expression")
		}
		lhs, err := toLValue(b.LHS)
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentStatement{Pos: pos, LHS: lhs, RHS: b.RHS}, nil
	}
	if containsAssignment(e) {
		return nil, diag.New(diag.ParserError, pos, "assignment cannot be nested inside an expression")
	}

	return &ast.ExpressionStatement{Pos: pos, Expr: e}, nil
}

// containsAssignment walks e looking for a '=' Binop anywhere below it.
// Precedence climbing folds '=' left to right like any other operator,
// so `a = b = c` leaves one '=' in the left operand; parentheses and
// call arguments can nest it anywhere else.
func containsAssignment(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.Binop:
		if n.Op == "=" {
			return true
		}
		return containsAssignment(n.LHS) || containsAssignment(n.RHS)
	case *ast.Reference:
		return containsAssignment(n.Operand)
	case *ast.Dereference:
		return containsAssignment(n.Operand)
	case *ast.FieldAccess:
		return containsAssignment(n.Operand)
	case *ast.Cast:
		return containsAssignment(n.Operand)
	case *ast.FunctionCall:
		for _, a := range n.Args {
			if containsAssignment(a) {
				return true
			}
		}
		return false
	case *ast.TemplateFunctionCall:
		for _, a := range n.Args {
			if containsAssignment(a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
