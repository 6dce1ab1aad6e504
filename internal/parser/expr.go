package parser

import (
	"craeft/internal/ast"
	"craeft/internal/diag"
	"craeft/internal/source"
	"craeft/internal/token"
)

// parseExpr implements precedence climbing over the table in parser.go:
// it repeatedly folds the current lookahead operator into a binary node
// as long as that operator's precedence is at least floor, recursing at
// one-plus-its-own precedence to bind tighter operators first.
func (p *Parser) parseExpr(floor int) (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		if p.cur().Kind != token.Operator {
			return lhs, nil
		}
		op := p.cur().Str
		prec, ok := precedence[op]
		if !ok || prec < floor {
			return lhs, nil
		}
		opPos := p.pos()
		if err := p.shift(); err != nil {
			return nil, err
		}

		rhs, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}

		lhs, err = foldBinop(opPos, op, lhs, rhs)
		if err != nil {
			return nil, err
		}
	}
}

// foldBinop reduces one binary application. "." and "->" fold into
// FieldAccess rather than a generic Binop, since field access is a
// distinct AST form: the right-hand operand of either must itself be a
// bare field name.
func foldBinop(pos source.Pos, op string, lhs, rhs ast.Expr) (ast.Expr, error) {
	switch op {
	case ".":
		v, ok := rhs.(*ast.Variable)
		if !ok {
			return nil, diag.New(diag.ParserError, pos, "right-hand side of '.' must be a field name")
		}
		return &ast.FieldAccess{Pos: pos, Operand: lhs, Field: v.Name}, nil
	case "->":
		v, ok := rhs.(*ast.Variable)
		if !ok {
			return nil, diag.New(diag.ParserError, pos, "right-hand side of '->' must be a field name")
		}
		return &ast.FieldAccess{Pos: pos, Operand: &ast.Dereference{Pos: pos, Operand: lhs}, Field: v.Name}, nil
	default:
		return &ast.Binop{Pos: pos, Op: op, LHS: lhs, RHS: rhs}, nil
	}
}

// parseUnary handles the two prefix operators, '*' (Dereference) and '&'
// (Reference, which requires its operand to reduce to an LValue).
func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.isOperator("*") {
		pos := p.pos()
		if err := p.shift(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Dereference{Pos: pos, Operand: operand}, nil
	}
	if p.isOperator("&") {
		pos := p.pos()
		if err := p.shift(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lv, err := toLValue(operand)
		if err != nil {
			return nil, err
		}
		return &ast.Reference{Pos: pos, Operand: lv}, nil
	}
	return p.parsePrimary()
}

// parsePrimary parses literals, parenthesized/cast expressions, and
// identifier-led forms (bare variable, call, template call).
func (p *Parser) parsePrimary() (ast.Expr, error) {
	pos := p.pos()
	switch p.cur().Kind {
	case token.IntLiteral:
		v := p.cur().Int
		if err := p.shift(); err != nil {
			return nil, err
		}
		return &ast.IntLiteral{Pos: pos, Value: v}, nil

	case token.UIntLiteral:
		v := p.cur().UInt
		if err := p.shift(); err != nil {
			return nil, err
		}
		return &ast.UIntLiteral{Pos: pos, Value: v}, nil

	case token.FloatLiteral:
		v := p.cur().Float
		if err := p.shift(); err != nil {
			return nil, err
		}
		return &ast.FloatLiteral{Pos: pos, Value: v}, nil

	case token.StringLiteral:
		v := p.cur().Str
		if err := p.shift(); err != nil {
			return nil, err
		}
		return &ast.StringLiteral{Pos: pos, Value: v}, nil

	case token.OpenParen:
		return p.parseParenOrCast(pos)

	case token.Identifier:
		name := p.cur().Str
		if err := p.shift(); err != nil {
			return nil, err
		}
		return p.parseIdentifierTail(pos, name)

	default:
		return nil, p.errorf("expected expression, got %q", p.cur().Repr())
	}
}

// parseParenOrCast disambiguates `( expr )` from `( Type ) expr` by
// looking at what follows the open paren: a TypeName starts a cast,
// anything else starts a parenthesized sub-expression.
func (p *Parser) parseParenOrCast(pos source.Pos) (ast.Expr, error) {
	if err := p.shift(); err != nil { // consume '('
		return nil, err
	}

	if p.cur().Kind == token.TypeName {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.CloseParen, ")"); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Cast{Pos: pos, Type: t, Operand: operand}, nil
	}

	inner, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.CloseParen, ")"); err != nil {
		return nil, err
	}
	return inner, nil
}

// parseIdentifierTail decides whether an already-consumed identifier
// starts a bare Variable, a FunctionCall, or a TemplateFunctionCall.
func (p *Parser) parseIdentifierTail(pos source.Pos, name string) (ast.Expr, error) {
	if p.cur().Kind == token.OpenParen {
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		return &ast.FunctionCall{Pos: pos, Name: name, Args: args}, nil
	}
	if p.isOperator("<:") {
		typeArgs, err := p.parseTypeArgList()
		if err != nil {
			return nil, err
		}
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		return &ast.TemplateFunctionCall{Pos: pos, Name: name, TypeArgs: typeArgs, Args: args}, nil
	}
	return &ast.Variable{Pos: pos, Name: name}, nil
}

func (p *Parser) parseCallArgs() ([]ast.Expr, error) {
	if err := p.expect(token.OpenParen, "("); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for p.cur().Kind != token.CloseParen {
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, e)
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

// toLValue narrows an Expr to an LValue, raising a parser error if it
// does not evaluate to an address.
func toLValue(e ast.Expr) (ast.LValue, error) {
	lv, ok := e.(ast.LValue)
	if !ok {
		return nil, diag.New(diag.ParserError, e.Position(), "expression is not assignable")
	}
	return lv, nil
}
