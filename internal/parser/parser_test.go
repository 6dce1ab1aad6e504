package parser

import (
	"testing"

	"craeft/internal/ast"
	"craeft/internal/lexer"
)

func newParser(t *testing.T, src string) *Parser {
	t.Helper()
	l, err := lexer.New(0, src)
	if err != nil {
		t.Fatalf("lexer.New: %s", err)
	}
	return New(l)
}

func parseOneExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	p := newParser(t, src)
	e, err := p.parseExpr(0)
	if err != nil {
		t.Fatalf("parseExpr(%q): %s", src, err)
	}
	return e
}

func TestPrecedenceClimbing(t *testing.T) {
	// a + b * c must bind as a + (b * c), not (a + b) * c.
	e := parseOneExpr(t, "a + b * c")
	top, ok := e.(*ast.Binop)
	if !ok || top.Op != "+" {
		t.Fatalf("top-level op = %#v, want Binop(+)", e)
	}
	rhs, ok := top.RHS.(*ast.Binop)
	if !ok || rhs.Op != "*" {
		t.Fatalf("rhs = %#v, want Binop(*)", top.RHS)
	}
}

func TestPrecedenceComparisonBindsLooserThanAdd(t *testing.T) {
	// a + b < c * d parses as (a+b) < (c*d).
	e := parseOneExpr(t, "a + b < c * d")
	top, ok := e.(*ast.Binop)
	if !ok || top.Op != "<" {
		t.Fatalf("top-level op = %#v, want Binop(<)", e)
	}
	if _, ok := top.LHS.(*ast.Binop); !ok {
		t.Errorf("lhs = %#v, want Binop(+)", top.LHS)
	}
	if _, ok := top.RHS.(*ast.Binop); !ok {
		t.Errorf("rhs = %#v, want Binop(*)", top.RHS)
	}
}

func TestEqualPrecedenceFoldsLeftToRight(t *testing.T) {
	// a - b - c should bind as (a - b) - c, since parseExpr recurses at
	// prec+1 only on the newly-seen operator, folding left to right at
	// equal precedence.
	e := parseOneExpr(t, "a - b - c")
	top, ok := e.(*ast.Binop)
	if !ok || top.Op != "-" {
		t.Fatalf("top-level op = %#v, want Binop(-)", e)
	}
	lhs, ok := top.LHS.(*ast.Binop)
	if !ok || lhs.Op != "-" {
		t.Fatalf("lhs = %#v, want Binop(-)", top.LHS)
	}
	if _, ok := top.RHS.(*ast.Variable); !ok {
		t.Errorf("rhs = %#v, want Variable(c)", top.RHS)
	}
}

func TestFieldAccessFoldsToFieldAccessNode(t *testing.T) {
	e := parseOneExpr(t, "p.x")
	fa, ok := e.(*ast.FieldAccess)
	if !ok {
		t.Fatalf("got %#v, want *ast.FieldAccess", e)
	}
	if fa.Field != "x" {
		t.Errorf("Field = %q, want x", fa.Field)
	}
	if _, ok := fa.Operand.(*ast.Variable); !ok {
		t.Errorf("Operand = %#v, want Variable(p)", fa.Operand)
	}
}

func TestArrowFoldsThroughDereference(t *testing.T) {
	e := parseOneExpr(t, "p->x")
	fa, ok := e.(*ast.FieldAccess)
	if !ok {
		t.Fatalf("got %#v, want *ast.FieldAccess", e)
	}
	if fa.Field != "x" {
		t.Errorf("Field = %q, want x", fa.Field)
	}
	if _, ok := fa.Operand.(*ast.Dereference); !ok {
		t.Errorf("Operand = %#v, want Dereference", fa.Operand)
	}
}

func TestChainedFieldAccess(t *testing.T) {
	// a.b->c folds left to right: FieldAccess(Dereference(FieldAccess(a, b)), c).
	e := parseOneExpr(t, "a.b->c")
	outer, ok := e.(*ast.FieldAccess)
	if !ok || outer.Field != "c" {
		t.Fatalf("got %#v, want FieldAccess(..., c)", e)
	}
	deref, ok := outer.Operand.(*ast.Dereference)
	if !ok {
		t.Fatalf("outer operand = %#v, want Dereference", outer.Operand)
	}
	inner, ok := deref.Operand.(*ast.FieldAccess)
	if !ok || inner.Field != "b" {
		t.Fatalf("deref operand = %#v, want FieldAccess(a, b)", deref.Operand)
	}
	if _, ok := inner.Operand.(*ast.Variable); !ok {
		t.Errorf("innermost operand = %#v, want Variable(a)", inner.Operand)
	}
}

func TestWhileIsReservedButRejected(t *testing.T) {
	p := newParser(t, "while x { }")
	if _, err := p.parseStatement(); err == nil {
		t.Error("'while' should be rejected at parse time")
	}
}

func TestUnaryDereferenceAndReference(t *testing.T) {
	// Adjacent operator characters lex as a single token, so the two
	// prefix operators are separated by a space.
	e := parseOneExpr(t, "* &x")
	deref, ok := e.(*ast.Dereference)
	if !ok {
		t.Fatalf("got %#v, want *ast.Dereference", e)
	}
	ref, ok := deref.Operand.(*ast.Reference)
	if !ok {
		t.Fatalf("got %#v, want *ast.Reference", deref.Operand)
	}
	if _, ok := ref.Operand.(*ast.Variable); !ok {
		t.Errorf("Reference.Operand = %#v, want Variable", ref.Operand)
	}
}

func TestReferenceRejectsNonLValue(t *testing.T) {
	p := newParser(t, "&(x + 1)")
	if _, err := p.parseExpr(0); err == nil {
		t.Error("'&' of a non-lvalue expression should fail to parse")
	}
}

func TestCastVsParenDisambiguation(t *testing.T) {
	cast := parseOneExpr(t, "(I32) x")
	if _, ok := cast.(*ast.Cast); !ok {
		t.Errorf("(TypeName) expr = %#v, want *ast.Cast", cast)
	}

	paren := parseOneExpr(t, "(x + 1)")
	if _, ok := paren.(*ast.Binop); !ok {
		t.Errorf("(expr) = %#v, want *ast.Binop (the parens should just group)", paren)
	}
}

func TestCallAndTemplateCall(t *testing.T) {
	call := parseOneExpr(t, "f(1, 2)")
	fc, ok := call.(*ast.FunctionCall)
	if !ok {
		t.Fatalf("got %#v, want *ast.FunctionCall", call)
	}
	if fc.Name != "f" || len(fc.Args) != 2 {
		t.Errorf("FunctionCall = %+v", fc)
	}

	tcall := parseOneExpr(t, "id<: I32 :>(1)")
	tc, ok := tcall.(*ast.TemplateFunctionCall)
	if !ok {
		t.Fatalf("got %#v, want *ast.TemplateFunctionCall", tcall)
	}
	if tc.Name != "id" || len(tc.TypeArgs) != 1 || len(tc.Args) != 1 {
		t.Errorf("TemplateFunctionCall = %+v", tc)
	}
}

func parseOneStmt(t *testing.T, src string) ast.Stmt {
	t.Helper()
	p := newParser(t, src)
	s, err := p.parseStatement()
	if err != nil {
		t.Fatalf("parseStatement(%q): %s", src, err)
	}
	return s
}

func TestAssignmentStatementRecovery(t *testing.T) {
	s := parseOneStmt(t, "x = 1;")
	as, ok := s.(*ast.AssignmentStatement)
	if !ok {
		t.Fatalf("got %#v, want *ast.AssignmentStatement", s)
	}
	if _, ok := as.LHS.(*ast.Variable); !ok {
		t.Errorf("LHS = %#v, want Variable", as.LHS)
	}
}

func TestNestedAssignmentRejected(t *testing.T) {
	p := newParser(t, "x = (y = 1);")
	if _, err := p.parseStatement(); err == nil {
		t.Error("nested assignment should be rejected by l-value recovery")
	}
}

func TestDeclarationAndCompoundDeclaration(t *testing.T) {
	s := parseOneStmt(t, "I32 x;")
	if _, ok := s.(*ast.DeclarationStatement); !ok {
		t.Fatalf("got %#v, want *ast.DeclarationStatement", s)
	}

	s2 := parseOneStmt(t, "I32 x = 1;")
	cd, ok := s2.(*ast.CompoundDeclarationStatement)
	if !ok {
		t.Fatalf("got %#v, want *ast.CompoundDeclarationStatement", s2)
	}
	if cd.Name != "x" {
		t.Errorf("Name = %q, want x", cd.Name)
	}
}

func TestIfElse(t *testing.T) {
	s := parseOneStmt(t, "if x < 0 { return; } else { return; }")
	ifs, ok := s.(*ast.IfStatement)
	if !ok {
		t.Fatalf("got %#v, want *ast.IfStatement", s)
	}
	if _, ok := ifs.Cond.(*ast.Binop); !ok {
		t.Errorf("Cond = %#v, want Binop(<)", ifs.Cond)
	}
	if len(ifs.Then) != 1 || len(ifs.Else) != 1 {
		t.Errorf("Then/Else = %+v / %+v, want one statement each", ifs.Then, ifs.Else)
	}
}

func TestIfWithoutElse(t *testing.T) {
	s := parseOneStmt(t, "if x { return; }")
	ifs, ok := s.(*ast.IfStatement)
	if !ok {
		t.Fatalf("got %#v, want *ast.IfStatement", s)
	}
	if ifs.Else != nil {
		t.Errorf("Else = %+v, want nil", ifs.Else)
	}
}

func TestParseTemplateStructDeclaration(t *testing.T) {
	p := newParser(t, "struct <: T :> Box { T val; }")
	top, err := p.ParseToplevel()
	if err != nil {
		t.Fatalf("ParseToplevel: %s", err)
	}
	ts, ok := top.(*ast.TemplateStructDeclaration)
	if !ok {
		t.Fatalf("got %#v, want *ast.TemplateStructDeclaration", top)
	}
	if ts.Name != "Box" || len(ts.Params) != 1 || ts.Params[0] != "T" || len(ts.Fields) != 1 {
		t.Errorf("TemplateStructDeclaration = %+v", ts)
	}
}

func TestParseFunctionDefinitionEndToEnd(t *testing.T) {
	p := newParser(t, "fn add(I32 a, I32 b) -> I32 { return a + b; }")
	top, err := p.ParseToplevel()
	if err != nil {
		t.Fatalf("ParseToplevel: %s", err)
	}
	fn, ok := top.(*ast.FunctionDefinition)
	if !ok {
		t.Fatalf("got %#v, want *ast.FunctionDefinition", top)
	}
	if fn.Name != "add" || len(fn.Args) != 2 || len(fn.Body) != 1 {
		t.Fatalf("FunctionDefinition = %+v", fn)
	}
	if !p.AtEOF() {
		t.Error("parser should be at EOF after consuming the whole function")
	}
}

func TestParseFunctionDeclarationNoBody(t *testing.T) {
	p := newParser(t, "fn puts(I8* s) -> I32;")
	top, err := p.ParseToplevel()
	if err != nil {
		t.Fatalf("ParseToplevel: %s", err)
	}
	if _, ok := top.(*ast.FunctionDeclaration); !ok {
		t.Fatalf("got %#v, want *ast.FunctionDeclaration", top)
	}
}

func TestParsePointerAndTemplatedTypes(t *testing.T) {
	p := newParser(t, "fn f(Box<: I32 :> * b) { return; }")
	top, err := p.ParseToplevel()
	if err != nil {
		t.Fatalf("ParseToplevel: %s", err)
	}
	fn := top.(*ast.FunctionDefinition)
	arg := fn.Args[0]
	ptr, ok := arg.Type.(*ast.PointerType)
	if !ok {
		t.Fatalf("arg type = %#v, want *ast.PointerType", arg.Type)
	}
	tt, ok := ptr.Inner.(*ast.TemplatedType)
	if !ok {
		t.Fatalf("pointer inner = %#v, want *ast.TemplatedType", ptr.Inner)
	}
	if tt.Name != "Box" || len(tt.Args) != 1 {
		t.Errorf("TemplatedType = %+v", tt)
	}
}
