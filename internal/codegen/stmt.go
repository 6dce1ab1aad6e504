package codegen

import (
	"craeft/internal/ast"
	"craeft/internal/diag"
	"craeft/internal/env"
)

// Statement generates one statement, updating the translator's current
// block (and, for IfStatement, opening and converging sub-blocks).
func (g *ModuleGen) Statement(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.ExpressionStatement:
		_, _, err := g.ValueGen(n.Expr)
		return err

	case *ast.ReturnStatement:
		v, vt, err := g.ValueGen(n.Expr)
		if err != nil {
			return err
		}
		return g.Tr.Return(n.Pos, v, vt)

	case *ast.VoidReturnStatement:
		return g.Tr.ReturnVoid(n.Pos)

	case *ast.AssignmentStatement:
		addr, pointed, err := g.LValueGen(n.LHS)
		if err != nil {
			return err
		}
		rv, rt, err := g.ValueGen(n.RHS)
		if err != nil {
			return err
		}
		if !rt.Equal(pointed) {
			cv, ok := g.Tr.CoerceLiteral(n.Pos, rv, rt, pointed)
			if !ok {
				return diag.New(diag.TypeError, n.Pos, "cannot assign %s to variable of type %s", rt.String(), pointed.String())
			}
			rv = cv
		}
		g.Tr.Builder.CreateStore(rv, addr)
		return nil

	case *ast.DeclarationStatement:
		ty, err := g.Tr.ResolveType(n.Type)
		if err != nil {
			return err
		}
		llty, err := g.Tr.LLVMType(ty)
		if err != nil {
			return err
		}
		slot := g.Tr.Builder.CreateAlloca(llty, "")
		g.Tr.Env.AddIdentifier(n.Name, env.Variable{Type: ty, Handle: slot})
		return nil

	case *ast.CompoundDeclarationStatement:
		ty, err := g.Tr.ResolveType(n.Type)
		if err != nil {
			return err
		}
		rv, rt, err := g.ValueGen(n.RHS)
		if err != nil {
			return err
		}
		if !rt.Equal(ty) {
			cv, ok := g.Tr.CoerceLiteral(n.Pos, rv, rt, ty)
			if !ok {
				return diag.New(diag.TypeError, n.Pos, "cannot initialize variable of type %s with value of type %s", ty.String(), rt.String())
			}
			rv = cv
		}
		llty, err := g.Tr.LLVMType(ty)
		if err != nil {
			return err
		}
		slot := g.Tr.Builder.CreateAlloca(llty, "")
		g.Tr.Builder.CreateStore(rv, slot)
		g.Tr.Env.AddIdentifier(n.Name, env.Variable{Type: ty, Handle: slot})
		return nil

	case *ast.IfStatement:
		return g.genIf(n)

	default:
		return diag.Internal(s.Position(), "unhandled statement form %T", s)
	}
}

// genIf generates an IfStatement. Scope push/pop for each branch lives
// in the translator's CreateIfThenElse/PointToElse/EndIfThenElse, so
// declarations inside one arm never leak into the other; this layer just
// generates each arm's statements, stopping early if a return terminated
// the arm's block.
func (g *ModuleGen) genIf(n *ast.IfStatement) error {
	cond, condTy, err := g.ValueGen(n.Cond)
	if err != nil {
		return err
	}
	ite, err := g.Tr.CreateIfThenElse(n.Pos, cond, condTy)
	if err != nil {
		return err
	}

	if err := g.genBody(n.Then); err != nil {
		return err
	}
	if err := g.Tr.PointToElse(ite); err != nil {
		return err
	}
	if err := g.genBody(n.Else); err != nil {
		return err
	}
	return g.Tr.EndIfThenElse(ite)
}
