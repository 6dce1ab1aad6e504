package codegen

import (
	"tinygo.org/x/go-llvm"

	"craeft/internal/ast"
	"craeft/internal/diag"
	"craeft/internal/types"
)

// ValueGen evaluates e to an r-value, returning its LLVM value and
// Craeft type.
func (g *ModuleGen) ValueGen(e ast.Expr) (llvm.Value, types.Type, error) {
	switch n := e.(type) {
	case *ast.IntLiteral:
		ty := types.NewInt(true, 64)
		llty, err := g.Tr.LLVMType(ty)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		return llvm.ConstInt(llty, uint64(n.Value), true), ty, nil

	case *ast.UIntLiteral:
		ty := types.NewInt(false, 64)
		llty, err := g.Tr.LLVMType(ty)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		return llvm.ConstInt(llty, n.Value, false), ty, nil

	case *ast.FloatLiteral:
		ty := types.NewFloat(types.DoubleFloat)
		llty, err := g.Tr.LLVMType(ty)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		return llvm.ConstFloat(llty, n.Value), ty, nil

	case *ast.StringLiteral:
		ty := types.NewPointer(types.NewInt(false, 8))
		v := g.Tr.Builder.CreateGlobalStringPtr(n.Value, "")
		return v, ty, nil

	case *ast.Variable:
		v, err := g.Tr.Env.LookupIdentifier(n.Name, n.Pos)
		if err != nil {
			return llvm.Value{}, types.Type{}, diag.New(diag.NameError, n.Pos, "%s", err)
		}
		handle := v.Handle.(llvm.Value)
		if v.IsFunc {
			return handle, v.Type, nil
		}
		return g.Tr.Builder.CreateLoad(handle, ""), v.Type, nil

	case *ast.Reference:
		addr, pointed, err := g.LValueGen(n.Operand)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		return addr, types.NewPointer(pointed), nil

	case *ast.Dereference:
		v, vt, err := g.ValueGen(n.Operand)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		if vt.Kind != types.Pointer {
			return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, n.Pos, "cannot dereference non-pointer type %s", vt.String())
		}
		return g.Tr.Builder.CreateLoad(v, ""), *vt.Pointee, nil

	case *ast.FieldAccess:
		return g.genFieldAccess(n)

	case *ast.Binop:
		lv, lt, err := g.ValueGen(n.LHS)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		rv, rt, err := g.ValueGen(n.RHS)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		return g.Tr.BinOp(n.Pos, n.Op, lv, lt, rv, rt)

	case *ast.FunctionCall:
		return g.genCall(n)

	case *ast.TemplateFunctionCall:
		return g.genTemplateCall(n)

	case *ast.Cast:
		v, vt, err := g.ValueGen(n.Operand)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		target, err := g.Tr.ResolveType(n.Type)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		cv, err := g.Tr.Cast(n.Pos, v, vt, target)
		return cv, target, err

	default:
		return llvm.Value{}, types.Type{}, diag.Internal(e.Position(), "unhandled expression form %T", e)
	}
}

// LValueGen evaluates lv to the address it names, returning that address
// and the Craeft type stored there.
func (g *ModuleGen) LValueGen(lv ast.LValue) (llvm.Value, types.Type, error) {
	switch n := lv.(type) {
	case *ast.Variable:
		v, err := g.Tr.Env.LookupIdentifier(n.Name, n.Pos)
		if err != nil {
			return llvm.Value{}, types.Type{}, diag.New(diag.NameError, n.Pos, "%s", err)
		}
		if v.IsFunc {
			return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, n.Pos, "function %q is not assignable", n.Name)
		}
		return v.Handle.(llvm.Value), v.Type, nil

	case *ast.Dereference:
		v, vt, err := g.ValueGen(n.Operand)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		if vt.Kind != types.Pointer {
			return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, n.Pos, "cannot dereference non-pointer type %s", vt.String())
		}
		return v, *vt.Pointee, nil

	case *ast.FieldAccess:
		operandLV, ok := n.Operand.(ast.LValue)
		if !ok {
			return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, n.Pos, "operand of field access is not addressable")
		}
		base, baseTy, err := g.LValueGen(operandLV)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		return g.Tr.FieldAddress(n.Pos, base, types.NewPointer(baseTy), n.Field)

	default:
		return llvm.Value{}, types.Type{}, diag.Internal(lv.Position(), "unhandled lvalue form %T", lv)
	}
}

// genFieldAccess reads a field out of n.Operand, taking the addressable
// path (load-through-GEP) when the operand is itself addressable and
// falling back to extractvalue for a bare r-value struct.
func (g *ModuleGen) genFieldAccess(n *ast.FieldAccess) (llvm.Value, types.Type, error) {
	if operandLV, ok := n.Operand.(ast.LValue); ok {
		base, baseTy, err := g.LValueGen(operandLV)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		addr, fieldTy, err := g.Tr.FieldAddress(n.Pos, base, types.NewPointer(baseTy), n.Field)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		return g.Tr.Builder.CreateLoad(addr, ""), fieldTy, nil
	}
	v, vt, err := g.ValueGen(n.Operand)
	if err != nil {
		return llvm.Value{}, types.Type{}, err
	}
	return g.Tr.ExtractField(n.Pos, v, vt, n.Field)
}

func (g *ModuleGen) genCall(n *ast.FunctionCall) (llvm.Value, types.Type, error) {
	v, err := g.Tr.Env.LookupIdentifier(n.Name, n.Pos)
	if err != nil {
		return llvm.Value{}, types.Type{}, diag.New(diag.NameError, n.Pos, "%s", err)
	}
	if !v.IsFunc || v.Type.Kind != types.Function {
		return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, n.Pos, "%q is not a function", n.Name)
	}
	if len(n.Args) != len(v.Type.Params) {
		return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, n.Pos, "%q expects %d arguments, got %d", n.Name, len(v.Type.Params), len(n.Args))
	}
	args := make([]llvm.Value, len(n.Args))
	for i, a := range n.Args {
		av, at, err := g.ValueGen(a)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		if !at.Equal(v.Type.Params[i]) {
			cv, ok := g.Tr.CoerceLiteral(a.Position(), av, at, v.Type.Params[i])
			if !ok {
				return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, a.Position(),
					"argument %d of %q has type %s, expected %s", i+1, n.Name, at.String(), v.Type.Params[i].String())
			}
			av = cv
		}
		args[i] = av
	}
	fn := v.Handle.(llvm.Value)
	call := g.Tr.Builder.CreateCall(fn, args, "")
	return call, *v.Type.Ret, nil
}

func (g *ModuleGen) genTemplateCall(n *ast.TemplateFunctionCall) (llvm.Value, types.Type, error) {
	tv, err := g.Tr.Env.LookupTemplateFunc(n.Name, n.Pos)
	if err != nil {
		return llvm.Value{}, types.Type{}, diag.New(diag.NameError, n.Pos, "%s", err)
	}

	typeArgs := make([]types.Type, len(n.TypeArgs))
	for i, ta := range n.TypeArgs {
		t, err := g.Tr.ResolveType(ta)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		typeArgs[i] = t
	}

	sig, err := types.Specialize(tv.Sig, typeArgs)
	if err != nil {
		return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, n.Pos, "%s", err)
	}
	mangled := types.Mangle(n.Name, typeArgs)

	def := tv.Def.(*ast.TemplateFunctionDefinition)
	argNames := make([]string, len(def.Args))
	for i, a := range def.Args {
		argNames[i] = a.Name
	}

	fn, err := g.declareOrReuse(n.Pos, mangled, sig.Params, argNames, *sig.Ret)
	if err != nil {
		return llvm.Value{}, types.Type{}, err
	}
	g.Tr.EnqueueSpecialization(mangled, typeArgs, tv.Def)

	if len(n.Args) != len(sig.Params) {
		return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, n.Pos, "%q expects %d arguments, got %d", n.Name, len(sig.Params), len(n.Args))
	}
	args := make([]llvm.Value, len(n.Args))
	for i, a := range n.Args {
		av, at, err := g.ValueGen(a)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		if !at.Equal(sig.Params[i]) {
			cv, ok := g.Tr.CoerceLiteral(a.Position(), av, at, sig.Params[i])
			if !ok {
				return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, a.Position(),
					"argument %d of %q has type %s, expected %s", i+1, n.Name, at.String(), sig.Params[i].String())
			}
			av = cv
		}
		args[i] = av
	}
	call := g.Tr.Builder.CreateCall(fn, args, "")
	return call, *sig.Ret, nil
}
