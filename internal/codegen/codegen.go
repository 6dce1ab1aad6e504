// Package codegen walks Craeft's AST and drives an internal/translator
// Translator: one function per toplevel form, one per statement, and a
// recursive pair (ValueGen/LValueGen) for expressions. Errors surface
// to the driver, which catches each one at the boundary of a single
// top-level form and continues with the next.
package codegen

import (
	"tinygo.org/x/go-llvm"

	"craeft/internal/ast"
	"craeft/internal/diag"
	"craeft/internal/env"
	"craeft/internal/source"
	"craeft/internal/translator"
	"craeft/internal/types"
)

// ModuleGen drives code generation for an entire compilation unit.
type ModuleGen struct {
	Tr *translator.Translator
}

// New returns a ModuleGen over tr.
func New(tr *translator.Translator) *ModuleGen {
	return &ModuleGen{Tr: tr}
}

// Toplevel generates one top-level form. Callers should Report() any
// returned error and move on to the next form rather than aborting.
func (g *ModuleGen) Toplevel(n ast.Toplevel) error {
	switch n := n.(type) {
	case *ast.TypeDeclaration:
		// A forward declaration after the full definition must not clobber
		// the defined type.
		if _, err := g.Tr.Env.LookupType(n.Name, n.Pos); err != nil {
			g.Tr.Env.AddType(n.Name, types.NewStruct(n.Name, nil))
		}
		return nil

	case *ast.StructDeclaration:
		if prev, err := g.Tr.Env.LookupType(n.Name, n.Pos); err == nil {
			if prev.Kind != types.Struct || len(prev.Fields) > 0 {
				return diag.New(diag.GenericError, n.Pos, "type %q is already defined", n.Name)
			}
		}
		fields, err := g.resolveFields(n.Fields)
		if err != nil {
			return err
		}
		g.Tr.Env.AddType(n.Name, types.NewStruct(n.Name, fields))
		return nil

	case *ast.TemplateStructDeclaration:
		paramIdx := paramIndex(n.Params)
		fields := make([]types.TField, len(n.Fields))
		for i, f := range n.Fields {
			tf, err := g.resolveTemplateType(f.Type, paramIdx)
			if err != nil {
				return err
			}
			fields[i] = types.TField{Name: f.Name, Type: tf}
		}
		body := types.TemplateType{Kind: types.TStruct, Name: n.Name, Fields: fields}
		g.Tr.Env.AddTemplateStruct(n.Name, env.TemplateStruct{Params: n.Params, Body: body})
		return nil

	case *ast.FunctionDeclaration:
		argTypes, argNames, err := g.resolveArgs(n.Args)
		if err != nil {
			return err
		}
		ret, err := g.Tr.ResolveType(n.Ret)
		if err != nil {
			return err
		}
		_, err = g.Tr.DeclareFunction(n.Pos, n.Name, argTypes, argNames, ret)
		return err

	case *ast.FunctionDefinition:
		return g.defineFunction(n)

	case *ast.TemplateFunctionDefinition:
		paramIdx := paramIndex(n.Params)
		argTys := make([]types.TemplateType, len(n.Args))
		for i, a := range n.Args {
			tt, err := g.resolveTemplateType(a.Type, paramIdx)
			if err != nil {
				return err
			}
			argTys[i] = tt
		}
		retTy, err := g.resolveTemplateType(n.Ret, paramIdx)
		if err != nil {
			return err
		}
		sig := types.TemplateType{Kind: types.TFunction, Ret: &retTy, Params: argTys}
		g.Tr.Env.AddTemplateFunc(n.Name, env.TemplateValue{Params: n.Params, Sig: sig, Def: n})
		return nil

	default:
		return diag.Internal(n.Position(), "unhandled toplevel form %T", n)
	}
}

// DrainSpecializations generates bodies for every template instantiation
// enqueued so far (by calls encountered in already-generated bodies),
// continuing until the worklist reaches a fixed point: generating one
// body can itself enqueue further instantiations.
func (g *ModuleGen) DrainSpecializations() error {
	for {
		job, ok := g.Tr.PopSpecialization()
		if !ok {
			return nil
		}
		def, ok := job.Def.(*ast.TemplateFunctionDefinition)
		if !ok {
			return diag.Internal(source.Pos{}, "malformed specialization job for %q", job.MangledName)
		}

		g.Tr.Env.Push()
		for i, p := range def.Params {
			g.Tr.Env.AddType(p, job.TypeArgs[i])
		}

		argTypes, argNames, err := g.resolveArgs(def.Args)
		if err != nil {
			g.Tr.Env.Pop()
			return err
		}
		ret, err := g.Tr.ResolveType(def.Ret)
		if err != nil {
			g.Tr.Env.Pop()
			return err
		}

		fn, err := g.declareOrReuse(def.Pos, job.MangledName, argTypes, argNames, ret)
		if err != nil {
			g.Tr.Env.Pop()
			return err
		}

		g.Tr.StartFunction(fn, argNames, argTypes, ret)
		if err := g.genBody(def.Body); err != nil {
			g.Tr.AbortFunction()
			return err
		}
		if err := g.Tr.EndFunction(def.Pos); err != nil {
			g.Tr.Env.Pop()
			return err
		}
		g.Tr.Env.Pop()
	}
}

func (g *ModuleGen) defineFunction(n *ast.FunctionDefinition) error {
	argTypes, argNames, err := g.resolveArgs(n.Args)
	if err != nil {
		return err
	}
	ret, err := g.Tr.ResolveType(n.Ret)
	if err != nil {
		return err
	}

	fn, err := g.declareOrReuse(n.Pos, n.Name, argTypes, argNames, ret)
	if err != nil {
		return err
	}
	if !fn.FirstBasicBlock().IsNil() {
		return diag.New(diag.GenericError, n.Pos, "function %q already has a body", n.Name)
	}

	g.Tr.StartFunction(fn, argNames, argTypes, ret)
	if err := g.genBody(n.Body); err != nil {
		g.Tr.AbortFunction()
		return err
	}
	return g.Tr.EndFunction(n.Pos)
}

func (g *ModuleGen) genBody(body []ast.Stmt) error {
	for _, s := range body {
		if g.Tr.CurrentBlock().Terminated() {
			break
		}
		if err := g.Statement(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *ModuleGen) resolveFields(fs []ast.Field) ([]types.Field, error) {
	out := make([]types.Field, len(fs))
	for i, f := range fs {
		t, err := g.Tr.ResolveType(f.Type)
		if err != nil {
			return nil, err
		}
		out[i] = types.Field{Name: f.Name, Type: t}
	}
	return out, nil
}

func (g *ModuleGen) resolveArgs(fs []ast.Field) ([]types.Type, []string, error) {
	argTypes := make([]types.Type, len(fs))
	argNames := make([]string, len(fs))
	for i, f := range fs {
		t, err := g.Tr.ResolveType(f.Type)
		if err != nil {
			return nil, nil, err
		}
		argTypes[i] = t
		argNames[i] = f.Name
	}
	return argTypes, argNames, nil
}

func paramIndex(params []string) map[string]int {
	m := make(map[string]int, len(params))
	for i, p := range params {
		m[p] = i
	}
	return m
}

// resolveTemplateType is ResolveType's counterpart for a template body:
// a NamedType matching one of the enclosing template's parameters lifts
// to a Parameter placeholder instead of an environment lookup.
func (g *ModuleGen) resolveTemplateType(n ast.Type, paramIdx map[string]int) (types.TemplateType, error) {
	switch n := n.(type) {
	case *ast.VoidType:
		return types.TemplateType{Kind: types.TVoid}, nil
	case *ast.NamedType:
		if idx, ok := paramIdx[n.Name]; ok {
			return types.Parameter(idx), nil
		}
		t, err := g.Tr.ResolveType(n)
		if err != nil {
			return types.TemplateType{}, err
		}
		return types.FromResolved(t), nil
	case *ast.PointerType:
		inner, err := g.resolveTemplateType(n.Inner, paramIdx)
		if err != nil {
			return types.TemplateType{}, err
		}
		return types.TemplateType{Kind: types.TPointer, Pointee: &inner}, nil
	case *ast.TemplatedType:
		// A templated type inside a template body may mention the enclosing
		// template's parameters (Box<: T :>), so its arguments are resolved
		// as template types and substituted into the struct template's body,
		// leaving any Parameter positions in place.
		ts, err := g.Tr.Env.LookupTemplateStruct(n.Name, n.Pos)
		if err != nil {
			return types.TemplateType{}, diag.New(diag.NameError, n.Pos, "%s", err)
		}
		if len(n.Args) != len(ts.Params) {
			return types.TemplateType{}, diag.New(diag.TypeError, n.Pos,
				"template %q expects %d type arguments, got %d", n.Name, len(ts.Params), len(n.Args))
		}
		args := make([]types.TemplateType, len(n.Args))
		for i, a := range n.Args {
			ta, err := g.resolveTemplateType(a, paramIdx)
			if err != nil {
				return types.TemplateType{}, err
			}
			args[i] = ta
		}
		body, err := types.Respecialize(ts.Body, args)
		if err != nil {
			return types.TemplateType{}, diag.New(diag.TypeError, n.Pos, "%s", err)
		}
		return body, nil
	default:
		return types.TemplateType{}, diag.Internal(n.Position(), "unhandled template type form %T", n)
	}
}

// declareOrReuse returns the prototype already present in the module
// under name (as happens when a template instantiation's symbol was
// forward-declared at its first call site, whose environment binding has
// since been popped with its scope) or declares a fresh one. Checking
// the module's own symbol table rather than the environment is what
// makes instantiation idempotent per mangled symbol.
func (g *ModuleGen) declareOrReuse(pos source.Pos, name string, argTypes []types.Type, argNames []string, ret types.Type) (llvm.Value, error) {
	if fn := g.Tr.Mod.NamedFunction(name); !fn.IsNil() {
		return fn, nil
	}
	if v, err := g.Tr.Env.LookupIdentifier(name, pos); err == nil && v.IsFunc {
		return v.Handle.(llvm.Value), nil
	}
	return g.Tr.DeclareFunction(pos, name, argTypes, argNames, ret)
}
