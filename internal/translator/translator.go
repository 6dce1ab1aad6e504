// Package translator is Craeft's semantic core: it owns the LLVM module
// and builder, the scoped environment, and the current basic block, and
// exposes typed operations (binary operators, casts, control flow,
// function definition, struct field access) that internal/codegen calls
// while walking the AST. The Translator is strictly single-threaded: no
// goroutines, no channels, no locking around the Environment or the
// specialization worklist.
package translator

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"craeft/internal/ast"
	"craeft/internal/block"
	"craeft/internal/diag"
	"craeft/internal/env"
	"craeft/internal/types"
)

// Translator generates LLVM IR for one compilation unit.
type Translator struct {
	Ctx     llvm.Context
	Mod     llvm.Module
	Builder llvm.Builder
	Env     *env.Environment

	cur    *block.Block
	fn     llvm.Value
	retTy  types.Type
	inFunc bool

	worklist []SpecializationJob
	done     map[string]bool

	structs        map[string]llvm.Type
	structsDefined map[string]bool
}

// New creates a Translator backed by a fresh LLVM context and module
// named moduleName.
func New(moduleName string) *Translator {
	ctx := llvm.NewContext()
	mod := ctx.NewModule(moduleName)
	return &Translator{
		Ctx:            ctx,
		Mod:            mod,
		Builder:        ctx.NewBuilder(),
		Env:            env.New(),
		done:           make(map[string]bool),
		structs:        make(map[string]llvm.Type),
		structsDefined: make(map[string]bool),
	}
}

// Dispose releases the underlying LLVM resources.
func (t *Translator) Dispose() {
	t.Builder.Dispose()
	t.Mod.Dispose()
	t.Ctx.Dispose()
}

// CurrentBlock returns the block currently receiving instructions.
func (t *Translator) CurrentBlock() *block.Block { return t.cur }

// SetBlock redirects the builder's insert point to b.
func (t *Translator) SetBlock(b *block.Block) {
	t.cur = b
	t.Builder.SetInsertPointAtEnd(b.BB)
}

// ReturnType returns the declared return type of the function currently
// being generated.
func (t *Translator) ReturnType() types.Type { return t.retTy }

// ---- LLVM type lowering ----

// LLVMType lowers a resolved Craeft Type to its LLVM representation.
func (t *Translator) LLVMType(ty types.Type) (llvm.Type, error) {
	switch ty.Kind {
	case types.SignedInt, types.UnsignedInt:
		return t.Ctx.IntType(ty.Width), nil
	case types.Float:
		if ty.FloatW == types.SingleFloat {
			return t.Ctx.FloatType(), nil
		}
		return t.Ctx.DoubleType(), nil
	case types.Void:
		return t.Ctx.VoidType(), nil
	case types.Pointer:
		inner, err := t.LLVMType(*ty.Pointee)
		if err != nil {
			return llvm.Type{}, err
		}
		return llvm.PointerType(inner, 0), nil
	case types.Function:
		params := make([]llvm.Type, len(ty.Params))
		for i, p := range ty.Params {
			pt, err := t.LLVMType(p)
			if err != nil {
				return llvm.Type{}, err
			}
			params[i] = pt
		}
		ret, err := t.LLVMType(*ty.Ret)
		if err != nil {
			return llvm.Type{}, err
		}
		return llvm.PointerType(llvm.FunctionType(ret, params, false), 0), nil
	case types.Struct:
		if ty.Name == "" {
			fields := make([]llvm.Type, len(ty.Fields))
			for i, f := range ty.Fields {
				ft, err := t.LLVMType(f.Type)
				if err != nil {
					return llvm.Type{}, err
				}
				fields[i] = ft
			}
			return t.Ctx.StructType(fields, false), nil
		}
		// Named structs resolve to one canonical LLVM type per name. The
		// named type is registered before its fields are lowered so that a
		// field referring back to this struct (through a Pointer) finds it
		// already present instead of recursing forever. A `type Name;`
		// forward declaration reaches here with no fields yet and leaves
		// the named struct opaque; the later `struct Name { ... }`
		// definition fills the body in exactly once.
		if st, ok := t.structs[ty.Name]; ok {
			if len(ty.Fields) > 0 && !t.structsDefined[ty.Name] {
				fields := make([]llvm.Type, len(ty.Fields))
				for i, f := range ty.Fields {
					ft, err := t.LLVMType(f.Type)
					if err != nil {
						return llvm.Type{}, err
					}
					fields[i] = ft
				}
				st.StructSetBody(fields, false)
				t.structsDefined[ty.Name] = true
			}
			return st, nil
		}
		named := t.Ctx.StructCreateNamed(ty.Name)
		t.structs[ty.Name] = named
		fields := make([]llvm.Type, len(ty.Fields))
		for i, f := range ty.Fields {
			ft, err := t.LLVMType(f.Type)
			if err != nil {
				delete(t.structs, ty.Name)
				return llvm.Type{}, err
			}
			fields[i] = ft
		}
		if len(fields) > 0 {
			t.structsDefined[ty.Name] = true
			named.StructSetBody(fields, false)
		}
		return named, nil
	default:
		return llvm.Type{}, fmt.Errorf("internal error: malformed type %s", ty.String())
	}
}

// ResolveType interprets an ast.Type against the environment, consulting
// template-struct instantiation when it names a TemplatedType.
func (t *Translator) ResolveType(n ast.Type) (types.Type, error) {
	switch n := n.(type) {
	case *ast.VoidType:
		return types.NewVoid(), nil
	case *ast.NamedType:
		ty, err := t.Env.LookupType(n.Name, n.Pos)
		if err != nil {
			return types.Type{}, diag.New(diag.NameError, n.Pos, "%s", err)
		}
		return ty, nil
	case *ast.PointerType:
		inner, err := t.ResolveType(n.Inner)
		if err != nil {
			return types.Type{}, err
		}
		return types.NewPointer(inner), nil
	case *ast.TemplatedType:
		ts, err := t.Env.LookupTemplateStruct(n.Name, n.Pos)
		if err != nil {
			return types.Type{}, diag.New(diag.NameError, n.Pos, "%s", err)
		}
		if len(n.Args) != len(ts.Params) {
			return types.Type{}, diag.New(diag.TypeError, n.Pos,
				"template %q expects %d type arguments, got %d", n.Name, len(ts.Params), len(n.Args))
		}
		args := make([]types.Type, len(n.Args))
		for i, a := range n.Args {
			at, err := t.ResolveType(a)
			if err != nil {
				return types.Type{}, err
			}
			args[i] = at
		}
		resolved, err := types.Specialize(ts.Body, args)
		if err != nil {
			return types.Type{}, diag.New(diag.TypeError, n.Pos, "%s", err)
		}
		return resolved, nil
	default:
		return types.Type{}, fmt.Errorf("internal error: unhandled ast.Type %T", n)
	}
}

