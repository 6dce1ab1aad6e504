// Package env implements Craeft's scoped environment: four independent
// stacks of per-scope maps (identifiers, types, template structs,
// template functions), pre-populated with the built-in primitive types.
// The Environment is reachable only through the Translator and is never
// accessed concurrently, so no locking is needed.
package env

import (
	"fmt"
	"unicode"

	"craeft/internal/source"
	"craeft/internal/types"
)

// Variable binds a name to an LLVM-level value handle plus its Craeft
// type. A Variable's handle is a pointer to the stack slot holding the
// value (reading loads, writing stores), except for function values,
// whose handle is the function itself.
type Variable struct {
	Type   types.Type
	Handle interface{} // llvm.Value, boxed to keep this package LLVM-agnostic.
	IsFunc bool
}

// TemplateStruct is a struct template: its declared type-parameter names
// and its TemplateType body, consulted whenever a TemplatedType
// referencing it is resolved.
type TemplateStruct struct {
	Params []string
	Body   types.TemplateType
}

// TemplateValue is a shared reference to a template function's AST body,
// its declared type-parameter names, and its template function type
// signature. It is consulted on every call site.
type TemplateValue struct {
	Params []string
	Sig    types.TemplateType // Kind == TFunction
	Def    interface{}        // *ast.TemplateFunctionDefinition, boxed to avoid an import cycle.
}

type scope struct {
	idents    map[string]Variable
	typeNames map[string]types.Type
	tstructs  map[string]TemplateStruct
	tfuncs    map[string]TemplateValue
}

func newScope() *scope {
	return &scope{
		idents:    make(map[string]Variable, 8),
		typeNames: make(map[string]types.Type, 8),
		tstructs:  make(map[string]TemplateStruct, 2),
		tfuncs:    make(map[string]TemplateValue, 2),
	}
}

// Environment is a stack of scopes searched inner-to-outer.
type Environment struct {
	scopes []*scope
}

// New returns an Environment with one scope already pushed and
// pre-populated with the built-in types Float, Double, I1..I64, U1..U64.
func New() *Environment {
	e := &Environment{}
	e.Push()
	for w := 1; w <= 64; w++ {
		e.AddType(fmt.Sprintf("I%d", w), types.NewInt(true, w))
		e.AddType(fmt.Sprintf("U%d", w), types.NewInt(false, w))
	}
	e.AddType("Float", types.NewFloat(types.SingleFloat))
	e.AddType("Double", types.NewFloat(types.DoubleFloat))
	return e
}

// Push opens a new innermost scope, called on function entry and each
// if-branch.
func (e *Environment) Push() {
	e.scopes = append(e.scopes, newScope())
}

// Pop closes the innermost scope. Popping an empty stack is an internal
// error: the compiler should never attempt it.
func (e *Environment) Pop() error {
	if len(e.scopes) == 0 {
		return fmt.Errorf("internal error: scope stack underflow")
	}
	e.scopes = e.scopes[:len(e.scopes)-1]
	return nil
}

// Depth returns the current number of open scopes; a balanced
// compilation ends at depth 1.
func (e *Environment) Depth() int { return len(e.scopes) }

func (e *Environment) top() *scope {
	return e.scopes[len(e.scopes)-1]
}

// IsTypeName reports whether name's initial letter indicates it should
// be looked up in the type bucket (uppercase) rather than the identifier
// bucket (lowercase).
func IsTypeName(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)[0]
	return unicode.IsUpper(r)
}

// Bound reports whether name is bound in any open scope, querying the
// identifier or type bucket according to its initial-letter case.
func (e *Environment) Bound(name string) bool {
	if IsTypeName(name) {
		for i := len(e.scopes) - 1; i >= 0; i-- {
			if _, ok := e.scopes[i].typeNames[name]; ok {
				return true
			}
		}
		return false
	}
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i].idents[name]; ok {
			return true
		}
	}
	return false
}

// AddIdentifier binds name to v in the innermost scope. Duplicate
// shadowing across scopes is permitted; within one scope the later
// binding simply replaces the earlier one.
func (e *Environment) AddIdentifier(name string, v Variable) {
	e.top().idents[name] = v
}

func (e *Environment) AddType(name string, t types.Type) {
	e.top().typeNames[name] = t
}

func (e *Environment) AddTemplateStruct(name string, ts TemplateStruct) {
	e.top().tstructs[name] = ts
}

func (e *Environment) AddTemplateFunc(name string, tv TemplateValue) {
	e.top().tfuncs[name] = tv
}

// LookupIdentifier searches inner-to-outer for name, raising a name
// error at pos if it is unbound.
func (e *Environment) LookupIdentifier(name string, pos source.Pos) (Variable, error) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i].idents[name]; ok {
			return v, nil
		}
	}
	return Variable{}, fmt.Errorf("identifier %q not found", name)
}

func (e *Environment) LookupType(name string, pos source.Pos) (types.Type, error) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if t, ok := e.scopes[i].typeNames[name]; ok {
			return t, nil
		}
	}
	return types.Type{}, fmt.Errorf("type %q not found", name)
}

func (e *Environment) LookupTemplateStruct(name string, pos source.Pos) (TemplateStruct, error) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if t, ok := e.scopes[i].tstructs[name]; ok {
			return t, nil
		}
	}
	return TemplateStruct{}, fmt.Errorf("template struct %q not found", name)
}

func (e *Environment) LookupTemplateFunc(name string, pos source.Pos) (TemplateValue, error) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if t, ok := e.scopes[i].tfuncs[name]; ok {
			return t, nil
		}
	}
	return TemplateValue{}, fmt.Errorf("template function %q not found", name)
}
