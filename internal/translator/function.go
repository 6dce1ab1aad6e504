package translator

import (
	"tinygo.org/x/go-llvm"

	"craeft/internal/block"
	"craeft/internal/diag"
	"craeft/internal/env"
	"craeft/internal/source"
	"craeft/internal/types"
)

// DeclareFunction adds an external or forward function prototype named
// name to the module and binds it in the environment's innermost scope.
func (t *Translator) DeclareFunction(pos source.Pos, name string, argTypes []types.Type, argNames []string, ret types.Type) (llvm.Value, error) {
	if _, err := t.Env.LookupIdentifier(name, pos); err == nil {
		return llvm.Value{}, diag.New(diag.NameError, pos, "duplicate declaration of %q", name)
	}

	llParams := make([]llvm.Type, len(argTypes))
	for i, a := range argTypes {
		lt, err := t.LLVMType(a)
		if err != nil {
			return llvm.Value{}, err
		}
		llParams[i] = lt
	}
	llRet, err := t.LLVMType(ret)
	if err != nil {
		return llvm.Value{}, err
	}

	fnTy := llvm.FunctionType(llRet, llParams, false)
	fn := llvm.AddFunction(t.Mod, name, fnTy)
	for i, p := range fn.Params() {
		if i < len(argNames) {
			p.SetName(argNames[i])
		}
	}

	sig := types.NewFunction(ret, argTypes)
	t.Env.AddIdentifier(name, env.Variable{Type: sig, Handle: fn, IsFunc: true})
	return fn, nil
}

// StartFunction opens fn's entry block, pushes a fresh scope, allocates
// stack slots for its parameters, and records ret as the active return
// type for subsequent Return calls.
func (t *Translator) StartFunction(fn llvm.Value, argNames []string, argTypes []types.Type, ret types.Type) {
	if t.inFunc {
		panic("internal error: starting a function while already inside one")
	}
	t.fn = fn
	t.retTy = ret
	t.inFunc = true

	entry := block.New(llvm.AddBasicBlock(fn, ""))
	t.Env.Push()
	t.SetBlock(entry)

	for i, p := range fn.Params() {
		slot := t.Builder.CreateAlloca(p.Type(), "")
		t.Builder.CreateStore(p, slot)
		t.Env.AddIdentifier(argNames[i], env.Variable{Type: argTypes[i], Handle: slot})
	}
}

// EndFunction closes out the function being generated. A Void function
// whose last block never received a terminator gets the implicit
// `ret void`; for any other return type that block is only live if
// control can actually fall into it (it is typically the predecessor-
// less merge block of an if whose arms both returned), so it is closed
// with `unreachable` and left to the verifier.
func (t *Translator) EndFunction(pos source.Pos) error {
	if !t.cur.Terminated() {
		if t.retTy.Kind == types.Void {
			t.Builder.CreateRetVoid()
		} else {
			t.Builder.CreateUnreachable()
		}
		t.cur.MarkTerminated()
	}
	if err := t.Env.Pop(); err != nil {
		return err
	}
	t.inFunc = false
	t.fn = llvm.Value{}
	return nil
}

// AbortFunction unwinds a function whose body failed to generate:
// every scope opened since module level is popped (a failure deep in a
// nested if leaves its branch scopes behind) and the in-function state
// is cleared so the driver can continue with the next top-level form.
func (t *Translator) AbortFunction() {
	for t.Env.Depth() > 1 {
		t.Env.Pop()
	}
	t.inFunc = false
	t.fn = llvm.Value{}
}

// Return emits a `ret` instruction for v, type-checked against the
// active function's declared return type. A constant literal return
// value adapts to the declared type.
func (t *Translator) Return(pos source.Pos, v llvm.Value, vt types.Type) error {
	if !vt.Equal(t.retTy) {
		cv, ok := t.CoerceLiteral(pos, v, vt, t.retTy)
		if !ok {
			return diag.New(diag.TypeError, pos,
				"return expression does not match function's return type (expected %s, got %s)",
				t.retTy.String(), vt.String())
		}
		v = cv
	}
	t.Builder.CreateRet(v)
	t.cur.MarkTerminated()
	return nil
}

// ReturnVoid emits a `ret void`, valid only when the active function
// returns Void.
func (t *Translator) ReturnVoid(pos source.Pos) error {
	if t.retTy.Kind != types.Void {
		return diag.New(diag.TypeError, pos, "cannot have void return in non-void function")
	}
	t.Builder.CreateRetVoid()
	t.cur.MarkTerminated()
	return nil
}

// ---- template instantiation worklist ----

// SpecializationJob names one concrete instantiation of a template
// function still awaiting body generation.
type SpecializationJob struct {
	MangledName string
	TypeArgs    []types.Type
	Def         interface{} // *ast.TemplateFunctionDefinition
}

// EnqueueSpecialization schedules def to be generated under mangled,
// unless it was already generated or is already queued: instantiation
// is idempotent per mangled symbol.
func (t *Translator) EnqueueSpecialization(mangled string, typeArgs []types.Type, def interface{}) {
	if t.done[mangled] {
		return
	}
	for _, j := range t.worklist {
		if j.MangledName == mangled {
			return
		}
	}
	t.worklist = append(t.worklist, SpecializationJob{MangledName: mangled, TypeArgs: typeArgs, Def: def})
}

// PopSpecialization removes and returns the next queued job, draining
// toward a fixed point as codegen's instantiation loop generates bodies
// that may themselves enqueue further jobs.
func (t *Translator) PopSpecialization() (SpecializationJob, bool) {
	if len(t.worklist) == 0 {
		return SpecializationJob{}, false
	}
	j := t.worklist[0]
	t.worklist = t.worklist[1:]
	t.done[j.MangledName] = true
	return j, true
}
