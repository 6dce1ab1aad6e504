package translator

import (
	"tinygo.org/x/go-llvm"

	"craeft/internal/block"
	"craeft/internal/diag"
	"craeft/internal/source"
	"craeft/internal/types"
)

// IfThenElse holds the three basic blocks of an if/then/else statement
// while codegen fills in their bodies, split into three steps so
// codegen can run arbitrary statement generation for each branch in
// between.
type IfThenElse struct {
	Then  *block.Block
	Else  *block.Block
	Merge *block.Block
}

// CreateIfThenElse branches on cond, which must be a U1 value, opens the
// Then block as the current insertion point, and pushes a fresh scope for
// the then-branch's bindings. Call PointToElse next to start generating
// the else branch, then EndIfThenElse to converge both arms on Merge.
func (t *Translator) CreateIfThenElse(pos source.Pos, cond llvm.Value, condTy types.Type) (*IfThenElse, error) {
	if !condTy.Equal(types.NewInt(false, 1)) {
		return nil, diag.New(diag.TypeError, pos, "if condition must be of type U1, got %s", condTy.String())
	}

	ite := &IfThenElse{
		Then:  block.New(llvm.AddBasicBlock(t.fn, "")),
		Else:  block.New(llvm.AddBasicBlock(t.fn, "")),
		Merge: block.New(llvm.AddBasicBlock(t.fn, "")),
	}

	t.Builder.CreateCondBr(cond, ite.Then.BB, ite.Else.BB)
	t.cur.MarkTerminated()

	t.Env.Push()
	t.SetBlock(ite.Then)
	return ite, nil
}

// PointToElse closes out the then-branch and redirects generation to the
// else branch: it pops the then-scope, branches the current block to
// Merge unless a return already terminated it, and pushes a fresh scope
// for the else-branch. The branch is emitted from the *current* block,
// not ite.Then: a nested if inside the then-arm leaves its own merge
// block current, and that is the block that needs the jump.
func (t *Translator) PointToElse(ite *IfThenElse) error {
	if err := t.Env.Pop(); err != nil {
		return err
	}
	if !t.cur.Terminated() {
		t.Builder.CreateBr(ite.Merge.BB)
		t.cur.MarkTerminated()
	}
	t.Env.Push()
	t.SetBlock(ite.Else)
	return nil
}

// EndIfThenElse closes out the else-branch and converges on Merge: it
// pops the else-scope, branches the current block to Merge unless
// already terminated, and points generation at Merge.
func (t *Translator) EndIfThenElse(ite *IfThenElse) error {
	if err := t.Env.Pop(); err != nil {
		return err
	}
	if !t.cur.Terminated() {
		t.Builder.CreateBr(ite.Merge.BB)
		t.cur.MarkTerminated()
	}
	t.SetBlock(ite.Merge)
	return nil
}
