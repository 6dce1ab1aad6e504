// Package block wraps an LLVM basic block with terminator tracking, so
// that the translator can check whether an earlier return or jump
// already closed a block before emitting into it. Every emitted block
// ends with exactly one terminator.
package block

import "tinygo.org/x/go-llvm"

// Block wraps an llvm.BasicBlock together with whether it has already
// received a terminator (a branch or a return).
type Block struct {
	BB         llvm.BasicBlock
	terminated bool
}

// New wraps an already-created basic block.
func New(bb llvm.BasicBlock) *Block {
	return &Block{BB: bb}
}

// Terminated reports whether this block already ends in a terminator.
func (b *Block) Terminated() bool { return b.terminated }

// MarkTerminated records that a terminator was just emitted into this
// block. The translator must call this immediately after building any
// llvm.Builder.CreateRet/CreateBr/CreateCondBr against b.BB. Emitting a
// second terminator into one block is a compiler bug.
func (b *Block) MarkTerminated() {
	if b.terminated {
		panic("internal error: basic block terminated twice")
	}
	b.terminated = true
}
