// Package emit runs Craeft's LLVM back end over a finished module:
// verification, the optimization pass pipeline, and writing out LLVM IR
// text, assembly, or a native object file. Object and assembly output
// go through a target machine for the host triple and an in-memory
// buffer before reaching the destination stream.
package emit

import (
	"fmt"
	"io"

	"tinygo.org/x/go-llvm"
)

// Validate runs the LLVM module verifier and returns its diagnostic as
// an error if the module is malformed. A bug here means the translator
// emitted IR that violates LLVM's own invariants, not a Craeft source
// error, so this is always an internal-error-class failure.
func Validate(mod llvm.Module) error {
	if err := llvm.VerifyModule(mod, llvm.ReturnStatusAction); err != nil {
		return fmt.Errorf("internal error: module failed verification: %w", err)
	}
	return nil
}

// Optimize runs the pass pipeline at the given level. Level 0 is a
// no-op; level 1 and above run mem2reg first (so every other pass sees
// registers instead of alloca/load/store), then instcombine,
// reassociate, GVN, simplifycfg, and tailcallelim in that order.
func Optimize(mod llvm.Module, level int) {
	if level <= 0 {
		return
	}

	pm := llvm.NewPassManager()
	defer pm.Dispose()

	pm.AddPromoteMemoryToRegisterPass()
	pm.AddInstructionCombiningPass()
	pm.AddReassociatePass()
	pm.AddGVNPass()
	pm.AddCFGSimplificationPass()
	pm.AddTailCallEliminationPass()

	pm.Run(mod)
}

// EmitIR writes mod's textual LLVM IR representation to w.
func EmitIR(mod llvm.Module, w io.Writer) error {
	_, err := io.WriteString(w, mod.String())
	return err
}

// EmitObj configures a target machine for the host triple and writes
// mod's compiled object code to w.
func EmitObj(mod llvm.Module, w io.Writer) error {
	return emitFile(mod, w, llvm.ObjectFile)
}

// EmitAsm writes mod's compiled assembly text to w.
func EmitAsm(mod llvm.Module, w io.Writer) error {
	return emitFile(mod, w, llvm.AssemblyFile)
}

func emitFile(mod llvm.Module, w io.Writer, ft llvm.CodeGenFileType) error {
	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargets()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmParsers()
	llvm.InitializeAllAsmPrinters()

	triple := llvm.DefaultTargetTriple()
	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return fmt.Errorf("internal error: %w", err)
	}

	tm := target.CreateTargetMachine(triple, "generic", "",
		llvm.CodeGenLevelDefault, llvm.RelocDefault, llvm.CodeModelDefault)
	defer tm.Dispose()

	td := tm.CreateTargetData()
	defer td.Dispose()
	mod.SetDataLayout(td.String())
	mod.SetTarget(triple)

	buf, err := tm.EmitToMemoryBuffer(mod, ft)
	if err != nil {
		return err
	}
	defer buf.Dispose()

	_, err = w.Write(buf.Bytes())
	return err
}
