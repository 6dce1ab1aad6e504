package translator

import (
	"tinygo.org/x/go-llvm"

	"craeft/internal/diag"
	"craeft/internal/source"
	"craeft/internal/types"
)

// FieldAddress computes a pointer to field name of the struct addressed
// by base (an alloca or other pointer-to-struct value), for use as an
// l-value.
func (t *Translator) FieldAddress(pos source.Pos, base llvm.Value, baseTy types.Type, name string) (llvm.Value, types.Type, error) {
	if baseTy.Kind != types.Pointer || baseTy.Pointee.Kind != types.Struct {
		return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, pos, "field access on non-struct-pointer type %s", baseTy.String())
	}
	idx, fieldTy, err := baseTy.Pointee.FieldIndex(name)
	if err != nil {
		return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, pos, "%s", err)
	}
	addr := t.Builder.CreateStructGEP(base, idx, "")
	return addr, fieldTy, nil
}

// ExtractField reads field name directly out of an already-loaded
// (non-addressable) struct value, used when the struct expression is not
// itself an LValue.
func (t *Translator) ExtractField(pos source.Pos, v llvm.Value, vt types.Type, name string) (llvm.Value, types.Type, error) {
	if vt.Kind != types.Struct {
		return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, pos, "field access on non-struct type %s", vt.String())
	}
	idx, fieldTy, err := vt.FieldIndex(name)
	if err != nil {
		return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, pos, "%s", err)
	}
	return t.Builder.CreateExtractValue(v, idx, ""), fieldTy, nil
}
