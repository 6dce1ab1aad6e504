package translator

import (
	"tinygo.org/x/go-llvm"

	"craeft/internal/diag"
	"craeft/internal/source"
	"craeft/internal/types"
)

// CoerceLiteral adapts a constant numeric literal to an expected type
// of the same kind: integer constants resize to an expected integer
// width and signedness, float constants change precision. Numeric
// literals default to 64 bits, so without this a literal argument,
// initializer, or comparison operand would almost never match the
// narrower type it is used against. Non-constant values are never
// coerced; ok reports whether a conversion applied.
func (t *Translator) CoerceLiteral(pos source.Pos, v llvm.Value, from, to types.Type) (llvm.Value, bool) {
	if !isConstNum(v) {
		return v, false
	}
	switch {
	case from.IsInt() && to.IsInt(),
		from.Kind == types.Float && to.Kind == types.Float:
		cv, err := t.Cast(pos, v, from, to)
		if err != nil {
			return v, false
		}
		return cv, true
	default:
		return v, false
	}
}

func isConstNum(v llvm.Value) bool {
	return !v.IsAConstantInt().IsNil() || !v.IsAConstantFP().IsNil()
}

// Cast converts v of type from into to: int-to-int widens or truncates
// (sign-extending signed sources), int-to-float and float-to-int
// convert, float-to-float widens/narrows, pointer-to-pointer
// reinterprets, and pointer-to-int and back bit-convert.
func (t *Translator) Cast(pos source.Pos, v llvm.Value, from, to types.Type) (llvm.Value, error) {
	dst, err := t.LLVMType(to)
	if err != nil {
		return llvm.Value{}, err
	}

	switch {
	case from.IsInt() && to.IsInt():
		if from.Width == to.Width {
			return v, nil
		}
		if from.Width > to.Width {
			return t.Builder.CreateTrunc(v, dst, ""), nil
		}
		if from.Kind == types.SignedInt {
			return t.Builder.CreateSExt(v, dst, ""), nil
		}
		return t.Builder.CreateZExt(v, dst, ""), nil

	case from.IsInt() && to.Kind == types.Float:
		if from.Kind == types.SignedInt {
			return t.Builder.CreateSIToFP(v, dst, ""), nil
		}
		return t.Builder.CreateUIToFP(v, dst, ""), nil

	case from.Kind == types.Float && to.IsInt():
		if to.Kind == types.SignedInt {
			return t.Builder.CreateFPToSI(v, dst, ""), nil
		}
		return t.Builder.CreateFPToUI(v, dst, ""), nil

	case from.Kind == types.Float && to.Kind == types.Float:
		if from.FloatW == to.FloatW {
			return v, nil
		}
		if from.FloatW < to.FloatW {
			return t.Builder.CreateFPExt(v, dst, ""), nil
		}
		return t.Builder.CreateFPTrunc(v, dst, ""), nil

	case from.Kind == types.Pointer && to.Kind == types.Pointer:
		return t.Builder.CreateBitCast(v, dst, ""), nil

	case from.Kind == types.Pointer && to.IsInt():
		return t.Builder.CreatePtrToInt(v, dst, ""), nil

	case from.IsInt() && to.Kind == types.Pointer:
		return t.Builder.CreateIntToPtr(v, dst, ""), nil

	case from.Equal(to):
		return v, nil

	default:
		return llvm.Value{}, diag.New(diag.TypeError, pos, "no conversion from %s to %s", from.String(), to.String())
	}
}
