package translator

import (
	"tinygo.org/x/go-llvm"

	"craeft/internal/diag"
	"craeft/internal/source"
	"craeft/internal/types"
)

// binopClass names the four dispatch families of binary operators.
// Logical && and || are handled before this table is consulted.
type binopClass int

const (
	classBitwise binopClass = iota
	classArithmetic
	classComparison
	classShift
)

var opClass = map[string]binopClass{
	"&": classBitwise, "|": classBitwise, "^": classBitwise,
	"+": classArithmetic, "-": classArithmetic, "*": classArithmetic, "/": classArithmetic, "%": classArithmetic,
	"==": classComparison, "!=": classComparison,
	"<": classComparison, "<=": classComparison, ">": classComparison, ">=": classComparison,
	"<<": classShift, ">>": classShift,
}

// BinOp generates the LLVM instruction(s) for applying op to (lv, lt)
// and (rv, rt), dispatching two-dimensionally on operator and the kind
// of the operand types.
func (t *Translator) BinOp(pos source.Pos, op string, lv llvm.Value, lt types.Type, rv llvm.Value, rt types.Type) (llvm.Value, types.Type, error) {
	if op == "&&" || op == "||" {
		return t.logicalOp(pos, op, lv, lt, rv, rt)
	}

	class, ok := opClass[op]
	if !ok {
		return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, pos, "unknown operator %q", op)
	}

	if class == classArithmetic {
		if v, ty, handled, err := t.pointerArith(pos, op, lv, lt, rv, rt); handled || err != nil {
			return v, ty, err
		}
	}

	// A constant literal operand adopts the other operand's type first,
	// so that `x < 0` compares at x's own width and signedness instead of
	// widening x to the literal's 64-bit default.
	if !lt.Equal(rt) {
		if cv, ok := t.CoerceLiteral(pos, rv, rt, lt); ok && !isConstNum(lv) {
			rv, rt = cv, lt
		} else if cv, ok := t.CoerceLiteral(pos, lv, lt, rt); ok && !isConstNum(rv) {
			lv, lt = cv, rt
		}
	}

	// Shift's result type is always the left operand's type: only the
	// shift amount is resized to match, never the other way around, and
	// its signedness is irrelevant.
	if class == classShift && lt.IsInt() && rt.IsInt() {
		if lt.Width != rt.Width {
			var err error
			rv, err = t.Cast(pos, rv, rt, types.NewInt(rt.Kind == types.SignedInt, lt.Width))
			if err != nil {
				return llvm.Value{}, types.Type{}, err
			}
		}
		rt = lt
	} else if class != classShift && lt.IsInt() && rt.IsInt() && !lt.Equal(rt) {
		var err error
		lv, rv, lt, err = t.widenIntPair(pos, lv, lt, rv, rt)
		if err != nil {
			return llvm.Value{}, types.Type{}, err
		}
		rt = lt
	} else if lt.Kind == types.Float && rt.Kind == types.Float && lt.FloatW != rt.FloatW {
		// Mixed-precision float pairs widen to the wider precision.
		double := t.Ctx.DoubleType()
		if lt.FloatW == types.SingleFloat {
			lv = t.Builder.CreateFPExt(lv, double, "")
			lt = rt
		} else {
			rv = t.Builder.CreateFPExt(rv, double, "")
			rt = lt
		}
	}

	if !lt.Equal(rt) {
		return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, pos,
			"operands of %q have mismatched types %s and %s", op, lt.String(), rt.String())
	}

	switch class {
	case classBitwise:
		return t.bitwiseOp(pos, op, lv, rv, lt)
	case classArithmetic:
		return t.arithmeticOp(pos, op, lv, rv, lt)
	case classComparison:
		return t.comparisonOp(pos, op, lv, rv, lt)
	case classShift:
		return t.shiftOp(pos, op, lv, rv, lt)
	default:
		return llvm.Value{}, types.Type{}, diag.New(diag.InternalError, pos, "unreachable binop class")
	}
}

// widenIntPair brings an integer pair to a common type: whichever of
// lv/rv is narrower is extended to the wider width, sign-extending when
// both operands are signed and zero-extending otherwise. The common
// type is signed if either operand is, so that a mixed pair divides and
// compares signed.
func (t *Translator) widenIntPair(pos source.Pos, lv llvm.Value, lt types.Type, rv llvm.Value, rt types.Type) (llvm.Value, llvm.Value, types.Type, error) {
	wide := lt.Width
	if rt.Width > wide {
		wide = rt.Width
	}
	bothSigned := lt.Kind == types.SignedInt && rt.Kind == types.SignedInt
	anySigned := lt.Kind == types.SignedInt || rt.Kind == types.SignedInt

	wideTy := types.NewInt(anySigned, wide)
	dst, err := t.LLVMType(wideTy)
	if err != nil {
		return llvm.Value{}, llvm.Value{}, types.Type{}, err
	}

	// The extension instruction follows the pair's joint signedness, not
	// each operand's own: zero-extend unless both sides are signed.
	ext := func(v llvm.Value, from types.Type) llvm.Value {
		if from.Width == wide {
			return v
		}
		if bothSigned {
			return t.Builder.CreateSExt(v, dst, "")
		}
		return t.Builder.CreateZExt(v, dst, "")
	}

	return ext(lv, lt), ext(rv, rt), wideTy, nil
}

// pointerArith handles the (Pointer,int), (int,Pointer), and
// (Pointer,Pointer) cases of '+' and '-' that fall outside the uniform
// same-type dispatch. handled is false when neither operand is a
// Pointer, in which case the caller continues with the ordinary
// widen-then-dispatch path.
func (t *Translator) pointerArith(pos source.Pos, op string, lv llvm.Value, lt types.Type, rv llvm.Value, rt types.Type) (llvm.Value, types.Type, bool, error) {
	if op != "+" && op != "-" {
		return llvm.Value{}, types.Type{}, false, nil
	}

	if lt.Kind == types.Pointer && rt.IsInt() {
		off := rv
		if op == "-" {
			off = t.Builder.CreateNeg(rv, "")
		}
		v := t.Builder.CreateGEP(lv, []llvm.Value{off}, "")
		return v, lt, true, nil
	}
	if op == "+" && lt.IsInt() && rt.Kind == types.Pointer {
		v := t.Builder.CreateGEP(rv, []llvm.Value{lv}, "")
		return v, rt, true, nil
	}
	if op == "-" && lt.Kind == types.Pointer && rt.Kind == types.Pointer {
		if !lt.Pointee.Equal(*rt.Pointee) {
			return llvm.Value{}, types.Type{}, true, diag.New(diag.TypeError, pos,
				"pointer difference requires identical pointed types, got %s and %s", lt.String(), rt.String())
		}
		i64 := t.Ctx.Int64Type()
		li := t.Builder.CreatePtrToInt(lv, i64, "")
		ri := t.Builder.CreatePtrToInt(rv, i64, "")
		byteDiff := t.Builder.CreateSub(li, ri, "")

		elemSize, err := t.elementSize(*lt.Pointee)
		if err != nil {
			return llvm.Value{}, types.Type{}, true, err
		}
		diff := t.Builder.CreateSDiv(byteDiff, elemSize, "")
		return diff, types.NewInt(true, 64), true, nil
	}
	if lt.Kind == types.Pointer || rt.Kind == types.Pointer {
		return llvm.Value{}, types.Type{}, true, diag.New(diag.TypeError, pos,
			"operator %q not defined for %s and %s", op, lt.String(), rt.String())
	}
	return llvm.Value{}, types.Type{}, false, nil
}

func (t *Translator) bitwiseOp(pos source.Pos, op string, lv, rv llvm.Value, ty types.Type) (llvm.Value, types.Type, error) {
	if !ty.IsInt() {
		return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, pos, "operator %q requires integer operands, got %s", op, ty.String())
	}
	switch op {
	case "&":
		return t.Builder.CreateAnd(lv, rv, ""), ty, nil
	case "|":
		return t.Builder.CreateOr(lv, rv, ""), ty, nil
	case "^":
		return t.Builder.CreateXor(lv, rv, ""), ty, nil
	}
	return llvm.Value{}, types.Type{}, diag.New(diag.InternalError, pos, "unreachable bitwise operator %q", op)
}

func (t *Translator) arithmeticOp(pos source.Pos, op string, lv, rv llvm.Value, ty types.Type) (llvm.Value, types.Type, error) {
	if ty.Kind == types.Float {
		switch op {
		case "+":
			return t.Builder.CreateFAdd(lv, rv, ""), ty, nil
		case "-":
			return t.Builder.CreateFSub(lv, rv, ""), ty, nil
		case "*":
			return t.Builder.CreateFMul(lv, rv, ""), ty, nil
		case "/":
			return t.Builder.CreateFDiv(lv, rv, ""), ty, nil
		case "%":
			return t.Builder.CreateFRem(lv, rv, ""), ty, nil
		}
	}
	if ty.IsInt() {
		signed := ty.Kind == types.SignedInt
		switch op {
		case "+":
			return t.Builder.CreateAdd(lv, rv, ""), ty, nil
		case "-":
			return t.Builder.CreateSub(lv, rv, ""), ty, nil
		case "*":
			return t.Builder.CreateMul(lv, rv, ""), ty, nil
		case "/":
			if signed {
				return t.Builder.CreateSDiv(lv, rv, ""), ty, nil
			}
			return t.Builder.CreateUDiv(lv, rv, ""), ty, nil
		case "%":
			if signed {
				return t.Builder.CreateSRem(lv, rv, ""), ty, nil
			}
			return t.Builder.CreateURem(lv, rv, ""), ty, nil
		}
	}
	return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, pos, "operator %q not defined for %s", op, ty.String())
}

func (t *Translator) comparisonOp(pos source.Pos, op string, lv, rv llvm.Value, ty types.Type) (llvm.Value, types.Type, error) {
	boolTy := types.NewInt(false, 1)
	if ty.Kind == types.Float {
		var pred llvm.FloatPredicate
		switch op {
		case "==":
			pred = llvm.FloatOEQ
		case "!=":
			pred = llvm.FloatONE
		case "<":
			pred = llvm.FloatOLT
		case "<=":
			pred = llvm.FloatOLE
		case ">":
			pred = llvm.FloatOGT
		case ">=":
			pred = llvm.FloatOGE
		default:
			return llvm.Value{}, types.Type{}, diag.New(diag.InternalError, pos, "unreachable comparison %q", op)
		}
		return t.Builder.CreateFCmp(pred, lv, rv, ""), boolTy, nil
	}
	if ty.IsInt() || ty.Kind == types.Pointer {
		signed := ty.Kind == types.SignedInt
		var pred llvm.IntPredicate
		switch op {
		case "==":
			pred = llvm.IntEQ
		case "!=":
			pred = llvm.IntNE
		case "<":
			if signed {
				pred = llvm.IntSLT
			} else {
				pred = llvm.IntULT
			}
		case "<=":
			if signed {
				pred = llvm.IntSLE
			} else {
				pred = llvm.IntULE
			}
		case ">":
			if signed {
				pred = llvm.IntSGT
			} else {
				pred = llvm.IntUGT
			}
		case ">=":
			if signed {
				pred = llvm.IntSGE
			} else {
				pred = llvm.IntUGE
			}
		default:
			return llvm.Value{}, types.Type{}, diag.New(diag.InternalError, pos, "unreachable comparison %q", op)
		}
		return t.Builder.CreateICmp(pred, lv, rv, ""), boolTy, nil
	}
	return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, pos, "operator %q not defined for %s", op, ty.String())
}

func (t *Translator) shiftOp(pos source.Pos, op string, lv, rv llvm.Value, ty types.Type) (llvm.Value, types.Type, error) {
	if !ty.IsInt() {
		return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, pos, "operator %q requires integer operands, got %s", op, ty.String())
	}
	switch op {
	case "<<":
		return t.Builder.CreateShl(lv, rv, ""), ty, nil
	case ">>":
		if ty.Kind == types.SignedInt {
			return t.Builder.CreateAShr(lv, rv, ""), ty, nil
		}
		return t.Builder.CreateLShr(lv, rv, ""), ty, nil
	}
	return llvm.Value{}, types.Type{}, diag.New(diag.InternalError, pos, "unreachable shift operator %q", op)
}

// elementSize computes sizeof(ty) in bytes as an i64 constant, via the
// classic GEP-on-a-null-pointer trick (index 1 past a null pointer of
// ty*, bitcast to an integer): used to turn a raw byte offset between two
// pointers into an element count for pointer subtraction.
func (t *Translator) elementSize(ty types.Type) (llvm.Value, error) {
	llty, err := t.LLVMType(ty)
	if err != nil {
		return llvm.Value{}, err
	}
	null := llvm.ConstPointerNull(llvm.PointerType(llty, 0))
	one := llvm.ConstInt(t.Ctx.Int32Type(), 1, false)
	gep := llvm.ConstGEP(null, []llvm.Value{one})
	return llvm.ConstPtrToInt(gep, t.Ctx.Int64Type()), nil
}

// logicalOp implements && and || over already-evaluated U1 operands.
// Both operands are evaluated by the caller before this is reached;
// there is no short-circuiting, so this reduces to a plain bitwise
// and/or on i1.
func (t *Translator) logicalOp(pos source.Pos, op string, lv llvm.Value, lt types.Type, rv llvm.Value, rt types.Type) (llvm.Value, types.Type, error) {
	boolTy := types.NewInt(false, 1)
	if !lt.Equal(boolTy) || !rt.Equal(boolTy) {
		return llvm.Value{}, types.Type{}, diag.New(diag.TypeError, pos, "operator %q requires U1 operands", op)
	}
	if op == "&&" {
		return t.Builder.CreateAnd(lv, rv, ""), boolTy, nil
	}
	return t.Builder.CreateOr(lv, rv, ""), boolTy, nil
}
