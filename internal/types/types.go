// Package types implements Craeft's two-tier type model: fully-resolved
// types used once codegen starts, and template types that still carry
// positional Parameter placeholders until specialized. It also provides
// the deterministic name mangling used for template function
// specializations.
package types

import (
	"fmt"
	"strings"
)

// Kind discriminates the cases of a resolved Type.
type Kind int

const (
	SignedInt Kind = iota
	UnsignedInt
	Float
	Void
	Pointer
	Function
	Struct
)

// FloatWidth names the two supported floating point precisions.
type FloatWidth int

const (
	SingleFloat FloatWidth = 32
	DoubleFloat FloatWidth = 64
)

// Field is an ordered (name, type) pair inside a Struct type.
type Field struct {
	Name string
	Type Type
}

// Type is a fully-resolved Craeft type: a sum of {SignedInt(nbits),
// UnsignedInt(nbits), Float(Single|Double), Void, Pointer(Type),
// Function(ret, args), Struct(name, fields)}.
type Type struct {
	Kind Kind

	// SignedInt / UnsignedInt.
	Width int // 1..64

	// Float.
	FloatW FloatWidth

	// Pointer.
	Pointee *Type

	// Function.
	Ret    *Type
	Params []Type

	// Struct.
	Name   string
	Fields []Field
}

func NewInt(signed bool, width int) Type {
	k := SignedInt
	if !signed {
		k = UnsignedInt
	}
	return Type{Kind: k, Width: width}
}

func NewFloat(w FloatWidth) Type { return Type{Kind: Float, FloatW: w} }

func NewVoid() Type { return Type{Kind: Void} }

func NewPointer(inner Type) Type {
	cp := inner
	return Type{Kind: Pointer, Pointee: &cp}
}

func NewFunction(ret Type, params []Type) Type {
	cp := ret
	return Type{Kind: Function, Ret: &cp, Params: params}
}

func NewStruct(name string, fields []Field) Type {
	return Type{Kind: Struct, Name: name, Fields: fields}
}

// Equal reports structural equality: two Types compare equal iff they
// are identical in shape all the way down.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case SignedInt, UnsignedInt:
		return t.Width == o.Width
	case Float:
		return t.FloatW == o.FloatW
	case Void:
		return true
	case Pointer:
		return t.Pointee.Equal(*o.Pointee)
	case Function:
		if !t.Ret.Equal(*o.Ret) {
			return false
		}
		if len(t.Params) != len(o.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		return true
	case Struct:
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Equal(o.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsInt reports whether t is SignedInt or UnsignedInt.
func (t Type) IsInt() bool { return t.Kind == SignedInt || t.Kind == UnsignedInt }

// FieldIndex returns the index and type of the named field of a Struct
// type, or an error if no such field exists.
func (t Type) FieldIndex(name string) (int, Type, error) {
	if t.Kind != Struct {
		return 0, Type{}, fmt.Errorf("not a struct type")
	}
	for i, f := range t.Fields {
		if f.Name == name {
			return i, f.Type, nil
		}
	}
	return 0, Type{}, fmt.Errorf("no field %q found for struct type %s", name, t.Name)
}

// String renders t for diagnostics and as a mangling input.
func (t Type) String() string {
	switch t.Kind {
	case SignedInt:
		return fmt.Sprintf("I%d", t.Width)
	case UnsignedInt:
		return fmt.Sprintf("U%d", t.Width)
	case Float:
		if t.FloatW == SingleFloat {
			return "Float"
		}
		return "Double"
	case Void:
		return "Void"
	case Pointer:
		return t.Pointee.String() + "*"
	case Function:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("fn(%s)->%s", strings.Join(parts, ","), t.Ret.String())
	case Struct:
		return t.Name
	default:
		return "<?>"
	}
}

// ---- Template types ----

// TKind discriminates the cases of a TemplateType: the same primitives as
// Type, plus Parameter, a positional placeholder substituted during
// specialization.
type TKind int

const (
	TSignedInt TKind = iota
	TUnsignedInt
	TFloat
	TVoid
	TPointer
	TFunction
	TStruct
	TParameter
)

type TField struct {
	Name string
	Type TemplateType
}

// TemplateType is a Type that may still contain Parameter(i) positional
// placeholders awaiting substitution by Specialize.
type TemplateType struct {
	Kind TKind

	Width  int
	FloatW FloatWidth

	Pointee *TemplateType

	Ret    *TemplateType
	Params []TemplateType

	Name   string
	Fields []TField

	ParamIndex int // meaningful only when Kind == TParameter.
}

// FromResolved lifts a fully-resolved Type into a TemplateType with no
// Parameter occurrences, so that non-generic code can be treated
// uniformly wherever a TemplateType is expected.
func FromResolved(t Type) TemplateType {
	switch t.Kind {
	case SignedInt:
		return TemplateType{Kind: TSignedInt, Width: t.Width}
	case UnsignedInt:
		return TemplateType{Kind: TUnsignedInt, Width: t.Width}
	case Float:
		return TemplateType{Kind: TFloat, FloatW: t.FloatW}
	case Void:
		return TemplateType{Kind: TVoid}
	case Pointer:
		inner := FromResolved(*t.Pointee)
		return TemplateType{Kind: TPointer, Pointee: &inner}
	case Function:
		ret := FromResolved(*t.Ret)
		params := make([]TemplateType, len(t.Params))
		for i, p := range t.Params {
			params[i] = FromResolved(p)
		}
		return TemplateType{Kind: TFunction, Ret: &ret, Params: params}
	case Struct:
		fields := make([]TField, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = TField{Name: f.Name, Type: FromResolved(f.Type)}
		}
		return TemplateType{Kind: TStruct, Name: t.Name, Fields: fields}
	default:
		return TemplateType{}
	}
}

// Parameter constructs a positional template parameter placeholder.
func Parameter(index int) TemplateType {
	return TemplateType{Kind: TParameter, ParamIndex: index}
}

// Specialize substitutes every Parameter(i) occurrence in tt with
// args[i], recursing through Pointer, Struct and Function, and returns
// the resulting fully-resolved Type.
func Specialize(tt TemplateType, args []Type) (Type, error) {
	switch tt.Kind {
	case TSignedInt:
		return NewInt(true, tt.Width), nil
	case TUnsignedInt:
		return NewInt(false, tt.Width), nil
	case TFloat:
		return NewFloat(tt.FloatW), nil
	case TVoid:
		return NewVoid(), nil
	case TParameter:
		if tt.ParamIndex < 0 || tt.ParamIndex >= len(args) {
			return Type{}, fmt.Errorf("template parameter index %d out of range", tt.ParamIndex)
		}
		return args[tt.ParamIndex], nil
	case TPointer:
		inner, err := Specialize(*tt.Pointee, args)
		if err != nil {
			return Type{}, err
		}
		return NewPointer(inner), nil
	case TFunction:
		ret, err := Specialize(*tt.Ret, args)
		if err != nil {
			return Type{}, err
		}
		params := make([]Type, len(tt.Params))
		for i, p := range tt.Params {
			rp, err := Specialize(p, args)
			if err != nil {
				return Type{}, err
			}
			params[i] = rp
		}
		return NewFunction(ret, params), nil
	case TStruct:
		fields := make([]Field, len(tt.Fields))
		for i, f := range tt.Fields {
			rf, err := Specialize(f.Type, args)
			if err != nil {
				return Type{}, err
			}
			fields[i] = Field{Name: f.Name, Type: rf}
		}
		name := tt.Name
		if hasParameter(tt) {
			// Each distinct instantiation of a template struct is its own
			// nominal type: the name encodes the resolved field types so
			// that name-keyed backend lookups never conflate two
			// instantiations of the same template.
			ftypes := make([]Type, len(fields))
			for i, f := range fields {
				ftypes[i] = f.Type
			}
			name = Mangle(tt.Name, ftypes)
		}
		return NewStruct(name, fields), nil
	default:
		return Type{}, fmt.Errorf("malformed template type")
	}
}

// hasParameter reports whether tt contains any Parameter placeholder.
func hasParameter(tt TemplateType) bool {
	switch tt.Kind {
	case TParameter:
		return true
	case TPointer:
		return hasParameter(*tt.Pointee)
	case TFunction:
		if hasParameter(*tt.Ret) {
			return true
		}
		for _, p := range tt.Params {
			if hasParameter(p) {
				return true
			}
		}
		return false
	case TStruct:
		for _, f := range tt.Fields {
			if hasParameter(f.Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Respecialize substitutes Parameter occurrences in tt using args, which
// are themselves TemplateTypes, leaving any unresolved Parameter
// positions in place. Used when one template refers to another.
func Respecialize(tt TemplateType, args []TemplateType) (TemplateType, error) {
	switch tt.Kind {
	case TSignedInt, TUnsignedInt, TFloat, TVoid:
		return tt, nil
	case TParameter:
		if tt.ParamIndex < 0 || tt.ParamIndex >= len(args) {
			return TemplateType{}, fmt.Errorf("template parameter index %d out of range", tt.ParamIndex)
		}
		return args[tt.ParamIndex], nil
	case TPointer:
		inner, err := Respecialize(*tt.Pointee, args)
		if err != nil {
			return TemplateType{}, err
		}
		return TemplateType{Kind: TPointer, Pointee: &inner}, nil
	case TFunction:
		ret, err := Respecialize(*tt.Ret, args)
		if err != nil {
			return TemplateType{}, err
		}
		params := make([]TemplateType, len(tt.Params))
		for i, p := range tt.Params {
			rp, err := Respecialize(p, args)
			if err != nil {
				return TemplateType{}, err
			}
			params[i] = rp
		}
		return TemplateType{Kind: TFunction, Ret: &ret, Params: params}, nil
	case TStruct:
		fields := make([]TField, len(tt.Fields))
		for i, f := range tt.Fields {
			rf, err := Respecialize(f.Type, args)
			if err != nil {
				return TemplateType{}, err
			}
			fields[i] = TField{Name: f.Name, Type: rf}
		}
		return TemplateType{Kind: TStruct, Name: tt.Name, Fields: fields}, nil
	default:
		return TemplateType{}, fmt.Errorf("malformed template type")
	}
}

// Mangle encodes base plus the ordered argument types into a legal
// backend symbol. It is a pure function of its inputs and injective
// over the Type algebra: distinct (base, args) pairs never collide,
// because each name is length-prefixed and every type encoding reads
// back unambiguously: arguments and function parameters are introduced
// by '_', integer and float widths run to the next '_' or the end of the
// label, and a function's return type follows "_R".
func Mangle(base string, args []Type) string {
	var sb strings.Builder
	sb.WriteString("_CR")
	sb.WriteString(ident(base))
	for _, a := range args {
		sb.WriteByte('_')
		mangleType(&sb, a)
	}
	return sb.String()
}

func mangleType(sb *strings.Builder, t Type) {
	switch t.Kind {
	case SignedInt:
		fmt.Fprintf(sb, "i%d", t.Width)
	case UnsignedInt:
		fmt.Fprintf(sb, "u%d", t.Width)
	case Float:
		fmt.Fprintf(sb, "f%d", int(t.FloatW))
	case Void:
		sb.WriteString("v")
	case Pointer:
		sb.WriteString("P")
		mangleType(sb, *t.Pointee)
	case Function:
		sb.WriteString("F")
		fmt.Fprintf(sb, "%d", len(t.Params))
		for _, p := range t.Params {
			sb.WriteByte('_')
			mangleType(sb, p)
		}
		sb.WriteString("_R")
		mangleType(sb, *t.Ret)
	case Struct:
		sb.WriteString("S")
		sb.WriteString(ident(t.Name))
	}
}

// ident makes s safe to splice into a mangled symbol by length-prefixing
// it, so that e.g. "ab"+"c" can never be confused with "a"+"bc".
func ident(s string) string {
	return fmt.Sprintf("%d%s", len(s), s)
}
