package types

import "testing"

func TestEqualReflexiveSymmetric(t *testing.T) {
	samples := []Type{
		NewInt(true, 32),
		NewInt(false, 64),
		NewFloat(SingleFloat),
		NewFloat(DoubleFloat),
		NewVoid(),
		NewPointer(NewInt(true, 8)),
		NewFunction(NewInt(true, 32), []Type{NewInt(true, 32), NewFloat(DoubleFloat)}),
		NewStruct("Point", []Field{{Name: "x", Type: NewFloat(SingleFloat)}, {Name: "y", Type: NewFloat(SingleFloat)}}),
	}
	for _, a := range samples {
		if !a.Equal(a) {
			t.Errorf("%s is not equal to itself", a.String())
		}
	}
	for i, a := range samples {
		for j, b := range samples {
			if i == j {
				continue
			}
			if a.Equal(b) != b.Equal(a) {
				t.Errorf("Equal is not symmetric for %s and %s", a.String(), b.String())
			}
		}
	}
}

func TestEqualDistinguishesShapes(t *testing.T) {
	i32 := NewInt(true, 32)
	u32 := NewInt(false, 32)
	i64 := NewInt(true, 64)
	if i32.Equal(u32) {
		t.Error("I32 should not equal U32 (signedness differs)")
	}
	if i32.Equal(i64) {
		t.Error("I32 should not equal I64 (width differs)")
	}

	s1 := NewStruct("P", []Field{{Name: "x", Type: i32}})
	s2 := NewStruct("P", []Field{{Name: "y", Type: i32}})
	if s1.Equal(s2) {
		t.Error("structs with different field names should not be equal")
	}

	p1 := NewPointer(i32)
	p2 := NewPointer(u32)
	if p1.Equal(p2) {
		t.Error("pointers to different pointee types should not be equal")
	}
}

func TestFieldIndex(t *testing.T) {
	st := NewStruct("Point", []Field{
		{Name: "x", Type: NewFloat(SingleFloat)},
		{Name: "y", Type: NewFloat(SingleFloat)},
	})
	idx, ty, err := st.FieldIndex("y")
	if err != nil {
		t.Fatalf("FieldIndex: %s", err)
	}
	if idx != 1 || !ty.Equal(NewFloat(SingleFloat)) {
		t.Errorf("FieldIndex(y) = (%d, %s), want (1, Float)", idx, ty.String())
	}
	if _, _, err := st.FieldIndex("z"); err == nil {
		t.Error("FieldIndex(z) should fail: no such field")
	}
}

func TestSpecialize(t *testing.T) {
	// fn <: T :> id(T x) -> T has the template signature Function(T, [T]).
	param := Parameter(0)
	sig := TemplateType{Kind: TFunction, Ret: &param, Params: []TemplateType{param}}

	got, err := Specialize(sig, []Type{NewInt(true, 32)})
	if err != nil {
		t.Fatalf("Specialize: %s", err)
	}
	want := NewFunction(NewInt(true, 32), []Type{NewInt(true, 32)})
	if !got.Equal(want) {
		t.Errorf("Specialize = %s, want %s", got.String(), want.String())
	}
}

func TestSpecializeStructAndPointer(t *testing.T) {
	param := Parameter(0)
	pointerToParam := TemplateType{Kind: TPointer, Pointee: &param}
	body := TemplateType{Kind: TStruct, Name: "Box", Fields: []TField{{Name: "val", Type: pointerToParam}}}

	got, err := Specialize(body, []Type{NewInt(false, 8)})
	if err != nil {
		t.Fatalf("Specialize: %s", err)
	}
	want := NewStruct("Box", []Field{{Name: "val", Type: NewPointer(NewInt(false, 8))}})
	if !got.Equal(want) {
		t.Errorf("Specialize = %s, want %s", got.String(), want.String())
	}
}

func TestSpecializeOutOfRangeParameter(t *testing.T) {
	if _, err := Specialize(Parameter(2), []Type{NewInt(true, 32)}); err == nil {
		t.Error("Specialize should fail when the parameter index is out of range")
	}
}

func TestSpecializeNamesInstantiationsDistinctly(t *testing.T) {
	boxBody := TemplateType{Kind: TStruct, Name: "Box", Fields: []TField{{Name: "val", Type: Parameter(0)}}}

	a, err := Specialize(boxBody, []Type{NewInt(true, 32)})
	if err != nil {
		t.Fatalf("Specialize: %s", err)
	}
	b, err := Specialize(boxBody, []Type{NewFloat(DoubleFloat)})
	if err != nil {
		t.Fatalf("Specialize: %s", err)
	}
	if a.Name == b.Name {
		t.Errorf("distinct instantiations share the name %q", a.Name)
	}

	// The same instantiation always gets the same name.
	a2, err := Specialize(boxBody, []Type{NewInt(true, 32)})
	if err != nil {
		t.Fatalf("Specialize: %s", err)
	}
	if a.Name != a2.Name {
		t.Errorf("repeated instantiation renamed: %q then %q", a.Name, a2.Name)
	}

	// Parameter-free struct types keep their declared name.
	plain := FromResolved(NewStruct("Point", []Field{{Name: "x", Type: NewFloat(SingleFloat)}}))
	p, err := Specialize(plain, nil)
	if err != nil {
		t.Fatalf("Specialize: %s", err)
	}
	if p.Name != "Point" {
		t.Errorf("plain struct renamed to %q", p.Name)
	}
}

func TestRespecializeLeavesUnresolvedParameters(t *testing.T) {
	// Substituting Box<: T :>'s body with the enclosing template's own
	// parameter keeps that parameter in place for a later Specialize.
	boxBody := TemplateType{Kind: TStruct, Name: "Box", Fields: []TField{{Name: "val", Type: Parameter(0)}}}
	outer := Parameter(0)
	ptrToOuter := TemplateType{Kind: TPointer, Pointee: &outer}

	re, err := Respecialize(boxBody, []TemplateType{ptrToOuter})
	if err != nil {
		t.Fatalf("Respecialize: %s", err)
	}
	got, err := Specialize(re, []Type{NewInt(true, 32)})
	if err != nil {
		t.Fatalf("Specialize: %s", err)
	}
	want := NewStruct("Box", []Field{{Name: "val", Type: NewPointer(NewInt(true, 32))}})
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got.String(), want.String())
	}
}

func TestFromResolvedRoundTrips(t *testing.T) {
	orig := NewStruct("Pair", []Field{
		{Name: "a", Type: NewInt(true, 16)},
		{Name: "b", Type: NewPointer(NewFloat(DoubleFloat))},
	})
	tt := FromResolved(orig)
	// Specializing a parameter-free TemplateType with no args must return
	// the original type unchanged.
	got, err := Specialize(tt, nil)
	if err != nil {
		t.Fatalf("Specialize: %s", err)
	}
	if !got.Equal(orig) {
		t.Errorf("round trip = %s, want %s", got.String(), orig.String())
	}
}

func TestMangleInjective(t *testing.T) {
	// mangle(f,A) == mangle(g,B) must imply f==g and A==B.
	cases := []struct {
		base string
		args []Type
	}{
		{"id", []Type{NewInt(true, 32)}},
		{"id", []Type{NewInt(true, 64)}},
		{"id", []Type{NewInt(false, 32)}},
		{"idx", []Type{NewInt(true, 32)}},
		{"id", []Type{NewInt(true, 32), NewInt(true, 32)}},
		{"id", []Type{NewPointer(NewInt(true, 32))}},
		{"id", []Type{NewFloat(SingleFloat)}},
		{"id", []Type{NewFloat(DoubleFloat)}},
		{"pair", []Type{NewStruct("A", nil)}},
		{"pair", []Type{NewStruct("AB", nil)}},
	}
	seen := make(map[string]int)
	for i, c := range cases {
		m := Mangle(c.base, c.args)
		if prev, ok := seen[m]; ok {
			t.Errorf("mangle collision: cases %d and %d both produce %q", prev, i, m)
		}
		seen[m] = i
	}
}

func TestManglePure(t *testing.T) {
	a := Mangle("id", []Type{NewInt(true, 32), NewPointer(NewInt(false, 8))})
	b := Mangle("id", []Type{NewInt(true, 32), NewPointer(NewInt(false, 8))})
	if a != b {
		t.Errorf("Mangle is not pure: %q != %q", a, b)
	}
}
