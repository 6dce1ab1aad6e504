package env

import (
	"testing"

	"craeft/internal/source"
	"craeft/internal/types"
)

var noPos = source.Pos{}

func TestNewPrePopulatesBuiltins(t *testing.T) {
	e := New()
	if e.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1", e.Depth())
	}
	cases := []struct {
		name string
		want types.Type
	}{
		{"I1", types.NewInt(true, 1)},
		{"I64", types.NewInt(true, 64)},
		{"U1", types.NewInt(false, 1)},
		{"U64", types.NewInt(false, 64)},
		{"Float", types.NewFloat(types.SingleFloat)},
		{"Double", types.NewFloat(types.DoubleFloat)},
	}
	for _, c := range cases {
		got, err := e.LookupType(c.name, noPos)
		if err != nil {
			t.Errorf("LookupType(%q): %s", c.name, err)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("LookupType(%q) = %s, want %s", c.name, got.String(), c.want.String())
		}
	}
}

func TestPushPopScoping(t *testing.T) {
	e := New()
	e.AddIdentifier("x", Variable{Type: types.NewInt(true, 32)})

	e.Push()
	if e.Depth() != 2 {
		t.Fatalf("Depth() after Push = %d, want 2", e.Depth())
	}
	// Inner-scope shadowing of an outer identifier.
	e.AddIdentifier("x", Variable{Type: types.NewFloat(types.SingleFloat)})
	v, err := e.LookupIdentifier("x", noPos)
	if err != nil {
		t.Fatalf("LookupIdentifier: %s", err)
	}
	if !v.Type.Equal(types.NewFloat(types.SingleFloat)) {
		t.Errorf("shadowed lookup = %s, want Float", v.Type.String())
	}

	if err := e.Pop(); err != nil {
		t.Fatalf("Pop: %s", err)
	}
	v, err = e.LookupIdentifier("x", noPos)
	if err != nil {
		t.Fatalf("LookupIdentifier after Pop: %s", err)
	}
	if !v.Type.Equal(types.NewInt(true, 32)) {
		t.Errorf("outer lookup after Pop = %s, want I32", v.Type.String())
	}
}

func TestPopUnderflow(t *testing.T) {
	e := &Environment{}
	if err := e.Pop(); err == nil {
		t.Error("Pop on an empty scope stack should fail")
	}
}

func TestLookupIdentifierNotFound(t *testing.T) {
	e := New()
	if _, err := e.LookupIdentifier("nope", noPos); err == nil {
		t.Error("LookupIdentifier should fail for an unbound name")
	}
}

func TestIsTypeName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"Foo", true},
		{"I64", true},
		{"foo", false},
		{"x", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsTypeName(c.name); got != c.want {
			t.Errorf("IsTypeName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestBoundQueriesBucketByCase(t *testing.T) {
	e := New()
	if !e.Bound("I64") {
		t.Error("built-in type I64 should be bound")
	}
	if e.Bound("x") {
		t.Error("unbound identifier should not report bound")
	}
	e.AddIdentifier("x", Variable{Type: types.NewInt(true, 32)})
	if !e.Bound("x") {
		t.Error("identifier bound in the innermost scope should report bound")
	}
	// An uppercase name is looked up among the types, where nothing
	// binds this one.
	if e.Bound("NoSuchType") {
		t.Error("unbound type name should not report bound")
	}
}

func TestTemplateStructAndFuncRoundTrip(t *testing.T) {
	e := New()
	ts := TemplateStruct{Params: []string{"T"}, Body: types.TemplateType{Kind: types.TParameter, ParamIndex: 0}}
	e.AddTemplateStruct("Box", ts)
	got, err := e.LookupTemplateStruct("Box", noPos)
	if err != nil {
		t.Fatalf("LookupTemplateStruct: %s", err)
	}
	if len(got.Params) != 1 || got.Params[0] != "T" {
		t.Errorf("LookupTemplateStruct mismatch: %+v", got)
	}
	if _, err := e.LookupTemplateStruct("NoSuchBox", noPos); err == nil {
		t.Error("LookupTemplateStruct should fail for an unregistered name")
	}

	tv := TemplateValue{Params: []string{"T"}, Sig: types.TemplateType{Kind: types.TFunction}}
	e.AddTemplateFunc("id", tv)
	gotF, err := e.LookupTemplateFunc("id", noPos)
	if err != nil {
		t.Fatalf("LookupTemplateFunc: %s", err)
	}
	if len(gotF.Params) != 1 || gotF.Params[0] != "T" {
		t.Errorf("LookupTemplateFunc mismatch: %+v", gotF)
	}
	if _, err := e.LookupTemplateFunc("nope", noPos); err == nil {
		t.Error("LookupTemplateFunc should fail for an unregistered name")
	}
}

func TestScopeStackIsolatesInnerBindings(t *testing.T) {
	e := New()
	e.Push()
	e.AddIdentifier("tmp", Variable{Type: types.NewVoid()})
	if err := e.Pop(); err != nil {
		t.Fatalf("Pop: %s", err)
	}
	if _, err := e.LookupIdentifier("tmp", noPos); err == nil {
		t.Error("identifier bound in a popped scope should no longer be visible")
	}
}
