package datum

import "testing"

func TestNumericCoercionWidening(t *testing.T) {
	sum := Add(Int(2), Float(1.5))
	if sum.Kind != KindFloat || sum.Float != 3.5 {
		t.Fatalf("int+float should widen to float, got %+v", sum)
	}
}

func TestStringToNumberCoercion(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"42", 42},
		{"3.5", 3.5},
		{"not a number", 0},
		{"", 0},
	}
	for _, tt := range tests {
		got := Str(tt.in).AsFloat()
		if got != tt.want {
			t.Errorf("Str(%q).AsFloat() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVoidCoercion(t *testing.T) {
	if Void.AsInt() != 0 {
		t.Errorf("void as int = %v, want 0", Void.AsInt())
	}
	if Void.AsString() != "" {
		t.Errorf("void as string = %q, want empty", Void.AsString())
	}
	if Void.IsTruthy() {
		t.Error("void should be falsy")
	}
}

func TestSymbolEqualityCaseInsensitive(t *testing.T) {
	if !SymbolEqual(Symbol("Foo"), Symbol("foo")) {
		t.Error("symbol equality should be case-insensitive")
	}
	if SymbolEqual(Symbol("foo"), Symbol("bar")) {
		t.Error("different symbols should not be equal")
	}
}

func TestListAliasing(t *testing.T) {
	a := NewArena()
	l := a.NewList([]Datum{Int(1), Int(2)})
	alias := l // copying the Datum copies only the handle
	a.List(alias).Append(Int(3))
	if len(a.List(l).Items) != 3 {
		t.Fatalf("expected aliasing to share the backing list, got %d items", len(a.List(l).Items))
	}
}

func TestDuplicateListIsIndependent(t *testing.T) {
	a := NewArena()
	l := a.NewList([]Datum{Int(1)})
	dup := a.DuplicateList(l)
	a.List(dup).Append(Int(99))
	if len(a.List(l).Items) != 1 {
		t.Fatalf("duplicate should not mutate the original, original has %d items", len(a.List(l).Items))
	}
}

func TestCompareStringCaseInsensitive(t *testing.T) {
	if Compare(Str("ABC"), Str("abc")) != 0 {
		t.Error("string comparison should be case-insensitive")
	}
}

func TestTypeNameForRefs(t *testing.T) {
	tests := []struct {
		d    Datum
		want string
	}{
		{Void, "void"},
		{Int(1), "integer"},
		{Float(1.5), "float"},
		{Str("x"), "string"},
		{Symbol("x"), "symbol"},
		{CastMember(1, 2), "member"},
		{Sprite(3), "sprite"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.d); got != tt.want {
			t.Errorf("TypeName(%+v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
