package interp

import "testing"

func TestVariableStringification(t *testing.T) {
	tests := []struct {
		name string
		v    Variable
		want string
	}{
		{"string", NewString("hi"), "hi"},
		{"i32", NewI32(-7), "-7"},
		{"u64", NewU64(42), "42"},
		{"f64", NewF64(3.5), "3.5"},
		{"bool true", NewBool(true), "true"},
		{"bool false", NewBool(false), "false"},
		{"hmap", NewHMap(map[string]Variable{"a": NewI32(1)}), "[Object object]"},
		{"array len 1 collapses to element", NewArray([]Variable{NewString("solo")}), "solo"},
		{"array joins with spaces", NewArray([]Variable{NewString("a"), NewString("b"), NewString("c")}), "a b c"},
		{"empty array", NewArray(nil), ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestVariableConcatenationWorkedExample(t *testing.T) {
	// spec.md §3's worked example: foo$bar"baz" stringifies as "foobarbaz",
	// i.e. Values concatenates rather than space-joining its parts. This
	// exercises the underlying per-part String() calls that
	// interp.GetValue's *syntax.Values case concatenates directly.
	parts := []Variable{NewString("foo"), NewString("bar"), NewString("baz")}
	got := ""
	for _, p := range parts {
		got += p.String()
	}
	if want := "foobarbaz"; got != want {
		t.Errorf("concatenated parts = %q, want %q", got, want)
	}
}

func TestVariableAsArray(t *testing.T) {
	arr, ok := NewArray([]Variable{NewI32(1), NewI32(2)}).AsArray()
	if !ok || len(arr) != 2 {
		t.Fatalf("AsArray() = %v, %v, want 2 elements, true", arr, ok)
	}
	if _, ok := NewString("x").AsArray(); ok {
		t.Errorf("AsArray() on a String unexpectedly succeeded")
	}
}

func TestVariableAsInt(t *testing.T) {
	tests := []struct {
		name   string
		v      Variable
		want   int64
		wantOk bool
	}{
		{"i32", NewI32(5), 5, true},
		{"u64", NewU64(9), 9, true},
		{"bool true", NewBool(true), 1, true},
		{"bool false", NewBool(false), 0, true},
		{"string", NewString("5"), 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.v.AsInt()
			if ok != tc.wantOk || (ok && got != tc.want) {
				t.Errorf("AsInt() = %d, %v, want %d, %v", got, ok, tc.want, tc.wantOk)
			}
		})
	}
}

func TestVariableIndexArray(t *testing.T) {
	arr := NewArray([]Variable{NewString("a"), NewString("b"), NewString("c")})

	got, err := arr.Index(NewI32(1))
	if err != nil || got.String() != "b" {
		t.Fatalf("Index(1) = %v, %v, want \"b\", nil", got, err)
	}

	got, err = arr.Index(NewString("2"))
	if err != nil || got.String() != "c" {
		t.Fatalf("Index(\"2\") = %v, %v, want \"c\", nil", got, err)
	}

	if _, err := arr.Index(NewI32(99)); err == nil {
		t.Error("Index(99) out of range: expected an error, got none")
	}
	if _, err := arr.Index(NewString("not-a-number")); err == nil {
		t.Error("Index(\"not-a-number\"): expected an error, got none")
	}
}

func TestVariableIndexHMap(t *testing.T) {
	m := NewHMap(map[string]Variable{"key": NewString("value")})

	got, err := m.Index(NewString("key"))
	if err != nil || got.String() != "value" {
		t.Fatalf("Index(\"key\") = %v, %v, want \"value\", nil", got, err)
	}
	if _, err := m.Index(NewString("missing")); err == nil {
		t.Error("Index(\"missing\"): expected an error, got none")
	}
}

func TestVariableIndexScalarFails(t *testing.T) {
	if _, err := NewString("hi").Index(NewI32(0)); err == nil {
		t.Error("Index on a scalar String: expected an error, got none")
	}
}

func TestKindString(t *testing.T) {
	if got, want := KindArray.String(), "Array"; got != want {
		t.Errorf("KindArray.String() = %q, want %q", got, want)
	}
	if got, want := Kind(999).String(), "Unknown"; got != want {
		t.Errorf("Kind(999).String() = %q, want %q", got, want)
	}
}
