package expand

import (
	"sort"
	"testing"
)

func TestListEnvironGet(t *testing.T) {
	env := ListEnviron("FOO=bar", "EMPTY=", "MALFORMED")

	if v := env.Get("FOO"); !v.Set || v.Value != "bar" {
		t.Errorf("Get(FOO) = %+v, want {Set:true Value:bar}", v)
	}
	if v := env.Get("EMPTY"); !v.Set || v.Value != "" {
		t.Errorf("Get(EMPTY) = %+v, want {Set:true Value:\"\"}", v)
	}
	if v := env.Get("MISSING"); v.Set {
		t.Errorf("Get(MISSING) = %+v, want Set:false", v)
	}
	if v := env.Get("MALFORMED"); v.Set {
		t.Errorf("Get(MALFORMED) = %+v, want Set:false (no '=' to split on)", v)
	}
}

func TestWriteEnvironSetAndUnset(t *testing.T) {
	env := ListEnviron("FOO=bar")

	env.Set("BAZ", Variable{Set: true, Value: "qux"})
	if v := env.Get("BAZ"); !v.Set || v.Value != "qux" {
		t.Errorf("after Set(BAZ, qux): Get(BAZ) = %+v", v)
	}

	env.Set("FOO", Variable{Set: false})
	if v := env.Get("FOO"); v.Set {
		t.Errorf("after Set(FOO, unset): Get(FOO) = %+v, want Set:false", v)
	}
}

func TestListRoundTrip(t *testing.T) {
	env := ListEnviron("FOO=bar", "BAZ=qux")
	got := List(env)
	sort.Strings(got)
	want := []string{"BAZ=qux", "FOO=bar"}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListOmitsUnsetEntries(t *testing.T) {
	env := ListEnviron("FOO=bar")
	env.Set("FOO", Variable{Set: false})
	env.Set("BAR", Variable{Set: true, Value: "baz"})

	got := List(env)
	if len(got) != 1 || got[0] != "BAR=baz" {
		t.Errorf("List() = %v, want [\"BAR=baz\"]", got)
	}
}

func TestEachVisitsEveryEntry(t *testing.T) {
	env := ListEnviron("A=1", "B=2", "C=3")
	seen := map[string]string{}
	env.Each(func(name string, v Variable) bool {
		seen[name] = v.Value
		return true
	})
	want := map[string]string{"A": "1", "B": "2", "C": "3"}
	if len(seen) != len(want) {
		t.Fatalf("Each visited %v, want %v", seen, want)
	}
	for k, v := range want {
		if seen[k] != v {
			t.Errorf("Each[%q] = %q, want %q", k, seen[k], v)
		}
	}
}

func TestEachStopsOnFalse(t *testing.T) {
	env := ListEnviron("A=1", "B=2", "C=3")
	count := 0
	env.Each(func(name string, v Variable) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("Each visited %d entries after a false return, want 1", count)
	}
}
