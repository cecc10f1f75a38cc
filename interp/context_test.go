package interp

import (
	"testing"

	"github.com/danbulant/rush/expand"
	"github.com/danbulant/rush/syntax"
)

func TestContextDepthStartsAtOne(t *testing.T) {
	ctx := NewContext()
	if got := ctx.Depth(); got != 1 {
		t.Fatalf("Depth() after NewContext() = %d, want 1", got)
	}
}

func TestPushPopScopeRestoresDepth(t *testing.T) {
	ctx := NewContext()
	ctx.PushScope()
	ctx.PushScope()
	if got := ctx.Depth(); got != 3 {
		t.Fatalf("Depth() after two PushScope = %d, want 3", got)
	}
	ctx.PopScope()
	ctx.PopScope()
	if got := ctx.Depth(); got != 1 {
		t.Fatalf("Depth() after popping back = %d, want 1", got)
	}
}

func TestGetSetVarInnermostScope(t *testing.T) {
	ctx := NewContext()
	ctx.SetVar("x", NewI32(1))
	ctx.PushScope()
	ctx.SetVar("x", NewI32(2))

	if got := ctx.GetVar("x"); got.String() != "2" {
		t.Errorf("GetVar(x) in inner scope = %q, want \"2\"", got.String())
	}
	ctx.PopScope()
	if got := ctx.GetVar("x"); got.String() != "1" {
		t.Errorf("GetVar(x) after popping back = %q, want \"1\"", got.String())
	}
}

func TestGetVarScansOutward(t *testing.T) {
	ctx := NewContext()
	ctx.SetVar("outer", NewString("o"))
	ctx.PushScope()
	if got := ctx.GetVar("outer"); got.String() != "o" {
		t.Errorf("GetVar(outer) from inner scope = %q, want \"o\"", got.String())
	}
}

func TestGetVarMissingIsEmptyString(t *testing.T) {
	ctx := NewContext()
	if got := ctx.GetVar("nope"); got.Kind != KindString || got.String() != "" {
		t.Errorf("GetVar(nope) = %+v, want empty KindString", got)
	}
}

func TestGetArrayVarMissingIsEmptyArray(t *testing.T) {
	ctx := NewContext()
	got := ctx.GetArrayVar("nope")
	if got.Kind != KindArray {
		t.Fatalf("GetArrayVar(nope).Kind = %v, want KindArray", got.Kind)
	}
	arr, _ := got.AsArray()
	if len(arr) != 0 {
		t.Errorf("GetArrayVar(nope) = %v, want an empty array", arr)
	}
}

func TestEnvPrefixReadsExports(t *testing.T) {
	ctx := NewContext()
	ctx.Exports.Set("MY_VAR", expand.Variable{Set: true, Value: "hello"})
	if got := ctx.GetVar("env::MY_VAR"); got.String() != "hello" {
		t.Errorf("GetVar(env::MY_VAR) = %q, want \"hello\"", got.String())
	}
}

func TestSetVarEnvPrefixMirrorsToExports(t *testing.T) {
	ctx := NewContext()
	ctx.SetVar("env::MY_VAR", NewString("mirrored"))
	if v := ctx.Exports.Get("MY_VAR"); !v.Set || v.Value != "mirrored" {
		t.Errorf("Exports.Get(MY_VAR) = %+v, want Set:true Value:mirrored", v)
	}
}

func TestLookupDefineUserFunc(t *testing.T) {
	ctx := NewContext()
	if _, ok := ctx.LookupUserFunc("greet"); ok {
		t.Fatalf("LookupUserFunc(greet) found something before any DefineFunc")
	}
	ctx.DefineFunc(&syntax.FunctionDefinition{Name: "greet"})
	if fn, ok := ctx.LookupUserFunc("greet"); !ok || fn.Name != "greet" {
		t.Errorf("LookupUserFunc(greet) after DefineFunc = %v, %v, want the defined function", fn, ok)
	}
}
