// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"strings"

	"github.com/danbulant/rush/expand"
	"golang.org/x/xerrors"
)

// RegisterBuiltins installs spec.md §6's required built-in set into ctx.
// Registry keys match the exact invocation spelling: "$trim" carries its
// sigil because it is only ever called as a ValueFunction ($trim(...)),
// while "test"/"true"/"false"/"export"/"typeof" are bare because they are
// invoked as ordinary command words (`test 1 = 1`, `true && …`) — this
// mirrors original_source/src/nativeFunctions.rs's own map keys exactly
// ("$trim" vs "test").
func RegisterBuiltins(ctx *Context) {
	ctx.Native["$trim"] = &NativeFunction{
		Name:        "$trim",
		Description: "Removes leading and trailing whitespace from a string",
		ArgNames:    []string{"str"},
		Func:        builtinTrim,
	}
	ctx.Native["test"] = &NativeFunction{
		Name:        "test",
		Description: "Compares values. Supported operands are = and !=",
		ArgNames:    []string{"source", "operand", "target"},
		Func:        builtinTest,
	}
	ctx.Native["true"] = &NativeFunction{
		Name:        "true",
		Description: "Always succeeds",
		Func:        builtinTrue,
	}
	ctx.Native["false"] = &NativeFunction{
		Name:        "false",
		Description: "Always fails",
		Func:        builtinFalse,
	}
	ctx.Native["export"] = &NativeFunction{
		Name:        "export",
		Description: "Mirrors a variable into the process environment",
		ArgNames:    []string{"name"},
		Func:        builtinExport,
	}
	typeofFn := &NativeFunction{
		Name:        "typeof",
		Description: "Reports the variant name of a value",
		ArgNames:    []string{"value"},
		Func:        builtinTypeof,
	}
	// spec.md §6 lists "typeof x" (bare) among the required built-ins but
	// also shows "$typeof($x)" as worked call-form syntax — registered
	// under both keys so either invocation spelling resolves to the same
	// function, rather than picking one reading and silently breaking the
	// other.
	ctx.Native["typeof"] = typeofFn
	ctx.Native["$typeof"] = typeofFn
}

// builtinTrim mirrors original_source's rush_trim: concatenate the given
// arguments' string forms with a separating space, then trim the result.
func builtinTrim(_ *Context, args []Variable) (Variable, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return NewString(strings.TrimSpace(strings.Join(parts, " "))), nil
}

// builtinTest mirrors original_source's rush_test. Per SPEC_FULL.md §7,
// only "=" and "!=" are implemented; the ordering operands name themselves
// in the returned error rather than being silently stubbed to a result.
func builtinTest(_ *Context, args []Variable) (Variable, error) {
	if len(args) != 3 {
		return Variable{}, xerrors.Errorf("test: expected 3 arguments (source, operand, target), got %d", len(args))
	}
	source, operand, target := args[0], args[1], args[2]
	switch operand.String() {
	case "=":
		if source.String() == target.String() {
			return NewI32(0), nil
		}
		return NewI32(1), nil
	case "!=":
		if source.String() != target.String() {
			return NewI32(0), nil
		}
		return NewI32(1), nil
	default:
		return Variable{}, xerrors.Errorf("test: unsupported operand: %s", operand.String())
	}
}

func builtinTrue(_ *Context, _ []Variable) (Variable, error) {
	return NewI32(0), nil
}

func builtinFalse(_ *Context, _ []Variable) (Variable, error) {
	return NewI32(1), nil
}

// builtinExport implements spec.md §6's "export NAME or export NAME = VALUE".
// Invoked as a command, '=' survives parsing as a literal word (see
// syntax.parser's ExportSet fallback), so the argument list is either
// ["NAME"] or ["NAME", "=", "VALUE"].
func builtinExport(ctx *Context, args []Variable) (Variable, error) {
	if len(args) == 0 {
		return Variable{}, xerrors.New("export: expected a name")
	}
	name := args[0].String()
	switch len(args) {
	case 1:
		if !ctx.Exports.Get(name).Set {
			ctx.Exports.Set(name, expand.Variable{Set: true, Value: ctx.GetVar(name).String()})
		}
	case 3:
		if args[1].String() != "=" {
			return Variable{}, xerrors.Errorf("export: expected '=', got %q", args[1].String())
		}
		ctx.Exports.Set(name, expand.Variable{Set: true, Value: args[2].String()})
	default:
		return Variable{}, xerrors.Errorf("export: expected 'NAME' or 'NAME = VALUE', got %d arguments", len(args))
	}
	return NewI32(0), nil
}

func builtinTypeof(_ *Context, args []Variable) (Variable, error) {
	if len(args) != 1 {
		return Variable{}, xerrors.Errorf("typeof: expected 1 argument, got %d", len(args))
	}
	return NewString(args[0].Kind.String()), nil
}
