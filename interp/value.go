// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/danbulant/rush/syntax"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// GetValue evaluates a syntax.Value into a runtime Variable, per spec.md
// §4.3. It is a type switch rather than a method set on syntax's node
// types, since syntax must not depend on interp (the teacher's own
// interp.Runner dispatches over syntax nodes the same way).
func GetValue(v syntax.Value, ctx *Context) (Variable, error) {
	switch n := v.(type) {
	case *syntax.Literal:
		return NewString(n.Str), nil
	case *syntax.Variable:
		return ctx.GetVar(n.Name), nil
	case *syntax.ArrayVariable:
		return ctx.GetArrayVar(n.Name), nil
	case *syntax.ArrayDefinition:
		items := make([]Variable, 0, len(n.Items))
		for _, it := range n.Items {
			val, err := GetValue(it, ctx)
			if err != nil {
				return Variable{}, err
			}
			items = append(items, val)
		}
		return NewArray(items), nil
	case *syntax.Values:
		// Values denotes concatenation within one whitespace-delimited
		// word (spec.md §3), so its parts are joined directly rather than
		// through Array's general space-joined stringification rule —
		// see DESIGN.md for why this departs from a literal reading of
		// §4.3's "Array of the evaluated components".
		var sb strings.Builder
		for _, part := range n.Parts {
			val, err := GetValue(part, ctx)
			if err != nil {
				return Variable{}, err
			}
			sb.WriteString(val.String())
		}
		return NewString(sb.String()), nil
	case *syntax.ValueFunction:
		return CallFunction(ctx, n.Call)
	case *syntax.Expressions:
		return evalSubstitution(ctx, n.Body)
	default:
		return Variable{}, xerrors.Errorf("rush: cannot evaluate %T", v)
	}
}

// CallFunction resolves call.Name in the context's function registry,
// user-defined scopes first then the native table, per spec.md §4.3.
// Registry keys match the invocation spelling verbatim: a ValueFunction
// call keeps its sigil ("$trim"), matching how RegisterBuiltins installs
// it.
func CallFunction(ctx *Context, call syntax.Call) (Variable, error) {
	args := make([]Variable, 0, len(call.Args))
	for _, a := range call.Args {
		val, err := GetValue(a, ctx)
		if err != nil {
			return Variable{}, err
		}
		args = append(args, val)
	}

	bare := strings.TrimPrefix(strings.TrimPrefix(call.Name, "$"), "@")
	if fn, ok := ctx.LookupUserFunc(bare); ok {
		return callUserFunc(ctx, fn, args)
	}
	if nf, ok := ctx.Native[call.Name]; ok {
		return nf.Func(ctx, args)
	}
	return Variable{}, xerrors.Errorf("rush: unknown function %q", call.Name)
}

// callUserFunc is the one spec.md §4.3 explicitly permits to be a stub:
// "User-defined: not required by v1 (may fail with 'not implemented')."
func callUserFunc(_ *Context, fn *syntax.FunctionDefinition, _ []Variable) (Variable, error) {
	return Variable{}, xerrors.Errorf("rush: user-defined function %q is not implemented", fn.Name)
}

// evalSubstitution implements spec.md §4.3's command-substitution value
// evaluation: a fresh pipe's writer feeds the body's stdout, a goroutine
// drains the reader concurrently with the body running (paired via
// errgroup, per SPEC_FULL.md §3 — the two suspension points spec.md §5
// names: waiting on child processes and reading/writing the pipe), the
// result's trailing newline is preserved per SPEC_FULL.md §7.
func evalSubstitution(ctx *Context, body []syntax.Expression) (Variable, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return Variable{}, xerrors.Errorf("command substitution: %w", err)
	}

	ctx.PushScope()
	ctx.Top().Stdout = w
	ctx.Top().track(w)

	var g errgroup.Group
	var buf bytes.Buffer
	g.Go(func() error {
		_, err := io.Copy(&buf, r)
		r.Close()
		return err
	})

	res, execErr := ExecSequence(ctx, body)
	popped := ctx.PopScope()
	var runErr error
	if execErr == nil {
		_, runErr = res.run(ctx, popped.opened)
	} else {
		// Still close our copy of the writer so the reader goroutine sees
		// EOF instead of hanging forever on a build-up error.
		for _, c := range popped.opened {
			c.Close()
		}
	}
	readErr := g.Wait()

	if execErr != nil {
		return Variable{}, execErr
	}
	if runErr != nil {
		return Variable{}, runErr
	}
	if readErr != nil {
		return Variable{}, xerrors.Errorf("command substitution: %w", readErr)
	}
	return NewString(buf.String()), nil
}
