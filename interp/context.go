// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"io"
	"os"
	"strings"

	"github.com/danbulant/rush/expand"
	"github.com/danbulant/rush/syntax"
)

// NativeFunction is the built-in protocol spec.md §3/§6 pins down: a name,
// a human-readable description, the formal argument names (documentation
// only — Go doesn't enforce arity from this slice, native bodies check it
// themselves, per original_source/src/nativeFunctions.rs's rush_test), and
// the function body.
type NativeFunction struct {
	Name        string
	Description string
	ArgNames    []string
	Func        func(ctx *Context, args []Variable) (Variable, error)
}

// Context is the executor's mutable state, per spec.md §3: a non-empty
// scope stack, an exports table mirroring the OS environment, the native
// function table, and the break counter. continue_num is part of spec.md's
// data model but no construct in spec.md ever sets it (there is no
// `continue` keyword); it is kept at zero throughout and exists only so
// Context's shape matches the invariant in spec.md §8 ("continue_num == 0"
// after any sequence of statements).
type Context struct {
	scopes []*Scope

	Exports expand.WriteEnviron
	Native  map[string]*NativeFunction

	BreakNum    uint
	ContinueNum uint

	// RootStdin/RootStdout/RootStderr are the fallback streams used when no
	// scope override is in effect — the session's real stdio in
	// interactive/file mode, or whatever a test harness wired up.
	RootStdin  io.Reader
	RootStdout io.Writer
	RootStderr io.Writer
}

// NewContext builds a Context with one root scope, the process environment
// snapshotted into Exports, and the built-in registry installed. The
// snapshot is taken once, here; Exports is not re-read from the process
// environment between REPL lines.
func NewContext() *Context {
	ctx := &Context{
		Exports:    expand.ListEnviron(os.Environ()...),
		Native:     map[string]*NativeFunction{},
		RootStdin:  os.Stdin,
		RootStdout: os.Stdout,
		RootStderr: os.Stderr,
	}
	ctx.scopes = []*Scope{newScope()}
	RegisterBuiltins(ctx)
	return ctx
}

// PushScope pushes a fresh, empty Scope, per spec.md §3: "Scopes are pushed
// before entering any construct that introduces new bindings or
// redirections."
func (ctx *Context) PushScope() *Scope {
	s := newScope()
	ctx.scopes = append(ctx.scopes, s)
	return s
}

// PopScope pops and returns the innermost Scope. Callers fold its opened
// handles into the ExecResult they are building (see Scope.track).
func (ctx *Context) PopScope() *Scope {
	n := len(ctx.scopes)
	s := ctx.scopes[n-1]
	ctx.scopes = ctx.scopes[:n-1]
	return s
}

// Top returns the innermost Scope for direct mutation (setting overrides
// right after PushScope).
func (ctx *Context) Top() *Scope {
	return ctx.scopes[len(ctx.scopes)-1]
}

const envPrefix = "env::"

// GetVar implements spec.md §4.3's Variable(name) lookup: scan the scope
// stack innermost to outermost (original_source/src/parser/vars.rs's
// get_var walks scopes.iter_mut().rev()); a name prefixed "env::" reads
// exports instead. Missing names return the empty String, per spec.md.
func (ctx *Context) GetVar(name string) Variable {
	if strings.HasPrefix(name, envPrefix) {
		if v := ctx.Exports.Get(strings.TrimPrefix(name, envPrefix)); v.Set {
			return NewString(v.Value)
		}
		return NewString("")
	}
	for i := len(ctx.scopes) - 1; i >= 0; i-- {
		if v, ok := ctx.scopes[i].Vars[name]; ok {
			return v
		}
	}
	return NewString("")
}

// GetArrayVar mirrors GetVar for ArrayVariable lookups, defaulting to an
// empty Array rather than an empty String.
func (ctx *Context) GetArrayVar(name string) Variable {
	if strings.HasPrefix(name, envPrefix) {
		if v := ctx.Exports.Get(strings.TrimPrefix(name, envPrefix)); v.Set {
			return NewString(v.Value)
		}
		return NewArray(nil)
	}
	for i := len(ctx.scopes) - 1; i >= 0; i-- {
		if v, ok := ctx.scopes[i].Vars[name]; ok {
			return v
		}
	}
	return NewArray(nil)
}

// SetVar implements spec.md §4.3's let semantics: insert into the innermost
// scope; a key prefixed "env::" is additionally mirrored into exports so
// subsequent child processes see it.
func (ctx *Context) SetVar(key string, val Variable) {
	ctx.scopes[len(ctx.scopes)-1].Vars[key] = val
	if strings.HasPrefix(key, envPrefix) {
		ctx.Exports.Set(strings.TrimPrefix(key, envPrefix), expand.Variable{Set: true, Value: val.String()})
	}
}

// LookupUserFunc scans the scope stack innermost to outermost for a
// user-defined function, mirroring GetVar's lookup order.
func (ctx *Context) LookupUserFunc(name string) (*syntax.FunctionDefinition, bool) {
	for i := len(ctx.scopes) - 1; i >= 0; i-- {
		if fn, ok := ctx.scopes[i].Funcs[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// DefineFunc installs a function definition into the innermost scope.
func (ctx *Context) DefineFunc(def *syntax.FunctionDefinition) {
	ctx.scopes[len(ctx.scopes)-1].Funcs[def.Name] = def
}

// effectiveStdin/Stdout/Stderr implement spec.md §4.3's override lookup:
// "walking scopes outermost-last → innermost ... taking the nearest scope
// override that is set." Walking outermost-first and letting a later match
// overwrite an earlier one yields the same nearest-wins result.
func (ctx *Context) effectiveStdin() io.Reader {
	r := ctx.RootStdin
	for _, s := range ctx.scopes {
		if s.Stdin != nil {
			r = s.Stdin
		}
	}
	return r
}

func (ctx *Context) effectiveStdout() io.Writer {
	w := ctx.RootStdout
	for _, s := range ctx.scopes {
		if s.Stdout != nil {
			w = s.Stdout
		}
	}
	return w
}

func (ctx *Context) effectiveStderr() io.Writer {
	w := ctx.RootStderr
	for _, s := range ctx.scopes {
		if s.Stderr != nil {
			w = s.Stderr
		}
	}
	return w
}

// ExportsEnviron renders Exports as a "KEY=VALUE" slice suitable for
// exec.Cmd.Env.
func (ctx *Context) ExportsEnviron() []string {
	return expand.List(ctx.Exports)
}

// Depth reports the number of scopes currently on the stack. Used by tests
// asserting spec.md §8's "scopes.len() == 1" invariant after a sequence of
// top-level statements.
func (ctx *Context) Depth() int {
	return len(ctx.scopes)
}
