// Copyright (c) 2018, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package expand implements the Environ contract spec.md §6 describes as
// "exports: name→Variable (OS environment mirror)": a small interface over
// a name/value table, grounded on the teacher's expand.Environ/WriteEnviron
// split (expand/environ.go) but narrowed to Rush's export values, which
// (like a real OS environment) are always plain strings.
package expand

import "strings"

// Variable is one entry in an Environ. Set distinguishes "never assigned"
// from "assigned the empty string", mirroring the teacher's
// expand.Variable.IsSet contract.
type Variable struct {
	Set   bool
	Value string
}

// Environ is the base interface for Rush's exports table: fetch by name,
// iterate over everything currently set.
type Environ interface {
	Get(name string) Variable
	Each(func(name string, v Variable) bool)
}

// WriteEnviron extends Environ with Set, used by `let env::NAME = ...` and
// the `export` builtin (spec.md §4.3, §6).
type WriteEnviron interface {
	Environ
	Set(name string, v Variable)
}

// mapEnviron is the concrete WriteEnviron Rush uses, grounded on the
// teacher's own mapEnviron (expand/environ.go), minus the POSIX attribute
// tracking (NameRef/Indexed/Associative) spec.md has no use for.
type mapEnviron map[string]string

// ListEnviron builds a WriteEnviron from "KEY=VALUE" pairs, the same shape
// os.Environ() returns — used by interp.NewContext to snapshot the process
// environment per spec.md §6.
func ListEnviron(environ ...string) WriteEnviron {
	m := make(mapEnviron, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			m[kv[:i]] = kv[i+1:]
		}
	}
	return m
}

func (m mapEnviron) Get(name string) Variable {
	v, ok := m[name]
	if !ok {
		return Variable{}
	}
	return Variable{Set: true, Value: v}
}

func (m mapEnviron) Each(f func(name string, v Variable) bool) {
	for k, v := range m {
		if !f(k, Variable{Set: true, Value: v}) {
			return
		}
	}
}

func (m mapEnviron) Set(name string, v Variable) {
	if !v.Set {
		delete(m, name)
		return
	}
	m[name] = v.Value
}

// List renders the Environ back into "KEY=VALUE" pairs, suitable for
// exec.Cmd.Env — the inverse of ListEnviron.
func List(env Environ) []string {
	var out []string
	env.Each(func(name string, v Variable) bool {
		if v.Set {
			out = append(out, name+"="+v.Value)
		}
		return true
	})
	return out
}
