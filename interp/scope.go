// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"io"

	"github.com/danbulant/rush/syntax"
)

// Scope is one layer of the Context's stack, per spec.md §3: variable and
// user-function bindings, stream overrides, and the handles this scope
// itself opened (closed once the pipeline they feed has been spawned — see
// ExecResult.closeAfterSpawn and DESIGN.md's note on deferred-close timing).
type Scope struct {
	Vars  map[string]Variable
	Funcs map[string]*syntax.FunctionDefinition

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	opened []io.Closer
}

func newScope() *Scope {
	return &Scope{
		Vars:  map[string]Variable{},
		Funcs: map[string]*syntax.FunctionDefinition{},
	}
}

// track records a handle this scope created (a pipe end or an opened file)
// so the construct that pushed this scope can fold it into the resulting
// ExecResult's closeAfterSpawn list once popped.
func (s *Scope) track(c io.Closer) {
	s.opened = append(s.opened, c)
}
