// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"fmt"
	"io"

	"github.com/danbulant/rush/syntax"
)

// ExitStatus is a non-zero status code resulting from running a Rush
// program, mirroring the teacher's interp.ExitStatus: cmd/rush unwraps it
// with errors.As to set the process exit code without special-casing it
// among ordinary runtime errors.
type ExitStatus int

func (s ExitStatus) Error() string { return fmt.Sprintf("exit status %d", s) }

// A Runner interprets Rush programs. It owns one Context and can be reused
// across several Run calls in an interactive session (cmd/rush calls Run
// once per input line, per spec.md §6's REPL description).
type Runner struct {
	ctx *Context
}

// RunnerOption configures a Runner at construction time, mirroring the
// teacher's functional-option RunnerOption shape (interp.Env, interp.StdIO,
// interp.Interactive).
type RunnerOption func(*Runner)

// StdIO sets the root stdin/stdout/stderr streams a Runner falls back to
// when no scope override is active.
func StdIO(stdin io.Reader, stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) {
		r.ctx.RootStdin = stdin
		r.ctx.RootStdout = stdout
		r.ctx.RootStderr = stderr
	}
}

// New builds a Runner with a fresh Context (one root scope, the process
// environment snapshotted into exports, the built-in registry installed),
// per spec.md §3's Context lifecycle.
func New(opts ...RunnerOption) *Runner {
	r := &Runner{ctx: NewContext()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Context exposes the Runner's underlying Context, mainly for tests that
// want to assert on scope depth or break counters directly.
func (r *Runner) Context() *Context { return r.ctx }

// Run executes f's top-level statement sequence and returns the exit code
// recorded by its last statement (default 0, per spec.md §6). A non-zero
// code is also returned wrapped as ExitStatus so callers that only check
// the error can still detect failure.
func (r *Runner) Run(f *syntax.File) (int, error) {
	res, err := ExecSequence(r.ctx, f.Exprs)
	if err != nil {
		return 1, err
	}
	code, err := res.Run(r.ctx)
	if err != nil {
		return 1, err
	}
	if code != 0 {
		return code, ExitStatus(code)
	}
	return 0, nil
}
