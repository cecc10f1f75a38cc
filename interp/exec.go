// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/danbulant/rush/syntax"
	"golang.org/x/xerrors"
)

// ExecResult is a list of not-yet-spawned process descriptors, per
// spec.md's glossary: "spawning and waiting is deferred to the outer
// driver." immediate is set instead of cmds when a node resolved to a
// native-function invocation that already ran synchronously (a builtin
// invoked as a bare command, e.g. `test 1 = 1`).
type ExecResult struct {
	cmds            []*exec.Cmd
	closeAfterSpawn []io.Closer
	immediate       *int
}

// Run spawns every pending command in order, then waits on each in order
// (spec.md §4.3), recording the final waited exit code into "?".
func (r ExecResult) Run(ctx *Context) (int, error) {
	return r.run(ctx, nil)
}

// run is Run plus a list of additional handles (a command-substitution's
// own pipe ends) to close once every command has been started — the same
// deferred-close point ordinary pipes and file redirects use.
func (r ExecResult) run(ctx *Context, extraClose []io.Closer) (int, error) {
	if r.immediate != nil {
		closeAll(extraClose)
		ctx.SetVar("?", NewI32(int32(*r.immediate)))
		return *r.immediate, nil
	}
	if len(r.cmds) == 0 {
		closeAll(extraClose)
		return 0, nil
	}
	for _, c := range r.cmds {
		if err := c.Start(); err != nil {
			closeAll(r.closeAfterSpawn)
			closeAll(extraClose)
			return 127, xerrors.Errorf("%s: %w", c.Path, err)
		}
	}
	// Once every stage of the pipeline is spawned, the parent's copies of
	// any pipe/file handles it opened for them are dropped (spec.md §5:
	// "the parent's copies are dropped so the child side sees EOF when its
	// peer exits"), before any Wait — this is what lets pipes close the
	// streaming loop.
	closeAll(r.closeAfterSpawn)
	closeAll(extraClose)

	code := 0
	for _, c := range r.cmds {
		code = exitCodeFromWaitErr(c.Wait())
	}
	ctx.SetVar("?", NewI32(int32(code)))
	return code, nil
}

func closeAll(cs []io.Closer) {
	for _, c := range cs {
		c.Close()
	}
}

func exitCodeFromWaitErr(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 1
}

// Exec evaluates a syntax.Expression, per spec.md §4.3. Like GetValue, this
// is a type switch rather than methods on syntax's node types.
func Exec(e syntax.Expression, ctx *Context) (ExecResult, error) {
	switch n := e.(type) {
	case *syntax.LetExpression:
		return execLet(n, ctx)
	case *syntax.Command:
		return execCommand(n, ctx)
	case *syntax.Function:
		return execFunction(n, ctx)
	case *syntax.IfExpression:
		return execIf(n, ctx)
	case *syntax.WhileExpression:
		return execWhile(n, ctx)
	case *syntax.ForExpression:
		return execFor(n, ctx)
	case *syntax.RedirectTargetExpression:
		return execPipe(n, ctx)
	case *syntax.FileTargetExpression:
		return execFileTarget(n, ctx)
	case *syntax.FileSourceExpression:
		return execFileSource(n, ctx)
	case *syntax.AndExpression:
		return execAnd(n, ctx)
	case *syntax.OrExpression:
		return execOr(n, ctx)
	case *syntax.BreakExpression:
		return execBreak(n, ctx)
	case *syntax.ExpressionsStmt:
		return ExecSequence(ctx, n.Body)
	case *syntax.JobCommand:
		return Exec(n.Inner, ctx)
	default:
		return ExecResult{}, xerrors.Errorf("rush: cannot execute %T", e)
	}
}

// ExecSequence runs a block of expressions, waiting on each one's
// ExecResult before proceeding to the next except the final one, whose
// ExecResult is returned unwaited so a block composes as a single command
// in a pipeline (spec.md §4.3's "Sequence"). A non-zero BreakNum short
// circuits every remaining statement to the empty ExecResult (spec.md
// §4.3's break semantics).
func ExecSequence(ctx *Context, exprs []syntax.Expression) (ExecResult, error) {
	for i, e := range exprs {
		if ctx.BreakNum > 0 {
			return ExecResult{}, nil
		}
		res, err := Exec(e, ctx)
		if err != nil {
			return ExecResult{}, err
		}
		if i == len(exprs)-1 {
			return res, nil
		}
		if _, err := res.Run(ctx); err != nil {
			return ExecResult{}, err
		}
	}
	return ExecResult{}, nil
}

func execLet(n *syntax.LetExpression, ctx *Context) (ExecResult, error) {
	key, err := GetValue(n.Key, ctx)
	if err != nil {
		return ExecResult{}, err
	}
	val, err := GetValue(n.Value, ctx)
	if err != nil {
		return ExecResult{}, err
	}
	ctx.SetVar(key.String(), val)
	return ExecResult{}, nil
}

// execCommand implements spec.md §4.3's command execution: the first
// CommandValue is the program name, the rest are arguments. A name
// matching a registered NativeFunction runs synchronously in place of an
// external process (required for `test`/`true`/`false`/`export`/`typeof`
// to work as bare command words — see SPEC_FULL.md §6/DESIGN.md).
func execCommand(n *syntax.Command, ctx *Context) (ExecResult, error) {
	if len(n.Values) == 0 {
		return ExecResult{}, xerrors.New("rush: empty command")
	}
	nameVar, err := GetValue(n.Values[0].Value, ctx)
	if err != nil {
		return ExecResult{}, err
	}
	name := nameVar.String()

	argVars := make([]Variable, 0, len(n.Values)-1)
	for _, cv := range n.Values[1:] {
		v, err := GetValue(cv.Value, ctx)
		if err != nil {
			return ExecResult{}, err
		}
		argVars = append(argVars, v)
	}

	if nf, ok := ctx.Native[name]; ok {
		result, err := nf.Func(ctx, argVars)
		if err != nil {
			return ExecResult{}, err
		}
		code := 0
		if iv, ok := result.AsInt(); ok {
			code = int(iv)
		}
		return ExecResult{immediate: &code}, nil
	}

	args := make([]string, len(argVars))
	for i, v := range argVars {
		args[i] = v.String()
	}
	cmd := exec.Command(name, args...)
	cmd.Stdin = ctx.effectiveStdin()
	cmd.Stdout = ctx.effectiveStdout()
	cmd.Stderr = ctx.effectiveStderr()
	cmd.Env = ctx.ExportsEnviron()
	return ExecResult{cmds: []*exec.Cmd{cmd}}, nil
}

func execFunction(n *syntax.Function, ctx *Context) (ExecResult, error) {
	def := n.Def
	ctx.DefineFunc(&def)
	return ExecResult{}, nil
}

func execIf(n *syntax.IfExpression, ctx *Context) (ExecResult, error) {
	ctx.PushScope()
	condRes, err := Exec(n.Condition, ctx)
	if err != nil {
		ctx.PopScope()
		return ExecResult{}, err
	}
	code, err := condRes.Run(ctx)
	if err != nil {
		ctx.PopScope()
		return ExecResult{}, err
	}
	body := n.Contents
	if code != 0 {
		body = n.ElseContents
	}
	res, err := ExecSequence(ctx, body)
	popped := ctx.PopScope()
	if err != nil {
		return ExecResult{}, err
	}
	res.closeAfterSpawn = append(res.closeAfterSpawn, popped.opened...)
	return res, nil
}

// execWhile implements spec.md §4.3's while loop plus §4.3's break
// propagation: after running the body, a non-zero BreakNum decrements by
// one and stops this loop, letting the decremented count keep unwinding
// through however many more enclosing loops it names.
func execWhile(n *syntax.WhileExpression, ctx *Context) (ExecResult, error) {
	for {
		ctx.PushScope()
		condRes, err := Exec(n.Condition, ctx)
		if err != nil {
			ctx.PopScope()
			return ExecResult{}, err
		}
		code, err := condRes.Run(ctx)
		if err != nil {
			ctx.PopScope()
			return ExecResult{}, err
		}
		if code != 0 {
			ctx.PopScope()
			return ExecResult{}, nil
		}
		bodyRes, err := ExecSequence(ctx, n.Contents)
		if err != nil {
			ctx.PopScope()
			return ExecResult{}, err
		}
		if _, err := bodyRes.Run(ctx); err != nil {
			ctx.PopScope()
			return ExecResult{}, err
		}
		ctx.PopScope()
		if ctx.BreakNum > 0 {
			ctx.BreakNum--
			return ExecResult{}, nil
		}
	}
}

// execFor implements spec.md §4.3's for loop: an Array yields its elements
// in order, any other value yields its stringified characters one at a
// time, an empty iterable runs the else-body, and the index/value are
// rebound in a fresh scope each iteration.
func execFor(n *syntax.ForExpression, ctx *Context) (ExecResult, error) {
	listVar, err := GetValue(n.List, ctx)
	if err != nil {
		return ExecResult{}, err
	}
	var elems []Variable
	if arr, ok := listVar.AsArray(); ok {
		elems = arr
	} else {
		for _, r := range listVar.String() {
			elems = append(elems, NewString(string(r)))
		}
	}

	if len(elems) == 0 {
		res, err := ExecSequence(ctx, n.ElseContents)
		if err != nil {
			return ExecResult{}, err
		}
		if _, err := res.Run(ctx); err != nil {
			return ExecResult{}, err
		}
		return ExecResult{}, nil
	}

	var keyName string
	if n.ArgKey != nil {
		kv, err := GetValue(n.ArgKey, ctx)
		if err != nil {
			return ExecResult{}, err
		}
		keyName = kv.String()
	}
	valName, err := GetValue(n.ArgValue, ctx)
	if err != nil {
		return ExecResult{}, err
	}

	for idx, el := range elems {
		ctx.PushScope()
		if keyName != "" {
			ctx.SetVar(keyName, NewU64(uint64(idx)))
		}
		ctx.SetVar(valName.String(), el)

		bodyRes, err := ExecSequence(ctx, n.Contents)
		if err != nil {
			ctx.PopScope()
			return ExecResult{}, err
		}
		if _, err := bodyRes.Run(ctx); err != nil {
			ctx.PopScope()
			return ExecResult{}, err
		}
		ctx.PopScope()
		if ctx.BreakNum > 0 {
			ctx.BreakNum--
			return ExecResult{}, nil
		}
	}
	return ExecResult{}, nil
}

// execPipe implements spec.md §4.3's pipe construction: one pipe, the
// source's stdout bound to the writer, the target's stdin bound to the
// reader, the two ExecResults merged source-first so multi-stage
// pipelines compose by right-associativity (A | B | C = A | (B | C)).
func execPipe(n *syntax.RedirectTargetExpression, ctx *Context) (ExecResult, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return ExecResult{}, xerrors.Errorf("pipe: %w", err)
	}

	ctx.PushScope()
	ctx.Top().Stdout = w
	ctx.Top().track(w)
	srcRes, srcErr := Exec(n.Source, ctx)
	srcOpened := ctx.PopScope().opened
	if srcErr != nil {
		return ExecResult{}, srcErr
	}

	ctx.PushScope()
	ctx.Top().Stdin = r
	ctx.Top().track(r)
	tgtRes, tgtErr := Exec(n.Target, ctx)
	tgtOpened := ctx.PopScope().opened
	if tgtErr != nil {
		return ExecResult{}, tgtErr
	}

	merged := ExecResult{
		cmds:            append(append([]*exec.Cmd{}, srcRes.cmds...), tgtRes.cmds...),
		closeAfterSpawn: append(append([]io.Closer{}, srcRes.closeAfterSpawn...), tgtRes.closeAfterSpawn...),
	}
	merged.closeAfterSpawn = append(merged.closeAfterSpawn, srcOpened...)
	merged.closeAfterSpawn = append(merged.closeAfterSpawn, tgtOpened...)
	return merged, nil
}

// execFileTarget implements `source > target`: create/truncate the file,
// bind it as the source's stdout override. A nil Source is a parser
// invariant violation (parseRedirected rejects it), not a runtime case.
func execFileTarget(n *syntax.FileTargetExpression, ctx *Context) (ExecResult, error) {
	targetVar, err := GetValue(n.Target, ctx)
	if err != nil {
		return ExecResult{}, err
	}
	path := targetVar.String()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return ExecResult{}, xerrors.Errorf("open %s: %w", path, err)
	}

	ctx.PushScope()
	ctx.Top().Stdout = f
	ctx.Top().track(f)
	res, execErr := Exec(n.Source, ctx)
	popped := ctx.PopScope()
	if execErr != nil {
		return ExecResult{}, execErr
	}
	res.closeAfterSpawn = append(res.closeAfterSpawn, popped.opened...)
	return res, nil
}

// execFileSource implements `source < target`: open the file read-only,
// bind it as stdin for target, defaulting target to `less` when absent
// (spec.md §4.3).
func execFileSource(n *syntax.FileSourceExpression, ctx *Context) (ExecResult, error) {
	sourceVar, err := GetValue(n.Source, ctx)
	if err != nil {
		return ExecResult{}, err
	}
	path := sourceVar.String()
	f, err := os.Open(path)
	if err != nil {
		return ExecResult{}, xerrors.Errorf("open %s: %w", path, err)
	}

	var target syntax.Expression = n.Target
	if target == nil {
		target = &syntax.Command{Values: []syntax.CommandValue{{Value: &syntax.Literal{Str: "less"}}}}
	}

	ctx.PushScope()
	ctx.Top().Stdin = f
	ctx.Top().track(f)
	res, execErr := Exec(target, ctx)
	popped := ctx.PopScope()
	if execErr != nil {
		return ExecResult{}, execErr
	}
	res.closeAfterSpawn = append(res.closeAfterSpawn, popped.opened...)
	return res, nil
}

func execAnd(n *syntax.AndExpression, ctx *Context) (ExecResult, error) {
	lhsRes, err := Exec(n.LHS, ctx)
	if err != nil {
		return ExecResult{}, err
	}
	code, err := lhsRes.Run(ctx)
	if err != nil {
		return ExecResult{}, err
	}
	if code == 0 {
		return Exec(n.RHS, ctx)
	}
	return ExecResult{}, nil
}

func execOr(n *syntax.OrExpression, ctx *Context) (ExecResult, error) {
	lhsRes, err := Exec(n.LHS, ctx)
	if err != nil {
		return ExecResult{}, err
	}
	code, err := lhsRes.Run(ctx)
	if err != nil {
		return ExecResult{}, err
	}
	if code != 0 {
		return Exec(n.RHS, ctx)
	}
	return ExecResult{}, nil
}

func execBreak(n *syntax.BreakExpression, ctx *Context) (ExecResult, error) {
	num := uint(1)
	if n.Num != nil {
		v, err := GetValue(n.Num, ctx)
		if err != nil {
			return ExecResult{}, err
		}
		iv, ok := v.AsInt()
		if !ok {
			// `break 2` parses its count as a literal word, i.e. a String.
			if u, err := strconv.ParseUint(strings.TrimSpace(v.String()), 10, 64); err == nil {
				iv, ok = int64(u), true
			}
		}
		if ok && iv > 0 {
			num = uint(iv)
		}
	}
	ctx.BreakNum = num
	return ExecResult{}, nil
}
