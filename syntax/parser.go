// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"github.com/danbulant/rush/token"
	"golang.org/x/xerrors"
)

// ParseError is a tree-builder failure, positioned at the offending token.
type ParseError struct {
	Pos     token.Pos
	Message string
}

func (e *ParseError) Error() string {
	return xerrors.Errorf("rush:%d: %s", e.Pos, e.Message).Error()
}

// parser is a cursor over an already-lexed token stream. It has no internal
// notion of "the end of input" beyond whatever bound its caller passes in:
// every routine takes an explicit end index, the exclusive upper bound used
// to scope parenthesised and command-substitution regions, per spec.md §4.2.
type parser struct {
	toks []token.Token
	i    int
}

// Parse runs the recursive-descent tree builder over a token stream
// produced by Lex, returning the root File or the first ParseError.
func Parse(toks []token.Token) (*File, error) {
	p := &parser{toks: toks}
	end := len(toks)
	f := &File{}
	for {
		p.skipSeparators(end)
		if p.i >= end {
			break
		}
		if k := p.toks[p.i].Kind; k == token.End || k == token.Else {
			return nil, p.errorf("unexpected %s", k)
		}
		e, err := p.parseExpression(end)
		if err != nil {
			return nil, err
		}
		f.Exprs = append(f.Exprs, e)
	}
	return f, nil
}

func (p *parser) errorf(format string, args ...any) error {
	pos := token.Pos(0)
	if p.i < len(p.toks) {
		pos = p.toks[p.i].Start
	}
	return &ParseError{Pos: pos, Message: xerrors.Errorf(format, args...).Error()}
}

func (p *parser) skipSpaceOnly(end int) {
	for p.i < end && p.toks[p.i].Kind == token.Space {
		p.i++
	}
}

func (p *parser) skipSeparators(end int) {
	for p.i < end && (p.toks[p.i].Kind == token.Space || p.toks[p.i].Kind == token.CommandEnd) {
		p.i++
	}
}

// findMatchingParen returns the index of the ParenthesisEnd matching the
// ParenthesisStart or SubStart token at openIdx, scanning no further than
// end.
func (p *parser) findMatchingParen(openIdx, end int) (int, error) {
	depth := 1
	i := openIdx + 1
	for i < end {
		switch p.toks[i].Kind {
		case token.ParenthesisStart, token.SubStart:
			depth++
		case token.ParenthesisEnd:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
		i++
	}
	return -1, p.errorf("unbalanced parentheses")
}

// --- Expression parsing: statement-separator > &&/|| > | > redirects > command ---

func (p *parser) parseExpression(end int) (Expression, error) {
	e, err := p.parseAndOr(end)
	if err != nil {
		return nil, err
	}
	p.skipSpaceOnly(end)
	if p.i < end && p.toks[p.i].Kind == token.JobCommandEnd {
		p.i++
		return &JobCommand{Inner: e}, nil
	}
	return e, nil
}

func (p *parser) parseAndOr(end int) (Expression, error) {
	left, err := p.parsePipe(end)
	if err != nil {
		return nil, err
	}
	p.skipSpaceOnly(end)
	if p.i < end {
		switch p.toks[p.i].Kind {
		case token.And:
			p.i++
			p.skipSpaceOnly(end)
			right, err := p.parseAndOr(end)
			if err != nil {
				return nil, err
			}
			return &AndExpression{LHS: left, RHS: right}, nil
		case token.Or:
			p.i++
			p.skipSpaceOnly(end)
			right, err := p.parseAndOr(end)
			if err != nil {
				return nil, err
			}
			return &OrExpression{LHS: left, RHS: right}, nil
		}
	}
	return left, nil
}

func (p *parser) parsePipe(end int) (Expression, error) {
	left, err := p.parseRedirected(end)
	if err != nil {
		return nil, err
	}
	p.skipSpaceOnly(end)
	if p.i < end && p.toks[p.i].Kind == token.RedirectInto {
		p.i++
		p.skipSpaceOnly(end)
		right, err := p.parsePipe(end)
		if err != nil {
			return nil, err
		}
		return &RedirectTargetExpression{Source: left, Target: right}, nil
	}
	return left, nil
}

// parseRedirected wraps a primary expression in any immediately following
// `>`/`<` redirects. A bare `< file` with no preceding command is valid and
// leaves FileSourceExpression.Target nil (the executor defaults it to a
// `less` invocation, per spec.md §4.3).
func (p *parser) parseRedirected(end int) (Expression, error) {
	var base Expression
	if !(p.i < end && p.toks[p.i].Kind == token.FileRead) {
		b, err := p.parsePrimary(end)
		if err != nil {
			return nil, err
		}
		base = b
	}

loop:
	for p.i < end {
		p.skipSpaceOnly(end)
		if p.i >= end {
			break
		}
		switch p.toks[p.i].Kind {
		case token.FileWrite:
			if base == nil {
				return nil, p.errorf("missing redirect source for '>'")
			}
			p.i++
			p.skipSpaceOnly(end)
			val, ok, err := p.parseValue(end, true)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, p.errorf("expected file target after '>'")
			}
			base = &FileTargetExpression{Source: base, Target: val}
		case token.FileRead:
			p.i++
			p.skipSpaceOnly(end)
			val, ok, err := p.parseValue(end, true)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, p.errorf("expected file source after '<'")
			}
			base = &FileSourceExpression{Source: val, Target: base}
		default:
			break loop
		}
	}
	return base, nil
}

func (p *parser) parsePrimary(end int) (Expression, error) {
	if p.i >= end {
		return nil, p.errorf("unexpected end of input")
	}
	switch p.toks[p.i].Kind {
	case token.Let:
		return p.parseLet(end)
	case token.If:
		return p.parseIf(end)
	case token.While:
		return p.parseWhile(end)
	case token.For:
		return p.parseFor(end)
	case token.Function:
		return p.parseFunction(end)
	case token.Break:
		return p.parseBreak(end)
	case token.ParenthesisStart:
		matching, err := p.findMatchingParen(p.i, end)
		if err != nil {
			return nil, err
		}
		p.i++
		body, err := p.parseBlock(matching)
		if err != nil {
			return nil, err
		}
		p.i = matching + 1
		return &ExpressionsStmt{Body: body}, nil
	case token.End:
		return nil, p.errorf("unexpected 'end'")
	case token.Else:
		return nil, p.errorf("unexpected 'else'")
	default:
		return p.parseCall(end)
	}
}

// parseBlock parses a sequence of expressions up to the exact bound end,
// used for parenthesised groups and command-substitution bodies.
func (p *parser) parseBlock(end int) ([]Expression, error) {
	var exprs []Expression
	for {
		p.skipSeparators(end)
		if p.i >= end {
			break
		}
		e, err := p.parseAndOr(end)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

// parseBody parses a sequence of expressions until an unconsumed End or
// Else token (left for the caller to consume), used for if/while/for bodies.
// Nested constructs consume their own End before returning, so this loop
// only ever sees an End/Else that belongs to the enclosing construct.
func (p *parser) parseBody(end int) ([]Expression, error) {
	var exprs []Expression
	for {
		p.skipSeparators(end)
		if p.i >= end {
			return nil, p.errorf("missing 'end'")
		}
		switch p.toks[p.i].Kind {
		case token.End, token.Else:
			return exprs, nil
		}
		e, err := p.parseAndOr(end)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
}

func (p *parser) parseLet(end int) (Expression, error) {
	p.i++ // Let
	p.skipSpaceOnly(end)
	// The key is read only up to the *top-level* '=' (depth 0 w.r.t.
	// parens/arrays/substitutions): unlike every other value-reading
	// context, '=' is never a literal fragment here, so the bound is
	// found up front rather than relying on parseValue's fragment rules.
	eqIdx, err := p.findTopLevelExportSet(end)
	if err != nil {
		return nil, err
	}
	key, ok, err := p.parseValue(eqIdx, true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.errorf("let: expected a key")
	}
	p.i = eqIdx + 1 // consume '='
	p.skipSpaceOnly(end)
	val, ok, err := p.parseValue(end, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.errorf("let: expected a value")
	}
	return &LetExpression{Key: key, Value: val}, nil
}

// findTopLevelExportSet finds the next '=' token not nested inside a
// parenthesised group, array literal, or command substitution.
func (p *parser) findTopLevelExportSet(end int) (int, error) {
	depth := 0
	for i := p.i; i < end; i++ {
		switch p.toks[i].Kind {
		case token.ParenthesisStart, token.SubStart, token.ArrayStart:
			depth++
		case token.ParenthesisEnd, token.ArrayEnd:
			depth--
		case token.ExportSet:
			if depth == 0 {
				return i, nil
			}
		}
	}
	return -1, p.errorf("let: expected '='")
}

func (p *parser) parseIf(end int) (Expression, error) {
	p.i++ // If
	p.skipSpaceOnly(end)
	cond, err := p.parseAndOr(end)
	if err != nil {
		return nil, err
	}
	p.skipSeparators(end)
	contents, err := p.parseBody(end)
	if err != nil {
		return nil, err
	}

	var elseContents []Expression
	if p.i < end && p.toks[p.i].Kind == token.Else {
		p.i++
		p.skipSeparators(end)
		if p.i < end && p.toks[p.i].Kind == token.If {
			nested, err := p.parseIf(end)
			if err != nil {
				return nil, err
			}
			return &IfExpression{Condition: cond, Contents: contents, ElseContents: []Expression{nested}}, nil
		}
		elseContents, err = p.parseBody(end)
		if err != nil {
			return nil, err
		}
	}

	if p.i >= end || p.toks[p.i].Kind != token.End {
		return nil, p.errorf("expected 'end'")
	}
	p.i++
	return &IfExpression{Condition: cond, Contents: contents, ElseContents: elseContents}, nil
}

func (p *parser) parseWhile(end int) (Expression, error) {
	p.i++ // While
	p.skipSpaceOnly(end)
	cond, err := p.parseAndOr(end)
	if err != nil {
		return nil, err
	}
	p.skipSeparators(end)
	contents, err := p.parseBody(end)
	if err != nil {
		return nil, err
	}
	if p.i >= end || p.toks[p.i].Kind != token.End {
		return nil, p.errorf("expected 'end'")
	}
	p.i++
	return &WhileExpression{Condition: cond, Contents: contents}, nil
}

func (p *parser) parseFor(end int) (Expression, error) {
	p.i++ // For
	p.skipSpaceOnly(end)
	if p.i >= end || p.toks[p.i].Kind != token.Literal {
		return nil, p.errorf("for: expected a loop variable name")
	}
	first := p.toks[p.i].Val
	p.i++
	p.skipSpaceOnly(end)
	if p.i >= end {
		return nil, p.errorf("for: expected 'in'")
	}

	var argKey, argValue Value
	if p.toks[p.i].Kind == token.Literal && p.toks[p.i].Val == "in" {
		p.i++
		argValue = &Literal{Str: first}
	} else if p.toks[p.i].Kind == token.Literal {
		second := p.toks[p.i].Val
		p.i++
		p.skipSpaceOnly(end)
		if p.i >= end || p.toks[p.i].Kind != token.Literal || p.toks[p.i].Val != "in" {
			return nil, p.errorf("for: expected 'in'")
		}
		p.i++
		argKey = &Literal{Str: first}
		argValue = &Literal{Str: second}
	} else {
		return nil, p.errorf("for: expected a loop variable name or 'in'")
	}

	p.skipSpaceOnly(end)
	list, ok, err := p.parseValue(end, true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.errorf("for: expected a list")
	}
	p.skipSeparators(end)
	contents, err := p.parseBody(end)
	if err != nil {
		return nil, err
	}

	var elseContents []Expression
	if p.i < end && p.toks[p.i].Kind == token.Else {
		p.i++
		p.skipSeparators(end)
		elseContents, err = p.parseBody(end)
		if err != nil {
			return nil, err
		}
	}

	if p.i >= end || p.toks[p.i].Kind != token.End {
		return nil, p.errorf("expected 'end'")
	}
	p.i++
	return &ForExpression{ArgValue: argValue, ArgKey: argKey, List: list, Contents: contents, ElseContents: elseContents}, nil
}

func (p *parser) parseFunction(end int) (Expression, error) {
	p.i++ // Function (fn)
	p.skipSpaceOnly(end)
	if p.i >= end || p.toks[p.i].Kind != token.Literal {
		return nil, p.errorf("fn: expected a function name")
	}
	name := p.toks[p.i].Val
	p.i++
	p.skipSpaceOnly(end)
	if p.i >= end || p.toks[p.i].Kind != token.ParenthesisStart {
		return nil, p.errorf("fn: expected '('")
	}
	p.i++
	p.skipSpaceOnly(end)
	var args []string
	for p.i < end && p.toks[p.i].Kind != token.ParenthesisEnd {
		if p.toks[p.i].Kind != token.Literal {
			return nil, p.errorf("fn: expected a parameter name")
		}
		args = append(args, p.toks[p.i].Val)
		p.i++
		p.skipSpaceOnly(end)
	}
	if p.i >= end {
		return nil, p.errorf("fn: unterminated parameter list")
	}
	p.i++ // ')'
	p.skipSeparators(end)
	body, err := p.parseBody(end)
	if err != nil {
		return nil, err
	}
	if p.i >= end || p.toks[p.i].Kind != token.End {
		return nil, p.errorf("expected 'end'")
	}
	p.i++
	return &Function{Def: FunctionDefinition{Name: name, Args: args, Body: body}}, nil
}

func (p *parser) parseBreak(end int) (Expression, error) {
	p.i++ // Break
	p.skipSpaceOnly(end)
	var num Value
	if p.i < end {
		v, ok, err := p.parseValue(end, true)
		if err != nil {
			return nil, err
		}
		if ok {
			num = v
		}
	}
	return &BreakExpression{Num: num}, nil
}

// parseCall parses a non-empty sequence of whitespace-separated words into a
// Command, per spec.md §4.2's parse_call.
func (p *parser) parseCall(end int) (Expression, error) {
	var vals []CommandValue
	for p.i < end {
		v, ok, err := p.parseValue(end, true)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		vals = append(vals, CommandValue{Value: v})
		if p.i < end && p.toks[p.i].Kind == token.Space {
			p.i++
			continue
		}
		break
	}
	if len(vals) == 0 {
		return nil, p.errorf("expected a command")
	}
	return &Command{Values: vals}, nil
}

// --- Value parsing ---

// parseValue reads one Value: a run of adjacent fragments (Literal,
// variable references, calls, substitutions, array literals) with no
// separating Space, per spec.md §3's Values concatenation rule.
//
// When stopOnSpace is true, a Space token ends the value (used for call
// arguments, array elements, and the let key). When false, a Space is
// folded into the value as a literal " " and reading continues to end
// (used for the let value, matching spec.md §4.2's "read the value Value to
// end").
//
// ok is false when no fragment was found at the current position at all —
// callers use this to distinguish "nothing here" from a parse error.
func (p *parser) parseValue(end int, stopOnSpace bool) (Value, bool, error) {
	var parts []Value
	for p.i < end {
		if p.toks[p.i].Kind == token.Space {
			if stopOnSpace {
				break
			}
			parts = append(parts, &Literal{Str: " "})
			p.i++
			continue
		}
		frag, ok, err := p.parseValueFragment(end)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			break
		}
		parts = append(parts, frag)
	}
	switch len(parts) {
	case 0:
		return nil, false, nil
	case 1:
		return parts[0], true, nil
	default:
		return &Values{Parts: parts}, true, nil
	}
}

func (p *parser) parseValueFragment(end int) (Value, bool, error) {
	tok := p.toks[p.i]
	switch tok.Kind {
	case token.Literal:
		p.i++
		return &Literal{Str: tok.Val}, true, nil
	case token.StringVariable:
		p.i++
		return &Variable{Name: tok.Val}, true, nil
	case token.ArrayVariable:
		p.i++
		return &ArrayVariable{Name: tok.Val}, true, nil
	case token.StringFunction, token.ArrayFunction:
		sigil := "$"
		if tok.Kind == token.ArrayFunction {
			sigil = "@"
		}
		p.i++
		args, err := p.parseCallArgs(end)
		if err != nil {
			return nil, false, err
		}
		return &ValueFunction{Call: Call{Name: sigil + tok.Val, Args: args}}, true, nil
	case token.SubStart:
		matching, err := p.findMatchingParen(p.i, end)
		if err != nil {
			return nil, false, err
		}
		p.i++
		body, err := p.parseBlock(matching)
		if err != nil {
			return nil, false, err
		}
		p.i = matching + 1
		return &Expressions{Body: body}, true, nil
	case token.ArrayStart:
		p.i++
		items, err := p.parseArrayItems(end)
		if err != nil {
			return nil, false, err
		}
		return &ArrayDefinition{Items: items}, true, nil
	case token.ExportSet:
		// Outside parseLet's key scan, '=' is just a literal character —
		// needed for bare commands like `export NAME = value` and
		// `test 1 = 1`. parseLet finds its '=' before ever calling here.
		p.i++
		return &Literal{Str: "="}, true, nil
	default:
		return nil, false, nil
	}
}

func (p *parser) parseCallArgs(end int) ([]Value, error) {
	p.skipSpaceOnly(end)
	var args []Value
	for {
		if p.i >= end {
			return nil, p.errorf("unterminated call, expected ')'")
		}
		if p.toks[p.i].Kind == token.ParenthesisEnd {
			p.i++
			return args, nil
		}
		v, ok, err := p.parseValue(end, true)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, p.errorf("expected an argument or ')'")
		}
		args = append(args, v)
		p.skipSpaceOnly(end)
	}
}

func (p *parser) parseArrayItems(end int) ([]Value, error) {
	p.skipSpaceOnly(end)
	var items []Value
	for {
		if p.i >= end {
			return nil, p.errorf("unterminated array literal, expected ']'")
		}
		if p.toks[p.i].Kind == token.ArrayEnd {
			p.i++
			return items, nil
		}
		v, ok, err := p.parseValue(end, true)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, p.errorf("expected an array element or ']'")
		}
		items = append(items, v)
		p.skipSpaceOnly(end)
	}
}
