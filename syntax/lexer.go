// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/danbulant/rush/token"
	"golang.org/x/xerrors"
)

// identChar reports whether b is a valid variable-name character, per
// spec.md §6: [A-Za-z0-9:_], plus a trailing '?' handled separately by the
// caller.
func identChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' ||
		b >= '0' && b <= '9' || b == ':' || b == '_'
}

// LexError is a lex-time failure, positioned at the offending byte.
type LexError struct {
	Pos     token.Pos
	Message string
}

func (e *LexError) Error() string {
	return xerrors.Errorf("rush:%d: %s", e.Pos, e.Message).Error()
}

// lexer turns a UTF-8 source buffer into a flat token stream. It carries the
// three mode flags spec.md §4.1 names (singleQuote, doubleQuote, escape)
// plus a rolling literal buffer, mirroring the teacher's byte-at-a-time
// scanner in syntax/lexer.go but operating over the simpler closed Rush
// token set instead of the full bash grammar.
type lexer struct {
	src []byte
	i   int

	singleQuote bool
	doubleQuote bool
	escape      bool

	buf       strings.Builder
	bufStart  token.Pos
	toks      []token.Token
}

// Lex tokenizes src in full, returning the ordered token stream or the first
// LexError encountered.
func Lex(src []byte) ([]token.Token, error) {
	l := &lexer{src: src}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.toks, nil
}

func (l *lexer) errorf(pos token.Pos, format string, args ...any) error {
	return &LexError{Pos: pos, Message: xerrorsSprintf(format, args...)}
}

func xerrorsSprintf(format string, args ...any) string {
	return xerrors.Errorf(format, args...).Error()
}

func (l *lexer) emit(kind token.Kind, val string, start int) {
	l.toks = append(l.toks, token.Token{
		Kind:  kind,
		Val:   val,
		Start: token.Pos(start),
		End:   token.Pos(l.i),
	})
}

// flush emits any buffered literal text as a Literal token, reclassifying it
// to a keyword Kind when it matches one of token.Keywords exactly — spec.md
// §4.1's Tokens::detect step.
func (l *lexer) flush() {
	if l.buf.Len() == 0 {
		return
	}
	s := l.buf.String()
	kind := token.Literal
	if k, ok := token.Keywords[s]; ok {
		kind = k
	}
	l.toks = append(l.toks, token.Token{
		Kind:  kind,
		Val:   s,
		Start: l.bufStart,
		End:   token.Pos(l.i),
	})
	l.buf.Reset()
}

func (l *lexer) run() error {
	for l.i < len(l.src) {
		b := l.src[l.i]

		if l.escape {
			l.writeBuf(b)
			l.escape = false
			l.i++
			continue
		}

		switch {
		case b == '\\' && l.doubleQuote:
			// spec.md §6's double-quote escapes are translated, not just
			// suppressed: \n is a newline byte, not the two bytes '\' 'n'.
			if err := l.lexDoubleQuoteEscape(); err != nil {
				return err
			}
			continue
		case b == '\\' && !l.singleQuote:
			l.escape = true
			l.i++
			continue
		case b == '\'' && !l.doubleQuote:
			l.singleQuote = !l.singleQuote
			l.i++
			continue
		case b == '"' && !l.singleQuote:
			l.doubleQuote = !l.doubleQuote
			l.i++
			continue
		}

		if l.singleQuote {
			l.writeBuf(b)
			l.i++
			continue
		}

		switch b {
		case '#':
			if l.doubleQuote {
				l.writeBuf(b)
				l.i++
				continue
			}
			l.flush()
			for l.i < len(l.src) && l.src[l.i] != '\n' {
				l.i++
			}
			continue
		case '$', '@':
			if err := l.lexVariable(); err != nil {
				return err
			}
			continue
		}

		if l.doubleQuote {
			l.writeBuf(b)
			l.i++
			continue
		}

		switch b {
		case ' ', '\t':
			l.flush()
			start := l.i
			for l.i < len(l.src) && (l.src[l.i] == ' ' || l.src[l.i] == '\t') {
				l.i++
			}
			l.emit(token.Space, "", start)
		case ';', '\n', '\r':
			l.flush()
			start := l.i
			first := b
			for l.i < len(l.src) && (l.src[l.i] == ';' || l.src[l.i] == '\n' || l.src[l.i] == '\r') {
				l.i++
			}
			l.toks = append(l.toks, token.Token{
				Kind:  token.CommandEnd,
				Val:   string(first),
				Start: token.Pos(start),
				End:   token.Pos(l.i),
			})
		case '(':
			l.flush()
			start := l.i
			l.i++
			l.emit(token.ParenthesisStart, "", start)
		case ')':
			l.flush()
			start := l.i
			l.i++
			l.emit(token.ParenthesisEnd, "", start)
		case '[':
			l.flush()
			start := l.i
			l.i++
			l.emit(token.ArrayStart, "", start)
		case ']':
			l.flush()
			start := l.i
			l.i++
			l.emit(token.ArrayEnd, "", start)
		case '=':
			l.flush()
			start := l.i
			l.i++
			l.emit(token.ExportSet, "", start)
		case '<':
			l.flush()
			start := l.i
			l.i++
			l.emit(token.FileRead, "", start)
		case '>':
			l.flush()
			start := l.i
			l.i++
			l.emit(token.FileWrite, "", start)
		case '|':
			l.flush()
			start := l.i
			if l.i+1 < len(l.src) && l.src[l.i+1] == '|' {
				l.i += 2
				l.emit(token.Or, "", start)
			} else {
				l.i++
				l.emit(token.RedirectInto, "", start)
			}
		case '&':
			l.flush()
			start := l.i
			if l.i+1 < len(l.src) && l.src[l.i+1] == '&' {
				l.i += 2
				l.emit(token.And, "", start)
			} else {
				l.i++
				l.emit(token.JobCommandEnd, "", start)
			}
		default:
			l.writeBuf(b)
			l.i++
		}
	}
	if l.singleQuote || l.doubleQuote {
		// spec.md §4.1: unterminated double-quote is not fatal; EOF is the
		// implicit terminator. The same leniency is extended to an
		// unterminated single-quote, for the same reason.
	}
	l.flush()
	return nil
}

func (l *lexer) writeBuf(b byte) {
	if l.buf.Len() == 0 {
		l.bufStart = token.Pos(l.i)
	}
	l.buf.WriteByte(b)
}

func (l *lexer) writeRune(r rune) {
	if l.buf.Len() == 0 {
		l.bufStart = token.Pos(l.i)
	}
	l.buf.WriteRune(r)
}

// lexDoubleQuoteEscape handles a '\' seen while doubleQuote is set, per
// spec.md §6's enumerated escapes (mirroring original_source/src/parser.rs's
// `escape` combinator): \\ \/ \" \b \f \n \r \t translate to their single
// byte, and \uXXXX decodes four hex digits to a codepoint (replacement
// character U+FFFD if the digits don't form a valid one). Anything else
// following a backslash isn't in that table, so both bytes are kept as-is.
func (l *lexer) lexDoubleQuoteEscape() error {
	start := l.i
	if l.i+1 >= len(l.src) {
		l.writeBuf('\\')
		l.i++
		return nil
	}
	c := l.src[l.i+1]
	switch c {
	case '\\', '/', '"':
		l.writeBuf(c)
		l.i += 2
	case 'b':
		l.writeBuf('\b')
		l.i += 2
	case 'f':
		l.writeBuf('\f')
		l.i += 2
	case 'n':
		l.writeBuf('\n')
		l.i += 2
	case 'r':
		l.writeBuf('\r')
		l.i += 2
	case 't':
		l.writeBuf('\t')
		l.i += 2
	case 'u':
		if l.i+6 > len(l.src) {
			return l.errorf(token.Pos(start), "incomplete \\u escape")
		}
		hex := string(l.src[l.i+2 : l.i+6])
		r := rune(0xFFFD)
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil && utf8.ValidRune(rune(v)) {
			r = rune(v)
		}
		l.writeRune(r)
		l.i += 6
	default:
		l.writeBuf('\\')
		l.writeBuf(c)
		l.i += 2
	}
	return nil
}

// lexVariable handles the '$' and '@' forms: StringVariable / ArrayVariable
// (braced or not), and their StringFunction / ArrayFunction call forms, plus
// SubStart ("$(").
func (l *lexer) lexVariable() error {
	sigil := l.src[l.i]
	start := l.i

	if sigil == '$' && l.i+1 < len(l.src) && l.src[l.i+1] == '(' {
		l.flush()
		l.i += 2
		l.emit(token.SubStart, "", start)
		return nil
	}

	if l.i+1 >= len(l.src) {
		// Lone '$' or '@' at EOF: treat as literal text, matching the
		// teacher's tolerance of trailing sigils with no following name.
		l.writeBuf(sigil)
		l.i++
		return nil
	}

	l.flush()
	j := l.i + 1
	braced := l.src[j] == '{'
	if braced {
		j++
	}
	nameStart := j
	for j < len(l.src) {
		c := l.src[j]
		if c == ':' && !braced && j+1 < len(l.src) && (l.src[j+1] == '$' || l.src[j+1] == '@') {
			// A colon directly followed by another variable sigil ends the
			// name instead of being absorbed into it, so "$i:$x" lexes as
			// two variable references joined by a literal ":" rather than
			// one variable named "i:". A colon elsewhere (env:HOME) still
			// belongs to the name.
			break
		}
		if identChar(c) {
			j++
			continue
		}
		if c == '?' && !braced {
			// '?' is only valid as the final identifier character, so it
			// ends the scan rather than being consumed like any other
			// identChar and falling through to look for more after it.
			j++
		}
		break
	}
	name := string(l.src[nameStart:j])
	if braced {
		if j >= len(l.src) || l.src[j] != '}' {
			return l.errorf(token.Pos(j), "invalid variable name")
		}
		j++
	}

	isCall := !braced && !l.doubleQuote && j < len(l.src) && l.src[j] == '('
	if isCall {
		j++
	}

	var kind token.Kind
	switch {
	case sigil == '$' && isCall:
		kind = token.StringFunction
	case sigil == '$':
		kind = token.StringVariable
	case sigil == '@' && isCall:
		kind = token.ArrayFunction
	default:
		kind = token.ArrayVariable
	}

	l.i = j
	l.toks = append(l.toks, token.Token{
		Kind:   kind,
		Val:    name,
		Braced: braced,
		Start:  token.Pos(start),
		End:    token.Pos(l.i),
	})
	return nil
}
