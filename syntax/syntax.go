// Package syntax implements the Rush lexer and recursive-descent tree
// builder: source bytes in, an AST (*File) out, per spec.md §4.1-§4.2.
package syntax

// ParseSource lexes and parses src in one step, the composition cmd/rush and
// interp.Run both use.
func ParseSource(src []byte) (*File, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return Parse(toks)
}
