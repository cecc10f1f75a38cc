package token

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{If, "if"},
		{SubStart, "$("},
		{And, "&&"},
		{Or, "||"},
		{EOF, "EOF"},
		{Kind(999), "Kind(999)"},
	}
	for _, tc := range tests {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		word string
		kind Kind
	}{
		{"if", If},
		{"else", Else},
		{"while", While},
		{"for", For},
		{"let", Let},
		{"end", End},
		{"break", Break},
		{"fn", Function},
	}
	for _, tc := range tests {
		k, ok := Keywords[tc.word]
		if !ok {
			t.Errorf("Keywords[%q] missing", tc.word)
			continue
		}
		if k != tc.kind {
			t.Errorf("Keywords[%q] = %v, want %v", tc.word, k, tc.kind)
		}
	}
	if _, ok := Keywords["echo"]; ok {
		t.Errorf("Keywords[%q] unexpectedly present", "echo")
	}
}

func TestTokenString(t *testing.T) {
	tok := Token{Kind: Literal, Val: "hello"}
	if got, want := tok.String(), `LITERAL("hello")`; got != want {
		t.Errorf("Token.String() = %q, want %q", got, want)
	}
	tok2 := Token{Kind: And}
	if got, want := tok2.String(), "&&"; got != want {
		t.Errorf("Token.String() = %q, want %q", got, want)
	}
}
