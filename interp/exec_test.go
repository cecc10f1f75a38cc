package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/danbulant/rush/syntax"
)

// runSource parses and executes src against a fresh Runner, capturing
// stdout. Mirrors the teacher's interp_test.go pattern of driving the
// executor end-to-end through a bytes.Buffer rather than asserting on
// internal state.
func runSource(t *testing.T, src string) (string, int) {
	t.Helper()
	f, err := syntax.ParseSource([]byte(src))
	if err != nil {
		t.Fatalf("ParseSource(%q) error: %v", src, err)
	}
	var out bytes.Buffer
	r := New(StdIO(strings.NewReader(""), &out, &out))
	code, err := r.Run(f)
	if err != nil {
		if _, ok := err.(ExitStatus); !ok {
			t.Fatalf("Run(%q) error: %v", src, err)
		}
	}
	return out.String(), code
}

func TestExecLetAndEcho(t *testing.T) {
	out, code := runSource(t, "let x = 42\necho $x")
	if out != "42\n" {
		t.Errorf("output = %q, want %q", out, "42\n")
	}
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
}

func TestExecPipeline(t *testing.T) {
	out, _ := runSource(t, "echo hello | tr a-z A-Z")
	if out != "HELLO\n" {
		t.Errorf("output = %q, want %q", out, "HELLO\n")
	}
}

func TestExecIfTest(t *testing.T) {
	out, _ := runSource(t, "if test 1 = 1\necho yes\nelse\necho no\nend")
	if out != "yes\n" {
		t.Errorf("output = %q, want %q", out, "yes\n")
	}
}

func TestExecCommandSubstitution(t *testing.T) {
	// $(echo abc) preserves its trailing newline (DESIGN.md's preserve
	// decision, SPEC_FULL.md §7), so the captured value is "abc\n" and the
	// outer echo appends its own newline on top of that.
	out, _ := runSource(t, "let s = $(echo abc)\necho $s")
	if out != "abc\n\n" {
		t.Errorf("output = %q, want %q", out, "abc\n\n")
	}
}

func TestExecForLoopWithIndex(t *testing.T) {
	out, _ := runSource(t, "for i x in [ a b c ]\necho $i:$x\nend")
	want := "0:a\n1:b\n2:c\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestExecWhileFalseSkipsBody(t *testing.T) {
	out, _ := runSource(t, "while false\necho never\nend\necho done")
	if out != "done\n" {
		t.Errorf("output = %q, want %q", out, "done\n")
	}
}

func TestExecBreakUnwindsExactlyN(t *testing.T) {
	// break 2 inside a doubly-nested while loop terminates both loops and
	// leaves BreakNum at 0, per spec.md §8's invariant.
	f, err := syntax.ParseSource([]byte(
		"let n = 0\n" +
			"while true\n" +
			"let n = 1\n" +
			"while true\n" +
			"break 2\n" +
			"end\n" +
			"echo unreachable\n" +
			"end\n" +
			"echo after",
	))
	if err != nil {
		t.Fatalf("ParseSource error: %v", err)
	}
	var out bytes.Buffer
	r := New(StdIO(strings.NewReader(""), &out, &out))
	if _, err := r.Run(f); err != nil {
		if _, ok := err.(ExitStatus); !ok {
			t.Fatalf("Run error: %v", err)
		}
	}
	if got := out.String(); got != "after\n" {
		t.Errorf("output = %q, want %q (inner/outer loop bodies after break must not run again)", got, "after\n")
	}
	if r.Context().BreakNum != 0 {
		t.Errorf("BreakNum after break 2 in a 2-deep nest = %d, want 0", r.Context().BreakNum)
	}
}

func TestExecScopeDepthRestoredAfterSequence(t *testing.T) {
	f, err := syntax.ParseSource([]byte("if test 1 = 1\nlet x = 1\nend\nwhile false\nend\nfor i in [ a ]\nend"))
	if err != nil {
		t.Fatalf("ParseSource error: %v", err)
	}
	r := New(StdIO(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{}))
	if _, err := r.Run(f); err != nil {
		if _, ok := err.(ExitStatus); !ok {
			t.Fatalf("Run error: %v", err)
		}
	}
	if got := r.Context().Depth(); got != 1 {
		t.Errorf("Depth() after running if/while/for = %d, want 1 (spec.md §8 invariant)", got)
	}
}

func TestExecExportBuiltin(t *testing.T) {
	out, _ := runSource(t, "let x = hi\nexport x\necho $env::x")
	if out != "hi\n" {
		t.Errorf("output = %q, want %q", out, "hi\n")
	}
}

func TestExecTypeofBuiltin(t *testing.T) {
	out, _ := runSource(t, "let t = $typeof(hi)\necho $t")
	if out != "String\n" {
		t.Errorf("output = %q, want %q", out, "String\n")
	}
}
