//go:build !windows
// +build !windows

package main

import (
	"bufio"
	"testing"

	"github.com/creack/pty"

	"github.com/danbulant/rush/interp"
)

// TestRunInteractivePromptsOverPty exercises runInteractive's line loop over
// a real pseudo-terminal, the same pty.Open harness
// interp/unix_test.go's "Pseudo" case uses for term.IsTerminal-sensitive
// paths — here it's the REPL's prompt-then-read loop rather than a
// for-n-in-0-1-2-3 stdio probe.
func TestRunInteractivePromptsOverPty(t *testing.T) {
	primary, secondary, err := pty.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer primary.Close()
	defer secondary.Close()

	r := interp.New(interp.StdIO(secondary, secondary, secondary))
	done := make(chan error, 1)
	go func() {
		done <- runInteractive(r, secondary, secondary)
	}()

	reader := bufio.NewReader(primary)

	if _, err := primary.Write([]byte("echo hi\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := primary.Write([]byte("exit\n")); err != nil {
		t.Fatal(err)
	}

	var lines []string
	for i := 0; i < 4; i++ {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		lines = append(lines, line)
	}

	foundEcho := false
	for _, l := range lines {
		if l == "hi\r\n" || l == "hi\n" {
			foundEcho = true
		}
	}
	if !foundEcho {
		t.Errorf("did not observe the echoed \"hi\" line among %q", lines)
	}

	if err := <-done; err != nil {
		t.Errorf("runInteractive returned an error: %v", err)
	}
}
