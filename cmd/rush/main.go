// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// rush is an interactive POSIX-style command shell and scripting language
// built on top of [interp] and [syntax].
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/danbulant/rush/interp"
	"github.com/danbulant/rush/syntax"
)

var command = flag.String("c", "", "command to be executed")

func main() {
	os.Exit(main1())
}

// main1 returns the process exit code rather than calling os.Exit directly,
// so cmd/rush/main_test.go's testscript.RunMain can invoke it in a
// subprocess-emulation harness (mirrors cmd/shfmt/main_test.go's main1 split).
func main1() int {
	flag.Parse()
	err := runAll()
	var es interp.ExitStatus
	if errors.As(err, &es) {
		return int(es)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("rush: %s", err))
		return 1
	}
	return 0
}

func runAll() error {
	r := interp.New(interp.StdIO(os.Stdin, os.Stdout, os.Stderr))

	if *command != "" {
		return run(r, strings.NewReader(*command))
	}
	if flag.NArg() == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return runInteractive(r, os.Stdin, os.Stdout)
		}
		return run(r, os.Stdin)
	}
	for _, path := range flag.Args() {
		if err := runPath(r, path); err != nil {
			return err
		}
	}
	return nil
}

func run(r *interp.Runner, reader io.Reader) error {
	src, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f, err := syntax.ParseSource(src)
	if err != nil {
		return err
	}
	_, err = r.Run(f)
	return err
}

func runPath(r *interp.Runner, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return run(r, f)
}

// runInteractive implements spec.md §6's REPL: one line is one statement
// sequence. EOF or the literal word "exit" ends the session cleanly (exit
// code 0, regardless of what the last statement returned); a runtime error
// is printed as "rush: <msg>" and the loop continues, per spec.md §7.
func runInteractive(r *interp.Runner, stdin io.Reader, stdout io.Writer) error {
	scanner := bufio.NewScanner(stdin)
	prompt := color.New(color.FgCyan).SprintFunc()

	fmt.Fprint(stdout, prompt("$ "))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "exit" {
			return nil
		}
		if err := runLine(r, line); err != nil {
			var es interp.ExitStatus
			if !errors.As(err, &es) {
				fmt.Fprintln(os.Stderr, color.RedString("rush: %s", err))
			}
		}
		fmt.Fprint(stdout, prompt("$ "))
	}
	return scanner.Err()
}

func runLine(r *interp.Runner, line string) error {
	f, err := syntax.ParseSource([]byte(line))
	if err != nil {
		return err
	}
	_, err = r.Run(f)
	return err
}
