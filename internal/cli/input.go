// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Overridable in tests.
var (
	stdinFd      = int(os.Stdin.Fd())
	isTerminal   = term.IsTerminal
	termPassword = term.ReadPassword
)

// prompt prints label and reads one trimmed line.
func (a *App) prompt(label string) (string, error) {
	a.printf("%s", label)
	return a.readLine()
}

func (a *App) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal,
// and a plain line otherwise.
func (a *App) promptPassword() (string, error) {
	if isTerminal(stdinFd) {
		b, err := termPassword(stdinFd)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return a.readLine()
}

// shell reads commands line by line until EOF or "exit". A session that
// was not remembered lives as long as the shell.
func (a *App) shell(ctx context.Context, _ []string) error {
	a.printf("blogctl %s. Type help for commands, exit to quit.\n", a.version)
	for {
		if ctx.Err() != nil {
			return nil
		}
		a.printf("blogctl> ")
		line, err := a.readLine()
		if err != nil {
			a.printf("\n")
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		words, err := splitLine(line)
		if err != nil {
			a.printf("error: %v\n", err)
			continue
		}
		if len(words) == 0 {
			continue
		}
		switch words[0] {
		case "exit", "quit":
			return nil
		case "shell":
			a.printf("already in a shell\n")
			continue
		}

		if err := a.Run(ctx, words); err != nil {
			a.report(a.out, err)
		}
	}
}

// Main runs blogctl and returns the process exit code: 2 for usage
// errors, 1 for any other failure.
func (a *App) Main(ctx context.Context, args []string) int {
	err := a.Run(ctx, args)
	if err == nil {
		return 0
	}
	a.report(a.errOut, err)
	if errors.Is(err, ErrUsage) {
		return 2
	}
	return 1
}

// report writes err unless it is a bare usage error whose usage text
// was already printed.
func (a *App) report(w io.Writer, err error) {
	if err.Error() == ErrUsage.Error() {
		return
	}
	_, _ = fmt.Fprintf(w, "error: %v\n", err)
}
