// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cli implements blogctl, the command line client of the blog
// content and admin façades.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/olegiv/easysplit/internal/service"
	"github.com/olegiv/easysplit/internal/version"
)

// ErrUsage is returned for malformed command lines. The usage text has
// already been written when it is returned.
var ErrUsage = errors.New("usage error")

// Config wires an App.
type Config struct {
	Auth    *service.AuthService
	Content *service.ContentService
	Admin   *service.AdminService
	Version *version.Info
	Out     io.Writer // defaults to os.Stdout
	In      io.Reader // defaults to os.Stdin
	Err     io.Writer // defaults to os.Stderr
}

// command is one blogctl subcommand.
type command struct {
	usage   string
	summary string
	// session marks commands that need the stored session restored first.
	session bool
	run     func(ctx context.Context, args []string) error
}

// App dispatches blogctl commands.
type App struct {
	auth    *service.AuthService
	content *service.ContentService
	admin   *service.AdminService
	version *version.Info
	out     io.Writer
	errOut  io.Writer
	in      *bufio.Reader

	readPassword func() (string, error)
	restored     bool
	commands     map[string]command
}

// New creates an App.
func New(cfg Config) *App {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Err == nil {
		cfg.Err = os.Stderr
	}
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Version == nil {
		cfg.Version = &version.Info{}
	}

	a := &App{
		auth:    cfg.Auth,
		content: cfg.Content,
		admin:   cfg.Admin,
		version: cfg.Version,
		out:     cfg.Out,
		errOut:  cfg.Err,
		in:      bufio.NewReader(cfg.In),
	}
	a.readPassword = a.promptPassword

	a.commands = map[string]command{
		"login":      {usage: "login [-remember] [-user name]", summary: "Sign in and store the session", run: a.login},
		"logout":     {usage: "logout", summary: "Forget the stored session", run: a.logout},
		"whoami":     {usage: "whoami", summary: "Show the signed-in account", session: true, run: a.whoami},
		"posts":      {usage: "posts [-page n] [-per-page n] [-category id] [-search text]", summary: "List published posts", run: a.posts},
		"post":       {usage: "post <slug>", summary: "Show a published post", run: a.post},
		"related":    {usage: "related [-limit n] <id>", summary: "List posts related to a post", session: true, run: a.related},
		"categories": {usage: "categories", summary: "List categories", run: a.categories},
		"tags":       {usage: "tags", summary: "List tags", run: a.tags},
		"create":     {usage: "create -title text [-file post.md] [-status s] [-categories 1,2] ...", summary: "Create a post", session: true, run: a.createPost},
		"update":     {usage: "update [-title text] [-file post.md] [-status s] ... <id>", summary: "Update fields of a post", session: true, run: a.updatePost},
		"delete":     {usage: "delete <id>", summary: "Delete a post permanently", session: true, run: a.deletePost},
		"upload":     {usage: "upload <file>", summary: "Upload an image to the media library", session: true, run: a.upload},
		"category":   {usage: "category create|update|delete ...", summary: "Manage categories", session: true, run: a.category},
		"tag":        {usage: "tag create|update|delete ...", summary: "Manage tags", session: true, run: a.tag},
		"version":    {usage: "version", summary: "Print the version", run: a.printVersion},
		"shell":      {usage: "shell", summary: "Run commands interactively in one session", run: a.shell},
	}
	return a
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "-help" {
		a.Usage()
		return nil
	}

	cmd, ok := a.commands[args[0]]
	if !ok {
		a.printf("unknown command %q\n\n", args[0])
		a.Usage()
		return ErrUsage
	}

	if cmd.session && !a.restored {
		a.auth.Restore(ctx)
		a.restored = true
	}
	return cmd.run(ctx, args[1:])
}

// Usage writes the command list.
func (a *App) Usage() {
	a.printf("Usage: blogctl <command> [options]\n\nCommands:\n")
	names := make([]string, 0, len(a.commands))
	for name := range a.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a.printf("  %-11s %s\n", name, a.commands[name].summary)
	}
}

func (a *App) printVersion(_ context.Context, _ []string) error {
	a.printf("blogctl %s\n", a.version)
	return nil
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

// newFlagSet returns a flag set that reports errors to the App's output.
func (a *App) newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.Usage = func() {
		a.printf("Usage: blogctl %s\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

// parseArgs parses flags that may appear before, between or after the
// positional arguments, and returns the positional ones.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, ErrUsage
			}
			return nil, fmt.Errorf("%w: %w", ErrUsage, err)
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// exactArgs checks the positional argument count.
func exactArgs(fs *flag.FlagSet, args []string, n int) error {
	if len(args) != n {
		fs.Usage()
		return ErrUsage
	}
	return nil
}

// describe turns façade errors into messages for the terminal.
func describe(err error) error {
	switch {
	case errors.Is(err, service.ErrAuthRequired):
		return fmt.Errorf("not signed in; run blogctl login first: %w", err)
	case errors.Is(err, service.ErrConnection):
		return fmt.Errorf("backend unreachable: %w", err)
	}
	return err
}

// splitLine splits a shell line into words. Double and single quotes
// group words; there are no escapes.
func splitLine(line string) ([]string, error) {
	var (
		words   []string
		current strings.Builder
		quote   rune
		inWord  bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				words = append(words, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inWord {
		words = append(words, current.String())
	}
	return words, nil
}
