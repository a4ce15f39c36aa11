// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/olegiv/easysplit/internal/service"
)

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.newFlagSet("login", a.commands["login"].usage)
	remember := fs.Bool("remember", false, "keep the session after blogctl exits")
	user := fs.String("user", "", "username or email")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(fs, rest, 0); err != nil {
		return err
	}

	username := strings.TrimSpace(*user)
	if username == "" {
		if username, err = a.prompt("Username: "); err != nil {
			return err
		}
	}
	a.printf("Password: ")
	password, err := a.readPassword()
	a.printf("\n")
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	sess, err := a.auth.Login(ctx, username, password, *remember)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return errors.New("invalid username or password")
		}
		return describe(err)
	}
	a.restored = true

	a.printf("Signed in as %s\n", sess.User.DisplayName)
	if !*remember {
		a.printf("The session ends when blogctl exits; use -remember to keep it.\n")
	}
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	a.auth.Logout(ctx)
	a.printf("Signed out\n")
	return nil
}

func (a *App) whoami(ctx context.Context, _ []string) error {
	sess := a.auth.Current(ctx)
	if !sess.Authenticated || sess.User == nil {
		return describe(service.ErrAuthRequired)
	}

	u := sess.User
	a.printf("%s (id %d)\n", u.DisplayName, u.ID)
	if u.Slug != "" {
		a.printf("slug:  %s\n", u.Slug)
	}
	if u.Email != "" {
		a.printf("email: %s\n", u.Email)
	}
	return nil
}
