// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"

	"github.com/olegiv/easysplit/internal/model"
)

// SessionStore persists the authenticated session between runs.
// session.Store implements it.
type SessionStore interface {
	Read(ctx context.Context) model.Session
	Write(ctx context.Context, sess model.Session, remember bool) error
	Clear(ctx context.Context) error
}
