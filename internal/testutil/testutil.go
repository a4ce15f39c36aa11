// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the EasySplit project.
package testutil

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/olegiv/easysplit/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// Seeded administrator credentials used by TestCMS.
const (
	AdminUsername = "admin"
	AdminPassword = "admin123"
)

func stderrLogger(min slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: min}))
}

// TestLogger logs warnings and errors to stderr.
func TestLogger() *slog.Logger { return stderrLogger(slog.LevelWarn) }

// TestLoggerSilent logs errors only.
func TestLoggerSilent() *slog.Logger { return stderrLogger(slog.LevelError) }

// TestDB returns a migrated state database file under t.TempDir, opened
// through the production driver.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "state", "blogctl.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	migrate(t, db)
	return db
}

// TestMemoryDB returns a migrated in-memory database on the cgo driver.
// The pool is pinned to one connection so every query sees the same data.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	migrate(t, db)
	return db
}

func migrate(t *testing.T, db *sql.DB) {
	t.Helper()
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
}

// TestCMS opens a content store in t.TempDir seeded with the demo
// taxonomy and the AdminUsername account.
func TestCMS(t *testing.T) *store.CMS {
	t.Helper()

	cms, err := store.OpenCMS(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCMS: %v", err)
	}
	if err := store.Seed(cms, store.SeedOptions{AdminUsername: AdminUsername, AdminPassword: AdminPassword}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return cms
}
