// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command blogctl reads and manages the EasySplit blog from the terminal,
// against WordPress or the fallback CMS.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/olegiv/easysplit/internal/cache"
	"github.com/olegiv/easysplit/internal/cli"
	"github.com/olegiv/easysplit/internal/client"
	"github.com/olegiv/easysplit/internal/config"
	"github.com/olegiv/easysplit/internal/logging"
	"github.com/olegiv/easysplit/internal/service"
	"github.com/olegiv/easysplit/internal/session"
	"github.com/olegiv/easysplit/internal/store"
	"github.com/olegiv/easysplit/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	_ = godotenv.Load()

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	cfg, err := config.LoadClient()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "blogctl: loading config: %v\n", err)
		return 1
	}

	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.SlogLevel(cfg.LogLevel)})
	slog.SetDefault(slog.New(textHandler))

	// State database: event log and the durable session scope
	if err := os.MkdirAll(filepath.Dir(cfg.StateDBPath), 0755); err != nil {
		slog.Error("creating state directory", "error", err)
		return 1
	}
	db, err := store.NewDB(cfg.StateDBPath)
	if err != nil {
		slog.Error("opening state database", "path", cfg.StateDBPath, "error", err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing state database", "error", err)
		}
	}()
	if err := store.Migrate(db); err != nil {
		slog.Error("running migrations", "error", err)
		return 1
	}

	logger := slog.New(logging.NewEventLogHandler(textHandler, store.New(db)))
	slog.SetDefault(logger)

	durable, err := cache.NewDurable(ctx, cache.DurableConfig{
		RedisURL: cfg.RedisURL,
		Prefix:   cfg.RedisPrefix,
		DB:       db,
	})
	if err != nil {
		logger.Error("initializing session storage", "error", err)
		return 1
	}
	storage := session.NewCacheStorage(durable, cache.NewSession())
	defer func() { _ = storage.Close() }()
	sessions := session.NewStore(storage, logger)

	c := client.New(client.Options{
		BaseURL:   cfg.APIURL,
		Backend:   cfg.Backend,
		Timeout:   cfg.Timeout,
		UserAgent: versionInfo.UserAgent(),
		Logger:    logger,
	})

	content := service.NewContentService(c, sessions, logger)
	content.SetMockData(cfg.UseMockData)

	app := cli.New(cli.Config{
		Auth:    service.NewAuthService(c, sessions, logger),
		Content: content,
		Admin:   service.NewAdminService(c, sessions, logger),
		Version: versionInfo,
	})
	return app.Main(ctx, args)
}
