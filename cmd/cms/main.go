// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command cms runs the fallback CMS server: a small WordPress-compatible
// REST API over JSON files, used when the production WordPress is not
// available.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/easysplit/internal/audit"
	"github.com/olegiv/easysplit/internal/auth"
	"github.com/olegiv/easysplit/internal/config"
	"github.com/olegiv/easysplit/internal/handler"
	"github.com/olegiv/easysplit/internal/handler/api"
	"github.com/olegiv/easysplit/internal/logging"
	"github.com/olegiv/easysplit/internal/middleware"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/scheduler"
	"github.com/olegiv/easysplit/internal/service"
	"github.com/olegiv/easysplit/internal/store"
	"github.com/olegiv/easysplit/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// Maintenance limits.
const (
	uploadsMaxAge       = 7 * 24 * time.Hour
	limiterIdleTTL      = time.Hour
	pruneLimitersSpec   = "*/10 * * * *"
	pruneEventsSpec     = "0 3 * * *"
	reloadGeoIPSpec     = "30 4 * * *"
	shutdownGracePeriod = 30 * time.Second
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "EasySplit fallback CMS - WordPress-compatible blog API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ESB_JWT_SECRET         Token signing secret (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ESB_SERVER_HOST        Listen host (default: localhost)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ESB_SERVER_PORT        Listen port (default: 3001)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ESB_DATA_DIR           JSON data directory (default: ./data)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ESB_UPLOADS_DIR        Uploaded media directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ESB_PUBLIC_URL         Public base URL used in media links (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ESB_ADMIN_USERNAME     Seeded administrator (default: admin)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ESB_ADMIN_PASSWORD     Seeded administrator password (default: admin123)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ESB_CORS_ORIGINS       Allowed origins, comma separated (default: *)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ESB_GEOIP_DB_PATH      GeoLite2-Country database for login events (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ESB_ENV                Environment: development|production (default: development)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	if *showVersion {
		_, _ = fmt.Printf("cms %s\n", versionInfo)
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(versionInfo *version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := config.SlogLevel(cfg.LogLevel)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(textHandler))

	// State database: event log
	if err := os.MkdirAll(filepath.Dir(cfg.StateDBPath), 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	slog.Info("initializing state database", "path", cfg.StateDBPath)
	db, err := store.NewDB(cfg.StateDBPath)
	if err != nil {
		return fmt.Errorf("initializing state database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing state database", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Upgrade logger to also write WARN and ERROR logs to the event log
	logger := slog.New(logging.NewEventLogHandler(textHandler, store.New(db)))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Content data
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	cms, err := store.OpenCMS(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening data directory: %w", err)
	}
	if err := store.Seed(cms, store.SeedOptions{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	}); err != nil {
		return fmt.Errorf("seeding data: %w", err)
	}
	slog.Info("content store ready", "dir", cfg.DataDir, "posts", cms.Posts.Len(), "categories", cms.Categories.Len())

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	mediaService := service.NewMediaService(cms.Media, cfg.UploadsDir, cfg.MaxUploadBytes(), logger)
	eventService := service.NewEventService(db)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Stop()
	apiLimiter := middleware.NewAPIRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// GeoIP is optional; lookups degrade to local/unknown without it
	geo, err := audit.OpenGeo(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("GeoIP database unavailable", "category", model.EventCategorySystem, "path", cfg.GeoIPDBPath, "error", err)
	} else if cfg.GeoIPEnabled() {
		slog.Info("GeoIP enabled", "path", cfg.GeoIPDBPath)
	}
	defer func() { _ = geo.Close() }()

	// Maintenance jobs
	sched := scheduler.New(logger)
	if err := sched.AddJob("prune_events", "Delete event log rows past the retention period", pruneEventsSpec,
		func(ctx context.Context) error {
			n, err := eventService.DeleteOldEvents(ctx, cfg.EventRetention)
			if err != nil {
				return err
			}
			if n > 0 {
				slog.Info("pruned event log", "deleted", n, "retention", cfg.EventRetention)
			}
			return nil
		}); err != nil {
		return fmt.Errorf("scheduling event pruning: %w", err)
	}
	if err := sched.AddJob("prune_rate_limiters", "Forget API clients idle for an hour", pruneLimitersSpec,
		func(context.Context) error {
			if n := apiLimiter.Sweep(limiterIdleTTL); n > 0 {
				slog.Debug("dropped idle API rate limiters", "count", n)
			}
			return nil
		}); err != nil {
		return fmt.Errorf("scheduling limiter pruning: %w", err)
	}
	if cfg.GeoIPEnabled() {
		if err := sched.AddJob("reload_geoip", "Pick up a replaced GeoIP database", reloadGeoIPSpec,
			func(context.Context) error {
				return geo.Reload()
			}); err != nil {
			return fmt.Errorf("scheduling geoip reload: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	// Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	healthHandler := handler.NewHealthHandler(handler.HealthConfig{
		DB:         db,
		Tokens:     tokens,
		UploadsDir: cfg.UploadsDir,
		Posts:      cms.Posts,
		Version:    versionInfo,
	})
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	apiHandler := api.NewHandler(api.Config{
		CMS:             cms,
		Tokens:          tokens,
		Media:           mediaService,
		Events:          eventService,
		LoginProtection: loginProtection,
		RateLimiter:     apiLimiter,
		Inspector:       audit.NewInspector(geo),
		PublicURL:       cfg.PublicURL,
		Logger:          logger,
	})
	r.With(middleware.NoStore).Mount("/api", apiHandler.Routes())

	uploads := http.StripPrefix(api.UploadsPrefix, http.FileServer(http.Dir(cfg.UploadsDir)))
	r.With(middleware.StaticCache(uploadsMaxAge)).Handle(api.UploadsPrefix+"*", uploads)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for large uploads and slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	}

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
