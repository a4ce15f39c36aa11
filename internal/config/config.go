// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the fallback CMS server and blog client settings
// from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Backend flavors understood by the client façades.
const (
	BackendWordPress = "wordpress"
	BackendFallback  = "fallback"
)

// DefaultAPIURL is the production WordPress REST base.
const DefaultAPIURL = "https://easysplit.com.br/wp/wp-json/wp/v2"

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"easysplit-blog-secret-key-change-in-production",
	"change-me-to-32-byte-secret-key!",
}

// MinJWTSecretLength is the minimum required length for the token signing secret.
const MinJWTSecretLength = 32

// ServerConfig holds the fallback CMS server configuration.
type ServerConfig struct {
	ServerHost string `env:"ESB_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"ESB_SERVER_PORT" envDefault:"3001"`
	Env        string `env:"ESB_ENV" envDefault:"development"`
	LogLevel   string `env:"ESB_LOG_LEVEL" envDefault:"info"`
	DataDir    string `env:"ESB_DATA_DIR" envDefault:"./data"`
	UploadsDir string `env:"ESB_UPLOADS_DIR" envDefault:"./uploads"`
	PublicURL  string `env:"ESB_PUBLIC_URL"` // Base used for media source_url; derived from the request when empty

	JWTSecret string        `env:"ESB_JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"ESB_TOKEN_TTL" envDefault:"168h"`

	// Seeded administrator, created only when users.json does not exist
	AdminUsername string `env:"ESB_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ESB_ADMIN_PASSWORD" envDefault:"admin123"`

	CORSOrigins    []string      `env:"ESB_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	MaxUploadMB    int           `env:"ESB_MAX_UPLOAD_MB" envDefault:"5"`
	StateDBPath    string        `env:"ESB_STATE_DB_PATH" envDefault:"./data/state.db"`
	RateLimitRPS   float64       `env:"ESB_RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int           `env:"ESB_RATE_LIMIT_BURST" envDefault:"20"`
	RequestTimeout time.Duration `env:"ESB_REQUEST_TIMEOUT" envDefault:"30s"`
	EventRetention time.Duration `env:"ESB_EVENT_RETENTION" envDefault:"720h"` // Event log rows older than this are pruned daily

	GeoIPDBPath string `env:"ESB_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb; adds countries to login events
}

// ClientConfig holds the blog client (façade) configuration.
// It is read once at process start and never reloaded.
type ClientConfig struct {
	APIURL      string        `env:"ESB_API_URL" envDefault:"https://easysplit.com.br/wp/wp-json/wp/v2"`
	Backend     string        `env:"ESB_BACKEND" envDefault:"wordpress"`
	UseMockData bool          `env:"ESB_USE_MOCK_DATA" envDefault:"false"`
	Timeout     time.Duration `env:"ESB_TIMEOUT" envDefault:"10s"`
	LogLevel    string        `env:"ESB_LOG_LEVEL" envDefault:"warn"`
	StateDBPath string        `env:"ESB_STATE_DB_PATH" envDefault:"./data/state.db"`
	RedisURL    string        `env:"ESB_REDIS_URL"` // Optional Redis URL for the durable auth scope
	RedisPrefix string        `env:"ESB_REDIS_PREFIX" envDefault:"esb:"`
}

// IsDevelopment returns true if the server is running in development mode.
func (c ServerConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// MaxUploadBytes returns the upload ceiling in bytes.
func (c ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// GeoIPEnabled returns true if a GeoIP database is configured.
func (c ServerConfig) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// UseRedis returns true if the durable auth scope should live in Redis.
func (c ClientConfig) UseRedis() bool {
	return c.RedisURL != ""
}

// IsFallback returns true if the client talks to the fallback CMS server.
func (c ClientConfig) IsFallback() bool {
	return c.Backend == BackendFallback
}

// LoadServer parses environment variables into a ServerConfig.
func LoadServer() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("ESB_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.JWTSecret == weak {
			return nil, fmt.Errorf("ESB_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("ESB_MAX_UPLOAD_MB must be positive, got %d", cfg.MaxUploadMB)
	}

	if !cfg.IsDevelopment() && cfg.AdminPassword == "admin123" {
		slog.Warn("ESB_ADMIN_PASSWORD uses the default value; change it before seeding a production data directory")
	}

	return cfg, nil
}

// LoadClient parses environment variables into a ClientConfig.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.Backend != BackendWordPress && cfg.Backend != BackendFallback {
		return nil, fmt.Errorf("ESB_BACKEND must be %q or %q, got %q", BackendWordPress, BackendFallback, cfg.Backend)
	}

	u, err := url.Parse(cfg.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("ESB_API_URL must be an absolute http(s) URL, got %q", cfg.APIURL)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("ESB_TIMEOUT must be positive, got %s", cfg.Timeout)
	}

	return cfg, nil
}

// SlogLevel maps a configured level name to a slog.Level (default info).
func SlogLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
