// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

const validSecret = "Test-Secret-Key-32-Bytes-Long!!!"

func TestLoadServer_Defaults(t *testing.T) {
	t.Setenv("ESB_JWT_SECRET", validSecret)

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error: %v", err)
	}

	if cfg.ServerPort != 3001 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 3001)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "./data")
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("TokenTTL = %v, want %v", cfg.TokenTTL, 7*24*time.Hour)
	}
	if cfg.MaxUploadBytes() != 5<<20 {
		t.Errorf("MaxUploadBytes() = %d, want %d", cfg.MaxUploadBytes(), 5<<20)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
	if cfg.ServerAddr() != "localhost:3001" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "localhost:3001")
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
	if cfg.EventRetention != 30*24*time.Hour {
		t.Errorf("EventRetention = %v, want 720h", cfg.EventRetention)
	}
	if cfg.GeoIPEnabled() {
		t.Error("GeoIPEnabled() = true, want false")
	}
}

func TestLoadServer_CustomValues(t *testing.T) {
	t.Setenv("ESB_JWT_SECRET", validSecret)
	t.Setenv("ESB_SERVER_HOST", "0.0.0.0")
	t.Setenv("ESB_SERVER_PORT", "8080")
	t.Setenv("ESB_CORS_ORIGINS", "https://easysplit.com.br,http://localhost:5173")
	t.Setenv("ESB_MAX_UPLOAD_MB", "2")
	t.Setenv("ESB_TOKEN_TTL", "1h")
	t.Setenv("ESB_GEOIP_DB_PATH", "/var/lib/geoip/GeoLite2-Country.mmdb")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error: %v", err)
	}
	if cfg.ServerAddr() != "0.0.0.0:8080" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v, want 2 entries", cfg.CORSOrigins)
	}
	if cfg.MaxUploadBytes() != 2<<20 {
		t.Errorf("MaxUploadBytes() = %d", cfg.MaxUploadBytes())
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %v, want 1h", cfg.TokenTTL)
	}
	if !cfg.GeoIPEnabled() {
		t.Error("GeoIPEnabled() = false, want true")
	}
}

func TestLoadServer_SecretValidation(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr string
	}{
		{"too short", "short", "at least 32 bytes"},
		{"known default", "easysplit-blog-secret-key-change-in-production", "known default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ESB_JWT_SECRET", tt.secret)
			_, err := LoadServer()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadServer() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadServer_MissingSecret(t *testing.T) {
	t.Setenv("ESB_JWT_SECRET", "")
	if _, err := LoadServer(); err == nil {
		t.Error("LoadServer() without secret: expected error")
	}
}

func TestLoadClient_Defaults(t *testing.T) {
	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() error: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.Backend != BackendWordPress {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendWordPress)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.UseMockData {
		t.Error("UseMockData = true, want false")
	}
	if cfg.UseRedis() {
		t.Error("UseRedis() = true, want false")
	}
}

func TestLoadClient_Fallback(t *testing.T) {
	t.Setenv("ESB_BACKEND", " Fallback ")
	t.Setenv("ESB_API_URL", "http://localhost:3001/api/")
	t.Setenv("ESB_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() error: %v", err)
	}
	if !cfg.IsFallback() {
		t.Error("IsFallback() = false, want true")
	}
	if cfg.APIURL != "http://localhost:3001/api" {
		t.Errorf("APIURL = %q, want trailing slash trimmed", cfg.APIURL)
	}
	if !cfg.UseRedis() {
		t.Error("UseRedis() = false, want true")
	}
}

func TestLoadClient_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown backend", "ESB_BACKEND", "ghost"},
		{"relative url", "ESB_API_URL", "/wp-json/wp/v2"},
		{"ftp url", "ESB_API_URL", "ftp://example.com"},
		{"zero timeout", "ESB_TIMEOUT", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadClient(); err == nil {
				t.Errorf("LoadClient() with %s=%q: expected error", tt.key, tt.value)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for name, want := range tests {
		if got := SlogLevel(name); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", name, got, want)
		}
	}
}
