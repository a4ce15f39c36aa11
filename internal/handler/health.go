// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/olegiv/easysplit/internal/auth"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/version"
)

// Check states.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusFailing  = "failing"
)

// minUploadSpace is the free space below which the uploads check degrades.
const minUploadSpace = 100 << 20

// Counter reports the size of a collection.
type Counter interface {
	Len() int
}

// HealthConfig wires the dependencies probed by HealthHandler. Every field
// may be left empty.
type HealthConfig struct {
	DB         *sql.DB            // local state database
	Tokens     *auth.TokenManager // nil = nobody sees details
	UploadsDir string
	Posts      Counter
	Version    *version.Info
}

// HealthHandler serves the /health endpoints of the CMS server.
type HealthHandler struct {
	cfg     HealthConfig
	version string
	started time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg HealthConfig) *HealthHandler {
	v := "dev"
	if cfg.Version != nil && cfg.Version.Version != "" {
		v = cfg.Version.Version
	}
	return &HealthHandler{cfg: cfg, version: v, started: time.Now()}
}

// Check is the outcome of one probe.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthReport is the full body returned to administrators.
type HealthReport struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Runtime   *RuntimeInfo     `json:"runtime,omitempty"`
}

// RuntimeInfo is added to the report with ?verbose=true.
type RuntimeInfo struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	CPUs       int    `json:"cpus"`
	HeapAlloc  string `json:"heap_alloc"`
	Sys        string `json:"sys"`
}

// Health handles GET /health. Anonymous callers and non-administrators get
// the overall status only.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"state_db": h.checkStateDB(),
		"uploads":  h.checkUploads(),
		"content":  h.checkContent(),
	}
	status := StatusOK
	for _, c := range checks {
		if c.Status != StatusOK {
			status = StatusDegraded
		}
	}

	code := http.StatusOK
	if checks["state_db"].Status == StatusFailing {
		code = http.StatusServiceUnavailable
	}

	if !h.isAdmin(r) {
		writeHealthJSON(w, code, map[string]string{"status": status})
		return
	}

	report := HealthReport{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
		Checks:    checks,
	}
	if r.URL.Query().Get("verbose") == "true" {
		report.Runtime = runtimeInfo()
	}
	writeHealthJSON(w, code, report)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready. The server is ready once its state
// database answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	c := h.checkStateDB()
	if c.Status == StatusOK {
		writeHealthJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	body := map[string]string{"status": "not_ready"}
	if h.isAdmin(r) {
		body["message"] = c.Message
	}
	writeHealthJSON(w, http.StatusServiceUnavailable, body)
}

func (h *HealthHandler) isAdmin(r *http.Request) bool {
	if h.cfg.Tokens == nil {
		return false
	}
	token, ok := auth.ParseAuthorizationHeader(r.Header.Get("Authorization"), auth.SchemeBearer)
	if !ok {
		return false
	}
	claims, err := h.cfg.Tokens.ParseToken(token)
	return err == nil && claims.Role == model.RoleAdministrator
}

func (h *HealthHandler) checkStateDB() Check {
	if h.cfg.DB == nil {
		return Check{Status: StatusOK, Message: "not configured"}
	}
	start := time.Now()
	err := h.cfg.DB.Ping()
	latency := time.Since(start).String()
	if err != nil {
		return Check{Status: StatusFailing, Message: err.Error(), Latency: latency}
	}
	return Check{Status: StatusOK, Latency: latency}
}

// checkUploads reports the free space on the uploads volume.
func (h *HealthHandler) checkUploads() Check {
	if _, err := os.Stat(h.cfg.UploadsDir); os.IsNotExist(err) {
		return Check{Status: StatusOK, Message: "no uploads yet"}
	}

	var fs syscall.Statfs_t
	if err := syscall.Statfs(h.cfg.UploadsDir, &fs); err != nil {
		return Check{Status: StatusFailing, Message: "statfs: " + err.Error()}
	}
	free := fs.Bavail * uint64(fs.Bsize)
	if free < minUploadSpace {
		return Check{Status: StatusDegraded, Message: "low disk space: " + formatBytes(free) + " free"}
	}
	return Check{Status: StatusOK, Message: formatBytes(free) + " free"}
}

// checkContent degrades when the CMS has nothing to serve.
func (h *HealthHandler) checkContent() Check {
	if h.cfg.Posts == nil {
		return Check{Status: StatusOK, Message: "not configured"}
	}
	n := h.cfg.Posts.Len()
	if n == 0 {
		return Check{Status: StatusDegraded, Message: "no posts"}
	}
	return Check{Status: StatusOK, Message: fmt.Sprintf("%d posts", n)}
}

func runtimeInfo() *RuntimeInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &RuntimeInfo{
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		CPUs:       runtime.NumCPU(),
		HeapAlloc:  formatBytes(m.HeapAlloc),
		Sys:        formatBytes(m.Sys),
	}
}

func writeHealthJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// formatBytes renders n with a binary unit.
func formatBytes(n uint64) string {
	units := []string{"KB", "MB", "GB", "TB"}
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n) / 1024
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", v, units[i])
}
