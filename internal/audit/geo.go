// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package audit describes the client behind a request (address, country,
// browser) for the authentication event log.
package audit

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// CountryLocal is reported for loopback and private addresses.
const CountryLocal = "LOCAL"

// Geo resolves IP addresses to ISO country codes with a MaxMind
// GeoLite2-Country database. A Geo without a database resolves nothing
// but local addresses.
type Geo struct {
	mu      sync.RWMutex
	path    string
	reader  *maxminddb.Reader
	modTime time.Time
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// OpenGeo opens the database at path. An empty path yields a Geo without
// a database.
func OpenGeo(path string) (*Geo, error) {
	g := &Geo{path: path}
	if path == "" {
		return g, nil
	}
	if err := g.load(); err != nil {
		return g, err
	}
	return g, nil
}

// load (re)opens the database when its file changed. Caller holds mu.
func (g *Geo) load() error {
	info, err := os.Stat(g.path)
	if err != nil {
		return fmt.Errorf("geoip database: %w", err)
	}
	if g.reader != nil && info.ModTime().Equal(g.modTime) {
		return nil
	}

	reader, err := maxminddb.Open(g.path)
	if err != nil {
		return fmt.Errorf("opening geoip database: %w", err)
	}
	if g.reader != nil {
		_ = g.reader.Close()
	}
	g.reader = reader
	g.modTime = info.ModTime()
	return nil
}

// Reload picks up a replaced database file. It keeps the current
// database when the new one cannot be opened.
func (g *Geo) Reload() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.path == "" {
		return nil
	}
	return g.load()
}

// Enabled reports whether a database is loaded.
func (g *Geo) Enabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reader != nil
}

// Country returns the ISO code for ip, CountryLocal for loopback and
// private addresses, or "" when unknown.
func (g *Geo) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() {
		return CountryLocal
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.reader == nil {
		return ""
	}

	var rec countryRecord
	if err := g.reader.Lookup(parsed, &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// Close releases the database.
func (g *Geo) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.reader == nil {
		return nil
	}
	err := g.reader.Close()
	g.reader = nil
	return err
}
