// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package audit

import (
	"net"
	"net/http"

	"github.com/mileusna/useragent"
)

// Device classes.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

// Client describes the caller of a request.
type Client struct {
	IP      string
	Country string
	Browser string
	OS      string
	Device  string
}

// Attrs returns the non-empty fields as slog key/value pairs.
func (c Client) Attrs() []any {
	var attrs []any
	for _, kv := range [][2]string{
		{"ip", c.IP},
		{"country", c.Country},
		{"browser", c.Browser},
		{"os", c.OS},
		{"device", c.Device},
	} {
		if kv[1] != "" {
			attrs = append(attrs, kv[0], kv[1])
		}
	}
	return attrs
}

// Inspector builds Client descriptions. A nil *Inspector describes only
// the address.
type Inspector struct {
	geo *Geo
}

// NewInspector creates an Inspector. geo may be nil.
func NewInspector(geo *Geo) *Inspector {
	return &Inspector{geo: geo}
}

// Inspect describes the client of r. RemoteAddr is expected to have been
// resolved by the RealIP middleware.
func (i *Inspector) Inspect(r *http.Request) Client {
	c := Client{IP: remoteIP(r.RemoteAddr)}
	if i == nil {
		return c
	}
	if i.geo != nil {
		c.Country = i.geo.Country(c.IP)
	}

	if raw := r.UserAgent(); raw != "" {
		ua := useragent.Parse(raw)
		c.Browser = ua.Name
		c.OS = ua.OS
		switch {
		case ua.Bot:
			c.Device = DeviceBot
		case ua.Tablet:
			c.Device = DeviceTablet
		case ua.Mobile:
			c.Device = DeviceMobile
		default:
			c.Device = DeviceDesktop
		}
	}
	return c
}

func remoteIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
