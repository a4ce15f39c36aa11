// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode"
)

// Authorization schemes
const (
	SchemeBasic  = "Basic"
	SchemeBearer = "Bearer"
)

// NormalizeCredentials trims the username and removes every whitespace
// character from the secret. WordPress application passwords are shown
// grouped with spaces ("abcd efgh ijkl") and are often pasted that way.
func NormalizeCredentials(username, secret string) (string, string) {
	secret = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, secret)
	return strings.TrimSpace(username), secret
}

// BasicToken encodes username and secret as a Basic-Auth token.
func BasicToken(username, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + secret))
}

// DecodeBasicToken splits a Basic-Auth token into username and secret.
func DecodeBasicToken(token string) (string, string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", errors.New("malformed basic token")
	}
	username, secret, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", "", errors.New("malformed basic token")
	}
	return username, secret, nil
}

// AuthorizationHeader formats an Authorization header value.
func AuthorizationHeader(scheme, token string) string {
	return scheme + " " + token
}

// ParseAuthorizationHeader splits an Authorization header into scheme and
// credentials. The scheme comparison is case-insensitive.
func ParseAuthorizationHeader(header, scheme string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], scheme) {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
