// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// RoleAdministrator is the role of the seeded fallback CMS user.
const RoleAdministrator = "administrator"

// UserProfile is a read-only mirror of the backend user record.
type UserProfile struct {
	ID           int64             `json:"id"`
	DisplayName  string            `json:"name"`
	Email        string            `json:"email,omitempty"`
	Slug         string            `json:"slug,omitempty"`
	AvatarURLs   map[string]string `json:"avatar_urls,omitempty"`
	Capabilities map[string]bool   `json:"capabilities,omitempty"`
}

// Can reports whether the profile carries the given capability.
func (u *UserProfile) Can(capability string) bool {
	return u != nil && u.Capabilities[capability]
}

// Session is the persisted authentication state.
// Token is empty when the session is not authenticated.
type Session struct {
	Authenticated bool         `json:"isAuthenticated"`
	User          *UserProfile `json:"user"`
	Token         string       `json:"token"`
}

// Anonymous returns the unauthenticated session.
func Anonymous() Session {
	return Session{}
}

// HasToken reports whether the session holds a credential token.
func (s Session) HasToken() bool {
	return s.Token != ""
}

// User is a fallback CMS account as stored in users.json.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"` // bcrypt hash
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// IsAdmin returns true if the user has the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdministrator
}
