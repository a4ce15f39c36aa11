// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"fmt"
	"log/slog"

	"github.com/olegiv/easysplit/internal/auth"
	"github.com/olegiv/easysplit/internal/model"
)

// Default seeded account details.
const (
	DefaultAdminName  = "Administrador"
	DefaultAdminEmail = "admin@easysplit.com.br"
)

// DefaultCategories are written when categories.json does not exist.
var DefaultCategories = []model.Category{
	{ID: 1, Name: "CRO", Slug: "cro"},
	{ID: 2, Name: "WordPress", Slug: "wordpress"},
	{ID: 3, Name: "Tráfego Pago", Slug: "trafego-pago"},
}

// SeedOptions configures Seed.
type SeedOptions struct {
	AdminUsername string
	AdminPassword string
}

// Seed creates the data files that do not exist yet: an empty post, tag
// and media list, the default categories and a single administrator.
// Existing files are never touched.
func Seed(cms *CMS, opts SeedOptions) error {
	if !cms.Posts.Exists() {
		if err := cms.Posts.Save(); err != nil {
			return fmt.Errorf("seeding posts: %w", err)
		}
	}

	if !cms.Tags.Exists() {
		if err := cms.Tags.Save(); err != nil {
			return fmt.Errorf("seeding tags: %w", err)
		}
	}

	if !cms.Media.Exists() {
		if err := cms.Media.Save(); err != nil {
			return fmt.Errorf("seeding media: %w", err)
		}
	}

	if !cms.Categories.Exists() {
		categories := make([]model.Category, len(DefaultCategories))
		copy(categories, DefaultCategories)
		if err := cms.Categories.Replace(categories); err != nil {
			return fmt.Errorf("seeding categories: %w", err)
		}
		slog.Info("seeded default categories", "count", len(categories))
	}

	if !cms.Users.Exists() {
		hash, err := auth.HashPassword(opts.AdminPassword)
		if err != nil {
			return fmt.Errorf("seeding admin user: %w", err)
		}
		admin := model.User{
			ID:       1,
			Username: opts.AdminUsername,
			Password: hash,
			Name:     DefaultAdminName,
			Email:    DefaultAdminEmail,
			Role:     model.RoleAdministrator,
		}
		if err := cms.Users.Replace([]model.User{admin}); err != nil {
			return fmt.Errorf("seeding admin user: %w", err)
		}
		slog.Info("seeded administrator account", "username", opts.AdminUsername)
	}

	return nil
}
