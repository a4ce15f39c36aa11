// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"testing"

	"github.com/olegiv/easysplit/internal/auth"
	"github.com/olegiv/easysplit/internal/model"
)

func TestSeed_FreshDataDir(t *testing.T) {
	cms, err := OpenCMS(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCMS: %v", err)
	}

	if err := Seed(cms, SeedOptions{AdminUsername: "admin", AdminPassword: "admin123"}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	cats := cms.Categories.All()
	if len(cats) != 3 {
		t.Fatalf("categories = %d, want 3", len(cats))
	}
	if cats[2].Slug != "trafego-pago" {
		t.Errorf("third category slug = %q, want trafego-pago", cats[2].Slug)
	}

	admin, ok := cms.UserByUsername("admin")
	if !ok {
		t.Fatal("admin user not seeded")
	}
	if admin.Role != model.RoleAdministrator {
		t.Errorf("admin role = %q, want %q", admin.Role, model.RoleAdministrator)
	}
	if admin.Password == "admin123" {
		t.Fatal("admin password stored in plaintext")
	}
	if ok, err := auth.CheckPassword("admin123", admin.Password); err != nil || !ok {
		t.Errorf("CheckPassword(seeded) = %v, %v", ok, err)
	}

	for _, c := range []interface{ Exists() bool }{cms.Posts, cms.Tags, cms.Media, cms.Users, cms.Categories} {
		if !c.Exists() {
			t.Error("a data file was not created")
		}
	}
}

func TestSeed_KeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	cms, err := OpenCMS(dir)
	if err != nil {
		t.Fatalf("OpenCMS: %v", err)
	}
	if err := cms.Categories.Replace([]model.Category{{ID: 10, Name: "Custom", Slug: "custom"}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if err := Seed(cms, SeedOptions{AdminUsername: "admin", AdminPassword: "admin123"}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	cats := cms.Categories.All()
	if len(cats) != 1 || cats[0].Slug != "custom" {
		t.Errorf("categories = %+v, want the existing custom category only", cats)
	}
}
