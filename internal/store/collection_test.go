// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func openTestCollection(t *testing.T, path string) *Collection[testRecord] {
	t.Helper()
	c, err := OpenCollection(path,
		func(r *testRecord) int64 { return r.ID },
		func(r *testRecord, id int64) { r.ID = id })
	if err != nil {
		t.Fatalf("OpenCollection: %v", err)
	}
	return c
}

func TestCollection_InsertAssignsSequentialIDs(t *testing.T) {
	c := openTestCollection(t, filepath.Join(t.TempDir(), "records.json"))

	for i, name := range []string{"a", "b", "c"} {
		r, err := c.Insert(testRecord{Name: name})
		if err != nil {
			t.Fatalf("Insert(%s): %v", name, err)
		}
		if r.ID != int64(i+1) {
			t.Errorf("Insert(%s).ID = %d, want %d", name, r.ID, i+1)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestCollection_DeletedIDIsNeverReused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	c := openTestCollection(t, path)

	for _, name := range []string{"a", "b", "c"} {
		if _, err := c.Insert(testRecord{Name: name}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	if err := c.Delete(3); err != nil {
		t.Fatalf("Delete(3): %v", err)
	}

	r, err := c.Insert(testRecord{Name: "d"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if r.ID == 3 {
		t.Fatal("deleted id 3 was reassigned")
	}
	if r.ID != 4 {
		t.Errorf("Insert().ID = %d, want 4", r.ID)
	}

	// The high-water mark survives a restart.
	if err := c.Delete(4); err != nil {
		t.Fatalf("Delete(4): %v", err)
	}
	reopened := openTestCollection(t, path)
	r, err = reopened.Insert(testRecord{Name: "e"})
	if err != nil {
		t.Fatalf("Insert after reopen: %v", err)
	}
	if r.ID != 5 {
		t.Errorf("Insert() after reopen ID = %d, want 5", r.ID)
	}
}

func TestCollection_LegacyFileWithoutSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, []byte(`[{"id": 7, "name": "x"}, {"id": 2, "name": "y"}]`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := openTestCollection(t, path)
	r, err := c.Insert(testRecord{Name: "z"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if r.ID != 8 {
		t.Errorf("Insert().ID = %d, want 8 (max existing + 1)", r.ID)
	}
}

func TestCollection_Update(t *testing.T) {
	c := openTestCollection(t, filepath.Join(t.TempDir(), "records.json"))
	if _, err := c.Insert(testRecord{Name: "before"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	updated, err := c.Update(1, func(r *testRecord) error {
		r.Name = "after"
		r.ID = 99 // ignored
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != 1 || updated.Name != "after" {
		t.Errorf("Update() = %+v, want {1 after}", updated)
	}

	got, err := c.Get(1)
	if err != nil || got.Name != "after" {
		t.Errorf("Get(1) = %+v, %v", got, err)
	}

	if _, err := c.Update(42, func(*testRecord) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(42) error = %v, want ErrNotFound", err)
	}
}

func TestCollection_UpdateCallbackErrorLeavesRecord(t *testing.T) {
	c := openTestCollection(t, filepath.Join(t.TempDir(), "records.json"))
	if _, err := c.Insert(testRecord{Name: "keep"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	boom := errors.New("boom")
	_, err := c.Update(1, func(r *testRecord) error {
		r.Name = "changed"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}
	if got, _ := c.Get(1); got.Name != "keep" {
		t.Errorf("record changed after failed update: %+v", got)
	}
}

func TestCollection_DeleteMissing(t *testing.T) {
	c := openTestCollection(t, filepath.Join(t.TempDir(), "records.json"))
	if err := c.Delete(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(1) error = %v, want ErrNotFound", err)
	}
}

func TestCollection_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	c := openTestCollection(t, path)
	if _, err := c.Insert(testRecord{Name: "persisted"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	reopened := openTestCollection(t, path)
	r, ok := reopened.Find(func(r testRecord) bool { return r.Name == "persisted" })
	if !ok || r.ID != 1 {
		t.Errorf("Find() = %+v, %v; want record 1", r, ok)
	}
}

func TestCollection_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := OpenCollection(path,
		func(r *testRecord) int64 { return r.ID },
		func(r *testRecord, id int64) { r.ID = id })
	if err == nil {
		t.Error("OpenCollection(corrupt) expected error")
	}
}

func TestCollection_AllReturnsCopy(t *testing.T) {
	c := openTestCollection(t, filepath.Join(t.TempDir(), "records.json"))
	if _, err := c.Insert(testRecord{Name: "a"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	all := c.All()
	all[0].Name = "mutated"
	if got, _ := c.Get(1); got.Name != "a" {
		t.Errorf("mutating All() result changed the collection: %+v", got)
	}
}
