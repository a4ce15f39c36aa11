// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// Collection is a flat JSON file holding an array of records.
// The whole array is kept in memory; every mutation rewrites the file
// atomically. Identifiers come from a high-water mark persisted next to
// the data file, so an id is never issued twice even after the record
// holding the highest id is deleted.
type Collection[T any] struct {
	mu      sync.RWMutex
	path    string
	seqPath string
	items   []T
	lastID  int64
	idOf    func(*T) int64
	setID   func(*T, int64)
}

// sequence is the on-disk form of the high-water mark.
type sequence struct {
	LastID int64 `json:"last_id"`
}

// OpenCollection loads the collection stored at path. A missing file is an
// empty collection; a file that does not parse is an error.
func OpenCollection[T any](path string, idOf func(*T) int64, setID func(*T, int64)) (*Collection[T], error) {
	c := &Collection[T]{
		path:    path,
		seqPath: path + ".seq",
		idOf:    idOf,
		setID:   setID,
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		c.items = []T{}
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	default:
		if err := json.Unmarshal(data, &c.items); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		}
		if c.items == nil {
			c.items = []T{}
		}
	}

	var seq sequence
	if data, err := os.ReadFile(c.seqPath); err == nil {
		if err := json.Unmarshal(data, &seq); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filepath.Base(c.seqPath), err)
		}
	}
	c.lastID = max(seq.LastID, c.maxID())

	return c, nil
}

// Exists reports whether the collection file is present on disk.
func (c *Collection[T]) Exists() bool {
	_, err := os.Stat(c.path)
	return err == nil
}

// All returns a copy of every record in file order.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns the record with the given id.
func (c *Collection[T]) Get(id int64) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOf(id); i >= 0 {
		return c.items[i], nil
	}
	var zero T
	return zero, ErrNotFound
}

// Find returns the first record matching the predicate.
func (c *Collection[T]) Find(match func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, item := range c.items {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Insert assigns the next id to item, appends it and persists the file.
func (c *Collection[T]) Insert(item T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.lastID + 1
	c.setID(&item, id)

	items := append(c.items[:len(c.items):len(c.items)], item)
	if err := c.persist(items, id); err != nil {
		var zero T
		return zero, err
	}
	c.items = items
	c.lastID = id
	return item, nil
}

// Update applies fn to the record with the given id and persists the file.
// The id cannot be changed by fn.
func (c *Collection[T]) Update(id int64, fn func(*T) error) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	i := c.indexOf(id)
	if i < 0 {
		return zero, ErrNotFound
	}

	updated := c.items[i]
	if err := fn(&updated); err != nil {
		return zero, err
	}
	c.setID(&updated, id)

	items := make([]T, len(c.items))
	copy(items, c.items)
	items[i] = updated
	if err := c.persist(items, c.lastID); err != nil {
		return zero, err
	}
	c.items = items
	return updated, nil
}

// Delete removes the record with the given id and persists the file.
func (c *Collection[T]) Delete(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	items := make([]T, 0, len(c.items)-1)
	items = append(items, c.items[:i]...)
	items = append(items, c.items[i+1:]...)
	if err := c.persist(items, c.lastID); err != nil {
		return err
	}
	c.items = items
	return nil
}

// Save writes the current contents, creating the file if it does not exist.
func (c *Collection[T]) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persist(c.items, c.lastID)
}

// Replace overwrites the collection with the given records (used for seeding).
func (c *Collection[T]) Replace(items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lastID := c.lastID
	for i := range items {
		lastID = max(lastID, c.idOf(&items[i]))
	}
	if err := c.persist(items, lastID); err != nil {
		return err
	}
	c.items = items
	c.lastID = lastID
	return nil
}

func (c *Collection[T]) indexOf(id int64) int {
	for i := range c.items {
		if c.idOf(&c.items[i]) == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) maxID() int64 {
	var m int64
	for i := range c.items {
		m = max(m, c.idOf(&c.items[i]))
	}
	return m
}

// persist writes the sequence first so a crash between the two writes can
// only leave a gap in ids, never a reused one.
func (c *Collection[T]) persist(items []T, lastID int64) error {
	seq, err := json.Marshal(sequence{LastID: lastID})
	if err != nil {
		return fmt.Errorf("encoding sequence: %w", err)
	}
	if err := writeFileAtomic(c.seqPath, seq); err != nil {
		return err
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(c.path), err)
	}
	return writeFileAtomic(c.path, data)
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}
