// Package jsondb persists small collections in a single JSON document on disk.
// Every mutation holds the file lock for the whole read-modify-write cycle and
// is committed by writing a temp file and renaming it over the original.
package jsondb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is one JSON document made of named top-level sections.
type File struct {
	path string
	mu   sync.Mutex
}

// Open prepares the file at path, creating its directory if needed.
// The file itself is created on first write.
func Open(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("jsondb: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jsondb: mkdir: %w", err)
	}
	return &File{path: path}, nil
}

func (f *File) Path() string { return f.path }

func (f *File) load() (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jsondb: read: %w", err)
	}
	sections := map[string]json.RawMessage{}
	if len(raw) == 0 {
		return sections, nil
	}
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, fmt.Errorf("jsondb: decode %s: %w", f.path, err)
	}
	return sections, nil
}

func (f *File) save(sections map[string]json.RawMessage) error {
	body, err := json.MarshalIndent(sections, "", "  ")
	if err != nil {
		return fmt.Errorf("jsondb: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".jsondb-*")
	if err != nil {
		return fmt.Errorf("jsondb: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("jsondb: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("jsondb: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("jsondb: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("jsondb: rename: %w", err)
	}
	return nil
}

// Collection binds one top-level section of a File to a Go type.
type Collection[T any] struct {
	file *File
	key  string
}

// NewCollection returns the section named key of f.
func NewCollection[T any](f *File, key string) *Collection[T] {
	return &Collection[T]{file: f, key: key}
}

// View decodes the section and passes it to fn. A missing section yields the zero value.
func (c *Collection[T]) View(ctx context.Context, fn func(T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.file.mu.Lock()
	defer c.file.mu.Unlock()

	value, _, err := c.decode()
	if err != nil {
		return err
	}
	return fn(value)
}

// Update runs fn against the decoded section and persists the result.
// Nothing is written when fn returns an error.
func (c *Collection[T]) Update(ctx context.Context, fn func(*T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.file.mu.Lock()
	defer c.file.mu.Unlock()

	value, sections, err := c.decode()
	if err != nil {
		return err
	}
	if err := fn(&value); err != nil {
		return err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("jsondb: encode %s: %w", c.key, err)
	}
	sections[c.key] = encoded
	return c.file.save(sections)
}

func (c *Collection[T]) decode() (T, map[string]json.RawMessage, error) {
	var value T
	sections, err := c.file.load()
	if err != nil {
		return value, nil, err
	}
	if raw, ok := sections[c.key]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &value); err != nil {
			return value, nil, fmt.Errorf("jsondb: decode %s: %w", c.key, err)
		}
	}
	return value, sections, nil
}
