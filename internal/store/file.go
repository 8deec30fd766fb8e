// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZENFALLACY/weather-harvester/internal/cacheutil"
)

const (
	entryMode   os.FileMode = 0o600
	tempPattern             = ".wh-*.tmp"
)

// FileBackend keeps one file per entry in a single directory.
type FileBackend struct {
	dir string
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend creates dir if needed and returns a backend rooted there.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := cacheutil.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(name string) string {
	return filepath.Join(b.dir, name)
}

// Read implements Backend.
func (b *FileBackend) Read(name string) ([]byte, error) {
	return os.ReadFile(b.path(name))
}

// Write implements Backend. The record goes to a temp file in the same
// directory, is fsynced, then renamed over the target.
func (b *FileBackend) Write(name string, data []byte) (err error) {
	if err := cacheutil.EnsureDir(b.dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.dir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, entryMode); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, b.path(name)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Remove implements Backend.
func (b *FileBackend) Remove(name string) error {
	return os.Remove(b.path(name))
}

// List implements Backend.
func (b *FileBackend) List() ([]Object, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	objs := make([]Object, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !cacheutil.IsEntryName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		objs = append(objs, Object{Name: e.Name(), Size: info.Size()})
	}
	return objs, nil
}

// Location implements Backend.
func (b *FileBackend) Location() string {
	return b.dir
}
