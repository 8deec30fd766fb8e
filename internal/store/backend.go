// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

// Object describes one stored record as seen by a listing.
type Object struct {
	Name string
	Size int64
}

// Backend is the physical storage under a Store. Names are the hashed entry
// names produced by cacheutil.EntryName. A Backend does not need to be safe
// for concurrent use; the Store serializes access.
type Backend interface {
	// Read returns the record or an error satisfying errors.Is(err,
	// fs.ErrNotExist) when there is none.
	Read(name string) ([]byte, error)
	// Write replaces the record atomically: readers see the old content or the
	// new content, never a mix.
	Write(name string, data []byte) error
	// Remove deletes the record, returning an fs.ErrNotExist error when there
	// was nothing to delete.
	Remove(name string) error
	// List returns every entry record, ignoring temp and foreign objects.
	List() ([]Object, error)
	// Location describes where the records live, for diagnostics.
	Location() string
}
