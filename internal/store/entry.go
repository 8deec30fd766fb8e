// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/json"
	"time"
)

// Entry is the on-disk (or in-bucket) record for one cached key.
type Entry struct {
	// Key is the clear-text key the caller used. The physical name is its hash.
	Key string `json:"key"`
	// Value is the cached payload, kept raw so any JSON document round trips.
	Value json.RawMessage `json:"value"`
	// CreatedAt is informational only.
	CreatedAt time.Time `json:"created_at"`
	// ExpiresAt is CreatedAt plus the TTL, fixed at write time.
	ExpiresAt time.Time `json:"expires_at"`
	// TTLSeconds is the TTL that produced ExpiresAt.
	TTLSeconds float64 `json:"ttl_seconds"`
}

func newEntry(key string, value json.RawMessage, now time.Time, ttl time.Duration) Entry {
	now = now.UTC()
	return Entry{
		Key:        key,
		Value:      value,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		TTLSeconds: ttl.Seconds(),
	}
}

// Expired reports whether the entry is logically absent at now. An entry
// without an expiry never expires.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Stats is a read-only snapshot of the store.
type Stats struct {
	Total          int    `json:"total_entries" yaml:"total_entries"`
	Expired        int    `json:"expired_entries" yaml:"expired_entries"`
	Valid          int    `json:"valid_entries" yaml:"valid_entries"`
	TotalSizeBytes int64  `json:"total_size_bytes" yaml:"total_size_bytes"`
	Location       string `json:"location" yaml:"location"`
}
