// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvDir overrides the cache location.
	EnvDir = "WEATHER_HARVESTER_CACHE_DIR"
	// EnvEnabled disables caching when set to "0" or "false".
	EnvEnabled = "WEATHER_HARVESTER_CACHE"

	// EntrySuffix is appended to every encoded key on disk or in a bucket.
	EntrySuffix = ".json"

	appDir = "weather-harvester"
)

// Dir resolves the base cache directory.
// Precedence:
//  1. WEATHER_HARVESTER_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/weather-harvester
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv(EnvDir); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, appDir), true
	}
	return "", false
}

// LogDir is where file logs go when the user asks for them without naming a
// path. It sits next to the cache base.
func LogDir() (string, bool) {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, appDir, "logs"), true
	}
	return "", false
}

// Enabled returns true unless WEATHER_HARVESTER_CACHE explicitly disables it
// ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv(EnvEnabled)
	enabled = strings.ToLower(enabled)
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EnsureDir creates dir (and parents) with owner-only permissions.
func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

// EncodeKey hashes k with SHA-256 and returns the hex string.
func EncodeKey(k string) string {
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:])
}

// EntryName is the physical name of the entry for clear-text key k.
func EntryName(k string) string {
	return EncodeKey(k) + EntrySuffix
}

// IsEntryName reports whether name looks like something EntryName produced.
// Temp files and foreign files are ignored by listings.
func IsEntryName(name string) bool {
	base := strings.TrimSuffix(name, EntrySuffix)
	if base == name || len(base) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(base)
	return err == nil
}
