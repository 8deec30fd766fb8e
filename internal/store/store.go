// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/apex/log"

	awsx "github.com/ZENFALLACY/weather-harvester/internal/aws"
	"github.com/ZENFALLACY/weather-harvester/internal/cacheutil"
)

// DefaultTTL applies when a Store is created with a non-positive TTL.
const DefaultTTL = 300 * time.Second

var (
	errCacheRead  = errors.New("cache read failed")
	errCacheWrite = errors.New("cache write failed")
)

// Store is a durable expiring key/value cache. All operations are safe for
// concurrent use; they are serialized by a single mutex so that a
// read-modify-write such as lazy expiry cannot interleave with a Set.
type Store struct {
	mu         sync.Mutex
	backend    Backend
	defaultTTL time.Duration
	logger     log.Interface
	now        func() time.Time
}

// Option customizes a Store.
type Option func(*settings)

type settings struct {
	logger  log.Interface
	now     func() time.Time
	awsOpts []awsx.Option
}

// WithLogger routes store diagnostics to l instead of the global apex logger.
func WithLogger(l log.Interface) Option {
	return func(s *settings) { s.logger = l }
}

// WithClock replaces time.Now. Tests use it to step over expiry boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func collect(opts []Option) settings {
	s := settings{logger: log.Log, now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// New returns a Store over backend. A non-positive defaultTTL falls back to
// DefaultTTL.
func New(backend Backend, defaultTTL time.Duration, opts ...Option) *Store {
	s := collect(opts)
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Store{
		backend:    backend,
		defaultTTL: defaultTTL,
		logger:     s.logger,
		now:        s.now,
	}
}

// Location describes where the entries live.
func (s *Store) Location() string {
	return s.backend.Location()
}

// TTL is the TTL Set applies.
func (s *Store) TTL() time.Duration {
	return s.defaultTTL
}

// Get returns the raw value stored under key. Missing, unreadable, and expired
// entries all report false; an expired entry is removed on the way out.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.logger.WithField("key", key)
	name := cacheutil.EntryName(key)

	entry, err := s.read(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		l.Debug("cache miss")
		return nil, false
	case err != nil:
		l.WithError(err).Warn("ignoring unreadable cache entry")
		return nil, false
	}

	if entry.Expired(s.now()) {
		l.Debug("cache entry expired")
		if err := s.backend.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			l.WithError(err).Warn("failed to remove expired cache entry")
		}
		return nil, false
	}

	l.Debug("cache hit")
	return entry.Value, true
}

// GetInto decodes the value stored under key into v. It reports false when
// Get would, or when the value does not decode into v.
func (s *Store) GetInto(key string, v any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.WithField("key", key).WithError(err).Warn("ignoring undecodable cache value")
		return false
	}
	return true
}

// Set stores value under key with the default TTL.
func (s *Store) Set(key string, value any) {
	s.SetWithTTL(key, value, s.defaultTTL)
}

// SetWithTTL stores value under key, replacing any previous entry. A
// non-positive ttl produces an entry that is already expired. Failures are
// logged, never returned.
func (s *Store) SetWithTTL(key string, value any, ttl time.Duration) {
	if err := s.write(key, value, ttl); err != nil {
		s.logger.WithField("key", key).WithError(err).Error("failed to write cache entry")
		return
	}
	s.logger.WithField("key", key).WithField("ttl", ttl).Debug("cache set")
}

// Delete removes the entry for key, reporting whether one existed.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.backend.Remove(cacheutil.EntryName(key))
	switch {
	case err == nil:
		s.logger.WithField("key", key).Debug("cache entry deleted")
		return true
	case errors.Is(err, fs.ErrNotExist):
		return false
	default:
		s.logger.WithField("key", key).WithError(err).Error("failed to delete cache entry")
		return false
	}
}

// Clear removes every entry and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	objs, err := s.backend.List()
	if err != nil {
		s.logger.WithError(err).Error("failed to list cache entries")
		return 0
	}

	removed := 0
	for _, o := range objs {
		if err := s.backend.Remove(o.Name); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				s.logger.WithField("entry", o.Name).WithError(err).Warn("failed to remove cache entry")
			}
			continue
		}
		removed++
	}

	s.logger.WithField("removed", removed).Info("cache cleared")
	return removed
}

// CleanupExpired removes every entry that has expired and returns how many
// were removed. Unreadable entries are left alone.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	objs, err := s.backend.List()
	if err != nil {
		s.logger.WithError(err).Error("failed to list cache entries")
		return 0
	}

	now := s.now()
	removed := 0
	for _, o := range objs {
		entry, err := s.read(o.Name)
		if err != nil || !entry.Expired(now) {
			continue
		}
		if err := s.backend.Remove(o.Name); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				s.logger.WithField("entry", o.Name).WithError(err).Warn("failed to remove expired cache entry")
			}
			continue
		}
		removed++
	}

	s.logger.WithField("removed", removed).Info("expired cache entries cleaned up")
	return removed
}

// Stats counts entries without modifying anything. Unreadable entries count
// toward Total and Valid.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{Location: s.backend.Location()}

	objs, err := s.backend.List()
	if err != nil {
		s.logger.WithError(err).Error("failed to list cache entries")
		return stats
	}

	now := s.now()
	for _, o := range objs {
		stats.Total++
		stats.TotalSizeBytes += o.Size
		if entry, err := s.read(o.Name); err == nil && entry.Expired(now) {
			stats.Expired++
		}
	}
	stats.Valid = stats.Total - stats.Expired
	return stats
}

// read loads and decodes one record. The caller holds s.mu.
func (s *Store) read(name string) (Entry, error) {
	data, err := s.backend.Read(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("%w: %w", errCacheRead, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("%w: %w", errCacheRead, err)
	}
	if len(entry.Value) == 0 {
		return Entry{}, fmt.Errorf("%w: %s has no value", errCacheRead, name)
	}
	return entry, nil
}

func (s *Store) write(key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %w", errCacheWrite, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(newEntry(key, raw, s.now(), ttl), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", errCacheWrite, err)
	}
	if err := s.backend.Write(cacheutil.EntryName(key), data); err != nil {
		return fmt.Errorf("%w: %w", errCacheWrite, err)
	}
	return nil
}
