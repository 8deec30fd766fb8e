// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	awsx "github.com/ZENFALLACY/weather-harvester/internal/aws"
	"github.com/ZENFALLACY/weather-harvester/internal/cacheutil"
)

// ErrCacheUnavailable is returned by Open when the location cannot host a
// cache. Callers run uncached rather than fail.
var ErrCacheUnavailable = errors.New("cache unavailable")

const s3Scheme = "s3://"

// WithAWS passes AWS client options through to the S3 backend. It has no
// effect for directory locations.
func WithAWS(opts ...awsx.Option) Option {
	return func(s *settings) { s.awsOpts = append(s.awsOpts, opts...) }
}

// Open builds a Store for location, which is either a directory path or an
// s3://bucket/prefix URI. An empty location means cacheutil.Dir().
func Open(ctx context.Context, location string, defaultTTL time.Duration, opts ...Option) (*Store, error) {
	backend, err := openBackend(ctx, location, collect(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}
	return New(backend, defaultTTL, opts...), nil
}

func openBackend(ctx context.Context, location string, s settings) (Backend, error) {
	if location == "" {
		dir, ok := cacheutil.Dir()
		if !ok {
			return nil, errors.New("no cache directory could be resolved")
		}
		location = dir
	}
	if !IsS3Location(location) {
		return NewFileBackend(location)
	}

	bucket, prefix, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}
	client, err := awsx.NewS3(ctx, s.awsOpts...)
	if err != nil {
		return nil, err
	}
	return NewS3Backend(client, bucket, prefix), nil
}

// IsS3Location reports whether location names a bucket.
func IsS3Location(location string) bool {
	return strings.HasPrefix(strings.ToLower(location), s3Scheme)
}

// ParseS3Location splits s3://bucket/prefix into its parts.
func ParseS3Location(location string) (bucket, prefix string, err error) {
	if !IsS3Location(location) {
		return "", "", fmt.Errorf("not an s3 location: %q", location)
	}
	rest := location[len(s3Scheme):]
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 location has no bucket: %q", location)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}
