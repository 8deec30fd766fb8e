// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package fetcher turns a location into a weather payload. It canonicalizes
// the request into query parameters and a cache key, consults the cache, and
// on a miss runs a bounded retry loop against the weather endpoint. Outcomes
// that cannot improve on retry (auth, not found, client errors, garbage
// bodies) stop the loop at once; server and transport failures are retried
// with exponential backoff.
package fetcher
