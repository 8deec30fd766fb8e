// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package store is the durable expiring key/value cache that sits in front of
// the weather endpoint. Entries are JSON records addressed by the SHA-256 of
// their key, written atomically to a directory or an S3 bucket, and expired
// lazily on read or explicitly by CleanupExpired. The cache is an accelerator
// only: every storage error is logged and swallowed at this boundary.
package store
