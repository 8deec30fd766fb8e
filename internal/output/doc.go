// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package output provides rendering, filtering and sorting utilities used by
// commands to present weather payloads, result sets and cache statistics.
package output
