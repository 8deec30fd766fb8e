// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package plugins is the payload enrichment pipeline. Plugins are registered
// explicitly; there is no discovery.
package plugins
