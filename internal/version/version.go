// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package version carries the build version, stamped at link time with
// -ldflags "-X github.com/ZENFALLACY/weather-harvester/internal/version.Version=...".
package version

// Version is the release this binary was built from.
var Version = "1.0.0-dev"
