// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package config loads profile based YAML (or JSON) configuration files and
// resolves them, together with defaults and WEATHER_HARVESTER_* environment
// overrides, into validated Settings.
package config
