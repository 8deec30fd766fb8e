// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package alerts checks weather payloads against configured thresholds and
// notifies, at most once per location per cooldown window.
package alerts
