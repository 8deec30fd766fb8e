// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package monitor polls a list of locations on a schedule. Each iteration
// fetches every location (optionally in parallel), enriches the payloads,
// and checks alerts. A failing location is logged and left for the next
// iteration; repeated failures open that location's circuit breaker so it is
// skipped for a while instead of hammering the endpoint.
package monitor
