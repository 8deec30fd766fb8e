// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// weather-harvester is the entry point for the weather-harvester command line
// tool. It loads .env, wires the CLI from internal/command and maps errors to
// exit codes.
package main
