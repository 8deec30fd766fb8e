// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"errors"

	"github.com/ZENFALLACY/weather-harvester/internal/config"
	"github.com/ZENFALLACY/weather-harvester/internal/fetcher"
)

// Process exit codes.
const (
	ExitSuccess = iota
	ExitGeneral
	ExitConfig
	ExitNetwork
	ExitValidation
)

var (
	// ErrConfig wraps failures to load or apply configuration.
	ErrConfig = errors.New("configuration error")
	// ErrUsage wraps invalid flag values and arguments.
	ErrUsage = errors.New("invalid usage")
)

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var fe *fetcher.FetchError
	switch {
	case errors.Is(err, ErrUsage):
		return ExitValidation
	case errors.Is(err, ErrConfig),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, config.ErrNotFound),
		errors.Is(err, config.ErrProfileNotFound),
		errors.Is(err, config.ErrUnsupportedFormat):
		return ExitConfig
	case errors.As(err, &fe):
		return ExitNetwork
	default:
		return ExitGeneral
	}
}
