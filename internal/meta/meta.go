// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package meta holds the state every command shares once the root command
// has resolved configuration and logging.
package meta

import (
	"io"

	"github.com/apex/log"

	"github.com/ZENFALLACY/weather-harvester/internal/config"
)

// Meta are the meta-options that are available on all or most commands. The
// root command fills it in before any subcommand runs.
type Meta struct {
	Args    []string
	Profile string
	// ConfigSource is the resolved config file, empty when none was found.
	// Flag value sources read it by pointer.
	ConfigSource string
	Config       config.Type
	Settings     config.Settings
	Logger       log.Interface

	Stdout io.Writer
	Stderr io.Writer

	closers []func() error
}

// OnClose registers fn to run from Close.
func (m *Meta) OnClose(fn func() error) {
	m.closers = append(m.closers, fn)
}

// Close runs the registered closers in reverse order and returns the first
// error.
func (m *Meta) Close() error {
	var first error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	m.closers = nil
	return first
}
