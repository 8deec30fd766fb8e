// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package plugins

import (
	"fmt"

	"github.com/apex/log"

	"github.com/ZENFALLACY/weather-harvester/internal/fetcher"
)

// Plugin enriches a payload. Transform must not modify its argument; it
// returns a new payload (usually a Clone with extra keys).
type Plugin interface {
	Name() string
	Version() string
	Description() string
	Transform(fetcher.Payload) (fetcher.Payload, error)
}

// Validator is implemented by plugins that can report they are unusable.
type Validator interface {
	Validate() error
}

// Registry holds plugins in registration order.
type Registry struct {
	plugins []Plugin
	logger  log.Interface
}

// NewRegistry returns an empty registry.
func NewRegistry(logger log.Interface) *Registry {
	if logger == nil {
		logger = log.Log
	}
	return &Registry{logger: logger}
}

// Default returns a registry with the built-in plugins.
func Default(logger log.Interface) *Registry {
	r := NewRegistry(logger)
	for _, p := range []Plugin{TemperatureConverter{}, WeatherAnalyzer{}} {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

// Register appends p. Names are unique, and a plugin that fails Validate is
// refused.
func (r *Registry) Register(p Plugin) error {
	if _, ok := r.Lookup(p.Name()); ok {
		return fmt.Errorf("plugin %q already registered", p.Name())
	}
	if v, ok := p.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("plugin %q failed validation: %w", p.Name(), err)
		}
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// Lookup finds a plugin by name.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	for _, p := range r.plugins {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Plugins returns the registered plugins in order.
func (r *Registry) Plugins() []Plugin {
	return append([]Plugin(nil), r.plugins...)
}

// Apply runs every plugin in order, feeding each the previous output. A
// plugin that fails is logged and skipped.
func (r *Registry) Apply(payload fetcher.Payload) fetcher.Payload {
	cur := payload
	for _, p := range r.plugins {
		out, err := transform(p, cur)
		if err != nil {
			r.logger.WithField("plugin", p.Name()).WithError(err).Warn("plugin failed")
			continue
		}
		if out != nil {
			cur = out
		}
	}
	return cur
}

func transform(p Plugin, payload fetcher.Payload) (out fetcher.Payload, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return p.Transform(payload)
}
