// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/ZENFALLACY/weather-harvester/internal/alerts"
	"github.com/ZENFALLACY/weather-harvester/internal/attrs"
	awsx "github.com/ZENFALLACY/weather-harvester/internal/aws"
	"github.com/ZENFALLACY/weather-harvester/internal/cacheutil"
	"github.com/ZENFALLACY/weather-harvester/internal/fetcher"
	"github.com/ZENFALLACY/weather-harvester/internal/meta"
	"github.com/ZENFALLACY/weather-harvester/internal/store"
)

// logger returns the logger the root Before built, or the apex default when
// a command runs without it (tests, --help).
func logger(m *meta.Meta) log.Interface {
	if m == nil || m.Logger == nil {
		return log.Log
	}
	return m.Logger
}

// openStore opens the cache named by the settings. It returns nil when
// caching is disabled or the location is unusable; callers run uncached.
func openStore(ctx context.Context, m *meta.Meta) *store.Store {
	l := logger(m)
	if !cacheutil.Enabled() {
		l.Debug("cache disabled by " + cacheutil.EnvEnabled)
		return nil
	}

	s := m.Settings
	st, err := store.Open(ctx, s.CacheDir, s.TTL(),
		store.WithLogger(l),
		store.WithAWS(
			awsx.WithProfile(s.S3Profile),
			awsx.WithRegion(s.S3Region),
			awsx.WithEndpoint(s.S3Endpoint),
		),
	)
	if err != nil {
		l.WithError(err).Warn("continuing without cache")
		return nil
	}
	l.WithField("location", st.Location()).Debug("cache opened")
	return st
}

// newFetcher builds the fetcher for the active settings. st may be nil.
func newFetcher(m *meta.Meta, st *store.Store) *fetcher.Fetcher {
	s := m.Settings
	opts := fetcher.Options{
		APIURL:         s.APIURL,
		APIKey:         s.APIKey,
		RequestTimeout: s.Timeout(),
		MaxRetries:     s.MaxRetries,
		RetryBackoff:   s.RetryBackoff,
	}

	// A nil *store.Store must not reach the fetcher as a non-nil interface.
	var cache fetcher.Cache
	if st != nil {
		cache = st
	}
	return fetcher.New(opts, cache, fetcher.WithLogger(logger(m)))
}

// newAlertManager builds the alert manager from the configured thresholds.
func newAlertManager(m *meta.Meta) *alerts.Manager {
	s := m.Settings
	return alerts.NewManager(
		alerts.Thresholds{
			TempMinC:     s.AlertTemperatureMin,
			TempMaxC:     s.AlertTemperatureMax,
			HumidityMax:  s.AlertHumidityMax,
			WindSpeedMax: s.AlertWindSpeedMax,
		},
		alerts.WithNotifier(alerts.NewConsoleNotifier(m.Stderr)),
		alerts.WithCooldown(s.Cooldown()),
		alerts.WithLogger(logger(m)),
	)
}

// validateSettings wraps settings validation failures so they map to the
// configuration exit code.
func validateSettings(m *meta.Meta) error {
	if err := m.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return nil
}

// BuildAttrs constructs an AttrList from defaults plus --attrs, then applies
// the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (attrs.AttrList, error) {
	var al attrs.AttrList
	for _, d := range defaults {
		if err := al.Set(d); err != nil {
			return nil, err
		}
	}
	if extras := cmd.String("attrs"); extras != "" {
		if err := al.Set(extras); err != nil {
			return nil, err
		}
	}
	al.SetGlobalTransformSpec()
	return al, nil
}

// debugArgs logs the invocation the way every action starts.
func debugArgs(m *meta.Meta, cmd *cli.Command) {
	logger(m).WithField("command", cmd.Name).WithField("args", cmd.Args().Slice()).Debug("executing action")
}
