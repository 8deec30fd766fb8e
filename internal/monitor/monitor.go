// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package monitor

//go:generate mockgen -source=monitor.go -destination=mock_monitor.go -package=monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/ZENFALLACY/weather-harvester/internal/fetcher"
)

const (
	DefaultInterval        = 5 * time.Minute
	DefaultBreakerFailures = 3
	DefaultBreakerTimeout  = 300 * time.Second

	// MaxWorkers caps parallel fetches per iteration.
	MaxWorkers = 5
)

// ErrNoLocations is returned when there is nothing to monitor.
var ErrNoLocations = errors.New("no locations to monitor")

// Fetcher is what the monitor needs from *fetcher.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, location string, opts ...fetcher.FetchOption) (fetcher.Payload, error)
}

// Enricher is what the monitor needs from *plugins.Registry.
type Enricher interface {
	Apply(fetcher.Payload) fetcher.Payload
}

// Checker is what the monitor needs from *alerts.Manager.
type Checker interface {
	Check(location string, payload fetcher.Payload) []string
}

// Config describes one monitoring session.
type Config struct {
	Locations []string
	Interval  time.Duration
	Parallel  bool
	// BreakerFailures consecutive failed fetches open a location's breaker.
	// Zero disables breakers.
	BreakerFailures int
	// BreakerTimeout is how long an open breaker skips its location.
	BreakerTimeout time.Duration
}

// Result is the outcome for one location in one iteration.
type Result struct {
	Location string
	Payload  fetcher.Payload
	Alerts   []string
	Err      error
	// Skipped is set when an open breaker prevented the fetch.
	Skipped bool
}

// Monitor polls a set of locations.
type Monitor struct {
	cfg      Config
	fetcher  Fetcher
	enricher Enricher
	checker  Checker
	logger   log.Interface
	report   func(Result)

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithEnricher runs every successful payload through e.
func WithEnricher(e Enricher) Option {
	return func(m *Monitor) { m.enricher = e }
}

// WithChecker evaluates every enriched payload with c.
func WithChecker(c Checker) Option {
	return func(m *Monitor) { m.checker = c }
}

// WithLogger routes monitor diagnostics to l.
func WithLogger(l log.Interface) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithReporter calls fn with every result as soon as it is known. fn may be
// called from several goroutines at once in parallel mode.
func WithReporter(fn func(Result)) Option {
	return func(m *Monitor) { m.report = fn }
}

// New returns a Monitor. Zero values in cfg take the package defaults, except
// BreakerFailures where zero means off.
func New(cfg Config, f Fetcher, opts ...Option) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = DefaultBreakerTimeout
	}
	m := &Monitor{
		cfg:      cfg,
		fetcher:  f,
		logger:   log.Log,
		breakers: map[string]*gobreaker.CircuitBreaker{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Run polls every Interval, starting now, until ctx ends. Iterations never
// overlap; a slow one delays the next.
func (m *Monitor) Run(ctx context.Context) error {
	if len(m.cfg.Locations) == 0 {
		return ErrNoLocations
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	if _, err := s.Every(m.cfg.Interval).Do(func() { m.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule monitor: %w", err)
	}

	m.logger.WithFields(log.Fields{
		"locations": len(m.cfg.Locations),
		"interval":  m.cfg.Interval,
		"parallel":  m.cfg.Parallel,
	}).Info("monitoring started")

	s.StartAsync()
	<-ctx.Done()
	s.Stop()

	m.logger.Info("monitoring stopped")
	return nil
}

// RunOnce fetches, enriches and checks every location once. Results follow
// the configured location order. Failures are in the results, never returned.
func (m *Monitor) RunOnce(ctx context.Context) []Result {
	logger := m.logger.WithField("run", uuid.NewString())
	logger.Debug("monitor iteration started")

	results := make([]Result, len(m.cfg.Locations))

	if m.cfg.Parallel && len(m.cfg.Locations) > 1 {
		var g errgroup.Group
		g.SetLimit(min(len(m.cfg.Locations), MaxWorkers))
		for i, loc := range m.cfg.Locations {
			g.Go(func() error {
				results[i] = m.one(ctx, logger, loc)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, loc := range m.cfg.Locations {
			if ctx.Err() != nil {
				results[i] = Result{Location: loc, Err: ctx.Err()}
				continue
			}
			results[i] = m.one(ctx, logger, loc)
		}
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.WithField("locations", len(results)).WithField("failed", failed).Info("monitor iteration complete")
	return results
}

func (m *Monitor) one(ctx context.Context, logger log.Interface, location string) Result {
	logger = logger.WithField("location", location)
	res := Result{Location: location}

	payload, err := m.fetch(ctx, location)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		logger.Warn("skipping location while its breaker is open")
		res.Err = err
		res.Skipped = true
	case err != nil:
		logger.WithError(err).Error("failed to fetch weather")
		res.Err = err
	default:
		if m.enricher != nil {
			payload = m.enricher.Apply(payload)
		}
		if m.checker != nil {
			res.Alerts = m.checker.Check(location, payload)
		}
		res.Payload = payload
	}

	if m.report != nil {
		m.report(res)
	}
	return res
}

func (m *Monitor) fetch(ctx context.Context, location string) (fetcher.Payload, error) {
	cb := m.breaker(location)
	if cb == nil {
		return m.fetcher.Fetch(ctx, location)
	}

	out, err := cb.Execute(func() (any, error) {
		return m.fetcher.Fetch(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	payload, _ := out.(fetcher.Payload)
	return payload, nil
}

// breaker returns the breaker for location, or nil when breakers are off.
func (m *Monitor) breaker(location string) *gobreaker.CircuitBreaker {
	if m.cfg.BreakerFailures <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, ok := m.breakers[location]; ok {
		return cb
	}

	threshold := uint32(m.cfg.BreakerFailures) //nolint:gosec
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        location,
		MaxRequests: 1,
		Timeout:     m.cfg.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.logger.WithFields(log.Fields{
				"location": name,
				"from":     from.String(),
				"to":       to.String(),
			}).Info("breaker state changed")
		},
	})
	m.breakers[location] = cb
	return cb
}
