// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ZENFALLACY/weather-harvester/internal/fetcher"
)

func quietLogger() log.Interface {
	return &log.Logger{Handler: memory.New(), Level: log.DebugLevel}
}

func TestRunOnce_Sequential(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := NewMockFetcher(ctrl)
	e := NewMockEnricher(ctrl)
	c := NewMockChecker(ctrl)

	paris := fetcher.Payload{"name": "Paris"}
	enriched := fetcher.Payload{"name": "Paris", "insights": []any{"Clear skies"}}
	boom := &fetcher.FetchError{Kind: fetcher.KindNotFound, StatusCode: 404}

	gomock.InOrder(
		f.EXPECT().Fetch(gomock.Any(), "Paris").Return(paris, nil),
		f.EXPECT().Fetch(gomock.Any(), "Atlantis").Return(nil, boom),
	)
	e.EXPECT().Apply(paris).Return(enriched)
	c.EXPECT().Check("Paris", enriched).Return([]string{"Temperature too high: 40.0°C (threshold: 35°C)"})

	m := New(Config{Locations: []string{"Paris", "Atlantis"}}, f,
		WithEnricher(e), WithChecker(c), WithLogger(quietLogger()))

	results := m.RunOnce(context.Background())
	require.Len(t, results, 2)

	assert.Equal(t, "Paris", results[0].Location)
	assert.Equal(t, enriched, results[0].Payload)
	assert.Len(t, results[0].Alerts, 1)
	assert.NoError(t, results[0].Err)

	assert.Equal(t, "Atlantis", results[1].Location)
	assert.True(t, errors.Is(results[1].Err, fetcher.ErrFetchFatal))
	assert.Nil(t, results[1].Payload)
	assert.False(t, results[1].Skipped)
}

func TestRunOnce_ParallelBoundedWorkers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var locations []string
	for i := range 12 {
		locations = append(locations, fmt.Sprintf("loc-%02d", i))
	}

	var active, peak atomic.Int32
	f := NewMockFetcher(ctrl)
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).Times(len(locations)).
		DoAndReturn(func(_ context.Context, loc string, _ ...fetcher.FetchOption) (fetcher.Payload, error) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			active.Add(-1)
			return fetcher.Payload{"name": loc}, nil
		})

	var mu sync.Mutex
	var reported []string
	m := New(Config{Locations: locations, Parallel: true}, f,
		WithLogger(quietLogger()),
		WithReporter(func(r Result) {
			mu.Lock()
			defer mu.Unlock()
			reported = append(reported, r.Location)
		}))

	results := m.RunOnce(context.Background())
	require.Len(t, results, len(locations))
	for i, r := range results {
		assert.Equal(t, locations[i], r.Location, "results keep location order")
		assert.Equal(t, locations[i], r.Payload["name"])
	}
	assert.LessOrEqual(t, peak.Load(), int32(MaxWorkers))
	assert.Greater(t, peak.Load(), int32(1))
	assert.ElementsMatch(t, locations, reported)
}

func TestRunOnce_BreakerSkipsFailingLocation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := NewMockFetcher(ctrl)
	down := &fetcher.FetchError{Kind: fetcher.KindRetriesExhausted}
	f.EXPECT().Fetch(gomock.Any(), "Down").Return(nil, down).Times(2)
	f.EXPECT().Fetch(gomock.Any(), "Up").Return(fetcher.Payload{}, nil).Times(3)

	m := New(Config{Locations: []string{"Down", "Up"}, BreakerFailures: 2, BreakerTimeout: time.Hour}, f,
		WithLogger(quietLogger()))

	for range 2 {
		r := m.RunOnce(context.Background())
		assert.True(t, errors.Is(r[0].Err, fetcher.ErrFetchExhausted))
		assert.False(t, r[0].Skipped)
	}

	r := m.RunOnce(context.Background())
	assert.True(t, r[0].Skipped)
	assert.Error(t, r[0].Err)
	assert.NoError(t, r[1].Err)
}

func TestRunOnce_BreakerDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := NewMockFetcher(ctrl)
	f.EXPECT().Fetch(gomock.Any(), "Down").Return(nil, errors.New("dial tcp: refused")).Times(5)

	m := New(Config{Locations: []string{"Down"}}, f, WithLogger(quietLogger()))
	for range 5 {
		r := m.RunOnce(context.Background())
		assert.False(t, r[0].Skipped)
	}
}

func TestRunOnce_CancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := NewMockFetcher(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	f.EXPECT().Fetch(gomock.Any(), "First").DoAndReturn(
		func(context.Context, string, ...fetcher.FetchOption) (fetcher.Payload, error) {
			cancel()
			return fetcher.Payload{}, nil
		})

	m := New(Config{Locations: []string{"First", "Second"}}, f, WithLogger(quietLogger()))
	r := m.RunOnce(ctx)
	assert.NoError(t, r[0].Err)
	assert.True(t, errors.Is(r[1].Err, context.Canceled))
}

func TestRun_SchedulesUntilCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var calls atomic.Int32
	f := NewMockFetcher(ctrl)
	f.EXPECT().Fetch(gomock.Any(), "Paris").AnyTimes().
		DoAndReturn(func(context.Context, string, ...fetcher.FetchOption) (fetcher.Payload, error) {
			calls.Add(1)
			return fetcher.Payload{}, nil
		})

	m := New(Config{Locations: []string{"Paris"}, Interval: time.Second}, f, WithLogger(quietLogger()))

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, m.Run(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Second)
	// Immediately, then once a second.
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
	assert.LessOrEqual(t, calls.Load(), int32(4))
}

func TestRun_NoLocations(t *testing.T) {
	m := New(Config{}, nil)
	assert.ErrorIs(t, m.Run(context.Background()), ErrNoLocations)
}

func TestNew_Defaults(t *testing.T) {
	m := New(Config{}, nil)
	assert.Equal(t, DefaultInterval, m.cfg.Interval)
	assert.Equal(t, DefaultBreakerTimeout, m.cfg.BreakerTimeout)
	assert.Nil(t, m.breaker("x"), "zero failures disables breakers")
}
