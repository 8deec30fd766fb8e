// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZENFALLACY/weather-harvester/internal/store"
)

const testKey = "test-key"

// endpoint is a scripted weather server. Each request consumes the next
// response; the last one repeats.
type endpoint struct {
	t         *testing.T
	srv       *httptest.Server
	calls     atomic.Int32
	mu        sync.Mutex
	responses []response
	queries   []url.Values
	agents    []string
}

type response struct {
	status int
	body   string
}

func newEndpoint(t *testing.T, responses ...response) *endpoint {
	t.Helper()
	e := &endpoint{t: t, responses: responses}
	e.srv = httptest.NewServer(http.HandlerFunc(e.serve))
	t.Cleanup(e.srv.Close)
	return e
}

func (e *endpoint) serve(w http.ResponseWriter, r *http.Request) {
	n := int(e.calls.Add(1))

	e.mu.Lock()
	e.queries = append(e.queries, r.URL.Query())
	e.agents = append(e.agents, r.UserAgent())
	resp := e.responses[min(n, len(e.responses))-1]
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	fmt.Fprint(w, resp.body)
}

func (e *endpoint) lastQuery() url.Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queries[len(e.queries)-1]
}

func testLogger() (*log.Logger, *memory.Handler) {
	h := memory.New()
	return &log.Logger{Handler: h, Level: log.DebugLevel}, h
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	fb, err := store.NewFileBackend(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	logger, _ := testLogger()
	return store.New(fb, time.Minute, store.WithLogger(logger))
}

func newTestFetcher(e *endpoint, cache Cache, maxRetries int) *Fetcher {
	logger, _ := testLogger()
	return New(Options{
		APIURL:         e.srv.URL + "/data/2.5/weather",
		APIKey:         testKey,
		RequestTimeout: 2 * time.Second,
		MaxRetries:     maxRetries,
		RetryBackoff:   2.0,
	}, cache, WithLogger(logger), WithBackoffUnit(time.Millisecond))
}

func TestFetch_CoordinatesScenario(t *testing.T) {
	e := newEndpoint(t, response{200, `{"main":{"temp":293.15}}`})
	f := newTestFetcher(e, newTestStore(t), 3)

	first, err := f.Fetch(context.Background(), "51.5,-0.12")
	require.NoError(t, err)
	assert.Equal(t, int32(1), e.calls.Load())
	assert.Equal(t, Payload{"main": map[string]any{"temp": 293.15}}, first)

	q := e.lastQuery()
	assert.Equal(t, "51.5", q.Get("lat"))
	assert.Equal(t, "-0.12", q.Get("lon"))
	assert.Equal(t, testKey, q.Get("appid"))
	assert.False(t, q.Has("q"))
	assert.Equal(t, UserAgent, e.agents[0])

	second, err := f.Fetch(context.Background(), "51.5,-0.12")
	require.NoError(t, err)
	assert.Equal(t, int32(1), e.calls.Load(), "second fetch must be served from cache")
	assert.Equal(t, first, second)
}

func TestFetch_PlaceName(t *testing.T) {
	e := newEndpoint(t, response{200, `{"name":"London"}`})
	f := newTestFetcher(e, nil, 3)

	p, err := f.Fetch(context.Background(), "London,UK")
	require.NoError(t, err)
	assert.Equal(t, "London", p["name"])
	assert.Equal(t, "London,UK", e.lastQuery().Get("q"))
}

func TestFetch_RetryTermination(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("max_retries=%d", n), func(t *testing.T) {
			e := newEndpoint(t, response{500, `{"message":"boom"}`})
			f := newTestFetcher(e, nil, n)

			_, err := f.Fetch(context.Background(), "London")
			require.Error(t, err)
			assert.Equal(t, int32(n), e.calls.Load())
			assert.True(t, errors.Is(err, ErrFetchExhausted))
			assert.False(t, errors.Is(err, ErrFetchFatal))

			var fe *FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, KindRetriesExhausted, fe.Kind)
			assert.Equal(t, n, fe.Attempts)
			assert.Equal(t, 500, fe.StatusCode)
			assert.Equal(t, KindServer, KindOf(fe.Err))
		})
	}
}

func TestFetch_NonPositiveMaxRetries(t *testing.T) {
	e := newEndpoint(t, response{500, `{}`})
	f := newTestFetcher(e, nil, 0)

	_, err := f.Fetch(context.Background(), "London")
	assert.True(t, errors.Is(err, ErrFetchExhausted))
	assert.Equal(t, int32(1), e.calls.Load())
}

func TestFetch_FatalShortCircuit(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{http.StatusUnauthorized, KindAuthentication},
		{http.StatusNotFound, KindNotFound},
		{http.StatusBadRequest, KindClient},
		{http.StatusForbidden, KindClient},
		{http.StatusTooManyRequests, KindClient},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			e := newEndpoint(t, response{tt.status, `{"message":"nope"}`})
			f := newTestFetcher(e, nil, 3)

			_, err := f.Fetch(context.Background(), "London")
			require.Error(t, err)
			assert.Equal(t, int32(1), e.calls.Load())
			assert.True(t, errors.Is(err, ErrFetchFatal))
			assert.False(t, errors.Is(err, ErrFetchExhausted))

			var fe *FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.kind, fe.Kind)
			assert.Equal(t, tt.status, fe.StatusCode)
			assert.Equal(t, 1, fe.Attempts)
		})
	}
}

func TestFetch_RecoversAfterServerErrors(t *testing.T) {
	e := newEndpoint(t,
		response{500, `{}`},
		response{503, `{}`},
		response{200, `{"ok":true}`},
	)
	logger, h := testLogger()
	f := New(Options{APIURL: e.srv.URL, APIKey: testKey, MaxRetries: 3},
		nil, WithLogger(logger), WithBackoffUnit(time.Millisecond))

	p, err := f.Fetch(context.Background(), "London")
	require.NoError(t, err)
	assert.Equal(t, true, p["ok"])
	assert.Equal(t, int32(3), e.calls.Load())

	warns := 0
	for _, entry := range h.Entries {
		if entry.Level == log.WarnLevel {
			warns++
		}
	}
	assert.Equal(t, 2, warns)
}

func TestFetch_MalformedResponse(t *testing.T) {
	for _, body := range []string{`not json`, `[1,2,3]`, `[{"main":{"temp":290}}]`, `null`, `"text"`, ``} {
		t.Run(body, func(t *testing.T) {
			e := newEndpoint(t, response{200, body})
			cache := newTestStore(t)
			f := newTestFetcher(e, cache, 3)

			_, err := f.Fetch(context.Background(), "London")
			require.Error(t, err)
			assert.Equal(t, int32(1), e.calls.Load())
			assert.Equal(t, KindMalformedResponse, KindOf(err))
			assert.True(t, errors.Is(err, ErrFetchFatal))
			assert.Equal(t, 0, cache.Stats().Total, "failures are never cached")
		})
	}
}

func TestFetch_CacheEntriesOmitAPIKey(t *testing.T) {
	e := newEndpoint(t, response{200, `{"name":"London"}`})
	dir := filepath.Join(t.TempDir(), "cache")
	fb, err := store.NewFileBackend(dir)
	require.NoError(t, err)
	f := newTestFetcher(e, store.New(fb, time.Minute), 1)

	_, err = f.Fetch(context.Background(), "London")
	require.NoError(t, err)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	assert.NotContains(t, string(data), testKey)
	assert.Contains(t, string(data), "London:appid=sha256:")
}

func TestFetch_TransportErrorRetried(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	logger, h := testLogger()
	f := New(Options{APIURL: base, APIKey: "secret-key", MaxRetries: 2},
		nil, WithLogger(logger), WithBackoffUnit(time.Millisecond))

	_, err := f.Fetch(context.Background(), "London")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchExhausted))

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 2, fe.Attempts)
	assert.Equal(t, KindTransport, KindOf(fe.Err))
	assert.NotContains(t, err.Error(), "secret-key")

	for _, entry := range h.Entries {
		assert.NotContains(t, entry.Message, "secret-key")
		for _, v := range entry.Fields {
			assert.NotContains(t, fmt.Sprint(v), "secret-key")
		}
	}
}

func TestFetch_CacheBypass(t *testing.T) {
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"n":%d}`, n.Add(1))
	}))
	t.Cleanup(srv.Close)

	cache := newTestStore(t)
	f := New(Options{APIURL: srv.URL, APIKey: testKey}, cache, WithBackoffUnit(time.Millisecond))

	p, err := f.Fetch(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, float64(1), p["n"])

	p, err = f.Fetch(context.Background(), "Paris", WithoutCache())
	require.NoError(t, err)
	assert.Equal(t, int32(2), n.Load(), "bypass performs exactly one network call")
	assert.Equal(t, float64(2), p["n"])

	p, err = f.Fetch(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, int32(2), n.Load())
	assert.Equal(t, float64(2), p["n"], "bypass overwrote the cached entry")
}

func TestFetch_ExtraParams(t *testing.T) {
	e := newEndpoint(t, response{200, `{}`})
	cache := newTestStore(t)
	f := newTestFetcher(e, cache, 1)

	_, err := f.Fetch(context.Background(), "Oslo", WithParams(map[string]string{"units": "metric", "appid": "other"}))
	require.NoError(t, err)

	q := e.lastQuery()
	assert.Equal(t, "metric", q.Get("units"))
	assert.Equal(t, "other", q.Get("appid"))

	// Different params, different slot.
	_, err = f.Fetch(context.Background(), "Oslo")
	require.NoError(t, err)
	assert.Equal(t, int32(2), e.calls.Load())
	assert.Equal(t, 2, cache.Stats().Total)
}

func TestFetch_ContextCancelledDuringBackoff(t *testing.T) {
	e := newEndpoint(t, response{500, `{}`})
	logger, _ := testLogger()
	f := New(Options{APIURL: e.srv.URL, APIKey: testKey, MaxRetries: 5},
		nil, WithLogger(logger), WithBackoffUnit(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Fetch(ctx, "London")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, int32(1), e.calls.Load())
}

func TestFetch_BackoffDelays(t *testing.T) {
	e := newEndpoint(t, response{500, `{}`})
	logger, _ := testLogger()
	f := New(Options{APIURL: e.srv.URL, MaxRetries: 3, RetryBackoff: 2.0},
		nil, WithLogger(logger), WithBackoffUnit(20*time.Millisecond))

	assert.Equal(t, 20*time.Millisecond, f.backoff(0, 0, 0, nil))
	assert.Equal(t, 40*time.Millisecond, f.backoff(0, 0, 1, nil))
	assert.Equal(t, 80*time.Millisecond, f.backoff(0, 0, 2, nil))

	start := time.Now()
	_, err := f.Fetch(context.Background(), "London")
	require.Error(t, err)
	// Waits follow attempts 1 and 2 only; none after the last.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Equal(t, int32(3), e.calls.Load())
}

func TestFetch_RequestTimeoutIsRetried(t *testing.T) {
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
			return
		}
		fmt.Fprint(w, `{"late":false}`)
	}))
	t.Cleanup(srv.Close)

	logger, _ := testLogger()
	f := New(Options{APIURL: srv.URL, RequestTimeout: 100 * time.Millisecond, MaxRetries: 2},
		nil, WithLogger(logger), WithBackoffUnit(time.Millisecond))

	p, err := f.Fetch(context.Background(), "London")
	require.NoError(t, err)
	assert.Equal(t, false, p["late"])
	assert.Equal(t, int32(2), n.Load())
}

func TestNew_Defaults(t *testing.T) {
	f := New(Options{MaxRetries: -4}, nil)
	o := f.Options()
	assert.Equal(t, DefaultAPIURL, o.APIURL)
	assert.Equal(t, DefaultRequestTimeout, o.RequestTimeout)
	assert.Equal(t, 1, o.MaxRetries)
	assert.InDelta(t, DefaultRetryBackoff, o.RetryBackoff, 0)
	assert.True(t, strings.HasPrefix(UserAgent, "WeatherHarvester/"))
}
