// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultAPIURL         = "https://api.openweathermap.org/data/2.5/weather"
	DefaultRequestTimeout = 10 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryBackoff   = 2.0

	// UserAgent identifies every request.
	UserAgent = "WeatherHarvester/1.0"

	maxBodyBytes = 10 << 20
)

// Cache is the key/value contract the fetcher needs. *store.Store satisfies
// it.
type Cache interface {
	GetInto(key string, v any) bool
	Set(key string, value any)
}

// Options are the endpoint settings a Fetcher is built from.
type Options struct {
	APIURL         string
	APIKey         string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   float64
}

func (o Options) withDefaults() Options {
	if o.APIURL == "" {
		o.APIURL = DefaultAPIURL
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.MaxRetries < 1 {
		o.MaxRetries = 1
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	return o
}

// Fetcher resolves locations to payloads. It is safe for concurrent use.
type Fetcher struct {
	opts        Options
	cache       Cache
	logger      log.Interface
	backoffUnit time.Duration
	client      *retryablehttp.Client
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithLogger routes fetch diagnostics to l.
func WithLogger(l log.Interface) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithBackoffUnit scales the retry delay. The delay before attempt n+1 is
// unit * RetryBackoff^n; the unit is one second unless tests shrink it.
func WithBackoffUnit(d time.Duration) Option {
	return func(f *Fetcher) { f.backoffUnit = d }
}

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is
// overwritten with Options.RequestTimeout.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client.HTTPClient = c }
}

// New builds a Fetcher. A nil cache means every fetch goes to the network.
// Do not pass a typed nil pointer as cache.
func New(opts Options, cache Cache, options ...Option) *Fetcher {
	f := &Fetcher{
		opts:        opts.withDefaults(),
		cache:       cache,
		logger:      log.Log,
		backoffUnit: time.Second,
		client:      retryablehttp.NewClient(),
	}
	for _, o := range options {
		o(f)
	}

	f.client.HTTPClient.Timeout = f.opts.RequestTimeout
	f.client.RetryMax = f.opts.MaxRetries - 1
	f.client.Logger = leveledLogger{f.logger}
	f.client.RequestLogHook = requestLogHook
	f.client.CheckRetry = checkRetry
	f.client.Backoff = f.backoff
	f.client.ErrorHandler = giveUp
	return f
}

// Options returns the effective endpoint settings.
func (f *Fetcher) Options() Options {
	return f.opts
}

type fetchSettings struct {
	useCache bool
	extra    map[string]string
}

// FetchOption adjusts a single Fetch call.
type FetchOption func(*fetchSettings)

// WithoutCache skips the cache read. The fresh result is still cached.
func WithoutCache() FetchOption {
	return func(s *fetchSettings) { s.useCache = false }
}

// WithParams adds query parameters. They win over the derived ones.
func WithParams(params map[string]string) FetchOption {
	return func(s *fetchSettings) {
		if s.extra == nil {
			s.extra = map[string]string{}
		}
		maps.Copy(s.extra, params)
	}
}

// Fetch returns the payload for location, from the cache when allowed and
// fresh, else from the endpoint. Endpoint failures are *FetchError; a
// cancelled ctx returns the context's error.
func (f *Fetcher) Fetch(ctx context.Context, location string, opts ...FetchOption) (Payload, error) {
	s := fetchSettings{useCache: true}
	for _, o := range opts {
		o(&s)
	}

	params := ParseLocation(location)
	params[paramKey] = f.opts.APIKey
	maps.Copy(params, s.extra)

	key := BuildCacheKey(location, cacheParams(params))
	logger := f.logger.WithField("location", location)

	if s.useCache && f.cache != nil {
		var cached Payload
		if f.cache.GetInto(key, &cached) {
			logger.Debug("using cached weather")
			return cached, nil
		}
	}

	payload, err := f.do(ctx, logger, params)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		f.cache.Set(key, payload)
	}
	return payload, nil
}

type attemptsKey struct{}

// call tracks one Fetch through the retry loop.
type call struct {
	logger   log.Interface
	attempts int
}

func (f *Fetcher) do(ctx context.Context, logger log.Interface, params map[string]string) (Payload, error) {
	u, err := url.Parse(f.opts.APIURL)
	if err != nil {
		return nil, &FetchError{Kind: KindClient, Err: fmt.Errorf("invalid api url: %w", err)}
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	c := &call{logger: logger}
	ctx = context.WithValue(ctx, attemptsKey{}, c)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{Kind: KindClient, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if ctxErr := ctx.Err(); ctxErr != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, ctxErr
	}
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			logger.WithError(err).Error("weather fetch failed")
			return nil, err
		}
		return nil, &FetchError{Kind: KindTransport, Attempts: c.attempts, Err: redact(err)}
	}
	defer resp.Body.Close()

	if err := classify(resp, c.attempts); err != nil {
		logger.WithError(err).Error("weather fetch failed")
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		err = &FetchError{Kind: KindTransport, StatusCode: resp.StatusCode, Attempts: c.attempts, Err: err}
		logger.WithError(err).Error("weather fetch failed")
		return nil, err
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		if err == nil {
			err = errors.New("response is not a JSON object")
		}
		err = &FetchError{Kind: KindMalformedResponse, StatusCode: resp.StatusCode, Attempts: c.attempts, Err: err}
		logger.WithError(err).Error("weather fetch failed")
		return nil, err
	}

	logger.WithField("attempts", c.attempts).Debug("weather fetched")
	return payload, nil
}

// classify maps a final non-retried response to an error, or nil for 2xx.
func classify(resp *http.Response, attempts int) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	kind := KindClient
	switch {
	case code == http.StatusUnauthorized:
		kind = KindAuthentication
	case code == http.StatusNotFound:
		kind = KindNotFound
	case code >= 500:
		kind = KindServer
	}
	return &FetchError{Kind: kind, StatusCode: code, Attempts: attempts, Err: errors.New(http.StatusText(code))}
}

func (f *Fetcher) backoff(_, _ time.Duration, attempt int, _ *http.Response) time.Duration {
	return time.Duration(float64(f.backoffUnit) * math.Pow(f.opts.RetryBackoff, float64(attempt)))
}

func callFrom(ctx context.Context) *call {
	if c, ok := ctx.Value(attemptsKey{}).(*call); ok {
		return c
	}
	return &call{logger: log.Log}
}

func requestLogHook(_ retryablehttp.Logger, req *http.Request, attempt int) {
	c := callFrom(req.Context())
	c.attempts = attempt + 1
	c.logger.WithField("attempt", c.attempts).Debug("requesting weather")
}

// checkRetry retries transport errors and 5xx responses, nothing else.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	c := callFrom(ctx)
	switch {
	case err != nil:
		c.logger.WithField("attempt", c.attempts).WithError(redact(err)).Warn("weather request failed")
		return true, nil
	case resp.StatusCode >= 500:
		c.logger.WithField("attempt", c.attempts).WithField("status", resp.StatusCode).Warn("weather server error")
		return true, nil
	}
	return false, nil
}

// giveUp runs when the retry budget is spent on retryable failures.
func giveUp(resp *http.Response, err error, tries int) (*http.Response, error) {
	cause := &FetchError{Kind: KindTransport, Attempts: tries, Err: redact(err)}
	if resp != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if err == nil {
			cause = &FetchError{Kind: KindServer, StatusCode: resp.StatusCode, Attempts: tries, Err: errors.New(http.StatusText(resp.StatusCode))}
		}
	}
	return nil, &FetchError{Kind: KindRetriesExhausted, StatusCode: cause.StatusCode, Attempts: tries, Err: cause}
}

// redact drops the request URL, which carries the api key, from transport
// errors.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
