// Package remote is the single gateway for outbound HTTP to archlinux.org
// and the AUR. It layers a shared concurrency limit, per-endpoint-pattern
// adaptive backoff, per-pattern circuit breaking, and a stale-response cache
// fallback over a DNS-cached transport.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/charmbracelet/log"
	"github.com/rs/dnscache"
	circuit "github.com/rubyist/circuitbreaker"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrNotFound marks an HTTP 404; it never trips the circuit breaker.
	ErrNotFound = errors.New("resource not found")
	// ErrRateLimited marks an upstream 429 or explicit Retry-After.
	ErrRateLimited = errors.New("rate limited by upstream")
	// ErrUpstreamDown is returned when the circuit is open and no cached
	// response exists.
	ErrUpstreamDown = errors.New("upstream unavailable")
)

const (
	defaultUserAgent     = "pacterm/0.1"
	defaultMaxConcurrent = 4
	defaultTimeout       = 15 * time.Second

	// tripThreshold is the consecutive-failure count that opens a breaker.
	tripThreshold = 2

	initialDelay    = 500 * time.Millisecond
	maxDelay        = 30 * time.Second
	timeoutDelayAdd = 250 * time.Millisecond
)

// endpointState is the per-pattern backoff and breaker bundle.
type endpointState struct {
	breaker *circuit.Breaker
	exp     *backoff.ExponentialBackOff
	delay   time.Duration
}

// Options configure a Client.
type Options struct {
	CacheDir      string
	Logger        *log.Logger
	MaxConcurrent int64
	Timeout       time.Duration
	UserAgent     string
}

// Client enforces rate limiting, backoff, circuit breaking, and cached
// fallback for every outbound request.
type Client struct {
	http      *http.Client
	limiter   *semaphore.Weighted
	cache     *Cache
	userAgent string
	logger    *log.Logger

	mu        sync.Mutex
	endpoints map[string]*endpointState
}

// New builds a Client. The HTTP transport resolves hosts through a refreshed
// DNS cache so repeated API calls skip resolution.
func New(opts Options) *Client {
	maxConc := opts.MaxConcurrent
	if maxConc <= 0 {
		maxConc = defaultMaxConcurrent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}

	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					host, port, err := net.SplitHostPort(addr)
					if err != nil {
						return nil, err
					}
					ips, err := resolver.LookupHost(ctx, host)
					if err != nil {
						return nil, err
					}
					var lastErr error
					for _, ip := range ips {
						conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
						if err == nil {
							return conn, nil
						}
						lastErr = err
					}
					if lastErr == nil {
						lastErr = fmt.Errorf("no addresses for %s", host)
					}
					return nil, lastErr
				},
				MaxIdleConnsPerHost: 4,
			},
		},
		limiter:   semaphore.NewWeighted(maxConc),
		cache:     NewCache(opts.CacheDir),
		userAgent: ua,
		logger:    logger,
		endpoints: make(map[string]*endpointState),
	}
}

func (c *Client) endpoint(pattern string) *endpointState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.endpoints[pattern]; ok {
		return st
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialDelay
	exp.MaxInterval = maxDelay
	exp.Multiplier = 2.0
	exp.MaxElapsedTime = 0
	exp.Reset()

	st := &endpointState{
		breaker: circuit.NewBreakerWithOptions(&circuit.Options{
			ShouldTrip: circuit.ThresholdTripFunc(tripThreshold),
		}),
		exp: exp,
	}
	c.endpoints[pattern] = st
	return st
}

// GetJSON fetches a URL and decodes the body into dest. The boolean reports
// whether the payload is fresh; false means a stale cached response was
// served because the request failed or the circuit was open.
func (c *Client) GetJSON(ctx context.Context, rawURL string, dest any) (bool, error) {
	body, fresh, err := c.get(ctx, rawURL)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fresh, fmt.Errorf("decode %s: %w", EndpointPattern(rawURL), err)
	}
	return fresh, nil
}

// GetText fetches a URL and returns the body as text, with the same
// fresh-vs-cached contract as GetJSON.
func (c *Client) GetText(ctx context.Context, rawURL string) (string, bool, error) {
	body, fresh, err := c.get(ctx, rawURL)
	if err != nil {
		return "", false, err
	}
	return string(body), fresh, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, bool, error) {
	pattern := EndpointPattern(rawURL)
	st := c.endpoint(pattern)

	if !st.breaker.Ready() {
		if body, ok := c.cache.Load(rawURL); ok {
			c.logger.Debug("circuit open, serving cached response", "pattern", pattern)
			return body, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", pattern, ErrUpstreamDown)
	}

	if delay := c.currentDelay(st); delay > 0 {
		// A pending cooldown means the endpoint just pushed back; prefer a
		// cached body over waiting out the delay and hitting it again.
		if body, ok := c.cache.Load(rawURL); ok {
			c.logger.Debug("cooldown pending, serving cached response", "pattern", pattern)
			return body, false, nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, false, ctx.Err()
		case <-timer.C:
		}
	}

	if err := c.limiter.Acquire(ctx, 1); err != nil {
		return nil, false, err
	}
	body, err := c.fetch(ctx, rawURL)
	c.limiter.Release(1)

	if err == nil {
		st.breaker.Success()
		c.resetDelay(st)
		c.cache.Store(rawURL, body)
		return body, true, nil
	}

	if errors.Is(err, ErrNotFound) {
		// 404 is an answer, not an outage.
		st.breaker.Success()
		return nil, false, err
	}

	st.breaker.Fail()
	c.logger.Debug("request failed", "pattern", pattern, "err", err)
	if body, ok := c.cache.Load(rawURL); ok {
		return body, false, nil
	}
	return nil, false, err
}

// fetch performs one HTTP round trip and classifies the outcome, adjusting
// the endpoint's backoff delay as a side effect.
func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	st := c.endpoint(EndpointPattern(rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			c.bumpDelayAdditive(st)
		}
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		c.bumpDelayExponential(st, retryAfter(resp))
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ErrRateLimited)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (c *Client) currentDelay(st *endpointState) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return st.delay
}

func (c *Client) resetDelay(st *endpointState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st.exp.Reset()
	st.delay = 0
}

// bumpDelayExponential doubles the current delay through the exponential
// generator, honoring an explicit Retry-After when the server supplied one.
func (c *Client) bumpDelayExponential(st *endpointState, retryAfter time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if retryAfter > 0 {
		st.delay = min(retryAfter, maxDelay)
		return
	}
	next := st.exp.NextBackOff()
	if next == backoff.Stop || next > maxDelay {
		next = maxDelay
	}
	st.delay = next
}

// bumpDelayAdditive applies the small fixed bump used for timeouts.
func (c *Client) bumpDelayAdditive(st *endpointState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st.delay = min(st.delay+timeoutDelayAdd, maxDelay)
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil {
		return time.Until(when)
	}
	return 0
}
