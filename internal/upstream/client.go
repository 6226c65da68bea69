// Package upstream is the single outbound HTTP boundary to the external
// commerce API. All authentication, persistence, pricing and payment logic
// lives behind that API; this client only moves requests and responses.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
)

// Config holds upstream connection settings.
type Config struct {
	// BaseURL is the root of the external commerce API.
	BaseURL string
	// Timeout caps a single round trip. There is no retry or backoff here:
	// this is an interactive client path, transient failures surface
	// immediately (the session client's single refresh-retry is the only
	// sanctioned retry in the system).
	Timeout time.Duration
	// BreakerEnabled turns on the circuit breaker for upstream calls.
	BreakerEnabled bool
}

// DefaultConfig returns settings suitable for development.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		Timeout:        15 * time.Second,
		BreakerEnabled: true,
	}
}

var (
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests sent to the external commerce API",
		},
		[]string{"method", "status"},
	)

	upstreamBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "upstream_circuit_breaker_state",
			Help: "Circuit breaker state for the upstream API (0=closed, 1=half-open, 2=open)",
		},
	)
)

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Client performs plain (unauthenticated) calls against the upstream API.
// Authenticated traffic goes through the session client, which wraps this
// one with bearer attachment and the refresh-retry protocol.
type Client struct {
	base    *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *slog.Logger
}

// New creates an upstream client. Only transport-level failures trip the
// breaker: non-2xx responses are application outcomes that the caller must
// see untouched.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("upstream base URL %q must be absolute", cfg.BaseURL)
	}

	c := &Client{
		base: base,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:   true,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}

	if cfg.BreakerEnabled {
		c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:     "upstream-api",
			Interval: 60 * time.Second,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < 5 {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("upstream circuit breaker state change",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
				upstreamBreakerState.Set(breakerStateValue(to))
			},
		})
		upstreamBreakerState.Set(0)
	}

	return c, nil
}

// URL resolves path (plus optional raw query) against the upstream base.
func (c *Client) URL(path, rawQuery string) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawQuery = rawQuery
	return u.String()
}

// Do sends one request upstream. Transport failures come back as
// *auth.NetworkError; every HTTP response, success or not, is returned
// untouched for the caller to interpret.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	call := func() (*http.Response, error) { return c.http.Do(req) }

	var resp *http.Response
	var err error
	if c.breaker != nil {
		resp, err = c.breaker.Execute(call)
	} else {
		resp, err = call()
	}
	if err != nil {
		upstreamRequestsTotal.WithLabelValues(req.Method, "error").Inc()
		return nil, &auth.NetworkError{Op: req.Method + " " + req.URL.Path, Err: err}
	}

	upstreamRequestsTotal.WithLabelValues(req.Method, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	return resp, nil
}

// NewRequest builds a request against the upstream API with the given JSON
// body (may be nil).
func (c *Client) NewRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, ""), reader)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// PostJSON marshals payload and POSTs it to path.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for %s: %w", path, err)
	}
	req, err := c.NewRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// DecodeJSON drains and decodes a response body into v, closing the body.
func DecodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}
