// Package apiclient is the HTTP layer shared by every hospital resource
// client. It owns the base URL, the authorization header and the mapping of
// non-2xx responses to typed errors. There are no retries and no caching;
// each call issues exactly one request.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/telemetry"
)

const (
	DefaultBaseURL    = "http://localhost:8000/api/"
	DefaultAuthScheme = "Token"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithAuthScheme sets the Authorization scheme, "Token" for DRF token auth
// or "Bearer" for JWT deployments.
func WithAuthScheme(scheme string) Option {
	return func(c *Client) {
		if scheme = strings.TrimSpace(scheme); scheme != "" {
			c.scheme = scheme
		}
	}
}

// WithLogger attaches a logger for request traces.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics records every request on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client issues JSON requests against the hospital backend.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	scheme     string
	logger     zerolog.Logger
	metrics    *telemetry.Metrics

	mu    sync.RWMutex
	token string
}

// New creates a Client rooted at baseURL. Relative request paths such as
// "patients/" are resolved beneath it.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		base:       u,
		httpClient: &http.Client{},
		scheme:     DefaultAuthScheme,
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// SetToken replaces the credential attached to subsequent requests. An empty
// token removes the Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// Token returns the current credential.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) resolve(path string) string {
	return c.base.String() + strings.TrimPrefix(path, "/")
}

// Do sends one request and returns the response body for 2xx statuses.
// Non-2xx statuses return an *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", c.scheme+" "+tok)
	}

	resource := resourceOf(path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.metrics.ObserveAPI(resource, method, 0, latency)
		c.logger.Error().Err(err).
			Str("method", method).
			Str("path", path).
			Dur("latency", latency).
			Msg("api request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.ObserveAPI(resource, method, resp.StatusCode, latency)
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", latency).
		Msg("api request")
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(method, path, resp.StatusCode, respBody)
	}
	return respBody, nil
}

// DoJSON sends one request and decodes a non-empty response body into out.
func (c *Client) DoJSON(ctx context.Context, method, path string, body, out any) error {
	respBody, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// resourceOf returns the first path segment, used as a metrics label.
func resourceOf(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}
