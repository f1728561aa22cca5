// Package httpclient is the transport for the school backend REST API. HTTP error statuses
// are reported through Result; only timeouts and network failures are returned as errors.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
	"github.com/noah-isme/sicali-client/pkg/metrics"
	"github.com/noah-isme/sicali-client/pkg/session"
)

// DefaultTimeout applies when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config describes the backend endpoint.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	UserAgent      string
	DefaultHeaders map[string]string
}

// RequestOptions customise a single call.
type RequestOptions struct {
	Method  string
	Body    []byte
	Headers map[string]string
	Query   url.Values
	// Timeout overrides the client timeout when positive.
	Timeout time.Duration
	// Cache lets intermediaries cache GET responses.
	Cache bool
}

// Client issues requests against the backend.
type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	headers   http.Header

	doer    Doer
	store   session.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
	newID   func() string
}

// Option configures a Client.
type Option func(*Client)

// WithDoer swaps the underlying HTTP client.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithSessionStore sets where the auth token is read from.
func WithSessionStore(s session.Store) Option {
	return func(c *Client) { c.store = s }
}

// WithMetrics enables request instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New constructs a Client.
func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	for k, v := range cfg.DefaultHeaders {
		headers.Set(k, v)
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		timeout:   timeout,
		userAgent: cfg.UserAgent,
		headers:   headers,
		doer:      &http.Client{},
		store:     session.NewMemoryStore(),
		logger:    zap.NewNop(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Result, error) {
	return c.Request(ctx, path, RequestOptions{Method: http.MethodGet, Query: query})
}

// Post issues a POST request with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body any) (*Result, error) {
	return c.withJSON(ctx, http.MethodPost, path, body)
}

// Put issues a PUT request with body encoded as JSON.
func (c *Client) Put(ctx context.Context, path string, body any) (*Result, error) {
	return c.withJSON(ctx, http.MethodPut, path, body)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Result, error) {
	return c.Request(ctx, path, RequestOptions{Method: http.MethodDelete})
}

func (c *Client) withJSON(ctx context.Context, method, path string, body any) (*Result, error) {
	var raw []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request body")
		}
		raw = encoded
	}
	return c.Request(ctx, path, RequestOptions{Method: method, Body: raw})
}

// Request performs one round trip. The returned error is non-nil only for
// timeout and network failures.
func (c *Client) Request(ctx context.Context, path string, opts RequestOptions) (*Result, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	target := c.baseURL + path
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, "invalid request")
	}
	c.applyHeaders(ctx, req, opts)

	route := RouteTemplate(path)
	start := time.Now()

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, method, route, start, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, method, route, start, err)
	}

	c.metrics.ObserveBackendRequest(method, route, strconv.Itoa(resp.StatusCode), time.Since(start))
	result := decodeResponse(resp, raw)
	if !result.Success {
		c.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("route", route),
			zap.Int("status", result.Status),
			zap.String("detail", result.DetailMessage()),
		)
	}
	return result, nil
}

func (c *Client) applyHeaders(ctx context.Context, req *http.Request, opts RequestOptions) {
	for k, values := range c.headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if opts.Body == nil {
		req.Header.Del("Content-Type")
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get("Authorization") == "" {
		if token, _ := c.AuthToken(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", c.newID())
	}
	if req.Method == http.MethodGet && !opts.Cache {
		req.Header.Set("Cache-Control", "no-store")
		req.Header.Set("Pragma", "no-cache")
	}
}

func (c *Client) transportError(ctx context.Context, method, route string, start time.Time, err error) error {
	elapsed := time.Since(start)
	fields := []zap.Field{zap.String("method", method), zap.String("route", route), zap.Duration("elapsed", elapsed), zap.Error(err)}

	// the caller's own deadline or cancellation is not ours to report as a timeout
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		c.metrics.ObserveBackendRequest(method, route, "timeout", elapsed)
		c.logger.Error("backend request timed out", fields...)
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, appErrors.ErrTimeout.Message)
	}

	c.metrics.ObserveBackendRequest(method, route, "network", elapsed)
	c.logger.Error("backend request failed", fields...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, appErrors.ErrNetwork.Message)
}

// SetAuthToken stores the bearer token for subsequent requests.
func (c *Client) SetAuthToken(ctx context.Context, token string) error {
	return c.store.Set(ctx, session.KeyAuthToken, token)
}

// AuthToken returns the stored token or "" when none.
func (c *Client) AuthToken(ctx context.Context) (string, error) {
	token, err := c.store.Get(ctx, session.KeyAuthToken)
	if errors.Is(err, session.ErrNotFound) {
		return "", nil
	}
	return token, err
}

// ClearAuthToken removes the stored token.
func (c *Client) ClearAuthToken(ctx context.Context) error {
	return c.store.Delete(ctx, session.KeyAuthToken)
}

// Store exposes the session store backing the token API.
func (c *Client) Store() session.Store {
	return c.store
}

var dynamicSegment = regexp.MustCompile(`^(\d+|\d{4}-\d{2}-\d{2})$`)

// RouteTemplate replaces numeric ids and dates in path with ":id" for metric labels.
func RouteTemplate(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if dynamicSegment.MatchString(p) {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

// String is used in log lines and CLI verbose output.
func (r *Result) String() string {
	if r == nil {
		return "<nil>"
	}
	return fmt.Sprintf("status=%d success=%t", r.Status, r.Success)
}
