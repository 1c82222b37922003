package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nhle/storefront/internal/telemetry"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultRetries      = 3
	defaultRetryBackoff = 250 * time.Millisecond
	maxRetryBackoff     = 2 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL string

	// Timeout bounds each attempt. Defaults to 10s.
	Timeout time.Duration

	// RetryAttempts is the number of extra attempts after a network-class
	// failure. Negative means no retries.
	RetryAttempts int

	// RetryBackoff is the first wait between attempts; it doubles per attempt.
	RetryBackoff time.Duration

	// RequestsPerSecond throttles outgoing attempts. Zero disables it.
	RequestsPerSecond float64

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is a JSON REST client for the storefront API. It sets the JSON and
// bearer headers, bounds every attempt with a timeout and retries only on
// network-class failures.
type Client struct {
	baseURL      string
	token        string
	timeout      time.Duration
	maxRetries   int
	retryBackoff time.Duration
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *zap.Logger
}

// NewClient creates a new API client.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		timeout:      opts.Timeout,
		maxRetries:   opts.RetryAttempts,
		retryBackoff: opts.RetryBackoff,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.retryBackoff <= 0 {
		c.retryBackoff = defaultRetryBackoff
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if opts.RequestsPerSecond > 0 {
		burst := max(1, int(opts.RequestsPerSecond))
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

// DefaultOptions returns Options with the stock timeout and retry count.
func DefaultOptions(baseURL string) Options {
	return Options{BaseURL: baseURL, Timeout: defaultTimeout, RetryAttempts: defaultRetries}
}

// WithToken returns a copy of c that sends token as a bearer credential.
// The copy shares the transport and the rate limiter.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, query url.Values, result any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, result)
}

// Post performs an HTTP POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, result)
}

// Put performs an HTTP PUT request. query may be nil.
func (c *Client) Put(ctx context.Context, path string, query url.Values, body, result any) error {
	return c.do(ctx, http.MethodPut, path, query, body, result)
}

// Delete performs an HTTP DELETE request. query may be nil.
func (c *Client) Delete(ctx context.Context, path string, query url.Values, result any) error {
	return c.do(ctx, http.MethodDelete, path, query, nil, result)
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body any,
	result any,
) error {
	route := routeLabel(path)
	op := method + " " + path

	ctx, span := telemetry.StartSpan(ctx, method+" "+route)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
	)

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Type: ErrorTypeUnknown, Op: op, Message: "encoding request body", Err: err}
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			telemetry.APIRetriesTotal.WithLabelValues(method, route).Inc()
			select {
			case <-ctx.Done():
				return c.aborted(op, ctx.Err())
			case <-time.After(c.backoff(attempt)):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return c.aborted(op, err)
			}
		}

		start := time.Now()
		status, respBody, err := c.attempt(ctx, method, target, payload)
		telemetry.APIRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

		if err != nil {
			telemetry.APIRequestsTotal.WithLabelValues(method, route, "error").Inc()
			if ctx.Err() != nil {
				span.SetStatus(codes.Error, "aborted")
				return c.aborted(op, ctx.Err())
			}
			lastErr = err
			c.logger.Warn("request attempt failed",
				zap.String("op", op),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		telemetry.APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		span.SetAttributes(attribute.Int("http.status_code", status))

		if status < 200 || status >= 300 {
			apiErr := statusError(op, status, respBody)
			span.SetStatus(codes.Error, apiErr.Message)
			c.logger.Debug("request failed", zap.String("op", op), zap.Int("status", status), zap.String("message", apiErr.Message))
			return apiErr
		}

		// No content to parse (e.g. 204).
		if result == nil || status == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return &Error{Type: ErrorTypeUnknown, Status: status, Op: op, Message: "decoding response", Err: err}
		}
		return nil
	}

	span.SetStatus(codes.Error, "retries exhausted")
	return &Error{
		Type:    ErrorTypeNetwork,
		Op:      op,
		Message: fmt.Sprintf("no response after %d attempts", c.maxRetries+1),
		Err:     lastErr,
	}
}

// attempt performs a single request bounded by the client timeout.
func (c *Client) attempt(ctx context.Context, method, target string, payload []byte) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.retryBackoff << (attempt - 1)
	if d <= 0 || d > maxRetryBackoff {
		return maxRetryBackoff
	}
	return d
}

func (c *Client) aborted(op string, err error) *Error {
	return &Error{Type: ErrorTypeNetwork, Op: op, Message: "request aborted", Err: err}
}

// statusError maps a non-2xx response. The body's message field wins over
// the status text.
func statusError(op string, status int, body []byte) *Error {
	var payload struct {
		Message string `json:"message"`
	}
	msg := ""
	if json.Unmarshal(body, &payload) == nil {
		msg = payload.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}

	t := ErrorTypeUnknown
	switch {
	case status == http.StatusUnauthorized:
		t = ErrorTypeAuth
	case status >= 500:
		t = ErrorTypeServer
	}
	return &Error{Type: t, Status: status, Op: op, Message: msg}
}

// routeLabel replaces numeric path segments so metric labels stay bounded.
func routeLabel(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
