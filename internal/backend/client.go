package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	httpTimeout = 30 * time.Second

	// DefaultRemoteURL is the deployed backend.
	DefaultRemoteURL = "https://partiu085-api.onrender.com"
	// DefaultLocalURL is the backend started by a developer.
	DefaultLocalURL = "http://localhost:5000"

	// FailureMessage is shown to users whenever a backend call fails.
	FailureMessage = "Erro de conexão com o backend."
)

// ResolveBaseURL picks the backend URL for the running environment.
// BACKEND_URL always wins; a deployed process (APP_ENV=production or
// running on Render) talks to the remote backend, anything else to a local
// one.
func ResolveBaseURL(getenv func(string) string) string {
	if v := strings.TrimSpace(getenv("BACKEND_URL")); v != "" {
		return strings.TrimRight(v, "/")
	}
	if strings.EqualFold(getenv("APP_ENV"), "production") || getenv("RENDER") != "" {
		return DefaultRemoteURL
	}
	return DefaultLocalURL
}

// FailureKind classifies a failed backend request.
type FailureKind string

const (
	FailureNetwork FailureKind = "network"
	FailureStatus  FailureKind = "status"
	FailureNotJSON FailureKind = "not_json"
	FailureDecode  FailureKind = "decode"
)

// RequestError describes a failed backend request.
type RequestError struct {
	Kind   FailureKind
	Method string
	Path   string
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case FailureStatus:
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.Path, e.Status)
	case FailureNotJSON:
		return fmt.Sprintf("%s %s returned a non-JSON body", e.Method, e.Path)
	default:
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Kind, e.Err)
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// Client talks to the deal backend. Every exported call swallows failures
// and returns a value with Success set to false instead of an error.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRateLimit paces outbound requests to rps with the given burst.
// A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithClock overrides the time source used for cache-busting parameters.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient constructs a Client for baseURL.
func NewClient(baseURL string, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: httpTimeout},
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend URL this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// do sends a JSON request and decodes a JSON response into dst.
func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &RequestError{Kind: FailureNetwork, Method: method, Path: path, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Kind: FailureNetwork, Method: method, Path: path, Err: fmt.Errorf("encoding body: %w", err)}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &RequestError{Kind: FailureNetwork, Method: method, Path: path, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &RequestError{Kind: FailureNetwork, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error("backend returned error status",
			"method", method, "path", path, "status", resp.StatusCode, "body", string(raw))
		return &RequestError{Kind: FailureStatus, Method: method, Path: path, Status: resp.StatusCode}
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		c.log.Error("backend returned non-JSON body",
			"method", method, "path", path, "content_type", resp.Header.Get("Content-Type"), "body", string(raw))
		return &RequestError{Kind: FailureNotJSON, Method: method, Path: path, Status: resp.StatusCode}
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &RequestError{Kind: FailureDecode, Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// swallow logs a failed call and reports whether it failed.
func (c *Client) swallow(err error) bool {
	if err == nil {
		return false
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		c.log.Error("backend request failed",
			"method", reqErr.Method, "path", reqErr.Path, "kind", string(reqErr.Kind), "err", err)
	} else {
		c.log.Error("backend request failed", "err", err)
	}
	return true
}
