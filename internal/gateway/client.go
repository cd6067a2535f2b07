// Package gateway is the single outbound HTTP client every backend call goes
// through. Request and response middleware attach credentials and react to
// failures in one place.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"albumreviews/internal/logging"
)

const (
	// maxBodyBytes bounds successful response bodies.
	maxBodyBytes = 8 << 20
	// maxErrorBodyBytes bounds error response bodies.
	maxErrorBodyBytes = 64 << 10
)

// RequestMiddleware mutates an outgoing request. Returning an error aborts the call.
type RequestMiddleware func(req *http.Request) error

// ResponseMiddleware inspects a response before its status is interpreted.
// Returning an error replaces the call's result.
type ResponseMiddleware func(resp *http.Response) error

// Config holds the fixed client settings.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client sends JSON requests to the backend.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	before     []RequestMiddleware
	after      []ResponseMiddleware
	log        *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport, typically with a test double.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

// WithCookieJar keeps backend cookies between calls.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) { c.httpClient.Jar = jar }
}

// WithRequestMiddleware appends outbound middleware, run in order.
func WithRequestMiddleware(mw ...RequestMiddleware) Option {
	return func(c *Client) { c.before = append(c.before, mw...) }
}

// WithResponseMiddleware appends inbound middleware, run in order.
func WithResponseMiddleware(mw ...ResponseMiddleware) Option {
	return func(c *Client) { c.after = append(c.after, mw...) }
}

// WithLogger sets the call logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a Client for cfg.BaseURL.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root every path is resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// Get sends a GET and decodes the JSON reply into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put sends body as JSON.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch sends body as JSON.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete sends a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do sends one request. A nil body sends no payload and a nil out discards
// the reply. Errors are *HTTPError, *NetworkError or *BadDataError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	start := time.Now()
	status, err := c.do(ctx, method, path, query, body, out)
	c.log.HTTPCall(method, path, status, time.Since(start), err)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (int, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	for _, mw := range c.before {
		if err := mw(req); err != nil {
			if ctx.Err() != nil {
				return 0, &NetworkError{Method: method, Path: path, Err: err}
			}
			return 0, fmt.Errorf("prepare %s %s: %w", method, path, err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	for _, mw := range c.after {
		if err := mw(resp); err != nil {
			return resp.StatusCode, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return resp.StatusCode, &HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    extractMessage(raw),
			Body:       raw,
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return resp.StatusCode, nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return resp.StatusCode, &NetworkError{Method: method, Path: path, Err: fmt.Errorf("read response body: %w", err)}
	}
	if len(raw) > maxBodyBytes {
		return resp.StatusCode, &BadDataError{Method: method, Path: path, Err: errors.New("response body too large")}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, &BadDataError{Method: method, Path: path, Err: errors.New("empty response body")}
	}
	if err := checkShape(raw, out); err != nil {
		return resp.StatusCode, &BadDataError{Method: method, Path: path, Err: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, &BadDataError{Method: method, Path: path, Err: err}
	}
	return resp.StatusCode, nil
}

// checkShape rejects a null body, and anything but an array when out is a
// list. json.Unmarshal would accept both as an empty value.
func checkShape(raw []byte, out any) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return errors.New("null response body")
	}
	if expectsList(out) && !gjson.ParseBytes(raw).IsArray() {
		return errors.New("expected a JSON array")
	}
	return nil
}

// expectsList reports whether out points at a slice. Raw byte targets such
// as json.RawMessage are left alone.
func expectsList(out any) bool {
	t := reflect.TypeOf(out)
	if t == nil || t.Kind() != reflect.Pointer {
		return false
	}
	elem := t.Elem()
	return elem.Kind() == reflect.Slice && elem.Elem().Kind() != reflect.Uint8
}
