package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
)

const maxErrorBody = 512

// APIClient is the HTTP client shared by platform adapters: bounded timeout,
// JSON envelopes, and retries for idempotent GET calls only.
type APIClient struct {
	http  *http.Client
	retry int
}

type Options struct {
	Timeout time.Duration
	Retry   int
	// Transport overrides the default transport, mainly for tests.
	Transport http.RoundTripper
}

func NewAPIClient(opts Options) *APIClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Retry < 0 {
		opts.Retry = 0
	}
	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: opts.Timeout,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}
	return &APIClient{
		http:  &http.Client{Timeout: opts.Timeout, Transport: transport},
		retry: opts.Retry,
	}
}

// HTTPClient exposes the underlying client for oauth2 token exchanges.
func (c *APIClient) HTTPClient() *http.Client { return c.http }

// StatusError is returned for non-2xx responses. The body has already been
// decoded into the caller's envelope when it was valid JSON.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// WithQuery appends params, a struct tagged with `url:"..."`, to base.
func WithQuery(base string, params interface{}) (string, error) {
	if params == nil {
		return base, nil
	}
	v, err := query.Values(params)
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}
	enc := v.Encode()
	if enc == "" {
		return base, nil
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + enc, nil
}

// GetJSON performs a GET with retry on transport errors, 429 and 5xx.
func (c *APIClient) GetJSON(ctx context.Context, base string, params, out interface{}) error {
	u, err := WithQuery(base, params)
	if err != nil {
		return err
	}
	var lastErr error
	attempts := c.retry + 1
	for i := 0; i < attempts; i++ {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if reqErr != nil {
			return fmt.Errorf("new request: %w", reqErr)
		}
		lastErr = c.do(req, out)
		if lastErr == nil || !retryable(lastErr) || i == attempts-1 {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 300 * time.Millisecond):
		}
	}
	return lastErr
}

// PostForm sends params as a query-encoded form body. Never retried.
func (c *APIClient) PostForm(ctx context.Context, base string, params, out interface{}) error {
	var body string
	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("encode form: %w", err)
		}
		body = v.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

// PostJSON sends payload as a JSON body. Never retried.
func (c *APIClient) PostJSON(ctx context.Context, base string, payload, out interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *APIClient) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	var decodeErr error
	if out != nil && len(raw) > 0 {
		decodeErr = json.Unmarshal(raw, out)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(raw), maxErrorBody)}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}

func retryable(err error) bool {
	if se, ok := err.(*StatusError); ok {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	if _, ok := err.(net.Error); ok {
		return true
	}
	return strings.Contains(err.Error(), "connection")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
