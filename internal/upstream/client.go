// Package upstream implements the collaborator interfaces of internal/core over
// JSON/HTTP.
//
// Every client shares one transport: per-upstream timeout, retry with exponential
// backoff on 429/5xx and transport errors, and translation of the upstream error body
// {message, status, code} into an *apierr.Error so the status and code an upstream
// reports survive into the page's inline error.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/team-pogie-react/page-service/internal/apierr"
	"github.com/team-pogie-react/page-service/internal/logging"
)

const (
	defaultTimeout      = 5 * time.Second
	defaultInitialDelay = 100 * time.Millisecond
	healthPath          = "/healthz"
)

// Options configures a Client.
type Options struct {
	// Name identifies the upstream in logs and errors, e.g. "catalog".
	Name    string
	BaseURL string

	// Timeout bounds each attempt. Defaults to 5s.
	Timeout time.Duration

	// Retries is the number of additional attempts after the first.
	Retries int

	// InitialDelay is the first backoff delay; it doubles per attempt. Defaults to 100ms.
	InitialDelay time.Duration

	HTTPClient *http.Client
	Logger     logr.Logger
}

// Client is a JSON/HTTP client for one upstream.
type Client struct {
	name         string
	baseURL      string
	timeout      time.Duration
	retries      int
	initialDelay time.Duration
	client       *http.Client
	logger       logr.Logger
}

// errorBody is the error shape upstreams answer with.
type errorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Code    any    `json:"code"`
}

// NewClient creates a client for one upstream.
func NewClient(opts Options) *Client {
	c := &Client{
		name:         opts.Name,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		timeout:      opts.Timeout,
		retries:      opts.Retries,
		initialDelay: opts.InitialDelay,
		client:       opts.HTTPClient,
		logger:       opts.Logger.WithValues("upstream", opts.Name),
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.retries < 0 {
		c.retries = 0
	}
	if c.initialDelay <= 0 {
		c.initialDelay = defaultInitialDelay
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	return c
}

// Name returns the upstream name.
func (c *Client) Name() string { return c.name }

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Ping checks the upstream's health endpoint. It never retries.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", c.name, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: ping failed: %w", c.name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%s: ping returned %d", c.name, resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", c.name, err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	// Retry with exponential backoff
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.initialDelay
			c.logger.V(logging.DEBUG).Info("Retrying upstream call", "path", path, "attempt", attempt, "delay", delay, "error", lastErr.Error())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		retry, err := c.attempt(ctx, method, target, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			return err
		}
	}

	return lastErr
}

// attempt performs one request. retry reports whether a failure is worth retrying.
func (c *Client) attempt(ctx context.Context, method, target string, body []byte, out any) (retry bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return false, fmt.Errorf("%s: failed to create request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return true, apierr.Wrap(fmt.Errorf("%s: %w", c.name, err), http.StatusGatewayTimeout, apierr.CodeUpstreamTimeout)
		}
		if errors.Is(err, context.Canceled) {
			return false, fmt.Errorf("%s: %w", c.name, err)
		}
		return true, apierr.Wrap(fmt.Errorf("%s: request failed: %w", c.name, err), http.StatusBadGateway, apierr.CodeUnavailable)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return true, apierr.Wrap(fmt.Errorf("%s: failed to read response body: %w", c.name, err), http.StatusBadGateway, apierr.CodeUnavailable)
	}

	if resp.StatusCode/100 != 2 {
		return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			c.statusError(resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return false, apierr.Wrap(fmt.Errorf("%s: failed to decode response: %w", c.name, err), http.StatusBadGateway, apierr.CodeUpstreamError)
	}
	return false, nil
}

// statusError turns a non-2xx answer into an *apierr.Error, keeping the upstream's
// own message, status and code when the body carries them.
func (c *Client) statusError(status int, body []byte) *apierr.Error {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && (eb.Message != "" || eb.Code != nil) {
		if eb.Status < 400 || eb.Status > 599 {
			eb.Status = status
		}
		if eb.Message == "" {
			eb.Message = fmt.Sprintf("%s returned %d", c.name, status)
		}
		return apierr.New(eb.Status, eb.Code, eb.Message)
	}

	if status == http.StatusNotFound {
		return apierr.NotFound("%s: resource not found", c.name)
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return apierr.New(status, apierr.CodeUpstreamError, fmt.Sprintf("%s returned %d: %s", c.name, status, msg))
}

// escape joins path segments, escaping each one.
func escape(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
