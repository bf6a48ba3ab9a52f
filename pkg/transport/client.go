// Package transport provides the HTTP client shared by the catalog and
// directory clients: retries with a fixed policy, request pacing against
// upstream rate limits, and parsing of structured rejection envelopes.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/civicdata/metasync/pkg/errors"
	"github.com/civicdata/metasync/pkg/logging"
)

// DefaultTimeout is the default timeout for HTTP requests.
const DefaultTimeout = 120 * time.Second

// DefaultRateLimitDelay is the minimum spacing between consecutive
// requests to the same upstream service.
const DefaultRateLimitDelay = time.Second

// Client provides HTTP client functionality with authentication, retries,
// and request pacing. One Client is created per upstream service.
type Client struct {
	http    *http.Client
	auth    Authenticator
	service string
	retry   RetryPolicy
	limiter *rate.Limiter
	silent  map[int]bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p.normalize()
	}
}

// WithRateLimitDelay sets the minimum spacing between requests.
// A zero or negative delay disables pacing.
func WithRateLimitDelay(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithSilentStatuses marks status codes that are expected outcomes of a
// probe, such as 404 on an existence check. They still produce errors but
// are not logged as failures.
func WithSilentStatuses(codes ...int) Option {
	return func(c *Client) {
		c.silent = make(map[int]bool, len(codes))
		for _, code := range codes {
			c.silent[code] = true
		}
	}
}

// New creates a transport client for the named upstream service.
func New(service string, auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		auth:    auth,
		service: service,
		retry:   DefaultRetryPolicy(),
		limiter: rate.NewLimiter(rate.Every(DefaultRateLimitDelay), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs a request with authentication, pacing, and retries. The body
// may be nil. Each attempt builds a fresh request so bodies replay safely.
// Non-2xx responses are returned as *errors.APIError with the rejection
// envelope parsed from the body when present.
func (c *Client) Do(ctx context.Context, method, url string, header http.Header, body []byte) (*http.Response, error) {
	policy := c.retry.normalize()
	delay := policy.Delay

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			logging.Ctx(ctx).Warn().
				Str("service", c.service).
				Str("method", method).
				Str("url", url).
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("Retrying request")

			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
			delay = time.Duration(float64(delay) * policy.Backoff)
		}

		resp, err := c.attempt(ctx, method, url, header, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		status := 0
		var apiErr *errors.APIError
		if stderrors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		if !policy.Retryable(status, unwrapTransport(err)) {
			return nil, err
		}
	}
	return nil, lastErr
}

// attempt performs a single paced request. Waiting before the attempt
// yields the same inter-call spacing as a delay after the completed call.
func (c *Client) attempt(ctx context.Context, method, url string, header http.Header, body []byte) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.WrapResource("build", "request", method+" "+url, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		req.Header[key] = values
	}
	c.auth.Apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, c.rejection(ctx, resp, method, url)
}

// rejection drains the response and builds an APIError carrying the
// structured envelope when the body contained one.
func (c *Client) rejection(ctx context.Context, resp *http.Response, method, url string) error {
	defer resp.Body.Close() //nolint:errcheck

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var envelope *errors.Envelope
	if readErr == nil && len(raw) > 0 {
		var parsed errors.Envelope
		if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Message != "" {
			envelope = &parsed
		}
	}

	apiErr := errors.NewAPIError(c.service, method, url, resp.StatusCode, envelope)

	if !c.silent[resp.StatusCode] {
		event := logging.Ctx(ctx).Error().
			Str("service", c.service).
			Str("method", method).
			Str("url", url).
			Int("status", resp.StatusCode)
		if envelope != nil {
			event = event.Str("detail", envelope.Detail())
		} else if len(raw) > 0 {
			event = event.Str("body", string(raw))
		}
		event.Msg("Request rejected")
	}
	return apiErr
}

// GetJSON performs a GET request and decodes the response into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	resp, err := c.Do(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, target)
}

// PostJSON performs a POST request with a JSON body. Target may be nil.
func (c *Client) PostJSON(ctx context.Context, url string, payload, target any) error {
	return c.sendJSON(ctx, http.MethodPost, url, payload, target)
}

// PutJSON performs a PUT request with a JSON body. Target may be nil.
func (c *Client) PutJSON(ctx context.Context, url string, payload, target any) error {
	return c.sendJSON(ctx, http.MethodPut, url, payload, target)
}

// PatchJSON performs a PATCH request with a JSON body. Target may be nil.
func (c *Client) PatchJSON(ctx context.Context, url string, payload, target any) error {
	return c.sendJSON(ctx, http.MethodPatch, url, payload, target)
}

// Delete performs a DELETE request and discards any response body.
func (c *Client) Delete(ctx context.Context, url string) error {
	resp, err := c.Do(ctx, http.MethodDelete, url, nil, nil)
	if err != nil {
		return err
	}
	return drain(resp)
}

func (c *Client) sendJSON(ctx context.Context, method, url string, payload, target any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return errors.WrapParse("json", "request body", err)
		}
	}
	resp, err := c.Do(ctx, method, url, nil, body)
	if err != nil {
		return err
	}
	if target == nil {
		return drain(resp)
	}
	return DecodeResponse(resp, target)
}

// DecodeResponse decodes a JSON response body into the target structure
// and closes the body.
func DecodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return errors.WrapParse("json", "response body", err)
	}
	return nil
}

// drain discards and closes a response body so the connection is reused.
func drain(resp *http.Response) error {
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// unwrapTransport strips the APIError wrapper so Retryable sees transport
// errors as errors and HTTP rejections as status codes only.
func unwrapTransport(err error) error {
	var apiErr *errors.APIError
	if stderrors.As(err, &apiErr) {
		return nil
	}
	return err
}
