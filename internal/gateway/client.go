package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"github.com/cenkalti/backoff/v4"
)

const maxErrorBody = 512

// StatusError is returned for a non-retryable response status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.Code, e.Body)
}

// IsStatus reports whether err carries the given response status.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client is a JSON-over-HTTP client with bounded exponential retry.
// Transport errors, 429 and 5xx responses are retried; any other non-2xx
// status fails at once. Every failure wraps errs.ErrNetworkUnavailable.
type Client struct {
	http     *http.Client
	retries  uint64
	interval time.Duration
	log      *slog.Logger
}

type Option func(*Client)

// WithRetryInterval sets the first backoff interval.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.interval = d }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(timeout time.Duration, retries uint64, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: timeout},
		retries:  retries,
		interval: 500 * time.Millisecond,
		log:      log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Get(ctx context.Context, url string, out any) error {
	return c.Do(ctx, http.MethodGet, url, nil, out)
}

// Do sends body (if any) as JSON and decodes a JSON response into out
// (if non-nil).
func (c *Client) Do(ctx context.Context, method, url string, body, out any) error {
	const op = "gateway.Client.Do"

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
	}

	respBody, err := c.doWithRetry(ctx, method, url, payload)
	if err != nil {
		return fmt.Errorf("%s: %s %s: %w: %w", op, method, url, errs.ErrNetworkUnavailable, err)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w: %w", op, errs.ErrNetworkUnavailable, err)
	}

	return nil
}

func (c *Client) doWithRetry(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var respBody []byte

	operation := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				c.log.Warn("failed to close response body", slog.Any("error", err), slog.String("url", url))
			}
		}()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			c.log.Warn("remote unavailable, retrying with backoff", slog.Int("status", resp.StatusCode), slog.String("url", url))
			return &StatusError{Code: resp.StatusCode, Body: readSnippet(resp.Body)}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(&StatusError{Code: resp.StatusCode, Body: readSnippet(resp.Body)})
		}

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}

		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.interval
	b.MaxInterval = 10 * c.interval
	b.MaxElapsedTime = 0
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return respBody, nil
}

func readSnippet(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return string(body)
}
