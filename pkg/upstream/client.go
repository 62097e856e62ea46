package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/warroom/pkg/debug"
	"github.com/rhuss/warroom/pkg/observability"
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	// HTTPClient performs the requests. Defaults to a client without a
	// global timeout; the per-attempt timeout is applied through the
	// request context.
	HTTPClient *http.Client

	// BackoffBase is the first retry delay. Defaults to DefaultBackoffBase.
	BackoffBase time.Duration

	// Sleeper waits between attempts. Defaults to SleepContext.
	Sleeper Sleeper
}

// Client posts JSON to an upstream endpoint with bounded retries.
// A Client is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	backoffBase time.Duration
	sleep       Sleeper
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	c := &Client{
		httpClient:  opts.HTTPClient,
		backoffBase: opts.BackoffBase,
		sleep:       opts.Sleeper,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.backoffBase <= 0 {
		c.backoffBase = DefaultBackoffBase
	}
	if c.sleep == nil {
		c.sleep = SleepContext
	}
	return c
}

// Post sends body as JSON to url and returns the decoded response.
//
// Each attempt gets its own timeout. Transport failures, 429 and 5xx
// responses are retried after Backoff(base, attempt) until maxRetries
// attempts have been made; the final failure is returned as an
// *ExhaustedError wrapping the last attempt's error. Any other non-2xx
// status returns a *StatusError at once. A maxRetries below 1 is treated
// as 1. Cancelling ctx stops the loop between or during attempts.
func (c *Client) Post(ctx context.Context, url string, headers http.Header, body any, timeout time.Duration, maxRetries int) (*Document, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encoding upstream request: %w", err)
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	safeURL := debug.RedactURL(url)
	var last error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		debug.Log("upstream", "attempt", "url", safeURL, "attempt", attempt, "max", maxRetries)

		start := time.Now()
		doc, err := c.attempt(ctx, url, headers, payload, timeout)
		outcome := classify(err)
		observability.UpstreamAttemptsTotal.WithLabelValues(outcome).Inc()
		observability.UpstreamLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

		if err == nil {
			debug.Log("upstream", "attempt succeeded", "attempt", attempt, "bytes", len(doc.Raw()))
			return doc, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("upstream call canceled after %d attempt(s): %w", attempt, ctxErr)
		}
		if !IsRetryable(err) {
			slog.Error("upstream request failed", "url", safeURL, "attempt", attempt, "error", err)
			return nil, err
		}

		last = err
		if attempt == maxRetries {
			break
		}

		delay := Backoff(c.backoffBase, attempt)
		slog.Warn("upstream attempt failed, retrying",
			"url", safeURL, "attempt", attempt, "max", maxRetries, "delay", delay, "error", err)
		observability.UpstreamRetriesTotal.WithLabelValues(outcome).Inc()

		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("upstream call canceled after %d attempt(s): %w", attempt, err)
		}
	}

	exhausted := &ExhaustedError{Attempts: maxRetries, Last: last}
	slog.Error("upstream retries exhausted", "url", safeURL, "attempts", maxRetries, "error", last)
	return nil, exhausted
}

func (c *Client) attempt(ctx context.Context, url string, headers http.Header, payload []byte, timeout time.Duration) (*Document, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building upstream request: %w", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(resp.StatusCode, raw)
	}

	doc, err := NewDocument(raw)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return doc, nil
}

// CloseIdleConnections releases idle keep-alive connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return []byte("{}"), nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		return json.Marshal(b)
	}
}

func classify(err error) string {
	if err == nil {
		return observability.OutcomeSuccess
	}
	if statusErr, ok := err.(*StatusError); ok {
		if statusErr.Retryable() {
			return observability.OutcomeRetryableStatus
		}
		return observability.OutcomeTerminalStatus
	}
	return observability.OutcomeTransportError
}
