// Package httpx is a generic JSON API client with timeout enforcement,
// exponential-backoff retry for a known-retryable status set, and structured
// error classification.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds client-wide settings. Per-request options override them.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retries int
	Headers map[string]string
	Backoff BackoffConfig
}

// DefaultConfig returns the default client configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
		Retries: 3,
		Backoff: DefaultBackoffConfig(),
	}
}

// Client executes JSON requests against one base URL.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger

	// sleep is swappable so retry tests don't wait out real backoff delays.
	sleep func(context.Context, time.Duration) error
}

// sleepBackoff waits out the delay unless the context ends first, so a
// canceled caller is not stuck behind the full backoff.
func sleepBackoff(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewClient creates a client for the given configuration.
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Backoff == (BackoffConfig{}) {
		config.Backoff = DefaultBackoffConfig()
	}
	return &Client{
		httpClient: &http.Client{},
		config:     config,
		logger:     log.With().Str("component", "httpx").Str("base_url", config.BaseURL).Logger(),
		sleep:      sleepBackoff,
	}
}

// RequestOptions are per-request overrides.
type RequestOptions struct {
	Params  url.Values
	Headers map[string]string
	Timeout time.Duration
	Retries *int
}

// GetJSON performs a GET request and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, opts, out)
}

// PostJSON performs a POST request with a JSON body and decodes the response.
func (c *Client) PostJSON(ctx context.Context, path string, body any, opts *RequestOptions, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}
	return c.doJSON(ctx, http.MethodPost, path, payload, opts, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, opts *RequestOptions, out any) error {
	data, err := c.do(ctx, method, path, body, opts)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// do runs the request with retry. Only errors flagged retryable are retried,
// and only while attempts remain; the last error propagates unchanged.
func (c *Client) do(ctx context.Context, method, path string, body []byte, opts *RequestOptions) ([]byte, error) {
	endpoint := c.buildURL(path, opts)

	timeout := c.config.Timeout
	retries := c.config.Retries
	if opts != nil {
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
		if opts.Retries != nil {
			retries = *opts.Retries
		}
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := Backoff(attempt-1, c.config.Backoff)
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("Retrying request")
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		data, err := c.doOnce(ctx, method, endpoint, body, opts, timeout)
		if err == nil {
			return data, nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, method, endpoint string, body []byte, opts *RequestOptions, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, endpoint, reader)
	if err != nil {
		return nil, &APIError{Endpoint: endpoint, Message: "failed to build request", Err: err}
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	if opts != nil {
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A deadline hit is classified as a retryable timeout with status 408.
		if errors.Is(err, context.DeadlineExceeded) || reqCtx.Err() == context.DeadlineExceeded {
			return nil, &APIError{
				StatusCode: http.StatusRequestTimeout,
				Endpoint:   endpoint,
				Message:    fmt.Sprintf("request timed out after %s", timeout),
				Retryable:  true,
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &APIError{Endpoint: endpoint, Message: "network error", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Endpoint: endpoint, Message: "failed to read response body", Retryable: true, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    errorMessage(data, resp.StatusCode),
			Retryable:  IsRetryableStatus(resp.StatusCode),
		}
	}

	return data, nil
}

// buildURL merges the base URL, the path and query parameters. Multi-value
// params expand to repeated keys.
func (c *Client) buildURL(path string, opts *RequestOptions) string {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if opts == nil || len(opts.Params) == 0 {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + opts.Params.Encode()
}

// errorMessage extracts {error|message} from a JSON error body, falling back
// to a generic status message.
func errorMessage(body []byte, status int) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return fmt.Sprintf("Request failed with status %d", status)
}
