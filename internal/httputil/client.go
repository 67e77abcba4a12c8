package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cardboard/internal/errors"
	"cardboard/internal/logger"
)

// DefaultTimeout is the standard timeout for HTTP requests
const DefaultTimeout = 10 * time.Second

// RetryableClient provides HTTP operations with consistent timeout and retry
// behavior. Only idempotent requests are retried.
type RetryableClient struct {
	client  *http.Client
	timeout time.Duration
	retries int
	backoff time.Duration
	agent   string
}

// NewRetryableClient creates a new HTTP client with timeout and retry configuration
func NewRetryableClient(timeout time.Duration, retries int) *RetryableClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if retries < 0 {
		retries = 0
	}
	return &RetryableClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
		retries: retries,
		backoff: 500 * time.Millisecond,
	}
}

// NewDefaultClient creates a client with standard timeout and retry settings
func NewDefaultClient() *RetryableClient {
	return NewRetryableClient(DefaultTimeout, 2)
}

// SetUserAgent sets the User-Agent sent by GetJSON and PostJSON.
func (c *RetryableClient) SetUserAgent(agent string) { c.agent = agent }

// Retries returns how many times an idempotent request is retried.
func (c *RetryableClient) Retries() int { return c.retries }

// DoWithRetry executes an HTTP request, retrying transient failures of
// idempotent requests.
func (c *RetryableClient) DoWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	// Set context with timeout if not already set
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout*time.Duration(c.retries+1))
		defer cancel()
	}

	retries := c.retries
	if !idempotent(req.Method) {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		reqWithCtx := req.Clone(ctx)

		logger.HTTP(req.Method, req.URL.String())
		start := time.Now()
		resp, err := c.client.Do(reqWithCtx)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed (attempt %d/%d): %w", attempt+1, retries+1, err)
			if attempt < retries {
				if werr := c.wait(ctx, attempt); werr != nil {
					return nil, werr
				}
			}
			continue
		}
		logger.HTTPResponse(resp.StatusCode, time.Since(start))

		if shouldRetry(resp.StatusCode) && attempt < retries {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP request returned retryable status %d (attempt %d/%d)", resp.StatusCode, attempt+1, retries+1)
			if werr := c.wait(ctx, attempt); werr != nil {
				return nil, werr
			}
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// wait sleeps with linear backoff before the next attempt.
func (c *RetryableClient) wait(ctx context.Context, attempt int) error {
	select {
	case <-time.After(time.Duration(attempt+1) * c.backoff):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DoJSONRequest executes a request and decodes a JSON response. Any 2xx
// status is success; result may be nil to discard the body.
func (c *RetryableClient) DoJSONRequest(ctx context.Context, req *http.Request, result interface{}) error {
	resp, err := c.DoWithRetry(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read error body for debugging
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.NewHttpError(resp.StatusCode, string(bytes.TrimSpace(body)))
	}

	if result == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetJSON issues a GET and decodes the JSON response into result.
func (c *RetryableClient) GetJSON(ctx context.Context, url string, result interface{}) error {
	req, err := c.newRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.DoJSONRequest(ctx, req, result)
}

// PostJSON posts body, already encoded as JSON, and decodes any JSON reply
// into result when result is non-nil.
func (c *RetryableClient) PostJSON(ctx context.Context, url string, body []byte, result interface{}) error {
	req, err := c.newRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.DoJSONRequest(ctx, req, result)
}

func (c *RetryableClient) newRequest(method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}
	return req, nil
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// shouldRetry determines if a status code indicates a retryable error
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError, // 500
		http.StatusBadGateway,                    // 502
		http.StatusServiceUnavailable,            // 503
		http.StatusGatewayTimeout,                // 504
		http.StatusInsufficientStorage,           // 507
		http.StatusNetworkAuthenticationRequired: // 511
		return true
	default:
		return false
	}
}
