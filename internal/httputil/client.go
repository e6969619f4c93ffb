package httputil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"kanban/internal/errors"
	"kanban/internal/logger"
)

// DefaultTimeout is the standard timeout for HTTP requests
const DefaultTimeout = 10 * time.Second

// HeaderRequestID carries a per-request id the server echoes in its logs.
const HeaderRequestID = "X-Request-ID"

// RetryableClient provides HTTP operations with consistent timeout and retry behavior
type RetryableClient struct {
	client  *http.Client
	timeout time.Duration
	retries int
}

// NewRetryableClient creates a new HTTP client with timeout and retry configuration
func NewRetryableClient(timeout time.Duration, retries int) *RetryableClient {
	return &RetryableClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
		retries: retries,
	}
}

// NewDefaultClient creates a client with standard timeout and retry settings
func NewDefaultClient() *RetryableClient {
	return NewRetryableClient(DefaultTimeout, 2)
}

// retryDelay is the wait after a failed attempt: linear backoff of 500ms per
// attempt made so far.
func retryDelay(attempt int) time.Duration {
	return time.Duration(attempt+1) * 500 * time.Millisecond
}

// DoWithRetry executes an HTTP request with retry logic for transient errors.
// Requests whose method is not idempotent are sent once.
func (c *RetryableClient) DoWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	// Set context with timeout if not already set
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	retries := c.retries
	if !idempotent(req.Method) {
		retries = 0
	}

	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		// Clone request with context; the body has to be rewound by hand
		reqWithCtx := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
			reqWithCtx.Body = body
		}

		start := time.Now()
		logger.HTTP(req.Method, req.URL.String())
		resp, err := c.client.Do(reqWithCtx)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed (attempt %d/%d): %w", attempt+1, retries+1, err)
			if attempt < retries {
				select {
				case <-time.After(retryDelay(attempt)):
					continue
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			continue
		}
		logger.HTTPResponse(resp.StatusCode, time.Since(start))

		// Check if we should retry based on status code
		if shouldRetry(resp.StatusCode) && attempt < retries {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP request returned retryable status %d (attempt %d/%d)", resp.StatusCode, attempt+1, retries+1)

			select {
			case <-time.After(retryDelay(attempt)):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		return resp, nil
	}

	return nil, errors.NewServerConnectionError(lastErr)
}

// DoJSONRequest executes a JSON request with retry logic and decodes the
// response. Any 2xx status is success; result may be nil, and an empty body
// leaves it untouched.
func (c *RetryableClient) DoJSONRequest(ctx context.Context, req *http.Request, result interface{}) error {
	resp, err := c.DoWithRetry(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read error body for debugging
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.NewHttpError(resp.StatusCode, errorMessage(body))
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return sonic.Unmarshal(data, result)
}

// DoJSON encodes body (if any), sends it with a fresh request id and decodes
// the reply into result.
func (c *RetryableClient) DoJSON(ctx context.Context, method, url string, body, result interface{}) error {
	var payload io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())

	return c.DoJSONRequest(ctx, req, result)
}

// errorMessage pulls the message out of an {"error": "..."} body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := sonic.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return string(bytes.TrimSpace(body))
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	default:
		return false
	}
}

// shouldRetry determines if a status code indicates a retryable error
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError, // 500
		http.StatusBadGateway,                   // 502
		http.StatusServiceUnavailable,           // 503
		http.StatusGatewayTimeout,               // 504
		http.StatusInsufficientStorage,          // 507
		http.StatusNetworkAuthenticationRequired: // 511
		return true
	default:
		return false
	}
}
