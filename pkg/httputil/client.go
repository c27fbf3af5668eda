package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wonny/cnquant/pkg/config"
	"github.com/wonny/cnquant/pkg/logger"
)

// ErrHTTPStatus is matched by every *StatusError
var ErrHTTPStatus = errors.New("unexpected http status")

// StatusError reports a non-2xx response
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.URL)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// Limiter paces outbound requests. Implementations are injected per client.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Client is an HTTP client wrapper with retry, pacing, decoding and logging
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
	limiter     Limiter
	userAgent   string
}

// RetryConfig holds retry configuration.
// Backoff is linear: attempt n waits Delay × n.
type RetryConfig struct {
	MaxRetries int
	Delay      time.Duration
	Enabled    bool
}

// New creates a new HTTP client from config
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(cfg *config.Config, log *logger.Logger) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
		},
		logger: log,
		retryConfig: RetryConfig{
			MaxRetries: cfg.HTTP.MaxRetries,
			Delay:      cfg.HTTP.RetryDelay,
			Enabled:    cfg.HTTP.MaxRetries > 0,
		},
		userAgent: cfg.HTTP.UserAgent,
	}
	if cfg.HTTP.MinInterval > 0 {
		c.limiter = NewIntervalLimiter(cfg.HTTP.MinInterval)
	}
	return c
}

// WithLimiter replaces the pacing limiter (nil disables pacing)
func (c *Client) WithLimiter(l Limiter) *Client {
	c.limiter = l
	return c
}

// RequestOption customizes a single GET
type RequestOption func(*request)

type request struct {
	headers  map[string]string
	encoding string
}

// WithHeader sets a request header
func WithHeader(key, value string) RequestOption {
	return func(r *request) {
		r.headers[key] = value
	}
}

// WithEncoding sets the preferred response text encoding (gbk, gb18030, utf-8)
func WithEncoding(enc string) RequestOption {
	return func(r *request) {
		r.encoding = enc
	}
}

// GetBytes performs a GET and returns the raw body
func (c *Client) GetBytes(ctx context.Context, url string, opts ...RequestOption) ([]byte, error) {
	r := &request{headers: make(map[string]string), encoding: "utf-8"}
	for _, opt := range opts {
		opt(r)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	startTime := time.Now()
	body, err := c.doWithRetry(ctx, url, r)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"url":      url,
			"duration": duration,
			"error":    err.Error(),
		}).Debug("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"url":      url,
		"bytes":    len(body),
		"duration": duration,
	}).Debug("HTTP request completed")

	return body, nil
}

// GetText performs a GET and decodes the body to UTF-8.
// Decoding never fails: see Decode.
func (c *Client) GetText(ctx context.Context, url string, opts ...RequestOption) (string, error) {
	r := &request{headers: make(map[string]string), encoding: "utf-8"}
	for _, opt := range opts {
		opt(r)
	}

	body, err := c.GetBytes(ctx, url, opts...)
	if err != nil {
		return "", err
	}
	return Decode(body, r.encoding), nil
}

// doWithRetry executes the request with linear backoff retry
func (c *Client) doWithRetry(ctx context.Context, url string, r *request) ([]byte, error) {
	maxRetries := 0
	if c.retryConfig.Enabled {
		maxRetries = c.retryConfig.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryConfig.Delay * time.Duration(attempt)
			c.logger.WithFields(map[string]interface{}{
				"attempt": attempt,
				"delay":   delay,
				"url":     url,
			}).Debug("Retrying HTTP request")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.once(ctx, url, r)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !IsRetryableError(statusErr.StatusCode) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

func (c *Client) once(ctx context.Context, url string, r *request) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// IsRetryableError checks if a status should be retried
func IsRetryableError(statusCode int) bool {
	// Retry on 5xx server errors and 429 Too Many Requests
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
