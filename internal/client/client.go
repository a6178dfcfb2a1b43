// Package client talks to the remote clustering service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/yildizm/ocuprofile/internal/analysis"
	"github.com/yildizm/ocuprofile/internal/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 1 << 20
	maxRetryAfter   = 30 * time.Second
)

// Client sends spreadsheets to the analysis service
type Client struct {
	config  *Config
	client  *http.Client
	baseURL *url.URL
	log     *logger.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithLogger sets the logger used for request diagnostics
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l.WithComponent("client")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

func New(config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.Endpoint)
	if err != nil {
		return nil, analysis.NewValidationError("endpoint", config.Endpoint, fmt.Sprintf("invalid endpoint: %v", err))
	}

	c := &Client{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		baseURL: baseURL,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the service base URL
func (c *Client) Endpoint() string {
	return c.baseURL.String()
}

// Analyze uploads one spreadsheet and returns the decoded, not yet
// validated, response body.
func (c *Client) Analyze(ctx context.Context, upload *analysis.Upload) (interface{}, error) {
	if upload == nil || upload.Size() == 0 {
		return nil, analysis.ErrNoFileSelected()
	}

	requestID := uuid.NewString()
	endpoint := c.baseURL.JoinPath(analyzePath)
	log := c.log.With(logger.RequestID(requestID))

	log.DebugWithFields("uploading spreadsheet", []logger.Field{logger.File(upload.Name), logger.F("bytes", upload.Size())})

	newRequest := func() (*http.Request, error) {
		body, contentType, err := c.multipartBody(upload)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")
		req.Header.Set(requestIDHeader, requestID)
		return req, nil
	}

	resp, err := c.doRequestWithRetry(ctx, newRequest, log)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		svcErr := c.handleErrorResponse(resp)
		svcErr.RequestID = requestID
		log.WarnWithFields("analysis rejected", []logger.Field{logger.Status(resp.StatusCode), logger.F("detail", svcErr.Detail)})
		return nil, svcErr
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		if ctx.Err() != nil {
			return nil, analysis.NewCancelledError(ctx.Err())
		}
		return nil, analysis.NewSchemaError("", "response body is not valid JSON: %v", err)
	}

	log.DebugWithFields("analysis response received", []logger.Field{logger.Status(resp.StatusCode)})
	return raw, nil
}

// HealthCheck reports whether the service answers at its base URL. The
// hosted service sleeps when idle, so a slow first answer is normal.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.JoinPath("/").String(), http.NoBody)
	if err != nil {
		return analysis.NewTransportError(err)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return analysis.NewCancelledError(ctx.Err())
		}
		return analysis.NewTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode >= 500 {
		return analysis.NewServiceError(resp.StatusCode, fmt.Sprintf("health check failed with status %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) multipartBody(upload *analysis.Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(c.config.UploadField, upload.Name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(upload.Content); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

func (c *Client) doRequestWithRetry(ctx context.Context, newRequest func() (*http.Request, error), log *logger.Logger) (*http.Response, error) {
	attempts := c.config.MaxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		req, err := newRequest()
		if err != nil {
			return nil, analysis.NewTransportError(err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, analysis.NewCancelledError(ctx.Err())
			}
			if attempt == attempts-1 {
				return nil, analysis.NewTransportError(err)
			}
			log.WarnWithFields("request failed, retrying", []logger.Field{logger.Attempt(attempt+1), logger.Error(err)})
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, analysis.NewCancelledError(err)
			}
			continue
		}

		if !retryable(resp.StatusCode) || attempt == attempts-1 {
			return resp, nil
		}

		delay := c.backoff(attempt)
		if resp.StatusCode == http.StatusTooManyRequests {
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}
		if delay > maxRetryAfter {
			delay = maxRetryAfter
		}

		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()

		log.WarnWithFields("service unavailable, retrying", []logger.Field{logger.Status(resp.StatusCode), logger.Attempt(attempt+1)})
		if err := sleep(ctx, delay); err != nil {
			return nil, analysis.NewCancelledError(err)
		}
	}

	return nil, analysis.NewTransportError(errors.New("max retries exceeded"))
}

func (c *Client) backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * c.config.RetryDelay
}

func (c *Client) handleErrorResponse(resp *http.Response) *analysis.ServiceError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return analysis.NewServiceError(resp.StatusCode, "")
	}

	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil {
		return analysis.NewServiceError(resp.StatusCode, "")
	}

	return analysis.NewServiceError(resp.StatusCode, errorResp.Message())
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
