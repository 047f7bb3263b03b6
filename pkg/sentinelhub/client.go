package sentinelhub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	sferrors "sentinelfetch/pkg/errors"
	"sentinelfetch/pkg/logger"
	"sentinelfetch/pkg/metrics"
	"sentinelfetch/pkg/retry"
)

// ProcessResponse is the outcome of a Process API call that got an HTTP
// response. Body holds the image on 200 and the error payload otherwise.
type ProcessResponse struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the call returned an image
func (r *ProcessResponse) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Client calls the Sentinel Hub Process API
type Client struct {
	httpClient *http.Client
	processURL string
	headers    map[string]string
	retry      *retry.Config
	logger     logger.Logger
}

// NewClient creates a Process API client. A nil retryCfg means one attempt.
func NewClient(processURL string, httpClient *http.Client, retryCfg *retry.Config, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	if retryCfg == nil {
		retryCfg = &retry.Config{MaxAttempts: 1}
	}

	return &Client{
		httpClient: httpClient,
		processURL: processURL,
		headers: map[string]string{
			"Content-Type": "application/json",
			"User-Agent":   "sentinelfetch",
		},
		retry:  retryCfg,
		logger: log.WithField("component", "process"),
	}
}

// SetHeader sets a custom header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Process sends req with the bearer token. Non-200 responses are returned
// as a ProcessResponse, not an error; an error means no response was
// obtained (transport failure or cancellation).
func (c *Client) Process(ctx context.Context, token string, req *ProcessRequest) (*ProcessResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode process request: %w", err)
	}

	rc := *c.retry
	rc.OnRetry = func(attempt int, err error, delay time.Duration) {
		var apiErr *sferrors.Error
		if errors.As(err, &apiErr) {
			metrics.RecordRetry(string(apiErr.Type))
		}
	}

	var last *ProcessResponse
	resp, err := retry.DoWithResult(ctx, func(ctx context.Context) (*ProcessResponse, error) {
		resp, err := c.send(ctx, token, payload)
		if err != nil {
			return nil, err
		}
		if !resp.OK() && sferrors.IsRetryableStatusCode(resp.StatusCode) {
			last = resp
			return nil, sferrors.FromStatusCode(resp.StatusCode)
		}
		return resp, nil
	}, &rc)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		var apiErr *sferrors.Error
		if last != nil && errors.As(err, &apiErr) && apiErr.Code == last.StatusCode {
			return last, nil
		}
		return nil, err
	}
	return resp, nil
}

// send performs a single POST
func (c *Client) send(ctx context.Context, token string, payload []byte) (*ProcessResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.processURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordProcessRequest(0, duration)
		c.logger.WithError(err).ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      c.processURL,
			"duration": duration,
		})
		return nil, sferrors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordProcessRequest(0, time.Since(start))
		return nil, sferrors.NewNetworkError(fmt.Errorf("failed to read response body: %w", err))
	}

	metrics.RecordProcessRequest(resp.StatusCode, time.Since(start))
	logger.LogRequest(c.logger, req.Method, c.processURL, resp.StatusCode, time.Since(start))

	return &ProcessResponse{StatusCode: resp.StatusCode, Body: body}, nil
}
