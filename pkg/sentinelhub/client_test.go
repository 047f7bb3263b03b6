package sentinelhub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinelfetch/pkg/config"
	sferrors "sentinelfetch/pkg/errors"
	"sentinelfetch/pkg/logger"
	"sentinelfetch/pkg/retry"
)

const testProcessURL = "https://sh.example.test/api/v1/process"

var pngBytes = []byte("\x89PNG\r\n\x1a\n-image-")

func newMockedClient(t *testing.T, retryCfg *retry.Config) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	httpClient := &http.Client{Transport: mt}
	return NewClient(testProcessURL, httpClient, retryCfg, logger.NewNopLogger()), mt
}

func fastRetry(attempts int) *retry.Config {
	return retry.FromConfig(config.RetryConfig{
		Enabled:     true,
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}, logger.NewNopLogger())
}

func TestProcessSuccess(t *testing.T) {
	client, mt := newMockedClient(t, nil)

	mt.RegisterResponder(http.MethodPost, testProcessURL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

		var body ProcessRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.InDelta(t, 9.998, body.Input.Bounds.BBox[0], 1e-9)
		assert.InDelta(t, 20.002, body.Input.Bounds.BBox[3], 1e-9)

		return httpmock.NewBytesResponse(http.StatusOK, pngBytes), nil
	})

	resp, err := client.Process(context.Background(), "tok-1", NewProcessRequest(20, 10, config.DefaultConfig().Request))
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, pngBytes, resp.Body)
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestProcessNonSuccessIsNotAnError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusServiceUnavailable} {
		client, mt := newMockedClient(t, nil)
		mt.RegisterResponder(http.MethodPost, testProcessURL,
			httpmock.NewStringResponder(status, `{"error":{"message":"nope"}}`))

		resp, err := client.Process(context.Background(), "tok", NewProcessRequest(0, 0, config.DefaultConfig().Request))
		require.NoError(t, err, "status %d", status)
		assert.False(t, resp.OK())
		assert.Equal(t, status, resp.StatusCode)
		assert.Equal(t, 1, mt.GetTotalCallCount(), "no retry by default for %d", status)
	}
}

func TestProcessTransportError(t *testing.T) {
	client, mt := newMockedClient(t, nil)
	mt.RegisterResponder(http.MethodPost, testProcessURL, httpmock.NewErrorResponder(errors.New("connection reset")))

	resp, err := client.Process(context.Background(), "tok", NewProcessRequest(0, 0, config.DefaultConfig().Request))
	require.Error(t, err)
	assert.Nil(t, resp)

	var apiErr *sferrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, sferrors.ErrorTypeNetwork, apiErr.Type)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestProcessRetriesServerErrors(t *testing.T) {
	client, mt := newMockedClient(t, fastRetry(3))

	calls := 0
	mt.RegisterResponder(http.MethodPost, testProcessURL, func(req *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return httpmock.NewStringResponse(http.StatusServiceUnavailable, "busy"), nil
		}
		return httpmock.NewBytesResponse(http.StatusOK, pngBytes), nil
	})

	resp, err := client.Process(context.Background(), "tok", NewProcessRequest(0, 0, config.DefaultConfig().Request))
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, 3, calls)
}

func TestProcessRetryExhaustedReturnsLastStatus(t *testing.T) {
	client, mt := newMockedClient(t, fastRetry(2))
	mt.RegisterResponder(http.MethodPost, testProcessURL, httpmock.NewStringResponder(http.StatusTooManyRequests, "slow down"))

	resp, err := client.Process(context.Background(), "tok", NewProcessRequest(0, 0, config.DefaultConfig().Request))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "slow down", string(resp.Body))
	assert.Equal(t, 2, mt.GetTotalCallCount())
}

func TestProcessDoesNotRetryClientErrors(t *testing.T) {
	client, mt := newMockedClient(t, fastRetry(5))
	mt.RegisterResponder(http.MethodPost, testProcessURL, httpmock.NewStringResponder(http.StatusNotFound, ""))

	resp, err := client.Process(context.Background(), "tok", NewProcessRequest(0, 0, config.DefaultConfig().Request))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestProcessRetriesTransportErrors(t *testing.T) {
	client, mt := newMockedClient(t, fastRetry(2))

	calls := 0
	mt.RegisterResponder(http.MethodPost, testProcessURL, func(req *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("dial tcp: timeout")
		}
		return httpmock.NewBytesResponse(http.StatusOK, pngBytes), nil
	})

	resp, err := client.Process(context.Background(), "tok", NewProcessRequest(0, 0, config.DefaultConfig().Request))
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, 2, calls)
}

func TestProcessCancelled(t *testing.T) {
	client, mt := newMockedClient(t, fastRetry(3))
	mt.RegisterResponder(http.MethodPost, testProcessURL, func(req *http.Request) (*http.Response, error) {
		if err := req.Context().Err(); err != nil {
			return nil, err
		}
		return httpmock.NewBytesResponse(http.StatusOK, pngBytes), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Process(ctx, "tok", NewProcessRequest(0, 0, config.DefaultConfig().Request))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessCustomHeader(t *testing.T) {
	client, mt := newMockedClient(t, nil)
	client.SetHeader("X-Trace", "abc")

	mt.RegisterResponder(http.MethodPost, testProcessURL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "abc", req.Header.Get("X-Trace"))
		return httpmock.NewBytesResponse(http.StatusOK, pngBytes), nil
	})

	_, err := client.Process(context.Background(), "tok", NewProcessRequest(0, 0, config.DefaultConfig().Request))
	require.NoError(t, err)
}
