package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinelfetch/pkg/logger"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestHandlerExposesRecordedMetrics(t *testing.T) {
	RecordRow(OutcomeDownloaded)
	RecordRow(OutcomeSkipped)
	RecordProcessRequest(200, 150*time.Millisecond)
	RecordProcessRequest(404, 20*time.Millisecond)
	RecordTokenRequest(true)
	RecordTokenRequest(false)
	RecordRetry("server_error")

	body := scrape(t, Handler())

	assert.Contains(t, body, `sentinelfetch_rows_total{outcome="downloaded"}`)
	assert.Contains(t, body, `sentinelfetch_rows_total{outcome="skipped"}`)
	assert.Contains(t, body, `sentinelfetch_process_requests_total{status="200"}`)
	assert.Contains(t, body, `sentinelfetch_process_requests_total{status="404"}`)
	assert.Contains(t, body, "sentinelfetch_process_request_duration_seconds_bucket")
	assert.Contains(t, body, `sentinelfetch_token_requests_total{result="failure"}`)
	assert.Contains(t, body, `sentinelfetch_retries_total{error_type="server_error"}`)
}

func TestServeListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ServeListener(ctx, ln, logger.NewNopLogger())
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/metrics")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "# HELP")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeBadAddress(t *testing.T) {
	err := Serve(context.Background(), "not-an-address", logger.NewNopLogger())
	assert.Error(t, err)
}
