// Package metrics defines the Prometheus metrics exported by sentinelfetch
// and the optional HTTP endpoint that serves them.
//
// Metrics:
//   - sentinelfetch_rows_total{outcome} (Counter): rows by outcome (downloaded, failed, skipped)
//   - sentinelfetch_process_requests_total{status} (Counter): Process API responses by HTTP status
//   - sentinelfetch_process_request_duration_seconds (Histogram): Process API latency
//   - sentinelfetch_token_requests_total{result} (Counter): token requests by result
//   - sentinelfetch_retries_total{error_type} (Counter): Process API retries by error type
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sentinelfetch/pkg/logger"
)

// Row outcomes
const (
	OutcomeDownloaded = "downloaded"
	OutcomeFailed     = "failed"
	OutcomeSkipped    = "skipped"
)

var (
	rowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinelfetch_rows_total",
		Help: "Rows processed by outcome",
	}, []string{"outcome"})

	processRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinelfetch_process_requests_total",
		Help: "Process API responses by HTTP status",
	}, []string{"status"})

	processRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentinelfetch_process_request_duration_seconds",
		Help:    "Process API request duration",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	tokenRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinelfetch_token_requests_total",
		Help: "OAuth token requests by result",
	}, []string{"result"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinelfetch_retries_total",
		Help: "Process API retries by error type",
	}, []string{"error_type"})
)

// RecordRow counts one row with the given outcome
func RecordRow(outcome string) {
	rowsTotal.WithLabelValues(outcome).Inc()
}

// RecordProcessRequest records one Process API response. status is 0 for
// transport failures.
func RecordProcessRequest(status int, duration time.Duration) {
	processRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	processRequestDuration.Observe(duration.Seconds())
}

// RecordTokenRequest records the result of a token request
func RecordTokenRequest(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	tokenRequestsTotal.WithLabelValues(result).Inc()
}

// RecordRetry counts one retry of a Process API call
func RecordRetry(errorType string) {
	retriesTotal.WithLabelValues(errorType).Inc()
}

// Handler returns the /metrics handler for the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string, log logger.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return ServeListener(ctx, ln, log)
}

// ServeListener exposes /metrics on ln until ctx is done
func ServeListener(ctx context.Context, ln net.Listener, log logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	log.WithField("addr", ln.Addr().String()).Info("Metrics endpoint listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown failed: %w", err)
		}
		return nil
	}
}
