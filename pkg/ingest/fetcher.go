package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"sentinelfetch/pkg/config"
	"sentinelfetch/pkg/logger"
	"sentinelfetch/pkg/rows"
	"sentinelfetch/pkg/sentinelhub"
)

// Result is the outcome of one fetch attempt that got a response.
// Status is the HTTP status; Written is true only for 200.
type Result struct {
	Written bool
	Status  int
}

// Fetcher fetches and stores the image for a row. A non-200 response is a
// Result, not an error; errors are reserved for transport and disk failures.
type Fetcher interface {
	Fetch(ctx context.Context, token string, row rows.Row) (Result, error)
}

// ProcessClient sends Process API requests
type ProcessClient interface {
	Process(ctx context.Context, token string, req *sentinelhub.ProcessRequest) (*sentinelhub.ProcessResponse, error)
}

// ImageStore maps identifiers to stored images. *storage.Manager satisfies it.
type ImageStore interface {
	Exists(id string) bool
	Save(id string, r io.Reader) error
}

// ImageFetcher is the Fetcher backed by the Sentinel Hub Process API
type ImageFetcher struct {
	client  ProcessClient
	store   ImageStore
	request config.RequestConfig
	logger  logger.Logger
}

// NewImageFetcher creates a fetcher that renders each row with rc
func NewImageFetcher(client ProcessClient, store ImageStore, rc config.RequestConfig, log logger.Logger) *ImageFetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &ImageFetcher{
		client:  client,
		store:   store,
		request: rc,
		logger:  log.WithField("component", "fetcher"),
	}
}

// Fetch requests the image centered on the row and writes it on success
func (f *ImageFetcher) Fetch(ctx context.Context, token string, row rows.Row) (Result, error) {
	req := sentinelhub.NewProcessRequest(row.Lat, row.Lon, f.request)

	resp, err := f.client.Process(ctx, token, req)
	if err != nil {
		return Result{}, fmt.Errorf("process request for %s: %w", row.ID, err)
	}

	if !resp.OK() {
		f.logger.DebugWithFields("Process API rejected request", map[string]interface{}{
			"id":          row.ID,
			"status_code": resp.StatusCode,
			"body":        truncate(resp.Body, 512),
		})
		return Result{Status: resp.StatusCode}, nil
	}

	if err := f.store.Save(row.ID, bytes.NewReader(resp.Body)); err != nil {
		return Result{Status: resp.StatusCode}, fmt.Errorf("save image %s: %w", row.ID, err)
	}

	return Result{Written: true, Status: resp.StatusCode}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
