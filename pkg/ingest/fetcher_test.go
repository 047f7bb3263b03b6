package ingest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinelfetch/pkg/config"
	"sentinelfetch/pkg/logger"
	"sentinelfetch/pkg/rows"
	"sentinelfetch/pkg/sentinelhub"
)

type fakeClient struct {
	resp *sentinelhub.ProcessResponse
	err  error
	got  *sentinelhub.ProcessRequest
}

func (c *fakeClient) Process(ctx context.Context, token string, req *sentinelhub.ProcessRequest) (*sentinelhub.ProcessResponse, error) {
	c.got = req
	return c.resp, c.err
}

type failingStore struct{}

func (failingStore) Exists(string) bool            { return false }
func (failingStore) Save(string, io.Reader) error { return errors.New("disk full") }

func TestImageFetcherWritesOnSuccess(t *testing.T) {
	store := newStore(t)
	client := &fakeClient{resp: &sentinelhub.ProcessResponse{StatusCode: http.StatusOK, Body: []byte("png")}}
	f := NewImageFetcher(client, store, config.DefaultConfig().Request, logger.NewNopLogger())

	res, err := f.Fetch(context.Background(), "tok", rows.Row{ID: "42", Lat: 1.5, Lon: 2.5})
	require.NoError(t, err)
	assert.Equal(t, Result{Written: true, Status: http.StatusOK}, res)

	data, err := os.ReadFile(store.Path("42"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NotNil(t, client.got)
	assert.InDelta(t, 2.498, client.got.Input.Bounds.BBox[0], 1e-9)
	assert.InDelta(t, 1.498, client.got.Input.Bounds.BBox[1], 1e-9)
}

func TestImageFetcherNonSuccessWritesNothing(t *testing.T) {
	store := newStore(t)
	client := &fakeClient{resp: &sentinelhub.ProcessResponse{StatusCode: http.StatusBadRequest, Body: []byte(`{"error":"bad"}`)}}
	f := NewImageFetcher(client, store, config.DefaultConfig().Request, logger.NewNopLogger())

	res, err := f.Fetch(context.Background(), "tok", rows.Row{ID: "x"})
	require.NoError(t, err)
	assert.Equal(t, Result{Status: http.StatusBadRequest}, res)
	assert.False(t, store.Exists("x"))
}

func TestImageFetcherTransportError(t *testing.T) {
	client := &fakeClient{err: errors.New("no route to host")}
	f := NewImageFetcher(client, newStore(t), config.DefaultConfig().Request, logger.NewNopLogger())

	_, err := f.Fetch(context.Background(), "tok", rows.Row{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "process request for x")
}

func TestImageFetcherSaveError(t *testing.T) {
	client := &fakeClient{resp: &sentinelhub.ProcessResponse{StatusCode: http.StatusOK, Body: []byte("png")}}
	f := NewImageFetcher(client, failingStore{}, config.DefaultConfig().Request, logger.NewNopLogger())

	_, err := f.Fetch(context.Background(), "tok", rows.Row{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate([]byte("abc"), 5))
	assert.Equal(t, "ab...", truncate([]byte("abcdef"), 2))
}
