package sentinelhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sferrors "sentinelfetch/pkg/errors"
	"sentinelfetch/pkg/logger"
)

func TestTokenProviderSuccess(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"grant_type":    r.PostForm.Get("grant_type"),
			"client_id":     r.PostForm.Get("client_id"),
			"client_secret": r.PostForm.Get("client_secret"),
		}
		assert.Empty(t, r.Header.Get("Authorization"), "credentials go in the form body")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	tl := logger.NewTestLogger()
	p := NewTokenProvider(srv.URL, "my-id", "my-secret", srv.Client(), tl)

	tok, err := p.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tok-123", tok.Value)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Expiry, time.Minute)
	assert.Equal(t, map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     "my-id",
		"client_secret": "my-secret",
	}, form)
	assert.True(t, tl.HasMessage("Token acquired"))
}

func TestTokenProviderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	tl := logger.NewTestLogger()
	p := NewTokenProvider(srv.URL, "bad", "creds", srv.Client(), tl)

	_, err := p.Token(context.Background())
	require.Error(t, err)

	var authErr *sferrors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Contains(t, authErr.Body, "invalid_client")
	assert.True(t, tl.HasError())
}

func TestTokenProviderRequiresStatusOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	p := NewTokenProvider(srv.URL, "my-id", "my-secret", srv.Client(), logger.NewTestLogger())

	_, err := p.Token(context.Background())
	require.Error(t, err)

	var authErr *sferrors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusAccepted, authErr.StatusCode)
	assert.Contains(t, authErr.Body, "tok-123")
}

func TestTokenProviderLeavesCallerClientAlone(t *testing.T) {
	client := &http.Client{}
	NewTokenProvider("http://127.0.0.1:1/token", "id", "secret", client, logger.NewTestLogger())
	assert.Nil(t, client.Transport)
}

func TestTokenProviderMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	p := NewTokenProvider(srv.URL, "id", "secret", srv.Client(), logger.NewNopLogger())

	_, err := p.Token(context.Background())

	var authErr *sferrors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Error(), "access_token")
}

func TestTokenProviderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewTokenProvider(url, "id", "secret", nil, logger.NewNopLogger())

	_, err := p.Token(context.Background())

	var authErr *sferrors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 0, authErr.StatusCode)
}
