package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{400, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		err := FromStatusCode(tt.code)
		assert.Equal(t, tt.want, err.Type, "status %d", tt.code)
		assert.Equal(t, tt.code, err.Code)
	}
}

func TestAuthErrorMessage(t *testing.T) {
	err := &AuthError{StatusCode: 401, Body: `{"error":"invalid_client"}`}
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "invalid_client")

	wrapped := &AuthError{Err: io.ErrUnexpectedEOF}
	assert.True(t, stderrors.Is(wrapped, io.ErrUnexpectedEOF))
}

func TestDataLoadErrorMessage(t *testing.T) {
	err := &DataLoadError{Path: "train.csv", Line: 4, Reason: "invalid lat"}
	assert.Equal(t, "failed to load train.csv (line 4): invalid lat", err.Error())

	noLine := &DataLoadError{Path: "train.csv", Reason: "missing column", Err: io.EOF}
	assert.Equal(t, "failed to load train.csv: missing column: EOF", noLine.Error())
	assert.True(t, stderrors.Is(noLine, io.EOF))
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(502))
	assert.False(t, IsRetryableStatusCode(404))
	assert.False(t, IsRetryableStatusCode(400))
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.False(t, IsRetryable(ErrorTypeAuth))
}

func TestNewNetworkError(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewNetworkError(cause)

	assert.Equal(t, ErrorTypeNetwork, err.Type)
	assert.Equal(t, 0, err.Code)
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsRetryable(err.Type))
}
