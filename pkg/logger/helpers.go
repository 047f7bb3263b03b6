package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs HTTP request information on l
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		l.WarnWithFields("HTTP request client error", fields)
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogFetch logs the outcome of a single image fetch
func LogFetch(l Logger, id string, statusCode int, written bool) {
	fields := map[string]interface{}{
		"id":          id,
		"status_code": statusCode,
		"written":     written,
	}

	if written {
		l.InfoWithFields("Image downloaded", fields)
	} else {
		l.WarnWithFields("Image fetch failed", fields)
	}
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	l.WithField("component", component).InfoWithFields("Component started", config)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
