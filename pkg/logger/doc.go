// Package logger provides a structured logging interface for sentinelfetch.
//
// It wraps zerolog behind a small Logger interface so that components can
// be handed a logger (or a TestLogger in tests) instead of reaching for a
// global. Console output is human readable and goes to stderr; when a log
// file is configured every event is also written there as JSON.
//
// Basic Usage:
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	if err := logger.Initialize(cfg); err != nil {
//	    return err
//	}
//
//	logger.Info("Starting ingestion")
//	logger.WithField("id", row.ID).Info("Image downloaded")
//	logger.WithError(err).Error("Token request failed")
//
// Components usually carry their own child logger:
//
//	log := logger.GetLogger().WithField("component", "ingest")
//	log.InfoWithFields("Run finished", map[string]interface{}{
//	    "downloaded": summary.Downloaded,
//	    "skipped":    summary.Skipped,
//	})
//
// Supported levels are debug, info, warn, error, fatal and disabled.
package logger
