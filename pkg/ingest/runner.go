package ingest

import (
	"context"
	"fmt"

	"sentinelfetch/pkg/logger"
	"sentinelfetch/pkg/metrics"
	"sentinelfetch/pkg/ratelimit"
	"sentinelfetch/pkg/rows"
)

// Reporter receives per-row progress
type Reporter interface {
	Downloaded(id string)
	Failed(id string, status int)
	Skipped(id string)
}

// Summary tallies a run. Downloaded counts every attempted fetch, including
// failed ones, so Downloaded+Skipped equals Total. Failed is the subset of
// Downloaded that did not produce a file.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
	Total      int
}

// Runner drives the ingestion loop over a row list
type Runner struct {
	fetcher  Fetcher
	store    ImageStore
	limiter  ratelimit.Limiter
	reporter Reporter
	logger   logger.Logger
}

// NewRunner creates a Runner. A nil limiter never pauses and a nil
// reporter discards progress.
func NewRunner(fetcher Fetcher, store ImageStore, limiter ratelimit.Limiter, reporter Reporter, log logger.Logger) *Runner {
	if limiter == nil {
		limiter = ratelimit.NewFixedDelay(0)
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Runner{
		fetcher:  fetcher,
		store:    store,
		limiter:  limiter,
		reporter: reporter,
		logger:   log.WithField("component", "runner"),
	}
}

// Run processes rows in order. Rows with an existing image are skipped
// without a pause; every other row gets one fetch attempt followed by a
// limiter wait. On error the Summary holds the counts reached so far.
func (r *Runner) Run(ctx context.Context, token string, list []rows.Row) (Summary, error) {
	var sum Summary

	for _, row := range list {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("ingestion interrupted: %w", err)
		}

		if r.store.Exists(row.ID) {
			sum.Skipped++
			sum.Total++
			metrics.RecordRow(metrics.OutcomeSkipped)
			r.reporter.Skipped(row.ID)
			r.logger.DebugWithFields("Image exists, skipping", map[string]interface{}{"id": row.ID})
			continue
		}

		res, err := r.fetcher.Fetch(ctx, token, row)
		if err != nil {
			r.logger.WithError(err).ErrorWithFields("Fetch aborted run", map[string]interface{}{
				"id":   row.ID,
				"line": row.Line,
			})
			return sum, err
		}

		sum.Downloaded++
		sum.Total++
		logger.LogFetch(r.logger, row.ID, res.Status, res.Written)
		if res.Written {
			metrics.RecordRow(metrics.OutcomeDownloaded)
			r.reporter.Downloaded(row.ID)
		} else {
			sum.Failed++
			metrics.RecordRow(metrics.OutcomeFailed)
			r.reporter.Failed(row.ID, res.Status)
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return sum, fmt.Errorf("ingestion interrupted: %w", err)
		}
	}

	r.logger.InfoWithFields("Ingestion finished", map[string]interface{}{
		"downloaded": sum.Downloaded,
		"skipped":    sum.Skipped,
		"failed":     sum.Failed,
		"total":      sum.Total,
	})
	return sum, nil
}

// NopReporter discards progress
type NopReporter struct{}

func (NopReporter) Downloaded(string)  {}
func (NopReporter) Failed(string, int) {}
func (NopReporter) Skipped(string)     {}
