package bqrunner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	bq "google.golang.org/api/bigquery/v2"

	"github.com/kndndrj/bqrunner/internal/observability"
)

// ResultCollector drives a job to completion and materializes its rows.
type ResultCollector struct {
	service         JobService
	pollInterval    time.Duration
	maxPollAttempts int
	log             *slog.Logger
}

func NewResultCollector(service JobService, opts ...Option) *ResultCollector {
	cfg := newRunnerConfig(opts)

	return &ResultCollector{
		service:         service,
		pollInterval:    cfg.pollInterval,
		maxPollAttempts: cfg.maxPollAttempts,
		log:             cfg.logger,
	}
}

// AwaitCompletion polls the job status at a fixed interval until the service
// reports it complete and returns the first page of results.
func (c *ResultCollector) AwaitCompletion(ctx context.Context, job *Job) (*bq.GetQueryResultsResponse, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &CancellationError{Err: err}
		}

		reply, err := c.service.GetQueryResults(ctx, job.ProjectID, job.ID, job.Location, 0)
		observability.ObserveStatusPoll()
		if err != nil {
			return nil, classify(ctx, fmt.Errorf("jobs.getQueryResults: %w", err))
		}
		if reply == nil {
			return nil, unexpectedf("jobs.getQueryResults: empty reply for job %s", job.ID)
		}

		c.log.Debug("bigquery replied",
			slog.String("job_id", job.ID),
			slog.Bool("job_complete", reply.JobComplete),
			slog.Int("attempt", attempt))

		if reply.JobComplete {
			job.Complete = true
			return reply, nil
		}

		if c.maxPollAttempts > 0 && attempt >= c.maxPollAttempts {
			return nil, &UnexpectedError{Err: ErrPollAttemptsExceeded}
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &CancellationError{Err: ctx.Err()}
		case <-timer.C:
		}
	}
}

// Collect waits for the job and pages through all of its rows.
func (c *ResultCollector) Collect(ctx context.Context, job *Job) (*Table, error) {
	reply, err := c.AwaitCompletion(ctx, job)
	if err != nil {
		return nil, err
	}

	// schema of the first reply is authoritative for the whole job
	var fields []*bq.TableFieldSchema
	if reply.Schema != nil {
		fields = reply.Schema.Fields
	}
	if fields == nil && len(reply.Rows) > 0 {
		return nil, unexpectedf("reply for job %s has rows but no schema", job.ID)
	}

	jobID := job.ID
	rows := make([]Record, 0, len(reply.Rows))
	var current uint64

	for len(reply.Rows) > 0 && current < reply.TotalRows {
		for _, raw := range reply.Rows {
			record, err := TransformRow(raw, fields)
			if err != nil {
				return nil, err
			}
			rows = append(rows, record)
		}
		current += uint64(len(reply.Rows))
		observability.ObservePage(len(reply.Rows))

		if current >= reply.TotalRows {
			break
		}

		if ref := reply.JobReference; ref != nil && ref.JobId != "" {
			jobID = ref.JobId
		}
		if err := ctx.Err(); err != nil {
			return nil, &CancellationError{Err: err}
		}

		reply, err = c.service.GetQueryResults(ctx, job.ProjectID, jobID, job.Location, current)
		if err != nil {
			return nil, classify(ctx, fmt.Errorf("jobs.getQueryResults: %w", err))
		}
		if reply == nil {
			return nil, unexpectedf("jobs.getQueryResults: empty reply for job %s at index %d", jobID, current)
		}
	}

	if len(reply.Rows) == 0 && current < reply.TotalRows {
		observability.ObserveEmptyPageTermination()
		c.log.Warn("bigquery returned an empty page before all rows were read",
			slog.String("job_id", jobID),
			slog.Uint64("collected", current),
			slog.Uint64("total_rows", reply.TotalRows))
	}

	return &Table{
		Columns: buildColumns(fields),
		Rows:    rows,
	}, nil
}
