package bqrunner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kndndrj/bqrunner/internal/observability"
)

// Runner executes queries end to end: authenticate, submit, poll, page and
// decode. Every call is independent; nothing is shared between queries.
type Runner struct {
	dial func(context.Context) (*Session, error)
	opts []Option
	log  *slog.Logger
}

// New creates a runner which authenticates with creds on every query.
func New(creds Credentials, opts ...Option) *Runner {
	return &Runner{
		dial: func(ctx context.Context) (*Session, error) {
			return Open(ctx, creds, opts...)
		},
		opts: opts,
		log:  newRunnerConfig(opts).logger,
	}
}

// NewWithSession creates a runner on top of an already opened session.
func NewWithSession(session *Session, opts ...Option) *Runner {
	return &Runner{
		dial: func(context.Context) (*Session, error) {
			return session, nil
		},
		opts: opts,
		log:  newRunnerConfig(opts).logger,
	}
}

// Query runs the query and returns the materialized table. Errors are one
// of *ServiceError, *CancellationError or *UnexpectedError.
func (r *Runner) Query(ctx context.Context, query string) (*Table, error) {
	start := time.Now()

	table, err := r.query(ctx, query)
	observability.ObserveQuery(outcome(err), time.Since(start))
	if err != nil {
		r.log.Debug("bigquery query failed", slog.String("error", err.Error()))
		return nil, err
	}

	return table, nil
}

func (r *Runner) query(ctx context.Context, query string) (*Table, error) {
	r.log.Debug("bigquery got query", slog.String("query", query))

	session, err := r.dial(ctx)
	if err != nil {
		return nil, classify(ctx, err)
	}

	job, err := NewJobSubmitter(session.Service, r.opts...).Submit(ctx, session.ProjectID, query)
	if err != nil {
		return nil, err
	}

	return NewResultCollector(session.Service, r.opts...).Collect(ctx, job)
}

// RunQuery runs the query and returns the table encoded as JSON:
//
//	{"columns": [{"name", "friendly_name", "type"}], "rows": [{<name>: <value>}]}
//
// Exactly one of the return values is non-nil.
func (r *Runner) RunQuery(ctx context.Context, query string) ([]byte, error) {
	table, err := r.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(table)
	if err != nil {
		return nil, &UnexpectedError{Err: fmt.Errorf("json.Marshal: %w", err)}
	}

	return data, nil
}

func outcome(err error) string {
	var (
		svcErr *ServiceError
		cErr   *CancellationError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &cErr):
		return "cancelled"
	case errors.As(err, &svcErr):
		return "service_error"
	default:
		return "unexpected_error"
	}
}
