package bqrunner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/option"

	"github.com/kndndrj/bqrunner/internal/observability"
)

// Session is an authenticated handle to the jobs API scoped to a project.
type Session struct {
	Service   JobService
	ProjectID string
}

// Open authenticates with creds and resolves the project id.
func Open(ctx context.Context, creds Credentials, opts ...Option) (*Session, error) {
	cfg := newRunnerConfig(opts)

	client, err := creds.httpClient(ctx, cfg.httpTimeout)
	if err != nil {
		return nil, classify(ctx, err)
	}

	projectID, err := creds.projectID(ctx)
	if err != nil {
		return nil, classify(ctx, err)
	}

	clientOpts := append([]option.ClientOption{option.WithHTTPClient(client)}, cfg.clientOptions...)
	svc, err := NewRESTJobService(ctx, clientOpts...)
	if err != nil {
		return nil, &UnexpectedError{Err: err}
	}

	return &Session{
		Service:   svc,
		ProjectID: projectID,
	}, nil
}

// JobSubmitter submits queries as asynchronous jobs.
type JobSubmitter struct {
	service JobService
	query   QueryOptions
	log     *slog.Logger
}

func NewJobSubmitter(service JobService, opts ...Option) *JobSubmitter {
	cfg := newRunnerConfig(opts)

	return &JobSubmitter{
		service: service,
		query:   cfg.query,
		log:     cfg.logger,
	}
}

// Submit inserts a query job. It is attempted exactly once.
func (s *JobSubmitter) Submit(ctx context.Context, projectID, query string) (*Job, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &UnexpectedError{Err: ErrEmptyQuery}
	}
	if projectID == "" {
		return nil, &UnexpectedError{Err: ErrEmptyProjectID}
	}
	if err := ctx.Err(); err != nil {
		return nil, &CancellationError{Err: err}
	}

	ref, err := s.service.InsertQuery(ctx, projectID, s.query.jobConfig(query))
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("jobs.insert: %w", err))
	}
	observability.ObserveJobSubmitted()

	location := s.query.Location
	if location == "" {
		location = ref.Location
	}

	job := &Job{
		ProjectID: projectID,
		ID:        ref.JobId,
		Location:  location,
		Complete:  false,
	}
	s.log.Debug("bigquery job submitted",
		slog.String("project_id", job.ProjectID),
		slog.String("job_id", job.ID),
		slog.String("location", job.Location))

	return job, nil
}
