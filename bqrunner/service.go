package bqrunner

import (
	"context"
	"fmt"

	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/option"
)

// JobService is the subset of the BigQuery jobs API the runner needs.
type JobService interface {
	InsertQuery(ctx context.Context, projectID string, query *bq.JobConfigurationQuery) (*bq.JobReference, error)
	GetQueryResults(ctx context.Context, projectID, jobID, location string, startIndex uint64) (*bq.GetQueryResultsResponse, error)
}

var _ JobService = (*RESTJobService)(nil)

// RESTJobService talks to the BigQuery v2 REST API.
type RESTJobService struct {
	jobs *bq.JobsService
}

// NewRESTJobService creates a job service. Authentication is expected to be
// configured through opts, usually with [option.WithHTTPClient].
func NewRESTJobService(ctx context.Context, opts ...option.ClientOption) (*RESTJobService, error) {
	svc, err := bq.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery.NewService: %w", err)
	}

	return &RESTJobService{jobs: svc.Jobs}, nil
}

func (s *RESTJobService) InsertQuery(ctx context.Context, projectID string, query *bq.JobConfigurationQuery) (*bq.JobReference, error) {
	job := &bq.Job{
		Configuration: &bq.JobConfiguration{
			Query: query,
		},
	}

	inserted, err := s.jobs.Insert(projectID, job).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	if inserted.JobReference == nil || inserted.JobReference.JobId == "" {
		return nil, unexpectedf("jobs.insert replied without a job reference")
	}

	return inserted.JobReference, nil
}

func (s *RESTJobService) GetQueryResults(ctx context.Context, projectID, jobID, location string, startIndex uint64) (*bq.GetQueryResultsResponse, error) {
	call := s.jobs.GetQueryResults(projectID, jobID).
		StartIndex(startIndex).
		Context(ctx)
	if location != "" {
		call = call.Location(location)
	}

	return call.Do()
}
