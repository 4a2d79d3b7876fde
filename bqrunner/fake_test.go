package bqrunner_test

import (
	"context"
	"errors"
	"strconv"
	"sync"

	bq "google.golang.org/api/bigquery/v2"

	"github.com/kndndrj/bqrunner/bqrunner"
)

var _ bqrunner.JobService = (*fakeJobService)(nil)

type getCall struct {
	jobID      string
	location   string
	startIndex uint64
}

// fakeJobService replays replies in order and records every call.
type fakeJobService struct {
	mu sync.Mutex

	jobRef    *bq.JobReference
	insertErr error
	replies   []*bq.GetQueryResultsResponse
	getErrs   map[int]error
	onGet     func(call int)

	inserted []*bq.JobConfigurationQuery
	gets     []getCall
}

func newFakeJobService(replies ...*bq.GetQueryResultsResponse) *fakeJobService {
	return &fakeJobService{
		jobRef:  &bq.JobReference{ProjectId: "test-project", JobId: "job-1", Location: "US"},
		replies: replies,
		getErrs: make(map[int]error),
	}
}

func (f *fakeJobService) InsertQuery(_ context.Context, _ string, query *bq.JobConfigurationQuery) (*bq.JobReference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inserted = append(f.inserted, query)
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	return f.jobRef, nil
}

func (f *fakeJobService) GetQueryResults(_ context.Context, _ string, jobID, location string, startIndex uint64) (*bq.GetQueryResultsResponse, error) {
	f.mu.Lock()
	call := len(f.gets)
	f.gets = append(f.gets, getCall{jobID: jobID, location: location, startIndex: startIndex})
	onGet := f.onGet
	f.mu.Unlock()

	if onGet != nil {
		onGet(call)
	}
	if err, ok := f.getErrs[call]; ok {
		return nil, err
	}
	if call >= len(f.replies) {
		return nil, errors.New("no more replies")
	}
	return f.replies[call], nil
}

func (f *fakeJobService) getCalls() []getCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]getCall(nil), f.gets...)
}

func incomplete() *bq.GetQueryResultsResponse {
	return &bq.GetQueryResultsResponse{JobComplete: false}
}

func page(total uint64, fields []*bq.TableFieldSchema, rows ...*bq.TableRow) *bq.GetQueryResultsResponse {
	return &bq.GetQueryResultsResponse{
		JobComplete:  true,
		JobReference: &bq.JobReference{ProjectId: "test-project", JobId: "job-1"},
		Schema:       &bq.TableSchema{Fields: fields},
		TotalRows:    total,
		Rows:         rows,
	}
}

func intRows(from, to int) []*bq.TableRow {
	var rows []*bq.TableRow
	for i := from; i < to; i++ {
		rows = append(rows, &bq.TableRow{F: []*bq.TableCell{{V: strconv.Itoa(i)}}})
	}
	return rows
}
