package bqrunner_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/googleapi"

	"github.com/kndndrj/bqrunner/bqrunner"
)

func newSession(svc bqrunner.JobService) *bqrunner.Session {
	return &bqrunner.Session{Service: svc, ProjectID: "test-project"}
}

func TestRunner_RunQuery(t *testing.T) {
	r := require.New(t)

	svc := newFakeJobService(
		incomplete(),
		page(1, xFields, &bq.TableRow{F: []*bq.TableCell{{V: "1"}}}),
	)

	runner := bqrunner.NewWithSession(newSession(svc), bqrunner.WithPollInterval(time.Millisecond))

	data, err := runner.RunQuery(context.Background(), "SELECT 1")
	r.NoError(err)
	r.JSONEq(`{"columns":[{"name":"x","friendly_name":"x","type":"integer"}],"rows":[{"x":1}]}`, string(data))

	r.Len(svc.inserted, 1)
	r.Equal("SELECT 1", svc.inserted[0].Query)
	r.Len(svc.getCalls(), 2)
}

func TestRunner_RunQueryNonFiniteFloats(t *testing.T) {
	r := require.New(t)

	fields := []*bq.TableFieldSchema{{Name: "f", Type: "FLOAT"}}
	svc := newFakeJobService(page(4, fields,
		&bq.TableRow{F: []*bq.TableCell{{V: "NaN"}}},
		&bq.TableRow{F: []*bq.TableCell{{V: "Infinity"}}},
		&bq.TableRow{F: []*bq.TableCell{{V: "-Infinity"}}},
		&bq.TableRow{F: []*bq.TableCell{{V: "0.25"}}},
	))

	runner := bqrunner.NewWithSession(newSession(svc))

	table, err := runner.Query(context.Background(), "SELECT f")
	r.NoError(err)
	r.True(math.IsNaN(table.Rows[0]["f"].(float64)))
	r.True(math.IsInf(table.Rows[1]["f"].(float64), 1))

	svc = newFakeJobService(svc.replies...)
	data, err := bqrunner.NewWithSession(newSession(svc)).RunQuery(context.Background(), "SELECT f")
	r.NoError(err)
	r.JSONEq(`{
		"columns": [{"name": "f", "friendly_name": "f", "type": "float"}],
		"rows": [{"f": "NaN"}, {"f": "Infinity"}, {"f": "-Infinity"}, {"f": 0.25}]
	}`, string(data))
}

func TestRunner_QueryOptions(t *testing.T) {
	r := require.New(t)

	svc := newFakeJobService(page(0, xFields))
	runner := bqrunner.NewWithSession(newSession(svc), bqrunner.WithQueryOptions(bqrunner.QueryOptions{
		Location:          "EU",
		MaxBytesBilled:    1000,
		UseLegacySQL:      googleapi.Bool(false),
		DisableQueryCache: true,
	}))

	_, err := runner.Query(context.Background(), "SELECT x FROM t")
	r.NoError(err)

	r.Len(svc.inserted, 1)
	q := svc.inserted[0]
	r.Equal(int64(1000), q.MaximumBytesBilled)
	r.NotNil(q.UseLegacySql)
	r.False(*q.UseLegacySql)
	r.NotNil(q.UseQueryCache)
	r.False(*q.UseQueryCache)

	// configured location wins over the reported one
	r.Equal("EU", svc.getCalls()[0].location)
}

func TestRunner_DefaultQueryOptions(t *testing.T) {
	svc := newFakeJobService(page(0, xFields))

	_, err := bqrunner.NewWithSession(newSession(svc)).Query(context.Background(), "SELECT 1")
	require.NoError(t, err)

	q := svc.inserted[0]
	assert.Nil(t, q.UseLegacySql)
	assert.Nil(t, q.UseQueryCache)
	assert.Zero(t, q.MaximumBytesBilled)
	assert.Equal(t, "US", svc.getCalls()[0].location)
}

func TestRunner_EmptyQuery(t *testing.T) {
	svc := newFakeJobService()

	data, err := bqrunner.NewWithSession(newSession(svc)).RunQuery(context.Background(), "  ")

	assert.Nil(t, data)
	require.ErrorIs(t, err, bqrunner.ErrEmptyQuery)
	var uErr *bqrunner.UnexpectedError
	assert.ErrorAs(t, err, &uErr)
	assert.Empty(t, svc.inserted)
}

func TestRunner_InsertError(t *testing.T) {
	r := require.New(t)

	svc := newFakeJobService()
	svc.insertErr = &googleapi.Error{
		Code:    400,
		Message: "Syntax error: Unexpected identifier",
		Body:    `{"error":{"code":400,"message":"Syntax error: Unexpected identifier"}}`,
	}

	data, err := bqrunner.NewWithSession(newSession(svc)).RunQuery(context.Background(), "invalid sql")
	r.Nil(data)

	var svcErr *bqrunner.ServiceError
	r.ErrorAs(err, &svcErr)
	r.Equal(400, svcErr.Code)
	r.Equal("Syntax error: Unexpected identifier", svcErr.Message)
	r.Contains(err.Error(), "Syntax error")
	r.Empty(svc.getCalls())
}

func TestRunner_Cancelled(t *testing.T) {
	r := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := newFakeJobService(incomplete(), page(1, xFields, intRows(0, 1)...))
	svc.onGet = func(int) { cancel() }

	data, err := bqrunner.NewWithSession(newSession(svc), bqrunner.WithPollInterval(time.Minute)).
		RunQuery(ctx, "SELECT 1")
	r.Nil(data)

	var cErr *bqrunner.CancellationError
	r.ErrorAs(err, &cErr)
	r.Equal("query cancelled by user", err.Error())
	r.Len(svc.getCalls(), 1)
}

func TestRunner_CancelledBeforeSubmit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newFakeJobService()
	_, err := bqrunner.NewWithSession(newSession(svc)).Query(ctx, "SELECT 1")

	var cErr *bqrunner.CancellationError
	require.ErrorAs(t, err, &cErr)
	assert.Empty(t, svc.inserted)
}
