package mock

import (
	"fmt"
	"time"

	"github.com/kndndrj/bqrunner/core"
	"github.com/kndndrj/bqrunner/core/builders"
)

// Response is the canned answer of the mocked driver to a query.
type Response struct {
	Columns []core.Column
	Rows    []core.Row

	// Err fails the query before a stream is returned.
	Err error
	// Block holds the query until its context is done.
	Block bool

	// RowErr is returned instead of the row at index FailAt.
	FailAt int
	RowErr error
	// RowDelay is slept before every row.
	RowDelay time.Duration
}

// Numbers answers with an integer "id" and a string "label" column holding
// rows from..to-1.
func Numbers(from, to int) Response {
	resp := Response{
		Columns: []core.Column{
			{Name: "id", FriendlyName: "id", Type: "integer"},
			{Name: "label", FriendlyName: "label", Type: "string"},
		},
	}
	for i := from; i < to; i++ {
		resp.Rows = append(resp.Rows, core.Row{int64(i), fmt.Sprintf("row_%d", i)})
	}
	return resp
}

func (r Response) stream() core.ResultStream {
	header := make(core.Header, 0, len(r.Columns))
	for _, col := range r.Columns {
		header = append(header, col.Name)
	}

	next, hasNext := builders.NextSlice(r.Rows, func(row core.Row) core.Row { return row })

	served := 0
	delayed := func() (core.Row, error) {
		time.Sleep(r.RowDelay)
		if r.RowErr != nil && served == r.FailAt {
			return nil, r.RowErr
		}
		served++
		return next()
	}

	return builders.NewResultStreamBuilder().
		WithNextFunc(delayed, hasNext).
		WithHeader(header).
		WithMeta(&core.Meta{Columns: r.Columns}).
		Build()
}
