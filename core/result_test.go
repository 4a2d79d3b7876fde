package core

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockedResultStream struct {
	max     int
	current int
	failAt  int
	meta    *Meta
	closed  bool
}

func newMockedResultStream(maxRows int) *mockedResultStream {
	return &mockedResultStream{
		max:    maxRows,
		failAt: -1,
		meta: &Meta{Columns: []Column{
			{Name: "id", FriendlyName: "id", Type: "integer"},
			{Name: "label", FriendlyName: "label", Type: "string"},
		}},
	}
}

func (mir *mockedResultStream) Meta() *Meta {
	return mir.meta
}

func (mir *mockedResultStream) Header() Header {
	return Header{"id", "label"}
}

func (mir *mockedResultStream) Next() (Row, error) {
	if mir.current == mir.failAt {
		return nil, errors.New("page fetch failed")
	}
	if mir.current < mir.max {
		num := mir.current
		mir.current++
		return Row{num, strconv.Itoa(num)}, nil
	}

	return nil, errors.New("no next row")
}

func (mir *mockedResultStream) HasNext() bool {
	return mir.current < mir.max
}

func (mir *mockedResultStream) Close() {
	mir.closed = true
}

func rowRange(from int, to int) []Row {
	rows := []Row{}
	for i := from; i < to; i++ {
		rows = append(rows, Row{i, strconv.Itoa(i)})
	}
	return rows
}

func TestDrain(t *testing.T) {
	testCases := []struct {
		name string
		rows int
	}{
		{name: "no rows", rows: 0},
		{name: "one row", rows: 1},
		{name: "many rows", rows: 50},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			stream := newMockedResultStream(tc.rows)
			started := false

			result, err := drain(stream, func() {
				r.Zero(stream.current, "onStart must run before the first row")
				started = true
			})
			r.NoError(err)

			r.True(started)
			r.True(stream.closed)
			r.Equal(tc.rows, result.Len())
			r.Equal(rowRange(0, tc.rows), result.Rows())
			r.Equal(Header{"id", "label"}, result.Header())
			r.Len(result.Columns(), 2)
		})
	}
}

func TestDrain_RowError(t *testing.T) {
	r := require.New(t)

	stream := newMockedResultStream(5)
	stream.failAt = 2

	result, err := drain(stream, nil)
	r.Nil(result)
	r.EqualError(err, "row 2: page fetch failed")
	r.True(stream.closed)
}

func TestDrain_NilMeta(t *testing.T) {
	r := require.New(t)

	stream := newMockedResultStream(1)
	stream.meta = nil

	result, err := drain(stream, nil)
	r.NoError(err)
	r.Empty(result.Columns())
}

type recordingFormatter struct {
	header Header
	rows   []Row
	opts   *FormatterOptions
}

func (f *recordingFormatter) Format(header Header, rows []Row, opts *FormatterOptions) ([]byte, error) {
	f.header, f.rows, f.opts = header, rows, opts
	return []byte("ok"), nil
}

func TestResult_Format(t *testing.T) {
	r := require.New(t)

	result, err := drain(newMockedResultStream(5), nil)
	r.NoError(err)

	formatter := new(recordingFormatter)
	out, err := result.Format(formatter)
	r.NoError(err)

	r.Equal("ok", string(out))
	r.Equal(Header{"id", "label"}, formatter.header)
	r.Equal(rowRange(0, 5), formatter.rows)
	r.Len(formatter.opts.Columns, 2)
	r.Equal("integer", formatter.opts.Columns[0].Type)
}
