package format_test

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kndndrj/bqrunner/core"
	"github.com/kndndrj/bqrunner/core/format"
)

var (
	testHeader = core.Header{"id", "score", "active", "seen_at", "note"}
	testOpts   = &core.FormatterOptions{
		Columns: []core.Column{
			{Name: "id", FriendlyName: "id", Type: "integer"},
			{Name: "score", FriendlyName: "score", Type: "float"},
			{Name: "active", FriendlyName: "active", Type: "boolean"},
			{Name: "seen_at", FriendlyName: "seen_at", Type: "datetime"},
			{Name: "note", FriendlyName: "note", Type: "string"},
		},
	}
	testRows = []core.Row{
		{int64(1), 1.5, true, time.Unix(0, 0).UTC(), "hello, world"},
		{int64(2), nil, false, nil, nil},
	}
)

func TestJSON_Format(t *testing.T) {
	r := require.New(t)

	out, err := format.NewCompactJSON().Format(testHeader, testRows, testOpts)
	r.NoError(err)

	r.JSONEq(`{
		"columns": [
			{"name": "id", "friendly_name": "id", "type": "integer"},
			{"name": "score", "friendly_name": "score", "type": "float"},
			{"name": "active", "friendly_name": "active", "type": "boolean"},
			{"name": "seen_at", "friendly_name": "seen_at", "type": "datetime"},
			{"name": "note", "friendly_name": "note", "type": "string"}
		],
		"rows": [
			{"id": 1, "score": 1.5, "active": true, "seen_at": "1970-01-01T00:00:00Z", "note": "hello, world"},
			{"id": 2, "score": null, "active": false, "seen_at": null, "note": null}
		]
	}`, string(out))
}

func TestJSON_FormatWithoutColumns(t *testing.T) {
	r := require.New(t)

	out, err := format.NewJSON().Format(core.Header{"a"}, nil, &core.FormatterOptions{})
	r.NoError(err)

	r.JSONEq(`{"columns": [{"name": "a", "friendly_name": "a", "type": "string"}], "rows": []}`, string(out))
	r.Contains(string(out), "\n  ")
}

func TestJSON_FormatNonFiniteFloats(t *testing.T) {
	r := require.New(t)

	header := core.Header{"a", "b", "c"}
	rows := []core.Row{{math.NaN(), math.Inf(1), math.Inf(-1)}}

	out, err := format.NewCompactJSON().Format(header, rows, nil)
	r.NoError(err)
	r.JSONEq(`{
		"columns": [
			{"name": "a", "friendly_name": "a", "type": "string"},
			{"name": "b", "friendly_name": "b", "type": "string"},
			{"name": "c", "friendly_name": "c", "type": "string"}
		],
		"rows": [{"a": "NaN", "b": "Infinity", "c": "-Infinity"}]
	}`, string(out))

	out, err = format.NewCSV().Format(header, rows, nil)
	r.NoError(err)
	r.Equal("a,b,c\nNaN,Infinity,-Infinity\n", string(out))
}

func TestCSV_Format(t *testing.T) {
	r := require.New(t)

	out, err := format.NewCSV().Format(testHeader, testRows, testOpts)
	r.NoError(err)

	r.Equal(strings.Join([]string{
		"id,score,active,seen_at,note",
		`1,1.5,true,1970-01-01T00:00:00Z,"hello, world"`,
		"2,,false,,",
		"",
	}, "\n"), string(out))
}

func TestTable_Format(t *testing.T) {
	r := require.New(t)

	out, err := format.NewTable().Format(testHeader, testRows, testOpts)
	r.NoError(err)

	lines := strings.Split(string(out), "\n")
	r.Len(lines, 4)
	r.Contains(lines[0], "seen_at")
	r.True(strings.HasPrefix(strings.TrimSpace(lines[2]), "1 "))
	r.Contains(lines[2], "hello, world")
	r.True(strings.HasPrefix(strings.TrimSpace(lines[3]), "2 "))
	r.Contains(lines[3], "NULL")
}
