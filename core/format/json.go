package format

import (
	"encoding/json"
	"fmt"

	"github.com/kndndrj/bqrunner/core"
)

var _ core.Formatter = (*JSON)(nil)

// JSON renders the rows as a document of columns and records keyed by
// column name:
//
//	{"columns": [{"name", "friendly_name", "type"}], "rows": [{<name>: <value>}]}
type JSON struct {
	indent bool
}

func NewJSON() *JSON {
	return &JSON{indent: true}
}

// NewCompactJSON returns a formatter which writes no insignificant whitespace.
func NewCompactJSON() *JSON {
	return &JSON{}
}

type document struct {
	Columns []core.Column    `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

func columnsOf(header core.Header, opts *core.FormatterOptions) []core.Column {
	if opts != nil && len(opts.Columns) > 0 {
		return opts.Columns
	}

	columns := make([]core.Column, 0, len(header))
	for _, h := range header {
		columns = append(columns, core.Column{Name: h, FriendlyName: h, Type: "string"})
	}
	return columns
}

func (jf *JSON) Format(header core.Header, rows []core.Row, opts *core.FormatterOptions) ([]byte, error) {
	doc := document{
		Columns: columnsOf(header, opts),
		Rows:    make([]map[string]any, 0, len(rows)),
	}

	for _, row := range rows {
		record := make(map[string]any, len(row))
		for i, val := range row {
			var h string
			if i < len(header) {
				h = header[i]
			} else {
				h = fmt.Sprintf("<unknown-field-%d>", i)
			}
			record[h] = jsonValue(val)
		}
		doc.Rows = append(doc.Rows, record)
	}

	var (
		out []byte
		err error
	)
	if jf.indent {
		out, err = json.MarshalIndent(doc, "", "  ")
	} else {
		out, err = json.Marshal(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return out, nil
}
