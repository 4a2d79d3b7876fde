package format

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/kndndrj/bqrunner/core"
)

var _ core.Formatter = (*CSV)(nil)

// CSV writes the header line followed by one line per row. Nulls are
// written as empty fields.
type CSV struct{}

func NewCSV() *CSV {
	return &CSV{}
}

func (cf *CSV) Format(header core.Header, rows []core.Row, _ *core.FormatterOptions) ([]byte, error) {
	data := [][]string{header}
	for _, row := range rows {
		record := make([]string, 0, len(row))
		for _, rec := range row {
			record = append(record, stringify(rec, ""))
		}
		data = append(data, record)
	}

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)

	err := w.WriteAll(data)
	if err != nil {
		return nil, fmt.Errorf("w.WriteAll: %w", err)
	}

	return b.Bytes(), nil
}
