package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kndndrj/bqrunner/core"
)

var _ core.Formatter = (*Table)(nil)

// Table renders an aligned text table with a leading row number column.
type Table struct{}

func NewTable() *Table {
	return &Table{}
}

func (tf *Table) Format(header core.Header, rows []core.Row, opts *core.FormatterOptions) ([]byte, error) {
	tableHeaders := table.Row{""}
	for _, k := range header {
		tableHeaders = append(tableHeaders, k)
	}

	tableRows := make([]table.Row, 0, len(rows))
	for i, row := range rows {
		indexedRow := table.Row{i + 1}
		for _, v := range row {
			indexedRow = append(indexedRow, stringify(v, "NULL"))
		}
		tableRows = append(tableRows, indexedRow)
	}

	t := table.NewWriter()
	t.AppendHeader(tableHeaders)
	t.AppendRows(tableRows)
	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false
	t.SetColumnConfigs(columnConfigs(columnsOf(header, opts)))
	t.SuppressTrailingSpaces()

	return []byte(t.Render()), nil
}

// numeric columns are right aligned; column 1 is the row number
func columnConfigs(columns []core.Column) []table.ColumnConfig {
	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignRight}}
	for i, col := range columns {
		if col.Type == "integer" || col.Type == "float" {
			configs = append(configs, table.ColumnConfig{Number: i + 2, Align: text.AlignRight})
		}
	}
	return configs
}
