package core

import "fmt"

// Result is a drained ResultStream: the typed columns of a query and every
// row it produced, in order.
type Result struct {
	header  Header
	columns []Column
	rows    []Row
}

// drain reads iter to the end and closes it. onStart is called once the
// header is known, before the first row is read.
func drain(iter ResultStream, onStart func()) (*Result, error) {
	defer iter.Close()

	res := &Result{
		header: iter.Header(),
		rows:   []Row{},
	}
	if meta := iter.Meta(); meta != nil {
		res.columns = meta.Columns
	}

	if onStart != nil {
		onStart()
	}

	for iter.HasNext() {
		row, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(res.rows), err)
		}
		if row == nil {
			break
		}
		res.rows = append(res.rows, row)
	}

	return res, nil
}

func (r *Result) Len() int {
	return len(r.rows)
}

func (r *Result) Header() Header {
	return r.header
}

// Columns returns the typed column descriptions. It is empty when the
// driver reported none.
func (r *Result) Columns() []Column {
	return r.columns
}

func (r *Result) Rows() []Row {
	return r.rows
}

// Format renders every row of the result.
func (r *Result) Format(formatter Formatter) ([]byte, error) {
	out, err := formatter.Format(r.header, r.rows, &FormatterOptions{Columns: r.columns})
	if err != nil {
		return nil, fmt.Errorf("formatter.Format: %w", err)
	}

	return out, nil
}
