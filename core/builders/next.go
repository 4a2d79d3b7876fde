package builders

import (
	"errors"

	"github.com/kndndrj/bqrunner/core"
)

var ErrNoNextRow = errors.New("no next row")

// NextSlice creates next and hasNext functions from provided values.
// toRow converts a single value from the slice into a row.
func NextSlice[T any](values []T, toRow func(T) core.Row) (func() (core.Row, error), func() bool) {
	index := 0

	hasNext := func() bool {
		return index < len(values)
	}

	next := func() (core.Row, error) {
		if !hasNext() {
			return nil, ErrNoNextRow
		}

		row := toRow(values[index])
		index++
		return row, nil
	}

	return next, hasNext
}

// NextNil creates next and hasNext functions that don't return anything (no rows)
func NextNil() (func() (core.Row, error), func() bool) {
	hasNext := func() bool {
		return false
	}

	next := func() (core.Row, error) {
		return nil, ErrNoNextRow
	}

	return next, hasNext
}
