package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/kndndrj/bqrunner/bqrunner"
	"github.com/kndndrj/bqrunner/config"
	"github.com/kndndrj/bqrunner/core"
	"github.com/kndndrj/bqrunner/core/builders"
)

var _ core.Driver = (*bigQueryDriver)(nil)

type bigQueryDriver struct {
	runner *bqrunner.Runner
}

func newBigQueryDriver(cfg config.Config, opts ...bqrunner.Option) (*bigQueryDriver, error) {
	creds, err := cfg.Credentials()
	if err != nil {
		return nil, fmt.Errorf("cfg.Credentials: %w", err)
	}

	return &bigQueryDriver{
		runner: bqrunner.New(creds, append(cfg.Options(), opts...)...),
	}, nil
}

// Query runs the query to completion and streams the collected table.
func (c *bigQueryDriver) Query(ctx context.Context, query string) (core.ResultStream, error) {
	table, err := c.runner.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return tableToStream(table), nil
}

func (c *bigQueryDriver) Close() {}

func tableToStream(table *bqrunner.Table) core.ResultStream {
	header := make(core.Header, 0, len(table.Columns))
	columns := make([]core.Column, 0, len(table.Columns))
	for _, col := range table.Columns {
		header = append(header, col.Name)
		columns = append(columns, core.Column{
			Name:         col.Name,
			FriendlyName: col.FriendlyName,
			Type:         string(col.Type),
		})
	}

	// records are keyed by name, duplicates collapse to the last value
	next, hasNext := builders.NextSlice(table.Rows, func(rec bqrunner.Record) core.Row {
		row := make(core.Row, len(header))
		for i, name := range header {
			row[i] = rec[name]
		}
		return row
	})

	return builders.NewResultStreamBuilder().
		WithNextFunc(next, hasNext).
		WithHeader(header).
		WithMeta(&core.Meta{Columns: columns}).
		Build()
}

func setBoolOption(field *bool, name string, params url.Values) error {
	return setOption(field, name, params, strconv.ParseBool)
}

func setIntOption(field *int, name string, params url.Values) error {
	return setOption(field, name, params, strconv.Atoi)
}

func setInt64Option(field *int64, name string, params url.Values) error {
	return setOption(field, name, params, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

func setDurationOption(field *time.Duration, name string, params url.Values) error {
	return setOption(field, name, params, time.ParseDuration)
}

func setStringOption(field *string, name string, params url.Values) error {
	return setOption(field, name, params, func(s string) (string, error) { return s, nil })
}

func setOption[T any](field *T, name string, params url.Values, parse func(string) (T, error)) error {
	return callIfSet(name, params, parse, func(val T) error {
		*field = val
		return nil
	})
}

func callIfStringSet(name string, params url.Values, onSet func(string) error) error {
	return callIfSet(name, params, func(s string) (string, error) { return s, nil }, onSet)
}

func callIfSet[T any](name string, params url.Values, parse func(string) (T, error), cb func(T) error) error {
	setting := params.Get(name)
	if setting == "" {
		return nil
	}

	val, err := parse(setting)
	if err != nil {
		return fmt.Errorf("invalid value for %q: %w", name, err)
	}

	return cb(val)
}
