package bqrunner

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	bq "google.golang.org/api/bigquery/v2"
)

// ColumnType is the generic type tag of a result column.
type ColumnType string

const (
	TypeInteger  ColumnType = "integer"
	TypeFloat    ColumnType = "float"
	TypeBoolean  ColumnType = "boolean"
	TypeString   ColumnType = "string"
	TypeDatetime ColumnType = "datetime"
)

type (
	Column struct {
		Name         string     `json:"name"`
		FriendlyName string     `json:"friendly_name"`
		Type         ColumnType `json:"type"`
	}

	// Record is a decoded row keyed by field name.
	Record map[string]any

	// Table is a fully materialized query result.
	Table struct {
		Columns []Column `json:"columns"`
		Rows    []Record `json:"rows"`
	}
)

// MarshalJSON writes non-finite floats the way the service sends them:
// "NaN", "Infinity" and "-Infinity". JSON has no literal for them.
func (r Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}

	out := make(map[string]any, len(r))
	for name, value := range r {
		out[name] = jsonValue(value)
	}
	return json.Marshal(out)
}

// jsonValue replaces non-finite floats with their string spelling and
// returns every other value unchanged.
func jsonValue(value any) any {
	f, ok := value.(float64)
	if !ok {
		return value
	}

	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}

// ColumnTypeOf maps a BigQuery field type to a generic column type.
// Unknown types are reported as strings.
func ColumnTypeOf(fieldType string) ColumnType {
	switch bigquery.FieldType(fieldType) {
	case bigquery.IntegerFieldType:
		return TypeInteger
	case bigquery.FloatFieldType:
		return TypeFloat
	case bigquery.BooleanFieldType:
		return TypeBoolean
	case bigquery.StringFieldType:
		return TypeString
	case bigquery.TimestampFieldType:
		return TypeDatetime
	default:
		return TypeString
	}
}

func buildColumns(fields []*bq.TableFieldSchema) []Column {
	columns := make([]Column, 0, len(fields))
	for _, f := range fields {
		columns = append(columns, Column{
			Name:         f.Name,
			FriendlyName: f.Name,
			Type:         ColumnTypeOf(f.Type),
		})
	}

	return columns
}

// TransformRow decodes the cells of a row positionally using fields.
// Null cells stay nil. If two fields share a name, the later one wins.
func TransformRow(row *bq.TableRow, fields []*bq.TableFieldSchema) (Record, error) {
	if row == nil {
		return nil, unexpectedf("nil row")
	}
	if len(row.F) > len(fields) {
		return nil, unexpectedf("row has %d cells, schema has %d fields", len(row.F), len(fields))
	}

	record := make(Record, len(row.F))
	for i, cell := range row.F {
		field := fields[i]

		var raw any
		if cell != nil {
			raw = cell.V
		}

		value, err := coerce(field.Type, raw)
		if err != nil {
			return nil, &UnexpectedError{Err: fmt.Errorf("field %q: %w", field.Name, err)}
		}

		record[field.Name] = value
	}

	return record, nil
}

func coerce(fieldType string, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}

	typ := bigquery.FieldType(fieldType)
	switch typ {
	case bigquery.IntegerFieldType, bigquery.FloatFieldType, bigquery.BooleanFieldType, bigquery.TimestampFieldType:
	default:
		return raw, nil
	}

	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("expected string encoded %s value, got %T", fieldType, raw)
	}

	switch typ {
	case bigquery.IntegerFieldType:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return v, nil
	case bigquery.FloatFieldType:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return v, nil
	case bigquery.BooleanFieldType:
		// anything but "true" is false, including garbage
		return strings.EqualFold(s, "true"), nil
	default:
		epoch, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return epochToTime(epoch), nil
	}
}

// epochToTime converts fractional unix seconds to a local time. The service
// sends microsecond precision, anything finer is float noise.
func epochToTime(epoch float64) time.Time {
	sec, frac := math.Modf(epoch)
	return time.Unix(int64(sec), 0).Add(time.Duration(math.Round(frac*1e6)) * time.Microsecond)
}
