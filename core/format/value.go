package format

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// stringify renders a decoded cell for text outputs. Nulls render as the
// provided placeholder.
func stringify(value any, null string) string {
	switch v := value.(type) {
	case nil:
		return null
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case float64:
		if s, ok := nonFinite(v); ok {
			return s
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// jsonValue spells non-finite floats as strings, JSON has no literal for them.
func jsonValue(value any) any {
	if f, ok := value.(float64); ok {
		if s, ok := nonFinite(f); ok {
			return s
		}
	}
	return value
}

func nonFinite(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "NaN", true
	case math.IsInf(f, 1):
		return "Infinity", true
	case math.IsInf(f, -1):
		return "-Infinity", true
	default:
		return "", false
	}
}
