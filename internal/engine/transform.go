package engine

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// applyTransform applies a named mapping transform to a value. Transforms
// are pure and total: they never fail, and an unrecognized name passes
// the value through unchanged.
func applyTransform(name string, value any) any {
	switch name {
	case "uppercase":
		if s, ok := value.(string); ok {
			return strings.ToUpper(s)
		}
		return value
	case "lowercase":
		if s, ok := value.(string); ok {
			return strings.ToLower(s)
		}
		return value
	case "length":
		return lengthOf(value)
	case "str":
		return fmt.Sprintf("%v", value)
	case "int":
		return coerceInt(value)
	case "float":
		return coerceFloat(value)
	default:
		return value
	}
}

func lengthOf(value any) int {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v)
	case []any:
		return len(v)
	case map[string]any:
		return len(v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len()
	}
	return 0
}

// coerceInt truncates numerics toward zero and parses integer strings;
// anything else, including fractional strings, falls back to 0.
func coerceInt(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return int(v)
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	case float32:
		return int(v)
	case float64:
		return int(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		return 0
	default:
		return 0
	}
}

func coerceFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case bool:
		if v {
			return 1.0
		}
		return 0.0
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
		return 0.0
	default:
		return 0.0
	}
}
