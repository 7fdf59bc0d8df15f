// Package values converts loosely typed configuration values.
//
// TOML decodes integers as int64 and arrays as []any, while values set in
// code keep their Go types. Config stores share these conversions so every
// backend reads a key the same way. Each function returns the zero value
// when v is nil or of an unsupported type.
package values

import "time"

// String returns v when it is a string.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int accepts any integer kind and whole floats.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	return 0
}

// Float widens integers.
func Float(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// Duration accepts a Go duration string ("15s"), a time.Duration, or a
// whole number of seconds.
func Duration(v any) time.Duration {
	switch d := v.(type) {
	case time.Duration:
		return d
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0
		}
		return parsed
	case int, int64:
		return time.Duration(Int(d)) * time.Second
	}
	return 0
}

// Bool returns v when it is a bool.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

// StringSlice keeps the string elements of a []any; others are skipped.
func StringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
