// Package coerce converts loosely typed decoded JSON values into the
// primitives the data model expects. Every function is total.
package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// String returns v as a trimmed string. Numbers and booleans are formatted,
// anything else becomes "".
func String(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Number parses v as a finite number. ok is false for missing, empty or
// non-numeric input.
func Number(v interface{}) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		// Accept a decimal comma as typed on many keyboards.
		if !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NumberOr returns the parsed number or def.
func NumberOr(v interface{}, def float64) float64 {
	if f, ok := Number(v); ok {
		return f
	}
	return def
}

// OptionalNumber returns a pointer to the parsed number, or nil.
func OptionalNumber(v interface{}) *float64 {
	if f, ok := Number(v); ok {
		return &f
	}
	return nil
}

// Bool reports whether v is a truthy flag: true, non-zero numbers and the
// strings "true", "yes", "1", "on".
func Bool(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "1", "on":
			return true
		}
	}
	return false
}

// Map returns v as a JSON object, or nil.
func Map(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

// Slice returns v as a JSON array, or nil.
func Slice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

// First returns the first present, non-null value among keys.
func First(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
				continue
			}
			return v
		}
	}
	return nil
}

// Strings returns v as a list of non-empty trimmed strings. A single string
// is split on commas.
func Strings(v interface{}) []string {
	out := []string{}
	switch val := v.(type) {
	case []interface{}:
		for _, item := range val {
			if s := String(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, item := range val {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(val, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// StringMap returns v as a map of strings, dropping non-scalar values.
func StringMap(v interface{}) map[string]string {
	out := map[string]string{}
	for k, item := range Map(v) {
		switch item.(type) {
		case string, float64, bool, int, json.Number:
			out[k] = String(item)
		}
	}
	return out
}
