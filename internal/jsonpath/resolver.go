// Package jsonpath navigates the variant JSON payloads attached to
// telemetry events. SDK payloads are not contractually stable, so every
// accessor is defensive: a lookup that fails at any segment yields the
// caller's default instead of an error.
package jsonpath

import (
	"strconv"
	"strings"
	"time"
)

// Resolve walks data along a dotted path ("a.b.0.c"). Numeric segments
// index into slices. It returns def when any segment is absent, the
// container is not indexable, or an index is out of range.
func Resolve(data any, path string, def any) any {
	v, ok := Lookup(data, strings.Split(path, "."))
	if !ok {
		return def
	}
	return v
}

// ResolveFirst tries each candidate path in order and returns the first
// value that is actually present. Zero values (0, "", false, nil stored
// under the key) count as hits; only a failed lookup moves on to the
// next candidate. Returns def when every candidate fails.
func ResolveFirst(data any, paths []string, def any) any {
	for _, p := range paths {
		if v, ok := Lookup(data, strings.Split(p, ".")); ok {
			return v
		}
	}
	return def
}

// Lookup resolves an explicit key/index list and reports whether the
// full path resolved.
func Lookup(data any, keys []string) (any, bool) {
	current := data
	for _, key := range keys {
		if key == "" {
			return nil, false
		}
		switch c := current.(type) {
		case map[string]any:
			v, ok := c[key]
			if !ok {
				return nil, false
			}
			current = v
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, false
			}
			current = c[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Has reports whether the dotted path resolves in data.
func Has(data any, path string) bool {
	_, ok := Lookup(data, strings.Split(path, "."))
	return ok
}

// AsInt coerces v to an integer, returning def on failure.
func AsInt(v any, def int64) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	case string:
		if parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return parsed
		}
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int64(parsed)
		}
	case bool:
		if n {
			return 1
		}
		return 0
	}
	return def
}

// AsFloat coerces v to a float, returning def on failure.
func AsFloat(v any, def float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return parsed
		}
	}
	return def
}

// AsBool coerces v to a boolean, returning def on failure.
func AsBool(v any, def bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed
		}
	case float64:
		return b != 0
	case int:
		return b != 0
	case int64:
		return b != 0
	}
	return def
}

// AsString coerces v to a string, returning def when v is absent or a
// container. Numbers and booleans are formatted.
func AsString(v any, def string) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	}
	return def
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
}

// AsTime coerces v to a timestamp. Strings are tried against the
// layouts SDKs are known to emit; numbers are read as unix seconds.
// Returns def on failure.
func AsTime(v any, def time.Time) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed
			}
		}
	case float64:
		sec := int64(t)
		nsec := int64((t - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC()
	case int64:
		return time.Unix(t, 0).UTC()
	case int:
		return time.Unix(int64(t), 0).UTC()
	}
	return def
}
