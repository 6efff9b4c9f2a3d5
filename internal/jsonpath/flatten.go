package jsonpath

import "strconv"

// Flatten produces a flat map whose keys are delimiter-joined paths to
// every scalar in data. Slice elements use their index as the segment.
func Flatten(data map[string]any, delimiter string) map[string]any {
	flat := make(map[string]any)
	var walk func(v any, prefix string)
	walk = func(v any, prefix string) {
		switch c := v.(type) {
		case map[string]any:
			for key, value := range c {
				next := key
				if prefix != "" {
					next = prefix + delimiter + key
				}
				switch value.(type) {
				case map[string]any, []any:
					walk(value, next)
				default:
					flat[next] = value
				}
			}
		case []any:
			for i, item := range c {
				next := strconv.Itoa(i)
				if prefix != "" {
					next = prefix + delimiter + next
				}
				switch item.(type) {
				case map[string]any, []any:
					walk(item, next)
				default:
					flat[next] = item
				}
			}
		}
	}
	walk(data, "")
	return flat
}

// FindPathsWithKey returns the path (as a key list) to every occurrence
// of target anywhere in the nested structure.
func FindPathsWithKey(data map[string]any, target string) [][]string {
	var results [][]string
	var search func(v any, path []string)
	search = func(v any, path []string) {
		switch c := v.(type) {
		case map[string]any:
			for key, value := range c {
				next := append(append([]string(nil), path...), key)
				if key == target {
					results = append(results, next)
				}
				switch value.(type) {
				case map[string]any, []any:
					search(value, next)
				}
			}
		case []any:
			for i, item := range c {
				switch item.(type) {
				case map[string]any, []any:
					search(item, append(append([]string(nil), path...), strconv.Itoa(i)))
				}
			}
		}
	}
	search(data, nil)
	return results
}

// FindValuesByKey returns every value stored under target anywhere in
// the nested structure.
func FindValuesByKey(data map[string]any, target string) []any {
	var results []any
	var search func(v any)
	search = func(v any) {
		switch c := v.(type) {
		case map[string]any:
			for key, value := range c {
				if key == target {
					results = append(results, value)
				}
				switch value.(type) {
				case map[string]any, []any:
					search(value)
				}
			}
		case []any:
			for _, item := range c {
				switch item.(type) {
				case map[string]any, []any:
					search(item)
				}
			}
		}
	}
	search(data)
	return results
}
