package jsonpath

import (
	"reflect"
	"sort"
	"testing"
	"time"
)

func payload() map[string]any {
	return map[string]any{
		"usage": map[string]any{
			"input_tokens":  float64(100),
			"output_tokens": float64(0),
		},
		"messages": []any{
			map[string]any{"role": "user", "content": "hi"},
			map[string]any{"role": "assistant", "content": ""},
		},
		"flags": map[string]any{
			"cached": false,
		},
	}
}

func TestResolveNestedPaths(t *testing.T) {
	data := payload()

	if got := Resolve(data, "usage.input_tokens", nil); got != float64(100) {
		t.Fatalf("expected 100, got %v", got)
	}
	if got := Resolve(data, "messages.1.role", ""); got != "assistant" {
		t.Fatalf("expected assistant, got %v", got)
	}
}

func TestResolveReturnsDefaultOnMiss(t *testing.T) {
	data := payload()

	cases := []string{
		"usage.total_tokens",      // absent leaf
		"usage.input_tokens.deep", // scalar is not indexable
		"messages.5.role",         // index out of range
		"messages.x",              // non-numeric index into slice
		"missing.entirely",
	}
	for _, path := range cases {
		if got := Resolve(data, path, "fallback"); got != "fallback" {
			t.Fatalf("path %q: expected fallback, got %v", path, got)
		}
	}
	if got := Resolve(nil, "a.b", 7); got != 7 {
		t.Fatalf("nil data: expected 7, got %v", got)
	}
}

func TestResolveFirstPrefersPresenceOverTruthiness(t *testing.T) {
	data := payload()

	// output_tokens is 0 but present; it must win over the later path.
	got := ResolveFirst(data, []string{"usage.output_tokens", "usage.input_tokens"}, nil)
	if got != float64(0) {
		t.Fatalf("expected present zero value, got %v", got)
	}
	// Same for empty strings and false.
	if got := ResolveFirst(data, []string{"messages.1.content", "messages.0.content"}, "x"); got != "" {
		t.Fatalf("expected empty string hit, got %v", got)
	}
	if got := ResolveFirst(data, []string{"flags.cached", "usage.input_tokens"}, true); got != false {
		t.Fatalf("expected false hit, got %v", got)
	}
	// All misses fall through to the default.
	if got := ResolveFirst(data, []string{"a.b", "c.d"}, "def"); got != "def" {
		t.Fatalf("expected default, got %v", got)
	}
}

func TestCoercions(t *testing.T) {
	if got := AsInt("42", -1); got != 42 {
		t.Fatalf("AsInt string: got %d", got)
	}
	if got := AsInt("1250.7", -1); got != 1250 {
		t.Fatalf("AsInt float string: got %d", got)
	}
	if got := AsInt(map[string]any{}, -1); got != -1 {
		t.Fatalf("AsInt container: got %d", got)
	}
	if got := AsFloat("123.456", 0); got != 123.456 {
		t.Fatalf("AsFloat string: got %v", got)
	}
	if got := AsFloat("not a number", -1); got != -1 {
		t.Fatalf("AsFloat garbage: got %v", got)
	}
	if got := AsBool("true", false); !got {
		t.Fatal("AsBool string true")
	}
	if got := AsString(float64(12), ""); got != "12" {
		t.Fatalf("AsString number: got %q", got)
	}
}

func TestAsTimeFormats(t *testing.T) {
	want := time.Date(2025, time.March, 20, 10, 5, 0, 0, time.UTC)
	inputs := []any{
		"2025-03-20T10:05:00Z",
		"2025-03-20 10:05:00",
		"2025-03-20T10:05:00",
		"2025/03/20 10:05:00",
		float64(want.Unix()),
	}
	for _, in := range inputs {
		got := AsTime(in, time.Time{})
		if !got.Equal(want) {
			t.Fatalf("input %v: got %v, want %v", in, got, want)
		}
	}
	def := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := AsTime("yesterday-ish", def); !got.Equal(def) {
		t.Fatalf("unparseable input: got %v", got)
	}
}

func TestFlatten(t *testing.T) {
	flat := Flatten(payload(), ".")

	want := map[string]any{
		"usage.input_tokens":  float64(100),
		"usage.output_tokens": float64(0),
		"messages.0.role":     "user",
		"messages.0.content":  "hi",
		"messages.1.role":     "assistant",
		"messages.1.content":  "",
		"flags.cached":        false,
	}
	if !reflect.DeepEqual(flat, want) {
		t.Fatalf("flatten mismatch:\n got %v\nwant %v", flat, want)
	}
}

func TestFindValuesByKey(t *testing.T) {
	data := map[string]any{
		"model": "claude-3",
		"response": map[string]any{
			"model": "claude-3-opus",
			"choices": []any{
				map[string]any{"model": "nested"},
			},
		},
	}
	values := FindValuesByKey(data, "model")
	strs := make([]string, 0, len(values))
	for _, v := range values {
		strs = append(strs, v.(string))
	}
	sort.Strings(strs)
	want := []string{"claude-3", "claude-3-opus", "nested"}
	if !reflect.DeepEqual(strs, want) {
		t.Fatalf("got %v, want %v", strs, want)
	}

	paths := FindPathsWithKey(data, "model")
	if len(paths) != 3 {
		t.Fatalf("expected 3 paths, got %d: %v", len(paths), paths)
	}
}
