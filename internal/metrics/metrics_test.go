package metrics

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

type fakeEvent struct {
	ts      time.Time
	agentID string
	typ     string
	level   string
	channel string
	session string
}

type fakeDuration struct {
	ts      time.Time
	agentID string
	ms      float64
}

type fakeTokens struct {
	ts      time.Time
	agentID string
	model   string
	in, out int64
}

type fakeAlert struct {
	ts       time.Time
	agentID  string
	typ      string
	severity string
}

// fakeStore computes the MetricStore aggregates in memory, including
// calendar bucket truncation, so calculator tests exercise real
// grouping behavior.
type fakeStore struct {
	events    []fakeEvent
	durations []fakeDuration
	tokens    []fakeTokens
	alerts    []fakeAlert
}

var _ repository.MetricStore = (*fakeStore)(nil)

func matches(f repository.MetricFilter, ts time.Time, agentID, typ, level, session string) bool {
	if ts.Before(f.Start) || ts.After(f.End) {
		return false
	}
	if f.AgentID != "" && f.AgentID != agentID {
		return false
	}
	if f.SessionID != "" && f.SessionID != session {
		return false
	}
	if len(f.EventTypes) > 0 && !contains(f.EventTypes, typ) {
		return false
	}
	if len(f.Levels) > 0 && !contains(f.Levels, level) {
		return false
	}
	return true
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func (s *fakeStore) CountEvents(_ context.Context, f repository.MetricFilter) (int64, error) {
	var n int64
	for _, e := range s.events {
		if matches(f, e.ts, e.agentID, e.typ, e.level, e.session) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CountSessions(_ context.Context, f repository.MetricFilter) (int64, error) {
	seen := make(map[string]bool)
	for _, e := range s.events {
		if e.session != "" && matches(f, e.ts, e.agentID, e.typ, e.level, e.session) {
			seen[e.session] = true
		}
	}
	return int64(len(seen)), nil
}

func (s *fakeStore) EventTypeCounts(_ context.Context, f repository.MetricFilter) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, e := range s.events {
		if matches(f, e.ts, e.agentID, e.typ, e.level, e.session) {
			out[e.typ]++
		}
	}
	return out, nil
}

func (s *fakeStore) ChannelCounts(_ context.Context, f repository.MetricFilter) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, e := range s.events {
		if matches(f, e.ts, e.agentID, e.typ, e.level, e.session) {
			out[e.channel]++
		}
	}
	return out, nil
}

func (s *fakeStore) LevelCounts(_ context.Context, f repository.MetricFilter) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, e := range s.events {
		if matches(f, e.ts, e.agentID, e.typ, e.level, e.session) {
			out[e.level]++
		}
	}
	return out, nil
}

func (s *fakeStore) EventBuckets(_ context.Context, f repository.MetricFilter, interval string) ([]repository.BucketStat, error) {
	counts := make(map[time.Time]int64)
	for _, e := range s.events {
		if matches(f, e.ts, e.agentID, e.typ, e.level, e.session) {
			counts[Interval(interval).Truncate(e.ts)]++
		}
	}
	return sortedBuckets(counts), nil
}

func (s *fakeStore) DurationStats(_ context.Context, f repository.MetricFilter) (repository.DurationStats, error) {
	var stats repository.DurationStats
	for _, d := range s.durations {
		if !matches(f, d.ts, d.agentID, "", "", "") {
			continue
		}
		if stats.Count == 0 || d.ms < stats.Min {
			stats.Min = d.ms
		}
		if d.ms > stats.Max {
			stats.Max = d.ms
		}
		stats.Avg += d.ms
		stats.Count++
	}
	if stats.Count > 0 {
		stats.Avg /= float64(stats.Count)
	}
	return stats, nil
}

func (s *fakeStore) DurationBuckets(_ context.Context, f repository.MetricFilter, interval string) ([]repository.BucketStat, error) {
	sums := make(map[time.Time]*repository.BucketStat)
	for _, d := range s.durations {
		if !matches(f, d.ts, d.agentID, "", "", "") {
			continue
		}
		bucket := Interval(interval).Truncate(d.ts)
		b := sums[bucket]
		if b == nil {
			b = &repository.BucketStat{Bucket: bucket, Min: d.ms, Max: d.ms}
			sums[bucket] = b
		}
		b.Count++
		b.Sum += d.ms
		if d.ms < b.Min {
			b.Min = d.ms
		}
		if d.ms > b.Max {
			b.Max = d.ms
		}
	}
	var out []repository.BucketStat
	for _, b := range sums {
		b.Avg = b.Sum / float64(b.Count)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })
	return out, nil
}

func (s *fakeStore) TokenTotals(_ context.Context, f repository.MetricFilter) (repository.TokenStats, error) {
	var stats repository.TokenStats
	for _, t := range s.tokens {
		if !matches(f, t.ts, t.agentID, "", "", "") {
			continue
		}
		stats.Requests++
		stats.InputTokens += t.in
		stats.OutputTokens += t.out
		stats.TotalTokens += t.in + t.out
	}
	return stats, nil
}

func (s *fakeStore) TokenBuckets(_ context.Context, f repository.MetricFilter, interval string) ([]repository.BucketStat, error) {
	counts := make(map[time.Time]*repository.BucketStat)
	for _, t := range s.tokens {
		if !matches(f, t.ts, t.agentID, "", "", "") {
			continue
		}
		bucket := Interval(interval).Truncate(t.ts)
		b := counts[bucket]
		if b == nil {
			b = &repository.BucketStat{Bucket: bucket}
			counts[bucket] = b
		}
		b.Count++
		b.Sum += float64(t.in + t.out)
	}
	var out []repository.BucketStat
	for _, b := range counts {
		b.Avg = b.Sum / float64(b.Count)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })
	return out, nil
}

func (s *fakeStore) TokenTotalsByModel(_ context.Context, f repository.MetricFilter, topN int) ([]repository.ModelTokenStats, error) {
	perModel := make(map[string]*repository.ModelTokenStats)
	for _, t := range s.tokens {
		if !matches(f, t.ts, t.agentID, "", "", "") {
			continue
		}
		m := perModel[t.model]
		if m == nil {
			m = &repository.ModelTokenStats{Model: t.model}
			perModel[t.model] = m
		}
		m.Requests++
		m.InputTokens += t.in
		m.OutputTokens += t.out
		m.TotalTokens += t.in + t.out
	}
	var out []repository.ModelTokenStats
	for _, m := range perModel {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalTokens > out[j].TotalTokens })
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

func (s *fakeStore) AlertSeverityCounts(_ context.Context, f repository.MetricFilter) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, a := range s.alerts {
		if matches(f, a.ts, a.agentID, "", "", "") {
			out[a.severity]++
		}
	}
	return out, nil
}

func (s *fakeStore) AlertTypeCounts(_ context.Context, f repository.MetricFilter) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, a := range s.alerts {
		if matches(f, a.ts, a.agentID, "", "", "") {
			out[a.typ]++
		}
	}
	return out, nil
}

func (s *fakeStore) AlertBuckets(_ context.Context, f repository.MetricFilter, interval string) ([]repository.BucketStat, error) {
	counts := make(map[time.Time]int64)
	for _, a := range s.alerts {
		if matches(f, a.ts, a.agentID, "", "", "") {
			counts[Interval(interval).Truncate(a.ts)]++
		}
	}
	return sortedBuckets(counts), nil
}

func sortedBuckets(counts map[time.Time]int64) []repository.BucketStat {
	var out []repository.BucketStat
	for bucket, n := range counts {
		out = append(out, repository.BucketStat{Bucket: bucket, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })
	return out
}

func hourRange() Filter {
	return Filter{
		Start:    time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 3, 20, 11, 0, 0, 0, time.UTC),
		AgentID:  "a1",
		Interval: IntervalHour,
	}
}

func TestParseInterval(t *testing.T) {
	if i, err := ParseInterval(""); err != nil || i != IntervalHour {
		t.Fatalf("empty interval = %v, %v", i, err)
	}
	if _, err := ParseInterval("fortnight"); err == nil {
		t.Fatal("want error for unknown interval")
	}
}

func TestIntervalTruncateAlignsToCalendar(t *testing.T) {
	early := time.Date(2025, 3, 20, 10, 5, 0, 0, time.UTC)
	late := time.Date(2025, 3, 20, 10, 55, 0, 0, time.UTC)
	want := time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

	if got := IntervalHour.Truncate(early); !got.Equal(want) {
		t.Fatalf("Truncate(10:05) = %v, want %v", got, want)
	}
	if got := IntervalHour.Truncate(late); !got.Equal(want) {
		t.Fatalf("Truncate(10:55) = %v, want %v", got, want)
	}
	if got := IntervalDay.Truncate(late); !got.Equal(time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("day Truncate = %v", got)
	}
	if got := IntervalMinute.Truncate(early.Add(30 * time.Second)); !got.Equal(early) {
		t.Fatalf("minute Truncate = %v, want %v", got, early)
	}
}

func TestEventsShareHourBucket(t *testing.T) {
	store := &fakeStore{events: []fakeEvent{
		{ts: time.Date(2025, 3, 20, 10, 5, 0, 0, time.UTC), agentID: "a1", typ: "LLM_call_start", level: "INFO"},
		{ts: time.Date(2025, 3, 20, 10, 55, 0, 0, time.UTC), agentID: "a1", typ: "LLM_call_finish", level: "INFO"},
	}}
	res, err := (&ActivityCalculator{}).Calculate(context.Background(), store, hourRange())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if len(res.TimeSeries) != 1 {
		t.Fatalf("got %d buckets, want 1", len(res.TimeSeries))
	}
	sample := res.TimeSeries[0]
	if !sample.Bucket.Equal(time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("bucket = %v, want 10:00", sample.Bucket)
	}
	if sample.Values["event_count"] != int64(2) {
		t.Fatalf("event_count = %v, want 2", sample.Values["event_count"])
	}
}

func TestUsageTotals(t *testing.T) {
	store := &fakeStore{tokens: []fakeTokens{
		{ts: time.Date(2025, 3, 20, 10, 5, 0, 0, time.UTC), agentID: "a1", model: "claude-3-haiku", in: 100, out: 50},
	}}
	res, err := (&UsageCalculator{}).Calculate(context.Background(), store, hourRange())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if res.Overall["total_tokens"] != int64(150) {
		t.Fatalf("total_tokens = %v, want 150", res.Overall["total_tokens"])
	}
	if res.Overall["input_tokens"] != int64(100) || res.Overall["output_tokens"] != int64(50) {
		t.Fatalf("overall = %v", res.Overall)
	}
	if len(res.TimeSeries) != 1 {
		t.Fatalf("got %d samples, want 1", len(res.TimeSeries))
	}
}

func TestPerformancePercentileEstimate(t *testing.T) {
	store := &fakeStore{durations: []fakeDuration{
		{ts: time.Date(2025, 3, 20, 10, 5, 0, 0, time.UTC), agentID: "a1", ms: 100},
		{ts: time.Date(2025, 3, 20, 10, 10, 0, 0, time.UTC), agentID: "a1", ms: 300},
	}}
	res, err := (&PerformanceCalculator{}).Calculate(context.Background(), store, hourRange())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if res.Overall["avg_response_time_ms"] != 200.0 {
		t.Fatalf("avg = %v, want 200", res.Overall["avg_response_time_ms"])
	}
	if res.Overall["p95_ms"] != 290.0 {
		t.Fatalf("p95 = %v, want 290", res.Overall["p95_ms"])
	}
	if res.Overall["p99_ms"] != 298.0 {
		t.Fatalf("p99 = %v, want 298", res.Overall["p99_ms"])
	}
	if res.Overall["percentiles_estimated"] != true {
		t.Fatal("percentile estimate must be labeled")
	}
}

func TestErrorRate(t *testing.T) {
	ts := time.Date(2025, 3, 20, 10, 5, 0, 0, time.UTC)
	store := &fakeStore{events: []fakeEvent{
		{ts: ts, agentID: "a1", typ: "LLM_call_start", level: "INFO"},
		{ts: ts, agentID: "a1", typ: "LLM_call_finish", level: "ERROR"},
		{ts: ts, agentID: "a1", typ: "LLM_call_finish", level: "CRITICAL"},
		{ts: ts, agentID: "a1", typ: "LLM_call_finish", level: "INFO"},
	}}
	res, err := (&ErrorCalculator{}).Calculate(context.Background(), store, hourRange())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if res.Overall["error_count"] != int64(2) {
		t.Fatalf("error_count = %v, want 2", res.Overall["error_count"])
	}
	if res.Overall["error_rate"] != 0.5 {
		t.Fatalf("error_rate = %v, want 0.5", res.Overall["error_rate"])
	}
}

func TestEmptyRangeReturnsZeroResults(t *testing.T) {
	store := &fakeStore{}
	f := hourRange()
	for name, outcome := range DefaultRegistry().RunAll(context.Background(), store, f) {
		if outcome.Err != nil {
			t.Fatalf("%s: %v", name, outcome.Err)
		}
		res := outcome.Result
		if res == nil || res.Overall == nil {
			t.Fatalf("%s: nil result over empty range", name)
		}
		if len(res.TimeSeries) != 0 {
			t.Fatalf("%s: time series = %v, want empty", name, res.TimeSeries)
		}
	}
}

func TestRunSelectedUnknownName(t *testing.T) {
	store := &fakeStore{}
	out := DefaultRegistry().RunSelected(context.Background(), store, []string{"usage", "bogus"}, hourRange())
	if out["usage"].Err != nil {
		t.Fatalf("usage: %v", out["usage"].Err)
	}
	if out["bogus"].Err == nil {
		t.Fatal("unknown name must fail per-name")
	}
}

func TestModelBreakdown(t *testing.T) {
	ts := time.Date(2025, 3, 20, 10, 5, 0, 0, time.UTC)
	store := &fakeStore{tokens: []fakeTokens{
		{ts: ts, agentID: "a1", model: "claude-3-haiku", in: 10, out: 5},
		{ts: ts, agentID: "a1", model: "claude-3-opus", in: 100, out: 50},
	}}
	res, err := (&ModelCalculator{TopN: 10}).Calculate(context.Background(), store, hourRange())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	models := res.Overall["models"].([]map[string]any)
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0]["model"] != "claude-3-opus" {
		t.Fatalf("models not sorted by volume: %v", models)
	}
}
