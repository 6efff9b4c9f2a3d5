package extract

import (
	"context"
	"strings"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
	"github.com/cylestio/cylestio-local-mini-server/internal/jsonpath"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

var durationMSPaths = []string{
	"performance.duration_ms",
	"duration_ms",
	"response_time_ms",
}

// PerformanceExtractor records one observed duration per event, taken
// from the event envelope when present and from the payload otherwise.
type PerformanceExtractor struct{}

func NewPerformanceExtractor() *PerformanceExtractor { return &PerformanceExtractor{} }

func (*PerformanceExtractor) Name() string { return "performance" }

func (*PerformanceExtractor) Applicable(ev *domain.Event) bool {
	if ev.DurationMS != nil {
		return true
	}
	for _, p := range durationMSPaths {
		if jsonpath.Has(ev.Data, p) {
			return true
		}
	}
	return strings.HasSuffix(ev.EventType, "_finish") && jsonpath.Has(ev.Data, "duration")
}

func (*PerformanceExtractor) Extract(ctx context.Context, ev *domain.Event, store repository.EventStore) error {
	duration := durationMS(ev)
	if duration <= 0 {
		return nil
	}
	pm := &domain.PerformanceMetric{
		EventID:    ev.ID,
		DurationMS: duration,
		Timestamp:  ev.Timestamp,
	}
	if err := store.InsertPerformanceMetric(ctx, pm); err != nil {
		return err
	}
	if ev.SessionID == "" {
		return nil
	}
	return store.RecordSessionLatency(ctx, ev.SessionID, duration)
}

// durationMS resolves the event's duration in milliseconds. The
// envelope field wins; payload "duration" without a _ms suffix carries
// seconds and is scaled.
func durationMS(ev *domain.Event) float64 {
	if ev.DurationMS != nil && *ev.DurationMS > 0 {
		return *ev.DurationMS
	}
	if d := jsonpath.AsFloat(jsonpath.ResolveFirst(ev.Data, durationMSPaths, nil), 0); d > 0 {
		return d
	}
	if d := jsonpath.AsFloat(jsonpath.Resolve(ev.Data, "duration", nil), 0); d > 0 {
		return d * 1000
	}
	return 0
}
